// Package university wraps the external universities directory API.
//
// The upstream (universities.hipolabs.com by default) is a flat search API
// keyed by country and name. This client normalizes its records into domain
// types and fans out multi-country fetches concurrently.
package university

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lodestar-edu/lodestar/internal/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// DefaultBaseURL is the public universities directory.
	DefaultBaseURL = "http://universities.hipolabs.com"

	// defaultTimeout bounds a single upstream call.
	defaultTimeout = 10 * time.Second

	// maxConcurrentFetches caps the fan-out when loading several countries
	// at once, to stay polite to the free upstream.
	maxConcurrentFetches = 4
)

// Client queries the universities directory.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	titleCaser cases.Caser
}

// NewClient creates a directory client. baseURL falls back to the public
// directory when empty.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
		titleCaser: cases.Title(language.English),
	}
}

// Search queries the directory by university name and/or country.
// Either filter may be empty. Results are capped at limit when limit > 0.
//
// When the upstream is unreachable or erroring, Search degrades to an empty
// result instead of failing: a directory outage should not take search pages
// down with it. Callers that need the failure, like the recommendation job,
// use FetchByCountries.
func (c *Client) Search(ctx context.Context, name, country string, limit int) ([]domain.University, error) {
	universities, err := c.search(ctx, name, country, limit)
	if err != nil {
		if domain.ErrorCode(err) == domain.EUNAVAILABLE {
			c.logger.Warn("university directory unavailable, serving empty results", "error", err)
			return []domain.University{}, nil
		}
		return nil, err
	}
	return universities, nil
}

// search is Search without the degradation: upstream failures come back as
// errors.
func (c *Client) search(ctx context.Context, name, country string, limit int) ([]domain.University, error) {
	query := url.Values{}
	if name != "" {
		query.Set("name", name)
	}
	if country != "" {
		query.Set("country", c.NormalizeCountry(country))
	}

	universities, err := c.fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(universities) > limit {
		universities = universities[:limit]
	}
	return universities, nil
}

// FetchByCountries loads universities for several countries concurrently
// and returns the merged result. Countries that return no universities are
// simply absent from the merge; an upstream failure fails the whole fetch,
// so the job queue can retry it instead of scoring a partial candidate set.
func (c *Client) FetchByCountries(ctx context.Context, countries []string, perCountry int) ([]domain.University, error) {
	if len(countries) == 0 {
		return nil, nil
	}

	var mu sync.Mutex
	merged := make([]domain.University, 0, len(countries)*perCountry)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for _, country := range countries {
		g.Go(func() error {
			universities, err := c.search(ctx, "", country, perCountry)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", country, err)
			}
			mu.Lock()
			merged = append(merged, universities...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return merged, nil
}

// NormalizeCountry converts a country name to the title-cased form the
// upstream expects ("united kingdom" -> "United Kingdom").
func (c *Client) NormalizeCountry(country string) string {
	return c.titleCaser.String(strings.TrimSpace(country))
}

// fetch performs one search call against the upstream.
func (c *Client) fetch(ctx context.Context, query url.Values) ([]domain.University, error) {
	searchURL := c.baseURL + "/search"
	if encoded := query.Encode(); encoded != "" {
		searchURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.Unavailable(err, "university.fetch", "University directory is unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("university directory error", "status", resp.StatusCode, "body", string(body))
		return nil, domain.Unavailable(
			fmt.Errorf("directory returned status %d", resp.StatusCode),
			"university.fetch", "University directory is unavailable")
	}

	var records []apiUniversity
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, domain.Internal(err, "university.fetch", "Failed to decode directory response")
	}

	universities := make([]domain.University, 0, len(records))
	for _, rec := range records {
		u := domain.University{
			Name:         rec.Name,
			Country:      rec.Country,
			WebPages:     rec.WebPages,
			Domains:      rec.Domains,
			AlphaTwoCode: rec.AlphaTwoCode,
		}
		if rec.StateProvince != nil {
			u.StateProvince = *rec.StateProvince
		}
		universities = append(universities, u)
	}
	return universities, nil
}

// apiUniversity is the upstream record shape. state-province is nullable
// and hyphenated on the wire.
type apiUniversity struct {
	Name          string   `json:"name"`
	Country       string   `json:"country"`
	WebPages      []string `json:"web_pages"`
	Domains       []string `json:"domains"`
	AlphaTwoCode  string   `json:"alpha_two_code"`
	StateProvince *string  `json:"state-province"`
}
