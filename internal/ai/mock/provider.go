// Package mock provides a deterministic ai.Counsellor for development and
// tests. It returns canned but profile-aware responses without any network
// calls.
package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/lodestar-edu/lodestar/internal/ai"
	"github.com/lodestar-edu/lodestar/internal/domain"
)

// Provider implements ai.Counsellor with canned responses.
type Provider struct{}

// New creates a new mock counsellor.
func New() *Provider {
	return &Provider{}
}

// Chat echoes a canned counselling reply.
func (p *Provider) Chat(ctx context.Context, params ai.ChatParams) (*ai.ChatResult, error) {
	if strings.TrimSpace(params.Message) == "" {
		return nil, ai.WrapError("chat", fmt.Errorf("message is required"))
	}

	reply := "Thanks for your question. As a first step, narrow down the countries you want to study in and check each university's admission requirements and deadlines."
	if params.Profile != nil && len(params.Profile.Interests) > 0 {
		reply = fmt.Sprintf("Given your interest in %s, look for programs with strong departments in that area. Check admission requirements and deadlines early.", params.Profile.Interests[0])
	}

	return &ai.ChatResult{
		Reply: reply,
		Usage: ai.UsageInfo{Model: "mock"},
	}, nil
}

// RecommendUniversities scores candidates with a descending synthetic score.
func (p *Provider) RecommendUniversities(ctx context.Context, params ai.RecommendParams) (*ai.RecommendResult, error) {
	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	result := &ai.RecommendResult{Usage: ai.UsageInfo{Model: "mock"}}
	for i, u := range params.Universities {
		if i >= maxResults {
			break
		}
		score := 90 - float64(i*5)
		if score < 10 {
			score = 10
		}
		result.Recommendations = append(result.Recommendations, ai.ScoredUniversity{
			University: u,
			MatchScore: score,
			Reasoning:  fmt.Sprintf("%s is a well-regarded institution in %s.", u.Name, u.Country),
		})
	}
	return result, nil
}

// SuggestCareerPaths returns a fixed set of career options.
func (p *Provider) SuggestCareerPaths(ctx context.Context, params ai.ProfileParams) (*ai.CareerResult, error) {
	careers := []domain.CareerOption{
		{
			CareerTitle:        "Software Engineer",
			Description:        "Design and build software systems.",
			RequiredEducation:  []string{"BSc Computer Science"},
			AverageSalaryRange: "$80,000 - $150,000",
			GrowthOutlook:      "Much faster than average",
			KeySkills:          []string{"programming", "problem solving"},
		},
		{
			CareerTitle:        "Data Analyst",
			Description:        "Turn data into decisions.",
			RequiredEducation:  []string{"BSc Statistics or related"},
			AverageSalaryRange: "$60,000 - $110,000",
			GrowthOutlook:      "Faster than average",
			KeySkills:          []string{"SQL", "statistics"},
		},
	}
	if params.MaxResults > 0 && len(careers) > params.MaxResults {
		careers = careers[:params.MaxResults]
	}
	return &ai.CareerResult{Careers: careers, Usage: ai.UsageInfo{Model: "mock"}}, nil
}

// RecommendCourses returns a fixed set of course options.
func (p *Provider) RecommendCourses(ctx context.Context, params ai.ProfileParams) (*ai.CourseResult, error) {
	courses := []domain.CourseOption{
		{
			CourseName:      "BSc Computer Science",
			InstitutionType: "Research university",
			Duration:        "4 years",
			Description:     "Foundations of computing, algorithms, and software engineering.",
			Prerequisites:   []string{"High school mathematics"},
			CareerOutcomes:  []string{"Software Engineer", "Data Analyst"},
		},
		{
			CourseName:      "MSc Business Analytics",
			InstitutionType: "Business school",
			Duration:        "1-2 years",
			Description:     "Applied statistics and machine learning for business problems.",
			Prerequisites:   []string{"Bachelor's degree"},
			CareerOutcomes:  []string{"Analytics Consultant"},
		},
	}
	if params.MaxResults > 0 && len(courses) > params.MaxResults {
		courses = courses[:params.MaxResults]
	}
	return &ai.CourseResult{Courses: courses, Usage: ai.UsageInfo{Model: "mock"}}, nil
}

// Compile-time check that Provider implements ai.Counsellor.
var _ ai.Counsellor = (*Provider)(nil)
