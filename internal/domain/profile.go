package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Profile holds the counselling profile collected during onboarding.
//
// The document-shaped sections (academic background, career goals,
// preferences, test scores) are stored as raw JSON: their shape is owned by
// the frontend forms and the AI prompt builder, not by the database schema.
// Interests is a flat list and gets a proper column type.
type Profile struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	AcademicBackground json.RawMessage
	Interests          []string
	CareerGoals        json.RawMessage
	Preferences        json.RawMessage
	TestScores         json.RawMessage
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PreferredCountries extracts the "countries" list from the preferences
// section, falling back to popular study destinations when the profile does
// not name any. Used to seed university recommendations.
func (p *Profile) PreferredCountries() []string {
	fallback := []string{"United States", "United Kingdom", "Canada"}
	if len(p.Preferences) == 0 {
		return fallback
	}

	var prefs struct {
		Countries []string `json:"countries"`
	}
	if err := json.Unmarshal(p.Preferences, &prefs); err != nil {
		return fallback
	}
	if len(prefs.Countries) == 0 {
		return fallback
	}
	return prefs.Countries
}

// ProfileUpdateParams carries a partial profile update. Nil sections are
// left untouched; non-nil sections replace the stored value.
type ProfileUpdateParams struct {
	UserID             uuid.UUID
	AcademicBackground json.RawMessage
	Interests          []string
	CareerGoals        json.RawMessage
	Preferences        json.RawMessage
	TestScores         json.RawMessage
}

// IsEmpty reports whether the update contains no sections at all.
func (p ProfileUpdateParams) IsEmpty() bool {
	return p.AcademicBackground == nil &&
		p.Interests == nil &&
		p.CareerGoals == nil &&
		p.Preferences == nil &&
		p.TestScores == nil
}
