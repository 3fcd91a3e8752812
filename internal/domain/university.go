package domain

import (
	"time"

	"github.com/google/uuid"
)

// University is the normalized shape of an entry from the external
// universities directory.
type University struct {
	Name          string   `json:"name"`
	Country       string   `json:"country"`
	WebPages      []string `json:"web_pages"`
	Domains       []string `json:"domains"`
	AlphaTwoCode  string   `json:"alpha_two_code"`
	StateProvince string   `json:"state_province,omitempty"`
}

// Country is a study destination offered in the country picker.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// PopularDestinations is the curated list of study destinations shown to
// users who have not completed onboarding.
var PopularDestinations = []Country{
	{Code: "US", Name: "United States"},
	{Code: "GB", Name: "United Kingdom"},
	{Code: "CA", Name: "Canada"},
	{Code: "AU", Name: "Australia"},
	{Code: "DE", Name: "Germany"},
	{Code: "FR", Name: "France"},
	{Code: "NL", Name: "Netherlands"},
	{Code: "SE", Name: "Sweden"},
	{Code: "CH", Name: "Switzerland"},
	{Code: "SG", Name: "Singapore"},
	{Code: "JP", Name: "Japan"},
	{Code: "KR", Name: "South Korea"},
	{Code: "NZ", Name: "New Zealand"},
	{Code: "IE", Name: "Ireland"},
	{Code: "IN", Name: "India"},
}

// Recommendation is an AI-scored university match persisted for a user by
// the background recommendation job.
type Recommendation struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"-"`
	University University `json:"university"`
	MatchScore float64    `json:"match_score"` // 0-100
	Reasoning  string     `json:"reasoning"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CareerOption is a career path suggested by the AI counsellor.
type CareerOption struct {
	CareerTitle        string   `json:"career_title"`
	Description        string   `json:"description"`
	RequiredEducation  []string `json:"required_education"`
	AverageSalaryRange string   `json:"average_salary_range"`
	GrowthOutlook      string   `json:"growth_outlook"`
	KeySkills          []string `json:"key_skills"`
}

// CourseOption is a degree program suggested by the AI counsellor.
type CourseOption struct {
	CourseName      string   `json:"course_name"`
	InstitutionType string   `json:"institution_type"`
	Duration        string   `json:"duration"`
	Description     string   `json:"description"`
	Prerequisites   []string `json:"prerequisites"`
	CareerOutcomes  []string `json:"career_outcomes"`
}
