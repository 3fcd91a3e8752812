package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lodestar-edu/lodestar/internal/domain"
)

// buildChatSystemPrompt creates the system instruction for counselling chat.
func buildChatSystemPrompt(profile *domain.Profile) string {
	prompt := `You are an experienced study-abroad counsellor helping students plan international education. Your expertise covers:
- University selection and admission requirements
- Standardized tests (IELTS, TOEFL, GRE, GMAT, SAT)
- Application essays and recommendation letters
- Scholarships, tuition, and cost of living
- Student visas and immigration processes
- Career planning and degree selection

**Guidelines:**
- Give specific, actionable advice rather than generic encouragement
- When you lack information about the student, ask clarifying questions
- Be honest about admission competitiveness and costs
- Keep responses focused and reasonably concise`

	if summary := profileSummary(profile); summary != "" {
		prompt += "\n\n**Student Profile:**\n" + summary
	}

	return prompt
}

// buildRecommendPrompt creates the prompt for scoring universities against
// a student profile. The model ranks only from the provided candidates.
func buildRecommendPrompt(profile *domain.Profile, universities []domain.University, maxResults int) string {
	var sb strings.Builder

	sb.WriteString(`You are a study-abroad counsellor matching a student to universities. Score each candidate university below for fit with the student's profile.

**Scoring Guidelines:**
- match_score is 0-100, where 100 is a perfect fit
- Consider the student's academic background, interests, career goals, preferences, and test scores
- Reasoning should name the specific profile factors that drove the score
- Only score universities from the candidate list; never invent new ones

**Student Profile:**
`)
	summary := profileSummary(profile)
	if summary == "" {
		summary = "(no profile information available - score on general reputation and accessibility)"
	}
	sb.WriteString(summary)

	sb.WriteString("\n\n**Candidate Universities:**\n")
	for _, u := range universities {
		sb.WriteString(fmt.Sprintf("- %s (%s", u.Name, u.Country))
		if u.StateProvince != "" {
			sb.WriteString(", " + u.StateProvince)
		}
		sb.WriteString(")\n")
	}

	sb.WriteString(fmt.Sprintf(`
**Response Format:**
Return a JSON object with the top %d matches, best first:

{
  "recommendations": [
    {
      "name": "Exact university name from the candidate list",
      "match_score": 85,
      "reasoning": "Why this university fits the student"
    }
  ]
}`, maxResults))

	return sb.String()
}

// buildCareerPrompt creates the prompt for career path suggestions.
func buildCareerPrompt(profile *domain.Profile, maxResults int) string {
	var sb strings.Builder

	sb.WriteString("You are a career counsellor for students planning international education. Suggest career paths matching this student's profile.\n\n**Student Profile:**\n")
	summary := profileSummary(profile)
	if summary == "" {
		summary = "(no profile information available - suggest broadly popular career paths for international students)"
	}
	sb.WriteString(summary)

	sb.WriteString(fmt.Sprintf(`

**Response Format:**
Return a JSON object with up to %d career options:

{
  "careers": [
    {
      "career_title": "Job title",
      "description": "What this career involves",
      "required_education": ["Degree or qualification"],
      "average_salary_range": "e.g. $70,000 - $120,000",
      "growth_outlook": "Outlook for this field",
      "key_skills": ["skill"]
    }
  ]
}`, maxResults))

	return sb.String()
}

// buildCoursePrompt creates the prompt for course/degree suggestions.
func buildCoursePrompt(profile *domain.Profile, maxResults int) string {
	var sb strings.Builder

	sb.WriteString("You are a study-abroad counsellor. Suggest degree programs matching this student's profile.\n\n**Student Profile:**\n")
	summary := profileSummary(profile)
	if summary == "" {
		summary = "(no profile information available - suggest broadly popular programs for international students)"
	}
	sb.WriteString(summary)

	sb.WriteString(fmt.Sprintf(`

**Response Format:**
Return a JSON object with up to %d course options:

{
  "courses": [
    {
      "course_name": "Program name",
      "institution_type": "e.g. Research university",
      "duration": "e.g. 4 years",
      "description": "What the program covers",
      "prerequisites": ["requirement"],
      "career_outcomes": ["outcome"]
    }
  ]
}`, maxResults))

	return sb.String()
}

// profileSummary renders the profile sections as labelled JSON blocks for
// prompt embedding. Returns "" when there is nothing to show.
func profileSummary(profile *domain.Profile) string {
	if profile == nil {
		return ""
	}

	var parts []string
	appendSection := func(label string, raw json.RawMessage) {
		if len(raw) > 0 && string(raw) != "null" {
			parts = append(parts, fmt.Sprintf("%s: %s", label, string(raw)))
		}
	}

	appendSection("Academic background", profile.AcademicBackground)
	if len(profile.Interests) > 0 {
		parts = append(parts, "Interests: "+strings.Join(profile.Interests, ", "))
	}
	appendSection("Career goals", profile.CareerGoals)
	appendSection("Preferences", profile.Preferences)
	appendSection("Test scores", profile.TestScores)

	return strings.Join(parts, "\n")
}
