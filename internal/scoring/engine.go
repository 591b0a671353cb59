// Package scoring computes the six-factor match score between a candidate profile
// and an employer. Scoring is pure: no I/O, no clock, no randomness.
package scoring

import (
	"strings"

	"github.com/jonathan/pitchprep/internal/types"
)

// Score computes the breakdown for profile against the employer context and an
// optional job description. Identical inputs always produce identical output.
func Score(profile types.UserProfile, emp types.EmployerContext, jobDescription string) types.ScoreBreakdown {
	p := profile.Normalize()
	emp = emp.Normalize()

	text := employerText(emp, jobDescription)
	empTokens := tokenize(text)
	empKW := keywords(text)
	hiring := inferHiring(emp, empTokens)

	majorText := strings.Join(append(append([]string{}, emp.Majors...), jobDescription, emp.AboutText, emp.CultureNotes, strings.Join(emp.TopRoles, " ")), " ")

	return types.ScoreBreakdown{
		Location:          scoreLocation(p.Location, emp),
		WorkAuthorization: scoreWorkAuthorization(p.WorkAuthorization, emp, hiring),
		Major:             scoreMajor(p.Major, keywords(majorText)),
		JobType:           scoreJobType(p.JobTypePreference, hiring),
		Skills:            scoreSkills(p.Skills, empTokens, empKW),
		Resume:            scoreResume(p.ResumeText, empKW),
	}
}

// employerText joins every employer field that carries keywords.
func employerText(emp types.EmployerContext, jobDescription string) string {
	parts := []string{jobDescription, emp.AboutText, emp.CultureNotes}
	parts = append(parts, emp.RecentNews...)
	parts = append(parts, emp.Majors...)
	parts = append(parts, emp.TopRoles...)
	parts = append(parts, emp.HiringTypes...)
	return strings.Join(parts, "\n")
}
