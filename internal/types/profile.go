// Package types provides type definitions for structured data used throughout the pitchprep system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// JobTypePreference is the kind of position a candidate is looking for.
type JobTypePreference string

// Job type preferences accepted on a profile.
const (
	JobTypeFullTime   JobTypePreference = "full-time"
	JobTypeInternship JobTypePreference = "internship"
	JobTypeAny        JobTypePreference = "any"
)

// profileValidator is shared; validator caches struct metadata per instance.
var profileValidator = validator.New()

// UserProfile is the candidate profile consumed by scoring and pitch generation.
// Optional fields are always empty strings or empty slices after Normalize, never nil.
type UserProfile struct {
	Name                string            `json:"name" validate:"required"`
	Email               string            `json:"email" validate:"omitempty,email"`
	School              string            `json:"school"`
	Major               string            `json:"major"`
	GraduationYear      string            `json:"graduationYear"`
	Location            string            `json:"location"`
	WorkAuthorization   string            `json:"workAuthorization"`
	VisaNotes           string            `json:"visaNotes,omitempty"`
	JobTypePreference   JobTypePreference `json:"jobTypePreference" validate:"oneof=full-time internship any"`
	PreferredRoles      []string          `json:"preferredRoles"`
	PreferredIndustries []string          `json:"preferredIndustries"`
	Skills              []string          `json:"skills"`
	Background          string            `json:"background"`
	ResumeText          string            `json:"resumeText"`
}

// Normalize returns a copy of the profile with trimmed strings, deduplicated sets
// and defaults applied. The legacy visaNotes field backs an empty workAuthorization.
func (p UserProfile) Normalize() UserProfile {
	out := UserProfile{
		Name:                strings.TrimSpace(p.Name),
		Email:               strings.TrimSpace(p.Email),
		School:              strings.TrimSpace(p.School),
		Major:               strings.TrimSpace(p.Major),
		GraduationYear:      strings.TrimSpace(p.GraduationYear),
		Location:            strings.TrimSpace(p.Location),
		WorkAuthorization:   strings.TrimSpace(p.WorkAuthorization),
		JobTypePreference:   JobTypePreference(strings.ToLower(strings.TrimSpace(string(p.JobTypePreference)))),
		PreferredRoles:      cleanList(p.PreferredRoles),
		PreferredIndustries: cleanList(p.PreferredIndustries),
		Skills:              cleanList(p.Skills),
		Background:          strings.TrimSpace(p.Background),
		ResumeText:          strings.TrimSpace(p.ResumeText),
	}
	if out.WorkAuthorization == "" {
		out.WorkAuthorization = strings.TrimSpace(p.VisaNotes)
	}
	switch out.JobTypePreference {
	case JobTypeFullTime, JobTypeInternship, JobTypeAny:
	case "fulltime", "full time":
		out.JobTypePreference = JobTypeFullTime
	case "intern":
		out.JobTypePreference = JobTypeInternship
	default:
		out.JobTypePreference = JobTypeAny
	}
	return out
}

// MissingFields reports which minimum fields a normalized profile lacks before a
// pitch can be generated for it. An empty result means the profile is usable.
func (p UserProfile) MissingFields() []string {
	var missing []string
	if err := profileValidator.Struct(p); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				missing = append(missing, jsonFieldName(fe.Field()))
			}
		} else {
			missing = append(missing, "profile")
		}
	}
	if p.Major == "" && len(p.Skills) == 0 && p.Background == "" && p.ResumeText == "" {
		missing = append(missing, "major|skills|background|resumeText")
	}
	return missing
}

// DisplayName is the name used when addressing the candidate in generated text.
func (p UserProfile) DisplayName() string {
	if p.Name == "" {
		return "there"
	}
	return p.Name
}

func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// cleanList trims entries, drops blanks and removes case-insensitive duplicates.
// The first spelling of a duplicate wins and order is preserved.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.Join(strings.Fields(s), " ")
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}
