package types

import (
	"strings"
	"time"
)

// EmployerContext holds researched facts about a company. It is replaced wholesale
// on refresh and never patched field by field.
type EmployerContext struct {
	CompanyName  string    `json:"companyName"`
	AboutText    string    `json:"aboutText"`
	RecentNews   []string  `json:"recentNews"`
	CultureNotes string    `json:"cultureNotes"`
	FetchedAt    time.Time `json:"fetchedAt"`

	// Structured signals used by scoring. Unknown values stay empty or nil.
	Location      string   `json:"location,omitempty"`
	RemotePolicy  string   `json:"remotePolicy,omitempty"`
	HiringNow     *bool    `json:"hiringNow,omitempty"`
	HiringTypes   []string `json:"hiringTypes,omitempty"`
	SponsorsVisas *bool    `json:"sponsorsVisas,omitempty"`
	Majors        []string `json:"majors,omitempty"`
	TopRoles      []string `json:"topRoles,omitempty"`
}

// EmptyEmployerContext is the minimal context used when research is unavailable.
func EmptyEmployerContext(companyName string) EmployerContext {
	return EmployerContext{
		CompanyName: strings.TrimSpace(companyName),
		RecentNews:  []string{},
	}
}

// IsEmpty reports whether the context carries no researched facts.
func (c EmployerContext) IsEmpty() bool {
	return c.AboutText == "" && len(c.RecentNews) == 0 && c.CultureNotes == "" &&
		c.Location == "" && c.RemotePolicy == "" && c.HiringNow == nil &&
		len(c.HiringTypes) == 0 && c.SponsorsVisas == nil && len(c.Majors) == 0 && len(c.TopRoles) == 0
}

// IsStale reports whether the context was fetched at least maxAge before now.
func (c EmployerContext) IsStale(now time.Time, maxAge time.Duration) bool {
	if c.FetchedAt.IsZero() {
		return true
	}
	return now.Sub(c.FetchedAt) >= maxAge
}

// Normalize trims fields and replaces nil slices with empty ones.
func (c EmployerContext) Normalize() EmployerContext {
	c.CompanyName = strings.TrimSpace(c.CompanyName)
	c.AboutText = strings.TrimSpace(c.AboutText)
	c.CultureNotes = strings.TrimSpace(c.CultureNotes)
	c.Location = strings.TrimSpace(c.Location)
	c.RemotePolicy = strings.TrimSpace(c.RemotePolicy)
	c.RecentNews = cleanList(c.RecentNews)
	c.HiringTypes = cleanList(c.HiringTypes)
	c.Majors = cleanList(c.Majors)
	c.TopRoles = cleanList(c.TopRoles)
	return c
}

// NormalizeCompanyName folds a company name into its cache and key form:
// trimmed, lowercased, with internal whitespace collapsed.
func NormalizeCompanyName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// RosterCompany is an admin-managed company known to the event roster.
type RosterCompany struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Location       string   `json:"location,omitempty"`
	HiringNow      *bool    `json:"hiringNow,omitempty"`
	JobDescription string   `json:"jobDescription,omitempty"`
	TopRoles       []string `json:"topRoles,omitempty"`
	Category       string   `json:"category,omitempty"`
	Generated      bool     `json:"generated"`
}

// Overlay copies roster facts the admin entered onto a researched context.
// Researched values win only where the roster is silent.
func (r RosterCompany) Overlay(c EmployerContext) EmployerContext {
	if r.Location != "" {
		c.Location = r.Location
	}
	if r.HiringNow != nil {
		c.HiringNow = BoolPtr(*r.HiringNow)
	}
	if len(r.TopRoles) > 0 {
		c.TopRoles = cleanList(append(append([]string{}, r.TopRoles...), c.TopRoles...))
	}
	return c
}

// Clone returns a deep copy of the context.
func (c EmployerContext) Clone() EmployerContext {
	c.RecentNews = cloneStrings(c.RecentNews)
	c.HiringTypes = cloneStrings(c.HiringTypes)
	c.Majors = cloneStrings(c.Majors)
	c.TopRoles = cloneStrings(c.TopRoles)
	if c.HiringNow != nil {
		c.HiringNow = BoolPtr(*c.HiringNow)
	}
	if c.SponsorsVisas != nil {
		c.SponsorsVisas = BoolPtr(*c.SponsorsVisas)
	}
	return c
}

// cloneStrings copies in. Empty and nil inputs both become an empty, non-nil
// slice so clones serialize as [] like normalized values do.
func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
