package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// WowFact is a talking point paired with its provenance.
type WowFact struct {
	Fact      string `json:"fact"`
	Source    string `json:"source"`
	SourceURL string `json:"sourceUrl"`
}

// PitchArtifact is the career fair card generated for one company.
type PitchArtifact struct {
	Pitch           string    `json:"pitch"`
	WowFacts        []WowFact `json:"wowFacts"`
	TopRoles        []string  `json:"topRoles"`
	SmartQuestions  []string  `json:"smartQuestions"`
	FollowUpMessage string    `json:"followUpMessage"`
}

// CompanyKeyKind discriminates the two forms of CompanyKey.
type CompanyKeyKind string

// CompanyKey kinds.
const (
	CompanyKeyID   CompanyKeyKind = "id"
	CompanyKeyName CompanyKeyKind = "name"
)

// CompanyKey identifies the company a PitchRecord belongs to: either a persisted
// company id or a normalized company name.
type CompanyKey struct {
	Kind  CompanyKeyKind `json:"kind"`
	Value string         `json:"value"`
}

// CompanyKeyByID builds an id-backed key.
func CompanyKeyByID(id string) CompanyKey {
	return CompanyKey{Kind: CompanyKeyID, Value: strings.TrimSpace(id)}
}

// CompanyKeyByName builds a name-backed key from a raw company name.
func CompanyKeyByName(name string) CompanyKey {
	return CompanyKey{Kind: CompanyKeyName, Value: NormalizeCompanyName(name)}
}

// ResolveCompanyKey prefers a stable id and falls back to the normalized name.
func ResolveCompanyKey(companyID, companyName string) CompanyKey {
	if strings.TrimSpace(companyID) != "" {
		return CompanyKeyByID(companyID)
	}
	return CompanyKeyByName(companyName)
}

// IsID reports whether the key is backed by a company id.
func (k CompanyKey) IsID() bool {
	return k.Kind == CompanyKeyID
}

// IsZero reports whether the key carries no value.
func (k CompanyKey) IsZero() bool {
	return k.Value == ""
}

func (k CompanyKey) String() string {
	return string(k.Kind) + ":" + k.Value
}

// RecordInput is the payload written by a PitchRecordStore upsert.
type RecordInput struct {
	CompanyName    string         `json:"companyName"`
	CompanyID      string         `json:"companyId,omitempty"`
	MatchScore     int            `json:"matchScore"`
	ScoreBreakdown ScoreBreakdown `json:"scoreBreakdown"`
	MatchReasoning string         `json:"matchReasoning"`
	Artifact       PitchArtifact  `json:"careerFairCard"`
}

// PitchRecord is the persisted result for one (user, company) pair.
type PitchRecord struct {
	UserID     uuid.UUID  `json:"userId"`
	CompanyKey CompanyKey `json:"companyKey"`
	RecordInput
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of the artifact.
func (a PitchArtifact) Clone() PitchArtifact {
	facts := make([]WowFact, len(a.WowFacts))
	copy(facts, a.WowFacts)
	a.WowFacts = facts
	a.TopRoles = cloneStrings(a.TopRoles)
	a.SmartQuestions = cloneStrings(a.SmartQuestions)
	return a
}

// Clone returns a deep copy of the record.
func (r PitchRecord) Clone() PitchRecord {
	r.Artifact = r.Artifact.Clone()
	return r
}
