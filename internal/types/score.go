package types

import (
	"fmt"
	"strings"
)

// MaxFactorScore is the ceiling of every individual factor.
const MaxFactorScore = 20

// MaxMatchScore is the ceiling of the overall score. Six factors can sum to 120,
// anything above this is clamped.
const MaxMatchScore = 100

// FactorScore is one scored factor with its explanation.
type FactorScore struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// ScoreBreakdown holds exactly the six scored factors.
type ScoreBreakdown struct {
	Location          FactorScore `json:"location"`
	WorkAuthorization FactorScore `json:"workAuthorization"`
	Major             FactorScore `json:"major"`
	JobType           FactorScore `json:"jobType"`
	Skills            FactorScore `json:"skills"`
	Resume            FactorScore `json:"resume"`
}

// NamedFactor pairs a factor with its display label.
type NamedFactor struct {
	Label string
	FactorScore
}

// Factors returns the six factors in display order.
func (b ScoreBreakdown) Factors() []NamedFactor {
	return []NamedFactor{
		{"Location", b.Location},
		{"Work Auth", b.WorkAuthorization},
		{"Major", b.Major},
		{"Job Type", b.JobType},
		{"Skills", b.Skills},
		{"Resume", b.Resume},
	}
}

// MatchScore is the sum of the factor scores clamped to [0, MaxMatchScore].
func (b ScoreBreakdown) MatchScore() int {
	sum := 0
	for _, f := range b.Factors() {
		sum += f.Score
	}
	if sum < 0 {
		return 0
	}
	if sum > MaxMatchScore {
		return MaxMatchScore
	}
	return sum
}

// Reasoning renders the breakdown as a single human-readable line,
// e.g. "Location: 20/20 - remote friendly | Work Auth: ...".
func (b ScoreBreakdown) Reasoning() string {
	parts := make([]string, 0, 6)
	for _, f := range b.Factors() {
		parts = append(parts, fmt.Sprintf("%s: %d/%d - %s", f.Label, f.Score, MaxFactorScore, f.Reason))
	}
	return strings.Join(parts, " | ")
}
