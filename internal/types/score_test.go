package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreBreakdown_MatchScoreClamps(t *testing.T) {
	full := FactorScore{Score: 20, Reason: "r"}
	b := ScoreBreakdown{full, full, full, full, full, full}
	assert.Equal(t, MaxMatchScore, b.MatchScore())

	b = ScoreBreakdown{
		Location:          FactorScore{Score: 10, Reason: "a"},
		WorkAuthorization: FactorScore{Score: 20, Reason: "b"},
		Major:             FactorScore{Score: 5, Reason: "c"},
		JobType:           FactorScore{Score: 20, Reason: "d"},
		Skills:            FactorScore{Score: 0, Reason: "e"},
		Resume:            FactorScore{Score: 5, Reason: "f"},
	}
	assert.Equal(t, 60, b.MatchScore())
}

func TestScoreBreakdown_Reasoning(t *testing.T) {
	b := ScoreBreakdown{
		Location:          FactorScore{Score: 20, Reason: "remote friendly"},
		WorkAuthorization: FactorScore{Score: 20, Reason: "authorized"},
		Major:             FactorScore{Score: 12, Reason: "related field"},
		JobType:           FactorScore{Score: 20, Reason: "hiring full-time"},
		Skills:            FactorScore{Score: 10, Reason: "matched go"},
		Resume:            FactorScore{Score: 5, Reason: "no resume provided"},
	}

	assert.Equal(t,
		"Location: 20/20 - remote friendly | Work Auth: 20/20 - authorized | Major: 12/20 - related field | "+
			"Job Type: 20/20 - hiring full-time | Skills: 10/20 - matched go | Resume: 5/20 - no resume provided",
		b.Reasoning())
}

func TestResolveCompanyKey(t *testing.T) {
	k := ResolveCompanyKey(" c-42 ", "Acme")
	assert.True(t, k.IsID())
	assert.Equal(t, "c-42", k.Value)
	assert.Equal(t, "id:c-42", k.String())

	k = ResolveCompanyKey("", "  Acme  Corp ")
	assert.False(t, k.IsID())
	assert.Equal(t, "acme corp", k.Value)
	assert.Equal(t, "name:acme corp", k.String())

	assert.True(t, ResolveCompanyKey("", " ").IsZero())
}
