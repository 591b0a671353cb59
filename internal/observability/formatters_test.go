package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/pitchprep/internal/pipeline"
	"github.com/jonathan/pitchprep/internal/types"
)

func sampleBreakdown() types.ScoreBreakdown {
	return types.ScoreBreakdown{
		Location:          types.FactorScore{Score: 20, Reason: "remote friendly"},
		WorkAuthorization: types.FactorScore{Score: 20, Reason: "no sponsorship needed"},
		Major:             types.FactorScore{Score: 15, Reason: "related major"},
		JobType:           types.FactorScore{Score: 20, Reason: "hiring full-time"},
		Skills:            types.FactorScore{Score: 10, Reason: "2 of 4 skills match"},
		Resume:            types.FactorScore{Score: 5, Reason: "no resume provided"},
	}
}

// assertBoxed checks every line of a box has the same display width.
func assertBoxed(t *testing.T, output string) {
	t.Helper()
	for _, line := range strings.Split(strings.TrimSuffix(output, "\n"), "\n") {
		assert.Equal(t, boxWidth, utf8.RuneCountInString(line), "line %q", line)
	}
}

func TestPrintScore(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintScore("Acme", sampleBreakdown())
	output := buf.String()

	assert.Contains(t, output, "MATCH SCORE")
	assert.Contains(t, output, "Work Auth  20/20  no sponsorship needed")
	assert.Contains(t, output, "Match score: 90/100")
	assertBoxed(t, output)
}

func TestPrintCard(t *testing.T) {
	var buf bytes.Buffer
	card := types.PitchArtifact{
		Pitch: strings.Repeat("I build distributed systems in Go. ", 6),
		WowFacts: []types.WowFact{
			{Fact: "Acme launched a Go SDK", Source: "AI Generated", SourceURL: "#"},
		},
		TopRoles:        []string{"Backend Engineer", "SRE", "a", "b", "c", "d", "e"},
		SmartQuestions:  []string{"How do new grads pick teams?"},
		FollowUpMessage: "Hi [Name], it was great meeting you.",
	}
	NewPrinter(&buf).PrintCard("Acme", card)
	output := buf.String()

	assert.Contains(t, output, "CAREER FAIR CARD: Acme")
	assert.Contains(t, output, "• Acme launched a Go SDK")
	assert.Contains(t, output, "... and 2 more")
	assert.Contains(t, output, "How do new grads pick teams?")
	assert.NotContains(t, output, "... │", "pitch is wrapped, not cut")
	assertBoxed(t, output)
}

func TestPrintResult_Warnings(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResult(&pipeline.GenerateResult{
		CompanyName:    "Acme",
		ScoreBreakdown: sampleBreakdown(),
		Persisted:      false,
		Warnings:       []string{"employer research unavailable"},
	})
	output := buf.String()

	assert.Contains(t, output, "WARNINGS")
	assert.Contains(t, output, "result was not saved")
	assert.Contains(t, output, "employer research unavailable")
}

func TestPrintResult_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResult(nil)
	assert.Empty(t, buf.String())
}

func TestPrintBulk(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintBulk(pipeline.BulkResult{
		Succeeded: 1,
		Failed:    1,
		Items: []pipeline.BulkItem{
			{CompanyName: "Acme", Status: pipeline.StatusSucceeded, MatchScore: 81},
			{CompanyName: "Globex", Status: pipeline.StatusFailed, Kind: pipeline.KindGenerationFailed, Error: "timed out"},
		},
	})
	output := buf.String()

	assert.Contains(t, output, "Succeeded: 1   Failed: 1")
	assert.Contains(t, output, "✓ Acme (81)")
	assert.Contains(t, output, "✗ Globex [generation_failed]")
	assertBoxed(t, output)
}

func TestPrintContext(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintContext(types.EmployerContext{
		CompanyName: "Acme",
		AboutText:   "Acme builds rockets.",
		RecentNews:  []string{"Raised a Series C"},
		FetchedAt:   time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC),
		HiringNow:   types.BoolPtr(true),
	}, true)
	output := buf.String()

	assert.Contains(t, output, "cache, fetched 2026-10-01 09:30")
	assert.Contains(t, output, "Hiring:   true")
	assert.Contains(t, output, "• Raised a Series C")

	buf.Reset()
	NewPrinter(&buf).PrintContext(types.EmptyEmployerContext("Nowhere"), false)
	assert.Contains(t, buf.String(), "unavailable")
}

func TestPrintRecords(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRecords(nil)
	assert.Contains(t, buf.String(), "No saved pitches.")

	buf.Reset()
	NewPrinter(&buf).PrintRecords([]types.PitchRecord{{
		RecordInput: types.RecordInput{CompanyName: "Acme", MatchScore: 77},
		UpdatedAt:   time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
	}})
	assert.Contains(t, buf.String(), " 77  Acme")
	assert.Contains(t, buf.String(), "2026-10-02")
}

func TestWrap(t *testing.T) {
	assert.Nil(t, wrap("   ", 10))
	assert.Equal(t, []string{"one two", "three"}, wrap("one two three", 8))
	assert.Equal(t, []string{"supercalifragilistic"}, wrap("supercalifragilistic", 5))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "héllo w...", truncate("héllo wörld!", 10))
}
