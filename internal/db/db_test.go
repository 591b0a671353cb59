package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/pitchprep/internal/types"
)

func TestSchemaSQL_DefinesTables(t *testing.T) {
	for _, table := range []string{"users", "companies", "events", "event_companies", "employer_contexts", "pitch_records"} {
		assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, schemaSQL, "UNIQUE (user_id, key_kind, key_value)")
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	got := nullIfEmpty("c-1")
	require.NotNil(t, got)
	assert.Equal(t, "c-1", *got)
	assert.Equal(t, "", derefString(nil))
	assert.Equal(t, "c-1", derefString(got))
}

func TestDecodeProfile_FallsBackToUserRow(t *testing.T) {
	p, err := decodeProfile([]byte(`{"major":"Computer Science","skills":["Go"]}`), "Ana Ruiz", "ana@example.edu", "resume body")
	require.NoError(t, err)
	assert.Equal(t, "Ana Ruiz", p.Name)
	assert.Equal(t, "ana@example.edu", p.Email)
	assert.Equal(t, "resume body", p.ResumeText)
	assert.Equal(t, "Computer Science", p.Major)
}

func TestDecodeProfile_ProfileWins(t *testing.T) {
	p, err := decodeProfile([]byte(`{"name":"Ana","resumeText":"profile resume"}`), "Ana Ruiz", "", "row resume")
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, "profile resume", p.ResumeText)
}

func TestDecodeProfile_Invalid(t *testing.T) {
	_, err := decodeProfile([]byte(`{`), "", "", "")
	assert.Error(t, err)
}

func TestDecodeRecordJSON(t *testing.T) {
	var rec types.PitchRecord
	err := decodeRecordJSON(
		[]byte(`{"location":{"score":20,"reason":"same city"}}`),
		[]byte(`{"pitch":"Hi","wowFacts":[{"fact":"f","source":"AI Generated","sourceUrl":"#"}]}`),
		&rec,
	)
	require.NoError(t, err)
	assert.Equal(t, 20, rec.ScoreBreakdown.Location.Score)
	assert.Equal(t, "Hi", rec.Artifact.Pitch)
	assert.Equal(t, "#", rec.Artifact.WowFacts[0].SourceURL)

	assert.Error(t, decodeRecordJSON([]byte(`[]`), []byte(`{}`), &rec))
}
