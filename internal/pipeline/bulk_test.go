package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/pitchprep/internal/types"
)

func TestGenerateAll_PartialFailure(t *testing.T) {
	h := newHarness(t, 50*time.Millisecond)
	h.gen.block["Company 3"] = true

	refs := []CompanyRef{
		{CompanyName: "Company 1"},
		{CompanyName: "Company 2"},
		{CompanyName: "Company 3"},
		{CompanyName: "Company 4"},
		{CompanyName: "Company 5"},
	}
	var events []ProgressEvent
	res := h.svc.GenerateAll(context.Background(), h.userID, refs, func(e ProgressEvent) {
		events = append(events, e)
	})

	assert.Equal(t, 4, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Items, 5)
	assert.Equal(t, StatusFailed, res.Items[2].Status)
	assert.Equal(t, KindGenerationFailed, res.Items[2].Kind)
	assert.Contains(t, res.Items[2].Error, "timed out")
	assert.Equal(t, StatusSucceeded, res.Items[4].Status)

	require.Len(t, events, 5)
	assert.Equal(t, 3, events[2].Index)
	assert.Equal(t, 5, events[2].Total)
	assert.Equal(t, "3/5 Company 3: failed", events[2].Message)

	recs, err := h.records.List(context.Background(), h.userID)
	require.NoError(t, err)
	assert.Len(t, recs, 4)
}

func TestGenerateAll_CancelledContextFailsRemaining(t *testing.T) {
	h := newHarness(t, time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	refs := []CompanyRef{{CompanyName: "Acme"}, {CompanyName: "Globex"}, {CompanyName: "Initech"}}
	res := h.svc.GenerateAll(ctx, h.userID, refs, func(e ProgressEvent) {
		if e.Index == 1 {
			cancel()
		}
	})

	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, context.Canceled.Error(), res.Items[1].Error)
	assert.Equal(t, context.Canceled.Error(), res.Items[2].Error)
}

func TestGenerateAll_Empty(t *testing.T) {
	h := newHarness(t, time.Second)
	res := h.svc.GenerateAll(context.Background(), h.userID, nil, nil)
	assert.Zero(t, res.Succeeded)
	assert.Zero(t, res.Failed)
	assert.NotNil(t, res.Items)
}

func TestGenerateAllForEvent(t *testing.T) {
	h := newHarness(t, time.Second)
	h.roster.companies["a"] = types.RosterCompany{ID: "a", Name: "Acme"}
	h.roster.companies["b"] = types.RosterCompany{ID: "b", Name: "Globex"}
	h.roster.events["fall"] = []string{"b", "a"}

	res, err := h.svc.GenerateAllForEvent(context.Background(), h.userID, "fall", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, "Globex", res.Items[0].CompanyName)
	assert.Equal(t, "b", res.Items[0].CompanyID)
	assert.ElementsMatch(t, []string{"a", "b"}, h.roster.marked)

	_, err = h.svc.GenerateAllForEvent(context.Background(), h.userID, "missing", nil)
	assert.Error(t, err)
}

func TestGenerateAllForEvent_NoRoster(t *testing.T) {
	svc := New(nil, nil, nil, nil)
	_, err := svc.GenerateAllForEvent(context.Background(), uuid.Nil, "fall", nil)
	assert.Error(t, err)
}
