package research

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/pitchprep/internal/store"
	"github.com/jonathan/pitchprep/internal/types"
)

type countingCapability struct {
	calls    atomic.Int32
	findings *Findings
	err      error
	block    bool
}

func (c *countingCapability) Research(ctx context.Context, _ string) (*Findings, error) {
	c.calls.Add(1)
	if c.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return c.findings, c.err
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (*types.EmployerContext, error) {
	return nil, errors.New("read failed")
}

func (brokenStore) Put(context.Context, types.EmployerContext) error {
	return errors.New("write failed")
}

func acmeFindings() *Findings {
	return &Findings{
		AboutText:    "Acme builds rockets.",
		RecentNews:   []string{"Acme raised a Series C"},
		CultureNotes: "Ship fast.",
	}
}

func newTestResearcher(st store.EmployerContextStore, c Capability, now time.Time) *Researcher {
	r := New(st, c, time.Hour, time.Second, nil)
	r.now = func() time.Time { return now }
	return r
}

func TestGetContext_MissThenHit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	st := store.NewMemoryContextStore()
	fake := &countingCapability{findings: acmeFindings()}
	r := newTestResearcher(st, fake, now)

	first := r.GetContext(ctx, "  Acme ")
	assert.False(t, first.FromCache)
	assert.Nil(t, first.Degraded)
	assert.Equal(t, "Acme", first.Context.CompanyName)
	assert.Equal(t, "Acme builds rockets.", first.Context.AboutText)
	assert.True(t, first.Context.FetchedAt.Equal(now))

	second := r.GetContext(ctx, "ACME")
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Context.AboutText, second.Context.AboutText)
	assert.Equal(t, int32(1), fake.calls.Load())
}

func TestGetContext_StaleEntryIsRefreshed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	st := store.NewMemoryContextStore()
	require.NoError(t, st.Put(ctx, types.EmployerContext{
		CompanyName: "Acme",
		AboutText:   "old",
		FetchedAt:   now.Add(-2 * time.Hour),
	}))
	fake := &countingCapability{findings: acmeFindings()}
	r := newTestResearcher(st, fake, now)

	got := r.GetContext(ctx, "Acme")
	assert.False(t, got.FromCache)
	assert.Equal(t, "Acme builds rockets.", got.Context.AboutText)
	assert.Equal(t, int32(1), fake.calls.Load())

	stored, err := st.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme builds rockets.", stored.AboutText)
}

func TestGetContext_FailureDegradesAndIsNotCached(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryContextStore()
	fake := &countingCapability{err: errors.New("search quota exceeded")}
	r := newTestResearcher(st, fake, time.Now())

	got := r.GetContext(ctx, "Acme")
	require.NotNil(t, got.Degraded)
	assert.Equal(t, "Acme", got.Degraded.Company)
	assert.Contains(t, got.Degraded.Error(), "search quota exceeded")
	assert.Equal(t, "Acme", got.Context.CompanyName)
	assert.True(t, got.Context.IsEmpty())
	assert.NotNil(t, got.Context.RecentNews)
	assert.Zero(t, st.Len())
}

func TestGetContext_TimeoutDegrades(t *testing.T) {
	fake := &countingCapability{block: true}
	r := New(store.NewMemoryContextStore(), fake, time.Hour, 20*time.Millisecond, nil)

	got := r.GetContext(context.Background(), "Acme")
	require.NotNil(t, got.Degraded)
	assert.ErrorIs(t, got.Degraded, context.DeadlineExceeded)
}

func TestGetContext_EmptyFindingsDegrade(t *testing.T) {
	st := store.NewMemoryContextStore()
	r := newTestResearcher(st, &countingCapability{findings: &Findings{}}, time.Now())

	got := r.GetContext(context.Background(), "Unknown Co")
	require.NotNil(t, got.Degraded)
	assert.Zero(t, st.Len())
}

func TestGetContext_NilCapability(t *testing.T) {
	r := New(store.NewMemoryContextStore(), nil, 0, 0, nil)
	got := r.GetContext(context.Background(), "Acme")
	assert.NotNil(t, got.Degraded)
	assert.Equal(t, DefaultTTL, r.TTL())
}

func TestGetContext_StoreFailuresAreSoft(t *testing.T) {
	fake := &countingCapability{findings: acmeFindings()}
	r := newTestResearcher(brokenStore{}, fake, time.Now())

	got := r.GetContext(context.Background(), "Acme")
	assert.Nil(t, got.Degraded)
	assert.False(t, got.FromCache)
	assert.Equal(t, "Acme builds rockets.", got.Context.AboutText)
}

func TestRefresh_BypassesCache(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	st := store.NewMemoryContextStore()
	fake := &countingCapability{findings: acmeFindings()}
	r := newTestResearcher(st, fake, now)

	r.GetContext(ctx, "Acme")
	c, err := r.Refresh(ctx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme builds rockets.", c.AboutText)
	assert.Equal(t, int32(2), fake.calls.Load())
}

func TestRefresh_FailureKeepsCachedEntry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	st := store.NewMemoryContextStore()
	require.NoError(t, st.Put(ctx, types.EmployerContext{CompanyName: "Acme", AboutText: "kept", FetchedAt: now}))
	r := newTestResearcher(st, &countingCapability{err: errors.New("down")}, now)

	_, err := r.Refresh(ctx, "Acme")
	var degraded *DegradedError
	require.ErrorAs(t, err, &degraded)

	stored, err := st.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "kept", stored.AboutText)
}

func TestStale(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	st := store.NewMemoryContextStore()
	require.NoError(t, st.Put(ctx, types.EmployerContext{CompanyName: "Fresh", FetchedAt: now.Add(-time.Minute)}))
	require.NoError(t, st.Put(ctx, types.EmployerContext{CompanyName: "Old", FetchedAt: now.Add(-2 * time.Hour)}))
	r := newTestResearcher(st, nil, now)

	got := r.Stale(ctx, []string{"Fresh", "Old", "Missing", " missing ", ""})
	assert.Equal(t, []string{"Old", "Missing"}, got)
}

func TestGetContexts_BoundedAndDeduplicated(t *testing.T) {
	var inFlight, peak atomic.Int32
	capability := CapabilityFunc(func(ctx context.Context, name string) (*Findings, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		if name == "Broken" {
			return nil, errors.New("no results")
		}
		return &Findings{AboutText: name + " makes things."}, nil
	})
	r := newTestResearcher(store.NewMemoryContextStore(), capability, time.Now())

	got := r.GetContexts(context.Background(), []string{"Acme", " Acme ", "Globex", "Initech", "Broken", ""}, 2)

	require.Len(t, got, 4)
	assert.Equal(t, "Acme makes things.", got["Acme"].Context.AboutText)
	assert.Equal(t, "Initech makes things.", got["Initech"].Context.AboutText)
	require.NotNil(t, got["Broken"].Degraded)
	assert.True(t, got["Broken"].Context.IsEmpty())
	assert.LessOrEqual(t, peak.Load(), int32(2))
}
