package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jonathan/pitchprep/internal/research"
	"github.com/jonathan/pitchprep/internal/store"
	"github.com/jonathan/pitchprep/internal/types"
)

type staticNames struct {
	names []string
	err   error
}

func (s staticNames) ListCompanyNames(context.Context) ([]string, error) {
	return s.names, s.err
}

type fakeResearch struct {
	stale []string

	mu        sync.Mutex
	refreshed []string
	inFlight  atomic.Int32
	peak      atomic.Int32
	fail      map[string]bool
}

func (f *fakeResearch) Stale(context.Context, []string) []string {
	return f.stale
}

func (f *fakeResearch) Refresh(_ context.Context, name string) (types.EmployerContext, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	if f.fail[name] {
		return types.EmptyEmployerContext(name), errors.New("search quota exceeded")
	}
	f.mu.Lock()
	f.refreshed = append(f.refreshed, name)
	f.mu.Unlock()
	return types.EmployerContext{CompanyName: name, AboutText: "about"}, nil
}

func TestRunOnce(t *testing.T) {
	fr := &fakeResearch{
		stale: []string{"Acme", "Globex", "Initech", "Umbrella", "Hooli"},
		fail:  map[string]bool{"Initech": true},
	}
	r := New(staticNames{names: []string{"Acme", "Globex", "Initech", "Umbrella", "Hooli", "Fresh"}}, fr, time.Hour, 2, zaptest.NewLogger(t))

	summary, err := r.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{Checked: 6, Stale: 5, Refreshed: 4, Failed: 1}, summary)
	assert.LessOrEqual(t, fr.peak.Load(), int32(2))
	sort.Strings(fr.refreshed)
	assert.Equal(t, []string{"Acme", "Globex", "Hooli", "Umbrella"}, fr.refreshed)
	assert.Equal(t, int64(1), r.Cycles())
}

func TestRunOnce_NothingStale(t *testing.T) {
	fr := &fakeResearch{}
	r := New(staticNames{names: []string{"Acme"}}, fr, time.Hour, 4, nil)

	summary, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Checked: 1}, summary)
	assert.Empty(t, fr.refreshed)
}

func TestRunOnce_ListError(t *testing.T) {
	r := New(staticNames{err: errors.New("db down")}, &fakeResearch{}, time.Hour, 4, nil)

	_, err := r.RunOnce(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestRunOnce_CancelledContext(t *testing.T) {
	fr := &fakeResearch{stale: []string{"Acme", "Globex"}}
	r := New(staticNames{names: []string{"Acme", "Globex"}}, fr, time.Hour, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Failed)
	assert.Empty(t, fr.refreshed)
}

func TestRunOnce_WithResearcher(t *testing.T) {
	st := store.NewMemoryContextStore()
	require.NoError(t, st.Put(context.Background(), types.EmployerContext{
		CompanyName: "Fresh",
		AboutText:   "cached",
		FetchedAt:   time.Now(),
	}))

	var calls atomic.Int32
	capability := research.CapabilityFunc(func(_ context.Context, name string) (*research.Findings, error) {
		calls.Add(1)
		return &research.Findings{AboutText: name + " about"}, nil
	})
	res := research.New(st, capability, time.Hour, time.Second, nil)
	r := New(staticNames{names: []string{"Fresh", "Stale Co"}}, res, time.Hour, 2, nil)

	summary, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Checked: 2, Stale: 1, Refreshed: 1}, summary)
	assert.Equal(t, int32(1), calls.Load())

	got, err := st.Get(context.Background(), types.NormalizeCompanyName("Stale Co"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Stale Co about", got.AboutText)
}

func TestStartStop(t *testing.T) {
	fr := &fakeResearch{stale: []string{"Acme"}}
	r := New(staticNames{names: []string{"Acme"}}, fr, time.Hour, 1, zaptest.NewLogger(t))

	require.NoError(t, r.Start(context.Background()))
	require.Eventually(t, func() bool { return r.Cycles() >= 1 }, 2*time.Second, 10*time.Millisecond)
	r.Stop()

	fr.mu.Lock()
	defer fr.mu.Unlock()
	assert.Equal(t, []string{"Acme"}, fr.refreshed)
}
