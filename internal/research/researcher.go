// Package research resolves employer contexts: cached when fresh, researched on a
// miss, and degraded to an empty context when research fails.
package research

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/pitchprep/internal/metrics"
	"github.com/jonathan/pitchprep/internal/store"
	"github.com/jonathan/pitchprep/internal/types"
)

// DefaultTTL is how long a researched context is served from the cache.
const DefaultTTL = 24 * time.Hour

// DefaultTimeout bounds one research call.
const DefaultTimeout = 20 * time.Second

var errNoFindings = errors.New("research returned no findings")

// Findings are the facts a research capability returns for one company.
type Findings struct {
	AboutText     string   `json:"aboutText"`
	RecentNews    []string `json:"recentNews"`
	CultureNotes  string   `json:"cultureNotes"`
	Location      string   `json:"location,omitempty"`
	RemotePolicy  string   `json:"remotePolicy,omitempty"`
	HiringNow     *bool    `json:"hiringNow,omitempty"`
	HiringTypes   []string `json:"hiringTypes,omitempty"`
	SponsorsVisas *bool    `json:"sponsorsVisas,omitempty"`
	Majors        []string `json:"majors,omitempty"`
	TopRoles      []string `json:"topRoles,omitempty"`
}

// Context wraps the findings into a normalized EmployerContext.
func (f Findings) Context(companyName string, fetchedAt time.Time) types.EmployerContext {
	return types.EmployerContext{
		CompanyName:   companyName,
		AboutText:     f.AboutText,
		RecentNews:    f.RecentNews,
		CultureNotes:  f.CultureNotes,
		FetchedAt:     fetchedAt,
		Location:      f.Location,
		RemotePolicy:  f.RemotePolicy,
		HiringNow:     f.HiringNow,
		HiringTypes:   f.HiringTypes,
		SponsorsVisas: f.SponsorsVisas,
		Majors:        f.Majors,
		TopRoles:      f.TopRoles,
	}.Normalize()
}

// Capability performs external research for one company.
type Capability interface {
	Research(ctx context.Context, companyName string) (*Findings, error)
}

// CapabilityFunc adapts a function to Capability.
type CapabilityFunc func(ctx context.Context, companyName string) (*Findings, error)

// Research calls f.
func (f CapabilityFunc) Research(ctx context.Context, companyName string) (*Findings, error) {
	return f(ctx, companyName)
}

// Lookup is the result of GetContext.
type Lookup struct {
	Context   types.EmployerContext
	FromCache bool
	// Degraded is set when research failed and Context is empty.
	Degraded *DegradedError
}

// Researcher serves employer contexts from a store and researches misses.
type Researcher struct {
	store      store.EmployerContextStore
	capability Capability
	ttl        time.Duration
	timeout    time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a Researcher. Zero durations use DefaultTTL and DefaultTimeout.
// A nil capability degrades every miss.
func New(st store.EmployerContextStore, capability Capability, ttl, timeout time.Duration, logger *zap.Logger) *Researcher {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Researcher{
		store:      st,
		capability: capability,
		ttl:        ttl,
		timeout:    timeout,
		logger:     logger.Named("research"),
		now:        time.Now,
	}
}

// TTL returns the freshness window of cached contexts.
func (r *Researcher) TTL() time.Duration {
	return r.ttl
}

// GetContext returns the employer context for companyName. It never fails: when
// research is unavailable the returned Lookup carries an empty context and a
// DegradedError.
func (r *Researcher) GetContext(ctx context.Context, companyName string) Lookup {
	name := strings.TrimSpace(companyName)
	key := types.NormalizeCompanyName(name)

	cached, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warn("employer context read failed, treating as miss",
			zap.String("company", key), zap.Error(err))
	} else if cached != nil && !cached.IsStale(r.now(), r.ttl) {
		metrics.ResearchLookups.WithLabelValues(metrics.ResearchHit).Inc()
		return Lookup{Context: *cached, FromCache: true}
	}

	metrics.ResearchLookups.WithLabelValues(metrics.ResearchMiss).Inc()
	c, degraded := r.research(ctx, name)
	return Lookup{Context: c, Degraded: degraded}
}

// Refresh researches companyName regardless of the cached entry. On failure the
// cached entry is left untouched and the DegradedError is returned.
func (r *Researcher) Refresh(ctx context.Context, companyName string) (types.EmployerContext, error) {
	c, degraded := r.research(ctx, strings.TrimSpace(companyName))
	if degraded != nil {
		return c, degraded
	}
	return c, nil
}

// GetContexts looks up several companies with at most limit researches in
// flight. Results are keyed by the trimmed input name; duplicates are looked up
// once.
func (r *Researcher) GetContexts(ctx context.Context, names []string, limit int) map[string]Lookup {
	if limit < 1 {
		limit = 1
	}
	var (
		mu  sync.Mutex
		out = make(map[string]Lookup, len(names))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		mu.Lock()
		_, dup := out[name]
		out[name] = Lookup{}
		mu.Unlock()
		if dup {
			continue
		}
		g.Go(func() error {
			l := r.GetContext(gctx, name)
			mu.Lock()
			out[name] = l
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Stale returns the names, in input order and without duplicates, whose cached
// context is missing or older than the TTL.
func (r *Researcher) Stale(ctx context.Context, names []string) []string {
	now := r.now()
	seen := make(map[string]bool, len(names))
	var out []string
	for _, name := range names {
		key := types.NormalizeCompanyName(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		cached, err := r.store.Get(ctx, key)
		if err != nil || cached == nil || cached.IsStale(now, r.ttl) {
			out = append(out, strings.TrimSpace(name))
		}
	}
	return out
}

func (r *Researcher) research(ctx context.Context, name string) (types.EmployerContext, *DegradedError) {
	if r.capability == nil {
		return r.degrade(name, errors.New("no research capability configured"))
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	findings, err := r.capability.Research(callCtx, name)
	if err == nil && findings == nil {
		err = errNoFindings
	}
	if err != nil {
		return r.degrade(name, err)
	}

	c := findings.Context(name, r.now())
	if c.IsEmpty() {
		return r.degrade(name, errNoFindings)
	}
	r.logger.Debug("employer researched",
		zap.String("company", name),
		zap.Duration("duration", time.Since(start)),
		zap.Int("news", len(c.RecentNews)))

	if err := r.store.Put(ctx, c); err != nil {
		r.logger.Warn("employer context write failed",
			zap.String("company", name), zap.Error(err))
	}
	return c, nil
}

func (r *Researcher) degrade(name string, cause error) (types.EmployerContext, *DegradedError) {
	metrics.ResearchLookups.WithLabelValues(metrics.ResearchDegraded).Inc()
	r.logger.Warn("employer research failed, using empty context",
		zap.String("company", name), zap.Error(cause))
	return types.EmptyEmployerContext(name), &DegradedError{Company: name, Cause: cause}
}
