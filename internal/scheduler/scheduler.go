// Package scheduler periodically refreshes stale employer contexts for every
// company on the roster.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/pitchprep/internal/logger"
	"github.com/jonathan/pitchprep/internal/metrics"
	"github.com/jonathan/pitchprep/internal/types"
)

// Refresh results recorded in metrics.
const (
	ResultRefreshed = "refreshed"
	ResultFailed    = "failed"
)

// NameSource lists the companies whose contexts are kept warm.
type NameSource interface {
	ListCompanyNames(ctx context.Context) ([]string, error)
}

// ContextRefresher is the research surface the scheduler drives.
type ContextRefresher interface {
	Stale(ctx context.Context, names []string) []string
	Refresh(ctx context.Context, companyName string) (types.EmployerContext, error)
}

// Summary describes one refresh cycle.
type Summary struct {
	Checked   int
	Stale     int
	Refreshed int
	Failed    int
}

// Refresher wraps robfig/cron and runs refresh cycles.
type Refresher struct {
	cron        *cron.Cron
	names       NameSource
	research    ContextRefresher
	spec        string
	concurrency int
	logger      *zap.Logger
	cycles      atomic.Int64
}

// New creates a Refresher that fires every interval with at most concurrency
// refreshes in flight.
func New(names NameSource, research ContextRefresher, interval time.Duration, concurrency int, log *zap.Logger) *Refresher {
	log = logger.OrNop(log).Named("scheduler")
	if concurrency < 1 {
		concurrency = 1
	}
	cl := cronLogger{log.Sugar()}
	return &Refresher{
		cron:        cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		names:       names,
		research:    research,
		spec:        fmt.Sprintf("@every %s", interval),
		concurrency: concurrency,
		logger:      log,
	}
}

// Start registers the job and starts the scheduler. A first cycle runs
// immediately so contexts are warm before the first tick.
func (r *Refresher) Start(ctx context.Context) error {
	if _, err := r.cron.AddFunc(r.spec, func() { r.runLogged(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule refresh %q: %w", r.spec, err)
	}
	r.cron.Start()
	r.logger.Info("context refresh scheduled", zap.String("spec", r.spec))

	go r.runLogged(ctx)
	return nil
}

// Stop stops the scheduler and waits for a running cycle to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("context refresh stopped")
}

// Cycles returns the number of completed cycles.
func (r *Refresher) Cycles() int64 {
	return r.cycles.Load()
}

func (r *Refresher) runLogged(ctx context.Context) {
	if _, err := r.RunOnce(ctx); err != nil {
		r.logger.Error("refresh cycle failed", zap.Error(err))
	}
}

// RunOnce refreshes every stale roster context. Individual failures are
// counted, not returned; the error is reserved for listing the roster.
func (r *Refresher) RunOnce(ctx context.Context) (Summary, error) {
	defer r.cycles.Add(1)

	names, err := r.names.ListCompanyNames(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list companies: %w", err)
	}
	stale := r.research.Stale(ctx, names)
	summary := Summary{Checked: len(names), Stale: len(stale)}
	if len(stale) == 0 {
		r.logger.Debug("no stale contexts", zap.Int("checked", len(names)))
		return summary, nil
	}

	var refreshed, failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, name := range stale {
		g.Go(func() error {
			if gctx.Err() != nil {
				failed.Add(1)
				return nil
			}
			if _, err := r.research.Refresh(gctx, name); err != nil {
				failed.Add(1)
				metrics.ContextRefreshes.WithLabelValues(ResultFailed).Inc()
				r.logger.Warn("context refresh failed", zap.String(logger.FieldCompany, name), zap.Error(err))
				return nil
			}
			refreshed.Add(1)
			metrics.ContextRefreshes.WithLabelValues(ResultRefreshed).Inc()
			return nil
		})
	}
	_ = g.Wait()

	summary.Refreshed = int(refreshed.Load())
	summary.Failed = int(failed.Load())
	r.logger.Info("refresh cycle complete",
		zap.Int("checked", summary.Checked),
		zap.Int("stale", summary.Stale),
		zap.Int("refreshed", summary.Refreshed),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
