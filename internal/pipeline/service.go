// Package pipeline orchestrates pitch generation: profile, research, scoring,
// composition and persistence, one company at a time.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/pitchprep/internal/logger"
	"github.com/jonathan/pitchprep/internal/metrics"
	"github.com/jonathan/pitchprep/internal/research"
	"github.com/jonathan/pitchprep/internal/scoring"
	"github.com/jonathan/pitchprep/internal/store"
	"github.com/jonathan/pitchprep/internal/types"
)

// ProfileSource reads persisted profiles. It returns nil, nil for unknown users.
type ProfileSource interface {
	GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)
}

// Roster reads admin-managed companies. Lookups return nil, nil when unknown.
type Roster interface {
	GetRosterCompany(ctx context.Context, id string) (*types.RosterCompany, error)
	FindRosterCompanyByName(ctx context.Context, name string) (*types.RosterCompany, error)
	ListEventCompanies(ctx context.Context, eventID string) ([]types.RosterCompany, error)
	MarkCompanyGenerated(ctx context.Context, id string) error
}

// ContextSource resolves employer contexts. *research.Researcher satisfies it.
type ContextSource interface {
	GetContext(ctx context.Context, companyName string) research.Lookup
}

// Composer produces the pitch card. *pitch.Composer satisfies it.
type Composer interface {
	Compose(ctx context.Context, profile types.UserProfile, companyName string, emp types.EmployerContext) (types.PitchArtifact, error)
}

// GenerateRequest names the company to generate a pitch for.
type GenerateRequest struct {
	UserID      uuid.UUID `json:"-"`
	CompanyName string    `json:"companyName"`
	CompanyID   string    `json:"companyId,omitempty"`
}

// GenerateResult is returned by GeneratePitch.
type GenerateResult struct {
	CompanyName    string               `json:"companyName"`
	CompanyKey     types.CompanyKey     `json:"companyKey"`
	CareerFairCard types.PitchArtifact  `json:"careerFairCard"`
	MatchScore     int                  `json:"matchScore"`
	MatchReasoning string               `json:"matchReasoning"`
	ScoreBreakdown types.ScoreBreakdown `json:"scoreBreakdown"`
	Persisted      bool                 `json:"persisted"`
	Warnings       []string             `json:"warnings"`
}

// ClearResult is returned by ClearMatchData.
type ClearResult struct {
	ClearedCount int64 `json:"clearedCount"`
}

// Option configures a Service.
type Option func(*Service)

// WithRoster enables roster overlays, id resolution and event bulk runs.
func WithRoster(r Roster) Option {
	return func(s *Service) { s.roster = r }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Service runs the pitch pipeline.
type Service struct {
	profiles ProfileSource
	contexts ContextSource
	composer Composer
	records  store.PitchRecordStore
	roster   Roster
	logger   *zap.Logger
}

// New wires a Service from its collaborators.
func New(profiles ProfileSource, contexts ContextSource, composer Composer, records store.PitchRecordStore, opts ...Option) *Service {
	s := &Service{
		profiles: profiles,
		contexts: contexts,
		composer: composer,
		records:  records,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("pipeline")
	return s
}

// GeneratePitch researches, scores, composes and persists the pitch for one
// company. On a PersistenceError the computed result is returned as well.
func (s *Service) GeneratePitch(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	start := time.Now()
	res, err := s.generate(ctx, req)
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	metrics.GenerationsTotal.WithLabelValues(outcome(err)).Inc()

	if err != nil {
		s.logger.Warn("pitch generation failed",
			zap.String(logger.FieldUserID, req.UserID.String()),
			zap.String(logger.FieldCompany, req.CompanyName),
			zap.String("kind", Kind(err)),
			zap.Error(err))
	}
	return res, err
}

func (s *Service) generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	name := strings.TrimSpace(req.CompanyName)
	companyID := strings.TrimSpace(req.CompanyID)
	if name == "" && companyID == "" {
		return nil, fmt.Errorf("%w: companyName or companyId is required", ErrInvalidRequest)
	}

	profile, err := s.loadProfile(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	company := s.lookupRoster(ctx, companyID, name)
	if company != nil {
		companyID = company.ID
		name = company.Name
	}
	if name == "" {
		return nil, fmt.Errorf("%w: unknown company id %q", ErrInvalidRequest, companyID)
	}

	var warnings []string
	lookup := s.contexts.GetContext(ctx, name)
	if lookup.Degraded != nil {
		warnings = append(warnings, lookup.Degraded.Error())
	}
	emp := lookup.Context
	jobDescription := ""
	if company != nil {
		emp = company.Overlay(emp)
		jobDescription = company.JobDescription
	}

	breakdown := scoring.Score(profile, emp, jobDescription)
	metrics.MatchScore.Observe(float64(breakdown.MatchScore()))

	artifact, err := s.composer.Compose(ctx, profile, name, emp)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := types.ResolveCompanyKey(companyID, name)
	res := &GenerateResult{
		CompanyName:    name,
		CompanyKey:     key,
		CareerFairCard: artifact,
		MatchScore:     breakdown.MatchScore(),
		MatchReasoning: breakdown.Reasoning(),
		ScoreBreakdown: breakdown,
		Warnings:       nonNilWarnings(warnings),
	}

	_, err = s.records.Upsert(ctx, req.UserID, key, types.RecordInput{
		CompanyName:    name,
		CompanyID:      companyID,
		MatchScore:     res.MatchScore,
		ScoreBreakdown: breakdown,
		MatchReasoning: res.MatchReasoning,
		Artifact:       artifact,
	})
	if err != nil {
		return res, &PersistenceError{Company: name, Cause: err}
	}
	res.Persisted = true

	if company != nil && !company.Generated {
		if err := s.roster.MarkCompanyGenerated(ctx, company.ID); err != nil {
			s.logger.Warn("failed to mark company generated", zap.String("company_id", company.ID), zap.Error(err))
		}
	}

	s.logger.Info("pitch generated",
		zap.String(logger.FieldUserID, req.UserID.String()),
		zap.String(logger.FieldCompany, name),
		zap.String(logger.FieldKey, key.String()),
		zap.Int("match_score", res.MatchScore),
		zap.Bool("degraded", lookup.Degraded != nil),
		zap.Bool("from_cache", lookup.FromCache))
	return res, nil
}

// ClearMatchData removes every pitch record of userID.
func (s *Service) ClearMatchData(ctx context.Context, userID uuid.UUID) (ClearResult, error) {
	n, err := s.records.ClearAll(ctx, userID)
	if err != nil {
		return ClearResult{}, &PersistenceError{Cause: err}
	}
	metrics.RecordsCleared.Add(float64(n))
	s.logger.Info("match data cleared", zap.String(logger.FieldUserID, userID.String()), zap.Int64("cleared", n))
	return ClearResult{ClearedCount: n}, nil
}

// ListPitches returns the persisted records of userID, most recent first.
func (s *Service) ListPitches(ctx context.Context, userID uuid.UUID) ([]types.PitchRecord, error) {
	recs, err := s.records.List(ctx, userID)
	if err != nil {
		return nil, &PersistenceError{Cause: err}
	}
	return recs, nil
}

func (s *Service) loadProfile(ctx context.Context, userID uuid.UUID) (types.UserProfile, error) {
	p, err := s.profiles.GetUserProfile(ctx, userID)
	if err != nil {
		return types.UserProfile{}, fmt.Errorf("failed to load profile: %w", err)
	}
	if p == nil {
		return types.UserProfile{}, &ProfileIncompleteError{UserID: userID}
	}
	profile := p.Normalize()
	if missing := profile.MissingFields(); len(missing) > 0 {
		return types.UserProfile{}, &ProfileIncompleteError{UserID: userID, Missing: missing}
	}
	return profile, nil
}

// lookupRoster finds the roster company by id, else by name. Roster failures
// are logged and treated as unknown companies.
func (s *Service) lookupRoster(ctx context.Context, companyID, name string) *types.RosterCompany {
	if s.roster == nil {
		return nil
	}
	var (
		c   *types.RosterCompany
		err error
	)
	if companyID != "" {
		c, err = s.roster.GetRosterCompany(ctx, companyID)
	} else {
		c, err = s.roster.FindRosterCompanyByName(ctx, name)
	}
	if err != nil {
		s.logger.Warn("roster lookup failed", zap.String("company_id", companyID), zap.String(logger.FieldCompany, name), zap.Error(err))
		return nil
	}
	return c
}

func outcome(err error) string {
	switch Kind(err) {
	case "":
		return metrics.OutcomeSuccess
	case KindProfileIncomplete:
		return metrics.OutcomeProfileIncomplete
	case KindGenerationFailed:
		return metrics.OutcomeGenerationFailed
	case KindPersistenceFailed:
		return metrics.OutcomePersistenceFailed
	default:
		return metrics.OutcomeError
	}
}

func nonNilWarnings(w []string) []string {
	if w == nil {
		return []string{}
	}
	return w
}
