package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/pitchprep/internal/logger"
)

// Bulk item statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// CompanyRef names one company of a bulk run.
type CompanyRef struct {
	CompanyName string `json:"companyName"`
	CompanyID   string `json:"companyId,omitempty"`
}

// BulkItem is the outcome for one company of a bulk run.
type BulkItem struct {
	CompanyName string   `json:"companyName"`
	CompanyID   string   `json:"companyId,omitempty"`
	Status      string   `json:"status"`
	MatchScore  int      `json:"matchScore,omitempty"`
	Error       string   `json:"error,omitempty"`
	Kind        string   `json:"kind,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// BulkResult summarizes a bulk run.
type BulkResult struct {
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Items     []BulkItem `json:"items"`
}

// ProgressEvent is emitted after each company of a bulk run.
type ProgressEvent struct {
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Item    BulkItem `json:"item"`
	Message string   `json:"message"`
}

// ProgressCallback is called when bulk progress occurs
type ProgressCallback func(event ProgressEvent)

// GenerateAll generates pitches for refs one at a time. Failures are counted
// per item and never abort the batch. When ctx is cancelled the remaining
// items are reported as failed with the cancellation error.
func (s *Service) GenerateAll(ctx context.Context, userID uuid.UUID, refs []CompanyRef, progress ProgressCallback) BulkResult {
	result := BulkResult{Items: make([]BulkItem, 0, len(refs))}

	for i, ref := range refs {
		item := BulkItem{CompanyName: ref.CompanyName, CompanyID: ref.CompanyID}

		if err := ctx.Err(); err != nil {
			item.Status = StatusFailed
			item.Error = err.Error()
			item.Kind = KindInternal
		} else {
			res, err := s.GeneratePitch(ctx, GenerateRequest{
				UserID:      userID,
				CompanyName: ref.CompanyName,
				CompanyID:   ref.CompanyID,
			})
			if res != nil {
				item.CompanyName = res.CompanyName
				item.MatchScore = res.MatchScore
				item.Warnings = res.Warnings
			}
			if err != nil {
				item.Status = StatusFailed
				item.Error = err.Error()
				item.Kind = Kind(err)
			} else {
				item.Status = StatusSucceeded
			}
		}

		if item.Status == StatusSucceeded {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Items = append(result.Items, item)

		if progress != nil {
			progress(ProgressEvent{
				Index:   i + 1,
				Total:   len(refs),
				Item:    item,
				Message: fmt.Sprintf("%d/%d %s: %s", i+1, len(refs), item.CompanyName, item.Status),
			})
		}
	}

	s.logger.Info("bulk generation finished",
		zap.String(logger.FieldUserID, userID.String()),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))
	return result
}

// GenerateAllForEvent runs GenerateAll over the roster companies of eventID.
func (s *Service) GenerateAllForEvent(ctx context.Context, userID uuid.UUID, eventID string, progress ProgressCallback) (BulkResult, error) {
	if s.roster == nil {
		return BulkResult{}, errors.New("no company roster configured")
	}
	companies, err := s.roster.ListEventCompanies(ctx, eventID)
	if err != nil {
		return BulkResult{}, fmt.Errorf("failed to load event companies: %w", err)
	}
	refs := make([]CompanyRef, 0, len(companies))
	for _, c := range companies {
		refs = append(refs, CompanyRef{CompanyName: c.Name, CompanyID: c.ID})
	}
	return s.GenerateAll(ctx, userID, refs, progress), nil
}
