package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/pitchprep/internal/types"
)

// MemoryContextStore is an EmployerContextStore held in process memory.
type MemoryContextStore struct {
	mu    sync.RWMutex
	items map[string]types.EmployerContext
}

// NewMemoryContextStore creates an empty store.
func NewMemoryContextStore() *MemoryContextStore {
	return &MemoryContextStore{items: make(map[string]types.EmployerContext)}
}

// Get returns a copy of the stored context.
func (s *MemoryContextStore) Get(_ context.Context, normalizedName string) (*types.EmployerContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[types.NormalizeCompanyName(normalizedName)]
	if !ok {
		return nil, nil
	}
	out := c.Clone()
	return &out, nil
}

// Put stores a copy of c under its normalized company name.
func (s *MemoryContextStore) Put(_ context.Context, c types.EmployerContext) error {
	key := types.NormalizeCompanyName(c.CompanyName)
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	s.items[key] = c.Clone()
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored contexts.
func (s *MemoryContextStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// MemoryPitchRecords is a PitchRecordStore held in process memory.
type MemoryPitchRecords struct {
	mu      sync.Mutex
	records map[uuid.UUID]map[types.CompanyKey]types.PitchRecord
	now     func() time.Time
}

// NewMemoryPitchRecords creates an empty store using the wall clock.
func NewMemoryPitchRecords() *MemoryPitchRecords {
	return NewMemoryPitchRecordsWithClock(time.Now)
}

// NewMemoryPitchRecordsWithClock creates an empty store using now for timestamps.
func NewMemoryPitchRecordsWithClock(now func() time.Time) *MemoryPitchRecords {
	return &MemoryPitchRecords{
		records: make(map[uuid.UUID]map[types.CompanyKey]types.PitchRecord),
		now:     now,
	}
}

// Upsert implements PitchRecordStore.
func (s *MemoryPitchRecords) Upsert(_ context.Context, userID uuid.UUID, key types.CompanyKey, in types.RecordInput) (types.PitchRecord, error) {
	if key.IsZero() {
		return types.PitchRecord{}, ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs, ok := s.records[userID]
	if !ok {
		recs = make(map[types.CompanyKey]types.PitchRecord)
		s.records[userID] = recs
	}

	existing, found := recs[key]
	if !found && key.IsID() {
		nameKey := types.CompanyKeyByName(in.CompanyName)
		if prev, ok := recs[nameKey]; ok && !nameKey.IsZero() {
			existing, found = prev, true
			delete(recs, nameKey)
		}
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	rec := types.PitchRecord{
		UserID:      userID,
		CompanyKey:  key,
		RecordInput: in,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	rec.Artifact = in.Artifact.Clone()
	if found {
		rec.CreatedAt = existing.CreatedAt
		if !now.After(existing.UpdatedAt) {
			rec.UpdatedAt = existing.UpdatedAt.Add(time.Microsecond)
		}
	}
	recs[key] = rec
	return rec.Clone(), nil
}

// Get implements PitchRecordStore.
func (s *MemoryPitchRecords) Get(_ context.Context, userID uuid.UUID, key types.CompanyKey) (*types.PitchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID][key]
	if !ok {
		return nil, nil
	}
	out := rec.Clone()
	return &out, nil
}

// List returns the user's records, most recently updated first.
func (s *MemoryPitchRecords) List(_ context.Context, userID uuid.UUID) ([]types.PitchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.PitchRecord, 0, len(s.records[userID]))
	for _, rec := range s.records[userID] {
		out = append(out, rec.Clone())
	}
	SortRecords(out)
	return out, nil
}

// ClearAll implements PitchRecordStore.
func (s *MemoryPitchRecords) ClearAll(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.records[userID])
	delete(s.records, userID)
	return int64(n), nil
}

// SortRecords orders records by UpdatedAt descending, then by key.
func SortRecords(recs []types.PitchRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].UpdatedAt.Equal(recs[j].UpdatedAt) {
			return recs[i].UpdatedAt.After(recs[j].UpdatedAt)
		}
		return recs[i].CompanyKey.String() < recs[j].CompanyKey.String()
	})
}
