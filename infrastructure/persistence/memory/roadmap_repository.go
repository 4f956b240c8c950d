// Package memory provides an in-memory roadmap store with the same
// semantics as the DynamoDB implementation. It backs tests and local
// development without AWS credentials.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"roadmap-backend/domain/roadmap"
	apperrors "roadmap-backend/pkg/errors"
)

// RoadmapRepository is an in-memory ports.RoadmapRepository.
type RoadmapRepository struct {
	mu      sync.RWMutex
	byUser  map[string][]roadmap.Record
	nowFunc func() time.Time
}

// NewRoadmapRepository creates an empty in-memory repository.
func NewRoadmapRepository() *RoadmapRepository {
	return &RoadmapRepository{
		byUser:  make(map[string][]roadmap.Record),
		nowFunc: time.Now,
	}
}

// SetNowFunc overrides the clock; tests use it to pin timestamps.
func (r *RoadmapRepository) SetNowFunc(now func() time.Time) {
	r.nowFunc = now
}

// Save appends a record with a store-assigned timestamp.
func (r *RoadmapRepository) Save(_ context.Context, record roadmap.Record) (roadmap.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record.CreatedAt = r.nowFunc().UTC()
	r.byUser[record.Username] = append(r.byUser[record.Username], record)
	return record, nil
}

// FindByUser returns the user's records, newest first.
func (r *RoadmapRepository) FindByUser(_ context.Context, username string) ([]roadmap.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.byUser[username]
	records := make([]roadmap.Record, len(stored))
	copy(records, stored)

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// FindByID returns one record scoped to the user.
func (r *RoadmapRepository) FindByID(_ context.Context, username, id string) (roadmap.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, record := range r.byUser[username] {
		if record.ID == id {
			return record, nil
		}
	}
	return roadmap.Record{}, apperrors.NewNotFoundError("roadmap")
}
