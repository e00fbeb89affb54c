package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// MemoryResultRepository keeps exam results in process memory. It backs
// tests and RESULT_STORE=memory demo runs; data is lost on restart.
type MemoryResultRepository struct {
	mu      sync.RWMutex
	results map[uuid.UUID]*model.ExamResult
	keys    map[model.ResultKey]uuid.UUID
}

// NewMemoryResultRepository creates an empty MemoryResultRepository.
func NewMemoryResultRepository() *MemoryResultRepository {
	return &MemoryResultRepository{
		results: make(map[uuid.UUID]*model.ExamResult),
		keys:    make(map[model.ResultKey]uuid.UUID),
	}
}

var _ ResultRepository = (*MemoryResultRepository)(nil)

// Create inserts a copy of res.
func (r *MemoryResultRepository) Create(_ context.Context, res *model.ExamResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.keys[res.Key()]; taken {
		return ErrDuplicate
	}
	if _, taken := r.results[res.ID]; taken {
		return ErrDuplicate
	}
	r.results[res.ID] = res.Clone()
	r.keys[res.Key()] = res.ID
	return nil
}

// GetByID returns a copy of the stored result.
func (r *MemoryResultRepository) GetByID(_ context.Context, id uuid.UUID) (*model.ExamResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.results[id]
	if !ok {
		return nil, ErrNotFound
	}
	return res.Clone(), nil
}

// GetByKey returns a copy of the result stored under key.
func (r *MemoryResultRepository) GetByKey(_ context.Context, key model.ResultKey) (*model.ExamResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.keys[key]
	if !ok {
		return nil, ErrNotFound
	}
	return r.results[id].Clone(), nil
}

// CompareAndSet applies change under the write lock if the status still matches.
func (r *MemoryResultRepository) CompareAndSet(
	_ context.Context,
	id uuid.UUID,
	expected model.ResultStatus,
	change model.ResultChange,
) (*model.ExamResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.results[id]
	if !ok || res.Status != expected {
		return nil, ErrStaleStatus
	}
	res.Apply(change)
	return res.Clone(), nil
}

// List returns copies of matching results, oldest in the queue first.
func (r *MemoryResultRepository) List(_ context.Context, f model.ResultFilter) ([]model.ExamResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.ExamResult
	for _, res := range r.results {
		if matchesFilter(res, f) {
			out = append(out, *res.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].QueueTime(), out[j].QueueTime()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Count returns how many results match f.
func (r *MemoryResultRepository) Count(_ context.Context, f model.ResultFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, res := range r.results {
		if matchesFilter(res, f) {
			n++
		}
	}
	return n, nil
}

// CountByStatus returns the number of results in each status.
func (r *MemoryResultRepository) CountByStatus(_ context.Context) (map[model.ResultStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[model.ResultStatus]int)
	for _, res := range r.results {
		counts[res.Status]++
	}
	return counts, nil
}
