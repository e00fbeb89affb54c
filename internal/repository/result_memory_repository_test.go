package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubmittedResult(studentID int, submittedAt time.Time) *model.ExamResult {
	teacher := 7
	return &model.ExamResult{
		ID:          uuid.New(),
		StudentID:   studentID,
		ExamID:      uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		SubjectID:   3,
		ClassroomID: 2,
		Score:       40,
		MaxMarks:    50,
		Percentage:  80,
		Grade:       "A",
		Status:      model.ResultStatusSubmitted,
		CreatedBy:   teacher,
		SubmittedBy: &teacher,
		SubmittedAt: &submittedAt,
		CreatedAt:   submittedAt,
		UpdatedAt:   submittedAt,
	}
}

func TestMemoryCreateRejectsDuplicateKey(t *testing.T) {
	repo := NewMemoryResultRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	first := newSubmittedResult(1, now)
	require.NoError(t, repo.Create(ctx, first))

	dup := newSubmittedResult(1, now)
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicate)

	got, err := repo.GetByKey(ctx, first.Key())
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestMemoryCompareAndSetAppliesOnce(t *testing.T) {
	repo := NewMemoryResultRepository()
	ctx := context.Background()
	res := newSubmittedResult(1, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, res))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(actor int) {
			defer wg.Done()
			_, err := repo.CompareAndSet(ctx, res.ID, model.ResultStatusSubmitted, model.ResultChange{
				Status: model.ResultStatusApproved,
				Entry: model.AuditEntry{
					Action:     model.ResultActionApprove,
					ActorID:    actor,
					FromStatus: model.ResultStatusSubmitted,
					ToStatus:   model.ResultStatusApproved,
					At:         time.Now().UTC(),
				},
			})
			if err == nil {
				atomic.AddInt32(&wins, 1)
				return
			}
			assert.ErrorIs(t, err, ErrStaleStatus)
		}(100 + i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	stored, err := repo.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResultStatusApproved, stored.Status)
	assert.Len(t, stored.History, 1)
	assert.Equal(t, 1, stored.Version)
	require.NotNil(t, stored.ApprovedBy)
}

func TestMemoryListOrdersByQueueTimeThenID(t *testing.T) {
	repo := NewMemoryResultRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	late := newSubmittedResult(1, base.Add(time.Hour))
	early := newSubmittedResult(2, base)
	tieA := newSubmittedResult(3, base.Add(30*time.Minute))
	tieB := newSubmittedResult(4, base.Add(30*time.Minute))
	for _, r := range []*model.ExamResult{late, early, tieA, tieB} {
		require.NoError(t, repo.Create(ctx, r))
	}

	status := model.ResultStatusSubmitted
	got, err := repo.List(ctx, model.ResultFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, got, 4)

	first, second := tieA, tieB
	if tieB.ID.String() < tieA.ID.String() {
		first, second = tieB, tieA
	}
	assert.Equal(t, []uuid.UUID{early.ID, first.ID, second.ID, late.ID},
		[]uuid.UUID{got[0].ID, got[1].ID, got[2].ID, got[3].ID})
}

func TestMemoryReturnsCopies(t *testing.T) {
	repo := NewMemoryResultRepository()
	ctx := context.Background()
	res := newSubmittedResult(1, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, res))

	got, err := repo.GetByID(ctx, res.ID)
	require.NoError(t, err)
	got.Status = model.ResultStatusPublished

	again, err := repo.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResultStatusSubmitted, again.Status)
}

func TestMemoryListPagesInQueueOrder(t *testing.T) {
	repo := NewMemoryResultRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		r := newSubmittedResult(i+1, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(ctx, r))
		ids = append(ids, r.ID)
	}

	status := model.ResultStatusSubmitted
	filter := model.ResultFilter{Status: &status, Limit: 2, Offset: 2}

	got, err := repo.List(ctx, filter)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []uuid.UUID{ids[2], ids[3]}, []uuid.UUID{got[0].ID, got[1].ID})

	total, err := repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	filter.Offset = 10
	got, err = repo.List(ctx, filter)
	require.NoError(t, err)
	assert.Empty(t, got)

	student := 1
	total, err = repo.Count(ctx, model.ResultFilter{StudentID: &student})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
