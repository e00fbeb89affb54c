package service

import (
	"context"
	"testing"

	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/rbac"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounts repository.SummaryCounts

func (f fixedCounts) GetSummaryCounts(context.Context) (repository.SummaryCounts, error) {
	return repository.SummaryCounts(f), nil
}

func TestDashboardData(t *testing.T) {
	f := newResultFixture()
	ctx := context.Background()
	dash := NewDashboardService(fixedCounts{Students: 3, Classrooms: 2}, f.repo, rbac.NewGate(rbac.DefaultPolicy()))

	for _, in := range []CreateResultInput{
		createInput(studentA, subjMath, classA, 70),
		createInput(studentC, subjMath, classA, 80),
		createInput(studentA, subjPhysics, classA, 90),
	} {
		_, err := f.svc.Create(ctx, headTeacher, in)
		require.NoError(t, err)
	}
	draft := createInput(studentC, subjPhysics, classA, 50)
	draft.SaveAsDraft = true
	_, err := f.svc.Create(ctx, headTeacher, draft)
	require.NoError(t, err)

	data, err := dash.GetDashboardData(ctx, headTeacher)
	require.NoError(t, err)
	assert.Equal(t, 3, data.Counts.Students)
	assert.Equal(t, 3, data.ResultStatusCounts[model.ResultStatusSubmitted])
	assert.Equal(t, 1, data.ResultStatusCounts[model.ResultStatusDraft])
	assert.Equal(t, 0, data.ResultStatusCounts[model.ResultStatusPublished])
	require.Len(t, data.OldestPending, 3)
	assert.Equal(t, studentA, data.OldestPending[0].StudentID)
	assert.Equal(t, subjMath, data.OldestPending[0].SubjectID)

	// Accounts staff see the counts but not the review queue.
	data, err = dash.GetDashboardData(ctx, accounts)
	require.NoError(t, err)
	assert.Nil(t, data.OldestPending)
	assert.Len(t, data.ResultStatusCounts, len(model.AllResultStatuses))

	_, err = dash.GetDashboardData(ctx, parentOfOne)
	assert.ErrorIs(t, err, ErrForbidden)
}
