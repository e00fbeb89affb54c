package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publishAll(t *testing.T, f *resultFixture, inputs ...CreateResultInput) {
	t.Helper()
	ctx := context.Background()
	for _, in := range inputs {
		r, err := f.svc.Create(ctx, headTeacher, in)
		require.NoError(t, err)
		_, err = f.svc.Approve(ctx, headTeacher, r.ID)
		require.NoError(t, err)
		_, err = f.svc.Publish(ctx, headTeacher, r.ID)
		require.NoError(t, err)
	}
}

func TestBuildReportCard(t *testing.T) {
	f := newResultFixture()
	reports := NewReportService(f.svc, f.refs, fakeSettings{
		model.SettingSchoolName:   "SMA Negeri 1",
		model.SettingReportFooter: "Orang tua wajib menandatangani laporan ini.",
	})
	ctx := context.Background()

	publishAll(t, f,
		createInput(studentA, subjMath, classA, 92),
		createInput(studentA, subjPhysics, classA, 71),
	)
	// Unpublished marks never reach the report card.
	_, err := f.svc.Create(ctx, teacher, createInput(studentC, subjMath, classA, 10))
	require.NoError(t, err)

	card, err := reports.BuildReportCard(ctx, parentOfOne, studentA, testExamID)
	require.NoError(t, err)
	assert.Equal(t, "SMA Negeri 1", card.SchoolName)
	assert.Equal(t, "Budi", card.Student.Name)
	require.Len(t, card.Rows, 2)
	assert.Equal(t, "Fisika", card.Rows[0].SubjectName)
	assert.Equal(t, "Matematika", card.Rows[1].SubjectName)
	assert.Equal(t, 81.5, card.Average)
	assert.Equal(t, "A", card.OverallGrade)

	var buf bytes.Buffer
	require.NoError(t, RenderReportCardPDF(card, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestBuildReportCardScope(t *testing.T) {
	f := newResultFixture()
	reports := NewReportService(f.svc, f.refs, fakeSettings{})
	ctx := context.Background()

	publishAll(t, f, createInput(studentC, subjMath, classA, 60))

	_, err := reports.BuildReportCard(ctx, parentOfOne, studentC, testExamID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = reports.BuildReportCard(ctx, parentOfOne, studentA, testExamID)
	assert.ErrorIs(t, err, ErrNotFound)

	card, err := reports.BuildReportCard(ctx, headTeacher, studentC, testExamID)
	require.NoError(t, err)
	assert.Equal(t, "SchoolHub", card.SchoolName)
	assert.Equal(t, "B", card.OverallGrade)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "pendek", truncate("pendek", 14))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
