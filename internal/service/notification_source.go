package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/repository"
)

// NotificationSource feeds the notification worker with result, reference
// and school details.
type NotificationSource struct {
	results  repository.ResultRepository
	refs     ResultReferences
	settings SettingLookup
}

// NewNotificationSource creates a new NotificationSource.
func NewNotificationSource(results repository.ResultRepository, refs ResultReferences, settings SettingLookup) *NotificationSource {
	return &NotificationSource{results: results, refs: refs, settings: settings}
}

func (n *NotificationSource) GetResult(ctx context.Context, id uuid.UUID) (*model.ExamResult, error) {
	return n.results.GetByID(ctx, id)
}

func (n *NotificationSource) GetStudent(ctx context.Context, id int) (*model.Student, error) {
	return n.refs.GetStudent(ctx, id)
}

func (n *NotificationSource) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return n.refs.GetExam(ctx, id)
}

func (n *NotificationSource) GetSubject(ctx context.Context, id int) (*model.Subject, error) {
	return n.refs.GetSubject(ctx, id)
}

func (n *NotificationSource) SchoolName(ctx context.Context) string {
	return n.settings.GetOrDefault(ctx, model.SettingSchoolName, "SchoolHub")
}
