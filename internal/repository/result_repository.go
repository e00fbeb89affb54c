package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// ResultRepository persists exam results. Every status change goes through
// CompareAndSet, which must apply the change only if the stored status still
// equals expected and report ErrStaleStatus otherwise.
type ResultRepository interface {
	// Create inserts a new result. ErrDuplicate when the (student, exam, subject)
	// key is already taken.
	Create(ctx context.Context, result *model.ExamResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamResult, error)
	GetByKey(ctx context.Context, key model.ResultKey) (*model.ExamResult, error)
	CompareAndSet(ctx context.Context, id uuid.UUID, expected model.ResultStatus, change model.ResultChange) (*model.ExamResult, error)
	// List returns matching results ordered by queue time, then ID, honouring
	// the filter's Limit and Offset.
	List(ctx context.Context, filter model.ResultFilter) ([]model.ExamResult, error)
	// Count returns how many results match, ignoring Limit and Offset.
	Count(ctx context.Context, filter model.ResultFilter) (int, error)
	CountByStatus(ctx context.Context) (map[model.ResultStatus]int, error)
}

// stampField is one audit column/field written by a transition.
type stampField struct {
	name  string
	value interface{}
}

// stampFields lists the audit fields owned by entry's action. Column names
// are shared by the SQL and document stores.
func stampFields(entry model.AuditEntry) []stampField {
	actor, at := entry.ActorID, entry.At
	switch entry.Action {
	case model.ResultActionSubmit, model.ResultActionResubmit:
		return []stampField{{"submitted_by", actor}, {"submitted_at", at}}
	case model.ResultActionApprove:
		return []stampField{{"approved_by", actor}, {"approved_at", at}}
	case model.ResultActionReject:
		return []stampField{{"rejected_by", actor}, {"rejected_at", at}, {"rejection_reason", entry.Reason}}
	case model.ResultActionPublish:
		return []stampField{{"published_by", actor}, {"published_at", at}}
	}
	return nil
}

// marksFields lists the graded columns written by a marks change.
func marksFields(m *model.Marks) []stampField {
	if m == nil {
		return nil
	}
	return []stampField{
		{"score", m.Score},
		{"max_marks", m.MaxMarks},
		{"percentage", m.Percentage},
		{"grade", m.Grade},
		{"remarks", m.Remarks},
	}
}

// queueTimeAfter reports the queue time a result has once entry is applied,
// or nil when the entry leaves it unchanged.
func queueTimeAfter(entry model.AuditEntry) *time.Time {
	switch entry.Action {
	case model.ResultActionSubmit, model.ResultActionResubmit:
		at := entry.At
		return &at
	}
	return nil
}

func matchesFilter(r *model.ExamResult, f model.ResultFilter) bool {
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.ExamID != nil && r.ExamID != *f.ExamID {
		return false
	}
	if f.ClassroomID != nil && r.ClassroomID != *f.ClassroomID {
		return false
	}
	if f.SubjectID != nil && r.SubjectID != *f.SubjectID {
		return false
	}
	if f.StudentID != nil && r.StudentID != *f.StudentID {
		return false
	}
	return true
}
