package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/grading"
	"github.com/stemsi/schoolhub-backend/internal/metrics"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/rbac"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"github.com/stemsi/schoolhub-backend/internal/response"
)

// notifyTimeout bounds a single best-effort notification.
const notifyTimeout = 5 * time.Second

// ResultReferences resolves the records an exam result points at.
type ResultReferences interface {
	GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	GetStudent(ctx context.Context, id int) (*model.Student, error)
	GetClassroom(ctx context.Context, id int) (*model.Classroom, error)
	GetSubject(ctx context.Context, id int) (*model.Subject, error)
	ClassroomHasSubject(ctx context.Context, classroomID, subjectID int) (bool, error)
	IsTeacherAssigned(ctx context.Context, teacherID, classroomID, subjectID int) (bool, error)
}

// TransitionNotifier is told about every successful write to a result.
// Errors are logged by the caller and never undo the write.
type TransitionNotifier interface {
	Notify(ctx context.Context, event model.ResultEvent) error
}

// CreateResultInput carries the marks entered for one student, exam and subject.
type CreateResultInput struct {
	StudentID   int
	ExamID      uuid.UUID
	SubjectID   int
	ClassroomID int
	Score       float64
	MaxMarks    float64
	Remarks     string
	SaveAsDraft bool
}

// MarksInput carries replacement marks for an update or resubmission.
type MarksInput struct {
	Score    float64
	MaxMarks float64
	Remarks  string
}

// PendingFilter narrows the review queue.
type PendingFilter struct {
	// Status defaults to submitted.
	Status      *model.ResultStatus
	ExamID      *uuid.UUID
	ClassroomID *int
	SubjectID   *int
	Page        int
	PerPage     int
}

// ResultService runs the exam result lifecycle: it authorizes every write,
// validates it against the transition table and persists it with a
// compare-and-set on the prior status.
type ResultService struct {
	cfg      *config.Config
	gate     *rbac.Gate
	results  repository.ResultRepository
	refs     ResultReferences
	notifier TransitionNotifier
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// NewResultService creates a new ResultService. notifier and m may be nil.
func NewResultService(
	cfg *config.Config,
	gate *rbac.Gate,
	results repository.ResultRepository,
	refs ResultReferences,
	notifier TransitionNotifier,
	m *metrics.Metrics,
	log zerolog.Logger,
) *ResultService {
	return &ResultService{
		cfg:      cfg,
		gate:     gate,
		results:  results,
		refs:     refs,
		notifier: notifier,
		metrics:  m,
		log:      log.With().Str("component", "result_service").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ─── Writes ───────────────────────────────────────────────────────────────

// Create records marks for a student. The result starts as submitted, or as
// draft when SaveAsDraft is set.
func (s *ResultService) Create(ctx context.Context, actor model.Actor, in CreateResultInput) (*model.ExamResult, error) {
	if !s.gate.HasPermission(actor.Role, model.PermissionResultsCreate) {
		s.observe(model.ResultActionCreate, metrics.OutcomeRejected)
		return nil, fmt.Errorf("create result: %w", ErrForbidden)
	}

	marks, err := gradeMarks(in.Score, in.MaxMarks, in.Remarks)
	if err != nil {
		return nil, err
	}

	if err := s.checkReferences(ctx, actor, in); err != nil {
		s.observe(model.ResultActionCreate, metrics.OutcomeRejected)
		return nil, err
	}

	key := model.ResultKey{StudentID: in.StudentID, ExamID: in.ExamID, SubjectID: in.SubjectID}
	existing, err := s.results.GetByKey(ctx, key)
	switch {
	case err == nil:
		s.observe(model.ResultActionCreate, metrics.OutcomeRejected)
		if existing.Status.IsTerminal() {
			return nil, fmt.Errorf("create result: existing result %s: %w", existing.ID, ErrTerminalState)
		}
		return nil, fmt.Errorf("create result: student %d already has marks for this exam and subject: %w", in.StudentID, ErrConflict)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("create result: lookup key: %w", err)
	}

	status := model.ResultStatusSubmitted
	if in.SaveAsDraft {
		status = model.ResultStatusDraft
	}

	now := s.now()
	entry := model.AuditEntry{
		Action:   model.ResultActionCreate,
		ActorID:  actor.UserID,
		ToStatus: status,
		At:       now,
	}
	result := &model.ExamResult{
		ID:          uuid.New(),
		StudentID:   in.StudentID,
		ExamID:      in.ExamID,
		SubjectID:   in.SubjectID,
		ClassroomID: in.ClassroomID,
		Status:      status,
		CreatedBy:   actor.UserID,
		History:     []model.AuditEntry{entry},
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	result.SetMarks(marks)
	result.Stamp(entry)

	if err := s.results.Create(ctx, result); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.observe(model.ResultActionCreate, metrics.OutcomeRejected)
			return nil, fmt.Errorf("create result: %w", ErrConflict)
		}
		return nil, fmt.Errorf("create result: %w", err)
	}

	s.observe(model.ResultActionCreate, metrics.OutcomeApplied)
	s.logTransition(result, entry)
	s.notify(result, entry)
	return result, nil
}

// Update replaces the marks of a draft or submitted result. Status is kept.
func (s *ResultService) Update(ctx context.Context, actor model.Actor, id uuid.UUID, in MarksInput) (*model.ExamResult, error) {
	return s.apply(ctx, actor, id, transition{
		action:    model.ResultActionUpdate,
		authorize: s.ownedOr(model.PermissionResultsUpdate, model.PermissionResultsUpdateSelf),
		prepare:   withMarks(in),
	})
}

// Submit sends a draft for review.
func (s *ResultService) Submit(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.ExamResult, error) {
	return s.apply(ctx, actor, id, transition{
		action:    model.ResultActionSubmit,
		authorize: s.ownedOr(model.PermissionResultsSubmit, model.PermissionResultsSubmitSelf),
	})
}

// Approve accepts a submitted result.
func (s *ResultService) Approve(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.ExamResult, error) {
	return s.apply(ctx, actor, id, transition{
		action:    model.ResultActionApprove,
		authorize: s.holds(model.PermissionResultsApprove),
	})
}

// Reject sends a submitted result back to its creator with a reason.
func (s *ResultService) Reject(ctx context.Context, actor model.Actor, id uuid.UUID, reason string) (*model.ExamResult, error) {
	return s.apply(ctx, actor, id, transition{
		action:    model.ResultActionReject,
		authorize: s.holds(model.PermissionResultsReject),
		prepare: func(c *model.ResultChange) error {
			if isBlank(reason) {
				return fmt.Errorf("reason is required: %w", ErrInvalidInput)
			}
			c.Entry.Reason = reason
			return nil
		},
	})
}

// Publish releases an approved result to students and parents.
func (s *ResultService) Publish(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.ExamResult, error) {
	return s.apply(ctx, actor, id, transition{
		action:    model.ResultActionPublish,
		authorize: s.holds(model.PermissionResultsPublish),
	})
}

// Resubmit puts corrected marks on a rejected result and submits it again.
// The previous rejection stays in the history.
func (s *ResultService) Resubmit(ctx context.Context, actor model.Actor, id uuid.UUID, in MarksInput) (*model.ExamResult, error) {
	return s.apply(ctx, actor, id, transition{
		action:    model.ResultActionResubmit,
		authorize: s.creatorOnly,
		prepare:   withMarks(in),
	})
}

// ─── Reads ────────────────────────────────────────────────────────────────

// Get returns one result. Self-scoped readers only see published results of
// their linked students; anything else is reported to them as not found.
func (s *ResultService) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.ExamResult, error) {
	result, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.gate.HasPermission(actor.Role, model.PermissionResultsRead) {
		return result, nil
	}
	if s.gate.HasPermission(actor.Role, model.PermissionResultsReadSelf) {
		if actor.OwnsStudent(result.StudentID) && result.Status == model.ResultStatusPublished {
			return result, nil
		}
		return nil, fmt.Errorf("read result %s: %w", id, ErrNotFound)
	}
	return nil, fmt.Errorf("read result %s: %w", id, ErrForbidden)
}

// GetPending lists the review queue oldest first.
func (s *ResultService) GetPending(ctx context.Context, actor model.Actor, f PendingFilter) ([]model.ExamResult, *response.Pagination, error) {
	if !s.gate.HasPermission(actor.Role, model.PermissionResultsReview) {
		return nil, nil, fmt.Errorf("list pending results: %w", ErrForbidden)
	}

	status := model.ResultStatusSubmitted
	if f.Status != nil {
		if !f.Status.Valid() {
			return nil, nil, fmt.Errorf("list pending results: unknown status %q: %w", *f.Status, ErrInvalidInput)
		}
		status = *f.Status
	}

	page, perPage := normalizePage(f.Page, f.PerPage)
	filter := model.ResultFilter{
		Status:      &status,
		ExamID:      f.ExamID,
		ClassroomID: f.ClassroomID,
		SubjectID:   f.SubjectID,
	}
	total, err := s.results.Count(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("count pending results: %w", err)
	}

	filter.Limit = perPage
	filter.Offset = (page - 1) * perPage
	results, err := s.results.List(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("list pending results: %w", err)
	}
	if results == nil {
		results = []model.ExamResult{}
	}
	return results, newPagination(page, perPage, total), nil
}

// ListPublishedForStudent returns a student's published results, optionally
// for one exam only.
func (s *ResultService) ListPublishedForStudent(ctx context.Context, actor model.Actor, studentID int, examID *uuid.UUID) ([]model.ExamResult, error) {
	allowed := s.gate.HasPermission(actor.Role, model.PermissionResultsRead) ||
		(s.gate.HasPermission(actor.Role, model.PermissionResultsReadSelf) && actor.OwnsStudent(studentID))
	if !allowed {
		return nil, fmt.Errorf("list results of student %d: %w", studentID, ErrForbidden)
	}

	status := model.ResultStatusPublished
	results, err := s.results.List(ctx, model.ResultFilter{
		Status:    &status,
		StudentID: &studentID,
		ExamID:    examID,
	})
	if err != nil {
		return nil, fmt.Errorf("list results of student %d: %w", studentID, err)
	}
	if results == nil {
		results = []model.ExamResult{}
	}
	return results, nil
}

// ─── Internals ────────────────────────────────────────────────────────────

// transition describes one write against an existing result.
type transition struct {
	action    model.ResultAction
	authorize func(actor model.Actor, current *model.ExamResult) bool
	// prepare validates the caller's input and fills the change. It runs
	// once the actor and the current status have been accepted.
	prepare func(change *model.ResultChange) error
}

// withMarks grades in and attaches the marks to the change.
func withMarks(in MarksInput) func(*model.ResultChange) error {
	return func(c *model.ResultChange) error {
		marks, err := gradeMarks(in.Score, in.MaxMarks, in.Remarks)
		if err != nil {
			return err
		}
		c.Marks = &marks
		return nil
	}
}

func (s *ResultService) apply(ctx context.Context, actor model.Actor, id uuid.UUID, t transition) (*model.ExamResult, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !t.authorize(actor, current) {
		s.observe(t.action, metrics.OutcomeRejected)
		return nil, fmt.Errorf("%s result %s: %w", t.action, id, ErrForbidden)
	}
	if current.Status.IsTerminal() {
		s.observe(t.action, metrics.OutcomeRejected)
		return nil, fmt.Errorf("%s result %s: %w", t.action, id, ErrTerminalState)
	}

	to, ok := nextStatus(current.Status, t.action)
	if !ok {
		s.observe(t.action, metrics.OutcomeRejected)
		return nil, fmt.Errorf("%s result %s from %s: %w", t.action, id, current.Status, ErrInvalidTransition)
	}

	change := model.ResultChange{
		Status: to,
		Entry: model.AuditEntry{
			Action:     t.action,
			ActorID:    actor.UserID,
			FromStatus: current.Status,
			ToStatus:   to,
			At:         s.now(),
		},
	}
	if t.prepare != nil {
		if err := t.prepare(&change); err != nil {
			s.observe(t.action, metrics.OutcomeRejected)
			return nil, fmt.Errorf("%s result %s: %w", t.action, id, err)
		}
	}
	entry := change.Entry

	updated, err := s.results.CompareAndSet(ctx, id, current.Status, change)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			s.observe(t.action, metrics.OutcomeRejected)
			return nil, fmt.Errorf("%s result %s: status changed concurrently: %w", t.action, id, ErrInvalidTransition)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s result %s: %w", t.action, id, ErrNotFound)
		}
		return nil, fmt.Errorf("%s result %s: %w", t.action, id, err)
	}

	s.observe(t.action, metrics.OutcomeApplied)
	s.logTransition(updated, entry)
	s.notify(updated, entry)
	return updated, nil
}

// nextStatus resolves the target status of action. Updates keep the status
// and are only allowed while the marks are editable.
func nextStatus(from model.ResultStatus, action model.ResultAction) (model.ResultStatus, bool) {
	if action == model.ResultActionUpdate {
		return from, from.Editable()
	}
	return from.Next(action)
}

func (s *ResultService) load(ctx context.Context, id uuid.UUID) (*model.ExamResult, error) {
	result, err := s.results.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("result %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load result %s: %w", id, err)
	}
	return result, nil
}

func (s *ResultService) holds(perm model.Permission) func(model.Actor, *model.ExamResult) bool {
	return func(actor model.Actor, _ *model.ExamResult) bool {
		return s.gate.HasPermission(actor.Role, perm)
	}
}

// ownedOr allows holders of any, and holders of self when they created the result.
func (s *ResultService) ownedOr(anyPerm, selfPerm model.Permission) func(model.Actor, *model.ExamResult) bool {
	return func(actor model.Actor, r *model.ExamResult) bool {
		if s.gate.HasPermission(actor.Role, anyPerm) {
			return true
		}
		return s.gate.HasPermission(actor.Role, selfPerm) && r.CreatedBy == actor.UserID
	}
}

// creatorOnly allows the user who entered the marks, and admins.
func (s *ResultService) creatorOnly(actor model.Actor, r *model.ExamResult) bool {
	return actor.Role == model.RoleAdmin || r.CreatedBy == actor.UserID
}

func (s *ResultService) checkReferences(ctx context.Context, actor model.Actor, in CreateResultInput) error {
	if _, err := s.refs.GetExam(ctx, in.ExamID); err != nil {
		return referenceError("exam", err)
	}
	student, err := s.refs.GetStudent(ctx, in.StudentID)
	if err != nil {
		return referenceError("student", err)
	}
	if _, err := s.refs.GetClassroom(ctx, in.ClassroomID); err != nil {
		return referenceError("classroom", err)
	}
	if _, err := s.refs.GetSubject(ctx, in.SubjectID); err != nil {
		return referenceError("subject", err)
	}

	if student.ClassroomID != in.ClassroomID {
		return fmt.Errorf("student %d is not in classroom %d: %w", in.StudentID, in.ClassroomID, ErrInvalidInput)
	}
	taught, err := s.refs.ClassroomHasSubject(ctx, in.ClassroomID, in.SubjectID)
	if err != nil {
		return fmt.Errorf("check classroom subject: %w", err)
	}
	if !taught {
		return fmt.Errorf("subject %d is not taught in classroom %d: %w", in.SubjectID, in.ClassroomID, ErrInvalidInput)
	}

	if s.cfg != nil && s.cfg.EnforceTeacherAssignment && actor.Role == model.RoleTeacher {
		assigned, err := s.refs.IsTeacherAssigned(ctx, actor.UserID, in.ClassroomID, in.SubjectID)
		if err != nil {
			return fmt.Errorf("check teacher assignment: %w", err)
		}
		if !assigned {
			return fmt.Errorf("teacher %d is not assigned to subject %d in classroom %d: %w",
				actor.UserID, in.SubjectID, in.ClassroomID, ErrForbidden)
		}
	}
	return nil
}

func referenceError(kind string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", kind, ErrNotFound)
	}
	return fmt.Errorf("lookup %s: %w", kind, err)
}

func gradeMarks(score, maxMarks float64, remarks string) (model.Marks, error) {
	pct, grade, err := grading.Grade(score, maxMarks)
	if err != nil {
		return model.Marks{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return model.Marks{
		Score:      score,
		MaxMarks:   maxMarks,
		Percentage: pct,
		Grade:      grade,
		Remarks:    remarks,
	}, nil
}

func (s *ResultService) notify(result *model.ExamResult, entry model.AuditEntry) {
	if s.notifier == nil {
		return
	}
	event := model.NewResultEvent(result, entry)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, event); err != nil {
			s.log.Warn().Err(err).
				Str("result_id", event.ResultID.String()).
				Str("action", string(event.Action)).
				Msg("result notification failed")
		}
	}()
}

func (s *ResultService) observe(action model.ResultAction, outcome string) {
	s.metrics.ObserveTransition(string(action), outcome)
}

func (s *ResultService) logTransition(result *model.ExamResult, entry model.AuditEntry) {
	s.log.Info().
		Str("result_id", result.ID.String()).
		Str("action", string(entry.Action)).
		Str("from", string(entry.FromStatus)).
		Str("to", string(entry.ToStatus)).
		Int("actor_id", entry.ActorID).
		Msg("result updated")
}
