package model

import (
	"time"

	"github.com/google/uuid"
)

// ResultStatus is the lifecycle state of an exam result.
type ResultStatus string

const (
	ResultStatusDraft     ResultStatus = "draft"
	ResultStatusSubmitted ResultStatus = "submitted"
	ResultStatusApproved  ResultStatus = "approved"
	ResultStatusPublished ResultStatus = "published"
	ResultStatusRejected  ResultStatus = "rejected"
)

// AllResultStatuses lists every lifecycle state.
var AllResultStatuses = []ResultStatus{
	ResultStatusDraft,
	ResultStatusSubmitted,
	ResultStatusApproved,
	ResultStatusPublished,
	ResultStatusRejected,
}

// ResultAction names a write applied to a result. Every write is recorded
// in the result's history under one of these actions.
type ResultAction string

const (
	ResultActionCreate   ResultAction = "create"
	ResultActionUpdate   ResultAction = "update"
	ResultActionSubmit   ResultAction = "submit"
	ResultActionApprove  ResultAction = "approve"
	ResultActionReject   ResultAction = "reject"
	ResultActionPublish  ResultAction = "publish"
	ResultActionResubmit ResultAction = "resubmit"
)

// resultTransitions is the single source of truth for allowed status moves.
// Published has no outgoing edges.
var resultTransitions = map[ResultStatus]map[ResultAction]ResultStatus{
	ResultStatusDraft: {
		ResultActionSubmit: ResultStatusSubmitted,
	},
	ResultStatusSubmitted: {
		ResultActionApprove: ResultStatusApproved,
		ResultActionReject:  ResultStatusRejected,
	},
	ResultStatusApproved: {
		ResultActionPublish: ResultStatusPublished,
	},
	ResultStatusRejected: {
		ResultActionResubmit: ResultStatusSubmitted,
	},
}

// Valid reports whether s is a known status.
func (s ResultStatus) Valid() bool {
	for _, known := range AllResultStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further writes are allowed.
func (s ResultStatus) IsTerminal() bool {
	return s == ResultStatusPublished
}

// Editable reports whether marks may still be changed in place.
func (s ResultStatus) Editable() bool {
	return s == ResultStatusDraft || s == ResultStatusSubmitted
}

// Next returns the status reached by applying action from s.
func (s ResultStatus) Next(action ResultAction) (ResultStatus, bool) {
	to, ok := resultTransitions[s][action]
	return to, ok
}

// AuditEntry is one append-only record in a result's history.
type AuditEntry struct {
	Action     ResultAction `json:"action" bson:"action"`
	ActorID    int          `json:"actor_id" bson:"actor_id"`
	FromStatus ResultStatus `json:"from_status,omitempty" bson:"from_status,omitempty"`
	ToStatus   ResultStatus `json:"to_status" bson:"to_status"`
	Reason     string       `json:"reason,omitempty" bson:"reason,omitempty"`
	At         time.Time    `json:"at" bson:"at"`
}

// Marks are the graded figures of a result.
type Marks struct {
	Score      float64 `json:"score"`
	MaxMarks   float64 `json:"max_marks"`
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`
	Remarks    string  `json:"remarks"`
}

// ResultKey identifies a result by its natural key.
type ResultKey struct {
	StudentID int
	ExamID    uuid.UUID
	SubjectID int
}

// ExamResult is the marks of one student for one subject in one exam.
type ExamResult struct {
	ID          uuid.UUID `json:"id"`
	StudentID   int       `json:"student_id"`
	ExamID      uuid.UUID `json:"exam_id"`
	SubjectID   int       `json:"subject_id"`
	ClassroomID int       `json:"classroom_id"`

	Score      float64 `json:"score"`
	MaxMarks   float64 `json:"max_marks"`
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`
	Remarks    string  `json:"remarks"`

	Status    ResultStatus `json:"status"`
	CreatedBy int          `json:"created_by"`

	SubmittedBy     *int       `json:"submitted_by,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	ApprovedBy      *int       `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	PublishedBy     *int       `json:"published_by,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	RejectedBy      *int       `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	History []AuditEntry `json:"history"`
	Version int          `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the natural key of the result.
func (r *ExamResult) Key() ResultKey {
	return ResultKey{StudentID: r.StudentID, ExamID: r.ExamID, SubjectID: r.SubjectID}
}

// QueueTime is the time the result entered its current review queue position.
// Drafts have never been submitted, so they fall back to their creation time.
func (r *ExamResult) QueueTime() time.Time {
	if r.SubmittedAt != nil {
		return *r.SubmittedAt
	}
	return r.CreatedAt
}

// SetMarks copies graded figures onto the result.
func (r *ExamResult) SetMarks(m Marks) {
	r.Score = m.Score
	r.MaxMarks = m.MaxMarks
	r.Percentage = m.Percentage
	r.Grade = m.Grade
	r.Remarks = m.Remarks
}

// Stamp records the audit fields owned by entry.Action. Fields belonging to
// other actions are left untouched.
func (r *ExamResult) Stamp(entry AuditEntry) {
	actor := entry.ActorID
	at := entry.At
	switch entry.Action {
	case ResultActionSubmit, ResultActionResubmit:
		r.SubmittedBy, r.SubmittedAt = &actor, &at
	case ResultActionCreate:
		if entry.ToStatus == ResultStatusSubmitted {
			r.SubmittedBy, r.SubmittedAt = &actor, &at
		}
	case ResultActionApprove:
		r.ApprovedBy, r.ApprovedAt = &actor, &at
	case ResultActionReject:
		r.RejectedBy, r.RejectedAt = &actor, &at
		r.RejectionReason = entry.Reason
	case ResultActionPublish:
		r.PublishedBy, r.PublishedAt = &actor, &at
	}
}

// Apply performs change on the result in memory.
func (r *ExamResult) Apply(change ResultChange) {
	r.Status = change.Status
	if change.Marks != nil {
		r.SetMarks(*change.Marks)
	}
	r.Stamp(change.Entry)
	r.History = append(r.History, change.Entry)
	r.Version++
	r.UpdatedAt = change.Entry.At
}

// Clone returns a deep copy of the result.
func (r *ExamResult) Clone() *ExamResult {
	c := *r
	c.SubmittedBy = cloneInt(r.SubmittedBy)
	c.SubmittedAt = cloneTime(r.SubmittedAt)
	c.ApprovedBy = cloneInt(r.ApprovedBy)
	c.ApprovedAt = cloneTime(r.ApprovedAt)
	c.PublishedBy = cloneInt(r.PublishedBy)
	c.PublishedAt = cloneTime(r.PublishedAt)
	c.RejectedBy = cloneInt(r.RejectedBy)
	c.RejectedAt = cloneTime(r.RejectedAt)
	c.History = append([]AuditEntry(nil), r.History...)
	return &c
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ResultChange is a conditional write applied by a store's compare-and-set.
type ResultChange struct {
	Status ResultStatus
	// Marks is nil when the write does not touch the graded figures.
	Marks *Marks
	Entry AuditEntry
}

// ResultFilter narrows result listings. Nil fields are ignored.
type ResultFilter struct {
	Status      *ResultStatus
	ExamID      *uuid.UUID
	ClassroomID *int
	SubjectID   *int
	StudentID   *int

	// Limit caps the rows returned; zero means no cap. Offset skips rows of
	// the ordered listing and is ignored by counts.
	Limit  int
	Offset int
}

// ResultEvent is broadcast after every successful write to a result.
type ResultEvent struct {
	ResultID    uuid.UUID    `json:"result_id"`
	StudentID   int          `json:"student_id"`
	ExamID      uuid.UUID    `json:"exam_id"`
	SubjectID   int          `json:"subject_id"`
	ClassroomID int          `json:"classroom_id"`
	Action      ResultAction `json:"action"`
	From        ResultStatus `json:"from,omitempty"`
	To          ResultStatus `json:"to"`
	ActorID     int          `json:"actor_id"`
	At          time.Time    `json:"at"`
}

// NewResultEvent builds the event describing the latest entry of result.
func NewResultEvent(result *ExamResult, entry AuditEntry) ResultEvent {
	return ResultEvent{
		ResultID:    result.ID,
		StudentID:   result.StudentID,
		ExamID:      result.ExamID,
		SubjectID:   result.SubjectID,
		ClassroomID: result.ClassroomID,
		Action:      entry.Action,
		From:        entry.FromStatus,
		To:          entry.ToStatus,
		ActorID:     entry.ActorID,
		At:          entry.At,
	}
}

// CreateResultRequest is the payload for entering marks.
type CreateResultRequest struct {
	StudentID   int      `json:"student_id" binding:"required,min=1"`
	ExamID      string   `json:"exam_id" binding:"required,uuid"`
	SubjectID   int      `json:"subject_id" binding:"required,min=1"`
	ClassroomID int      `json:"classroom_id" binding:"required,min=1"`
	Score       *float64 `json:"score" binding:"required,gte=0,lte=99999.99"`
	MaxMarks    float64  `json:"max_marks" binding:"required,gt=0,lte=99999.99"`
	Remarks     string   `json:"remarks" binding:"omitempty,max=500"`
	SaveAsDraft bool     `json:"save_as_draft"`
}

// UpdateResultRequest is the payload for editing or resubmitting marks.
type UpdateResultRequest struct {
	Score    *float64 `json:"score" binding:"required,gte=0,lte=99999.99"`
	MaxMarks float64  `json:"max_marks" binding:"required,gt=0,lte=99999.99"`
	Remarks  string   `json:"remarks" binding:"omitempty,max=500"`
}

// RejectResultRequest is the payload for rejecting a submitted result.
type RejectResultRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}
