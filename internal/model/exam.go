package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam is an assessment sitting (e.g. "Mid-term 1") that results are recorded against.
type Exam struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Term         int        `json:"term"`
	AcademicYear string     `json:"academic_year"`
	StartsOn     *time.Time `json:"starts_on,omitempty"`
	CreatedBy    int        `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title        string     `json:"title" binding:"required,min=3,max=255"`
	Term         int        `json:"term" binding:"required,min=1,max=3"`
	AcademicYear string     `json:"academic_year" binding:"required,len=9"`
	StartsOn     *time.Time `json:"starts_on" binding:"omitempty"`
}
