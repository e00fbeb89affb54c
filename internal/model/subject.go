package model

import "time"

// Subject represents an academic course or subject.
type Subject struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateSubjectRequest is the payload for creating or updating a subject.
type CreateSubjectRequest struct {
	Code string `json:"code" binding:"required,min=2,max=10"`
	Name string `json:"name" binding:"required,min=2,max=100"`
}
