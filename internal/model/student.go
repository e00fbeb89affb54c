package model

import "time"

// Gender represents the student's gender.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Student is a pupil enrolled in exactly one classroom.
type Student struct {
	ID            int       `json:"id"`
	AdmissionNo   string    `json:"admission_no"`
	Name          string    `json:"name"`
	Gender        Gender    `json:"gender"`
	Email         string    `json:"email,omitempty"`
	ClassroomID   int       `json:"classroom_id"`
	ClassroomName string    `json:"classroom_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateStudentRequest is the payload for creating or updating a student.
type CreateStudentRequest struct {
	AdmissionNo string `json:"admission_no" binding:"required,min=3,max=20"`
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Gender      Gender `json:"gender" binding:"required,oneof=male female"`
	Email       string `json:"email" binding:"omitempty,email,max=255"`
	ClassroomID int    `json:"classroom_id" binding:"required,min=1"`
}
