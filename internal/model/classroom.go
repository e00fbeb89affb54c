package model

import "time"

// Classroom is a teaching group of students for one academic year.
type Classroom struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	GradeLevel   int       `json:"grade_level"`
	AcademicYear string    `json:"academic_year"`
	SubjectIDs   []int     `json:"subject_ids"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TeacherAssignment grants a teacher the right to enter marks for one
// subject in one classroom.
type TeacherAssignment struct {
	TeacherID   int `json:"teacher_id"`
	ClassroomID int `json:"classroom_id"`
	SubjectID   int `json:"subject_id"`
}

// CreateClassroomRequest is the payload for creating or updating a classroom.
type CreateClassroomRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=50"`
	GradeLevel   int    `json:"grade_level" binding:"required,min=1,max=13"`
	AcademicYear string `json:"academic_year" binding:"required,len=9"`
	SubjectIDs   []int  `json:"subject_ids" binding:"omitempty,dive,min=1"`
}

// AssignTeacherRequest is the payload for assigning a teacher to a classroom subject.
type AssignTeacherRequest struct {
	TeacherID int `json:"teacher_id" binding:"required,min=1"`
	SubjectID int `json:"subject_id" binding:"required,min=1"`
}
