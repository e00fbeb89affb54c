package model

import (
	"net/mail"
	"time"
)

// User is any account that can log in: staff, parents and students.
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	StudentIDs   []int     `json:"student_ids,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID int
	Role   Role
	// StudentIDs are the students a parent or student account is linked to.
	StudentIDs []int
}

// OwnsStudent reports whether the actor is linked to the given student.
func (a Actor) OwnsStudent(studentID int) bool {
	for _, id := range a.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// Contact is an email recipient resolved for a student.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Address converts the contact to a mail address.
func (c Contact) Address() mail.Address {
	return mail.Address{Name: c.Name, Address: c.Email}
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// CreateUserRequest is the payload for creating a user account.
type CreateUserRequest struct {
	Email      string `json:"email" binding:"required,email,max=255"`
	Name       string `json:"name" binding:"required,min=2,max=100"`
	Password   string `json:"password" binding:"required,min=6,max=128"`
	Role       Role   `json:"role" binding:"required,role"`
	StudentIDs []int  `json:"student_ids" binding:"omitempty,dive,min=1"`
}
