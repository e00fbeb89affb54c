package service

import (
	"context"
	"fmt"

	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/repository"
)

// ClassroomService handles classroom business logic.
type ClassroomService struct {
	classroomRepo *repository.ClassroomRepository
	userRepo      *repository.UserRepository
}

// NewClassroomService creates a new ClassroomService.
func NewClassroomService(classroomRepo *repository.ClassroomRepository, userRepo *repository.UserRepository) *ClassroomService {
	return &ClassroomService{classroomRepo: classroomRepo, userRepo: userRepo}
}

// GetByID retrieves a classroom by its ID.
func (s *ClassroomService) GetByID(ctx context.Context, id int) (*model.Classroom, error) {
	return s.classroomRepo.GetByID(ctx, id)
}

// List retrieves all classrooms.
func (s *ClassroomService) List(ctx context.Context) ([]model.Classroom, error) {
	classrooms, err := s.classroomRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if classrooms == nil {
		classrooms = []model.Classroom{}
	}
	return classrooms, nil
}

// Create creates a new classroom.
func (s *ClassroomService) Create(ctx context.Context, classroom *model.Classroom) error {
	return s.classroomRepo.Create(ctx, classroom)
}

// Update modifies an existing classroom.
func (s *ClassroomService) Update(ctx context.Context, classroom *model.Classroom) error {
	return s.classroomRepo.Update(ctx, classroom)
}

// Delete removes a classroom.
func (s *ClassroomService) Delete(ctx context.Context, id int) error {
	return s.classroomRepo.Delete(ctx, id)
}

// AssignTeacher lets a teacher enter marks for a subject of the classroom.
func (s *ClassroomService) AssignTeacher(ctx context.Context, a model.TeacherAssignment) error {
	teacher, err := s.userRepo.GetByID(ctx, a.TeacherID)
	if err != nil {
		return err
	}
	if teacher.Role != model.RoleTeacher && teacher.Role != model.RoleHeadTeacher {
		return fmt.Errorf("user %d is a %s, not a teacher: %w", teacher.ID, teacher.Role, ErrInvalidInput)
	}

	taught, err := s.classroomRepo.HasSubject(ctx, a.ClassroomID, a.SubjectID)
	if err != nil {
		return err
	}
	if !taught {
		return fmt.Errorf("subject %d is not taught in classroom %d: %w", a.SubjectID, a.ClassroomID, ErrInvalidInput)
	}
	return s.classroomRepo.AssignTeacher(ctx, a)
}

// UnassignTeacher removes a teacher assignment.
func (s *ClassroomService) UnassignTeacher(ctx context.Context, a model.TeacherAssignment) error {
	return s.classroomRepo.UnassignTeacher(ctx, a)
}

// ListAssignments lists the teachers assigned to a classroom.
func (s *ClassroomService) ListAssignments(ctx context.Context, classroomID int) ([]model.TeacherAssignment, error) {
	if _, err := s.classroomRepo.GetByID(ctx, classroomID); err != nil {
		return nil, err
	}
	assignments, err := s.classroomRepo.ListAssignments(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	if assignments == nil {
		assignments = []model.TeacherAssignment{}
	}
	return assignments, nil
}
