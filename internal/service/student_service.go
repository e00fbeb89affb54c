package service

import (
	"context"

	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"github.com/stemsi/schoolhub-backend/internal/response"
)

// StudentService handles student business logic.
type StudentService struct {
	studentRepo *repository.StudentRepository
}

// NewStudentService creates a new StudentService.
func NewStudentService(studentRepo *repository.StudentRepository) *StudentService {
	return &StudentService{studentRepo: studentRepo}
}

// GetByID retrieves a student by ID.
func (s *StudentService) GetByID(ctx context.Context, id int) (*model.Student, error) {
	return s.studentRepo.GetByID(ctx, id)
}

// ListStudents retrieves all students with pagination and optional classroom filter.
func (s *StudentService) ListStudents(ctx context.Context, classroomID *int, page, perPage int) ([]model.Student, *response.Pagination, error) {
	page, perPage = normalizePage(page, perPage)

	students, total, err := s.studentRepo.ListPaginated(ctx, classroomID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}

	if students == nil {
		students = []model.Student{}
	}

	return students, newPagination(page, perPage, total), nil
}

// Create inserts a new student.
func (s *StudentService) Create(ctx context.Context, student *model.Student) error {
	return s.studentRepo.Create(ctx, student)
}

// Update modifies a student's details.
func (s *StudentService) Update(ctx context.Context, student *model.Student) error {
	return s.studentRepo.Update(ctx, student)
}

// Delete removes a student by ID. Students with results fail with
// repository.ErrInUse.
func (s *StudentService) Delete(ctx context.Context, id int) error {
	return s.studentRepo.Delete(ctx, id)
}
