package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// ReferenceRepository bundles the lookups a result write validates against.
type ReferenceRepository struct {
	exams      *ExamRepository
	students   *StudentRepository
	classrooms *ClassroomRepository
	subjects   *SubjectRepository
}

// NewReferenceRepository creates a new ReferenceRepository.
func NewReferenceRepository(
	exams *ExamRepository,
	students *StudentRepository,
	classrooms *ClassroomRepository,
	subjects *SubjectRepository,
) *ReferenceRepository {
	return &ReferenceRepository{exams: exams, students: students, classrooms: classrooms, subjects: subjects}
}

func (r *ReferenceRepository) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return r.exams.GetByID(ctx, id)
}

func (r *ReferenceRepository) GetStudent(ctx context.Context, id int) (*model.Student, error) {
	return r.students.GetByID(ctx, id)
}

func (r *ReferenceRepository) GetClassroom(ctx context.Context, id int) (*model.Classroom, error) {
	return r.classrooms.GetByID(ctx, id)
}

func (r *ReferenceRepository) GetSubject(ctx context.Context, id int) (*model.Subject, error) {
	return r.subjects.GetByID(ctx, id)
}

func (r *ReferenceRepository) ClassroomHasSubject(ctx context.Context, classroomID, subjectID int) (bool, error) {
	return r.classrooms.HasSubject(ctx, classroomID, subjectID)
}

func (r *ReferenceRepository) IsTeacherAssigned(ctx context.Context, teacherID, classroomID, subjectID int) (bool, error) {
	return r.classrooms.IsTeacherAssigned(ctx, teacherID, classroomID, subjectID)
}
