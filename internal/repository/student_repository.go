package repository

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

const studentSelect = `SELECT s.id, s.admission_no, s.name, s.gender, COALESCE(s.email, ''),
	s.classroom_id, c.name, s.created_at, s.updated_at
	FROM students s JOIN classrooms c ON c.id = s.classroom_id`

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func scanStudent(row pgx.Row, s *model.Student) error {
	return row.Scan(&s.ID, &s.AdmissionNo, &s.Name, &s.Gender, &s.Email,
		&s.ClassroomID, &s.ClassroomName, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	s := &model.Student{}
	if err := scanStudent(r.pool.QueryRow(ctx, studentSelect+` WHERE s.id = $1`, id), s); err != nil {
		return nil, translatePgError(err)
	}
	return s, nil
}

// ListPaginated retrieves students with pagination and optional classroom filter.
func (r *StudentRepository) ListPaginated(ctx context.Context, classroomID *int, limit, offset int) ([]model.Student, int, error) {
	countQuery := `SELECT COUNT(*) FROM students`
	var countArgs []interface{}
	if classroomID != nil {
		countQuery += ` WHERE classroom_id = $1`
		countArgs = append(countArgs, *classroomID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := studentSelect
	var args []interface{}
	argIdx := 1

	if classroomID != nil {
		query += ` WHERE s.classroom_id = $1`
		args = append(args, *classroomID)
		argIdx++
	}

	query += ` ORDER BY s.name LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := scanStudent(rows, &s); err != nil {
			return nil, 0, err
		}
		students = append(students, s)
	}
	return students, total, rows.Err()
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (admission_no, name, gender, email, classroom_id)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		 RETURNING id, created_at, updated_at`,
		s.AdmissionNo, s.Name, s.Gender, s.Email, s.ClassroomID,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return translatePgError(err)
}

// Update modifies a student's details.
func (r *StudentRepository) Update(ctx context.Context, s *model.Student) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE students SET admission_no = $1, name = $2, gender = $3, email = NULLIF($4, ''),
		 classroom_id = $5, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $6`,
		s.AdmissionNo, s.Name, s.Gender, s.Email, s.ClassroomID, s.ID,
	)
	if err != nil {
		return translatePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a student by ID.
func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	return translatePgError(err)
}
