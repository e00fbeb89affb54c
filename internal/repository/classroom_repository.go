package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// ClassroomRepository handles classroom, classroom subject and teacher
// assignment data access.
type ClassroomRepository struct {
	pool *pgxpool.Pool
}

// NewClassroomRepository creates a new ClassroomRepository.
func NewClassroomRepository(pool *pgxpool.Pool) *ClassroomRepository {
	return &ClassroomRepository{pool: pool}
}

const classroomSelect = `SELECT c.id, c.name, c.grade_level, c.academic_year,
	COALESCE(ARRAY(SELECT cs.subject_id FROM classroom_subjects cs WHERE cs.classroom_id = c.id ORDER BY cs.subject_id), '{}'),
	c.created_at, c.updated_at
	FROM classrooms c`

func scanClassroom(row pgx.Row, c *model.Classroom) error {
	var subjectIDs []int32
	if err := row.Scan(&c.ID, &c.Name, &c.GradeLevel, &c.AcademicYear, &subjectIDs, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return err
	}
	c.SubjectIDs = make([]int, len(subjectIDs))
	for i, id := range subjectIDs {
		c.SubjectIDs[i] = int(id)
	}
	return nil
}

// GetByID retrieves a classroom and its subject IDs.
func (r *ClassroomRepository) GetByID(ctx context.Context, id int) (*model.Classroom, error) {
	c := &model.Classroom{}
	if err := scanClassroom(r.pool.QueryRow(ctx, classroomSelect+` WHERE c.id = $1`, id), c); err != nil {
		return nil, translatePgError(err)
	}
	return c, nil
}

// GetAll retrieves all classrooms ordered by grade then name.
func (r *ClassroomRepository) GetAll(ctx context.Context) ([]model.Classroom, error) {
	rows, err := r.pool.Query(ctx, classroomSelect+` ORDER BY c.grade_level, c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classrooms []model.Classroom
	for rows.Next() {
		var c model.Classroom
		if err := scanClassroom(rows, &c); err != nil {
			return nil, err
		}
		classrooms = append(classrooms, c)
	}
	return classrooms, rows.Err()
}

// Create inserts a classroom together with its subject links.
func (r *ClassroomRepository) Create(ctx context.Context, c *model.Classroom) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO classrooms (name, grade_level, academic_year) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		c.Name, c.GradeLevel, c.AcademicYear,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return translatePgError(err)
	}

	if err := insertClassroomSubjects(ctx, tx, c.ID, c.SubjectIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update rewrites a classroom and replaces its subject links.
func (r *ClassroomRepository) Update(ctx context.Context, c *model.Classroom) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`UPDATE classrooms SET name = $1, grade_level = $2, academic_year = $3, updated_at = NOW()
		 WHERE id = $4 RETURNING created_at, updated_at`,
		c.Name, c.GradeLevel, c.AcademicYear, c.ID,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return translatePgError(err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM classroom_subjects WHERE classroom_id = $1`, c.ID); err != nil {
		return translatePgError(err)
	}
	if err := insertClassroomSubjects(ctx, tx, c.ID, c.SubjectIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertClassroomSubjects(ctx context.Context, tx pgx.Tx, classroomID int, subjectIDs []int) error {
	if len(subjectIDs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, sid := range subjectIDs {
		batch.Queue(`INSERT INTO classroom_subjects (classroom_id, subject_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, classroomID, sid)
	}
	br := tx.SendBatch(ctx, batch)
	for range subjectIDs {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return translatePgError(err)
		}
	}
	return br.Close()
}

// Delete removes a classroom. Classrooms with students fail with ErrInUse.
func (r *ClassroomRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM classrooms WHERE id = $1`, id)
	return translatePgError(err)
}

// HasSubject reports whether the subject is taught in the classroom.
func (r *ClassroomRepository) HasSubject(ctx context.Context, classroomID, subjectID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM classroom_subjects WHERE classroom_id = $1 AND subject_id = $2)`,
		classroomID, subjectID,
	).Scan(&exists)
	return exists, err
}

// AssignTeacher links a teacher to a classroom subject. Re-assigning is a no-op.
func (r *ClassroomRepository) AssignTeacher(ctx context.Context, a model.TeacherAssignment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO teacher_assignments (teacher_id, classroom_id, subject_id) VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		a.TeacherID, a.ClassroomID, a.SubjectID)
	return translatePgError(err)
}

// UnassignTeacher removes a teacher assignment.
func (r *ClassroomRepository) UnassignTeacher(ctx context.Context, a model.TeacherAssignment) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM teacher_assignments WHERE teacher_id = $1 AND classroom_id = $2 AND subject_id = $3`,
		a.TeacherID, a.ClassroomID, a.SubjectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAssignments returns the teacher assignments of a classroom.
func (r *ClassroomRepository) ListAssignments(ctx context.Context, classroomID int) ([]model.TeacherAssignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT teacher_id, classroom_id, subject_id FROM teacher_assignments
		 WHERE classroom_id = $1 ORDER BY subject_id, teacher_id`, classroomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TeacherAssignment
	for rows.Next() {
		var a model.TeacherAssignment
		if err := rows.Scan(&a.TeacherID, &a.ClassroomID, &a.SubjectID); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// IsTeacherAssigned reports whether the teacher may enter marks for the
// classroom subject.
func (r *ClassroomRepository) IsTeacherAssigned(ctx context.Context, teacherID, classroomID, subjectID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM teacher_assignments
		 WHERE teacher_id = $1 AND classroom_id = $2 AND subject_id = $3)`,
		teacherID, classroomID, subjectID,
	).Scan(&exists)
	return exists, err
}
