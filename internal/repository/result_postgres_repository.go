package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

const resultColumns = `id, student_id, exam_id, subject_id, classroom_id,
	score, max_marks, percentage, grade, remarks, status, created_by,
	submitted_by, submitted_at, approved_by, approved_at,
	published_by, published_at, rejected_by, rejected_at, rejection_reason,
	history, version, created_at, updated_at`

// PostgresResultRepository stores exam results in the exam_results table.
type PostgresResultRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresResultRepository creates a new PostgresResultRepository.
func NewPostgresResultRepository(pool *pgxpool.Pool) *PostgresResultRepository {
	return &PostgresResultRepository{pool: pool}
}

var _ ResultRepository = (*PostgresResultRepository)(nil)

func scanResult(row pgx.Row) (*model.ExamResult, error) {
	var (
		r       model.ExamResult
		history []byte
	)
	err := row.Scan(
		&r.ID, &r.StudentID, &r.ExamID, &r.SubjectID, &r.ClassroomID,
		&r.Score, &r.MaxMarks, &r.Percentage, &r.Grade, &r.Remarks, &r.Status, &r.CreatedBy,
		&r.SubmittedBy, &r.SubmittedAt, &r.ApprovedBy, &r.ApprovedAt,
		&r.PublishedBy, &r.PublishedAt, &r.RejectedBy, &r.RejectedAt, &r.RejectionReason,
		&history, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &r.History); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
	}
	return &r, nil
}

// Create inserts a new result.
func (r *PostgresResultRepository) Create(ctx context.Context, res *model.ExamResult) error {
	history, err := json.Marshal(res.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO exam_results (`+resultColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		         $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		res.ID, res.StudentID, res.ExamID, res.SubjectID, res.ClassroomID,
		res.Score, res.MaxMarks, res.Percentage, res.Grade, res.Remarks, res.Status, res.CreatedBy,
		res.SubmittedBy, res.SubmittedAt, res.ApprovedBy, res.ApprovedAt,
		res.PublishedBy, res.PublishedAt, res.RejectedBy, res.RejectedAt, res.RejectionReason,
		history, res.Version, res.CreatedAt, res.UpdatedAt,
	)
	return translatePgError(err)
}

// GetByID retrieves a result by its ID.
func (r *PostgresResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamResult, error) {
	res, err := scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM exam_results WHERE id = $1`, id))
	if err != nil {
		return nil, translatePgError(err)
	}
	return res, nil
}

// GetByKey retrieves a result by student, exam and subject.
func (r *PostgresResultRepository) GetByKey(ctx context.Context, key model.ResultKey) (*model.ExamResult, error) {
	res, err := scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM exam_results
		 WHERE student_id = $1 AND exam_id = $2 AND subject_id = $3`,
		key.StudentID, key.ExamID, key.SubjectID))
	if err != nil {
		return nil, translatePgError(err)
	}
	return res, nil
}

// CompareAndSet applies change only while the row is still in the expected status.
// Zero affected rows means another writer got there first.
func (r *PostgresResultRepository) CompareAndSet(
	ctx context.Context,
	id uuid.UUID,
	expected model.ResultStatus,
	change model.ResultChange,
) (*model.ExamResult, error) {
	entry, err := json.Marshal([]model.AuditEntry{change.Entry})
	if err != nil {
		return nil, fmt.Errorf("encode history entry: %w", err)
	}

	args := []interface{}{id, expected, change.Status, entry, change.Entry.At}
	sets := []string{
		"status = $3",
		"history = history || $4::jsonb",
		"version = version + 1",
		"updated_at = $5",
	}

	fields := append(marksFields(change.Marks), stampFields(change.Entry)...)
	for _, f := range fields {
		args = append(args, f.value)
		sets = append(sets, f.name+" = $"+strconv.Itoa(len(args)))
	}

	query := `UPDATE exam_results SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 AND status = $2 RETURNING ` + resultColumns

	res, err := scanResult(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaleStatus
		}
		return nil, translatePgError(err)
	}
	return res, nil
}

// List retrieves results matching filter, oldest in the queue first.
func (r *PostgresResultRepository) List(ctx context.Context, f model.ResultFilter) ([]model.ExamResult, error) {
	where, args := resultWhere(f)
	query := `SELECT ` + resultColumns + ` FROM exam_results` + where +
		` ORDER BY COALESCE(submitted_at, created_at) ASC, id::text ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.ExamResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// Count returns how many results match f.
func (r *PostgresResultRepository) Count(ctx context.Context, f model.ResultFilter) (int, error) {
	where, args := resultWhere(f)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exam_results`+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// resultWhere renders the filter's equality conditions as a WHERE clause.
func resultWhere(f model.ResultFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(col string, v interface{}) {
		args = append(args, v)
		conds = append(conds, col+" = $"+strconv.Itoa(len(args)))
	}

	if f.Status != nil {
		add("status", *f.Status)
	}
	if f.ExamID != nil {
		add("exam_id", *f.ExamID)
	}
	if f.ClassroomID != nil {
		add("classroom_id", *f.ClassroomID)
	}
	if f.SubjectID != nil {
		add("subject_id", *f.SubjectID)
	}
	if f.StudentID != nil {
		add("student_id", *f.StudentID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(conds, " AND "), args
}

// CountByStatus returns the number of results in each status.
func (r *PostgresResultRepository) CountByStatus(ctx context.Context) (map[model.ResultStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM exam_results GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.ResultStatus]int)
	for rows.Next() {
		var (
			status model.ResultStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
