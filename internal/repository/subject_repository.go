package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

type SubjectRepository struct {
	pool *pgxpool.Pool
}

func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

func (r *SubjectRepository) Create(ctx context.Context, s *model.Subject) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO subjects (code, name) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
		s.Code, s.Name).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return translatePgError(err)
}

func (r *SubjectRepository) GetByID(ctx context.Context, id int) (*model.Subject, error) {
	s := &model.Subject{}
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, created_at, updated_at FROM subjects WHERE id = $1`, id).
		Scan(&s.ID, &s.Code, &s.Name, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, translatePgError(err)
	}
	return s, nil
}

func (r *SubjectRepository) GetAll(ctx context.Context) ([]model.Subject, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name, created_at, updated_at FROM subjects ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

func (r *SubjectRepository) Update(ctx context.Context, s *model.Subject) error {
	tag, err := r.pool.Exec(ctx, `UPDATE subjects SET code = $1, name = $2, updated_at = NOW() WHERE id = $3`, s.Code, s.Name, s.ID)
	if err != nil {
		return translatePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SubjectRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	return translatePgError(err)
}
