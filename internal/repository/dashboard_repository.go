package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DashboardRepository handles dashboard data access.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// SummaryCounts are the headline numbers of the school.
type SummaryCounts struct {
	Students   int `json:"students"`
	Classrooms int `json:"classrooms"`
	Subjects   int `json:"subjects"`
	Exams      int `json:"exams"`
}

// GetSummaryCounts retrieves the high-level metrics for the dashboard.
func (r *DashboardRepository) GetSummaryCounts(ctx context.Context) (SummaryCounts, error) {
	var c SummaryCounts
	err := r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM classrooms),
			(SELECT COUNT(*) FROM subjects),
			(SELECT COUNT(*) FROM exams)`,
	).Scan(&c.Students, &c.Classrooms, &c.Subjects, &c.Exams)
	return c, err
}
