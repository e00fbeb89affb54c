package service

import (
	"context"
	"fmt"

	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/rbac"
	"github.com/stemsi/schoolhub-backend/internal/repository"
)

// oldestPendingLimit is how many queued results the dashboard shows.
const oldestPendingLimit = 5

// SummaryCounter supplies the headline numbers of the school.
type SummaryCounter interface {
	GetSummaryCounts(ctx context.Context) (repository.SummaryCounts, error)
}

// DashboardData consolidates all metrics for the staff dashboard.
// OldestPending is only filled for callers who review results.
type DashboardData struct {
	Counts             repository.SummaryCounts   `json:"counts"`
	ResultStatusCounts map[model.ResultStatus]int `json:"result_status_counts"`
	OldestPending      []model.ExamResult         `json:"oldest_pending,omitempty"`
}

// DashboardService handles dashboard business logic.
type DashboardService struct {
	counts  SummaryCounter
	results repository.ResultRepository
	gate    *rbac.Gate
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(counts SummaryCounter, results repository.ResultRepository, gate *rbac.Gate) *DashboardService {
	return &DashboardService{counts: counts, results: results, gate: gate}
}

// GetDashboardData gathers headline counts and, for reviewers, the head of
// the review queue.
func (s *DashboardService) GetDashboardData(ctx context.Context, actor model.Actor) (*DashboardData, error) {
	if !s.gate.HasPermission(actor.Role, model.PermissionDashboardRead) {
		return nil, ErrForbidden
	}

	counts, err := s.counts.GetSummaryCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("summary counts: %w", err)
	}

	statusCounts, err := s.results.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("result status counts: %w", err)
	}
	if statusCounts == nil {
		statusCounts = make(map[model.ResultStatus]int, len(model.AllResultStatuses))
	}
	for _, status := range model.AllResultStatuses {
		if _, ok := statusCounts[status]; !ok {
			statusCounts[status] = 0
		}
	}

	data := &DashboardData{Counts: counts, ResultStatusCounts: statusCounts}
	if !s.gate.HasPermission(actor.Role, model.PermissionResultsReview) {
		return data, nil
	}

	submitted := model.ResultStatusSubmitted
	pending, err := s.results.List(ctx, model.ResultFilter{Status: &submitted, Limit: oldestPendingLimit})
	if err != nil {
		return nil, fmt.Errorf("pending results: %w", err)
	}
	if pending == nil {
		pending = []model.ExamResult{}
	}
	data.OldestPending = pending
	return data, nil
}
