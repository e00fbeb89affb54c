package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"github.com/stemsi/schoolhub-backend/internal/response"
)

// examCacheTTL bounds how long an exam stays in Redis after a read.
const examCacheTTL = 10 * time.Minute

// ExamService handles exam business logic and Redis caching.
type ExamService struct {
	examRepo *repository.ExamRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewExamService creates a new ExamService. rdb may be nil to disable caching.
func NewExamService(examRepo *repository.ExamRepository, rdb *redis.Client, log zerolog.Logger) *ExamService {
	return &ExamService{
		examRepo: examRepo,
		rdb:      rdb,
		log:      log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves an exam, reading through the Redis cache.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	if exam, ok := s.cached(ctx, id); ok {
		return exam, nil
	}

	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache(ctx, exam)
	return exam, nil
}

// List retrieves exams newest first.
func (s *ExamService) List(ctx context.Context, page, perPage int) ([]model.Exam, *response.Pagination, error) {
	page, perPage = normalizePage(page, perPage)

	exams, total, err := s.examRepo.ListPaginated(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	return exams, newPagination(page, perPage, total), nil
}

// Create inserts a new exam and warms its cache entry.
func (s *ExamService) Create(ctx context.Context, exam *model.Exam) error {
	if err := s.examRepo.Create(ctx, exam); err != nil {
		return err
	}
	s.cache(ctx, exam)
	s.log.Info().Str("exam_id", exam.ID.String()).Int("created_by", exam.CreatedBy).Msg("exam created")
	return nil
}

func (s *ExamService) cached(ctx context.Context, id uuid.UUID) (*model.Exam, bool) {
	if s.rdb == nil {
		return nil, false
	}
	data, err := s.rdb.Get(ctx, config.CacheKey.ExamKey(id.String())).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("exam cache read failed")
		}
		return nil, false
	}

	var exam model.Exam
	if err := json.Unmarshal(data, &exam); err != nil {
		return nil, false
	}
	return &exam, true
}

func (s *ExamService) cache(ctx context.Context, exam *model.Exam) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(exam)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, config.CacheKey.ExamKey(exam.ID.String()), data, examCacheTTL).Err(); err != nil {
		s.log.Warn().Err(fmt.Errorf("cache exam: %w", err)).Str("exam_id", exam.ID.String()).Msg("exam cache write failed")
	}
}
