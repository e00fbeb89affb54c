package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/repository"
)

type SubjectService struct {
	subjectRepo *repository.SubjectRepository
	log         zerolog.Logger
}

func NewSubjectService(subjectRepo *repository.SubjectRepository, log zerolog.Logger) *SubjectService {
	return &SubjectService{
		subjectRepo: subjectRepo,
		log:         log.With().Str("component", "subject_service").Logger(),
	}
}

func (s *SubjectService) GetAll(ctx context.Context) ([]model.Subject, error) {
	subjects, err := s.subjectRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if subjects == nil {
		subjects = []model.Subject{}
	}
	return subjects, nil
}

func (s *SubjectService) GetByID(ctx context.Context, id int) (*model.Subject, error) {
	return s.subjectRepo.GetByID(ctx, id)
}

func (s *SubjectService) Create(ctx context.Context, sub *model.Subject) error {
	return s.subjectRepo.Create(ctx, sub)
}

func (s *SubjectService) Update(ctx context.Context, sub *model.Subject) error {
	return s.subjectRepo.Update(ctx, sub)
}

func (s *SubjectService) Delete(ctx context.Context, id int) error {
	if err := s.subjectRepo.Delete(ctx, id); err != nil {
		s.log.Warn().Err(err).Int("subject_id", id).Msg("failed to delete subject")
		return err
	}
	return nil
}
