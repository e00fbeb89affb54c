package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/repository"
)

// SettingService reads and writes the school-wide settings used on report
// cards and emails.
type SettingService struct {
	settingRepo *repository.SettingRepository
	log         zerolog.Logger
}

func NewSettingService(settingRepo *repository.SettingRepository, log zerolog.Logger) *SettingService {
	return &SettingService{
		settingRepo: settingRepo,
		log:         log.With().Str("component", "setting_service").Logger(),
	}
}

// GetAllSettings returns every known key, unset ones as empty strings.
func (s *SettingService) GetAllSettings(ctx context.Context) (map[string]string, error) {
	settingsList, err := s.settingRepo.GetAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get all settings")
		return nil, err
	}

	settingsMap := make(map[string]string, len(model.SettingLimits))
	for key := range model.SettingLimits {
		settingsMap[key] = ""
	}
	for _, setting := range settingsList {
		if _, known := model.SettingLimits[setting.Key]; known {
			settingsMap[setting.Key] = setting.Value
		}
	}
	return settingsMap, nil
}

// UpdateSettings writes all values or none.
func (s *SettingService) UpdateSettings(ctx context.Context, settingsMap map[string]string) error {
	cleaned, err := normalizeSettings(settingsMap)
	if err != nil {
		return err
	}
	if err := s.settingRepo.UpsertMany(ctx, cleaned); err != nil {
		s.log.Error().Err(err).Int("keys", len(settingsMap)).Msg("failed to update settings")
		return err
	}
	return nil
}

// GetOrDefault returns the stored value of key, or fallback when it is unset
// or cannot be read.
func (s *SettingService) GetOrDefault(ctx context.Context, key, fallback string) string {
	setting, err := s.settingRepo.GetByKey(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to read setting")
		}
		return fallback
	}
	if setting.Value == "" {
		return fallback
	}
	return setting.Value
}

// normalizeSettings trims values and rejects unknown keys or values that
// are too long.
func normalizeSettings(in map[string]string) (map[string]string, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("no settings given: %w", ErrInvalidInput)
	}

	keys := make([]string, 0, len(in))
	for key := range in {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(in))
	for _, key := range keys {
		limit, known := model.SettingLimits[key]
		if !known {
			return nil, fmt.Errorf("unknown setting %q: %w", key, ErrInvalidInput)
		}
		value := strings.TrimSpace(in[key])
		if utf8.RuneCountInString(value) > limit {
			return nil, fmt.Errorf("setting %q exceeds %d characters: %w", key, limit, ErrInvalidInput)
		}
		out[key] = value
	}
	return out, nil
}
