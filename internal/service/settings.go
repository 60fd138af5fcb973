package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dan9191/mortgage-simulator/internal/models"
	"github.com/Dan9191/mortgage-simulator/internal/mortgage"
	"github.com/Dan9191/mortgage-simulator/internal/repository"
)

func rateSettingKey(termYears int) string {
	return fmt.Sprintf("rate_%dy", termYears)
}

func isRateSetting(key string) bool {
	for _, term := range mortgage.DefaultRates().Terms() {
		if key == rateSettingKey(term) {
			return true
		}
	}
	return false
}

// Rates returns the effective rate table. If settings cannot be read the
// default table is served.
func (s *Service) Rates(ctx context.Context) mortgage.RateTable {
	s.mu.RLock()
	table := s.rates
	s.mu.RUnlock()
	if table != nil {
		return table.Clone()
	}

	if err := s.RefreshRates(ctx); err != nil {
		s.log.Errorf("Failed to load rate settings, using defaults: %v", err)
		return mortgage.DefaultRates()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rates.Clone()
}

// RefreshRates rebuilds the rate table from the defaults and the admin overrides
func (s *Service) RefreshRates(ctx context.Context) error {
	settings, err := s.store.ListSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to list settings: %w", err)
	}
	byKey := make(map[string]string, len(settings))
	for _, st := range settings {
		byKey[st.Key] = st.Value
	}

	table := mortgage.DefaultRates()
	for _, term := range table.Terms() {
		raw, ok := byKey[rateSettingKey(term)]
		if !ok {
			continue
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || rate <= 0 {
			s.log.Warnf("Ignoring unparseable rate setting %s=%q", rateSettingKey(term), raw)
			continue
		}
		table[term] = rate
	}

	s.mu.Lock()
	s.rates = table
	s.mu.Unlock()
	s.log.Debugf("Rate table refreshed: %v", table)
	return nil
}

// GetSetting returns one setting by key
func (s *Service) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	st, err := s.store.GetSetting(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSettingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return st, nil
}

// ListSettings returns all settings ordered by key
func (s *Service) ListSettings(ctx context.Context) ([]models.Setting, error) {
	settings, err := s.store.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return settings, nil
}

// UpdateSetting creates or replaces a setting. Rate settings must hold a
// positive percentage and take effect immediately.
func (s *Service) UpdateSetting(ctx context.Context, key, value, description string) (*models.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" || len(key) > 100 {
		return nil, invalid(errors.New("key must be 1 to 100 characters"))
	}
	if isRateSetting(key) {
		rate, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || rate <= 0 || rate >= 100 {
			return nil, invalid(fmt.Errorf("%s must be a percentage between 0 and 100", key))
		}
	}

	st := &models.Setting{Key: key, Value: value, Description: description}
	if err := s.store.UpsertSetting(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to update setting: %w", err)
	}
	s.log.Infof("Setting updated: %s", key)

	if isRateSetting(key) {
		if err := s.RefreshRates(ctx); err != nil {
			s.log.Errorf("Failed to refresh rates after update: %v", err)
		}
	}
	return st, nil
}
