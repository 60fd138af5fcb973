package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Dan9191/mortgage-simulator/internal/models"
	"github.com/Dan9191/mortgage-simulator/internal/mortgage"
	"github.com/sirupsen/logrus"
)

const referenceRateKey = "ecb:reference_rate"

// SimulationRequest is a borrower profile submitted by a visitor
type SimulationRequest struct {
	Profile mortgage.BorrowerProfile
	Meta    RequestMeta
}

func simulationKey(p mortgage.BorrowerProfile) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return "sim:" + hex.EncodeToString(sum[:]), nil
}

// Simulate runs a mortgage simulation, filling in the rate from the
// current rate table when the profile does not carry one.
func (s *Service) Simulate(ctx context.Context, req SimulationRequest) (mortgage.SimulationResult, error) {
	p := req.Profile
	if err := p.Validate(); err != nil {
		return mortgage.SimulationResult{}, &ValidationError{Err: err}
	}
	if p.AnnualInterestRate == 0 {
		p.AnnualInterestRate = s.Rates(ctx).Lookup(p.TermYears)
	}

	result, cached := s.cachedSimulation(ctx, p)
	if !cached {
		result = mortgage.Simulate(p)
		s.storeSimulation(ctx, p, result)
	}

	s.recordEvent(ctx, "simulator_used", map[string]any{
		"term_years":  p.TermYears,
		"rate":        p.AnnualInterestRate,
		"eligible":    result.IsEligible,
		"max_capital": result.MaxLoanPrincipal,
	}, req.Meta)

	s.log.WithFields(logrus.Fields{
		"term_years": p.TermYears,
		"rate":       p.AnnualInterestRate,
		"eligible":   result.IsEligible,
		"cached":     cached,
	}).Debug("Simulation computed")
	return result, nil
}

func (s *Service) cachedSimulation(ctx context.Context, p mortgage.BorrowerProfile) (mortgage.SimulationResult, bool) {
	var result mortgage.SimulationResult
	key, err := simulationKey(p)
	if err != nil {
		return result, false
	}
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		return result, false
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		s.log.Warnf("Discarding unreadable cached simulation %s: %v", key, err)
		return mortgage.SimulationResult{}, false
	}
	return result, true
}

func (s *Service) storeSimulation(ctx context.Context, p mortgage.BorrowerProfile, result mortgage.SimulationResult) {
	key, err := simulationKey(p)
	if err != nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		s.log.Warnf("Failed to encode simulation: %v", err)
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.config.CacheTTL); err != nil {
		s.log.Warnf("Failed to cache simulation: %v", err)
	}
}

// ReferenceRate returns the ECB main refinancing rate, served from cache
// when a recent value is available.
func (s *Service) ReferenceRate(ctx context.Context) (float64, error) {
	if raw, ok := s.cache.Get(ctx, referenceRateKey); ok {
		if rate, err := strconv.ParseFloat(raw, 64); err == nil {
			return rate, nil
		}
	}
	return s.refreshReferenceRate(ctx)
}

func (s *Service) refreshReferenceRate(ctx context.Context) (float64, error) {
	rate, err := s.ecb.GetReferenceRate(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get reference rate: %w", err)
	}
	if err := s.cache.Set(ctx, referenceRateKey, strconv.FormatFloat(rate, 'f', -1, 64), s.config.CacheTTL); err != nil {
		s.log.Warnf("Failed to cache reference rate: %v", err)
	}
	return rate, nil
}

// recordEvent stores an internal analytics event. Failures are only logged.
func (s *Service) recordEvent(ctx context.Context, name string, data map[string]any, meta RequestMeta) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.log.Warnf("Failed to encode %s event: %v", name, err)
		return
	}
	ev := models.AnalyticsEvent{Name: name, Data: string(raw)}
	if err := s.TrackEvent(ctx, ev, meta); err != nil {
		s.log.Warnf("Failed to record %s event: %v", name, err)
	}
}
