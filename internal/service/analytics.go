package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/mortgage-simulator/internal/models"
	"github.com/Dan9191/mortgage-simulator/internal/utils"
)

const defaultStatsWindow = 30 * 24 * time.Hour

// TrackEvent stores a visitor event with a pseudonymised IP
func (s *Service) TrackEvent(ctx context.Context, ev models.AnalyticsEvent, meta RequestMeta) error {
	ev.Name = strings.TrimSpace(ev.Name)
	if ev.Name == "" || len(ev.Name) > 100 {
		return invalid(errors.New("event_name must be 1 to 100 characters"))
	}
	if ev.SessionID == "" {
		ev.SessionID = meta.SessionID
	}
	if ev.Referrer == "" {
		ev.Referrer = meta.Referrer
	}
	if ev.PageURL == "" {
		ev.PageURL = meta.PageURL
	}
	ev.UTM = utils.MergeUTM(ev.UTM, meta.UTM)
	ev.UserAgent = meta.UserAgent
	ev.IPHash = utils.HashIP(meta.IP, s.config.HMACSecret)

	if err := s.store.CreateAnalyticsEvent(ctx, &ev); err != nil {
		return fmt.Errorf("failed to store event: %w", err)
	}
	return nil
}

// AnalyticsStats summarises events in [from, to). Zero bounds default to
// the last 30 days.
func (s *Service) AnalyticsStats(ctx context.Context, from, to time.Time) (*models.AnalyticsStats, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.Add(-defaultStatsWindow)
	}
	if !from.Before(to) {
		return nil, invalid(errors.New("from must be before to"))
	}
	stats, err := s.store.AnalyticsStats(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to compute analytics stats: %w", err)
	}
	return stats, nil
}

// ListPartners returns active affiliate partners by priority
func (s *Service) ListPartners(ctx context.Context) ([]models.AffiliatePartner, error) {
	partners, err := s.store.ListActivePartners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list partners: %w", err)
	}
	return partners, nil
}

// TrackAffiliateClick records a click and returns the partner to redirect to
func (s *Service) TrackAffiliateClick(ctx context.Context, click models.AffiliateClick, meta RequestMeta) (*models.AffiliatePartner, error) {
	partners, err := s.ListPartners(ctx)
	if err != nil {
		return nil, err
	}
	var partner *models.AffiliatePartner
	for i := range partners {
		if partners[i].ID == click.PartnerID {
			partner = &partners[i]
			break
		}
	}
	if partner == nil {
		return nil, ErrPartnerNotFound
	}

	if click.SessionID == "" {
		click.SessionID = meta.SessionID
	}
	click.UTM = utils.MergeUTM(click.UTM, meta.UTM)
	click.UserAgent = meta.UserAgent
	click.IPHash = utils.HashIP(meta.IP, s.config.HMACSecret)
	if err := s.store.CreateAffiliateClick(ctx, &click); err != nil {
		return nil, fmt.Errorf("failed to store click: %w", err)
	}
	s.log.Infof("Affiliate click for partner %s", partner.Slug)
	return partner, nil
}

// AffiliateStats returns click counts per partner
func (s *Service) AffiliateStats(ctx context.Context) ([]models.AffiliateStats, error) {
	stats, err := s.store.AffiliateStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute affiliate stats: %w", err)
	}
	return stats, nil
}

// SendContact validates a contact form and forwards it by email
func (s *Service) SendContact(ctx context.Context, msg models.ContactMessage, meta RequestMeta) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Message = strings.TrimSpace(msg.Message)

	var errs []error
	if msg.Name == "" || len(msg.Name) > 100 {
		errs = append(errs, errors.New("name must be 1 to 100 characters"))
	}
	if !validEmail(msg.Email) {
		errs = append(errs, errors.New("email is invalid"))
	}
	if msg.Message == "" || len(msg.Message) > 5000 {
		errs = append(errs, errors.New("message must be 1 to 5000 characters"))
	}
	if err := invalid(errs...); err != nil {
		return err
	}

	if err := s.mailer.SendContactMessage(msg); err != nil {
		return fmt.Errorf("failed to send contact message: %w", err)
	}
	s.recordEvent(ctx, "contact_submitted", map[string]any{"subject": msg.Subject}, meta)
	return nil
}
