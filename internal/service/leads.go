package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/Dan9191/mortgage-simulator/internal/models"
	"github.com/Dan9191/mortgage-simulator/internal/mortgage"
	"github.com/Dan9191/mortgage-simulator/internal/repository"
	"github.com/Dan9191/mortgage-simulator/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// LeadInput is the contact form attached to a simulation
type LeadInput struct {
	Email                string           `json:"email"`
	Phone                string           `json:"phone"`
	LoanAmount           float64          `json:"loan_amount"`
	TermYears            int              `json:"term_years"`
	NetMonthlyIncome     float64          `json:"net_monthly_income"`
	PersonalContribution float64          `json:"personal_contribution"`
	MonthlyPayment       float64          `json:"monthly_payment"`
	RateUsed             float64          `json:"rate_used"`
	GDPRConsent          bool             `json:"gdpr_consent"`
	UTM                  models.UTMParams `json:"utm"`
}

func validEmail(addr string) bool {
	parsed, err := mail.ParseAddress(addr)
	return err == nil && parsed.Address == addr
}

func (in LeadInput) validate() error {
	var errs []error
	if !validEmail(in.Email) {
		errs = append(errs, errors.New("email is invalid"))
	}
	if n := len(in.Phone); n < 10 || n > 20 {
		errs = append(errs, errors.New("phone must be 10 to 20 characters"))
	}
	if in.LoanAmount <= 0 {
		errs = append(errs, errors.New("loan_amount must be positive"))
	}
	if in.TermYears < mortgage.MinTermYears || in.TermYears > mortgage.MaxTermYears {
		errs = append(errs, fmt.Errorf("term_years must be between %d and %d", mortgage.MinTermYears, mortgage.MaxTermYears))
	}
	if in.NetMonthlyIncome <= 0 {
		errs = append(errs, errors.New("net_monthly_income must be positive"))
	}
	if in.PersonalContribution < 0 {
		errs = append(errs, errors.New("personal_contribution must not be negative"))
	}
	return invalid(errs...)
}

// CreateLead stores a new lead and notifies the brokerage desk
func (s *Service) CreateLead(ctx context.Context, in LeadInput, meta RequestMeta) (*models.Lead, error) {
	if !in.GDPRConsent {
		return nil, ErrConsentRequired
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if err := in.validate(); err != nil {
		return nil, err
	}

	lead := &models.Lead{
		Email:                in.Email,
		Phone:                in.Phone,
		LoanAmount:           in.LoanAmount,
		TermYears:            in.TermYears,
		NetMonthlyIncome:     in.NetMonthlyIncome,
		PersonalContribution: in.PersonalContribution,
		MonthlyPayment:       in.MonthlyPayment,
		RateUsed:             in.RateUsed,
		GDPRConsent:          true,
		UTM:                  utils.MergeUTM(in.UTM, meta.UTM),
		UserAgent:            meta.UserAgent,
		IPAddress:            utils.HashIP(meta.IP, s.config.HMACSecret),
		Status:               models.LeadStatusNew,
	}
	if err := s.store.CreateLead(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"lead_id":    lead.ID,
		"utm_source": lead.UTM.Source,
	}).Info("Lead created")

	s.recordEvent(ctx, "lead_submitted", map[string]any{
		"lead_id":     lead.ID,
		"loan_amount": lead.LoanAmount,
		"term_years":  lead.TermYears,
	}, meta)

	if err := s.mailer.SendLeadNotification(lead); err != nil {
		s.log.Errorf("Lead %d notification failed: %v", lead.ID, err)
	}
	return lead, nil
}

// ListLeads returns a page of leads, newest first
func (s *Service) ListLeads(ctx context.Context, filter models.LeadFilter) (*models.LeadPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultPageLimit
	case filter.Limit > maxPageLimit:
		filter.Limit = maxPageLimit
	}
	if filter.Status != "" {
		if _, err := models.ParseLeadStatus(string(filter.Status)); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, filter.Status)
		}
	}
	filter.Search = strings.TrimSpace(filter.Search)

	leads, total, err := s.store.ListLeads(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	return &models.LeadPage{Leads: leads, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// GetLead returns one lead
func (s *Service) GetLead(ctx context.Context, id int64) (*models.Lead, error) {
	lead, err := s.store.FindLeadByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

// UpdateLeadStatus moves a lead through the pipeline
func (s *Service) UpdateLeadStatus(ctx context.Context, id int64, status string, notes *string) (*models.Lead, error) {
	st, err := models.ParseLeadStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	err = s.store.UpdateLeadStatus(ctx, id, st, notes)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	s.log.Infof("Lead %d moved to %s", id, st)
	return s.GetLead(ctx, id)
}

// LeadStats returns pipeline statistics
func (s *Service) LeadStats(ctx context.Context) (*models.LeadStats, error) {
	stats, err := s.store.LeadStats(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to compute lead stats: %w", err)
	}
	return stats, nil
}

var exportHeader = []string{
	"ID", "Email", "Phone", "Amount", "TermYears", "Income", "Contribution",
	"MonthlyPayment", "Rate", "Status", "UTMSource", "CreatedAt",
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ExportLeadsCSV writes every lead matching status as CSV
func (s *Service) ExportLeadsCSV(ctx context.Context, status string, w io.Writer) error {
	filter := models.LeadFilter{Page: 1, Limit: maxPageLimit}
	if status != "" {
		st, err := models.ParseLeadStatus(status)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
		}
		filter.Status = st
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	for {
		leads, total, err := s.store.ListLeads(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list leads: %w", err)
		}
		for _, l := range leads {
			record := []string{
				strconv.FormatInt(l.ID, 10),
				l.Email,
				l.Phone,
				formatAmount(l.LoanAmount),
				strconv.Itoa(l.TermYears),
				formatAmount(l.NetMonthlyIncome),
				formatAmount(l.PersonalContribution),
				formatAmount(l.MonthlyPayment),
				strconv.FormatFloat(l.RateUsed, 'f', -1, 64),
				string(l.Status),
				l.UTM.Source,
				l.CreatedAt.UTC().Format(time.RFC3339),
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write csv: %w", err)
			}
		}
		if len(leads) == 0 || filter.Offset()+len(leads) >= total {
			break
		}
		filter.Page++
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
