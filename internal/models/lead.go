package models

import (
	"fmt"
	"time"
)

// LeadStatus is the position of a lead in the brokerage pipeline
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// ParseLeadStatus validates a status string
func ParseLeadStatus(s string) (LeadStatus, error) {
	switch st := LeadStatus(s); st {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted, LeadStatusLost:
		return st, nil
	default:
		return "", fmt.Errorf("unknown lead status %q", s)
	}
}

// UTMParams holds campaign attribution captured with a visit
type UTMParams struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Term     string `json:"utm_term,omitempty"`
	Content  string `json:"utm_content,omitempty"`
}

// Lead represents a contact request attached to a simulation snapshot
type Lead struct {
	ID                   int64      `json:"id"`
	Email                string     `json:"email"`
	Phone                string     `json:"phone"`
	LoanAmount           float64    `json:"loan_amount"`
	TermYears            int        `json:"term_years"`
	NetMonthlyIncome     float64    `json:"net_monthly_income"`
	PersonalContribution float64    `json:"personal_contribution"`
	MonthlyPayment       float64    `json:"monthly_payment"`
	RateUsed             float64    `json:"rate_used"`
	GDPRConsent          bool       `json:"gdpr_consent"`
	UTM                  UTMParams  `json:"utm"`
	UserAgent            string     `json:"-"`
	IPAddress            string     `json:"-"`
	Status               LeadStatus `json:"status"`
	Notes                string     `json:"notes,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// LeadFilter selects a page of leads
type LeadFilter struct {
	Page   int
	Limit  int
	Status LeadStatus
	Search string
}

// Offset returns the row offset of the requested page
func (f LeadFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// LeadPage is one page of leads with the total match count
type LeadPage struct {
	Leads []Lead `json:"leads"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}
