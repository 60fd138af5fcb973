package models

import "time"

// AffiliatePartner represents a brokerage partner receiving leads
type AffiliatePartner struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	LogoURL     string    `json:"logo_url,omitempty"`
	RedirectURL string    `json:"redirect_url"`
	Commission  float64   `json:"commission"`
	IsActive    bool      `json:"is_active"`
	Priority    int       `json:"priority"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AffiliateClick records a visitor following a partner link
type AffiliateClick struct {
	ID        int64     `json:"id"`
	PartnerID int64     `json:"partner_id"`
	LeadID    int64     `json:"lead_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	UTM       UTMParams `json:"utm"`
	UserAgent string    `json:"-"`
	IPHash    string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// AffiliateStats counts clicks for one partner
type AffiliateStats struct {
	PartnerID int64  `json:"partner_id"`
	Name      string `json:"name"`
	Clicks    int    `json:"clicks"`
	Leads     int    `json:"leads"`
}
