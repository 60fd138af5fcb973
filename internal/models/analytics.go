package models

import "time"

// AnalyticsEvent represents a tracked visitor interaction
type AnalyticsEvent struct {
	ID        int64     `json:"id"`
	Name      string    `json:"event_name"`
	Data      string    `json:"event_data,omitempty"` // JSON payload
	SessionID string    `json:"session_id,omitempty"`
	UTM       UTMParams `json:"utm"`
	UserAgent string    `json:"-"`
	IPHash    string    `json:"-"` // HMAC of the client IP
	Referrer  string    `json:"referrer,omitempty"`
	PageURL   string    `json:"page_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AnalyticsStats summarises events over a period
type AnalyticsStats struct {
	Total          int            `json:"total"`
	ByName         map[string]int `json:"by_name"`
	UniqueSessions int            `json:"unique_sessions"`
}

// LeadStats represents lead pipeline statistics
type LeadStats struct {
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"by_status"`
	BySource       map[string]int `json:"by_source"`
	Last7Days      int            `json:"last_7_days"`
	Last30Days     int            `json:"last_30_days"`
	ConversionRate float64        `json:"conversion_rate"` // converted / total * 100
}
