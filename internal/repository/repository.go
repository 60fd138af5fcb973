package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/mortgage-simulator/internal/models"
)

// ErrNotFound is returned when a looked-up row does not exist
var ErrNotFound = errors.New("not found")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const leadColumns = `id, email, phone, loan_amount, term_years, net_monthly_income, personal_contribution,
		COALESCE(monthly_payment, 0), COALESCE(rate_used, 0), gdpr_consent,
		COALESCE(utm_source, ''), COALESCE(utm_medium, ''), COALESCE(utm_campaign, ''),
		COALESCE(utm_term, ''), COALESCE(utm_content, ''), COALESCE(user_agent, ''), COALESCE(ip_address, ''),
		status, COALESCE(notes, ''), created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*models.Lead, error) {
	lead := &models.Lead{}
	err := row.Scan(&lead.ID, &lead.Email, &lead.Phone, &lead.LoanAmount, &lead.TermYears,
		&lead.NetMonthlyIncome, &lead.PersonalContribution, &lead.MonthlyPayment, &lead.RateUsed,
		&lead.GDPRConsent, &lead.UTM.Source, &lead.UTM.Medium, &lead.UTM.Campaign, &lead.UTM.Term,
		&lead.UTM.Content, &lead.UserAgent, &lead.IPAddress, &lead.Status, &lead.Notes,
		&lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// CreateLead creates a new lead in the database
func (r *Repository) CreateLead(ctx context.Context, lead *models.Lead) error {
	query := `
		INSERT INTO mortgage.leads (email, phone, loan_amount, term_years, net_monthly_income,
			personal_contribution, monthly_payment, rate_used, gdpr_consent, utm_source, utm_medium,
			utm_campaign, utm_term, utm_content, user_agent, ip_address, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, lead.Email, lead.Phone, lead.LoanAmount, lead.TermYears,
		lead.NetMonthlyIncome, lead.PersonalContribution, lead.MonthlyPayment, lead.RateUsed,
		lead.GDPRConsent, lead.UTM.Source, lead.UTM.Medium, lead.UTM.Campaign, lead.UTM.Term,
		lead.UTM.Content, lead.UserAgent, lead.IPAddress, lead.Status).
		Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

// FindLeadByID retrieves a lead by id
func (r *Repository) FindLeadByID(ctx context.Context, id int64) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM mortgage.leads WHERE id = $1`
	lead, err := scanLead(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lead %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find lead: %w", err)
	}
	return lead, nil
}

func leadWhere(filter models.LeadFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("(email ILIKE $%d OR phone ILIKE $%d)", len(args), len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListLeads returns one page of leads, newest first, and the total match count
func (r *Repository) ListLeads(ctx context.Context, filter models.LeadFilter) ([]models.Lead, int, error) {
	where, args := leadWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mortgage.leads`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	query := `SELECT ` + leadColumns + ` FROM mortgage.leads` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := []models.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, total, nil
}

// UpdateLeadStatus changes the status of a lead and optionally its notes
func (r *Repository) UpdateLeadStatus(ctx context.Context, id int64, status models.LeadStatus, notes *string) error {
	query := `
		UPDATE mortgage.leads
		SET status = $1, notes = COALESCE($2, notes), updated_at = CURRENT_TIMESTAMP
		WHERE id = $3`
	var n sql.NullString
	if notes != nil {
		n = sql.NullString{String: *notes, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, query, status, n, id)
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("lead %d: %w", id, ErrNotFound)
	}
	return nil
}

// LeadStats aggregates the lead pipeline as of now
func (r *Repository) LeadStats(ctx context.Context, now time.Time) (*models.LeadStats, error) {
	stats := &models.LeadStats{ByStatus: map[string]int{}, BySource: map[string]int{}}

	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE created_at >= $1),
			COUNT(*) FILTER (WHERE created_at >= $2),
			COUNT(*) FILTER (WHERE status = 'converted')
		FROM mortgage.leads`
	var converted int
	err := r.db.QueryRowContext(ctx, query, now.AddDate(0, 0, -7), now.AddDate(0, 0, -30)).
		Scan(&stats.Total, &stats.Last7Days, &stats.Last30Days, &converted)
	if err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}
	if stats.Total > 0 {
		stats.ConversionRate = float64(converted) / float64(stats.Total) * 100
	}

	if err := r.countInto(ctx, `SELECT status, COUNT(*) FROM mortgage.leads GROUP BY status`, stats.ByStatus); err != nil {
		return nil, err
	}
	if err := r.countInto(ctx, `
		SELECT utm_source, COUNT(*) FROM mortgage.leads
		WHERE utm_source IS NOT NULL AND utm_source <> ''
		GROUP BY utm_source`, stats.BySource); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *Repository) countInto(ctx context.Context, query string, into map[string]int, args ...any) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to group: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan group: %w", err)
		}
		into[key] = count
	}
	return rows.Err()
}

// GetSetting retrieves a setting by key
func (r *Repository) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	s := &models.Setting{}
	query := `SELECT key, value, COALESCE(description, ''), updated_at FROM mortgage.settings WHERE key = $1`
	err := r.db.QueryRowContext(ctx, query, key).Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("setting %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	return s, nil
}

// ListSettings returns every setting ordered by key
func (r *Repository) ListSettings(ctx context.Context) ([]models.Setting, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value, COALESCE(description, ''), updated_at FROM mortgage.settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	settings := []models.Setting{}
	for rows.Next() {
		var s models.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.Description, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// UpsertSetting creates or replaces a setting
func (r *Repository) UpsertSetting(ctx context.Context, s *models.Setting) error {
	query := `
		INSERT INTO mortgage.settings (key, value, description, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
			description = COALESCE(NULLIF(EXCLUDED.description, ''), mortgage.settings.description),
			updated_at = CURRENT_TIMESTAMP
		RETURNING updated_at`
	if err := r.db.QueryRowContext(ctx, query, s.Key, s.Value, s.Description).Scan(&s.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert setting: %w", err)
	}
	return nil
}

// CreateAnalyticsEvent stores a tracked event
func (r *Repository) CreateAnalyticsEvent(ctx context.Context, e *models.AnalyticsEvent) error {
	query := `
		INSERT INTO mortgage.analytics_events (event_name, event_data, session_id, utm_source, utm_medium,
			utm_campaign, user_agent, ip_hash, referrer, page_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, e.Name, e.Data, e.SessionID, e.UTM.Source, e.UTM.Medium,
		e.UTM.Campaign, e.UserAgent, e.IPHash, e.Referrer, e.PageURL).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create analytics event: %w", err)
	}
	return nil
}

// AnalyticsStats summarises events created in [from, to)
func (r *Repository) AnalyticsStats(ctx context.Context, from, to time.Time) (*models.AnalyticsStats, error) {
	stats := &models.AnalyticsStats{ByName: map[string]int{}}
	query := `
		SELECT COUNT(*), COUNT(DISTINCT NULLIF(session_id, ''))
		FROM mortgage.analytics_events
		WHERE created_at >= $1 AND created_at < $2`
	if err := r.db.QueryRowContext(ctx, query, from, to).Scan(&stats.Total, &stats.UniqueSessions); err != nil {
		return nil, fmt.Errorf("failed to count analytics events: %w", err)
	}
	err := r.countInto(ctx, `
		SELECT event_name, COUNT(*) FROM mortgage.analytics_events
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY event_name`, stats.ByName, from, to)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ListActivePartners returns active affiliate partners, highest priority first
func (r *Repository) ListActivePartners(ctx context.Context) ([]models.AffiliatePartner, error) {
	query := `
		SELECT id, name, slug, COALESCE(logo_url, ''), redirect_url, COALESCE(commission, 0),
			is_active, priority, COALESCE(description, ''), created_at
		FROM mortgage.affiliate_partners
		WHERE is_active
		ORDER BY priority DESC, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list partners: %w", err)
	}
	defer rows.Close()

	partners := []models.AffiliatePartner{}
	for rows.Next() {
		var p models.AffiliatePartner
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.LogoURL, &p.RedirectURL, &p.Commission,
			&p.IsActive, &p.Priority, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan partner: %w", err)
		}
		partners = append(partners, p)
	}
	return partners, rows.Err()
}

// CreateAffiliateClick records a click to a partner site
func (r *Repository) CreateAffiliateClick(ctx context.Context, c *models.AffiliateClick) error {
	query := `
		INSERT INTO mortgage.affiliate_clicks (partner_id, lead_id, session_id, utm_source, utm_medium,
			utm_campaign, user_agent, ip_hash, created_at)
		VALUES ($1, NULLIF($2, 0), $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, c.PartnerID, c.LeadID, c.SessionID, c.UTM.Source,
		c.UTM.Medium, c.UTM.Campaign, c.UserAgent, c.IPHash).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create affiliate click: %w", err)
	}
	return nil
}

// AffiliateStats counts clicks and attributed leads per partner
func (r *Repository) AffiliateStats(ctx context.Context) ([]models.AffiliateStats, error) {
	query := `
		SELECT p.id, p.name, COUNT(c.id), COUNT(DISTINCT c.lead_id)
		FROM mortgage.affiliate_partners p
		LEFT JOIN mortgage.affiliate_clicks c ON c.partner_id = p.id
		GROUP BY p.id, p.name
		ORDER BY COUNT(c.id) DESC, p.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get affiliate stats: %w", err)
	}
	defer rows.Close()

	stats := []models.AffiliateStats{}
	for rows.Next() {
		var s models.AffiliateStats
		if err := rows.Scan(&s.PartnerID, &s.Name, &s.Clicks, &s.Leads); err != nil {
			return nil, fmt.Errorf("failed to scan affiliate stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
