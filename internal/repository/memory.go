package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dan9191/mortgage-simulator/internal/models"
)

// MemoryRepository is an in-memory implementation of the repository, used
// when no database is configured and in tests.
type MemoryRepository struct {
	mu       sync.Mutex
	now      func() time.Time
	leads    []models.Lead
	settings map[string]models.Setting
	events   []models.AnalyticsEvent
	partners []models.AffiliatePartner
	clicks   []models.AffiliateClick
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		now:      time.Now,
		settings: map[string]models.Setting{},
	}
}

// SetClock replaces the time source.
func (m *MemoryRepository) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// AddPartner registers an affiliate partner.
func (m *MemoryRepository) AddPartner(p models.AffiliatePartner) models.AffiliatePartner {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = int64(len(m.partners) + 1)
	p.CreatedAt = m.now()
	m.partners = append(m.partners, p)
	return p
}

func (m *MemoryRepository) CreateLead(_ context.Context, lead *models.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead.ID = int64(len(m.leads) + 1)
	lead.CreatedAt = m.now()
	lead.UpdatedAt = lead.CreatedAt
	m.leads = append(m.leads, *lead)
	return nil
}

func (m *MemoryRepository) FindLeadByID(_ context.Context, id int64) (*models.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.leads {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, fmt.Errorf("lead %d: %w", id, ErrNotFound)
}

func (m *MemoryRepository) ListLeads(_ context.Context, filter models.LeadFilter) ([]models.Lead, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []models.Lead
	for _, l := range m.leads {
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.Search != "" {
			q := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(l.Email), q) && !strings.Contains(l.Phone, q) {
				continue
			}
		}
		matched = append(matched, l)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(filter.Offset(), total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	page := make([]models.Lead, end-start)
	copy(page, matched[start:end])
	return page, total, nil
}

func (m *MemoryRepository) UpdateLeadStatus(_ context.Context, id int64, status models.LeadStatus, notes *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.leads {
		if m.leads[i].ID == id {
			m.leads[i].Status = status
			if notes != nil {
				m.leads[i].Notes = *notes
			}
			m.leads[i].UpdatedAt = m.now()
			return nil
		}
	}
	return fmt.Errorf("lead %d: %w", id, ErrNotFound)
}

func (m *MemoryRepository) LeadStats(_ context.Context, now time.Time) (*models.LeadStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &models.LeadStats{ByStatus: map[string]int{}, BySource: map[string]int{}}
	converted := 0
	for _, l := range m.leads {
		stats.Total++
		stats.ByStatus[string(l.Status)]++
		if l.UTM.Source != "" {
			stats.BySource[l.UTM.Source]++
		}
		if !l.CreatedAt.Before(now.AddDate(0, 0, -7)) {
			stats.Last7Days++
		}
		if !l.CreatedAt.Before(now.AddDate(0, 0, -30)) {
			stats.Last30Days++
		}
		if l.Status == models.LeadStatusConverted {
			converted++
		}
	}
	if stats.Total > 0 {
		stats.ConversionRate = float64(converted) / float64(stats.Total) * 100
	}
	return stats, nil
}

func (m *MemoryRepository) GetSetting(_ context.Context, key string) (*models.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[key]
	if !ok {
		return nil, fmt.Errorf("setting %q: %w", key, ErrNotFound)
	}
	return &s, nil
}

func (m *MemoryRepository) ListSettings(_ context.Context) ([]models.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	settings := make([]models.Setting, 0, len(m.settings))
	for _, s := range m.settings {
		settings = append(settings, s)
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })
	return settings, nil
}

func (m *MemoryRepository) UpsertSetting(_ context.Context, s *models.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Description == "" {
		s.Description = m.settings[s.Key].Description
	}
	s.UpdatedAt = m.now()
	m.settings[s.Key] = *s
	return nil
}

func (m *MemoryRepository) CreateAnalyticsEvent(_ context.Context, e *models.AnalyticsEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = int64(len(m.events) + 1)
	e.CreatedAt = m.now()
	m.events = append(m.events, *e)
	return nil
}

func (m *MemoryRepository) AnalyticsStats(_ context.Context, from, to time.Time) (*models.AnalyticsStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.AnalyticsStats{ByName: map[string]int{}}
	sessions := map[string]struct{}{}
	for _, e := range m.events {
		if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		stats.Total++
		stats.ByName[e.Name]++
		if e.SessionID != "" {
			sessions[e.SessionID] = struct{}{}
		}
	}
	stats.UniqueSessions = len(sessions)
	return stats, nil
}

func (m *MemoryRepository) ListActivePartners(_ context.Context) ([]models.AffiliatePartner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	partners := []models.AffiliatePartner{}
	for _, p := range m.partners {
		if p.IsActive {
			partners = append(partners, p)
		}
	}
	sort.SliceStable(partners, func(i, j int) bool { return partners[i].Priority > partners[j].Priority })
	return partners, nil
}

func (m *MemoryRepository) CreateAffiliateClick(_ context.Context, c *models.AffiliateClick) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = int64(len(m.clicks) + 1)
	c.CreatedAt = m.now()
	m.clicks = append(m.clicks, *c)
	return nil
}

func (m *MemoryRepository) AffiliateStats(_ context.Context) ([]models.AffiliateStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := make([]models.AffiliateStats, 0, len(m.partners))
	for _, p := range m.partners {
		s := models.AffiliateStats{PartnerID: p.ID, Name: p.Name}
		leads := map[int64]struct{}{}
		for _, c := range m.clicks {
			if c.PartnerID != p.ID {
				continue
			}
			s.Clicks++
			if c.LeadID != 0 {
				leads[c.LeadID] = struct{}{}
			}
		}
		s.Leads = len(leads)
		stats = append(stats, s)
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Clicks > stats[j].Clicks })
	return stats, nil
}
