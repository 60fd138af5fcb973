package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dan9191/mortgage-simulator/internal/cache"
	"github.com/Dan9191/mortgage-simulator/internal/config"
	"github.com/Dan9191/mortgage-simulator/internal/models"
	"github.com/Dan9191/mortgage-simulator/internal/mortgage"
	"github.com/Dan9191/mortgage-simulator/internal/repository"
)

type fakeMailer struct {
	mu       sync.Mutex
	leads    []*models.Lead
	contacts []models.ContactMessage
	err      error
}

func (f *fakeMailer) SendLeadNotification(lead *models.Lead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads = append(f.leads, lead)
	return f.err
}

func (f *fakeMailer) SendContactMessage(msg models.ContactMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts = append(f.contacts, msg)
	return f.err
}

type fakeRates struct {
	calls int
	rate  float64
	err   error
}

func (f *fakeRates) GetReferenceRate(context.Context) (float64, error) {
	f.calls++
	return f.rate, f.err
}

type fixture struct {
	svc    *Service
	repo   *repository.MemoryRepository
	cache  *cache.MemoryCache
	mailer *fakeMailer
	ecb    *fakeRates
	cfg    *config.Config
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	cfg := &config.Config{
		JWTSecret:  "test-secret",
		AdminEmail: "admin@example.com",
		HMACSecret: "hmac-secret",
		CacheTTL:   time.Minute,
	}
	f := &fixture{
		repo:   repository.NewMemoryRepository(),
		cache:  cache.NewMemoryCache(),
		mailer: &fakeMailer{},
		ecb:    &fakeRates{rate: 2.15},
		cfg:    cfg,
	}
	f.repo.SetClock(func() time.Time { return fixedNow })
	f.svc = NewService(f.repo, f.cache, f.mailer, f.ecb, logger, cfg)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func validLead() LeadInput {
	return LeadInput{
		Email:            " Jane@Example.com ",
		Phone:            "0601020304",
		LoanAmount:       200_000,
		TermYears:        20,
		NetMonthlyIncome: 3500,
		MonthlyPayment:   1160,
		RateUsed:         3.5,
		GDPRConsent:      true,
	}
}

func TestSimulate_ResolvesRateFromTable(t *testing.T) {
	f := newFixture(t)
	profile := mortgage.BorrowerProfile{NetMonthlyIncome: 3500, PersonalContribution: 20_000, TermYears: 20}

	got, err := f.svc.Simulate(context.Background(), SimulationRequest{Profile: profile})
	require.NoError(t, err)

	profile.AnnualInterestRate = 3.5
	assert.Equal(t, mortgage.Simulate(profile), got)

	stats, err := f.repo.AnalyticsStats(context.Background(), fixedNow.Add(-time.Hour), fixedNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ByName["simulator_used"])
}

func TestSimulate_UsesRateOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.UpdateSetting(ctx, "rate_20y", "4.1", "")
	require.NoError(t, err)

	profile := mortgage.BorrowerProfile{NetMonthlyIncome: 3500, TermYears: 22}
	got, err := f.svc.Simulate(ctx, SimulationRequest{Profile: profile})
	require.NoError(t, err)

	profile.AnnualInterestRate = 4.1
	assert.Equal(t, mortgage.Simulate(profile).MaxLoanPrincipal, got.MaxLoanPrincipal)
}

func TestSimulate_Cached(t *testing.T) {
	f := newFixture(t)
	profile := mortgage.BorrowerProfile{NetMonthlyIncome: 3500, TermYears: 20, AnnualInterestRate: 3.5}

	first, err := f.svc.Simulate(context.Background(), SimulationRequest{Profile: profile})
	require.NoError(t, err)

	key, err := simulationKey(profile)
	require.NoError(t, err)
	_, ok := f.cache.Get(context.Background(), key)
	assert.True(t, ok)

	second, err := f.svc.Simulate(context.Background(), SimulationRequest{Profile: profile})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSimulate_Invalid(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Simulate(context.Background(), SimulationRequest{
		Profile: mortgage.BorrowerProfile{NetMonthlyIncome: 3500, TermYears: 40},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "term_years")
}

func TestRates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.UpsertSetting(ctx, &models.Setting{Key: "rate_10y", Value: "2.9"}))
	require.NoError(t, f.repo.UpsertSetting(ctx, &models.Setting{Key: "rate_15y", Value: "abc"}))

	rates := f.svc.Rates(ctx)
	assert.Equal(t, 2.9, rates[10])
	assert.Equal(t, 3.35, rates[15])
	assert.Equal(t, 3.65, rates[25])

	rates[25] = 99
	assert.Equal(t, 3.65, f.svc.Rates(ctx)[25], "callers get a copy")
}

func TestUpdateSetting_RejectsBadRate(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateSetting(context.Background(), "rate_25y", "-1", "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	st, err := f.svc.UpdateSetting(context.Background(), "site_name", "Mortgage Simulator", "Brand")
	require.NoError(t, err)
	assert.Equal(t, fixedNow, st.UpdatedAt)

	got, err := f.svc.GetSetting(context.Background(), "site_name")
	require.NoError(t, err)
	assert.Equal(t, "Mortgage Simulator", got.Value)

	_, err = f.svc.GetSetting(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSettingNotFound)
}

func TestCreateLead(t *testing.T) {
	f := newFixture(t)
	meta := RequestMeta{IP: "203.0.113.9", UserAgent: "test-agent", UTM: models.UTMParams{Source: "google"}}

	lead, err := f.svc.CreateLead(context.Background(), validLead(), meta)
	require.NoError(t, err)

	assert.Equal(t, int64(1), lead.ID)
	assert.Equal(t, "jane@example.com", lead.Email)
	assert.Equal(t, models.LeadStatusNew, lead.Status)
	assert.Equal(t, "google", lead.UTM.Source)
	assert.Equal(t, "test-agent", lead.UserAgent)
	assert.Len(t, lead.IPAddress, 64)
	assert.NotContains(t, lead.IPAddress, "203.0.113.9")
	require.Len(t, f.mailer.leads, 1)
	assert.Equal(t, lead.ID, f.mailer.leads[0].ID)
}

func TestCreateLead_MailFailureStillCreates(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")

	lead, err := f.svc.CreateLead(context.Background(), validLead(), RequestMeta{})
	require.NoError(t, err)

	stored, err := f.svc.GetLead(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.Email, stored.Email)
}

func TestCreateLead_Validation(t *testing.T) {
	f := newFixture(t)

	noConsent := validLead()
	noConsent.GDPRConsent = false
	_, err := f.svc.CreateLead(context.Background(), noConsent, RequestMeta{})
	assert.ErrorIs(t, err, ErrConsentRequired)

	tests := []struct {
		name   string
		mutate func(*LeadInput)
		want   string
	}{
		{"bad email", func(in *LeadInput) { in.Email = "not-an-email" }, "email"},
		{"short phone", func(in *LeadInput) { in.Phone = "0601" }, "phone"},
		{"zero amount", func(in *LeadInput) { in.LoanAmount = 0 }, "loan_amount"},
		{"term too long", func(in *LeadInput) { in.TermYears = 35 }, "term_years"},
		{"no income", func(in *LeadInput) { in.NetMonthlyIncome = 0 }, "net_monthly_income"},
		{"negative contribution", func(in *LeadInput) { in.PersonalContribution = -1 }, "personal_contribution"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validLead()
			tt.mutate(&in)
			_, err := f.svc.CreateLead(context.Background(), in, RequestMeta{})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Error(), tt.want)
		})
	}
	assert.Empty(t, f.mailer.leads)
}

func TestListLeads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateLead(ctx, validLead(), RequestMeta{})
		require.NoError(t, err)
	}

	page, err := f.svc.ListLeads(ctx, models.LeadFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Leads, 2)

	page, err = f.svc.ListLeads(ctx, models.LeadFilter{Page: 1, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, maxPageLimit, page.Limit)

	page, err = f.svc.ListLeads(ctx, models.LeadFilter{Status: models.LeadStatusLost})
	require.NoError(t, err)
	assert.Equal(t, defaultPageLimit, page.Limit)
	assert.NotNil(t, page.Leads)
	assert.Empty(t, page.Leads)

	_, err = f.svc.ListLeads(ctx, models.LeadFilter{Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateLeadStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lead, err := f.svc.CreateLead(ctx, validLead(), RequestMeta{})
	require.NoError(t, err)

	notes := "called back"
	updated, err := f.svc.UpdateLeadStatus(ctx, lead.ID, "contacted", &notes)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusContacted, updated.Status)
	assert.Equal(t, notes, updated.Notes)

	_, err = f.svc.UpdateLeadStatus(ctx, lead.ID, "archived", nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.svc.UpdateLeadStatus(ctx, 999, "lost", nil)
	assert.ErrorIs(t, err, ErrLeadNotFound)

	_, err = f.svc.GetLead(ctx, 999)
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestLeadStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lead, err := f.svc.CreateLead(ctx, validLead(), RequestMeta{UTM: models.UTMParams{Source: "google"}})
	require.NoError(t, err)
	_, err = f.svc.CreateLead(ctx, validLead(), RequestMeta{})
	require.NoError(t, err)
	_, err = f.svc.UpdateLeadStatus(ctx, lead.ID, "converted", nil)
	require.NoError(t, err)

	stats, err := f.svc.LeadStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Last7Days)
	assert.Equal(t, 1, stats.BySource["google"])
	assert.InDelta(t, 50.0, stats.ConversionRate, 1e-9)
}

func TestExportLeadsCSV(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateLead(ctx, validLead(), RequestMeta{UTM: models.UTMParams{Source: "newsletter"}})
		require.NoError(t, err)
	}
	_, err := f.svc.UpdateLeadStatus(ctx, 2, "qualified", nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportLeadsCSV(ctx, "", &buf))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, []string{
		"3", "jane@example.com", "0601020304", "200000.00", "20", "3500.00", "0.00",
		"1160.00", "3.5", "new", "newsletter", "2026-03-01T12:00:00Z",
	}, records[1])

	buf.Reset()
	require.NoError(t, f.svc.ExportLeadsCSV(ctx, "qualified", &buf))
	records, err = csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2", records[1][0])

	assert.ErrorIs(t, f.svc.ExportLeadsCSV(ctx, "archived", &buf), ErrInvalidStatus)
}

func TestTrackEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	meta := RequestMeta{IP: "198.51.100.1", SessionID: "s1"}

	require.NoError(t, f.svc.TrackEvent(ctx, models.AnalyticsEvent{Name: "page_view"}, meta))
	require.NoError(t, f.svc.TrackEvent(ctx, models.AnalyticsEvent{Name: "page_view", SessionID: "s2"}, meta))

	var verr *ValidationError
	assert.ErrorAs(t, f.svc.TrackEvent(ctx, models.AnalyticsEvent{Name: "  "}, meta), &verr)

	stats, err := f.svc.AnalyticsStats(ctx, time.Time{}, fixedNow.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.ByName["page_view"])
	assert.Equal(t, 2, stats.UniqueSessions)

	_, err = f.svc.AnalyticsStats(ctx, fixedNow, fixedNow.Add(-time.Hour))
	assert.ErrorAs(t, err, &verr)
}

func TestAffiliates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	low := f.repo.AddPartner(models.AffiliatePartner{Name: "Low", Slug: "low", IsActive: true, Priority: 1})
	high := f.repo.AddPartner(models.AffiliatePartner{Name: "High", Slug: "high", IsActive: true, Priority: 9, RedirectURL: "https://high.example"})
	hidden := f.repo.AddPartner(models.AffiliatePartner{Name: "Hidden", Slug: "hidden"})

	partners, err := f.svc.ListPartners(ctx)
	require.NoError(t, err)
	require.Len(t, partners, 2)
	assert.Equal(t, high.ID, partners[0].ID)
	assert.Equal(t, low.ID, partners[1].ID)

	p, err := f.svc.TrackAffiliateClick(ctx, models.AffiliateClick{PartnerID: high.ID}, RequestMeta{IP: "192.0.2.1"})
	require.NoError(t, err)
	assert.Equal(t, "https://high.example", p.RedirectURL)

	_, err = f.svc.TrackAffiliateClick(ctx, models.AffiliateClick{PartnerID: hidden.ID}, RequestMeta{})
	assert.ErrorIs(t, err, ErrPartnerNotFound)

	stats, err := f.svc.AffiliateStats(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, stats)
	assert.Equal(t, high.ID, stats[0].PartnerID)
	assert.Equal(t, 1, stats[0].Clicks)
}

func TestSendContact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.SendContact(ctx, models.ContactMessage{Name: "Jane", Email: "jane@example.com", Message: "Hello"}, RequestMeta{})
	require.NoError(t, err)
	require.Len(t, f.mailer.contacts, 1)

	var verr *ValidationError
	err = f.svc.SendContact(ctx, models.ContactMessage{Email: "nope", Message: ""}, RequestMeta{})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "name")
	assert.Contains(t, verr.Error(), "email")
	assert.Contains(t, verr.Error(), "message")

	f.mailer.err = errors.New("smtp down")
	err = f.svc.SendContact(ctx, models.ContactMessage{Name: "Jane", Email: "jane@example.com", Message: "Hello"}, RequestMeta{})
	assert.ErrorContains(t, err, "smtp down")
}

func TestAdminLogin(t *testing.T) {
	f := newFixture(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	_, err = f.svc.AdminLogin("admin@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "no hash configured")

	f.cfg.AdminPasswordHash = string(hash)
	_, err = f.svc.AdminLogin("admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.AdminLogin("other@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	f.svc.now = time.Now
	token, err := f.svc.AdminLogin("Admin@Example.com", "s3cret")
	require.NoError(t, err)

	claims := &models.AdminClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "admin@example.com", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestReferenceRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rate, err := f.svc.ReferenceRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.15, rate)

	rate, err = f.svc.ReferenceRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.15, rate)
	assert.Equal(t, 1, f.ecb.calls, "second read served from cache")

	f2 := newFixture(t)
	f2.ecb.err = errors.New("timeout")
	_, err = f2.svc.ReferenceRate(ctx)
	assert.ErrorContains(t, err, "timeout")
}

func TestScheduler_RefreshRates(t *testing.T) {
	f := newFixture(t)
	logger, hook := test.NewNullLogger()
	require.NoError(t, f.repo.UpsertSetting(context.Background(), &models.Setting{Key: "rate_20y", Value: "3.9"}))

	s := NewScheduler(f.svc, logger, "@every 1h")
	s.RefreshRates()

	assert.Equal(t, 3.9, f.svc.Rates(context.Background())[20])
	assert.Equal(t, 1, f.ecb.calls)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, 2.15, hook.LastEntry().Data["reference_rate"])

	require.NoError(t, s.Start())
	<-s.Stop().Done()

	bad := NewScheduler(f.svc, logger, "not a spec")
	assert.Error(t, bad.Start())
}
