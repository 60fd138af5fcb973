package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Dan9191/mortgage-simulator/internal/cache"
	"github.com/Dan9191/mortgage-simulator/internal/config"
	"github.com/Dan9191/mortgage-simulator/internal/models"
	"github.com/Dan9191/mortgage-simulator/internal/mortgage"
	"github.com/sirupsen/logrus"
)

var (
	ErrConsentRequired    = errors.New("gdpr consent is required")
	ErrLeadNotFound       = errors.New("lead not found")
	ErrSettingNotFound    = errors.New("setting not found")
	ErrPartnerNotFound    = errors.New("partner not found")
	ErrInvalidStatus      = errors.New("invalid lead status")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports malformed user input
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(errs ...error) error {
	if err := errors.Join(errs...); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// Store is the persistence layer used by the service
type Store interface {
	CreateLead(ctx context.Context, lead *models.Lead) error
	FindLeadByID(ctx context.Context, id int64) (*models.Lead, error)
	ListLeads(ctx context.Context, filter models.LeadFilter) ([]models.Lead, int, error)
	UpdateLeadStatus(ctx context.Context, id int64, status models.LeadStatus, notes *string) error
	LeadStats(ctx context.Context, now time.Time) (*models.LeadStats, error)

	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	ListSettings(ctx context.Context) ([]models.Setting, error)
	UpsertSetting(ctx context.Context, s *models.Setting) error

	CreateAnalyticsEvent(ctx context.Context, e *models.AnalyticsEvent) error
	AnalyticsStats(ctx context.Context, from, to time.Time) (*models.AnalyticsStats, error)

	ListActivePartners(ctx context.Context) ([]models.AffiliatePartner, error)
	CreateAffiliateClick(ctx context.Context, c *models.AffiliateClick) error
	AffiliateStats(ctx context.Context) ([]models.AffiliateStats, error)
}

// Mailer delivers notification emails
type Mailer interface {
	SendLeadNotification(lead *models.Lead) error
	SendContactMessage(msg models.ContactMessage) error
}

// RateSource provides the central bank reference rate
type RateSource interface {
	GetReferenceRate(ctx context.Context) (float64, error)
}

// RequestMeta describes the visitor behind a request
type RequestMeta struct {
	IP        string
	UserAgent string
	SessionID string
	Referrer  string
	PageURL   string
	UTM       models.UTMParams
}

// Service handles business logic
type Service struct {
	store  Store
	cache  cache.Cache
	mailer Mailer
	ecb    RateSource
	log    *logrus.Logger
	config *config.Config
	now    func() time.Time

	mu    sync.RWMutex
	rates mortgage.RateTable
}

// NewService initializes a new service
func NewService(store Store, c cache.Cache, mailer Mailer, ecb RateSource, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		store:  store,
		cache:  c,
		mailer: mailer,
		ecb:    ecb,
		log:    log,
		config: cfg,
		now:    time.Now,
	}
}
