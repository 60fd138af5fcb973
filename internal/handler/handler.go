package handler

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/Dan9191/mortgage-simulator/internal/config"
	"github.com/Dan9191/mortgage-simulator/internal/middleware"
	"github.com/Dan9191/mortgage-simulator/internal/service"
	"github.com/Dan9191/mortgage-simulator/internal/utils"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	svc     *service.Service
	log     *logrus.Logger
	trusted []*net.IPNet
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Router builds the HTTP routes. Public POST routes go through limiter,
// admin routes require an admin token.
func (h *Handler) Router(cfg *config.Config, limiter *middleware.RateLimiter) *mux.Router {
	h.trusted = cfg.TrustedProxies
	r := mux.NewRouter()
	limited := middleware.RateLimit(limiter, cfg.TrustedProxies)

	r.HandleFunc("/healthz", h.Health).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	// Public routes
	api.Handle("/simulations", limited(http.HandlerFunc(h.Simulate))).Methods("POST")
	api.HandleFunc("/rates", h.Rates).Methods("GET")
	api.HandleFunc("/rates/reference", h.ReferenceRate).Methods("GET")
	api.HandleFunc("/income/net", h.NetIncome).Methods("GET")
	api.Handle("/leads", limited(http.HandlerFunc(h.CreateLead))).Methods("POST")
	api.Handle("/contact", limited(http.HandlerFunc(h.Contact))).Methods("POST")
	api.Handle("/analytics/events", limited(http.HandlerFunc(h.TrackEvent))).Methods("POST")
	api.HandleFunc("/affiliates", h.ListPartners).Methods("GET")
	api.Handle("/affiliates/clicks", limited(http.HandlerFunc(h.TrackAffiliateClick))).Methods("POST")
	api.Handle("/admin/login", limited(http.HandlerFunc(h.AdminLogin))).Methods("POST")

	// Protected routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.HandleFunc("/leads", h.ListLeads).Methods("GET")
	admin.HandleFunc("/leads/stats", h.LeadStats).Methods("GET")
	admin.HandleFunc("/leads/export", h.ExportLeads).Methods("GET")
	admin.HandleFunc("/leads/{id:[0-9]+}", h.GetLead).Methods("GET")
	admin.HandleFunc("/leads/{id:[0-9]+}/status", h.UpdateLeadStatus).Methods("PATCH")
	admin.HandleFunc("/settings", h.ListSettings).Methods("GET")
	admin.HandleFunc("/settings/{key}", h.GetSetting).Methods("GET")
	admin.HandleFunc("/settings/{key}", h.UpdateSetting).Methods("PUT")
	admin.HandleFunc("/analytics/stats", h.AnalyticsStats).Methods("GET")
	admin.HandleFunc("/affiliates/stats", h.AffiliateStats).Methods("GET")

	return r
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// fail maps service errors to HTTP statuses
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, service.ErrConsentRequired), errors.Is(err, service.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrLeadNotFound), errors.Is(err, service.ErrSettingNotFound), errors.Is(err, service.ErrPartnerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		h.log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Errorf("Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) requestMeta(r *http.Request) service.RequestMeta {
	return service.RequestMeta{
		IP:        utils.ClientIP(r, h.trusted),
		UserAgent: r.UserAgent(),
		SessionID: r.Header.Get("X-Session-ID"),
		Referrer:  r.Referer(),
		UTM:       utils.ExtractUTM(r.URL.Query()),
	}
}
