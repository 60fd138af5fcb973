package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Dan9191/mortgage-simulator/internal/models"
	"github.com/Dan9191/mortgage-simulator/internal/mortgage"
	"github.com/Dan9191/mortgage-simulator/internal/service"
)

type simulationResponse struct {
	mortgage.SimulationResult
	YearlySummary []mortgage.YearSummary `json:"yearly_summary,omitempty"`
}

// Simulate runs a simulation for the posted borrower profile
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	var profile mortgage.BorrowerProfile
	if !decodeJSON(w, r, &profile) {
		return
	}

	result, err := h.svc.Simulate(r.Context(), service.SimulationRequest{Profile: profile, Meta: h.requestMeta(r)})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := simulationResponse{SimulationResult: result}
	if r.URL.Query().Get("view") == "yearly" {
		resp.YearlySummary = mortgage.SummarizeByYear(result.AmortizationSchedule)
	}
	writeJSON(w, http.StatusOK, resp)
}

type rateEntry struct {
	TermYears int     `json:"term_years"`
	Rate      float64 `json:"rate"`
}

// Rates lists the current rate for each term
func (h *Handler) Rates(w http.ResponseWriter, r *http.Request) {
	table := h.svc.Rates(r.Context())
	rates := make([]rateEntry, 0, len(table))
	for _, term := range table.Terms() {
		rates = append(rates, rateEntry{TermYears: term, Rate: table[term]})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rates": rates})
}

// ReferenceRate returns the ECB main refinancing rate
func (h *Handler) ReferenceRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.svc.ReferenceRate(r.Context())
	if err != nil {
		h.log.Warnf("Reference rate unavailable: %v", err)
		writeError(w, http.StatusBadGateway, "reference rate unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"reference_rate": rate})
}

// NetIncome estimates monthly net pay from the annual_gross query parameter
func (h *Handler) NetIncome(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	gross, err := strconv.ParseFloat(q.Get("annual_gross"), 64)
	if err != nil || gross < 0 {
		writeError(w, http.StatusBadRequest, "annual_gross must be a non-negative number")
		return
	}
	executive := q.Get("status") == "executive"
	writeJSON(w, http.StatusOK, map[string]float64{
		"net_monthly_income": mortgage.NetFromGross(gross, executive),
	})
}

// CreateLead stores a contact request
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var in service.LeadInput
	if !decodeJSON(w, r, &in) {
		return
	}
	lead, err := h.svc.CreateLead(r.Context(), in, h.requestMeta(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

// Contact forwards a contact form by email
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var msg models.ContactMessage
	if !decodeJSON(w, r, &msg) {
		return
	}
	if err := h.svc.SendContact(r.Context(), msg, h.requestMeta(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

type eventRequest struct {
	Name      string           `json:"event_name"`
	Data      json.RawMessage  `json:"event_data,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	Referrer  string           `json:"referrer,omitempty"`
	PageURL   string           `json:"page_url,omitempty"`
	UTM       models.UTMParams `json:"utm"`
}

// TrackEvent records a visitor event
func (h *Handler) TrackEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ev := models.AnalyticsEvent{
		Name:      req.Name,
		Data:      string(req.Data),
		SessionID: req.SessionID,
		Referrer:  req.Referrer,
		PageURL:   req.PageURL,
		UTM:       req.UTM,
	}
	if err := h.svc.TrackEvent(r.Context(), ev, h.requestMeta(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPartners lists active affiliate partners
func (h *Handler) ListPartners(w http.ResponseWriter, r *http.Request) {
	partners, err := h.svc.ListPartners(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"partners": partners})
}

// TrackAffiliateClick records a partner click and returns its redirect URL
func (h *Handler) TrackAffiliateClick(w http.ResponseWriter, r *http.Request) {
	var click models.AffiliateClick
	if !decodeJSON(w, r, &click) {
		return
	}
	partner, err := h.svc.TrackAffiliateClick(r.Context(), click, h.requestMeta(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"redirect_url": partner.RedirectURL})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminLogin exchanges admin credentials for a token
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, err := h.svc.AdminLogin(req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
