package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Dan9191/mortgage-simulator/internal/models"
	"github.com/gorilla/mux"
)

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

func queryTime(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC 3339 timestamp", name)
	}
	return t, nil
}

func leadID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// ListLeads returns a page of leads
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	result, err := h.svc.ListLeads(r.Context(), models.LeadFilter{
		Page:   page,
		Limit:  limit,
		Status: models.LeadStatus(q.Get("status")),
		Search: q.Get("search"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetLead returns one lead
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	id, err := leadID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lead id")
		return
	}
	lead, err := h.svc.GetLead(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

type statusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

// UpdateLeadStatus changes the status of a lead
func (h *Handler) UpdateLeadStatus(w http.ResponseWriter, r *http.Request) {
	id, err := leadID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lead id")
		return
	}
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	lead, err := h.svc.UpdateLeadStatus(r.Context(), id, req.Status, req.Notes)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// LeadStats returns pipeline statistics
func (h *Handler) LeadStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.LeadStats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ExportLeads downloads leads as CSV
func (h *Handler) ExportLeads(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.ExportLeadsCSV(r.Context(), r.URL.Query().Get("status"), &buf); err != nil {
		h.fail(w, r, err)
		return
	}
	filename := fmt.Sprintf("leads-%s.csv", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ListSettings returns all settings
func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.ListSettings(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// GetSetting returns one setting
func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	setting, err := h.svc.GetSetting(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

type settingRequest struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

// UpdateSetting creates or replaces a setting
func (h *Handler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	var req settingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	setting, err := h.svc.UpdateSetting(r.Context(), mux.Vars(r)["key"], req.Value, req.Description)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

// AnalyticsStats summarises events between the from and to query parameters
func (h *Handler) AnalyticsStats(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stats, err := h.svc.AnalyticsStats(r.Context(), from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// AffiliateStats returns clicks per partner
func (h *Handler) AffiliateStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.AffiliateStats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"affiliates": stats})
}
