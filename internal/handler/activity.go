package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/framenflow/partner-system/internal/middleware"
	"github.com/framenflow/partner-system/internal/model"
	"github.com/framenflow/partner-system/internal/repository"
	"github.com/framenflow/partner-system/internal/service"
	"github.com/framenflow/partner-system/internal/validation"
)

func (h *Handler) partnerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	session, ok := middleware.GetSessionFromContext(r.Context())
	if !ok || session.PartnerID == "" {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return "", false
	}
	return session.PartnerID, true
}

type outreachRequest struct {
	LogDate    string `json:"log_date"`
	Channel    string `json:"channel" validate:"required"`
	Count      int    `json:"count"`
	Interested int    `json:"interested"`
	Notes      string `json:"notes"`
}

type outreachResponse struct {
	ID         string `json:"id"`
	LogDate    string `json:"log_date"`
	Channel    string `json:"channel"`
	Count      int    `json:"count"`
	Interested int    `json:"interested"`
	Notes      string `json:"notes,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func toOutreachResponse(l model.OutreachLog) outreachResponse {
	return outreachResponse{
		ID:         l.ID,
		LogDate:    l.LogDate.Format(dateLayout),
		Channel:    l.Channel,
		Count:      l.Count,
		Interested: l.Interested,
		Notes:      l.Notes,
		CreatedAt:  l.CreatedAt.Format(time.RFC3339),
	}
}

// RecordOutreach appends an outreach log entry for the current partner.
func (h *Handler) RecordOutreach(w http.ResponseWriter, r *http.Request) {
	partnerID, ok := h.partnerID(w, r)
	if !ok {
		return
	}

	var req outreachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	logDate := time.Now().UTC()
	if req.LogDate != "" {
		var err error
		logDate, err = time.Parse(dateLayout, req.LogDate)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
	}

	entry, err := h.service.RecordOutreach(r.Context(), model.OutreachLog{
		PartnerID:  partnerID,
		LogDate:    logDate,
		Channel:    req.Channel,
		Count:      req.Count,
		Interested: req.Interested,
		Notes:      req.Notes,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCount) || errors.Is(err, service.ErrInterestedExceedsCount) {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		h.logger.Error("record outreach error", zap.Error(err), zap.String("partnerID", partnerID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(toOutreachResponse(entry)); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

type outreachActivityResponse struct {
	TotalOutreach   int                `json:"total_outreach"`
	TotalInterested int                `json:"total_interested"`
	Entries         []outreachResponse `json:"entries"`
}

// GetOutreach returns the current partner's outreach logs with totals.
func (h *Handler) GetOutreach(w http.ResponseWriter, r *http.Request) {
	partnerID, ok := h.partnerID(w, r)
	if !ok {
		return
	}

	logs, summary, err := h.service.OutreachActivity(r.Context(), partnerID)
	if err != nil {
		h.logger.Error("get outreach error", zap.Error(err), zap.String("partnerID", partnerID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := outreachActivityResponse{
		TotalOutreach:   summary.TotalOutreach,
		TotalInterested: summary.TotalInterested,
		Entries:         make([]outreachResponse, 0, len(logs)),
	}
	for _, l := range logs {
		resp.Entries = append(resp.Entries, toOutreachResponse(l))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

type leadRequest struct {
	BusinessName   string `json:"business_name" validate:"required"`
	ContactPerson  string `json:"contact_person"`
	SourcePlatform string `json:"source_platform" validate:"required"`
}

type leadResponse struct {
	ID             string `json:"id"`
	BusinessName   string `json:"business_name"`
	ContactPerson  string `json:"contact_person,omitempty"`
	SourcePlatform string `json:"source_platform"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

func toLeadResponse(l model.Lead) leadResponse {
	return leadResponse{
		ID:             l.ID,
		BusinessName:   l.BusinessName,
		ContactPerson:  l.ContactPerson,
		SourcePlatform: l.SourcePlatform,
		Status:         string(l.Status),
		CreatedAt:      l.CreatedAt.Format(time.RFC3339),
	}
}

// CreateLead registers a new lead for the current partner.
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	partnerID, ok := h.partnerID(w, r)
	if !ok {
		return
	}

	var req leadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	lead, err := h.service.CreateLead(r.Context(), model.Lead{
		PartnerID:      partnerID,
		BusinessName:   req.BusinessName,
		ContactPerson:  req.ContactPerson,
		SourcePlatform: req.SourcePlatform,
	})
	if err != nil {
		h.logger.Error("create lead error", zap.Error(err), zap.String("partnerID", partnerID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(toLeadResponse(lead)); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// GetLeads returns the current partner's leads ordered by creation time.
func (h *Handler) GetLeads(w http.ResponseWriter, r *http.Request) {
	partnerID, ok := h.partnerID(w, r)
	if !ok {
		return
	}

	leads, err := h.service.GetLeads(r.Context(), partnerID)
	if err != nil {
		h.logger.Error("get leads error", zap.Error(err), zap.String("partnerID", partnerID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]leadResponse, 0, len(leads))
	for _, l := range leads {
		resp = append(resp, toLeadResponse(l))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

type leadStatusRequest struct {
	Status string `json:"status"`
}

// TransitionLead moves one of the current partner's leads through the
// pipeline.
func (h *Handler) TransitionLead(w http.ResponseWriter, r *http.Request) {
	partnerID, ok := h.partnerID(w, r)
	if !ok {
		return
	}
	leadID := chi.URLParam(r, "id")

	var req leadStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	status := model.LeadStatus(req.Status)
	if !validation.IsValidLeadStatus(status) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	lead, err := h.service.TransitionLead(r.Context(), partnerID, leadID, status)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrLeadNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, repository.ErrInvalidLeadTransition):
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		default:
			h.logger.Error("transition lead error", zap.Error(err), zap.String("leadID", leadID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(toLeadResponse(lead)); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}
