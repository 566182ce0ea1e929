package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/framenflow/partner-system/internal/model"
	"github.com/framenflow/partner-system/internal/repository"
	"github.com/framenflow/partner-system/internal/service"
)

type partnerResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Stage         string  `json:"stage"`
	EarningsTotal float64 `json:"earnings_total"`
	CreatedAt     string  `json:"created_at"`
}

func toPartnerResponse(p model.Partner) partnerResponse {
	return partnerResponse{
		ID:            p.ID,
		Name:          p.Name,
		Email:         p.Email,
		Stage:         string(p.Stage),
		EarningsTotal: rupees(p.EarningsTotal),
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
}

// GetProfile returns the current partner with the derived earnings total.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	partnerID, ok := h.partnerID(w, r)
	if !ok {
		return
	}

	p, err := h.service.GetProfile(r.Context(), partnerID)
	if err != nil {
		if errors.Is(err, repository.ErrPartnerNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get profile error", zap.Error(err), zap.String("partnerID", partnerID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(toPartnerResponse(*p)); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// ListPartners returns all partners with derived earnings totals.
func (h *Handler) ListPartners(w http.ResponseWriter, r *http.Request) {
	partners, err := h.service.ListPartners(r.Context())
	if err != nil {
		h.logger.Error("list partners error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]partnerResponse, 0, len(partners))
	for _, p := range partners {
		resp = append(resp, toPartnerResponse(p))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

type stageRequest struct {
	Stage string `json:"stage"`
}

// SetPartnerStage changes a partner's stage by admin decision.
func (h *Handler) SetPartnerStage(w http.ResponseWriter, r *http.Request) {
	partnerID := chi.URLParam(r, "id")

	var req stageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err := h.service.SetPartnerStage(r.Context(), partnerID, model.PartnerStage(req.Stage))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStage):
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		case errors.Is(err, repository.ErrPartnerNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		default:
			h.logger.Error("set stage error", zap.Error(err), zap.String("partnerID", partnerID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

type earningRequest struct {
	ClientName           string  `json:"client_name" validate:"required"`
	DealValue            float64 `json:"deal_value" validate:"required,gt=0"`
	CommissionPercentage int     `json:"commission_percentage" validate:"gte=0,lte=100"`
	DealClosedDate       string  `json:"deal_closed_date" validate:"required"`
}

type earningResponse struct {
	ID                   string  `json:"id"`
	PartnerID            string  `json:"partner_id"`
	ClientName           string  `json:"client_name"`
	DealValue            float64 `json:"deal_value"`
	CommissionPercentage int     `json:"commission_percentage"`
	Amount               float64 `json:"amount"`
	Status               string  `json:"status"`
	DealClosedDate       string  `json:"deal_closed_date"`
	PaidAt               *string `json:"paid_at,omitempty"`
	CreatedAt            string  `json:"created_at"`
}

func toEarningResponse(e model.EarningsEntry) earningResponse {
	resp := earningResponse{
		ID:                   e.ID,
		PartnerID:            e.PartnerID,
		ClientName:           e.ClientName,
		DealValue:            rupees(e.DealValue),
		CommissionPercentage: e.CommissionPercentage,
		Amount:               rupees(e.Amount),
		Status:               string(e.Status),
		DealClosedDate:       e.DealClosedDate.Format(dateLayout),
		CreatedAt:            e.CreatedAt.Format(time.RFC3339),
	}
	if e.PaidAt != nil {
		paidAt := e.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &paidAt
	}
	return resp
}

// AppendEarning appends a ledger entry for a partner's closed deal.
func (h *Handler) AppendEarning(w http.ResponseWriter, r *http.Request) {
	partnerID := chi.URLParam(r, "id")

	var req earningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	closedDate, err := time.Parse(dateLayout, req.DealClosedDate)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	entry, err := h.service.AppendEarning(r.Context(), partnerID, req.ClientName,
		paise(req.DealValue), req.CommissionPercentage, closedDate)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDealValue), errors.Is(err, service.ErrInvalidCommission):
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		case errors.Is(err, repository.ErrPartnerNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		default:
			h.logger.Error("append earning error", zap.Error(err), zap.String("partnerID", partnerID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(toEarningResponse(entry)); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// MarkEarningPaid transitions a ledger entry to PAID. Repeating the call on
// a paid entry responds OK without another notification.
func (h *Handler) MarkEarningPaid(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")

	entry, err := h.service.MarkEarningPaid(r.Context(), entryID)
	if err != nil {
		h.writeEarningError(w, err, entryID, "mark paid error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(toEarningResponse(entry)); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// MarkEarningReversed transitions a ledger entry to REVERSED.
func (h *Handler) MarkEarningReversed(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")

	entry, err := h.service.MarkEarningReversed(r.Context(), entryID)
	if err != nil {
		h.writeEarningError(w, err, entryID, "mark reversed error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(toEarningResponse(entry)); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) writeEarningError(w http.ResponseWriter, err error, entryID, msg string) {
	switch {
	case errors.Is(err, repository.ErrEarningNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, repository.ErrEarningReversed):
		http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
	default:
		h.logger.Error(msg, zap.Error(err), zap.String("entryID", entryID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
