// Package handler contains the HTTP handlers of the partner system API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/framenflow/partner-system/internal/commission"
	"github.com/framenflow/partner-system/internal/middleware"
	"github.com/framenflow/partner-system/internal/model"
	"github.com/framenflow/partner-system/internal/report"
	"github.com/framenflow/partner-system/internal/repository"
	"github.com/framenflow/partner-system/internal/service"
)

const dateLayout = "2006-01-02"

// Service defines the business logic contract used by the HTTP handlers.
type Service interface {
	SubmitApplication(ctx context.Context, a model.Application) (model.Application, error)
	GetApplications(ctx context.Context) ([]model.Application, error)
	ReviewApplication(ctx context.Context, appID string, approve bool) (*service.Credentials, error)
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
	GetProfile(ctx context.Context, partnerID string) (*model.Partner, error)
	ListPartners(ctx context.Context) ([]model.Partner, error)
	SetPartnerStage(ctx context.Context, partnerID string, stage model.PartnerStage) error
	RecordOutreach(ctx context.Context, l model.OutreachLog) (model.OutreachLog, error)
	OutreachActivity(ctx context.Context, partnerID string) ([]model.OutreachLog, model.OutreachSummary, error)
	CreateLead(ctx context.Context, l model.Lead) (model.Lead, error)
	GetLeads(ctx context.Context, partnerID string) ([]model.Lead, error)
	TransitionLead(ctx context.Context, partnerID, leadID string, to model.LeadStatus) (model.Lead, error)
	AppendEarning(ctx context.Context, partnerID, clientName string, dealValuePaise int64, percentage int, closedDate time.Time) (model.EarningsEntry, error)
	MarkEarningPaid(ctx context.Context, entryID string) (model.EarningsEntry, error)
	MarkEarningReversed(ctx context.Context, entryID string) (model.EarningsEntry, error)
	CompileReport(ctx context.Context, partnerID string) (*report.Report, error)
}

// Handler implements the HTTP handlers of the partner system API.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	validate       *validator.Validate
}

// NewHandler creates a new HTTP handler instance.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		validate:       validator.New(),
	}
}

// paise converts a rupee amount from the API edge to paise.
func paise(rupees float64) int64 {
	return int64(math.Round(rupees * 100))
}

// rupees converts paise back to the rupee amount used at the API edge.
func rupees(paise int64) float64 {
	return float64(paise) / 100
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Role      string `json:"role"`
	PartnerID string `json:"partner_id,omitempty"`
}

// Login authenticates a user and sets the auth cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.logger.Error("login error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, middleware.Session{
		UserID:    user.ID,
		Role:      user.Role,
		PartnerID: user.PartnerID,
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(loginResponse{
		Role:      string(user.Role),
		PartnerID: user.PartnerID,
	}); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

type estimateResponse struct {
	Conversions int     `json:"conversions"`
	DealValue   float64 `json:"deal_value"`
	Rate        float64 `json:"rate"`
	Estimate    int64   `json:"estimate"`
}

// Estimate answers the public earnings projection used by the landing page.
func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	conversions, err := strconv.Atoi(q.Get("conversions"))
	if err != nil || conversions < 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	dealValue, err := strconv.ParseFloat(q.Get("deal_value"), 64)
	if err != nil || dealValue <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	rate := commission.DefaultRate
	if raw := q.Get("rate"); raw != "" {
		rate, err = strconv.ParseFloat(raw, 64)
		if err != nil || rate < 0 || rate > 1 {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(estimateResponse{
		Conversions: conversions,
		DealValue:   dealValue,
		Rate:        rate,
		Estimate:    commission.Estimate(conversions, dealValue, rate),
	}); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}
