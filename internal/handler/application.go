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

type applicationRequest struct {
	FullName   string   `json:"full_name" validate:"required"`
	Email      string   `json:"email" validate:"required,email"`
	Phone      string   `json:"phone" validate:"required"`
	City       string   `json:"city"`
	Background string   `json:"background"`
	Experience bool     `json:"experience"`
	Reason     string   `json:"reason"`
	Platforms  []string `json:"platforms"`
}

type applicationResponse struct {
	ID         string   `json:"id"`
	FullName   string   `json:"full_name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	City       string   `json:"city,omitempty"`
	Background string   `json:"background,omitempty"`
	Experience bool     `json:"experience"`
	Reason     string   `json:"reason,omitempty"`
	Platforms  []string `json:"platforms,omitempty"`
	Status     string   `json:"status"`
	CreatedAt  string   `json:"created_at"`
}

func toApplicationResponse(a model.Application) applicationResponse {
	return applicationResponse{
		ID:         a.ID,
		FullName:   a.FullName,
		Email:      a.Email,
		Phone:      a.Phone,
		City:       a.City,
		Background: a.Background,
		Experience: a.Experience,
		Reason:     a.Reason,
		Platforms:  a.Platforms,
		Status:     string(a.Status),
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
}

// SubmitApplication accepts a new partner application from the public form.
func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req applicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	app, err := h.service.SubmitApplication(r.Context(), model.Application{
		FullName:   req.FullName,
		Email:      req.Email,
		Phone:      req.Phone,
		City:       req.City,
		Background: req.Background,
		Experience: req.Experience,
		Reason:     req.Reason,
		Platforms:  req.Platforms,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		h.logger.Error("submit application error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(toApplicationResponse(app)); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// GetApplications returns all applications, newest first.
func (h *Handler) GetApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.GetApplications(r.Context())
	if err != nil {
		h.logger.Error("get applications error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]applicationResponse, 0, len(apps))
	for _, a := range apps {
		resp = append(resp, toApplicationResponse(a))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

type reviewRequest struct {
	Approve bool `json:"approve"`
}

type reviewResponse struct {
	Status   string `json:"status"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// ReviewApplication approves or rejects a pending application. Approval
// returns the generated partner credentials exactly once.
func (h *Handler) ReviewApplication(w http.ResponseWriter, r *http.Request) {
	appID := chi.URLParam(r, "id")

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	creds, err := h.service.ReviewApplication(r.Context(), appID, req.Approve)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrApplicationNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, repository.ErrApplicationReviewed),
			errors.Is(err, repository.ErrPartnerExists),
			errors.Is(err, repository.ErrUserExists):
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		default:
			h.logger.Error("review application error", zap.Error(err), zap.String("applicationID", appID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	resp := reviewResponse{Status: string(model.ApplicationStatusRejected)}
	if creds != nil {
		resp = reviewResponse{
			Status:   string(model.ApplicationStatusApproved),
			Username: creds.Username,
			Password: creds.Password,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}
