package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/framenflow/partner-system/internal/middleware"
	"github.com/framenflow/partner-system/internal/model"
)

// SetupRouter configures the HTTP routes and middleware of the partner
// system API.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/applications", h.SubmitApplication)
		r.Post("/login", h.Login)
		r.Get("/estimate", h.Estimate)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)
			r.Use(h.authMiddleware.RequireRole(model.RoleAdmin))

			r.Get("/applications", h.GetApplications)
			r.Post("/applications/{id}/review", h.ReviewApplication)

			r.Get("/partners", h.ListPartners)
			r.Post("/partners/{id}/stage", h.SetPartnerStage)
			r.Post("/partners/{id}/earnings", h.AppendEarning)

			r.Post("/earnings/{id}/paid", h.MarkEarningPaid)
			r.Post("/earnings/{id}/reversed", h.MarkEarningReversed)
		})

		r.Route("/partner", func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)
			r.Use(h.authMiddleware.RequireRole(model.RolePartner))

			r.Get("/profile", h.GetProfile)

			r.Post("/outreach", h.RecordOutreach)
			r.Get("/outreach", h.GetOutreach)

			r.Post("/leads", h.CreateLead)
			r.Get("/leads", h.GetLeads)
			r.Post("/leads/{id}/status", h.TransitionLead)

			r.Get("/report", h.GetReport)
			r.Get("/report/pdf", h.GetReportPDF)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
