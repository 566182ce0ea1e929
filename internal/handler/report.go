package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/framenflow/partner-system/internal/report"
	"github.com/framenflow/partner-system/internal/repository"
)

type reportEarningRow struct {
	ClosedDate           string  `json:"closed_date"`
	ClientName           string  `json:"client_name"`
	DealValue            float64 `json:"deal_value"`
	CommissionPercentage int     `json:"commission_percentage"`
	Amount               float64 `json:"amount"`
	Status               string  `json:"status"`
}

type reportLeadRow struct {
	CreatedAt      string `json:"created_at"`
	BusinessName   string `json:"business_name"`
	ContactPerson  string `json:"contact_person,omitempty"`
	SourcePlatform string `json:"source_platform"`
	Status         string `json:"status"`
}

type reportResponse struct {
	PartnerName     string             `json:"partner_name"`
	Email           string             `json:"email"`
	Stage           string             `json:"stage"`
	EarningsTotal   float64            `json:"earnings_total"`
	ExportedAt      string             `json:"exported_at"`
	TotalOutreach   int                `json:"total_outreach"`
	TotalInterested int                `json:"total_interested"`
	Earnings        []reportEarningRow `json:"earnings"`
	Leads           []reportLeadRow    `json:"leads"`
}

func toReportResponse(rpt *report.Report) reportResponse {
	resp := reportResponse{
		PartnerName:     rpt.Header.PartnerName,
		Email:           rpt.Header.Email,
		Stage:           string(rpt.Header.Stage),
		EarningsTotal:   rupees(rpt.Header.EarningsTotal),
		ExportedAt:      rpt.Header.ExportedAt.Format(time.RFC3339),
		TotalOutreach:   rpt.Outreach.TotalOutreach,
		TotalInterested: rpt.Outreach.TotalInterested,
		Earnings:        make([]reportEarningRow, 0, len(rpt.Earnings)),
		Leads:           make([]reportLeadRow, 0, len(rpt.Leads)),
	}
	for _, row := range rpt.Earnings {
		resp.Earnings = append(resp.Earnings, reportEarningRow{
			ClosedDate:           row.ClosedDate.Format(dateLayout),
			ClientName:           row.ClientName,
			DealValue:            rupees(row.DealValue),
			CommissionPercentage: row.CommissionPercentage,
			Amount:               rupees(row.Amount),
			Status:               string(row.Status),
		})
	}
	for _, row := range rpt.Leads {
		resp.Leads = append(resp.Leads, reportLeadRow{
			CreatedAt:      row.CreatedAt.Format(time.RFC3339),
			BusinessName:   row.BusinessName,
			ContactPerson:  row.ContactPerson,
			SourcePlatform: row.SourcePlatform,
			Status:         string(row.Status),
		})
	}
	return resp
}

func (h *Handler) compileReport(w http.ResponseWriter, r *http.Request) (*report.Report, bool) {
	partnerID, ok := h.partnerID(w, r)
	if !ok {
		return nil, false
	}

	rpt, err := h.service.CompileReport(r.Context(), partnerID)
	if err != nil {
		if errors.Is(err, repository.ErrPartnerNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return nil, false
		}
		// An amount mismatch means the ledger cannot be trusted. Surface it
		// as a server error and keep the details in the log.
		h.logger.Error("compile report error", zap.Error(err), zap.String("partnerID", partnerID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}

	return rpt, true
}

// GetReport returns the compiled activity report as JSON.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	rpt, ok := h.compileReport(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(toReportResponse(rpt)); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// GetReportPDF returns the activity report rendered as a PDF attachment.
func (h *Handler) GetReportPDF(w http.ResponseWriter, r *http.Request) {
	rpt, ok := h.compileReport(w, r)
	if !ok {
		return
	}

	out, err := report.RenderPDF(rpt)
	if err != nil {
		h.logger.Error("render pdf error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(rpt)))
	if _, err := w.Write(out); err != nil {
		h.logger.Error("write pdf error", zap.Error(err))
	}
}
