// Package report assembles a partner's activity report.
//
// The compiler produces a plain structured value; rendering backends live
// behind adapters (see pdf.go) and never influence the aggregation.
package report

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/framenflow/partner-system/internal/commission"
	"github.com/framenflow/partner-system/internal/model"
)

// ErrAmountMismatch is returned when a stored ledger amount does not match
// its derivation from deal value and commission percentage. The append
// contract makes this unreachable in normal operation, so a mismatch means
// the stored data cannot be trusted and the report refuses to compile.
var ErrAmountMismatch = errors.New("stored amount does not match derivation")

// Header contains the partner identity block of a report.
type Header struct {
	PartnerName   string
	Email         string
	Stage         model.PartnerStage
	EarningsTotal int64 // paise, recomputed from the paid entries below
	ExportedAt    time.Time
}

// EarningsRow is one ledger line of the earnings history section.
type EarningsRow struct {
	ClosedDate           time.Time
	ClientName           string
	DealValue            int64
	CommissionPercentage int
	Amount               int64
	Status               model.EarningsStatus
}

// LeadRow is one line of the leads summary section.
type LeadRow struct {
	CreatedAt      time.Time
	BusinessName   string
	ContactPerson  string
	SourcePlatform string
	Status         model.LeadStatus
}

// Report is the renderer-agnostic activity report for one partner.
type Report struct {
	Header   Header
	Outreach model.OutreachSummary
	Earnings []EarningsRow
	Leads    []LeadRow
}

// Compile assembles a report from a partner's records. Given the same
// records it produces identical content apart from the export timestamp.
// Empty record sets produce empty sections, not errors.
func Compile(p model.Partner, logs []model.OutreachLog, leads []model.Lead, earnings []model.EarningsEntry, exportedAt time.Time) (*Report, error) {
	var summary model.OutreachSummary
	for _, l := range logs {
		summary.TotalOutreach += l.Count
		summary.TotalInterested += l.Interested
		summary.Entries++
	}

	var total int64
	rows := make([]EarningsRow, 0, len(earnings))
	for _, e := range earnings {
		if derived := commission.AmountPaise(e.DealValue, e.CommissionPercentage); derived != e.Amount {
			return nil, fmt.Errorf("%w: entry %s has %d, derived %d", ErrAmountMismatch, e.ID, e.Amount, derived)
		}
		if e.Status == model.EarningsStatusPaid {
			total += e.Amount
		}
		rows = append(rows, EarningsRow{
			ClosedDate:           e.DealClosedDate,
			ClientName:           e.ClientName,
			DealValue:            e.DealValue,
			CommissionPercentage: e.CommissionPercentage,
			Amount:               e.Amount,
			Status:               e.Status,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ClosedDate.Before(rows[j].ClosedDate)
	})

	leadRows := make([]LeadRow, 0, len(leads))
	for _, l := range leads {
		leadRows = append(leadRows, LeadRow{
			CreatedAt:      l.CreatedAt,
			BusinessName:   l.BusinessName,
			ContactPerson:  l.ContactPerson,
			SourcePlatform: l.SourcePlatform,
			Status:         l.Status,
		})
	}
	sort.SliceStable(leadRows, func(i, j int) bool {
		return leadRows[i].CreatedAt.Before(leadRows[j].CreatedAt)
	})

	return &Report{
		Header: Header{
			PartnerName:   p.Name,
			Email:         p.Email,
			Stage:         p.Stage,
			EarningsTotal: total,
			ExportedAt:    exportedAt,
		},
		Outreach: summary,
		Earnings: rows,
		Leads:    leadRows,
	}, nil
}
