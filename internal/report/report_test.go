package report

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/framenflow/partner-system/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func janeDoe() (model.Partner, []model.OutreachLog, []model.Lead, []model.EarningsEntry) {
	partner := model.Partner{
		ID:    "p-1",
		Name:  "Jane Doe",
		Email: "jane@example.com",
		Stage: model.StageActive,
	}
	logs := []model.OutreachLog{
		{ID: "l-1", PartnerID: "p-1", LogDate: day(2025, time.March, 3), Channel: "instagram", Count: 50, Interested: 5},
	}
	leads := []model.Lead{
		{ID: "ld-1", PartnerID: "p-1", BusinessName: "Acme Decor", SourcePlatform: "instagram",
			Status: model.LeadStatusConverted, CreatedAt: day(2025, time.March, 10)},
	}
	earnings := []model.EarningsEntry{
		{ID: "e-1", PartnerID: "p-1", ClientName: "Acme Decor", DealValue: 800000,
			CommissionPercentage: 25, Amount: 200000, Status: model.EarningsStatusPaid,
			DealClosedDate: day(2025, time.April, 1)},
	}
	return partner, logs, leads, earnings
}

func TestCompileScenario(t *testing.T) {
	partner, logs, leads, earnings := janeDoe()

	r, err := Compile(partner, logs, leads, earnings, day(2025, time.May, 1))
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	if r.Header.PartnerName != "Jane Doe" || r.Header.Email != "jane@example.com" {
		t.Fatalf("unexpected header identity: %+v", r.Header)
	}
	if r.Header.EarningsTotal != 200000 {
		t.Fatalf("earnings total = %d paise, want 200000", r.Header.EarningsTotal)
	}
	if r.Outreach.TotalOutreach != 50 || r.Outreach.TotalInterested != 5 || r.Outreach.Entries != 1 {
		t.Fatalf("unexpected outreach summary: %+v", r.Outreach)
	}
	if len(r.Earnings) != 1 || len(r.Leads) != 1 {
		t.Fatalf("expected one row per section, got %d earnings and %d leads", len(r.Earnings), len(r.Leads))
	}
	if r.Earnings[0].Amount != 200000 {
		t.Fatalf("earnings row amount = %d, want 200000", r.Earnings[0].Amount)
	}
}

func TestCompileEmptySections(t *testing.T) {
	partner := model.Partner{ID: "p-2", Name: "Empty Partner", Email: "empty@example.com", Stage: model.StageApplicant}

	r, err := Compile(partner, nil, nil, nil, day(2025, time.May, 1))
	if err != nil {
		t.Fatalf("Compile error for empty records: %v", err)
	}
	if r.Header.EarningsTotal != 0 {
		t.Fatalf("earnings total = %d, want 0", r.Header.EarningsTotal)
	}
	if len(r.Earnings) != 0 || len(r.Leads) != 0 {
		t.Fatalf("expected empty sections")
	}
	if r.Outreach != (model.OutreachSummary{}) {
		t.Fatalf("expected zero outreach summary, got %+v", r.Outreach)
	}
}

func TestCompileDeterministic(t *testing.T) {
	partner, logs, leads, earnings := janeDoe()

	a, err := Compile(partner, logs, leads, earnings, day(2025, time.May, 1))
	if err != nil {
		t.Fatalf("first Compile error: %v", err)
	}
	b, err := Compile(partner, logs, leads, earnings, day(2025, time.June, 15))
	if err != nil {
		t.Fatalf("second Compile error: %v", err)
	}

	// Identical content apart from the export timestamp.
	b.Header.ExportedAt = a.Header.ExportedAt
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("reports differ beyond export timestamp:\n%+v\n%+v", a, b)
	}
}

func TestCompileOrdersSectionsAscending(t *testing.T) {
	partner := model.Partner{ID: "p-3", Name: "Order Check", Email: "order@example.com", Stage: model.StageActive}
	earnings := []model.EarningsEntry{
		{ID: "e-2", DealValue: 100000, CommissionPercentage: 10, Amount: 10000,
			Status: model.EarningsStatusPending, DealClosedDate: day(2025, time.April, 20)},
		{ID: "e-1", DealValue: 100000, CommissionPercentage: 10, Amount: 10000,
			Status: model.EarningsStatusPaid, DealClosedDate: day(2025, time.February, 1)},
	}
	leads := []model.Lead{
		{ID: "ld-2", BusinessName: "Later", SourcePlatform: "x", Status: model.LeadStatusNew, CreatedAt: day(2025, time.March, 9)},
		{ID: "ld-1", BusinessName: "Earlier", SourcePlatform: "x", Status: model.LeadStatusNew, CreatedAt: day(2025, time.January, 2)},
	}

	r, err := Compile(partner, nil, leads, earnings, day(2025, time.May, 1))
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	if !r.Earnings[0].ClosedDate.Before(r.Earnings[1].ClosedDate) {
		t.Fatalf("earnings rows not ordered by closed date ascending")
	}
	if r.Leads[0].BusinessName != "Earlier" {
		t.Fatalf("lead rows not ordered by created_at ascending")
	}
}

func TestCompileDetectsAmountMismatch(t *testing.T) {
	partner, logs, leads, earnings := janeDoe()
	earnings[0].Amount = 199999 // tampered

	_, err := Compile(partner, logs, leads, earnings, day(2025, time.May, 1))
	if !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got %v", err)
	}
}

func TestCompileExcludesUnpaidFromTotal(t *testing.T) {
	partner := model.Partner{ID: "p-4", Name: "Totals", Email: "totals@example.com", Stage: model.StageActive}
	earnings := []model.EarningsEntry{
		{ID: "e-1", DealValue: 100000, CommissionPercentage: 10, Amount: 10000,
			Status: model.EarningsStatusPaid, DealClosedDate: day(2025, time.January, 1)},
		{ID: "e-2", DealValue: 100000, CommissionPercentage: 10, Amount: 10000,
			Status: model.EarningsStatusPending, DealClosedDate: day(2025, time.January, 2)},
		{ID: "e-3", DealValue: 100000, CommissionPercentage: 10, Amount: 10000,
			Status: model.EarningsStatusReversed, DealClosedDate: day(2025, time.January, 3)},
	}

	r, err := Compile(partner, nil, nil, earnings, day(2025, time.May, 1))
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if r.Header.EarningsTotal != 10000 {
		t.Fatalf("earnings total = %d, want 10000 (paid entries only)", r.Header.EarningsTotal)
	}
	if len(r.Earnings) != 3 {
		t.Fatalf("history must list all entries regardless of status, got %d", len(r.Earnings))
	}
}

func TestFileName(t *testing.T) {
	r := &Report{Header: Header{
		PartnerName: "Jane  Doe",
		ExportedAt:  day(2025, time.May, 1),
	}}

	got := FileName(r)
	want := "Jane_Doe_Activity_Report_2025-05-01.pdf"
	if got != want {
		t.Fatalf("FileName = %q, want %q", got, want)
	}
}

func TestRenderPDF(t *testing.T) {
	partner, logs, leads, earnings := janeDoe()

	r, err := Compile(partner, logs, leads, earnings, day(2025, time.May, 1))
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	out, err := RenderPDF(r)
	if err != nil {
		t.Fatalf("RenderPDF error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF document")
	}
}

func TestRenderPDFPaginatesLongTables(t *testing.T) {
	partner := model.Partner{ID: "p-5", Name: "Busy Partner", Email: "busy@example.com", Stage: model.StageFullTime}

	var earnings []model.EarningsEntry
	for i := 0; i < 80; i++ {
		earnings = append(earnings, model.EarningsEntry{
			ID:                   "e",
			ClientName:           "Client",
			DealValue:            100000,
			CommissionPercentage: 20,
			Amount:               20000,
			Status:               model.EarningsStatusPaid,
			DealClosedDate:       day(2025, time.January, 1).AddDate(0, 0, i),
		})
	}

	r, err := Compile(partner, nil, nil, earnings, day(2025, time.May, 1))
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	out, err := RenderPDF(r)
	if err != nil {
		t.Fatalf("RenderPDF error: %v", err)
	}
	// 80 rows cannot fit one A4 page. The count includes the single
	// "/Type /Pages" tree node, so a multi-page document has at least 3.
	if count := bytes.Count(out, []byte("/Type /Page")); count < 3 {
		t.Fatalf("expected a multi-page document, found %d page objects", count)
	}
}
