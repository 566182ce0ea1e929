package validation

import (
	"testing"

	"github.com/framenflow/partner-system/internal/model"
)

func TestLeadTransitions(t *testing.T) {
	tests := []struct {
		name string
		from model.LeadStatus
		to   model.LeadStatus
		want bool
	}{
		{"forward new to contacted", model.LeadStatusNew, model.LeadStatusContacted, true},
		{"forward contacted to qualified", model.LeadStatusContacted, model.LeadStatusQualified, true},
		{"forward qualified to booked", model.LeadStatusQualified, model.LeadStatusBooked, true},
		{"forward booked to converted", model.LeadStatusBooked, model.LeadStatusConverted, true},
		{"abandon from new", model.LeadStatusNew, model.LeadStatusLost, true},
		{"abandon from booked", model.LeadStatusBooked, model.LeadStatusLost, true},
		{"skip stages", model.LeadStatusNew, model.LeadStatusQualified, false},
		{"backwards", model.LeadStatusQualified, model.LeadStatusContacted, false},
		{"converted is terminal", model.LeadStatusConverted, model.LeadStatusLost, false},
		{"lost is terminal", model.LeadStatusLost, model.LeadStatusContacted, false},
		{"no self transition", model.LeadStatusContacted, model.LeadStatusContacted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidLeadTransition(tt.from, tt.to); got != tt.want {
				t.Fatalf("IsValidLeadTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTerminalStatusesAllowNothing(t *testing.T) {
	all := []model.LeadStatus{
		model.LeadStatusNew, model.LeadStatusContacted, model.LeadStatusQualified,
		model.LeadStatusBooked, model.LeadStatusLost, model.LeadStatusConverted,
	}

	for _, terminal := range []model.LeadStatus{model.LeadStatusConverted, model.LeadStatusLost} {
		for _, to := range all {
			if IsValidLeadTransition(terminal, to) {
				t.Fatalf("transition from terminal %s to %s must be invalid", terminal, to)
			}
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	if !IsValidEmail("jane@example.com") {
		t.Fatalf("expected valid email")
	}
	if IsValidEmail("not-an-email") {
		t.Fatalf("expected invalid email")
	}
	if IsValidEmail("") {
		t.Fatalf("expected invalid empty email")
	}
}

func TestIsValidStage(t *testing.T) {
	if !IsValidStage(model.StageFullTime) {
		t.Fatalf("expected FULL_TIME to be valid")
	}
	if IsValidStage(model.PartnerStage("ELITE")) {
		t.Fatalf("expected unknown stage to be invalid")
	}
}
