// Package validation contains input validation for the partner system.
package validation

import (
	"github.com/badoux/checkmail"

	"github.com/framenflow/partner-system/internal/model"
)

// leadTransitions lists the permitted lead status transitions.
// Forward path: New -> Contacted -> Qualified -> Booked -> Converted.
// Any non-terminal status may move to Lost. Converted and Lost are terminal.
var leadTransitions = map[model.LeadStatus][]model.LeadStatus{
	model.LeadStatusNew:       {model.LeadStatusContacted, model.LeadStatusLost},
	model.LeadStatusContacted: {model.LeadStatusQualified, model.LeadStatusLost},
	model.LeadStatusQualified: {model.LeadStatusBooked, model.LeadStatusLost},
	model.LeadStatusBooked:    {model.LeadStatusConverted, model.LeadStatusLost},
}

// IsValidLeadTransition reports whether a lead may move from one status to another.
func IsValidLeadTransition(from, to model.LeadStatus) bool {
	for _, allowed := range leadTransitions[from] {
		if to == allowed {
			return true
		}
	}
	return false
}

// IsValidEmail reports whether the address is syntactically valid.
func IsValidEmail(email string) bool {
	return checkmail.ValidateFormat(email) == nil
}

// IsValidStage reports whether the value is a known partner stage.
func IsValidStage(stage model.PartnerStage) bool {
	switch stage {
	case model.StageApplicant, model.StageActive, model.StageInactive, model.StageFullTime:
		return true
	}
	return false
}

// IsValidLeadStatus reports whether the value is a known lead status.
func IsValidLeadStatus(status model.LeadStatus) bool {
	switch status {
	case model.LeadStatusNew, model.LeadStatusContacted, model.LeadStatusQualified,
		model.LeadStatusBooked, model.LeadStatusLost, model.LeadStatusConverted:
		return true
	}
	return false
}
