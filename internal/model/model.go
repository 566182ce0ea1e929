// Package model contains the domain entities of the growth partner system.
package model

import "time"

// PartnerStage describes where a partner is in the program lifecycle.
// Stage changes are admin decisions, never automatic.
type PartnerStage string

const (
	StageApplicant PartnerStage = "APPLICANT"
	StageActive    PartnerStage = "ACTIVE"
	StageInactive  PartnerStage = "INACTIVE"
	StageFullTime  PartnerStage = "FULL_TIME"
)

// LeadStatus describes the pipeline state of a lead.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "NEW"
	LeadStatusContacted LeadStatus = "CONTACTED"
	LeadStatusQualified LeadStatus = "QUALIFIED"
	LeadStatusBooked    LeadStatus = "BOOKED"
	LeadStatusLost      LeadStatus = "LOST"
	LeadStatusConverted LeadStatus = "CONVERTED"
)

// EarningsStatus describes the payout state of a ledger entry.
type EarningsStatus string

const (
	EarningsStatusPending  EarningsStatus = "PENDING"
	EarningsStatusPaid     EarningsStatus = "PAID"
	EarningsStatusReversed EarningsStatus = "REVERSED"
)

// ApplicationStatus describes the review state of a partner application.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "PENDING"
	ApplicationStatusApproved ApplicationStatus = "APPROVED"
	ApplicationStatusRejected ApplicationStatus = "REJECTED"
)

// Role describes a dashboard user role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RolePartner Role = "partner"
)

// User represents a dashboard login account.
type User struct {
	ID           string
	Username     string
	PasswordHash []byte
	Role         Role
	Name         string
	Email        string
	PartnerID    string // empty for admins
	CreatedAt    time.Time
}

// Application represents a submitted growth partner application.
type Application struct {
	ID         string
	FullName   string
	Email      string
	Phone      string
	City       string
	Background string
	Experience bool
	Reason     string
	Platforms  []string
	Status     ApplicationStatus
	CreatedAt  time.Time
}

// Partner represents an enrolled growth partner.
// EarningsTotal is in paise, derived at read time as the sum of paid
// ledger entries; it is never stored.
type Partner struct {
	ID            string
	ApplicationID string
	Name          string
	Email         string
	Stage         PartnerStage
	EarningsTotal int64
	CreatedAt     time.Time
}

// OutreachLog records one batch of outreach actions for a day and channel.
// Entries are append-only; a correction is a new entry.
type OutreachLog struct {
	ID         string
	PartnerID  string
	LogDate    time.Time
	Channel    string
	Count      int
	Interested int
	Notes      string
	CreatedAt  time.Time
}

// OutreachSummary aggregates a partner's outreach logs at read time.
type OutreachSummary struct {
	TotalOutreach   int
	TotalInterested int
	Entries         int
}

// Lead represents a prospect sourced by a partner.
type Lead struct {
	ID             string
	PartnerID      string
	BusinessName   string
	ContactPerson  string
	SourcePlatform string
	Status         LeadStatus
	CreatedAt      time.Time
}

// EarningsEntry represents commission for one closed deal.
// DealValue and Amount are in paise; Amount is always derivable from
// DealValue and CommissionPercentage, a stored mismatch is a data error.
type EarningsEntry struct {
	ID                   string
	PartnerID            string
	ClientName           string
	DealValue            int64
	CommissionPercentage int
	Amount               int64
	Status               EarningsStatus
	DealClosedDate       time.Time
	PaidAt               *time.Time
	CreatedAt            time.Time
}
