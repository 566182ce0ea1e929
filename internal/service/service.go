// Package service implements the business rules of the partner system.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/framenflow/partner-system/internal/commission"
	"github.com/framenflow/partner-system/internal/model"
	"github.com/framenflow/partner-system/internal/notify"
	"github.com/framenflow/partner-system/internal/report"
	"github.com/framenflow/partner-system/internal/validation"
)

// ErrInvalidEmail is returned for a syntactically invalid email address.
var (
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidCount is returned for a negative outreach count.
	ErrInvalidCount = errors.New("outreach count must not be negative")
	// ErrInterestedExceedsCount is returned when an outreach log claims more
	// interested prospects than outreach actions.
	ErrInterestedExceedsCount = errors.New("interested must not exceed count")
	// ErrInvalidDealValue is returned for a non-positive deal value.
	ErrInvalidDealValue = errors.New("deal value must be positive")
	// ErrInvalidCommission is returned for a commission percentage outside 0-100.
	ErrInvalidCommission = errors.New("commission percentage must be between 0 and 100")
	// ErrInvalidStage is returned for an unknown partner stage.
	ErrInvalidStage = errors.New("unknown partner stage")
	// ErrInvalidCredentials is returned when a login attempt fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Repository describes the data access contract used by the service.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateApplication(ctx context.Context, a model.Application) (model.Application, error)
	GetApplications(ctx context.Context) ([]model.Application, error)
	GetApplicationByID(ctx context.Context, appID string) (*model.Application, error)
	RejectApplication(ctx context.Context, appID string) error
	ApproveApplication(ctx context.Context, appID string, user model.User, partner model.Partner) (model.User, model.Partner, error)
	GetPartnerByID(ctx context.Context, partnerID string) (*model.Partner, error)
	ListPartners(ctx context.Context) ([]model.Partner, error)
	UpdatePartnerStage(ctx context.Context, partnerID string, stage model.PartnerStage) error
	CreateOutreachLog(ctx context.Context, l model.OutreachLog) (model.OutreachLog, error)
	GetOutreachLogsByPartner(ctx context.Context, partnerID string) ([]model.OutreachLog, error)
	OutreachTotals(ctx context.Context, partnerID string) (model.OutreachSummary, error)
	CreateLead(ctx context.Context, l model.Lead) (model.Lead, error)
	GetLeadsByPartner(ctx context.Context, partnerID string) ([]model.Lead, error)
	TransitionLead(ctx context.Context, partnerID, leadID string, to model.LeadStatus) (model.Lead, error)
	CreateEarning(ctx context.Context, e model.EarningsEntry) (model.EarningsEntry, error)
	GetEarningsByPartner(ctx context.Context, partnerID string) ([]model.EarningsEntry, error)
	MarkEarningPaid(ctx context.Context, entryID string) (model.EarningsEntry, bool, error)
	MarkEarningReversed(ctx context.Context, entryID string) (model.EarningsEntry, bool, error)
	EarningsTotal(ctx context.Context, partnerID string) (int64, error)
}

// Service contains the business logic of the partner system.
type Service struct {
	repo     Repository
	notifier *notify.Client
}

// NewService creates a service with the given repository and webhook client.
// The notifier may be nil when no endpoint is configured.
func NewService(repo Repository, notifier *notify.Client) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
	}
}

// Close releases the service resources.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// SubmitApplication stores a new partner application.
func (s *Service) SubmitApplication(ctx context.Context, a model.Application) (model.Application, error) {
	if !validation.IsValidEmail(a.Email) {
		return model.Application{}, fmt.Errorf("%w: %s", ErrInvalidEmail, a.Email)
	}
	return s.repo.CreateApplication(ctx, a)
}

// GetApplications returns all applications, newest first.
func (s *Service) GetApplications(ctx context.Context) ([]model.Application, error) {
	return s.repo.GetApplications(ctx)
}

// Credentials are the generated login details for a newly approved partner.
type Credentials struct {
	Username string
	Password string
}

// ReviewApplication approves or rejects a pending application. Approval
// creates the login user and the partner record (stage Applicant) and
// returns the generated credentials for the admin to hand over.
func (s *Service) ReviewApplication(ctx context.Context, appID string, approve bool) (*Credentials, error) {
	if !approve {
		if err := s.repo.RejectApplication(ctx, appID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	app, err := s.repo.GetApplicationByID(ctx, appID)
	if err != nil {
		return nil, err
	}

	username := generateUsername(app.Email)
	password, err := generatePassword()
	if err != nil {
		return nil, err
	}

	user := model.User{
		Username:     username,
		PasswordHash: hashPassword(username, password),
		Role:         model.RolePartner,
		Name:         app.FullName,
		Email:        app.Email,
	}
	partner := model.Partner{
		Name:  app.FullName,
		Email: app.Email,
		Stage: model.StageApplicant,
	}

	_, createdPartner, err := s.repo.ApproveApplication(ctx, appID, user, partner)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		// Delivery failures are the notifier's concern; the approval is
		// already committed.
		_ = s.notifier.PartnerApproved(ctx, createdPartner.ID, createdPartner.Name, createdPartner.Email)
	}

	return &Credentials{Username: username, Password: password}, nil
}

// Authenticate verifies a username and password and returns the user.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	hashed := hashPassword(username, password)
	if hex.EncodeToString(hashed) != hex.EncodeToString(u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

func hashPassword(username, password string) []byte {
	sum := sha256.Sum256([]byte(username + ":" + password))
	return sum[:]
}

func generateUsername(email string) string {
	local := email
	if i := strings.Index(email, "@"); i > 0 {
		local = email[:i]
	}
	suffix := make([]byte, 2)
	if _, err := rand.Read(suffix); err == nil {
		return local + hex.EncodeToString(suffix)
	}
	return local
}

func generatePassword() (string, error) {
	raw := make([]byte, 8)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// GetProfile returns a partner with the derived paid earnings total.
func (s *Service) GetProfile(ctx context.Context, partnerID string) (*model.Partner, error) {
	p, err := s.repo.GetPartnerByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.EarningsTotal(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	p.EarningsTotal = total

	return p, nil
}

// ListPartners returns all partners with derived earnings totals.
func (s *Service) ListPartners(ctx context.Context) ([]model.Partner, error) {
	return s.repo.ListPartners(ctx)
}

// SetPartnerStage sets a partner's stage. Stage changes are manual admin
// decisions; nothing in the system promotes partners automatically.
func (s *Service) SetPartnerStage(ctx context.Context, partnerID string, stage model.PartnerStage) error {
	if !validation.IsValidStage(stage) {
		return fmt.Errorf("%w: %s", ErrInvalidStage, stage)
	}
	return s.repo.UpdatePartnerStage(ctx, partnerID, stage)
}

// RecordOutreach appends an outreach log entry. Entries are never updated
// in place; a correction is another entry.
func (s *Service) RecordOutreach(ctx context.Context, l model.OutreachLog) (model.OutreachLog, error) {
	if l.Count < 0 || l.Interested < 0 {
		return model.OutreachLog{}, ErrInvalidCount
	}
	if l.Interested > l.Count {
		return model.OutreachLog{}, fmt.Errorf("%w: %d > %d", ErrInterestedExceedsCount, l.Interested, l.Count)
	}
	return s.repo.CreateOutreachLog(ctx, l)
}

// OutreachActivity returns a partner's outreach logs together with the
// read-time aggregates.
func (s *Service) OutreachActivity(ctx context.Context, partnerID string) ([]model.OutreachLog, model.OutreachSummary, error) {
	logs, err := s.repo.GetOutreachLogsByPartner(ctx, partnerID)
	if err != nil {
		return nil, model.OutreachSummary{}, err
	}
	summary, err := s.repo.OutreachTotals(ctx, partnerID)
	if err != nil {
		return nil, model.OutreachSummary{}, err
	}
	return logs, summary, nil
}

// CreateLead stores a new lead with status NEW.
func (s *Service) CreateLead(ctx context.Context, l model.Lead) (model.Lead, error) {
	if l.BusinessName == "" {
		return model.Lead{}, errors.New("business name is required")
	}
	if l.SourcePlatform == "" {
		return model.Lead{}, errors.New("source platform is required")
	}
	return s.repo.CreateLead(ctx, l)
}

// GetLeads returns a partner's leads ordered by creation time.
func (s *Service) GetLeads(ctx context.Context, partnerID string) ([]model.Lead, error) {
	return s.repo.GetLeadsByPartner(ctx, partnerID)
}

// TransitionLead moves a lead through the pipeline state machine.
func (s *Service) TransitionLead(ctx context.Context, partnerID, leadID string, to model.LeadStatus) (model.Lead, error) {
	if !validation.IsValidLeadStatus(to) {
		return model.Lead{}, fmt.Errorf("unknown lead status: %s", to)
	}
	return s.repo.TransitionLead(ctx, partnerID, leadID, to)
}

// AppendEarning appends a ledger entry for a closed deal. The amount is
// derived from the deal value and commission percentage at append time.
func (s *Service) AppendEarning(ctx context.Context, partnerID, clientName string, dealValuePaise int64, percentage int, closedDate time.Time) (model.EarningsEntry, error) {
	if clientName == "" {
		return model.EarningsEntry{}, errors.New("client name is required")
	}
	if dealValuePaise <= 0 {
		return model.EarningsEntry{}, ErrInvalidDealValue
	}
	if percentage < 0 || percentage > 100 {
		return model.EarningsEntry{}, fmt.Errorf("%w: %d", ErrInvalidCommission, percentage)
	}

	entry := model.EarningsEntry{
		PartnerID:            partnerID,
		ClientName:           clientName,
		DealValue:            dealValuePaise,
		CommissionPercentage: percentage,
		Amount:               commission.AmountPaise(dealValuePaise, percentage),
		DealClosedDate:       closedDate,
	}
	return s.repo.CreateEarning(ctx, entry)
}

// MarkEarningPaid transitions an entry to PAID. Calling it again on a paid
// entry is a no-op.
func (s *Service) MarkEarningPaid(ctx context.Context, entryID string) (model.EarningsEntry, error) {
	entry, changed, err := s.repo.MarkEarningPaid(ctx, entryID)
	if err != nil {
		return model.EarningsEntry{}, err
	}

	if changed && s.notifier != nil {
		_ = s.notifier.EarningPaid(ctx, entry.PartnerID, entry.ID, entry.Amount)
	}

	return entry, nil
}

// MarkEarningReversed transitions an entry to REVERSED.
func (s *Service) MarkEarningReversed(ctx context.Context, entryID string) (model.EarningsEntry, error) {
	entry, _, err := s.repo.MarkEarningReversed(ctx, entryID)
	if err != nil {
		return model.EarningsEntry{}, err
	}
	return entry, nil
}

// CompileReport assembles the activity report for one partner. It performs
// no writes; an abandoned compilation has no side effects.
func (s *Service) CompileReport(ctx context.Context, partnerID string) (*report.Report, error) {
	p, err := s.repo.GetPartnerByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	logs, err := s.repo.GetOutreachLogsByPartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	leads, err := s.repo.GetLeadsByPartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	earnings, err := s.repo.GetEarningsByPartner(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	return report.Compile(*p, logs, leads, earnings, time.Now().UTC())
}
