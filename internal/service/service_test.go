package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/framenflow/partner-system/internal/model"
	"github.com/framenflow/partner-system/internal/repository"
)

type stubRepo struct {
	createdLogs []model.OutreachLog
	createLogErr error

	createdLeads []model.Lead

	createdEarnings []model.EarningsEntry

	getUser    *model.User
	getUserErr error

	application    *model.Application
	applicationErr error

	approvedUser    model.User
	approvedPartner model.Partner
	approveErr      error

	partner    *model.Partner
	partnerErr error

	earningsTotal int64
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	return u, nil
}

func (s *stubRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.getUser, s.getUserErr
}

func (s *stubRepo) CreateApplication(ctx context.Context, a model.Application) (model.Application, error) {
	a.ID = "app-1"
	a.Status = model.ApplicationStatusPending
	return a, nil
}

func (s *stubRepo) GetApplications(ctx context.Context) ([]model.Application, error) {
	return nil, nil
}

func (s *stubRepo) GetApplicationByID(ctx context.Context, appID string) (*model.Application, error) {
	return s.application, s.applicationErr
}

func (s *stubRepo) RejectApplication(ctx context.Context, appID string) error {
	return nil
}

func (s *stubRepo) ApproveApplication(ctx context.Context, appID string, user model.User, partner model.Partner) (model.User, model.Partner, error) {
	if s.approveErr != nil {
		return model.User{}, model.Partner{}, s.approveErr
	}
	s.approvedUser = user
	s.approvedPartner = partner
	partner.ID = "p-1"
	return user, partner, nil
}

func (s *stubRepo) GetPartnerByID(ctx context.Context, partnerID string) (*model.Partner, error) {
	return s.partner, s.partnerErr
}

func (s *stubRepo) ListPartners(ctx context.Context) ([]model.Partner, error) {
	return nil, nil
}

func (s *stubRepo) UpdatePartnerStage(ctx context.Context, partnerID string, stage model.PartnerStage) error {
	return nil
}

func (s *stubRepo) CreateOutreachLog(ctx context.Context, l model.OutreachLog) (model.OutreachLog, error) {
	if s.createLogErr != nil {
		return model.OutreachLog{}, s.createLogErr
	}
	s.createdLogs = append(s.createdLogs, l)
	return l, nil
}

func (s *stubRepo) GetOutreachLogsByPartner(ctx context.Context, partnerID string) ([]model.OutreachLog, error) {
	return s.createdLogs, nil
}

func (s *stubRepo) OutreachTotals(ctx context.Context, partnerID string) (model.OutreachSummary, error) {
	var sum model.OutreachSummary
	for _, l := range s.createdLogs {
		sum.TotalOutreach += l.Count
		sum.TotalInterested += l.Interested
		sum.Entries++
	}
	return sum, nil
}

func (s *stubRepo) CreateLead(ctx context.Context, l model.Lead) (model.Lead, error) {
	l.Status = model.LeadStatusNew
	s.createdLeads = append(s.createdLeads, l)
	return l, nil
}

func (s *stubRepo) GetLeadsByPartner(ctx context.Context, partnerID string) ([]model.Lead, error) {
	return s.createdLeads, nil
}

func (s *stubRepo) TransitionLead(ctx context.Context, partnerID, leadID string, to model.LeadStatus) (model.Lead, error) {
	return model.Lead{}, nil
}

func (s *stubRepo) CreateEarning(ctx context.Context, e model.EarningsEntry) (model.EarningsEntry, error) {
	s.createdEarnings = append(s.createdEarnings, e)
	return e, nil
}

func (s *stubRepo) GetEarningsByPartner(ctx context.Context, partnerID string) ([]model.EarningsEntry, error) {
	return s.createdEarnings, nil
}

func (s *stubRepo) MarkEarningPaid(ctx context.Context, entryID string) (model.EarningsEntry, bool, error) {
	return model.EarningsEntry{}, false, nil
}

func (s *stubRepo) MarkEarningReversed(ctx context.Context, entryID string) (model.EarningsEntry, bool, error) {
	return model.EarningsEntry{}, false, nil
}

func (s *stubRepo) EarningsTotal(ctx context.Context, partnerID string) (int64, error) {
	return s.earningsTotal, nil
}

func TestHashPasswordDeterministic(t *testing.T) {
	a := hashPassword("user", "pass")
	b := hashPassword("user", "pass")
	c := hashPassword("user", "other")

	if string(a) != string(b) {
		t.Fatalf("hashPassword must be deterministic, got %x and %x", a, b)
	}
	if string(a) == string(c) {
		t.Fatalf("different passwords must produce different hashes")
	}
}

func TestRecordOutreach_Valid(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	_, err := svc.RecordOutreach(context.Background(), model.OutreachLog{
		PartnerID: "p-1", Count: 50, Interested: 5,
	})
	if err != nil {
		t.Fatalf("RecordOutreach error: %v", err)
	}

	_, sum, err := svc.OutreachActivity(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("OutreachActivity error: %v", err)
	}
	if sum.TotalOutreach != 50 || sum.TotalInterested != 5 || sum.Entries != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.TotalInterested > sum.TotalOutreach {
		t.Fatalf("interested total exceeds outreach total")
	}
}

func TestRecordOutreach_InterestedExceedsCount(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	_, err := svc.RecordOutreach(context.Background(), model.OutreachLog{
		PartnerID: "p-1", Count: 5, Interested: 6,
	})
	if !errors.Is(err, ErrInterestedExceedsCount) {
		t.Fatalf("expected ErrInterestedExceedsCount, got %v", err)
	}
	if len(repo.createdLogs) != 0 {
		t.Fatalf("invalid entry must not be stored")
	}
}

func TestRecordOutreach_NegativeCount(t *testing.T) {
	svc := NewService(&stubRepo{}, nil)

	_, err := svc.RecordOutreach(context.Background(), model.OutreachLog{
		PartnerID: "p-1", Count: -1, Interested: 0,
	})
	if !errors.Is(err, ErrInvalidCount) {
		t.Fatalf("expected ErrInvalidCount, got %v", err)
	}
}

func TestAppendEarning_DerivesAmount(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	entry, err := svc.AppendEarning(context.Background(), "p-1", "Acme Decor", 800000, 25,
		time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("AppendEarning error: %v", err)
	}
	if entry.Amount != 200000 {
		t.Fatalf("amount = %d paise, want 200000", entry.Amount)
	}
}

func TestAppendEarning_Validation(t *testing.T) {
	svc := NewService(&stubRepo{}, nil)
	closed := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

	if _, err := svc.AppendEarning(context.Background(), "p-1", "Acme", 0, 25, closed); !errors.Is(err, ErrInvalidDealValue) {
		t.Fatalf("expected ErrInvalidDealValue for zero deal value, got %v", err)
	}
	if _, err := svc.AppendEarning(context.Background(), "p-1", "Acme", -100, 25, closed); !errors.Is(err, ErrInvalidDealValue) {
		t.Fatalf("expected ErrInvalidDealValue for negative deal value, got %v", err)
	}
	if _, err := svc.AppendEarning(context.Background(), "p-1", "Acme", 100000, 101, closed); !errors.Is(err, ErrInvalidCommission) {
		t.Fatalf("expected ErrInvalidCommission, got %v", err)
	}
}

func TestSubmitApplication_InvalidEmail(t *testing.T) {
	svc := NewService(&stubRepo{}, nil)

	_, err := svc.SubmitApplication(context.Background(), model.Application{
		FullName: "Jane Doe",
		Email:    "not-an-email",
	})
	if !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestReviewApplication_Approve(t *testing.T) {
	repo := &stubRepo{
		application: &model.Application{
			ID:       "app-1",
			FullName: "Jane Doe",
			Email:    "jane@example.com",
			Status:   model.ApplicationStatusPending,
		},
	}
	svc := NewService(repo, nil)

	creds, err := svc.ReviewApplication(context.Background(), "app-1", true)
	if err != nil {
		t.Fatalf("ReviewApplication error: %v", err)
	}
	if creds == nil || creds.Username == "" || creds.Password == "" {
		t.Fatalf("expected generated credentials, got %+v", creds)
	}
	if repo.approvedPartner.Stage != model.StageApplicant {
		t.Fatalf("new partner stage = %s, want %s", repo.approvedPartner.Stage, model.StageApplicant)
	}
	if repo.approvedUser.Role != model.RolePartner {
		t.Fatalf("new user role = %s, want %s", repo.approvedUser.Role, model.RolePartner)
	}
	if string(repo.approvedUser.PasswordHash) != string(hashPassword(creds.Username, creds.Password)) {
		t.Fatalf("stored hash does not match generated credentials")
	}
}

func TestReviewApplication_PropagatesNotFound(t *testing.T) {
	repo := &stubRepo{applicationErr: repository.ErrApplicationNotFound}
	svc := NewService(repo, nil)

	_, err := svc.ReviewApplication(context.Background(), "missing", true)
	if !errors.Is(err, repository.ErrApplicationNotFound) {
		t.Fatalf("expected ErrApplicationNotFound, got %v", err)
	}
}

func TestAuthenticate_InvalidCredentials(t *testing.T) {
	hashed := hashPassword("user", "correct")
	repo := &stubRepo{
		getUser: &model.User{
			ID:           "u-1",
			Username:     "user",
			PasswordHash: hashed,
			Role:         model.RolePartner,
		},
	}
	svc := NewService(repo, nil)

	_, err := svc.Authenticate(context.Background(), "user", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	u, err := svc.Authenticate(context.Background(), "user", "correct")
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if u.ID != "u-1" {
		t.Fatalf("user id = %s, want u-1", u.ID)
	}
}

func TestSetPartnerStage_RejectsUnknownStage(t *testing.T) {
	svc := NewService(&stubRepo{}, nil)

	err := svc.SetPartnerStage(context.Background(), "p-1", model.PartnerStage("ELITE"))
	if !errors.Is(err, ErrInvalidStage) {
		t.Fatalf("expected ErrInvalidStage, got %v", err)
	}
}

func TestGetProfile_FillsEarningsTotal(t *testing.T) {
	repo := &stubRepo{
		partner:       &model.Partner{ID: "p-1", Name: "Jane Doe", Stage: model.StageActive},
		earningsTotal: 200000,
	}
	svc := NewService(repo, nil)

	p, err := svc.GetProfile(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("GetProfile error: %v", err)
	}
	if p.EarningsTotal != 200000 {
		t.Fatalf("earnings total = %d, want 200000", p.EarningsTotal)
	}
}

// fakeLedger implements real in-memory semantics for the ledger operations
// so the earnings_total invariant can be exercised over random operation
// sequences.
type fakeLedger struct {
	stubRepo
	entries map[string]*model.EarningsEntry
	nextID  int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{entries: make(map[string]*model.EarningsEntry)}
}

func (f *fakeLedger) CreateEarning(ctx context.Context, e model.EarningsEntry) (model.EarningsEntry, error) {
	f.nextID++
	e.ID = fmt.Sprintf("e-%d", f.nextID)
	e.Status = model.EarningsStatusPending
	f.entries[e.ID] = &e
	return e, nil
}

func (f *fakeLedger) MarkEarningPaid(ctx context.Context, entryID string) (model.EarningsEntry, bool, error) {
	e, ok := f.entries[entryID]
	if !ok {
		return model.EarningsEntry{}, false, repository.ErrEarningNotFound
	}
	switch e.Status {
	case model.EarningsStatusPaid:
		return *e, false, nil
	case model.EarningsStatusReversed:
		return model.EarningsEntry{}, false, repository.ErrEarningReversed
	}
	e.Status = model.EarningsStatusPaid
	return *e, true, nil
}

func (f *fakeLedger) MarkEarningReversed(ctx context.Context, entryID string) (model.EarningsEntry, bool, error) {
	e, ok := f.entries[entryID]
	if !ok {
		return model.EarningsEntry{}, false, repository.ErrEarningNotFound
	}
	if e.Status == model.EarningsStatusReversed {
		return *e, false, nil
	}
	e.Status = model.EarningsStatusReversed
	return *e, true, nil
}

func (f *fakeLedger) EarningsTotal(ctx context.Context, partnerID string) (int64, error) {
	var total int64
	for _, e := range f.entries {
		if e.Status == model.EarningsStatusPaid {
			total += e.Amount
		}
	}
	return total, nil
}

func TestMarkEarningPaid_Idempotent(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewService(ledger, nil)
	ctx := context.Background()

	entry, err := svc.AppendEarning(ctx, "p-1", "Acme", 800000, 25, time.Now())
	if err != nil {
		t.Fatalf("AppendEarning error: %v", err)
	}

	first, err := svc.MarkEarningPaid(ctx, entry.ID)
	if err != nil {
		t.Fatalf("first MarkEarningPaid error: %v", err)
	}
	second, err := svc.MarkEarningPaid(ctx, entry.ID)
	if err != nil {
		t.Fatalf("repeated MarkEarningPaid must be a no-op, got error: %v", err)
	}
	if first.Status != model.EarningsStatusPaid || second.Status != model.EarningsStatusPaid {
		t.Fatalf("statuses = %s, %s, want both PAID", first.Status, second.Status)
	}

	total, _ := ledger.EarningsTotal(ctx, "p-1")
	if total != 200000 {
		t.Fatalf("total = %d, want 200000 (no double counting)", total)
	}
}

func TestMarkEarningPaid_RejectsReversed(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewService(ledger, nil)
	ctx := context.Background()

	entry, err := svc.AppendEarning(ctx, "p-1", "Acme", 100000, 20, time.Now())
	if err != nil {
		t.Fatalf("AppendEarning error: %v", err)
	}
	if _, err := svc.MarkEarningReversed(ctx, entry.ID); err != nil {
		t.Fatalf("MarkEarningReversed error: %v", err)
	}

	_, err = svc.MarkEarningPaid(ctx, entry.ID)
	if !errors.Is(err, repository.ErrEarningReversed) {
		t.Fatalf("expected ErrEarningReversed, got %v", err)
	}
}

func TestEarningsTotalInvariant(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewService(ledger, nil)
	ctx := context.Background()

	rng := rand.New(rand.NewSource(1))
	var ids []string
	// Paid amounts tracked from returned entries only, never peeking
	// into the ledger state.
	paid := make(map[string]int64)

	check := func(step int) {
		var want int64
		for _, amount := range paid {
			want += amount
		}
		got, err := ledger.EarningsTotal(ctx, "p-1")
		if err != nil {
			t.Fatalf("step %d: EarningsTotal error: %v", step, err)
		}
		if got != want {
			t.Fatalf("step %d: total = %d, want %d", step, got, want)
		}
	}

	for i := 0; i < 500; i++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(ids) == 0:
			dealValue := int64(rng.Intn(1_000_000) + 1)
			pct := rng.Intn(101)
			entry, err := svc.AppendEarning(ctx, "p-1", "Client", dealValue, pct, time.Now())
			if err != nil {
				t.Fatalf("step %d: AppendEarning error: %v", i, err)
			}
			ids = append(ids, entry.ID)
		case op == 1:
			id := ids[rng.Intn(len(ids))]
			entry, err := svc.MarkEarningPaid(ctx, id)
			if err != nil {
				if !errors.Is(err, repository.ErrEarningReversed) {
					t.Fatalf("step %d: MarkEarningPaid error: %v", i, err)
				}
				break
			}
			paid[entry.ID] = entry.Amount
		default:
			id := ids[rng.Intn(len(ids))]
			if _, err := svc.MarkEarningReversed(ctx, id); err != nil {
				t.Fatalf("step %d: MarkEarningReversed error: %v", i, err)
			}
			delete(paid, id)
		}
		check(i)
	}
}
