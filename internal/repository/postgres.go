// Package repository contains the PostgreSQL data access layer.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/framenflow/partner-system/internal/model"
	"github.com/framenflow/partner-system/internal/validation"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUserExists is returned when creating a user with a taken username.
var (
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when a user lookup finds nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrApplicationNotFound is returned when an application lookup finds nothing.
	ErrApplicationNotFound = errors.New("application not found")
	// ErrApplicationReviewed is returned when reviewing an application twice.
	ErrApplicationReviewed = errors.New("application already reviewed")
	// ErrPartnerExists is returned when a partner with the same email exists.
	ErrPartnerExists = errors.New("partner already exists")
	// ErrPartnerNotFound is returned when a partner lookup finds nothing.
	ErrPartnerNotFound = errors.New("partner not found")
	// ErrLeadNotFound is returned when a lead lookup finds nothing.
	ErrLeadNotFound = errors.New("lead not found")
	// ErrInvalidLeadTransition is returned for a lead status change the
	// pipeline state machine does not permit.
	ErrInvalidLeadTransition = errors.New("invalid lead status transition")
	// ErrEarningNotFound is returned when a ledger entry lookup finds nothing.
	ErrEarningNotFound = errors.New("earnings entry not found")
	// ErrEarningReversed is returned when marking a reversed entry paid.
	ErrEarningReversed = errors.New("earnings entry is reversed")
)

// PostgresRepository provides access to the PostgreSQL store.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a repository and initializes the schema
// through migrations. The initial ping is retried to tolerate a database
// that is still starting up.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close closes the connection pool.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}

// CreateUser creates a dashboard login account.
func (r *PostgresRepository) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()

	var partnerID *string
	if u.PartnerID != "" {
		partnerID = &u.PartnerID
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, password_hash, role, name, email, partner_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Username, u.PasswordHash, string(u.Role), u.Name, u.Email, partnerID, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, fmt.Errorf("%w: %s", ErrUserExists, u.Username)
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns a user by username.
func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, role, name, email, COALESCE(partner_id::text, ''), created_at
		 FROM users WHERE username = $1`,
		username,
	)

	var u model.User
	var role string
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.Name, &u.Email, &u.PartnerID, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Role = model.Role(role)

	return &u, nil
}

// CreateApplication stores a new partner application with status PENDING.
func (r *PostgresRepository) CreateApplication(ctx context.Context, a model.Application) (model.Application, error) {
	a.ID = uuid.NewString()
	a.Status = model.ApplicationStatusPending
	a.CreatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO applications (id, full_name, email, phone, city, background, experience, reason, platforms, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.FullName, a.Email, a.Phone, a.City, a.Background, a.Experience, a.Reason, a.Platforms, string(a.Status), a.CreatedAt,
	)
	if err != nil {
		return model.Application{}, fmt.Errorf("create application: %w", err)
	}
	return a, nil
}

// GetApplications returns all applications, newest first.
func (r *PostgresRepository) GetApplications(ctx context.Context) ([]model.Application, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, full_name, email, phone, city, background, experience, reason, platforms, status, created_at
		 FROM applications
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select applications: %w", err)
	}
	defer rows.Close()

	var res []model.Application
	for rows.Next() {
		var a model.Application
		var status string
		if err := rows.Scan(&a.ID, &a.FullName, &a.Email, &a.Phone, &a.City, &a.Background,
			&a.Experience, &a.Reason, &a.Platforms, &status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		a.Status = model.ApplicationStatus(status)
		res = append(res, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// GetApplicationByID returns one application.
func (r *PostgresRepository) GetApplicationByID(ctx context.Context, appID string) (*model.Application, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, full_name, email, phone, city, background, experience, reason, platforms, status, created_at
		 FROM applications WHERE id = $1`,
		appID,
	)

	var a model.Application
	var status string
	err := row.Scan(&a.ID, &a.FullName, &a.Email, &a.Phone, &a.City, &a.Background,
		&a.Experience, &a.Reason, &a.Platforms, &status, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	a.Status = model.ApplicationStatus(status)

	return &a, nil
}

// RejectApplication marks a pending application rejected.
func (r *PostgresRepository) RejectApplication(ctx context.Context, appID string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE applications SET status = $2 WHERE id = $1 AND status = $3`,
		appID, string(model.ApplicationStatusRejected), string(model.ApplicationStatusPending),
	)
	if err != nil {
		return fmt.Errorf("reject application: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return r.applicationUpdateFailure(ctx, appID)
	}
	return nil
}

// ApproveApplication marks a pending application approved and creates the
// login user and partner record in the same transaction.
func (r *PostgresRepository) ApproveApplication(ctx context.Context, appID string, user model.User, partner model.Partner) (model.User, model.Partner, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.User{}, model.Partner{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM applications WHERE id = $1 FOR UPDATE`,
		appID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.Partner{}, ErrApplicationNotFound
		}
		return model.User{}, model.Partner{}, fmt.Errorf("lock application: %w", err)
	}
	if model.ApplicationStatus(status) != model.ApplicationStatusPending {
		return model.User{}, model.Partner{}, ErrApplicationReviewed
	}

	_, err = tx.Exec(ctx,
		`UPDATE applications SET status = $2 WHERE id = $1`,
		appID, string(model.ApplicationStatusApproved),
	)
	if err != nil {
		return model.User{}, model.Partner{}, fmt.Errorf("approve application: %w", err)
	}

	now := time.Now().UTC()

	partner.ID = uuid.NewString()
	partner.ApplicationID = appID
	partner.CreatedAt = now
	_, err = tx.Exec(ctx,
		`INSERT INTO partners (id, application_id, name, email, stage, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		partner.ID, partner.ApplicationID, partner.Name, partner.Email, string(partner.Stage), partner.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.Partner{}, fmt.Errorf("%w: %s", ErrPartnerExists, partner.Email)
		}
		return model.User{}, model.Partner{}, fmt.Errorf("create partner: %w", err)
	}

	user.ID = uuid.NewString()
	user.PartnerID = partner.ID
	user.CreatedAt = now
	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, username, password_hash, role, name, email, partner_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Username, user.PasswordHash, string(user.Role), user.Name, user.Email, user.PartnerID, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.Partner{}, fmt.Errorf("%w: %s", ErrUserExists, user.Username)
		}
		return model.User{}, model.Partner{}, fmt.Errorf("create user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.User{}, model.Partner{}, fmt.Errorf("commit tx: %w", err)
	}

	return user, partner, nil
}

func (r *PostgresRepository) applicationUpdateFailure(ctx context.Context, appID string) error {
	var status string
	err := r.pool.QueryRow(ctx, `SELECT status FROM applications WHERE id = $1`, appID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrApplicationNotFound
		}
		return fmt.Errorf("get application: %w", err)
	}
	return ErrApplicationReviewed
}

// GetPartnerByID returns a partner record without the derived earnings total.
func (r *PostgresRepository) GetPartnerByID(ctx context.Context, partnerID string) (*model.Partner, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, COALESCE(application_id::text, ''), name, email, stage, created_at
		 FROM partners WHERE id = $1`,
		partnerID,
	)

	var p model.Partner
	var stage string
	err := row.Scan(&p.ID, &p.ApplicationID, &p.Name, &p.Email, &stage, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPartnerNotFound
		}
		return nil, fmt.Errorf("get partner: %w", err)
	}
	p.Stage = model.PartnerStage(stage)

	return &p, nil
}

// ListPartners returns all partners with their derived paid earnings totals.
func (r *PostgresRepository) ListPartners(ctx context.Context) ([]model.Partner, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, COALESCE(p.application_id::text, ''), p.name, p.email, p.stage, p.created_at,
		        COALESCE(SUM(e.amount) FILTER (WHERE e.status = $1), 0)
		 FROM partners p
		 LEFT JOIN earnings e ON e.partner_id = p.id
		 GROUP BY p.id
		 ORDER BY p.created_at`,
		string(model.EarningsStatusPaid),
	)
	if err != nil {
		return nil, fmt.Errorf("select partners: %w", err)
	}
	defer rows.Close()

	var res []model.Partner
	for rows.Next() {
		var p model.Partner
		var stage string
		if err := rows.Scan(&p.ID, &p.ApplicationID, &p.Name, &p.Email, &stage, &p.CreatedAt, &p.EarningsTotal); err != nil {
			return nil, fmt.Errorf("scan partner: %w", err)
		}
		p.Stage = model.PartnerStage(stage)
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// UpdatePartnerStage sets a partner's pipeline stage.
func (r *PostgresRepository) UpdatePartnerStage(ctx context.Context, partnerID string, stage model.PartnerStage) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE partners SET stage = $2 WHERE id = $1`,
		partnerID, string(stage),
	)
	if err != nil {
		return fmt.Errorf("update partner stage: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrPartnerNotFound
	}
	return nil
}

// CreateOutreachLog appends an outreach log entry.
func (r *PostgresRepository) CreateOutreachLog(ctx context.Context, l model.OutreachLog) (model.OutreachLog, error) {
	l.ID = uuid.NewString()
	l.CreatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO outreach_logs (id, partner_id, log_date, channel, count, interested, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID, l.PartnerID, l.LogDate, l.Channel, l.Count, l.Interested, l.Notes, l.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.OutreachLog{}, ErrPartnerNotFound
		}
		return model.OutreachLog{}, fmt.Errorf("create outreach log: %w", err)
	}
	return l, nil
}

// GetOutreachLogsByPartner returns a partner's outreach logs, newest first.
func (r *PostgresRepository) GetOutreachLogsByPartner(ctx context.Context, partnerID string) ([]model.OutreachLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, partner_id, log_date, channel, count, interested, notes, created_at
		 FROM outreach_logs
		 WHERE partner_id = $1
		 ORDER BY log_date DESC, created_at DESC`,
		partnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select outreach logs: %w", err)
	}
	defer rows.Close()

	var res []model.OutreachLog
	for rows.Next() {
		var l model.OutreachLog
		if err := rows.Scan(&l.ID, &l.PartnerID, &l.LogDate, &l.Channel, &l.Count, &l.Interested, &l.Notes, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outreach log: %w", err)
		}
		res = append(res, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// OutreachTotals computes a partner's outreach aggregates at read time.
func (r *PostgresRepository) OutreachTotals(ctx context.Context, partnerID string) (model.OutreachSummary, error) {
	var s model.OutreachSummary
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(count), 0), COALESCE(SUM(interested), 0), COUNT(*)
		 FROM outreach_logs
		 WHERE partner_id = $1`,
		partnerID,
	).Scan(&s.TotalOutreach, &s.TotalInterested, &s.Entries)
	if err != nil {
		return model.OutreachSummary{}, fmt.Errorf("sum outreach logs: %w", err)
	}
	return s, nil
}

// CreateLead stores a new lead with status NEW.
func (r *PostgresRepository) CreateLead(ctx context.Context, l model.Lead) (model.Lead, error) {
	l.ID = uuid.NewString()
	l.Status = model.LeadStatusNew
	l.CreatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO leads (id, partner_id, business_name, contact_person, source_platform, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID, l.PartnerID, l.BusinessName, l.ContactPerson, l.SourcePlatform, string(l.Status), l.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.Lead{}, ErrPartnerNotFound
		}
		return model.Lead{}, fmt.Errorf("create lead: %w", err)
	}
	return l, nil
}

// GetLeadsByPartner returns a partner's leads ordered by creation time.
func (r *PostgresRepository) GetLeadsByPartner(ctx context.Context, partnerID string) ([]model.Lead, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, partner_id, business_name, contact_person, source_platform, status, created_at
		 FROM leads
		 WHERE partner_id = $1
		 ORDER BY created_at`,
		partnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select leads: %w", err)
	}
	defer rows.Close()

	var res []model.Lead
	for rows.Next() {
		var l model.Lead
		var status string
		if err := rows.Scan(&l.ID, &l.PartnerID, &l.BusinessName, &l.ContactPerson, &l.SourcePlatform, &status, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		l.Status = model.LeadStatus(status)
		res = append(res, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// TransitionLead moves a lead to a new status. The lead row is locked so a
// concurrent transition cannot bypass the state machine.
func (r *PostgresRepository) TransitionLead(ctx context.Context, partnerID, leadID string, to model.LeadStatus) (model.Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Lead{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var l model.Lead
	var status string
	err = tx.QueryRow(ctx,
		`SELECT id, partner_id, business_name, contact_person, source_platform, status, created_at
		 FROM leads
		 WHERE id = $1 AND partner_id = $2
		 FOR UPDATE`,
		leadID, partnerID,
	).Scan(&l.ID, &l.PartnerID, &l.BusinessName, &l.ContactPerson, &l.SourcePlatform, &status, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Lead{}, ErrLeadNotFound
		}
		return model.Lead{}, fmt.Errorf("lock lead: %w", err)
	}

	from := model.LeadStatus(status)
	if !validation.IsValidLeadTransition(from, to) {
		return model.Lead{}, fmt.Errorf("%w: %s -> %s", ErrInvalidLeadTransition, from, to)
	}

	_, err = tx.Exec(ctx,
		`UPDATE leads SET status = $2 WHERE id = $1`,
		leadID, string(to),
	)
	if err != nil {
		return model.Lead{}, fmt.Errorf("update lead: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Lead{}, fmt.Errorf("commit tx: %w", err)
	}

	l.Status = to
	return l, nil
}

// CreateEarning appends a ledger entry with status PENDING.
func (r *PostgresRepository) CreateEarning(ctx context.Context, e model.EarningsEntry) (model.EarningsEntry, error) {
	e.ID = uuid.NewString()
	e.Status = model.EarningsStatusPending
	e.CreatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO earnings (id, partner_id, client_name, deal_value, commission_percentage, amount, status, deal_closed_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.PartnerID, e.ClientName, e.DealValue, e.CommissionPercentage, e.Amount, string(e.Status), e.DealClosedDate, e.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.EarningsEntry{}, ErrPartnerNotFound
		}
		return model.EarningsEntry{}, fmt.Errorf("create earnings entry: %w", err)
	}
	return e, nil
}

// GetEarningsByPartner returns a partner's ledger entries ordered by deal
// closed date.
func (r *PostgresRepository) GetEarningsByPartner(ctx context.Context, partnerID string) ([]model.EarningsEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, partner_id, client_name, deal_value, commission_percentage, amount, status, deal_closed_date, paid_at, created_at
		 FROM earnings
		 WHERE partner_id = $1
		 ORDER BY deal_closed_date, created_at`,
		partnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select earnings: %w", err)
	}
	defer rows.Close()

	var res []model.EarningsEntry
	for rows.Next() {
		var e model.EarningsEntry
		var status string
		if err := rows.Scan(&e.ID, &e.PartnerID, &e.ClientName, &e.DealValue, &e.CommissionPercentage,
			&e.Amount, &status, &e.DealClosedDate, &e.PaidAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan earnings entry: %w", err)
		}
		e.Status = model.EarningsStatus(status)
		res = append(res, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// MarkEarningPaid transitions a pending entry to PAID. Marking an already
// paid entry again is a no-op so retried exports cannot double-count. The
// row is locked so the status change is atomic with respect to concurrent
// aggregate reads.
func (r *PostgresRepository) MarkEarningPaid(ctx context.Context, entryID string) (model.EarningsEntry, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.EarningsEntry{}, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	e, err := lockEarning(ctx, tx, entryID)
	if err != nil {
		return model.EarningsEntry{}, false, err
	}

	switch e.Status {
	case model.EarningsStatusPaid:
		return e, false, nil
	case model.EarningsStatusReversed:
		return model.EarningsEntry{}, false, fmt.Errorf("%w: %s", ErrEarningReversed, entryID)
	}

	paidAt := time.Now().UTC()
	_, err = tx.Exec(ctx,
		`UPDATE earnings SET status = $2, paid_at = $3 WHERE id = $1`,
		entryID, string(model.EarningsStatusPaid), paidAt,
	)
	if err != nil {
		return model.EarningsEntry{}, false, fmt.Errorf("update earnings entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.EarningsEntry{}, false, fmt.Errorf("commit tx: %w", err)
	}

	e.Status = model.EarningsStatusPaid
	e.PaidAt = &paidAt
	return e, true, nil
}

// MarkEarningReversed transitions a pending or paid entry to REVERSED.
// Reversing an already reversed entry is a no-op.
func (r *PostgresRepository) MarkEarningReversed(ctx context.Context, entryID string) (model.EarningsEntry, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.EarningsEntry{}, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	e, err := lockEarning(ctx, tx, entryID)
	if err != nil {
		return model.EarningsEntry{}, false, err
	}

	if e.Status == model.EarningsStatusReversed {
		return e, false, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE earnings SET status = $2 WHERE id = $1`,
		entryID, string(model.EarningsStatusReversed),
	)
	if err != nil {
		return model.EarningsEntry{}, false, fmt.Errorf("update earnings entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.EarningsEntry{}, false, fmt.Errorf("commit tx: %w", err)
	}

	e.Status = model.EarningsStatusReversed
	return e, true, nil
}

func lockEarning(ctx context.Context, tx pgx.Tx, entryID string) (model.EarningsEntry, error) {
	var e model.EarningsEntry
	var status string
	err := tx.QueryRow(ctx,
		`SELECT id, partner_id, client_name, deal_value, commission_percentage, amount, status, deal_closed_date, paid_at, created_at
		 FROM earnings
		 WHERE id = $1
		 FOR UPDATE`,
		entryID,
	).Scan(&e.ID, &e.PartnerID, &e.ClientName, &e.DealValue, &e.CommissionPercentage,
		&e.Amount, &status, &e.DealClosedDate, &e.PaidAt, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.EarningsEntry{}, ErrEarningNotFound
		}
		return model.EarningsEntry{}, fmt.Errorf("lock earnings entry: %w", err)
	}
	e.Status = model.EarningsStatus(status)
	return e, nil
}

// EarningsTotal returns the sum of a partner's paid ledger entries in paise,
// computed at read time.
func (r *PostgresRepository) EarningsTotal(ctx context.Context, partnerID string) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)
		 FROM earnings
		 WHERE partner_id = $1 AND status = $2`,
		partnerID, string(model.EarningsStatusPaid),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum earnings: %w", err)
	}
	return total, nil
}
