package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/target/rentdesk/internal/data/pgxutil"
	domainauth "github.com/target/rentdesk/internal/domain/auth"
	apperrors "github.com/target/rentdesk/internal/errors"
	"github.com/target/rentdesk/internal/ports"
)

const accountColumns = `id, email, first_name, last_name, password_hash, email_confirmed, password_changed_at, created_at`

// AccountRepo provides database operations for password accounts.
type AccountRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ ports.AccountStore = (*AccountRepo)(nil)

// NewAccountRepo creates a new AccountRepo with real time provider.
func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewAccountRepoWithTimeProvider creates a new AccountRepo with a custom time provider (useful for tests).
func NewAccountRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *AccountRepo {
	return &AccountRepo{DB: db, timeProvider: tp}
}

// Create inserts a new account. Emails are compared case-insensitively.
func (r *AccountRepo) Create(ctx context.Context, acct domainauth.Account) (domainauth.Account, error) {
	email := strings.TrimSpace(acct.Email)
	if email == "" {
		return domainauth.Account{}, apperrors.ValidationField("email", "email is required")
	}

	now := r.timeProvider.Now().UTC()
	var out domainauth.Account
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO accounts (email, first_name, last_name, password_hash, email_confirmed, password_changed_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING `+accountColumns,
			email,
			strings.TrimSpace(acct.FirstName),
			strings.TrimSpace(acct.LastName),
			acct.PasswordHash,
			acct.EmailConfirmed,
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[domainauth.Account])
		return err
	})
	if err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsConflict(mapped) {
			return domainauth.Account{}, ErrAccountEmailExists
		}
		return domainauth.Account{}, fmt.Errorf("create account: %w", mapped)
	}
	return out, nil
}

// GetByEmail retrieves an account by email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (domainauth.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`, strings.TrimSpace(email))
}

// GetByID retrieves an account by ID.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (domainauth.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id::text = $1`, id)
}

func (r *AccountRepo) getOne(ctx context.Context, query, arg string) (domainauth.Account, error) {
	var out domainauth.Account
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, arg)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[domainauth.Account])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainauth.Account{}, ErrAccountNotFound
		}
		return domainauth.Account{}, fmt.Errorf("get account: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// UpdatePassword replaces the password hash and records when it changed.
func (r *AccountRepo) UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error {
	return r.execOne(ctx, `
		UPDATE accounts SET password_hash = $2, password_changed_at = $3, updated_at = $4
		WHERE id::text = $1`,
		id, passwordHash, changedAt.UTC(), r.timeProvider.Now().UTC())
}

// ConfirmEmail marks the account email as confirmed.
func (r *AccountRepo) ConfirmEmail(ctx context.Context, id string) error {
	return r.execOne(ctx, `
		UPDATE accounts SET email_confirmed = TRUE, updated_at = $2
		WHERE id::text = $1`,
		id, r.timeProvider.Now().UTC())
}

func (r *AccountRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update account: %w", apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account rows affected: %w", err)
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	return nil
}
