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

const (
	adminProfileQuery = `
		SELECT user_id, role, is_active, full_name, created_at
		FROM admin_profiles
		WHERE user_id = $1 AND is_active`

	tenantProfileQuery = `
		SELECT tp.user_id, tp.full_name,
		       tp.property_id::text AS property_id, p.name AS property_name,
		       tp.unit_id::text AS unit_id, u.label AS unit_label,
		       tp.created_at
		FROM tenant_profiles tp
		JOIN properties p ON p.id = tp.property_id
		JOIN units u ON u.id = tp.unit_id
		WHERE tp.user_id = $1`
)

// ProfileRepo reads and provisions admin and tenant profiles.
type ProfileRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var (
	_ ports.ProfileStore = (*ProfileRepo)(nil)
	_ ports.ProfileAdmin = (*ProfileRepo)(nil)
)

// NewProfileRepo creates a new ProfileRepo with real time provider.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewProfileRepoWithTimeProvider creates a ProfileRepo with a custom time provider (useful for tests).
func NewProfileRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: tp}
}

// FindAdminProfile returns the active admin profile of userID.
// Inactive profiles are reported as domainauth.ErrProfileNotFound.
func (r *ProfileRepo) FindAdminProfile(ctx context.Context, userID string) (domainauth.AdminProfile, error) {
	var out domainauth.AdminProfile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, adminProfileQuery, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[domainauth.AdminProfile])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainauth.AdminProfile{}, domainauth.ErrProfileNotFound
		}
		return domainauth.AdminProfile{}, fmt.Errorf("find admin profile: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// FindTenantProfile returns the tenant profile of userID joined with its property and unit.
func (r *ProfileRepo) FindTenantProfile(ctx context.Context, userID string) (domainauth.TenantProfile, error) {
	var out domainauth.TenantProfile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, tenantProfileQuery, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[domainauth.TenantProfile])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainauth.TenantProfile{}, domainauth.ErrProfileNotFound
		}
		return domainauth.TenantProfile{}, fmt.Errorf("find tenant profile: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// CreateAdminProfile provisions an active admin-family profile.
func (r *ProfileRepo) CreateAdminProfile(ctx context.Context, p domainauth.AdminProfile) (domainauth.AdminProfile, error) {
	if err := p.Validate(); err != nil {
		return domainauth.AdminProfile{}, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid admin profile")
	}

	now := r.timeProvider.Now().UTC()
	var out domainauth.AdminProfile
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		if err := claimProfileOwner(ctx, tx, p.UserID, profileKindAdmin, now); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, `
			INSERT INTO admin_profiles (user_id, role, is_active, full_name, created_at)
			VALUES ($1, $2, TRUE, $3, $4)
			RETURNING user_id, role, is_active, full_name, created_at`,
			p.UserID, string(p.Role), strings.TrimSpace(p.FullName), now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[domainauth.AdminProfile])
		return err
	}})
	if err != nil {
		return domainauth.AdminProfile{}, mapProfileWriteErr(err)
	}
	return out, nil
}

// CreateTenantProfile provisions a tenant bound to an existing property and unit.
func (r *ProfileRepo) CreateTenantProfile(ctx context.Context, p domainauth.TenantProfile) (domainauth.TenantProfile, error) {
	if err := p.Validate(); err != nil {
		return domainauth.TenantProfile{}, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid tenant profile")
	}

	now := r.timeProvider.Now().UTC()
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		var unitProperty string
		if err := tx.QueryRow(ctx, `SELECT property_id::text FROM units WHERE id::text = $1`, p.UnitID).Scan(&unitProperty); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ValidationField("unit_id", "unit does not exist")
			}
			return err
		}
		if unitProperty != p.PropertyID {
			return apperrors.ValidationField("unit_id", "unit does not belong to property")
		}
		if err := claimProfileOwner(ctx, tx, p.UserID, profileKindTenant, now); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO tenant_profiles (user_id, full_name, property_id, unit_id, created_at)
			VALUES ($1, $2, $3::uuid, $4::uuid, $5)`,
			p.UserID, strings.TrimSpace(p.FullName), p.PropertyID, p.UnitID, now,
		)
		return err
	}})
	if err != nil {
		if apperrors.IsValidation(err) {
			return domainauth.TenantProfile{}, err
		}
		return domainauth.TenantProfile{}, mapProfileWriteErr(err)
	}
	return r.FindTenantProfile(ctx, p.UserID)
}

// DeactivateAdminProfile marks an admin profile inactive so role resolution skips it.
func (r *ProfileRepo) DeactivateAdminProfile(ctx context.Context, userID string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE admin_profiles SET is_active = FALSE, updated_at = $2
		WHERE user_id = $1 AND is_active`,
		userID, r.timeProvider.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate admin profile: %w", apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate admin profile rows affected: %w", err)
	}
	if n == 0 {
		return domainauth.ErrProfileNotFound
	}
	return nil
}

// UnitRef identifies a property and one of its units.
type UnitRef struct {
	PropertyID string
	UnitID     string
}

// EnsureUnit returns the property and unit with the given names, creating either when missing.
func (r *ProfileRepo) EnsureUnit(ctx context.Context, propertyName, unitLabel string) (UnitRef, error) {
	propertyName = strings.TrimSpace(propertyName)
	unitLabel = strings.TrimSpace(unitLabel)
	if propertyName == "" || unitLabel == "" {
		return UnitRef{}, apperrors.Validation("property name and unit label are required")
	}

	var ref UnitRef
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO properties (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id::text`, propertyName).Scan(&ref.PropertyID); err != nil {
			return fmt.Errorf("upsert property: %w", err)
		}
		if err := tx.QueryRow(ctx, `
			INSERT INTO units (property_id, label) VALUES ($1::uuid, $2)
			ON CONFLICT (property_id, label) DO UPDATE SET label = EXCLUDED.label
			RETURNING id::text`, ref.PropertyID, unitLabel).Scan(&ref.UnitID); err != nil {
			return fmt.Errorf("upsert unit: %w", err)
		}
		return nil
	}})
	if err != nil {
		return UnitRef{}, apperrors.MapDBError(err)
	}
	return ref, nil
}

const (
	profileKindAdmin  = "admin"
	profileKindTenant = "tenant"
)

// claimProfileOwner records userID as provisioned. The profile_owners primary
// key spans both profile tables, so a user already holding either profile
// (active or not) fails here with a unique violation.
func claimProfileOwner(ctx context.Context, tx pgx.Tx, userID, kind string, at time.Time) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO profile_owners (user_id, kind, created_at) VALUES ($1, $2, $3)`,
		userID, kind, at)
	return err
}

func mapProfileWriteErr(err error) error {
	mapped := apperrors.MapDBError(err)
	if apperrors.IsConflict(mapped) {
		return ErrProfileExists
	}
	return fmt.Errorf("write profile: %w", mapped)
}
