package errors

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: context.Canceled, wantCode: ErrCodeCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if !IsAppError(err, tt.wantCode) {
				t.Errorf("MapDBError() code = %v, want %v", GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	if err := MapDBError(pgx.ErrNoRows); !IsNotFound(err) {
		t.Errorf("MapDBError(pgx.ErrNoRows) should be NotFound, got %v", GetCode(err))
	}
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	tests := []struct {
		name      string
		pgErr     *pgconn.PgError
		wantField string
	}{
		{
			name:      "column metadata",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "email"},
			wantField: "email",
		},
		{
			name: "detail parsing",
			pgErr: &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: "accounts_email_key",
				Detail:         `Key (email)=(a@example.com) already exists.`,
			},
			wantField: "email",
		},
		{
			name:      "constraint inference",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "properties_name_key"},
			wantField: "name",
		},
		{
			name:      "expression index is ambiguous",
			pgErr:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "accounts_lower_key"},
			wantField: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsConflict(err) {
				t.Fatalf("MapDBError() code = %v, want conflict", GetCode(err))
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("GetField() = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestMapDBError_ForeignKeyViolation(t *testing.T) {
	tests := []struct {
		name         string
		pgErr        *pgconn.PgError
		wantContains string
	}{
		{
			name: "parent still referenced",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (id)=(u-1) is still referenced from table "tenant_profiles".`,
			},
			wantContains: "in use by Tenant Profile",
		},
		{
			name: "missing parent",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (unit_id)=(x) is not present in table "units".`,
			},
			wantContains: "referenced Unit does not exist",
		},
		{
			name:         "table metadata fallback",
			pgErr:        &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, TableName: "admin_profiles"},
			wantContains: "Admin Profile",
		},
		{
			name:         "constraint fallback",
			pgErr:        &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "tenant_profiles_unit_id_fkey"},
			wantContains: "unit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.pgErr)
			if !IsAppError(err, ErrCodeForeignKey) {
				t.Fatalf("MapDBError() code = %v, want foreign_key", GetCode(err))
			}
			var appErr *AppError
			if !errors.As(err, &appErr) || !strings.Contains(appErr.Message, tt.wantContains) {
				t.Errorf("message = %q, want to contain %q", appErr.Message, tt.wantContains)
			}
		})
	}
}

func TestMapDBError_CheckAndNotNull(t *testing.T) {
	check := MapDBError(&pgconn.PgError{Code: pgerrcode.CheckViolation, ColumnName: "role"})
	if !IsValidation(check) || GetField(check) != "role" {
		t.Errorf("check violation: code=%v field=%q", GetCode(check), GetField(check))
	}
	notNull := MapDBError(&pgconn.PgError{Code: pgerrcode.NotNullViolation})
	if !IsValidation(notNull) {
		t.Errorf("not null violation: code=%v", GetCode(notNull))
	}
}

func TestMapDBError_UnknownPgErrorIsInternal(t *testing.T) {
	err := MapDBError(&pgconn.PgError{Code: pgerrcode.DeadlockDetected})
	if !IsAppError(err, ErrCodeInternal) {
		t.Errorf("MapDBError() code = %v, want internal", GetCode(err))
	}
}

func TestMapDBError_PassThrough(t *testing.T) {
	plain := errors.New("plain")
	if got := MapDBError(plain); !errors.Is(got, plain) {
		t.Errorf("MapDBError(plain) = %v, want original", got)
	}
}

func TestMapTableToDomain(t *testing.T) {
	tests := []struct {
		tableName string
		want      string
	}{
		{"accounts", "Account"},
		{"tenant_profiles", "Tenant Profile"},
		{"  UNITS  ", "Unit"},
		{"lease_payments", "Lease Payments"},
	}
	for _, tt := range tests {
		if got := mapTableToDomain(tt.tableName); got != tt.want {
			t.Errorf("mapTableToDomain(%q) = %q, want %q", tt.tableName, got, tt.want)
		}
	}
}
