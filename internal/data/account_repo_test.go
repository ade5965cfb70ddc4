package data

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"github.com/target/rentdesk/internal/testutil"
)

func TestAccountRepo_Lifecycle(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		fixed := testutil.TestTime()
		repo := NewAccountRepoWithTimeProvider(db, NewFixedTimeProvider(fixed))

		email := fmt.Sprintf("Tenant-%d@Example.com", time.Now().UnixNano())
		acct, err := repo.Create(ctx, domainauth.Account{
			Email:        email,
			FirstName:    " Ada ",
			PasswordHash: "hash-1",
		})
		require.NoError(t, err)
		require.NotEmpty(t, acct.ID)
		assert.Equal(t, "Ada", acct.FirstName)
		assert.False(t, acct.EmailConfirmed)
		assert.True(t, acct.CreatedAt.Equal(fixed))

		_, err = repo.Create(ctx, domainauth.Account{Email: email})
		assert.ErrorIs(t, err, ErrAccountEmailExists)

		byEmail, err := repo.GetByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, acct.ID, byEmail.ID)

		require.NoError(t, repo.ConfirmEmail(ctx, acct.ID))
		changed := fixed.Add(time.Hour)
		require.NoError(t, repo.UpdatePassword(ctx, acct.ID, "hash-2", changed))

		got, err := repo.GetByID(ctx, acct.ID)
		require.NoError(t, err)
		assert.True(t, got.EmailConfirmed)
		assert.Equal(t, "hash-2", got.PasswordHash)
		assert.True(t, got.PasswordChangedAt.Equal(changed))
	})
}

func TestAccountRepo_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewAccountRepo(db)

		_, err := repo.GetByEmail(ctx, "missing@example.com")
		assert.ErrorIs(t, err, ErrAccountNotFound)
		_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, ErrAccountNotFound)
		assert.ErrorIs(t, repo.ConfirmEmail(ctx, "00000000-0000-0000-0000-000000000000"), ErrAccountNotFound)
	})
}

func TestAccountRepo_CreateRequiresEmail(t *testing.T) {
	repo := NewAccountRepo(nil)
	_, err := repo.Create(context.Background(), domainauth.Account{Email: "  "})
	require.Error(t, err)
}
