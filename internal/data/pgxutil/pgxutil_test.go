package pgxutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/rentdesk/internal/testutil"
)

func TestTxOptions(t *testing.T) {
	assert.Equal(t, pgx.TxOptions{}, txOptions(nil))
	assert.Equal(t,
		pgx.TxOptions{IsoLevel: pgx.Serializable, AccessMode: pgx.ReadOnly},
		txOptions(&sql.TxOptions{Isolation: sql.LevelSerializable, ReadOnly: true}))
	assert.Equal(t,
		pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite},
		txOptions(&sql.TxOptions{Isolation: sql.LevelReadCommitted}))
	assert.Equal(t, pgx.TxOptions{AccessMode: pgx.ReadWrite}, txOptions(&sql.TxOptions{}))
}

func TestWithPgxTx_RollsBackOnError(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		insert := func(name string) func(pgx.Tx) error {
			return func(tx pgx.Tx) error {
				_, err := tx.Exec(ctx, `INSERT INTO properties (name) VALUES ($1)`, name)
				return err
			}
		}

		err := WithPgxTx(ctx, db, TxConfig{Fn: func(tx pgx.Tx) error {
			if err := insert("Rolled Back Court")(tx); err != nil {
				return err
			}
			return assert.AnError
		}})
		require.ErrorIs(t, err, assert.AnError)

		require.NoError(t, WithPgxTx(ctx, db, TxConfig{Fn: insert("Committed Court")}))

		var names []string
		require.NoError(t, WithPgxConn(ctx, db, func(conn *pgx.Conn) error {
			rows, err := conn.Query(ctx, `SELECT name FROM properties WHERE name LIKE '% Court' ORDER BY name`)
			if err != nil {
				return err
			}
			names, err = pgx.CollectRows(rows, pgx.RowTo[string])
			return err
		}))
		assert.Equal(t, []string{"Committed Court"}, names)
	})
}
