package dbx

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openCache(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE firmware_cache (id TEXT PRIMARY KEY, version TEXT)`)
	require.NoError(t, err)
	return db
}

func cached(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM firmware_cache`).Scan(&n))
	return n
}

func insert(ctx context.Context, tx DBTX, id string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO firmware_cache(id, version) VALUES (?, '1.0.0')`, id)
	return err
}

func TestWithTx_Commits(t *testing.T) {
	db := openCache(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		if err := insert(ctx, tx, "a"); err != nil {
			return err
		}
		return insert(ctx, tx, "b")
	})
	require.NoError(t, err)
	require.Equal(t, 2, cached(t, db))
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := openCache(t)
	boom := errors.New("boom")

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, insert(ctx, tx, "a"))
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, cached(t, db))
}

func TestWithTx_RollsBackOnConstraintViolation(t *testing.T) {
	db := openCache(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, insert(ctx, tx, "dup"))
		return insert(ctx, tx, "dup")
	})
	require.Error(t, err)
	require.Equal(t, 0, cached(t, db))
}

func TestWithTx_RePanics(t *testing.T) {
	db := openCache(t)

	require.PanicsWithValue(t, "kaput", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			require.NoError(t, insert(ctx, tx, "a"))
			panic("kaput")
		})
	})
	require.Equal(t, 0, cached(t, db))
}

func TestWithTx_BeginError(t *testing.T) {
	db := openCache(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	require.ErrorContains(t, err, "begin tx")
	require.False(t, called)
}
