package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"rap-order-service/internal/apperr"
	"rap-order-service/internal/model"
)

// newSQLiteRepo runs the libsql dialect against an in-memory SQLite database,
// which speaks the same SQL and placeholder style.
func newSQLiteRepo(t *testing.T) *SQLOrderRepository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewSQLOrderRepository(db, DialectLibSQL, time.Second)
	require.NoError(t, repo.Migrate(context.Background()))
	require.NoError(t, repo.Migrate(context.Background()), "migrate is idempotent")
	return repo
}

func TestSQLRepository_RoundTrip(t *testing.T) {
	repo := newSQLiteRepo(t)
	fixed := time.UnixMilli(1_700_000_900_000).UTC()
	repo.now = func() time.Time { return fixed }
	ctx := context.Background()

	base := time.UnixMilli(1_700_000_000_000).UTC()
	for i, id := range []string{"o1", "o2", "o3"} {
		require.NoError(t, repo.Create(ctx, newOrder(id, base.Add(time.Duration(i)*time.Second))))
	}
	require.Error(t, repo.Create(ctx, newOrder("o1", base)), "duplicate ids are rejected")

	got, err := repo.GetByID(ctx, "o2")
	require.NoError(t, err)
	if diff := cmp.Diff(newOrder("o2", base.Add(time.Second)), got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, repo.UpdateStatus(ctx, "o2", model.StatusDelivered))
	require.NoError(t, repo.SetAudioURL(ctx, "o2", "https://cdn.test/o2.mp3"))
	got, err = repo.GetByID(ctx, "o2")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, got.Status)
	assert.Equal(t, "https://cdn.test/o2.mp3", got.AudioURL)
	assert.Equal(t, fixed, got.UpdatedAt)

	page, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"o3", "o2"}, ids(page))
	page, err = repo.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"o1"}, ids(page))

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	require.NoError(t, repo.Ping(ctx))
}

func TestSQLRepository_NotFound(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.True(t, errors.Is(repo.UpdateStatus(ctx, "missing", model.StatusFailed), apperr.ErrNotFound))
	assert.True(t, errors.Is(repo.SetAudioURL(ctx, "missing", "x"), apperr.ErrNotFound))
}
