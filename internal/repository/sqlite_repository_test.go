package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drafter/client/internal/model"
	"drafter/client/internal/repository"
)

func setupRepository(t *testing.T) (repository.Repository, sqlmock.Sqlmock) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewSQLiteRepository(db), mockDB
}

func TestSQLiteRepository_AddDownload(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	d := &model.Download{ID: "d1", SessionID: "s1", Format: model.FormatHTML, Path: "/tmp/terms-of-service.html", SizeBytes: 42, CreatedAt: created}

	t.Run("Success", func(t *testing.T) {
		repo, mockDB := setupRepository(t)
		mockDB.ExpectExec(regexp.QuoteMeta("INSERT INTO downloads")).
			WithArgs("d1", "s1", "html", "/tmp/terms-of-service.html", int64(42), created).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, repo.AddDownload(ctx, d))
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Failure - insert error", func(t *testing.T) {
		repo, mockDB := setupRepository(t)
		mockDB.ExpectExec(regexp.QuoteMeta("INSERT INTO downloads")).WillReturnError(errors.New("disk full"))

		err := repo.AddDownload(ctx, d)
		assert.ErrorContains(t, err, "disk full")
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestSQLiteRepository_ListDownloads(t *testing.T) {
	ctx := context.Background()
	columns := []string{"id", "session_id", "format", "file_path", "size_bytes", "created_at"}
	now := time.Now().UTC()

	t.Run("Filtered by session with limit", func(t *testing.T) {
		repo, mockDB := setupRepository(t)
		rows := sqlmock.NewRows(columns).
			AddRow("d2", "s1", "html", "/tmp/b.html", int64(20), now).
			AddRow("d1", "s1", "md", "/tmp/a.md", int64(10), now.Add(-time.Minute))
		mockDB.ExpectQuery(regexp.QuoteMeta("SELECT id, session_id, format, file_path, size_bytes, created_at FROM downloads WHERE session_id = ? ORDER BY created_at DESC LIMIT ?")).
			WithArgs("s1", 5).
			WillReturnRows(rows)

		downloads, err := repo.ListDownloads(ctx, "s1", 5)
		require.NoError(t, err)
		require.Len(t, downloads, 2)
		assert.Equal(t, "d2", downloads[0].ID)
		assert.Equal(t, model.FormatMarkdown, downloads[1].Format)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("All sessions, empty result", func(t *testing.T) {
		repo, mockDB := setupRepository(t)
		mockDB.ExpectQuery(regexp.QuoteMeta("FROM downloads ORDER BY created_at DESC")).
			WillReturnRows(sqlmock.NewRows(columns))

		downloads, err := repo.ListDownloads(ctx, "", 0)
		require.NoError(t, err)
		assert.NotNil(t, downloads)
		assert.Empty(t, downloads)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})
}

func TestSQLiteRepository_Settings(t *testing.T) {
	ctx := context.Background()

	t.Run("Get existing", func(t *testing.T) {
		repo, mockDB := setupRepository(t)
		mockDB.ExpectQuery(regexp.QuoteMeta("SELECT value FROM settings WHERE key = ?")).
			WithArgs("active_session_id").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("s1"))

		value, err := repo.GetSetting(ctx, "active_session_id")
		require.NoError(t, err)
		assert.Equal(t, "s1", value)
	})

	t.Run("Get missing", func(t *testing.T) {
		repo, mockDB := setupRepository(t)
		mockDB.ExpectQuery(regexp.QuoteMeta("SELECT value FROM settings")).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"value"}))

		_, err := repo.GetSetting(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Set upserts", func(t *testing.T) {
		repo, mockDB := setupRepository(t)
		mockDB.ExpectExec(regexp.QuoteMeta("INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key)")).
			WithArgs("active_session_id", "s2").
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, repo.SetSetting(ctx, "active_session_id", "s2"))
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})
}
