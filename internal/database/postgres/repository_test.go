package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/vadimbarashkov/link-shortener/internal/database"
	"github.com/vadimbarashkov/link-shortener/internal/models"
)

var (
	errUnknown      = errors.New("unknown error")
	errAffectedRows = errors.New("affected rows error")
)

var columns = []string{"id", "short_code", "destination_url", "owner_id", "clicks", "created_at", "updated_at"}

func setupLinkRepository(t testing.TB) (*LinkRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewLinkRepository(db)

	t.Cleanup(func() {
		mockDB.Close()
		db.Close()
	})

	return repo, mock
}

func TestLinkRepository_Create(t *testing.T) {
	t.Run("short code exists", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`INSERT INTO links`).
			WithArgs("code1", "https://example.com", sql.NullInt64{}).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationErrCode})

		link, err := repo.Create(context.TODO(), "code1", "https://example.com", nil)

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrShortCodeExists)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`INSERT INTO links`).
			WithArgs("code1", "https://example.com", sql.NullInt64{}).
			WillReturnError(errUnknown)

		link, err := repo.Create(context.TODO(), "code1", "https://example.com", nil)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(0, "code1", "https://example.com", nil, 0, time.Time{}, time.Time{})

		mock.ExpectQuery(`INSERT INTO links`).
			WithArgs("code1", "https://example.com", sql.NullInt64{}).
			WillReturnRows(rows)

		wantLink := models.Link{
			ShortCode:      "code1",
			DestinationURL: "https://example.com",
		}

		link, err := repo.Create(context.TODO(), "code1", "https://example.com", nil)

		assert.NoError(t, err)
		assert.NotNil(t, link)
		assert.Equal(t, wantLink, *link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success with owner", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		ownerID := int64(7)
		rows := sqlmock.NewRows(columns).
			AddRow(0, "code1", "https://example.com", ownerID, 0, time.Time{}, time.Time{})

		mock.ExpectQuery(`INSERT INTO links`).
			WithArgs("code1", "https://example.com", sql.NullInt64{Int64: ownerID, Valid: true}).
			WillReturnRows(rows)

		link, err := repo.Create(context.TODO(), "code1", "https://example.com", &ownerID)

		assert.NoError(t, err)
		assert.NotNil(t, link)
		assert.NotNil(t, link.OwnerID)
		assert.Equal(t, ownerID, *link.OwnerID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_GetByShortCode(t *testing.T) {
	t.Run("link not found", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT \* FROM links`).
			WithArgs("code2").
			WillReturnError(sql.ErrNoRows)

		link, err := repo.GetByShortCode(context.TODO(), "code2")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrLinkNotFound)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT \* FROM links`).
			WithArgs("code1").
			WillReturnError(errUnknown)

		link, err := repo.GetByShortCode(context.TODO(), "code1")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(0, "code1", "https://example.com", nil, 1, time.Time{}, time.Time{})

		mock.ExpectQuery(`SELECT \* FROM links`).
			WithArgs("code1").
			WillReturnRows(rows)

		wantLink := models.Link{
			ShortCode:      "code1",
			DestinationURL: "https://example.com",
			Clicks:         1,
		}

		link, err := repo.GetByShortCode(context.TODO(), "code1")

		assert.NoError(t, err)
		assert.NotNil(t, link)
		assert.Equal(t, wantLink, *link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_Update(t *testing.T) {
	t.Run("link not found", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`UPDATE links`).
			WithArgs("https://new-example.com", "code2").
			WillReturnError(sql.ErrNoRows)

		link, err := repo.Update(context.TODO(), "code2", "https://new-example.com")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrLinkNotFound)
		assert.Nil(t, link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(0, "code1", "https://new-example.com", nil, 0, time.Time{}, time.Time{})

		mock.ExpectQuery(`UPDATE links`).
			WithArgs("https://new-example.com", "code1").
			WillReturnRows(rows)

		wantLink := models.Link{
			ShortCode:      "code1",
			DestinationURL: "https://new-example.com",
		}

		link, err := repo.Update(context.TODO(), "code1", "https://new-example.com")

		assert.NoError(t, err)
		assert.NotNil(t, link)
		assert.Equal(t, wantLink, *link)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_Delete(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectExec(`DELETE FROM links`).
			WithArgs("code1").
			WillReturnError(errUnknown)

		err := repo.Delete(context.TODO(), "code1")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("affected rows error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectExec(`DELETE FROM links`).
			WithArgs("code1").
			WillReturnResult(sqlmock.NewErrorResult(errAffectedRows))

		err := repo.Delete(context.TODO(), "code1")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errAffectedRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("link not found", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectExec(`DELETE FROM links`).
			WithArgs("code2").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.TODO(), "code2")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrLinkNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectExec(`DELETE FROM links`).
			WithArgs("code1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(context.TODO(), "code1")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_RecordClick(t *testing.T) {
	event := models.ClickEvent{
		ShortCode:  "code1",
		OccurredAt: time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC),
		UserAgent:  "test-agent",
		RemoteAddr: "203.0.113.7",
	}
	linkID := int64(1)

	t.Run("link not found", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE links`).
			WithArgs(event.ShortCode).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		err := repo.RecordClick(context.TODO(), event)

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrLinkNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("event insert error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE links`).
			WithArgs(event.ShortCode).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(linkID))
		mock.ExpectExec(`INSERT INTO click_events`).
			WithArgs(linkID, event.OccurredAt, event.UserAgent, event.RemoteAddr).
			WillReturnError(errUnknown)
		mock.ExpectRollback()

		err := repo.RecordClick(context.TODO(), event)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE links`).
			WithArgs(event.ShortCode).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(linkID))
		mock.ExpectExec(`INSERT INTO click_events`).
			WithArgs(linkID, event.OccurredAt, event.UserAgent, event.RemoteAddr).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.RecordClick(context.TODO(), event)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_GetStats(t *testing.T) {
	t.Run("link not found", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT \* FROM links`).
			WithArgs("code2").
			WillReturnError(sql.ErrNoRows)

		stats, err := repo.GetStats(context.TODO(), "code2")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrLinkNotFound)
		assert.Nil(t, stats)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		day := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

		linkRows := sqlmock.NewRows(columns).
			AddRow(1, "code1", "https://example.com", nil, 3, time.Time{}, time.Time{})
		bucketRows := sqlmock.NewRows([]string{"day", "clicks"}).
			AddRow(day, 2).
			AddRow(day.AddDate(0, 0, 1), 1)

		mock.ExpectQuery(`SELECT \* FROM links`).
			WithArgs("code1").
			WillReturnRows(linkRows)
		mock.ExpectQuery(`SELECT date_trunc`).
			WithArgs(int64(1)).
			WillReturnRows(bucketRows)

		stats, err := repo.GetStats(context.TODO(), "code1")

		assert.NoError(t, err)
		assert.NotNil(t, stats)
		assert.Equal(t, int64(3), stats.Clicks)
		assert.Len(t, stats.ClicksPerDay, 2)
		assert.Equal(t, int64(2), stats.ClicksPerDay[0].Clicks)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLinkRepository_OwnerStats(t *testing.T) {
	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		mock.ExpectQuery(`SELECT count`).
			WithArgs(int64(7)).
			WillReturnError(errUnknown)

		stats, err := repo.OwnerStats(context.TODO(), 7)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, stats)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupLinkRepository(t)

		rows := sqlmock.NewRows([]string{"total_links", "total_clicks"}).
			AddRow(2, 15)

		mock.ExpectQuery(`SELECT count`).
			WithArgs(int64(7)).
			WillReturnRows(rows)

		stats, err := repo.OwnerStats(context.TODO(), 7)

		assert.NoError(t, err)
		assert.NotNil(t, stats)
		assert.Equal(t, int64(2), stats.TotalLinks)
		assert.Equal(t, int64(15), stats.TotalClicks)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
