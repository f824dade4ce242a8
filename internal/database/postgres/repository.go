package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/link-shortener/internal/database"
	"github.com/vadimbarashkov/link-shortener/internal/models"
)

type linkRecord struct {
	ID             int64         `db:"id"`
	ShortCode      string        `db:"short_code"`
	DestinationURL string        `db:"destination_url"`
	OwnerID        sql.NullInt64 `db:"owner_id"`
	Clicks         int64         `db:"clicks"`
	CreatedAt      time.Time     `db:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at"`
}

func (r *linkRecord) ToLink() *models.Link {
	link := &models.Link{
		ID:             r.ID,
		ShortCode:      r.ShortCode,
		DestinationURL: r.DestinationURL,
		Clicks:         r.Clicks,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}

	if r.OwnerID.Valid {
		ownerID := r.OwnerID.Int64
		link.OwnerID = &ownerID
	}

	return link
}

type dayBucketRecord struct {
	Day    time.Time `db:"day"`
	Clicks int64     `db:"clicks"`
}

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{
		db: db,
	}
}

func (r *LinkRepository) Create(ctx context.Context, shortCode, destinationURL string, ownerID *int64) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.Create"

	rec := new(linkRecord)
	query := `INSERT INTO links(short_code, destination_url, owner_id)
		VALUES ($1, $2, $3)
		RETURNING *`

	var owner sql.NullInt64
	if ownerID != nil {
		owner = sql.NullInt64{Int64: *ownerID, Valid: true}
	}

	err := r.db.GetContext(ctx, rec, query, shortCode, destinationURL, owner)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to create link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

func (r *LinkRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.GetByShortCode"

	rec := new(linkRecord)
	query := `SELECT * FROM links WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

func (r *LinkRepository) Update(ctx context.Context, shortCode, destinationURL string) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.Update"

	rec := new(linkRecord)
	query := `UPDATE links
		SET destination_url = $1, updated_at = now()
		WHERE short_code = $2
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, destinationURL, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

func (r *LinkRepository) Delete(ctx context.Context, shortCode string) error {
	const op = "database.postgres.LinkRepository.Delete"

	query := `DELETE FROM links WHERE short_code = $1`

	res, err := r.db.ExecContext(ctx, query, shortCode)
	if err != nil {
		return fmt.Errorf("%s: failed to delete link record: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
	}

	return nil
}

// RecordClick bumps the click counter and appends the matching click_events
// row in one transaction. The increment is expressed relative in SQL so
// concurrent clicks never lose updates.
func (r *LinkRepository) RecordClick(ctx context.Context, event models.ClickEvent) error {
	const op = "database.postgres.LinkRepository.RecordClick"

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback() //nolint:errcheck

	var linkID int64
	query := `UPDATE links
		SET clicks = clicks + 1
		WHERE short_code = $1
		RETURNING id`

	err = tx.GetContext(ctx, &linkID, query, event.ShortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return fmt.Errorf("%s: failed to increment clicks: %w", op, err)
	}

	query = `INSERT INTO click_events(link_id, occurred_at, user_agent, remote_addr)
		VALUES ($1, $2, $3, $4)`

	if _, err := tx.ExecContext(ctx, query, linkID, event.OccurredAt, event.UserAgent, event.RemoteAddr); err != nil {
		return fmt.Errorf("%s: failed to insert click event: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

func (r *LinkRepository) GetStats(ctx context.Context, shortCode string) (*models.LinkStats, error) {
	const op = "database.postgres.LinkRepository.GetStats"

	rec := new(linkRecord)
	query := `SELECT * FROM links WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	var buckets []dayBucketRecord
	query = `SELECT date_trunc('day', occurred_at) AS day, count(*) AS clicks
		FROM click_events
		WHERE link_id = $1
		GROUP BY day
		ORDER BY day`

	if err := r.db.SelectContext(ctx, &buckets, query, rec.ID); err != nil {
		return nil, fmt.Errorf("%s: failed to get click buckets: %w", op, err)
	}

	stats := &models.LinkStats{
		Link:         *rec.ToLink(),
		ClicksPerDay: make([]models.DayBucket, 0, len(buckets)),
	}
	for _, b := range buckets {
		stats.ClicksPerDay = append(stats.ClicksPerDay, models.DayBucket{Day: b.Day, Clicks: b.Clicks})
	}

	return stats, nil
}

func (r *LinkRepository) OwnerStats(ctx context.Context, ownerID int64) (*models.OwnerStats, error) {
	const op = "database.postgres.LinkRepository.OwnerStats"

	var stats models.OwnerStats
	query := `SELECT count(*) AS total_links, coalesce(sum(clicks), 0) AS total_clicks
		FROM links
		WHERE owner_id = $1`

	row := r.db.QueryRowxContext(ctx, query, ownerID)
	if err := row.Scan(&stats.TotalLinks, &stats.TotalClicks); err != nil {
		return nil, fmt.Errorf("%s: failed to get owner stats: %w", op, err)
	}

	return &stats, nil
}
