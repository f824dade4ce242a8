package models

import "time"

// Link represents a single shortening mapping and its metadata.
type Link struct {
	// ID is the surrogate identifier assigned by the store.
	ID int64
	// ShortCode is the base62 code the link is addressed by. Unique and
	// immutable once created.
	ShortCode string
	// DestinationURL is the full URL the short code resolves to.
	DestinationURL string
	// OwnerID references the creating account. Nil for anonymous links.
	OwnerID *int64
	// Clicks counts recorded redirects. Never decremented.
	Clicks int64
	// CreatedAt is the timestamp indicating when the link was created.
	CreatedAt time.Time
	// UpdatedAt is the timestamp indicating when the link was last updated.
	UpdatedAt time.Time
}

// Click is one persisted redirect record, kept for time-bucketed analytics.
// Rows are append-only.
type Click struct {
	ID         int64
	LinkID     int64
	OccurredAt time.Time
	UserAgent  string
	RemoteAddr string
}

// ClickEvent is one unit of accounting work, addressed by short code because
// the redirect path may never have seen the link row.
type ClickEvent struct {
	ShortCode  string
	OccurredAt time.Time
	UserAgent  string
	RemoteAddr string
}

// LinkStats couples a link with its per-day click buckets.
type LinkStats struct {
	Link
	ClicksPerDay []DayBucket
}

// DayBucket is the number of clicks recorded on a single day.
type DayBucket struct {
	Day    time.Time
	Clicks int64
}

// OwnerStats aggregates link and click totals for one owner's dashboard.
type OwnerStats struct {
	TotalLinks  int64
	TotalClicks int64
}
