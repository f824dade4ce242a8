// Package service composes the code allocator, link store, resolution cache
// and click accountant into the creation and redirect flows.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vadimbarashkov/link-shortener/internal/cache"
	"github.com/vadimbarashkov/link-shortener/internal/database"
	"github.com/vadimbarashkov/link-shortener/internal/models"
)

var (
	// ErrMaxRetriesExceeded is returned when repeated allocator collisions
	// exhaust the creation retry budget.
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for allocating short code")
	// ErrMaliciousURL is returned when the screening collaborator rejects
	// a destination URL before allocation.
	ErrMaliciousURL = errors.New("destination url flagged as malicious")
	// ErrNotOwner is returned when a mutation targets a link owned by a
	// different account than the caller.
	ErrNotOwner = errors.New("link owned by another account")
)

// LinkRepository defines the interface for working with links at the business logic layer.
type LinkRepository interface {
	// Create inserts a new link. Returns database.ErrShortCodeExists when
	// the short code is already taken.
	Create(ctx context.Context, shortCode, destinationURL string, ownerID *int64) (*models.Link, error)

	// GetByShortCode retrieves a link by its short code.
	GetByShortCode(ctx context.Context, shortCode string) (*models.Link, error)

	// Update modifies the destination URL for a given short code.
	Update(ctx context.Context, shortCode, destinationURL string) (*models.Link, error)

	// Delete removes a link by its short code.
	Delete(ctx context.Context, shortCode string) error

	// GetStats retrieves a link together with its per-day click buckets.
	GetStats(ctx context.Context, shortCode string) (*models.LinkStats, error)

	// OwnerStats aggregates link and click totals for one owner.
	OwnerStats(ctx context.Context, ownerID int64) (*models.OwnerStats, error)
}

// CodeAllocator issues globally unique short codes.
type CodeAllocator interface {
	Allocate(ctx context.Context) (string, error)
}

// ResolutionCache holds expiring shortCode -> destination URL entries.
type ResolutionCache interface {
	Get(ctx context.Context, shortCode string) (string, error)
	Set(ctx context.Context, shortCode, destinationURL string) error
	Invalidate(ctx context.Context, shortCode string) error
}

// ClickAccountant schedules asynchronous click accounting. Record must not block.
type ClickAccountant interface {
	Record(event models.ClickEvent)
}

// Screener reports whether a destination URL is known to be malicious.
type Screener interface {
	Malicious(ctx context.Context, destinationURL string) (bool, error)
}

// Policy is the quota/plan collaborator consulted before creation.
type Policy interface {
	Allow(ctx context.Context, ownerID *int64) error
}

// AllowAll is the default policy used when no plan system is wired in.
type AllowAll struct{}

func (AllowAll) Allow(context.Context, *int64) error { return nil }

// LinkService orchestrates link creation, resolution and mutation. All
// collaborators are injected once at startup; request handling only reads them.
type LinkService struct {
	repo       LinkRepository
	allocator  CodeAllocator
	cache      ResolutionCache
	accountant ClickAccountant
	screener   Screener
	policy     Policy
	logger     *slog.Logger
}

func NewLinkService(
	repo LinkRepository,
	allocator CodeAllocator,
	resolutionCache ResolutionCache,
	accountant ClickAccountant,
	screener Screener,
	policy Policy,
	logger *slog.Logger,
) *LinkService {
	if policy == nil {
		policy = AllowAll{}
	}

	return &LinkService{
		repo:       repo,
		allocator:  allocator,
		cache:      resolutionCache,
		accountant: accountant,
		screener:   screener,
		policy:     policy,
		logger:     logger,
	}
}

// ShortenURL creates a new link. Policy and screening run before the
// allocator so a rejected request never consumes a counter value. A duplicate
// short code is retryable: the colliding code is discarded and a fresh one
// requested, up to maxRetries attempts.
func (s *LinkService) ShortenURL(ctx context.Context, destinationURL string, ownerID *int64) (*models.Link, error) {
	const op = "service.LinkService.ShortenURL"
	const maxRetries = 5

	if err := s.policy.Allow(ctx, ownerID); err != nil {
		return nil, fmt.Errorf("%s: creation rejected by policy: %w", op, err)
	}

	malicious, err := s.screener.Malicious(ctx, destinationURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to screen url: %w", op, err)
	}
	if malicious {
		return nil, fmt.Errorf("%s: %w", op, ErrMaliciousURL)
	}

	for i := 0; i < maxRetries; i++ {
		shortCode, err := s.allocator.Allocate(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to allocate short code: %w", op, err)
		}

		link, err := s.repo.Create(ctx, shortCode, destinationURL, ownerID)
		if err != nil {
			if errors.Is(err, database.ErrShortCodeExists) {
				s.logger.Warn("allocated short code already taken, retrying",
					slog.String("short_code", shortCode))
				continue
			}

			return nil, fmt.Errorf("%s: failed to create link: %w", op, err)
		}

		// Warm the cache so the first redirect skips the store. Best
		// effort: the entry will be filled lazily on a miss anyway.
		if err := s.cache.Set(ctx, link.ShortCode, link.DestinationURL); err != nil {
			s.logger.Warn("failed to warm resolution cache", slog.Any("err", err))
		}

		return link, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// ResolveShortCode returns the destination URL for a redirect and schedules
// click accounting. The cache is consulted first; any cache failure degrades
// to a store lookup. Unknown codes are never cached.
func (s *LinkService) ResolveShortCode(ctx context.Context, event models.ClickEvent) (string, error) {
	const op = "service.LinkService.ResolveShortCode"

	destinationURL, err := s.cache.Get(ctx, event.ShortCode)
	if err == nil {
		s.accountant.Record(event)
		return destinationURL, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("resolution cache unavailable, falling through to store", slog.Any("err", err))
	}

	link, err := s.repo.GetByShortCode(ctx, event.ShortCode)
	if err != nil {
		return "", fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	if err := s.cache.Set(ctx, link.ShortCode, link.DestinationURL); err != nil {
		s.logger.Warn("failed to populate resolution cache", slog.Any("err", err))
	}

	s.accountant.Record(event)

	return link.DestinationURL, nil
}

// GetLink retrieves a link without recording a click.
func (s *LinkService) GetLink(ctx context.Context, shortCode string) (*models.Link, error) {
	const op = "service.LinkService.GetLink"

	link, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link: %w", op, err)
	}

	return link, nil
}

// checkOwnership gates mutations: an owned link may only be mutated by its
// owner, while anonymous links stay mutable by anyone.
func (s *LinkService) checkOwnership(ctx context.Context, shortCode string, callerID *int64) error {
	link, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return err
	}

	if link.OwnerID == nil {
		return nil
	}
	if callerID == nil || *callerID != *link.OwnerID {
		return ErrNotOwner
	}

	return nil
}

// ModifyURL updates the destination URL for a short code and invalidates the
// cache entry after the store commit. A lost invalidation is bounded by the
// cache TTL. Owned links reject callers other than their owner with
// ErrNotOwner.
func (s *LinkService) ModifyURL(ctx context.Context, shortCode, destinationURL string, callerID *int64) (*models.Link, error) {
	const op = "service.LinkService.ModifyURL"

	if err := s.checkOwnership(ctx, shortCode, callerID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	link, err := s.repo.Update(ctx, shortCode, destinationURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to modify link: %w", op, err)
	}

	if err := s.cache.Invalidate(ctx, shortCode); err != nil {
		s.logger.Warn("failed to invalidate resolution cache", slog.Any("err", err))
	}

	return link, nil
}

// DeactivateURL deletes the link and invalidates its cache entry. Subject to
// the same ownership gate as ModifyURL.
func (s *LinkService) DeactivateURL(ctx context.Context, shortCode string, callerID *int64) error {
	const op = "service.LinkService.DeactivateURL"

	if err := s.checkOwnership(ctx, shortCode, callerID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.Delete(ctx, shortCode); err != nil {
		return fmt.Errorf("%s: failed to deactivate link: %w", op, err)
	}

	if err := s.cache.Invalidate(ctx, shortCode); err != nil {
		s.logger.Warn("failed to invalidate resolution cache", slog.Any("err", err))
	}

	return nil
}

// GetLinkStats retrieves a link with its per-day click buckets.
func (s *LinkService) GetLinkStats(ctx context.Context, shortCode string) (*models.LinkStats, error) {
	const op = "service.LinkService.GetLinkStats"

	stats, err := s.repo.GetStats(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link stats: %w", op, err)
	}

	return stats, nil
}

// GetOwnerStats aggregates totals for one owner's dashboard.
func (s *LinkService) GetOwnerStats(ctx context.Context, ownerID int64) (*models.OwnerStats, error) {
	const op = "service.LinkService.GetOwnerStats"

	stats, err := s.repo.OwnerStats(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get owner stats: %w", op, err)
	}

	return stats, nil
}
