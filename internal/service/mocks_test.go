package service

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/link-shortener/internal/models"
)

type MockLinkRepository struct {
	mock.Mock
}

func (r *MockLinkRepository) Create(ctx context.Context, shortCode, destinationURL string, ownerID *int64) (*models.Link, error) {
	args := r.Called(ctx, shortCode, destinationURL, ownerID)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (r *MockLinkRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.Link, error) {
	args := r.Called(ctx, shortCode)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (r *MockLinkRepository) Update(ctx context.Context, shortCode, destinationURL string) (*models.Link, error) {
	args := r.Called(ctx, shortCode, destinationURL)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (r *MockLinkRepository) Delete(ctx context.Context, shortCode string) error {
	args := r.Called(ctx, shortCode)
	return args.Error(0)
}

func (r *MockLinkRepository) GetStats(ctx context.Context, shortCode string) (*models.LinkStats, error) {
	args := r.Called(ctx, shortCode)
	stats, _ := args.Get(0).(*models.LinkStats)
	return stats, args.Error(1)
}

func (r *MockLinkRepository) OwnerStats(ctx context.Context, ownerID int64) (*models.OwnerStats, error) {
	args := r.Called(ctx, ownerID)
	stats, _ := args.Get(0).(*models.OwnerStats)
	return stats, args.Error(1)
}

type MockCodeAllocator struct {
	mock.Mock
}

func (a *MockCodeAllocator) Allocate(ctx context.Context) (string, error) {
	args := a.Called(ctx)
	return args.String(0), args.Error(1)
}

type MockResolutionCache struct {
	mock.Mock
}

func (c *MockResolutionCache) Get(ctx context.Context, shortCode string) (string, error) {
	args := c.Called(ctx, shortCode)
	return args.String(0), args.Error(1)
}

func (c *MockResolutionCache) Set(ctx context.Context, shortCode, destinationURL string) error {
	args := c.Called(ctx, shortCode, destinationURL)
	return args.Error(0)
}

func (c *MockResolutionCache) Invalidate(ctx context.Context, shortCode string) error {
	args := c.Called(ctx, shortCode)
	return args.Error(0)
}

type MockClickAccountant struct {
	mock.Mock
}

func (a *MockClickAccountant) Record(event models.ClickEvent) {
	a.Called(event)
}

type MockScreener struct {
	mock.Mock
}

func (s *MockScreener) Malicious(ctx context.Context, destinationURL string) (bool, error) {
	args := s.Called(ctx, destinationURL)
	return args.Bool(0), args.Error(1)
}

type MockPolicy struct {
	mock.Mock
}

func (p *MockPolicy) Allow(ctx context.Context, ownerID *int64) error {
	args := p.Called(ctx, ownerID)
	return args.Error(0)
}
