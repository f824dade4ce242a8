// Package identity resolves caller credentials to account identifiers. The
// real authentication system is an external collaborator; this package pins
// down its interface and ships a token-based stand-in good enough for
// development and tests.
package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrUnknownCredential is returned when a credential resolves to no account.
var ErrUnknownCredential = errors.New("unknown credential")

const tokenLength = 32

// Resolver maps a bearer credential to the owning account.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (int64, error)
}

// TokenResolver keeps an in-memory table of issued opaque tokens.
type TokenResolver struct {
	mu     sync.RWMutex
	tokens map[string]int64
}

func NewTokenResolver() *TokenResolver {
	return &TokenResolver{
		tokens: make(map[string]int64),
	}
}

// Issue mints an opaque token for ownerID.
func (r *TokenResolver) Issue(ownerID int64) (string, error) {
	const op = "identity.TokenResolver.Issue"

	token, err := gonanoid.New(tokenLength)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	r.mu.Lock()
	r.tokens[token] = ownerID
	r.mu.Unlock()

	return token, nil
}

func (r *TokenResolver) Resolve(_ context.Context, credential string) (int64, error) {
	const op = "identity.TokenResolver.Resolve"

	r.mu.RLock()
	ownerID, ok := r.tokens[credential]
	r.mu.RUnlock()

	if !ok {
		return 0, fmt.Errorf("%s: %w", op, ErrUnknownCredential)
	}

	return ownerID, nil
}
