package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/lodge-operations/internal/model"
	"github.com/iliyamo/lodge-operations/internal/repository"
)

// GuestResolver maps an opaque guest token to its reservation.  Every
// guest-facing operation resolves the token first.  All failures look
// identical to the caller: a blank, malformed or simply unknown token
// is the same ErrInvalidToken, so the endpoint cannot be used to
// enumerate tokens.
type GuestResolver struct {
	store ReservationStore
}

// NewGuestResolver returns a resolver over the given store.
func NewGuestResolver(store ReservationStore) *GuestResolver {
	if store == nil {
		panic("nil store passed to NewGuestResolver")
	}
	return &GuestResolver{store: store}
}

// Resolve returns the reservation the token grants access to, or
// ErrInvalidToken.
func (g *GuestResolver) Resolve(ctx context.Context, token string) (*model.Reservation, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	r, err := g.store.ByGuestToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("resolve guest token: %w", err)
	}
	return r, nil
}
