package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/lodge-operations/internal/model"
)

func TestResolveValidToken(t *testing.T) {
	t.Parallel()
	store := newFakeReservationStore()
	token := "a3f8c9d2e1b04567a3f8c9d2e1b04567"
	seeded := store.seed(model.Reservation{ExternalNumber: "R-1", GuestName: "g", Status: model.ReservationAssigned, GuestToken: &token})

	r, err := NewGuestResolver(store).Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.ID != seeded.ID {
		t.Fatalf("resolved id = %d, want %d", r.ID, seeded.ID)
	}
}

// A blank token and an unknown token must be indistinguishable to the
// caller, so the endpoint gives an enumeration attempt nothing to work
// with.
func TestResolveFailuresAreUniform(t *testing.T) {
	t.Parallel()
	resolver := NewGuestResolver(newFakeReservationStore())
	ctx := context.Background()

	_, blankErr := resolver.Resolve(ctx, "")
	_, unknownErr := resolver.Resolve(ctx, "deadbeefdeadbeefdeadbeefdeadbeef")
	_, malformedErr := resolver.Resolve(ctx, "not-hex-at-all")

	for name, err := range map[string]error{"blank": blankErr, "unknown": unknownErr, "malformed": malformedErr} {
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s token: err = %v, want ErrInvalidToken", name, err)
		}
	}
	if blankErr.Error() != unknownErr.Error() || unknownErr.Error() != malformedErr.Error() {
		t.Fatalf("failure messages differ: %q / %q / %q", blankErr, unknownErr, malformedErr)
	}
}
