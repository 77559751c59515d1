package domain

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the authenticated (user, tenant) pair for the current request.
type Identity struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
}

// IdentityProvider supplies the identity of the caller. The boolean is false
// when there is no authenticated user or tenant context, in which case every
// preference mutator degrades to a no-op.
type IdentityProvider interface {
	CurrentIdentity(ctx context.Context) (Identity, bool)
}
