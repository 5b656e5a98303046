// Package store defines the boundary to the remote list that receives feedback
// records. Implementations live in the sharepoint, supabase and postgres
// sub-packages and are constructed explicitly, then injected.
package store

import (
	"context"

	"github.com/NomadCrew/customer-feedback-portal/types"
)

// ListStore reads a list schema and creates items in it.
type ListStore interface {
	// Fields returns the field descriptors of the named list.
	Fields(ctx context.Context, list string) ([]types.FieldDescriptor, error)
	// AddItem creates a single item and returns what the store echoed back.
	AddItem(ctx context.Context, list string, record types.Record) (types.Record, error)
}

// IdentityProvider looks up the signed-in user. Optional for backends.
type IdentityProvider interface {
	CurrentUser(ctx context.Context) (*types.Identity, error)
}
