package types

import (
	"context"
	"errors"
)

// Filter narrows a FetchLinks query. Supported keys: poi_id, item_id,
// schematic_id, link_type, created_by (string), limit, offset (int).
type Filter map[string]any

// LinkStore defines backend-agnostic access to persisted links.
// Callers attach to a backend, run bulk operations, and detach when done.
type LinkStore interface {
	// Attach connects the store to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations return ErrStoreDetached.
	Detach() error

	// CreateLinks persists a batch of links in a single transaction and
	// returns the generated link IDs in input order. The batch is all-or-
	// nothing: on error no links from the batch are persisted.
	CreateLinks(ctx context.Context, links []*PoiEntityLink) ([]string, error)

	// DeleteLinks removes links by ID. Returns the IDs actually deleted and
	// the IDs that were not found. A non-nil error means the delete could
	// not run at all.
	DeleteLinks(ctx context.Context, ids []string) (deleted, missing []string, err error)

	// ExistingLinks returns the persisted links whose POI is in poiIDs and
	// whose entity is in entityIDs. Empty input slices yield an empty result.
	ExistingLinks(ctx context.Context, poiIDs, entityIDs []string) ([]ExistingLink, error)

	// FetchLinks returns links matching the filter, ordered by created_at
	// descending. An empty filter returns every link.
	FetchLinks(ctx context.Context, filter Filter) ([]*PoiEntityLink, error)
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("link store is detached")
	ErrAlreadyAttached = errors.New("link store is already attached")
)

// Link validation errors.
var (
	ErrInvalidID       = errors.New("invalid entity ID")
	ErrEntityExclusive = errors.New("exactly one of item ID and schematic ID must be set")
	ErrInvalidLinkType = errors.New("invalid link type")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrMissingActor    = errors.New("created_by actor is required")
	ErrInvalidFilter   = errors.New("invalid filter value type")
	ErrNotFound        = errors.New("entity not found")
)

// Operation history errors.
var (
	ErrOperationNotFound = errors.New("operation not found in history")
	ErrAlreadyUndone     = errors.New("operation has already been undone")
	ErrUndoExpired       = errors.New("undo time limit has expired")
	ErrNothingToUndo     = errors.New("no link IDs recorded for this operation")
)
