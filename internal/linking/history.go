package linking

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sietch-tools/poilink/internal/kvstore"
	"github.com/sietch-tools/poilink/pkg/types"
)

// historyKey is the single kvstore key the ledger persists under.
const historyKey = "poi-linking-history"

// historyCap is the number of operations retained, newest first.
const historyCap = 20

// Ledger is the capped, most-recent-first log of completed link operations.
// It backs the time-boxed undo feature. Safe for concurrent use.
type Ledger struct {
	mu    sync.Mutex
	store kvstore.Store

	// now is replaceable in tests.
	now func() time.Time
}

// NewLedger returns a ledger persisting through store.
func NewLedger(store kvstore.Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// Save prepends op to the history and evicts the oldest entries beyond the
// cap.
func (l *Ledger) Save(op types.Operation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.loadLocked()
	history = append([]types.Operation{op}, history...)
	if len(history) > historyCap {
		history = history[:historyCap]
	}
	return l.persistLocked(history)
}

// History returns the persisted operations, newest first. Entries whose undo
// window has passed are reported with CanUndo false. Corrupt stored data
// yields an empty list rather than an error.
func (l *Ledger) History() []types.Operation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked()
}

// Clear empties the history unconditionally.
func (l *Ledger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Delete(historyKey)
}

// UndoResult reports the outcome of reversing an operation. On partial
// failure UndoneCount and FailedIDs describe the split and the operation is
// not marked undone.
type UndoResult struct {
	Success     bool     `json:"success"`
	UndoneCount int      `json:"undone_count"`
	FailedIDs   []string `json:"failed_ids,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// Undo reverses a create operation by bulk-deleting the links it created.
// The undo window is checked before the store is touched: an expired
// operation never reaches the delete endpoint.
func (l *Ledger) Undo(ctx context.Context, store types.LinkStore, operationID string) (*UndoResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := &UndoResult{}

	history := l.loadLocked()
	idx := -1
	for i, op := range history {
		if op.ID == operationID {
			idx = i
			break
		}
	}
	if idx == -1 {
		result.Errors = append(result.Errors, "operation not found in history")
		return result, types.ErrOperationNotFound
	}

	op := history[idx]
	switch {
	case op.Status == types.StatusUndone:
		result.Errors = append(result.Errors, "this operation has already been undone")
		return result, types.ErrAlreadyUndone
	case !op.CanUndo || l.now().After(op.UndoExpiry):
		result.Errors = append(result.Errors, "the undo time limit has expired")
		return result, types.ErrUndoExpired
	case len(op.Details.LinkIDs) == 0:
		result.Errors = append(result.Errors, "no link IDs recorded for this operation")
		return result, types.ErrNothingToUndo
	}

	deleted, missing, err := store.DeleteLinks(ctx, op.Details.LinkIDs)
	if err != nil {
		enhanced := Classify(err)
		result.Errors = append(result.Errors, enhanced.UserMessage)
		return result, fmt.Errorf("deleting links for undo: %w", err)
	}

	result.UndoneCount = len(deleted)
	if len(missing) > 0 {
		// Partial reversal: report the split, leave the entry undoable so a
		// later attempt can finish the job.
		result.FailedIDs = missing
		result.Errors = append(result.Errors, fmt.Sprintf("%d of %d links could not be deleted", len(missing), len(op.Details.LinkIDs)))
		return result, nil
	}

	result.Success = true

	history[idx].Status = types.StatusUndone
	history[idx].CanUndo = false

	undoEntry := types.Operation{
		ID:        newUndoID(operationID),
		Type:      types.OperationUndo,
		Timestamp: l.now(),
		Status:    types.StatusSuccess,
		Details: types.OperationDetails{
			PoiCount:       op.Details.PoiCount,
			ItemCount:      op.Details.ItemCount,
			SchematicCount: op.Details.SchematicCount,
			// Negative to indicate removal.
			LinksCreated: -op.Details.LinksCreated,
			LinkIDs:      op.Details.LinkIDs,
			LinkType:     op.Details.LinkType,
		},
		CanUndo:    false,
		UndoExpiry: l.now(),
	}

	history = append([]types.Operation{undoEntry}, history...)
	if len(history) > historyCap {
		history = history[:historyCap]
	}
	if err := l.persistLocked(history); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("updating history: %v", err))
	}

	return result, nil
}

// loadLocked reads and decodes the history, expiring stale undo flags.
// Corrupt data decodes to an empty list. The caller must hold l.mu.
func (l *Ledger) loadLocked() []types.Operation {
	data, ok, err := l.store.Get(historyKey)
	if err != nil || !ok {
		return []types.Operation{}
	}

	var history []types.Operation
	if err := json.Unmarshal(data, &history); err != nil {
		return []types.Operation{}
	}

	now := l.now()
	for i := range history {
		if history[i].CanUndo && now.After(history[i].UndoExpiry) {
			history[i].CanUndo = false
		}
	}
	return history
}

// persistLocked encodes and writes the history. The caller must hold l.mu.
func (l *Ledger) persistLocked(history []types.Operation) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encoding operation history: %w", err)
	}
	if err := l.store.Set(historyKey, data); err != nil {
		return fmt.Errorf("persisting operation history: %w", err)
	}
	return nil
}

func newUndoID(operationID string) string {
	id, err := uuid.NewV7()
	if err != nil {
		return "undo-" + operationID
	}
	return id.String()
}
