// Package linking implements the bulk-linking engine: cartesian expansion of
// a selection into link records, duplicate-aware batched creation against a
// LinkStore, classification-driven retry, and the operation history ledger.
package linking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sietch-tools/poilink/internal/monitor"
	"github.com/sietch-tools/poilink/pkg/types"
)

// ErrNoCombinations is returned when the selection expands to zero link
// candidates.
var ErrNoCombinations = errors.New("no valid POI/entity combinations to link")

// ErrCancelled is returned when the context is cancelled mid-operation.
var ErrCancelled = errors.New("operation cancelled")

// Selection is the input to a bulk create: the three ID lists, treated as
// sets (duplicates are ignored).
type Selection struct {
	PoiIDs       []string
	ItemIDs      []string
	SchematicIDs []string
}

// ProgressFunc receives progress after each phase and batch. percent runs 0
// to 100; processed/total count link candidates once batching starts.
type ProgressFunc func(percent float64, processed, total int)

// Options tunes one bulk create. Zero values fall back to the creator's
// configured defaults.
type Options struct {
	// CreatedBy is the authenticated actor; required.
	CreatedBy string

	LinkType   string
	Quantity   int
	Notes      string
	BatchSize  int
	MaxRetries int
	RetryDelay time.Duration
	OnProgress ProgressFunc
}

// Analytics summarizes one bulk create for display.
type Analytics struct {
	StartTime      time.Time      `json:"start_time"`
	EndTime        time.Time      `json:"end_time"`
	Duration       time.Duration  `json:"duration"`
	AvgBatchTime   time.Duration  `json:"avg_batch_time"`
	TotalBatches   int            `json:"total_batches"`
	ItemLinks      int            `json:"item_links"`
	SchematicLinks int            `json:"schematic_links"`
	PoiBreakdown   map[string]int `json:"poi_breakdown"`
}

// Result is the structured outcome of a bulk create. Partial success is a
// first-class state: Created and Failed can both be non-zero.
type Result struct {
	Success           bool                   `json:"success"`
	Created           int                    `json:"created"`
	Failed            int                    `json:"failed"`
	Errors            []string               `json:"errors"`
	EnhancedErrors    []*types.EnhancedError `json:"enhanced_errors"`
	DuplicatesSkipped int                    `json:"duplicates_skipped"`

	// TotalProcessed is the full cartesian product size, before duplicate
	// exclusion.
	TotalProcessed int `json:"total_processed"`

	CanRetry       bool                 `json:"can_retry"`
	CanUndo        bool                 `json:"can_undo"`
	OperationID    string               `json:"operation_id"`
	CreatedLinkIDs []string             `json:"created_link_ids"`
	Analytics      Analytics            `json:"analytics"`
	RetryHistory   []types.RetryAttempt `json:"retry_history"`
}

// linkKey identifies one (POI, entity) pair for duplicate exclusion. Using a
// struct key avoids delimiter collisions that a joined-string key would risk.
type linkKey struct {
	poiID      string
	entityID   string
	entityKind string
}

// Creator runs bulk link creation against a LinkStore, reporting to a
// monitor and recording completed operations in the ledger.
type Creator struct {
	store  types.LinkStore
	mon    *monitor.Monitor
	ledger *Ledger
	cfg    types.LinkingConfig

	// now is replaceable in tests.
	now func() time.Time
}

// NewCreator wires a creator to its store, monitor, and ledger.
func NewCreator(store types.LinkStore, mon *monitor.Monitor, ledger *Ledger, cfg types.LinkingConfig) *Creator {
	return &Creator{
		store:  store,
		mon:    mon,
		ledger: ledger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Create expands the selection into link candidates, excludes duplicates
// already persisted, and submits the remainder in sequential batches. A
// failing batch does not abort later batches; only missing authentication, an
// empty expansion, a failed duplicate check, or context cancellation aborts
// the operation. The returned Result is never nil.
func (c *Creator) Create(ctx context.Context, sel Selection, opts Options) (*Result, error) {
	opts = c.applyDefaults(opts)

	operationID := newOperationID()
	start := c.now()

	result := &Result{
		OperationID: operationID,
		Errors:      []string{},
		Analytics: Analytics{
			StartTime:    start,
			PoiBreakdown: make(map[string]int),
		},
	}

	c.mon.StartOperation(operationID)

	var batchTimes []time.Duration
	defer func() {
		c.mon.CompleteOperation(operationID)

		result.Analytics.EndTime = c.now()
		result.Analytics.Duration = result.Analytics.EndTime.Sub(start)
		result.Analytics.AvgBatchTime = avgDuration(batchTimes)

		if result.Created > 0 || result.CanRetry {
			c.recordOperation(sel, opts, result)
		}
	}()

	pois := unique(sel.PoiIDs)
	items := unique(sel.ItemIDs)
	schems := unique(sel.SchematicIDs)
	result.TotalProcessed = len(pois) * (len(items) + len(schems))

	// Phase 1: authentication.
	if opts.CreatedBy == "" {
		return c.abort(result, types.ErrMissingActor)
	}
	reportProgress(opts.OnProgress, 5, 0, result.TotalProcessed)

	if result.TotalProcessed == 0 {
		return c.abort(result, ErrNoCombinations)
	}

	// Phase 2: duplicate check.
	entityIDs := append(append([]string{}, items...), schems...)
	dupStart := c.now()
	existing, err := c.store.ExistingLinks(ctx, pois, entityIDs)
	c.mon.RecordNetworkRequest(operationID, c.now().Sub(dupStart), err == nil, false)
	if err != nil {
		return c.abort(result, fmt.Errorf("checking existing links: %w", err))
	}
	reportProgress(opts.OnProgress, 15, 0, result.TotalProcessed)

	existingKeys := make(map[linkKey]struct{}, len(existing))
	for _, link := range existing {
		existingKeys[linkKey{link.PoiID, link.EntityID, link.EntityKind}] = struct{}{}
	}

	// Phase 3: cartesian expansion with duplicate exclusion.
	toCreate := c.expand(pois, items, schems, existingKeys, opts, result)
	result.DuplicatesSkipped = result.TotalProcessed - len(toCreate)
	reportProgress(opts.OnProgress, 25, 0, result.TotalProcessed)

	// Everything already linked is a clean terminal state, not an error.
	if len(toCreate) == 0 {
		result.Success = true
		reportProgress(opts.OnProgress, 100, result.TotalProcessed, result.TotalProcessed)
		return result, nil
	}

	// Phase 4: sequential batch submission.
	numBatches := (len(toCreate) + opts.BatchSize - 1) / opts.BatchSize
	result.Analytics.TotalBatches = numBatches

	for i := 0; i < len(toCreate); i += opts.BatchSize {
		if ctx.Err() != nil {
			remaining := len(toCreate) - i
			result.Failed += remaining
			result.Errors = append(result.Errors, fmt.Sprintf("cancelled with %d links unsubmitted", remaining))
			c.finishBatches(result, toCreate)
			return result, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}

		end := i + opts.BatchSize
		if end > len(toCreate) {
			end = len(toCreate)
		}
		batch := toCreate[i:end]
		batchNumber := i/opts.BatchSize + 1

		batchStart := c.now()
		ids, err := c.store.CreateLinks(ctx, batch)
		batchTime := c.now().Sub(batchStart)
		batchTimes = append(batchTimes, batchTime)
		c.mon.RecordBatch(operationID, len(batch), batchTime)
		c.mon.RecordNetworkRequest(operationID, batchTime, err == nil, false)

		if err != nil {
			enhanced := Classify(err)
			result.Failed += len(batch)
			result.Errors = append(result.Errors, fmt.Sprintf("batch %d/%d: %s", batchNumber, numBatches, enhanced.UserMessage))
			result.EnhancedErrors = append(result.EnhancedErrors, enhanced)
			if enhanced.Retryable {
				result.CanRetry = true
			}
		} else {
			result.Created += len(ids)
			result.CreatedLinkIDs = append(result.CreatedLinkIDs, ids...)
			for _, link := range batch {
				if link.EntityKind() == types.EntityKindItem {
					result.Analytics.ItemLinks++
				} else {
					result.Analytics.SchematicLinks++
				}
			}
		}

		processed := end
		percent := 25 + float64(processed)/float64(len(toCreate))*70
		reportProgress(opts.OnProgress, percent, processed, len(toCreate))
	}

	c.finishBatches(result, toCreate)
	reportProgress(opts.OnProgress, 100, result.TotalProcessed, result.TotalProcessed)
	return result, nil
}

// expand builds the pending link records for every non-duplicate (POI,
// entity) pair, items first, in input order.
func (c *Creator) expand(pois, items, schems []string, existing map[linkKey]struct{}, opts Options, result *Result) []*types.PoiEntityLink {
	var toCreate []*types.PoiEntityLink

	add := func(poiID, itemID, schematicID, kind, entityID string) {
		if _, dup := existing[linkKey{poiID, entityID, kind}]; dup {
			return
		}
		toCreate = append(toCreate, &types.PoiEntityLink{
			PoiID:       poiID,
			ItemID:      itemID,
			SchematicID: schematicID,
			LinkType:    opts.LinkType,
			Quantity:    opts.Quantity,
			Notes:       opts.Notes,
			CreatedBy:   opts.CreatedBy,
		})
		result.Analytics.PoiBreakdown[poiID]++
	}

	for _, poiID := range pois {
		for _, itemID := range items {
			add(poiID, itemID, "", types.EntityKindItem, itemID)
		}
	}
	for _, poiID := range pois {
		for _, schematicID := range schems {
			add(poiID, "", schematicID, types.EntityKindSchematic, schematicID)
		}
	}
	return toCreate
}

// finishBatches derives the terminal flags once batching stops. Success means
// at least 90% of the attempted links were created; any creation at all makes
// the operation undoable.
func (c *Creator) finishBatches(result *Result, toCreate []*types.PoiEntityLink) {
	if len(toCreate) > 0 {
		rate := float64(result.Created) / float64(len(toCreate))
		result.Success = result.Created > 0 && rate >= 0.9
	}
	result.CanUndo = result.Created > 0
}

// abort classifies a fatal pre-batching failure, stamps it on the result, and
// returns it alongside the raw error.
func (c *Creator) abort(result *Result, err error) (*Result, error) {
	enhanced := Classify(err)
	result.Errors = append(result.Errors, enhanced.UserMessage)
	result.EnhancedErrors = append(result.EnhancedErrors, enhanced)
	if enhanced.Retryable {
		result.CanRetry = true
	}
	return result, err
}

// recordOperation writes the completed operation to the history ledger.
// Ledger write failures are reported on the result rather than failing the
// operation; the links themselves are already persisted.
func (c *Creator) recordOperation(sel Selection, opts Options, result *Result) {
	status := types.StatusFailed
	if result.Success {
		status = types.StatusSuccess
	}

	op := types.Operation{
		ID:        result.OperationID,
		Type:      types.OperationCreate,
		Timestamp: result.Analytics.StartTime,
		Status:    status,
		Details: types.OperationDetails{
			PoiCount:       len(unique(sel.PoiIDs)),
			ItemCount:      len(unique(sel.ItemIDs)),
			SchematicCount: len(unique(sel.SchematicIDs)),
			LinksCreated:   result.Created,
			LinkIDs:        result.CreatedLinkIDs,
			LinkType:       opts.LinkType,
		},
		CanUndo:    result.CanUndo,
		UndoExpiry: c.now().Add(c.cfg.GetUndoWindow()),
	}
	if len(result.EnhancedErrors) > 0 {
		op.ErrorInfo = result.EnhancedErrors[0]
	}

	if err := c.ledger.Save(op); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("recording operation history: %v", err))
	}
}

// applyDefaults fills zero option values from the creator's configuration.
func (c *Creator) applyDefaults(opts Options) Options {
	if opts.LinkType == "" {
		opts.LinkType = c.cfg.GetLinkType()
	}
	if opts.Quantity <= 0 {
		opts.Quantity = c.cfg.GetDefaultQuantity()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = c.cfg.GetBatchSize()
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = c.cfg.GetMaxRetries()
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = c.cfg.GetRetryDelay()
	}
	return opts
}

// newOperationID returns a UUID v7 operation ID, falling back to v4 when the
// clock-based generator fails.
func newOperationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func reportProgress(fn ProgressFunc, percent float64, processed, total int) {
	if fn != nil {
		fn(percent, processed, total)
	}
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func avgDuration(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range ds {
		total += d
	}
	return total / time.Duration(len(ds))
}
