// Shared helpers for poilink CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sietch-tools/poilink/internal/kvstore"
	"github.com/sietch-tools/poilink/internal/linking"
	"github.com/sietch-tools/poilink/internal/monitor"
	"github.com/sietch-tools/poilink/internal/selection"
	"github.com/sietch-tools/poilink/internal/sqlite"
	"github.com/sietch-tools/poilink/pkg/types"
)

// attachBackend resolves the data directory, creates a SQLite backend, and
// attaches it. The caller must defer backend.Detach().
func attachBackend() (*sqlite.Backend, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := appConfig
	cfg.Backend = defaultBackend
	cfg.DataDir = dataDir

	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}

	return backend, nil
}

// engine bundles the wired bulk-linking components for one CLI invocation.
type engine struct {
	backend *sqlite.Backend
	creator *linking.Creator
	ledger  *linking.Ledger
	mon     *monitor.Monitor
	kv      kvstore.Store
}

// newEngine attaches the backend and wires the creator, ledger, and monitor
// over it. The history ledger and perf reports persist as files next to the
// database. The caller must defer eng.close().
func newEngine() (*engine, error) {
	backend, err := attachBackend()
	if err != nil {
		return nil, err
	}

	dataDir, err := resolveDataDir()
	if err != nil {
		backend.Detach()
		return nil, err
	}

	kv, err := kvstore.NewFileStore(filepath.Join(dataDir, "state"))
	if err != nil {
		backend.Detach()
		return nil, fmt.Errorf("open state store: %w", err)
	}

	mon := monitor.New(monitor.DefaultThresholds())
	ledger := linking.NewLedger(kv)
	creator := linking.NewCreator(backend, mon, ledger, appConfig.Linking)

	return &engine{
		backend: backend,
		creator: creator,
		ledger:  ledger,
		mon:     mon,
		kv:      kv,
	}, nil
}

func (e *engine) close() {
	e.backend.Detach()
}

// selectionFromFlags builds a selection from either a query string or the
// comma-separated ID flags. The query wins when both are given.
func selectionFromFlags(query, pois, items, schems string) (linking.Selection, error) {
	if query != "" {
		poiIDs, itemIDs, schematicIDs, err := selection.DecodeParams(query)
		if err != nil {
			return linking.Selection{}, fmt.Errorf("parse query: %w", err)
		}
		return linking.Selection{PoiIDs: poiIDs, ItemIDs: itemIDs, SchematicIDs: schematicIDs}, nil
	}
	return linking.Selection{
		PoiIDs:       splitCSV(pois),
		ItemIDs:      splitCSV(items),
		SchematicIDs: splitCSV(schems),
	}, nil
}

// selectionStore loads sel into a validated selection store.
func selectionStore(sel linking.Selection) *selection.Store {
	store := selection.NewStore(selection.DefaultLimits(appConfig.Linking.GetMaxSelections()))
	store.Reset(sel.PoiIDs, sel.ItemIDs, sel.SchematicIDs)
	return store
}

// splitCSV splits a comma-separated flag value, dropping empty segments.
func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal JSON:", err)
		os.Exit(exitSysError)
	}
	fmt.Println(string(out))
}

// describeLink formats one link for human-readable output.
func describeLink(link *types.PoiEntityLink) string {
	return fmt.Sprintf("%s  %s -> %s (%s)  type=%s qty=%d by=%s at=%s",
		link.LinkID, link.PoiID, link.EntityID(), link.EntityKind(),
		link.LinkType, link.Quantity, link.CreatedBy,
		link.CreatedAt.Format("2006-01-02 15:04:05"))
}
