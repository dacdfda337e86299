// Shared in-process helpers for engine integration tests.
package integration

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sietch-tools/poilink/internal/kvstore"
	"github.com/sietch-tools/poilink/internal/linking"
	"github.com/sietch-tools/poilink/internal/monitor"
	"github.com/sietch-tools/poilink/internal/sqlite"
	"github.com/sietch-tools/poilink/pkg/types"
)

// engine bundles the fully wired bulk-linking stack over a real SQLite
// database in a temp directory.
type engine struct {
	backend *sqlite.Backend
	store   types.LinkStore
	creator *linking.Creator
	ledger  *linking.Ledger
	mon     *monitor.Monitor
	dataDir string
}

// setupEngine wires a creator, ledger, and monitor over a real backend.
// wrap, when non-nil, interposes on the LinkStore the creator sees.
func setupEngine(t *testing.T, wrap func(types.LinkStore) types.LinkStore) *engine {
	t.Helper()

	dataDir := t.TempDir()
	backend := sqlite.NewBackend()
	require.NoError(t, backend.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dataDir}))
	t.Cleanup(func() { backend.Detach() })

	kv, err := kvstore.NewFileStore(dataDir + "/state")
	require.NoError(t, err)

	var store types.LinkStore = backend
	if wrap != nil {
		store = wrap(backend)
	}

	mon := monitor.New(monitor.DefaultThresholds())
	ledger := linking.NewLedger(kv)
	creator := linking.NewCreator(store, mon, ledger, types.LinkingConfig{})

	return &engine{
		backend: backend,
		store:   store,
		creator: creator,
		ledger:  ledger,
		mon:     mon,
		dataDir: dataDir,
	}
}

// errTransient is the scripted failure injected by flakyStore.
var errTransient = errors.New("network timeout talking to backend")

// flakyStore delegates to a real LinkStore but fails scripted CreateLinks
// calls with a transient error.
type flakyStore struct {
	types.LinkStore

	mu        sync.Mutex
	callCount int
	failCalls map[int]bool // 1-based CreateLinks call numbers to fail
}

func newFlakyStore(inner types.LinkStore, failCalls ...int) *flakyStore {
	fs := &flakyStore{LinkStore: inner, failCalls: make(map[int]bool)}
	for _, n := range failCalls {
		fs.failCalls[n] = true
	}
	return fs
}

func (f *flakyStore) CreateLinks(ctx context.Context, links []*types.PoiEntityLink) ([]string, error) {
	f.mu.Lock()
	f.callCount++
	fail := f.failCalls[f.callCount]
	f.mu.Unlock()

	if fail {
		return nil, errTransient
	}
	return f.LinkStore.CreateLinks(ctx, links)
}
