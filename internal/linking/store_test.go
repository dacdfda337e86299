package linking

import (
	"context"
	"fmt"
	"sync"

	"github.com/sietch-tools/poilink/pkg/types"
)

// fakeStore is an in-memory LinkStore with scripted failures for exercising
// batch error paths without a real backend.
type fakeStore struct {
	mu    sync.Mutex
	links map[string]*types.PoiEntityLink
	seq   int

	createCalls   int
	deleteCalls   int
	existingCalls int

	// failNextCreates fails that many CreateLinks calls with createErr.
	failNextCreates int
	createErr       error

	existingErr error
	deleteErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{links: make(map[string]*types.PoiEntityLink)}
}

func (f *fakeStore) Attach(types.Config) error { return nil }
func (f *fakeStore) Detach() error             { return nil }

func (f *fakeStore) CreateLinks(ctx context.Context, links []*types.PoiEntityLink) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	if f.failNextCreates > 0 {
		f.failNextCreates--
		return nil, f.createErr
	}

	ids := make([]string, 0, len(links))
	for _, link := range links {
		f.seq++
		id := fmt.Sprintf("link-%d", f.seq)
		stored := *link
		stored.LinkID = id
		f.links[id] = &stored
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeStore) DeleteLinks(ctx context.Context, ids []string) (deleted, missing []string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleteCalls++
	if f.deleteErr != nil {
		return nil, nil, f.deleteErr
	}

	for _, id := range ids {
		if _, ok := f.links[id]; ok {
			delete(f.links, id)
			deleted = append(deleted, id)
		} else {
			missing = append(missing, id)
		}
	}
	return deleted, missing, nil
}

func (f *fakeStore) ExistingLinks(ctx context.Context, poiIDs, entityIDs []string) ([]types.ExistingLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.existingCalls++
	if f.existingErr != nil {
		return nil, f.existingErr
	}

	pois := toStringSet(poiIDs)
	entities := toStringSet(entityIDs)

	var out []types.ExistingLink
	for id, link := range f.links {
		if _, ok := pois[link.PoiID]; !ok {
			continue
		}
		if _, ok := entities[link.EntityID()]; !ok {
			continue
		}
		out = append(out, types.ExistingLink{
			LinkID:     id,
			PoiID:      link.PoiID,
			EntityID:   link.EntityID(),
			EntityKind: link.EntityKind(),
		})
	}
	return out, nil
}

func (f *fakeStore) FetchLinks(ctx context.Context, filter types.Filter) ([]*types.PoiEntityLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*types.PoiEntityLink
	for _, link := range f.links {
		copied := *link
		out = append(out, &copied)
	}
	return out, nil
}

func toStringSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
