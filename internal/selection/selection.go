// Package selection holds the pending link selection: three independent sets
// of POI, item, and schematic IDs with derived statistics and validation.
// The store is observable; every mutation recomputes stats and notifies
// subscribers, mirroring the derived-state-on-every-change contract of the
// companion UI it was extracted from.
package selection

import (
	"fmt"
	"sort"
	"sync"
)

// Kind names the three selection sets.
type Kind string

const (
	KindPoi       Kind = "poi"
	KindItem      Kind = "item"
	KindSchematic Kind = "schematic"
)

// Stats are the derived counts of the current selection. TotalPossibleLinks
// is the cartesian product of POIs and entities, the number of link records a
// bulk create would attempt before duplicate exclusion.
type Stats struct {
	SelectedPois          int
	SelectedItems         int
	SelectedSchematics    int
	TotalEntitySelections int
	TotalPossibleLinks    int
}

// Validation is the outcome of checking Stats against Limits. Warnings are
// advisory and never block; CanCreateLinks gates the create action.
type Validation struct {
	IsValid        bool
	Errors         []string
	Warnings       []string
	CanCreateLinks bool
}

// Limits bounds a selection. Zero values fall back to the defaults used by
// DefaultLimits.
type Limits struct {
	MinPois       int
	MinItems      int
	MinSchematics int
	MaxSelections int
	WarnThreshold int
}

// Soft advisory thresholds.
const (
	warnPoiCount    = 20
	warnEntityCount = 50
)

// DefaultLimits returns the standard selection bounds: at least one POI, at
// most maxSelections total selections, warning above 100 candidate links.
func DefaultLimits(maxSelections int) Limits {
	if maxSelections <= 0 {
		maxSelections = 1000
	}
	return Limits{
		MinPois:       1,
		MaxSelections: maxSelections,
		WarnThreshold: 100,
	}
}

// Listener is invoked after every mutation with the fresh snapshot.
type Listener func(State)

// State is an immutable snapshot of the store.
type State struct {
	PoiIDs       []string
	ItemIDs      []string
	SchematicIDs []string
	Stats        Stats
	Validation   Validation
}

// Store is the single source of truth for what is currently selected for
// linking. Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	pois      map[string]struct{}
	items     map[string]struct{}
	schems    map[string]struct{}
	limits    Limits
	listeners []Listener
}

// NewStore creates an empty selection store validated against limits.
func NewStore(limits Limits) *Store {
	return &Store{
		pois:   make(map[string]struct{}),
		items:  make(map[string]struct{}),
		schems: make(map[string]struct{}),
		limits: limits,
	}
}

// Subscribe registers a listener called after every mutation. Listeners run
// synchronously on the mutating goroutine, in registration order.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Toggle flips membership of id in the set for kind.
func (s *Store) Toggle(kind Kind, id string) {
	s.mu.Lock()
	set := s.setFor(kind)
	if _, ok := set[id]; ok {
		delete(set, id)
	} else {
		set[id] = struct{}{}
	}
	s.notifyLocked()
}

// SelectAll adds every id to the set for kind. A no-op on empty input.
func (s *Store) SelectAll(kind Kind, ids []string) {
	s.mu.Lock()
	set := s.setFor(kind)
	for _, id := range ids {
		set[id] = struct{}{}
	}
	s.notifyLocked()
}

// Clear empties the set for kind.
func (s *Store) Clear(kind Kind) {
	s.mu.Lock()
	set := s.setFor(kind)
	for id := range set {
		delete(set, id)
	}
	s.notifyLocked()
}

// ClearAll empties all three sets.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.pois = make(map[string]struct{})
	s.items = make(map[string]struct{})
	s.schems = make(map[string]struct{})
	s.notifyLocked()
}

// Reset replaces all three sets at once, e.g. when re-reading query
// parameters.
func (s *Store) Reset(poiIDs, itemIDs, schematicIDs []string) {
	s.mu.Lock()
	s.pois = toSet(poiIDs)
	s.items = toSet(itemIDs)
	s.schems = toSet(schematicIDs)
	s.notifyLocked()
}

// IsSelected reports whether id is in the set for kind.
func (s *Store) IsSelected(kind Kind, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.setFor(kind)[id]
	return ok
}

// HasAny reports whether any set is non-empty.
func (s *Store) HasAny() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pois) > 0 || len(s.items) > 0 || len(s.schems) > 0
}

// GetState returns a snapshot with freshly derived stats and validation.
func (s *Store) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

// Stats returns the derived counts of the current selection.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked()
}

// Validation returns the validation outcome for the current selection.
func (s *Store) Validation() Validation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Validate(s.statsLocked(), s.limits)
}

// setFor returns the underlying set for kind. Unknown kinds map to the POI
// set; callers use the Kind constants.
func (s *Store) setFor(kind Kind) map[string]struct{} {
	switch kind {
	case KindItem:
		return s.items
	case KindSchematic:
		return s.schems
	default:
		return s.pois
	}
}

func (s *Store) statsLocked() Stats {
	entities := len(s.items) + len(s.schems)
	return Stats{
		SelectedPois:          len(s.pois),
		SelectedItems:         len(s.items),
		SelectedSchematics:    len(s.schems),
		TotalEntitySelections: entities,
		TotalPossibleLinks:    len(s.pois) * entities,
	}
}

func (s *Store) stateLocked() State {
	stats := s.statsLocked()
	return State{
		PoiIDs:       sortedKeys(s.pois),
		ItemIDs:      sortedKeys(s.items),
		SchematicIDs: sortedKeys(s.schems),
		Stats:        stats,
		Validation:   Validate(stats, s.limits),
	}
}

// notifyLocked snapshots state, releases the lock, and invokes listeners.
// The caller must hold s.mu; the lock is released on return.
func (s *Store) notifyLocked() {
	state := s.stateLocked()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l(state)
	}
}

// Validate checks stats against limits. Errors block link creation; warnings
// are advisory only.
func Validate(stats Stats, limits Limits) Validation {
	var errs, warnings []string

	minPois := limits.MinPois
	if minPois <= 0 {
		minPois = 1
	}
	maxSelections := limits.MaxSelections
	if maxSelections <= 0 {
		maxSelections = 1000
	}
	warnThreshold := limits.WarnThreshold
	if warnThreshold <= 0 {
		warnThreshold = 100
	}

	if stats.SelectedPois < minPois {
		errs = append(errs, fmt.Sprintf("at least %d %s must be selected", minPois, plural(minPois, "POI")))
	}
	if stats.TotalEntitySelections == 0 {
		errs = append(errs, "at least one item or schematic must be selected")
	}
	if limits.MinItems > 0 && stats.SelectedItems < limits.MinItems {
		errs = append(errs, fmt.Sprintf("at least %d %s must be selected", limits.MinItems, plural(limits.MinItems, "item")))
	}
	if limits.MinSchematics > 0 && stats.SelectedSchematics < limits.MinSchematics {
		errs = append(errs, fmt.Sprintf("at least %d %s must be selected", limits.MinSchematics, plural(limits.MinSchematics, "schematic")))
	}

	totalSelections := stats.SelectedPois + stats.TotalEntitySelections
	if totalSelections > maxSelections {
		errs = append(errs, fmt.Sprintf("too many selections (%d); maximum allowed: %d", totalSelections, maxSelections))
	}

	if stats.TotalPossibleLinks > warnThreshold {
		warnings = append(warnings, fmt.Sprintf("this will create %d links; consider reducing selections", stats.TotalPossibleLinks))
	}
	if stats.SelectedPois > warnPoiCount {
		warnings = append(warnings, "large number of POIs selected; consider filtering to be more specific")
	}
	if stats.TotalEntitySelections > warnEntityCount {
		warnings = append(warnings, "large number of items/schematics selected; consider filtering to be more specific")
	}

	isValid := len(errs) == 0
	return Validation{
		IsValid:        isValid,
		Errors:         errs,
		Warnings:       warnings,
		CanCreateLinks: isValid && stats.TotalPossibleLinks > 0,
	}
}

// FormatStats renders the selection summary for CLI display, e.g.
// "2 POIs × 3 entities = 6 links".
func FormatStats(stats Stats) string {
	return fmt.Sprintf("%d %s × %d %s = %d %s",
		stats.SelectedPois, plural(stats.SelectedPois, "POI"),
		stats.TotalEntitySelections, plural(stats.TotalEntitySelections, "entity"),
		stats.TotalPossibleLinks, plural(stats.TotalPossibleLinks, "link"))
}

func plural(n int, noun string) string {
	if n == 1 {
		return noun
	}
	if noun == "entity" {
		return "entities"
	}
	return noun + "s"
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
