package selection

import (
	"reflect"
	"testing"
)

func TestToggleIdempotent(t *testing.T) {
	s := NewStore(DefaultLimits(0))

	s.Toggle(KindPoi, "p1")
	if !s.IsSelected(KindPoi, "p1") {
		t.Fatal("p1 not selected after first toggle")
	}

	s.Toggle(KindPoi, "p1")
	if s.IsSelected(KindPoi, "p1") {
		t.Fatal("p1 still selected after second toggle")
	}
	if s.HasAny() {
		t.Error("HasAny() = true on empty store")
	}
}

func TestStatsCartesianProduct(t *testing.T) {
	s := NewStore(DefaultLimits(0))
	s.SelectAll(KindPoi, []string{"p1", "p2", "p3"})
	s.SelectAll(KindItem, []string{"i1", "i2"})
	s.SelectAll(KindSchematic, []string{"s1"})

	stats := s.Stats()
	if stats.SelectedPois != 3 || stats.SelectedItems != 2 || stats.SelectedSchematics != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.TotalEntitySelections != 3 {
		t.Errorf("TotalEntitySelections = %d, want 3", stats.TotalEntitySelections)
	}
	// P * (I + S)
	if stats.TotalPossibleLinks != 9 {
		t.Errorf("TotalPossibleLinks = %d, want 9", stats.TotalPossibleLinks)
	}
}

func TestSelectAllDeduplicates(t *testing.T) {
	s := NewStore(DefaultLimits(0))
	s.SelectAll(KindItem, []string{"i1", "i1", "i2"})
	s.SelectAll(KindItem, []string{"i2", "i3"})

	if got := s.Stats().SelectedItems; got != 3 {
		t.Errorf("SelectedItems = %d, want 3", got)
	}
}

func TestClearAndClearAll(t *testing.T) {
	s := NewStore(DefaultLimits(0))
	s.SelectAll(KindPoi, []string{"p1"})
	s.SelectAll(KindItem, []string{"i1"})
	s.SelectAll(KindSchematic, []string{"s1"})

	s.Clear(KindItem)
	if s.IsSelected(KindItem, "i1") {
		t.Error("item survived Clear")
	}
	if !s.IsSelected(KindPoi, "p1") {
		t.Error("Clear(item) touched the POI set")
	}

	s.ClearAll()
	if s.HasAny() {
		t.Error("HasAny() = true after ClearAll")
	}
}

func TestSubscribeNotifiedOnEveryMutation(t *testing.T) {
	s := NewStore(DefaultLimits(0))

	var states []State
	s.Subscribe(func(st State) { states = append(states, st) })

	s.Toggle(KindPoi, "p1")
	s.SelectAll(KindItem, []string{"i1", "i2"})
	s.Clear(KindItem)

	if len(states) != 3 {
		t.Fatalf("listener called %d times, want 3", len(states))
	}
	if states[1].Stats.TotalPossibleLinks != 2 {
		t.Errorf("second snapshot TotalPossibleLinks = %d, want 2", states[1].Stats.TotalPossibleLinks)
	}
	if states[2].Stats.TotalPossibleLinks != 0 {
		t.Errorf("third snapshot TotalPossibleLinks = %d, want 0", states[2].Stats.TotalPossibleLinks)
	}
}

func TestValidateMinimums(t *testing.T) {
	limits := DefaultLimits(1000)

	v := Validate(Stats{SelectedPois: 0, SelectedItems: 1, TotalEntitySelections: 1}, limits)
	if v.IsValid {
		t.Error("valid with zero POIs")
	}

	v = Validate(Stats{SelectedPois: 1}, limits)
	if v.IsValid {
		t.Error("valid with zero entities")
	}

	v = Validate(Stats{
		SelectedPois:          1,
		SelectedItems:         1,
		TotalEntitySelections: 1,
		TotalPossibleLinks:    1,
	}, limits)
	if !v.IsValid || !v.CanCreateLinks {
		t.Errorf("minimal valid selection rejected: %+v", v)
	}
}

func TestValidateMaxSelections(t *testing.T) {
	limits := DefaultLimits(10)
	v := Validate(Stats{
		SelectedPois:          8,
		SelectedItems:         5,
		TotalEntitySelections: 5,
		TotalPossibleLinks:    40,
	}, limits)
	if v.IsValid {
		t.Error("selection over the cap passed validation")
	}
}

func TestValidateWarningsAreAdvisory(t *testing.T) {
	limits := DefaultLimits(1000)
	v := Validate(Stats{
		SelectedPois:          25,
		SelectedItems:         60,
		TotalEntitySelections: 60,
		TotalPossibleLinks:    1500,
	}, limits)

	if !v.IsValid {
		t.Fatalf("warnings blocked validation: %+v", v.Errors)
	}
	if !v.CanCreateLinks {
		t.Error("CanCreateLinks = false despite valid selection")
	}
	// Link-count, POI-count, and entity-count warnings all fire.
	if len(v.Warnings) != 3 {
		t.Errorf("got %d warnings, want 3: %v", len(v.Warnings), v.Warnings)
	}
}

func TestResetReplacesState(t *testing.T) {
	s := NewStore(DefaultLimits(0))
	s.SelectAll(KindPoi, []string{"old"})

	s.Reset([]string{"p1", "p2"}, []string{"i1"}, nil)

	state := s.GetState()
	if !reflect.DeepEqual(state.PoiIDs, []string{"p1", "p2"}) {
		t.Errorf("PoiIDs = %v", state.PoiIDs)
	}
	if !reflect.DeepEqual(state.ItemIDs, []string{"i1"}) {
		t.Errorf("ItemIDs = %v", state.ItemIDs)
	}
	if len(state.SchematicIDs) != 0 {
		t.Errorf("SchematicIDs = %v, want empty", state.SchematicIDs)
	}
	if s.IsSelected(KindPoi, "old") {
		t.Error("Reset kept a stale ID")
	}
}

func TestFormatStats(t *testing.T) {
	got := FormatStats(Stats{
		SelectedPois:          2,
		TotalEntitySelections: 3,
		TotalPossibleLinks:    6,
	})
	want := "2 POIs × 3 entities = 6 links"
	if got != want {
		t.Errorf("FormatStats = %q, want %q", got, want)
	}

	got = FormatStats(Stats{SelectedPois: 1, TotalEntitySelections: 1, TotalPossibleLinks: 1})
	want = "1 POI × 1 entity = 1 link"
	if got != want {
		t.Errorf("FormatStats = %q, want %q", got, want)
	}
}
