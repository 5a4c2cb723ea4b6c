package planner

import (
	"errors"
	"reflect"
	"testing"

	"crosplan/pkgdb"
)

// sortFixture builds a scanner whose binpkg database holds the given
// records with resolved forward deps, plus an install decision per CP.
func sortFixture(t *testing.T, records []pkgdb.Record) (*Scanner, map[string]Decision) {
	t.Helper()
	db, err := pkgdb.Build(records, true, false, nil, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	installs := map[string]Decision{}
	for _, cp := range db.CPs() {
		for _, slot := range db.Slots(cp) {
			installs[cp] = Decision{CPV: db.Get(cp, slot).CPV, Slot: slot}
		}
	}
	s := NewScanner(nil, nil)
	s.binpkgDB = db
	return s, installs
}

func TestSortInstalls_Chain(t *testing.T) {
	s, installs := sortFixture(t, []pkgdb.Record{
		{CPV: "foo/a-1.0", RdepsRaw: "foo/b"},
		{CPV: "foo/b-1.0", RdepsRaw: "foo/c"},
		{CPV: "foo/c-1.0"},
	})

	sorted, err := s.sortInstalls(installs)
	if err != nil {
		t.Fatalf("sortInstalls failed: %v", err)
	}
	want := []string{"foo/c-1.0", "foo/b-1.0", "foo/a-1.0"}
	if !reflect.DeepEqual(sorted, want) {
		t.Errorf("sortInstalls = %v, want %v", sorted, want)
	}
}

func TestSortInstalls_Diamond(t *testing.T) {
	s, installs := sortFixture(t, []pkgdb.Record{
		{CPV: "foo/a-1.0", RdepsRaw: "foo/b foo/c"},
		{CPV: "foo/b-1.0", RdepsRaw: "foo/d"},
		{CPV: "foo/c-1.0", RdepsRaw: "foo/d"},
		{CPV: "foo/d-1.0"},
	})

	sorted, err := s.sortInstalls(installs)
	if err != nil {
		t.Fatalf("sortInstalls failed: %v", err)
	}

	// Dependencies must precede dependents and every package appears
	// exactly once.
	pos := map[string]int{}
	for i, cpv := range sorted {
		pos[cpv] = i
	}
	if len(pos) != 4 || len(sorted) != 4 {
		t.Fatalf("sortInstalls = %v, want 4 unique entries", sorted)
	}
	if pos["foo/d-1.0"] > pos["foo/b-1.0"] || pos["foo/d-1.0"] > pos["foo/c-1.0"] {
		t.Errorf("d must precede b and c: %v", sorted)
	}
	if pos["foo/b-1.0"] > pos["foo/a-1.0"] || pos["foo/c-1.0"] > pos["foo/a-1.0"] {
		t.Errorf("b and c must precede a: %v", sorted)
	}
}

func TestSortInstalls_Deterministic(t *testing.T) {
	records := []pkgdb.Record{
		{CPV: "foo/a-1.0", RdepsRaw: "foo/b foo/c"},
		{CPV: "foo/b-1.0", RdepsRaw: "foo/d"},
		{CPV: "foo/c-1.0", RdepsRaw: "foo/d"},
		{CPV: "foo/d-1.0"},
		{CPV: "foo/e-1.0"},
	}

	s, installs := sortFixture(t, records)
	first, err := s.sortInstalls(installs)
	if err != nil {
		t.Fatalf("sortInstalls failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		s, installs := sortFixture(t, records)
		again, err := s.sortInstalls(installs)
		if err != nil {
			t.Fatalf("sortInstalls failed: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("order not deterministic: %v vs %v", first, again)
		}
	}
}

func TestSortInstalls_Cycle(t *testing.T) {
	s, installs := sortFixture(t, []pkgdb.Record{
		{CPV: "foo/a-1.0", RdepsRaw: "foo/b"},
		{CPV: "foo/b-1.0", RdepsRaw: "foo/c"},
		{CPV: "foo/c-1.0", RdepsRaw: "foo/a"},
	})

	_, err := s.sortInstalls(installs)
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("sortInstalls = %v, want ErrCycleDetected", err)
	}
	var cyc *CycleError
	if !errors.As(err, &cyc) {
		t.Fatalf("error is not a CycleError: %v", err)
	}
	want := []string{"foo/a-1.0", "foo/b-1.0", "foo/c-1.0", "foo/a-1.0"}
	if !reflect.DeepEqual(cyc.Path, want) {
		t.Errorf("cycle path = %v, want %v", cyc.Path, want)
	}
}

func TestSortInstalls_SelfCycle(t *testing.T) {
	s, installs := sortFixture(t, []pkgdb.Record{
		{CPV: "foo/a-1.0", RdepsRaw: "foo/a"},
	})

	_, err := s.sortInstalls(installs)
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("sortInstalls = %v, want ErrCycleDetected", err)
	}
}

func TestSortInstalls_DepsOutsideInstallSet(t *testing.T) {
	// Deps that are not themselves being installed are ignored by the
	// sort.
	s, installs := sortFixture(t, []pkgdb.Record{
		{CPV: "foo/a-1.0", RdepsRaw: "foo/z"},
		{CPV: "foo/z-1.0"},
	})
	delete(installs, "foo/z")

	sorted, err := s.sortInstalls(installs)
	if err != nil {
		t.Fatalf("sortInstalls failed: %v", err)
	}
	if !reflect.DeepEqual(sorted, []string{"foo/a-1.0"}) {
		t.Errorf("sortInstalls = %v, want [foo/a-1.0]", sorted)
	}
}

func TestSortInstalls_Empty(t *testing.T) {
	s := NewScanner(nil, nil)
	sorted, err := s.sortInstalls(map[string]Decision{})
	if err != nil {
		t.Fatalf("sortInstalls failed: %v", err)
	}
	if len(sorted) != 0 {
		t.Errorf("sortInstalls = %v, want empty", sorted)
	}
}
