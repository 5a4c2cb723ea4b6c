package pkgdb

import (
	"errors"
	"testing"
)

// fixtureDB builds a minimal database from "cp:slot" strings; the slot
// part may be omitted.
func fixtureDB(atoms ...string) Database {
	db := Database{}
	for _, s := range atoms {
		a := Atom{CP: s}
		if i := indexColon(s); i >= 0 {
			a = Atom{CP: s[:i], Slot: s[i+1:]}
		}
		if db[a.CP] == nil {
			db[a.CP] = map[string]*PkgInfo{}
		}
		db[a.CP][a.Slot] = &PkgInfo{CPV: a.CP + "-1.0"}
	}
	return db
}

func indexColon(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return i
		}
	}
	return -1
}

func wantAtoms(t *testing.T, got AtomSet, want ...Atom) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("resolved %d atom(s) (%s), want %d", len(got), got, len(want))
	}
	for _, a := range want {
		if _, ok := got[a]; !ok {
			t.Errorf("missing atom %s in %s", a, got)
		}
	}
}

func TestResolveDeps_Simple(t *testing.T) {
	deps, err := ResolveDeps("foo/app2 foo/app3", nil, nil)
	if err != nil {
		t.Fatalf("ResolveDeps failed: %v", err)
	}
	wantAtoms(t, deps, Atom{CP: "foo/app2"}, Atom{CP: "foo/app3"})
}

func TestResolveDeps_Empty(t *testing.T) {
	deps, err := ResolveDeps("", nil, nil)
	if err != nil {
		t.Fatalf("ResolveDeps failed: %v", err)
	}
	if len(deps) != 0 {
		t.Errorf("expected no deps, got %s", deps)
	}
}

func TestResolveDeps_QualifierStripping(t *testing.T) {
	tests := []struct {
		depStr string
		want   Atom
	}{
		{">=foo/app2-4.5", Atom{CP: "foo/app2"}},
		{"~foo/app2-4.5.6", Atom{CP: "foo/app2"}},
		{"=foo/app2-4.5*", Atom{CP: "foo/app2"}},
		{"foo/app2[doc,-test]", Atom{CP: "foo/app2"}},
		{"foo/app2:2", Atom{CP: "foo/app2", Slot: "2"}},
		{"foo/app2:2=", Atom{CP: "foo/app2", Slot: "2"}},
		{"foo/app2:2/1.5=", Atom{CP: "foo/app2", Slot: "2/1.5"}},
		{"foo/app2:*", Atom{CP: "foo/app2"}},
		{"=foo/app2-4.5.6-r7:2[doc]", Atom{CP: "foo/app2", Slot: "2"}},
	}
	for _, tc := range tests {
		deps, err := ResolveDeps(tc.depStr, nil, nil)
		if err != nil {
			t.Errorf("ResolveDeps(%q) failed: %v", tc.depStr, err)
			continue
		}
		wantAtoms(t, deps, tc.want)
	}
}

func TestResolveDeps_UnversionedBlockerDiscarded(t *testing.T) {
	deps, err := ResolveDeps("foo/app2 !foo/app3", nil, nil)
	if err != nil {
		t.Fatalf("ResolveDeps failed: %v", err)
	}
	wantAtoms(t, deps, Atom{CP: "foo/app2"})
}

func TestResolveDeps_VersionedBlocker(t *testing.T) {
	installed := fixtureDB("foo/app3")

	// Blocked package installed: the blocker acts as an update constraint.
	for _, depStr := range []string{"!<foo/app3-2.0", "!=foo/app3-1.0"} {
		deps, err := ResolveDeps(depStr, installed, nil)
		if err != nil {
			t.Fatalf("ResolveDeps(%q) failed: %v", depStr, err)
		}
		wantAtoms(t, deps, Atom{CP: "foo/app3"})
	}

	// Blocked package not installed: nothing to update.
	deps, err := ResolveDeps("!<foo/app4-2.0", installed, nil)
	if err != nil {
		t.Fatalf("ResolveDeps failed: %v", err)
	}
	wantAtoms(t, deps)
}

func TestResolveDeps_Conditional(t *testing.T) {
	_, err := ResolveDeps("doc? ( foo/app2 )", nil, nil)
	if !errors.Is(err, ErrDepParse) {
		t.Fatalf("expected ErrDepParse for conditional, got %v", err)
	}
}

func TestResolveDeps_Malformed(t *testing.T) {
	for _, depStr := range []string{
		"|| foo/app2",
		"|| || ( foo/app2 )",
		"( foo/app2",
		"foo/app2 )",
		"foo/app2 ||",
		"foo/app2:1:2",
		"foo/app2[doc",
	} {
		if _, err := ResolveDeps(depStr, nil, nil); !errors.Is(err, ErrDepParse) {
			t.Errorf("ResolveDeps(%q) = %v, want ErrDepParse", depStr, err)
		}
	}
}

func TestResolveDeps_DisjunctInstalled(t *testing.T) {
	installed := fixtureDB("foo/app2")
	avail := fixtureDB("foo/app2", "foo/app3")

	// app2 is the installed choice, so only it is selected.
	deps, err := ResolveDeps("|| ( foo/app3 foo/app2 )", installed, avail)
	if err != nil {
		t.Fatalf("ResolveDeps failed: %v", err)
	}
	wantAtoms(t, deps, Atom{CP: "foo/app2"})
}

func TestResolveDeps_DisjunctAllInstalled(t *testing.T) {
	installed := fixtureDB("foo/app2", "foo/app3")
	avail := fixtureDB("foo/app2", "foo/app3")

	// Every installed choice stays in the set.
	deps, err := ResolveDeps("|| ( foo/app3 foo/app2 )", installed, avail)
	if err != nil {
		t.Fatalf("ResolveDeps failed: %v", err)
	}
	wantAtoms(t, deps, Atom{CP: "foo/app2"}, Atom{CP: "foo/app3"})
}

func TestResolveDeps_DisjunctDefault(t *testing.T) {
	installed := fixtureDB("foo/app1")
	avail := fixtureDB("foo/app1", "foo/app3")

	// No choice is installed; the first available choice wins.
	deps, err := ResolveDeps("|| ( foo/app2 foo/app3 )", installed, avail)
	if err != nil {
		t.Fatalf("ResolveDeps failed: %v", err)
	}
	wantAtoms(t, deps, Atom{CP: "foo/app3"})
}

func TestResolveDeps_DisjunctNoChoice(t *testing.T) {
	installed := fixtureDB("foo/app1")
	avail := fixtureDB("foo/app1")

	// Nothing installed, nothing available: the disjunct contributes
	// nothing rather than failing.
	deps, err := ResolveDeps("|| ( foo/app2 foo/app3 )", installed, avail)
	if err != nil {
		t.Fatalf("ResolveDeps failed: %v", err)
	}
	wantAtoms(t, deps)
}

func TestResolveDeps_DisjunctGroupChoice(t *testing.T) {
	installed := fixtureDB("foo/app2", "foo/app3")
	avail := fixtureDB("foo/app2", "foo/app3", "foo/app4")

	// A choice may itself be a group; it qualifies only when fully
	// installed.
	deps, err := ResolveDeps("|| ( ( foo/app2 foo/app4 ) ( foo/app2 foo/app3 ) )", installed, avail)
	if err != nil {
		t.Fatalf("ResolveDeps failed: %v", err)
	}
	wantAtoms(t, deps, Atom{CP: "foo/app2"}, Atom{CP: "foo/app3"})
}

func TestResolveDeps_BlockerInDisjunct(t *testing.T) {
	installed := fixtureDB("foo/app1")
	// A discarded atom inside a disjunct makes the whole choice
	// unresolvable.
	_, err := ResolveDeps("|| ( !foo/app2 foo/app3 )", installed, nil)
	if !errors.Is(err, ErrDepParse) {
		t.Fatalf("expected ErrDepParse, got %v", err)
	}
}

func TestStripDepAtom_Errors(t *testing.T) {
	if _, _, err := stripDepAtom("", nil); err == nil {
		t.Error("empty atom should fail")
	}
	if _, _, err := stripDepAtom("app2", nil); err == nil {
		t.Error("atom without category should fail")
	}
}
