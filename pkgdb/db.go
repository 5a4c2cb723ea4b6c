// Package pkgdb models Portage package databases for deploy planning:
// building slot-keyed package maps from raw record dumps and resolving
// runtime dependency strings into (CP, slot) atoms.
package pkgdb

import (
	"fmt"
	"sort"
	"strings"

	"crosplan/log"
)

// Atom identifies a package constraint as a CP plus an optional slot.
// An empty Slot means "unslotted or unspecified".
type Atom struct {
	CP   string
	Slot string
}

func (a Atom) String() string {
	if a.Slot != "" {
		return a.CP + ":" + a.Slot
	}
	return a.CP
}

// AtomSet is the resolved form of a dependency string.
type AtomSet map[Atom]struct{}

// Sorted returns the set's atoms ordered by CP, then slot.
func (s AtomSet) Sorted() []Atom {
	atoms := make([]Atom, 0, len(s))
	for a := range s {
		atoms = append(atoms, a)
	}
	sort.Slice(atoms, func(i, j int) bool {
		if atoms[i].CP != atoms[j].CP {
			return atoms[i].CP < atoms[j].CP
		}
		return atoms[i].Slot < atoms[j].Slot
	})
	return atoms
}

func (s AtomSet) String() string {
	parts := make([]string, 0, len(s))
	for _, a := range s.Sorted() {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, " ")
}

// PkgInfo is the record kept per installed or available package.
// Rdeps and RevRdeps are populated by Build when tracing is requested;
// records are otherwise immutable after construction.
type PkgInfo struct {
	CPV       string
	BuildTime string
	Use       string
	RdepsRaw  string
	Rdeps     AtomSet
	RevRdeps  AtomSet
}

// Database maps CP -> slot -> package record. The slot key may be empty.
type Database map[string]map[string]*PkgInfo

// Contains reports whether the CP is present, and when a slot is given,
// whether that slot is present under it. Safe on a nil database.
func (db Database) Contains(cp, slot string) bool {
	if db == nil {
		return false
	}
	cpSlots, ok := db[cp]
	if !ok {
		return false
	}
	if slot == "" {
		return true
	}
	_, ok = cpSlots[slot]
	return ok
}

// Get returns the record at (cp, slot), or nil. Safe on a nil database.
func (db Database) Get(cp, slot string) *PkgInfo {
	if db == nil {
		return nil
	}
	return db[cp][slot]
}

// CPs returns the database's CP keys in sorted order.
func (db Database) CPs() []string {
	cps := make([]string, 0, len(db))
	for cp := range db {
		cps = append(cps, cp)
	}
	sort.Strings(cps)
	return cps
}

// Slots returns the slot keys under cp in sorted order.
func (db Database) Slots(cp string) []string {
	slots := make([]string, 0, len(db[cp]))
	for slot := range db[cp] {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	return slots
}

// containsAll reports whether every atom of the set is present in db.
// Vacuously true for an empty set.
func (db Database) containsAll(atoms AtomSet) bool {
	for a := range atoms {
		if !db.Contains(a.CP, a.Slot) {
			return false
		}
	}
	return true
}

// Build turns a raw record sequence into a Database.
//
// When processRdeps is set, every record's raw dependency string is
// resolved into Rdeps. Disjunctive choices are filtered against
// installedDB; when installedDB is nil the database being built serves as
// its own installed set and no "available" fallback exists (this is how
// the installed database itself is built). When processRevRdeps is also
// set, a second pass adds the reverse edges.
//
// A record whose (CP, slot) pair is already occupied fails the build
// with a DuplicateSlotError.
func Build(records []Record, processRdeps, processRevRdeps bool, installedDB Database, lg log.LibraryLogger) (Database, error) {
	if lg == nil {
		lg = log.NoOpLogger{}
	}

	db := Database{}
	lg.Debug("Populating package DB...")
	for _, rec := range records {
		cp, err := GetCP(rec.CPV)
		if err != nil {
			return nil, err
		}
		cpSlots, ok := db[cp]
		if !ok {
			cpSlots = map[string]*PkgInfo{}
			db[cp] = cpSlots
		}
		if _, ok := cpSlots[rec.Slot]; ok {
			return nil, &DuplicateSlotError{CP: cp, Slot: rec.Slot}
		}
		lg.Debug(" %s -> %s, built %s, raw rdeps: %s",
			Atom{CP: cp, Slot: rec.Slot}, rec.CPV, rec.BuildTime, rec.RdepsRaw)
		cpSlots[rec.Slot] = &PkgInfo{
			CPV:       rec.CPV,
			BuildTime: rec.BuildTime,
			Use:       rec.Use,
			RdepsRaw:  rec.RdepsRaw,
			Rdeps:     AtomSet{},
			RevRdeps:  AtomSet{},
		}
	}

	availDB := db
	if installedDB == nil {
		installedDB = db
		availDB = nil
	}

	if processRdeps {
		lg.Debug("Populating forward dependencies...")
		for _, cp := range db.CPs() {
			for _, slot := range db.Slots(cp) {
				info := db[cp][slot]
				rdeps, err := ResolveDeps(info.RdepsRaw, installedDB, availDB)
				if err != nil {
					return nil, fmt.Errorf("resolving deps of %s: %w", info.CPV, err)
				}
				for a := range rdeps {
					info.Rdeps[a] = struct{}{}
				}
				lg.Debug(" %s (%s) processed rdeps: %s",
					Atom{CP: cp, Slot: slot}, info.CPV, info.Rdeps)
			}
		}
	}

	if processRevRdeps {
		lg.Debug("Populating reverse dependencies...")
		for _, cp := range db.CPs() {
			for _, slot := range db.Slots(cp) {
				info := db[cp][slot]
				for rdep := range info.Rdeps {
					toSlots, ok := db[rdep.CP]
					if !ok {
						continue
					}
					for toSlot, toInfo := range toSlots {
						if rdep.Slot != "" && toSlot != rdep.Slot {
							continue
						}
						lg.Debug(" %s (%s) added as rev rdep for %s (%s)",
							Atom{CP: cp, Slot: slot}, info.CPV,
							Atom{CP: rdep.CP, Slot: toSlot}, toInfo.CPV)
						toInfo.RevRdeps[Atom{CP: cp, Slot: slot}] = struct{}{}
					}
				}
			}
		}
	}

	return db, nil
}
