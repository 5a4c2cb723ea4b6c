// Package planner computes which binary packages must be installed on a
// target device, and in what order. Starting from a user-supplied
// package list it scans the binary package database, optionally tracing
// forward (mandatory) and reverse (optional) runtime dependencies, and
// decides per package whether an install or update is needed by diffing
// version, build time and USE flags against the target's installed
// database.
package planner

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	"crosplan/log"
	"crosplan/pkgdb"
	"crosplan/util"
)

// InstalledSentinel requests an update of every package that is present
// in both the installed and the binary package databases.
const InstalledSentinel = "@installed"

// Decision is the planner's verdict for one CP.
type Decision struct {
	CPV    string
	Slot   string
	Listed bool // explicitly requested, not discovered via expansion
	Update bool // replaces an existing installed package
}

// Plan is the result of a scanner run.
type Plan struct {
	// Sorted lists the CPVs to install, dependencies first. Reverse it
	// for removal.
	Sorted []string
	// Listed is the subset of Sorted that the caller explicitly requested.
	Listed []string
	// NumUpdates counts installs that replace an existing package.
	NumUpdates int
	// Decisions maps each CP to its install decision.
	Decisions map[string]Decision
	// WarningsShown reports whether warnings (USE flag mismatches) were
	// logged that may warrant a confirmation prompt before proceeding.
	WarningsShown bool
}

// Scanner finds packages that need to be installed on a target. Common
// usage:
//
//	s := planner.NewScanner(logger, chooser)
//	plan, err := s.Run(installed, binpkgs, pkgs, true, true, false)
type Scanner struct {
	lg      log.LibraryLogger
	chooser Chooser

	targetDB pkgdb.Database
	binpkgDB pkgdb.Database

	// Dependency work queue state. seen records every enqueued atom with
	// its optional flag; listed marks the explicitly requested subset.
	queue  map[pkgdb.Atom]struct{}
	seen   map[pkgdb.Atom]bool
	listed map[pkgdb.Atom]struct{}
}

// NewScanner returns a scanner using the given logger and disambiguation
// strategy. Either may be nil: logging is then discarded and ambiguous
// patterns resolve to their first match.
func NewScanner(lg log.LibraryLogger, chooser Chooser) *Scanner {
	if lg == nil {
		lg = log.NoOpLogger{}
	}
	if chooser == nil {
		chooser = FirstMatch{}
	}
	return &Scanner{lg: lg, chooser: chooser}
}

// initDepQueue resets the dependency work queue.
func (s *Scanner) initDepQueue() {
	s.queue = map[pkgdb.Atom]struct{}{}
	s.seen = map[pkgdb.Atom]bool{}
	s.listed = map[pkgdb.Atom]struct{}{}
}

// enqDep enqueues a dependency unless it was already seen, except that a
// non-optional request supersedes a previously seen optional one.
func (s *Scanner) enqDep(dep pkgdb.Atom, listed, optional bool) bool {
	if prevOptional, ok := s.seen[dep]; ok && (optional || !prevOptional) {
		return false
	}

	s.queue[dep] = struct{}{}
	s.seen[dep] = optional
	if listed {
		s.listed[dep] = struct{}{}
	}
	return true
}

// deqDep dequeues a dependency along with its listed and optional flags.
// Listed entries drain first so they are marked as such when processed.
func (s *Scanner) deqDep() (dep pkgdb.Atom, listed, optional bool) {
	if len(s.listed) > 0 {
		for dep = range s.listed {
			break
		}
		delete(s.listed, dep)
		listed = true
	} else {
		for dep = range s.queue {
			break
		}
	}
	delete(s.queue, dep)
	return dep, listed, s.seen[dep]
}

// findPackageMatches returns the binpkg (CP, slot) atoms matching a CPV
// pattern, which may be partial and may contain shell-style wildcards.
// The slot qualifier is omitted when the pattern gives no version or the
// CP has a single slot.
func (s *Scanner) findPackageMatches(cpvPattern string) []pkgdb.Atom {
	attrs, err := pkgdb.SplitCPV(cpvPattern, false)
	if err != nil {
		return nil
	}
	category := attrs.Category
	if category == "" {
		category = "*"
	}
	pkg := attrs.Package
	if pkg == "" {
		pkg = "*"
	}
	cpPattern := category + "/" + pkg

	var matches []pkgdb.Atom
	for _, cp := range s.binpkgDB.CPs() {
		if ok, _ := path.Match(cpPattern, cp); !ok {
			continue
		}

		cpSlots := s.binpkgDB[cp]
		if attrs.Version == "" || len(cpSlots) == 1 {
			matches = append(matches, pkgdb.Atom{CP: cp})
			continue
		}

		fullPattern := cp + "-" + attrs.VersionRev()
		for _, slot := range s.binpkgDB.Slots(cp) {
			if ok, _ := path.Match(fullPattern, cpSlots[slot].CPV); ok {
				matches = append(matches, pkgdb.Atom{CP: cp, Slot: slot})
			}
		}
	}

	return matches
}

// findPackage resolves a user-supplied package argument to a (CP, slot)
// atom. The argument is either a path to a .tbz2 binary package file, or
// a CPV pattern matched against the binpkg database. Ambiguous patterns
// are resolved through the scanner's Chooser.
func (s *Scanner) findPackage(pkg string) (pkgdb.Atom, error) {
	if strings.HasSuffix(pkg, ".tbz2") && util.FileExists(pkg) {
		name := strings.TrimSuffix(filepath.Base(pkg), ".tbz2")
		category := filepath.Base(filepath.Dir(pkg))
		cp, err := pkgdb.GetCP(category + "/" + name)
		if err != nil {
			return pkgdb.Atom{}, err
		}
		return pkgdb.Atom{CP: cp}, nil
	}

	matches := s.findPackageMatches(pkg)
	if len(matches) == 0 {
		return pkgdb.Atom{}, &PackageNotFoundError{Pattern: pkg}
	}

	idx := 0
	if len(matches) > 1 {
		candidates := make([]string, len(matches))
		for i, m := range matches {
			candidates[i] = m.String()
		}
		var err error
		idx, err = s.chooser.Choose("Multiple matches found for "+pkg, candidates)
		if err != nil {
			return pkgdb.Atom{}, err
		}
		if idx < 0 || idx >= len(matches) {
			return pkgdb.Atom{}, &PackageNotFoundError{Pattern: pkg}
		}
	}

	return matches[idx], nil
}

// needsInstall decides whether a binpkg must be installed on the target.
// update reports whether it replaces an existing package, and useMismatch
// whether the binpkg's USE flags differ from the installed ones.
func (s *Scanner) needsInstall(cpv, slot, buildTime string, optional bool) (install, update, useMismatch bool, err error) {
	// Not checking installed packages: always install.
	if s.targetDB == nil {
		return true, false, false, nil
	}

	cp, err := pkgdb.GetCP(cpv)
	if err != nil {
		return false, false, false, err
	}
	targetInfo := s.targetDB.Get(cp, slot)
	if targetInfo == nil {
		if optional {
			s.lg.Debug("Not installing %s: missing on target but optional", cp)
			return false, false, false, nil
		}
		s.lg.Debug("Installing %s: missing on target and non-optional (%s)", cp, cpv)
		return true, false, false, nil
	}

	attrs, err := pkgdb.SplitCPV(cpv, true)
	if err != nil {
		return false, false, false, err
	}
	targetAttrs, err := pkgdb.SplitCPV(targetInfo.CPV, true)
	if err != nil {
		return false, false, false, err
	}

	switch {
	case attrs.VersionRev() != targetAttrs.VersionRev():
		s.lg.Debug("Updating %s: version (%s) different on target (%s)",
			cp, attrs.VersionRev(), targetAttrs.VersionRev())
	case buildTime != targetInfo.BuildTime:
		s.lg.Debug("Updating %s: build time (%s) different on target (%s)",
			cp, buildTime, targetInfo.BuildTime)
	default:
		s.lg.Debug("Not updating %s: already up-to-date (%s, built %s)",
			cp, targetInfo.CPV, targetInfo.BuildTime)
		return false, false, false, nil
	}

	binpkgInfo := s.binpkgDB.Get(cp, slot)
	useMismatch = binpkgInfo.Use != targetInfo.Use
	if useMismatch {
		s.lg.Warn("USE flags for package %s do not match (Existing='%s', New='%s').",
			cp, targetInfo.Use, binpkgInfo.Use)
	}
	return true, true, useMismatch, nil
}

// processDeps enqueues discovered dependencies. Reverse dependencies are
// enqueued as optional: they are only updated if present on the target.
func (s *Scanner) processDeps(deps pkgdb.AtomSet, reverse bool) {
	if len(deps) == 0 {
		return
	}

	direction := "forward"
	if reverse {
		direction = "reverse"
	}
	s.lg.Debug("Processing %d %s dep(s)...", len(deps), direction)
	numSeen := 0
	for _, dep := range deps.Sorted() {
		if s.enqDep(dep, false, reverse) {
			s.lg.Debug(" Queued dep %s", dep)
		} else {
			numSeen++
		}
	}
	if numSeen > 0 {
		s.lg.Debug("%d dep(s) already seen", numSeen)
	}
}

// computeInstalls drains the work queue and returns the per-CP install
// decisions, plus whether any warnings were shown along the way.
//
// Only one decision is kept per CP even when several slots of that CP
// qualify; all matching slots are still scanned so their dependencies
// get enqueued. Multi-slot packages may therefore be under-installed;
// this mirrors the slot handling the planner has always had.
func (s *Scanner) computeInstalls(processRdeps, processRevRdeps bool) (map[string]Decision, bool, error) {
	installs := map[string]Decision{}
	warningsShown := false
	for len(s.queue) > 0 {
		dep, listed, optional := s.deqDep()
		cp, requiredSlot := dep.CP, dep.Slot
		if _, ok := installs[cp]; ok {
			s.lg.Debug("Already updating %s", cp)
			continue
		}

		s.lg.Debug("Checking packages matching %s...", dep)
		numProcessed := 0
		for _, slot := range s.binpkgDB.Slots(cp) {
			info := s.binpkgDB[cp][slot]

			// Sub-slot matching is best effort: when the binpkg carries
			// no sub-slot, drop the sub-slot from the requirement.
			if requiredSlot != "" && !strings.Contains(slot, "/") {
				requiredSlot = strings.SplitN(requiredSlot, "/", 2)[0]
			}

			if requiredSlot != "" && slot != requiredSlot {
				s.lg.Debug(" Skipping %s: slot (%s) != required slot (%s)",
					info.CPV, slot, requiredSlot)
				continue
			}

			numProcessed++
			s.lg.Debug(" Checking %s...", info.CPV)

			install, update, useMismatch, err := s.needsInstall(info.CPV, slot, info.BuildTime, optional)
			if err != nil {
				return nil, false, err
			}
			if !install {
				continue
			}

			installs[cp] = Decision{CPV: info.CPV, Slot: slot, Listed: listed, Update: update}
			warningsShown = warningsShown || useMismatch

			// Expand forward and backward runtime dependencies.
			if processRdeps {
				s.processDeps(info.Rdeps, false)
			}
			if processRevRdeps {
				if targetInfo := s.targetDB.Get(cp, slot); targetInfo != nil {
					s.processDeps(targetInfo.RevRdeps, true)
				}
			}
		}

		if numProcessed == 0 {
			s.lg.Warn("No qualified bintree package corresponding to %s", cp)
		}
	}

	return installs, warningsShown, nil
}

// enqListedPkg finds and enqueues an explicitly requested package.
func (s *Scanner) enqListedPkg(pkg string) error {
	atom, err := s.findPackage(pkg)
	if err != nil {
		return err
	}
	if _, ok := s.binpkgDB[atom.CP]; !ok {
		return &PackageNotFoundError{Pattern: pkg}
	}
	s.enqDep(atom, true, false)
	return nil
}

// enqInstalledPkgs enqueues every binpkg slot that is also installed on
// the target.
func (s *Scanner) enqInstalledPkgs() {
	for _, cp := range s.binpkgDB.CPs() {
		targetSlots, ok := s.targetDB[cp]
		if !ok {
			continue
		}
		for _, slot := range s.binpkgDB.Slots(cp) {
			if _, ok := targetSlots[slot]; ok {
				s.enqDep(pkgdb.Atom{CP: cp, Slot: slot}, true, false)
			}
		}
	}
}

// Run computes the ordered list of packages to install on a target.
//
// installed and binpkgs are the raw record dumps of the target's
// installed packages and of the local binary package repository; the
// installed dump is only consulted when update is set. listedPkgs are
// the user-requested packages (CPV patterns, .tbz2 paths, or the
// "@installed" sentinel). processRdeps traces forward runtime deps,
// processRevRdeps reverse deps as well.
func (s *Scanner) Run(installed, binpkgs []pkgdb.Record, listedPkgs []string, update, processRdeps, processRevRdeps bool) (*Plan, error) {
	if processRevRdeps && !processRdeps {
		return nil, &PreconditionError{Reason: "must process forward deps when processing rev deps"}
	}
	if processRdeps && !update {
		return nil, &PreconditionError{Reason: "must check installed packages when processing deps"}
	}

	if update {
		s.lg.Info("Initializing target installed packages database...")
		targetDB, err := pkgdb.Build(installed, processRdeps, processRevRdeps, nil, s.lg)
		if err != nil {
			return nil, err
		}
		s.targetDB = targetDB
	}

	s.lg.Info("Initializing binary packages database...")
	binpkgDB, err := pkgdb.Build(binpkgs, processRdeps, false, s.targetDB, s.lg)
	if err != nil {
		return nil, err
	}
	s.binpkgDB = binpkgDB

	s.lg.Info("Finding listed package(s)...")
	s.initDepQueue()
	for _, pkg := range listedPkgs {
		if pkg == InstalledSentinel {
			if !update {
				return nil, &PreconditionError{
					Reason: "must check installed packages when updating all of them",
				}
			}
			s.enqInstalledPkgs()
		} else if err := s.enqListedPkg(pkg); err != nil {
			return nil, err
		}
	}

	s.lg.Info("Computing set of packages to install...")
	installs, warningsShown, err := s.computeInstalls(processRdeps, processRevRdeps)
	if err != nil {
		return nil, err
	}

	numUpdates := 0
	var listedInstalls []string
	for _, cp := range sortedKeys(installs) {
		d := installs[cp]
		if d.Listed {
			listedInstalls = append(listedInstalls, d.CPV)
		}
		if d.Update {
			numUpdates++
		}
	}
	s.lg.Info("Processed %d package(s), %d will be installed, %d are updating existing packages",
		len(s.seen), len(installs), numUpdates)

	sortedInstalls, err := s.sortInstalls(installs)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Sorted:        sortedInstalls,
		Listed:        listedInstalls,
		NumUpdates:    numUpdates,
		Decisions:     installs,
		WarningsShown: warningsShown,
	}, nil
}

func sortedKeys(m map[string]Decision) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
