package planner

// sortInstalls orders the computed install set so that dependencies
// precede their dependents, using the forward dependencies recorded in
// the binary package database. CPs are visited in sorted order so the
// output is deterministic. A dependency cycle aborts the sort with a
// CycleError; no partial ordering is returned.
func (s *Scanner) sortInstalls(installs map[string]Decision) ([]string, error) {
	emitted := map[string]bool{}
	var currPath []string
	var sorted []string

	// Traverses deps recursively, emitting nodes in post-order. A dep
	// already on the current path is a back edge, i.e. a cycle.
	var sortFrom func(cp string) error
	sortFrom = func(cp string) error {
		d := installs[cp]
		for i, onPath := range currPath {
			if onPath == d.CPV {
				return &CycleError{Path: append(append([]string{}, currPath[i:]...), d.CPV)}
			}
		}
		currPath = append(currPath, d.CPV)

		for _, rdep := range s.binpkgDB[cp][d.Slot].Rdeps.Sorted() {
			if _, ok := installs[rdep.CP]; ok && !emitted[rdep.CP] {
				if err := sortFrom(rdep.CP); err != nil {
					return err
				}
			}
		}

		sorted = append(sorted, d.CPV)
		emitted[cp] = true
		currPath = currPath[:len(currPath)-1]
		return nil
	}

	// So long as there are more packages, keep expanding dependency paths.
	for _, cp := range sortedKeys(installs) {
		if emitted[cp] {
			continue
		}
		if err := sortFrom(cp); err != nil {
			return nil, err
		}
	}

	return sorted, nil
}
