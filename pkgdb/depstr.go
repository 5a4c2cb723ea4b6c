package pkgdb

import "strings"

// depNode is one node of a parsed dependency expression: either a bare
// atom, or a parenthesized group which may be disjunctive ("|| ( ... )").
type depNode struct {
	group    bool
	disjunct bool
	atom     string
	children []depNode
}

// parseDepString tokenizes a Portage dependency expression on whitespace
// and builds the nested group structure. A "||" marker must be
// immediately followed by an opening paren; its group is flagged
// disjunctive.
func parseDepString(depStr string) ([]depNode, error) {
	tokens := strings.Fields(depStr)
	nodes, rest, err := parseGroup(tokens)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, &DepParseError{Reason: "unbalanced parenthesis", DepStr: depStr}
	}
	return nodes, nil
}

// parseGroup consumes tokens until an unmatched ")" or the end of input,
// returning the parsed nodes and the unconsumed remainder (excluding the
// closing paren itself, which is left for the caller to detect).
func parseGroup(tokens []string) ([]depNode, []string, error) {
	var nodes []depNode
	disjunct := false
	for len(tokens) > 0 {
		tok := tokens[0]
		tokens = tokens[1:]
		switch tok {
		case "||":
			if disjunct {
				return nil, nil, &DepParseError{Reason: "malformed disjunctive operation in deps"}
			}
			disjunct = true
		case "(":
			children, rest, err := parseGroup(tokens)
			if err != nil {
				return nil, nil, err
			}
			if len(rest) == 0 || rest[0] != ")" {
				return nil, nil, &DepParseError{Reason: "unbalanced parenthesis"}
			}
			nodes = append(nodes, depNode{group: true, disjunct: disjunct, children: children})
			disjunct = false
			tokens = rest[1:]
		case ")":
			if disjunct {
				return nil, nil, &DepParseError{Reason: "malformed disjunctive operation in deps"}
			}
			// Hand the close paren back to the enclosing group.
			return nodes, append([]string{")"}, tokens...), nil
		default:
			if disjunct {
				return nil, nil, &DepParseError{Reason: "malformed disjunctive operation in deps"}
			}
			nodes = append(nodes, depNode{atom: tok})
		}
	}
	if disjunct {
		return nil, nil, &DepParseError{Reason: "malformed disjunctive operation in deps"}
	}
	return nodes, nil, nil
}

// stripDepAtom reduces a raw dependency atom to a (CP, slot) pair,
// discarding qualifiers the planner does not evaluate. ok is false when
// the atom contributes no dependency: unversioned blockers are always
// discarded, and versioned blockers are discarded unless the blocked CP
// is already installed (they then act as ordinary update constraints).
func stripDepAtom(depAtom string, installedDB Database) (atom Atom, ok bool, err error) {
	if depAtom == "" {
		return Atom{}, false, &DepParseError{Reason: "empty dependency atom"}
	}

	// Unversioned blockers are left for the user to resolve.
	if depAtom[0] == '!' && (len(depAtom) < 2 || !strings.ContainsRune("<=>~", rune(depAtom[1]))) {
		return Atom{}, false, nil
	}

	cp := depAtom
	slot := ""
	requireInstalled := false

	if strings.HasPrefix(cp, "!") {
		cp = strings.TrimLeft(cp, "!")
		requireInstalled = true
	}

	// Strip the USE dependency qualifier.
	if open := strings.Index(cp, "["); open >= 0 {
		end := strings.Index(cp, "]")
		if end < open {
			return Atom{}, false, &DepParseError{Reason: "unterminated USE qualifier", DepStr: depAtom}
		}
		cp = cp[:open] + cp[end+1:]
	}

	// Separate the slot qualifier; truncate any sub-slot binding operator.
	if i := strings.Index(cp, ":"); i >= 0 {
		if strings.Count(cp, ":") > 1 {
			return Atom{}, false, &DepParseError{Reason: "malformed slot qualifier", DepStr: depAtom}
		}
		slot = cp[i+1:]
		cp = cp[:i]
		for _, delim := range []string{"=", "*"} {
			if j := strings.Index(slot, delim); j >= 0 {
				slot = slot[:j]
			}
		}
	}

	// Strip version wildcards (right) and comparators (left).
	cp = strings.TrimRight(cp, "*")
	cp = strings.TrimLeft(cp, "<=>~")

	cp, err = GetCP(cp)
	if err != nil {
		return Atom{}, false, &DepParseError{Reason: err.Error(), DepStr: depAtom}
	}

	if requireInstalled && !installedDB.Contains(cp, "") {
		return Atom{}, false, nil
	}

	return Atom{CP: cp, Slot: slot}, true, nil
}

// ResolveDeps resolves a raw dependency string into a flat set of
// (CP, slot) atoms.
//
// Disjunctive groups include every choice fully present in installedDB;
// if none is, the first choice fully present in availDB is used instead.
// availDB may be nil, in which case there is no fallback. USE-conditional
// atoms are not supported and fail the whole resolution; no partial
// result is ever returned.
func ResolveDeps(depStr string, installedDB, availDB Database) (AtomSet, error) {
	nodes, err := parseDepString(depStr)
	if err != nil {
		if pe, ok := err.(*DepParseError); ok && pe.DepStr == "" {
			pe.DepStr = depStr
		}
		return nil, err
	}

	deps, err := resolveSubDeps(nodes, false, installedDB, availDB)
	if err != nil {
		if pe, ok := err.(*DepParseError); ok && pe.DepStr == "" {
			pe.DepStr = depStr
		}
		return nil, err
	}
	return deps, nil
}

// resolveSubDeps walks one group of the parsed tree. disjunct applies to
// the group's immediate children only.
func resolveSubDeps(nodes []depNode, disjunct bool, installedDB, availDB Database) (AtomSet, error) {
	deps := AtomSet{}
	defaultDeps := AtomSet{}
	for _, node := range nodes {
		var subDeps AtomSet
		switch {
		case node.group:
			var err error
			subDeps, err = resolveSubDeps(node.children, node.disjunct, installedDB, availDB)
			if err != nil {
				return nil, err
			}
		case strings.HasSuffix(node.atom, "?"):
			return nil, &DepParseError{Reason: "dependencies contain a conditional"}
		default:
			atom, ok, err := stripDepAtom(node.atom, installedDB)
			if err != nil {
				return nil, err
			}
			if ok {
				subDeps = AtomSet{atom: {}}
			} else if disjunct {
				return nil, &DepParseError{Reason: "atom in disjunct ignored"}
			}
		}

		if disjunct {
			// The first available choice becomes the default, for use in
			// case no option is installed.
			if len(defaultDeps) == 0 && availDB != nil && len(subDeps) > 0 && availDB.containsAll(subDeps) {
				defaultDeps = subDeps
			}

			// Choices not fully installed are not considered.
			if !installedDB.containsAll(subDeps) {
				subDeps = nil
			}
		}

		for a := range subDeps {
			deps[a] = struct{}{}
		}
	}

	if len(deps) == 0 {
		return defaultDeps, nil
	}
	return deps, nil
}
