package planner

// Chooser disambiguates a package pattern that matched more than one
// binary package. Implementations may prompt the user (see the ui
// package) or apply a fixed policy. Choose returns the index of the
// selected candidate.
type Chooser interface {
	Choose(prompt string, candidates []string) (int, error)
}

// FirstMatch always picks the first candidate. This is the default
// policy for non-interactive runs.
type FirstMatch struct{}

func (FirstMatch) Choose(string, []string) (int, error) {
	return 0, nil
}
