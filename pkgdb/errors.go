package pkgdb

import "fmt"

// Sentinel errors, checkable with errors.Is().
var (
	// ErrMalformedCPV is returned when a package identifier cannot be
	// decomposed into category/package/version.
	ErrMalformedCPV = fmt.Errorf("malformed package identifier")

	// ErrDuplicateSlot is returned when two records claim the same
	// (CP, slot) pair within one database. This indicates a corrupt
	// source dump and is never recoverable.
	ErrDuplicateSlot = fmt.Errorf("duplicate package slot")

	// ErrDepParse is returned when a raw dependency string cannot be
	// resolved: the grammar fails to parse, a USE conditional is present,
	// or a disjunctive choice resolves to nothing.
	ErrDepParse = fmt.Errorf("invalid dependency string")

	// ErrBadFeed is returned when a package record feed cannot be decoded.
	ErrBadFeed = fmt.Errorf("malformed package record feed")
)

// DuplicateSlotError identifies the (CP, slot) pair that was claimed twice.
type DuplicateSlotError struct {
	CP   string
	Slot string
}

func (e *DuplicateSlotError) Error() string {
	return fmt.Sprintf("more than one package found for %s", Atom{CP: e.CP, Slot: e.Slot})
}

func (e *DuplicateSlotError) Unwrap() error {
	return ErrDuplicateSlot
}

// DepParseError carries the offending dependency string alongside the
// reason resolution failed.
type DepParseError struct {
	Reason string
	DepStr string
}

func (e *DepParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.DepStr)
}

func (e *DepParseError) Unwrap() error {
	return ErrDepParse
}
