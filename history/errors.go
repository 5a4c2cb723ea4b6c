package history

import "fmt"

// Sentinel errors - simple error constants that can be checked with errors.Is()
var (
	// ErrDatabaseNotOpen is returned when attempting operations on a closed database
	ErrDatabaseNotOpen = fmt.Errorf("database not open")

	// ErrEmptyUUID is returned when a UUID parameter is empty or missing
	ErrEmptyUUID = fmt.Errorf("UUID cannot be empty")

	// ErrRecordNotFound is returned when a plan record doesn't exist in the database
	ErrRecordNotFound = fmt.Errorf("plan record not found")

	// ErrBucketNotFound is returned when a required database bucket doesn't exist
	ErrBucketNotFound = fmt.Errorf("database bucket not found")

	// ErrCorruptedData is returned when database data cannot be parsed
	ErrCorruptedData = fmt.Errorf("corrupted database data")
)

// DatabaseError wraps low-level bbolt failures with the operation and
// bucket involved.
type DatabaseError struct {
	Op     string
	Bucket string
	Err    error
}

func (e *DatabaseError) Error() string {
	if e.Bucket != "" {
		return fmt.Sprintf("database %s (bucket %s): %v", e.Op, e.Bucket, e.Err)
	}
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// ValidationError reports an invalid parameter to a database operation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
