package log

import "fmt"

// LibraryLogger is the minimal logging surface library packages depend
// on. Keeping it an interface lets the planner run inside a CLI (file or
// stdout logging), inside automation (silent), or under test (captured
// in memory) without caring about log destinations.
type LibraryLogger interface {
	// Info logs progress messages (e.g. "Computing set of packages...").
	Info(format string, args ...any)

	// Debug logs per-package diagnostic detail; may be a no-op.
	Debug(format string, args ...any)

	// Warn logs non-fatal issues (USE mismatches, unmatched deps).
	Warn(format string, args ...any)

	// Error logs failures after which execution still continues.
	Error(format string, args ...any)
}

// NoOpLogger discards all messages.
type NoOpLogger struct{}

func (NoOpLogger) Info(format string, args ...any)  {}
func (NoOpLogger) Debug(format string, args ...any) {}
func (NoOpLogger) Warn(format string, args ...any)  {}
func (NoOpLogger) Error(format string, args ...any) {}

// StdoutLogger prints every message to stdout with a severity prefix.
type StdoutLogger struct{}

func (StdoutLogger) Info(format string, args ...any) {
	fmt.Printf("[INFO] "+format+"\n", args...)
}

func (StdoutLogger) Debug(format string, args ...any) {
	fmt.Printf("[DEBUG] "+format+"\n", args...)
}

func (StdoutLogger) Warn(format string, args ...any) {
	fmt.Printf("[WARN] "+format+"\n", args...)
}

func (StdoutLogger) Error(format string, args ...any) {
	fmt.Printf("[ERROR] "+format+"\n", args...)
}
