package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Compile-time interface check
var _ LibraryLogger = (*Logger)(nil)

// Logger writes planning logs under a base directory: planner.log holds
// everything at Info and above, debug.log holds the full per-package
// trace. Info, Warn and Error are echoed to stdout; Debug is echoed only
// when the logger was created with echoDebug set.
type Logger struct {
	plannerFile *os.File
	debugFile   *os.File
	echoDebug   bool
	mu          sync.Mutex
}

// NewLogger creates the log directory if needed and opens the log files.
func NewLogger(logsPath string, echoDebug bool) (*Logger, error) {
	if err := os.MkdirAll(logsPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	plannerFile, err := os.Create(filepath.Join(logsPath, "planner.log"))
	if err != nil {
		return nil, err
	}
	debugFile, err := os.Create(filepath.Join(logsPath, "debug.log"))
	if err != nil {
		plannerFile.Close()
		return nil, err
	}

	return &Logger{
		plannerFile: plannerFile,
		debugFile:   debugFile,
		echoDebug:   echoDebug,
	}, nil
}

// Close flushes and closes the log files. Safe to call more than once.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, f := range []**os.File{&l.plannerFile, &l.debugFile} {
		if *f == nil {
			continue
		}
		if err := (*f).Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		*f = nil
	}
	return firstErr
}

func (l *Logger) write(level, format string, echo bool, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%s [%s] %s\n",
		time.Now().Format("2006-01-02 15:04:05"), level, fmt.Sprintf(format, args...))

	if l.debugFile != nil {
		fmt.Fprint(l.debugFile, line)
	}
	if level != "DEBUG" && l.plannerFile != nil {
		fmt.Fprint(l.plannerFile, line)
	}
	if echo {
		fmt.Printf("[%s] %s\n", level, fmt.Sprintf(format, args...))
	}
}

func (l *Logger) Info(format string, args ...any) {
	l.write("INFO", format, true, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.write("DEBUG", format, l.echoDebug, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.write("WARN", format, true, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.write("ERROR", format, true, args...)
}
