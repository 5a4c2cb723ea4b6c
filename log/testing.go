package log

import (
	"fmt"
	"strings"
	"sync"
)

// MemoryLogger captures all log messages in memory for tests.
// Safe for concurrent use.
type MemoryLogger struct {
	mu       sync.Mutex
	messages []LogMessage
}

// LogMessage is one captured log entry.
type LogMessage struct {
	Level   string // "INFO", "DEBUG", "WARN", "ERROR"
	Message string
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (m *MemoryLogger) append(level, format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, LogMessage{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}

func (m *MemoryLogger) Info(format string, args ...any)  { m.append("INFO", format, args...) }
func (m *MemoryLogger) Debug(format string, args ...any) { m.append("DEBUG", format, args...) }
func (m *MemoryLogger) Warn(format string, args ...any)  { m.append("WARN", format, args...) }
func (m *MemoryLogger) Error(format string, args ...any) { m.append("ERROR", format, args...) }

// Messages returns a copy of all captured entries.
func (m *MemoryLogger) Messages() []LogMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LogMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

// Contains reports whether any captured message at the given level
// contains the substring. An empty level matches all levels.
func (m *MemoryLogger) Contains(level, substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if level != "" && msg.Level != level {
			continue
		}
		if strings.Contains(msg.Message, substr) {
			return true
		}
	}
	return false
}

// Reset discards all captured entries.
func (m *MemoryLogger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}
