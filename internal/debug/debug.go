package debug

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DebugHeader logs a debug header if debugging is enabled
func DebugHeader(enabled bool) {
	if enabled {
		zap.L().Debug("=== DEBUG START ===")
	}
}

// DebugFooter logs a debug footer if debugging is enabled
func DebugFooter(enabled bool) {
	if enabled {
		zap.L().Debug("=== DEBUG END ===")
	}
}

// DebugOutput logs debug output if debugging is enabled
func DebugOutput(enabled bool, format string, args ...interface{}) {
	if enabled {
		zap.L().Debug(fmt.Sprintf(format, args...))
	}
}

// DebugTiming measures and logs execution time if debugging is enabled
func DebugTiming(enabled bool, operation string) func() {
	if !enabled {
		return func() {}
	}

	start := time.Now()
	DebugOutput(enabled, "Starting: %s", operation)

	return func() {
		zap.L().Debug("completed", zap.String("operation", operation), zap.Duration("took", time.Since(start)))
	}
}

// Entry is one diagnostic line: the pipeline stage and what was decided
type Entry struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Trace is the diagnostics side channel. It records detected columns, match
// counts per strategy and the decision path of one query. A nil or disabled
// Trace records nothing; it never influences results.
type Trace struct {
	enabled bool
	log     *zap.Logger

	mu      sync.Mutex
	entries []Entry
}

// NewTrace creates a trace. Entries are also logged at debug level.
func NewTrace(enabled bool) *Trace {
	return &Trace{enabled: enabled, log: zap.L().Named("trace")}
}

// Enabled reports whether the trace records anything
func (t *Trace) Enabled() bool {
	return t != nil && t.enabled
}

// Add records a formatted entry for a stage
func (t *Trace) Add(stage, format string, args ...interface{}) {
	if !t.Enabled() {
		return
	}
	msg := fmt.Sprintf(format, args...)
	t.mu.Lock()
	t.entries = append(t.entries, Entry{Stage: stage, Message: msg})
	t.mu.Unlock()
	t.log.Debug(msg, zap.String("stage", stage))
}

// Entries returns a copy of the recorded entries
func (t *Trace) Entries() []Entry {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
