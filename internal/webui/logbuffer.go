package webui

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// LogEntry is one captured zerolog line
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Component string    `json:"component,omitempty"`
	Message   string    `json:"message"`
	Raw       string    `json:"raw"`
}

// LogBuffer keeps the last N log lines for the dashboard. It is an
// io.Writer so it can sit next to stdout in a MultiWriter.
type LogBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	size    int
	head    int
	count   int
}

// NewLogBuffer creates a ring buffer holding size entries
func NewLogBuffer(size int) *LogBuffer {
	if size < 1 {
		size = 1
	}
	return &LogBuffer{
		entries: make([]LogEntry, size),
		size:    size,
	}
}

// zerolog line fields we surface
type logLine struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	Component string `json:"component"`
}

// Write records one log line. zerolog writes exactly one JSON object per call.
func (lb *LogBuffer) Write(p []byte) (int, error) {
	raw := strings.TrimRight(string(p), "\n")
	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     "info",
		Message:   raw,
		Raw:       raw,
	}

	var line logLine
	if err := json.Unmarshal(p, &line); err == nil {
		if line.Level != "" {
			entry.Level = line.Level
		}
		if line.Message != "" {
			entry.Message = line.Message
		}
		entry.Component = line.Component
	}

	lb.mu.Lock()
	lb.entries[lb.head] = entry
	lb.head = (lb.head + 1) % lb.size
	if lb.count < lb.size {
		lb.count++
	}
	lb.mu.Unlock()

	return len(p), nil
}

// Entries returns all entries oldest first
func (lb *LogBuffer) Entries() []LogEntry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	result := make([]LogEntry, lb.count)
	start := 0
	if lb.count == lb.size {
		start = lb.head
	}
	for i := 0; i < lb.count; i++ {
		result[i] = lb.entries[(start+i)%lb.size]
	}
	return result
}

// Recent returns up to n of the newest entries matching level and
// component, oldest first. Empty filters match everything.
func (lb *LogBuffer) Recent(n int, level, component string) []LogEntry {
	all := lb.Entries()
	if level == "" && component == "" {
		if len(all) > n {
			return all[len(all)-n:]
		}
		return all
	}

	var matched []LogEntry
	for i := len(all) - 1; i >= 0 && len(matched) < n; i-- {
		e := all[i]
		if level != "" && e.Level != level {
			continue
		}
		if component != "" && e.Component != component {
			continue
		}
		matched = append(matched, e)
	}
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	return matched
}

// Clear drops every entry
func (lb *LogBuffer) Clear() {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.head = 0
	lb.count = 0
}
