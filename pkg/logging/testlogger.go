package logging

import "sync"

// Entry is a captured log entry.
type Entry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// TestLogger captures log entries in memory for assertions in tests.
type TestLogger struct {
	mu      sync.Mutex
	entries []Entry
	fields  map[string]interface{}
}

// NewTestLogger creates an empty test logger.
func NewTestLogger() *TestLogger {
	return &TestLogger{}
}

func (l *TestLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	l.entries = append(l.entries, Entry{Level: level, Message: msg, Fields: merged})
}

func (l *TestLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *TestLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *TestLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *TestLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

// WithField returns a logger sharing the same entry sink with the field
// added to every subsequent entry.
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	fields := make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value
	return &childTestLogger{parent: l, fields: fields}
}

// Entries returns a copy of the captured entries.
func (l *TestLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// HasMessage reports whether any captured entry contains msg verbatim.
func (l *TestLogger) HasMessage(msg string) bool {
	for _, e := range l.Entries() {
		if e.Message == msg {
			return true
		}
	}
	return false
}

// childTestLogger forwards to the parent sink with bound fields.
type childTestLogger struct {
	parent *TestLogger
	fields map[string]interface{}
}

func (c *childTestLogger) record(level, msg string, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(c.fields)+len(fields))
	for k, v := range c.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	c.parent.record(level, msg, merged)
}

func (c *childTestLogger) Debug(msg string, fields map[string]interface{}) {
	c.record("debug", msg, fields)
}
func (c *childTestLogger) Info(msg string, fields map[string]interface{}) {
	c.record("info", msg, fields)
}
func (c *childTestLogger) Warn(msg string, fields map[string]interface{}) {
	c.record("warn", msg, fields)
}
func (c *childTestLogger) Error(msg string, fields map[string]interface{}) {
	c.record("error", msg, fields)
}

func (c *childTestLogger) WithField(key string, value interface{}) Logger {
	fields := make(map[string]interface{}, len(c.fields)+1)
	for k, v := range c.fields {
		fields[k] = v
	}
	fields[key] = value
	return &childTestLogger{parent: c.parent, fields: fields}
}
