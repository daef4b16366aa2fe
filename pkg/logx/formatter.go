package logx

import (
	"fmt"
	"time"
)

// Formatter renders one entry, newline included
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}

// LogEntry is what formatters receive
type LogEntry struct {
	Level     Level
	Message   string
	Fields    Fields
	Error     error
	Timestamp time.Time
	Caller    string
}

// Fields are key/value pairs attached to an entry
type Fields map[string]interface{}

// formatTimestamp accepts a time layout or "unix" / "unixmilli"
func formatTimestamp(t time.Time, format string) string {
	switch format {
	case "unix":
		return fmt.Sprintf("%d", t.Unix())
	case "unixmilli":
		return fmt.Sprintf("%d", t.UnixMilli())
	default:
		return t.Format(format)
	}
}
