// package shared defines shared helpers
package shared

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var yearPattern = regexp.MustCompile(`^\s*(\d{4})`)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// NewDiscardLogger returns a [log.Logger] that drops everything. Used by tests and dry runs.
func NewDiscardLogger() *log.Logger {
	return log.New(io.Discard)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// FormatDuration converts a millisecond length to "M:SS".
//
// Returns an empty string for unknown (zero or negative) lengths.
func FormatDuration(ms int) string {
	if ms <= 0 {
		return ""
	}
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// ParseYear extracts the leading four-digit year from partial dates such as
// "1997", "1997-05" or "1997-05-21". Returns nil when no year is present.
func ParseYear(date string) *int {
	m := yearPattern.FindStringSubmatch(date)
	if m == nil {
		return nil
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &year
}

// FirstNonEmpty returns the first argument that is not blank after trimming.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
