package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// DefaultJournalFile is the file the planning service appends its lifecycle
// lines to.
const DefaultJournalFile = "deepagent.logs"

// Journal is an append-only text log of service lifecycle lines in the form
//
//	2025-01-02T15:04:05Z INFO start plan
//
// Key/value arguments are appended as key=value pairs. Journal implements
// Logger and is safe for concurrent use.
type Journal struct {
	mu  sync.Mutex
	w   io.Writer
	c   io.Closer
	now func() time.Time
}

// OpenJournal opens (or creates) path for appending.
func OpenJournal(path string) (*Journal, error) {
	if path == "" {
		path = DefaultJournalFile
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	return &Journal{w: f, c: f, now: time.Now}, nil
}

// NewJournal writes journal lines to w. The caller owns w.
func NewJournal(w io.Writer) *Journal {
	return &Journal{w: w, now: time.Now}
}

// Debug writes a DEBUG line.
func (j *Journal) Debug(msg string, args ...any) { j.write(LogLevelDebug, msg, args) }

// Info writes an INFO line.
func (j *Journal) Info(msg string, args ...any) { j.write(LogLevelInfo, msg, args) }

// Warn writes a WARN line.
func (j *Journal) Warn(msg string, args ...any) { j.write(LogLevelWarn, msg, args) }

// Error writes an ERROR line.
func (j *Journal) Error(msg string, args ...any) { j.write(LogLevelError, msg, args) }

// Close closes the underlying file, if the journal owns one.
func (j *Journal) Close() error {
	if j.c == nil {
		return nil
	}
	return j.c.Close()
}

func (j *Journal) write(level LogLevel, msg string, args []any) {
	var sb strings.Builder

	sb.WriteString(j.now().UTC().Format(time.RFC3339))
	sb.WriteByte(' ')
	sb.WriteString(level.String())
	sb.WriteByte(' ')
	sb.WriteString(strings.ReplaceAll(msg, "\n", " "))

	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fmt.Fprintf(&sb, " %v", args[i])
			break
		}
		fmt.Fprintf(&sb, " %v=%v", args[i], args[i+1])
	}

	sb.WriteByte('\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	// Journal writes are best effort.
	_, _ = io.WriteString(j.w, sb.String())
}
