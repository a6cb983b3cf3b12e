// Package notification implements an append-only, human-readable notification
// log. Publishing a message appends one line to a text file:
//
//	2025-06-01T12:00:00Z | lutas | match called: LUTA-1
//
// The file is opened with O_APPEND for every publish, so concurrent writers
// interleave whole lines and the log survives restarts. Nothing is ever
// rewritten or deleted.
package notification

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const lineSeparator = " | "

// Entry is one parsed notification log line.
type Entry struct {
	Timestamp time.Time
	Topic     string
	Message   string
}

// Log publishes messages to topics by appending lines to a single text file.
type Log struct {
	path   string
	mu     sync.Mutex
	clock  func() time.Time
	logger *slog.Logger
}

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(l *Log) {
		l.clock = clock
	}
}

// NewLog creates a notification log backed by the file at path, creating the
// parent directory if needed.
func NewLog(path string, logger *slog.Logger, opts ...Option) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create notification log directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	l := &Log{
		path:   path,
		clock:  time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Publish appends one timestamped line for the topic. Newlines inside the
// message are flattened so one publish is always exactly one line.
func (l *Log) Publish(topic, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	message = strings.ReplaceAll(message, "\n", " ")
	timestamp := l.clock().UTC().Format(time.RFC3339)
	line := timestamp + lineSeparator + topic + lineSeparator + message + "\n"

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open notification log %s: %w", l.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append to notification log: %w", err)
	}

	l.logger.Debug("notification published",
		slog.String("topic", topic),
		slog.String("message", message))
	return nil
}

// Entries reads and parses every line of the log in order. A missing file
// yields an empty slice. Lines that do not parse are skipped with a warning
// rather than failing the whole read.
func (l *Log) Entries() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("open notification log %s: %w", l.path, err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		entry, ok := parseLine(line)
		if !ok {
			l.logger.Warn("skipping unparsable notification log line",
				slog.String("line", line))
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read notification log: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// parseLine splits a log line into its three fields.
func parseLine(line string) (Entry, bool) {
	parts := strings.SplitN(line, lineSeparator, 3)
	if len(parts) != 3 {
		return Entry{}, false
	}
	ts, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return Entry{}, false
	}
	return Entry{Timestamp: ts, Topic: parts[1], Message: parts[2]}, true
}
