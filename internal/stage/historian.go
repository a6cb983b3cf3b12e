package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tatami-backend/internal/domain/entity"
	"tatami-backend/internal/substrate/invoker"
)

const historianFileName = "historian_logs.json"

// historianEntry is one archived result record.
type historianEntry struct {
	LutaID      string         `json:"luta_id"`
	Winner      string         `json:"winner"`
	SubmittedBy string         `json:"submitted_by"`
	RecordedAt  string         `json:"recorded_at"`
	Extra       map[string]any `json:"extra"`
}

// Historian archives result records into a JSON-array backup file,
// append-grown the same way the queue files are.
//
// Input:  {"luta_id", "winner", "submitted_by"?, "extra"?}
// Output: {"status": "BACKED_UP", "file": <backup path>}
type Historian struct {
	dir    string
	clock  func() time.Time
	logger *slog.Logger
}

// HistorianOption configures a Historian.
type HistorianOption func(*Historian)

// WithHistorianClock overrides the time source, for tests.
func WithHistorianClock(clock func() time.Time) HistorianOption {
	return func(h *Historian) {
		h.clock = clock
	}
}

// NewHistorian creates the historian stage writing under dir.
func NewHistorian(dir string, logger *slog.Logger, opts ...HistorianOption) *Historian {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Historian{
		dir:    dir,
		clock:  time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name implements invoker.Function.
func (h *Historian) Name() string { return "historian" }

// Handle implements invoker.Function.
func (h *Historian) Handle(ctx context.Context, ictx invoker.InvocationContext, payload invoker.Payload) (invoker.Payload, error) {
	var input struct {
		LutaID      string         `json:"luta_id"`
		Winner      string         `json:"winner"`
		SubmittedBy string         `json:"submitted_by"`
		Extra       map[string]any `json:"extra"`
	}
	if err := decodePayload(payload, &input); err != nil {
		return nil, err
	}

	if input.SubmittedBy == "" {
		input.SubmittedBy = "N/A"
	}
	if input.Extra == nil {
		input.Extra = map[string]any{}
	}

	entry := historianEntry{
		LutaID:      input.LutaID,
		Winner:      input.Winner,
		SubmittedBy: input.SubmittedBy,
		RecordedAt:  h.clock().UTC().Format(time.RFC3339),
		Extra:       input.Extra,
	}

	path, err := h.append(entry)
	if err != nil {
		return nil, err
	}

	h.logger.Info("result archived",
		slog.String("luta_id", entry.LutaID),
		slog.String("file", path))

	return invoker.Payload{
		"status": "BACKED_UP",
		"file":   path,
	}, nil
}

// File returns the path of the backup file.
func (h *Historian) File() string {
	return filepath.Join(h.dir, historianFileName)
}

// append adds an entry to the backup array, rewriting the file atomically.
func (h *Historian) append(entry historianEntry) (string, error) {
	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory %s: %w", h.dir, err)
	}

	path := h.File()
	entries, err := h.read(path)
	if err != nil {
		return "", err
	}
	entries = append(entries, entry)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode backup entries: %w", err)
	}

	tmp, err := os.CreateTemp(h.dir, historianFileName+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp backup file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write temp backup file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close temp backup file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("replace backup file: %w", err)
	}
	return path, nil
}

// read loads the backup array. A missing file is empty; a malformed file is
// corrupted storage.
func (h *Historian) read(path string) ([]historianEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []historianEntry{}, nil
		}
		return nil, fmt.Errorf("read backup file %s: %w", path, err)
	}
	if len(data) == 0 {
		return []historianEntry{}, nil
	}

	var entries []historianEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: backup file %s: %v", entity.ErrStorageCorrupted, path, err)
	}
	return entries, nil
}
