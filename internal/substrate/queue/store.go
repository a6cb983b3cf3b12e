// Package queue implements a durable FIFO message queue backed by plain JSON
// files, one file per queue.
//
// Each queue is a single JSON array of message objects. Send appends to the
// tail; Receive removes the head. Every mutation rewrites the file through a
// temp-file-and-rename, so readers never observe a partially written queue,
// and a sibling lock file serializes writers across processes. Messages
// survive process restarts because the file is the queue.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"tatami-backend/internal/domain/entity"
)

// Message is one queued payload. Queues carry opaque JSON objects; producers
// and consumers agree on the shape out of band.
type Message map[string]any

// Store manages all queues under a single state directory.
//
// The in-process mutex serializes goroutines sharing one Store; the per-file
// lock serializes separate processes sharing one directory.
type Store struct {
	dir    string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewStore creates a queue store rooted at dir, creating the directory if
// needed.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create queue directory %s: %w", dir, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Send appends a message to the tail of the named queue. The queue file is
// created on first send.
func (s *Store) Send(ctx context.Context, queue string, message Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.queuePath(queue)
	lock, err := acquireLock(ctx, path)
	if err != nil {
		return err
	}
	defer lock.release()

	messages, err := s.readQueue(path)
	if err != nil {
		return err
	}

	messages = append(messages, message)

	if err := s.writeQueue(path, messages); err != nil {
		return err
	}

	s.logger.Debug("message enqueued",
		slog.String("queue", queue),
		slog.Int("depth", len(messages)))
	return nil
}

// Receive removes and returns the message at the head of the named queue.
// The second return value is false when the queue is empty or absent; an
// empty queue is not an error.
func (s *Store) Receive(ctx context.Context, queue string) (Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.queuePath(queue)
	lock, err := acquireLock(ctx, path)
	if err != nil {
		return nil, false, err
	}
	defer lock.release()

	messages, err := s.readQueue(path)
	if err != nil {
		return nil, false, err
	}
	if len(messages) == 0 {
		return nil, false, nil
	}

	head := messages[0]
	rest := messages[1:]

	if err := s.writeQueue(path, rest); err != nil {
		return nil, false, err
	}

	s.logger.Debug("message dequeued",
		slog.String("queue", queue),
		slog.Int("depth", len(rest)))
	return head, true, nil
}

// Depth returns the number of messages currently in the named queue.
// An absent queue has depth zero.
func (s *Store) Depth(ctx context.Context, queue string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.readQueue(s.queuePath(queue))
	if err != nil {
		return 0, err
	}
	return len(messages), nil
}

// Purge removes every message from the named queue.
func (s *Store) Purge(ctx context.Context, queue string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.queuePath(queue)
	lock, err := acquireLock(ctx, path)
	if err != nil {
		return err
	}
	defer lock.release()

	return s.writeQueue(path, []Message{})
}

// queuePath maps a queue name to its backing file.
func (s *Store) queuePath(queue string) string {
	return filepath.Join(s.dir, queue+".json")
}

// readQueue loads the queue file. A missing file is an empty queue; a file
// that does not parse as a JSON array is reported as corrupted storage.
func (s *Store) readQueue(path string) ([]Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("read queue file %s: %w", path, err)
	}

	if len(data) == 0 {
		return []Message{}, nil
	}

	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("%w: queue file %s: %v", entity.ErrStorageCorrupted, path, err)
	}
	return messages, nil
}

// writeQueue replaces the queue file atomically: the new contents go to a
// temp file in the same directory, then rename swaps it into place.
func (s *Store) writeQueue(path string, messages []Message) error {
	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp queue file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp queue file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp queue file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp queue file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace queue file %s: %w", path, err)
	}
	return nil
}
