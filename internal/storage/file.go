package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FileBackend keeps every entry in one JSON document on disk. The document
// is loaded once on open and rewritten on every Set.
type FileBackend struct {
	logger  zerolog.Logger
	mu      sync.RWMutex
	path    string
	entries map[string]json.RawMessage
}

// NewFileBackend opens the document at path. An unreadable document is
// moved aside and the backend starts empty.
func NewFileBackend(logger zerolog.Logger, path string) (*FileBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	b := &FileBackend{
		logger:  logger,
		path:    path,
		entries: map[string]json.RawMessage{},
	}
	if err := b.load(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *FileBackend) load() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read storage file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var loaded map[string]json.RawMessage
	if err := json.Unmarshal(data, &loaded); err != nil {
		return b.quarantineLocked(err)
	}
	if loaded != nil {
		b.entries = loaded
	}
	return nil
}

// quarantineLocked renames the undecodable document so the next Set
// cannot overwrite it.
func (b *FileBackend) quarantineLocked(decodeErr error) error {
	aside := b.path + ".corrupt-" + strconv.FormatInt(time.Now().Unix(), 10)
	if err := os.Rename(b.path, aside); err != nil {
		b.logger.Error().
			Err(err).
			Str("path", b.path).
			Msg("failed to move corrupt storage file aside")
		return fmt.Errorf("failed to move corrupt storage file: %w", err)
	}

	b.logger.Warn().
		Err(decodeErr).
		Str("path", b.path).
		Str("moved_to", aside).
		Msg("corrupt storage file, starting empty")
	return nil
}

func (b *FileBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.entries[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores value verbatim when it is valid JSON and as a JSON string
// otherwise, so the document on disk always stays readable.
func (b *FileBackend) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	raw := json.RawMessage(value)
	if !json.Valid(value) {
		quoted, err := json.Marshal(string(value))
		if err != nil {
			return err
		}
		raw = quoted
	}

	prev, existed := b.entries[key]
	b.entries[key] = raw
	if err := b.saveLocked(); err != nil {
		if existed {
			b.entries[key] = prev
		} else {
			delete(b.entries, key)
		}
		return err
	}
	return nil
}

func (b *FileBackend) saveLocked() error {
	data, err := json.MarshalIndent(b.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode storage file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".storage-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("failed to replace storage file: %w", err)
	}
	return nil
}

func (b *FileBackend) Close() error {
	return nil
}
