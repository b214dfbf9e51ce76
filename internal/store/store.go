// Package store persists the active filter criteria between runs.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/spigell/teacherlink-search/internal/filtering"
	"github.com/spigell/teacherlink-search/internal/metrics"
)

const (
	BackendNop    = "nop"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"

	// DefaultKey is the name the web client used for its saved filters.
	DefaultKey = "candidateFilters"
)

// ErrNotFound is returned by Load when nothing was saved yet.
var ErrNotFound = errors.New("no saved filters")

// FilterStore loads and saves filter criteria.
type FilterStore interface {
	Load(ctx context.Context) (filtering.Criteria, error)
	Save(ctx context.Context, criteria filtering.Criteria) error
	Clear(ctx context.Context) error
}

// Config selects and configures a backend.
type Config struct {
	Backend string      `mapstructure:"backend" validate:"omitempty,oneof=nop memory file redis"`
	Key     string      `mapstructure:"key"`
	File    string      `mapstructure:"file"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// New builds the configured store. An empty backend selects the file store when a file is set
// and nop otherwise.
func New(cfg *Config, logger *zap.Logger) (FilterStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &Config{}
	}

	key := cfg.Key
	if key == "" {
		key = DefaultKey
	}

	backend := cfg.Backend
	if backend == "" {
		backend = BackendNop
		if cfg.File != "" {
			backend = BackendFile
		}
	}

	var s FilterStore
	switch backend {
	case BackendNop:
		s = Nop{}
	case BackendMemory:
		s = NewMemory()
	case BackendFile:
		if cfg.File == "" {
			return nil, fmt.Errorf("file store requires a file path")
		}
		s = NewFile(cfg.File, key)
	case BackendRedis:
		r, err := NewRedis(cfg.Redis, key, logger)
		if err != nil {
			return nil, err
		}
		s = r
	default:
		return nil, fmt.Errorf("unknown filter store backend %q", backend)
	}

	logger.Debug("filter store ready", zap.String("backend", backend), zap.String("key", key))
	return &instrumented{backend: backend, next: s}, nil
}

// LoadOrEmpty returns the saved criteria, or empty criteria when nothing was saved.
func LoadOrEmpty(ctx context.Context, s FilterStore) (filtering.Criteria, error) {
	c, err := s.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return filtering.Criteria{}, nil
	}
	return c, err
}

type instrumented struct {
	backend string
	next    FilterStore
}

func (s *instrumented) Load(ctx context.Context) (filtering.Criteria, error) {
	c, err := s.next.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		metrics.RecordStoreOperation(s.backend, "load", nil)
		return c, err
	}
	metrics.RecordStoreOperation(s.backend, "load", err)
	return c, err
}

func (s *instrumented) Save(ctx context.Context, criteria filtering.Criteria) error {
	err := s.next.Save(ctx, criteria)
	metrics.RecordStoreOperation(s.backend, "save", err)
	return err
}

func (s *instrumented) Clear(ctx context.Context) error {
	err := s.next.Clear(ctx)
	metrics.RecordStoreOperation(s.backend, "clear", err)
	return err
}

// Close releases the backend connection, if the backend holds one.
func (s *instrumented) Close() error {
	if closer, ok := s.next.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Close releases s when its backend holds a connection.
func Close(s FilterStore) error {
	if closer, ok := s.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Load(context.Context) (filtering.Criteria, error) {
	return filtering.Criteria{}, ErrNotFound
}

func (Nop) Save(context.Context, filtering.Criteria) error { return nil }

func (Nop) Clear(context.Context) error { return nil }
