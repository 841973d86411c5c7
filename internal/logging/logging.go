package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/decred/slog"
)

// Subsystem tags.
const (
	Conn = "CONN"
	Game = "GAME"
	HTTP = "HTTP"
	TUI  = "TUI"
)

// Backend hands out per-subsystem loggers sharing one writer and level.
type Backend struct {
	backend *slog.Backend
	closer  io.Closer

	mu      sync.Mutex
	level   slog.Level
	loggers map[string]slog.Logger
}

// New creates a backend writing to w at the named level ("trace", "debug",
// "info", "warn", "error", "critical" or "off").
func New(w io.Writer, level string) (*Backend, error) {
	lvl, ok := slog.LevelFromString(level)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	return &Backend{
		backend: slog.NewBackend(w),
		level:   lvl,
		loggers: make(map[string]slog.Logger),
	}, nil
}

// NewFile creates a backend appending to the file at path.
func NewFile(path, level string) (*Backend, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	b, err := New(f, level)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	b.closer = f
	return b, nil
}

// Logger returns the logger for subsystem, creating it on first use.
func (b *Backend) Logger(subsystem string) slog.Logger {
	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok := b.loggers[subsystem]; ok {
		return l
	}
	l := b.backend.Logger(subsystem)
	l.SetLevel(b.level)
	b.loggers[subsystem] = l
	return l
}

// SetLevel changes the level of every logger handed out so far and of those
// created later.
func (b *Backend) SetLevel(level string) error {
	lvl, ok := slog.LevelFromString(level)
	if !ok {
		return fmt.Errorf("unknown log level %q", level)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.level = lvl
	for _, l := range b.loggers {
		l.SetLevel(lvl)
	}
	return nil
}

// Close closes the underlying file, if any.
func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}
