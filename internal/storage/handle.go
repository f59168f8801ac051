package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tagih/internal/core"

	_ "modernc.org/sqlite"
)

// ErrClosed is returned by a Handle after Close.
var ErrClosed = errors.New("storage handle closed")

// Handle owns the process-wide connection to the ledger database. The
// connection is opened and migrated on first use; later Init calls are
// no-ops.
type Handle struct {
	path string

	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// NewHandle returns a handle for the database file at dbPath. Nothing is
// opened until Init or the first repository call.
func NewHandle(dbPath string) *Handle {
	return &Handle{path: dbPath}
}

// Init opens the database and creates the schema if needed.
func (h *Handle) Init(ctx context.Context) error {
	_, err := h.conn(ctx)
	return err
}

func (h *Handle) conn(ctx context.Context) (*sql.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}
	if h.db != nil {
		return h.db, nil
	}

	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", h.path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// All ledger access goes through one connection so reads and writes
	// never overlap.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(h.path); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.InfoContext(ctx, "Ledger database ready", "path", h.path)
	h.db = db
	return db, nil
}

// Close releases the connection. It is safe to call more than once.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}

// Option customises a repository.
type Option func(*options)

type options struct {
	now      func() time.Time
	upcoming time.Duration
}

func defaultOptions() options {
	return options{
		now:      time.Now,
		upcoming: core.DefaultUpcomingWindow,
	}
}

// WithClock replaces time.Now for timestamps and date comparisons.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithUpcomingWindow sets the horizon of the "Next 7 Days" bucket.
func WithUpcomingWindow(d time.Duration) Option {
	return func(o *options) {
		o.upcoming = d
	}
}

// timeLayout is fixed width so that text order equals time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", core.ErrStorage, op, err)
}
