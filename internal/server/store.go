package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mweers/mweers.github.io/internal/stats"
	"github.com/mweers/mweers.github.io/internal/steps"
)

// FetchFunc returns the raw CSV for a source.
type FetchFunc func(ctx context.Context, source string) ([]byte, error)

type StoreOptions struct {
	Source string
	From   *time.Time
	To     *time.Time
	Goal   int

	// Fetch defaults to steps.Fetch.
	Fetch FetchFunc
	Now   func() time.Time
}

// Snapshot is one load of the source. Err is set when the load failed; Raw
// is kept whenever the fetch itself succeeded.
type Snapshot struct {
	Days    []steps.Day
	Summary stats.Summary
	Raw     []byte
	Err     error
	Loaded  time.Time
}

// Store holds the most recent Snapshot and swaps it atomically on Reload.
type Store struct {
	opts StoreOptions

	mu   sync.RWMutex
	snap Snapshot
}

func NewStore(opts StoreOptions) *Store {
	if opts.Fetch == nil {
		opts.Fetch = steps.Fetch
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{opts: opts}
}

func (s *Store) Source() string { return s.opts.Source }

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Reload fetches and parses the source again. The new snapshot replaces the
// old one even on failure, so the page shows the current error.
func (s *Store) Reload(ctx context.Context) error {
	snap := Snapshot{Loaded: s.opts.Now()}

	raw, err := s.opts.Fetch(ctx, s.opts.Source)
	if err == nil {
		snap.Raw = raw
		var days []steps.Day
		days, err = steps.Parse(bytes.NewReader(raw))
		if err != nil && !errors.Is(err, steps.ErrNoData) {
			err = fmt.Errorf("parse %s: %w", s.opts.Source, err)
		}
		if err == nil {
			snap.Days = steps.Filter(days, s.opts.From, s.opts.To)
			snap.Summary = stats.Summarize(snap.Days, s.opts.Goal)
		}
	}
	snap.Err = err

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return err
}
