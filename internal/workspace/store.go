package workspace

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/leapstack-labs/leapmap/pkg/core"
)

// DefaultIdleTTL is how long an untouched workspace is kept.
const DefaultIdleTTL = 12 * time.Hour

// Store keeps one Workspace per session id. Workspaces that are not
// accessed for the idle TTL are evicted.
type Store struct {
	opts   Options
	logger *slog.Logger
	cache  *ttlcache.Cache[string, *Workspace]

	mu          sync.RWMutex
	preloadName string
	preload     *core.Table

	// run guards the eviction loop; ttlcache's Stop blocks unless Start
	// is running.
	run            sync.Mutex
	running        bool
	closed         bool
	stopEvictionFn func()
}

// NewStore creates a store. Call Start to run the eviction loop and Close
// to stop it.
func NewStore(idle time.Duration, opts Options, logger *slog.Logger) *Store {
	if idle <= 0 {
		idle = DefaultIdleTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		opts:   opts,
		logger: logger,
		cache: ttlcache.New[string, *Workspace](
			ttlcache.WithTTL[string, *Workspace](idle),
		),
	}
	s.stopEvictionFn = s.cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Workspace]) {
		if reason == ttlcache.EvictionReasonExpired {
			s.logger.Debug("workspace expired", "id", item.Key())
		}
		s.opts.Metrics.SetWorkspaces(s.cache.Len())
	})
	return s
}

// Start runs the eviction loop until Close. It blocks. Start after Close
// returns immediately.
func (s *Store) Start() {
	s.run.Lock()
	if s.running || s.closed {
		s.run.Unlock()
		return
	}
	s.running = true
	s.run.Unlock()

	s.cache.Start()
}

// Close stops the eviction loop and waits for pending eviction callbacks.
// It is safe to call more than once and without Start.
func (s *Store) Close() {
	s.run.Lock()
	if s.closed {
		s.run.Unlock()
		return
	}
	s.closed = true
	wasRunning := s.running
	s.running = false
	s.run.Unlock()

	if wasRunning {
		s.cache.Stop()
	}
	s.stopEvictionFn()
}

// Get returns the workspace for id, creating it when absent. New
// workspaces start with the preload table if one is set.
func (s *Store) Get(id string) *Workspace {
	if item := s.cache.Get(id); item != nil {
		return item.Value()
	}

	w := New(id, s.opts)
	s.mu.RLock()
	name, table := s.preloadName, s.preload
	s.mu.RUnlock()
	if table != nil {
		w.applyPreload(name, table)
	}

	item, found := s.cache.GetOrSet(id, w)
	if !found {
		s.logger.Debug("workspace created", "id", id, "preloaded", table != nil)
		s.opts.Metrics.SetWorkspaces(s.cache.Len())
	}
	return item.Value()
}

// Lookup returns the workspace for id without creating one.
func (s *Store) Lookup(id string) (*Workspace, bool) {
	item := s.cache.Get(id)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// Len returns the number of live workspaces.
func (s *Store) Len() int {
	return s.cache.Len()
}

// Preload sets the table given to new workspaces and reloads it into every
// workspace still showing the previous preload. It returns the ids of the
// workspaces it reloaded. A nil table stops preloading for new workspaces.
func (s *Store) Preload(name string, table *core.Table) []string {
	s.mu.Lock()
	s.preloadName, s.preload = name, table
	s.mu.Unlock()

	if table == nil {
		return nil
	}

	var refreshed []string
	for id, item := range s.cache.Items() {
		w := item.Value()
		if w.Preloaded() {
			w.applyPreload(name, table)
			refreshed = append(refreshed, id)
		}
	}
	sort.Strings(refreshed)
	return refreshed
}
