package space

import (
	"fmt"
	"sync"
)

// SpaceManager manages multiple driven spaces, each isolated from the
// others: no shared stock, catalog, scheduler, or random state. Spaces
// and runners are single-goroutine by contract, so concurrent callers
// (e.g. HTTP handlers) must go through Do, which serializes access per
// space.
type SpaceManager struct {
	mu      sync.RWMutex
	runners map[string]*managedSpace
	logger  Logger
}

type managedSpace struct {
	mu     sync.Mutex
	runner *Runner
}

// NewSpaceManager creates a new space manager
func NewSpaceManager() *SpaceManager {
	return NewSpaceManagerWithLogger(NewNoOpLogger())
}

// NewSpaceManagerWithLogger creates a space manager with the given logger
func NewSpaceManagerWithLogger(logger Logger) *SpaceManager {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &SpaceManager{
		runners: make(map[string]*managedSpace),
		logger:  logger,
	}
}

// CreateSpace builds a space from the given config and registers a
// runner for it. Returns an error if the config is invalid or a space
// with that ID already exists.
func (sm *SpaceManager) CreateSpace(cfg SpaceConfig) (*Runner, error) {
	s, err := BuildSpaceFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	s.SetLogger(sm.logger)

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.runners[s.ID()]; exists {
		return nil, fmt.Errorf("space with id %s already exists", s.ID())
	}

	runner := NewRunner(s)
	sm.runners[s.ID()] = &managedSpace{runner: runner}
	return runner, nil
}

// GetSpace retrieves a runner by space ID. Prefer Do when the caller
// may race with other goroutines.
func (sm *SpaceManager) GetSpace(id string) (*Runner, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	ms, exists := sm.runners[id]
	if !exists {
		return nil, false
	}
	return ms.runner, true
}

// Do runs fn with exclusive access to the runner of the given space.
func (sm *SpaceManager) Do(id string, fn func(*Runner) error) error {
	sm.mu.RLock()
	ms, exists := sm.runners[id]
	sm.mu.RUnlock()

	if !exists {
		return fmt.Errorf("space with id %s does not exist", id)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	return fn(ms.runner)
}

// DeleteSpace removes a space by ID
func (sm *SpaceManager) DeleteSpace(id string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.runners[id]; !exists {
		return fmt.Errorf("space with id %s does not exist", id)
	}

	delete(sm.runners, id)
	return nil
}

// ListSpaces returns a list of all space IDs
func (sm *SpaceManager) ListSpaces() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	ids := make([]string, 0, len(sm.runners))
	for id := range sm.runners {
		ids = append(ids, id)
	}
	return ids
}
