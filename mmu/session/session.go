// Package session owns the allocator instance shared by request-driven
// front-ends.
//
// A Manager serializes every operation on its instance behind one mutex, so no
// caller ever observes a half-applied allocation or free. Reset builds a fresh
// allocator first and swaps it in under the same lock: concurrent readers see
// either the old instance or the new one, never a partial re-initialization.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joshuapare/mmusim/mmu/alloc"
)

// Info identifies one allocator instance held by a Manager.
type Info struct {
	ID       uuid.UUID
	Created  time.Time
	Total    int
	Strategy alloc.Strategy
}

// Manager guards a single replaceable allocator instance.
type Manager struct {
	mu   sync.Mutex
	a    *alloc.Allocator
	info Info

	log      *slog.Logger
	logAlloc bool
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for operation events.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithEngineLogging passes the manager's logger down to every allocator it
// creates, enabling per-placement debug events.
func WithEngineLogging(enabled bool) Option {
	return func(m *Manager) { m.logAlloc = enabled }
}

// NewManager creates a manager holding a fresh allocator of the given size and
// strategy.
func NewManager(total int, strategy alloc.Strategy, opts ...Option) (*Manager, error) {
	m := &Manager{
		log: slog.New(slog.DiscardHandler),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	a, info, err := m.build(total, strategy)
	if err != nil {
		return nil, err
	}
	m.a, m.info = a, info
	return m, nil
}

// build constructs a new instance without touching the current one.
func (m *Manager) build(total int, strategy alloc.Strategy) (*alloc.Allocator, Info, error) {
	var opts []alloc.Option
	if m.logAlloc {
		opts = append(opts, alloc.WithLogger(m.log))
	}
	a, err := alloc.New(total, strategy, opts...)
	if err != nil {
		return nil, Info{}, err
	}
	return a, Info{
		ID:       uuid.New(),
		Created:  m.now(),
		Total:    total,
		Strategy: strategy,
	}, nil
}

// Reset replaces the shared instance with a new, empty allocator. On error the
// current instance stays in place.
func (m *Manager) Reset(total int, strategy alloc.Strategy) (Info, error) {
	a, info, err := m.build(total, strategy)
	if err != nil {
		m.log.Warn("reset rejected", "total", total, "strategy", strategy.String(), "error", err)
		return Info{}, err
	}

	m.mu.Lock()
	prev := m.info
	m.a, m.info = a, info
	m.mu.Unlock()

	m.log.Info("allocator replaced",
		"instance", info.ID.String(), "previous", prev.ID.String(),
		"total", total, "strategy", strategy.String())
	return info, nil
}

// Info returns the identity of the current instance.
func (m *Manager) Info() Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info
}

// Do runs fn with exclusive access to the current allocator. fn must not retain
// the allocator after it returns.
func (m *Manager) Do(fn func(a *alloc.Allocator, info Info) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.a, m.info)
}

// Allocate places a request on the current instance.
func (m *Manager) Allocate(size int) (alloc.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.a.Allocate(size)
	if err != nil {
		m.log.Info("allocate failed", "instance", m.info.ID.String(), "size", size, "error", err)
		return p, err
	}
	m.log.Info("process created",
		"instance", m.info.ID.String(), "pid", int(p.ID), "base", p.Base, "limit", p.Limit)
	return p, nil
}

// Free releases process id on the current instance.
func (m *Manager) Free(id alloc.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.a.Free(id); err != nil {
		m.log.Info("delete failed", "instance", m.info.ID.String(), "pid", int(id), "error", err)
		return err
	}
	m.log.Info("process deleted", "instance", m.info.ID.String(), "pid", int(id))
	return nil
}

// Translate converts a virtual address of process id on the current instance.
func (m *Manager) Translate(id alloc.ID, virtual int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.a.Translate(id, virtual)
}

// Snapshot returns the memory map of the current instance.
func (m *Manager) Snapshot() []alloc.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.a.Snapshot()
}

// Stats returns the statistics of the current instance together with its
// identity, read under one lock.
func (m *Manager) Stats() (alloc.Stats, Info) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.a.Stats(), m.info
}

// Validate checks the invariants of the current instance.
func (m *Manager) Validate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.a.Validate(); err != nil {
		return fmt.Errorf("instance %s: %w", m.info.ID, err)
	}
	return nil
}
