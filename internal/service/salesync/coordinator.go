package salesync

import (
	"context"
	"errors"
	"sync"

	"github.com/Additional-Code/sistemact/internal/integration"
)

// State is the synchronization state of one platform.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// ErrBusy is returned when a platform sync is already in flight.
var ErrBusy = errors.New("sync already running")

// Lease is held for the duration of one sync run.
type Lease interface {
	Release(ctx context.Context) error
}

// Coordinator tracks the per-platform in-flight guard. A second acquisition for a
// Running platform fails with ErrBusy; it is never queued.
type Coordinator interface {
	TryAcquire(ctx context.Context, platform integration.Platform) (Lease, error)
	State(ctx context.Context, platform integration.Platform) (State, error)
}

// WithLease runs fn while holding the platform lease. The lease is released when fn
// returns or panics.
func WithLease(ctx context.Context, c Coordinator, platform integration.Platform, fn func(context.Context) error) (err error) {
	lease, err := c.TryAcquire(ctx, platform)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := lease.Release(context.WithoutCancel(ctx)); relErr != nil {
			err = errors.Join(err, relErr)
		}
	}()
	return fn(ctx)
}

// MemoryCoordinator guards platforms within a single process.
type MemoryCoordinator struct {
	mu      sync.Mutex
	seq     uint64
	running map[integration.Platform]uint64
}

// NewMemoryCoordinator returns a coordinator with every platform Idle.
func NewMemoryCoordinator() *MemoryCoordinator {
	return &MemoryCoordinator{running: make(map[integration.Platform]uint64)}
}

func (m *MemoryCoordinator) TryAcquire(_ context.Context, platform integration.Platform) (Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.running[platform]; ok {
		return nil, ErrBusy
	}
	m.seq++
	m.running[platform] = m.seq
	return &memoryLease{coord: m, platform: platform, token: m.seq}, nil
}

func (m *MemoryCoordinator) State(_ context.Context, platform integration.Platform) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.running[platform]; ok {
		return Running, nil
	}
	return Idle, nil
}

type memoryLease struct {
	coord    *MemoryCoordinator
	platform integration.Platform
	token    uint64
	once     sync.Once
}

func (l *memoryLease) Release(context.Context) error {
	l.once.Do(func() {
		l.coord.mu.Lock()
		defer l.coord.mu.Unlock()
		// a stale lease must not free a newer run
		if l.coord.running[l.platform] == l.token {
			delete(l.coord.running, l.platform)
		}
	})
	return nil
}
