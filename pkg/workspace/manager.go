package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/twsgraph/internal/logging"
	"github.com/aretw0/twsgraph/pkg/assembler"
	"github.com/aretw0/twsgraph/pkg/builder"
	"github.com/aretw0/twsgraph/pkg/catalog"
	"github.com/aretw0/twsgraph/pkg/detail"
	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/aretw0/twsgraph/pkg/ports"
	"github.com/aretw0/twsgraph/pkg/reach"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a crashed replica can hold a workspace.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates workspace access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.WorkspaceStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger

	assembler *assembler.Assembler
	builder   *builder.Builder
	filterer  *reach.Filterer
	now       func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithAssembler replaces the default Assembler.
func WithAssembler(a *assembler.Assembler) Option {
	return func(m *Manager) {
		m.assembler = a
	}
}

// WithBuilder replaces the default Builder.
func WithBuilder(b *builder.Builder) Option {
	return func(m *Manager) {
		m.builder = b
	}
}

// WithFilterer replaces the default Filterer.
func WithFilterer(f *reach.Filterer) Option {
	return func(m *Manager) {
		m.filterer = f
	}
}

// NewManager creates a new workspace Manager with the given store.
func NewManager(store ports.WorkspaceStore, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		locks:     make(map[string]*lockEntry),
		lockTTL:   DefaultLockTTL,
		logger:    logging.NewNop(),
		assembler: assembler.New(),
		builder:   builder.New(),
		filterer:  reach.NewFilterer(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create assembles files into a new workspace. Auxiliary parse failures are
// returned in the second result without failing the call.
func (m *Manager) Create(ctx context.Context, files ports.InputFiles) (*domain.Workspace, []error, error) {
	ds, auxErrs, err := m.assembler.Assemble(ctx, files)
	if err != nil {
		return nil, auxErrs, err
	}

	now := m.now()
	ws := &domain.Workspace{
		ID:        uuid.NewString(),
		Dataset:   ds,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = m.WithLock(ctx, ws.ID, func(ctx context.Context) error {
		return m.store.Save(ctx, ws)
	})
	if err != nil {
		return nil, auxErrs, fmt.Errorf("failed to save workspace: %w", err)
	}

	m.logger.Info("Workspace created", "workspace_id", ws.ID, "net", ds.NetName)
	return ws, auxErrs, nil
}

// Get loads a workspace.
func (m *Manager) Get(ctx context.Context, id string) (*domain.Workspace, error) {
	var ws *domain.Workspace
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		ws, err = m.store.Load(ctx, id)
		return err
	})
	return ws, err
}

// AppendAuxiliary adds auxiliary datasets to a workspace. When the workspace
// already has a graph, it is rebuilt with the same options before the lock is
// released, so readers never see a graph older than its dataset.
func (m *Manager) AppendAuxiliary(ctx context.Context, id, netName string, sources []ports.Source) (*domain.Workspace, []error, error) {
	var (
		ws      *domain.Workspace
		auxErrs []error
	)
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		ws, err = m.store.Load(ctx, id)
		if err != nil {
			return err
		}

		ds, errs, err := m.assembler.AppendAuxiliary(ctx, ws.Dataset, netName, sources)
		auxErrs = errs
		if err != nil {
			return err
		}
		ws.Dataset = ds

		if ws.Options != nil {
			g, err := m.builder.Build(ctx, ws.Dataset, *ws.Options)
			if err != nil {
				return fmt.Errorf("failed to rebuild graph: %w", err)
			}
			ws.Graph = g
		}

		ws.UpdatedAt = m.now()
		return m.store.Save(ctx, ws)
	})
	if err != nil {
		return nil, auxErrs, err
	}
	return ws, auxErrs, nil
}

// Build builds the workspace graph and stores it with its options.
func (m *Manager) Build(ctx context.Context, id string, opts domain.BuildOptions) (*domain.Graph, error) {
	var g *domain.Graph
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		ws, err := m.store.Load(ctx, id)
		if err != nil {
			return err
		}

		g, err = m.builder.Build(ctx, ws.Dataset, opts)
		if err != nil {
			return err
		}

		ws.Graph = g
		ws.Options = &opts
		ws.UpdatedAt = m.now()
		return m.store.Save(ctx, ws)
	})
	return g, err
}

// Filter returns the neighbourhood of focus in the last built graph.
func (m *Manager) Filter(ctx context.Context, id, focus string) (*domain.Graph, error) {
	ws, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ws.Graph == nil {
		return nil, domain.ErrNoGraph
	}
	return m.filterer.Filter(ctx, ws.Graph, focus), nil
}

// Catalog returns the selection lists of a workspace dataset.
func (m *Manager) Catalog(ctx context.Context, id string) (catalog.Catalog, error) {
	ws, err := m.Get(ctx, id)
	if err != nil {
		return catalog.Catalog{}, err
	}
	return catalog.Of(ws.Dataset), nil
}

// Describe returns the detail view of a node of the last built graph.
func (m *Manager) Describe(ctx context.Context, id, nodeID string) (detail.Detail, error) {
	ws, err := m.Get(ctx, id)
	if err != nil {
		return detail.Detail{}, err
	}
	if ws.Graph == nil {
		return detail.Detail{}, domain.ErrNoGraph
	}
	d, ok := detail.Describe(ws.Graph, nodeID)
	if !ok {
		return detail.Detail{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}
	return d, nil
}

// Delete removes the workspace from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Filterer returns the filterer used by Filter, so callers narrowing a graph
// they already hold emit the same events.
func (m *Manager) Filterer() *reach.Filterer {
	return m.filterer
}

// Store returns the underlying workspace store.
func (m *Manager) Store() ports.WorkspaceStore {
	return m.store
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// WithLock executes a function while holding the lock for the workspace.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "workspace:"+id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// Release with a fresh context so a canceled request does not leak the lock.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"workspace_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// IsNotFound reports whether err means the workspace, its graph or a node is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrWorkspaceNotFound) ||
		errors.Is(err, domain.ErrNoGraph) ||
		errors.Is(err, domain.ErrNodeNotFound)
}
