package workspace

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/twsgraph/pkg/domain"
)

// MockStore structure
type MockStore struct{}

func (m *MockStore) Save(ctx context.Context, ws *domain.Workspace) error { return nil }
func (m *MockStore) Load(ctx context.Context, id string) (*domain.Workspace, error) {
	return nil, domain.ErrWorkspaceNotFound
}
func (m *MockStore) Delete(ctx context.Context, id string) error { return nil }
func (m *MockStore) List(ctx context.Context) ([]string, error)  { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(&MockStore{})
	ctx := context.Background()
	count := 10000

	// 1. Touch and delete many workspaces
	for i := 0; i < count; i++ {
		id := fmt.Sprintf("ws-%d", i)
		_, _ = mgr.Get(ctx, id)
		_ = mgr.Delete(ctx, id)
	}

	// 2. No lock may outlive its callers
	lockCount := len(mgr.locks)
	t.Logf("Workspaces touched: %d, Locks leaked: %d", count, lockCount)

	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
