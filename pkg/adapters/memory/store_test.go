package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/twsgraph/pkg/adapters/memory"
	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/aretw0/twsgraph/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunWorkspaceStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	ws := &domain.Workspace{ID: "iso", Options: &domain.BuildOptions{NetName: "A"}}
	require.NoError(t, store.Save(ctx, ws))

	ws.Options.NetName = "mutated after save"
	loaded, err := store.Load(ctx, "iso")
	require.NoError(t, err)
	assert.Equal(t, "A", loaded.Options.NetName)

	loaded.Options.NetName = "mutated after load"
	again, err := store.Load(ctx, "iso")
	require.NoError(t, err)
	assert.Equal(t, "A", again.Options.NetName)
}
