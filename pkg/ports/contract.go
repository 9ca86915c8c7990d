package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunWorkspaceStoreContract runs a suite of tests to verify that a WorkspaceStore
// implementation adheres to the defined interface contract.
func RunWorkspaceStoreContract(t *testing.T, store WorkspaceStore) {
	ctx := context.Background()
	id := "contract-test-ws-" + time.Now().Format("20060102150405")

	newWorkspace := func(id string) *domain.Workspace {
		return &domain.Workspace{
			ID: id,
			Dataset: &domain.Dataset{
				Operations:           []domain.Record{domain.RecordOf(domain.ColJobName, "JOB1", domain.ColType, "JOB")},
				InternalRelations:    []domain.Record{},
				ExternalPredecessors: []domain.Record{},
				ExternalSuccessors:   []domain.Record{},
				OperatorInstructions: []domain.Record{},
				OperationsSource:     "NET - CONTRACT - Operazioni.csv",
				NetName:              "CONTRACT",
			},
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		ws := newWorkspace(id)
		ws.Graph = &domain.Graph{
			Nodes: []*domain.Node{{ID: "JOB1", Name: "JOB1", Type: domain.NodeInternal, Metadata: domain.RecordOf(domain.ColJobName, "JOB1")}},
			Links: []domain.Edge{},
		}
		ws.Options = &domain.BuildOptions{NetName: "CONTRACT", Excluded: domain.NewSet("JOB9"), Mode: domain.ModeFull}

		require.NoError(t, store.Save(ctx, ws), "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, id, loaded.ID)
		assert.Equal(t, "CONTRACT", loaded.Dataset.NetName)
		require.Len(t, loaded.Dataset.Operations, 1)
		assert.Equal(t, "JOB1", loaded.Dataset.Operations[0].Value(domain.ColJobName))
		require.NotNil(t, loaded.Graph)
		require.Len(t, loaded.Graph.Nodes, 1)
		assert.Equal(t, "JOB1", loaded.Graph.Nodes[0].ID)
		require.NotNil(t, loaded.Options)
		assert.True(t, loaded.Options.Excluded.Has("JOB9"))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound)
	})

	t.Run("Save Replaces", func(t *testing.T) {
		ws := newWorkspace(id)
		require.NoError(t, store.Save(ctx, ws))

		ws.Dataset = ws.Dataset.WithAdditional(domain.AuxiliaryDataset{Source: "extra.csv"})
		require.NoError(t, store.Save(ctx, ws))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		require.Len(t, loaded.Dataset.Additional, 1)
		assert.Equal(t, "extra.csv", loaded.Dataset.Additional[0].Source)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newWorkspace(id)))

		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrWorkspaceNotFound, "Load after Delete should return ErrWorkspaceNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		_ = store.Save(ctx, newWorkspace(id1))
		_ = store.Save(ctx, newWorkspace(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
