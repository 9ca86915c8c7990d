package twsgraph_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aretw0/twsgraph"
	"github.com/aretw0/twsgraph/internal/csvio"
	"github.com/aretw0/twsgraph/internal/testutils"
	"github.com/aretw0/twsgraph/pkg/adapters/memory"
	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/aretw0/twsgraph/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodeIDs(g *domain.Graph) []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestEngine_LoadDirAndBuild(t *testing.T) {
	dir := testutils.WriteSampleNetwork(t)
	eng := twsgraph.New()
	ctx := context.Background()

	ds, warnings, err := eng.LoadDir(ctx, dir)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, testutils.SampleNet, ds.NetName)
	assert.Len(t, ds.Additional, 1)

	g, err := eng.Build(ctx, ds, domain.BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"LOAD", "CALC", "PRINT", "ARCHIVE", "HR/EXPORT", "BANK/RATES", "LEDGER/POST"}, nodeIDs(g))
	assert.Len(t, g.Links, 6)
}

func TestEngine_LoadPaths(t *testing.T) {
	dir := testutils.WriteSampleNetwork(t)
	paths := []string{
		filepath.Join(dir, testutils.OperationsFile),
		filepath.Join(dir, testutils.InternalFile),
		filepath.Join(dir, testutils.PredecessorsFile),
		filepath.Join(dir, testutils.SuccessorsFile),
	}

	ds, _, err := twsgraph.New().LoadPaths(context.Background(), paths)
	require.NoError(t, err)
	assert.Len(t, ds.Operations, 4)
	assert.Empty(t, ds.OperatorInstructions)
	assert.Empty(t, ds.Additional)
}

func TestEngine_LoadMissingRole(t *testing.T) {
	files := testutils.SampleFiles()
	files.ExternalSuccessors = nil

	_, _, err := twsgraph.New().Load(context.Background(), files)
	assert.ErrorIs(t, err, domain.ErrMissingInput)
}

func TestEngine_Focus(t *testing.T) {
	eng := twsgraph.New()
	ctx := context.Background()
	g, err := eng.Build(ctx, testutils.SampleDataset(), domain.BuildOptions{})
	require.NoError(t, err)

	t.Run("Loose Name", func(t *testing.T) {
		sub := eng.Focus(ctx, g, "print")
		assert.ElementsMatch(t, nodeIDs(g), nodeIDs(sub), "every node is on the chain through PRINT")
	})

	t.Run("External Root", func(t *testing.T) {
		sub := eng.Focus(ctx, g, "hr/export")
		assert.Equal(t, []string{"LOAD", "CALC", "PRINT", "ARCHIVE", "HR/EXPORT", "LEDGER/POST"}, nodeIDs(sub))
	})

	t.Run("Unknown Term", func(t *testing.T) {
		assert.True(t, eng.Focus(ctx, g, "nope").Empty())
	})
}

func TestEngine_AppendAuxiliary(t *testing.T) {
	eng := twsgraph.New()
	ctx := context.Background()
	ds := testutils.SampleDataset()
	ds.Additional = nil

	extra := ports.BytesSource{Label: "ledger.csv", Data: []byte("Nome Job;Descrizione\nPOST;Post entries\n")}
	ds2, errs, err := eng.AppendAuxiliary(ctx, ds, "LEDGER", extra)
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Empty(t, ds.Additional, "input dataset is untouched")

	g, err := eng.Build(ctx, ds2, domain.BuildOptions{})
	require.NoError(t, err)
	d, ok := eng.Describe(g, "LEDGER/POST")
	require.True(t, ok)
	assert.True(t, d.HasAdditionalDetails)
}

func TestEngine_Hooks(t *testing.T) {
	var (
		mu     sync.Mutex
		parsed []domain.Role
		builds int
	)
	hooks := domain.LifecycleHooks{
		OnParse: func(_ context.Context, e *domain.ParseEvent) {
			mu.Lock()
			defer mu.Unlock()
			parsed = append(parsed, e.Role)
		},
		OnBuild: func(context.Context, *domain.BuildEvent) { builds++ },
	}
	eng := twsgraph.New(twsgraph.WithLifecycleHooks(hooks))
	ctx := context.Background()

	ds, _, err := eng.Load(ctx, testutils.SampleFiles())
	require.NoError(t, err)
	_, err = eng.Build(ctx, ds, domain.BuildOptions{})
	require.NoError(t, err)

	assert.Len(t, parsed, 6)
	assert.Equal(t, 1, builds)
}

func TestEngine_ParserOptions(t *testing.T) {
	files := testutils.SampleFiles()
	eng := twsgraph.New(twsgraph.WithParserOptions(csvio.Options{Comma: ',', TrimHeaders: true}))

	ds, _, err := eng.Load(context.Background(), files)
	require.NoError(t, err)
	_, ok := ds.Operations[0].Get(domain.ColJobName)
	assert.False(t, ok, "a forced comma splits nothing in semicolon exports")
}

func TestEngine_Workspaces(t *testing.T) {
	eng := twsgraph.New()
	mgr := eng.Workspaces(memory.NewStore())
	ctx := context.Background()

	ws, _, err := mgr.Create(ctx, testutils.SampleFiles())
	require.NoError(t, err)

	g, err := mgr.Build(ctx, ws.ID, domain.BuildOptions{Mode: domain.ModeExternalPredecessors})
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 4)
	assert.Len(t, g.Links, 2)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, twsgraph.Version)
}
