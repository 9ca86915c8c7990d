package builder_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/twsgraph/internal/testutils"
	"github.com/aretw0/twsgraph/pkg/builder"
	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(g *domain.Graph) []string {
	out := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		out[i] = n.ID
	}
	return out
}

func edges(g *domain.Graph) []string {
	out := make([]string, len(g.Links))
	for i, l := range g.Links {
		out[i] = l.Source + "->" + l.Target
	}
	return out
}

func build(t *testing.T, ds *domain.Dataset, opts domain.BuildOptions) *domain.Graph {
	t.Helper()
	if opts.NetName == "" {
		opts.NetName = testutils.SampleNet
	}
	g, err := builder.Build(ds, opts)
	require.NoError(t, err)
	return g
}

func TestBuild_FullMode(t *testing.T) {
	g := build(t, testutils.SampleDataset(), domain.BuildOptions{})

	assert.Equal(t, []string{"LOAD", "CALC", "PRINT", "ARCHIVE", "HR/EXPORT", "BANK/RATES", "LEDGER/POST"}, ids(g))
	assert.Equal(t, []string{
		"LOAD->CALC",
		"CALC->PRINT",
		"PRINT->ARCHIVE",
		"HR/EXPORT->LOAD",
		"BANK/RATES->CALC",
		"ARCHIVE->LEDGER/POST",
	}, edges(g))

	load, ok := g.Node("LOAD")
	require.True(t, ok)
	assert.Equal(t, domain.NodeInternal, load.Type)
	assert.Equal(t, "LOAD", load.Name)
	assert.Equal(t, []string{domain.ColJobName, domain.ColType, domain.ColDescription}, load.Metadata.Keys())
	assert.False(t, load.HasAdditionalDetails)
}

func TestBuild_MasqueradingExternalIgnored(t *testing.T) {
	g := build(t, testutils.SampleDataset(), domain.BuildOptions{})

	_, ok := g.Node("PAYROLL/LOAD")
	assert.False(t, ok, "a predecessor from the current network must not become an external node")
	for _, l := range g.Links {
		assert.NotEqual(t, "PAYROLL/LOAD", l.Source)
	}
}

func TestBuild_OperatorInstructions(t *testing.T) {
	ds := testutils.SampleDataset()
	g := build(t, ds, domain.BuildOptions{})

	calc, _ := g.Node("CALC")
	assert.Equal(t, "Rerun from step 2", calc.Metadata.Value(domain.ColInstructions))

	_, ok := g.Node("GHOST")
	assert.False(t, ok, "instructions never create nodes")

	_, present := ds.Operations[1].Get(domain.ColInstructions)
	assert.False(t, present, "the dataset records are not mutated")
}

func TestBuild_Exclusion(t *testing.T) {
	t.Run("Internal Job", func(t *testing.T) {
		g := build(t, testutils.SampleDataset(), domain.BuildOptions{Excluded: domain.NewSet("CALC")})

		assert.Equal(t, []string{"LOAD", "PRINT", "ARCHIVE", "HR/EXPORT", "LEDGER/POST"}, ids(g))
		assert.Equal(t, []string{"PRINT->ARCHIVE", "HR/EXPORT->LOAD", "ARCHIVE->LEDGER/POST"}, edges(g))
	})

	t.Run("External Job", func(t *testing.T) {
		g := build(t, testutils.SampleDataset(), domain.BuildOptions{Excluded: domain.NewSet("EXPORT", "POST")})

		assert.Equal(t, []string{"LOAD", "CALC", "PRINT", "ARCHIVE", "BANK/RATES"}, ids(g))
		assert.NotContains(t, edges(g), "HR/EXPORT->LOAD")
	})
}

func TestBuild_TypeFilter(t *testing.T) {
	tests := []struct {
		name    string
		types   domain.Set
		unknown bool
		want    []string
	}{
		{"No Filter", nil, false, []string{"LOAD", "CALC", "PRINT", "ARCHIVE"}},
		{"Single Type", domain.NewSet("JOB"), false, []string{"LOAD", "PRINT"}},
		{"Include Unknown", domain.NewSet("JOB"), true, []string{"LOAD", "PRINT", "ARCHIVE"}},
		{"Unknown Flag Without Selection", nil, true, []string{"LOAD", "CALC", "PRINT", "ARCHIVE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, testutils.SampleDataset(), domain.BuildOptions{SelectedTypes: tt.types, IncludeUnknownTypes: tt.unknown})

			var internal []string
			for _, n := range g.Nodes {
				if n.Type == domain.NodeInternal {
					internal = append(internal, n.ID)
				}
			}
			assert.Equal(t, tt.want, internal)
		})
	}
}

func TestBuild_ExternalPredecessorsOnly(t *testing.T) {
	opts := domain.BuildOptions{Mode: domain.ModeExternalPredecessors}

	t.Run("Sample", func(t *testing.T) {
		g := build(t, testutils.SampleDataset(), opts)
		assert.Equal(t, []string{"LOAD", "CALC", "HR/EXPORT", "BANK/RATES"}, ids(g))
		assert.Equal(t, []string{"HR/EXPORT->LOAD", "BANK/RATES->CALC"}, edges(g))

		calc, _ := g.Node("CALC")
		assert.Equal(t, "Rerun from step 2", calc.Metadata.Value(domain.ColInstructions))
	})

	t.Run("Instructions Follow Qualifying Targets", func(t *testing.T) {
		ds := testutils.SampleDataset()
		ds.OperatorInstructions = append(ds.OperatorInstructions,
			domain.RecordOf(domain.ColJobName, "LOAD", domain.ColInstructions, "Check the input share"),
			domain.RecordOf(domain.ColJobName, "PRINT", domain.ColInstructions, "Printer B only"),
		)
		g := build(t, ds, opts)

		load, ok := g.Node("LOAD")
		require.True(t, ok)
		assert.Equal(t, "Check the input share", load.Metadata.Value(domain.ColInstructions))

		_, ok = g.Node("PRINT")
		assert.False(t, ok, "instructions never add a node")

		rates, ok := g.Node("BANK/RATES")
		require.True(t, ok)
		_, present := rates.Metadata.Get(domain.ColInstructions)
		assert.False(t, present, "external nodes carry no instructions")
	})

	t.Run("Excluded Target Does Not Qualify", func(t *testing.T) {
		o := opts
		o.Excluded = domain.NewSet("LOAD")
		g := build(t, testutils.SampleDataset(), o)
		assert.Equal(t, []string{"CALC", "BANK/RATES"}, ids(g))
	})

	t.Run("Nothing Qualifies", func(t *testing.T) {
		o := opts
		o.Excluded = domain.NewSet("EXPORT", "RATES")
		g := build(t, testutils.SampleDataset(), o)
		assert.True(t, g.Empty())

		data, err := json.Marshal(g)
		require.NoError(t, err)
		assert.JSONEq(t, `{"nodes":[],"links":[]}`, string(data))
	})
}

func TestBuild_AuxiliaryEnrichment(t *testing.T) {
	g := build(t, testutils.SampleDataset(), domain.BuildOptions{})

	export, _ := g.Node("HR/EXPORT")
	assert.Equal(t, domain.NodeExternal, export.Type)
	assert.Equal(t, "EXPORT", export.Name)
	assert.True(t, export.HasAdditionalDetails)
	assert.Equal(t, "Export employees", export.Metadata.Value(domain.ColDescription))
	assert.Equal(t, "HR", export.Metadata.Value(domain.ColExternalNet))

	rates, _ := g.Node("BANK/RATES")
	assert.True(t, rates.HasAdditionalDetails, "a record without Net matches any network")
	assert.Equal(t, "BANK", rates.Metadata.Value(domain.ColExternalNet))

	post, _ := g.Node("LEDGER/POST")
	assert.False(t, post.HasAdditionalDetails)
	assert.Equal(t, []string{domain.ColExternalNet}, post.Metadata.Keys())
	assert.Equal(t, "LEDGER", post.Metadata.Value(domain.ColExternalNet))
}

func TestBuild_AuxiliaryFirstMatchWins(t *testing.T) {
	ds := testutils.SampleDataset()
	ds.Additional = []domain.AuxiliaryDataset{
		{Source: "a.csv", Records: []domain.Record{
			domain.RecordOf(domain.ColJobName, "EXPORT", domain.ColNet, "OTHER", domain.ColDescription, "wrong network"),
		}},
		{Source: "b.csv", Records: []domain.Record{
			domain.RecordOf(domain.ColJobName, "EXPORT", domain.ColDescription, "first"),
			domain.RecordOf(domain.ColJobName, "EXPORT", domain.ColNet, "HR", domain.ColDescription, "second"),
		}},
		{Source: "c.csv", NetName: "LEDGER", Records: []domain.Record{
			domain.RecordOf(domain.ColJobName, "RATES", domain.ColDescription, "tagged for another network"),
			domain.RecordOf(domain.ColJobName, "POST", domain.ColDescription, "ledger post"),
		}},
	}

	g := build(t, ds, domain.BuildOptions{})

	export, _ := g.Node("HR/EXPORT")
	assert.Equal(t, "first", export.Metadata.Value(domain.ColDescription))

	rates, _ := g.Node("BANK/RATES")
	assert.False(t, rates.HasAdditionalDetails, "rows inherit the network of their dataset")

	post, _ := g.Node("LEDGER/POST")
	assert.True(t, post.HasAdditionalDetails)
	assert.Equal(t, "ledger post", post.Metadata.Value(domain.ColDescription))
}

func TestBuild_ExternalNetOverridesAuxiliaryColumn(t *testing.T) {
	ds := testutils.SampleDataset()
	ds.Additional = []domain.AuxiliaryDataset{{Records: []domain.Record{
		domain.RecordOf(domain.ColJobName, "POST", domain.ColExternalNet, "stale", domain.ColDescription, "d"),
	}}}

	g := build(t, ds, domain.BuildOptions{})
	post, _ := g.Node("LEDGER/POST")
	assert.Equal(t, "LEDGER", post.Metadata.Value(domain.ColExternalNet))
	assert.Equal(t, []string{domain.ColJobName, domain.ColExternalNet, domain.ColDescription}, post.Metadata.Keys())
}

func TestBuild_DataIrregularities(t *testing.T) {
	ds := &domain.Dataset{
		Operations: []domain.Record{
			domain.RecordOf(domain.ColJobName, "  A  ", domain.ColType, "JOB"),
			domain.RecordOf(domain.ColJobName, "   "),
			domain.RecordOf(domain.ColType, "JOB"),
			domain.RecordOf(domain.ColJobName, "B", domain.ColDescription, "first"),
			domain.RecordOf(domain.ColJobName, "B", domain.ColDescription, "second"),
		},
		InternalRelations: []domain.Record{
			domain.RecordOf(domain.ColPredecessorJob, "A", domain.ColJobName, "B"),
			domain.RecordOf(domain.ColPredecessorJob, "A", domain.ColJobName, "B"),
			domain.RecordOf(domain.ColPredecessorJob, "A", domain.ColJobName, "MISSING"),
			domain.RecordOf(domain.ColJobName, "B"),
		},
		ExternalPredecessors: []domain.Record{
			domain.RecordOf(domain.ColPredecessorJob, "X", domain.ColJobName, "A"),
			domain.RecordOf(domain.ColPredecessorNet, "N", domain.ColJobName, "A"),
		},
		ExternalSuccessors: []domain.Record{},
	}

	g := build(t, ds, domain.BuildOptions{NetName: "CUR"})
	assert.Equal(t, []string{"A", "B"}, ids(g))
	assert.Equal(t, []string{"A->B", "A->B"}, edges(g), "duplicate relations are kept")

	b, _ := g.Node("B")
	assert.Equal(t, "second", b.Metadata.Value(domain.ColDescription), "the last duplicate record wins")
}

func TestBuild_Errors(t *testing.T) {
	t.Run("Nil Dataset", func(t *testing.T) {
		_, err := builder.Build(nil, domain.BuildOptions{NetName: "X"})
		assert.ErrorIs(t, err, domain.ErrGraphBuild)
	})

	t.Run("Missing Sequence", func(t *testing.T) {
		ds := testutils.SampleDataset()
		ds.ExternalSuccessors = nil
		_, err := builder.Build(ds, domain.BuildOptions{NetName: "X"})
		assert.ErrorIs(t, err, domain.ErrGraphBuild)
	})

	t.Run("Missing Net Name", func(t *testing.T) {
		_, err := builder.Build(testutils.SampleDataset(), domain.BuildOptions{})
		assert.ErrorIs(t, err, domain.ErrNetNameExtraction)
	})

	t.Run("Net Name From Dataset", func(t *testing.T) {
		g, err := builder.BuildForDataset(testutils.SampleDataset(), domain.BuildOptions{})
		require.NoError(t, err)
		assert.Len(t, g.Nodes, 7)
	})

	t.Run("Dataset Without Net Name", func(t *testing.T) {
		ds := testutils.SampleDataset()
		ds.NetName = ""
		_, err := builder.BuildForDataset(ds, domain.BuildOptions{})
		var nerr *domain.NetNameError
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, testutils.OperationsFile, nerr.Label)
	})
}

func TestBuilder_Hooks(t *testing.T) {
	var got *domain.BuildEvent
	b := builder.New(builder.WithLifecycleHooks(domain.LifecycleHooks{
		OnBuild: func(_ context.Context, e *domain.BuildEvent) { got = e },
	}))

	_, err := b.Build(context.Background(), testutils.SampleDataset(), domain.BuildOptions{})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, testutils.SampleNet, got.NetName)
	assert.Equal(t, domain.ModeFull, got.Mode)
	assert.Equal(t, 7, got.Nodes)
	assert.Equal(t, 6, got.Links)
	assert.NoError(t, got.Err)
}

func TestBuild_ExternalNodeIdentity(t *testing.T) {
	ds := testutils.SampleDataset()
	ds.ExternalPredecessors = append(ds.ExternalPredecessors,
		domain.RecordOf(domain.ColPredecessorNet, "HR", domain.ColPredecessorJob, "EXPORT", domain.ColJobName, "PRINT"),
		domain.RecordOf(domain.ColPredecessorNet, "HR", domain.ColPredecessorJob, "EXPORT", domain.ColJobName, "ARCHIVE"),
	)

	g := build(t, ds, domain.BuildOptions{})

	count := 0
	for _, n := range g.Nodes {
		if n.ID == "HR/EXPORT" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Contains(t, edges(g), "HR/EXPORT->PRINT")
	assert.Contains(t, edges(g), "HR/EXPORT->ARCHIVE")
}

func TestBuild_ExclusionPropagatesThroughChain(t *testing.T) {
	ds := &domain.Dataset{
		Operations: []domain.Record{
			domain.RecordOf(domain.ColJobName, "JOB1"),
			domain.RecordOf(domain.ColJobName, "JOB2"),
			domain.RecordOf(domain.ColJobName, "JOB3"),
		},
		InternalRelations: []domain.Record{
			domain.RecordOf(domain.ColPredecessorJob, "JOB1", domain.ColJobName, "JOB2"),
			domain.RecordOf(domain.ColPredecessorJob, "JOB2", domain.ColJobName, "JOB3"),
		},
		ExternalPredecessors: []domain.Record{},
		ExternalSuccessors: []domain.Record{
			domain.RecordOf(domain.ColSuccessorNet, "EXT", domain.ColJobName, "JOB3", domain.ColSuccessorJob, "OUT"),
		},
	}

	g := build(t, ds, domain.BuildOptions{NetName: "CUR", Excluded: domain.NewSet("JOB2")})
	assert.Equal(t, []string{"JOB1", "JOB3", "EXT/OUT"}, ids(g))
	assert.Equal(t, []string{"JOB3->EXT/OUT"}, edges(g))
}
