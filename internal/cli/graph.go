package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/twsgraph"
	"github.com/aretw0/twsgraph/internal/presentation/graph"
	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/aretw0/twsgraph/pkg/reach"
)

// BuildFlags are the graph build parameters shared by graph and inspect.
type BuildFlags struct {
	Exclude        []string
	Types          []string
	IncludeUnknown bool
	Mode           string
	// Net overrides the network name derived from the operations file name.
	Net string
}

func (f BuildFlags) options() (domain.BuildOptions, error) {
	mode, err := domain.ParseMode(f.Mode)
	if err != nil {
		return domain.BuildOptions{}, err
	}
	return domain.BuildOptions{
		NetName:             strings.TrimSpace(f.Net),
		Excluded:            domain.NewSet(f.Exclude...),
		SelectedTypes:       domain.NewSet(f.Types...),
		IncludeUnknownTypes: f.IncludeUnknown,
		Mode:                mode,
	}, nil
}

// GraphOptions configure the graph command.
type GraphOptions struct {
	Globals
	LoadOptions
	BuildFlags
	Focus  string
	Format string
}

// RunGraph builds the graph of a network and writes it to w.
func RunGraph(ctx context.Context, opts GraphOptions, w io.Writer) error {
	cfg, logger, err := opts.setup()
	if err != nil {
		return err
	}
	eng, err := createEngine(cfg, logger, opts.Debug)
	if err != nil {
		return err
	}

	g, err := buildGraph(ctx, eng, opts.LoadOptions, opts.BuildFlags, logger)
	if err != nil {
		return err
	}

	focus, err := reach.SanitizeTerm(opts.Focus)
	if err != nil {
		return err
	}
	if focus != "" {
		id, ok := reach.Match(g, focus)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, focus)
		}
		focus = id
		g = eng.Filter(ctx, g, focus)
	}
	logger.Info("Graph built", "nodes", len(g.Nodes), "links", len(g.Links), "focus", focus)

	switch opts.Format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	case "mermaid":
		_, err := io.WriteString(w, graph.GenerateMermaid(g, &graph.GraphOverlay{Focus: focus}))
		return err
	}
	return fmt.Errorf("unknown format %q (want json or mermaid)", opts.Format)
}

func buildGraph(ctx context.Context, eng *twsgraph.Engine, load LoadOptions, flags BuildFlags, logger *slog.Logger) (*domain.Graph, error) {
	buildOpts, err := flags.options()
	if err != nil {
		return nil, err
	}
	ds, err := loadDataset(ctx, eng, load, logger)
	if err != nil {
		return nil, err
	}
	return eng.Build(ctx, ds, buildOpts)
}
