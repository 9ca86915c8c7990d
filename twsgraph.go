package twsgraph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/twsgraph/internal/classify"
	"github.com/aretw0/twsgraph/internal/csvio"
	"github.com/aretw0/twsgraph/internal/logging"
	"github.com/aretw0/twsgraph/pkg/assembler"
	"github.com/aretw0/twsgraph/pkg/builder"
	"github.com/aretw0/twsgraph/pkg/catalog"
	"github.com/aretw0/twsgraph/pkg/detail"
	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/aretw0/twsgraph/pkg/ports"
	"github.com/aretw0/twsgraph/pkg/reach"
	"github.com/aretw0/twsgraph/pkg/workspace"
)

// Engine is the high-level entry point for the twsgraph library.
// It wires the assembler, builder and filter with one set of hooks and one
// logger, and provides a simplified API for consumers.
type Engine struct {
	assembler  *assembler.Assembler
	builder    *builder.Builder
	filterer   *reach.Filterer
	classifier *classify.Classifier

	parser    csvio.Options
	strictAux bool
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithParserOptions overrides the CSV dialect used for every input.
func WithParserOptions(opts csvio.Options) Option {
	return func(e *Engine) {
		e.parser = opts
	}
}

// WithStrictAuxiliary makes an unreadable auxiliary file fail the load.
func WithStrictAuxiliary(strict bool) Option {
	return func(e *Engine) {
		e.strictAux = strict
	}
}

// WithClassifier sets how file names map to input roles.
func WithClassifier(c *classify.Classifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

// New initializes a new Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		parser: csvio.Options{TrimHeaders: true},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.classifier == nil {
		e.classifier = classify.Default()
	}

	e.assembler = assembler.New(
		assembler.WithParserOptions(e.parser),
		assembler.WithLogger(e.logger),
		assembler.WithLifecycleHooks(e.hooks),
		assembler.WithStrictAuxiliary(e.strictAux),
	)
	e.builder = builder.New(builder.WithLifecycleHooks(e.hooks))
	e.filterer = reach.NewFilterer(reach.WithLifecycleHooks(e.hooks))
	return e
}

// Load assembles a dataset from explicitly assigned inputs. Auxiliary files
// that could not be parsed are reported in the second result.
func (e *Engine) Load(ctx context.Context, files ports.InputFiles) (*domain.Dataset, []error, error) {
	return e.assembler.Assemble(ctx, files)
}

// LoadPaths classifies paths by file name and assembles them.
func (e *Engine) LoadPaths(ctx context.Context, paths []string) (*domain.Dataset, []error, error) {
	files, err := e.classifier.Collect(paths)
	if err != nil {
		return nil, nil, err
	}
	return e.Load(ctx, files)
}

// LoadDir classifies the CSV files of dir and assembles them.
func (e *Engine) LoadDir(ctx context.Context, dir string) (*domain.Dataset, []error, error) {
	files, err := e.classifier.ScanDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	return e.Load(ctx, files)
}

// AppendAuxiliary returns a copy of ds with more auxiliary datasets.
func (e *Engine) AppendAuxiliary(ctx context.Context, ds *domain.Dataset, netName string, sources ...ports.Source) (*domain.Dataset, []error, error) {
	return e.assembler.AppendAuxiliary(ctx, ds, netName, sources)
}

// Build constructs the graph of ds. An empty opts.NetName defaults to the
// network the dataset was assembled for.
func (e *Engine) Build(ctx context.Context, ds *domain.Dataset, opts domain.BuildOptions) (*domain.Graph, error) {
	return e.builder.Build(ctx, ds, opts)
}

// Filter returns the jobs connected to the node with id focus.
func (e *Engine) Filter(ctx context.Context, g *domain.Graph, focus string) *domain.Graph {
	return e.filterer.Filter(ctx, g, focus)
}

// Focus is Filter with term resolved by reach.Match first, so a job can be
// named loosely. An unresolved term yields an empty graph.
func (e *Engine) Focus(ctx context.Context, g *domain.Graph, term string) *domain.Graph {
	if id, ok := reach.Match(g, term); ok {
		term = id
	}
	return e.Filter(ctx, g, term)
}

// Catalog returns the selection lists of ds.
func (e *Engine) Catalog(ds *domain.Dataset) catalog.Catalog {
	return catalog.Of(ds)
}

// Describe returns the detail view of a node of g.
func (e *Engine) Describe(g *domain.Graph, id string) (detail.Detail, bool) {
	return detail.Describe(g, id)
}

// Classifier returns the file role classifier used by LoadPaths and LoadDir.
func (e *Engine) Classifier() *classify.Classifier {
	return e.classifier
}

// Workspaces returns a workspace manager over store that shares the engine's
// pipeline. Extra options are applied after the engine's own.
func (e *Engine) Workspaces(store ports.WorkspaceStore, opts ...workspace.Option) *workspace.Manager {
	base := []workspace.Option{
		workspace.WithLogger(e.logger),
		workspace.WithAssembler(e.assembler),
		workspace.WithBuilder(e.builder),
		workspace.WithFilterer(e.filterer),
	}
	return workspace.NewManager(store, append(base, opts...)...)
}
