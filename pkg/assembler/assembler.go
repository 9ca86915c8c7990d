package assembler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/twsgraph/internal/csvio"
	"github.com/aretw0/twsgraph/internal/logging"
	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/aretw0/twsgraph/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// Assembler parses input files into datasets. It holds no per-dataset state and
// is safe for concurrent use.
type Assembler struct {
	parser    csvio.Options
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	strictAux bool
}

// Option configures the Assembler.
type Option func(*Assembler)

// WithParserOptions sets the CSV dialect used for every input.
func WithParserOptions(opts csvio.Options) Option {
	return func(a *Assembler) {
		a.parser = opts
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks fired once per parsed input.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *Assembler) {
		a.hooks = hooks
	}
}

// WithStrictAuxiliary makes auxiliary parse failures fatal.
func WithStrictAuxiliary(strict bool) Option {
	return func(a *Assembler) {
		a.strictAux = strict
	}
}

// New creates an Assembler.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		parser: csvio.Options{TrimHeaders: true},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble parses the five primary inputs and any auxiliary ones.
//
// It fails with *domain.MissingInputError before parsing when a required role
// is absent, and with the first *domain.ParseError of a primary input. Auxiliary
// failures are returned in the second result and do not fail the call unless
// the Assembler is strict.
func (a *Assembler) Assemble(ctx context.Context, files ports.InputFiles) (*domain.Dataset, []error, error) {
	if missing := files.Missing(); len(missing) > 0 {
		return nil, nil, &domain.MissingInputError{Roles: missing}
	}

	var (
		ops, internal, preds, succs, instructions []domain.Record
		g                                         errgroup.Group
	)
	// Each goroutine writes only its own slot; Wait is the join point.
	g.Go(func() (err error) {
		ops, err = a.parse(ctx, domain.RoleOperations, files.Operations)
		return err
	})
	g.Go(func() (err error) {
		internal, err = a.parse(ctx, domain.RoleInternalRelations, files.InternalRelations)
		return err
	})
	g.Go(func() (err error) {
		preds, err = a.parse(ctx, domain.RoleExternalPredecessors, files.ExternalPredecessors)
		return err
	})
	g.Go(func() (err error) {
		succs, err = a.parse(ctx, domain.RoleExternalSuccessors, files.ExternalSuccessors)
		return err
	})
	if files.OperatorInstructions != nil {
		g.Go(func() (err error) {
			instructions, err = a.parse(ctx, domain.RoleOperatorInstructions, files.OperatorInstructions)
			return err
		})
	}

	aux := make([]auxResult, len(files.Additional))
	for i, src := range files.Additional {
		g.Go(func() error {
			aux[i] = a.parseAuxiliary(ctx, "", src)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if instructions == nil {
		instructions = []domain.Record{}
	}
	ds := &domain.Dataset{
		Operations:           ops,
		InternalRelations:    internal,
		ExternalPredecessors: preds,
		ExternalSuccessors:   succs,
		OperatorInstructions: instructions,
		OperationsSource:     files.Operations.Name(),
	}

	if name, err := ExtractNetName(ds.OperationsSource); err != nil {
		a.logger.Warn("Network name not found in operations label", "source", ds.OperationsSource, "err", err)
	} else {
		ds.NetName = name
	}

	datasets, auxErrs, err := a.collect(aux)
	if err != nil {
		return nil, auxErrs, err
	}
	if len(datasets) > 0 {
		ds = ds.WithAdditional(datasets...)
	}

	a.logger.Info("Dataset assembled",
		"net", ds.NetName,
		"operations", len(ds.Operations),
		"internal_relations", len(ds.InternalRelations),
		"external_predecessors", len(ds.ExternalPredecessors),
		"external_successors", len(ds.ExternalSuccessors),
		"operator_instructions", len(ds.OperatorInstructions),
		"additional", len(ds.Additional),
	)
	return ds, auxErrs, nil
}

// AppendAuxiliary parses more auxiliary files and returns a new dataset whose
// auxiliary list is the existing one followed by the new files. ds itself is
// not modified.
//
// netName associates the new rows with a network. When empty, each file's
// label is searched for an embedded network name.
func (a *Assembler) AppendAuxiliary(ctx context.Context, ds *domain.Dataset, netName string, sources []ports.Source) (*domain.Dataset, []error, error) {
	if ds == nil {
		return nil, nil, &domain.GraphBuildError{Reason: "cannot append auxiliary data to a nil dataset"}
	}
	if len(sources) == 0 {
		return ds, nil, nil
	}

	aux := make([]auxResult, len(sources))
	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			aux[i] = a.parseAuxiliary(ctx, netName, src)
			return nil
		})
	}
	_ = g.Wait() // auxiliary goroutines report through their slot

	datasets, auxErrs, err := a.collect(aux)
	if err != nil {
		return nil, auxErrs, err
	}
	a.logger.Debug("Auxiliary data appended", "files", len(sources), "accepted", len(datasets), "total", len(ds.Additional)+len(datasets))
	return ds.WithAdditional(datasets...), auxErrs, nil
}

type auxResult struct {
	dataset domain.AuxiliaryDataset
	err     error
}

// collect keeps successful auxiliary parses in input order.
func (a *Assembler) collect(results []auxResult) ([]domain.AuxiliaryDataset, []error, error) {
	var (
		datasets []domain.AuxiliaryDataset
		errs     []error
	)
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		datasets = append(datasets, r.dataset)
	}
	if a.strictAux && len(errs) > 0 {
		return nil, errs, errs[0]
	}
	for _, err := range errs {
		a.logger.Warn("Skipping auxiliary file", "err", err)
	}
	return datasets, errs, nil
}

func (a *Assembler) parseAuxiliary(ctx context.Context, netName string, src ports.Source) auxResult {
	records, err := a.parse(ctx, domain.RoleAdditional, src)
	if err != nil {
		return auxResult{err: err}
	}
	if netName == "" {
		netName, _ = ExtractNetName(src.Name())
	}
	return auxResult{dataset: domain.AuxiliaryDataset{
		Source:  src.Name(),
		NetName: netName,
		Records: records,
	}}
}

func (a *Assembler) parse(ctx context.Context, role domain.Role, src ports.Source) (records []domain.Record, err error) {
	start := time.Now()
	defer func() {
		a.hooks.EmitParse(ctx, &domain.ParseEvent{
			EventBase: domain.EventBase{Timestamp: start, Type: domain.EventParse, Duration: time.Since(start)},
			Role:      role,
			Source:    src.Name(),
			Records:   len(records),
			Err:       err,
		})
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc, err := src.Open()
	if err != nil {
		return nil, &domain.ParseError{Source: src.Name(), Err: fmt.Errorf("open: %w", err)}
	}
	defer rc.Close()

	records, err = csvio.Parse(src.Name(), rc, a.parser)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Parsed input", "role", role, "source", src.Name(), "records", len(records), "duration", time.Since(start))
	return records, nil
}
