package builder

import (
	"context"
	"strings"
	"time"

	"github.com/aretw0/twsgraph/pkg/domain"
)

// Builder wraps Build with lifecycle hooks.
type Builder struct {
	hooks domain.LifecycleHooks
}

// Option configures the Builder.
type Option func(*Builder)

// WithLifecycleHooks registers hooks fired after every build.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Builder) {
		b.hooks = hooks
	}
}

// New creates a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build runs BuildForDataset and emits an OnBuild event.
func (b *Builder) Build(ctx context.Context, ds *domain.Dataset, opts domain.BuildOptions) (*domain.Graph, error) {
	start := time.Now()
	g, err := BuildForDataset(ds, opts)

	ev := &domain.BuildEvent{
		EventBase: domain.EventBase{Timestamp: start, Type: domain.EventBuild, Duration: time.Since(start)},
		NetName:   opts.NetName,
		Mode:      normalizeMode(opts.Mode),
		Err:       err,
	}
	if ev.NetName == "" && ds != nil {
		ev.NetName = ds.NetName
	}
	if g != nil {
		ev.Nodes, ev.Links = len(g.Nodes), len(g.Links)
	}
	b.hooks.EmitBuild(ctx, ev)
	return g, err
}

// BuildForDataset is Build with the network name defaulting to the one the
// dataset was assembled with.
func BuildForDataset(ds *domain.Dataset, opts domain.BuildOptions) (*domain.Graph, error) {
	if opts.NetName == "" && ds != nil {
		if ds.NetName == "" {
			return nil, &domain.NetNameError{Label: ds.OperationsSource}
		}
		opts.NetName = ds.NetName
	}
	return Build(ds, opts)
}

// Build constructs the graph of ds under opts.
//
// It fails with *domain.GraphBuildError when a required record sequence is
// missing and with *domain.NetNameError when opts.NetName is empty. Every
// other irregularity in the data degrades to omission.
func Build(ds *domain.Dataset, opts domain.BuildOptions) (*domain.Graph, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.NetName) == "" {
		return nil, &domain.NetNameError{Label: ds.OperationsSource}
	}

	b := newBuild(ds, opts)
	switch normalizeMode(opts.Mode) {
	case domain.ModeExternalPredecessors:
		return b.externalPredecessorsOnly(), nil
	default:
		return b.full(), nil
	}
}

func normalizeMode(m domain.Mode) domain.Mode {
	if m == "" {
		return domain.ModeFull
	}
	return m
}

// build accumulates nodes in first-registration order and edges in record order.
type build struct {
	ds    *domain.Dataset
	opts  domain.BuildOptions
	net   string
	aux   auxIndex
	nodes map[string]*domain.Node
	order []string
	links []domain.Edge
}

func newBuild(ds *domain.Dataset, opts domain.BuildOptions) *build {
	return &build{
		ds:    ds,
		opts:  opts,
		net:   strings.TrimSpace(opts.NetName),
		aux:   newAuxIndex(ds.Additional),
		nodes: make(map[string]*domain.Node),
	}
}

func (b *build) full() *domain.Graph {
	b.addInternalNodes(nil)
	b.applyInstructions()

	for _, rec := range b.ds.InternalRelations {
		src := bare(rec, domain.ColPredecessorJob)
		dst := bare(rec, domain.ColJobName)
		if src == "" || dst == "" {
			continue
		}
		if b.has(src) && b.has(dst) {
			b.link(src, dst)
		}
	}

	b.addExternalPredecessors()

	for _, rec := range b.ds.ExternalSuccessors {
		net := bare(rec, domain.ColSuccessorNet)
		if net == b.net {
			continue // masquerading internal dependency
		}
		name := bare(rec, domain.ColSuccessorJob)
		src := bare(rec, domain.ColJobName)
		if name == "" || net == "" || src == "" || b.opts.Excluded.Has(name) {
			continue
		}
		if b.has(src) {
			b.link(src, b.external(name, net))
		}
	}
	return b.graph()
}

func (b *build) externalPredecessorsOnly() *domain.Graph {
	targets := make(domain.Set)
	for _, rec := range b.ds.ExternalPredecessors {
		name, net, target, ok := b.externalPredecessor(rec)
		if !ok || name == "" || net == "" || target == "" || b.opts.Excluded.Has(target) {
			continue
		}
		targets.Add(target)
	}
	if targets.Len() == 0 {
		return domain.EmptyGraph()
	}

	b.addInternalNodes(targets)
	b.applyInstructions()
	b.addExternalPredecessors()
	return b.graph()
}

// addInternalNodes registers admitted operations. A non-nil only restricts the
// registered jobs to its members.
func (b *build) addInternalNodes(only domain.Set) {
	for _, rec := range b.ds.Operations {
		name := bare(rec, domain.ColJobName)
		if name == "" || b.opts.Excluded.Has(name) || !b.admitsType(rec) {
			continue
		}
		if only != nil && !only.Has(name) {
			continue
		}
		node := &domain.Node{
			ID:       name,
			Name:     name,
			Type:     domain.NodeInternal,
			Metadata: rec.Clone(),
		}
		if _, seen := b.nodes[name]; !seen {
			b.order = append(b.order, name)
		}
		b.nodes[name] = node
	}
}

func (b *build) admitsType(rec domain.Record) bool {
	if b.opts.SelectedTypes.Len() == 0 {
		return true
	}
	typ := rec.Value(domain.ColType)
	if b.opts.SelectedTypes.Has(typ) {
		return true
	}
	return b.opts.IncludeUnknownTypes && strings.TrimSpace(typ) == ""
}

func (b *build) applyInstructions() {
	for _, rec := range b.ds.OperatorInstructions {
		node, ok := b.nodes[bare(rec, domain.ColJobName)]
		if !ok || node.Type != domain.NodeInternal {
			continue
		}
		node.Metadata.Set(domain.ColInstructions, rec.Value(domain.ColInstructions))
	}
}

func (b *build) addExternalPredecessors() {
	for _, rec := range b.ds.ExternalPredecessors {
		name, net, target, ok := b.externalPredecessor(rec)
		if !ok || name == "" || net == "" || target == "" {
			continue
		}
		if b.has(target) {
			b.link(b.external(name, net), target)
		}
	}
}

// externalPredecessor extracts a record's fields; ok is false for masquerading
// or excluded predecessors.
func (b *build) externalPredecessor(rec domain.Record) (name, net, target string, ok bool) {
	net = bare(rec, domain.ColPredecessorNet)
	if net == b.net {
		return "", "", "", false
	}
	name = bare(rec, domain.ColPredecessorJob)
	if b.opts.Excluded.Has(name) {
		return "", "", "", false
	}
	return name, net, bare(rec, domain.ColJobName), true
}

// external returns the id of the placeholder for name in net, creating it on
// first reference.
func (b *build) external(name, net string) string {
	id := net + "/" + name
	if _, ok := b.nodes[id]; ok {
		return id
	}

	node := &domain.Node{ID: id, Name: name, Type: domain.NodeExternal}
	if rec, found := b.aux.lookup(name, net); found {
		node.Metadata = rec.Clone()
		node.HasAdditionalDetails = true
	} else {
		node.Metadata = domain.NewRecord()
	}
	node.Metadata.Set(domain.ColExternalNet, net)

	b.nodes[id] = node
	b.order = append(b.order, id)
	return id
}

func (b *build) has(id string) bool {
	_, ok := b.nodes[id]
	return ok
}

func (b *build) link(src, dst string) {
	b.links = append(b.links, domain.Edge{Source: src, Target: dst})
}

func (b *build) graph() *domain.Graph {
	g := &domain.Graph{
		Nodes: make([]*domain.Node, 0, len(b.order)),
		Links: b.links,
	}
	for _, id := range b.order {
		g.Nodes = append(g.Nodes, b.nodes[id])
	}
	if g.Links == nil {
		g.Links = []domain.Edge{}
	}
	return g
}

func bare(rec domain.Record, col string) string {
	return strings.TrimSpace(rec.Value(col))
}
