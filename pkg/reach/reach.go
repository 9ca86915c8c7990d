// Package reach isolates the dependency neighbourhood of a focus node.
//
// The neighbourhood is the union of two independent breadth-first closures
// seeded at the focus: one following edges forward, one backward. The result
// holds exactly the reachable nodes and the edges whose endpoints are both
// reachable.
package reach

import (
	"context"
	"strings"
	"time"

	"github.com/aretw0/twsgraph/pkg/domain"
)

// Index is the successor/predecessor adjacency of one graph. It is read-only
// once built and safe for concurrent use. An Index must be rebuilt whenever
// its graph is rebuilt.
type Index struct {
	graph *domain.Graph
	succ  map[string][]string
	pred  map[string][]string
	nodes map[string]struct{}
}

// NewIndex builds the adjacency of g.
func NewIndex(g *domain.Graph) *Index {
	if g == nil {
		g = domain.EmptyGraph()
	}
	idx := &Index{
		graph: g,
		succ:  make(map[string][]string),
		pred:  make(map[string][]string),
		nodes: make(map[string]struct{}, len(g.Nodes)),
	}
	for _, n := range g.Nodes {
		idx.nodes[n.ID] = struct{}{}
	}
	for _, l := range g.Links {
		idx.succ[l.Source] = append(idx.succ[l.Source], l.Target)
		idx.pred[l.Target] = append(idx.pred[l.Target], l.Source)
	}
	return idx
}

// Successors returns the direct successors of id, one entry per edge.
func (idx *Index) Successors(id string) []string { return idx.succ[id] }

// Predecessors returns the direct predecessors of id, one entry per edge.
func (idx *Index) Predecessors(id string) []string { return idx.pred[id] }

// Reachable returns the ids reachable from focus in either direction, focus
// included. It returns nil when focus is not a node of the graph.
func (idx *Index) Reachable(focus string) map[string]struct{} {
	if _, ok := idx.nodes[focus]; !ok {
		return nil
	}
	forward := closure(focus, idx.succ)
	for id := range closure(focus, idx.pred) {
		forward[id] = struct{}{}
	}
	return forward
}

// Filter returns the neighbourhood of focus.
//
// An empty focus returns the indexed graph itself. An unknown focus returns an
// empty graph. Node and edge order follow the source graph.
func (idx *Index) Filter(focus string) *domain.Graph {
	if focus == "" {
		return idx.graph
	}
	reachable := idx.Reachable(focus)
	if reachable == nil {
		return domain.EmptyGraph()
	}

	out := &domain.Graph{
		Nodes: make([]*domain.Node, 0, len(reachable)),
		Links: []domain.Edge{},
	}
	for _, n := range idx.graph.Nodes {
		if _, ok := reachable[n.ID]; ok {
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, l := range idx.graph.Links {
		_, src := reachable[l.Source]
		_, dst := reachable[l.Target]
		if src && dst {
			out.Links = append(out.Links, l)
		}
	}
	return out
}

// closure is a breadth-first search from start over adj with its own visited set.
func closure(start string, adj map[string][]string) map[string]struct{} {
	visited := map[string]struct{}{start: {}}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adj[current] {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return visited
}

// Filter returns the neighbourhood of focus in g, rebuilding the adjacency on
// every call.
func Filter(g *domain.Graph, focus string) *domain.Graph {
	return NewIndex(g).Filter(focus)
}

// Match resolves a free search term to a node id: an exact id first, then a
// case-insensitive node name. Ambiguous names resolve to the first node in
// graph order.
func Match(g *domain.Graph, term string) (string, bool) {
	term = strings.TrimSpace(term)
	if term == "" || g == nil {
		return "", false
	}
	if n, ok := g.Node(term); ok {
		return n.ID, true
	}
	for _, n := range g.Nodes {
		if strings.EqualFold(n.Name, term) || strings.EqualFold(n.ID, term) {
			return n.ID, true
		}
	}
	return "", false
}

// Filterer wraps Filter with lifecycle hooks.
type Filterer struct {
	hooks domain.LifecycleHooks
}

// Option configures the Filterer.
type Option func(*Filterer)

// WithLifecycleHooks registers hooks fired after every filter.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(f *Filterer) {
		f.hooks = hooks
	}
}

// NewFilterer creates a Filterer.
func NewFilterer(opts ...Option) *Filterer {
	f := &Filterer{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Filter runs Filter and emits an OnFilter event.
func (f *Filterer) Filter(ctx context.Context, g *domain.Graph, focus string) *domain.Graph {
	start := time.Now()
	out := Filter(g, focus)

	_, found := g.Node(focus)
	f.hooks.EmitFilter(ctx, &domain.FilterEvent{
		EventBase: domain.EventBase{Timestamp: start, Type: domain.EventFilter, Duration: time.Since(start)},
		Focus:     focus,
		Found:     focus == "" || found,
		Nodes:     len(out.Nodes),
		Links:     len(out.Links),
	})
	return out
}
