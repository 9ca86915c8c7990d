package domain

// NodeType distinguishes jobs of the current network from synthesized ones.
type NodeType string

const (
	// NodeInternal is a job native to the current network. Its id is the bare job name.
	NodeInternal NodeType = "internal"
	// NodeExternal is a placeholder for a job of another network.
	// Its id is "{network}/{job}".
	NodeExternal NodeType = "external"
)

// Node represents a job in the graph.
type Node struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Type NodeType `json:"type"`

	// Metadata holds every column of the originating record plus enrichments.
	Metadata Record `json:"metadata"`

	// HasAdditionalDetails is true for external nodes whose metadata came from
	// an auxiliary dataset instead of a stub.
	HasAdditionalDetails bool `json:"hasAdditionalDetails"`
}

// Edge is a dependency: Source must complete before Target runs.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is the output of a build. It is never mutated after construction;
// filters return new graphs sharing the same *Node values.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Links []Edge  `json:"links"`
}

// EmptyGraph returns a graph with no nodes and no links.
// Slices are non-nil so the JSON form is {"nodes":[],"links":[]}.
func EmptyGraph() *Graph {
	return &Graph{Nodes: []*Node{}, Links: []Edge{}}
}

// Empty reports whether the graph has neither nodes nor links.
func (g *Graph) Empty() bool {
	return g == nil || (len(g.Nodes) == 0 && len(g.Links) == 0)
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (*Node, bool) {
	if g == nil {
		return nil, false
	}
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}
