// Package detail projects a graph node into the view shown when a job is
// inspected: its metadata and its directly linked external dependencies.
package detail

import (
	"fmt"
	"strings"

	"github.com/aretw0/twsgraph/pkg/domain"
)

// NotAvailable is shown in place of empty or unknown values.
const NotAvailable = "N/D"

// transientKeys are layout attributes a renderer may have attached to node
// metadata. They are never shown.
var transientKeys = domain.NewSet("x", "y", "vx", "vy", "fx", "fy", "index")

// Direction tells on which side of the inspected node a dependency sits.
type Direction string

const (
	Upstream   Direction = "predecessor"
	Downstream Direction = "successor"
)

// Field is one metadata column.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Dependency is an external node linked to the inspected one.
type Dependency struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Net         string    `json:"net"`
	Description string    `json:"description"`
	Direction   Direction `json:"direction"`
}

// Detail is the inspection view of one node.
type Detail struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Type                 domain.NodeType `json:"type"`
	HasAdditionalDetails bool            `json:"hasAdditionalDetails"`
	Fields               []Field         `json:"fields"`
	Dependencies         []Dependency    `json:"dependencies"`
}

// Describe builds the detail view of node id in g.
func Describe(g *domain.Graph, id string) (Detail, bool) {
	node, ok := g.Node(id)
	if !ok {
		return Detail{}, false
	}

	d := Detail{
		ID:                   node.ID,
		Name:                 node.Name,
		Type:                 node.Type,
		HasAdditionalDetails: node.HasAdditionalDetails,
		Fields:               []Field{},
		Dependencies:         []Dependency{},
	}
	node.Metadata.Each(func(col, val string) {
		if !transientKeys.Has(col) {
			d.Fields = append(d.Fields, Field{Key: col, Value: val})
		}
	})

	// Dependencies follow graph node order, like the graph itself.
	for _, n := range g.Nodes {
		if n.Type != domain.NodeExternal || n.ID == node.ID {
			continue
		}
		dir, linked := direction(g, node.ID, n.ID)
		if !linked {
			continue
		}
		desc := NotAvailable
		if v := n.Metadata.Value(domain.ColDescription); n.HasAdditionalDetails && v != "" {
			desc = v
		}
		d.Dependencies = append(d.Dependencies, Dependency{
			ID:          n.ID,
			Name:        n.Name,
			Net:         n.Metadata.Value(domain.ColExternalNet),
			Description: desc,
			Direction:   dir,
		})
	}
	return d, true
}

func direction(g *domain.Graph, self, other string) (Direction, bool) {
	for _, l := range g.Links {
		switch {
		case l.Source == other && l.Target == self:
			return Upstream, true
		case l.Source == self && l.Target == other:
			return Downstream, true
		}
	}
	return "", false
}

// Markdown renders d as a markdown document.
func Markdown(d Detail) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", escape(d.Name))
	fmt.Fprintf(&sb, "_%s node_ `%s`\n\n", d.Type, d.ID)

	if len(d.Fields) > 0 {
		sb.WriteString("| Field | Value |\n|---|---|\n")
		for _, f := range d.Fields {
			fmt.Fprintf(&sb, "| %s | %s |\n", escape(f.Key), escape(orNotAvailable(f.Value)))
		}
		sb.WriteString("\n")
	}

	if len(d.Dependencies) > 0 {
		sb.WriteString("## External dependencies\n\n")
		sb.WriteString("| Job | Network | Direction | Description |\n|---|---|---|---|\n")
		for _, dep := range d.Dependencies {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
				escape(dep.Name), escape(orNotAvailable(dep.Net)), dep.Direction, escape(dep.Description))
		}
	}
	return sb.String()
}

func orNotAvailable(v string) string {
	if strings.TrimSpace(v) == "" {
		return NotAvailable
	}
	return v
}

var escaper = strings.NewReplacer("|", `\|`, "\n", " ", "\r", "")

func escape(s string) string {
	return escaper.Replace(s)
}
