package graph

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/twsgraph/pkg/domain"
)

// GraphOverlay contains view state to highlight on the graph.
type GraphOverlay struct {
	// Focus is the node the graph was filtered on.
	Focus string
}

// GenerateMermaid produces a Mermaid flowchart of a job graph.
// It applies semantic styling:
// - Internal job: [Rectangle]
// - External job: ([Stadium]) labelled with its network
// - External job with auxiliary details: same shape, "detailed" class
// Links touching an external job are dotted.
func GenerateMermaid(g *domain.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	if g == nil {
		return sb.String()
	}

	ids := newIDMap()
	external := make(map[string]bool)
	var detailed []string

	for _, node := range g.Nodes {
		safeID := ids.get(node.ID)
		label := escapeLabel(node.Name)

		switch node.Type {
		case domain.NodeExternal:
			external[node.ID] = true
			net := escapeLabel(node.Metadata.Value(domain.ColExternalNet))
			sb.WriteString(fmt.Sprintf("    %s([\"%s<br/><small>%s</small>\"])\n", safeID, label, net))
			if node.HasAdditionalDetails {
				detailed = append(detailed, safeID)
			}
		default:
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", safeID, label))
		}
	}

	for _, l := range g.Links {
		arrow := "-->"
		if external[l.Source] || external[l.Target] {
			arrow = "-.->"
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", ids.get(l.Source), arrow, ids.get(l.Target)))
	}

	sb.WriteString("\n    %% Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
	sb.WriteString("    classDef external fill:#f3e5f5,stroke:#6a1b9a,stroke-dasharray:4 2,color:#000;\n")
	sb.WriteString("    classDef detailed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	for _, node := range g.Nodes {
		if node.Type == domain.NodeExternal && !node.HasAdditionalDetails {
			sb.WriteString(fmt.Sprintf("    class %s external;\n", ids.get(node.ID)))
		}
	}
	for _, safeID := range detailed {
		sb.WriteString(fmt.Sprintf("    class %s detailed;\n", safeID))
	}

	if overlay != nil && overlay.Focus != "" {
		if _, ok := g.Node(overlay.Focus); ok {
			sb.WriteString("    classDef focus fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
			sb.WriteString(fmt.Sprintf("    class %s focus;\n", ids.get(overlay.Focus)))
		}
	}

	return sb.String()
}

var unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// idMap assigns each node id a unique Mermaid-safe identifier.
type idMap struct {
	byID map[string]string
	used map[string]bool
}

func newIDMap() *idMap {
	return &idMap{byID: map[string]string{}, used: map[string]bool{}}
}

func (m *idMap) get(id string) string {
	if safe, ok := m.byID[id]; ok {
		return safe
	}
	base := sanitizeMermaidID(id)
	safe := base
	for i := 2; m.used[safe]; i++ {
		safe = fmt.Sprintf("%s_%d", base, i)
	}
	m.byID[id] = safe
	m.used[safe] = true
	return safe
}

func sanitizeMermaidID(id string) string {
	s := unsafeIDChars.ReplaceAllString(id, "_")
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		s = "n_" + s
	}
	return s
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}
