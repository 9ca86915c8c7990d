package domain

import "fmt"

// Mode selects what the graph builder includes.
type Mode string

const (
	// ModeFull includes every admitted internal job and all of its relations.
	ModeFull Mode = "full"
	// ModeExternalPredecessors keeps only internal jobs with at least one
	// genuine external predecessor, plus those predecessors.
	ModeExternalPredecessors Mode = "external-predecessors-only"
)

// ParseMode converts a user supplied string into a Mode.
// An empty string selects ModeFull.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeFull:
		return ModeFull, nil
	case ModeExternalPredecessors, "external-predecessors":
		return ModeExternalPredecessors, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeFull, ModeExternalPredecessors)
}

// BuildOptions parameterizes one graph build.
type BuildOptions struct {
	// NetName is the current network. External records naming it are ignored.
	NetName string `json:"netName"`
	// Excluded job names are dropped as nodes and as edge endpoints.
	Excluded Set `json:"excluded,omitempty"`
	// SelectedTypes admits only operations whose Tipo is listed. Empty admits all.
	SelectedTypes Set `json:"selectedTypes,omitempty"`
	// IncludeUnknownTypes also admits operations with an empty Tipo when
	// SelectedTypes is not empty.
	IncludeUnknownTypes bool `json:"includeUnknownTypes"`
	Mode                Mode `json:"mode"`
}
