package domain

import "time"

// Workspace is a loaded dataset together with the last graph built from it.
// It is the unit the workspace manager serializes mutations on.
type Workspace struct {
	ID      string   `json:"id"`
	Dataset *Dataset `json:"dataset"`

	// Graph is the last built graph, nil until the first build.
	Graph *Graph `json:"graph,omitempty"`
	// Options are the parameters Graph was built with.
	Options *BuildOptions `json:"options,omitempty"`

	// Sealed is the encrypted form of the workspace when it was saved through
	// an encrypting store. Dataset, Graph and Options are then empty.
	Sealed []byte `json:"sealed,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
