// Package catalog projects a Dataset into the sorted value lists used to
// populate selection widgets. Nothing here takes filtering decisions.
package catalog

import (
	"slices"
	"strings"

	"github.com/aretw0/twsgraph/pkg/domain"
)

// Catalog groups every projection of a dataset.
type Catalog struct {
	Jobs     []string       `json:"jobs"`
	Types    []string       `json:"types"`
	Networks []string       `json:"networks"`
	Summary  domain.Summary `json:"summary"`
}

// Of computes the full catalog of ds.
func Of(ds *domain.Dataset) Catalog {
	return Catalog{
		Jobs:     JobNames(ds),
		Types:    OperationTypes(ds),
		Networks: ExternalNetworks(ds),
		Summary:  ds.Summary(),
	}
}

// JobNames returns the distinct job names found as operation jobs, internal
// predecessors, external predecessor sources and external successor targets.
func JobNames(ds *domain.Dataset) []string {
	set := domain.NewSet()
	collect(set, ds.Operations, domain.ColJobName)
	collect(set, ds.InternalRelations, domain.ColPredecessorJob)
	collect(set, ds.ExternalPredecessors, domain.ColPredecessorJob)
	collect(set, ds.ExternalSuccessors, domain.ColSuccessorJob)
	return set.Sorted()
}

// OperationTypes returns the distinct non-empty Tipo values of the operations.
func OperationTypes(ds *domain.Dataset) []string {
	set := domain.NewSet()
	collect(set, ds.Operations, domain.ColType)
	return set.Sorted()
}

// ExternalNetworks returns the distinct networks referenced by external
// predecessor and successor records. The dataset's own network is left out.
func ExternalNetworks(ds *domain.Dataset) []string {
	set := domain.NewSet()
	collect(set, ds.ExternalPredecessors, domain.ColPredecessorNet)
	collect(set, ds.ExternalSuccessors, domain.ColSuccessorNet)
	delete(set, ds.NetName)
	return set.Sorted()
}

// Contains reports whether name is in a sorted list produced by this package.
func Contains(sorted []string, name string) bool {
	_, found := slices.BinarySearch(sorted, name)
	return found
}

func collect(set domain.Set, records []domain.Record, col string) {
	for _, rec := range records {
		if v := strings.TrimSpace(rec.Value(col)); v != "" {
			set.Add(v)
		}
	}
}
