package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/twsgraph/pkg/catalog"
)

// CatalogOptions configure the catalog command.
type CatalogOptions struct {
	Globals
	LoadOptions
	JSON bool
}

// RunCatalog prints the job names, operation types and external networks of
// a network.
func RunCatalog(ctx context.Context, opts CatalogOptions, w io.Writer) error {
	cfg, logger, err := opts.setup()
	if err != nil {
		return err
	}
	eng, err := createEngine(cfg, logger, opts.Debug)
	if err != nil {
		return err
	}
	ds, err := loadDataset(ctx, eng, opts.LoadOptions, logger)
	if err != nil {
		return err
	}
	c := eng.Catalog(ds)

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			NetName string `json:"netName"`
			catalog.Catalog
		}{ds.NetName, c})
	}

	fmt.Fprintf(w, "Network: %s\n", orDash(ds.NetName))
	fmt.Fprintf(w, "Jobs (%d): %s\n", len(c.Jobs), orDash(strings.Join(c.Jobs, ", ")))
	fmt.Fprintf(w, "Types (%d): %s\n", len(c.Types), orDash(strings.Join(c.Types, ", ")))
	fmt.Fprintf(w, "External networks (%d): %s\n", len(c.Networks), orDash(strings.Join(c.Networks, ", ")))
	fmt.Fprintf(w, "Records: %d operations, %d internal relations, %d external predecessors, %d external successors\n",
		c.Summary.Operations, c.Summary.InternalRelations, c.Summary.ExternalPredecessors, c.Summary.ExternalSuccessors)
	if c.Summary.AdditionalDatasets > 0 {
		fmt.Fprintf(w, "Auxiliary: %d rows in %d files\n", c.Summary.AdditionalRecords, c.Summary.AdditionalDatasets)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
