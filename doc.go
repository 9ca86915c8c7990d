/*
Package twsgraph turns the CSV exports of a batch scheduler network into a
dependency graph of jobs.

A network is described by a handful of tabular exports: its operations, the
relations between its own jobs, the jobs of other networks it waits for or
that wait for it, and optionally operator instructions and detail files for
jobs owned elsewhere. twsgraph parses them into a Dataset, builds a Graph of
internal and external jobs, and narrows it to the neighbourhood of a job.

# Usage

	eng := twsgraph.New()

	ds, warnings, err := eng.LoadDir(ctx, "./exports")
	if err != nil {
		log.Fatal(err)
	}
	for _, w := range warnings {
		log.Println("skipped:", w)
	}

	g, err := eng.Build(ctx, ds, domain.BuildOptions{
		Excluded: domain.NewSet("HOUSEKEEPING"),
	})
	if err != nil {
		log.Fatal(err)
	}

	sub := eng.Focus(ctx, g, "calc script")

# File roles

Input files are recognised by name (see internal/classify): the operations
export must be named "NET - <network> - ..." so the network name can be
derived from it. Files that match no role are treated as auxiliary detail
files.

# Workspaces

For long-lived processes (the HTTP and MCP servers) Workspaces returns a
workspace.Manager that keeps datasets and their last graph in a
ports.WorkspaceStore, in memory or in Redis, and serializes concurrent
mutations of the same workspace.
*/
package twsgraph
