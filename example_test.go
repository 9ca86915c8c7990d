package twsgraph_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/twsgraph"
	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/aretw0/twsgraph/pkg/ports"
)

// ExampleEngine_Build demonstrates building a graph from in-memory exports.
// Sources can be anything that yields bytes: files, uploads or embedded data.
func ExampleEngine_Build() {
	src := func(name, data string) ports.Source {
		return ports.BytesSource{Label: name, Data: []byte(data)}
	}
	files := ports.InputFiles{
		Operations: src("NET - SALES - Operazioni.csv",
			"Nome Job;Tipo\nEXTRACT;JOB\nREPORT;SCRIPT\n"),
		InternalRelations: src("NET - SALES - Relazioni Interne.csv",
			"Nome Job Predecessore;Nome Job\nEXTRACT;REPORT\n"),
		ExternalPredecessors: src("NET - SALES - Predecessori Esterni.csv",
			"Net Predecessore;Nome Job Predecessore;Nome Job\nCRM;DUMP;EXTRACT\n"),
		ExternalSuccessors: src("NET - SALES - Successori Esterni.csv",
			"Net Successore;Nome Job;Nome Job Successore\n"),
	}

	eng := twsgraph.New()
	ctx := context.Background()

	ds, _, err := eng.Load(ctx, files)
	if err != nil {
		log.Fatal(err)
	}

	g, err := eng.Build(ctx, ds, domain.BuildOptions{})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Network:", ds.NetName)
	for _, n := range g.Nodes {
		fmt.Printf("%s (%s)\n", n.ID, n.Type)
	}
	for _, l := range g.Links {
		fmt.Printf("%s -> %s\n", l.Source, l.Target)
	}
	// Output:
	// Network: SALES
	// EXTRACT (internal)
	// REPORT (internal)
	// CRM/DUMP (external)
	// EXTRACT -> REPORT
	// CRM/DUMP -> EXTRACT
}

// ExampleEngine_Focus shows how a loosely typed job name narrows a graph to
// the jobs it depends on and the jobs depending on it.
func ExampleEngine_Focus() {
	g := &domain.Graph{
		Nodes: []*domain.Node{
			{ID: "A", Name: "A", Type: domain.NodeInternal},
			{ID: "B", Name: "B", Type: domain.NodeInternal},
			{ID: "C", Name: "C", Type: domain.NodeInternal},
			{ID: "X", Name: "X", Type: domain.NodeInternal},
		},
		Links: []domain.Edge{{Source: "A", Target: "B"}, {Source: "B", Target: "C"}, {Source: "X", Target: "C"}},
	}

	sub := twsgraph.New().Focus(context.Background(), g, "b")
	for _, n := range sub.Nodes {
		fmt.Println(n.ID)
	}
	// Output:
	// A
	// B
	// C
}
