package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/twsgraph/internal/presentation/tui"
	"github.com/aretw0/twsgraph/pkg/detail"
	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/aretw0/twsgraph/pkg/reach"
)

// InspectOptions configure the inspect command.
type InspectOptions struct {
	Globals
	LoadOptions
	BuildFlags
	Node string
}

// RunInspect writes the detail of one node as markdown, styled when w is a
// terminal.
func RunInspect(ctx context.Context, opts InspectOptions, w io.Writer) error {
	cfg, logger, err := opts.setup()
	if err != nil {
		return err
	}
	eng, err := createEngine(cfg, logger, opts.Debug)
	if err != nil {
		return err
	}
	g, err := buildGraph(ctx, eng, opts.LoadOptions, opts.BuildFlags, logger)
	if err != nil {
		return err
	}

	id, ok := reach.Match(g, opts.Node)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, opts.Node)
	}
	d, _ := eng.Describe(g, id)
	md := detail.Markdown(d)

	if width, tty := terminalWidth(w); tty {
		rendered, err := tui.NewRenderer(width)(md)
		if err != nil {
			logger.Debug("Markdown rendering failed, printing raw", "err", err)
		} else {
			md = rendered
		}
	}
	_, err = io.WriteString(w, md)
	return err
}
