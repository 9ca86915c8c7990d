package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/twsgraph"
	"github.com/aretw0/twsgraph/internal/config"
	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/aretw0/twsgraph/pkg/ports"
	"golang.org/x/term"
)

// Globals are the persistent flags shared by every command.
type Globals struct {
	ConfigPath string
	Debug      bool
	Dir        string
}

// setup loads the configuration and the logger it describes.
func (g Globals) setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(g.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, cfg.Logger(g.Debug), nil
}

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// LoadOptions select the exports of a network.
type LoadOptions struct {
	// Dir is scanned for CSV files when Paths is empty.
	Dir   string
	Paths []string
	// Additional files are appended as auxiliary details whatever their name.
	Additional []string
}

// ResolveInputs interprets positional arguments: a single directory replaces
// dir, anything else is a list of files.
func ResolveInputs(dir string, args []string) LoadOptions {
	if len(args) == 1 {
		if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
			return LoadOptions{Dir: args[0]}
		}
	}
	if len(args) > 0 {
		return LoadOptions{Paths: args}
	}
	if dir == "" {
		dir = "."
	}
	return LoadOptions{Dir: dir}
}

// loadDataset assembles the selected exports. Skipped auxiliary files are
// logged as warnings.
func loadDataset(ctx context.Context, eng *twsgraph.Engine, opts LoadOptions, logger *slog.Logger) (*domain.Dataset, error) {
	var (
		ds       *domain.Dataset
		warnings []error
		err      error
	)
	if len(opts.Paths) > 0 {
		ds, warnings, err = eng.LoadPaths(ctx, opts.Paths)
	} else {
		ds, warnings, err = eng.LoadDir(ctx, opts.Dir)
	}
	if err != nil {
		return nil, err
	}
	logWarnings(logger, warnings)

	if len(opts.Additional) > 0 {
		sources := make([]ports.Source, len(opts.Additional))
		for i, p := range opts.Additional {
			sources[i] = ports.FileSource{Path: p}
		}
		ds, warnings, err = eng.AppendAuxiliary(ctx, ds, "", sources...)
		if err != nil {
			return nil, err
		}
		logWarnings(logger, warnings)
	}

	if ds.NetName == "" {
		logger.Warn("Network name not found in operations file name; pass --net", "file", ds.OperationsSource)
	}
	return ds, nil
}

func logWarnings(logger *slog.Logger, warnings []error) {
	for _, w := range warnings {
		logger.Warn("Skipped auxiliary file", "err", w)
	}
}

// terminalWidth reports whether w is a terminal and its width.
func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, true
	}
	return width, true
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed)
}

func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil // Exit 0 for interruptions
	}
	return err
}
