package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/twsgraph/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that log every event at Debug level,
// and failures at Warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnParse: func(ctx context.Context, e *domain.ParseEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "parse_failed", "role", e.Role, "source", e.Source, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "parse", "role", e.Role, "source", e.Source, "records", e.Records, "duration", e.Duration)
		},
		OnBuild: func(ctx context.Context, e *domain.BuildEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "build_failed", "net", e.NetName, "mode", e.Mode, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "build", "net", e.NetName, "mode", e.Mode, "nodes", e.Nodes, "links", e.Links, "duration", e.Duration)
		},
		OnFilter: func(ctx context.Context, e *domain.FilterEvent) {
			logger.DebugContext(ctx, "filter", "focus", e.Focus, "found", e.Found, "nodes", e.Nodes, "links", e.Links)
		},
	}
}
