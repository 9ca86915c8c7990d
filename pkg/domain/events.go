package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventParse  EventType = "parse"
	EventBuild  EventType = "build"
	EventFilter EventType = "filter"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time     `json:"timestamp"`
	Type      EventType     `json:"type"`
	Duration  time.Duration `json:"duration"`
}

// ParseEvent is emitted once per parsed input.
type ParseEvent struct {
	EventBase
	Role    Role   `json:"role"`
	Source  string `json:"source"`
	Records int    `json:"records"`
	Err     error  `json:"-"`
}

// BuildEvent is emitted after a graph build.
type BuildEvent struct {
	EventBase
	NetName string `json:"net_name"`
	Mode    Mode   `json:"mode"`
	Nodes   int    `json:"nodes"`
	Links   int    `json:"links"`
	Err     error  `json:"-"`
}

// FilterEvent is emitted after a reachability filter.
type FilterEvent struct {
	EventBase
	Focus string `json:"focus"`
	Found bool   `json:"found"`
	Nodes int    `json:"nodes"`
	Links int    `json:"links"`
}

// LifecycleHooks defines callbacks for pipeline observability.
// Nil hooks are skipped.
type LifecycleHooks struct {
	OnParse  func(context.Context, *ParseEvent)
	OnBuild  func(context.Context, *BuildEvent)
	OnFilter func(context.Context, *FilterEvent)
}

// EmitParse calls OnParse when set.
func (h LifecycleHooks) EmitParse(ctx context.Context, e *ParseEvent) {
	if h.OnParse != nil {
		h.OnParse(ctx, e)
	}
}

// EmitBuild calls OnBuild when set.
func (h LifecycleHooks) EmitBuild(ctx context.Context, e *BuildEvent) {
	if h.OnBuild != nil {
		h.OnBuild(ctx, e)
	}
}

// EmitFilter calls OnFilter when set.
func (h LifecycleHooks) EmitFilter(ctx context.Context, e *FilterEvent) {
	if h.OnFilter != nil {
		h.OnFilter(ctx, e)
	}
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnParse: func(ctx context.Context, e *ParseEvent) {
			h.EmitParse(ctx, e)
			other.EmitParse(ctx, e)
		},
		OnBuild: func(ctx context.Context, e *BuildEvent) {
			h.EmitBuild(ctx, e)
			other.EmitBuild(ctx, e)
		},
		OnFilter: func(ctx context.Context, e *FilterEvent) {
			h.EmitFilter(ctx, e)
			other.EmitFilter(ctx, e)
		},
	}
}
