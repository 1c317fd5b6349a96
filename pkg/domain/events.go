package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeInitialize EventType = "node_initialize"
	EventPageInitialize EventType = "page_initialize"
	EventNodeRender     EventType = "node_render"
	EventPageRender     EventType = "page_render"
	EventReport         EventType = "report"
	EventFailure        EventType = "failure"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// NodeEvent describes a lifecycle transition of a single node.
type NodeEvent struct {
	EventBase
	Path string `json:"path"`
	Kind string `json:"kind"`
	// Node is the component itself. It is typed loosely to keep domain free of the tree package.
	Node any `json:"-"`
}

// ReportEvent describes a reported feedback message.
type ReportEvent struct {
	EventBase
	Seq       uint64 `json:"seq"`
	Level     Level  `json:"level"`
	Path      string `json:"path,omitempty"`
	Scopeless bool   `json:"scopeless,omitempty"`
}

// RenderEvent describes a completed render entry.
type RenderEvent struct {
	EventBase
	Requested string        `json:"requested"`
	Page      string        `json:"page"`
	Restarts  int           `json:"restarts"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// FailureEvent describes the outcome of a failure dispatch.
type FailureEvent struct {
	EventBase
	Path       string `json:"path"`
	Behaviors  int    `json:"behaviors"`
	Redirected bool   `json:"redirected"`
	Err        error  `json:"-"`
}

// LifecycleHooks defines callbacks for runtime observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnInitialize     func(context.Context, *NodeEvent)
	OnPageInitialize func(context.Context, *NodeEvent)
	OnRender         func(context.Context, *NodeEvent)
	OnPageRender     func(context.Context, *RenderEvent)
	OnReport         func(context.Context, *ReportEvent)
	OnFailure        func(context.Context, *FailureEvent)
}

// Merge returns hooks that call h first and then other, field by field.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnInitialize:     chain(h.OnInitialize, other.OnInitialize),
		OnPageInitialize: chain(h.OnPageInitialize, other.OnPageInitialize),
		OnRender:         chain(h.OnRender, other.OnRender),
		OnPageRender:     chain(h.OnPageRender, other.OnPageRender),
		OnReport:         chain(h.OnReport, other.OnReport),
		OnFailure:        chain(h.OnFailure, other.OnFailure),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
