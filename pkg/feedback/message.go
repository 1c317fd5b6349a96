package feedback

import (
	"fmt"
	"time"
	"weak"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
)

// Message is a leveled feedback message. Messages reported against a node
// remember it through a weak pointer: the message never keeps a removed node
// alive, and an origin that is gone scopes the message as scope-less.
type Message struct {
	Seq   uint64
	Level domain.Level
	Text  string
	Time  time.Time

	// OriginPath is the address of the origin at report time, kept for logs.
	OriginPath string

	origin    weak.Pointer[tree.Node]
	hasOrigin bool

	// session marks scope-less messages, which belong to the session log.
	session   bool
	persisted bool
	rendered  bool
}

// Scopeless reports whether the message was reported without an origin.
func (m *Message) Scopeless() bool { return !m.hasOrigin }

// Origin returns the origin node if it is still alive.
func (m *Message) Origin() (tree.Component, bool) {
	if !m.hasOrigin {
		return nil, false
	}
	n := m.origin.Value()
	if n == nil {
		return nil, false
	}
	return n.This(), true
}

// resolve returns the origin if it is alive and attached under root.
func (m *Message) resolve(root *tree.Node) (*tree.Node, error) {
	if !m.hasOrigin {
		return nil, nil
	}
	n := m.origin.Value()
	if n == nil || n.Root().AsNode() != root {
		return nil, &domain.UnresolvedReportOriginError{Seq: m.Seq, Path: m.OriginPath}
	}
	return n, nil
}

// Rendered reports whether a collector displayed the message in this turn.
func (m *Message) Rendered() bool { return m.rendered }

// MarkRendered flags the message for removal by Store.Sweep.
func (m *Message) MarkRendered() { m.rendered = true }

// IsError reports whether the level is ERROR or above.
func (m *Message) IsError() bool { return m.Level.IsError() }

// Entry converts a scope-less message into its session log form.
func (m *Message) Entry() domain.Entry {
	return domain.Entry{Seq: m.Seq, Level: m.Level, Text: m.Text, Time: m.Time, Rendered: m.rendered}
}

func (m *Message) String() string {
	origin := m.OriginPath
	if !m.hasOrigin {
		origin = "session"
	}
	return fmt.Sprintf("#%d [%s] %s: %s", m.Seq, m.Level, origin, m.Text)
}
