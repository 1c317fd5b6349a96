package domain

import "time"

// View is the outcome of one render turn of a page for a session.
type View struct {
	SessionID string          `json:"session_id"`
	Requested string          `json:"requested"`
	Page      string          `json:"page"`
	Restarts  int             `json:"restarts"`
	Output    string          `json:"output"`
	Feedback  []CollectorView `json:"feedback"`
}

// CollectorView lists what one collector displayed.
type CollectorView struct {
	Path     string        `json:"path"`
	Fenced   bool          `json:"fenced,omitempty"`
	Messages []MessageView `json:"messages"`
}

// MessageView is a displayed feedback message.
type MessageView struct {
	Seq    uint64    `json:"seq"`
	Level  Level     `json:"level"`
	Text   string    `json:"text"`
	Origin string    `json:"origin,omitempty"`
	Time   time.Time `json:"time"`
}

// NodeView describes a page tree for introspection.
type NodeView struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Path        string     `json:"path"`
	Container   bool       `json:"container"`
	Visible     bool       `json:"visible"`
	Initialized bool       `json:"initialized"`
	Fence       bool       `json:"fence,omitempty"`
	Behaviors   int        `json:"behaviors,omitempty"`
	Children    []NodeView `json:"children,omitempty"`
}
