package dsl

import (
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/layout"
)

// NodeBuilder provides a fluent API for configuring a node. Methods that
// add containers return the child builder; End climbs back to the parent.
type NodeBuilder struct {
	def      layout.Definition
	children []*NodeBuilder
	parent   *NodeBuilder
}

func (n *NodeBuilder) definition() layout.Definition {
	def := n.def
	def.Children = make([]layout.Definition, 0, len(n.children))
	for _, c := range n.children {
		def.Children = append(def.Children, c.definition())
	}
	return def
}

func (n *NodeBuilder) child(id, kind string) *NodeBuilder {
	c := &NodeBuilder{
		def:    layout.Definition{ID: id, Kind: kind},
		parent: n,
	}
	n.children = append(n.children, c)
	return c
}

// End returns the parent builder. On a page it returns the page itself.
func (n *NodeBuilder) End() *NodeBuilder {
	if n.parent == nil {
		return n
	}
	return n.parent
}

// Container adds a container child and returns its builder.
func (n *NodeBuilder) Container(id string) *NodeBuilder {
	return n.child(id, "container")
}

// Node adds a child of any registered kind and returns its builder.
func (n *NodeBuilder) Node(id, kind string, props map[string]any) *NodeBuilder {
	c := n.child(id, kind)
	c.def.Props = props
	return c
}

// Label adds a text leaf.
func (n *NodeBuilder) Label(id, text string) *NodeBuilder {
	n.Node(id, "label", map[string]any{"text": text})
	return n
}

// Notice adds a leaf that reports text at level when it is initialized.
func (n *NodeBuilder) Notice(id string, level domain.Level, text string) *NodeBuilder {
	n.Node(id, "notice", map[string]any{"level": level.String(), "text": text})
	return n
}

// Broken adds a leaf that fails when rendered.
func (n *NodeBuilder) Broken(id, message string) *NodeBuilder {
	n.Node(id, "broken", map[string]any{"message": message})
	return n
}

// Feedback adds a feedback collector and returns its builder.
func (n *NodeBuilder) Feedback(id string) *NodeBuilder {
	return n.child(id, "feedback")
}

// Hidden makes the node invisible.
func (n *NodeBuilder) Hidden() *NodeBuilder {
	n.def.Hidden = true
	return n
}

// Fence makes a collector claim messages from its scope.
func (n *NodeBuilder) Fence() *NodeBuilder {
	n.def.Fence = true
	return n
}

// Scope sets a collector's scope to a page-relative path.
func (n *NodeBuilder) Scope(path string) *NodeBuilder {
	n.def.Scope = path
	return n
}

func (n *NodeBuilder) filter() *layout.FilterDefinition {
	if n.def.Filter == nil {
		n.def.Filter = &layout.FilterDefinition{}
	}
	return n.def.Filter
}

// MinLevel restricts a collector to messages at or above level.
func (n *NodeBuilder) MinLevel(level domain.Level) *NodeBuilder {
	n.filter().MinLevel = level.String()
	return n
}

// Levels restricts a collector to exactly the given levels.
func (n *NodeBuilder) Levels(levels ...domain.Level) *NodeBuilder {
	f := n.filter()
	for _, l := range levels {
		f.Levels = append(f.Levels, l.String())
	}
	return n
}

// Origin restricts a collector to messages reported inside path.
func (n *NodeBuilder) Origin(path string) *NodeBuilder {
	n.filter().Origin = path
	return n
}

// Behavior attaches a registered behavior.
func (n *NodeBuilder) Behavior(kind string, props map[string]any) *NodeBuilder {
	n.def.Behaviors = append(n.def.Behaviors, layout.BehaviorDefinition{Kind: kind, Props: props})
	return n
}

// Redirect restarts the render with target when a failure reaches the node.
func (n *NodeBuilder) Redirect(target string) *NodeBuilder {
	return n.Behavior("redirect", map[string]any{"target": target})
}

// LogFailures logs failures reaching the node.
func (n *NodeBuilder) LogFailures(level string) *NodeBuilder {
	return n.Behavior("log", map[string]any{"level": level})
}

// ReportFailures turns failures into scope-less messages. An empty text
// reports the failure itself.
func (n *NodeBuilder) ReportFailures(level domain.Level, text string) *NodeBuilder {
	return n.Behavior("report", map[string]any{"level": level.String(), "text": text})
}
