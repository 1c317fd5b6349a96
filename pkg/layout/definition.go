package layout

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Definition describes one node of a page tree. Keys that are not fields
// land in Props and are handed to the kind factory.
type Definition struct {
	ID     string `json:"id" yaml:"id" mapstructure:"id"`
	Kind   string `json:"kind,omitempty" yaml:"kind,omitempty" mapstructure:"kind"`
	Hidden bool   `json:"hidden,omitempty" yaml:"hidden,omitempty" mapstructure:"hidden"`

	// Feedback collectors only.
	Fence  bool              `json:"fence,omitempty" yaml:"fence,omitempty" mapstructure:"fence"`
	Scope  string            `json:"scope,omitempty" yaml:"scope,omitempty" mapstructure:"scope"`
	Filter *FilterDefinition `json:"filter,omitempty" yaml:"filter,omitempty" mapstructure:"filter"`

	Behaviors []BehaviorDefinition `json:"behaviors,omitempty" yaml:"behaviors,omitempty" mapstructure:"behaviors"`
	Children  []Definition         `json:"children,omitempty" yaml:"children,omitempty" mapstructure:"children"`
	Props     map[string]any       `json:"props,omitempty" yaml:",inline" mapstructure:",remain"`
}

// FilterDefinition selects the messages a collector shows. All set
// criteria must hold.
type FilterDefinition struct {
	MinLevel string   `json:"min_level,omitempty" yaml:"min_level,omitempty" mapstructure:"min_level"`
	Levels   []string `json:"levels,omitempty" yaml:"levels,omitempty" mapstructure:"levels"`
	// Origin is a page-relative path; only messages reported inside it pass.
	Origin string `json:"origin,omitempty" yaml:"origin,omitempty" mapstructure:"origin"`
}

// BehaviorDefinition attaches a registered behavior to a node.
type BehaviorDefinition struct {
	Kind  string         `json:"kind" yaml:"kind" mapstructure:"kind"`
	Props map[string]any `json:"props,omitempty" yaml:",inline" mapstructure:",remain"`
}

// Parse decodes a YAML (or JSON) page document.
func Parse(data []byte) (*Definition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}
	if raw == nil {
		return nil, errors.New("empty layout document")
	}
	return Decode(raw)
}

// Decode converts a generic map (from YAML, JSON or document front matter)
// into a Definition.
func Decode(raw map[string]any) (*Definition, error) {
	var def Definition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           &def,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(normalize(raw)); err != nil {
		return nil, fmt.Errorf("failed to decode layout: %w", err)
	}
	return &def, nil
}

// normalize turns map[any]any values (yaml.v2 style decoders) into
// map[string]any so mapstructure can match keys.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[k] = normalize(sub)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[fmt.Sprintf("%v", k)] = normalize(sub)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, sub := range val {
			out[i] = normalize(sub)
		}
		return out
	default:
		return v
	}
}

// Validate checks ids and sibling uniqueness. Kinds are checked at build
// time against the registry.
func (d *Definition) Validate() error {
	return d.validate(d.ID)
}

func (d *Definition) validate(path string) error {
	if d.ID == "" {
		return fmt.Errorf("node at '%s' has no id", path)
	}
	seen := make(map[string]bool, len(d.Children))
	for i := range d.Children {
		child := &d.Children[i]
		if child.ID != "" && seen[child.ID] {
			return fmt.Errorf("duplicate id '%s' under '%s'", child.ID, path)
		}
		seen[child.ID] = true
		if err := child.validate(path + ":" + child.ID); err != nil {
			return err
		}
	}
	for _, b := range d.Behaviors {
		if b.Kind == "" {
			return fmt.Errorf("behavior without kind on '%s'", path)
		}
	}
	return nil
}

// Walk visits the definition and its descendants in pre-order.
func (d *Definition) Walk(fn func(def *Definition, depth int)) {
	d.walk(fn, 0)
}

func (d *Definition) walk(fn func(def *Definition, depth int), depth int) {
	fn(d, depth)
	for i := range d.Children {
		d.Children[i].walk(fn, depth+1)
	}
}
