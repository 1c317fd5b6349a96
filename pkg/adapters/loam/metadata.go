package loam

// PageMetadata is the front matter of a page document. The document body,
// when present, becomes a leading label named "content".
type PageMetadata struct {
	ID        string           `json:"id" mapstructure:"id"`
	Kind      string           `json:"kind" mapstructure:"kind"`
	Behaviors []map[string]any `json:"behaviors" mapstructure:"behaviors"`
	Children  []map[string]any `json:"children" mapstructure:"children"`
}

// ContentID is the id of the label holding the document body.
const ContentID = "content"

func (m PageMetadata) raw(id, body string) map[string]any {
	raw := map[string]any{"id": id}
	if m.Kind != "" {
		raw["kind"] = m.Kind
	}
	if len(m.Behaviors) > 0 {
		behaviors := make([]any, len(m.Behaviors))
		for i, b := range m.Behaviors {
			behaviors[i] = b
		}
		raw["behaviors"] = behaviors
	}

	children := make([]any, 0, len(m.Children)+1)
	if body != "" {
		children = append(children, map[string]any{
			"id":   ContentID,
			"kind": "label",
			"text": body,
		})
	}
	for _, c := range m.Children {
		children = append(children, c)
	}
	if len(children) > 0 {
		raw["children"] = children
	}
	return raw
}
