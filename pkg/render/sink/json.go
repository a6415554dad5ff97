package sink

import (
	"encoding/json"

	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/render"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	selected  string
	constants *layout.Constants
}

// WithJSONSelected records the selected node key.
func WithJSONSelected(key string) JSONOption { return func(r *jsonRenderer) { r.selected = key } }

// WithJSONConstants records the layout constants the scene was built with.
func WithJSONConstants(c layout.Constants) JSONOption {
	return func(r *jsonRenderer) { r.constants = &c }
}

type jsonOutput struct {
	Selected  string            `json:"selected,omitempty"`
	Constants *layout.Constants `json:"constants,omitempty"`
	*render.Scene
}

// RenderJSON exports the scene as a pretty-printed JSON document.
// It returns an error only if marshaling fails.
func RenderJSON(s *render.Scene, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}
	return json.MarshalIndent(jsonOutput{
		Selected:  r.selected,
		Constants: r.constants,
		Scene:     s,
	}, "", "  ")
}
