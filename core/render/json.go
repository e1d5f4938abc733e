// Package render — JSON renderer.
// Emits the persisted capsule document shape as indented JSON.
package render

import (
	"encoding/json"
	"fmt"

	"github.com/gaurav-prasanna/codecapsule/store"
)

// JSONRenderer produces the capsule's stored document as JSON.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render marshals the capsule row, content included.
func (r *JSONRenderer) Render(c *store.Capsule) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling capsule JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}
