package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/irdiff/internal/ir"
)

// marshalBackends converts backend names to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalBackends(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	data, err := ir.MarshalCanonical(names)
	if err != nil {
		return "", fmt.Errorf("marshal backends: %w", err)
	}
	return string(data), nil
}

// unmarshalBackends parses the stored backend list.
func unmarshalBackends(text string) ([]string, error) {
	var names []string
	if err := json.Unmarshal([]byte(text), &names); err != nil {
		return nil, fmt.Errorf("unmarshal backends: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
