package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/hyperblame/internal/ir"
)

// marshalIgnore converts an ignore set to canonical JSON TEXT for storage.
// The set is sorted, so equal sets store identical text.
func marshalIgnore(ignore []string) (string, error) {
	data, err := ir.MarshalCanonical(ir.NewChangeSet(ignore...))
	if err != nil {
		return "", fmt.Errorf("marshal ignore set: %w", err)
	}
	return string(data), nil
}

// unmarshalIgnore parses canonical JSON TEXT back to a sorted id list.
func unmarshalIgnore(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal ignore set: %w", err)
	}
	return ids, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
