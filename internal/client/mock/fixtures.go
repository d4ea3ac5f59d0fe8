package mock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// LoadFixtures reads a JSON object keyed by "METHOD /path" whose values are
// the response bodies to serve, e.g. {"GET /users": [{"id": 1}]}.
func LoadFixtures(path string) (map[Key]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures file: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures file: %w", err)
	}

	fixtures := make(map[Key]json.RawMessage, len(raw))
	for k, v := range raw {
		key, err := ParseKey(k)
		if err != nil {
			return nil, err
		}

		var compact bytes.Buffer
		if err := json.Compact(&compact, v); err != nil {
			return nil, fmt.Errorf("invalid fixture body for %s: %w", key, err)
		}
		fixtures[key] = compact.Bytes()
	}

	return fixtures, nil
}
