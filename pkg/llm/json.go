package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNoJSON = errors.New("no JSON object in model output")

// ExtractJSON strips markdown fences and surrounding prose from a model
// response, returning the outermost JSON object.
func ExtractJSON(response string) (string, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end < start {
		return "", ErrNoJSON
	}
	return response[start : end+1], nil
}

// DecodeJSON extracts and unmarshals a JSON object from a model response.
func DecodeJSON(response string, v interface{}) error {
	raw, err := ExtractJSON(response)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode model JSON: %w", err)
	}
	return nil
}
