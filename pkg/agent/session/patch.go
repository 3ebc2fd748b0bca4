package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	OpReplace = "replace"
	OpAdd     = "add"
	OpRemove  = "remove"
)

var ErrInvalidPatch = errors.New("invalid patch")

// Patch is a single JSON-Patch style operation against a block document.
// Paths are JSON pointers rooted at the block, e.g. "/data" or "/data/subSteps/0".
type Patch struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

func NewPatch(op, path string, value interface{}) (Patch, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return Patch{}, fmt.Errorf("marshal patch value: %w", err)
	}
	return Patch{Op: op, Path: path, Value: raw}, nil
}

func Replace(path string, value interface{}) (Patch, error) {
	return NewPatch(OpReplace, path, value)
}

// pointerToPath converts a JSON pointer into an sjson/gjson path.
// Only pointers below /data are writable.
func pointerToPath(pointer string) (string, error) {
	if pointer != "/data" && !strings.HasPrefix(pointer, "/data/") {
		return "", fmt.Errorf("%w: path %q is outside /data", ErrInvalidPatch, pointer)
	}

	tokens := strings.Split(pointer[1:], "/")
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		tok = strings.ReplaceAll(tok, "~1", "/")
		tok = strings.ReplaceAll(tok, "~0", "~")
		if tok == "-" {
			parts[i] = "-1"
			continue
		}
		parts[i] = escapeKey(tok)
	}
	return strings.Join(parts, "."), nil
}

func escapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// applyPatches returns a patched copy of doc. doc is never modified, so a
// failing patch list leaves the stored block untouched.
func applyPatches(doc []byte, patches []Patch) ([]byte, error) {
	out := make([]byte, len(doc))
	copy(out, doc)

	for i, p := range patches {
		path, err := pointerToPath(p.Path)
		if err != nil {
			return nil, err
		}

		if p.Op != OpRemove && len(p.Value) == 0 {
			return nil, fmt.Errorf("%w: patch %d has no value", ErrInvalidPatch, i)
		}

		switch p.Op {
		case OpReplace:
			if !gjson.GetBytes(out, path).Exists() {
				return nil, fmt.Errorf("%w: patch %d replaces missing path %q", ErrInvalidPatch, i, p.Path)
			}
			out, err = sjson.SetRawBytes(out, path, p.Value)
		case OpAdd:
			out, err = sjson.SetRawBytes(out, path, p.Value)
		case OpRemove:
			out, err = sjson.DeleteBytes(out, path)
		default:
			return nil, fmt.Errorf("%w: unknown op %q", ErrInvalidPatch, p.Op)
		}
		if err != nil {
			return nil, fmt.Errorf("apply patch %d (%s %s): %w", i, p.Op, p.Path, err)
		}
	}
	return out, nil
}
