package compat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Decode reads a dataset from r. The top-level value must be a JSON object.
//
// Decode streams tokens instead of unmarshaling into maps so that children
// keep document order. Malformed values below the root are recorded as
// malformed nodes rather than reported as errors; only invalid JSON fails.
func Decode(r io.Reader) (*Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("dataset root must be a JSON object, got %v", tok)
	}
	root, err := decodeObject(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after dataset root")
	}
	return root, nil
}

// DecodeBytes decodes a dataset held in memory.
func DecodeBytes(data []byte) (*Node, error) {
	return Decode(bytes.NewReader(data))
}

// DecodeFile decodes the dataset stored at path.
func DecodeFile(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// decodeValue decodes the next value. Scalars and arrays become malformed
// nodes.
func decodeValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return &Node{Malformed: true}, nil
	}
	if d == '[' {
		if err := skipRest(dec); err != nil {
			return nil, err
		}
		return &Node{Malformed: true}, nil
	}
	return decodeObject(dec)
}

// decodeObject decodes object members up to and including the closing brace.
// The opening brace has already been consumed.
func decodeObject(dec *json.Decoder) (*Node, error) {
	n := &Node{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}

		switch {
		case key == CompatKey:
			info, err := decodeInfo(dec)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			n.Compat = info
		case IsMetadataKey(key):
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
		default:
			child, err := decodeValue(dec)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			n.Children = append(n.Children, Child{Key: key, Node: child})
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

// decodeInfo decodes a "__compat" value. JSON null means no compat info; any
// other non-object value yields compat info without a support map.
func decodeInfo(dec *json.Decoder) (*Info, error) {
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	info := &Info{}
	if err := json.Unmarshal(raw, info); err != nil {
		return nil, err
	}
	return info, nil
}

// skipRest consumes tokens until the container opened by the last token is
// closed.
func skipRest(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
