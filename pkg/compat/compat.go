package compat

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Browser identifiers tracked by the usage model.
const (
	Chrome  = "chrome"
	Firefox = "firefox"
	Safari  = "safari"
	Edge    = "edge"
)

// CompatKey is the metadata key holding a node's compat info.
const CompatKey = "__compat"

// MetadataPrefix marks keys that are metadata rather than child nodes.
const MetadataPrefix = "__"

// IsMetadataKey reports whether key names metadata rather than a child node.
func IsMetadataKey(key string) bool {
	return strings.HasPrefix(key, MetadataPrefix)
}

// Node is a single dataset node. A node may carry compat info, children, both
// or neither. Nodes are never mutated after decoding.
type Node struct {
	Compat    *Info   // Compat info, nil when the node has no "__compat" entry
	Children  []Child // Child nodes in document order, metadata keys excluded
	Malformed bool    // Set when the dataset value was not a JSON object
}

// Child is a named child node.
type Child struct {
	Key  string
	Node *Node
}

// Child returns the child with the given key.
func (n *Node) Child(key string) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	for _, c := range n.Children {
		if c.Key == key {
			return c.Node, true
		}
	}
	return nil, false
}

// Len returns the number of direct children.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.Children)
}

// Count returns the number of nodes in the subtree rooted at n, n included.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Node.Count()
	}
	return total
}

// Info is the compat info attached to a node.
type Info struct {
	Description string             // Optional human-readable description
	Support     map[string]Support // Per-browser support; nil when absent or null
}

// UnmarshalJSON decodes compat info leniently. A support entry that is not an
// object leaves Support nil; a description that is not a string is ignored.
func (i *Info) UnmarshalJSON(data []byte) error {
	var raw struct {
		Description json.RawMessage `json:"description"`
		Support     json.RawMessage `json:"support"`
	}
	if !isObject(data) {
		*i = Info{}
		return nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Info{}
	if len(raw.Description) > 0 {
		var s string
		if json.Unmarshal(raw.Description, &s) == nil {
			out.Description = s
		}
	}
	if isObject(raw.Support) {
		var m map[string]Support
		if err := json.Unmarshal(raw.Support, &m); err != nil {
			return err
		}
		out.Support = m
	}
	*i = out
	return nil
}

// MarshalJSON encodes compat info in dataset form.
func (i Info) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Description string             `json:"description,omitempty"`
		Support     map[string]Support `json:"support"`
	}{i.Description, i.Support})
}

// Flag describes a browser flag that must be set to enable a feature.
type Flag struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	ValueToSet string `json:"value_to_set,omitempty"`
}

// Support is the support statement of one browser.
//
// BCD also allows an array of statements per browser (current statement
// first, then history). Such arrays are kept in History and leave
// VersionAdded absent; only the top-level version_added is ever inspected.
type Support struct {
	VersionAdded   Version
	VersionRemoved Version
	Flags          []Flag
	History        []Support
}

// UnmarshalJSON decodes an object statement or an array of statements.
// Any other JSON value yields an empty statement.
func (s *Support) UnmarshalJSON(data []byte) error {
	switch {
	case isObject(data):
		var raw struct {
			VersionAdded   json.RawMessage `json:"version_added"`
			VersionRemoved json.RawMessage `json:"version_removed"`
			Flags          json.RawMessage `json:"flags"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := Support{
			VersionAdded:   parseVersion(raw.VersionAdded),
			VersionRemoved: parseVersion(raw.VersionRemoved),
		}
		if isArray(raw.Flags) {
			var flags []Flag
			if json.Unmarshal(raw.Flags, &flags) == nil {
				out.Flags = flags
			}
		}
		*s = out
	case isArray(data):
		var history []Support
		if err := json.Unmarshal(data, &history); err != nil {
			return err
		}
		*s = Support{History: history}
	default:
		*s = Support{}
	}
	return nil
}

// MarshalJSON encodes the statement in dataset form.
func (s Support) MarshalJSON() ([]byte, error) {
	if len(s.History) > 0 {
		return json.Marshal(s.History)
	}
	out := struct {
		VersionAdded   Version  `json:"version_added"`
		VersionRemoved *Version `json:"version_removed,omitempty"`
		Flags          []Flag   `json:"flags,omitempty"`
	}{VersionAdded: s.VersionAdded, Flags: s.Flags}
	if s.VersionRemoved.Kind != VersionAbsent {
		v := s.VersionRemoved
		out.VersionRemoved = &v
	}
	return json.Marshal(out)
}

// VersionKind identifies the JSON type used for a version field.
type VersionKind int

const (
	VersionAbsent VersionKind = iota // key not present
	VersionNull                      // JSON null
	VersionBool                      // JSON true or false
	VersionString                    // version text, e.g. "57" or "≤79"
	VersionNumber                    // JSON number, e.g. 57
)

// Version is a version_added / version_removed value.
type Version struct {
	Kind VersionKind
	Text string // set for VersionString and VersionNumber (the literal)
	Bool bool   // set for VersionBool
}

// NullVersion returns a JSON null version.
func NullVersion() Version { return Version{Kind: VersionNull} }

// BoolVersion returns a boolean version (true means "supported, release unknown").
func BoolVersion(b bool) Version { return Version{Kind: VersionBool, Bool: b} }

// TextVersion returns a version given as text.
func TextVersion(s string) Version { return Version{Kind: VersionString, Text: s} }

// NumberVersion returns a version given as a JSON number literal.
func NumberVersion(lit string) Version { return Version{Kind: VersionNumber, Text: lit} }

// IsNull reports whether v is null or absent.
func (v Version) IsNull() bool { return v.Kind == VersionNull || v.Kind == VersionAbsent }

// IsBool reports whether v is a boolean.
func (v Version) IsBool() bool { return v.Kind == VersionBool }

// String returns the version text or number literal, or "" otherwise.
func (v Version) String() string { return v.Text }

// Concrete reports whether v names an actual release: a non-empty string or
// a non-zero number. Booleans, null and absent versions never do.
func (v Version) Concrete() bool {
	switch v.Kind {
	case VersionString:
		return v.Text != ""
	case VersionNumber:
		f, err := strconv.ParseFloat(v.Text, 64)
		return err == nil && f != 0
	}
	return false
}

// MarshalJSON encodes the version with its original JSON type. Absent
// versions encode as null.
func (v Version) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case VersionBool:
		return json.Marshal(v.Bool)
	case VersionString:
		return json.Marshal(v.Text)
	case VersionNumber:
		return []byte(v.Text), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes any JSON value into a version.
func (v *Version) UnmarshalJSON(data []byte) error {
	*v = parseVersion(data)
	return nil
}

// parseVersion classifies a raw JSON value. Numbers keep their literal text;
// objects and arrays are treated as absent.
func parseVersion(raw json.RawMessage) Version {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Version{}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var val any
	if err := dec.Decode(&val); err != nil {
		return Version{}
	}
	switch x := val.(type) {
	case nil:
		return NullVersion()
	case bool:
		return BoolVersion(x)
	case string:
		return TextVersion(x)
	case json.Number:
		return NumberVersion(x.String())
	default:
		return Version{}
	}
}

func isObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

func isArray(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '['
}
