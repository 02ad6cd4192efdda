package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"slices"

	"gopkg.in/yaml.v3"
)

// KeyValues is an insertion-ordered string map. Setting an existing key
// replaces its value but keeps the key's original position.
type KeyValues struct {
	keys   []string
	values map[string]string
}

// NewKeyValues returns an empty KeyValues.
func NewKeyValues() *KeyValues {
	return &KeyValues{values: make(map[string]string)}
}

// Set inserts or overwrites key.
func (kv *KeyValues) Set(key, value string) {
	if kv.values == nil {
		kv.values = make(map[string]string)
	}
	if _, ok := kv.values[key]; !ok {
		kv.keys = append(kv.keys, key)
	}
	kv.values[key] = value
}

// Get returns the value for key.
func (kv *KeyValues) Get(key string) (string, bool) {
	if kv == nil {
		return "", false
	}
	v, ok := kv.values[key]
	return v, ok
}

// Len returns the number of keys.
func (kv *KeyValues) Len() int {
	if kv == nil {
		return 0
	}
	return len(kv.keys)
}

// Keys returns the keys in insertion order.
func (kv *KeyValues) Keys() []string {
	if kv == nil {
		return nil
	}
	return slices.Clone(kv.keys)
}

// Map returns an unordered copy.
func (kv *KeyValues) Map() map[string]string {
	out := make(map[string]string, kv.Len())
	if kv == nil {
		return out
	}
	for k, v := range kv.values {
		out[k] = v
	}
	return out
}

// MarshalJSON writes the pairs as a JSON object in insertion order.
func (kv *KeyValues) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range kv.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(kv.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping the order keys appear in.
func (kv *KeyValues) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("key_values: expected a JSON object")
	}
	*kv = KeyValues{values: make(map[string]string)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return err
		}
		kv.Set(key, value)
	}
	_, err = dec.Token()
	return err
}

// MarshalYAML emits an ordered mapping node.
func (kv *KeyValues) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range kv.Keys() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: kv.values[k]},
		)
	}
	return node, nil
}
