package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalJSON encodes the store as a JSON object with keys in insertion order.
func (s *Store[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("marshaling key %q: %w", key, err)
		}
		v, err := json.Marshal(s.entries[key])
		if err != nil {
			return nil, fmt.Errorf("marshaling value for %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the contents of the store with a JSON object,
// keeping the object's key order. The store's options are preserved.
func (s *Store[V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("reading store object: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("store must be a JSON object, got %v", tok)
	}

	var entries []Entry[V]
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("reading key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("store key must be a string, got %v", tok)
		}
		var v V
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decoding value for %q: %w", key, err)
		}
		entries = append(entries, Entry[V]{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("closing store object: %w", err)
	}

	s.ensure()
	s.ExchangeEntries(entries)
	return nil
}

// MarshalYAML encodes the store as a YAML mapping with keys in insertion
// order.
func (s *Store[V]) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range s.order {
		var k, v yaml.Node
		if err := k.Encode(key); err != nil {
			return nil, fmt.Errorf("encoding key %q: %w", key, err)
		}
		if err := v.Encode(s.entries[key]); err != nil {
			return nil, fmt.Errorf("encoding value for %q: %w", key, err)
		}
		node.Content = append(node.Content, &k, &v)
	}
	return node, nil
}

// UnmarshalYAML replaces the contents of the store with a YAML mapping,
// keeping the mapping's key order.
func (s *Store[V]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("store must be a YAML mapping, got kind %d at line %d", node.Kind, node.Line)
	}
	entries := make([]Entry[V], 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return fmt.Errorf("decoding key at line %d: %w", node.Content[i].Line, err)
		}
		var v V
		if err := node.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("decoding value for %q: %w", key, err)
		}
		entries = append(entries, Entry[V]{Key: key, Value: v})
	}
	s.ensure()
	s.ExchangeEntries(entries)
	return nil
}

// ensure initializes a zero-value Store so that it can be decoded into.
func (s *Store[V]) ensure() {
	if s.entries == nil {
		s.entries = make(map[string]V)
	}
	if s.equal == nil {
		s.equal = New[V]().equal
	}
}
