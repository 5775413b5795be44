package domain

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// OptionValue is a configuration override for a single key.
//
// An override either sets the key to a value or unsets it, which removes
// the key from the merged configuration even when a default exists.
type OptionValue struct {
	value any
	set   bool
}

// Set returns an override assigning v.
func Set(v any) OptionValue {
	return OptionValue{value: v, set: true}
}

// Unset returns an override removing the key.
func Unset() OptionValue {
	return OptionValue{}
}

// IsSet reports whether the override assigns a value.
func (o OptionValue) IsSet() bool {
	return o.set
}

// Value returns the assigned value and true, or nil and false for Unset.
func (o OptionValue) Value() (any, bool) {
	return o.value, o.set
}

// String renders the override for display.
func (o OptionValue) String() string {
	if !o.set {
		return "<unset>"
	}
	return fmt.Sprint(o.value)
}

// Options is an insertion-ordered set of configuration overrides.
// The zero value is ready to use.
type Options struct {
	keys   []string
	values map[string]OptionValue
}

// NewOptions creates Options from the given overrides in argument order.
func NewOptions(pairs ...OptionPair) Options {
	var o Options
	for _, p := range pairs {
		o.Put(p.Key, p.Value)
	}
	return o
}

// OptionPair is a key with its override.
type OptionPair struct {
	Key   string
	Value OptionValue
}

// Put records an override, replacing any earlier one for the same key
// while keeping its original position.
func (o *Options) Put(key string, v OptionValue) {
	if o.values == nil {
		o.values = make(map[string]OptionValue)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the override recorded for key.
func (o Options) Get(key string) (OptionValue, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Len returns the number of recorded overrides.
func (o Options) Len() int {
	return len(o.keys)
}

// Pairs returns the overrides in insertion order.
func (o Options) Pairs() []OptionPair {
	out := make([]OptionPair, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, OptionPair{Key: k, Value: o.values[k]})
	}
	return out
}

// Clone returns an independent copy.
func (o Options) Clone() Options {
	var c Options
	for _, p := range o.Pairs() {
		c.Put(p.Key, p.Value)
	}
	return c
}

// Merge applies the overrides on top of defaults and returns the result.
// defaults is not modified.
func (o Options) Merge(defaults map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(o.keys))
	for k, v := range defaults {
		merged[k] = v
	}
	for _, k := range o.keys {
		if v, ok := o.values[k].Value(); ok {
			merged[k] = v
		} else {
			delete(merged, k)
		}
	}
	return merged
}

// MarshalYAML writes the overrides as a mapping; unset keys become null.
func (o Options) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, p := range o.Pairs() {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key}
		val := &yaml.Node{}
		if v, ok := p.Value.Value(); ok {
			if err := val.Encode(v); err != nil {
				return nil, fmt.Errorf("encode option %s: %w", p.Key, err)
			}
		} else {
			val.Kind = yaml.ScalarNode
			val.Tag = "!!null"
			val.Value = "null"
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}

// UnmarshalYAML reads a mapping written by MarshalYAML.
func (o *Options) UnmarshalYAML(node *yaml.Node) error {
	*o = Options{}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("config options: expected mapping, got %v", node.Tag)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]
		if val.Kind == yaml.ScalarNode && val.Tag == "!!null" {
			o.Put(key, Unset())
			continue
		}
		var v any
		if err := val.Decode(&v); err != nil {
			return fmt.Errorf("config option %s: %w", key, err)
		}
		o.Put(key, Set(v))
	}
	return nil
}
