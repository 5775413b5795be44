package domain

import (
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestOptions_PutKeepsInsertionOrder(t *testing.T) {
	var o Options
	o.Put("b", Set(1))
	o.Put("a", Set(2))
	o.Put("b", Unset())

	pairs := o.Pairs()
	if len(pairs) != 2 {
		t.Fatalf("len(Pairs()) = %d, want 2", len(pairs))
	}
	if pairs[0].Key != "b" || pairs[1].Key != "a" {
		t.Errorf("order = [%s %s], want [b a]", pairs[0].Key, pairs[1].Key)
	}
	if pairs[0].Value.IsSet() {
		t.Error("b should have been replaced by Unset")
	}
}

func TestOptions_Merge(t *testing.T) {
	defaults := map[string]any{
		"commitlog_sync":              "periodic",
		"commitlog_sync_period_in_ms": 10000,
		"num_tokens":                  1,
	}
	o := NewOptions(
		OptionPair{"commitlog_sync", Set("batch")},
		OptionPair{"commitlog_sync_period_in_ms", Unset()},
		OptionPair{"hinted_handoff_enabled", Set(false)},
	)

	got := o.Merge(defaults)
	want := map[string]any{
		"commitlog_sync":         "batch",
		"num_tokens":             1,
		"hinted_handoff_enabled": false,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %v, want %v", got, want)
	}
	if defaults["commitlog_sync"] != "periodic" {
		t.Error("Merge() must not modify defaults")
	}
}

func TestOptions_Clone(t *testing.T) {
	o := NewOptions(OptionPair{"a", Set(1)})
	c := o.Clone()
	c.Put("a", Set(2))

	v, _ := o.Get("a")
	if got, _ := v.Value(); got != 1 {
		t.Errorf("original changed to %v after modifying clone", got)
	}
}

func TestOptions_YAMLRoundTrip(t *testing.T) {
	o := NewOptions(
		OptionPair{"start_native_transport", Set(true)},
		OptionPair{"commitlog_sync_period_in_ms", Unset()},
		OptionPair{"num_tokens", Set(256)},
		OptionPair{"endpoint_snitch", Set(PropertyFileSnitch)},
	)

	type holder struct {
		Options Options `yaml:"config_options"`
	}
	data, err := yaml.Marshal(holder{Options: o})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var back holder
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !reflect.DeepEqual(back.Options.Pairs(), o.Pairs()) {
		t.Errorf("round trip = %v, want %v\n%s", back.Options.Pairs(), o.Pairs(), data)
	}
}

func TestOptions_UnmarshalNull(t *testing.T) {
	var h struct {
		Options Options `yaml:"config_options"`
	}
	if err := yaml.Unmarshal([]byte("config_options: null\n"), &h); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if h.Options.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Options.Len())
	}
}

func TestOptionValue_String(t *testing.T) {
	if got := Unset().String(); got != "<unset>" {
		t.Errorf("Unset().String() = %q", got)
	}
	if got := Set(32).String(); got != "32" {
		t.Errorf("Set(32).String() = %q", got)
	}
}
