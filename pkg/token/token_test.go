package token

import (
	"errors"
	"math/big"
	"reflect"
	"testing"
)

func TestAllocate_Murmur3FourNodes(t *testing.T) {
	tokens, err := Allocate(4, SchemeMurmur3)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	want := []string{
		"-9223372036854775808",
		"-4611686018427387904",
		"0",
		"4611686018427387904",
	}
	if got := Strings(tokens); !reflect.DeepEqual(got, want) {
		t.Errorf("Allocate(4, murmur3) = %v, want %v", got, want)
	}
}

func TestAllocate_TruncatesSpacing(t *testing.T) {
	tests := []struct {
		name   string
		scheme Scheme
		want   []string
	}{
		{
			name:   "murmur3",
			scheme: SchemeMurmur3,
			want:   []string{"-9223372036854775808", "-3074457345618258603", "3074457345618258602"},
		},
		{
			name:   "random",
			scheme: SchemeRandom,
			want: []string{
				"0",
				"56713727820156410577229101238628035242",
				"113427455640312821154458202477256070484",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Allocate(3, tt.scheme)
			if err != nil {
				t.Fatalf("Allocate() error = %v", err)
			}
			if got := Strings(tokens); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Allocate(3) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllocate_StrictlyIncreasingWithinRing(t *testing.T) {
	minMurmur := new(big.Int).Neg(two63)
	for _, scheme := range []Scheme{SchemeMurmur3, SchemeRandom} {
		for n := 1; n <= 64; n++ {
			tokens, err := Allocate(n, scheme)
			if err != nil {
				t.Fatalf("Allocate(%d, %s) error = %v", n, scheme, err)
			}
			if len(tokens) != n {
				t.Fatalf("Allocate(%d, %s) returned %d tokens", n, scheme, len(tokens))
			}
			for i := 1; i < n; i++ {
				if tokens[i].Cmp(tokens[i-1]) <= 0 {
					t.Fatalf("Allocate(%d, %s): token %d not greater than token %d", n, scheme, i, i-1)
				}
			}
			lo, hi := new(big.Int), two127
			if scheme == SchemeMurmur3 {
				lo, hi = minMurmur, two63
			}
			if tokens[0].Cmp(lo) != 0 {
				t.Errorf("Allocate(%d, %s) first token = %s, want %s", n, scheme, tokens[0], lo)
			}
			if tokens[n-1].Cmp(hi) >= 0 {
				t.Errorf("Allocate(%d, %s) last token %s outside ring", n, scheme, tokens[n-1])
			}
		}
	}
}

func TestAllocate_Deterministic(t *testing.T) {
	a, _ := Allocate(7, SchemeMurmur3)
	b, _ := Allocate(7, SchemeMurmur3)
	if !reflect.DeepEqual(Strings(a), Strings(b)) {
		t.Error("Allocate() is not deterministic")
	}
}

func TestAllocate_InvalidCount(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := Allocate(n, SchemeMurmur3); !errors.Is(err, ErrInvalidCount) {
			t.Errorf("Allocate(%d) error = %v, want ErrInvalidCount", n, err)
		}
	}
	if _, err := Allocate(3, SchemeNone); err == nil {
		t.Error("Allocate() with SchemeNone should fail")
	}
}

func TestSchemeFor(t *testing.T) {
	tests := []struct {
		partitioner string
		atLeast12   bool
		want        Scheme
	}{
		{"", true, SchemeMurmur3},
		{"", false, SchemeRandom},
		{"org.apache.cassandra.dht.Murmur3Partitioner", false, SchemeMurmur3},
		{"org.apache.cassandra.dht.RandomPartitioner", true, SchemeRandom},
		{"org.apache.cassandra.dht.ByteOrderedPartitioner", true, SchemeNone},
	}

	for _, tt := range tests {
		if got := SchemeFor(tt.partitioner, tt.atLeast12); got != tt.want {
			t.Errorf("SchemeFor(%q, %v) = %s, want %s", tt.partitioner, tt.atLeast12, got, tt.want)
		}
	}
}

func TestForKey(t *testing.T) {
	for _, scheme := range []Scheme{SchemeMurmur3, SchemeRandom} {
		a, err := ForKey(scheme, []byte("user:42"))
		if err != nil {
			t.Fatalf("ForKey(%s) error = %v", scheme, err)
		}
		b, _ := ForKey(scheme, []byte("user:42"))
		if a.Cmp(b) != 0 {
			t.Errorf("ForKey(%s) is not deterministic", scheme)
		}
		c, _ := ForKey(scheme, []byte("user:43"))
		if a.Cmp(c) == 0 {
			t.Errorf("ForKey(%s) returned the same token for different keys", scheme)
		}
	}

	r, _ := ForKey(SchemeRandom, []byte("anything"))
	if r.Sign() < 0 || r.Cmp(two127) > 0 {
		t.Errorf("random token %s outside [0, 2^127]", r)
	}

	if _, err := ForKey(SchemeNone, []byte("k")); err == nil {
		t.Error("ForKey(SchemeNone) should fail")
	}
}

func TestRing_Owner(t *testing.T) {
	ring, err := NewRing(map[string]string{
		"node1": "-100",
		"node2": "0",
		"node3": "100",
		"node4": "",
	})
	if err != nil {
		t.Fatalf("NewRing() error = %v", err)
	}
	if ring.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ring.Len())
	}

	tests := []struct {
		token int64
		want  string
	}{
		{-200, "node1"},
		{-100, "node1"},
		{-99, "node2"},
		{0, "node2"},
		{50, "node3"},
		{101, "node1"},
	}
	for _, tt := range tests {
		if got := ring.Owner(big.NewInt(tt.token)); got != tt.want {
			t.Errorf("Owner(%d) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestRing_Malformed(t *testing.T) {
	if _, err := NewRing(map[string]string{"node1": "12x"}); err == nil {
		t.Error("NewRing() should reject malformed tokens")
	}
	empty, _ := NewRing(nil)
	if got := empty.Owner(big.NewInt(1)); got != "" {
		t.Errorf("Owner() on empty ring = %q", got)
	}
}
