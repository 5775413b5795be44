package token

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Scheme selects the ring layout used for token assignment.
type Scheme int

const (
	// SchemeNone disables automatic token assignment (custom partitioners).
	SchemeNone Scheme = iota
	// SchemeMurmur3 is the signed 64-bit ring.
	SchemeMurmur3
	// SchemeRandom is the legacy unsigned 127-bit ring.
	SchemeRandom
)

// String returns the scheme name.
func (s Scheme) String() string {
	switch s {
	case SchemeMurmur3:
		return "murmur3"
	case SchemeRandom:
		return "random"
	default:
		return "none"
	}
}

// ErrInvalidCount is returned when fewer than one token is requested.
var ErrInvalidCount = errors.New("token: node count must be at least 1")

var (
	two64  = new(big.Int).Lsh(big.NewInt(1), 64)
	two63  = new(big.Int).Lsh(big.NewInt(1), 63)
	two127 = new(big.Int).Lsh(big.NewInt(1), 127)
)

// Allocate returns nodeCount evenly spaced tokens in increasing order.
func Allocate(nodeCount int, scheme Scheme) ([]*big.Int, error) {
	if nodeCount < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, nodeCount)
	}

	var ringSize, offset *big.Int
	switch scheme {
	case SchemeMurmur3:
		ringSize, offset = two64, two63
	case SchemeRandom:
		ringSize, offset = two127, new(big.Int)
	default:
		return nil, fmt.Errorf("token: scheme %s does not support allocation", scheme)
	}

	step := new(big.Int).Quo(ringSize, big.NewInt(int64(nodeCount)))
	tokens := make([]*big.Int, nodeCount)
	for i := range tokens {
		t := new(big.Int).Mul(big.NewInt(int64(i)), step)
		tokens[i] = t.Sub(t, offset)
	}
	return tokens, nil
}

// Strings renders tokens in base 10.
func Strings(tokens []*big.Int) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.String()
	}
	return out
}

// SchemeFor picks the allocation scheme for a partitioner class name and
// database version. An empty partitioner means the database default, which
// is Murmur3 from 1.2 onwards. Unknown partitioner classes get SchemeNone:
// the caller must supply tokens or rely on randomized tokens.
func SchemeFor(partitioner string, atLeast12 bool) Scheme {
	switch {
	case partitioner == "":
		if atLeast12 {
			return SchemeMurmur3
		}
		return SchemeRandom
	case strings.HasSuffix(partitioner, "Murmur3Partitioner"):
		return SchemeMurmur3
	case strings.HasSuffix(partitioner, "RandomPartitioner"):
		return SchemeRandom
	default:
		return SchemeNone
	}
}
