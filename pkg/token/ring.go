package token

import (
	"fmt"
	"math/big"
	"sort"
)

// Ring maps tokens to owning nodes.
type Ring struct {
	entries []ringEntry
}

type ringEntry struct {
	token *big.Int
	owner string
}

// NewRing builds a ring from owner → token assignments given as base 10
// strings. Owners with an empty token are ignored.
func NewRing(assignments map[string]string) (*Ring, error) {
	r := &Ring{}
	for owner, s := range assignments {
		if s == "" {
			continue
		}
		t, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("token: %s has malformed token %q", owner, s)
		}
		r.entries = append(r.entries, ringEntry{token: t, owner: owner})
	}
	sort.Slice(r.entries, func(i, j int) bool {
		if c := r.entries[i].token.Cmp(r.entries[j].token); c != 0 {
			return c < 0
		}
		return r.entries[i].owner < r.entries[j].owner
	})
	return r, nil
}

// Len returns the number of tokens on the ring.
func (r *Ring) Len() int {
	return len(r.entries)
}

// Owner returns the node owning t: the first node whose token is >= t,
// wrapping around to the smallest token. It returns "" on an empty ring.
func (r *Ring) Owner(t *big.Int) string {
	if len(r.entries) == 0 {
		return ""
	}
	i := sort.Search(len(r.entries), func(i int) bool {
		return r.entries[i].token.Cmp(t) >= 0
	})
	if i == len(r.entries) {
		i = 0
	}
	return r.entries[i].owner
}
