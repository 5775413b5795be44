// Package token computes partition tokens on the database hash ring.
//
// Two ring layouts are supported:
//
//   - Murmur3: a signed 64-bit ring, [-2^63, 2^63)
//   - Random (legacy): an unsigned 127-bit ring, [0, 2^127)
//
// Allocate spreads N nodes evenly over a ring. The spacing is computed
// with truncating integer division before multiplication, so when N does
// not divide the ring size the last range is slightly larger than the
// others. Generated topologies depend on these exact values.
//
// ForKey hashes a partition key onto a ring and Ring maps a token to the
// node owning it.
package token
