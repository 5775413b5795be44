package token

import (
	"crypto/md5"
	"fmt"
	"math"
	"math/big"

	"github.com/spaolacci/murmur3"
)

// ForKey returns the token of a partition key on the given ring.
//
// For Murmur3 the token is the first 64-bit word of MurmurHash3 x64-128
// (seed 0) read as a signed integer, with math.MinInt64 folded to
// math.MaxInt64 as the database does. Keys containing bytes >= 0x80 hash
// differently in some database releases.
func ForKey(scheme Scheme, key []byte) (*big.Int, error) {
	switch scheme {
	case SchemeMurmur3:
		h1, _ := murmur3.Sum128(key)
		v := int64(h1)
		if v == math.MinInt64 {
			v = math.MaxInt64
		}
		return big.NewInt(v), nil
	case SchemeRandom:
		sum := md5.Sum(key)
		v := new(big.Int).SetBytes(sum[:])
		// The digest is read as a two's complement number.
		if sum[0]&0x80 != 0 {
			v.Sub(v, new(big.Int).Lsh(big.NewInt(1), 128))
		}
		return v.Abs(v), nil
	default:
		return nil, fmt.Errorf("token: scheme %s cannot hash keys", scheme)
	}
}
