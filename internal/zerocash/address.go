package zerocash

import (
	"github.com/minio/sha256-simd"
)

// DeriveAddress deterministically derives an identity from seeds by hashing
// them in order. Seeds are length-prefixed so distinct splits never collide.
func DeriveAddress(seeds ...[]byte) Pubkey {
	h := sha256.New()
	var prefix [2]byte
	for _, s := range seeds {
		prefix[0] = byte(len(s))
		prefix[1] = byte(len(s) >> 8)
		h.Write(prefix[:])
		h.Write(s)
	}
	var out Pubkey
	copy(out[:], h.Sum(nil))
	return out
}
