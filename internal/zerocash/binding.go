// binding.go - Binds a proof to the transaction metadata it authorizes.
//
// The external data is serialized in a fixed order (32-byte identities raw,
// integers little-endian, byte vectors with a u32 little-endian length prefix),
// hashed with SHA-256, and compared in the BN254 scalar field against the hash
// the proof commits to.

package zerocash

import (
	"bytes"
	"encoding/binary"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/minio/sha256-simd"
)

type extDataEncoder struct {
	buf bytes.Buffer
}

func (e *extDataEncoder) pubkey(p Pubkey) { e.buf.Write(p[:]) }

func (e *extDataEncoder) i64(v int64) {
	e.buf.Write(binary.LittleEndian.AppendUint64(nil, uint64(v)))
}

func (e *extDataEncoder) u64(v uint64) {
	e.buf.Write(binary.LittleEndian.AppendUint64(nil, v))
}

func (e *extDataEncoder) bytes(b []byte) {
	e.buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(b))))
	e.buf.Write(b)
}

func (e *extDataEncoder) sum() [32]byte { return sha256.Sum256(e.buf.Bytes()) }

// ExtDataHash hashes the single-asset external data together with the
// encrypted outputs and both asset identities.
func ExtDataHash(d ExtData, encryptedOutput []byte, mintA, mintB Pubkey) [32]byte {
	var e extDataEncoder
	e.pubkey(d.Recipient)
	e.i64(d.ExtAmount)
	e.bytes(encryptedOutput)
	e.u64(d.Fee)
	e.pubkey(d.FeeRecipient)
	e.pubkey(mintA)
	e.pubkey(mintB)
	return e.sum()
}

// SwapExtDataHash hashes the swap external data. Swaps carry no recipient;
// the output stays in the pool.
func SwapExtDataHash(d SwapExtData, encryptedOutput []byte, mintA, mintB Pubkey) [32]byte {
	var e extDataEncoder
	e.i64(d.ExtAmount)
	e.i64(d.ExtMinAmountOut)
	e.bytes(encryptedOutput)
	e.u64(d.Fee)
	e.pubkey(d.FeeRecipient)
	e.pubkey(mintA)
	e.pubkey(mintB)
	return e.sum()
}

// VerifyBinding compares a locally computed digest (read little-endian) with
// the proof's claimed hash (read big-endian), both reduced mod r.
func VerifyBinding(computed, claimed [32]byte) bool {
	local := BindingElement(computed)
	var remote fr.Element
	remote.SetBytes(claimed[:])
	return local.Equal(&remote)
}

// BindingElement reduces a digest, read little-endian, into the scalar field.
func BindingElement(digest [32]byte) fr.Element {
	var be [32]byte
	for i := range digest {
		be[i] = digest[31-i]
	}
	var e fr.Element
	e.SetBytes(be[:])
	return e
}

// BindingValue returns the canonical big-endian public input a client must
// place in CompressedProof.ExtDataHash for the given digest.
func BindingValue(digest [32]byte) [32]byte {
	e := BindingElement(digest)
	return e.Bytes()
}
