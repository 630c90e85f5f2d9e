// types.go - Wire and domain types shared by the pool pipeline.

package zerocash

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Pubkey is an opaque 32-byte ledger identity (account, asset, authority).
// It is printed and parsed in base58.
type Pubkey [32]byte

// ParsePubkey decodes a base58 identity.
func ParsePubkey(s string) (Pubkey, error) {
	var p Pubkey
	b, err := base58.Decode(s)
	if err != nil {
		return p, fmt.Errorf("invalid pubkey %q: %w", s, err)
	}
	if len(b) != len(p) {
		return p, fmt.Errorf("invalid pubkey %q: %d bytes", s, len(b))
	}
	copy(p[:], b)
	return p, nil
}

// MustParsePubkey is ParsePubkey for constants; it panics on error.
func MustParsePubkey(s string) Pubkey {
	p, err := ParsePubkey(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pubkey) String() string { return base58.Encode(p[:]) }

// IsZero reports whether p is the all-zero identity.
func (p Pubkey) IsZero() bool { return p == Pubkey{} }

func (p Pubkey) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Pubkey) UnmarshalText(text []byte) error {
	parsed, err := ParsePubkey(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// CompressedProof is the proof plus its public inputs as submitted by a client.
// ProofA carries the negated A point.
type CompressedProof struct {
	Root              [32]byte
	PublicAmount0     [32]byte
	PublicAmount1     [32]byte
	ExtDataHash       [32]byte
	InputNullifiers   [2][32]byte
	OutputCommitments [2][32]byte
	ProofA            [32]byte
	ProofB            [64]byte
	ProofC            [32]byte
}

// ExtData is the external data a single-asset proof is bound to.
type ExtData struct {
	Recipient    Pubkey
	ExtAmount    int64
	Fee          uint64
	FeeRecipient Pubkey
}

// ExtDataMinified is the client-supplied part of ExtData. Recipient and fee
// recipient always come from the trusted transaction context.
type ExtDataMinified struct {
	ExtAmount int64
	Fee       uint64
}

// FromMinified rebuilds ExtData from the wire form and the context identities.
func (m ExtDataMinified) FromMinified(recipient, feeRecipient Pubkey) ExtData {
	return ExtData{
		Recipient:    recipient,
		ExtAmount:    m.ExtAmount,
		Fee:          m.Fee,
		FeeRecipient: feeRecipient,
	}
}

// SwapExtData is the external data a swap proof is bound to.
type SwapExtData struct {
	ExtAmount       int64
	ExtMinAmountOut int64
	Fee             uint64
	FeeRecipient    Pubkey
}

// SwapExtDataMinified is the client-supplied part of SwapExtData.
type SwapExtDataMinified struct {
	ExtAmount       int64
	ExtMinAmountOut int64
	Fee             uint64
}

// FromMinified rebuilds SwapExtData from the wire form and the fee recipient.
func (m SwapExtDataMinified) FromMinified(feeRecipient Pubkey) SwapExtData {
	return SwapExtData{
		ExtAmount:       m.ExtAmount,
		ExtMinAmountOut: m.ExtMinAmountOut,
		Fee:             m.Fee,
		FeeRecipient:    feeRecipient,
	}
}
