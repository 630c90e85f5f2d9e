// compress.go - Compact curve point encoding used on the wire.
//
// Points are big-endian x coordinates with two flag bits in the most
// significant byte: 0x80 marks the lexicographically largest y, 0x40 the point
// at infinity. gnark-crypto uses a different flag layout, so points are
// translated on the way in and out.

package zerocash

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254"
)

const (
	flagMask     byte = 0xC0
	flagLargest  byte = 0x80
	flagInfinity byte = 0x40

	gnarkSmallest byte = 0x80
	gnarkLargest  byte = 0xC0
	gnarkInfinity byte = 0x40
)

var errInvalidPointFlags = errors.New("invalid point flags")

func toGnarkFlags(buf []byte) error {
	flags := buf[0] & flagMask
	buf[0] &^= flagMask
	switch flags {
	case 0:
		buf[0] |= gnarkSmallest
	case flagLargest:
		buf[0] |= gnarkLargest
	case flagInfinity:
		buf[0] |= gnarkInfinity
	default:
		return errInvalidPointFlags
	}
	return nil
}

func fromGnarkFlags(buf []byte) {
	flags := buf[0] & flagMask
	buf[0] &^= flagMask
	switch flags {
	case gnarkLargest:
		buf[0] |= flagLargest
	case gnarkInfinity:
		buf[0] |= flagInfinity
	}
}

// DecompressG1 decodes a 32-byte compressed G1 point, checking it lies on the
// curve.
func DecompressG1(in [32]byte) (bn254.G1Affine, error) {
	var p bn254.G1Affine
	buf := in
	if err := toGnarkFlags(buf[:]); err != nil {
		return p, fmt.Errorf("g1: %w", err)
	}
	if _, err := p.SetBytes(buf[:]); err != nil {
		return p, fmt.Errorf("g1: %w", err)
	}
	return p, nil
}

// DecompressG2 decodes a 64-byte compressed G2 point (x.c1 then x.c0),
// checking it lies in the prime-order subgroup.
func DecompressG2(in [64]byte) (bn254.G2Affine, error) {
	var p bn254.G2Affine
	buf := in
	if err := toGnarkFlags(buf[:]); err != nil {
		return p, fmt.Errorf("g2: %w", err)
	}
	if _, err := p.SetBytes(buf[:]); err != nil {
		return p, fmt.Errorf("g2: %w", err)
	}
	return p, nil
}

// CompressG1 is the inverse of DecompressG1.
func CompressG1(p *bn254.G1Affine) [32]byte {
	out := p.Bytes()
	fromGnarkFlags(out[:])
	return out
}

// CompressG2 is the inverse of DecompressG2.
func CompressG2(p *bn254.G2Affine) [64]byte {
	out := p.Bytes()
	fromGnarkFlags(out[:])
	return out
}

// g1FromUncompressed parses x || y, both 32-byte big-endian.
func g1FromUncompressed(b []byte) (bn254.G1Affine, error) {
	var p bn254.G1Affine
	if len(b) != bn254.SizeOfG1AffineUncompressed {
		return p, fmt.Errorf("g1: want %d bytes, got %d", bn254.SizeOfG1AffineUncompressed, len(b))
	}
	if _, err := p.SetBytes(b); err != nil {
		return p, fmt.Errorf("g1: %w", err)
	}
	return p, nil
}

// g2FromUncompressed parses x.c1 || x.c0 || y.c1 || y.c0, each 32-byte big-endian.
func g2FromUncompressed(b []byte) (bn254.G2Affine, error) {
	var p bn254.G2Affine
	if len(b) != bn254.SizeOfG2AffineUncompressed {
		return p, fmt.Errorf("g2: want %d bytes, got %d", bn254.SizeOfG2AffineUncompressed, len(b))
	}
	if _, err := p.SetBytes(b); err != nil {
		return p, fmt.Errorf("g2: %w", err)
	}
	return p, nil
}
