// verifying_key.go - The production Groth16 verifying key (BN254, 10 public inputs).
//
// Points are stored uncompressed and big-endian: G1 as x || y, G2 as
// x.c1 || x.c0 || y.c1 || y.c0.

package zerocash

import (
	"fmt"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254"
)

// NumPublicInputs is the width of the pool circuit's public input vector.
const NumPublicInputs = 10

var vkAlphaG1 = []byte{
	0x2d, 0x4d, 0x9a, 0xa7, 0xe3, 0x02, 0xd9, 0xdf, 0x41, 0x74, 0x9d, 0x55, 0x07, 0x94, 0x9d, 0x05,
	0xdb, 0xea, 0x33, 0xfb, 0xb1, 0x6c, 0x64, 0x3b, 0x22, 0xf5, 0x99, 0xa2, 0xbe, 0x6d, 0xf2, 0xe2,
	0x14, 0xbe, 0xdd, 0x50, 0x3c, 0x37, 0xce, 0xb0, 0x61, 0xd8, 0xec, 0x60, 0x20, 0x9f, 0xe3, 0x45,
	0xce, 0x89, 0x83, 0x0a, 0x19, 0x23, 0x03, 0x01, 0xf0, 0x76, 0xca, 0xff, 0x00, 0x4d, 0x19, 0x26,
}

var vkBetaG2 = []byte{
	0x09, 0x67, 0x03, 0x2f, 0xcb, 0xf7, 0x76, 0xd1, 0xaf, 0xc9, 0x85, 0xf8, 0x88, 0x77, 0xf1, 0x82,
	0xd3, 0x84, 0x80, 0xa6, 0x53, 0xf2, 0xde, 0xca, 0xa9, 0x79, 0x4c, 0xbc, 0x3b, 0xf3, 0x06, 0x0c,
	0x0e, 0x18, 0x78, 0x47, 0xad, 0x4c, 0x79, 0x83, 0x74, 0xd0, 0xd6, 0x73, 0x2b, 0xf5, 0x01, 0x84,
	0x7d, 0xd6, 0x8b, 0xc0, 0xe0, 0x71, 0x24, 0x1e, 0x02, 0x13, 0xbc, 0x7f, 0xc1, 0x3d, 0xb7, 0xab,
	0x30, 0x4c, 0xfb, 0xd1, 0xe0, 0x8a, 0x70, 0x4a, 0x99, 0xf5, 0xe8, 0x47, 0xd9, 0x3f, 0x8c, 0x3c,
	0xaa, 0xfd, 0xde, 0xc4, 0x6b, 0x7a, 0x0d, 0x37, 0x9d, 0xa6, 0x9a, 0x4d, 0x11, 0x23, 0x46, 0xa7,
	0x17, 0x39, 0xc1, 0xb1, 0xa4, 0x57, 0xa8, 0xc7, 0x31, 0x31, 0x23, 0xd2, 0x4d, 0x2f, 0x91, 0x92,
	0xf8, 0x96, 0xb7, 0xc6, 0x3e, 0xea, 0x05, 0xa9, 0xd5, 0x7f, 0x06, 0x54, 0x7a, 0xd0, 0xce, 0xc8,
}

var vkGammaG2 = []byte{
	0x19, 0x8e, 0x93, 0x93, 0x92, 0x0d, 0x48, 0x3a, 0x72, 0x60, 0xbf, 0xb7, 0x31, 0xfb, 0x5d, 0x25,
	0xf1, 0xaa, 0x49, 0x33, 0x35, 0xa9, 0xe7, 0x12, 0x97, 0xe4, 0x85, 0xb7, 0xae, 0xf3, 0x12, 0xc2,
	0x18, 0x00, 0xde, 0xef, 0x12, 0x1f, 0x1e, 0x76, 0x42, 0x6a, 0x00, 0x66, 0x5e, 0x5c, 0x44, 0x79,
	0x67, 0x43, 0x22, 0xd4, 0xf7, 0x5e, 0xda, 0xdd, 0x46, 0xde, 0xbd, 0x5c, 0xd9, 0x92, 0xf6, 0xed,
	0x09, 0x06, 0x89, 0xd0, 0x58, 0x5f, 0xf0, 0x75, 0xec, 0x9e, 0x99, 0xad, 0x69, 0x0c, 0x33, 0x95,
	0xbc, 0x4b, 0x31, 0x33, 0x70, 0xb3, 0x8e, 0xf3, 0x55, 0xac, 0xda, 0xdc, 0xd1, 0x22, 0x97, 0x5b,
	0x12, 0xc8, 0x5e, 0xa5, 0xdb, 0x8c, 0x6d, 0xeb, 0x4a, 0xab, 0x71, 0x80, 0x8d, 0xcb, 0x40, 0x8f,
	0xe3, 0xd1, 0xe7, 0x69, 0x0c, 0x43, 0xd3, 0x7b, 0x4c, 0xe6, 0xcc, 0x01, 0x66, 0xfa, 0x7d, 0xaa,
}

var vkDeltaG2 = []byte{
	0x0e, 0x9e, 0xcd, 0x71, 0xc4, 0xd2, 0xbc, 0x09, 0xb2, 0x99, 0xee, 0x0e, 0x56, 0x30, 0x7f, 0x67,
	0x32, 0x5b, 0x4e, 0xd7, 0x5e, 0xe6, 0x25, 0xbf, 0xc6, 0x0e, 0xa7, 0x1e, 0xe6, 0xd5, 0x2d, 0xbd,
	0x13, 0x89, 0x0d, 0x62, 0x95, 0xa0, 0xdd, 0x4c, 0x40, 0x3e, 0xbc, 0x9b, 0x06, 0xd6, 0xbc, 0x9b,
	0xd7, 0x79, 0xb1, 0x32, 0x49, 0xad, 0xc6, 0xfe, 0xe7, 0xce, 0xf3, 0x7e, 0x0f, 0x16, 0xf5, 0x95,
	0x15, 0x62, 0x81, 0xaa, 0x48, 0x44, 0x9b, 0x7a, 0x4a, 0xda, 0x5e, 0x2d, 0xa6, 0x5b, 0x1f, 0xe1,
	0xb2, 0x7f, 0xe4, 0x76, 0xcb, 0x1a, 0x1e, 0xf7, 0xe5, 0x64, 0x05, 0xac, 0x4c, 0x35, 0x27, 0xef,
	0x12, 0x06, 0x85, 0x42, 0x73, 0x21, 0x66, 0x52, 0x36, 0xfd, 0xde, 0x3b, 0x96, 0xca, 0x26, 0x6a,
	0x48, 0x40, 0x2d, 0x8e, 0x4b, 0xfb, 0xe0, 0x81, 0x18, 0x7f, 0x5b, 0x41, 0xbf, 0x58, 0x54, 0xa1,
}

var vkIC = [][]byte{
	{
		0x1c, 0xa0, 0xd3, 0xb9, 0x9b, 0x5a, 0x36, 0x07, 0x5f, 0x33, 0x99, 0xf0, 0x7b, 0x61, 0x42, 0xda,
		0xf0, 0x0e, 0x2c, 0x2b, 0x7c, 0x46, 0xe2, 0x72, 0x9e, 0x86, 0x72, 0x27, 0x1e, 0x31, 0x02, 0xe8,
		0x0e, 0x1b, 0x6e, 0x75, 0x02, 0x25, 0x8d, 0x6a, 0x83, 0xfc, 0x46, 0xe5, 0x2c, 0xdb, 0x25, 0x36,
		0x44, 0x5f, 0xa4, 0xfb, 0x52, 0x42, 0x72, 0x11, 0xfd, 0x9e, 0xc5, 0x55, 0x5b, 0x2a, 0x6b, 0x57,
	},
	{
		0x08, 0x06, 0x9c, 0xeb, 0x79, 0xb9, 0x28, 0xc6, 0x6d, 0x70, 0x88, 0xab, 0x71, 0x0c, 0xc3, 0x46,
		0x52, 0x53, 0xc5, 0xb9, 0xc9, 0xb6, 0x29, 0xbd, 0xf7, 0x70, 0x51, 0xdc, 0xad, 0x7d, 0x16, 0x12,
		0x11, 0x6e, 0x68, 0x92, 0x11, 0x73, 0x26, 0x4b, 0x34, 0x64, 0x9c, 0x7a, 0x45, 0xb0, 0x51, 0xb9,
		0x7c, 0x4a, 0x60, 0xc2, 0x7e, 0xc6, 0x58, 0x13, 0x9f, 0x5a, 0xa8, 0x78, 0x2e, 0xfb, 0x38, 0x6e,
	},
	{
		0x2e, 0xc9, 0xb1, 0x3f, 0xe4, 0xc7, 0x7e, 0x2b, 0x76, 0x3f, 0x0b, 0x0a, 0x38, 0xb6, 0xe7, 0x76,
		0x37, 0xc6, 0x2a, 0xaa, 0xc5, 0x64, 0xd0, 0x08, 0x4c, 0xab, 0xde, 0x53, 0x30, 0xb4, 0xe7, 0x7c,
		0x28, 0xfd, 0x8a, 0x5f, 0xa1, 0x76, 0xf9, 0x41, 0x2c, 0x0f, 0x26, 0xbf, 0xc0, 0xb8, 0x93, 0x32,
		0xd5, 0xbb, 0xca, 0x87, 0x0e, 0x51, 0x0d, 0xb1, 0x9d, 0xdd, 0x3b, 0xdc, 0x8b, 0xc0, 0x44, 0xde,
	},
	{
		0x07, 0x51, 0x1c, 0x74, 0x4f, 0xed, 0xa4, 0xfe, 0x21, 0x65, 0x9e, 0x3a, 0x77, 0x46, 0xc9, 0xa4,
		0x30, 0x3c, 0xd8, 0x17, 0xf3, 0xf7, 0x73, 0x84, 0x12, 0x60, 0x37, 0xbc, 0x76, 0x15, 0x5e, 0xe3,
		0x23, 0x65, 0x25, 0x9f, 0x1d, 0xe2, 0x26, 0x6b, 0xed, 0xe5, 0x7d, 0xa4, 0xba, 0xda, 0xad, 0x8a,
		0xd2, 0xc1, 0xcb, 0x8f, 0x02, 0x3a, 0xe5, 0xd7, 0x3f, 0x86, 0x4e, 0x14, 0x9c, 0x69, 0x28, 0xfe,
	},
	{
		0x0d, 0x44, 0x2e, 0x2c, 0xa2, 0x26, 0x4f, 0x1d, 0xf8, 0x18, 0x8b, 0x74, 0x7d, 0xed, 0x16, 0xaf,
		0x2b, 0xc0, 0x6f, 0x0b, 0xe2, 0x02, 0xb7, 0x3d, 0xf8, 0x01, 0x92, 0x8c, 0xe4, 0x62, 0xc6, 0x77,
		0x1c, 0x31, 0x62, 0xb2, 0x1c, 0x93, 0x1d, 0xf6, 0x68, 0xe5, 0xb5, 0x52, 0xe8, 0x61, 0xab, 0xb6,
		0x4c, 0x78, 0xf2, 0x78, 0xae, 0x85, 0x7f, 0x00, 0x03, 0x14, 0x75, 0x6d, 0xf1, 0x20, 0x69, 0x01,
	},
	{
		0x09, 0xff, 0x09, 0xe4, 0x2e, 0xea, 0x35, 0x7c, 0xb5, 0xbd, 0xa8, 0x18, 0x5b, 0x2f, 0xee, 0x63,
		0xa6, 0xa6, 0x59, 0x37, 0x6c, 0x2c, 0x80, 0x44, 0x44, 0xa6, 0x1a, 0x2f, 0x70, 0x68, 0x99, 0xc7,
		0x1a, 0x9e, 0x09, 0xb5, 0x05, 0xbd, 0xd9, 0x09, 0x41, 0x7b, 0xec, 0xbc, 0x6c, 0x64, 0xa6, 0xd4,
		0xb9, 0xd7, 0x6c, 0xbb, 0x86, 0x39, 0x15, 0x0d, 0x26, 0x00, 0x9b, 0xf7, 0x79, 0xda, 0x36, 0x8d,
	},
	{
		0x2c, 0x78, 0xef, 0x5f, 0xcc, 0x4b, 0x10, 0x4a, 0x94, 0xb8, 0x88, 0x79, 0x8c, 0x4e, 0x6a, 0x1d,
		0x66, 0xc1, 0xa6, 0xd2, 0x67, 0x33, 0x19, 0x90, 0xdc, 0x31, 0x65, 0xce, 0xf4, 0x4b, 0xfd, 0xf1,
		0x1b, 0x80, 0x34, 0x4a, 0x38, 0x93, 0xed, 0x43, 0x77, 0xba, 0xd6, 0x28, 0x1f, 0x35, 0x1c, 0x8d,
		0xf8, 0xbc, 0x5b, 0xc0, 0xb0, 0xad, 0x3c, 0x6c, 0x9e, 0xc8, 0xd0, 0x0b, 0x6d, 0xca, 0x19, 0x1e,
	},
	{
		0x08, 0x4a, 0xc9, 0x3e, 0xe7, 0x5b, 0x26, 0x6c, 0x91, 0x33, 0x4c, 0x25, 0x54, 0xa0, 0xca, 0xb6,
		0xad, 0xcc, 0x7c, 0x70, 0x78, 0xb2, 0x8d, 0xac, 0x49, 0x6d, 0x31, 0xcf, 0x36, 0xd3, 0xb2, 0xe3,
		0x16, 0xf5, 0x4f, 0x30, 0x38, 0x58, 0x5d, 0xb9, 0xeb, 0x78, 0x02, 0x8c, 0xc5, 0xa1, 0x3b, 0x6d,
		0x85, 0xd7, 0x0f, 0x6e, 0xe4, 0x6b, 0x13, 0x28, 0xc4, 0xa8, 0x7c, 0xa4, 0xa2, 0xd6, 0x51, 0x4a,
	},
	{
		0x06, 0xbf, 0x83, 0xd3, 0x0d, 0xd9, 0x60, 0xfa, 0x7a, 0xf3, 0x1b, 0xc0, 0xea, 0xd8, 0x52, 0x40,
		0x12, 0xff, 0xc8, 0xef, 0xb7, 0x4f, 0xd9, 0xdb, 0x97, 0x47, 0x38, 0xff, 0x69, 0x25, 0xe5, 0xdc,
		0x19, 0x86, 0x5c, 0x46, 0xd4, 0x12, 0x37, 0x18, 0xfa, 0xa4, 0xd6, 0x64, 0x80, 0x2d, 0xbf, 0xef,
		0xa9, 0x27, 0xc3, 0x47, 0x18, 0x4c, 0xe0, 0x49, 0xbb, 0x7a, 0x78, 0x08, 0x4e, 0x8f, 0x0c, 0xb1,
	},
	{
		0x1f, 0x77, 0xf3, 0x8d, 0xf7, 0xd9, 0x24, 0x89, 0xa6, 0x43, 0xff, 0x60, 0x5a, 0x88, 0x73, 0x63,
		0x71, 0x66, 0xcd, 0x72, 0x40, 0xe4, 0x35, 0x4d, 0x27, 0xbd, 0x87, 0x74, 0x1c, 0x3b, 0x6d, 0xdd,
		0x16, 0x7d, 0x59, 0x34, 0xbe, 0xec, 0xcf, 0x21, 0x5e, 0xd0, 0x42, 0x23, 0xa9, 0xbc, 0xc3, 0xfb,
		0x88, 0x27, 0xad, 0x32, 0x15, 0xf5, 0xa6, 0x02, 0x55, 0xfd, 0xa5, 0x94, 0x9a, 0x5c, 0x9a, 0x7e,
	},
	{
		0x00, 0xf3, 0x4d, 0x11, 0xe8, 0xb6, 0x76, 0x7c, 0xe2, 0xa2, 0xb3, 0xc0, 0xd5, 0x08, 0x80, 0x1f,
		0xf9, 0x74, 0x81, 0xbe, 0x0e, 0x81, 0xbd, 0xc4, 0x65, 0x09, 0x51, 0xa7, 0xfc, 0x58, 0x35, 0xe7,
		0x07, 0x3b, 0xd4, 0x56, 0x23, 0xe6, 0xd1, 0xc1, 0xfa, 0xdb, 0xae, 0x1d, 0xcd, 0x6e, 0x44, 0x34,
		0x47, 0xa6, 0x52, 0xb7, 0xd7, 0x50, 0xad, 0x5d, 0x80, 0x4b, 0x9a, 0x9f, 0x4f, 0xd8, 0x87, 0x91,
	},
}

var (
	defaultVKOnce sync.Once
	defaultVK     *VerifyingKey
	defaultVKErr  error
)

// DefaultVerifyingKey returns the embedded production key. It is parsed once.
func DefaultVerifyingKey() (*VerifyingKey, error) {
	defaultVKOnce.Do(func() {
		defaultVK, defaultVKErr = parseEmbeddedKey()
	})
	return defaultVK, defaultVKErr
}

func parseEmbeddedKey() (*VerifyingKey, error) {
	vk := &VerifyingKey{IC: make([]bn254.G1Affine, len(vkIC))}
	var err error
	if vk.Alpha, err = g1FromUncompressed(vkAlphaG1); err != nil {
		return nil, fmt.Errorf("alpha: %w", err)
	}
	if vk.Beta, err = g2FromUncompressed(vkBetaG2); err != nil {
		return nil, fmt.Errorf("beta: %w", err)
	}
	if vk.Gamma, err = g2FromUncompressed(vkGammaG2); err != nil {
		return nil, fmt.Errorf("gamma: %w", err)
	}
	if vk.Delta, err = g2FromUncompressed(vkDeltaG2); err != nil {
		return nil, fmt.Errorf("delta: %w", err)
	}
	for i, b := range vkIC {
		if vk.IC[i], err = g1FromUncompressed(b); err != nil {
			return nil, fmt.Errorf("ic[%d]: %w", i, err)
		}
	}
	return vk, nil
}
