package zerocash

import (
	"fmt"
	"sync"
)

// Default fee policy.
const (
	DefaultDepositFeeRate    uint16 = 0
	DefaultWithdrawalFeeRate uint16 = 25
	DefaultFeeErrorMargin    uint16 = 500
)

// FeePolicy is an immutable snapshot of the fee parameters, in basis points.
type FeePolicy struct {
	DepositFeeRate    uint16
	WithdrawalFeeRate uint16
	FeeErrorMargin    uint16
}

// Validate rejects any rate or margin above 10000 basis points.
func (p FeePolicy) Validate() error {
	fields := []struct {
		name  string
		value uint16
	}{
		{"deposit_fee_rate", p.DepositFeeRate},
		{"withdrawal_fee_rate", p.WithdrawalFeeRate},
		{"fee_error_margin", p.FeeErrorMargin},
	}
	for _, f := range fields {
		if f.value > BasisPoints {
			return fmt.Errorf("%w: %s = %d", ErrInvalidFeeRate, f.name, f.value)
		}
	}
	return nil
}

// GlobalConfig holds the pool-wide fee policy and the identity allowed to
// change it. Bump seeds the delegated signer used for custody and exchange calls.
type GlobalConfig struct {
	mu        sync.RWMutex
	policy    FeePolicy
	authority Pubkey
	bump      uint8
}

// NewGlobalConfig validates policy and returns a config owned by authority.
func NewGlobalConfig(authority Pubkey, bump uint8, policy FeePolicy) (*GlobalConfig, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &GlobalConfig{policy: policy, authority: authority, bump: bump}, nil
}

// DefaultFeePolicy returns the policy a freshly initialized pool starts with.
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		DepositFeeRate:    DefaultDepositFeeRate,
		WithdrawalFeeRate: DefaultWithdrawalFeeRate,
		FeeErrorMargin:    DefaultFeeErrorMargin,
	}
}

// Policy returns the current fee policy.
func (c *GlobalConfig) Policy() FeePolicy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.policy
}

func (c *GlobalConfig) Authority() Pubkey { return c.authority }

func (c *GlobalConfig) Bump() uint8 { return c.bump }

// SignerIdentity is the delegated authority derived from ("global_config", bump).
// It owns the pool reserves and signs exchange calls.
func (c *GlobalConfig) SignerIdentity() Pubkey {
	return DeriveAddress([]byte("global_config"), []byte{c.bump})
}

// SetFeePolicy updates the fields that are non-nil. Only the authority may call
// it and the update is all-or-nothing.
func (c *GlobalConfig) SetFeePolicy(signer Pubkey, depositRate, withdrawalRate, margin *uint16) error {
	if signer != c.authority {
		return ErrUnauthorized
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.policy
	if depositRate != nil {
		next.DepositFeeRate = *depositRate
	}
	if withdrawalRate != nil {
		next.WithdrawalFeeRate = *withdrawalRate
	}
	if margin != nil {
		next.FeeErrorMargin = *margin
	}
	if err := next.Validate(); err != nil {
		return err
	}
	c.policy = next
	return nil
}
