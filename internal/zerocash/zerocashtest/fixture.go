package zerocashtest

import (
	"encoding/binary"
	"fmt"

	"shieldedpool/internal/merkle"
	"shieldedpool/internal/zerocash"
)

// Key derives a deterministic identity from a label.
func Key(label string) zerocash.Pubkey {
	return zerocash.DeriveAddress([]byte(label))
}

// Field encodes v as a 32-byte big-endian field element.
func Field(v uint64) [32]byte {
	var out [32]byte
	binary.BigEndian.PutUint64(out[24:], v)
	return out
}

// Fixture is a Pool wired to in-memory collaborators and a real verifier.
type Fixture struct {
	Pool      *zerocash.Pool
	Tree      *merkle.Tree
	Config    *zerocash.GlobalConfig
	Ledger    *zerocash.MemoryLedger
	Registry  *zerocash.MemoryRegistry
	Events    *zerocash.EventLog
	Exchange  *zerocash.ConstantProductExchange
	Prover    *Prover
	Authority zerocash.Pubkey
}

// FixtureOptions tunes NewFixture. Zero values pick small defaults.
type FixtureOptions struct {
	Depth            int
	RootHistorySize  int
	MaxDepositAmount uint64
	Policy           *zerocash.FeePolicy
	MaxSwapFee       uint64
}

// NewFixture builds a fresh pool. The prover is shared across fixtures.
func NewFixture(opts FixtureOptions) (*Fixture, error) {
	if opts.Depth == 0 {
		opts.Depth = 8
	}
	if opts.RootHistorySize == 0 {
		opts.RootHistorySize = 4
	}
	if opts.MaxDepositAmount == 0 {
		opts.MaxDepositAmount = 1_000_000_000_000
	}
	policy := zerocash.DefaultFeePolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}

	prover, err := Shared()
	if err != nil {
		return nil, err
	}
	verifier, err := prover.Verifier()
	if err != nil {
		return nil, err
	}

	authority := Key("authority")
	tree, err := merkle.New(merkle.Config{
		Depth:            opts.Depth,
		RootHistorySize:  opts.RootHistorySize,
		MaxDepositAmount: opts.MaxDepositAmount,
		Authority:        authority,
	}, merkle.PoseidonHasher{})
	if err != nil {
		return nil, err
	}
	config, err := zerocash.NewGlobalConfig(authority, 255, policy)
	if err != nil {
		return nil, err
	}

	f := &Fixture{
		Tree:      tree,
		Config:    config,
		Ledger:    zerocash.NewMemoryLedger(),
		Registry:  zerocash.NewMemoryRegistry(),
		Events:    &zerocash.EventLog{},
		Exchange:  &zerocash.ConstantProductExchange{Account: Key("market"), FeeBps: 30},
		Prover:    prover,
		Authority: authority,
	}
	f.Pool, err = zerocash.NewPool(zerocash.PoolParams{
		Tree:       tree,
		Config:     config,
		Verifier:   verifier,
		Registry:   f.Registry,
		Ledger:     f.Ledger,
		Exchange:   f.Exchange,
		Sink:       f.Events,
		MaxSwapFee: opts.MaxSwapFee,
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Notes are the nullifiers spent and commitments created by one transaction.
type Notes struct {
	Nullifiers  [2][32]byte
	Commitments [2][32]byte
}

// NotesFor returns distinct notes derived from seed.
func NotesFor(seed uint64) Notes {
	return Notes{
		Nullifiers:  [2][32]byte{Field(1000 + 2*seed), Field(1001 + 2*seed)},
		Commitments: [2][32]byte{Field(5000 + 2*seed), Field(5001 + 2*seed)},
	}
}

// SingleAssetProof builds a valid proof for a deposit or withdrawal of asset
// against the current root. For deposits ext.Recipient must be the reserve.
func (f *Fixture) SingleAssetProof(ext zerocash.ExtData, encrypted []byte, asset zerocash.Pubkey, notes Notes) (zerocash.CompressedProof, error) {
	var proof zerocash.CompressedProof
	amount, ok := zerocash.EncodePublicAmount(ext.ExtAmount, ext.Fee)
	if !ok {
		return proof, fmt.Errorf("ext amount %d with fee %d has no public amount", ext.ExtAmount, ext.Fee)
	}
	proof.Root = f.Tree.Root()
	proof.PublicAmount0 = amount
	proof.ExtDataHash = zerocash.BindingValue(zerocash.ExtDataHash(ext, encrypted, asset, asset))
	proof.InputNullifiers = notes.Nullifiers
	proof.OutputCommitments = notes.Commitments
	if err := f.Prover.Prove(&proof, asset, asset); err != nil {
		return proof, err
	}
	return proof, nil
}

// SwapProof builds a valid swap proof against the current root.
func (f *Fixture) SwapProof(ext zerocash.SwapExtData, encrypted []byte, assetIn, assetOut zerocash.Pubkey, notes Notes) (zerocash.CompressedProof, error) {
	var proof zerocash.CompressedProof
	amount0, ok := zerocash.EncodePublicAmount(ext.ExtAmount, ext.Fee)
	if !ok {
		return proof, fmt.Errorf("ext amount %d with fee %d has no public amount", ext.ExtAmount, ext.Fee)
	}
	amount1, ok := zerocash.EncodePublicAmount(ext.ExtMinAmountOut, 0)
	if !ok {
		return proof, fmt.Errorf("min amount out %d has no public amount", ext.ExtMinAmountOut)
	}
	proof.Root = f.Tree.Root()
	proof.PublicAmount0 = amount0
	proof.PublicAmount1 = amount1
	proof.ExtDataHash = zerocash.BindingValue(zerocash.SwapExtDataHash(ext, encrypted, assetIn, assetOut))
	proof.InputNullifiers = notes.Nullifiers
	proof.OutputCommitments = notes.Commitments
	if err := f.Prover.Prove(&proof, assetIn, assetOut); err != nil {
		return proof, err
	}
	return proof, nil
}
