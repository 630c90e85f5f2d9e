// pool.go - Shared transaction pipeline for deposits, withdrawals and swaps.
//
// A transaction is a fixed sequence of pure checks followed by a settlement.
// The checks take no locks and can run concurrently. Settlement holds the pool
// lock and, in order: registers both nullifiers, moves value, appends the two
// output commitments and checkpoints the tree. If any settlement step fails,
// the earlier ones are undone so no partial transaction is ever visible.

package zerocash

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"shieldedpool/internal/merkle"
)

// ProofVerifier decides whether a compressed proof is valid for two assets.
type ProofVerifier interface {
	Verify(p *CompressedProof, mintA, mintB Pubkey) bool
}

// PoolParams wires a Pool. Tree, Config, Verifier, Registry and Ledger are
// required.
type PoolParams struct {
	Tree     *merkle.Tree
	Config   *GlobalConfig
	Verifier ProofVerifier
	Registry Registry
	Ledger   Ledger
	Exchange Exchange
	Sink     EventSink
	Logger   *zap.Logger

	// Checkpoint persists the tree after each append. A failing checkpoint
	// aborts the transaction.
	Checkpoint func(merkle.Record) error

	Namespace Pubkey
	ProgramID Pubkey
	// MaxSwapFee caps the realized swap fee. Zero means uncapped.
	MaxSwapFee uint64
}

// Pool validates and settles shielded transactions.
type Pool struct {
	mu sync.Mutex

	tree       *merkle.Tree
	config     *GlobalConfig
	verifier   ProofVerifier
	registry   Registry
	ledger     Ledger
	exchange   Exchange
	sink       EventSink
	logger     *zap.Logger
	checkpoint func(merkle.Record) error

	namespace  Pubkey
	programID  Pubkey
	maxSwapFee uint64
}

// NewPool checks the required collaborators and fills defaults.
func NewPool(p PoolParams) (*Pool, error) {
	switch {
	case p.Tree == nil:
		return nil, errors.New("pool: nil tree")
	case p.Config == nil:
		return nil, errors.New("pool: nil global config")
	case p.Verifier == nil:
		return nil, errors.New("pool: nil verifier")
	case p.Registry == nil:
		return nil, errors.New("pool: nil nullifier registry")
	case p.Ledger == nil:
		return nil, errors.New("pool: nil ledger")
	}
	pool := &Pool{
		tree:       p.Tree,
		config:     p.Config,
		verifier:   p.Verifier,
		registry:   p.Registry,
		ledger:     p.Ledger,
		exchange:   p.Exchange,
		sink:       p.Sink,
		logger:     p.Logger,
		checkpoint: p.Checkpoint,
		namespace:  p.Namespace,
		programID:  p.ProgramID,
		maxSwapFee: p.MaxSwapFee,
	}
	if pool.logger == nil {
		pool.logger = zap.NewNop()
	}
	if pool.sink == nil {
		pool.sink = MultiSink(nil)
	}
	if pool.namespace.IsZero() {
		pool.namespace = DefaultNamespace
	}
	if pool.programID.IsZero() {
		pool.programID = DefaultProgramID
	}
	return pool, nil
}

func (p *Pool) Tree() *merkle.Tree { return p.tree }
func (p *Pool) Config() *GlobalConfig { return p.config }
func (p *Pool) Logger() *zap.Logger { return p.logger }
func (p *Pool) Exchange() Exchange { return p.exchange }
func (p *Pool) MaxSwapFee() uint64 { return p.maxSwapFee }
func (p *Pool) Namespace() Pubkey { return p.namespace }
func (p *Pool) ProgramID() Pubkey { return p.programID }
func (p *Pool) Signer() Pubkey { return p.config.SignerIdentity() }
func (p *Pool) ReserveAccount(asset Pubkey) Pubkey {
	signer := p.Signer()
	return DeriveAddress([]byte("reserve"), signer[:], asset[:])
}

// NullifierIDs derives the registry keys for both input nullifiers.
func (p *Pool) NullifierIDs(proof *CompressedProof) []NullifierID {
	return []NullifierID{
		NullifierIdentity(proof.InputNullifiers[0], p.namespace, p.programID),
		NullifierIdentity(proof.InputNullifiers[1], p.namespace, p.programID),
	}
}

// CheckNamespace rejects requests that name a nullifier namespace other than
// the canonical one. A zero namespace means the request did not name one.
func (p *Pool) CheckNamespace(namespace Pubkey) error {
	if namespace.IsZero() || namespace == p.namespace {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidNamespace, namespace)
}

func (p *Pool) CheckRoot(root [32]byte) error {
	if !p.tree.IsKnownRoot(root) {
		return fmt.Errorf("%w: %s", ErrUnknownRoot, hex.EncodeToString(root[:]))
	}
	return nil
}

func (p *Pool) CheckBinding(computed, claimed [32]byte) error {
	if !VerifyBinding(computed, claimed) {
		return fmt.Errorf("%w: computed %s, proof %s", ErrBindingMismatch,
			hex.EncodeToString(computed[:]), hex.EncodeToString(claimed[:]))
	}
	return nil
}

// CheckPublicAmount reconciles one asset leg.
func (p *Pool) CheckPublicAmount(leg int, extAmount int64, fee uint64, claimed [32]byte) error {
	if !CheckPublicAmount(extAmount, fee, claimed) {
		return fmt.Errorf("%w: leg %d does not encode ext amount %d net of fee %d",
			ErrInvalidPublicAmount, leg, extAmount, fee)
	}
	return nil
}

// CheckSingleAssetAmounts reconciles leg 0 and requires leg 1 to be zero.
func (p *Pool) CheckSingleAssetAmounts(extAmount int64, fee uint64, proof *CompressedProof) error {
	if err := p.CheckPublicAmount(0, extAmount, fee, proof.PublicAmount0); err != nil {
		return err
	}
	if !IsZeroAmount(proof.PublicAmount1) {
		return fmt.Errorf("%w: leg 1 must be zero for a single-asset transaction", ErrInvalidPublicAmount)
	}
	return nil
}

// CheckFee applies the current fee policy.
func (p *Pool) CheckFee(extAmount int64, fee uint64) error {
	policy := p.config.Policy()
	return ValidateFee(extAmount, fee, policy.DepositFeeRate, policy.WithdrawalFeeRate, policy.FeeErrorMargin)
}

// CheckProof verifies the Groth16 proof. Nullifiers and commitments must be
// canonical field elements: the verifier reduces inputs mod r, so nf and nf+r
// would satisfy the same proof.
func (p *Pool) CheckProof(proof *CompressedProof, mintA, mintB Pubkey) error {
	for i, nf := range proof.InputNullifiers {
		if !IsCanonicalField(nf) {
			return fmt.Errorf("%w: nullifier %d is not a canonical field element", ErrInvalidProof, i)
		}
	}
	for i, cm := range proof.OutputCommitments {
		if !IsCanonicalField(cm) {
			return fmt.Errorf("%w: commitment %d is not a canonical field element", ErrInvalidProof, i)
		}
	}
	if !p.verifier.Verify(proof, mintA, mintB) {
		return ErrInvalidProof
	}
	return nil
}

// Settlement is the envelope handed to the value-movement step. Transfers made
// through it are reversed if the transaction aborts.
type Settlement struct {
	journal *journal
}

// Ledger returns the journaled ledger, for collaborators such as the exchange.
func (s *Settlement) Ledger() Ledger { return s.journal }

func (s *Settlement) Balance(ctx context.Context, account, asset Pubkey) (uint64, error) {
	b, err := s.journal.Balance(ctx, account, asset)
	if err != nil {
		return 0, fmt.Errorf("%w: balance of %s: %v", ErrExternalAdapterFailure, account, err)
	}
	return b, nil
}

func (s *Settlement) Transfer(ctx context.Context, from, to, asset Pubkey, amount uint64) error {
	if err := s.journal.Transfer(ctx, from, to, asset, amount); err != nil {
		return fmt.Errorf("%w: transfer %d %s from %s to %s: %v", ErrExternalAdapterFailure, amount, asset, from, to, err)
	}
	return nil
}

// MoveFunc moves value for a validated transaction and returns its completion record.
type MoveFunc func(ctx context.Context, s *Settlement) (Event, error)

// Settle registers the nullifiers, runs move, appends the output commitments
// and emits CommitmentAppended followed by the completion record. It returns
// the index of the first new leaf.
func (p *Pool) Settle(ctx context.Context, proof *CompressedProof, encryptedOutput []byte, move MoveFunc) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if next := p.tree.NextIndex(); next+2 > p.tree.Capacity() {
		return 0, fmt.Errorf("%w: next index %d", ErrCapacityExceeded, next)
	}

	// Step 1: Register nullifiers
	ids := p.NullifierIDs(proof)
	if err := p.registry.Register(ctx, ids...); err != nil {
		if errors.Is(err, ErrDoubleSpend) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: register nullifiers: %v", ErrExternalAdapterFailure, err)
	}

	// Step 2: Move value
	s := &Settlement{journal: &journal{Ledger: p.ledger}}
	completed, err := move(ctx, s)
	if err != nil {
		return 0, p.abort(ctx, ids, s.journal, nil, err)
	}

	// Step 3: Append commitments
	before := p.tree.Record()
	index, err := p.tree.AppendPair(proof.OutputCommitments[0], proof.OutputCommitments[1])
	if err != nil {
		return 0, p.abort(ctx, ids, s.journal, nil, fmt.Errorf("append commitments: %w", err))
	}

	// Step 4: Checkpoint
	if p.checkpoint != nil {
		if err := p.checkpoint(p.tree.Record()); err != nil {
			return 0, p.abort(ctx, ids, s.journal, &before, fmt.Errorf("checkpoint tree: %w", err))
		}
	}

	root := p.tree.Root()
	p.logger.Info("commitments appended",
		zap.Uint64("index", index),
		zap.String("root", hex.EncodeToString(root[:])),
		zap.String("kind", completed.EventKind()),
	)
	p.sink.Emit(CommitmentAppended{
		Index:           index,
		Commitment0:     proof.OutputCommitments[0],
		Commitment1:     proof.OutputCommitments[1],
		EncryptedOutput: append([]byte(nil), encryptedOutput...),
	})
	p.sink.Emit(completed)
	return index, nil
}

// abort undoes a partially settled transaction and returns cause.
func (p *Pool) abort(ctx context.Context, ids []NullifierID, j *journal, tree *merkle.Record, cause error) error {
	ctx = context.WithoutCancel(ctx)
	if tree != nil {
		if err := p.tree.Restore(*tree); err != nil {
			p.logger.Error("restore tree", zap.Error(err))
		}
	}
	if err := j.revert(ctx); err != nil {
		p.logger.Error("revert transfers", zap.Error(err))
	}
	if err := p.registry.Release(ctx, ids...); err != nil {
		p.logger.Error("release nullifiers", zap.Error(err))
	}
	p.logger.Warn("transaction aborted during settlement", zap.String("kind", Kind(cause)), zap.Error(cause))
	return cause
}
