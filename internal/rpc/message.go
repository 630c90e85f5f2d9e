package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"shieldedpool/internal/zerocash"
)

// Message is the envelope for everything sent to /tx and pushed on /events.
// Type selects how Payload is decoded.
type Message struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	SenderID string          `json:"senderId,omitempty"`
}

// Transaction message types.
const (
	TypeDeposit  = "deposit"
	TypeWithdraw = "withdraw"
	TypeSwap     = "swap"
)

// ProofJSON is the wire form of zerocash.CompressedProof. Field elements are
// 0x-prefixed 32-byte hex, curve points 0x-prefixed compressed bytes.
type ProofJSON struct {
	Root              common.Hash    `json:"root"`
	PublicAmount0     common.Hash    `json:"publicAmount0"`
	PublicAmount1     common.Hash    `json:"publicAmount1"`
	ExtDataHash       common.Hash    `json:"extDataHash"`
	InputNullifiers   [2]common.Hash `json:"inputNullifiers"`
	OutputCommitments [2]common.Hash `json:"outputCommitments"`
	ProofA            hexutil.Bytes  `json:"proofA"`
	ProofB            hexutil.Bytes  `json:"proofB"`
	ProofC            hexutil.Bytes  `json:"proofC"`
}

// EncodeProof converts a proof to its wire form.
func EncodeProof(p *zerocash.CompressedProof) ProofJSON {
	return ProofJSON{
		Root:              p.Root,
		PublicAmount0:     p.PublicAmount0,
		PublicAmount1:     p.PublicAmount1,
		ExtDataHash:       p.ExtDataHash,
		InputNullifiers:   [2]common.Hash{p.InputNullifiers[0], p.InputNullifiers[1]},
		OutputCommitments: [2]common.Hash{p.OutputCommitments[0], p.OutputCommitments[1]},
		ProofA:            p.ProofA[:],
		ProofB:            p.ProofB[:],
		ProofC:            p.ProofC[:],
	}
}

// Decode checks point lengths and returns the proof.
func (j ProofJSON) Decode() (zerocash.CompressedProof, error) {
	var p zerocash.CompressedProof
	if len(j.ProofA) != len(p.ProofA) || len(j.ProofB) != len(p.ProofB) || len(j.ProofC) != len(p.ProofC) {
		return p, fmt.Errorf("proof points must be %d, %d and %d bytes, got %d, %d and %d",
			len(p.ProofA), len(p.ProofB), len(p.ProofC), len(j.ProofA), len(j.ProofB), len(j.ProofC))
	}
	p.Root = j.Root
	p.PublicAmount0 = j.PublicAmount0
	p.PublicAmount1 = j.PublicAmount1
	p.ExtDataHash = j.ExtDataHash
	p.InputNullifiers = [2][32]byte{j.InputNullifiers[0], j.InputNullifiers[1]}
	p.OutputCommitments = [2][32]byte{j.OutputCommitments[0], j.OutputCommitments[1]}
	copy(p.ProofA[:], j.ProofA)
	copy(p.ProofB[:], j.ProofB)
	copy(p.ProofC[:], j.ProofC)
	return p, nil
}

// DepositPayload carries a deposit. The payer is debited only when
// PayerSignature, made over DepositDigest, recovers to the payer account.
type DepositPayload struct {
	Proof           ProofJSON       `json:"proof"`
	ExtAmount       int64           `json:"extAmount"`
	Fee             uint64          `json:"fee"`
	EncryptedOutput hexutil.Bytes   `json:"encryptedOutput"`
	Asset           zerocash.Pubkey `json:"asset"`
	Payer           zerocash.Pubkey `json:"payer"`
	FeeRecipient    zerocash.Pubkey `json:"feeRecipient"`
	Namespace       zerocash.Pubkey `json:"namespace"`
	PayerSignature  hexutil.Bytes   `json:"payerSignature"`
}

type WithdrawPayload struct {
	Proof           ProofJSON       `json:"proof"`
	ExtAmount       int64           `json:"extAmount"`
	Fee             uint64          `json:"fee"`
	EncryptedOutput hexutil.Bytes   `json:"encryptedOutput"`
	Asset           zerocash.Pubkey `json:"asset"`
	Recipient       zerocash.Pubkey `json:"recipient"`
	FeeRecipient    zerocash.Pubkey `json:"feeRecipient"`
	Namespace       zerocash.Pubkey `json:"namespace"`
}

type SwapPayload struct {
	Proof           ProofJSON       `json:"proof"`
	ExtAmount       int64           `json:"extAmount"`
	ExtMinAmountOut int64           `json:"extMinAmountOut"`
	Fee             uint64          `json:"fee"`
	EncryptedOutput hexutil.Bytes   `json:"encryptedOutput"`
	AssetIn         zerocash.Pubkey `json:"assetIn"`
	AssetOut        zerocash.Pubkey `json:"assetOut"`
	FeeRecipient    zerocash.Pubkey `json:"feeRecipient"`
	Payload         hexutil.Bytes   `json:"payload"`
	Namespace       zerocash.Pubkey `json:"namespace"`
}

// TxResponse answers a transaction. Kind is "ok" on success or the rejection
// code from zerocash.Kind.
type TxResponse struct {
	Kind        string `json:"kind"`
	Error       string `json:"error,omitempty"`
	Index       uint64 `json:"index,omitempty"`
	Amount      uint64 `json:"amount,omitempty"`
	AmountOut   uint64 `json:"amountOut,omitempty"`
	Fee         uint64 `json:"fee,omitempty"`
	RealizedFee uint64 `json:"realizedFee,omitempty"`
}

type PolicyJSON struct {
	DepositFeeRate    uint16 `json:"depositFeeRate"`
	WithdrawalFeeRate uint16 `json:"withdrawalFeeRate"`
	FeeErrorMargin    uint16 `json:"feeErrorMargin"`
}

// StatusResponse describes the pool as served by /status.
type StatusResponse struct {
	Root             common.Hash     `json:"root"`
	NextIndex        uint64          `json:"nextIndex"`
	Capacity         uint64          `json:"capacity"`
	Depth            int             `json:"depth"`
	RootHistorySize  int             `json:"rootHistorySize"`
	MaxDepositAmount uint64          `json:"maxDepositAmount"`
	Policy           PolicyJSON      `json:"policy"`
	Signer           zerocash.Pubkey `json:"signer"`
	Namespace        zerocash.Pubkey `json:"namespace"`
}

// Status snapshots pool.
func Status(pool *zerocash.Pool) StatusResponse {
	tree := pool.Tree()
	policy := pool.Config().Policy()
	return StatusResponse{
		Root:             tree.Root(),
		NextIndex:        tree.NextIndex(),
		Capacity:         tree.Capacity(),
		Depth:            tree.Depth(),
		RootHistorySize:  tree.HistorySize(),
		MaxDepositAmount: tree.MaxDepositAmount(),
		Policy: PolicyJSON{
			DepositFeeRate:    policy.DepositFeeRate,
			WithdrawalFeeRate: policy.WithdrawalFeeRate,
			FeeErrorMargin:    policy.FeeErrorMargin,
		},
		Signer:    pool.Signer(),
		Namespace: pool.Namespace(),
	}
}

type commitmentAppendedJSON struct {
	Index           uint64        `json:"index"`
	Commitment0     common.Hash   `json:"commitment0"`
	Commitment1     common.Hash   `json:"commitment1"`
	EncryptedOutput hexutil.Bytes `json:"encryptedOutput"`
}

type assetAmountJSON struct {
	Asset  zerocash.Pubkey `json:"asset"`
	Amount uint64          `json:"amount"`
}

type swapCompletedJSON struct {
	AssetIn   zerocash.Pubkey `json:"assetIn"`
	AssetOut  zerocash.Pubkey `json:"assetOut"`
	AmountIn  uint64          `json:"amountIn"`
	AmountOut uint64          `json:"amountOut"`
}

// EncodeEvent wraps a pool record in a Message whose Type is its kind.
func EncodeEvent(e zerocash.Event) (Message, error) {
	var payload any
	switch ev := e.(type) {
	case zerocash.CommitmentAppended:
		payload = commitmentAppendedJSON{ev.Index, ev.Commitment0, ev.Commitment1, ev.EncryptedOutput}
	case zerocash.DepositCompleted:
		payload = assetAmountJSON{ev.Asset, ev.Amount}
	case zerocash.WithdrawCompleted:
		payload = assetAmountJSON{ev.Asset, ev.Amount}
	case zerocash.SwapCompleted:
		payload = swapCompletedJSON{ev.AssetIn, ev.AssetOut, ev.AmountIn, ev.AmountOut}
	default:
		return Message{}, fmt.Errorf("unknown event %T", e)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal payload: %v", err)
	}
	return Message{Type: e.EventKind(), Payload: raw}, nil
}
