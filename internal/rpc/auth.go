package rpc

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"shieldedpool/internal/zerocash"
)

// Deposits debit a public account, so the payer must sign. A payer account
// is derived from the address of its secp256k1 key.

var depositDomain = []byte("shieldedpool/deposit")

// PayerAccount returns the ledger account controlled by pub.
func PayerAccount(pub *ecdsa.PublicKey) zerocash.Pubkey {
	return zerocash.DeriveAddress([]byte("secp256k1"), crypto.PubkeyToAddress(*pub).Bytes())
}

// DepositDigest is the Keccak-256 hash a payer signs. It covers every field
// of the payload except the signature, so a signature cannot be replayed
// with a different proof, amount or recipient.
func DepositDigest(p *DepositPayload) []byte {
	var amounts [16]byte
	binary.LittleEndian.PutUint64(amounts[:8], uint64(p.ExtAmount))
	binary.LittleEndian.PutUint64(amounts[8:], p.Fee)
	return crypto.Keccak256(
		depositDomain,
		p.Payer[:],
		p.Asset[:],
		p.FeeRecipient[:],
		p.Namespace[:],
		amounts[:],
		crypto.Keccak256(p.EncryptedOutput),
		p.Proof.Root[:],
		p.Proof.PublicAmount0[:],
		p.Proof.PublicAmount1[:],
		p.Proof.ExtDataHash[:],
		p.Proof.InputNullifiers[0][:],
		p.Proof.InputNullifiers[1][:],
		p.Proof.OutputCommitments[0][:],
		p.Proof.OutputCommitments[1][:],
		bytes.Join([][]byte{p.Proof.ProofA, p.Proof.ProofB, p.Proof.ProofC}, nil),
	)
}

// SignDeposit sets the payer to the account of key and signs the payload.
func SignDeposit(p *DepositPayload, key *ecdsa.PrivateKey) error {
	p.Payer = PayerAccount(&key.PublicKey)
	sig, err := crypto.Sign(DepositDigest(p), key)
	if err != nil {
		return fmt.Errorf("failed to sign deposit: %w", err)
	}
	p.PayerSignature = sig
	return nil
}

// verifyPayer checks that the signature recovers to the named payer.
func verifyPayer(p *DepositPayload) error {
	if len(p.PayerSignature) != crypto.SignatureLength {
		return fmt.Errorf("%w: payer signature must be %d bytes, got %d",
			zerocash.ErrUnauthorized, crypto.SignatureLength, len(p.PayerSignature))
	}
	pub, err := crypto.SigToPub(DepositDigest(p), p.PayerSignature)
	if err != nil {
		return fmt.Errorf("%w: payer signature: %v", zerocash.ErrUnauthorized, err)
	}
	if signer := PayerAccount(pub); signer != p.Payer {
		return fmt.Errorf("%w: signed by %s, not payer %s", zerocash.ErrUnauthorized, signer, p.Payer)
	}
	return nil
}
