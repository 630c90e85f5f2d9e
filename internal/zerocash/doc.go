// Package zerocash implements the verification core of a shielded pool.
//
// Overview:
//   - Every transaction spends two notes (nullifiers) and creates two (commitments)
//   - A Groth16 proof over BN254 attests to the hidden note arithmetic
//   - The pool checks the public side: known root, ext data binding, public
//     amounts, fee policy and proof, then settles value on a host ledger
//
// Settlement Model:
//   - Nullifiers are registered atomically, so a note can be spent once
//   - Value moves through a journal and is reversed if a later step fails
//   - Output commitments are appended to the merkle accumulator as a pair
//   - Records are emitted only after every step succeeded
//
// Usage:
//   - Build a Pool with NewPool and hand it to the deposit, withdraw and swap
//     transaction packages
//   - Use DefaultVerifyingKey for the production key or LoadVerifyingKey for a
//     gnark key file
//   - See package zerocashtest for a prover that produces matching proofs
package zerocash
