package zerocash

import (
	"context"
	"fmt"
)

type transfer struct {
	from, to, asset Pubkey
	amount          uint64
}

// journal is a Ledger that remembers every successful transfer so an aborted
// transaction can be reversed.
type journal struct {
	Ledger
	done []transfer
}

func (j *journal) Transfer(ctx context.Context, from, to, asset Pubkey, amount uint64) error {
	if err := j.Ledger.Transfer(ctx, from, to, asset, amount); err != nil {
		return err
	}
	j.done = append(j.done, transfer{from, to, asset, amount})
	return nil
}

// revert replays the journal backwards with source and destination swapped.
// It keeps going on failure and reports the first error.
func (j *journal) revert(ctx context.Context) error {
	var first error
	for i := len(j.done) - 1; i >= 0; i-- {
		t := j.done[i]
		if err := j.Ledger.Transfer(ctx, t.to, t.from, t.asset, t.amount); err != nil && first == nil {
			first = fmt.Errorf("revert transfer of %d %s from %s: %w", t.amount, t.asset, t.to, err)
		}
	}
	j.done = nil
	return first
}
