package zerocash

import "sync"

// Event is a record emitted once a transaction is final.
type Event interface {
	EventKind() string
}

// CommitmentAppended announces two new leaves starting at Index.
type CommitmentAppended struct {
	Index           uint64
	Commitment0     [32]byte
	Commitment1     [32]byte
	EncryptedOutput []byte
}

type DepositCompleted struct {
	Asset  Pubkey
	Amount uint64
}

type WithdrawCompleted struct {
	Asset  Pubkey
	Amount uint64
}

// SwapCompleted carries the realized amounts: AmountIn is |ext_amount| and
// AmountOut the full amount the reserve received, fee included.
type SwapCompleted struct {
	AssetIn   Pubkey
	AssetOut  Pubkey
	AmountIn  uint64
	AmountOut uint64
}

func (CommitmentAppended) EventKind() string { return "commitment_appended" }
func (DepositCompleted) EventKind() string { return "deposit_completed" }
func (WithdrawCompleted) EventKind() string { return "withdraw_completed" }
func (SwapCompleted) EventKind() string { return "swap_completed" }

// EventSink receives records in emission order. Emit must not block for long;
// it runs while the pool lock is held.
type EventSink interface {
	Emit(Event)
}

// EventLog is an in-memory EventSink.
type EventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *EventLog) Emit(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

// Events returns a copy of everything emitted so far.
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

// MultiSink fans every event out to each sink in order.
type MultiSink []EventSink

func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}
