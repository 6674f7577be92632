package client

import (
	"context"
	"sync"
)

// Channel is a logical request lane. At most one request per channel is in
// flight; starting a new one cancels the previous one first.
type Channel string

const (
	ChannelChat       Channel = "chat"
	ChannelExtraction Channel = "extraction"
	ChannelAttempt    Channel = "attempt"
	ChannelReview     Channel = "review"
	ChannelRevise     Channel = "revise"
)

type slot struct {
	turn   uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// Dispatcher hands out turns per channel.
type Dispatcher struct {
	parent context.Context

	mu    sync.Mutex
	slots map[Channel]*slot
	turns map[Channel]uint64
}

// NewDispatcher returns a dispatcher whose turns are derived from ctx.
func NewDispatcher(ctx context.Context) *Dispatcher {
	return &Dispatcher{
		parent: ctx,
		slots:  map[Channel]*slot{},
		turns:  map[Channel]uint64{},
	}
}

// Turn is one request on a channel. Ctx is cancelled when a newer turn
// begins on the same channel or when End is called.
type Turn struct {
	Channel Channel
	ID      uint64
	Ctx     context.Context

	d    *Dispatcher
	slot *slot
	once sync.Once
}

// Begin cancels the in-flight turn on ch, waits for it to End, and returns
// the new turn. The new turn is current from the moment Begin is called, so
// results of the old one are already stale while Begin waits. If ctx is done
// before the old turn ends, Begin ends the new turn and returns ctx.Err().
func (d *Dispatcher) Begin(ctx context.Context, ch Channel) (*Turn, error) {
	tctx, cancel := context.WithCancel(d.parent)

	d.mu.Lock()
	d.turns[ch]++
	s := &slot{turn: d.turns[ch], cancel: cancel, done: make(chan struct{})}
	prev := d.slots[ch]
	d.slots[ch] = s
	d.mu.Unlock()

	t := &Turn{Channel: ch, ID: s.turn, Ctx: tctx, d: d, slot: s}

	if prev != nil {
		prev.cancel()
		select {
		case <-prev.done:
		case <-ctx.Done():
			t.End()
			return nil, ctx.Err()
		}
	}
	return t, nil
}

// End releases the turn. It is safe to call more than once.
func (t *Turn) End() {
	t.once.Do(func() {
		t.slot.cancel()
		close(t.slot.done)
	})
}

// IsCurrent reports whether no newer turn has begun on the channel.
func (t *Turn) IsCurrent() bool {
	return t.d.Current(t.Channel) == t.ID
}

// ApplyIfCurrent runs apply only if t is still the channel's current turn.
// No new turn can begin on any channel while apply runs, so apply must not
// call Begin.
func (t *Turn) ApplyIfCurrent(apply func()) bool {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	if t.d.turns[t.Channel] != t.ID {
		return false
	}
	apply()
	return true
}

// Current returns the id of the newest turn on ch, or 0.
func (d *Dispatcher) Current(ch Channel) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.turns[ch]
}

// CancelAll cancels every in-flight turn without waiting.
func (d *Dispatcher) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.slots {
		s.cancel()
	}
}
