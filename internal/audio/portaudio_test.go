package audio

import (
	"testing"

	"github.com/rs/zerolog"
)

func newTestSession(out chan<- Message) *Session {
	return &Session{
		log: zerolog.Nop(),
		out: out,
	}
}

func TestDeliverEnqueuesCopy(t *testing.T) {
	out := make(chan Message, 1)
	s := newTestSession(out)

	buffer := []float32{0.1, 0.2, 0.3}
	s.deliver(buffer)

	msg := <-out
	if msg.EndOfStream {
		t.Fatal("expected a block, got end-of-stream")
	}
	if len(msg.Samples) != len(buffer) {
		t.Fatalf("expected %d samples, got %d", len(buffer), len(msg.Samples))
	}
	if &msg.Samples[0] == &buffer[0] {
		t.Fatal("expected samples to be copied out of the hardware buffer")
	}

	// Mutating the hardware buffer must not affect the enqueued block
	buffer[0] = 9
	if msg.Samples[0] != 0.1 {
		t.Errorf("enqueued block aliases the hardware buffer")
	}
}

func TestDeliverDropsWhileMuted(t *testing.T) {
	out := make(chan Message, 4)
	s := newTestSession(out)

	s.SetMuted(true)
	s.deliver([]float32{0.5, 0.5})
	s.deliver([]float32{1.0, 1.0})

	if len(out) != 0 {
		t.Errorf("expected no blocks while muted, got %d", len(out))
	}

	s.SetMuted(false)
	s.deliver([]float32{0.5, 0.5})

	if len(out) != 1 {
		t.Errorf("expected one block after unmute, got %d", len(out))
	}
}

func TestDeliverNeverBlocksOnFullQueue(t *testing.T) {
	out := make(chan Message, 1)
	s := newTestSession(out)

	s.deliver([]float32{0.1})
	// Queue is full now; this must drop rather than block the callback path
	s.deliver([]float32{0.2})

	if len(out) != 1 {
		t.Fatalf("expected exactly one queued block, got %d", len(out))
	}
	msg := <-out
	if msg.Samples[0] != 0.1 {
		t.Errorf("expected the first block to survive, got %f", msg.Samples[0])
	}
}
