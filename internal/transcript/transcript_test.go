package transcript

import (
	"testing"
)

func defaultNoise() []string {
	return []string{"you", ".", "uh", "um"}
}

func TestNoiseTokensProduceNoLines(t *testing.T) {
	log := NewLog()
	asm := NewAssembler(log, defaultNoise(), nil)

	for _, raw := range []string{"you", ".", "uh", "  Um  ", "", "   "} {
		asm.Append("me", raw)
	}

	if log.Len() != 0 {
		t.Errorf("expected no lines from noise input, got %d", log.Len())
	}
}

func TestFirstLineGetsSpeakerPrefix(t *testing.T) {
	log := NewLog()
	asm := NewAssembler(log, defaultNoise(), nil)

	asm.Append("me", "Hello there")

	lines := log.Snapshot()
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0] != "me: Hello there" {
		t.Errorf("expected %q, got %q", "me: Hello there", lines[0])
	}
}

func TestContinuationOmitsRepeatedSpeaker(t *testing.T) {
	log := NewLog()
	asm := NewAssembler(log, defaultNoise(), nil)

	asm.Append("client", "Hi")
	asm.Append("client", "how are you")

	lines := log.Snapshot()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "client: Hi" {
		t.Errorf("expected %q, got %q", "client: Hi", lines[0])
	}
	if lines[1] != "    how are you" {
		t.Errorf("expected indented continuation, got %q", lines[1])
	}
}

func TestSpeakerChangeRestoresPrefix(t *testing.T) {
	log := NewLog()
	asm := NewAssembler(log, defaultNoise(), nil)

	asm.Append("me", "Hello")
	asm.Append("client", "Hi")
	asm.Append("me", "How are you")

	lines := log.Snapshot()
	want := []string{"me: Hello", "client: Hi", "me: How are you"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestErrorLinesPassThroughVerbatim(t *testing.T) {
	log := NewLog()
	asm := NewAssembler(log, defaultNoise(), nil)

	asm.Append("me", "Hello")
	asm.Append("me", "[Error]: inference failed")
	asm.Append("me", "still here")

	lines := log.Snapshot()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[1] != "[Error]: inference failed" {
		t.Errorf("expected verbatim error line, got %q", lines[1])
	}
	// An error line must not reset continuation tracking
	if lines[2] != "    still here" {
		t.Errorf("expected continuation after error line, got %q", lines[2])
	}
}

func TestSequenceNumbersAreContiguous(t *testing.T) {
	log := NewLog()
	asm := NewAssembler(log, defaultNoise(), nil)

	asm.Append("me", "one")
	asm.Append("client", "two")
	asm.Append("me", "three")

	lines := log.LinesFrom(0)
	for i, line := range lines {
		if line.Sequence != i {
			t.Errorf("line %d has sequence %d", i, line.Sequence)
		}
	}
}

func TestListenerReceivesAcceptedLines(t *testing.T) {
	log := NewLog()
	var got []Line
	asm := NewAssembler(log, defaultNoise(), func(l Line) { got = append(got, l) })

	asm.Append("me", "uh")
	asm.Append("me", "real text")

	if len(got) != 1 {
		t.Fatalf("expected listener to see 1 line, got %d", len(got))
	}
	if got[0].Text != "me: real text" {
		t.Errorf("unexpected listener line %q", got[0].Text)
	}
}

func TestLinesFromBounds(t *testing.T) {
	log := NewLog()
	asm := NewAssembler(log, nil, nil)

	asm.Append("me", "a")
	asm.Append("me", "b")

	if got := log.LinesFrom(2); got != nil {
		t.Errorf("expected nil past the end, got %v", got)
	}
	if got := log.LinesFrom(1); len(got) != 1 {
		t.Errorf("expected 1 line from index 1, got %d", len(got))
	}
	if got := log.LinesFrom(-3); len(got) != 2 {
		t.Errorf("expected negative start to clamp to 0, got %d lines", len(got))
	}
}
