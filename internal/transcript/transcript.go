package transcript

import (
	"strings"
	"sync"
)

// ErrorMarker prefixes synthetic lines produced from transcription
// failures. Marked lines bypass noise filtering and continuation
// formatting so errors are always visible.
const ErrorMarker = "[Error]"

// Line is one appended transcript entry. Sequence is its index in the log,
// assigned at append time; lines are never mutated afterwards.
type Line struct {
	Speaker  string
	Text     string // formatted display text
	Sequence int
}

// Listener receives every accepted line, in append order.
type Listener func(Line)

// Log is the ordered, append-only transcript shared between the assembler
// (sole writer) and the submission tracker / persistence (readers).
type Log struct {
	mu    sync.RWMutex
	lines []Line
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) append(speaker, text string) Line {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := Line{Speaker: speaker, Text: text, Sequence: len(l.lines)}
	l.lines = append(l.lines, line)
	return line
}

// Len returns the number of appended lines.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.lines)
}

// LinesFrom returns a copy of all lines with sequence >= start.
func (l *Log) LinesFrom(start int) []Line {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if start < 0 {
		start = 0
	}
	if start >= len(l.lines) {
		return nil
	}
	out := make([]Line, len(l.lines)-start)
	copy(out, l.lines[start:])
	return out
}

// Snapshot returns the formatted text of every line, in order.
func (l *Log) Snapshot() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]string, len(l.lines))
	for i, line := range l.lines {
		out[i] = line.Text
	}
	return out
}

// Assembler turns raw per-source text events into transcript lines:
// noise-token filtering, error passthrough, and dialogue-style continuation
// formatting (no repeated speaker tag for consecutive utterances).
type Assembler struct {
	log      *Log
	noise    map[string]struct{}
	listener Listener

	mu          sync.Mutex
	lastSpeaker string
}

// NewAssembler creates an assembler writing to log. noiseTokens are
// dropped case-insensitively; listener may be nil.
func NewAssembler(log *Log, noiseTokens []string, listener Listener) *Assembler {
	noise := make(map[string]struct{}, len(noiseTokens))
	for _, tok := range noiseTokens {
		noise[strings.ToLower(tok)] = struct{}{}
	}
	return &Assembler{
		log:      log,
		noise:    noise,
		listener: listener,
	}
}

// Append processes one raw text event from a source. Noise and empty
// events are dropped; everything else becomes exactly one appended line.
func (a *Assembler) Append(speaker, raw string) {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, ErrorMarker) {
		a.emit(a.log.append(speaker, text))
		return
	}

	if text == "" {
		return
	}
	if _, ok := a.noise[strings.ToLower(text)]; ok {
		return
	}

	a.mu.Lock()
	var formatted string
	if speaker == a.lastSpeaker {
		formatted = "    " + text
	} else {
		formatted = speaker + ": " + text
	}
	a.lastSpeaker = speaker
	line := a.log.append(speaker, formatted)
	a.mu.Unlock()

	a.emit(line)
}

func (a *Assembler) emit(line Line) {
	if a.listener != nil {
		a.listener(line)
	}
}
