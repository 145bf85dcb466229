package submit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/recapware/livecap/internal/transcript"
)

func newLogWithLines(t *testing.T, lines ...string) *transcript.Log {
	t.Helper()
	log := transcript.NewLog()
	asm := transcript.NewAssembler(log, nil, nil)
	for _, l := range lines {
		asm.Append("me", l)
	}
	return log
}

func TestSubmitRequiresToken(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	tracker := New(srv.URL, "", newLogWithLines(t, "hello"), zerolog.Nop())

	err := tracker.Submit(context.Background())
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no network call without a token, got %d", calls)
	}
}

func TestSubmitSendsUnsentSuffixOnly(t *testing.T) {
	var payloads []Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		payloads = append(payloads, p)
	}))
	defer srv.Close()

	log := newLogWithLines(t, "first")
	tracker := New(srv.URL, "tok-123", log, zerolog.Nop())

	if err := tracker.Submit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	asm := transcript.NewAssembler(log, nil, nil)
	asm.Append("client", "second")

	if err := tracker.Submit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(payloads) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(payloads))
	}
	if payloads[0].Transcript != "me: first" {
		t.Errorf("first payload: got %q", payloads[0].Transcript)
	}
	if payloads[1].Transcript != "client: second" {
		t.Errorf("second payload: got %q", payloads[1].Transcript)
	}
	if payloads[0].Token != "tok-123" {
		t.Errorf("expected token in payload, got %q", payloads[0].Token)
	}
	if payloads[0].Timestamp == "" {
		t.Error("expected a timestamp in the payload")
	}
}

func TestSubmitIdempotentWithoutNewLines(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	tracker := New(srv.URL, "tok", newLogWithLines(t, "hello"), zerolog.Nop())

	if err := tracker.Submit(context.Background()); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if err := tracker.Submit(context.Background()); err != nil {
		t.Fatalf("second submit failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected exactly one network call, got %d", calls)
	}
}

func TestSubmitFailureLeavesCursor(t *testing.T) {
	var fail = true
	var transcripts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p Payload
		json.NewDecoder(r.Body).Decode(&p)
		transcripts = append(transcripts, p.Transcript)
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	tracker := New(srv.URL, "tok", newLogWithLines(t, "hello"), zerolog.Nop())

	if err := tracker.Submit(context.Background()); err == nil {
		t.Fatal("expected error on 500 response")
	}
	if tracker.Pending() != 1 {
		t.Errorf("expected cursor unchanged after failure, pending = %d", tracker.Pending())
	}

	// The same suffix is retried once the backend recovers
	fail = false
	if err := tracker.Submit(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(transcripts) != 2 || transcripts[1] != "me: hello" {
		t.Errorf("expected the same suffix on retry, got %v", transcripts)
	}
	if tracker.Pending() != 0 {
		t.Errorf("expected cursor advanced after success, pending = %d", tracker.Pending())
	}
}

func TestSubmitTransportErrorLeavesCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	tracker := New(srv.URL, "tok", newLogWithLines(t, "hello"), zerolog.Nop())

	if err := tracker.Submit(context.Background()); err == nil {
		t.Fatal("expected transport error")
	}
	if tracker.Pending() != 1 {
		t.Errorf("expected cursor unchanged, pending = %d", tracker.Pending())
	}
}
