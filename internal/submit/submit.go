package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/recapware/livecap/internal/transcript"
)

// ErrNoToken is returned when no authentication token is configured.
// It is a local validation failure; no network call is made.
var ErrNoToken = errors.New("submit: no token set")

// Payload is the JSON body posted to the backend.
type Payload struct {
	Token      string `json:"token"`
	Transcript string `json:"transcript"`
	Timestamp  string `json:"timestamp"`
}

// Tracker sends the not-yet-submitted suffix of the transcript log to the
// backend on demand. The cursor only advances on an HTTP 200, so a failed
// submission retries the same suffix next time. Submission is always
// manually triggered; there is no background resend.
type Tracker struct {
	url    string
	client *http.Client
	log    *transcript.Log
	zlog   zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	token    string
	lastSent int
}

// New creates a tracker for the given backend URL and transcript log.
func New(url, token string, log *transcript.Log, zlog zerolog.Logger) *Tracker {
	return &Tracker{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log,
		zlog:   zlog,
		now:    time.Now,
		token:  token,
	}
}

// SetToken replaces the authentication token used on the next submit.
func (t *Tracker) SetToken(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
}

// Pending returns how many lines have not been submitted yet.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.log.Len() - t.lastSent
}

// Submit posts all lines appended since the last successful submission.
// A blank token fails locally; an empty suffix is a no-op.
func (t *Tracker) Submit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if strings.TrimSpace(t.token) == "" {
		return ErrNoToken
	}

	lines := t.log.LinesFrom(t.lastSent)
	if len(lines) == 0 {
		t.zlog.Info().Msg("Nothing new to submit")
		return nil
	}

	texts := make([]string, len(lines))
	for i, line := range lines {
		texts[i] = line.Text
	}

	payload := Payload{
		Token:      strings.TrimSpace(t.token),
		Transcript: strings.Join(texts, "\n"),
		Timestamp:  t.now().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("submission failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	t.lastSent = t.log.Len()
	t.zlog.Info().Int("lines", len(lines)).Msg("Submitted transcript")
	return nil
}
