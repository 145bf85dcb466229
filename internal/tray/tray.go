package tray

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/atotto/clipboard"
	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/recapware/livecap/internal/session"
	"github.com/recapware/livecap/internal/submit"
	"github.com/recapware/livecap/internal/transcript"
)

// UI is the display/control collaborator: a tray menu with mute toggles,
// manual submission, copy-to-clipboard and quit. Caption lines arrive via
// OnLine and surface through the tooltip and the console log.
type UI struct {
	sess    *session.Session
	tracker *submit.Tracker
	tlog    *transcript.Log
	version string
	log     zerolog.Logger
	ready   atomic.Bool

	// Menu items
	mMuteMic    *systray.MenuItem
	mMuteClient *systray.MenuItem
	mSubmit     *systray.MenuItem
	mCopy       *systray.MenuItem
}

func New(tlog *transcript.Log, version string, log zerolog.Logger) *UI {
	return &UI{
		tlog:    tlog,
		version: version,
		log:     log,
	}
}

// SetSession sets the session reference (for circular dependency resolution)
func (u *UI) SetSession(sess *session.Session) {
	u.sess = sess
}

// SetTracker sets the submission tracker reference
func (u *UI) SetTracker(tracker *submit.Tracker) {
	u.tracker = tracker
}

// OnLine receives each accepted transcript line from the assembler.
// Lines can arrive before the tray is up; only the tooltip waits for it.
func (u *UI) OnLine(line transcript.Line) {
	u.log.Info().Str("speaker", line.Speaker).Msg(line.Text)
	if u.ready.Load() {
		systray.SetTooltip(line.Text)
	}
}

// Run starts the tray event loop. Must run on the main thread.
func (u *UI) Run(ctx context.Context) error {
	systray.Run(u.onReady, u.onExit)
	return nil
}

func (u *UI) onReady() {
	systray.SetTitle("🎤")
	systray.SetTooltip("livecap " + u.version + ": listening for audio")

	u.mMuteMic = systray.AddMenuItem("Mute Mic", "Stop capturing the microphone")
	u.mMuteClient = systray.AddMenuItem("Mute Client", "Stop capturing the remote party")
	systray.AddSeparator()

	u.mSubmit = systray.AddMenuItem("Submit", "Send new transcript lines to the backend")
	u.mCopy = systray.AddMenuItem("Copy Transcript", "Copy the full transcript to the clipboard")

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Stop capturing and save the transcript")

	u.ready.Store(true)

	go u.handleEvents(mQuit)
}

func (u *UI) handleEvents(mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mMuteMic.ClickedCh:
			u.toggleMute(session.SpeakerMe, u.mMuteMic, "Mic")
		case <-u.mMuteClient.ClickedCh:
			u.toggleMute(session.SpeakerClient, u.mMuteClient, "Client")
		case <-u.mSubmit.ClickedCh:
			u.submit()
		case <-u.mCopy.ClickedCh:
			u.copyTranscript()
		case <-mQuit.ClickedCh:
			if err := u.sess.Stop(); err != nil {
				u.log.Error().Err(err).Msg("Shutdown error")
			}
			systray.Quit()
			return
		}
	}
}

func (u *UI) toggleMute(label string, item *systray.MenuItem, title string) {
	if u.sess.ToggleMute(label) {
		item.SetTitle("Unmute " + title)
	} else {
		item.SetTitle("Mute " + title)
	}
}

func (u *UI) submit() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := u.tracker.Submit(ctx)
	switch {
	case errors.Is(err, submit.ErrNoToken):
		u.log.Warn().Msg("No token configured; set backend.token in the config file")
		systray.SetTooltip("Submission needs a token")
	case err != nil:
		u.log.Error().Err(err).Msg("Submission failed")
		systray.SetTooltip("Submission failed")
	default:
		systray.SetTooltip("Transcript submitted")
	}
}

func (u *UI) copyTranscript() {
	text := strings.Join(u.tlog.Snapshot(), "\n")
	if err := clipboard.WriteAll(text); err != nil {
		u.log.Error().Err(err).Msg("Clipboard write failed")
		return
	}
	u.log.Info().Int("lines", u.tlog.Len()).Msg("Transcript copied to clipboard")
}

func (u *UI) onExit() {
	// Session shutdown happens on the quit click; nothing left to release
}
