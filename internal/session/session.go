package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/recapware/livecap/internal/audio"
	"github.com/recapware/livecap/internal/config"
	"github.com/recapware/livecap/internal/transcript"
	"github.com/recapware/livecap/internal/whisper"
)

// Speaker labels for the two capture sources
const (
	SpeakerMe     = "me"     // local microphone
	SpeakerClient = "client" // virtual cable carrying the remote party
)

// queueDepth bounds each source queue. One block arrives every
// BlockSeconds, so this covers minutes of inference backlog before the
// capture path starts dropping.
const queueDepth = 32

type State int32

const (
	StateIdle State = iota
	StateResolving
	StateCapturing
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateCapturing:
		return "capturing"
	case StateShuttingDown:
		return "shutting down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// CaptureFactory builds a capture session for a resolved device.
// Swappable so tests can feed scripted audio.
type CaptureFactory func(device audio.Device) audio.Capture

// Config wires a Session's collaborators.
type Config struct {
	Config      *config.Config
	Catalog     audio.Catalog
	NewCapture  CaptureFactory
	Transcriber whisper.Transcriber
	Assembler   *transcript.Assembler
	Transcript  *transcript.Log
	Logger      zerolog.Logger
	OutputDir   string // transcript file directory; "" means current dir
}

// Session is the lifecycle controller for the capture/transcription
// pipeline: it resolves both devices, runs one capture session and one
// transcription worker per source, and persists the transcript on stop.
type Session struct {
	cfg        *config.Config
	catalog    audio.Catalog
	newCapture CaptureFactory
	stt        whisper.Transcriber
	asm        *transcript.Assembler
	tlog       *transcript.Log
	log        zerolog.Logger
	outDir     string
	now        func() time.Time

	state   atomic.Int32
	sources []*source
	wg      sync.WaitGroup
}

type source struct {
	label   string
	capture audio.Capture
	queue   chan audio.Message
}

func New(cfg Config) *Session {
	return &Session{
		cfg:        cfg.Config,
		catalog:    cfg.Catalog,
		newCapture: cfg.NewCapture,
		stt:        cfg.Transcriber,
		asm:        cfg.Assembler,
		tlog:       cfg.Transcript,
		log:        cfg.Logger,
		outDir:     cfg.OutputDir,
		now:        time.Now,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Start resolves both devices and brings the pipeline up. Both sources are
// required; if either device is missing the session goes straight to
// stopped and the error is a startup failure.
func (s *Session) Start() error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateResolving)) {
		return fmt.Errorf("session already started (state %s)", s.State())
	}

	devices, err := s.catalog.Devices()
	if err != nil {
		s.state.Store(int32(StateStopped))
		return fmt.Errorf("enumerating devices: %w", err)
	}

	cable, err := audio.FindCableDevice(devices, s.cfg.Audio.CableName, s.cfg.Audio.CableHostAPIs)
	if err != nil {
		s.state.Store(int32(StateStopped))
		return fmt.Errorf("resolving virtual cable device: %w", err)
	}

	mic, err := audio.FindInputDevice(devices, s.cfg.Audio.MicName)
	if err != nil {
		s.state.Store(int32(StateStopped))
		return fmt.Errorf("resolving microphone device: %w", err)
	}

	s.log.Info().
		Str("mic", mic.Name).
		Str("cable", cable.Name).
		Str("cable_host_api", cable.HostAPI).
		Msg("Resolved capture devices")

	s.sources = []*source{
		{label: SpeakerMe, capture: s.newCapture(mic), queue: make(chan audio.Message, queueDepth)},
		{label: SpeakerClient, capture: s.newCapture(cable), queue: make(chan audio.Message, queueDepth)},
	}

	for i, src := range s.sources {
		if err := src.capture.Start(src.queue); err != nil {
			for _, started := range s.sources[:i] {
				started.capture.Stop()
			}
			s.state.Store(int32(StateStopped))
			return fmt.Errorf("starting %s capture: %w", src.label, err)
		}
	}

	for _, src := range s.sources {
		s.wg.Add(1)
		go s.transcribeLoop(src)
	}

	s.state.Store(int32(StateCapturing))
	s.log.Info().Msg("Capturing")
	return nil
}

// transcribeLoop is one source's worker: it drains the queue until the
// end-of-stream sentinel, filtering near-silence and turning collaborator
// failures into visible error lines instead of dying.
func (s *Session) transcribeLoop(src *source) {
	defer s.wg.Done()

	for msg := range src.queue {
		if msg.EndOfStream {
			return
		}

		if len(msg.Samples) == 0 || peakAmplitude(msg.Samples) < s.cfg.Transcript.SilenceThreshold {
			s.log.Debug().Str("source", src.label).Msg("Skipping near-silent block")
			continue
		}

		text, err := s.stt.Transcribe(msg.Samples)
		if err != nil {
			s.log.Error().Err(err).Str("source", src.label).Msg("Transcription failed")
			s.asm.Append(src.label, fmt.Sprintf("%s: %s", transcript.ErrorMarker, err.Error()))
			continue
		}

		s.asm.Append(src.label, text)
	}
}

// ToggleMute flips the mute flag for the labeled source and returns the
// new state. Unknown labels are a no-op.
func (s *Session) ToggleMute(label string) bool {
	for _, src := range s.sources {
		if src.label == label {
			muted := !src.capture.Muted()
			src.capture.SetMuted(muted)
			s.log.Info().Str("source", label).Bool("muted", muted).Msg("Mute toggled")
			return muted
		}
	}
	return false
}

// Muted reports the mute flag for the labeled source.
func (s *Session) Muted(label string) bool {
	for _, src := range s.sources {
		if src.label == label {
			return src.capture.Muted()
		}
	}
	return false
}

// Stop tears the pipeline down: stop both captures (each pushes its
// sentinel), wait for the workers to drain, then persist the transcript.
// The wait is bounded by at most one in-flight inference per worker.
func (s *Session) Stop() error {
	if !s.state.CompareAndSwap(int32(StateCapturing), int32(StateShuttingDown)) {
		return nil
	}

	for _, src := range s.sources {
		if err := src.capture.Stop(); err != nil {
			s.log.Error().Err(err).Str("source", src.label).Msg("Capture stop failed")
		}
	}

	s.wg.Wait()

	err := s.persist()
	s.state.Store(int32(StateStopped))
	return err
}

// persist writes the full transcript to a timestamped file, one formatted
// line per line. Failing here is reported but the in-memory transcript is
// already gone with the process, so there is nothing more to do.
func (s *Session) persist() error {
	lines := s.tlog.Snapshot()
	name := fmt.Sprintf("translated_%s.txt", s.now().Format("20060102_150405"))
	path := filepath.Join(s.outDir, name)

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		s.log.Error().Err(err).Str("path", path).Msg("Failed to write transcript file")
		return fmt.Errorf("writing transcript file: %w", err)
	}

	s.log.Info().Str("path", path).Int("lines", len(lines)).Msg("Transcript saved")
	return nil
}

func peakAmplitude(samples []float32) float64 {
	var peak float32
	for _, v := range samples {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return float64(peak)
}
