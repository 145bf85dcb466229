package audio

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"
)

// Initialize sets up the PortAudio runtime. Call Terminate when done.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate releases the PortAudio runtime.
func Terminate() {
	portaudio.Terminate()
}

type portAudioCatalog struct{}

// NewCatalog returns a Catalog backed by PortAudio device enumeration.
func NewCatalog() Catalog {
	return portAudioCatalog{}
}

func (portAudioCatalog) Devices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	result := make([]Device, 0, len(devices))
	for i, d := range devices {
		hostAPI := ""
		if d.HostApi != nil {
			hostAPI = d.HostApi.Name
		}
		result = append(result, Device{
			Index:            i,
			Name:             d.Name,
			HostAPI:          hostAPI,
			MaxInputChannels: d.MaxInputChannels,
		})
	}

	return result, nil
}

// Session is a PortAudio-backed Capture: a continuous mono float32 input
// stream at a fixed sample rate, delivering fixed-size blocks to a queue.
type Session struct {
	device     Device
	sampleRate int
	blockSize  int
	log        zerolog.Logger

	muted   atomic.Bool
	stream  *portaudio.Stream
	out     chan<- Message
	done    chan struct{}
	stopped chan struct{}
}

// NewSession creates a capture session for the given resolved device.
func NewSession(device Device, sampleRate, blockSize int, log zerolog.Logger) *Session {
	return &Session{
		device:     device,
		sampleRate: sampleRate,
		blockSize:  blockSize,
		log:        log.With().Str("device", device.Name).Logger(),
	}
}

// Start opens and starts the input stream and launches the read loop.
// Captured blocks go to out; the end-of-stream sentinel is pushed by Stop.
func (s *Session) Start(out chan<- Message) error {
	devices, err := portaudio.Devices()
	if err != nil {
		return fmt.Errorf("failed to enumerate devices: %w", err)
	}
	if s.device.Index < 0 || s.device.Index >= len(devices) {
		return fmt.Errorf("device index %d out of range", s.device.Index)
	}
	info := devices[s.device.Index]

	buffer := make([]float32, s.blockSize)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: 1,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      float64(s.sampleRate),
		FramesPerBuffer: len(buffer),
	}, buffer)
	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	s.stream = stream
	s.out = out
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	go s.readLoop(buffer)

	return nil
}

func (s *Session) readLoop(buffer []float32) {
	defer close(s.stopped)
	for {
		select {
		case <-s.done:
			return
		default:
		}

		if err := s.stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				// Transient glitch: log and keep the stream alive
				s.log.Warn().Msg("Input overflow, continuing")
			} else {
				select {
				case <-s.done:
				default:
					s.log.Error().Err(err).Msg("Stream read failed")
				}
				return
			}
		}

		s.deliver(buffer)
	}
}

// deliver applies mute gating and enqueues a copy of one hardware buffer.
// It never blocks: a full queue drops the block.
func (s *Session) deliver(buffer []float32) {
	if s.muted.Load() {
		return
	}

	samples := make([]float32, len(buffer))
	copy(samples, buffer)

	select {
	case s.out <- Message{Samples: samples}:
	default:
		s.log.Warn().Msg("Source queue full, dropping block")
	}
}

// SetMuted gates capture: while muted, delivered buffers are dropped
// before they reach the queue.
func (s *Session) SetMuted(muted bool) {
	s.muted.Store(muted)
}

func (s *Session) Muted() bool {
	return s.muted.Load()
}

// Stop stops and releases the stream, then pushes the end-of-stream
// sentinel so the paired worker terminates instead of blocking forever.
func (s *Session) Stop() error {
	if s.stream == nil {
		return nil
	}

	close(s.done)
	stopErr := s.stream.Stop()
	<-s.stopped
	s.stream.Close()

	s.out <- Message{EndOfStream: true}

	if stopErr != nil {
		return fmt.Errorf("failed to stop audio stream: %w", stopErr)
	}
	return nil
}
