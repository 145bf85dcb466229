package whisper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog"

	"github.com/recapware/livecap/internal/config"
)

// Task modes for the model
const (
	TaskTranscribe = "transcribe"
	TaskTranslate  = "translate"
)

// The model consumes fixed 30-second windows at 16 kHz; shorter blocks are
// zero-padded and longer ones trimmed before inference.
const (
	modelSampleRate = 16000
	modelWindow     = 30 * modelSampleRate
)

// Transcriber converts one block of mono float32 samples to text.
// Implementations must be safe for calls from multiple workers.
type Transcriber interface {
	Transcribe(samples []float32) (string, error)
	Close() error
}

type whisperTranscriber struct {
	model    whisper.Model
	task     string
	language string
	threads  int
	log      zerolog.Logger

	// The bindings make no concurrency promise for contexts of a shared
	// model, so inference is serialized across workers.
	mu sync.Mutex
}

// New loads the configured model, downloading it first if missing.
func New(cfg config.WhisperConfig, log zerolog.Logger) (Transcriber, error) {
	modelPath := filepath.Join(config.ModelsPath(), cfg.Model+".bin")

	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := downloadModel(cfg.Model, modelPath, log); err != nil {
			return nil, fmt.Errorf("failed to download model: %w", err)
		}
	}

	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	return &whisperTranscriber{
		model:    model,
		task:     cfg.Task,
		language: cfg.Language,
		threads:  cfg.Threads,
		log:      log,
	}, nil
}

func (w *whisperTranscriber) Transcribe(samples []float32) (string, error) {
	samples = padOrTrim(samples, modelWindow)

	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, err := w.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("failed to create context: %w", err)
	}

	if w.threads > 0 {
		ctx.SetThreads(uint(w.threads))
	}
	if w.task == TaskTranslate {
		ctx.SetTranslate(true)
	} else {
		ctx.SetTranslate(false)
		if w.language != "" && w.language != "auto" {
			ctx.SetLanguage(w.language)
		}
	}

	if err := ctx.Process(samples, nil, nil); err != nil {
		return "", fmt.Errorf("whisper process failed: %w", err)
	}

	var sb strings.Builder
	for {
		segment, err := ctx.NextSegment()
		if err != nil {
			break // EOF
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.TrimSpace(segment.Text))
	}

	return strings.TrimSpace(sb.String()), nil
}

func (w *whisperTranscriber) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model != nil {
		w.model.Close()
		w.model = nil
	}
	return nil
}

// padOrTrim returns samples padded with silence or trimmed to exactly n.
func padOrTrim(samples []float32, n int) []float32 {
	if len(samples) == n {
		return samples
	}
	if len(samples) > n {
		return samples[:n]
	}
	padded := make([]float32, n)
	copy(padded, samples)
	return padded
}
