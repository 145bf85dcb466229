package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
)

type Config struct {
	Audio      AudioConfig      `json:"audio"`
	Whisper    WhisperConfig    `json:"whisper"`
	Transcript TranscriptConfig `json:"transcript"`
	Backend    BackendConfig    `json:"backend"`
	LogLevel   string           `json:"log_level"`
}

type AudioConfig struct {
	SampleRate    int      `json:"sample_rate"`
	BlockSeconds  int      `json:"block_seconds"`
	CableName     string   `json:"cable_name"`      // virtual cable device name substring
	CableHostAPIs []string `json:"cable_host_apis"` // host API allow-set for the cable
	MicName       string   `json:"mic_name"`        // microphone device name substring
}

type WhisperConfig struct {
	Model    string `json:"model"`    // "base.en", "small", etc.
	Task     string `json:"task"`     // "transcribe" or "translate"
	Language string `json:"language"` // source language for the transcribe task
	Threads  int    `json:"threads"`
}

type TranscriptConfig struct {
	SilenceThreshold float64  `json:"silence_threshold"`
	NoiseTokens      []string `json:"noise_tokens"`
}

type BackendConfig struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// BlockSize returns the number of samples in one capture block.
func (a AudioConfig) BlockSize() int {
	return a.SampleRate * a.BlockSeconds
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	path := configPath()

	cfg := Default()

	// Load existing config if it exists
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Default returns the built-in configuration. The device filters, silence
// threshold and noise tokens are empirically tuned values; change them in
// the config file, not here.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate:   16000,
			BlockSeconds: 5,
			CableName:    "CABLE Output (VB-Audio Virtual Cable)",
			CableHostAPIs: []string{
				"MME",
				"Windows DirectSound",
				"Windows WASAPI",
			},
			MicName: "Microphone",
		},
		Whisper: WhisperConfig{
			Model:    "base.en",
			Task:     "transcribe",
			Language: "en",
			Threads:  0, // Auto-detect
		},
		Transcript: TranscriptConfig{
			SilenceThreshold: 1e-4,
			NoiseTokens:      []string{"you", ".", "uh", "um"},
		},
		Backend: BackendConfig{
			URL: "http://127.0.0.1:8000/submit",
		},
		LogLevel: "info",
	}
}

// Save writes the config to disk
func (c *Config) Save() error {
	path := configPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "livecap", "config.json")
}

// ModelsPath returns the platform-specific models directory path
func ModelsPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/share"
		}
	}

	return filepath.Join(base, "livecap", "models")
}
