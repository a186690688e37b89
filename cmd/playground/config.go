package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	orchestration "github.com/overtone-ai/overtone-core/core"
)

// Config is the playground's optional YAML configuration. Everything has a
// usable zero value; API keys come from the environment (or a .env file).
type Config struct {
	// Instructions are the system instructions given to the reasoner.
	Instructions string `yaml:"instructions"`
	// Voice picks the synthesis voice by its model name.
	Voice string `yaml:"voice"`
	// Model picks the reasoner model.
	Model string `yaml:"model"`
	// VADThreshold overrides the voice detector's energy threshold.
	VADThreshold float64 `yaml:"vad_threshold"`

	Turn TurnConfig `yaml:"turn"`
}

// TurnConfig overrides turn policy knobs. Durations are in milliseconds;
// zero keeps the default.
type TurnConfig struct {
	SilenceDebounceMS         int `yaml:"silence_debounce_ms"`
	BargeInConfirmationMS     int `yaml:"barge_in_confirmation_ms"`
	SpeechStartConfirmationMS int `yaml:"speech_start_confirmation_ms"`
	StepCeiling               int `yaml:"step_ceiling"`
	ToolTimeoutMS             int `yaml:"tool_timeout_ms"`
	ReasonerTimeoutMS         int `yaml:"reasoner_timeout_ms"`
}

func loadConfig(path string) (Config, error) {
	// A missing .env is fine; keys may come from the real environment.
	_ = godotenv.Load()

	var cfg Config
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) turnPolicy() orchestration.TurnPolicy {
	return orchestration.TurnPolicy{
		SilenceDebounce:         time.Duration(c.Turn.SilenceDebounceMS) * time.Millisecond,
		BargeInConfirmation:     time.Duration(c.Turn.BargeInConfirmationMS) * time.Millisecond,
		SpeechStartConfirmation: time.Duration(c.Turn.SpeechStartConfirmationMS) * time.Millisecond,
		StepCeiling:             c.Turn.StepCeiling,
		ToolTimeout:             time.Duration(c.Turn.ToolTimeoutMS) * time.Millisecond,
		ReasonerTimeout:         time.Duration(c.Turn.ReasonerTimeoutMS) * time.Millisecond,
	}
}
