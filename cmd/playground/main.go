package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	orchestration "github.com/overtone-ai/overtone-core/core"
	"github.com/overtone-ai/overtone-core/core/audio/miniaudio"
	"github.com/overtone-ai/overtone-core/core/events"
	"github.com/overtone-ai/overtone-core/core/llms/openai"
	deepgramstt "github.com/overtone-ai/overtone-core/core/speechtotext/deepgram"
	deepgramtts "github.com/overtone-ai/overtone-core/core/texttospeech/deepgram"
)

const defaultInstructions = "You are Overtone, a helpful voice assistant. " +
	"Keep answers short and conversational; they are spoken out loud. " +
	"Use the available tools to control music playback."

func main() {
	configPath := flag.String("config", "playground.yaml", "path to the playground config")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Instructions == "" {
		cfg.Instructions = defaultInstructions
	}

	audioClient, err := miniaudio.NewClient()
	if err != nil {
		return fmt.Errorf("failed to open audio devices: %w", err)
	}
	defer audioClient.Close()

	capture, err := audioClient.Capture()
	if err != nil {
		return err
	}
	playback, err := audioClient.Playback()
	if err != nil {
		return err
	}

	voice := deepgramtts.VoiceThalia
	for _, available := range deepgramtts.AvailableVoices() {
		if string(available) == cfg.Voice {
			voice = available
		}
	}
	ttsClient, err := deepgramtts.NewTextToSpeechClient(voice)
	if err != nil {
		return fmt.Errorf("failed to set up synthesis: %w", err)
	}

	llmOpts := []openai.ClientOption{}
	if cfg.Model != "" {
		llmOpts = append(llmOpts, openai.WithModel(cfg.Model))
	}
	llmClient, err := openai.NewClient(llmOpts...)
	if err != nil {
		return fmt.Errorf("failed to set up the reasoner: %w", err)
	}

	registry, err := newDemoRegistry()
	if err != nil {
		return fmt.Errorf("failed to register demo tools: %w", err)
	}

	program := tea.NewProgram(newModel(), tea.WithAltScreen())

	opts := []orchestration.OrchestratorOption{
		orchestration.WithAudioInput(capture),
		orchestration.WithAudioOutput(playback),
		orchestration.WithSpeechToTextClient(deepgramstt.NewTranscriptionClient()),
		orchestration.WithTextToSpeechClient(ttsClient),
		orchestration.WithStreamingLLM(llmClient),
		orchestration.WithToolRegistry(registry),
		orchestration.WithInstructions(cfg.Instructions),
		orchestration.WithTurnPolicy(cfg.turnPolicy()),
		orchestration.WithEventCallback(func(event events.Event) {
			program.Send(orchestratorEvent{event: event})
		}),
	}
	if cfg.VADThreshold > 0 {
		opts = append(opts, orchestration.WithVADThreshold(cfg.VADThreshold))
	}

	orch := orchestration.New(opts...)
	defer orch.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := orch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			program.Send(fatalError{err: err})
		}
	}()

	_, err = program.Run()
	return err
}
