package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/overtone-ai/overtone-core/core/tools"
)

// musicPlayer is a pretend playback backend so the assistant has something
// real to control.
type musicPlayer struct {
	mu      sync.Mutex
	playing bool
	genre   string
	volume  int
}

type playerState struct {
	Playing bool   `json:"playing"`
	Genre   string `json:"genre,omitempty"`
	Volume  int    `json:"volume"`
}

func (p *musicPlayer) state() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	raw, _ := json.Marshal(playerState{Playing: p.playing, Genre: p.genre, Volume: p.volume})
	return string(raw)
}

type playMusicArgs struct {
	Genre string `json:"genre" jsonschema:"description=Music genre to play"`
}

type setVolumeArgs struct {
	Volume int `json:"volume" jsonschema:"description=Playback volume from 0 to 100"`
}

func newDemoRegistry() (*tools.Registry, error) {
	player := &musicPlayer{volume: 50}
	registry := tools.NewRegistry()

	err := tools.Register(registry, "play_music", "Start playing music of the given genre.",
		func(_ context.Context, args playMusicArgs) (string, error) {
			player.mu.Lock()
			player.playing = true
			player.genre = args.Genre
			player.mu.Unlock()
			return player.state(), nil
		})
	if err != nil {
		return nil, err
	}

	err = tools.Register(registry, "pause_music", "Pause music playback.",
		func(context.Context, struct{}) (string, error) {
			player.mu.Lock()
			player.playing = false
			player.mu.Unlock()
			return player.state(), nil
		})
	if err != nil {
		return nil, err
	}

	err = tools.Register(registry, "set_volume", "Set the playback volume.",
		func(_ context.Context, args setVolumeArgs) (string, error) {
			if args.Volume < 0 || args.Volume > 100 {
				return "", fmt.Errorf("volume %d out of range [0, 100]", args.Volume)
			}
			player.mu.Lock()
			player.volume = args.Volume
			player.mu.Unlock()
			return player.state(), nil
		})
	if err != nil {
		return nil, err
	}

	return registry, nil
}
