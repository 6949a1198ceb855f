package effects

import (
	"time"

	"github.com/teslashibe/go-dancepad/pkg/dancepad"
	"github.com/teslashibe/go-dancepad/pkg/pool"
)

// DefaultSpawnerConfig registers the dance pad's effect kinds.
func DefaultSpawnerConfig() SpawnerConfig {
	return SpawnerConfig{Kinds: map[pool.Kind]KindConfig{
		dancepad.EffectHoleHit:  {Capacity: 8, Lifetime: 600 * time.Millisecond},
		dancepad.EffectHeelStep: {Capacity: 16, Lifetime: 300 * time.Millisecond},
		dancepad.EffectToeStep:  {Capacity: 16, Lifetime: 300 * time.Millisecond},
	}}
}

// DefaultAudioConfig registers the dance pad's sound kinds.
func DefaultAudioConfig() AudioConfig {
	return AudioConfig{
		PanWidth: 1.5,
		Tones: map[pool.Kind]Tone{
			dancepad.SoundHoleHit: {Notes: []float64{880, 1320}, Note: 60 * time.Millisecond, Volume: 0.8, Capacity: 4},
			dancepad.SoundDecoy:   {Notes: []float64{220, 165}, Note: 90 * time.Millisecond, Volume: 0.7, Capacity: 2},
			dancepad.SoundStep:    {Notes: []float64{110}, Note: 40 * time.Millisecond, Volume: 0.3, Capacity: 8},
		},
	}
}
