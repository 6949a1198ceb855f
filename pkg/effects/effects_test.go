package effects

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-dancepad/pkg/dancepad"
	"github.com/teslashibe/go-dancepad/pkg/pool"
	"github.com/teslashibe/go-dancepad/pkg/skeleton"
)

var (
	_ dancepad.EffectSpawner = (*Spawner)(nil)
	_ dancepad.SoundPlayer   = (*AudioSink)(nil)
)

func TestSpawner_ExpiresByLifetime(t *testing.T) {
	s := NewSpawner(SpawnerConfig{Kinds: map[pool.Kind]KindConfig{
		"spark": {Capacity: 2, Lifetime: 300 * time.Millisecond},
	}})

	h := s.SpawnEffect("spark", r3.Vec{X: 1}, skeleton.Identity(), 2)
	require.True(t, h.Valid())

	live := s.Live()
	require.Len(t, live, 1)
	assert.Equal(t, r3.Vec{X: 1}, live[0].Position)
	assert.Equal(t, 2.0, live[0].Scale)

	assert.Zero(t, s.Update(200*time.Millisecond))
	assert.Equal(t, 1, s.Update(100*time.Millisecond))
	assert.Empty(t, s.Live())
	assert.Equal(t, pool.Stats{Capacity: 2, Allocated: 1, Active: 0}, s.Stats("spark"))
}

func TestSpawner_DropsWhenExhausted(t *testing.T) {
	s := NewSpawner(SpawnerConfig{Kinds: map[pool.Kind]KindConfig{
		"spark": {Capacity: 1, Lifetime: time.Second},
	}})

	assert.True(t, s.SpawnEffect("spark", r3.Vec{}, skeleton.Identity(), 1).Valid())
	assert.False(t, s.SpawnEffect("spark", r3.Vec{}, skeleton.Identity(), 1).Valid())
	assert.False(t, s.SpawnEffect("smoke", r3.Vec{}, skeleton.Identity(), 1).Valid())

	spawned, dropped := s.Counts()
	assert.Equal(t, 1, spawned)
	assert.Equal(t, 2, dropped)
}

func TestDefaultSpawnerConfig_CoversEngineKinds(t *testing.T) {
	s := NewSpawner(DefaultSpawnerConfig())
	for _, k := range []pool.Kind{dancepad.EffectHoleHit, dancepad.EffectHeelStep, dancepad.EffectToeStep} {
		assert.True(t, s.SpawnEffect(k, r3.Vec{}, skeleton.Identity(), 1).Valid(), k)
	}
}

func testAudio(t *testing.T) *AudioSink {
	t.Helper()
	a, err := NewAudioSink(AudioConfig{
		PanWidth: 2,
		Tones: map[pool.Kind]Tone{
			"beep": {Notes: []float64{440, 660}, Note: 20 * time.Millisecond, Volume: 1, Capacity: 1},
		},
	})
	require.NoError(t, err)
	return a
}

func TestAudioSink_VoiceReturnsAfterPlayback(t *testing.T) {
	a := testAudio(t)

	a.PlaySound("beep", r3.Vec{})
	a.PlaySound("beep", r3.Vec{})
	assert.Equal(t, 1, a.Playing())

	played, dropped := a.Counts()
	assert.Equal(t, 1, played)
	assert.Equal(t, 1, dropped, "second voice exceeds capacity")

	a.Advance(200 * time.Millisecond)
	assert.Zero(t, a.Playing())
	assert.Equal(t, 0, a.Voices("beep").Active)

	a.PlaySound("beep", r3.Vec{})
	assert.Equal(t, 1, a.Playing(), "voice is reusable")
}

func TestAudioSink_StreamProducesSound(t *testing.T) {
	a := testAudio(t)
	a.PlaySound("beep", r3.Vec{})

	samples := make([][2]float64, 256)
	a.Stream(samples)

	peak := 0.0
	for _, s := range samples {
		peak = max(peak, s[0], -s[0])
	}
	assert.Greater(t, peak, 0.0)
	assert.NoError(t, a.Err())
}

func TestAudioSink_UnknownKind(t *testing.T) {
	a := testAudio(t)
	a.PlaySound("boom", r3.Vec{})
	_, dropped := a.Counts()
	assert.Equal(t, 1, dropped)
}

func TestAudioSink_Pan(t *testing.T) {
	a := testAudio(t)
	assert.Equal(t, 0.5, a.Pan(1))
	assert.Equal(t, -1.0, a.Pan(-10))
	assert.Equal(t, 1.0, a.Pan(4))
}

func TestDefaultAudioConfig_Renders(t *testing.T) {
	a, err := NewAudioSink(DefaultAudioConfig())
	require.NoError(t, err)
	a.PlaySound(dancepad.SoundHoleHit, r3.Vec{X: 0.3})
	a.PlaySound(dancepad.SoundStep, r3.Vec{})
	assert.Equal(t, 2, a.Playing())
}
