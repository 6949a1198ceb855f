// Package effects spawns pooled visual effects and plays pooled sound
// effects for the dance pad.
package effects

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-dancepad/internal/log"
	"github.com/teslashibe/go-dancepad/pkg/pool"
)

// Instance is one live visual effect.
type Instance struct {
	Kind     pool.Kind
	Position r3.Vec
	Rotation quat.Number
	Scale    float64
	Age      time.Duration
	Lifetime time.Duration
}

// KindConfig sets the capacity and lifetime of one effect kind.
type KindConfig struct {
	Capacity int
	Lifetime time.Duration
}

// SpawnerConfig maps effect kinds to their settings.
type SpawnerConfig struct {
	Kinds map[pool.Kind]KindConfig
}

// Spawner owns a pool of effect instances and expires them over time.
// It is safe for concurrent use.
type Spawner struct {
	mu        sync.Mutex
	pool      *pool.Pool[Instance]
	lifetimes map[pool.Kind]time.Duration
	spawned   int
	dropped   int
	logger    *slog.Logger
}

// NewSpawner creates a Spawner with the given kinds registered.
func NewSpawner(cfg SpawnerConfig) *Spawner {
	s := &Spawner{
		pool:      pool.New(func(i *Instance) { *i = Instance{} }),
		lifetimes: make(map[pool.Kind]time.Duration, len(cfg.Kinds)),
		logger:    log.Component("effects"),
	}
	for kind, kc := range cfg.Kinds {
		s.pool.Register(kind, kc.Capacity)
		s.lifetimes[kind] = kc.Lifetime
	}
	return s
}

// SpawnEffect places an effect of kind at position. When the kind is
// unknown or exhausted the effect is dropped and a zero Handle returned.
func (s *Spawner) SpawnEffect(kind pool.Kind, position r3.Vec, rotation quat.Number, scale float64) pool.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, inst, err := s.pool.Acquire(kind)
	if err != nil {
		s.dropped++
		if errors.Is(err, pool.ErrExhausted) {
			s.logger.Debug("effect dropped", "kind", kind)
		} else {
			s.logger.Warn("effect spawn failed", "error", err)
		}
		return pool.Handle{}
	}

	*inst = Instance{
		Kind:     kind,
		Position: position,
		Rotation: rotation,
		Scale:    scale,
		Lifetime: s.lifetimes[kind],
	}
	s.spawned++
	return h
}

// Update ages every live effect by dt and releases the expired ones.
// It returns how many were released.
func (s *Spawner) Update(dt time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []pool.Handle
	s.pool.Each(func(h pool.Handle, inst *Instance) {
		inst.Age += dt
		if inst.Age >= inst.Lifetime {
			expired = append(expired, h)
		}
	})
	for _, h := range expired {
		if err := s.pool.Release(h); err != nil {
			s.logger.Warn("effect release failed", "handle", h.String(), "error", err)
		}
	}
	return len(expired)
}

// Live returns a snapshot of the live effects.
func (s *Spawner) Live() []Instance {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Instance
	s.pool.Each(func(_ pool.Handle, inst *Instance) {
		out = append(out, *inst)
	})
	return out
}

// Counts returns the number of effects spawned and dropped so far.
func (s *Spawner) Counts() (spawned, dropped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawned, s.dropped
}

// Stats returns pool usage for one kind.
func (s *Spawner) Stats(kind pool.Kind) pool.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Stats(kind)
}
