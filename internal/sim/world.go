package sim

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/pivot/internal/protocol"
	gomath "github.com/Faultbox/pivot/pkg/math"
	"github.com/Faultbox/pivot/pkg/turn"
)

// Config sizes the world.
type Config struct {
	TickRate   int
	Characters int
	// Scenario names a built-in script set.
	Scenario string
	// Setup overrides the named scenario when set.
	Setup Scenario
	// Set is the anim set all characters share. Nil selects the built-in
	// default set.
	Set *turn.AnimSet
	Log *zap.Logger
}

// World steps its characters on a fixed tick and publishes their state
// changes as protocol packets: offset deltas as they pass the epsilon
// contract, periodic full state refreshes, and a tick mark closing every
// tick.
type World struct {
	log      *zap.Logger
	tickRate int
	dt       float64
	refresh  uint32

	mu    sync.Mutex
	chars []*Character
	subs  []func(protocol.Packet)
	tick  uint32
}

// NewWorld builds the characters and seeds them from the scenario.
func NewWorld(cfg Config) (*World, error) {
	tickRate := cfg.TickRate
	if tickRate <= 0 {
		tickRate = 60
	}
	count := cfg.Characters
	if count <= 0 {
		count = 1
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	scenario := cfg.Scenario
	setup := cfg.Setup
	if setup == nil {
		if scenario == "" {
			scenario = "turns"
		}
		var ok bool
		setup, ok = Scenarios[scenario]
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q (have %s)",
				scenario, strings.Join(ScenarioNames(), ", "))
		}
	} else if scenario == "" {
		scenario = "custom"
	}

	set := cfg.Set
	if set == nil {
		set = turn.DefaultAnimSet()
	}

	w := &World{
		log:      log,
		tickRate: tickRate,
		dt:       1.0 / float64(tickRate),
		refresh:  uint32(tickRate / 2),
	}
	if w.refresh == 0 {
		w.refresh = 1
	}
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("char-%02d", i+1)
		c := NewCharacter(uint16(i+1), name, set, log.Named(name))
		c.Position = gomath.Vec3{X: float64(i%4) * 300, Z: float64(i/4) * 300}
		setup(i, c)
		w.chars = append(w.chars, c)
	}

	log.Info("world ready",
		zap.Int("tick_rate", tickRate),
		zap.Int("characters", count),
		zap.String("scenario", scenario),
		zap.String("anim_set", set.Name))
	return w, nil
}

// TickRate returns the configured ticks per second.
func (w *World) TickRate() int {
	return w.tickRate
}

// Characters returns the character list. The list itself is fixed after
// construction; character state mutates between ticks.
func (w *World) Characters() []*Character {
	return w.chars
}

// Tick returns the number of completed ticks.
func (w *World) Tick() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tick
}

// Subscribe registers a packet sink. Sinks run on the tick goroutine
// with the world lock held; slow consumers buffer on their own side.
// Register subscribers before the world starts ticking.
func (w *World) Subscribe(fn func(protocol.Packet)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subs = append(w.subs, fn)
}

// Hello describes the stream for new observers.
func (w *World) Hello() *protocol.Hello {
	return &protocol.Hello{
		Version:    protocol.Version,
		TickRate:   uint16(w.tickRate),
		Characters: uint16(len(w.chars)),
	}
}

// Snapshot returns the packets that bring a fresh observer up to date:
// the stream description plus every character's current state. Safe to
// call while the world runs.
func (w *World) Snapshot() []protocol.Packet {
	w.mu.Lock()
	defer w.mu.Unlock()
	pkts := make([]protocol.Packet, 0, len(w.chars)+1)
	pkts = append(pkts, w.Hello())
	for _, c := range w.chars {
		pkts = append(pkts, c.StatePacket())
	}
	return pkts
}

// Step advances one tick and publishes the resulting packets.
func (w *World) Step() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, c := range w.chars {
		c.Tick(w.dt)
		if v, ok := c.Turn.ConsumeReplicatedOffset(); ok {
			w.emit(&protocol.TurnOffset{ID: c.ID, Offset: v})
		}
	}
	if w.tick%w.refresh == 0 {
		for _, c := range w.chars {
			w.emit(c.StatePacket())
		}
	}
	w.emit(&protocol.TickMark{Tick: w.tick})
	w.tick++
}

func (w *World) emit(p protocol.Packet) {
	for _, fn := range w.subs {
		fn(p)
	}
}

// Run steps the world at the configured rate until the context ends.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.log.Info("world running", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			w.log.Info("world stopped", zap.Uint32("ticks", w.Tick()))
			return nil
		case <-ticker.C:
			w.Step()
		}
	}
}
