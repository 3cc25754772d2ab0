// pivot-observe attaches to a running pivot daemon and mirrors its
// characters the way a remote client would: compressed offsets feed
// simulated turn components, and the pseudo state machine fills the
// gaps between updates.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/pivot/internal/assets"
	"github.com/Faultbox/pivot/internal/logger"
	"github.com/Faultbox/pivot/internal/protocol"
	"github.com/Faultbox/pivot/internal/transport"
	"github.com/Faultbox/pivot/pkg/anim"
	gomath "github.com/Faultbox/pivot/pkg/math"
	"github.com/Faultbox/pivot/pkg/turn"
)

func main() {
	url := flag.String("url", "ws://127.0.0.1:7680/observe", "Observer endpoint")
	every := flag.Uint("every", 30, "Print the view every N ticks")
	animSet := flag.String("animset", "", "Anim set document for the local mirror (default: built-in)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	if err := logger.Init(level, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	set, err := assets.NewLibrary(".", "assets").Load(*animSet)
	if err != nil {
		logger.Error("failed to load anim set", zap.Error(err))
		os.Exit(1)
	}

	view := newView(set, uint32(*every))
	client := transport.NewClient()
	client.RegisterHandler(protocol.PO_HELLO, view.onHello)
	client.RegisterHandler(protocol.PO_CHAR_STATE, view.onState)
	client.RegisterHandler(protocol.PO_TURN_OFFSET, view.onOffset)
	client.RegisterHandler(protocol.PO_TICK_MARK, view.onTick)

	if err := client.Connect(*url); err != nil {
		logger.Error("connect failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("observing", zap.String("url", *url))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		client.Disconnect()
	}()

	for {
		if err := client.Process(); err != nil {
			if ctx.Err() != nil {
				logger.Info("observer closed")
				return
			}
			logger.Error("stream ended", zap.Error(err))
			os.Exit(1)
		}
	}
}

// mirror is the observer-side reconstruction of one character. Body
// transform and flags come from state refreshes; the turn offset comes
// compressed and decays locally between updates.
type mirror struct {
	id      uint16
	x, y, z float32
	yaw     float64
	flags   uint8
	comp    *turn.Component
}

func (m *mirror) Yaw() float64       { return m.yaw }
func (m *mirror) SetYaw(yaw float64) { m.yaw = yaw }

// Velocity reconstructs just enough motion for the stationary check:
// moving characters report a unit velocity along their facing.
func (m *mirror) Velocity() gomath.Vec3 {
	if m.flags&protocol.FlagMoving != 0 {
		return gomath.DirectionFromYaw(m.yaw)
	}
	return gomath.Vec3{}
}

func (m *mirror) RotationSettings() turn.RotationSettings {
	if m.flags&protocol.FlagStrafe != 0 {
		return turn.RotationSettings{UseControllerRotationYaw: true}
	}
	return turn.RotationSettings{OrientToMovement: true}
}

func (m *mirror) DesiredControlYaw() (float64, bool)  { return 0, false }
func (m *mirror) FallbackDesiredYaw() (float64, bool) { return 0, false }
func (m *mirror) RootMotionMontage() *anim.Montage    { return nil }

// view owns the mirror table and renders it on tick marks.
type view struct {
	set    *turn.AnimSet
	every  uint32
	dt     float64
	TickNo uint32
	chars  map[uint16]*mirror
}

func newView(set *turn.AnimSet, every uint32) *view {
	if every == 0 {
		every = 1
	}
	return &view{
		set:   set,
		every: every,
		dt:    1.0 / 60,
		chars: make(map[uint16]*mirror),
	}
}

func (v *view) mirror(id uint16) *mirror {
	m, ok := v.chars[id]
	if !ok {
		m = &mirror{id: id}
		m.comp = turn.NewComponent(turn.ComponentConfig{
			Host:           m,
			AnimSet:        v.set,
			Role:           turn.RoleSimulated,
			UsePseudoState: true,
			Log:            logger.Named("mirror"),
		})
		v.chars[id] = m
	}
	return m
}

func (v *view) onHello(p protocol.Packet) error {
	hello := p.(*protocol.Hello)
	if hello.TickRate > 0 {
		v.dt = 1.0 / float64(hello.TickRate)
	}
	logger.Info("stream open",
		zap.Uint16("version", hello.Version),
		zap.Uint16("tick_rate", hello.TickRate),
		zap.Uint16("characters", hello.Characters))
	return nil
}

func (v *view) onState(p protocol.Packet) error {
	cs := p.(*protocol.CharacterState)
	m := v.mirror(cs.ID)
	m.x, m.y, m.z = cs.X, cs.Y, cs.Z
	m.yaw = gomath.DecompressYaw(cs.Yaw)
	m.flags = cs.Flags
	return nil
}

func (v *view) onOffset(p protocol.Packet) error {
	off := p.(*protocol.TurnOffset)
	v.mirror(off.ID).comp.ApplyReplicatedOffset(off.Offset)
	return nil
}

// onTick advances every mirror one step: decay the offset, then let the
// pseudo machine chase the current graph data.
func (v *view) onTick(p protocol.Packet) error {
	v.TickNo = p.(*protocol.TickMark).Tick
	for _, m := range v.chars {
		m.comp.Simulate()
		data := m.comp.GatherGraphData()
		out := turn.ProcessGraphData(data)
		m.comp.UpdatePseudoState(v.dt, data, out)
	}
	if v.TickNo%v.every == 0 {
		v.render()
	}
	return nil
}

func (v *view) render() {
	ids := make([]int, 0, len(v.chars))
	for id := range v.chars {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	fmt.Printf("tick %d\n", v.TickNo)
	fmt.Printf("  %3s  %8s  %8s  %9s  %9s  %-14s %s\n",
		"id", "yaw", "offset", "x", "z", "state", "flags")
	for _, id := range ids {
		m := v.chars[uint16(id)]
		fmt.Printf("  %3d  %8.2f  %8.2f  %9.1f  %9.1f  %-14s %s\n",
			m.id, m.yaw, m.comp.TurnOffset(), m.x, m.z,
			m.comp.Pseudo().State(), flagString(m.flags))
	}
}

func flagString(f uint8) string {
	buf := []byte("----")
	if f&protocol.FlagMoving != 0 {
		buf[0] = 'M'
	}
	if f&protocol.FlagTurning != 0 {
		buf[1] = 'T'
	}
	if f&protocol.FlagTurnRight != 0 {
		buf[2] = 'R'
	}
	if f&protocol.FlagStrafe != 0 {
		buf[3] = 'S'
	}
	return string(buf)
}
