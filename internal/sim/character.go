// Package sim runs the demo world: scripted characters on a fixed tick,
// each reconciling its facing through a turn component and publishing
// state changes as protocol packets.
package sim

import (
	"go.uber.org/zap"

	"github.com/Faultbox/pivot/internal/protocol"
	"github.com/Faultbox/pivot/pkg/anim"
	gomath "github.com/Faultbox/pivot/pkg/math"
	"github.com/Faultbox/pivot/pkg/turn"
)

// Character is one simulated body. It owns its kinematic state, an
// animation player evaluating the active turn sequence, and the turn
// component that splits its facing between body and animation.
type Character struct {
	ID   uint16
	Name string

	Position gomath.Vec3
	velocity gomath.Vec3
	yaw      float64

	settings turn.RotationSettings

	// Controller intent for the current tick.
	controlYaw float64
	possessed  bool
	inputDir   gomath.Vec3
	inputSpeed float64

	Player   *anim.Player
	Turn     *turn.Component
	Driver   *Driver
	Movement *Movement

	controller *Controller
}

// NewCharacter builds a possessed authority character with a real
// animation evaluator wired into its turn component.
func NewCharacter(id uint16, name string, set *turn.AnimSet, log *zap.Logger) *Character {
	c := &Character{
		ID:        id,
		Name:      name,
		possessed: true,
		Player:    anim.NewPlayer(),
	}
	c.Turn = turn.NewComponent(turn.ComponentConfig{
		Host:    c,
		AnimSet: set,
		Source:  turn.NewPlayerCurveSource(c.Player),
		Role:    turn.RoleAuthority,
		Log:     log,
	})
	c.Driver = NewDriver(c.Player)
	c.Movement = NewMovement(c)
	return c
}

// Yaw returns the body yaw in degrees.
func (c *Character) Yaw() float64 {
	return c.yaw
}

// SetYaw writes the body yaw.
func (c *Character) SetYaw(yaw float64) {
	c.yaw = yaw
}

// Velocity returns the current velocity.
func (c *Character) Velocity() gomath.Vec3 {
	return c.velocity
}

// RotationSettings returns the live movement rotation settings.
func (c *Character) RotationSettings() turn.RotationSettings {
	return c.settings
}

// DesiredControlYaw returns the controller facing and whether a
// controller is attached.
func (c *Character) DesiredControlYaw() (float64, bool) {
	return c.controlYaw, c.possessed
}

// FallbackDesiredYaw holds no value for scripted characters; their
// controller never detaches mid-scenario.
func (c *Character) FallbackDesiredYaw() (float64, bool) {
	return 0, false
}

// RootMotionMontage returns the player's active root motion montage.
func (c *Character) RootMotionMontage() *anim.Montage {
	return c.Player.RootMotionMontage()
}

// ControlYaw returns the controller facing currently applied.
func (c *Character) ControlYaw() float64 {
	return c.controlYaw
}

// SetControlYaw points the controller facing.
func (c *Character) SetControlYaw(yaw float64) {
	c.controlYaw = gomath.NormalizeYaw(yaw)
}

// SetRotationSettings swaps the movement rotation settings. The turn
// method reclassifies on the next dispatch.
func (c *Character) SetRotationSettings(rs turn.RotationSettings) {
	c.settings = rs
}

// SetController attaches the scripted controller driving this character.
func (c *Character) SetController(ct *Controller) {
	c.controller = ct
}

// StatePacket snapshots the character into a wire packet.
func (c *Character) StatePacket() *protocol.CharacterState {
	var flags uint8
	if !c.Turn.Stationary() {
		flags |= protocol.FlagMoving
	}
	if c.Turn.IsTurning() {
		flags |= protocol.FlagTurning
	}
	node := c.Driver.Node()
	if node.TurningRight {
		flags |= protocol.FlagTurnRight
	}
	if c.Turn.TurnMode() == turn.TurnModeStrafe {
		flags |= protocol.FlagStrafe
	}
	return &protocol.CharacterState{
		ID:    c.ID,
		X:     float32(c.Position.X),
		Y:     float32(c.Position.Y),
		Z:     float32(c.Position.Z),
		Yaw:   gomath.CompressYaw(c.yaw),
		Flags: flags,
		Anim:  uint8(c.Driver.State()),
		Step:  uint8(node.StepIndex),
	}
}

// Tick advances the character by one fixed step: controller, movement
// and rotation, graph data, then animation playback.
func (c *Character) Tick(dt float64) {
	if c.controller != nil {
		c.controller.Update(c, dt)
	}
	c.Movement.Integrate(dt)

	data := c.Turn.GatherGraphData()
	out := turn.ProcessGraphData(data)
	c.Driver.Update(data, out)
	c.Player.Advance(dt)
}
