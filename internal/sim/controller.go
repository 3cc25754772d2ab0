package sim

import (
	"github.com/Faultbox/pivot/pkg/anim"
	gomath "github.com/Faultbox/pivot/pkg/math"
	"github.com/Faultbox/pivot/pkg/turn"
)

// CommandKind selects what a script command does.
type CommandKind int

const (
	// CmdFace points the control rotation at a yaw and releases input.
	CmdFace CommandKind = iota
	// CmdMove pushes input in a direction at a target speed. Speed zero
	// pushes without moving, which still steers the last input vector.
	CmdMove
	// CmdStrafe swaps the rotation settings between the strafe preset
	// and the orient-to-movement preset.
	CmdStrafe
	// CmdMontage plays a montage and releases input.
	CmdMontage
)

// Command is one timed step of a character script.
type Command struct {
	Kind     CommandKind
	Duration float64 // seconds before the next command

	Yaw     float64       // CmdFace
	Dir     gomath.Vec3   // CmdMove input direction
	Speed   float64       // CmdMove target speed in units per second
	Strafe  bool          // CmdStrafe
	Montage *anim.Montage // CmdMontage
}

// Controller steps a character through a timed command script. It stands
// in for player input; each command mutates the character's intent and
// holds it until the next one fires.
type Controller struct {
	script  []Command
	index   int
	elapsed float64
	started bool
	loop    bool
}

// NewController builds a controller over a script. A looping controller
// restarts at the top once the script runs out; otherwise the final
// command holds forever.
func NewController(script []Command, loop bool) *Controller {
	return &Controller{script: script, loop: loop}
}

// Update applies the active command and advances the script clock.
func (ct *Controller) Update(c *Character, dt float64) {
	if len(ct.script) == 0 {
		return
	}
	if !ct.started {
		ct.started = true
		ct.apply(c, ct.script[ct.index])
	}
	ct.elapsed += dt
	// Zero-duration commands chain within one tick, capped at one lap
	for hops := 0; hops <= len(ct.script); hops++ {
		cmd := ct.script[ct.index]
		if ct.elapsed < cmd.Duration {
			return
		}
		next := ct.index + 1
		if next >= len(ct.script) {
			if !ct.loop {
				ct.elapsed = cmd.Duration
				return
			}
			next = 0
		}
		ct.elapsed -= cmd.Duration
		ct.index = next
		ct.apply(c, ct.script[ct.index])
	}
}

func (ct *Controller) apply(c *Character, cmd Command) {
	switch cmd.Kind {
	case CmdFace:
		c.SetControlYaw(cmd.Yaw)
		c.inputDir = gomath.Vec3{}
		c.inputSpeed = 0
	case CmdMove:
		c.inputDir = normalizeInput(cmd.Dir)
		c.inputSpeed = cmd.Speed
	case CmdStrafe:
		if cmd.Strafe {
			c.SetRotationSettings(turn.RotationSettings{UseControllerRotationYaw: true})
		} else {
			c.SetRotationSettings(turn.RotationSettings{
				OrientToMovement:             true,
				UseControllerDesiredRotation: true,
			})
		}
	case CmdMontage:
		c.inputDir = gomath.Vec3{}
		c.inputSpeed = 0
		if cmd.Montage != nil {
			c.Player.PlayMontage(cmd.Montage)
		}
	}
}

func normalizeInput(v gomath.Vec3) gomath.Vec3 {
	if v.IsNearlyZero(inputTolerance) {
		return gomath.Vec3{}
	}
	return v.Normalize()
}
