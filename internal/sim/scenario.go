package sim

import (
	"sort"

	"github.com/Faultbox/pivot/pkg/anim"
	gomath "github.com/Faultbox/pivot/pkg/math"
	"github.com/Faultbox/pivot/pkg/turn"
)

// Scenario seeds one character slot with rotation settings, movement
// tuning, and a command script.
type Scenario func(slot int, c *Character)

// Scenarios holds the built-in scripts by name.
var Scenarios = map[string]Scenario{
	"turns":  TurnsScenario,
	"patrol": PatrolScenario,
}

// ScenarioNames lists the built-in scenarios in sorted order.
func ScenarioNames() []string {
	names := make([]string, 0, len(Scenarios))
	for name := range Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TurnsScenario exercises stationary turns. Most slots are strafe
// characters sweeping their camera through turns of both directions and
// sizes; every third slot orients to movement and steers its input while
// rooted, turning through the last input vector instead. One slot in
// three pauses mid-script for a root motion montage.
func TurnsScenario(slot int, c *Character) {
	// De-phase the slots so observers see staggered traffic
	base := float64(slot) * 37

	if slot%3 == 2 {
		c.SetYaw(base)
		c.SetControlYaw(base)
		c.SetRotationSettings(turn.RotationSettings{OrientToMovement: true})
		c.Movement.RotateToLastInput = true
		c.SetController(NewController([]Command{
			{Kind: CmdMove, Dir: gomath.DirectionFromYaw(base), Duration: 2},
			{Kind: CmdMove, Dir: gomath.DirectionFromYaw(base + 120), Duration: 2},
			{Kind: CmdMove, Dir: gomath.DirectionFromYaw(base - 90), Duration: 2},
		}, true))
		return
	}

	c.SetYaw(base)
	c.SetControlYaw(base)
	c.SetRotationSettings(turn.RotationSettings{UseControllerRotationYaw: true})
	script := []Command{
		{Kind: CmdFace, Yaw: base, Duration: 1},
		{Kind: CmdFace, Yaw: base + 170, Duration: 2.5},
		{Kind: CmdFace, Yaw: base + 20, Duration: 2.5},
		{Kind: CmdMove, Dir: gomath.DirectionFromYaw(base + 20), Speed: 200, Duration: 1.5},
		{Kind: CmdFace, Yaw: base - 110, Duration: 2.5},
	}
	if slot%3 == 1 {
		script = append(script,
			Command{Kind: CmdMontage, Montage: stepAdjustMontage(), Duration: 1.2},
			Command{Kind: CmdFace, Yaw: base + 60, Duration: 2},
		)
	}
	c.SetController(NewController(script, true))
}

// PatrolScenario walks characters around a square. Corners brake to a
// stop, turn in place toward the next leg through controller desired
// rotation, then orient to movement down the leg.
func PatrolScenario(slot int, c *Character) {
	c.SetRotationSettings(turn.RotationSettings{
		OrientToMovement:             true,
		UseControllerDesiredRotation: true,
	})

	legs := []float64{0, 90, 180, -90}
	var script []Command
	for i, yaw := range legs {
		next := legs[(i+1)%len(legs)]
		script = append(script,
			Command{Kind: CmdMove, Dir: gomath.DirectionFromYaw(yaw), Speed: 220, Duration: 2},
			Command{Kind: CmdFace, Yaw: next, Duration: 1.5},
		)
	}

	// Stagger the slots around the square
	phase := slot % len(legs)
	script = append(script[2*phase:], script[:2*phase]...)
	c.SetYaw(legs[phase])
	c.SetControlYaw(legs[phase])
	c.SetController(NewController(script, true))
}

// stepAdjustMontage is a short full-body root motion montage. While it
// plays the turn component pauses and the default rotation path owns the
// body.
func stepAdjustMontage() *anim.Montage {
	return &anim.Montage{Name: "step_adjust", Slot: "FullBody", Length: 1.2, RootMotion: true}
}
