package turn

import (
	"fmt"

	"github.com/Faultbox/pivot/pkg/anim"
)

// State controls whether turn in place may run at all.
type State int

const (
	// StateEnabled allows normal turn in place behavior.
	StateEnabled State = iota
	// StateLocked prevents any rotation changes. The accumulated state is
	// zeroed while locked.
	StateLocked
	// StatePaused keeps rotation changes but stops new offset from
	// accumulating. Used while root motion montages drive the character.
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateEnabled:
		return "enabled"
	case StateLocked:
		return "locked"
	case StatePaused:
		return "paused"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState converts a configuration string into a State.
func ParseState(s string) (State, error) {
	switch s {
	case "enabled":
		return StateEnabled, nil
	case "locked":
		return StateLocked, nil
	case "paused":
		return StatePaused, nil
	}
	return StateEnabled, fmt.Errorf("unknown turn state %q", s)
}

// Override forces the enabled state at runtime regardless of the
// configured params.
type Override int

const (
	OverrideDefault Override = iota
	OverrideForceEnabled
	OverrideForceLocked
	OverrideForcePaused
)

func (o Override) String() string {
	switch o {
	case OverrideDefault:
		return "default"
	case OverrideForceEnabled:
		return "force-enabled"
	case OverrideForceLocked:
		return "force-locked"
	case OverrideForcePaused:
		return "force-paused"
	}
	return fmt.Sprintf("Override(%d)", int(o))
}

// SelectMode governs how an accumulated offset picks a step-size bucket.
type SelectMode int

const (
	// SelectGreater picks the highest bucket the offset meets or exceeds.
	SelectGreater SelectMode = iota
	// SelectNearest picks the bucket closest to the offset.
	SelectNearest
)

func (m SelectMode) String() string {
	switch m {
	case SelectGreater:
		return "greater"
	case SelectNearest:
		return "nearest"
	}
	return fmt.Sprintf("SelectMode(%d)", int(m))
}

// ParseSelectMode converts a configuration string into a SelectMode.
func ParseSelectMode(s string) (SelectMode, error) {
	switch s {
	case "greater":
		return SelectGreater, nil
	case "nearest":
		return SelectNearest, nil
	}
	return SelectGreater, fmt.Errorf("unknown select mode %q", s)
}

// TurnMode keys the angle thresholds by how the character resolves its
// facing. Strafing characters face the camera; movement characters face
// their travel direction.
type TurnMode int

const (
	TurnModeMovement TurnMode = iota
	TurnModeStrafe
)

func (m TurnMode) String() string {
	switch m {
	case TurnModeMovement:
		return "movement"
	case TurnModeStrafe:
		return "strafe"
	}
	return fmt.Sprintf("TurnMode(%d)", int(m))
}

// Angles holds the trigger threshold and the hard clamp for one turn mode.
type Angles struct {
	// Min is the offset angle at which turn in place triggers.
	Min float64
	// Max hard-clamps the accumulated offset. Zero disables the clamp.
	Max float64
}

// MontageRules decides which root motion montages do not pause turn in
// place. A montage is ignored when any rule matches.
type MontageRules struct {
	// IgnoreAdditive ignores montages with additive tracks.
	IgnoreAdditive bool
	// IgnoreSlots ignores montages playing in any of these slots.
	IgnoreSlots []string
	// IgnoreNames ignores montages by name.
	IgnoreNames []string
}

// CurveNames identifies the two scalar curves a turn animation carries.
type CurveNames struct {
	// Yaw is the remaining turn yaw curve, in degrees.
	Yaw string
	// Weight scales how much of the remaining yaw is currently trusted.
	Weight string
}

// DefaultCurveNames returns the conventional curve names.
func DefaultCurveNames() CurveNames {
	return CurveNames{
		Yaw:    anim.CurveRemainingTurnYaw,
		Weight: anim.CurveTurnYawWeight,
	}
}

// Params is the designer-facing turn in place configuration. It is treated
// as a read-only snapshot during a frame.
type Params struct {
	State        State
	SelectMode   SelectMode
	SelectOffset float64

	// TurnAngles maps each turn mode to its thresholds. A missing entry
	// degrades to "cannot trigger, never clamped" with a logged warning.
	TurnAngles map[TurnMode]Angles

	// StepSizes are the discrete angle buckets, in degrees, that select
	// which turn animation variant plays.
	StepSizes []int

	// MovingInterpOutRate is how fast a leftover offset blends away once
	// the character starts moving, in alpha fraction per second. Only used
	// when facing is driven directly by control rotation.
	MovingInterpOutRate float64

	Montages MontageRules
}

// DefaultParams mirrors the stock configuration: strafing clamps at 135
// degrees, movement is unclamped, and both trigger at 60.
func DefaultParams() Params {
	return Params{
		State:        StateEnabled,
		SelectMode:   SelectGreater,
		SelectOffset: 0,
		TurnAngles: map[TurnMode]Angles{
			TurnModeMovement: {Min: 60, Max: 0},
			TurnModeStrafe:   {Min: 60, Max: 135},
		},
		StepSizes:           []int{60, 90, 180},
		MovingInterpOutRate: 1,
		Montages: MontageRules{
			IgnoreAdditive: true,
			IgnoreSlots:    []string{"UpperBody", "UpperBodyAdditive", "Attack"},
		},
	}
}

// AnglesFor returns the thresholds for a turn mode, if configured.
func (p *Params) AnglesFor(mode TurnMode) (Angles, bool) {
	a, ok := p.TurnAngles[mode]
	return a, ok
}

// ShouldIgnoreMontage reports whether a montage is exempt from pausing
// turn in place.
func (p *Params) ShouldIgnoreMontage(m *anim.Montage) bool {
	if m == nil {
		return false
	}
	for _, name := range p.Montages.IgnoreNames {
		if name == m.Name {
			return true
		}
	}
	if p.Montages.IgnoreAdditive && m.Additive {
		return true
	}
	for _, slot := range p.Montages.IgnoreSlots {
		if slot == m.Slot {
			return true
		}
	}
	return false
}
