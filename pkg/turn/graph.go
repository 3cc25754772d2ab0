package turn

import (
	"math"

	"github.com/Faultbox/pivot/pkg/anim"
)

// maxAngleTolerance decides "offset sits at the max angle" for play rate
// purposes. The clamp writes the max angle exactly, so this only absorbs
// float noise.
const maxAngleTolerance = 1e-8

// GraphData is the main-thread snapshot handed to the animation graph.
// Everything that touches live host state is gathered here; the process
// phase is a pure function of this data.
type GraphData struct {
	TurnOffset float64
	// IsTurning reports a nonzero weight curve this frame.
	IsTurning bool
	// StepIndex and TurnRight select the animation for the current offset.
	StepIndex int
	TurnRight bool

	Mode           TurnMode
	Angles         Angles
	HasValidAngles bool

	// WantsToTurn triggers the idle-to-turn transition: not locked, step
	// sizes configured, and the offset has passed the trigger threshold.
	WantsToTurn bool

	// UsePseudoState marks contexts that substitute the pseudo state
	// machine for real animation evaluation.
	UsePseudoState bool

	Set *AnimSet
}

// GraphOutput is what the process phase feeds back to animation states.
type GraphOutput struct {
	TurnOffset float64

	// WantsToTurn and WantsRecovery drive the turn state transitions.
	WantsToTurn   bool
	WantsRecovery bool

	// StartCycleFromTurn and StopToIdleForTurn drive locomotion
	// transitions that depend on an in-progress turn.
	StartCycleFromTurn bool
	StopToIdleForTurn  bool

	// PlayTurnAnimation is set when a real evaluator should start the
	// selected turn animation.
	PlayTurnAnimation bool
}

// GraphNodeData is the mutable state of a turn animation node, shared by
// the real graph driver and the pseudo state machine.
type GraphNodeData struct {
	StepIndex    int
	TurningRight bool
	// RecoveryTurningRight freezes the direction when recovery begins, so
	// a flipped offset does not swap the recovery animation mid-play.
	RecoveryTurningRight bool
	// AnimTime is the elapsed time within the imagined animation.
	AnimTime float64
	PlayRate float64
	// ReachedMaxAngle is sticky for the current turn to stop the play
	// rate from jittering as mouse input re-enters the max angle.
	ReachedMaxAngle bool
}

// ProcessGraphData derives animation transitions from gathered data.
// Pure; safe to run off the main thread.
func ProcessGraphData(data GraphData) GraphOutput {
	var out GraphOutput
	out.TurnOffset = data.TurnOffset
	out.WantsToTurn = data.WantsToTurn
	out.WantsRecovery = !data.IsTurning
	out.StartCycleFromTurn = data.Mode == TurnModeStrafe && data.HasValidAngles &&
		math.Abs(data.TurnOffset) > data.Angles.Min
	out.StopToIdleForTurn = data.IsTurning || data.WantsToTurn
	out.PlayTurnAnimation = data.WantsToTurn && !data.UsePseudoState
	return out
}

// DetermineStepSize picks the step-size bucket for an accumulated offset.
// An empty bucket list is a configuration error; callers warn and this
// returns index 0.
func DetermineStepSize(p *Params, turnOffset float64) (index int, turnRight bool) {
	stepAngle := math.Abs(turnOffset) + p.SelectOffset
	turnRight = turnOffset > 0

	if len(p.StepSizes) == 0 {
		return 0, turnRight
	}

	switch p.SelectMode {
	case SelectNearest:
		diff := 0.0
		for i, bucket := range p.StepSizes {
			d := math.Abs(stepAngle - float64(bucket))
			if i == 0 || d < diff {
				diff = d
				index = i
			}
		}
	case SelectGreater:
		for i, bucket := range p.StepSizes {
			if int(math.Floor(stepAngle)) >= bucket {
				index = i
			}
		}
	}
	return index, turnRight
}

// TurnPlayRate computes the play rate for a turn in progress. turningRight
// is the direction of the animation already playing; a flipped offset
// speeds that animation up so the character completes it faster. force
// carries the sticky reached-max-angle flag from previous ticks; reached
// reports whether the offset is at the max angle now or was forced.
//
// The two rate conditions do not stack. Taking the larger multiplier
// keeps a simultaneous direction change at max angle from running away.
func TurnPlayRate(data GraphData, turningRight, force bool) (rate float64, reached bool) {
	reached = force
	if !force && data.HasValidAngles {
		reached = math.Abs(math.Abs(data.TurnOffset)-data.Angles.Max) < maxAngleTolerance
	}

	maxAngleRate := 1.0
	dirChangeRate := 1.0
	if data.Set != nil {
		if reached {
			maxAngleRate = data.Set.PlayRateAtMaxAngle
		}
		wantsRight := data.TurnOffset > 0
		if data.IsTurning && wantsRight != turningRight {
			dirChangeRate = data.Set.PlayRateOnDirectionChange
		}
	}

	// Rates below 1 are not supported by this logic
	return math.Max(maxAngleRate, dirChangeRate), reached
}

// UpdateNodePlayRate recomputes a node's play rate, retaining the
// max-angle rate for the rest of the current turn when configured.
func UpdateNodePlayRate(node *GraphNodeData, data GraphData) {
	var reached bool
	node.PlayRate, reached = TurnPlayRate(data, node.TurningRight, node.ReachedMaxAngle)
	node.ReachedMaxAngle = data.Set != nil && data.Set.MaintainMaxAnglePlayRate && reached
}

// AdvanceAnimTime steps an animation clock, scaled by the play rate and
// the sequence's own rate scale, clamping at the sequence length.
func AdvanceAnimTime(seq *anim.Sequence, current, dt, rate float64) float64 {
	if seq == nil {
		return current
	}
	scale := seq.RateScale
	if scale == 0 {
		scale = 1
	}
	return math.Min(current+dt*rate*scale, seq.Length)
}
