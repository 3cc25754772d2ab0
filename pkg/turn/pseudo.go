package turn

import (
	"fmt"

	"github.com/Faultbox/pivot/pkg/anim"
)

// PseudoState is the three-state substitute for the animation graph's turn
// states.
type PseudoState int

const (
	PseudoIdle PseudoState = iota
	PseudoTurnInPlace
	PseudoRecovery
)

func (s PseudoState) String() string {
	switch s {
	case PseudoIdle:
		return "idle"
	case PseudoTurnInPlace:
		return "turn-in-place"
	case PseudoRecovery:
		return "recovery"
	}
	return fmt.Sprintf("PseudoState(%d)", int(s))
}

// PseudoAnim mirrors the turn states of a real animation graph using only
// curve sampling and elapsed time. Contexts that cannot afford full
// animation evaluation every tick run this instead and feed its curves to
// the reconciliation algorithm.
type PseudoAnim struct {
	state PseudoState
	node  GraphNodeData
	anim  *anim.Sequence
	names CurveNames
}

// NewPseudoAnim returns an idle machine sampling the given curve names.
func NewPseudoAnim(names CurveNames) *PseudoAnim {
	return &PseudoAnim{
		names: names,
		node:  GraphNodeData{PlayRate: 1},
	}
}

// State returns the current pseudo state.
func (p *PseudoAnim) State() PseudoState {
	return p.state
}

// Node returns a copy of the current node data.
func (p *PseudoAnim) Node() GraphNodeData {
	return p.node
}

// Animation returns the sequence the machine is imagining, or nil before
// the first turn.
func (p *PseudoAnim) Animation() *anim.Sequence {
	return p.anim
}

// Update advances the machine by one tick. Transitions fire on the graph
// output computed this frame; time advances within the selected sequence.
func (p *PseudoAnim) Update(dt float64, data GraphData, out GraphOutput) {
	set := data.Set
	if set == nil {
		return
	}

	switch p.state {
	case PseudoIdle:
		if out.WantsToTurn {
			p.state = PseudoTurnInPlace
			p.node.StepIndex = data.StepIndex
			p.node.TurningRight = data.TurnRight
			p.node.AnimTime = 0
			p.anim = set.NodeAnimation(p.node, false)
			p.node.ReachedMaxAngle = false
			UpdateNodePlayRate(&p.node, data)
		}
	case PseudoTurnInPlace:
		if out.WantsRecovery {
			p.state = PseudoRecovery
			// AnimTime carries over; recovery continues the same timeline
			p.node.RecoveryTurningRight = p.node.TurningRight
			p.anim = set.NodeAnimation(p.node, true)
		} else {
			p.anim = set.NodeAnimation(p.node, false)
			p.node.AnimTime = AdvanceAnimTime(p.anim, p.node.AnimTime, dt, p.node.PlayRate)
			UpdateNodePlayRate(&p.node, data)
		}
	case PseudoRecovery:
		p.anim = set.NodeAnimation(p.node, true)
		// Recovery plays at 1x speed
		p.node.AnimTime = AdvanceAnimTime(p.anim, p.node.AnimTime, dt, 1)
		if p.anim == nil || p.node.AnimTime >= p.anim.PlayLength() {
			p.state = PseudoIdle
			p.node.PlayRate = 1
			p.node.ReachedMaxAngle = false
		}
	}
}

// TurnCurves samples the imagined animation at the node's elapsed time.
// Idle machines that have never turned sample as zero.
func (p *PseudoAnim) TurnCurves() CurveValues {
	if p.anim == nil {
		return CurveValues{}
	}
	var v CurveValues
	v.RemainingTurnYaw, _ = p.anim.CurveValue(p.names.Yaw, p.node.AnimTime)
	v.TurnYawWeight, _ = p.anim.CurveValue(p.names.Weight, p.node.AnimTime)
	return v
}
