package turn

import "github.com/Faultbox/pivot/pkg/anim"

// CurveValues is the per-frame turn curve sample the reconciliation
// algorithm consumes. Both the real animation evaluator and the pseudo
// state machine produce this shape.
type CurveValues struct {
	// RemainingTurnYaw is how much rotation, in degrees, the playing turn
	// animation still contains.
	RemainingTurnYaw float64
	// TurnYawWeight scales how much of the remaining yaw is trusted.
	// Near zero means the animation is in its recovery tail.
	TurnYawWeight float64
}

// CurveSource supplies turn curve samples once per frame.
type CurveSource interface {
	TurnCurves() CurveValues
}

// PlayerCurveSource samples turn curves from a sequence player, standing
// in for a live animation evaluator.
type PlayerCurveSource struct {
	Player *anim.Player
	Names  CurveNames
}

// NewPlayerCurveSource wraps a player with the conventional curve names.
func NewPlayerCurveSource(p *anim.Player) *PlayerCurveSource {
	return &PlayerCurveSource{Player: p, Names: DefaultCurveNames()}
}

// TurnCurves samples both named curves at the player's position. Missing
// curves sample as zero, which reads as "not turning".
func (s *PlayerCurveSource) TurnCurves() CurveValues {
	if s == nil || s.Player == nil {
		return CurveValues{}
	}
	var v CurveValues
	v.RemainingTurnYaw, _ = s.Player.CurveValue(s.Names.Yaw)
	v.TurnYawWeight, _ = s.Player.CurveValue(s.Names.Weight)
	return v
}
