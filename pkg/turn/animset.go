package turn

import (
	"fmt"

	"github.com/Faultbox/pivot/pkg/anim"
)

// AnimSet bundles the turn animations for each step-size bucket with the
// params that drive them. One set is active per character at a time;
// swapping sets swaps params with them.
type AnimSet struct {
	Name   string
	Params Params

	// PlayRateOnDirectionChange speeds up a turn animation that is now
	// going the wrong way so it completes faster.
	PlayRateOnDirectionChange float64

	// PlayRateAtMaxAngle speeds up turning while the offset sits clamped
	// at the max angle, so the body keeps up with a fast camera.
	PlayRateAtMaxAngle float64

	// MaintainMaxAnglePlayRate keeps the max-angle play rate for the rest
	// of the current turn animation. Mouse input re-enters the max angle
	// rapidly and would otherwise jitter the rate.
	MaintainMaxAnglePlayRate bool

	// LeftTurns and RightTurns are indexed by step-size bucket. Recovery
	// plays the same sequences past their yaw-extraction window.
	LeftTurns  []*anim.Sequence
	RightTurns []*anim.Sequence
}

// Animation resolves the sequence for a step-size bucket and direction.
// Returns nil when the bucket has no authored animation.
func (s *AnimSet) Animation(stepIndex int, turnRight bool) *anim.Sequence {
	if s == nil {
		return nil
	}
	list := s.LeftTurns
	if turnRight {
		list = s.RightTurns
	}
	if stepIndex < 0 || stepIndex >= len(list) {
		return nil
	}
	return list[stepIndex]
}

// NodeAnimation resolves the sequence for a graph node, honoring the
// recovery direction once the node has entered recovery.
func (s *AnimSet) NodeAnimation(node GraphNodeData, recovery bool) *anim.Sequence {
	right := node.TurningRight
	if recovery {
		right = node.RecoveryTurningRight
	}
	return s.Animation(node.StepIndex, right)
}

// DefaultAnimSet synthesizes a complete set for the default step sizes by
// baking turn curves. Longer turns get longer sequences.
func DefaultAnimSet() *AnimSet {
	set := &AnimSet{
		Name:                      "default",
		Params:                    DefaultParams(),
		PlayRateOnDirectionChange: 1.7,
		PlayRateAtMaxAngle:        1.3,
		MaintainMaxAnglePlayRate:  true,
	}
	durations := map[int]struct{ length, recovery float64 }{
		60:  {0.8, 0.55},
		90:  {1.0, 0.7},
		180: {1.4, 1.0},
	}
	for _, step := range set.Params.StepSizes {
		d, ok := durations[step]
		if !ok {
			d = struct{ length, recovery float64 }{1.0, 0.7}
		}
		set.LeftTurns = append(set.LeftTurns, anim.BakeTurnSequence(anim.BakeParams{
			Name:          fmt.Sprintf("turn_l_%d", step),
			TurnAngle:     -float64(step),
			Duration:      d.length,
			RecoveryStart: d.recovery,
		}))
		set.RightTurns = append(set.RightTurns, anim.BakeTurnSequence(anim.BakeParams{
			Name:          fmt.Sprintf("turn_r_%d", step),
			TurnAngle:     float64(step),
			Duration:      d.length,
			RecoveryStart: d.recovery,
		}))
	}
	return set
}
