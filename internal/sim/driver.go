package sim

import (
	"github.com/Faultbox/pivot/pkg/anim"
	"github.com/Faultbox/pivot/pkg/turn"
)

// Driver runs the turn states against a real animation player. It makes
// the same transitions the pseudo machine imagines, but starts actual
// sequences and keeps the play rate in sync, so the component's curve
// source samples live playback.
type Driver struct {
	player *anim.Player
	state  turn.PseudoState
	node   turn.GraphNodeData
}

// NewDriver returns an idle driver over the given player.
func NewDriver(p *anim.Player) *Driver {
	return &Driver{
		player: p,
		node:   turn.GraphNodeData{PlayRate: 1},
	}
}

// State returns the current turn state.
func (d *Driver) State() turn.PseudoState {
	return d.state
}

// Node returns a copy of the current node data.
func (d *Driver) Node() turn.GraphNodeData {
	return d.node
}

// Update applies this frame's graph output. The player itself advances
// separately; the driver only starts sequences and retunes rates.
func (d *Driver) Update(data turn.GraphData, out turn.GraphOutput) {
	set := data.Set
	if set == nil {
		return
	}

	switch d.state {
	case turn.PseudoIdle:
		if out.PlayTurnAnimation {
			d.state = turn.PseudoTurnInPlace
			d.node.StepIndex = data.StepIndex
			d.node.TurningRight = data.TurnRight
			d.node.ReachedMaxAngle = false
			turn.UpdateNodePlayRate(&d.node, data)
			d.player.Play(set.NodeAnimation(d.node, false))
			d.player.SetRate(d.node.PlayRate)
		}
	case turn.PseudoTurnInPlace:
		if out.WantsRecovery {
			d.state = turn.PseudoRecovery
			// Recovery continues the same timeline at normal speed
			d.node.RecoveryTurningRight = d.node.TurningRight
			d.player.PlayFrom(set.NodeAnimation(d.node, true), d.player.Time())
			d.player.SetRate(1)
		} else {
			turn.UpdateNodePlayRate(&d.node, data)
			d.player.SetRate(d.node.PlayRate)
		}
	case turn.PseudoRecovery:
		if d.player.Sequence() == nil || d.player.Finished() {
			d.state = turn.PseudoIdle
			d.node.PlayRate = 1
			d.node.ReachedMaxAngle = false
			d.player.SetRate(1)
		}
	}
	d.node.AnimTime = d.player.Time()
}
