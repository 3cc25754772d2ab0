package anim

import "math"

// BakeParams describes a turn animation to synthesize. TurnAngle is the
// signed yaw the animation rotates through in degrees, positive for a
// right turn. RecoveryStart is the time at which rotation has finished and
// the remainder of the sequence is settle.
type BakeParams struct {
	Name          string
	TurnAngle     float64
	Duration      float64
	RecoveryStart float64
	// SampleRate is keys per second for the yaw curve. Zero means 30.
	SampleRate float64
	// Curve names. Empty means the conventional names.
	YawCurveName    string
	WeightCurveName string
}

// settleTolerance is how close to zero the remaining yaw must be before
// the weight curve steps off.
const settleTolerance = 0.1

// BakeTurnSequence synthesizes a turn sequence from scratch: a remaining
// yaw curve easing from the full turn angle down to zero by recovery
// start, and a stepped weight curve that holds 1 until the yaw has
// settled. Authored animations carry these curves from source assets; the
// baker produces equivalent ones for synthetic sets.
func BakeTurnSequence(p BakeParams) *Sequence {
	if p.Duration <= 0 {
		p.Duration = 1
	}
	if p.RecoveryStart <= 0 || p.RecoveryStart > p.Duration {
		p.RecoveryStart = p.Duration
	}
	if p.SampleRate <= 0 {
		p.SampleRate = 30
	}
	yawName := p.YawCurveName
	if yawName == "" {
		yawName = CurveRemainingTurnYaw
	}
	weightName := p.WeightCurveName
	if weightName == "" {
		weightName = CurveTurnYawWeight
	}

	seq := &Sequence{
		Name:      p.Name,
		Length:    p.Duration,
		RateScale: 1,
	}

	yaw := &Curve{Interp: InterpLinear}
	step := 1 / p.SampleRate
	settled := p.RecoveryStart
	for t := 0.0; t < p.RecoveryStart; t += step {
		remaining := p.TurnAngle * (1 - smoothstep(t/p.RecoveryStart))
		yaw.AddKey(t, remaining)
		if math.Abs(remaining) <= settleTolerance && t < settled {
			settled = t
		}
	}
	yaw.AddKey(p.RecoveryStart, 0)
	if p.RecoveryStart < p.Duration {
		yaw.AddKey(p.Duration, 0)
	}
	seq.SetCurve(yawName, yaw)

	weight := &Curve{Interp: InterpStep}
	weight.AddKey(0, 1)
	weight.AddKey(settled, 0)
	seq.SetCurve(weightName, weight)

	return seq
}

func smoothstep(u float64) float64 {
	if u <= 0 {
		return 0
	}
	if u >= 1 {
		return 1
	}
	return u * u * (3 - 2*u)
}
