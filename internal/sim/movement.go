package sim

import (
	"math"

	gomath "github.com/Faultbox/pivot/pkg/math"
	"github.com/Faultbox/pivot/pkg/turn"
)

// inputTolerance bounds vector magnitudes that still count as zero input.
const inputTolerance = 1e-4

// rootMotionInputGrace is how long, in seconds, the last input vector is
// held after a root motion montage ends. The tiny residual velocities
// right after root motion would otherwise swing it at random.
const rootMotionInputGrace = 0.25

// Movement integrates one character's kinematics and owns the rotation
// step of its tick. Rotation goes through the turn component first; the
// integrator's own facing logic runs only when the component hands back.
type Movement struct {
	char *Character

	// RotationRate is the yaw rate in degrees per second for the
	// integrator's own rotation. Negative snaps the full way around.
	RotationRate float64
	// IdleRotationRate replaces RotationRate while stationary, so a
	// character the turn component hands back still comes around fast.
	IdleRotationRate float64
	// RotateToLastInput turns a stationary orient-to-movement character
	// toward its last input direction instead of holding its facing.
	RotateToLastInput bool

	// AccelRate and BrakingRate shape the velocity ramp in units per
	// second squared.
	AccelRate   float64
	BrakingRate float64

	// Acceleration is this tick's acceleration, rebuilt from input.
	Acceleration gomath.Vec3

	lastInput gomath.Vec3
	graceLeft float64

	lastMove SavedMove
}

// SavedMove is the rotation bookkeeping of one tick, kept so a corrected
// tick can be replayed over a new start rotation.
type SavedMove struct {
	StartYaw       float64
	AppliedTurnYaw float64
}

// NewMovement returns an integrator with walking-speed defaults.
func NewMovement(c *Character) *Movement {
	return &Movement{
		char:             c,
		RotationRate:     360,
		IdleRotationRate: 720,
		AccelRate:        800,
		BrakingRate:      1600,
	}
}

// Integrate advances velocity and position from controller input, then
// runs the rotation step.
func (m *Movement) Integrate(dt float64) {
	c := m.char

	switch {
	case c.Player.RootMotionMontage() != nil:
		// Root motion owns movement for its duration
		m.Acceleration = gomath.Vec3{}
		c.velocity = gomath.Vec3{}
	case !c.inputDir.IsNearlyZero(inputTolerance):
		m.Acceleration = c.inputDir.Scale(m.AccelRate)
		c.velocity = stepTowardVec(c.velocity, c.inputDir.Scale(c.inputSpeed), m.AccelRate*dt)
	default:
		m.Acceleration = gomath.Vec3{}
		c.velocity = stepTowardVec(c.velocity, gomath.Vec3{}, m.BrakingRate*dt)
	}
	c.Position = c.Position.Add(c.velocity.Scale(dt))

	m.UpdateLastInputVector(dt)
	m.rotate(dt)
}

// UpdateLastInputVector refreshes the direction the character last meant
// to move. Acceleration wins over velocity so a blocked character still
// turns toward its stick; velocity wins so braking keeps the travel
// direction; an unseeded vector starts at the control forward. Root
// motion freezes the vector and holds it for a short grace window after.
func (m *Movement) UpdateLastInputVector(dt float64) {
	if m.char.Player.RootMotionMontage() != nil {
		m.graceLeft = rootMotionInputGrace
		return
	}
	if m.graceLeft > 0 {
		m.graceLeft -= dt
		return
	}
	c := m.char
	switch {
	case !m.Acceleration.IsNearlyZero(inputTolerance):
		m.lastInput = m.Acceleration.Normalize()
	case !c.velocity.IsNearlyZero(inputTolerance):
		m.lastInput = c.velocity.Normalize()
	case m.lastInput.IsNearlyZero(inputTolerance) && c.possessed:
		m.lastInput = gomath.DirectionFromYaw(c.controlYaw)
	}
}

// LastInput returns the held last input vector.
func (m *Movement) LastInput() gomath.Vec3 {
	return m.lastInput
}

// LastMove returns the rotation bookkeeping from the most recent tick.
func (m *Movement) LastMove() SavedMove {
	return m.lastMove
}

// ResimulateYaw replays the last tick's applied turn rotation over a
// corrected start yaw, as when an authoritative update rewinds the
// character and its pending moves run again.
func (m *Movement) ResimulateYaw(correctedStartYaw float64) {
	m.char.yaw = gomath.NormalizeYaw(correctedStartYaw + m.lastMove.AppliedTurnYaw)
}

// rotate dispatches the tick's rotation through the turn component and
// falls back to the integrator's own facing when it declines.
func (m *Movement) rotate(dt float64) {
	c := m.char
	lastOffset := c.Turn.TurnOffset()
	m.lastMove.StartYaw = c.yaw

	switch c.Turn.TurnMethod() {
	case turn.TurnMethodFaceRotation:
		if !c.Turn.FaceRotation(c.controlYaw, dt) {
			m.stepYaw(c.controlYaw, dt)
		}
	case turn.TurnMethodPhysicsRotation:
		toInput := m.RotateToLastInput && !m.lastInput.IsNearlyZero(inputTolerance)
		if !c.Turn.PhysicsRotation(dt, toInput, m.lastInput) {
			m.defaultRotation(dt)
		}
	default:
		m.defaultRotation(dt)
	}

	m.lastMove.AppliedTurnYaw = c.Turn.LastAppliedTurnYaw()
	c.Turn.PostTurnInPlace(lastOffset)
}

// defaultRotation is the integrator's own facing step for ticks the turn
// component hands back.
func (m *Movement) defaultRotation(dt float64) {
	c := m.char
	switch {
	case c.settings.OrientToMovement:
		if target, ok := m.ComputeOrientToMovementRotation(); ok {
			m.stepYaw(target, dt)
		}
	case c.settings.UseControllerDesiredRotation && c.possessed:
		m.stepYaw(c.controlYaw, dt)
	}
}

// ComputeOrientToMovementRotation yields the facing a moving character
// orients toward. Facing is planar, so only the ground-plane velocity
// counts; no planar velocity means no preference.
func (m *Movement) ComputeOrientToMovementRotation() (float64, bool) {
	planar := m.char.velocity.XZ()
	if planar.IsNearlyZero(inputTolerance) {
		return 0, false
	}
	return gomath.YawFromPlanar(planar), true
}

// stepYaw rotates toward the target by at most this tick's delta.
func (m *Movement) stepYaw(target, dt float64) {
	c := m.char
	delta := gomath.YawDelta(c.yaw, target)
	step := GetDeltaRotation(m.rate(), dt)
	c.yaw = gomath.NormalizeYaw(c.yaw + gomath.ClampYaw(delta, step))
}

// rate returns the rotation rate for the character's current motion.
func (m *Movement) rate() float64 {
	if m.char.Turn.Stationary() {
		return m.IdleRotationRate
	}
	return m.RotationRate
}

// GetDeltaRotation converts a rotation rate into this tick's maximum yaw
// step. Negative rates mean instant.
func GetDeltaRotation(rate, dt float64) float64 {
	if rate < 0 {
		return 360
	}
	return math.Min(rate*dt, 360)
}

// stepTowardVec moves current toward target by at most maxDelta, landing
// exactly on the target once within range.
func stepTowardVec(current, target gomath.Vec3, maxDelta float64) gomath.Vec3 {
	diff := target.Sub(current)
	dist := diff.Length()
	if dist <= maxDelta {
		return target
	}
	return current.Add(diff.Scale(maxDelta / dist))
}
