// Package turn reconciles a character's desired facing against in-place
// turn animations. Each frame it decides how much rotation the body
// applies immediately and how much stays owed to a turning animation,
// keeping that split consistent between an authoritative simulation and
// remote observers that receive compressed updates.
package turn

import (
	"math"

	"go.uber.org/zap"

	gomath "github.com/Faultbox/pivot/pkg/math"
)

// weightDeadZone is where the weight curve counts as zero. Below this the
// turn animation is in recovery and contributes no yaw.
const weightDeadZone = 1e-4

// stationaryTolerance bounds the velocity magnitude that still counts as
// standing still.
const stationaryTolerance = 1e-4

// maxWrapSafeOffset is the anti-wrap bound on a curve-adjusted offset.
// Past 180 degrees the shortest-arc delta becomes ambiguous and applying
// the candidate would snap the body; the raw control delta is trusted
// instead until the animation drains the excess.
const maxWrapSafeOffset = 180.0

// ComponentConfig wires a component to its character.
type ComponentConfig struct {
	Host    Host
	AnimSet *AnimSet
	// Source supplies curve samples from a real animation evaluator.
	// Ignored when UsePseudoState is set.
	Source CurveSource
	// Curves overrides the conventional curve names. Zero value keeps the
	// defaults.
	Curves CurveNames
	Role   NetRole
	// Standalone disables replication staging entirely.
	Standalone bool
	// UsePseudoState substitutes the pseudo state machine for real
	// animation evaluation.
	UsePseudoState bool
	Log            *zap.Logger
}

// Component owns one character's turn state. All methods run on the
// character's own tick; the component is not safe for concurrent use.
type Component struct {
	host       Host
	set        *AnimSet
	source     CurveSource
	names      CurveNames
	role       NetRole
	standalone bool
	log        *zap.Logger

	pseudo *PseudoAnim

	state    TurnState
	override Override

	// lastAppliedTurnYaw is the body rotation the last reconciliation
	// applied, kept for movement replay corrections and diagnostics.
	lastAppliedTurnYaw float64

	repValue uint16
	repDirty bool

	warnedNoAngles bool
	warnedNoSteps  bool
	warnedNaN      bool
}

// NewComponent builds a component. A component missing its host, anim set,
// or curve source reports no valid data and stays inert rather than
// failing; a misconfigured character degrades to never turning in place.
func NewComponent(cfg ComponentConfig) *Component {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	names := cfg.Curves
	if names.Yaw == "" && names.Weight == "" {
		names = DefaultCurveNames()
	}
	c := &Component{
		host:       cfg.Host,
		set:        cfg.AnimSet,
		source:     cfg.Source,
		names:      names,
		role:       cfg.Role,
		standalone: cfg.Standalone,
		log:        log,
	}
	if cfg.UsePseudoState {
		c.pseudo = NewPseudoAnim(names)
	}
	return c
}

// HasValidData reports whether the component can operate. Without it every
// public operation short-circuits to a zeroed result.
func (c *Component) HasValidData() bool {
	return c.host != nil && c.set != nil && (c.pseudo != nil || c.source != nil)
}

// State returns a snapshot of the accumulator.
func (c *Component) State() TurnState {
	return c.state
}

// TurnOffset returns the current accumulated offset in degrees.
func (c *Component) TurnOffset() float64 {
	return c.state.TurnOffset
}

// LastAppliedTurnYaw returns the body rotation the last reconciliation
// applied, in degrees.
func (c *Component) LastAppliedTurnYaw() float64 {
	return c.lastAppliedTurnYaw
}

// Pseudo returns the pseudo state machine, or nil when a real evaluator
// supplies curves.
func (c *Component) Pseudo() *PseudoAnim {
	return c.pseudo
}

// SetOverride forces the enabled state until cleared with OverrideDefault.
func (c *Component) SetOverride(o Override) {
	c.override = o
}

// Override returns the active runtime override.
func (c *Component) Override() Override {
	return c.override
}

// Params returns the active params. Invalid components get zero params.
func (c *Component) Params() Params {
	if !c.HasValidData() {
		return Params{}
	}
	return c.set.Params
}

// TurnMode classifies the character: strafing unless it orients to its
// movement direction.
func (c *Component) TurnMode() TurnMode {
	if c.host != nil && !c.host.RotationSettings().OrientToMovement {
		return TurnModeStrafe
	}
	return TurnModeMovement
}

// TurnMethod says which rotation path owns this character's facing, from
// its live movement settings.
func (c *Component) TurnMethod() TurnMethod {
	if !c.HasValidData() {
		return TurnMethodNone
	}
	rs := c.host.RotationSettings()
	if !rs.OrientToMovement && rs.UseControllerRotationYaw {
		return TurnMethodFaceRotation
	}
	return TurnMethodPhysicsRotation
}

// resolveOverride pauses accumulation while a root motion montage drives
// the character, unless the montage matches the ignore rules.
func (c *Component) resolveOverride() Override {
	if c.override != OverrideDefault {
		return c.override
	}
	if m := c.host.RootMotionMontage(); m != nil && !c.set.Params.ShouldIgnoreMontage(m) {
		return OverrideForcePaused
	}
	return OverrideDefault
}

// EnabledState resolves the effective state for this frame. Components
// without valid data are locked.
func (c *Component) EnabledState() State {
	if !c.HasValidData() {
		return StateLocked
	}
	switch c.resolveOverride() {
	case OverrideForceEnabled:
		return StateEnabled
	case OverrideForceLocked:
		return StateLocked
	case OverrideForcePaused:
		return StatePaused
	default:
		return c.set.Params.State
	}
}

// TurnCurves returns this frame's curve sample from whichever evaluator
// is active.
func (c *Component) TurnCurves() CurveValues {
	if !c.HasValidData() {
		return CurveValues{}
	}
	if c.pseudo != nil {
		return c.pseudo.TurnCurves()
	}
	return c.source.TurnCurves()
}

// IsTurning reports whether a turn animation is actively extracting yaw.
func (c *Component) IsTurning() bool {
	return c.HasValidData() && math.Abs(c.TurnCurves().TurnYawWeight) > weightDeadZone
}

// Stationary reports whether the character counts as standing still.
// Derived from live velocity on every call; the stationary-to-moving edge
// is exactly when the interp-out blend must start from zero.
func (c *Component) Stationary() bool {
	return c.host != nil && c.host.Velocity().IsNearlyZero(stationaryTolerance)
}

// TurnInPlace runs the reconciliation algorithm for a stationary
// character: rebuild the offset from the fresh yaw delta, drain it by the
// animation curve delta, clamp it, and rotate the body by whatever the
// offset does not cover.
func (c *Component) TurnInPlace(currentYaw, desiredYaw float64) {
	if !c.HasValidData() {
		c.state.TurnOffset = 0
		c.state.CurveValue = 0
		return
	}
	p := c.set.Params
	state := c.EnabledState()

	if state == StateLocked {
		c.state.TurnOffset = 0
		c.state.CurveValue = 0
		return
	}

	c.state.InterpOutAlpha = 0

	// Rebuilt fresh every call rather than accumulated, so float error
	// cannot drift across frames and a velocity spike between calls
	// cannot leave a stale offset behind. Paused keeps the prior offset
	// so a montage can drain an in-progress turn without growing it.
	if state != StatePaused {
		c.state.TurnOffset = gomath.YawDelta(currentYaw, desiredYaw)
	}

	c.applyCurveDecay()

	mode := c.TurnMode()
	maxAngle := 0.0
	if angles, ok := p.AnglesFor(mode); ok {
		maxAngle = angles.Max
	} else if !c.warnedNoAngles {
		c.warnedNoAngles = true
		c.log.Warn("no turn angles configured for turn mode", zap.Stringer("mode", mode))
	}

	// Max angle 0 disables the clamp entirely
	if maxAngle > 0 && math.Abs(c.state.TurnOffset) > maxAngle {
		c.state.TurnOffset = gomath.ClampYaw(c.state.TurnOffset, maxAngle)
	}

	// The body rotates only by the portion the offset does not cover
	turnYaw := gomath.NormalizeYaw(desiredYaw - (c.state.TurnOffset + currentYaw))
	c.lastAppliedTurnYaw = turnYaw
	c.applyYaw(currentYaw, currentYaw+turnYaw)

	c.log.Debug("turn reconciled",
		zap.Float64("curve", c.state.CurveValue),
		zap.Float64("offset", c.state.TurnOffset),
		zap.Float64("applied", turnYaw))
}

// applyCurveDecay runs the curve-driven portion of reconciliation: diff
// the weighted remaining yaw against last frame's sample and fold the
// delta into the offset when it is safe to do so.
func (c *Component) applyCurveDecay() {
	values := c.TurnCurves()
	last := c.state.CurveValue

	if math.Abs(values.TurnYawWeight) <= weightDeadZone {
		// No curve weight, no animation yaw this frame
		c.state.CurveValue = 0
		c.state.CurveValid = false
		return
	}

	c.state.CurveValue = values.RemainingTurnYaw * values.TurnYawWeight
	if !c.state.CurveValid {
		// The curve just became relevant again. Discard this sample so
		// the animation's whole remaining yaw does not land as one delta.
		c.state.CurveValue = 0
		last = 0
	}
	c.state.CurveValid = true

	if !sameTurnDirection(c.state.CurveValue, last) {
		return
	}
	candidate := c.state.TurnOffset + (c.state.CurveValue - last)
	if math.Abs(candidate) <= maxWrapSafeOffset {
		c.state.TurnOffset = candidate
	}
}

// sameTurnDirection reports whether the curve delta keeps draining in one
// direction. A new sample of exactly zero is the final drain of a finished
// turn, not a flip; a previous sample of zero means the curve just became
// active and there is nothing to diff against.
func sameTurnDirection(current, last float64) bool {
	if current == 0 {
		return true
	}
	if last == 0 {
		return false
	}
	return (current > 0) == (last > 0)
}

// applyYaw writes the reconciled yaw to the host, substituting no rotation
// for non-finite input so a bad frame can never wedge the body.
func (c *Component) applyYaw(currentYaw, newYaw float64) {
	if math.IsNaN(newYaw) || math.IsInf(newYaw, 0) {
		if !c.warnedNaN {
			c.warnedNaN = true
			c.log.Error("refusing to apply non-finite rotation",
				zap.Float64("current", currentYaw))
		}
		return
	}
	c.host.SetYaw(gomath.NormalizeYaw(newYaw))
}

// FaceRotation is the instant snap-to-control entry point, called when
// control rotation drives facing directly. Returns false when the caller
// should fall back to its default facing behavior.
func (c *Component) FaceRotation(controlYaw, dt float64) bool {
	if !c.HasValidData() {
		c.state.TurnOffset = 0
		c.state.CurveValue = 0
		return true
	}
	if c.TurnMethod() != TurnMethodFaceRotation {
		return true
	}

	// Paused hands facing back to the default path with nothing owed
	if c.EnabledState() == StatePaused {
		c.state.TurnOffset = 0
		c.state.CurveValue = 0
		return false
	}

	current := c.host.Yaw()
	if c.Stationary() {
		c.TurnInPlace(current, controlYaw)
		return true
	}

	c.state.TurnOffset = 0

	// Moving: this is not turn in place, just blending away whatever
	// offset was left when movement started so the body does not snap.
	rs := c.host.RotationSettings()
	if !rs.OrientToMovement && rs.UseControllerRotationYaw {
		rate := c.set.Params.MovingInterpOutRate
		c.state.InterpOutAlpha = gomath.StepToward(c.state.InterpOutAlpha, 1, dt*rate)
		c.applyYaw(current, gomath.SlerpYaw(current, controlYaw, c.state.InterpOutAlpha))
	}
	return true
}

// PhysicsRotation is the smoothed desired-rotation entry point, called
// from the movement integrator's rotation step. Returns false when the
// integrator should run its normal rotation instead.
func (c *Component) PhysicsRotation(dt float64, rotateToLastInput bool, lastInput gomath.Vec3) bool {
	if !c.HasValidData() {
		c.state.TurnOffset = 0
		c.state.CurveValue = 0
		return true
	}
	if c.TurnMethod() != TurnMethodPhysicsRotation {
		return false
	}

	if c.EnabledState() == StatePaused {
		c.state.TurnOffset = 0
		c.state.CurveValue = 0
		return false
	}

	current := c.host.Yaw()
	rs := c.host.RotationSettings()

	if c.Stationary() {
		desiredYaw, possessed := c.host.DesiredControlYaw()
		switch {
		case rotateToLastInput && rs.OrientToMovement:
			c.TurnInPlace(current, gomath.YawFromDirection(lastInput))
		case rs.UseControllerDesiredRotation && possessed:
			c.TurnInPlace(current, desiredYaw)
		case !possessed && rs.RunPhysicsWithNoController && rs.UseControllerDesiredRotation:
			if yaw, ok := c.host.FallbackDesiredYaw(); ok {
				c.TurnInPlace(current, yaw)
			}
		}
		return true
	}

	// Moving: cull the offset and let the integrator take over. It gets
	// recalculated when the character stops.
	c.state.TurnOffset = 0
	return false
}

// PostTurnInPlace stages the offset for replication when it changed
// beyond the compression tolerance since before the reconciliation call.
// Only the authority stages, and never in standalone play.
func (c *Component) PostTurnInPlace(lastTurnOffset float64) {
	if c.role != RoleAuthority || c.standalone {
		return
	}
	if gomath.YawChangedSignificantly(c.state.TurnOffset, lastTurnOffset) {
		c.repValue = gomath.CompressYaw(c.state.TurnOffset)
		c.repDirty = true
	}
}

// ConsumeReplicatedOffset returns the staged compressed offset and clears
// the dirty flag. ok reports whether a new value was staged since the
// last read; the transport decides how and when to actually send.
func (c *Component) ConsumeReplicatedOffset() (value uint16, ok bool) {
	if !c.repDirty {
		return 0, false
	}
	c.repDirty = false
	return c.repValue, true
}

// ApplyReplicatedOffset decompresses a received offset straight into the
// accumulator. Observers mirror the authoritative angle; they never
// recompute control deltas.
func (c *Component) ApplyReplicatedOffset(value uint16) {
	if c.role != RoleSimulated || !c.HasValidData() {
		return
	}
	c.state.TurnOffset = gomath.DecompressYaw(value)
}

// Simulate advances an observer's offset between replication updates
// using only the curve decay step, so a draining turn keeps moving even
// when authoritative updates are sparse. The body is not rotated; that
// arrives through normal movement replication.
func (c *Component) Simulate() {
	if !c.HasValidData() {
		return
	}
	if c.EnabledState() == StateLocked {
		c.state.TurnOffset = 0
		c.state.CurveValue = 0
		return
	}
	c.applyCurveDecay()
}

// GatherGraphData snapshots everything the animation graph needs from
// live host state. Main thread only; the returned data is safe to process
// elsewhere.
func (c *Component) GatherGraphData() GraphData {
	var data GraphData
	if !c.HasValidData() {
		return data
	}
	p := &c.set.Params

	data.Set = c.set
	data.TurnOffset = c.state.TurnOffset
	data.IsTurning = c.IsTurning()
	data.StepIndex, data.TurnRight = DetermineStepSize(p, c.state.TurnOffset)
	data.Mode = c.TurnMode()
	data.UsePseudoState = c.pseudo != nil

	if len(p.StepSizes) == 0 && !c.warnedNoSteps {
		c.warnedNoSteps = true
		c.log.Warn("no step sizes configured", zap.String("animset", c.set.Name))
	}

	if angles, ok := p.AnglesFor(data.Mode); ok {
		data.Angles = angles
		data.HasValidAngles = true
		data.WantsToTurn = c.EnabledState() != StateLocked && len(p.StepSizes) > 0 &&
			math.Abs(c.state.TurnOffset) >= angles.Min
	} else if !c.warnedNoAngles {
		c.warnedNoAngles = true
		c.log.Warn("no turn angles configured for turn mode", zap.Stringer("mode", data.Mode))
	}
	return data
}

// UpdatePseudoState advances the pseudo machine with this frame's
// gathered data and processed output. No-op when a real evaluator runs.
func (c *Component) UpdatePseudoState(dt float64, data GraphData, out GraphOutput) {
	if c.pseudo == nil || !c.HasValidData() {
		return
	}
	c.pseudo.Update(dt, data, out)
}
