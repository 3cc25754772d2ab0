package turn

import (
	"math"
	"testing"

	"github.com/Faultbox/pivot/pkg/anim"
	gomath "github.com/Faultbox/pivot/pkg/math"
)

// testHost is a scriptable Host for component tests.
type testHost struct {
	yaw         float64
	velocity    gomath.Vec3
	settings    RotationSettings
	controlYaw  float64
	possessed   bool
	fallbackYaw float64
	hasFallback bool
	montage     *anim.Montage
}

func (h *testHost) Yaw() float64                        { return h.yaw }
func (h *testHost) SetYaw(yaw float64)                  { h.yaw = yaw }
func (h *testHost) Velocity() gomath.Vec3               { return h.velocity }
func (h *testHost) RotationSettings() RotationSettings  { return h.settings }
func (h *testHost) DesiredControlYaw() (float64, bool)  { return h.controlYaw, h.possessed }
func (h *testHost) FallbackDesiredYaw() (float64, bool) { return h.fallbackYaw, h.hasFallback }
func (h *testHost) RootMotionMontage() *anim.Montage    { return h.montage }

// stubSource feeds fixed curve values, mutated between frames by tests.
type stubSource struct {
	values CurveValues
}

func (s *stubSource) TurnCurves() CurveValues { return s.values }

func strafeHost() *testHost {
	return &testHost{settings: RotationSettings{UseControllerRotationYaw: true}}
}

func orientHost() *testHost {
	return &testHost{settings: RotationSettings{OrientToMovement: true}}
}

func newTestComponent(h *testHost, src CurveSource) *Component {
	return NewComponent(ComponentConfig{Host: h, AnimSet: DefaultAnimSet(), Source: src})
}

func TestComponent_HasValidData(t *testing.T) {
	h := strafeHost()
	src := &stubSource{}

	if c := NewComponent(ComponentConfig{}); c.HasValidData() {
		t.Error("empty component should not be valid")
	}
	if c := NewComponent(ComponentConfig{Host: h, AnimSet: DefaultAnimSet()}); c.HasValidData() {
		t.Error("component without a curve source should not be valid")
	}
	if c := NewComponent(ComponentConfig{Host: h, Source: src}); c.HasValidData() {
		t.Error("component without an anim set should not be valid")
	}
	if c := newTestComponent(h, src); !c.HasValidData() {
		t.Error("fully wired component should be valid")
	}
	if c := NewComponent(ComponentConfig{Host: h, AnimSet: DefaultAnimSet(), UsePseudoState: true}); !c.HasValidData() {
		t.Error("pseudo component needs no external curve source")
	}
}

func TestComponent_TurnMode(t *testing.T) {
	src := &stubSource{}
	if got := newTestComponent(strafeHost(), src).TurnMode(); got != TurnModeStrafe {
		t.Errorf("strafing host mode = %v, want strafe", got)
	}
	if got := newTestComponent(orientHost(), src).TurnMode(); got != TurnModeMovement {
		t.Errorf("orienting host mode = %v, want movement", got)
	}
}

func TestComponent_TurnMethod(t *testing.T) {
	src := &stubSource{}
	if got := newTestComponent(strafeHost(), src).TurnMethod(); got != TurnMethodFaceRotation {
		t.Errorf("strafing host method = %v, want face-rotation", got)
	}
	if got := newTestComponent(orientHost(), src).TurnMethod(); got != TurnMethodPhysicsRotation {
		t.Errorf("orienting host method = %v, want physics-rotation", got)
	}

	// Neither control yaw nor orient still rotates through physics
	h := &testHost{}
	if got := newTestComponent(h, src).TurnMethod(); got != TurnMethodPhysicsRotation {
		t.Errorf("plain host method = %v, want physics-rotation", got)
	}

	if got := NewComponent(ComponentConfig{}).TurnMethod(); got != TurnMethodNone {
		t.Errorf("invalid component method = %v, want none", got)
	}
}

func TestComponent_EnabledState_MontagePauses(t *testing.T) {
	h := strafeHost()
	c := newTestComponent(h, &stubSource{})

	if got := c.EnabledState(); got != StateEnabled {
		t.Fatalf("state with no montage = %v, want enabled", got)
	}

	// A full body root motion montage owns the rotation
	h.montage = &anim.Montage{Name: "dodge_roll", Slot: "FullBody", RootMotion: true}
	if got := c.EnabledState(); got != StatePaused {
		t.Errorf("state under root motion montage = %v, want paused", got)
	}

	// Upper body montages are exempt by the default slot rules
	h.montage = &anim.Montage{Name: "reload", Slot: "UpperBody", RootMotion: true}
	if got := c.EnabledState(); got != StateEnabled {
		t.Errorf("state under upper body montage = %v, want enabled", got)
	}

	// Additive montages are exempt by default
	h.montage = &anim.Montage{Name: "hit_react", Slot: "FullBody", Additive: true, RootMotion: true}
	if got := c.EnabledState(); got != StateEnabled {
		t.Errorf("state under additive montage = %v, want enabled", got)
	}

	// An explicit override beats the montage resolution
	h.montage = &anim.Montage{Name: "dodge_roll", Slot: "FullBody", RootMotion: true}
	c.SetOverride(OverrideForceEnabled)
	if got := c.EnabledState(); got != StateEnabled {
		t.Errorf("state with force-enabled override = %v, want enabled", got)
	}
	c.SetOverride(OverrideForceLocked)
	if got := c.EnabledState(); got != StateLocked {
		t.Errorf("state with force-locked override = %v, want locked", got)
	}
}

func TestComponent_TurnInPlace_AccumulatesOffset(t *testing.T) {
	h := strafeHost()
	c := newTestComponent(h, &stubSource{})

	c.TurnInPlace(0, 90)

	if got := c.TurnOffset(); got != 90 {
		t.Errorf("offset = %v, want the full 90 degree delta", got)
	}
	if h.yaw != 0 {
		t.Errorf("body yaw = %v, want unchanged while the offset holds the delta", h.yaw)
	}
	if got := c.LastAppliedTurnYaw(); got != 0 {
		t.Errorf("applied yaw = %v, want 0", got)
	}

	// With no curve weight there is nothing to drain: repeating the
	// call reproduces the same state exactly
	c.TurnInPlace(0, 90)
	if got := c.TurnOffset(); got != 90 {
		t.Errorf("offset after repeat = %v, want 90", got)
	}
	if h.yaw != 0 {
		t.Errorf("body yaw after repeat = %v, want still 0", h.yaw)
	}
}

func TestComponent_TurnInPlace_ClampRotatesBody(t *testing.T) {
	h := strafeHost()
	c := newTestComponent(h, &stubSource{})

	c.TurnInPlace(0, 170)

	if got := c.TurnOffset(); got != 135 {
		t.Errorf("offset = %v, want the strafe clamp 135", got)
	}
	if math.Abs(h.yaw-35) > 1e-12 {
		t.Errorf("body yaw = %v, want the 35 degrees past the clamp", h.yaw)
	}
	if got := c.LastAppliedTurnYaw(); math.Abs(got-35) > 1e-12 {
		t.Errorf("applied yaw = %v, want 35", got)
	}
}

func TestComponent_TurnInPlace_ClampSweep(t *testing.T) {
	cases := []struct {
		name       string
		desired    float64
		wantOffset float64
		wantYaw    float64
	}{
		{"under the clamp", 10, 10, 0},
		{"over the clamp", 170, 135, 35},
		{"near the wrap", 179, 135, 44},
		{"exactly opposite", 180, 135, 45},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := strafeHost()
			c := newTestComponent(h, &stubSource{})

			c.TurnInPlace(0, tc.desired)

			if got := c.TurnOffset(); math.Abs(got-tc.wantOffset) > 1e-12 {
				t.Errorf("offset = %v, want %v", got, tc.wantOffset)
			}
			if math.Abs(h.yaw-tc.wantYaw) > 1e-12 {
				t.Errorf("body yaw = %v, want %v", h.yaw, tc.wantYaw)
			}
			// Body plus offset reconstructs the desired facing exactly
			miss := gomath.NormalizeYaw(tc.desired - (h.yaw + c.TurnOffset()))
			if math.Abs(miss) > 1e-12 {
				t.Errorf("yaw %v + offset %v misses %v by %v", h.yaw, c.TurnOffset(), tc.desired, miss)
			}
		})
	}
}

func TestComponent_TurnInPlace_NoClampInMovementMode(t *testing.T) {
	h := orientHost()
	c := newTestComponent(h, &stubSource{})

	c.TurnInPlace(0, 170)

	if got := c.TurnOffset(); got != 170 {
		t.Errorf("offset = %v, want 170 with the clamp disabled", got)
	}
	if h.yaw != 0 {
		t.Errorf("body yaw = %v, want unchanged", h.yaw)
	}
}

func TestComponent_TurnInPlace_Locked(t *testing.T) {
	h := strafeHost()
	c := newTestComponent(h, &stubSource{})

	c.TurnInPlace(0, 90)
	if c.TurnOffset() != 90 {
		t.Fatalf("offset = %v, want 90 before locking", c.TurnOffset())
	}

	c.SetOverride(OverrideForceLocked)
	c.TurnInPlace(0, 90)

	state := c.State()
	if state.TurnOffset != 0 || state.CurveValue != 0 {
		t.Errorf("locked state = %+v, want zeroed accumulator", state)
	}
	if h.yaw != 0 {
		t.Errorf("body yaw = %v, want untouched while locked", h.yaw)
	}
}

func TestComponent_TurnInPlace_PausedSkipsAccumulation(t *testing.T) {
	h := strafeHost()
	c := newTestComponent(h, &stubSource{})
	c.SetOverride(OverrideForcePaused)

	c.TurnInPlace(0, 90)

	if got := c.TurnOffset(); got != 0 {
		t.Errorf("offset = %v, want 0 while paused", got)
	}
	// With nothing owed to an animation the body follows the desired yaw
	if h.yaw != 90 {
		t.Errorf("body yaw = %v, want 90", h.yaw)
	}
}

func TestComponent_TurnInPlace_PausedRetainsAndDrains(t *testing.T) {
	h := strafeHost()
	src := &stubSource{}
	c := newTestComponent(h, src)

	// Two frames to get past the curve warm-up with the full offset held
	src.values = CurveValues{RemainingTurnYaw: 90, TurnYawWeight: 1}
	c.TurnInPlace(0, 90)
	c.TurnInPlace(0, 90)
	if got := c.TurnOffset(); got != 90 {
		t.Fatalf("offset before pause = %v, want 90", got)
	}

	// Pausing mid-turn keeps the stale offset and lets the curve keep
	// draining it; the moved control yaw must not rebuild the offset
	c.SetOverride(OverrideForcePaused)
	src.values = CurveValues{RemainingTurnYaw: 60, TurnYawWeight: 1}
	c.TurnInPlace(0, 170)

	if got := c.TurnOffset(); got != 60 {
		t.Errorf("offset while paused = %v, want drained to 60", got)
	}
	if math.Abs(h.yaw-110) > 1e-12 {
		t.Errorf("body yaw while paused = %v, want 110 with 60 still owed", h.yaw)
	}
}

func TestComponent_TurnInPlace_CurveDecayDrainsOffset(t *testing.T) {
	h := orientHost()
	src := &stubSource{}
	c := newTestComponent(h, src)

	// The first frame with a live weight discards its sample so a stale
	// curve cannot land as one big delta
	src.values = CurveValues{RemainingTurnYaw: 90, TurnYawWeight: 1}
	c.TurnInPlace(h.yaw, 90)
	if c.TurnOffset() != 90 || h.yaw != 0 {
		t.Fatalf("after frame 1: offset %v yaw %v, want 90 and 0", c.TurnOffset(), h.yaw)
	}

	// The second frame establishes the reference sample
	src.values = CurveValues{RemainingTurnYaw: 80, TurnYawWeight: 1}
	c.TurnInPlace(h.yaw, 90)
	if c.TurnOffset() != 90 || h.yaw != 0 {
		t.Fatalf("after frame 2: offset %v yaw %v, want 90 and 0", c.TurnOffset(), h.yaw)
	}

	// From here each frame folds the drained yaw out of the offset and
	// the body rotates by exactly that amount
	src.values = CurveValues{RemainingTurnYaw: 70, TurnYawWeight: 1}
	c.TurnInPlace(h.yaw, 90)
	if got := c.TurnOffset(); math.Abs(got-80) > 1e-12 {
		t.Errorf("after frame 3: offset = %v, want 80", got)
	}
	if math.Abs(h.yaw-10) > 1e-12 {
		t.Errorf("after frame 3: yaw = %v, want 10", h.yaw)
	}

	src.values = CurveValues{RemainingTurnYaw: 60, TurnYawWeight: 1}
	c.TurnInPlace(h.yaw, 90)
	if got := c.TurnOffset(); math.Abs(got-70) > 1e-12 {
		t.Errorf("after frame 4: offset = %v, want 70", got)
	}
	if math.Abs(h.yaw-20) > 1e-12 {
		t.Errorf("after frame 4: yaw = %v, want 20", h.yaw)
	}
}

func TestComponent_TurnInPlace_RepeatSampleIsStable(t *testing.T) {
	h := orientHost()
	src := &stubSource{}
	c := newTestComponent(h, src)

	src.values = CurveValues{RemainingTurnYaw: 90, TurnYawWeight: 1}
	c.TurnInPlace(h.yaw, 90)
	src.values = CurveValues{RemainingTurnYaw: 80, TurnYawWeight: 1}
	c.TurnInPlace(h.yaw, 90)
	src.values = CurveValues{RemainingTurnYaw: 70, TurnYawWeight: 1}
	c.TurnInPlace(h.yaw, 90)

	offset, yaw := c.TurnOffset(), h.yaw

	// Re-running with an identical sample must change nothing
	c.TurnInPlace(h.yaw, 90)
	if c.TurnOffset() != offset || h.yaw != yaw {
		t.Errorf("repeat frame moved state: offset %v -> %v, yaw %v -> %v",
			offset, c.TurnOffset(), yaw, h.yaw)
	}
}

func TestComponent_TurnInPlace_DirectionFlipGuard(t *testing.T) {
	h := strafeHost()
	src := &stubSource{}
	c := newTestComponent(h, src)

	src.values = CurveValues{RemainingTurnYaw: 5, TurnYawWeight: 1}
	c.TurnInPlace(0, 40)
	c.TurnInPlace(0, 40)
	if got := c.State().CurveValue; got != 5 {
		t.Fatalf("reference sample = %v, want 5", got)
	}

	// The curve flips sign: the delta must not fold into the offset
	src.values = CurveValues{RemainingTurnYaw: -3, TurnYawWeight: 1}
	c.TurnInPlace(0, 40)

	if got := c.TurnOffset(); got != 40 {
		t.Errorf("offset after flip = %v, want the raw 40 delta", got)
	}
	if h.yaw != 0 {
		t.Errorf("yaw after flip = %v, want unchanged", h.yaw)
	}
	if got := c.State().CurveValue; got != -3 {
		t.Errorf("stored sample = %v, want the new -3 reference", got)
	}
}

func TestComponent_TurnInPlace_FinalDrainToZero(t *testing.T) {
	h := strafeHost()
	src := &stubSource{}
	c := newTestComponent(h, src)

	src.values = CurveValues{RemainingTurnYaw: 5, TurnYawWeight: 1}
	c.TurnInPlace(0, 60)
	c.TurnInPlace(0, 60)

	// The remaining yaw reaching exactly zero is the final drain of a
	// finished turn, not a direction change
	src.values = CurveValues{RemainingTurnYaw: 0, TurnYawWeight: 1}
	c.TurnInPlace(0, 60)

	if got := c.TurnOffset(); math.Abs(got-55) > 1e-12 {
		t.Errorf("offset = %v, want 55 after the last 5 degrees drained", got)
	}
	if math.Abs(h.yaw-5) > 1e-12 {
		t.Errorf("yaw = %v, want 5", h.yaw)
	}
}

func TestComponent_TurnInPlace_ReentryDoesNotSnap(t *testing.T) {
	h := orientHost()
	src := &stubSource{}
	c := newTestComponent(h, src)

	src.values = CurveValues{RemainingTurnYaw: 90, TurnYawWeight: 1}
	c.TurnInPlace(h.yaw, 90)
	src.values = CurveValues{RemainingTurnYaw: 80, TurnYawWeight: 1}
	c.TurnInPlace(h.yaw, 90)
	src.values = CurveValues{RemainingTurnYaw: 70, TurnYawWeight: 1}
	c.TurnInPlace(h.yaw, 90)
	if math.Abs(h.yaw-10) > 1e-12 {
		t.Fatalf("yaw before dropout = %v, want 10", h.yaw)
	}

	// The weight curve drops out mid-turn
	src.values = CurveValues{RemainingTurnYaw: 60, TurnYawWeight: 0}
	c.TurnInPlace(h.yaw, 90)
	if math.Abs(h.yaw-10) > 1e-12 {
		t.Fatalf("yaw during dropout = %v, want 10", h.yaw)
	}

	// It comes back with 50 degrees still on the curve. That 50 must not
	// land as a single fold.
	src.values = CurveValues{RemainingTurnYaw: 50, TurnYawWeight: 1}
	c.TurnInPlace(h.yaw, 90)
	if got := c.TurnOffset(); math.Abs(got-80) > 1e-12 {
		t.Errorf("offset on re-entry = %v, want the raw 80 delta", got)
	}
	if math.Abs(h.yaw-10) > 1e-12 {
		t.Errorf("yaw on re-entry = %v, want unchanged 10", h.yaw)
	}

	// Draining resumes one reference frame later
	src.values = CurveValues{RemainingTurnYaw: 40, TurnYawWeight: 1}
	c.TurnInPlace(h.yaw, 90)
	src.values = CurveValues{RemainingTurnYaw: 30, TurnYawWeight: 1}
	c.TurnInPlace(h.yaw, 90)
	if math.Abs(h.yaw-20) > 1e-12 {
		t.Errorf("yaw after re-entry drain = %v, want 20", h.yaw)
	}
}

func TestComponent_TurnInPlace_RejectsWrapUnsafeFold(t *testing.T) {
	h := orientHost()
	src := &stubSource{}
	c := newTestComponent(h, src)

	src.values = CurveValues{RemainingTurnYaw: 5, TurnYawWeight: 1}
	c.TurnInPlace(0, 179)
	c.TurnInPlace(0, 179)

	// A fold that would push the offset past 180 is rejected; the raw
	// delta stands until the animation drains the excess
	src.values = CurveValues{RemainingTurnYaw: 10, TurnYawWeight: 1}
	c.TurnInPlace(0, 179)
	if got := c.TurnOffset(); got != 179 {
		t.Errorf("offset = %v, want the raw 179", got)
	}
	if h.yaw != 0 {
		t.Errorf("yaw = %v, want unchanged", h.yaw)
	}

	// Once the candidate comes back inside the bound, draining resumes
	src.values = CurveValues{RemainingTurnYaw: 5, TurnYawWeight: 1}
	c.TurnInPlace(0, 179)
	if got := c.TurnOffset(); math.Abs(got-174) > 1e-12 {
		t.Errorf("offset = %v, want 174", got)
	}
	if math.Abs(h.yaw-5) > 1e-12 {
		t.Errorf("yaw = %v, want 5", h.yaw)
	}
}

func TestComponent_TurnInPlace_NonFiniteDesired(t *testing.T) {
	h := strafeHost()
	c := newTestComponent(h, &stubSource{})
	h.yaw = 30

	c.TurnInPlace(h.yaw, math.NaN())
	if h.yaw != 30 {
		t.Errorf("yaw after NaN desired = %v, want untouched 30", h.yaw)
	}

	c.TurnInPlace(h.yaw, math.Inf(1))
	if h.yaw != 30 {
		t.Errorf("yaw after Inf desired = %v, want untouched 30", h.yaw)
	}

	// A sane next frame recovers cleanly
	c.TurnInPlace(h.yaw, 90)
	if got := c.TurnOffset(); got != 60 {
		t.Errorf("offset after recovery = %v, want 60", got)
	}
}

func TestComponent_TurnInPlace_Invalid(t *testing.T) {
	h := strafeHost()
	c := NewComponent(ComponentConfig{Host: h})
	h.yaw = 30

	c.TurnInPlace(30, 170)

	state := c.State()
	if state.TurnOffset != 0 || state.CurveValue != 0 {
		t.Errorf("state = %+v, want zeroed without valid data", state)
	}
	if h.yaw != 30 {
		t.Errorf("yaw = %v, want untouched", h.yaw)
	}
}

func TestComponent_FaceRotation_StationaryTurns(t *testing.T) {
	h := strafeHost()
	c := newTestComponent(h, &stubSource{})

	if !c.FaceRotation(170, 1.0/60) {
		t.Fatal("stationary face rotation should report handled")
	}
	if got := c.TurnOffset(); got != 135 {
		t.Errorf("offset = %v, want the clamp 135", got)
	}
	if math.Abs(h.yaw-35) > 1e-12 {
		t.Errorf("yaw = %v, want 35", h.yaw)
	}
}

func TestComponent_FaceRotation_WrongMethod(t *testing.T) {
	h := orientHost()
	c := newTestComponent(h, &stubSource{})

	if !c.FaceRotation(90, 1.0/60) {
		t.Error("face rotation should claim the frame even when physics owns facing")
	}
	if c.TurnOffset() != 0 || h.yaw != 0 {
		t.Errorf("state moved: offset %v yaw %v", c.TurnOffset(), h.yaw)
	}
}

func TestComponent_FaceRotation_PausedHandsBack(t *testing.T) {
	h := strafeHost()
	c := newTestComponent(h, &stubSource{})

	c.TurnInPlace(0, 90)
	c.SetOverride(OverrideForcePaused)

	if c.FaceRotation(90, 1.0/60) {
		t.Error("paused face rotation should hand back to the default path")
	}
	state := c.State()
	if state.TurnOffset != 0 || state.CurveValue != 0 {
		t.Errorf("state = %+v, want zeroed on pause", state)
	}
}

func TestComponent_FaceRotation_MovingBlendsOut(t *testing.T) {
	h := strafeHost()
	c := newTestComponent(h, &stubSource{})

	// Build a leftover offset, then start moving
	c.FaceRotation(90, 0.25)
	if c.TurnOffset() != 90 {
		t.Fatalf("offset = %v, want 90 before moving", c.TurnOffset())
	}
	h.velocity = gomath.Vec3{Z: 300}

	if !c.FaceRotation(90, 0.25) {
		t.Fatal("moving face rotation should report handled")
	}
	if c.TurnOffset() != 0 {
		t.Errorf("offset = %v, want culled to 0 while moving", c.TurnOffset())
	}
	if got := c.State().InterpOutAlpha; math.Abs(got-0.25) > 1e-12 {
		t.Errorf("interp alpha = %v, want 0.25", got)
	}
	if math.Abs(h.yaw-22.5) > 1e-9 {
		t.Errorf("yaw = %v, want a quarter of the way to 90", h.yaw)
	}

	c.FaceRotation(90, 0.25)
	if math.Abs(h.yaw-56.25) > 1e-9 {
		t.Errorf("yaw = %v, want 56.25 at alpha 0.5", h.yaw)
	}

	// Stopping again resets the blend for the next time movement starts
	h.velocity = gomath.Vec3{}
	c.FaceRotation(90, 0.25)
	if got := c.State().InterpOutAlpha; got != 0 {
		t.Errorf("interp alpha after stopping = %v, want 0", got)
	}
}

func TestComponent_PhysicsRotation_DesiredRotation(t *testing.T) {
	h := &testHost{
		settings:   RotationSettings{UseControllerDesiredRotation: true},
		controlYaw: 90,
		possessed:  true,
	}
	c := newTestComponent(h, &stubSource{})

	if !c.PhysicsRotation(1.0/60, false, gomath.Vec3{}) {
		t.Fatal("stationary physics rotation should report handled")
	}
	if got := c.TurnOffset(); got != 90 {
		t.Errorf("offset = %v, want 90 toward the desired control yaw", got)
	}
}

func TestComponent_PhysicsRotation_RotateToLastInput(t *testing.T) {
	h := orientHost()
	c := newTestComponent(h, &stubSource{})

	// Last input pointed along +X, which is yaw 90
	if !c.PhysicsRotation(1.0/60, true, gomath.Vec3{X: 1}) {
		t.Fatal("stationary physics rotation should report handled")
	}
	if got := c.TurnOffset(); math.Abs(got-90) > 1e-9 {
		t.Errorf("offset = %v, want 90 toward the last input direction", got)
	}
}

func TestComponent_PhysicsRotation_UnpossessedFallback(t *testing.T) {
	h := &testHost{
		settings: RotationSettings{
			OrientToMovement:             true,
			UseControllerDesiredRotation: true,
			RunPhysicsWithNoController:   true,
		},
		fallbackYaw: 45,
		hasFallback: true,
	}
	c := newTestComponent(h, &stubSource{})

	if !c.PhysicsRotation(1.0/60, false, gomath.Vec3{}) {
		t.Fatal("stationary physics rotation should report handled")
	}
	if got := c.TurnOffset(); got != 45 {
		t.Errorf("offset = %v, want 45 toward the fallback yaw", got)
	}
}

func TestComponent_PhysicsRotation_MovingHandsBack(t *testing.T) {
	h := &testHost{
		settings:   RotationSettings{UseControllerDesiredRotation: true},
		controlYaw: 90,
		possessed:  true,
	}
	c := newTestComponent(h, &stubSource{})

	c.PhysicsRotation(1.0/60, false, gomath.Vec3{})
	if c.TurnOffset() != 90 {
		t.Fatalf("offset = %v, want 90 before moving", c.TurnOffset())
	}

	h.velocity = gomath.Vec3{Z: 300}
	if c.PhysicsRotation(1.0/60, false, gomath.Vec3{}) {
		t.Error("moving physics rotation should hand back to the integrator")
	}
	if c.TurnOffset() != 0 {
		t.Errorf("offset = %v, want culled to 0 while moving", c.TurnOffset())
	}
}

func TestComponent_PhysicsRotation_WrongMethod(t *testing.T) {
	h := strafeHost()
	c := newTestComponent(h, &stubSource{})

	if c.PhysicsRotation(1.0/60, false, gomath.Vec3{}) {
		t.Error("face rotation characters should not be handled by physics rotation")
	}
	if c.TurnOffset() != 0 || h.yaw != 0 {
		t.Errorf("state moved: offset %v yaw %v", c.TurnOffset(), h.yaw)
	}
}

func TestComponent_Replication_StageAndConsume(t *testing.T) {
	h := strafeHost()
	c := NewComponent(ComponentConfig{
		Host: h, AnimSet: DefaultAnimSet(), Source: &stubSource{}, Role: RoleAuthority,
	})

	c.TurnInPlace(0, 170)
	c.PostTurnInPlace(0)

	value, ok := c.ConsumeReplicatedOffset()
	if !ok {
		t.Fatal("expected a staged offset after a significant change")
	}
	if want := gomath.CompressYaw(135); value != want {
		t.Errorf("staged value = %d, want %d", value, want)
	}

	if _, ok := c.ConsumeReplicatedOffset(); ok {
		t.Error("second consume should report nothing new")
	}

	// No staging when the offset did not move beyond the tolerance
	c.PostTurnInPlace(c.TurnOffset())
	if _, ok := c.ConsumeReplicatedOffset(); ok {
		t.Error("unchanged offset should not stage")
	}
}

func TestComponent_Replication_OnlyAuthorityStages(t *testing.T) {
	h := strafeHost()

	c := NewComponent(ComponentConfig{
		Host: h, AnimSet: DefaultAnimSet(), Source: &stubSource{}, Role: RoleAutonomous,
	})
	c.TurnInPlace(0, 170)
	c.PostTurnInPlace(0)
	if _, ok := c.ConsumeReplicatedOffset(); ok {
		t.Error("autonomous proxies must not stage offsets")
	}

	c = NewComponent(ComponentConfig{
		Host: h, AnimSet: DefaultAnimSet(), Source: &stubSource{}, Role: RoleAuthority, Standalone: true,
	})
	c.TurnInPlace(0, 170)
	c.PostTurnInPlace(0)
	if _, ok := c.ConsumeReplicatedOffset(); ok {
		t.Error("standalone play must not stage offsets")
	}
}

func TestComponent_ApplyReplicatedOffset(t *testing.T) {
	h := strafeHost()
	c := NewComponent(ComponentConfig{
		Host: h, AnimSet: DefaultAnimSet(), Source: &stubSource{}, Role: RoleSimulated,
	})

	c.ApplyReplicatedOffset(gomath.CompressYaw(135))
	if got := c.TurnOffset(); math.Abs(got-135) > 0.01 {
		t.Errorf("offset = %v, want 135 from the wire", got)
	}

	// The authority never accepts a wire offset over its own
	auth := NewComponent(ComponentConfig{
		Host: h, AnimSet: DefaultAnimSet(), Source: &stubSource{}, Role: RoleAuthority,
	})
	auth.ApplyReplicatedOffset(gomath.CompressYaw(135))
	if got := auth.TurnOffset(); got != 0 {
		t.Errorf("authority offset = %v, want 0", got)
	}
}

func TestComponent_Simulate_DrainsWithoutRotating(t *testing.T) {
	h := strafeHost()
	src := &stubSource{}
	c := NewComponent(ComponentConfig{
		Host: h, AnimSet: DefaultAnimSet(), Source: src, Role: RoleSimulated,
	})

	c.ApplyReplicatedOffset(gomath.CompressYaw(90))

	src.values = CurveValues{RemainingTurnYaw: 90, TurnYawWeight: 1}
	c.Simulate()
	src.values = CurveValues{RemainingTurnYaw: 80, TurnYawWeight: 1}
	c.Simulate()
	src.values = CurveValues{RemainingTurnYaw: 70, TurnYawWeight: 1}
	c.Simulate()

	if got := c.TurnOffset(); math.Abs(got-80) > 0.01 {
		t.Errorf("offset = %v, want drained to 80", got)
	}
	if h.yaw != 0 {
		t.Errorf("yaw = %v, observers must not rotate the body from simulation", h.yaw)
	}
}

func TestComponent_Simulate_Locked(t *testing.T) {
	c := NewComponent(ComponentConfig{
		Host: strafeHost(), AnimSet: DefaultAnimSet(), Source: &stubSource{}, Role: RoleSimulated,
	})
	c.ApplyReplicatedOffset(gomath.CompressYaw(90))
	c.SetOverride(OverrideForceLocked)

	c.Simulate()

	state := c.State()
	if state.TurnOffset != 0 || state.CurveValue != 0 {
		t.Errorf("state = %+v, want zeroed while locked", state)
	}
}

func TestComponent_GatherGraphData(t *testing.T) {
	h := strafeHost()
	src := &stubSource{values: CurveValues{RemainingTurnYaw: 90, TurnYawWeight: 1}}
	c := newTestComponent(h, src)

	c.TurnInPlace(0, 170)
	data := c.GatherGraphData()

	if data.TurnOffset != 135 {
		t.Errorf("offset = %v, want 135", data.TurnOffset)
	}
	if !data.IsTurning {
		t.Error("expected IsTurning with a live weight curve")
	}
	if data.StepIndex != 1 || !data.TurnRight {
		t.Errorf("step = (%d, %v), want the 90 bucket turning right", data.StepIndex, data.TurnRight)
	}
	if data.Mode != TurnModeStrafe {
		t.Errorf("mode = %v, want strafe", data.Mode)
	}
	if !data.HasValidAngles || data.Angles.Min != 60 || data.Angles.Max != 135 {
		t.Errorf("angles = %+v valid %v, want the strafe thresholds", data.Angles, data.HasValidAngles)
	}
	if !data.WantsToTurn {
		t.Error("expected WantsToTurn past the trigger angle")
	}
	if data.UsePseudoState {
		t.Error("a sourced component does not use the pseudo machine")
	}
	if data.Set != c.set {
		t.Error("graph data should carry the active anim set")
	}
}

func TestComponent_GatherGraphData_LockedNeverWantsTurn(t *testing.T) {
	h := strafeHost()
	c := newTestComponent(h, &stubSource{})

	c.TurnInPlace(0, 170)
	c.SetOverride(OverrideForceLocked)

	if data := c.GatherGraphData(); data.WantsToTurn {
		t.Error("locked components must not request turns")
	}
}

func TestComponent_GatherGraphData_Invalid(t *testing.T) {
	c := NewComponent(ComponentConfig{})
	if data := c.GatherGraphData(); data != (GraphData{}) {
		t.Errorf("data = %+v, want zero value without valid data", data)
	}
}

func TestComponent_PseudoLoop_FullTurn(t *testing.T) {
	h := strafeHost()
	c := NewComponent(ComponentConfig{
		Host: h, AnimSet: DefaultAnimSet(), UsePseudoState: true,
	})

	const dt = 1.0 / 60
	const desired = 170.0

	tick := func() {
		c.FaceRotation(desired, dt)
		data := c.GatherGraphData()
		out := ProcessGraphData(data)
		c.UpdatePseudoState(dt, data, out)
	}

	// First tick: the clamp puts the excess on the body and the machine
	// starts the 90 degree right step
	tick()
	if got := c.TurnOffset(); got != 135 {
		t.Fatalf("offset after first tick = %v, want 135", got)
	}
	if math.Abs(h.yaw-35) > 1e-12 {
		t.Fatalf("yaw after first tick = %v, want 35", h.yaw)
	}
	if c.Pseudo().State() != PseudoTurnInPlace {
		t.Fatalf("pseudo state = %v, want turn-in-place", c.Pseudo().State())
	}
	node := c.Pseudo().Node()
	if node.StepIndex != 1 || !node.TurningRight {
		t.Fatalf("node = step %d right %v, want step 1 right", node.StepIndex, node.TurningRight)
	}

	// Run the turn to completion. The reconciliation invariant holds on
	// every tick: body yaw plus offset reconstructs the desired yaw.
	settled := false
	for i := 0; i < 600; i++ {
		tick()
		if err := math.Abs(gomath.NormalizeYaw(desired - (h.yaw + c.TurnOffset()))); err > 1e-6 {
			t.Fatalf("tick %d: yaw %v + offset %v misses desired by %v", i, h.yaw, c.TurnOffset(), err)
		}
		if c.Pseudo().State() == PseudoIdle {
			settled = true
			break
		}
	}
	if !settled {
		t.Fatal("pseudo machine never settled back to idle")
	}

	// The 90 degree animation drained most of the offset; what remains
	// sits below the trigger angle with the body near its final facing
	if got := c.TurnOffset(); got < 40 || got > 60 {
		t.Errorf("residual offset = %v, want below the 60 degree trigger", got)
	}
	if h.yaw < 110 || h.yaw > 130 {
		t.Errorf("final yaw = %v, want near desired minus the residual", h.yaw)
	}
	if data := c.GatherGraphData(); data.WantsToTurn {
		t.Error("residual offset below the trigger must not start another turn")
	}
}
