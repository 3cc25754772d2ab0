package turn

import (
	"fmt"

	"github.com/Faultbox/pivot/pkg/anim"
	gomath "github.com/Faultbox/pivot/pkg/math"
)

// NetRole describes which copy of a character this component runs on.
type NetRole int

const (
	// RoleAuthority is the simulating server copy.
	RoleAuthority NetRole = iota
	// RoleAutonomous is the owning client's predicted copy.
	RoleAutonomous
	// RoleSimulated is a remote observer's mirrored copy.
	RoleSimulated
)

func (r NetRole) String() string {
	switch r {
	case RoleAuthority:
		return "authority"
	case RoleAutonomous:
		return "autonomous"
	case RoleSimulated:
		return "simulated"
	}
	return fmt.Sprintf("NetRole(%d)", int(r))
}

// RotationSettings reports how the host character resolves its facing.
// The component re-reads them every call so runtime changes take effect
// immediately.
type RotationSettings struct {
	// OrientToMovement faces the character along its travel direction.
	OrientToMovement bool
	// UseControllerRotationYaw snaps the body directly to control yaw.
	UseControllerRotationYaw bool
	// UseControllerDesiredRotation smoothly tracks the controller's
	// desired rotation through the physics rotation path.
	UseControllerDesiredRotation bool
	// RunPhysicsWithNoController keeps physics rotation active for
	// unpossessed characters.
	RunPhysicsWithNoController bool
}

// Host is the character surface the component reconciles against. All
// reads happen during the gather phase on the character's own tick.
type Host interface {
	// Yaw returns the current body yaw in degrees.
	Yaw() float64
	// SetYaw writes the body yaw. Pitch and roll are untouched.
	SetYaw(yaw float64)
	// Velocity returns the current world-space velocity.
	Velocity() gomath.Vec3
	// RotationSettings reports the active facing configuration.
	RotationSettings() RotationSettings
	// DesiredControlYaw returns the possessing controller's target yaw.
	// ok is false when the character is unpossessed.
	DesiredControlYaw() (yaw float64, ok bool)
	// FallbackDesiredYaw returns the target yaw of a controller that owns
	// the character without possessing it, if any.
	FallbackDesiredYaw() (yaw float64, ok bool)
	// RootMotionMontage returns the montage currently driving root
	// motion, or nil.
	RootMotionMontage() *anim.Montage
}

// TurnMethod says which rotation update path owns the character's facing.
type TurnMethod int

const (
	// TurnMethodNone means the component cannot handle rotation at all.
	TurnMethodNone TurnMethod = iota
	// TurnMethodFaceRotation is the instant snap-to-control path.
	TurnMethodFaceRotation
	// TurnMethodPhysicsRotation is the smoothed desired-rotation path.
	TurnMethodPhysicsRotation
)

func (m TurnMethod) String() string {
	switch m {
	case TurnMethodNone:
		return "none"
	case TurnMethodFaceRotation:
		return "face-rotation"
	case TurnMethodPhysicsRotation:
		return "physics-rotation"
	}
	return fmt.Sprintf("TurnMethod(%d)", int(m))
}
