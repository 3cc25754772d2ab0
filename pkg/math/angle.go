package math

import "math"

// Yaw angles are measured in degrees about the +Y (up) axis.
// Yaw 0 faces +Z and positive yaw turns toward +X, matching the
// direction convention used by the simulation.

// YawCompressTolerance is the quaternion tolerance used to decide whether a
// yaw changed enough to be worth replicating. It must stay well below the
// smallest angle change that matters for gameplay (under a degree).
const YawCompressTolerance = 1e-3

// NormalizeYaw wraps an angle in degrees to (-180, 180].
func NormalizeYaw(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle > 180 {
		angle -= 360
	} else if angle <= -180 {
		angle += 360
	}
	return angle
}

// YawDelta returns the shortest signed arc from one yaw to another, in (-180, 180].
func YawDelta(from, to float64) float64 {
	return NormalizeYaw(to - from)
}

// ClampYaw clamps an angle to [-limit, limit] after normalizing it.
func ClampYaw(angle, limit float64) float64 {
	angle = NormalizeYaw(angle)
	if angle > limit {
		return limit
	}
	if angle < -limit {
		return -limit
	}
	return angle
}

// CompressYaw packs a yaw angle into 16 bits, mapping the full circle onto
// the unsigned short range. Round-trip error stays under 0.006 degrees.
func CompressYaw(angle float64) uint16 {
	return uint16(int(math.Round(angle*65536.0/360.0)) & 0xFFFF)
}

// DecompressYaw unpacks a 16-bit yaw back to degrees in (-180, 180].
func DecompressYaw(v uint16) float64 {
	return NormalizeYaw(float64(v) * 360.0 / 65536.0)
}

// YawChangedSignificantly reports whether two yaw angles differ by more than
// the replication tolerance. The comparison goes through quaternions so that
// equivalent rotations such as -180 and +180 compare equal.
func YawChangedSignificantly(a, b float64) bool {
	return !QuatFromYaw(a).NearlyEqual(QuatFromYaw(b), YawCompressTolerance)
}

// StepToward moves current toward target by at most maxDelta, without
// overshooting. Used for constant-rate interpolation of blend alphas.
func StepToward(current, target, maxDelta float64) float64 {
	if maxDelta <= 0 {
		return current
	}
	delta := target - current
	if math.Abs(delta) <= maxDelta {
		return target
	}
	if delta > 0 {
		return current + maxDelta
	}
	return current - maxDelta
}

// YawFromPlanar returns the yaw of a ground-plane direction, with X east
// and Y north. A zero vector yields yaw 0.
func YawFromPlanar(v Vec2) float64 {
	if v.IsNearlyZero(1e-12) {
		return 0
	}
	return math.Atan2(v.X, v.Y) * 180.0 / math.Pi
}

// YawFromDirection returns the yaw of a direction vector projected onto the
// ground plane. A zero-length projection yields yaw 0.
func YawFromDirection(v Vec3) float64 {
	return YawFromPlanar(v.XZ())
}

// DirectionFromYaw returns the unit ground-plane direction for a yaw angle.
func DirectionFromYaw(yaw float64) Vec3 {
	rad := yaw * math.Pi / 180.0
	return Vec3{X: math.Sin(rad), Y: 0, Z: math.Cos(rad)}
}
