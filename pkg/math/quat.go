package math

import "math"

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float64
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// axis should be normalized, angle is in radians.
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	halfAngle := angle / 2
	s := math.Sin(halfAngle)
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: math.Cos(halfAngle),
	}
}

// QuatFromYaw creates a quaternion for a yaw rotation in degrees about the up axis.
func QuatFromYaw(yawDeg float64) Quat {
	return QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, yawDeg*math.Pi/180.0)
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if length < 0.0001 {
		return QuatIdentity()
	}
	invLen := 1.0 / length
	return Quat{
		X: q.X * invLen,
		Y: q.Y * invLen,
		Z: q.Z * invLen,
		W: q.W * invLen,
	}
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float64 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// NearlyEqual reports whether two quaternions represent the same rotation
// within tolerance. q and -q describe the same rotation, so both parities
// are checked.
func (q Quat) NearlyEqual(other Quat, tolerance float64) bool {
	same := math.Abs(q.X-other.X) <= tolerance &&
		math.Abs(q.Y-other.Y) <= tolerance &&
		math.Abs(q.Z-other.Z) <= tolerance &&
		math.Abs(q.W-other.W) <= tolerance
	if same {
		return true
	}
	return math.Abs(q.X+other.X) <= tolerance &&
		math.Abs(q.Y+other.Y) <= tolerance &&
		math.Abs(q.Z+other.Z) <= tolerance &&
		math.Abs(q.W+other.W) <= tolerance
}

// Slerp performs spherical linear interpolation between two quaternions.
// t should be in range [0, 1].
func (q Quat) Slerp(other Quat, t float64) Quat {
	// Compute cos of angle between quaternions
	dot := q.Dot(other)

	// If dot is negative, negate one quaternion to take the shorter path
	if dot < 0 {
		other = Quat{X: -other.X, Y: -other.Y, Z: -other.Z, W: -other.W}
		dot = -dot
	}

	// If quaternions are very close, use linear interpolation to avoid division by zero
	if dot > 0.9995 {
		return Quat{
			X: q.X + t*(other.X-q.X),
			Y: q.Y + t*(other.Y-q.Y),
			Z: q.Z + t*(other.Z-q.Z),
			W: q.W + t*(other.W-q.W),
		}.Normalize()
	}

	// Standard slerp
	theta0 := math.Acos(dot)
	theta := theta0 * t
	sinTheta := math.Sin(theta)
	sinTheta0 := math.Sin(theta0)

	s0 := math.Cos(theta) - dot*sinTheta/sinTheta0
	s1 := sinTheta / sinTheta0

	return Quat{
		X: q.X*s0 + other.X*s1,
		Y: q.Y*s0 + other.Y*s1,
		Z: q.Z*s0 + other.Z*s1,
		W: q.W*s0 + other.W*s1,
	}
}

// Yaw extracts the yaw angle in degrees from a quaternion that rotates about
// the up axis.
func (q Quat) Yaw() float64 {
	// For a pure yaw quaternion: X = 0, Z = 0, Y = sin(yaw/2), W = cos(yaw/2).
	return NormalizeYaw(2 * math.Atan2(q.Y, q.W) * 180.0 / math.Pi)
}

// SlerpYaw interpolates between two yaw angles along the shortest arc using
// quaternion slerp, returning the resulting yaw in degrees.
func SlerpYaw(fromDeg, toDeg, t float64) float64 {
	return QuatFromYaw(fromDeg).Slerp(QuatFromYaw(toDeg), t).Normalize().Yaw()
}
