package turn

// TurnState is the per-character accumulator. It is owned exclusively by
// one component and mutated only inside reconciliation calls.
type TurnState struct {
	// TurnOffset is the signed yaw, in degrees, currently owed to an
	// in-place animation instead of the character body. It stays within
	// the configured max turn angle whenever one is set.
	TurnOffset float64

	// CurveValue is the previous frame's remainingYaw*weight sample. It
	// only serves as the reference for the next frame's delta.
	CurveValue float64

	// CurveValid reports whether CurveValue came from a frame with a
	// nonzero weight curve. A stale sample must not produce a delta when
	// the curve becomes relevant again.
	CurveValid bool

	// InterpOutAlpha climbs from 0 to 1 while the character moves away
	// with a leftover offset, blending the body to the control rotation
	// without a snap.
	InterpOutAlpha float64
}

// Zero resets the accumulator to its spawn state.
func (s *TurnState) Zero() {
	*s = TurnState{}
}
