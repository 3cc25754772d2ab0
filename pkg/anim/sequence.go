package anim

// Conventional curve names used by turn animations. Authored assets may
// override them, but everything baked here writes these by default.
const (
	CurveRemainingTurnYaw = "RemainingTurnYaw"
	CurveTurnYawWeight    = "TurnYawWeight"
)

// Sequence is an animation asset reduced to what simulation needs: a play
// length, a rate scale, and named scalar curves.
type Sequence struct {
	Name      string
	Length    float64
	RateScale float64
	Curves    map[string]*Curve
}

// PlayLength returns the sequence length in seconds. Nil sequences have
// zero length.
func (s *Sequence) PlayLength() float64 {
	if s == nil {
		return 0
	}
	return s.Length
}

// SetCurve attaches a named curve, replacing any existing one.
func (s *Sequence) SetCurve(name string, c *Curve) {
	if s.Curves == nil {
		s.Curves = make(map[string]*Curve)
	}
	s.Curves[name] = c
}

// CurveValue samples the named curve at the given time. The second return
// reports whether the curve exists.
func (s *Sequence) CurveValue(name string, t float64) (float64, bool) {
	if s == nil || s.Curves == nil {
		return 0, false
	}
	c, ok := s.Curves[name]
	if !ok {
		return 0, false
	}
	return c.Sample(t), true
}

// Montage is a slot animation layered over the base pose. Root motion
// montages take over character movement while they play.
type Montage struct {
	Name       string
	Slot       string
	Length     float64
	Additive   bool
	RootMotion bool
}
