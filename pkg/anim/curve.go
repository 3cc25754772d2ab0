// Package anim provides animation curves, sequences, and a lightweight
// sequence player for simulation code that does not run a full skeletal
// animation evaluator.
package anim

// InterpMode selects how a curve interpolates between keys.
type InterpMode int

const (
	// InterpLinear blends linearly between surrounding keys.
	InterpLinear InterpMode = iota
	// InterpStep holds the previous key's value until the next key.
	InterpStep
)

// Key is a single time/value pair on a curve. Times are in seconds.
type Key struct {
	Time  float64
	Value float64
}

// Curve is a scalar track sampled by time. Keys must be sorted by time;
// AddKey appends, so callers add keys in ascending order.
type Curve struct {
	Interp InterpMode
	Keys   []Key
}

// AddKey appends a key to the curve.
func (c *Curve) AddKey(time, value float64) {
	c.Keys = append(c.Keys, Key{Time: time, Value: value})
}

// Sample evaluates the curve at the given time.
func (c *Curve) Sample(t float64) float64 {
	if c == nil || len(c.Keys) == 0 {
		return 0
	}
	if len(c.Keys) == 1 {
		return c.Keys[0].Value
	}
	if t <= c.Keys[0].Time {
		return c.Keys[0].Value
	}

	// Find surrounding keys (keys are sorted by time)
	var prev, next int
	for i := range c.Keys {
		if c.Keys[i].Time > t {
			next = i
			break
		}
		prev = i
		next = i
	}

	// At or past the last key
	if prev == next {
		return c.Keys[prev].Value
	}

	k0 := c.Keys[prev]
	k1 := c.Keys[next]
	if c.Interp == InterpStep {
		return k0.Value
	}

	frac := 0.0
	if k1.Time != k0.Time {
		frac = (t - k0.Time) / (k1.Time - k0.Time)
	}
	return k0.Value + frac*(k1.Value-k0.Value)
}
