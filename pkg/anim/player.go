package anim

// Player advances a sequence and an optional montage over time and exposes
// named curve values. It stands in for a full animation evaluator on hosts
// that only need curve output.
type Player struct {
	sequence *Sequence
	time     float64
	rate     float64
	playing  bool

	montage     *Montage
	montageTime float64
}

// NewPlayer returns a player with play rate 1.
func NewPlayer() *Player {
	return &Player{rate: 1}
}

// Play starts the sequence from time zero.
func (p *Player) Play(seq *Sequence) {
	p.PlayFrom(seq, 0)
}

// PlayFrom starts the sequence at the given time. Used when a follow-up
// animation carries over the play position of the one it replaces.
func (p *Player) PlayFrom(seq *Sequence, time float64) {
	p.sequence = seq
	p.time = time
	p.playing = seq != nil
}

// Stop halts sequence playback. The current sequence and time are kept so
// curves still sample at the stop position.
func (p *Player) Stop() {
	p.playing = false
}

// Playing reports whether a sequence is advancing.
func (p *Player) Playing() bool {
	return p.playing
}

// Sequence returns the current sequence, or nil.
func (p *Player) Sequence() *Sequence {
	return p.sequence
}

// Time returns the current play position in seconds.
func (p *Player) Time() float64 {
	return p.time
}

// SetTime moves the play position.
func (p *Player) SetTime(t float64) {
	p.time = t
}

// Rate returns the current play rate multiplier.
func (p *Player) Rate() float64 {
	return p.rate
}

// SetRate sets the play rate multiplier.
func (p *Player) SetRate(rate float64) {
	p.rate = rate
}

// Finished reports whether the sequence has reached its end.
func (p *Player) Finished() bool {
	return p.sequence != nil && p.time >= p.sequence.Length
}

// Advance steps playback by dt seconds. Sequence time is scaled by the
// play rate and the sequence's own rate scale and clamps at the sequence
// length. Montage time advances unscaled.
func (p *Player) Advance(dt float64) {
	if p.montage != nil {
		p.montageTime += dt
		if p.montageTime >= p.montage.Length {
			p.montage = nil
			p.montageTime = 0
		}
	}
	if !p.playing || p.sequence == nil {
		return
	}
	scale := p.sequence.RateScale
	if scale == 0 {
		scale = 1
	}
	p.time += dt * p.rate * scale
	if p.time >= p.sequence.Length {
		p.time = p.sequence.Length
		p.playing = false
	}
}

// CurveValue samples a named curve on the current sequence at the play
// position.
func (p *Player) CurveValue(name string) (float64, bool) {
	if p.sequence == nil {
		return 0, false
	}
	return p.sequence.CurveValue(name, p.time)
}

// PlayMontage starts a montage from time zero, replacing any active one.
func (p *Player) PlayMontage(m *Montage) {
	p.montage = m
	p.montageTime = 0
}

// StopMontage clears the active montage.
func (p *Player) StopMontage() {
	p.montage = nil
	p.montageTime = 0
}

// Montage returns the active montage, or nil once it has run out.
func (p *Player) Montage() *Montage {
	return p.montage
}

// RootMotionMontage returns the active montage if it drives root motion,
// else nil.
func (p *Player) RootMotionMontage() *Montage {
	if p.montage != nil && p.montage.RootMotion {
		return p.montage
	}
	return nil
}
