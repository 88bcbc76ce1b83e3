package pcm

//go:generate go tool stringer -type=EnvState

type EnvState uint8

const (
	Attack EnvState = iota
	Decay1
	Decay2
	Release
	Idle
)

// EnvParams are the envelope registers of a voice, as found in a sample
// header.
type EnvParams struct {
	AR, D1R, D2R, RR uint8 // 4-bit rate codes
	DL               uint8 // decay level
	KRS              uint8 // key rate scale, 0xF disables scaling
}

// Envelope is an attack/decay/release amplitude generator. Volume is a
// 10-bit level in EGShift fixed point.
type Envelope struct {
	State  EnvState
	Volume int32

	AttackRate  int32
	Decay1Rate  int32
	Decay2Rate  int32
	ReleaseRate int32
	DecayLevel  int32
}

// KeyRate returns the rate offset applied to all envelope rates of a voice
// playing at the given signed octave. fnMSB is the most significant bit of
// the pitch code.
func KeyRate(octave int32, krs uint8, fnMSB bool) int32 {
	if krs == 0xF {
		return 0
	}
	r := (octave + int32(krs)) * 2
	if fnMSB {
		r++
	}
	return r
}

// Start computes the stage rates and restarts the envelope in Attack.
func (e *Envelope) Start(t *Tables, p EnvParams, keyrate int32) {
	e.AttackRate = EnvRate(&t.Attack, keyrate, p.AR)
	e.Decay1Rate = EnvRate(&t.Decay, keyrate, p.D1R)
	e.Decay2Rate = EnvRate(&t.Decay, keyrate, p.D2R)
	e.ReleaseRate = EnvRate(&t.Decay, keyrate, p.RR)
	e.DecayLevel = 0xF - int32(p.DL&0xF)
	e.State = Attack
	e.Volume = 0
}

// KeyOff enters the release stage. It returns false if the release rate is
// instantaneous, in which case the envelope goes idle right away.
func (e *Envelope) KeyOff() bool {
	if e.ReleaseRate >= EGInstant {
		e.State = Idle
		e.Volume = 0
		return false
	}
	e.State = Release
	return true
}

// Update advances the envelope by one tick and returns its gain, in
// TLShift fixed point.
func (e *Envelope) Update(t *Tables) int32 {
	switch e.State {
	case Attack:
		e.Volume += e.AttackRate
		if e.Volume >= EGMax {
			e.State = Decay1
			if e.Decay1Rate >= EGInstant {
				e.State = Decay2
			}
			e.Volume = EGMax
		}
	case Decay1:
		e.Volume = max(0, e.Volume-e.Decay1Rate)
		if e.Volume>>EGShift <= e.DecayLevel<<6 {
			e.State = Decay2
		}
	case Decay2:
		e.Volume = max(0, e.Volume-e.Decay2Rate)
	case Release:
		e.Volume -= e.ReleaseRate
		if e.Volume <= 0 {
			e.Volume = 0
			e.State = Idle
		}
	default:
		return 1 << TLShift
	}
	return t.Lin2Exp[e.Volume>>EGShift]
}

// Ramp is a total level (attenuation) moving linearly towards a target.
type Ramp struct {
	Level  int32 // TLShift fixed point
	Target int32
	Step   int32
}

// Set changes the target level. With immediate, the level jumps to it,
// otherwise it ramps at the rate of the matching direction.
func (r *Ramp) Set(t *Tables, target uint8, immediate bool) {
	r.Target = int32(target)
	if immediate {
		r.Level = r.Target << TLShift
		return
	}
	if r.Level>>TLShift > r.Target {
		r.Step = t.TLStep[0]
	} else {
		r.Step = t.TLStep[1]
	}
}

// Jump sets the level to the target.
func (r *Ramp) Jump() { r.Level = r.Target << TLShift }

// Update moves the level one step towards the target.
func (r *Ramp) Update() {
	if r.Level>>TLShift != r.Target {
		r.Level += r.Step
	}
}

// Value returns the integer part of the level.
func (r *Ramp) Value() int32 { return r.Level >> TLShift }
