package pcm

import "math"

// Fixed point shifts of the envelope level and total level.
const (
	EGShift = 16
	TLShift = 12
)

// EGMax is the envelope level at full scale, and EGInstant the rate of a
// stage that completes within a single tick.
const (
	EGMax     = 0x3FF << EGShift
	EGInstant = 0x400 << EGShift
)

// PanLaw selects how the 4-bit pan value maps to left/right gains.
type PanLaw uint8

const (
	// PanFlat ignores pan: both sides at full level.
	PanFlat PanLaw = iota
	// PanLinear attenuates one side linearly, down to silence at the
	// extreme.
	PanLinear
	// PanLog attenuates one side by 3dB per step, with the extreme value
	// silencing it.
	PanLog
)

var panLawNames = map[string]PanLaw{"flat": PanFlat, "linear": PanLinear, "log": PanLog}

func (l PanLaw) String() string {
	for name, law := range panLawNames {
		if law == l {
			return name
		}
	}
	return "unknown"
}

// ParsePanLaw returns the pan law with the given name.
func ParsePanLaw(s string) (PanLaw, bool) {
	law, ok := panLawNames[s]
	return law, ok
}

// Base durations in milliseconds of the envelope rates, at rate code 0..63.
var envBaseTimes = [64]float64{
	0, 0, 0, 0,
	6222.95, 4978.37, 4148.66, 3556.01,
	3111.47, 2489.21, 2074.33, 1778.00,
	1555.74, 1244.63, 1037.19, 889.02,
	777.87, 622.31, 518.59, 444.54,
	388.93, 311.16, 259.32, 222.27,
	194.47, 155.60, 129.66, 111.16,
	97.23, 77.82, 64.85, 55.60,
	48.62, 38.91, 32.43, 27.80,
	24.31, 19.46, 16.24, 13.92,
	12.15, 9.75, 8.12, 6.95,
	6.08, 4.90, 4.08, 3.48,
	3.04, 2.49, 2.13, 1.90,
	1.72, 1.41, 1.18, 1.04,
	0.91, 0.76, 0.64, 0.56,
	0.48, 0.40, 0.34, 0.26,
}

// Decay and release take this much longer than an attack at the same rate.
const decayAttackRatio = 14.32833

// Total level ramps take 78.2ms to fall over the full range and twice that
// to rise. The steps are counted at 44.1kHz, regardless of the chip rate.
const (
	tlRampMillis = 78.2
	tlRampRate   = 44100
)

// Tables holds the lookup tables depending on the chip output rate.
type Tables struct {
	Rate uint32
	Law  PanLaw

	// Phase increment in 12-bit fixed point at octave 0, by 10-bit pitch
	// code, multiplied by Rate.
	Freq [0x400]uint32

	// Left and right gains in 12-bit fixed point, by pan<<7 | level.
	Pan [2][0x800]int32

	// Envelope increments per tick, by rate code. Only built for ADSR
	// chips.
	Attack  [64]int32
	Decay   [64]int32
	Lin2Exp [0x400]int32

	// Total level ramp steps: falling, rising.
	TLStep [2]int32
}

// NewTables builds the tables for the given output rate.
func NewTables(chip string, rate uint32, law PanLaw, adsr bool) (*Tables, error) {
	if rate == 0 {
		return nil, &ConfigurationError{Chip: chip, Reason: "sample rate can not be 0"}
	}

	t := &Tables{Rate: rate, Law: law}
	for i := range t.Freq {
		fcent := float32(rate) * (1024 + float32(i)) / 1024
		t.Freq[i] = uint32(float32(1<<TLShift) * fcent)
	}

	for level := range 0x80 {
		voldb := float32(level) * -24 / 64
		tl := float32(math.Pow(10, float64(voldb/20))) / 4
		for pan := range 0x10 {
			l, r := panGains(law, pan)
			idx := pan<<7 | level
			t.Pan[0][idx] = int32(float32(1<<TLShift) * (l * tl))
			t.Pan[1][idx] = int32(float32(1<<TLShift) * (r * tl))
		}
	}

	numerator := float32(0x80 << TLShift)
	t.TLStep[0] = int32(-numerator / (tlRampMillis * tlRampRate / 1000))
	t.TLStep[1] = int32(numerator / (tlRampMillis * 2 * tlRampRate / 1000))

	if adsr {
		t.buildEnvelope()
	}
	return t, nil
}

func (t *Tables) buildEnvelope() {
	for i, ms := range envBaseTimes {
		if i < 4 || i == len(envBaseTimes)-1 {
			t.Attack[i] = EGInstant
			t.Decay[i] = EGInstant
			continue
		}
		ticks := ms * float64(t.Rate) / 1000
		t.Attack[i] = int32(min(float64(EGInstant)/ticks, EGInstant))
		t.Decay[i] = int32(min(float64(EGInstant)/(ticks*decayAttackRatio), EGInstant))
	}

	for i := range t.Lin2Exp {
		db := -(96 - 96*float64(i)/0x400)
		t.Lin2Exp[i] = int32(math.Pow(10, db/20) * (1 << TLShift))
	}
}

func panGains(law PanLaw, pan int) (l, r float32) {
	// The pan nibble is signed: positive values attenuate the left side,
	// negative ones the right side.
	s := pan
	if s >= 8 {
		s -= 16
	}
	n := min(max(s, -s), 7)

	var att float32
	switch law {
	case PanFlat:
		return 1, 1
	case PanLinear:
		att = 1 - float32(n)/7
	case PanLog:
		if n == 7 {
			att = 0
		} else {
			att = float32(math.Pow(10, -3*float64(n)/20))
		}
	}
	if s > 0 {
		return att, 1
	}
	return 1, att
}

// FreqStep returns the phase increment per tick, in 12-bit fixed point, of
// the given pitch code and 4-bit signed octave.
func (t *Tables) FreqStep(pitch uint16, octave uint8) uint32 {
	p := uint64(t.Freq[pitch&0x3FF])
	octave &= 0xF
	if octave&8 != 0 {
		p >>= 16 - uint(octave)
	} else {
		p <<= octave
	}
	return uint32(p / uint64(t.Rate))
}

// PanIndex returns the index in Pan of a level/pan pair.
func PanIndex(level, pan uint8) int { return int(pan&0xF)<<7 | int(level&0x7F) }

// EnvRate returns the envelope increment of a 4-bit rate register, offset
// by the key scaling rate. Register value 0 maps to an instant step, so a
// stage with rate 0 completes in a single tick.
func EnvRate(steps *[64]int32, keyrate int32, val uint8) int32 {
	switch val {
	case 0:
		return steps[0]
	case 0xF:
		return steps[63]
	}
	r := clamp(4*int32(val)+keyrate, 0, 63)
	return steps[r]
}
