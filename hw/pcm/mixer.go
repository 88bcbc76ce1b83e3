package pcm

// Mixer sums voice outputs into a frame. Each voice output is first clamped
// to 16 bits.
type Mixer struct {
	// Saturate clamps the running sum to 16 bits after each voice.
	Saturate bool
	// DropBits clears low bits of the final sum, modelling a DAC coarser
	// than 16 bits.
	DropBits uint

	acc [2]int32
}

func (m *Mixer) Reset() { m.acc = [2]int32{} }

func (m *Mixer) Add(out [2]int32) {
	for i := range m.acc {
		m.acc[i] += Clamp16(out[i])
		if m.Saturate {
			m.acc[i] = Clamp16(m.acc[i])
		}
	}
}

// Frame returns the mix of the voices added since the last Reset.
func (m *Mixer) Frame() Frame {
	mask := ^int32(1<<m.DropBits - 1)
	return Frame{L: m.acc[0] & mask, R: m.acc[1] & mask}
}

// Mono returns a frame carrying the left sum on both sides.
func (m *Mixer) Mono() Frame {
	f := m.Frame()
	f.R = f.L
	return f
}
