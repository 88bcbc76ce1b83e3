package pcm

import (
	"pcmemu/hw/hwio"
	"pcmemu/hw/snapshot"
)

// Voice is the playback state of one channel. All chips share this record;
// the fields a chip does not use stay zero.
type Voice struct {
	Codec   Codec
	Playing bool
	KeyOn   bool
	Loop    bool

	// Addresses in sample memory. Base is the start address after bank
	// relocation; the meaning of LoopStart/LoopEnd/End (absolute or
	// relative to Base) is chip specific.
	Base      uint32
	Start     uint32
	LoopStart uint32
	LoopEnd   uint32
	End       uint32

	// Memory cursor, and for 4-bit codecs the byte whose low nibble is
	// still to be decoded.
	Addr       uint32
	Latch      uint8
	LowPending bool

	// Phase accumulator and increment per tick.
	Pos  uint32
	Step uint32

	ADPCM ADPCM

	// Predictor state saved at the loop start.
	LoopADPCM ADPCM
	LoopSaved bool

	Env  Envelope
	Ramp Ramp

	Level uint8
	Pan   uint8

	// Last two decoded samples.
	Prev, Cur int32

	Out [2]int32
}

// Retrigger restarts playback from addr: phase, decoder and interpolation
// state are cleared.
func (v *Voice) Retrigger(addr uint32) {
	v.Playing = true
	v.Addr = addr
	v.Latch = 0
	v.LowPending = false
	v.Pos = 0
	v.ADPCM = ADPCM{}
	v.LoopADPCM = ADPCM{}
	v.LoopSaved = false
	v.Prev = 0
	v.Cur = 0
}

// Stop deactivates the voice and silences its output.
func (v *Voice) Stop() {
	v.Playing = false
	v.Prev = 0
	v.Cur = 0
	v.Out = [2]int32{}
}

// Push records a newly decoded sample.
func (v *Voice) Push(s int32) {
	v.Prev = v.Cur
	v.Cur = s
}

// NextNibble returns the next 4-bit code of the stream at Addr, high nibble
// first. mask wraps the address.
func (v *Voice) NextNibble(m *hwio.Mem, mask uint32) uint8 {
	if v.LowPending {
		v.LowPending = false
		return v.Latch & 0xF
	}
	v.Latch = m.Read8(v.Addr)
	v.Addr = (v.Addr + 1) & mask
	v.LowPending = true
	return v.Latch >> 4
}

// Snapshot returns the observable state of the voice.
func (v *Voice) Snapshot(idx int) snapshot.Voice {
	s := snapshot.Voice{
		Index:     idx,
		Playing:   v.Playing,
		Codec:     v.Codec.String(),
		Start:     v.Start,
		End:       v.End,
		LoopStart: v.LoopStart,
		LoopEnd:   v.LoopEnd,
		Addr:      v.Addr,
		Pos:       v.Pos,
		Step:      v.Step,
		Level:     uint32(v.Level),
		Pan:       uint32(v.Pan),
		Signal:    v.ADPCM.Signal,
		StepIndex: v.ADPCM.Step,
		Out:       v.Out,
	}
	return s
}

// SnapshotEnv adds the envelope state to a voice snapshot.
func (v *Voice) SnapshotEnv(s *snapshot.Voice) {
	s.Env = v.Env.State.String()
	s.EnvLevel = v.Env.Volume >> EGShift
	s.TL = v.Ramp.Value()
}
