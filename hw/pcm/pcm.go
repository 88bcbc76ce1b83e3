// Package pcm holds the parts shared by all sample-playback chip cores: the
// voice record, waveform codecs, ADPCM dialects, envelope generators,
// precomputed tables and the output mixer.
//
// Chip cores are single threaded. The host configures the output rate once,
// then interleaves register writes with calls to Tick, reading the produced
// frame after each tick. Identical call sequences produce identical frames.
package pcm

import (
	"pcmemu/hw/hwdefs"
	"pcmemu/hw/snapshot"
)

// Frame is one output sample of a chip. Mono chips set both sides to the
// same value.
type Frame struct {
	L, R int32
}

// EnvKind is the amplitude control a chip applies to its voices.
//
//go:generate go tool stringer -type=EnvKind -trimprefix=Env
type EnvKind uint8

const (
	EnvNone EnvKind = iota // level/pan only
	EnvADSR                // total-level ramp and attack/decay/release generator
)

// Desc describes the capabilities of a chip type.
type Desc struct {
	Type     hwdefs.ChipType
	Voices   int
	Divisor  uint32
	Stereo   bool
	Envelope EnvKind
	Codecs   []Codec
}

// Rate returns the output sample rate for the given master clock.
func (d Desc) Rate(clock uint32) uint32 { return clock / d.Divisor }

// State returns a chip snapshot filled with the descriptor, the clocks and
// the last output frame. Registers and voices are left to the chip.
func (d Desc) State(clock, rate uint32, out Frame) *snapshot.Chip {
	st := &snapshot.Chip{
		Type:     d.Type.String(),
		Clock:    clock,
		Rate:     rate,
		Stereo:   d.Stereo,
		Envelope: d.Envelope.String(),
		Voices:   make([]snapshot.Voice, 0, d.Voices),
		Out:      [2]int32{out.L, out.R},
	}
	for _, c := range d.Codecs {
		st.Codecs = append(st.Codecs, c.String())
	}
	return st
}

// Chip is the interface implemented by all chip cores.
type Chip interface {
	Desc() Desc

	// Configure sets the master clock and rebuilds the rate dependent
	// tables. It returns the output sample rate.
	Configure(clock uint32) (rate uint32, err error)

	// LoadROM copies data at offset into the sample memory, sized to total
	// bytes.
	LoadROM(total, offset uint32, data []byte)

	// Tick advances all voices by one output sample.
	Tick()

	// Frame returns the output produced by the last tick.
	Frame() Frame

	// Reset stops all voices. Sample memory and tables are kept.
	Reset()

	State() *snapshot.Chip
}

func clamp[T int32 | int](v, lo, hi T) T {
	return max(lo, min(v, hi))
}

// Clamp16 saturates v to the signed 16-bit range.
func Clamp16(v int32) int32 { return clamp(v, -32768, 32767) }
