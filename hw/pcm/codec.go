package pcm

import "pcmemu/hw/hwio"

//go:generate go tool stringer -type=Codec

// Codec is the encoding of the waveform a voice plays.
type Codec uint8

const (
	NoCodec     Codec = iota
	LinearPCM8        // signed 8-bit
	OffsetPCM8        // unsigned 8-bit, 0x80 is silence
	SignMagPCM8       // bit 7 set is positive, 7-bit magnitude
	LinearPCM16       // signed 16-bit little-endian
	PackedPCM12       // 12-bit, 2 samples in 3 bytes
	ADPCMA            // 4-bit OKI
	ADPCMB            // 4-bit Yamaha
	BlockADPCM        // block structured 4-bit NEC, see upd7759
)

// DecodePCM8 returns a signed 8-bit sample as a 16-bit value.
func DecodePCM8(b uint8) int32 { return int32(int8(b)) << 8 }

// DecodeOffset8 returns the signed value of an offset binary sample.
func DecodeOffset8(b uint8) int32 { return int32(int8(b - 0x80)) }

// DecodeSignMag8 returns the signed value of a sign-magnitude sample.
func DecodeSignMag8(b uint8) int32 {
	if b&0x80 != 0 {
		return int32(b & 0x7F)
	}
	return -int32(b & 0x7F)
}

// DecodePacked12 returns the 12-bit sample at index idx of the stream
// starting at base, left aligned in 16 bits. Four samples are packed in a
// frame of three big-endian words:
//
//	sample 0: w0 ....xxxxxxxxxxxx
//	sample 1: w0 xxxx............ w1 ........xxxxxxxx
//	sample 2: w1 xxxxxxxx........ w2 ............xxxx
//	sample 3: w2 xxxxxxxxxxxx....
func DecodePacked12(m *hwio.Mem, base, idx uint32) int32 {
	adr := base + (idx>>2)*6
	var s uint16
	switch idx & 3 {
	case 0:
		w0 := m.Read16BE(adr)
		s = (w0 & 0x0FFF) << 4
	case 1:
		w0 := m.Read16BE(adr)
		w1 := m.Read16BE(adr + 2)
		s = (w0&0xF000)>>8 | (w1&0x00FF)<<8
	case 2:
		w1 := m.Read16BE(adr + 2)
		w2 := m.Read16BE(adr + 4)
		s = (w1&0xFF00)>>4 | (w2&0x000F)<<12
	case 3:
		w2 := m.Read16BE(adr + 4)
		s = w2 & 0xFFF0
	}
	return int32(int16(s))
}

// Interpolate blends prev and cur, weighting cur by frac/2^bits.
func Interpolate(prev, cur int32, frac uint32, bits uint) int32 {
	f := int32(frac)
	return (cur*f + prev*(1<<bits-f)) >> bits
}
