package multipcm

import (
	"pcmemu/hw/pcm"
)

// Sample headers are 12 bytes records at the start of the ROM.
const headerSize = 12

type header struct {
	start  uint32
	loop   uint32
	end    uint32
	format uint8

	env pcm.EnvParams

	lfoVibrato   uint8
	lfoAmplitude uint8
}

// Bit 3 of the format selects 12-bit samples.
func (h *header) codec() pcm.Codec {
	if h.format&8 != 0 {
		return pcm.PackedPCM12
	}
	return pcm.LinearPCM8
}

type slot struct {
	pcm.Voice

	num    int
	regs   [8]uint8
	sample uint16 // 9-bit sample index
	pitch  uint16 // 10-bit pitch code
	octave uint8  // 4-bit signed
	hdr    header
}

func (s *slot) updateStep(t *pcm.Tables) {
	if t == nil {
		return
	}
	s.Step = t.FreqStep(s.pitch, s.octave)
}

// signedOctave returns the octave as a signed value in -8..7.
func (s *slot) signedOctave() int32 {
	oct := int32(s.octave)
	if oct&8 != 0 {
		oct -= 16
	}
	return oct
}

func (c *Chip) loadHeader(s *slot) {
	addr := uint32(s.sample) * headerSize
	rd := func(off uint32) uint32 { return uint32(c.rom.Read8(addr + off)) }

	start := rd(0)<<16 | rd(1)<<8 | rd(2)
	h := header{
		format: uint8(start>>20) & 0xFE,
		start:  start & 0x3FFFFF,
		loop:   rd(3)<<8 | rd(4),
		end:    0xFFFF - (rd(5)<<8 | rd(6)),

		lfoVibrato:   uint8(rd(7)),
		lfoAmplitude: uint8(rd(11)) & 0xF,
	}
	h.env = pcm.EnvParams{
		AR:  uint8(rd(8)>>4) & 0xF,
		D1R: uint8(rd(8)) & 0xF,
		DL:  uint8(rd(9)>>4) & 0xF,
		D2R: uint8(rd(9)) & 0xF,
		KRS: uint8(rd(10)>>4) & 0xF,
		RR:  uint8(rd(10)) & 0xF,
	}
	s.hdr = h
	s.Codec = h.codec()
	s.Start = h.start
	s.LoopStart = h.loop
	s.End = h.end
	s.Base = h.start
}

// WriteSlot writes a register of slot n. Writes to slot -1 are dropped.
func (c *Chip) WriteSlot(n int, reg, data uint8) error {
	if n < 0 || n >= len(c.slots) || reg > 7 {
		return nil
	}
	s := &c.slots[n]
	s.regs[reg] = data

	switch reg {
	case 0:
		s.Pan = data >> 4 & 0xF

	case 1:
		s.sample = s.sample&0x100 | uint16(data)
		c.loadHeader(s)
		if s.Playing {
			c.retrigger(s)
		}

	case 2, 3:
		if reg == 2 {
			s.sample = s.sample&0xFF | uint16(data&1)<<8
			s.pitch = s.pitch&0x3C0 | uint16(data>>2)
		} else {
			s.octave = (data>>4 - 1) & 0xF
			s.pitch = s.pitch&0x3F | uint16(data&0xF)<<6
		}
		if c.tables == nil {
			return &pcm.ConfigurationError{Chip: name, Reason: "pitch written before the sample rate is configured"}
		}
		s.updateStep(c.tables)

	case 4:
		if data&0x80 != 0 {
			c.keyOn(s)
		} else if s.Playing {
			c.keyOff(s)
		}

	case 5:
		immediate := data&1 != 0
		if c.tables == nil {
			s.Ramp.Target = int32(data >> 1 & 0x7F)
			s.Ramp.Jump()
			break
		}
		s.Ramp.Set(c.tables, data>>1&0x7F, immediate)

	case 6, 7:
		modMultiPCM.DebugZ("LFO write ignored").Int("slot", n).Uint8("reg", reg).Hex8("data", data).End()
	}
	return nil
}

func (c *Chip) keyOn(s *slot) {
	if c.tables == nil {
		modMultiPCM.WarnZ("key on before the sample rate is configured").Int("slot", s.num).End()
		return
	}
	c.loadHeader(s)
	c.retrigger(s)

	fnMSB := s.regs[3]&8 != 0
	s.Env.Start(c.tables, s.hdr.env, pcm.KeyRate(s.signedOctave(), s.hdr.env.KRS, fnMSB))
	s.KeyOn = true

	modMultiPCM.DebugZ("key on").
		Int("slot", s.num).
		Uint32("sample", uint32(s.sample)).
		Hex32("base", s.Base).
		Stringer("codec", s.Codec).
		End()
}

func (c *Chip) retrigger(s *slot) {
	s.Retrigger(0)
	s.Ramp.Jump()
	if s.Base >= bankThreshold && (c.bankLeft|c.bankRight) != 0 {
		bank := c.bankRight
		if s.Pan&8 != 0 {
			bank = c.bankLeft
		}
		s.Base = s.Base&0xFFFFF | bank
	}
}

func (c *Chip) keyOff(s *slot) {
	s.KeyOn = false
	if !s.Env.KeyOff() {
		s.Stop()
	}
	modMultiPCM.DebugZ("key off").Int("slot", s.num).Stringer("env", s.Env.State).End()
}
