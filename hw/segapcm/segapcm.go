// Package segapcm emulates the Sega 315-5218 PCM chip: 16 channels of
// unsigned 8-bit samples, controlled through a 2KB register RAM shared
// with the host.
package segapcm

import (
	"pcmemu/emu/log"
	"pcmemu/hw/hwdefs"
	"pcmemu/hw/hwio"
	"pcmemu/hw/pcm"
	"pcmemu/hw/snapshot"
)

var modSegaPCM = log.NewModule("segapcm")

const name = "segapcm"

var desc = pcm.Desc{
	Type:     hwdefs.SegaPCM,
	Voices:   hwdefs.SegaPCMVoices,
	Divisor:  hwdefs.SegaPCMDivisor,
	Stereo:   true,
	Envelope: pcm.EnvNone,
	Codecs:   []pcm.Codec{pcm.OffsetPCM8},
}

const (
	ramSize = 0x800
	ramMask = ramSize - 1

	// Silence in offset binary.
	romFill = 0x80
)

// Channel registers, at channel*8 + offset in register RAM.
const (
	regVolL     = 0x02
	regVolR     = 0x03
	regLoopLSB  = 0x04
	regLoopMSB  = 0x05
	regEnd      = 0x06
	regDelta    = 0x07
	regAddrLSB  = 0x84
	regAddrMSB  = 0x85
	regFlags    = 0x86
	flagDisable = 1 << 0
	flagNoLoop  = 1 << 1
)

// By default bits 4-6 of the flags register select one of 8 64KB banks.
const (
	defaultBankShift = 12
	defaultBankMask  = 0x70
)

type Chip struct {
	clock uint32
	rate  uint32

	rom hwio.Mem
	ram hwio.Mem

	// Fractional part of the channel addresses, not visible in RAM.
	low    [hwdefs.SegaPCMVoices]uint8
	voices [hwdefs.SegaPCMVoices]pcm.Voice

	bankShift uint
	bankMask  uint8

	mix   pcm.Mixer
	frame pcm.Frame
}

func New() *Chip {
	c := &Chip{
		rom:       hwio.Mem{Name: name, Fill: romFill, OpenBus: romFill},
		ram:       hwio.Mem{Name: name + " regs", Data: make([]byte, ramSize), Fill: 0xFF},
		bankShift: defaultBankShift,
		bankMask:  defaultBankMask,
		mix:       pcm.Mixer{Saturate: true},
	}
	c.Reset()
	return c
}

func (c *Chip) Desc() pcm.Desc { return desc }

func (c *Chip) Configure(clock uint32) (uint32, error) {
	rate := desc.Rate(clock)
	if rate == 0 {
		return 0, &pcm.ConfigurationError{Chip: name, Reason: "sample rate can not be 0"}
	}
	c.clock = clock
	c.rate = rate
	modSegaPCM.InfoZ("configured").Uint32("clock", clock).Uint32("rate", rate).End()
	return rate, nil
}

func (c *Chip) LoadROM(total, offset uint32, data []byte) {
	c.rom.Load(total, offset, data)
}

// SetBank sets the bank configuration from the board interface value: the
// low nibble is the shift applied to the bank bits of the flags register,
// bits 18-23 extend the bank mask.
func (c *Chip) SetBank(bank uint32) {
	c.bankShift = uint(bank & 0xF)
	c.bankMask = uint8(0x70 | (bank>>16)&0xFC)
	modSegaPCM.DebugZ("bank").Uint("shift", c.bankShift).Hex8("mask", c.bankMask).End()
}

// Reset disables all channels by filling the register RAM with 0xFF. The
// bank configuration is kept.
func (c *Chip) Reset() {
	c.ram.Clear()
	for i := range c.voices {
		c.voices[i] = pcm.Voice{Codec: pcm.OffsetPCM8}
		c.low[i] = 0
	}
	c.mix.Reset()
	c.frame = pcm.Frame{}
}

func (c *Chip) WriteRAM(addr uint16, data uint8) {
	c.ram.Write8(uint32(addr&ramMask), data)
}

func (c *Chip) ReadRAM(addr uint16) uint8 {
	return c.ram.Read8(uint32(addr & ramMask))
}

func (c *Chip) reg(ch int, off uint32) uint8 {
	return c.ram.Read8(uint32(ch)*8 + off)
}

func (c *Chip) setReg(ch int, off uint32, val uint8) {
	c.ram.Write8(uint32(ch)*8+off, val)
}

func (c *Chip) Tick() {
	c.mix.Reset()
	for ch := range c.voices {
		c.update(ch)
		c.mix.Add(c.voices[ch].Out)
	}
	c.frame = c.mix.Frame()
}

func (c *Chip) update(ch int) {
	v := &c.voices[ch]
	flags := c.reg(ch, regFlags)
	if flags&flagDisable != 0 {
		if v.Playing {
			v.Stop()
		}
		return
	}
	v.Playing = true

	offset := uint32(flags&c.bankMask) << c.bankShift
	addr := uint32(c.reg(ch, regAddrMSB))<<16 | uint32(c.reg(ch, regAddrLSB))<<8 | uint32(c.low[ch])
	end := c.reg(ch, regEnd) + 1

	if addr>>16 == uint32(end) {
		if flags&flagNoLoop != 0 {
			c.setReg(ch, regFlags, flags|flagDisable)
			c.low[ch] = 0
			v.Stop()
			modSegaPCM.DebugZ("end").Int("ch", ch).End()
			return
		}
		addr = uint32(c.reg(ch, regLoopMSB))<<16 | uint32(c.reg(ch, regLoopLSB))<<8
	}

	s := pcm.DecodeOffset8(c.rom.Read8(offset + addr>>8))
	v.Push(s)
	v.Out[0] = s * int32(c.reg(ch, regVolL)&0x7F)
	v.Out[1] = s * int32(c.reg(ch, regVolR)&0x7F)

	v.Step = uint32(c.reg(ch, regDelta))
	addr = (addr + v.Step) & 0xFFFFFF
	c.setReg(ch, regAddrLSB, uint8(addr>>8))
	c.setReg(ch, regAddrMSB, uint8(addr>>16))
	c.low[ch] = uint8(addr)

	v.Base = offset
	v.Pos = addr
	v.Addr = offset + addr>>8
}

func (c *Chip) Frame() pcm.Frame { return c.frame }

func (c *Chip) Playing(ch int) bool { return c.reg(ch, regFlags)&flagDisable == 0 }

func (c *Chip) State() *snapshot.Chip {
	st := desc.State(c.clock, c.rate, c.frame)
	st.Regs = []snapshot.Reg{
		{Name: "bank_shift", Value: uint32(c.bankShift)},
		{Name: "bank_mask", Value: uint32(c.bankMask)},
	}
	for ch := range c.voices {
		v := c.voices[ch]
		v.Playing = c.Playing(ch)
		v.LoopStart = uint32(c.reg(ch, regLoopMSB))<<8 | uint32(c.reg(ch, regLoopLSB))
		v.End = uint32(c.reg(ch, regEnd)+1) << 8
		v.Level = c.reg(ch, regVolL) & 0x7F
		v.Pan = c.reg(ch, regVolR) & 0x7F
		st.Voices = append(st.Voices, v.Snapshot(ch))
	}
	return st
}
