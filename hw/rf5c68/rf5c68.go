// Package rf5c68 emulates the Ricoh RF5C68 and RF5C164, 8 channel PCM chips
// playing sign-magnitude samples from 64KB of wave RAM.
package rf5c68

import (
	"fmt"

	"pcmemu/emu/log"
	"pcmemu/hw/hwdefs"
	"pcmemu/hw/hwio"
	"pcmemu/hw/pcm"
	"pcmemu/hw/snapshot"
)

var modRF5C = log.NewModule("rf5c68")

const name = "rf5c68"

type Variant uint8

const (
	RF5C68 Variant = iota
	RF5C164
)

func (v Variant) String() string {
	switch v {
	case RF5C68:
		return "rf5c68"
	case RF5C164:
		return "rf5c164"
	}
	return fmt.Sprintf("Variant(%d)", v)
}

func ParseVariant(s string) (Variant, error) {
	switch s {
	case "rf5c68", "":
		return RF5C68, nil
	case "rf5c164":
		return RF5C164, nil
	}
	return 0, fmt.Errorf("unknown rf5c68 variant %q", s)
}

type Config struct {
	Variant Variant
}

var Default = Config{Variant: RF5C68}

const (
	ramSize = 0x10000

	// A sample byte of 0xFF sends the channel to its loop address.
	loopMarker = 0xFF

	// Addresses have 11 fractional bits.
	addrShift = 11
	addrMask  = 0x7FFFFFF
)

type Chip struct {
	cfg   Config
	desc  pcm.Desc
	clock uint32
	rate  uint32

	ram    hwio.Mem
	voices [hwdefs.RF5C68Voices]pcm.Voice

	enabled bool
	memBank uint8
	chBank  uint8

	mix   pcm.Mixer
	frame pcm.Frame
}

func New(cfg Config) *Chip {
	c := &Chip{
		cfg: cfg,
		ram: hwio.Mem{Name: cfg.Variant.String(), Data: make([]byte, ramSize)},
		desc: pcm.Desc{
			Type:     hwdefs.RF5C68,
			Voices:   hwdefs.RF5C68Voices,
			Divisor:  hwdefs.RF5C68Divisor,
			Stereo:   true,
			Envelope: pcm.EnvNone,
			Codecs:   []pcm.Codec{pcm.SignMagPCM8},
		},
	}
	// The RF5C68 DAC has 10 bits.
	if cfg.Variant == RF5C164 {
		c.desc.Type = hwdefs.RF5C164
	} else {
		c.mix.DropBits = 6
	}
	c.Reset()
	return c
}

func (c *Chip) Desc() pcm.Desc { return c.desc }

func (c *Chip) Configure(clock uint32) (uint32, error) {
	rate := c.desc.Rate(clock)
	if rate == 0 {
		return 0, &pcm.ConfigurationError{Chip: name, Reason: "sample rate can not be 0"}
	}
	c.clock = clock
	c.rate = rate
	modRF5C.InfoZ("configured").Stringer("variant", c.cfg.Variant).Uint32("clock", clock).Uint32("rate", rate).End()
	return rate, nil
}

// LoadROM writes data in wave RAM at offset. The RAM size is fixed, total
// is ignored.
func (c *Chip) LoadROM(total, offset uint32, data []byte) {
	c.ram.Load(ramSize, offset, data)
}

// LoadRAM writes a block in wave RAM at start, in the current memory bank.
func (c *Chip) LoadRAM(start uint32, data []byte) {
	c.ram.Load(ramSize, start|uint32(c.memBank)<<12, data)
}

// WriteMem writes a byte in the 4KB window of the current memory bank.
func (c *Chip) WriteMem(addr uint16, data uint8) {
	c.ram.Write8(uint32(c.memBank)<<12|uint32(addr&0xFFF), data)
}

func (c *Chip) ReadMem(addr uint16) uint8 {
	return c.ram.Read8(uint32(c.memBank)<<12 | uint32(addr&0xFFF))
}

// Reset disables all channels. Wave RAM is kept.
func (c *Chip) Reset() {
	for i := range c.voices {
		c.voices[i] = pcm.Voice{Codec: pcm.SignMagPCM8}
	}
	c.enabled = false
	c.memBank = 0
	c.chBank = 0
	c.mix.Reset()
	c.frame = pcm.Frame{}
}

func (c *Chip) WriteReg(reg, data uint8) {
	v := &c.voices[c.chBank]

	switch reg {
	case 0x00:
		v.Level = data
	case 0x01:
		v.Pan = data
	case 0x02:
		v.Step = v.Step&0xFF00 | uint32(data)
	case 0x03:
		v.Step = v.Step&0x00FF | uint32(data)<<8
	case 0x04:
		v.LoopStart = v.LoopStart&0xFF00 | uint32(data)
	case 0x05:
		v.LoopStart = v.LoopStart&0x00FF | uint32(data)<<8
	case 0x06:
		v.Start = uint32(data) << 8
		if !v.Playing {
			v.Pos = v.Start << addrShift
		}
	case 0x07:
		c.enabled = data&0x80 != 0
		if data&0x40 != 0 {
			c.chBank = data & 7
		} else {
			c.memBank = data & 0xF
		}
	case 0x08:
		for i := range c.voices {
			v := &c.voices[i]
			on := data>>i&1 == 0
			if !on {
				v.Stop()
				v.Pos = v.Start << addrShift
			}
			v.Playing = on
		}
	default:
		modRF5C.WarnZ("unknown register write").Hex8("reg", reg).Hex8("data", data).End()
	}
}

func (c *Chip) Tick() {
	c.mix.Reset()
	if !c.enabled {
		c.frame = pcm.Frame{}
		return
	}
	for i := range c.voices {
		v := &c.voices[i]
		if v.Playing {
			c.update(v)
		}
		c.mix.Add(v.Out)
	}
	c.frame = c.mix.Frame()
}

func (c *Chip) update(v *pcm.Voice) {
	left := int32(v.Pan&0xF) * int32(v.Level)
	right := int32(v.Pan>>4) * int32(v.Level)

	b := c.ram.Read8(v.Pos >> addrShift & 0xFFFF)
	if b == loopMarker {
		v.Pos = v.LoopStart << addrShift
		b = c.ram.Read8(v.Pos >> addrShift & 0xFFFF)
		if b == loopMarker {
			// The loop start is a marker as well.
			v.Out = [2]int32{}
			return
		}
	}
	v.Pos = (v.Pos + v.Step) & addrMask
	v.Addr = v.Pos >> addrShift & 0xFFFF

	s := pcm.DecodeSignMag8(b)
	v.Push(s)
	v.Out[0] = s * left >> 5
	v.Out[1] = s * right >> 5
}

func (c *Chip) Frame() pcm.Frame { return c.frame }

func (c *Chip) Playing(i int) bool { return c.enabled && c.voices[i].Playing }

func (c *Chip) State() *snapshot.Chip {
	st := c.desc.State(c.clock, c.rate, c.frame)
	st.Regs = []snapshot.Reg{
		{Name: "enable", Value: snapshot.Flag(c.enabled)},
		{Name: "mem_bank", Value: uint32(c.memBank)},
		{Name: "ch_bank", Value: uint32(c.chBank)},
	}
	for i := range c.voices {
		st.Voices = append(st.Voices, c.voices[i].Snapshot(i))
	}
	return st
}
