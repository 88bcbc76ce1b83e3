// Package ymz280b emulates the Yamaha YMZ280B (PCMD8), an 8 voice ADPCM and
// PCM playback chip.
package ymz280b

import (
	"pcmemu/emu/log"
	"pcmemu/hw/hwdefs"
	"pcmemu/hw/hwio"
	"pcmemu/hw/pcm"
	"pcmemu/hw/snapshot"
)

var modYMZ = log.NewModule("ymz280b")

const name = "ymz280b"

type Config struct {
	// LoopRestore restores the ADPCM predictor saved at the loop start
	// each time a voice wraps.
	LoopRestore bool
}

var Default = Config{LoopRestore: true}

var desc = pcm.Desc{
	Type:     hwdefs.YMZ280B,
	Voices:   hwdefs.YMZ280BVoices,
	Divisor:  hwdefs.YMZ280BDivisor,
	Stereo:   true,
	Envelope: pcm.EnvNone,
	Codecs:   []pcm.Codec{pcm.ADPCMB, pcm.LinearPCM8, pcm.LinearPCM16},
}

// Sample memory is addressed with 24 bits.
const addrMask = 0xFFFFFF

// The position accumulator has 9 fractional bits.
const (
	posBits = 9
	posOne  = 1 << posBits
)

type voice struct {
	pcm.Voice

	freq  uint16 // 9-bit frequency number
	mode  uint8
	gainL int32
	gainR int32
}

func (v *voice) updateStep() {
	fn := v.freq & 0x1FF
	if v.mode == 1 {
		fn &= 0xFF
	}
	v.Step = uint32(fn) + 1
}

func (v *voice) updateVolumes() {
	level := int32(v.Level)
	pan := int32(v.Pan)
	switch {
	case pan == 8:
		v.gainL, v.gainR = level, level
	case pan < 8:
		v.gainL = level
		v.gainR = 0
		if pan != 0 {
			v.gainR = level * (pan - 1) / 7
		}
	default:
		v.gainL = level * (15 - pan) / 7
		v.gainR = level
	}
}

func codec(mode uint8) pcm.Codec {
	switch mode {
	case 1:
		return pcm.ADPCMB
	case 2:
		return pcm.LinearPCM8
	case 3:
		return pcm.LinearPCM16
	}
	return pcm.NoCodec
}

type Chip struct {
	cfg   Config
	clock uint32
	rate  uint32

	rom    hwio.Mem
	voices [hwdefs.YMZ280BVoices]voice

	addr     uint8
	masterOn bool

	mix   pcm.Mixer
	frame pcm.Frame
}

func New(cfg Config) *Chip {
	c := &Chip{
		cfg: cfg,
		rom: hwio.Mem{Name: name, Fill: 0xFF},
		mix: pcm.Mixer{Saturate: true},
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
	modYMZ.InfoZ("configured").Uint32("clock", clock).Uint32("rate", rate).End()
	return rate, nil
}

func (c *Chip) LoadROM(total, offset uint32, data []byte) {
	c.rom.Load(total, offset, data)
}

func (c *Chip) Reset() {
	for i := range c.voices {
		c.voices[i] = voice{}
		c.voices[i].updateStep()
	}
	c.addr = 0
	c.masterOn = false
	c.mix.Reset()
	c.frame = pcm.Frame{}
}

// WritePort writes the address latch (even ports) or the register it
// selects (odd ports).
func (c *Chip) WritePort(port, data uint8) {
	if port&1 == 0 {
		c.addr = data
		return
	}
	c.WriteReg(c.addr, data)
}

func (c *Chip) WriteReg(reg, data uint8) {
	if reg >= 0x80 {
		c.writeGlobal(reg, data)
		return
	}

	n := int(reg >> 2 & 7)
	v := &c.voices[n]

	switch reg & 0xE3 {
	case 0x00:
		v.freq = v.freq&0x100 | uint16(data)
		v.updateStep()
	case 0x01:
		v.freq = v.freq&0xFF | uint16(data&1)<<8
		v.Loop = data&0x10 != 0
		v.mode = data >> 5 & 3
		v.Codec = codec(v.mode)

		keyon := v.mode != 0 && data&0x80 != 0
		switch {
		case !v.KeyOn && keyon:
			// Without the master key the voice is armed and starts when the
			// master key is set.
			c.keyOn(n)
			v.Playing = c.masterOn
		case v.KeyOn && !keyon:
			c.keyOff(n)
		}
		v.KeyOn = keyon
		v.updateStep()
	case 0x02:
		v.Level = data
		v.updateVolumes()
	case 0x03:
		v.Pan = data & 0xF
		v.updateVolumes()

	case 0x20:
		hwio.SetByte(&v.Start, 2, data)
	case 0x21:
		hwio.SetByte(&v.LoopStart, 2, data)
	case 0x22:
		hwio.SetByte(&v.LoopEnd, 2, data)
	case 0x23:
		hwio.SetByte(&v.End, 2, data)
	case 0x40:
		hwio.SetByte(&v.Start, 1, data)
	case 0x41:
		hwio.SetByte(&v.LoopStart, 1, data)
	case 0x42:
		hwio.SetByte(&v.LoopEnd, 1, data)
	case 0x43:
		hwio.SetByte(&v.End, 1, data)
	case 0x60:
		hwio.SetByte(&v.Start, 0, data)
	case 0x61:
		hwio.SetByte(&v.LoopStart, 0, data)
	case 0x62:
		hwio.SetByte(&v.LoopEnd, 0, data)
	case 0x63:
		hwio.SetByte(&v.End, 0, data)

	default:
		if data != 0 {
			modYMZ.WarnZ("unknown register write").Hex8("reg", reg).Hex8("data", data).End()
		}
	}
}

func (c *Chip) writeGlobal(reg, data uint8) {
	switch reg {
	case 0x80, 0x81, 0x82:
		modYMZ.DebugZ("DSP write ignored").Hex8("reg", reg).Hex8("data", data).End()
	case 0x84, 0x85, 0x86, 0x87:
		modYMZ.DebugZ("memory readback write ignored").Hex8("reg", reg).Hex8("data", data).End()
	case 0xFE:
		modYMZ.DebugZ("IRQ mask write ignored").Hex8("data", data).End()
	case 0xFF:
		on := data&0x80 != 0
		switch {
		case c.masterOn && !on:
			for i := range c.voices {
				c.voices[i].Stop()
			}
		case !c.masterOn && on:
			for i := range c.voices {
				if c.voices[i].KeyOn {
					c.voices[i].Playing = true
				}
			}
		}
		c.masterOn = on
		modYMZ.DebugZ("master key").Bool("on", on).End()
	default:
		if data != 0 {
			modYMZ.WarnZ("unknown register write").Hex8("reg", reg).Hex8("data", data).End()
		}
	}
}

func (c *Chip) keyOn(n int) {
	v := &c.voices[n]
	v.Retrigger(v.Start)
	v.ADPCM.ResetB()
	modYMZ.DebugZ("key on").
		Int("voice", n).
		Stringer("codec", v.Codec).
		Hex32("start", v.Start).
		Hex32("end", v.End).
		Bool("loop", v.Loop).
		End()
}

func (c *Chip) keyOff(n int) {
	c.voices[n].Stop()
	modYMZ.DebugZ("key off").Int("voice", n).End()
}

func (c *Chip) Tick() {
	c.mix.Reset()
	for i := range c.voices {
		v := &c.voices[i]
		if v.Playing {
			pos := v.Pos + v.Step
			v.Pos = pos & (posOne - 1)
			if pos >= posOne {
				c.generate(v)
			}
			if v.Playing {
				s := pcm.Interpolate(v.Prev, v.Cur, v.Pos, posBits)
				v.Out[0] = s * v.gainL >> posBits
				v.Out[1] = s * v.gainR >> posBits
			}
		}
		c.mix.Add(v.Out)
	}
	c.frame = c.mix.Frame()
}

func (c *Chip) Frame() pcm.Frame { return c.frame }

func (c *Chip) Playing(i int) bool { return c.voices[i].Playing }

// generate decodes the next sample of v.
func (c *Chip) generate(v *voice) {
	if v.Loop {
		if v.Codec == pcm.ADPCMB && v.Addr == v.LoopStart && !v.LoopSaved && c.cfg.LoopRestore {
			v.LoopADPCM = v.ADPCM
		}
		if v.Addr == v.LoopEnd && v.KeyOn {
			v.Addr = v.LoopStart
			v.LowPending = false
			if v.Codec == pcm.ADPCMB {
				if c.cfg.LoopRestore {
					v.ADPCM = v.LoopADPCM
				}
				v.LoopSaved = true
			}
		}
	}

	if v.Addr == v.End {
		v.Stop()
		return
	}

	var s int32
	switch v.Codec {
	case pcm.ADPCMB:
		s = v.ADPCM.DecodeB(v.NextNibble(&c.rom, addrMask))
	case pcm.LinearPCM8:
		s = pcm.DecodePCM8(c.rom.Read8(v.Addr))
		v.Addr = (v.Addr + 1) & addrMask
	case pcm.LinearPCM16:
		s = int32(int16(c.rom.Read16LE(v.Addr)))
		v.Addr = (v.Addr + 2) & addrMask
	}
	v.Push(s)
}

func (c *Chip) State() *snapshot.Chip {
	st := desc.State(c.clock, c.rate, c.frame)
	st.Regs = []snapshot.Reg{
		{Name: "addr", Value: uint32(c.addr)},
		{Name: "key_on", Value: snapshot.Flag(c.masterOn)},
	}
	for i := range c.voices {
		st.Voices = append(st.Voices, c.voices[i].Snapshot(i))
	}
	return st
}
