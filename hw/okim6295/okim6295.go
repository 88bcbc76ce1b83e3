// Package okim6295 emulates the OKI MSM6295, a 4 voice ADPCM speech and
// sample chip with a phrase table at the start of its ROM.
package okim6295

import (
	"pcmemu/emu/log"
	"pcmemu/hw/hwdefs"
	"pcmemu/hw/hwio"
	"pcmemu/hw/pcm"
	"pcmemu/hw/snapshot"
)

var modOKI = log.NewModule("okim6295")

const name = "okim6295"

type Config struct {
	// Pin7 selects the high sample rate (clock/132) instead of
	// clock/165.
	Pin7 bool
}

var Default = Config{}

const (
	// Phrase table entries are 8 bytes: 18-bit start and stop addresses.
	phraseSize = 8
	addrMask   = 0x3FFFF

	noPhrase = -1
)

// Attenuation by the low nibble of the start command.
var volumeTable = [16]int32{
	0x20, 0x16, 0x10, 0x0B, 0x08, 0x06, 0x04, 0x03,
	0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

type voice struct {
	pcm.Voice
	volume int32
}

type Chip struct {
	pin7  bool
	clock uint32
	rate  uint32

	rom    hwio.Mem
	voices [hwdefs.OKIM6295Voices]voice
	status hwio.Reg8

	// Phrase selected by the first byte of a start command.
	phrase int

	mix   pcm.Mixer
	frame pcm.Frame
}

func New(cfg Config) *Chip {
	c := &Chip{
		pin7: cfg.Pin7,
		rom:  hwio.Mem{Name: name, Fill: 0xFF},
	}
	c.status = hwio.Reg8{
		Name:   "status",
		Flags:  hwio.ReadOnlyFlag,
		ReadCb: c.readStatus,
	}
	c.Reset()
	return c
}

func (c *Chip) Desc() pcm.Desc {
	d := pcm.Desc{
		Type:     hwdefs.OKIM6295,
		Voices:   hwdefs.OKIM6295Voices,
		Divisor:  hwdefs.OKIM6295Divisor,
		Envelope: pcm.EnvNone,
		Codecs:   []pcm.Codec{pcm.ADPCMA},
	}
	if c.pin7 {
		d.Divisor = hwdefs.OKIM6295DivisorPin7
	}
	return d
}

func (c *Chip) Configure(clock uint32) (uint32, error) {
	rate := c.Desc().Rate(clock)
	if rate == 0 {
		return 0, &pcm.ConfigurationError{Chip: name, Reason: "sample rate can not be 0"}
	}
	c.clock = clock
	c.rate = rate
	modOKI.InfoZ("configured").Uint32("clock", clock).Uint32("rate", rate).Bool("pin7", c.pin7).End()
	return rate, nil
}

// SetPin7 sets the rate select pin. It reports whether the pin changed, in
// which case the chip must be configured again.
func (c *Chip) SetPin7(on bool) bool {
	changed := c.pin7 != on
	c.pin7 = on
	modOKI.DebugZ("pin 7").Bool("on", on).End()
	return changed
}

func (c *Chip) LoadROM(total, offset uint32, data []byte) {
	c.rom.Load(total, offset, data)
}

func (c *Chip) Reset() {
	for i := range c.voices {
		c.voices[i] = voice{Voice: pcm.Voice{Codec: pcm.ADPCMA}}
	}
	c.phrase = noPhrase
	c.mix.Reset()
	c.frame = pcm.Frame{}
}

// WriteCommand writes the command port. A byte with bit 7 set selects a
// phrase; the next byte starts it on the voices of its high nibble, with
// the attenuation of its low nibble. Otherwise bits 3-6 stop voices.
func (c *Chip) WriteCommand(data uint8) {
	if c.phrase != noPhrase {
		mask := hwio.Bits8(data, 4, 4)
		for i := range c.voices {
			if mask>>i&1 != 0 {
				c.start(i, c.phrase, data&0xF)
			}
		}
		c.phrase = noPhrase
		return
	}

	if data&0x80 != 0 {
		c.phrase = int(data & 0x7F)
		return
	}

	mask := hwio.Bits8(data, 3, 4)
	for i := range c.voices {
		if mask>>i&1 != 0 && c.voices[i].Playing {
			c.voices[i].Stop()
			modOKI.DebugZ("stop").Int("voice", i).End()
		}
	}
}

func (c *Chip) read24(addr uint32) uint32 {
	return uint32(c.rom.Read8(addr))<<16 | uint32(c.rom.Read8(addr+1))<<8 | uint32(c.rom.Read8(addr+2))
}

func (c *Chip) start(n, phrase int, atten uint8) {
	v := &c.voices[n]
	if v.Playing {
		return
	}
	base := uint32(phrase) * phraseSize
	start := c.read24(base) & addrMask
	stop := c.read24(base+3) & addrMask
	if start >= stop {
		modOKI.DebugZ("invalid phrase").Int("phrase", phrase).Hex32("start", start).Hex32("stop", stop).End()
		return
	}

	v.Retrigger(start)
	v.Start = start
	v.End = stop
	v.Level = atten
	v.volume = volumeTable[atten]
	modOKI.DebugZ("start").
		Int("voice", n).
		Int("phrase", phrase).
		Hex32("start", start).
		Hex32("stop", stop).
		Uint8("atten", atten).
		End()
}

// WritePort handles a VGM register write: offset 0 is the command port and
// 0x0C the pin 7 line. It reports whether the sample rate changed.
func (c *Chip) WritePort(offset, data uint8) bool {
	switch offset {
	case 0x00:
		c.WriteCommand(data)
	case 0x0C:
		return c.SetPin7(data != 0)
	default:
		modOKI.DebugZ("bank write ignored").Hex8("offset", offset).Hex8("data", data).End()
	}
	return false
}

// Status returns the status byte: bits 0-3 are set for playing voices.
func (c *Chip) Status() uint8 { return c.status.Read8() }

func (c *Chip) readStatus(uint8) uint8 {
	st := uint8(0xF0)
	for i := range c.voices {
		if c.voices[i].Playing {
			st |= 1 << i
		}
	}
	return st
}

func (c *Chip) Tick() {
	c.mix.Reset()
	for i := range c.voices {
		v := &c.voices[i]
		if v.Playing {
			c.update(v)
		}
		c.mix.Add(v.Out)
	}
	c.frame = c.mix.Mono()
}

func (c *Chip) update(v *voice) {
	if v.Addr == v.End {
		v.Stop()
		return
	}
	s := v.ADPCM.DecodeA(v.NextNibble(&c.rom, addrMask))
	v.Push(s)
	out := s * v.volume / 2
	v.Out = [2]int32{out, out}
}

func (c *Chip) Frame() pcm.Frame { return c.frame }

func (c *Chip) Playing(i int) bool { return c.voices[i].Playing }

func (c *Chip) State() *snapshot.Chip {
	st := c.Desc().State(c.clock, c.rate, c.frame)
	st.Regs = []snapshot.Reg{
		{Name: "pin7", Value: snapshot.Flag(c.pin7)},
		{Name: "status", Value: uint32(c.Status())},
	}
	if c.phrase != noPhrase {
		st.Regs = append(st.Regs, snapshot.Reg{Name: "phrase", Value: uint32(c.phrase)})
	}
	for i := range c.voices {
		st.Voices = append(st.Voices, c.voices[i].Snapshot(i))
	}
	return st
}
