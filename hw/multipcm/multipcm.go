// Package multipcm emulates the Sega MultiPCM (315-5560), a 28 voice PCM
// chip with 8 and 12-bit samples, pitch, total level ramps and ADSR
// envelopes.
package multipcm

import (
	"pcmemu/emu/log"
	"pcmemu/hw/hwdefs"
	"pcmemu/hw/hwio"
	"pcmemu/hw/pcm"
	"pcmemu/hw/snapshot"
)

var modMultiPCM = log.NewModule("multipcm")

const name = "multipcm"

type Config struct {
	PanLaw pcm.PanLaw
}

// Default is the reference configuration: pan is ignored.
var Default = Config{PanLaw: pcm.PanFlat}

var desc = pcm.Desc{
	Type:     hwdefs.MultiPCM,
	Voices:   hwdefs.MultiPCMVoices,
	Divisor:  hwdefs.MultiPCMDivisor,
	Stereo:   true,
	Envelope: pcm.EnvADSR,
	Codecs:   []pcm.Codec{pcm.LinearPCM8, pcm.PackedPCM12},
}

// Slot selector values map to voices with every 8th value unused.
var slotMap = [32]int{
	0, 1, 2, 3, 4, 5, 6, -1,
	7, 8, 9, 10, 11, 12, 13, -1,
	14, 15, 16, 17, 18, 19, 20, -1,
	21, 22, 23, 24, 25, 26, 27, -1,
}

// Start addresses at or above bankThreshold are relocated into the current
// bank at key-on.
const bankThreshold = 0x100000

type Chip struct {
	cfg    Config
	clock  uint32
	tables *pcm.Tables

	rom   hwio.Mem
	slots [hwdefs.MultiPCMVoices]slot

	// Port interface state: selected slot (-1 for none) and register.
	curSlot int
	curReg  uint8

	bankLeft  uint32
	bankRight uint32

	mix   pcm.Mixer
	frame pcm.Frame
}

func New(cfg Config) *Chip {
	c := &Chip{
		cfg: cfg,
		rom: hwio.Mem{Name: name, Fill: 0xFF},
	}
	c.Reset()
	return c
}

func (c *Chip) Desc() pcm.Desc { return desc }

func (c *Chip) Configure(clock uint32) (uint32, error) {
	rate := desc.Rate(clock)
	tables, err := pcm.NewTables(name, rate, c.cfg.PanLaw, true)
	if err != nil {
		return 0, err
	}
	c.clock = clock
	c.tables = tables

	// Pitches depend on the rate.
	for i := range c.slots {
		c.slots[i].updateStep(c.tables)
	}
	modMultiPCM.InfoZ("configured").Uint32("clock", clock).Uint32("rate", rate).End()
	return rate, nil
}

func (c *Chip) LoadROM(total, offset uint32, data []byte) {
	c.rom.Load(total, offset, data)
}

func (c *Chip) Reset() {
	for i := range c.slots {
		c.slots[i] = slot{num: i}
	}
	c.curSlot = 0
	c.curReg = 0
	c.bankLeft = 0
	c.bankRight = 0
	c.mix.Reset()
	c.frame = pcm.Frame{}
}

// WritePort writes to the chip's external interface: port 1 selects a
// slot, port 2 a register, and port 0 writes data to the selected slot
// register.
func (c *Chip) WritePort(port, data uint8) error {
	switch port & 3 {
	case 0:
		return c.WriteSlot(c.curSlot, c.curReg, data)
	case 1:
		c.curSlot = slotMap[data&0x1F]
	case 2:
		c.curReg = min(data, 7)
	}
	return nil
}

// WriteBank handles a bank write in the VGM encoding: offset 3 with bit 3
// of data clear selects a 1MB bank for both sides, otherwise bits 0 and 1
// of offset select the 512KB left and right banks.
func (c *Chip) WriteBank(offset uint8, data uint16) {
	if offset == 3 && data&8 == 0 {
		c.SetBank1M(uint32(data >> 4))
		return
	}
	bank := uint32(data >> 3)
	if offset&2 != 0 {
		c.SetBank512K(bank, true)
	}
	if offset&1 != 0 {
		c.SetBank512K(bank, false)
	}
}

func (c *Chip) SetBank1M(bank uint32) {
	c.bankLeft = bank << 20
	c.bankRight = bank << 20
	modMultiPCM.DebugZ("bank 1M").Hex32("bank", c.bankLeft).End()
}

// SetBank512K sets the bank of voices panned right (low) or left.
func (c *Chip) SetBank512K(bank uint32, low bool) {
	if low {
		c.bankRight = bank << 19
	} else {
		c.bankLeft = bank << 19
	}
	modMultiPCM.DebugZ("bank 512K").Hex32("left", c.bankLeft).Hex32("right", c.bankRight).End()
}

func (c *Chip) Tick() {
	c.mix.Reset()
	for i := range c.slots {
		s := &c.slots[i]
		if s.Playing {
			c.update(s)
		}
		c.mix.Add(s.Out)
	}
	c.frame = c.mix.Frame()
}

func (c *Chip) Frame() pcm.Frame { return c.frame }

// Playing reports whether voice i is active.
func (c *Chip) Playing(i int) bool { return c.slots[i].Playing }

func (c *Chip) update(s *slot) {
	spos := s.Pos >> pcm.TLShift
	frac := s.Pos & (1<<pcm.TLShift - 1)

	var cur int32
	if s.Codec == pcm.PackedPCM12 {
		cur = pcm.DecodePacked12(&c.rom, s.Base, spos)
	} else {
		cur = pcm.DecodePCM8(c.rom.Read8(s.Base + spos))
	}
	s.Cur = cur

	sample := cur
	if s.Step&(1<<pcm.TLShift-1) != 0 {
		sample = pcm.Interpolate(s.Prev, cur, frac, pcm.TLShift)
	}

	s.Pos += s.Step
	if s.Pos >= s.End<<pcm.TLShift {
		s.Pos = s.LoopStart << pcm.TLShift
	}
	if spos != s.Pos>>pcm.TLShift {
		s.Prev = cur
	}

	vol := pcm.PanIndex(uint8(s.Ramp.Value()), s.Pan)
	s.Ramp.Update()

	gain := s.Env.Update(c.tables)
	if s.Env.State == pcm.Idle {
		modMultiPCM.DebugZ("released").Int("slot", s.num).End()
		s.Stop()
		return
	}
	sample = sample * gain >> 10

	s.Out[0] = c.tables.Pan[0][vol] * sample >> pcm.TLShift
	s.Out[1] = c.tables.Pan[1][vol] * sample >> pcm.TLShift
}

func (c *Chip) State() *snapshot.Chip {
	var rate uint32
	if c.tables != nil {
		rate = c.tables.Rate
	}
	st := desc.State(c.clock, rate, c.frame)
	st.Regs = []snapshot.Reg{
		{Name: "slot", Value: uint32(c.curSlot)},
		{Name: "reg", Value: uint32(c.curReg)},
		{Name: "bank_left", Value: c.bankLeft},
		{Name: "bank_right", Value: c.bankRight},
	}
	for i := range c.slots {
		s := &c.slots[i]
		v := s.Snapshot(i)
		s.SnapshotEnv(&v)
		st.Voices = append(st.Voices, v)
	}
	return st
}
