// Package upd7759 emulates the NEC uPD7759 ADPCM speech synthesizer in
// standalone mode, where it reads a sample table and block structured
// ADPCM data from its own ROM.
package upd7759

import (
	"pcmemu/emu/log"
	"pcmemu/hw/hwdefs"
	"pcmemu/hw/hwio"
	"pcmemu/hw/pcm"
	"pcmemu/hw/snapshot"
)

var modUPD = log.NewModule("upd7759")

const name = "upd7759"

var desc = pcm.Desc{
	Type:     hwdefs.UPD7759,
	Voices:   hwdefs.UPD7759Voices,
	Divisor:  hwdefs.UPD7759Divisor,
	Envelope: pcm.EnvNone,
	Codecs:   []pcm.Codec{pcm.BlockADPCM},
}

//go:generate go tool stringer -type=State

// State is a state of the ROM reading sequencer.
type State uint8

const (
	Idle State = iota
	DropDRQ
	Start
	FirstReq
	LastSample
	Dummy1
	AddrMSB
	AddrLSB
	Dummy2
	BlockHeader
	NibbleCount
	NibbleMSN
	NibbleLSN
)

const (
	// Master clocks per output sample, and the position fraction bits.
	clocksPerTick = hwdefs.UPD7759Divisor
	posShift      = 20

	// Clocks between a ROM read and the drop of the DRQ line.
	drqClocks = 21
)

type Chip struct {
	clock uint32
	rate  uint32

	rom hwio.Mem

	// The ADPCM voice. Addr is the ROM offset, LoopStart the repeat
	// offset and Step the sample rate divider of the current block.
	voice pcm.Voice

	data      hwio.Reg8
	resetLine bool
	startLine bool

	state      State
	drq        bool
	drqState   State
	drqClocks  int32
	clocksLeft int32
	pos        uint32

	requested   uint8
	last        uint8
	header      uint8
	headerAddr  uint32
	validHeader bool
	repeatCount int32
	nibblesLeft int32
	nibbles     uint8

	err   error
	frame pcm.Frame
}

func New() *Chip {
	c := &Chip{
		rom:  hwio.Mem{Name: name, Fill: 0xFF},
		data: hwio.Reg8{Name: "data", Flags: hwio.WriteOnlyFlag},
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
	modUPD.InfoZ("configured").Uint32("clock", clock).Uint32("rate", rate).End()
	return rate, nil
}

func (c *Chip) LoadROM(total, offset uint32, data []byte) {
	c.rom.Load(total, offset, data)
}

// Reset puts the sequencer back to Idle, with the reset and start lines
// high.
func (c *Chip) Reset() {
	c.resetLine = true
	c.startLine = true
	c.err = nil
	c.reset()
}

func (c *Chip) reset() {
	c.state = Idle
	c.drq = false
	c.drqState = Idle
	c.drqClocks = 0
	c.clocksLeft = 0
	c.pos = 0
	c.requested = 0
	c.last = 0
	c.header = 0
	c.headerAddr = 0
	c.validHeader = false
	c.repeatCount = 0
	c.nibblesLeft = 0
	c.nibbles = 0
	c.voice = pcm.Voice{Codec: pcm.BlockADPCM}
	c.frame = pcm.Frame{}
}

// SetReset drives the reset line. The chip resets on a falling edge.
func (c *Chip) SetReset(line bool) {
	prev := c.resetLine
	c.resetLine = line
	if prev && !line {
		modUPD.DebugZ("reset").End()
		c.reset()
	}
}

// SetStart drives the start line. A falling edge while idle, and out of
// reset, plays the sample selected by the data port.
func (c *Chip) SetStart(line bool) {
	prev := c.startLine
	c.startLine = line
	if c.state == Idle && prev && !line && c.resetLine {
		c.state = Start
		c.voice.Playing = true
		modUPD.DebugZ("start").Uint8("sample", c.data.Peek()).End()
	}
}

// WriteData latches the sample number.
func (c *Chip) WriteData(data uint8) { c.data.Write8(data) }

// WritePort handles a VGM register write: 0 is the reset line, 1 the start
// line and 2 the data port. Port 3 selects a ROM bank in slave mode, which
// is not emulated.
func (c *Chip) WritePort(port, data uint8) {
	switch port {
	case 0x00:
		c.SetReset(data != 0)
	case 0x01:
		c.SetStart(data != 0)
	case 0x02:
		c.WriteData(data)
	default:
		modUPD.DebugZ("bank write ignored").Hex8("port", port).Hex8("data", data).End()
	}
}

// Busy reports whether the sequencer is playing.
func (c *Chip) Busy() bool { return c.state != Idle }

// Err returns the last sequencing error, if any.
func (c *Chip) Err() error { return c.err }

func (c *Chip) Tick() {
	if c.state == Idle {
		c.frame = pcm.Frame{}
		return
	}
	c.output()

	cur := c.pos + clocksPerTick<<posShift
	n := min(int32(cur>>posShift), c.clocksLeft)
	c.pos = cur - uint32(n<<posShift)
	c.clocksLeft -= n
	if c.clocksLeft == 0 {
		c.advance()
		if c.state != Idle {
			c.output()
		}
	}
}

func (c *Chip) output() {
	s := c.voice.ADPCM.Signal << 7
	c.voice.Out = [2]int32{s, s}
	c.frame = pcm.Frame{L: s, R: s}
}

// advance runs the current state, once its clocks have elapsed.
func (c *Chip) advance() {
	switch c.state {
	case DropDRQ:
		c.drq = false
		c.clocksLeft = c.drqClocks
		c.state = c.drqState

	case Start:
		c.requested = c.data.Peek()
		c.clocksLeft = 70
		c.state = FirstReq

	case FirstReq:
		c.drq = true
		c.clocksLeft = 44
		c.state = LastSample

	case LastSample:
		c.last = c.rom.Read8(0)
		c.drq = true
		c.clocksLeft = 28
		c.state = Dummy1
		if c.requested > c.last {
			modUPD.DebugZ("sample out of range").Uint8("sample", c.requested).Uint8("last", c.last).End()
			c.state = Idle
		}

	case Dummy1:
		c.drq = true
		c.clocksLeft = 32
		c.state = AddrMSB

	case AddrMSB:
		c.voice.Addr = uint32(c.rom.Read8(uint32(c.requested)*2+5)) << 9
		c.drq = true
		c.clocksLeft = 44
		c.state = AddrLSB

	case AddrLSB:
		c.voice.Addr |= uint32(c.rom.Read8(uint32(c.requested)*2+6)) << 1
		c.drq = true
		c.clocksLeft = 36
		c.state = Dummy2

	case Dummy2:
		c.voice.Addr++
		c.voice.Start = c.voice.Addr
		c.validHeader = false
		c.drq = true
		c.clocksLeft = 36
		c.state = BlockHeader

	case BlockHeader:
		c.blockHeader()

	case NibbleCount:
		c.nibblesLeft = int32(c.rom.Read8(c.voice.Addr)) + 1
		c.voice.Addr++
		c.drq = true
		c.clocksLeft = 36
		c.state = NibbleMSN

	case NibbleMSN:
		c.nibbles = c.rom.Read8(c.voice.Addr)
		c.voice.Addr++
		c.voice.Push(c.voice.ADPCM.DecodeC(c.nibbles >> 4))
		c.drq = true
		c.nextNibble(NibbleLSN)

	case NibbleLSN:
		c.voice.Push(c.voice.ADPCM.DecodeC(c.nibbles & 0xF))
		c.nextNibble(NibbleMSN)

	default:
		c.fail()
		return
	}

	if c.drq {
		c.drqState = c.state
		c.drqClocks = c.clocksLeft - drqClocks
		c.state = DropDRQ
		c.clocksLeft = drqClocks
	}
	c.voice.Playing = c.state != Idle
}

func (c *Chip) nextNibble(next State) {
	c.clocksLeft = int32(c.voice.Step) * 4
	c.nibblesLeft--
	if c.nibblesLeft == 0 {
		c.state = BlockHeader
	} else {
		c.state = next
	}
}

func (c *Chip) blockHeader() {
	if c.repeatCount > 0 {
		c.repeatCount--
		c.voice.Addr = c.voice.LoopStart
	}
	c.headerAddr = c.voice.Addr
	c.header = c.rom.Read8(c.voice.Addr)
	c.voice.Addr++
	c.drq = true

	h := c.header
	switch h & 0xC0 {
	case 0x00:
		// Silence.
		c.clocksLeft = 1024 * (int32(h&0x3F) + 1)
		c.state = BlockHeader
		if h == 0 && c.validHeader {
			c.state = Idle
		}
		c.voice.ADPCM = pcm.ADPCM{}
	case 0x40:
		// 256 nibbles.
		c.voice.Step = uint32(h&0x3F) + 1
		c.nibblesLeft = 256
		c.clocksLeft = 36
		c.state = NibbleMSN
	case 0x80:
		// n nibbles.
		c.voice.Step = uint32(h&0x3F) + 1
		c.clocksLeft = 36
		c.state = NibbleCount
	case 0xC0:
		// Repeat the next block.
		c.repeatCount = int32(h&7) + 1
		c.voice.LoopStart = c.voice.Addr
		c.clocksLeft = 36
		c.state = BlockHeader
	}
	if h != 0 {
		c.validHeader = true
	}
	modUPD.DebugZ("block header").Hex8("header", h).Hex32("addr", c.headerAddr).Stringer("next", c.state).End()
}

// fail stops the sequencer on a state it does not know.
func (c *Chip) fail() {
	c.err = &pcm.ProtocolError{Chip: name, State: c.state.String(), Header: c.header}
	modUPD.ErrorZ("sequencer stopped").Error("err", c.err).End()
	c.state = Idle
	c.drq = false
	c.voice.Stop()
	c.frame = pcm.Frame{}
}

func (c *Chip) Frame() pcm.Frame { return c.frame }

func (c *Chip) State() *snapshot.Chip {
	st := desc.State(c.clock, c.rate, c.frame)
	st.Regs = []snapshot.Reg{
		{Name: "state", Value: uint32(c.state)},
		{Name: "drq", Value: snapshot.Flag(c.drq)},
		{Name: "reset", Value: snapshot.Flag(c.resetLine)},
		{Name: "start", Value: snapshot.Flag(c.startLine)},
		{Name: "sample", Value: uint32(c.requested)},
		{Name: "header", Value: uint32(c.header)},
		{Name: "header_addr", Value: c.headerAddr},
		{Name: "repeat", Value: uint32(c.repeatCount)},
	}
	st.Voices = append(st.Voices, c.voice.Snapshot(0))
	if c.err != nil {
		st.Err = c.err.Error()
	}
	return st
}
