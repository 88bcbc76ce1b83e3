package upd7759

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pcmemu/hw/hwdefs"
	"pcmemu/hw/pcm"
)

// romWithBlocks returns a ROM holding a single sample (number 0) whose data
// starts at 0x21 with the given blocks.
func romWithBlocks(blocks ...byte) []byte {
	rom := make([]byte, 0x40)
	rom[0] = 0    // last sample number
	rom[5] = 0x00 // offset MSB
	rom[6] = 0x10 // offset LSB: (0x10 << 1) + 1 = 0x21
	copy(rom[0x21:], blocks)
	return rom
}

func newChip(t *testing.T, rom []byte) *Chip {
	t.Helper()
	c := New()
	rate, err := c.Configure(hwdefs.DefaultUPD7759Clock)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 160000 {
		t.Fatalf("rate = %d, want 160000", rate)
	}
	c.LoadROM(uint32(len(rom)), 0, rom)
	return c
}

func play(c *Chip, sample uint8) {
	c.WriteData(sample)
	c.SetStart(true)
	c.SetStart(false)
}

func TestConfigure(t *testing.T) {
	if _, err := New().Configure(3); !errors.Is(err, pcm.ErrConfiguration) {
		t.Errorf("Configure(3) error = %v, want ErrConfiguration", err)
	}
}

func TestRepeatMarker(t *testing.T) {
	// Silence, repeat the next block 2+1 times, silence, end.
	c := newChip(t, romWithBlocks(0x01, 0xC2, 0x02, 0x00))
	play(c, 0)
	if !c.Busy() {
		t.Fatal("not busy after start")
	}

	got := map[uint32]int{}
	var states []State
	for i := 0; c.Busy(); i++ {
		if i > 1000 {
			t.Fatal("sequencer never went idle")
		}
		was := c.state
		c.advance()
		if was == BlockHeader {
			got[c.headerAddr]++
		}
		if was != DropDRQ && len(states) < 9 {
			states = append(states, was)
		}
	}

	want := map[uint32]int{0x21: 1, 0x22: 1, 0x23: 3, 0x24: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("header reads mismatch (-want +got):\n%s", diff)
	}

	wantStates := []State{Start, FirstReq, LastSample, Dummy1, AddrMSB, AddrLSB, Dummy2, BlockHeader, BlockHeader}
	if diff := cmp.Diff(wantStates, states); diff != "" {
		t.Errorf("state sequence mismatch (-want +got):\n%s", diff)
	}
	if err := c.Err(); err != nil {
		t.Errorf("Err() = %v", err)
	}
}

func TestLatencies(t *testing.T) {
	c := newChip(t, romWithBlocks(0x00))
	play(c, 0)

	type step struct {
		State  State
		Clocks int32
	}
	want := []step{
		{FirstReq, 70},
		{DropDRQ, drqClocks}, {LastSample, 44 - drqClocks},
		{DropDRQ, drqClocks}, {Dummy1, 28 - drqClocks},
		{DropDRQ, drqClocks}, {AddrMSB, 32 - drqClocks},
		{DropDRQ, drqClocks}, {AddrLSB, 44 - drqClocks},
		{DropDRQ, drqClocks}, {Dummy2, 36 - drqClocks},
		{DropDRQ, drqClocks}, {BlockHeader, 36 - drqClocks},
	}
	var got []step
	for range want {
		c.advance()
		got = append(got, step{c.state, c.clocksLeft})
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("latencies mismatch (-want +got):\n%s", diff)
	}
}

func TestNibbles(t *testing.T) {
	// 2 nibbles at the fastest rate: codes 9 and 7.
	c := newChip(t, romWithBlocks(0x80, 0x01, 0x97, 0x00))
	play(c, 0)

	seen := map[int32]bool{}
	for i := 0; c.Busy(); i++ {
		if i > 10000 {
			t.Fatal("sequencer never went idle")
		}
		c.Tick()
		seen[c.Frame().L] = true
	}
	if !seen[10<<7] {
		t.Errorf("output never reached %d, got %v", 10<<7, seen)
	}
	c.Tick()
	if got := c.Frame(); got != (pcm.Frame{}) {
		t.Errorf("idle frame = %+v, want silence", got)
	}
	if got := c.voice.Addr; got != 0x25 {
		t.Errorf("offset = %#x, want 0x25", got)
	}
}

func TestSampleOutOfRange(t *testing.T) {
	c := newChip(t, romWithBlocks(0x40))
	play(c, 1)
	for i := 0; c.Busy(); i++ {
		if i > 1000 {
			t.Fatal("sequencer never went idle")
		}
		c.Tick()
	}
	if c.headerAddr != 0 {
		t.Errorf("header read at %#x for an out of range sample", c.headerAddr)
	}
}

func TestLines(t *testing.T) {
	c := newChip(t, romWithBlocks(0x01, 0x00))

	// No start while in reset.
	c.SetReset(false)
	play(c, 0)
	if c.Busy() {
		t.Fatal("started while in reset")
	}

	// Start on the falling edge only.
	c.SetReset(true)
	c.WriteData(0)
	c.SetStart(true)
	if c.Busy() {
		t.Fatal("started on a rising edge")
	}
	c.SetStart(false)
	if !c.Busy() {
		t.Fatal("not started on a falling edge")
	}

	for range 100 {
		c.Tick()
	}
	c.SetReset(false)
	if c.Busy() {
		t.Error("busy after reset")
	}
}

func TestWritePort(t *testing.T) {
	c := newChip(t, romWithBlocks(0x01, 0x00))
	c.WritePort(0x02, 0)
	c.WritePort(0x01, 1)
	c.WritePort(0x01, 0)
	if !c.Busy() {
		t.Fatal("not started through the port interface")
	}
	c.WritePort(0x00, 0)
	if c.Busy() {
		t.Error("not reset through the port interface")
	}
}

func TestProtocolError(t *testing.T) {
	c := newChip(t, romWithBlocks(0x01, 0x00))
	play(c, 0)
	c.state = State(99)
	c.clocksLeft = 0
	c.Tick()

	err := c.Err()
	if !errors.Is(err, pcm.ErrProtocol) {
		t.Fatalf("Err() = %v, want ErrProtocol", err)
	}
	var perr *pcm.ProtocolError
	if !errors.As(err, &perr) || perr.State != "State(99)" {
		t.Errorf("error = %#v", err)
	}
	if c.Busy() {
		t.Error("busy after a protocol error")
	}
	if got := c.State().Err; got == "" {
		t.Error("error missing from the state snapshot")
	}

	// The chip can play again.
	play(c, 0)
	if !c.Busy() {
		t.Error("not restarted after a protocol error")
	}
}

func TestReset(t *testing.T) {
	rom := romWithBlocks(0x01, 0x00)
	c := newChip(t, rom)
	play(c, 0)
	c.Tick()
	c.Reset()
	if c.Busy() {
		t.Error("busy after reset")
	}
	if diff := cmp.Diff(rom, c.rom.Data); diff != "" {
		t.Errorf("rom changed by reset (-want +got):\n%s", diff)
	}
	first := c.State()
	c.Reset()
	if diff := cmp.Diff(first, c.State()); diff != "" {
		t.Errorf("second reset changed state (-first +second):\n%s", diff)
	}
}
