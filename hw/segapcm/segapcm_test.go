package segapcm

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pcmemu/hw/hwdefs"
	"pcmemu/hw/pcm"
)

func newChip(t *testing.T, rom []byte) *Chip {
	t.Helper()
	c := New()
	rate, err := c.Configure(hwdefs.DefaultSegaPCMClock)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 31250 {
		t.Fatalf("rate = %d, want 31250", rate)
	}
	c.LoadROM(uint32(len(rom)), 0, rom)
	return c
}

// chanRegs are the registers of a channel. loop and addr are bits 8-23 of
// the sample addresses.
type chanRegs struct {
	volL, volR uint8
	loop       uint16
	end        uint8
	delta      uint8
	addr       uint16
	flags      uint8
}

func (r chanRegs) write(c *Chip, ch int) {
	base := uint16(ch * 8)
	c.WriteRAM(base+regVolL, r.volL)
	c.WriteRAM(base+regVolR, r.volR)
	c.WriteRAM(base+regLoopLSB, uint8(r.loop))
	c.WriteRAM(base+regLoopMSB, uint8(r.loop>>8))
	c.WriteRAM(base+regEnd, r.end)
	c.WriteRAM(base+regDelta, r.delta)
	c.WriteRAM(base+regAddrLSB, uint8(r.addr))
	c.WriteRAM(base+regAddrMSB, uint8(r.addr>>8))
	c.WriteRAM(base+regFlags, r.flags)
}

func TestConfigure(t *testing.T) {
	if _, err := New().Configure(127); !errors.Is(err, pcm.ErrConfiguration) {
		t.Errorf("Configure(127) error = %v, want ErrConfiguration", err)
	}
}

func TestResetDisablesAll(t *testing.T) {
	c := newChip(t, []byte{0xFF, 0xFF})
	for ch := range hwdefs.SegaPCMVoices {
		if c.Playing(ch) {
			t.Errorf("channel %d enabled after reset", ch)
		}
	}
	c.Tick()
	if got := c.Frame(); got != (pcm.Frame{}) {
		t.Errorf("frame = %+v, want silence", got)
	}
}

func TestPlayback(t *testing.T) {
	c := newChip(t, []byte{0x90, 0x70, 0xC0, 0x80})
	chanRegs{volL: 0x7F, volR: 0x40, end: 0x00, delta: 0x80}.write(c, 3)

	want := []pcm.Frame{
		{L: 16 * 127, R: 16 * 64},
		{L: 16 * 127, R: 16 * 64},
		{L: -16 * 127, R: -16 * 64},
		{L: -16 * 127, R: -16 * 64},
		{L: 64 * 127, R: 64 * 64},
		{L: 64 * 127, R: 64 * 64},
		{L: 0, R: 0},
	}
	var got []pcm.Frame
	for range want {
		c.Tick()
		got = append(got, c.Frame())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}

	// The address is written back to register RAM.
	if got := c.ReadRAM(3*8 + regAddrLSB); got != 3 {
		t.Errorf("address LSB = %d, want 3", got)
	}
}

func TestEnd(t *testing.T) {
	rom := make([]byte, 0x10000)
	rom[0x1000] = 0xA0
	tests := []struct {
		name     string
		flags    uint8
		playing  bool
		wantAddr uint8 // address MSB after the end is reached
		wantOut  int32
	}{
		{"no loop", flagNoLoop, false, 0x01, 0},
		{"loop", 0, true, 0x10, 0x20 * 0x7F},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChip(t, rom)
			chanRegs{volL: 0x7F, volR: 0x7F, loop: 0x1000, end: 0x00, delta: 0xFF, addr: 0x00FF, flags: tt.flags}.write(c, 0)

			// 0xFF00 -> 0xFFFF -> 0x100FE, which hits the end page.
			for range 3 {
				c.Tick()
			}
			if got := c.Playing(0); got != tt.playing {
				t.Errorf("playing = %t, want %t", got, tt.playing)
			}
			if got := c.ReadRAM(regFlags)&flagDisable != 0; got == tt.playing {
				t.Errorf("disable bit = %t with playing %t", got, tt.playing)
			}
			if got := c.ReadRAM(regAddrMSB); got != tt.wantAddr {
				t.Errorf("address MSB = %#x, want %#x", got, tt.wantAddr)
			}
			if got := c.Frame().L; got != tt.wantOut {
				t.Errorf("output = %d, want %d", got, tt.wantOut)
			}
		})
	}
}

func TestBank(t *testing.T) {
	tests := []struct {
		name  string
		bank  uint32
		flags uint8
		addr  uint32
	}{
		{"default", defaultBankShift, 0x20, 0x20000},
		{"extended mask", 0x0004000B, 0x24, 0x12000},
		{"mask drops flag bits", 0x0000000B, 0x24, 0x10000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			if _, err := c.Configure(hwdefs.DefaultSegaPCMClock); err != nil {
				t.Fatal(err)
			}
			c.LoadROM(0x30000, tt.addr, []byte{0xC0})
			c.SetBank(tt.bank)
			chanRegs{volL: 1, volR: 1, end: 0x10, flags: tt.flags}.write(c, 0)
			c.Tick()
			if got := c.Frame().L; got != 0x40 {
				t.Errorf("output = %d, want 64", got)
			}
			if got := c.voices[0].Addr; got != tt.addr {
				t.Errorf("sample address = %#x, want %#x", got, tt.addr)
			}
		})
	}
}

func TestOpenBus(t *testing.T) {
	c := newChip(t, []byte{0xFF})
	chanRegs{volL: 0x7F, volR: 0x7F, end: 0x10, addr: 0x0100}.write(c, 0)
	c.Tick()
	if got := c.Frame(); got != (pcm.Frame{}) {
		t.Errorf("frame past the ROM = %+v, want silence", got)
	}
}

func TestRAMMirror(t *testing.T) {
	c := New()
	c.WriteRAM(0x0802, 0x12)
	if got := c.ReadRAM(0x0002); got != 0x12 {
		t.Errorf("ReadRAM(2) = %#x, want 0x12", got)
	}
	if got := c.ReadRAM(0x7FF); got != 0xFF {
		t.Errorf("ReadRAM(0x7ff) = %#x, want 0xff", got)
	}
}

func TestSaturation(t *testing.T) {
	c := newChip(t, []byte{0xFF, 0xFF})
	for ch := range 4 {
		chanRegs{volL: 0x7F, volR: 0x7F, end: 0x10}.write(c, ch)
	}
	c.Tick()
	if got := c.Frame(); got != (pcm.Frame{L: 32767, R: 32767}) {
		t.Errorf("frame = %+v, want saturated", got)
	}
}

func TestReset(t *testing.T) {
	rom := []byte{0x90, 0x70}
	c := newChip(t, rom)
	c.SetBank(0x0004000B)
	chanRegs{volL: 0x7F, volR: 0x7F, end: 0x10}.write(c, 0)
	c.Tick()

	c.Reset()
	if c.Playing(0) {
		t.Error("channel playing after reset")
	}
	if diff := cmp.Diff(rom, c.rom.Data); diff != "" {
		t.Errorf("rom changed by reset (-want +got):\n%s", diff)
	}
	first := c.State()
	c.Reset()
	if diff := cmp.Diff(first, c.State()); diff != "" {
		t.Errorf("second reset changed state (-first +second):\n%s", diff)
	}
	if c.bankShift != 11 {
		t.Errorf("bank shift = %d, want 11 kept across reset", c.bankShift)
	}
}
