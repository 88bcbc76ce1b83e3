package rf5c68

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pcmemu/hw/pcm"
)

var update = flag.Bool("update", false, "print new golden hashes and return")

func hashFrames(frames []pcm.Frame) string {
	b := make([]byte, len(frames)*4)
	for i, f := range frames {
		binary.LittleEndian.PutUint16(b[i*4:], uint16(int16(f.L)))
		binary.LittleEndian.PutUint16(b[i*4+2:], uint16(int16(f.R)))
	}
	return fmt.Sprintf("%x", sha256.Sum256(b))
}

func TestConfigure(t *testing.T) {
	c := New(Default)
	rate, err := c.Configure(4000000)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 10416 {
		t.Errorf("rate = %d, want 10416", rate)
	}
	if _, err := c.Configure(383); !errors.Is(err, pcm.ErrConfiguration) {
		t.Errorf("Configure(383) error = %v, want ErrConfiguration", err)
	}
}

func TestParseVariant(t *testing.T) {
	for _, v := range []Variant{RF5C68, RF5C164} {
		got, err := ParseVariant(v.String())
		if err != nil || got != v {
			t.Errorf("ParseVariant(%q) = %v, %v", v.String(), got, err)
		}
	}
	if _, err := ParseVariant("rf5c105"); err == nil {
		t.Error("ParseVariant(rf5c105) should fail")
	}
}

// program sets up two looping channels: channel 0 at full volume and unit
// step, channel 1 at half volume, off-center and 0.75 step, looping on a
// point after its start.
func program(t *testing.T, c *Chip) {
	t.Helper()
	if _, err := c.Configure(4000000); err != nil {
		t.Fatal(err)
	}

	// Channel 0 payload through the memory window of bank 1.
	c.WriteReg(0x07, 0x01)
	for i, b := range []byte{0x90, 0x10, 0xC0, 0x40, loopMarker} {
		c.WriteMem(uint16(i), b)
	}
	// Channel 1 payload as a block in bank 2.
	c.WriteReg(0x07, 0x02)
	c.LoadRAM(0, []byte{0x85, 0xA0, 0x7F, 0x01, 0x20, loopMarker})

	regs := [2][]uint8{
		{0xFF, 0xFF, 0x00, 0x08, 0x00, 0x10, 0x10},
		{0x80, 0x3C, 0x00, 0x06, 0x02, 0x20, 0x20},
	}
	for ch, vals := range regs {
		c.WriteReg(0x07, 0xC0|uint8(ch))
		for reg, val := range vals {
			c.WriteReg(uint8(reg), val)
		}
	}
	c.WriteReg(0x08, 0xFC)
}

func TestGolden(t *testing.T) {
	tests := []struct {
		variant Variant
		first   []pcm.Frame
		hash    string
	}{
		{
			variant: RF5C68,
			first: []pcm.Frame{
				{L: 2112, R: 1920}, {L: -1728, R: -1856}, {L: 9152, R: 8000}, {L: -13760, R: -9216},
				{L: 1856, R: 1856}, {L: -1984, R: -1984}, {L: 6080, R: 7232}, {L: -13760, R: -9216},
			},
			hash: "6b68bee8ca9f05b73216c695e50e4e0775abef08862765754d5b723404f234cb",
		},
		{
			variant: RF5C164,
			first: []pcm.Frame{
				{L: 2152, R: 1972}, {L: -1673, R: -1853}, {L: 9186, R: 8034}, {L: -13746, R: -9174},
				{L: 1864, R: 1900}, {L: -1961, R: -1925}, {L: 6114, R: 7266}, {L: -13746, R: -9174},
			},
			hash: "728f365d95d9f40a382a6acec9946bba740f1b1d515b04803212b4c4a89584f7",
		},
	}
	for _, tt := range tests {
		t.Run(tt.variant.String(), func(t *testing.T) {
			run := func() []pcm.Frame {
				c := New(Config{Variant: tt.variant})
				program(t, c)
				frames := make([]pcm.Frame, 64)
				for i := range frames {
					c.Tick()
					frames[i] = c.Frame()
				}
				return frames
			}

			frames := run()
			hash := hashFrames(frames)
			if *update {
				fmt.Printf("%s: %+v\n%s\n", tt.variant, frames[:8], hash)
				return
			}
			if diff := cmp.Diff(tt.first, frames[:len(tt.first)]); diff != "" {
				t.Errorf("first frames mismatch (-want +got):\n%s", diff)
			}
			if hash != tt.hash {
				t.Errorf("hash mismatch\n  got:  %s\n  want: %s", hash, tt.hash)
			}
			if diff := cmp.Diff(frames, run()); diff != "" {
				t.Errorf("replay mismatch (-first +second):\n%s", diff)
			}
		})
	}
}

func TestLoopMarkerOnly(t *testing.T) {
	c := New(Default)
	program(t, c)
	// Loop start of channel 0 on a marker: the channel is silent.
	c.WriteReg(0x07, 0xC0)
	c.WriteReg(0x05, 0x10)
	c.WriteReg(0x04, 0x04)
	c.WriteReg(0x08, 0xFE)

	for range 4 {
		c.Tick()
	}
	c.Tick()
	if got := c.voices[0].Out; got != [2]int32{} {
		t.Errorf("output = %v, want silence", got)
	}
	if got := c.voices[0].Pos >> addrShift; got != 0x1004 {
		t.Errorf("address = %#x, want 0x1004", got)
	}
}

func TestDisableChannel(t *testing.T) {
	c := New(Default)
	program(t, c)
	for range 3 {
		c.Tick()
	}

	c.WriteReg(0x08, 0xFD) // channel 0 off
	if c.Playing(0) {
		t.Fatal("channel 0 playing after disable")
	}
	if got := c.voices[0].Pos; got != 0x1000<<addrShift {
		t.Errorf("disabled channel address = %#x, want start", got>>addrShift)
	}
	c.Tick()
	if got := c.voices[0].Out; got != [2]int32{} {
		t.Errorf("disabled channel output = %v, want silence", got)
	}

	// Chip disable silences everything.
	c.WriteReg(0x07, 0x00)
	c.Tick()
	if got := c.Frame(); got != (pcm.Frame{}) {
		t.Errorf("frame = %+v, want silence", got)
	}
}

func TestLoadRAMClamp(t *testing.T) {
	c := New(Default)
	c.WriteReg(0x07, 0x0F)
	data := make([]byte, 0x2000)
	for i := range data {
		data[i] = 0x55
	}
	c.LoadRAM(0x800, data)

	// 0xF800..0xFFFF gets 0x800 bytes, the rest is dropped.
	if got := c.ram.Read8(0xFFFF); got != 0x55 {
		t.Errorf("ram[0xFFFF] = %#x, want 0x55", got)
	}
	if got := c.ram.Read8(0xF7FF); got != 0 {
		t.Errorf("ram[0xF7FF] = %#x, want 0", got)
	}
	if got := c.ram.Len(); got != ramSize {
		t.Errorf("ram size = %#x, want %#x", got, ramSize)
	}
}

func TestReset(t *testing.T) {
	c := New(Default)
	program(t, c)
	c.Tick()
	c.Reset()
	if c.Playing(0) || c.Playing(1) {
		t.Error("channels playing after reset")
	}
	if got := c.ram.Read8(0x1000); got != 0x90 {
		t.Errorf("wave ram lost by reset: %#x", got)
	}
	first := c.State()
	c.Reset()
	if diff := cmp.Diff(first, c.State()); diff != "" {
		t.Errorf("second reset changed state (-first +second):\n%s", diff)
	}
}
