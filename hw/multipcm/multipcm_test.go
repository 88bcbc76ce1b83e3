package multipcm

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pcmemu/hw/hwdefs"
	"pcmemu/hw/pcm"
)

// record builds a sample header. env holds the AR/D1R, DL/D2R and KRS/RR
// bytes.
func record(start uint32, loop, end uint16, env [3]uint8) []byte {
	e := 0xFFFF - end
	return []byte{
		byte(start >> 16), byte(start >> 8), byte(start),
		byte(loop >> 8), byte(loop),
		byte(e >> 8), byte(e),
		0,
		env[0], env[1], env[2],
		0,
	}
}

// sustain has an instant attack, slow decays and an instant release.
var sustain = [3]uint8{0xF4, 0x04, 0xF0}

func newChip(t *testing.T, rom []byte) *Chip {
	t.Helper()
	c := New(Default)
	if _, err := c.Configure(hwdefs.DefaultMultiPCMClock); err != nil {
		t.Fatal(err)
	}
	c.LoadROM(uint32(len(rom)), 0, rom)
	return c
}

func testROM(hdrs ...[]byte) []byte {
	rom := make([]byte, 0x200)
	for i, h := range hdrs {
		copy(rom[i*headerSize:], h)
	}
	for i := 0x100; i < 0x200; i++ {
		rom[i] = 0x40
	}
	return rom
}

func keyOn(t *testing.T, c *Chip, slot int, sample uint8) {
	t.Helper()
	writes := []struct{ reg, data uint8 }{
		{0, 0x00}, // pan center
		{1, sample},
		{2, 0x00},
		{3, 0x10}, // octave 0
		{5, 0x01}, // TL 0, immediate
		{4, 0x80},
	}
	for _, w := range writes {
		if err := c.WriteSlot(slot, w.reg, w.data); err != nil {
			t.Fatal(err)
		}
	}
}

func TestConfigure(t *testing.T) {
	c := New(Default)
	rate, err := c.Configure(hwdefs.DefaultMultiPCMClock)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 42000 {
		t.Errorf("rate = %d, want 42000", rate)
	}

	if _, err := New(Default).Configure(100); !errors.Is(err, pcm.ErrConfiguration) {
		t.Errorf("Configure(100) error = %v, want ErrConfiguration", err)
	}
}

func TestPitchWriteUnconfigured(t *testing.T) {
	c := New(Default)
	c.WritePort(1, 0)
	c.WritePort(2, 3)
	err := c.WritePort(0, 0x10)
	if !errors.Is(err, pcm.ErrConfiguration) {
		t.Fatalf("pitch write error = %v, want ErrConfiguration", err)
	}
}

func TestSlotSelect(t *testing.T) {
	c := newChip(t, testROM(record(0x100, 0, 4, sustain)))

	tests := []struct {
		sel  uint8
		want int
	}{
		{0x00, 0},
		{0x06, 6},
		{0x07, -1},
		{0x08, 7},
		{0x1E, 27},
		{0x1F, -1},
		{0x3F, -1},
	}
	for _, tt := range tests {
		c.WritePort(1, tt.sel)
		if c.curSlot != tt.want {
			t.Errorf("select %#x: slot = %d, want %d", tt.sel, c.curSlot, tt.want)
		}
	}

	// Writes to an unmapped slot are dropped.
	c.WritePort(1, 0x07)
	c.WritePort(2, 4)
	if err := c.WritePort(0, 0x80); err != nil {
		t.Fatal(err)
	}
	for i := range c.slots {
		if c.Playing(i) {
			t.Errorf("slot %d playing after write to unmapped slot", i)
		}
	}
}

func TestKeyOnOutput(t *testing.T) {
	c := newChip(t, testROM(record(0x100, 2, 4, sustain)))

	// Same sequence through the port interface.
	for _, w := range [][2]uint8{
		{1, 0x00}, {2, 0}, {0, 0x00},
		{2, 1}, {0, 0x00},
		{2, 2}, {0, 0x00},
		{2, 3}, {0, 0x10},
		{2, 5}, {0, 0x01},
		{2, 4}, {0, 0x80},
	} {
		if err := c.WritePort(w[0], w[1]); err != nil {
			t.Fatal(err)
		}
	}
	if !c.Playing(0) {
		t.Fatal("slot 0 not playing after key on")
	}

	s := &c.slots[0]
	if s.Step != 1<<pcm.TLShift {
		t.Fatalf("step = %#x, want %#x", s.Step, 1<<pcm.TLShift)
	}

	c.Tick()
	sample := int32(0x4000) * c.tables.Lin2Exp[0x3FF] >> 10
	want := pcm.Frame{
		L: c.tables.Pan[0][0] * sample >> pcm.TLShift,
		R: c.tables.Pan[1][0] * sample >> pcm.TLShift,
	}
	if diff := cmp.Diff(want, c.Frame()); diff != "" {
		t.Errorf("first frame mismatch (-want +got):\n%s", diff)
	}
	if want.L == 0 {
		t.Error("expected a non silent frame")
	}

	// The cursor wraps from end to the loop start.
	for range 3 {
		c.Tick()
	}
	if got := s.Pos >> pcm.TLShift; got != 2 {
		t.Errorf("position after 4 ticks = %d, want 2", got)
	}
}

func TestKeyOffInstantRelease(t *testing.T) {
	c := newChip(t, testROM(record(0x100, 0, 4, sustain)))
	keyOn(t, c, 3, 0)
	c.Tick()
	if c.Frame() == (pcm.Frame{}) {
		t.Fatal("silent frame after key on")
	}

	c.WriteSlot(3, 4, 0x00)
	c.Tick()
	if c.Playing(3) {
		t.Error("slot still playing after key off with instant release")
	}
	if got := c.Frame(); got != (pcm.Frame{}) {
		t.Errorf("frame after key off = %+v, want silence", got)
	}
}

func TestKeyOffRelease(t *testing.T) {
	env := sustain
	env[2] = 0xFE
	c := newChip(t, testROM(record(0x100, 0, 4, env)))
	keyOn(t, c, 0, 0)
	c.Tick()
	c.WriteSlot(0, 4, 0x00)

	s := &c.slots[0]
	if s.Env.State != pcm.Release {
		t.Fatalf("envelope state = %v, want Release", s.Env.State)
	}

	prev := s.Env.Volume
	ticks := 0
	for ; c.Playing(0) && ticks < 100000; ticks++ {
		c.Tick()
		if s.Env.Volume > prev {
			t.Fatalf("tick %d: envelope rose from %#x to %#x during release", ticks, prev, s.Env.Volume)
		}
		prev = s.Env.Volume
	}
	if c.Playing(0) {
		t.Fatal("release never completed")
	}
	if ticks < 2 {
		t.Errorf("release took %d ticks, want a gradual release", ticks)
	}
	if got := c.Frame(); got != (pcm.Frame{}) {
		t.Errorf("frame after release = %+v, want silence", got)
	}
}

func TestSampleFormat(t *testing.T) {
	c := newChip(t, testROM(
		record(0x000100, 0, 4, sustain),
		record(0x800100, 0, 4, sustain),
	))

	tests := []struct {
		sample uint8
		codec  pcm.Codec
		base   uint32
	}{
		{0, pcm.LinearPCM8, 0x100},
		{1, pcm.PackedPCM12, 0x100},
	}
	for _, tt := range tests {
		keyOn(t, c, 0, tt.sample)
		s := &c.slots[0]
		if s.Codec != tt.codec || s.Base != tt.base {
			t.Errorf("sample %d: codec %v base %#x, want %v %#x", tt.sample, s.Codec, s.Base, tt.codec, tt.base)
		}
	}
}

func TestBanking(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *Chip)
		pan   uint8
		want  uint32
	}{
		{
			name:  "no bank",
			setup: func(c *Chip) {},
			want:  0x100100,
		},
		{
			name:  "1M",
			setup: func(c *Chip) { c.SetBank1M(2) },
			want:  0x200100,
		},
		{
			name:  "512K right",
			setup: func(c *Chip) { c.SetBank512K(3, true) },
			want:  0x180100,
		},
		{
			name:  "512K left",
			setup: func(c *Chip) { c.SetBank512K(5, false) },
			pan:   0x80,
			want:  0x280100,
		},
		{
			name:  "vgm 1M",
			setup: func(c *Chip) { c.WriteBank(3, 0x30) },
			want:  0x300100,
		},
		{
			name:  "vgm 512K both",
			setup: func(c *Chip) { c.WriteBank(3, 0x18) },
			want:  0x180100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChip(t, testROM(record(0x100100, 0, 4, sustain)))
			tt.setup(c)
			keyOn(t, c, 0, 0)
			c.WriteSlot(0, 0, tt.pan)
			c.WriteSlot(0, 4, 0x80)
			if got := c.slots[0].Base; got != tt.want {
				t.Errorf("base = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestReset(t *testing.T) {
	rom := testROM(record(0x100, 0, 4, sustain))
	c := newChip(t, rom)
	keyOn(t, c, 0, 0)
	keyOn(t, c, 27, 0)
	for range 10 {
		c.Tick()
	}

	c.Reset()
	for i := range c.slots {
		if c.Playing(i) {
			t.Errorf("slot %d playing after reset", i)
		}
	}
	if diff := cmp.Diff(rom, c.rom.Data); diff != "" {
		t.Errorf("rom changed by reset (-want +got):\n%s", diff)
	}
	if c.tables == nil {
		t.Error("tables discarded by reset")
	}

	once := *c
	c.Reset()
	if !reflect.DeepEqual(once, *c) {
		t.Error("second reset changed the chip state")
	}
}

func TestDeterministic(t *testing.T) {
	rom := testROM(record(0x100, 0, 0x80, sustain))
	run := func() []pcm.Frame {
		c := newChip(t, rom)
		keyOn(t, c, 0, 0)
		c.WriteSlot(0, 2, 0x80) // fractional pitch
		c.WriteSlot(0, 5, 0x20) // ramp down
		var frames []pcm.Frame
		for range 256 {
			c.Tick()
			frames = append(frames, c.Frame())
		}
		return frames
	}

	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("replay mismatch (-first +second):\n%s", diff)
	}
}

func TestState(t *testing.T) {
	c := newChip(t, testROM(record(0x100, 0, 4, sustain)))
	keyOn(t, c, 1, 0)
	c.Tick()

	st := c.State()
	if st.Type != "MultiPCM" || st.Rate != 42000 || len(st.Voices) != hwdefs.MultiPCMVoices {
		t.Fatalf("state = %s %d %d voices", st.Type, st.Rate, len(st.Voices))
	}
	if !st.Stereo || st.Envelope != "ADSR" {
		t.Errorf("capabilities = stereo %t, envelope %s", st.Stereo, st.Envelope)
	}
	v := st.Voices[1]
	if !v.Playing || v.Codec != "LinearPCM8" || v.Env != "Decay1" {
		t.Errorf("voice 1 = %+v", v)
	}
}
