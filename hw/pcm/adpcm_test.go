package pcm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestADPCMBounds(t *testing.T) {
	dialects := []struct {
		name    string
		reset   func(*ADPCM)
		decode  func(*ADPCM, uint8) int32
		minSig  int32
		maxSig  int32
		minStep int32
		maxStep int32
	}{
		{"A", func(a *ADPCM) { *a = ADPCM{} }, (*ADPCM).DecodeA, ADPCMAMin, ADPCMAMax, 0, ADPCMAMaxStep},
		{"B", (*ADPCM).ResetB, (*ADPCM).DecodeB, -32768, 32767, ADPCMBMinStep, ADPCMBMaxStep},
		{"C", func(a *ADPCM) { *a = ADPCM{} }, (*ADPCM).DecodeC, ADPCMCMin, ADPCMCMax, 0, ADPCMCMaxStep},
	}

	for _, d := range dialects {
		for code := range uint8(16) {
			var a ADPCM
			d.reset(&a)
			for i := range 10000 {
				// Alternate the fixed code with its neighbours so the step
				// index moves both ways.
				c := code
				if i%3 == 2 {
					c ^= 4
				}
				sig := d.decode(&a, c)
				if sig < d.minSig || sig > d.maxSig {
					t.Fatalf("dialect %s code %d: signal %d out of [%d, %d] after %d updates", d.name, code, sig, d.minSig, d.maxSig, i)
				}
				if a.Step < d.minStep || a.Step > d.maxStep {
					t.Fatalf("dialect %s code %d: step %d out of [%d, %d] after %d updates", d.name, code, a.Step, d.minStep, d.maxStep, i)
				}
			}
		}
	}
}

func TestDecodeA(t *testing.T) {
	var a ADPCM
	// Code 7 at step index 0: 16/8 + 16/4 + 16/2 + 16 = 30.
	if got := a.DecodeA(7); got != 30 {
		t.Errorf("DecodeA(7) = %d, want 30", got)
	}
	if a.Step != 8 {
		t.Errorf("step index = %d, want 8", a.Step)
	}
	// Negative code at step 34.
	if got := a.DecodeA(0x8); got != 30-34/8 {
		t.Errorf("DecodeA(8) = %d, want %d", got, 30-34/8)
	}
	if a.Step != 7 {
		t.Errorf("step index = %d, want 7", a.Step)
	}
}

func TestDecodeB(t *testing.T) {
	var a ADPCM
	a.ResetB()
	// (2*7+1)*127/8 = 238, step 127*614>>8 = 304
	if got := a.DecodeB(7); got != 238 {
		t.Errorf("DecodeB(7) = %d, want 238", got)
	}
	if a.Step != 304 {
		t.Errorf("step = %d, want 304", a.Step)
	}
	// 238*254/256 = 236, delta -(1*304/8) = -38
	if got := a.DecodeB(8); got != 198 {
		t.Errorf("DecodeB(8) = %d, want 198", got)
	}
	// 304*230>>8
	if a.Step != 273 {
		t.Errorf("step = %d, want 273", a.Step)
	}
}

func TestDecodeC(t *testing.T) {
	var a ADPCM
	seq := []struct {
		code uint8
		sig  int32
		step int32
	}{
		{7, 10, 3},
		{7, 29, 6},
		{15, -4, 9},
		{0, -3, 8},
	}
	for i, s := range seq {
		if got := a.DecodeC(s.code); got != s.sig || a.Step != s.step {
			t.Errorf("#%d DecodeC(%d) = (%d, step %d), want (%d, step %d)", i, s.code, got, a.Step, s.sig, s.step)
		}
	}
}

func TestDecodeCSaturates(t *testing.T) {
	// The accumulator saturates at the DAC range instead of wrapping.
	codes := []uint8{7, 7, 7, 7, 7, 7, 15, 15, 15}
	want := []int32{10, 29, 62, 126, 243, 255, 41, -173, -256}

	var a ADPCM
	var got []int32
	for _, c := range codes {
		got = append(got, a.DecodeC(c))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("signals mismatch (-want +got):\n%s", diff)
	}
}
