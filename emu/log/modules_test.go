package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestModuleByName(t *testing.T) {
	mod := NewModule("testchip")

	got, ok := ModuleByName("testchip")
	if !ok || got != mod {
		t.Fatalf("ModuleByName(testchip) = %v, %t, want %v, true", got, ok, mod)
	}
	if _, ok := ModuleByName("<error>"); ok {
		t.Errorf("ModuleByName(<error>) should not resolve")
	}
	if _, ok := ModuleByName("nope"); ok {
		t.Errorf("ModuleByName(nope) should not resolve")
	}
}

func TestDisabledModuleReturnsNilEntry(t *testing.T) {
	mod := NewModule("quiet")
	DisableDebugModules(mod.Mask())

	if z := mod.DebugZ("hidden"); z != nil {
		t.Fatalf("DebugZ on disabled module returned non-nil entry")
	}
	// A nil entry must accept the whole chain.
	mod.DebugZ("hidden").Uint8("a", 1).Hex16("b", 2).Error("c", nil).End()

	if z := mod.WarnZ("visible"); z == nil {
		t.Fatalf("WarnZ should always be enabled")
	} else {
		z.End()
	}
}

func TestEntryZOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})

	mod := NewModule("loud")
	EnableDebugModules(mod.Mask())
	defer DisableDebugModules(mod.Mask())

	mod.InfoZ("key on").Uint8("voice", 3).Hex16("addr", 0x1234).Bool("loop", true).End()

	out := buf.String()
	for _, want := range []string{"key on", "voice=3", "addr=1234", "loop=true", "_mod=loud"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

type frameContext uint64

func (c *frameContext) AddLogContext(z *EntryZ) { z.Uint64("frame", uint64(*c)) }

func TestContext(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})

	mod := NewModule("withctx")
	ctx := frameContext(42)
	AddContext(&ctx)
	AddContext(&ctx)

	mod.WarnZ("first").End()
	ctx = 43
	mod.WarnZ("second").End()
	RemoveContext(&ctx)
	mod.WarnZ("third").End()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	tests := []struct {
		line    string
		want    string
		wantCtx bool
	}{
		{line: lines[0], want: "frame=42", wantCtx: true},
		{line: lines[1], want: "frame=43", wantCtx: true},
		{line: lines[2], want: "frame=", wantCtx: false},
	}
	for i, tt := range tests {
		if got := strings.Contains(tt.line, tt.want); got != tt.wantCtx {
			t.Errorf("line %d %q contains %q = %t, want %t", i, tt.line, tt.want, got, tt.wantCtx)
		}
		if n := strings.Count(tt.line, "frame="); n > 1 {
			t.Errorf("line %d has %d frame fields", i, n)
		}
	}
}
