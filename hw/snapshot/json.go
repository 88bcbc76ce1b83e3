package snapshot

import "github.com/go-faster/jx"

// Encode writes the chip state as a JSON object.
func (c *Chip) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.Field("type", func(e *jx.Encoder) { e.Str(c.Type) })
	e.Field("clock", func(e *jx.Encoder) { e.UInt32(c.Clock) })
	e.Field("rate", func(e *jx.Encoder) { e.UInt32(c.Rate) })
	e.Field("stereo", func(e *jx.Encoder) { e.Bool(c.Stereo) })
	e.Field("envelope", func(e *jx.Encoder) { e.Str(c.Envelope) })
	e.Field("codecs", func(e *jx.Encoder) {
		e.ArrStart()
		for _, name := range c.Codecs {
			e.Str(name)
		}
		e.ArrEnd()
	})
	if len(c.Regs) > 0 {
		e.Field("regs", func(e *jx.Encoder) {
			e.ObjStart()
			for _, r := range c.Regs {
				e.Field(r.Name, func(e *jx.Encoder) { e.UInt32(r.Value) })
			}
			e.ObjEnd()
		})
	}
	e.Field("out", func(e *jx.Encoder) { encodePair(e, c.Out) })
	if c.Err != "" {
		e.Field("error", func(e *jx.Encoder) { e.Str(c.Err) })
	}
	e.Field("voices", func(e *jx.Encoder) {
		e.ArrStart()
		for i := range c.Voices {
			c.Voices[i].Encode(e)
		}
		e.ArrEnd()
	})
	e.ObjEnd()
}

// Encode writes the voice state as a JSON object. Idle voices only carry
// their index.
func (v *Voice) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.Field("index", func(e *jx.Encoder) { e.Int(v.Index) })
	e.Field("playing", func(e *jx.Encoder) { e.Bool(v.Playing) })
	if !v.Playing {
		e.ObjEnd()
		return
	}
	if v.Codec != "" {
		e.Field("codec", func(e *jx.Encoder) { e.Str(v.Codec) })
	}
	u32 := func(name string, val uint32) {
		e.Field(name, func(e *jx.Encoder) { e.UInt32(val) })
	}
	u32("start", v.Start)
	u32("end", v.End)
	u32("loop_start", v.LoopStart)
	u32("loop_end", v.LoopEnd)
	u32("addr", v.Addr)
	u32("pos", v.Pos)
	u32("step", v.Step)
	u32("level", v.Level)
	u32("pan", v.Pan)
	e.Field("signal", func(e *jx.Encoder) { e.Int32(v.Signal) })
	e.Field("step_index", func(e *jx.Encoder) { e.Int32(v.StepIndex) })
	if v.Env != "" {
		e.Field("env", func(e *jx.Encoder) { e.Str(v.Env) })
		e.Field("env_level", func(e *jx.Encoder) { e.Int32(v.EnvLevel) })
		e.Field("tl", func(e *jx.Encoder) { e.Int32(v.TL) })
	}
	e.Field("out", func(e *jx.Encoder) { encodePair(e, v.Out) })
	e.ObjEnd()
}

func encodePair(e *jx.Encoder, p [2]int32) {
	e.ArrStart()
	e.Int32(p[0])
	e.Int32(p[1])
	e.ArrEnd()
}

// EncodeAll writes a JSON array of chip states, at the given sample
// position.
func EncodeAll(e *jx.Encoder, sample uint64, chips []*Chip) {
	e.ObjStart()
	e.Field("sample", func(e *jx.Encoder) { e.UInt64(sample) })
	e.Field("chips", func(e *jx.Encoder) {
		e.ArrStart()
		for _, c := range chips {
			c.Encode(e)
		}
		e.ArrEnd()
	})
	e.ObjEnd()
}
