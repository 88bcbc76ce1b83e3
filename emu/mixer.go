package emu

import (
	"github.com/arl/blip"

	"pcmemu/emu/log"
	"pcmemu/hw/pcm"
	"pcmemu/vgm"
)

const maxSampleRate = 96000

// The mixer time base: a VGM sample lasts clocksPerSample clocks.
const (
	clocksPerSample = 4096
	clockRate       = vgm.SampleRate * clocksPerSample
)

// maxFrameSamples is the longest run, in VGM samples, of a single frame.
// At the highest output rate it stays below blip.MaxFrame output samples.
const maxFrameSamples = 1024

// bufferSamples is the capacity of the resampling buffers.
const bufferSamples = maxSampleRate / 10

// A Mixer sums the output of chips running at their own sample rates and
// resamples the result to the output rate with band-limited steps.
type Mixer struct {
	bufleft  *blip.Buffer
	bufright *blip.Buffer

	inputs []*input
	gain   float64

	time       uint64 // clocks elapsed at the start of the current frame
	sampleRate int
}

type input struct {
	chip   pcm.Chip
	stereo bool
	rate   uint64
	ticks uint64 // ticks run since t0
	t0    uint64 // clock of tick 0

	prevleft  int32
	prevright int32
}

func NewMixer(sampleRate int, gain float64) *Mixer {
	m := &Mixer{
		bufleft:    blip.NewBuffer(bufferSamples),
		bufright:   blip.NewBuffer(bufferSamples),
		gain:       gain,
		sampleRate: sampleRate,
	}
	m.bufleft.SetRates(clockRate, float64(sampleRate))
	m.bufright.SetRates(clockRate, float64(sampleRate))
	return m
}

func (m *Mixer) SampleRate() int { return m.sampleRate }

// Add plugs a chip producing rate frames per second. It returns the input
// index.
func (m *Mixer) Add(chip pcm.Chip, rate uint32) int {
	m.inputs = append(m.inputs, &input{
		chip:   chip,
		stereo: chip.Desc().Stereo,
		rate:   uint64(rate),
		t0:     m.time,
	})
	return len(m.inputs) - 1
}

// SetRate changes the rate of an input, from the current time on.
func (m *Mixer) SetRate(idx int, rate uint32) {
	in := m.inputs[idx]
	in.t0 = in.clock(in.ticks)
	in.ticks = 0
	in.rate = uint64(rate)
	log.ModOutput.DebugZ("input rate changed").Int("input", idx).Uint32("rate", rate).End()
}

// clock returns the clock at which tick n happens.
func (in *input) clock(n uint64) uint64 {
	return in.t0 + n*clockRate/in.rate
}

func (m *Mixer) scale(v int32) int32 {
	return pcm.Clamp16(int32(float64(v) * m.gain))
}

// Run runs all chips for the given number of VGM samples. The number of
// samples must not exceed maxFrameSamples.
func (m *Mixer) Run(samples uint32) {
	duration := uint64(samples) * clocksPerSample
	end := m.time + duration

	for _, in := range m.inputs {
		if in.rate == 0 {
			continue
		}
		for {
			t := in.clock(in.ticks)
			if t >= end {
				break
			}
			in.chip.Tick()
			in.ticks++

			f := in.chip.Frame()
			l := m.scale(f.L)
			r := l
			if in.stereo {
				r = m.scale(f.R)
			}
			if d := l - in.prevleft; d != 0 {
				m.bufleft.AddDelta(t-m.time, d)
				in.prevleft = l
			}
			if d := r - in.prevright; d != 0 {
				m.bufright.AddDelta(t-m.time, d)
				in.prevright = r
			}
		}
	}

	m.bufleft.EndFrame(int(duration))
	m.bufright.EndFrame(int(duration))
	m.time = end
}

// Avail returns the number of stereo frames ready to be read.
func (m *Mixer) Avail() int { return m.bufleft.SamplesAvailable() }

// Read reads up to len(out)/2 stereo frames, interleaved, into out. It
// returns the number of frames read.
func (m *Mixer) Read(out []int16) int {
	n := len(out) / 2
	if n == 0 {
		return 0
	}
	n = m.bufleft.ReadSamples(out, n, blip.Stereo)
	m.bufright.ReadSamples(out[1:], n, blip.Stereo)
	return n
}

func (m *Mixer) Reset() {
	m.bufleft.Clear()
	m.bufright.Clear()
	for _, in := range m.inputs {
		in.t0 = m.time
		in.ticks = 0
		in.prevleft = 0
		in.prevright = 0
	}
}
