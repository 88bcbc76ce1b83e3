package emu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unsafe"

	"github.com/arl/blip/wave"
	"github.com/go-faster/jx"
	"github.com/veandco/go-sdl2/sdl"

	"pcmemu/emu/log"
	"pcmemu/hw/snapshot"
)

// The wave writer can not take more than 2048 samples per write.
const waveChunk = 2048

// WriteWAV renders the whole file into a 16-bit stereo wave file at path.
// It returns the number of stereo frames written.
func (p *Player) WriteWAV(path string) (int, error) {
	w, err := wave.NewFile(path, p.SampleRate())
	if err != nil {
		return 0, err
	}
	w.EnableStereo()

	n, err := p.writeWave(w)
	if err != nil {
		w.Close()
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// WriteWAVTo is like WriteWAV but writes the wave data to w.
func (p *Player) WriteWAVTo(w io.Writer) (int, error) {
	ww := wave.NewWriter(w, p.SampleRate())
	ww.EnableStereo()
	n, err := p.writeWave(ww)
	if err != nil {
		return 0, err
	}
	return n, ww.Close()
}

func (p *Player) writeWave(w *wave.Writer) (int, error) {
	var buf [waveChunk]int16
	for {
		n, err := p.Render(buf[:])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return 0, err
		}
	}
	frames := w.SampleCount() / 2
	log.ModOutput.InfoZ("wave written").Int("frames", frames).Uint64("vgm_samples", p.Position()).End()
	return frames, nil
}

const (
	AudioFormat     = sdl.AUDIO_S16LSB
	AudioChannels   = 2
	AudioBufferSize = 4096

	// Render ahead at most that many bytes of queued audio.
	maxQueued = AudioBufferSize * AudioChannels * 2 * 4
)

// Play plays the file on the default audio device, until it is over or ctx
// is cancelled.
func (p *Player) Play(ctx context.Context) error {
	if err := sdl.Init(sdl.INIT_AUDIO); err != nil {
		return fmt.Errorf("failed to initialize SDL audio: %w", err)
	}
	defer sdl.Quit()
	defer log.RemoveContext(p)

	spec := sdl.AudioSpec{
		Freq:     int32(p.SampleRate()),
		Format:   AudioFormat,
		Channels: AudioChannels,
		Samples:  AudioBufferSize,
	}
	dev, err := sdl.OpenAudioDevice("", false, &spec, nil, 0)
	if err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}
	defer sdl.CloseAudioDevice(dev)
	sdl.PauseAudioDevice(dev, false)

	var buf [AudioBufferSize]int16
	for {
		select {
		case <-ctx.Done():
			sdl.ClearQueuedAudio(dev)
			return ctx.Err()
		default:
		}

		if sdl.GetQueuedAudioSize(dev) > maxQueued {
			time.Sleep(5 * time.Millisecond)
			continue
		}

		n, err := p.Render(buf[:])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}

		// SDL keeps its own copy of queued data.
		b := unsafe.Slice((*byte)(unsafe.Pointer(&buf[0])), n*2)
		if err := sdl.QueueAudio(dev, b); err != nil {
			log.ModSound.DebugZ("failed to queue audio buffer").Error("err", err).End()
		}
	}

	// Drain.
	for sdl.GetQueuedAudioSize(dev) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return nil
}

// Dump writes the state of all chips as JSON, one line every interval VGM
// samples, until the file is over.
func (p *Player) Dump(w io.Writer, interval uint32) error {
	if interval == 0 {
		return errors.New("dump interval must be positive")
	}

	var (
		e       jx.Encoder
		scratch [waveChunk]int16
	)
	emit := func() error {
		e.Reset()
		snapshot.EncodeAll(&e, p.Position(), p.States())
		if _, err := w.Write(append(e.Bytes(), '\n')); err != nil {
			return err
		}
		return nil
	}

	if err := emit(); err != nil {
		return err
	}
	for {
		var run uint32
		for run < interval {
			n, err := p.Step(interval - run)
			if errors.Is(err, io.EOF) {
				if run == 0 {
					return nil
				}
				return emit()
			}
			if err != nil {
				return err
			}
			run += n

			// Audio is not needed, drop it.
			for p.mixer.Avail() > 0 {
				p.mixer.Read(scratch[:])
			}
		}
		if err := emit(); err != nil {
			return err
		}
	}
}
