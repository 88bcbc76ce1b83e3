package emu

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"pcmemu/emu/log"
	"pcmemu/hw/hwdefs"
	"pcmemu/hw/multipcm"
	"pcmemu/hw/okim6295"
	"pcmemu/hw/pcm"
	"pcmemu/hw/rf5c68"
	"pcmemu/hw/segapcm"
	"pcmemu/hw/snapshot"
	"pcmemu/hw/upd7759"
	"pcmemu/hw/ymz280b"
	"pcmemu/vgm"
)

// A Player runs the chips declared by a VGM file, feeding them the register
// writes of its command stream and mixing their output.
type Player struct {
	file  *vgm.File
	cmds  *vgm.Reader
	mixer *Mixer
	loops int

	chips  [hwdefs.NumChipTypes]pcm.Chip
	inputs [hwdefs.NumChipTypes]int
	clocks [hwdefs.NumChipTypes]uint32

	multipcm *multipcm.Chip
	ymz      *ymz280b.Chip
	rf5c68   *rf5c68.Chip
	rf5c164  *rf5c68.Chip
	segapcm  *segapcm.Chip
	oki      *okim6295.Chip
	upd      *upd7759.Chip

	// PCM data banks, by stream type.
	banks [0x40][]byte

	wait uint32 // samples to run before the next command
	pos  atomic.Uint64 // samples run since the start, read by log lines
	end  bool
}

// NewPlayer creates and configures the chips used by f.
func NewPlayer(f *vgm.File, cfg Config) (*Player, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}

	p := &Player{
		file:  f,
		cmds:  f.Commands(),
		mixer: NewMixer(cfg.Output.Rate, cfg.Output.Gain),
		loops: max(cfg.Output.Loops, 1),
	}

	for _, typ := range f.Chips() {
		var chip pcm.Chip
		switch typ {
		case hwdefs.MultiPCM:
			p.multipcm = multipcm.New(cfg.multiPCMConfig())
			chip = p.multipcm
		case hwdefs.YMZ280B:
			p.ymz = ymz280b.New(cfg.ymzConfig())
			chip = p.ymz
		case hwdefs.RF5C68:
			p.rf5c68 = rf5c68.New(cfg.rf5cConfig())
			chip = p.rf5c68
		case hwdefs.RF5C164:
			p.rf5c164 = rf5c68.New(rf5c68.Config{Variant: rf5c68.RF5C164})
			chip = p.rf5c164
		case hwdefs.SegaPCM:
			p.segapcm = segapcm.New()
			if f.SegaPCMIface != 0 {
				p.segapcm.SetBank(f.SegaPCMIface)
			}
			chip = p.segapcm
		case hwdefs.OKIM6295:
			p.oki = okim6295.New(cfg.okiConfig(f.ClockFlag(typ)))
			chip = p.oki
		case hwdefs.UPD7759:
			if f.ClockFlag(typ) {
				log.ModVGM.WarnZ("uPD7759 slave mode is not emulated").End()
			}
			p.upd = upd7759.New()
			chip = p.upd
		}

		if f.Dual(typ) {
			log.ModVGM.WarnZ("second chip ignored").Stringer("chip", typ).End()
		}

		clock := f.Clock(typ)
		rate, err := chip.Configure(clock)
		if err != nil {
			return nil, fmt.Errorf("failed to configure %s: %w", typ, err)
		}
		p.chips[typ] = chip
		p.clocks[typ] = clock
		p.inputs[typ] = p.mixer.Add(chip, rate)
		log.ModEmu.InfoZ("chip added").Stringer("chip", typ).Uint32("clock", clock).Uint32("rate", rate).End()
	}

	log.AddContext(p)
	return p, nil
}

// AddLogContext adds the playback position to log lines emitted while the
// file plays.
func (p *Player) AddLogContext(z *log.EntryZ) {
	z.Uint64("pos", p.pos.Load())
}

// Done reports whether the command stream is exhausted.
func (p *Player) Done() bool { return p.end && p.wait == 0 }

// Position returns the number of VGM samples run so far.
func (p *Player) Position() uint64 { return p.pos.Load() }

func (p *Player) SampleRate() int { return p.mixer.SampleRate() }

// Step executes commands up to the next wait, then runs the chips for at
// most limit samples of that wait. It returns the number of samples run, or
// io.EOF once the file is over.
func (p *Player) Step(limit uint32) (uint32, error) {
	for p.wait == 0 && !p.end {
		cmd, err := p.cmds.Next()
		if err == io.EOF {
			if p.cmds.Loops+1 < p.loops && p.cmds.Loop() {
				log.ModVGM.InfoZ("loop").Int("count", p.cmds.Loops).End()
				continue
			}
			p.stop()
			break
		}
		if err != nil {
			p.stop()
			return 0, err
		}
		if err := p.exec(cmd); err != nil {
			return 0, err
		}
		p.wait += cmd.Wait()
	}

	if p.wait == 0 {
		return 0, io.EOF
	}

	n := min(p.wait, limit, maxFrameSamples)
	p.mixer.Run(n)
	p.wait -= n
	p.pos.Add(uint64(n))
	return n, nil
}

func (p *Player) stop() {
	p.end = true
	log.RemoveContext(p)
	log.ModVGM.InfoZ("end of file").Uint64("pos", p.pos.Load()).End()
}

// Render fills out with interleaved stereo samples at the output rate. It
// returns the number of int16 values written, and io.EOF once the file is
// over and all samples have been read.
func (p *Player) Render(out []int16) (int, error) {
	pairs := min(len(out)/2, bufferSamples/2)
	for p.mixer.Avail() < pairs {
		if _, err := p.Step(maxFrameSamples); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
	}

	n := p.mixer.Read(out[:2*pairs])
	if n == 0 && p.Done() {
		return 0, io.EOF
	}
	return 2 * n, nil
}

// States returns the state of all chips, in chip type order.
func (p *Player) States() []*snapshot.Chip {
	var states []*snapshot.Chip
	for _, chip := range p.chips {
		if chip != nil {
			states = append(states, chip.State())
		}
	}
	return states
}

func (p *Player) exec(cmd vgm.Command) error {
	switch cmd.Op {
	case vgm.OpDataBlock:
		blk, err := cmd.Block()
		if err != nil {
			return err
		}
		p.loadBlock(blk)

	case vgm.OpPCMRAMWrite:
		p.copyToRAM(cmd.RAMWrite())

	case vgm.OpYMZ280B:
		if p.ymz != nil {
			p.ymz.WriteReg(cmd.Args[0], cmd.Args[1])
		}

	case vgm.OpMultiPCM:
		reg, data, second := cmd.Reg()
		if p.multipcm != nil && !second {
			if err := p.multipcm.WritePort(reg, data); err != nil {
				log.ModVGM.WarnZ("MultiPCM write failed").Error("err", err).End()
			}
		}

	case vgm.OpMultiPCMBank:
		ch, bank := cmd.Bank()
		if p.multipcm != nil {
			p.multipcm.WriteBank(ch, bank)
		}

	case vgm.OpRF5C68, vgm.OpRF5C164:
		reg, data, second := cmd.Reg()
		if rf := p.rf5c(cmd.Op == vgm.OpRF5C164); rf != nil && !second {
			rf.WriteReg(reg, data)
		}

	case vgm.OpRF5C68Mem, vgm.OpRF5C164Mem:
		addr, data := cmd.Mem()
		if rf := p.rf5c(cmd.Op == vgm.OpRF5C164Mem); rf != nil {
			rf.WriteMem(addr, data)
		}

	case vgm.OpSegaPCMMem:
		addr, data := cmd.Mem()
		if p.segapcm != nil && addr&0x8000 == 0 {
			p.segapcm.WriteRAM(addr, data)
		}

	case vgm.OpOKIM6295:
		reg, data, second := cmd.Reg()
		if p.oki != nil && !second {
			if p.oki.WritePort(reg, data) {
				rate, err := p.oki.Configure(p.clocks[hwdefs.OKIM6295])
				if err != nil {
					return err
				}
				p.mixer.SetRate(p.inputs[hwdefs.OKIM6295], rate)
			}
		}

	case vgm.OpUPD7759:
		reg, data, second := cmd.Reg()
		if p.upd != nil && !second {
			p.upd.WritePort(reg, data)
		}

	default:
		if cmd.Wait() == 0 {
			log.ModVGM.DebugZ("command ignored").Hex8("op", cmd.Op).Int("pos", cmd.Pos).End()
		}
	}
	return nil
}

func (p *Player) rf5c(rf5c164 bool) *rf5c68.Chip {
	if rf5c164 {
		return p.rf5c164
	}
	return p.rf5c68
}

// romChips maps ROM data block types to the chip they are loaded in.
var romChips = map[uint8]hwdefs.ChipType{
	vgm.BlockSegaPCMROM:  hwdefs.SegaPCM,
	vgm.BlockYMZ280BROM:  hwdefs.YMZ280B,
	vgm.BlockMultiPCMROM: hwdefs.MultiPCM,
	vgm.BlockUPD7759ROM:  hwdefs.UPD7759,
	vgm.BlockOKIM6295ROM: hwdefs.OKIM6295,
}

func (p *Player) loadBlock(blk vgm.DataBlock) {
	if blk.Second {
		log.ModVGM.DebugZ("data block for second chip ignored").Hex8("type", blk.Type).End()
		return
	}
	if blk.IsStream() {
		p.banks[blk.Type] = append(p.banks[blk.Type], blk.Data...)
		return
	}

	if typ, ok := romChips[blk.Type]; ok {
		if chip := p.chips[typ]; chip != nil {
			chip.LoadROM(blk.Total, blk.Start, blk.Data)
			log.ModVGM.DebugZ("ROM loaded").
				Stringer("chip", typ).
				Hex32("total", blk.Total).
				Hex32("start", blk.Start).
				Int("len", len(blk.Data)).
				End()
		}
		return
	}

	switch blk.Type {
	case vgm.BlockRF5C68RAM, vgm.BlockRF5C164RAM:
		if rf := p.rf5c(blk.Type == vgm.BlockRF5C164RAM); rf != nil {
			rf.LoadRAM(blk.Start, blk.Data)
		}
	default:
		log.ModVGM.DebugZ("data block ignored").Hex8("type", blk.Type).Int("len", len(blk.Data)).End()
	}
}

func (p *Player) copyToRAM(w vgm.PCMRAMWrite) {
	var rf *rf5c68.Chip
	switch w.Type {
	case vgm.BlockRF5C68PCM:
		rf = p.rf5c68
	case vgm.BlockRF5C164PCM:
		rf = p.rf5c164
	}
	if rf == nil {
		log.ModVGM.DebugZ("PCM RAM write ignored").Hex8("type", w.Type).End()
		return
	}

	bank := p.banks[w.Type]
	if w.Src >= uint32(len(bank)) {
		log.ModVGM.WarnZ("PCM RAM write beyond data bank").Hex32("src", w.Src).Int("bank", len(bank)).End()
		return
	}
	end := min(uint64(w.Src)+uint64(w.Size), uint64(len(bank)))
	rf.LoadRAM(w.Dst, bank[w.Src:end])
}
