package vgm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// SampleRate is the rate at which VGM wait commands are expressed.
const SampleRate = 44100

// Command opcodes handled by the player. Other commands are decoded for
// their length and skipped.
const (
	OpYMZ280B      = 0x5D
	OpWait         = 0x61
	OpWait735      = 0x62
	OpWait882      = 0x63
	OpEnd          = 0x66
	OpDataBlock    = 0x67
	OpPCMRAMWrite  = 0x68
	OpRF5C68       = 0xB0
	OpRF5C164      = 0xB1
	OpMultiPCM     = 0xB5
	OpUPD7759      = 0xB6
	OpOKIM6295     = 0xB8
	OpSegaPCMMem   = 0xC0
	OpRF5C68Mem    = 0xC1
	OpRF5C164Mem   = 0xC2
	OpMultiPCMBank = 0xC3
)

var ErrUnknownCommand = errors.New("unknown command")

// A Command is one decoded entry of the command stream.
type Command struct {
	Op   uint8
	Pos  int    // file offset of the opcode
	Args []byte // operands, opcode excluded
}

// Wait returns the number of samples to wait after the command.
func (c Command) Wait() uint32 {
	switch {
	case c.Op == OpWait:
		return uint32(binary.LittleEndian.Uint16(c.Args))
	case c.Op == OpWait735:
		return 735
	case c.Op == OpWait882:
		return 882
	case c.Op >= 0x70 && c.Op <= 0x7F:
		return uint32(c.Op&0xF) + 1
	case c.Op >= 0x80 && c.Op <= 0x8F:
		return uint32(c.Op & 0xF)
	}
	return 0
}

// Reg returns the register and data of a 2-operand chip write. Bit 7 of the
// register selects the second chip of a dual chip setup.
func (c Command) Reg() (reg, data uint8, second bool) {
	return c.Args[0] & 0x7F, c.Args[1], c.Args[0]&0x80 != 0
}

// Mem returns the address and data of a memory write (0xC0-0xC2).
func (c Command) Mem() (addr uint16, data uint8) {
	return binary.LittleEndian.Uint16(c.Args), c.Args[2]
}

// Bank returns the channel selector and bank value of a MultiPCM bank write.
func (c Command) Bank() (ch uint8, bank uint16) {
	return c.Args[0] & 0x7F, binary.LittleEndian.Uint16(c.Args[1:])
}

// PCMRAMWrite describes a copy from a PCM data bank into chip RAM.
type PCMRAMWrite struct {
	Type uint8
	Src  uint32
	Dst  uint32
	Size uint32
}

// RAMWrite decodes a 0x68 command.
func (c Command) RAMWrite() PCMRAMWrite {
	u24 := func(p []byte) uint32 { return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 }
	w := PCMRAMWrite{
		Type: c.Args[1],
		Src:  u24(c.Args[2:]),
		Dst:  u24(c.Args[5:]),
		Size: u24(c.Args[8:]),
	}
	if w.Size == 0 {
		w.Size = 1 << 24
	}
	return w
}

// Data block types.
const (
	BlockRF5C68PCM  = 0x01
	BlockRF5C164PCM = 0x02

	BlockSegaPCMROM  = 0x80
	BlockYMZ280BROM  = 0x86
	BlockMultiPCMROM = 0x89
	BlockUPD7759ROM  = 0x8A
	BlockOKIM6295ROM = 0x8B

	BlockRF5C68RAM  = 0xC0
	BlockRF5C164RAM = 0xC1
)

// A DataBlock is the payload of a 0x67 command.
type DataBlock struct {
	Type   uint8
	Second bool   // targets the second chip
	Total  uint32 // ROM dumps: full ROM size
	Start  uint32 // ROM dumps and RAM writes: load address
	Data   []byte
}

// IsStream reports whether the block holds stream data (types 0x00-0x3F),
// appended to a PCM data bank rather than loaded in a chip.
func (b DataBlock) IsStream() bool { return b.Type < 0x40 }

// Block decodes the data block carried by a 0x67 command.
func (c Command) Block() (DataBlock, error) {
	blk := DataBlock{Type: c.Args[1]}
	size := binary.LittleEndian.Uint32(c.Args[2:])
	blk.Second = size&0x80000000 != 0
	p := c.Args[6:]

	switch {
	case blk.Type < 0x40:
		blk.Data = p
	case blk.Type >= 0x80 && blk.Type < 0xC0:
		if len(p) < 8 {
			return blk, fmt.Errorf("ROM data block 0x%02X too short (%d bytes)", blk.Type, len(p))
		}
		blk.Total = binary.LittleEndian.Uint32(p)
		blk.Start = binary.LittleEndian.Uint32(p[4:])
		blk.Data = p[8:]
	case blk.Type >= 0xC0 && blk.Type < 0xE0:
		if len(p) < 2 {
			return blk, fmt.Errorf("RAM data block 0x%02X too short (%d bytes)", blk.Type, len(p))
		}
		blk.Start = uint32(binary.LittleEndian.Uint16(p))
		blk.Data = p[2:]
	case blk.Type >= 0xE0:
		if len(p) < 4 {
			return blk, fmt.Errorf("RAM data block 0x%02X too short (%d bytes)", blk.Type, len(p))
		}
		blk.Start = binary.LittleEndian.Uint32(p)
		blk.Data = p[4:]
	default:
		// Compressed streams and decompression tables.
		blk.Data = p
	}
	return blk, nil
}

// cmdLen returns the total length of the command starting at p[0],
// opcode included.
func cmdLen(p []byte) (int, error) {
	op := p[0]
	switch {
	case op >= 0x30 && op <= 0x3F, op == 0x4F, op == 0x50, op == 0x94:
		return 2, nil
	case op >= 0x40 && op <= 0x4E, op >= 0x51 && op <= 0x5F, op == OpWait, op >= 0xA0 && op <= 0xBF:
		return 3, nil
	case op == 0x64, op >= 0xC0 && op <= 0xDF:
		return 4, nil
	case op == 0x90, op == 0x91, op == 0x95, op >= 0xE0:
		return 5, nil
	case op == 0x92:
		return 6, nil
	case op == 0x93:
		return 11, nil
	case op == OpPCMRAMWrite:
		return 12, nil
	case op == OpWait735, op == OpWait882, op == OpEnd, op >= 0x70 && op <= 0x8F:
		return 1, nil
	case op == OpDataBlock:
		if len(p) < 7 {
			return 0, io.ErrUnexpectedEOF
		}
		size := binary.LittleEndian.Uint32(p[3:]) & 0x7FFFFFFF
		return 7 + int(size), nil
	}
	return 0, ErrUnknownCommand
}

// A Reader iterates over the command stream of a File.
type Reader struct {
	f     *File
	pos   int
	Loops int // number of times the stream looped
}

// Commands returns a Reader positioned at the start of the command stream.
func (f *File) Commands() *Reader {
	return &Reader{f: f, pos: int(f.DataOffset)}
}

// Next decodes the next command. It returns io.EOF once the end of stream
// command, or the end of the file, is reached.
func (r *Reader) Next() (Command, error) {
	buf := r.f.buf
	if r.pos >= len(buf) {
		return Command{}, io.EOF
	}

	n, err := cmdLen(buf[r.pos:])
	if err != nil {
		return Command{}, fmt.Errorf("command 0x%02X at 0x%X: %w", buf[r.pos], r.pos, err)
	}
	if r.pos+n > len(buf) {
		return Command{}, fmt.Errorf("command 0x%02X at 0x%X: %w", buf[r.pos], r.pos, io.ErrUnexpectedEOF)
	}

	cmd := Command{Op: buf[r.pos], Pos: r.pos, Args: buf[r.pos+1 : r.pos+n]}
	if cmd.Op == OpEnd {
		return cmd, io.EOF
	}
	if cmd.Op == OpDataBlock && cmd.Args[0] != OpEnd {
		return Command{}, fmt.Errorf("data block at 0x%X: invalid compatibility byte 0x%02X", r.pos, cmd.Args[0])
	}
	r.pos += n
	return cmd, nil
}

// Loop moves the reader back to the loop point. It returns false if the
// file has no loop.
func (r *Reader) Loop() bool {
	if !r.f.HasLoop() {
		return false
	}
	r.pos = int(r.f.LoopOffset)
	r.Loops++
	return true
}
