// Package vgm implements a reader for VGM files, a register log format used
// to distribute music ripped from arcade and console sound hardware. Gzip
// compressed files (.vgz) are detected and inflated transparently.
package vgm

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"pcmemu/emu/log"
	"pcmemu/hw/hwdefs"
)

const Magic = "Vgm "

const (
	gzipMagic0 = 0x1F
	gzipMagic1 = 0x8B
)

// Header field offsets.
const (
	offEOF          = 0x04
	offVersion      = 0x08
	offGD3          = 0x14
	offTotalSamples = 0x18
	offLoop         = 0x1C
	offLoopSamples  = 0x20
	offRate         = 0x24
	offData         = 0x34
	offSegaPCMIface = 0x3C

	headerSize    = 0x100
	defaultStart  = 0x40
	dataOffsetVer = 0x150
)

var clockOffsets = [hwdefs.NumChipTypes]int{
	hwdefs.MultiPCM: 0x88,
	hwdefs.YMZ280B:  0x68,
	hwdefs.RF5C68:   0x40,
	hwdefs.RF5C164:  0x6C,
	hwdefs.SegaPCM:  0x38,
	hwdefs.OKIM6295: 0x98,
	hwdefs.UPD7759:  0x8C,
}

const (
	clockMask = 0x3FFFFFFF
	clockDual = 1 << 30
	clockFlag = 1 << 31
)

// A File is a decoded VGM file.
type File struct {
	Header
	Tags Tags

	buf []byte
}

// Open loads a VGM or VGZ file.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vf := new(File)
	if _, err := vf.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vf, nil
}

// ReadFrom implements io.ReaderFrom interface.
func (f *File) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	n := int64(len(buf))

	if len(buf) >= 2 && buf[0] == gzipMagic0 && buf[1] == gzipMagic1 {
		gz, err := gzip.NewReader(bytes.NewReader(buf))
		if err != nil {
			return n, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		if buf, err = io.ReadAll(gz); err != nil {
			return n, fmt.Errorf("failed to inflate: %w", err)
		}
	}

	if err := f.Header.decode(buf); err != nil {
		return n, fmt.Errorf("failed to decode header: %w", err)
	}
	if int(f.DataOffset) >= len(buf) {
		return n, fmt.Errorf("data offset 0x%X beyond end of file", f.DataOffset)
	}
	if f.LoopOffset != 0 && int(f.LoopOffset) >= len(buf) {
		log.ModVGM.WarnZ("loop offset beyond end of file, ignored").Hex32("loop", f.LoopOffset).End()
		f.LoopOffset = 0
	}
	if f.GD3Offset != 0 {
		if err := f.Tags.decode(buf, f.GD3Offset); err != nil {
			log.ModVGM.WarnZ("invalid GD3 tags").Error("err", err).End()
		}
	}

	f.buf = buf
	return n, nil
}

// Header holds the VGM header fields relevant to the emulated chips. All
// offsets are absolute file offsets.
type Header struct {
	Version      uint32
	EOFOffset    uint32
	GD3Offset    uint32
	TotalSamples uint32
	LoopOffset   uint32
	LoopSamples  uint32
	Rate         uint32
	DataOffset   uint32
	SegaPCMIface uint32

	clocks [hwdefs.NumChipTypes]uint32
}

// relative reads the 32-bit field at off, an offset relative to the field
// itself, and returns the absolute offset, or 0 if the field is 0.
func relative(p []byte, off int) uint32 {
	v := binary.LittleEndian.Uint32(p[off:])
	if v == 0 {
		return 0
	}
	return uint32(off) + v
}

func (hdr *Header) decode(p []byte) error {
	if len(p) < defaultStart {
		return fmt.Errorf("too small, needs %d bytes", defaultStart)
	}
	if string(p[:4]) != Magic {
		return fmt.Errorf("invalid magic number")
	}

	hdr.Version = binary.LittleEndian.Uint32(p[offVersion:])
	hdr.DataOffset = defaultStart
	if hdr.Version >= dataOffsetVer {
		if off := relative(p, offData); off != 0 {
			hdr.DataOffset = off
		}
	}

	// Header bytes at or after the data start are not header fields.
	var raw [headerSize]byte
	copy(raw[:], p[:min(len(p), int(hdr.DataOffset), headerSize)])

	hdr.EOFOffset = relative(raw[:], offEOF)
	hdr.GD3Offset = relative(raw[:], offGD3)
	hdr.TotalSamples = binary.LittleEndian.Uint32(raw[offTotalSamples:])
	hdr.LoopOffset = relative(raw[:], offLoop)
	hdr.LoopSamples = binary.LittleEndian.Uint32(raw[offLoopSamples:])
	hdr.Rate = binary.LittleEndian.Uint32(raw[offRate:])
	hdr.SegaPCMIface = binary.LittleEndian.Uint32(raw[offSegaPCMIface:])
	for i, off := range clockOffsets {
		hdr.clocks[i] = binary.LittleEndian.Uint32(raw[off:])
	}
	return nil
}

// Clock returns the clock of the given chip in Hz, or 0 if the file does
// not use it.
func (hdr *Header) Clock(chip hwdefs.ChipType) uint32 {
	return hdr.clocks[chip] & clockMask
}

// Dual reports whether the file drives two instances of chip.
func (hdr *Header) Dual(chip hwdefs.ChipType) bool {
	return hdr.clocks[chip]&clockDual != 0
}

// ClockFlag returns bit 31 of the chip clock field. For the OKIM6295 it is
// the initial state of pin 7, for the uPD7759 it selects slave mode.
func (hdr *Header) ClockFlag(chip hwdefs.ChipType) bool {
	return hdr.clocks[chip]&clockFlag != 0
}

// Chips returns the chip types used by the file.
func (hdr *Header) Chips() []hwdefs.ChipType {
	var chips []hwdefs.ChipType
	for i := range hdr.clocks {
		if hdr.Clock(hwdefs.ChipType(i)) != 0 {
			chips = append(chips, hwdefs.ChipType(i))
		}
	}
	return chips
}

// HasLoop reports whether the command stream has a loop point.
func (hdr *Header) HasLoop() bool { return hdr.LoopOffset != 0 }

func (f *File) PrintInfos(w io.Writer) {
	fmt.Fprintf(w, "Version: %x.%02x\n", f.Version>>8, f.Version&0xFF)
	fmt.Fprintf(w, "Samples: %d (%.2fs)\n", f.TotalSamples, float64(f.TotalSamples)/SampleRate)
	if f.HasLoop() {
		fmt.Fprintf(w, "Loop: 0x%X, %d samples\n", f.LoopOffset, f.LoopSamples)
	} else {
		fmt.Fprintf(w, "Loop: none\n")
	}
	fmt.Fprintf(w, "Data: 0x%X\n", f.DataOffset)
	fmt.Fprintf(w, "Chips:\n")
	for _, chip := range f.Chips() {
		fmt.Fprintf(w, "  %-9s %d Hz", chip, f.Clock(chip))
		if f.Dual(chip) {
			fmt.Fprintf(w, " (dual)")
		}
		if f.ClockFlag(chip) {
			fmt.Fprintf(w, " (flag)")
		}
		fmt.Fprintln(w)
	}
	f.Tags.print(w)
}
