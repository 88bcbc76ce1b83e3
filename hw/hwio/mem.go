package hwio

import (
	"encoding/binary"

	"pcmemu/emu/log"
)

// Mem is a linear sample memory attached to a chip: a ROM image loaded from
// data blocks, or the wave RAM written through the chip's bus.
//
// Reads past the end of the image return OpenBus, so a voice cursor running
// off the image decodes a constant value instead of failing.
type Mem struct {
	Name    string // name of the memory area (for debugging)
	Data    []byte // actual memory buffer
	Fill    uint8  // value of bytes added when the image grows
	OpenBus uint8  // value read beyond the end of the image
}

func (m *Mem) Len() int { return len(m.Data) }

func (m *Mem) Read8(addr uint32) uint8 {
	if uint64(addr) >= uint64(len(m.Data)) {
		return m.OpenBus
	}
	return m.Data[addr]
}

// Read16BE reads a big-endian 16-bit word. Bytes beyond the image read as
// OpenBus.
func (m *Mem) Read16BE(addr uint32) uint16 {
	if uint64(addr)+1 < uint64(len(m.Data)) {
		return binary.BigEndian.Uint16(m.Data[addr:])
	}
	return uint16(m.Read8(addr))<<8 | uint16(m.Read8(addr+1))
}

// Read16LE reads a little-endian 16-bit word. Bytes beyond the image read as
// OpenBus.
func (m *Mem) Read16LE(addr uint32) uint16 {
	if uint64(addr)+1 < uint64(len(m.Data)) {
		return binary.LittleEndian.Uint16(m.Data[addr:])
	}
	return uint16(m.Read8(addr)) | uint16(m.Read8(addr+1))<<8
}

// Write8 writes a byte. Writes beyond the image are dropped.
func (m *Mem) Write8(addr uint32, val uint8) {
	if uint64(addr) < uint64(len(m.Data)) {
		m.Data[addr] = val
	}
}

// Resize grows or shrinks the image to size bytes. New bytes are set to Fill.
func (m *Mem) Resize(size int) {
	if size <= len(m.Data) {
		m.Data = m.Data[:size]
		return
	}
	old := len(m.Data)
	if size <= cap(m.Data) {
		m.Data = m.Data[:size]
	} else {
		data := make([]byte, size)
		copy(data, m.Data)
		m.Data = data
	}
	for i := old; i < size; i++ {
		m.Data[i] = m.Fill
	}
}

// Load copies data at offset into an image of total bytes, resizing it
// first if needed. Loads starting past total are ignored; loads running past
// total are truncated.
func (m *Mem) Load(total, offset uint32, data []byte) {
	if len(m.Data) != int(total) {
		m.Resize(int(total))
	}
	if offset > total {
		log.ModHwIo.DebugZ("ignoring load past end of memory").
			String("name", m.Name).
			Hex32("offset", offset).
			Hex32("total", total).
			End()
		return
	}
	n := len(data)
	if uint64(offset)+uint64(n) > uint64(total) {
		log.ModHwIo.DebugZ("truncating load").
			String("name", m.Name).
			Hex32("offset", offset).
			Int("len", n).
			Hex32("total", total).
			End()
		n = int(total - offset)
	}
	copy(m.Data[offset:], data[:n])
}

// Clear sets every byte of the image to Fill.
func (m *Mem) Clear() {
	for i := range m.Data {
		m.Data[i] = m.Fill
	}
}
