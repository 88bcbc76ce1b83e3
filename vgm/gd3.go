package vgm

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf16"
)

const gd3Magic = "Gd3 "

// Tags holds the english GD3 metadata strings.
type Tags struct {
	Track  string
	Game   string
	System string
	Author string
	Date   string
	Ripper string
	Notes  string
}

// decode parses the GD3 block at off: magic, version, length, then eleven
// nul terminated UTF-16LE strings, english and japanese interleaved for the
// first four.
func (t *Tags) decode(p []byte, off uint32) error {
	if int(off)+12 > len(p) {
		return fmt.Errorf("GD3 offset 0x%X beyond end of file", off)
	}
	if string(p[off:off+4]) != gd3Magic {
		return fmt.Errorf("invalid GD3 magic")
	}
	size := binary.LittleEndian.Uint32(p[off+8:])
	start := int(off) + 12
	end := min(start+int(size), len(p))

	var strs []string
	var cur []uint16
	for i := start; i+1 < end; i += 2 {
		c := binary.LittleEndian.Uint16(p[i:])
		if c == 0 {
			strs = append(strs, string(utf16.Decode(cur)))
			cur = cur[:0]
			continue
		}
		cur = append(cur, c)
	}
	for len(strs) < 11 {
		strs = append(strs, "")
	}

	t.Track = strs[0]
	t.Game = strs[2]
	t.System = strs[4]
	t.Author = strs[6]
	t.Date = strs[8]
	t.Ripper = strs[9]
	t.Notes = strs[10]
	return nil
}

func (t *Tags) print(w io.Writer) {
	for _, kv := range [...]struct{ k, v string }{
		{"Track", t.Track},
		{"Game", t.Game},
		{"System", t.System},
		{"Author", t.Author},
		{"Date", t.Date},
		{"Ripper", t.Ripper},
		{"Notes", t.Notes},
	} {
		if kv.v != "" {
			fmt.Fprintf(w, "%s: %s\n", kv.k, kv.v)
		}
	}
}
