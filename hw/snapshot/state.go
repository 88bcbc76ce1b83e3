// Package snapshot holds the observable state of a chip, as reported by the
// dump command.
package snapshot

// Chip is the state of a chip: its configuration, global registers and
// voices.
type Chip struct {
	Type  string
	Clock uint32
	Rate  uint32

	// Capabilities of the chip type.
	Stereo   bool
	Envelope string
	Codecs   []string

	// Global registers, by name.
	Regs []Reg

	Voices []Voice
	Out    [2]int32

	// Last protocol error, empty if none.
	Err string
}

type Reg struct {
	Name  string
	Value uint32
}

// Voice is the state of a single voice. Fields a chip does not have are left
// zero.
type Voice struct {
	Index   int
	Playing bool
	Codec   string

	Start     uint32
	End       uint32
	LoopStart uint32
	LoopEnd   uint32
	Addr      uint32
	Pos       uint32
	Step      uint32

	Level uint32
	Pan   uint32

	Signal    int32
	StepIndex int32

	Env      string
	EnvLevel int32
	TL       int32

	Out [2]int32
}

// Flag returns a boolean register value.
func Flag(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
