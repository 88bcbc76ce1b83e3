package pcm

// ADPCM is the running state of a 4-bit differential decoder: the signal
// accumulator and the step index (dialects A and C) or step size (dialect
// B).
type ADPCM struct {
	Signal int32
	Step   int32
}

// Dialect A (OKI MSM6295).

var stepTableA = [49]int32{
	16, 17, 19, 21, 23, 25, 28, 31, 34, 37, 41, 45,
	50, 55, 60, 66, 73, 80, 88, 97, 107, 118, 130, 143,
	157, 173, 190, 209, 230, 253, 279, 307, 337, 371, 408, 449,
	494, 544, 598, 658, 724, 796, 876, 963, 1060, 1166, 1282, 1411,
	1552,
}

var adjustTableA = [8]int32{-1, -1, -1, -1, 2, 4, 6, 8}

const (
	ADPCMAMin     = -2048
	ADPCMAMax     = 2047
	ADPCMAMaxStep = 48
)

// DecodeA decodes one code with the OKI dialect and returns the new signal.
func (a *ADPCM) DecodeA(code uint8) int32 {
	ss := stepTableA[a.Step]
	delta := ss >> 3
	if code&1 != 0 {
		delta += ss >> 2
	}
	if code&2 != 0 {
		delta += ss >> 1
	}
	if code&4 != 0 {
		delta += ss
	}
	if code&8 != 0 {
		delta = -delta
	}
	a.Signal = clamp(a.Signal+delta, ADPCMAMin, ADPCMAMax)
	a.Step = clamp(a.Step+adjustTableA[code&7], 0, ADPCMAMaxStep)
	return a.Signal
}

// Dialect B (Yamaha YMZ280B).

var stepScaleB = [8]int32{230, 230, 230, 230, 307, 409, 512, 614}

const (
	ADPCMBMinStep  = 127
	ADPCMBMaxStep  = 24576
	ADPCMBInitStep = ADPCMBMinStep
)

// ResetB sets the decoder state at the start of a dialect B stream.
func (a *ADPCM) ResetB() {
	a.Signal = 0
	a.Step = ADPCMBInitStep
}

// DecodeB decodes one code with the Yamaha dialect and returns the new
// signal.
func (a *ADPCM) DecodeB(code uint8) int32 {
	delta := (2*int32(code&7) + 1) * a.Step / 8
	if code&8 != 0 {
		delta = -delta
	}
	a.Signal = Clamp16(a.Signal*254/256 + delta)
	a.Step = clamp((a.Step*stepScaleB[code&7])>>8, ADPCMBMinStep, ADPCMBMaxStep)
	return a.Signal
}

// Dialect C (NEC uPD7759).

var stepTableC = [16][16]int32{
	{0, 0, 1, 2, 3, 5, 7, 10, 0, 0, -1, -2, -3, -5, -7, -10},
	{0, 1, 2, 3, 4, 6, 8, 13, 0, -1, -2, -3, -4, -6, -8, -13},
	{0, 1, 2, 4, 5, 7, 10, 15, 0, -1, -2, -4, -5, -7, -10, -15},
	{0, 1, 3, 4, 6, 9, 13, 19, 0, -1, -3, -4, -6, -9, -13, -19},
	{0, 2, 3, 5, 8, 11, 15, 23, 0, -2, -3, -5, -8, -11, -15, -23},
	{0, 2, 4, 7, 10, 14, 19, 29, 0, -2, -4, -7, -10, -14, -19, -29},
	{0, 3, 5, 8, 12, 16, 22, 33, 0, -3, -5, -8, -12, -16, -22, -33},
	{1, 4, 7, 10, 15, 20, 29, 43, -1, -4, -7, -10, -15, -20, -29, -43},
	{1, 4, 8, 13, 18, 25, 35, 53, -1, -4, -8, -13, -18, -25, -35, -53},
	{1, 6, 10, 16, 22, 31, 43, 64, -1, -6, -10, -16, -22, -31, -43, -64},
	{2, 7, 12, 19, 27, 37, 51, 76, -2, -7, -12, -19, -27, -37, -51, -76},
	{2, 9, 16, 24, 34, 46, 64, 96, -2, -9, -16, -24, -34, -46, -64, -96},
	{3, 11, 19, 29, 41, 57, 79, 117, -3, -11, -19, -29, -41, -57, -79, -117},
	{4, 13, 24, 36, 50, 69, 96, 143, -4, -13, -24, -36, -50, -69, -96, -143},
	{4, 16, 29, 44, 62, 85, 118, 175, -4, -16, -29, -44, -62, -85, -118, -175},
	{6, 20, 36, 54, 76, 104, 144, 214, -6, -20, -36, -54, -76, -104, -144, -214},
}

var stateTableC = [16]int32{-1, -1, 0, 0, 1, 2, 2, 3, -1, -1, 0, 0, 1, 2, 2, 3}

// The accumulator of dialect C drives a 9-bit DAC.
const (
	ADPCMCMin     = -256
	ADPCMCMax     = 255
	ADPCMCMaxStep = 15
)

// DecodeC decodes one code with the NEC dialect and returns the new signal,
// saturated to the DAC range.
func (a *ADPCM) DecodeC(code uint8) int32 {
	code &= 0xF
	a.Signal = clamp(a.Signal+stepTableC[a.Step][code], ADPCMCMin, ADPCMCMax)
	a.Step = clamp(a.Step+stateTableC[code], 0, ADPCMCMaxStep)
	return a.Signal
}
