// Package hwdefs holds the constants shared by the chip cores and the host.
package hwdefs

//go:generate go tool stringer -type=ChipType

type ChipType uint8

const (
	MultiPCM ChipType = iota
	YMZ280B
	RF5C68
	RF5C164
	SegaPCM
	OKIM6295
	UPD7759

	NumChipTypes = iota
)

// Master clock divisors: the output rate of a chip is its clock divided by
// its divisor.
const (
	MultiPCMDivisor     = 224
	YMZ280BDivisor      = 192
	RF5C68Divisor       = 384
	SegaPCMDivisor      = 128
	OKIM6295Divisor     = 165
	OKIM6295DivisorPin7 = 132
	UPD7759Divisor      = 4
)

// Number of voices of each chip.
const (
	MultiPCMVoices = 28
	YMZ280BVoices  = 8
	RF5C68Voices   = 8
	SegaPCMVoices  = 16
	OKIM6295Voices = 4
	UPD7759Voices  = 1
)

// Common master clocks, used when a file does not give one.
const (
	DefaultMultiPCMClock = 9408000
	DefaultYMZ280BClock  = 16934400
	DefaultRF5C68Clock   = 12500000
	DefaultRF5C164Clock  = 12500000
	DefaultSegaPCMClock  = 4000000
	DefaultOKIM6295Clock = 1000000
	DefaultUPD7759Clock  = 640000
)
