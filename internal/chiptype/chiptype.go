// Package chiptype defines the tag types shared across the playback engine:
// the sound chip catalogue, the ROM bank catalogue, and the wire encoding
// used by the programmatic (FFI/WASM) surface to name a chip without
// exposing a Go type.
package chiptype

// Type tags one of the sound chip implementations the engine knows how to
// drive. It names a capability set, not a concrete struct: chip.New(t)
// resolves it to an implementation.
type Type int

const (
	YM2149 Type = iota
	YM2151
	YM2203
	YM2413
	YM2608
	YM2610
	YM2612
	YM3526
	Y8950
	YM3812
	YMF262
	YMF278B
	SEGAPSG
	SN76489
	PWM
	SEGAPCM
	OKIM6258
	C140
)

// String returns the canonical chip name, used in log messages and in the
// metadata JSON surfaced to hosts.
func (t Type) String() string {
	switch t {
	case YM2149:
		return "YM2149"
	case YM2151:
		return "YM2151"
	case YM2203:
		return "YM2203"
	case YM2413:
		return "YM2413"
	case YM2608:
		return "YM2608"
	case YM2610:
		return "YM2610"
	case YM2612:
		return "YM2612"
	case YM3526:
		return "YM3526"
	case Y8950:
		return "Y8950"
	case YM3812:
		return "YM3812"
	case YMF262:
		return "YMF262"
	case YMF278B:
		return "YMF278B"
	case SEGAPSG:
		return "SEGAPSG"
	case SN76489:
		return "SN76489"
	case PWM:
		return "PWM"
	case SEGAPCM:
		return "SEGAPCM"
	case OKIM6258:
		return "OKIM6258"
	case C140:
		return "C140"
	default:
		return "UNKNOWN"
	}
}

// FromTag decodes the u32 chip-type wire encoding used by the programmatic
// surface (section 6 of the spec). ok is false for a value outside the
// enumerated range, which callers treat as a no-op rather than a panic.
func FromTag(tag uint32) (Type, bool) {
	if tag > uint32(OKIM6258) {
		return 0, false
	}
	return Type(tag), true
}

// Tag encodes t back to the wire u32 used by the programmatic surface.
func (t Type) Tag() uint32 { return uint32(t) }

// RomIndex tags a Rom Bank. Several chips can reference the same bank (e.g.
// a bank is created once per index and chips hold the index, not a pointer).
type RomIndex int

const (
	SEGAPCM_ROM RomIndex = iota
	YM2608_DELTA_T
	YM2610_ADPCM
	YM2610_DELTA_T
	YMF278B_ROM
	YMF278B_RAM
	Y8950_ROM
)

func (r RomIndex) String() string {
	switch r {
	case SEGAPCM_ROM:
		return "SEGAPCM_ROM"
	case YM2608_DELTA_T:
		return "YM2608_DELTA_T"
	case YM2610_ADPCM:
		return "YM2610_ADPCM"
	case YM2610_DELTA_T:
		return "YM2610_DELTA_T"
	case YMF278B_ROM:
		return "YMF278B_ROM"
	case YMF278B_RAM:
		return "YMF278B_RAM"
	case Y8950_ROM:
		return "Y8950_ROM"
	default:
		return "UNKNOWN_ROM"
	}
}

// RomIndexFromVGMDataType maps a VGM 0x67 data-block type byte (0x80-0xbf
// range) to the Rom Bank it targets. ok is false for a data type this
// engine does not route to any bank (e.g. compressed or unused dumps).
func RomIndexFromVGMDataType(dataType byte) (RomIndex, bool) {
	switch dataType {
	case 0x80:
		return SEGAPCM_ROM, true
	case 0x81:
		return YM2608_DELTA_T, true
	case 0x82:
		return YM2610_ADPCM, true
	case 0x83:
		return YM2610_DELTA_T, true
	case 0x84:
		return YMF278B_ROM, true
	case 0x87:
		return YMF278B_RAM, true
	case 0x88:
		return Y8950_ROM, true
	default:
		return 0, false
	}
}
