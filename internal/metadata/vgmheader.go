// Package metadata parses the VGM fixed header, its GD3 tag block, and the
// analogous XGM preamble, version-gating which fields are populated the
// same way the VGM specification itself gates them.
package metadata

import (
	"encoding/binary"
	"fmt"
)

// VgmHeader is the VGM file's 256-byte fixed header. Fields introduced by a
// later format version are left at their zero value when the file's own
// version predates them, matching https://vgmrips.net/wiki/VGM_Specification.
type VgmHeader struct {
	Eof               uint32 `json:"eof"`
	Version           uint32 `json:"version"`
	ClockSN76489      uint32 `json:"clock_sn76489"`
	ClockYM2413       uint32 `json:"clock_ym2413"`
	OffsetGD3         uint32 `json:"offset_gd3"`
	TotalSamples      uint32 `json:"total_samples"`
	OffsetLoop        uint32 `json:"offset_loop"`
	LoopSamples       uint32 `json:"loop_samples"`
	Rate              uint32 `json:"rate"`
	SN76489FB         uint16 `json:"sn76489_fb"`
	SN76489W          uint8  `json:"sn76489_w"`
	SN76489F          uint8  `json:"sn76489_f"`
	ClockYM2612       uint32 `json:"clock_ym2612"`
	ClockYM2151       uint32 `json:"clock_ym2151"`
	VgmDataOffset     uint32 `json:"vgm_data_offset"`
	SegaPCMClock      uint32 `json:"sega_pcm_clock"`
	SPCMInterface     uint32 `json:"spcm_interface"`
	ClockRF5C68       uint32 `json:"clock_rf5c68"`
	ClockYM2203       uint32 `json:"clock_ym2203"`
	ClockYM2608       uint32 `json:"clock_ym2608"`
	ClockYM2610B      uint32 `json:"clock_ym2610_b"`
	ClockYM3812       uint32 `json:"clock_ym3812"`
	ClockYM3526       uint32 `json:"clock_ym3526"`
	ClockY8950        uint32 `json:"clock_y8950"`
	ClockYMF262       uint32 `json:"clock_ymf262"`
	ClockYMF278B      uint32 `json:"clock_ymf278_b"`
	ClockYM271        uint32 `json:"clock_ym271"`
	ClockYMZ280B      uint32 `json:"clock_ymz280b"`
	ClockRF5C164      uint32 `json:"clock_rf5c164"`
	ClockPWM          uint32 `json:"clock_pwm"`
	ClockAY8910       uint32 `json:"clock_ay8910"`
	AY8910ChipType    uint8  `json:"ay8910_chip_type"`
	AY8910Flag        uint16 `json:"ay8910_flag"`
	VolumeModifier    uint8  `json:"volume_modifier"`
	LoopBase          uint8  `json:"loop_base"`
	LoopModifier      uint8  `json:"loop_modifier"`
	ClockGBDMG        uint32 `json:"clock_gb_dmg"`
	ClockNESAPU       uint32 `json:"clock_nes_apu"`
	ClockMultiPCM     uint32 `json:"clock_multi_pcm"`
	ClockUPD7759      uint32 `json:"clock_upd7759"`
	ClockOKIM6258     uint32 `json:"clock_okim6258"`
	OKIM6258Flag      uint8  `json:"okim6258_flag"`
	K054539Flag       uint8  `json:"k054539_flag"`
	C140ChipType      uint8  `json:"c140_chip_type"`
	ClockOKIM6295     uint32 `json:"clock_okim6295"`
	ClockK051649      uint32 `json:"clock_k051649"`
	ClockK054539      uint32 `json:"clock_k054539"`
	ClockHuC6280      uint32 `json:"clock_huc6280"`
	ClockC140         uint32 `json:"clock_c140"`
	ClockK053260      uint32 `json:"clock_k053260"`
	ClockPokey        uint32 `json:"clock_pokey"`
	ClockQSound       uint32 `json:"clock_qsound"`
	ClockSCSP         uint32 `json:"clock_scsp"`
	ExtraHdrOfs       uint32 `json:"extra_hdr_ofs"`
	ClockWonderSwan   uint32 `json:"clock_wonder_swan"`
	ClockVSU          uint32 `json:"clock_vsu"`
	ClockSAA1099      uint32 `json:"clock_saa1099"`
	ClockES5503       uint32 `json:"clock_es5503"`
	ClockES5506       uint32 `json:"clock_es5506"`
	ES5503Channels    uint8  `json:"es5503_amount_channel"`
	ES5506Channels    uint8  `json:"es5506_amount_channel"`
	C352ClockDivider  uint8  `json:"c352_clock_divider"`
	ClockX1010        uint32 `json:"clock_x1_010"`
	ClockC352         uint32 `json:"clock_c352"`
	ClockGA20         uint32 `json:"clock_ga20"`
}

const vgmHeaderSize = 0x100

// ParseVgmHeader decodes a VGM file's fixed header. data must contain at
// least the first 0x40 bytes of the file. Header bytes at or past the start
// of the command stream (see DataOffset), or past the end of data, read as
// zero. Fields belonging to a version higher than the file declares are
// left zero rather than read, so a version-1.00 file never has its reserved
// tail bytes misread as later clock fields.
func ParseVgmHeader(data []byte) (VgmHeader, error) {
	if len(data) < 0x40 {
		return VgmHeader{}, fmt.Errorf("metadata: vgm header truncated: got %d bytes, need %d", len(data), 0x40)
	}
	if string(data[0:4]) != "Vgm " {
		return VgmHeader{}, fmt.Errorf("metadata: bad vgm magic %q", data[0:4])
	}

	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(data[off : off+4]) }
	u16 := func(off int) uint16 { return binary.LittleEndian.Uint16(data[off : off+2]) }
	u8 := func(off int) uint8 { return data[off] }

	var h VgmHeader
	h.Eof = u32(0x04)

	// The version field is stored as four raw BCD-ish bytes, read in
	// reverse, concatenated as hex digits and parsed as decimal (e.g.
	// 51 01 00 00 -> "00000151" -> 151 for version 1.51); mirrored here
	// exactly as the source format encodes it.
	verBytes := data[0x08:0x0c]
	var verStr string
	for i := len(verBytes) - 1; i >= 0; i-- {
		verStr += fmt.Sprintf("%02X", verBytes[i])
	}
	var version uint32
	fmt.Sscanf(verStr, "%d", &version)
	h.Version = version

	// Read the remaining fields from a 0x100-byte copy in which every byte
	// from the command stream's start onward is zero.
	end := 0x40
	if off := u32(0x34); version >= 150 && off != 0 {
		end = 0x34 + int(off)
	}
	padded := make([]byte, vgmHeaderSize)
	copy(padded, data[:min(end, len(data))])
	data = padded

	if version < 100 {
		return h, nil
	}
	h.ClockSN76489 = u32(0x0c)
	h.ClockYM2413 = u32(0x10)
	h.OffsetGD3 = u32(0x14)
	h.TotalSamples = u32(0x18)
	h.OffsetLoop = u32(0x1c)
	h.LoopSamples = u32(0x20)

	if version < 101 {
		return h, nil
	}
	h.Rate = u32(0x24)

	if version < 110 {
		return h, nil
	}
	h.SN76489FB = u16(0x28)
	h.SN76489W = u8(0x2a)
	h.ClockYM2612 = u32(0x2c)
	h.ClockYM2151 = u32(0x30)

	if version < 150 {
		return h, nil
	}
	h.VgmDataOffset = u32(0x34)

	if version < 151 {
		return h, nil
	}
	h.SN76489F = u8(0x2b)
	h.SegaPCMClock = u32(0x38)
	h.SPCMInterface = u32(0x3c)
	h.ClockRF5C68 = u32(0x40)
	h.ClockYM2203 = u32(0x44)
	h.ClockYM2608 = u32(0x48)
	h.ClockYM2610B = u32(0x4c)
	h.ClockYM3812 = u32(0x50)
	h.ClockYM3526 = u32(0x54)
	h.ClockY8950 = u32(0x58)
	h.ClockYMF262 = u32(0x5c)
	h.ClockYMF278B = u32(0x60)
	h.ClockYM271 = u32(0x64)
	h.ClockYMZ280B = u32(0x68)
	h.ClockRF5C164 = u32(0x6c)
	h.ClockPWM = u32(0x70)
	h.ClockAY8910 = u32(0x74)
	h.AY8910ChipType = u8(0x78)
	h.AY8910Flag = u16(0x79)
	h.LoopModifier = u8(0x7f)

	if version < 160 {
		return h, nil
	}
	h.VolumeModifier = u8(0x7c)
	h.LoopBase = u8(0x7e)

	if version < 161 {
		return h, nil
	}
	h.ClockGBDMG = u32(0x80)
	h.ClockNESAPU = u32(0x84)
	h.ClockMultiPCM = u32(0x88)
	h.ClockUPD7759 = u32(0x8c)
	h.ClockOKIM6258 = u32(0x90)
	h.OKIM6258Flag = u8(0x94)
	h.K054539Flag = u8(0x95)
	h.C140ChipType = u8(0x96)
	h.ClockOKIM6295 = u32(0x98)
	h.ClockK051649 = u32(0x9c)
	h.ClockK054539 = u32(0xa0)
	h.ClockHuC6280 = u32(0xa4)
	h.ClockC140 = u32(0xa8)
	h.ClockK053260 = u32(0xac)
	h.ClockPokey = u32(0xb0)
	h.ClockQSound = u32(0xb4)

	if version < 170 {
		return h, nil
	}
	h.ExtraHdrOfs = u32(0xbc)

	if version < 171 {
		return h, nil
	}
	h.ClockSCSP = u32(0xb8)
	h.ClockWonderSwan = u32(0xc0)
	h.ClockVSU = u32(0xc4)
	h.ClockSAA1099 = u32(0xc8)
	h.ClockES5503 = u32(0xcc)
	h.ClockES5506 = u32(0xd0)
	h.ES5503Channels = u8(0xd4)
	h.ES5506Channels = u8(0xd5)
	h.C352ClockDivider = u8(0xd6)
	h.ClockX1010 = u32(0xd8)
	h.ClockC352 = u32(0xdc)
	h.ClockGA20 = u32(0xe0)

	return h, nil
}

// DataOffset returns the absolute byte offset where the VGM command stream
// begins, accounting for the version-1.50+ vgm_data_offset field (relative
// to its own location at 0x34) and falling back to the fixed 0x40 start
// used by every earlier version.
func (h VgmHeader) DataOffset() int {
	if h.Version < 150 || h.VgmDataOffset == 0 {
		return 0x40
	}
	return 0x34 + int(h.VgmDataOffset)
}

// GD3Offset returns the absolute byte offset of the GD3 block, or 0 if the
// header declares none.
func (h VgmHeader) GD3Offset() int {
	if h.OffsetGD3 == 0 {
		return 0
	}
	return 0x14 + int(h.OffsetGD3)
}

// LoopOffset returns the absolute byte offset the player should jump back
// to on loop, or 0 if the file declares no loop point.
func (h VgmHeader) LoopOffset() int {
	if h.OffsetLoop == 0 {
		return 0
	}
	return 0x1c + int(h.OffsetLoop)
}
