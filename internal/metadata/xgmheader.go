package metadata

import (
	"encoding/binary"
	"fmt"
)

// VDPMode is the video timing the XGM log was captured under; it doubles
// as the external tick rate in Hz (60 for NTSC, 50 for PAL).
type VDPMode uint32

const (
	VDPModeNTSC VDPMode = 60
	VDPModePAL  VDPMode = 50
)

func (m VDPMode) String() string {
	if m == VDPModePAL {
		return "PAL"
	}
	return "NTSC"
}

// SampleEntry is one row of the XGM sample-id table: the sample's start
// address (in 256-byte units from the sample-data bloc) and its size (also
// in 256-byte units).
type SampleEntry struct {
	Address uint16 `json:"address"`
	Size    uint16 `json:"size"`
}

// SampleDataBlocAddress is the fixed byte offset where the XGM sample-data
// bloc begins, immediately after the magic, the 252-byte sample-id table,
// the 2-byte bloc-size field, the version byte and the flags byte.
const SampleDataBlocAddress = 0x104

// XgmHeader is the XGM preamble: see
// https://github.com/Stephane-D/SGDK/blob/master/bin/xgm.txt.
type XgmHeader struct {
	SampleIDTable      []SampleEntry `json:"sample_id_table"`
	SampleDataBlocSize uint16        `json:"sample_data_bloc_size"`
	Version            uint8         `json:"version"`
	VDPMode            VDPMode       `json:"vdp_mode"`
	GD3Tag             bool          `json:"gd3_tag"`
	MultiTrackFile     bool          `json:"multi_track_file"`
	MusicDataBlocSize  uint32        `json:"music_data_bloc_size"`
}

// ParseXgmHeader decodes an XGM file's fixed preamble.
func ParseXgmHeader(data []byte) (XgmHeader, error) {
	if len(data) < SampleDataBlocAddress {
		return XgmHeader{}, fmt.Errorf("metadata: xgm header truncated: got %d bytes", len(data))
	}
	if string(data[0:4]) != "XGM " {
		return XgmHeader{}, fmt.Errorf("metadata: bad xgm magic %q", data[0:4])
	}

	sampleTable := data[4:256]
	blocSizeOff := 256
	sampleDataBlocSize := binary.LittleEndian.Uint16(data[blocSizeOff : blocSizeOff+2])
	version := data[blocSizeOff+2]
	flags := data[blocSizeOff+3]

	vdpMode := VDPModeNTSC
	if flags&0b00000001 != 0 {
		vdpMode = VDPModePAL
	}
	gd3Tag := flags&0b00000010 != 0
	multiTrack := flags&0b00000100 != 0

	musicBlocOff := SampleDataBlocAddress + int(sampleDataBlocSize)*256
	if len(data) < musicBlocOff+4 {
		return XgmHeader{}, fmt.Errorf("metadata: xgm music data bloc size field truncated")
	}
	musicDataBlocSize := binary.LittleEndian.Uint32(data[musicBlocOff : musicBlocOff+4])

	var entries []SampleEntry
	for index := 0; index < 62; index++ {
		i := index * 4
		address := binary.LittleEndian.Uint16(sampleTable[i : i+2])
		// An empty entry has its address set to $FFFF; some files leave
		// size 0 in otherwise-used slots, which is not treated specially.
		if address == 0xffff {
			continue
		}
		size := binary.LittleEndian.Uint16(sampleTable[i+2 : i+4])
		entries = append(entries, SampleEntry{Address: address, Size: size})
	}

	return XgmHeader{
		SampleIDTable:      entries,
		SampleDataBlocSize: sampleDataBlocSize,
		Version:            version,
		VDPMode:            vdpMode,
		GD3Tag:             gd3Tag,
		MultiTrackFile:     multiTrack,
		MusicDataBlocSize:  musicDataBlocSize,
	}, nil
}

// GD3Offset returns the absolute byte offset of the XGM's optional GD3
// block, valid only when h.GD3Tag is true.
func (h XgmHeader) GD3Offset() int {
	return 0x108 + int(h.SampleDataBlocSize)*256 + int(h.MusicDataBlocSize)
}

// SequenceOffset returns the absolute byte offset where the XGM command
// sequence begins, immediately after the sample-data bloc and the 4-byte
// music-data-bloc-size field.
func (h XgmHeader) SequenceOffset() int {
	return SampleDataBlocAddress + int(h.SampleDataBlocSize)*256 + 4
}
