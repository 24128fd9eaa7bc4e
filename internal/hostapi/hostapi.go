// Package hostapi is the id-keyed registry a foreign-function or WASM host
// calls into: every operation is addressed by a small integer id instead of
// a Go-native handle, mirroring a C ABI's "opaque handle" convention without
// this package itself owning any cgo or js/wasm export glue. A caller
// embedding this engine in a cgo shared library or a syscall/js build
// exports these functions directly; this package only owns the registries
// and the dispatch.
//
// Single-threaded by design (see internal/slot's package doc): every
// function here assumes exclusive, non-reentrant access, matching the
// playback engine's own cooperative scheduling model.
package hostapi

import (
	"vgmslot/internal/chiptype"
	"vgmslot/internal/logging"
	"vgmslot/internal/metadata"
	"vgmslot/internal/slot"
	"vgmslot/internal/vgmdriver"
)

var (
	memory = map[uint32][]byte{}
	slots  = map[uint32]*slot.Slot{}
	vgms   = map[uint32]*vgmdriver.Driver{}
)

// MemoryAlloc reserves a zero-filled buffer of length bytes under id,
// replacing any buffer previously held at that id.
func MemoryAlloc(id uint32, length uint32) {
	memory[id] = make([]byte, length)
}

// MemoryGetRef returns the buffer registered at id, for the host to fill
// with file bytes before a Create call reads it.
func MemoryGetRef(id uint32) ([]byte, bool) {
	b, ok := memory[id]
	return b, ok
}

// MemoryDrop releases the buffer at id.
func MemoryDrop(id uint32) {
	delete(memory, id)
}

// SoundSlotCreate constructs a Sound Slot under id.
func SoundSlotCreate(id uint32, externalTickRate, outputSamplingRate uint32, outputSampleChunkSize uint32) bool {
	s, err := slot.New(externalTickRate, outputSamplingRate, int(outputSampleChunkSize), nil)
	if err != nil {
		return false
	}
	slots[id] = s
	return true
}

// SoundSlotDrop releases the slot at id.
func SoundSlotDrop(id uint32) {
	delete(slots, id)
}

// SoundSlotAddSoundDevice wires count chips of chipType at clock Hz into
// the slot at id.
func SoundSlotAddSoundDevice(id uint32, chipType chiptype.Type, count uint32, clock uint32) bool {
	s, ok := slots[id]
	if !ok {
		return false
	}
	s.AddSoundDevice(chipType, int(count), clock)
	return true
}

// SoundSlotWrite delivers one register write to the named chip instance in
// the slot at id.
func SoundSlotWrite(id uint32, chipType chiptype.Type, chipIndex int, port, data uint32) bool {
	s, ok := slots[id]
	if !ok {
		return false
	}
	s.Write(chipType, chipIndex, port, data)
	return true
}

// SoundSlotUpdate advances the slot at id by tickCount external ticks.
func SoundSlotUpdate(id uint32, tickCount uint32) bool {
	s, ok := slots[id]
	if !ok {
		return false
	}
	s.Update(int(tickCount))
	return true
}

// SoundSlotIsStreamFilled reports whether the slot at id holds a full
// output chunk.
func SoundSlotIsStreamFilled(id uint32) (bool, bool) {
	s, ok := slots[id]
	if !ok {
		return false, false
	}
	return s.IsStreamFilled(), true
}

// SoundSlotStream drains one chunk from the slot at id.
func SoundSlotStream(id uint32) bool {
	s, ok := slots[id]
	if !ok {
		return false
	}
	s.Stream()
	return true
}

// SoundSlotSamplingLRef returns the left channel of the slot's most
// recently streamed chunk.
func SoundSlotSamplingLRef(id uint32) ([]float32, bool) {
	s, ok := slots[id]
	if !ok {
		return nil, false
	}
	return s.OutputL(), true
}

// SoundSlotSamplingRRef returns the right channel of the slot's most
// recently streamed chunk.
func SoundSlotSamplingRRef(id uint32) ([]float32, bool) {
	s, ok := slots[id]
	if !ok {
		return nil, false
	}
	return s.OutputR(), true
}

// SoundSlotSamplingS16LERef returns the slot's most recently streamed
// chunk as interleaved signed 16-bit samples.
func SoundSlotSamplingS16LERef(id uint32) ([]int16, bool) {
	s, ok := slots[id]
	if !ok {
		return nil, false
	}
	return s.OutputS16LE(), true
}

// SoundSlotAddRom appends the buffer at memoryID to the named Rom Bank on the
// slot at id, as the segment covering ROM addresses startAddress through
// endAddress.
func SoundSlotAddRom(id uint32, romIndex chiptype.RomIndex, memoryID uint32, startAddress, endAddress uint32) bool {
	s, ok := slots[id]
	if !ok {
		return false
	}
	data, ok := memory[memoryID]
	if !ok {
		return false
	}
	s.AddRom(romIndex, data, int(startAddress), int(endAddress))
	return true
}

// SoundSlotAddDataBlock stores the buffer at memoryID as data block
// blockID on the slot at id.
func SoundSlotAddDataBlock(id uint32, blockID uint32, memoryID uint32) bool {
	s, ok := slots[id]
	if !ok {
		return false
	}
	data, ok := memory[memoryID]
	if !ok {
		return false
	}
	s.AddDataBlock(int(blockID), data)
	return true
}

// SoundSlotAddDataStream creates a data stream on the named chip instance.
func SoundSlotAddDataStream(id uint32, chipType chiptype.Type, chipIndex, streamID int, writePort, writeReg uint32) bool {
	s, ok := slots[id]
	if !ok {
		return false
	}
	s.AddDataStream(chipType, chipIndex, streamID, writePort, writeReg)
	return true
}

// SoundSlotSetDataStreamFrequency reconfigures a data stream's frequency.
func SoundSlotSetDataStreamFrequency(id uint32, chipType chiptype.Type, chipIndex, streamID int, frequency uint32) bool {
	s, ok := slots[id]
	if !ok {
		return false
	}
	s.SetDataStreamFrequency(chipType, chipIndex, streamID, frequency)
	return true
}

// SoundSlotAttachDataBlockToStream binds a data stream to a data block.
func SoundSlotAttachDataBlockToStream(id uint32, chipType chiptype.Type, chipIndex, streamID, blockID int) bool {
	s, ok := slots[id]
	if !ok {
		return false
	}
	s.AttachDataBlockToStream(chipType, chipIndex, streamID, blockID)
	return true
}

// SoundSlotStartDataStream begins playback from an explicit offset.
func SoundSlotStartDataStream(id uint32, chipType chiptype.Type, chipIndex, streamID, startOffset, length int) bool {
	s, ok := slots[id]
	if !ok {
		return false
	}
	s.StartDataStream(chipType, chipIndex, streamID, startOffset, length)
	return true
}

// SoundSlotStartDataStreamFast attaches a block and starts playback from the
// stream's start offset.
func SoundSlotStartDataStreamFast(id uint32, chipType chiptype.Type, chipIndex, streamID, blockID, length int) bool {
	s, ok := slots[id]
	if !ok {
		return false
	}
	s.StartDataStreamFast(chipType, chipIndex, streamID, blockID, length)
	return true
}

// SoundSlotStopDataStream halts a data stream.
func SoundSlotStopDataStream(id uint32, chipType chiptype.Type, chipIndex, streamID int) bool {
	s, ok := slots[id]
	if !ok {
		return false
	}
	s.StopDataStream(chipType, chipIndex, streamID)
	return true
}

// VgmCreate parses the VGM/VGZ bytes held at memoryID and registers the
// resulting driver (and the slot it owns) under id.
func VgmCreate(id uint32, outputSamplingRate uint32, outputSampleChunkSize uint32, memoryID uint32) bool {
	data, ok := memory[memoryID]
	if !ok {
		return false
	}
	d, err := vgmdriver.New(data, outputSamplingRate, int(outputSampleChunkSize), logging.Discard())
	if err != nil {
		return false
	}
	vgms[id] = d
	return true
}

// VgmDrop releases the driver at id.
func VgmDrop(id uint32) {
	delete(vgms, id)
}

// VgmGetSamplingLRef returns the left channel of the VGM driver's slot's
// most recently streamed chunk.
func VgmGetSamplingLRef(id uint32) ([]float32, bool) {
	d, ok := vgms[id]
	if !ok {
		return nil, false
	}
	return d.Slot().OutputL(), true
}

// VgmGetSamplingRRef returns the right channel, analogous to
// VgmGetSamplingLRef.
func VgmGetSamplingRRef(id uint32) ([]float32, bool) {
	d, ok := vgms[id]
	if !ok {
		return nil, false
	}
	return d.Slot().OutputR(), true
}

// VgmGetSamplingS16LERef returns the interleaved signed 16-bit view,
// analogous to VgmGetSamplingLRef.
func VgmGetSamplingS16LERef(id uint32) ([]int16, bool) {
	d, ok := vgms[id]
	if !ok {
		return nil, false
	}
	return d.Slot().OutputS16LE(), true
}

// VgmGetSeqHeader returns the parsed VGM header for the driver at id.
func VgmGetSeqHeader(id uint32) (metadata.VgmHeader, bool) {
	d, ok := vgms[id]
	if !ok {
		return metadata.VgmHeader{}, false
	}
	return d.Header(), true
}

// VgmPlay runs the driver at id until its slot's output chunk is filled or
// the song ends, latching the chunk for the sampling-ref accessors. It
// reports the loop count so far and whether the song has ended; a host
// keeps calling until ended is true, reading one chunk per call.
func VgmPlay(id uint32) (loopCount int, ended bool, ok bool) {
	d, ok := vgms[id]
	if !ok {
		return 0, false, false
	}
	loopCount, ended = d.Play(true)
	return loopCount, ended, true
}
