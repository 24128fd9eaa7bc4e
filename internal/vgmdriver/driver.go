// Package vgmdriver implements the VGM command stream dispatcher: it walks
// a parsed VGM file's command bytes, translates each into Sound Slot calls
// (chip writes, data block loads, stream control, waits), and reports how
// many external ticks to wait before the caller should advance the slot
// again.
package vgmdriver

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"

	"vgmslot/internal/chiptype"
	"vgmslot/internal/logging"
	"vgmslot/internal/metadata"
	"vgmslot/internal/slot"
)

// ExternalTickRate is the fixed external tick rate VGM's own wait commands
// are expressed in: 44100 "samples" per second regardless of the slot's
// actual output rate.
const ExternalTickRate = 44100

// Driver walks a parsed VGM file's command stream and drives a Slot.
type Driver struct {
	slot *slot.Slot
	log  *logging.Logger

	data []byte
	pos  int

	header metadata.VgmHeader
	gd3    metadata.Gd3

	loopOffset     int
	loopCount      int
	ended          bool
	remainingTicks int

	dacDataPos int // absolute offset of the most recently loaded PCM data block (0x67 type 0x00-0x3f)
	pcmPos     int // 0xe0 seek position relative to dacDataPos
	pcmOffset  int // bytes consumed since the last 0xe0 seek, advanced by each 0x80-0x8f command

	// streamChip records which chip each data stream id was bound to by a
	// 0x90 command, so the stream commands that follow (0x91-0x95, which
	// carry only the stream id) address the right device.
	streamChip map[int]chiptype.Type
}

// New parses file (transparently gunzipping a VGZ-wrapped file), builds a
// Slot sized to outputHz/chunkSize, and instantiates a Sound Device for
// every chip whose clock field in the header is non-zero.
func New(file []byte, outputHz uint32, chunkSize int, log *logging.Logger) (*Driver, error) {
	if log == nil {
		log = logging.Discard()
	}
	data := maybeGunzip(file)

	header, err := metadata.ParseVgmHeader(data)
	if err != nil {
		return nil, fmt.Errorf("vgmdriver: %w", err)
	}
	gd3 := metadata.Gd3{}
	if off := header.GD3Offset(); off > 0 && off < len(data) {
		gd3 = metadata.ParseGD3(data[off:])
	}

	s, err := slot.New(ExternalTickRate, outputHz, chunkSize, log)
	if err != nil {
		return nil, err
	}

	d := &Driver{
		slot:       s,
		log:        log,
		data:       data,
		pos:        header.DataOffset(),
		header:     header,
		gd3:        gd3,
		loopOffset: header.LoopOffset(),
		streamChip: make(map[int]chiptype.Type),
	}
	d.addChips()
	return d, nil
}

// maybeGunzip transparently unwraps a VGZ file (gzip magic 1F 8B);
// anything else, including a malformed gzip stream, is returned unchanged.
func maybeGunzip(file []byte) []byte {
	if len(file) < 2 || file[0] != 0x1f || file[1] != 0x8b {
		return file
	}
	r, err := gzip.NewReader(bytes.NewReader(file))
	if err != nil {
		return file
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil || len(out) == 0 {
		return file
	}
	return out
}

func (d *Driver) addChips() {
	h := &d.header
	add := func(t chiptype.Type, clock uint32) {
		if clock != 0 {
			d.slot.AddSoundDevice(t, 1, clock)
		}
	}
	add(chiptype.SN76489, h.ClockSN76489)
	add(chiptype.YM2413, h.ClockYM2413)
	add(chiptype.YM2612, h.ClockYM2612)
	add(chiptype.YM2151, h.ClockYM2151)
	add(chiptype.YM2203, h.ClockYM2203)
	add(chiptype.YM2608, h.ClockYM2608)
	add(chiptype.YM2610, h.ClockYM2610B)
	add(chiptype.YM3812, h.ClockYM3812)
	add(chiptype.YM3526, h.ClockYM3526)
	add(chiptype.Y8950, h.ClockY8950)
	add(chiptype.YMF262, h.ClockYMF262)
	add(chiptype.YMF278B, h.ClockYMF278B)
	add(chiptype.PWM, h.ClockPWM)
	add(chiptype.OKIM6258, h.ClockOKIM6258)
	add(chiptype.C140, h.ClockC140)
	if ay := h.ClockAY8910; ay != 0 {
		// Several early VGM encoders wrote the undoubled AY-3-8910 clock;
		// VGMPlay's own quirk table doubles these three known values.
		switch ay {
		case 1789772, 1789773, 2000000:
			ay *= 2
		}
		d.slot.AddSoundDevice(chiptype.YM2149, 1, ay)
	}
	if h.SegaPCMClock != 0 {
		d.slot.AddSoundDevice(chiptype.SEGAPCM, 1, h.SegaPCMClock)
	}
}

// Header returns the parsed VGM header.
func (d *Driver) Header() metadata.VgmHeader { return d.header }

// GD3 returns the parsed GD3 tag (zero value if the file carried none).
func (d *Driver) GD3() metadata.Gd3 { return d.gd3 }

// Slot returns the underlying Sound Slot, for callers that need direct
// access to its Stream/IsStreamFilled surface.
func (d *Driver) Slot() *slot.Slot { return d.slot }

func (d *Driver) u8() byte {
	if d.pos >= len(d.data) {
		d.ended = true
		return 0
	}
	b := d.data[d.pos]
	d.pos++
	return b
}

func (d *Driver) u16() uint16 {
	lo := uint16(d.u8())
	hi := uint16(d.u8())
	return lo | hi<<8
}

func (d *Driver) u32() uint32 {
	b0 := uint32(d.u8())
	b1 := uint32(d.u8())
	b2 := uint32(d.u8())
	b3 := uint32(d.u8())
	return b0 | b1<<8 | b2<<16 | b3<<24
}

func (d *Driver) skip(n int) {
	d.pos += n
	if d.pos > len(d.data) {
		d.pos = len(d.data)
	}
}

// Ended reports whether the command stream reached 0x66/0x67-EOF with no
// loop to take, or an explicit end-of-stream marker.
func (d *Driver) Ended() bool { return d.ended }

// LoopCount returns how many times the stream has looped so far.
func (d *Driver) LoopCount() int { return d.loopCount }

// Play runs the driver until the slot holds a full output chunk or the song
// ends, then latches that chunk for the caller to read through the slot's
// Output accessors. A partial final chunk is zero-padded by the latch.
// It returns the loop count so far and whether the song has ended; repeat
// selects whether a declared loop point rewinds instead of ending.
func (d *Driver) Play(repeat bool) (loopCount int, ended bool) {
	for !d.slot.IsStreamFilled() && !d.ended {
		for d.remainingTicks > 0 {
			d.slot.Update(1)
			d.remainingTicks--
			if d.slot.IsStreamFilled() {
				break
			}
		}
		if d.remainingTicks == 0 && !d.slot.IsStreamFilled() {
			d.remainingTicks = d.Step(repeat)
		}
	}
	d.slot.Stream()
	return d.loopCount, d.ended
}

// Step parses and executes exactly one command, returning the number of
// external ticks (at 44100 Hz) the caller should advance the slot before
// calling Step again. repeat selects whether an end-of-track command
// (0x66 with a declared loop point) rewinds instead of ending playback.
func (d *Driver) Step(repeat bool) int {
	if d.ended {
		return 0
	}
	cmd := d.u8()
	switch {
	case cmd == 0x4f:
		dat := d.u8()
		d.slot.Write(chiptype.SN76489, 0, 1, uint32(dat))
		return 0

	case cmd == 0x50:
		dat := d.u8()
		d.slot.Write(chiptype.SN76489, 0, 0, uint32(dat))
		return 0

	case cmd == 0x51:
		reg := d.u8()
		dat := d.u8()
		d.slot.Write(chiptype.YM2413, 0, uint32(reg), uint32(dat))
		return 0

	case cmd == 0x52 || cmd == 0x53:
		reg := d.u8()
		dat := d.u8()
		port := uint32(cmd&0x01) << 1
		d.slot.Write(chiptype.YM2612, 0, port, uint32(reg))
		d.slot.Write(chiptype.YM2612, 0, port+1, uint32(dat))
		return 0

	case cmd == 0x54:
		reg := d.u8()
		dat := d.u8()
		d.slot.Write(chiptype.YM2151, 0, uint32(reg), uint32(dat))
		return 0

	case cmd == 0x55:
		reg := d.u8()
		dat := d.u8()
		d.slot.Write(chiptype.YM2203, 0, uint32(reg), uint32(dat))
		return 0

	case cmd == 0x56 || cmd == 0x57:
		reg := d.u8()
		dat := d.u8()
		port := uint32(cmd & 0x01)
		d.slot.Write(chiptype.YM2608, 0, port<<8|uint32(reg), uint32(dat))
		return 0

	case cmd == 0x58 || cmd == 0x59:
		reg := d.u8()
		dat := d.u8()
		port := uint32(cmd & 0x01)
		d.slot.Write(chiptype.YM2610, 0, port<<8|uint32(reg), uint32(dat))
		return 0

	case cmd == 0x5a:
		reg := d.u8()
		dat := d.u8()
		d.slot.Write(chiptype.YM3812, 0, uint32(reg), uint32(dat))
		return 0

	case cmd == 0x5b:
		reg := d.u8()
		dat := d.u8()
		d.slot.Write(chiptype.YM3526, 0, uint32(reg), uint32(dat))
		return 0

	case cmd == 0x5c:
		reg := d.u8()
		dat := d.u8()
		d.slot.Write(chiptype.Y8950, 0, uint32(reg), uint32(dat))
		return 0

	case cmd == 0x5d:
		// YMZ280B: not an emulated chip type; consume its reg/data pair.
		d.skip(2)
		return 0

	case cmd == 0x5e || cmd == 0x5f:
		reg := d.u8()
		dat := d.u8()
		port := uint32(cmd & 0x01)
		d.slot.Write(chiptype.YMF262, 0, port<<8|uint32(reg), uint32(dat))
		return 0

	case cmd == 0x61:
		return int(d.u16())

	case cmd == 0x62:
		return 735

	case cmd == 0x63:
		return 882

	case cmd == 0x66:
		if d.loopOffset == 0 {
			d.ended = true
		} else if repeat {
			d.pos = d.loopOffset
			d.loopCount++
		} else {
			d.ended = true
		}
		return 0

	case cmd == 0x67:
		d.u8() // compatibility byte, always 0x66
		dataType := d.u8()
		size := int(d.u32())
		dataPos := d.pos
		d.skip(size)
		d.handleDataBlock(dataType, dataPos, size)
		return 0

	case cmd == 0x68:
		// PCM RAM write: 11 bytes, not modeled (no chip in this engine
		// exposes writable PCM RAM); skip its fixed length.
		d.skip(11)
		return 0

	case cmd >= 0x70 && cmd <= 0x7f:
		return int(cmd&0x0f) + 1

	case cmd >= 0x80 && cmd <= 0x8f:
		wait := int(cmd & 0x0f)
		if d.dacDataPos+d.pcmPos+d.pcmOffset < len(d.data) {
			sample := d.data[d.dacDataPos+d.pcmPos+d.pcmOffset]
			d.slot.Write(chiptype.YM2612, 0, 0, 0x2a)
			d.slot.Write(chiptype.YM2612, 0, 1, uint32(sample))
		}
		d.pcmOffset++
		return wait

	case cmd == 0x90:
		streamID := int(d.u8())
		chipFlag := d.u8()
		port := d.u8()
		reg := d.u8()
		t := vgmChipFromStreamFlag(chipFlag)
		d.streamChip[streamID] = t
		d.slot.AddDataStream(t, 0, streamID, uint32(port), uint32(reg))
		return 0

	case cmd == 0x91:
		streamID := int(d.u8())
		blockID := d.u8()
		d.u8() // stepsize, unmodeled
		d.u8() // stepbase, unmodeled
		d.slot.AttachDataBlockToStream(d.streamChipFor(streamID), 0, streamID, int(blockID))
		return 0

	case cmd == 0x92:
		streamID := int(d.u8())
		freq := d.u32()
		d.slot.SetDataStreamFrequency(d.streamChipFor(streamID), 0, streamID, freq)
		return 0

	case cmd == 0x93:
		streamID := int(d.u8())
		startOffset := int(d.u32())
		d.u8() // length mode, unmodeled (always treated as a byte count)
		length := int(d.u32())
		d.slot.StartDataStream(d.streamChipFor(streamID), 0, streamID, startOffset, length)
		return 0

	case cmd == 0x94:
		streamID := int(d.u8())
		d.slot.StopDataStream(d.streamChipFor(streamID), 0, streamID)
		return 0

	case cmd == 0x95:
		streamID := int(d.u8())
		blockID := int(d.u16())
		d.u8() // flags (loop/reverse), unmodeled
		// Length 0: the slot substitutes the block's own size.
		d.slot.StartDataStreamFast(d.streamChipFor(streamID), 0, streamID, blockID, 0)
		return 0

	case cmd == 0xa0:
		reg := d.u8()
		dat := d.u8()
		d.slot.Write(chiptype.YM2149, 0, uint32(reg), uint32(dat))
		return 0

	case cmd == 0xb2:
		raw1 := d.u8()
		raw2 := d.u8()
		channel := uint32(raw1&0xf0) >> 4
		data := uint32(raw1&0x0f)<<8 | uint32(raw2)
		d.slot.Write(chiptype.PWM, 0, channel, data)
		return 0

	case cmd == 0xb7:
		reg := d.u8()
		dat := d.u8()
		d.slot.Write(chiptype.OKIM6258, 0, uint32(reg), uint32(dat))
		return 0

	case cmd == 0xc0:
		offset := d.u16()
		dat := d.u8()
		d.slot.Write(chiptype.SEGAPCM, 0, uint32(offset), uint32(dat))
		return 0

	case cmd == 0xd0:
		d.u8() // port
		reg := d.u8()
		dat := d.u8()
		d.slot.Write(chiptype.YMF278B, 0, uint32(reg), uint32(dat))
		return 0

	case cmd == 0xe0:
		d.pcmPos = int(d.u32())
		d.pcmOffset = 0
		return 0

	// Commands with a documented fixed length this engine has no chip for:
	// skip their bytes so the stream stays in sync.
	case cmd >= 0x30 && cmd <= 0x4e:
		d.skip(1)
		return 0
	case cmd >= 0xb0 && cmd <= 0xb6, cmd >= 0xb8 && cmd <= 0xbf:
		d.skip(2)
		return 0
	case cmd >= 0xc1 && cmd <= 0xc8, cmd >= 0xd1 && cmd <= 0xd6:
		d.skip(3)
		return 0
	case cmd >= 0xe1 && cmd <= 0xff:
		d.skip(4)
		return 0

	default:
		d.log.Warnf(logging.ComponentVGM, "unknown command 0x%02x at offset 0x%x, skipping", cmd, d.pos-1)
		return 0
	}
}

// handleDataBlock routes a 0x67 data block to either the PCM-stream data
// area (types 0x00-0x3f, uncompressed recorded streams for YM2612) or a
// Rom Bank (types 0x80-0xbf).
func (d *Driver) handleDataBlock(dataType byte, dataPos, size int) {
	switch {
	case dataType <= 0x3f:
		d.dacDataPos = dataPos
		d.slot.AddDataBlock(int(dataType), d.data[dataPos:dataPos+size])

	default:
		romIndex, ok := chiptype.RomIndexFromVGMDataType(dataType)
		if !ok || size < 8 {
			return
		}
		romSize := binary.LittleEndian.Uint32(d.data[dataPos : dataPos+4])
		startAddress := binary.LittleEndian.Uint32(d.data[dataPos+4 : dataPos+8])
		var dataSize uint32
		if startAddress < romSize {
			dataSize = min(uint32(size)-8, romSize-startAddress)
		}
		if dataSize == 0 {
			return
		}
		start := int(startAddress)
		d.slot.AddRom(romIndex, d.data[dataPos+8:dataPos+8+int(dataSize)], start, start+int(dataSize)-1)
	}
}

// streamChipFor returns the chip a data stream id was bound to by its 0x90
// setup command, defaulting to the YM2612 (the only chip VGM stream
// commands target in practice) for a stream that was never set up.
func (d *Driver) streamChipFor(streamID int) chiptype.Type {
	if t, ok := d.streamChip[streamID]; ok {
		return t
	}
	return chiptype.YM2612
}

// vgmChipFromStreamFlag decodes the 0x90 command's chip-select byte (bit 7,
// the second-instance flag, is masked off). Only the chip types this engine
// instantiates are mapped; anything else falls back to the YM2612, whose
// DAC path is the only one VGM stream commands target in practice.
func vgmChipFromStreamFlag(flag byte) chiptype.Type {
	switch flag & 0x7f {
	case 0x00:
		return chiptype.SN76489
	case 0x01:
		return chiptype.YM2413
	case 0x03:
		return chiptype.YM2151
	case 0x04:
		return chiptype.SEGAPCM
	case 0x06:
		return chiptype.YM2203
	case 0x07:
		return chiptype.YM2608
	case 0x08:
		return chiptype.YM2610
	case 0x09:
		return chiptype.YM3812
	case 0x0a:
		return chiptype.YM3526
	case 0x0b:
		return chiptype.Y8950
	case 0x0c:
		return chiptype.YMF262
	case 0x0d:
		return chiptype.YMF278B
	case 0x11:
		return chiptype.PWM
	case 0x17:
		return chiptype.OKIM6258
	default:
		return chiptype.YM2612
	}
}
