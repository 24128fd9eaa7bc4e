// Package xgmdriver implements the XGM command stream dispatcher: the
// Sega Genesis-oriented compressed log format's 60/50 Hz frame-driven
// command set, including its four-channel YM2612 DAC data-stream path and
// loop handling.
package xgmdriver

import (
	"bytes"
	"compress/gzip"
	"io"

	"vgmslot/internal/chiptype"
	"vgmslot/internal/logging"
	"vgmslot/internal/metadata"
	"vgmslot/internal/slot"
)

// Master clocks the Mega Drive's own chips are derived from; see
// https://github.com/Stephane-D/SGDK/blob/master/bin/xgm.txt.
const (
	masterClockNTSC = 53_693_175
	masterClockPAL  = 53_203_424

	// pcmSamplingRate is the fixed rate every XGM PCM channel's data
	// stream runs at: 8-bit samples at 14 KHz, matching the SGDK driver's
	// own DAC playback rate.
	pcmSamplingRate = 14_000
	pcmMaxChannel   = 4
)

// Driver walks a parsed XGM file's command stream and drives a Slot.
type Driver struct {
	slot *slot.Slot
	log  *logging.Logger

	data []byte
	pos  int

	header metadata.XgmHeader
	gd3    metadata.Gd3

	loopOffset     int
	loopCount      int
	ended          bool
	remainingTicks int
	sampleIDMax    int
	pcmPriority    [pcmMaxChannel]byte
	pcmNowPlay     [pcmMaxChannel]bool
}

// New parses file (transparently gunzipping an XGZ-wrapped file), builds a
// Slot sized to outputHz/chunkSize at the NTSC or PAL frame rate the
// header's flags declare, and wires up the YM2612/SEGAPSG pair plus the
// four PCM data streams channel 0x50-0x5f commands address.
func New(file []byte, outputHz uint32, chunkSize int, log *logging.Logger) (*Driver, error) {
	if log == nil {
		log = logging.Discard()
	}
	data := maybeGunzip(file)

	header, err := metadata.ParseXgmHeader(data)
	if err != nil {
		return nil, err
	}
	gd3 := metadata.Gd3{}
	if header.GD3Tag {
		if off := header.GD3Offset(); off >= 0 && off < len(data) {
			gd3 = metadata.ParseGD3(data[off:])
		}
	}

	externalHz := uint32(metadata.VDPModeNTSC)
	s, err := slot.New(externalHz, outputHz, chunkSize, log)
	if err != nil {
		return nil, err
	}
	if header.VDPMode == metadata.VDPModePAL {
		s.SetExternalHz(uint32(metadata.VDPModePAL))
	}

	d := &Driver{
		slot:       s,
		log:        log,
		data:       data,
		pos:        header.SequenceOffset(),
		header:     header,
		gd3:        gd3,
		loopOffset: header.SequenceOffset(),
	}
	d.addChips()
	d.addPCMChannels()
	d.loadSampleTable()
	return d, nil
}

// maybeGunzip transparently unwraps an XGZ file; anything else, including a
// malformed gzip stream, is returned unchanged.
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

// addChips derives the YM2612/SN76489 (SEGAPSG) clocks from the console's
// master oscillator. The PAL branch keeps the NTSC master clock for the PSG, a
// quirk the reference driver carries deliberately rather than a bug to fix:
// SGDK never recalculated it for PAL titles.
func (d *Driver) addChips() {
	masterClock := uint32(masterClockNTSC)
	if d.header.VDPMode == metadata.VDPModePAL {
		masterClock = masterClockPAL
	}
	clockYM2612 := masterClock / 7
	clockSN76489 := uint32(masterClockNTSC) / 15

	d.slot.AddSoundDevice(chiptype.YM2612, 1, clockYM2612)
	d.slot.AddSoundDevice(chiptype.SEGAPSG, 1, clockSN76489)
}

// addPCMChannels creates the four DAC data streams XGM's 0x50-0x5f PCM
// play command addresses, all bound to the YM2612's DAC register 0x2a.
func (d *Driver) addPCMChannels() {
	for ch := 0; ch < pcmMaxChannel; ch++ {
		d.slot.AddDataStream(chiptype.YM2612, 0, ch, 0, 0x2a)
		d.slot.SetDataStreamFrequency(chiptype.YM2612, 0, ch, pcmSamplingRate)
	}
}

// loadSampleTable registers every non-empty entry of the header's sample-id
// table as a data block. Sample id 0 is reserved to mean "stop playback",
// so ids start at 1 and are assigned positionally over the table's
// non-empty entries, matching the reference driver's own enumeration.
func (d *Driver) loadSampleTable() {
	for i, entry := range d.header.SampleIDTable {
		start := int(entry.Address)*256 + metadata.SampleDataBlocAddress
		end := int(entry.Size)*256 + start
		if start < 0 || end > len(d.data) || start > end {
			continue
		}
		blockID := i + 1
		d.slot.AddDataBlock(blockID, d.data[start:end])
		d.sampleIDMax = blockID
	}
}

// Header returns the parsed XGM header.
func (d *Driver) Header() metadata.XgmHeader { return d.header }

// GD3 returns the parsed GD3 tag (zero value if the file carried none or
// its header didn't declare one).
func (d *Driver) GD3() metadata.Gd3 { return d.gd3 }

// Slot returns the underlying Sound Slot.
func (d *Driver) Slot() *slot.Slot { return d.slot }

// Ended reports whether the command stream reached an explicit end command
// with no loop to take.
func (d *Driver) Ended() bool { return d.ended }

// LoopCount returns how many times the stream has looped so far.
func (d *Driver) LoopCount() int { return d.loopCount }

func (d *Driver) u8() byte {
	if d.pos >= len(d.data) {
		d.ended = true
		return 0
	}
	b := d.data[d.pos]
	d.pos++
	return b
}

func (d *Driver) u24() uint32 {
	b0 := uint32(d.u8())
	b1 := uint32(d.u8())
	b2 := uint32(d.u8())
	return b0 | b1<<8 | b2<<16
}

func runLength(cmd byte) int { return int(cmd&0x0f) + 1 }

// Play runs the driver until the slot holds a full output chunk or the song
// ends, then latches that chunk for the caller to read through the slot's
// Output accessors. A partial final chunk is zero-padded by the latch.
// It returns the loop count so far and whether the song has ended; repeat
// selects whether a 0x7e loop command rewinds instead of ending.
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
// external ticks (one frame, 60 Hz NTSC or 50 Hz PAL) the caller should
// advance the slot before calling Step again. Unlike VGM, an unrecognized
// command byte is a fatal parse error: XGM's encoder never emits anything
// outside this table, so seeing one means the cursor has desynchronized.
func (d *Driver) Step(repeat bool) int {
	if d.ended {
		return 0
	}
	cmd := d.u8()
	switch {
	case cmd == 0x00:
		return 1

	case cmd >= 0x10 && cmd <= 0x1f:
		for i := 0; i < runLength(cmd); i++ {
			dat := d.u8()
			d.slot.Write(chiptype.SEGAPSG, 0, 0, uint32(dat))
		}
		return 0

	case cmd >= 0x20 && cmd <= 0x2f:
		// YM2612 port 0 register block: address/data pair through the
		// chip's bus latch (ports 0/1), the same two-write sequence the
		// VGM 0x52 command uses.
		for i := 0; i < runLength(cmd); i++ {
			reg := d.u8()
			dat := d.u8()
			d.slot.Write(chiptype.YM2612, 0, 0, uint32(reg))
			d.slot.Write(chiptype.YM2612, 0, 1, uint32(dat))
		}
		return 0

	case cmd >= 0x30 && cmd <= 0x3f:
		// YM2612 port 1 register block: the command byte itself selects
		// the latch's second group (ports 2/3). See the spec's open
		// question on this encoding in section 9.
		for i := 0; i < runLength(cmd); i++ {
			reg := d.u8()
			dat := d.u8()
			d.slot.Write(chiptype.YM2612, 0, 2, uint32(reg))
			d.slot.Write(chiptype.YM2612, 0, 3, uint32(dat))
		}
		return 0

	case cmd >= 0x40 && cmd <= 0x4f:
		// Key-on/off: always register 0x28 on port 0, one data byte per
		// repeat.
		for i := 0; i < runLength(cmd); i++ {
			dat := d.u8()
			d.slot.Write(chiptype.YM2612, 0, 0, 0x28)
			d.slot.Write(chiptype.YM2612, 0, 1, uint32(dat))
		}
		return 0

	case cmd >= 0x50 && cmd <= 0x5f:
		priority := cmd & 0x0c
		channel := int(cmd & 0x03)
		sampleID := int(d.u8())
		d.pcmPlay(channel, priority, sampleID)
		return 0

	case cmd == 0x7e:
		loopOffset := int(d.u24())
		if repeat {
			d.pos = d.loopOffset + loopOffset
			d.loopCount++
		} else {
			d.ended = true
		}
		return 0

	case cmd == 0x7f:
		d.ended = true
		return 0

	default:
		d.log.Errorf("xgm: unknown command 0x%02x at offset 0x%x", cmd, d.pos-1)
		d.ended = true
		return 0
	}
}

// pcmPlay implements the 0x50-0x5f priority/preemption logic: a channel
// already playing only yields to a new sample if the new command's
// priority is at least as high, after first refreshing whether the
// previous stream has naturally finished.
func (d *Driver) pcmPlay(channel int, priority byte, sampleID int) {
	if d.pcmNowPlay[channel] && d.slot.IsStopDataStream(chiptype.YM2612, 0, channel) {
		d.pcmNowPlay[channel] = false
	}
	if d.pcmNowPlay[channel] && d.pcmPriority[channel] > priority {
		return
	}
	if sampleID == 0 || sampleID > d.sampleIDMax {
		d.slot.StopDataStream(chiptype.YM2612, 0, channel)
		d.pcmPriority[channel] = 0
		d.pcmNowPlay[channel] = false
		return
	}
	d.slot.StartDataStreamFast(chiptype.YM2612, 0, channel, sampleID, 0)
	d.pcmPriority[channel] = priority
	d.pcmNowPlay[channel] = true
}
