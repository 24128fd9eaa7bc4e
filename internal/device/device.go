// Package device implements the Sound Device: the pairing of one Sound
// Chip with the resampling Sound Stream that adapts its native rate to the
// slot's output rate, plus the data streams bound to that chip.
package device

import (
	"vgmslot/internal/chip"
	"vgmslot/internal/chiptype"
	"vgmslot/internal/datastream"
	"vgmslot/internal/rom"
	"vgmslot/internal/stream"
)

// Device pairs a chip with its resampling stream and the data streams that
// feed it PCM writes at a frequency independent of the host log's tick
// rate.
type Device struct {
	index       int
	chip        chip.SoundChip
	stream      stream.SoundStream
	dataStreams *datastream.Set
	nativeHz    uint32

	// writeAdjust holds register writes deferred by Write because the
	// stream's current output sample straddles a resampling boundary; they
	// are replayed once adjustTick counts down to 1, from within Generate.
	writeAdjust []adjustedWrite
	adjustTick  int
}

type adjustedWrite struct {
	port, data uint32
}

// New builds a Device for chipIndex (0 for a chip's first instance, 1 for
// its second if the log declares a dual-chip clock), wired to resample
// from nativeHz to outputHz.
func New(chipIndex int, c chip.SoundChip, nativeHz, outputHz uint32) *Device {
	return &Device{
		index:       chipIndex,
		chip:        c,
		stream:      stream.New(nativeHz, outputHz),
		dataStreams: datastream.NewSet(),
		nativeHz:    nativeHz,
	}
}

// Generate advances the chip through exactly the native ticks its stream
// needs to produce the next output sample and returns that sample.
func (d *Device) Generate(blocks *datastream.Set) (float32, float32) {
	for {
		isTick := d.stream.IsTick()
		if isTick == stream.TickNo {
			break
		}

		for _, ds := range d.dataStreams.All() {
			blockID, pos, port, reg, ok := ds.Tick()
			if !ok {
				continue
			}
			block := blocks.Block(blockID)
			if block == nil || pos < 0 || pos >= len(block.Data) {
				continue
			}
			// Address/data pair through the chip's register latch, the
			// same shape a log command uses to reach the target register.
			d.chip.Write(d.index, port, reg, d.stream)
			d.chip.Write(d.index, port+1, uint32(block.Data[pos]), d.stream)
		}

		if len(d.writeAdjust) > 0 && d.adjustTick == 1 {
			for _, w := range d.writeAdjust {
				d.chip.Write(d.index, w.port, w.data, d.stream)
			}
			d.writeAdjust = d.writeAdjust[:0]
		}
		if d.adjustTick > 0 {
			d.adjustTick--
		}

		d.chip.Tick(d.index, d.stream)

		if isTick != stream.TickOne {
			continue
		}
		break
	}
	return d.stream.Drain()
}

// Write delivers one register write to the chip. If the stream is a
// resampled one and no data stream is active, the write is held back two
// native ticks instead of applied immediately: the current output position
// may already be past the point in time this write logically belongs to,
// and with no data stream running there is no ongoing playback to keep in
// sync, so it is safe (and more faithful to the source log's timing) to
// delay it. A running data stream takes priority over that correction to
// keep its own sample-accurate timing intact.
func (d *Device) Write(port, data uint32) {
	streaming := false
	for _, ds := range d.dataStreams.All() {
		if ds.Active() {
			streaming = true
			break
		}
	}
	if !d.stream.IsAdjust() || streaming {
		d.chip.Write(d.index, port, data, d.stream)
		return
	}
	d.writeAdjust = append(d.writeAdjust, adjustedWrite{port, data})
	d.adjustTick = 2
}

// SetRomBank forwards a Rom Bank to the underlying chip.
func (d *Device) SetRomBank(romIndex chiptype.RomIndex, bank *rom.Bank) {
	d.chip.SetRomBank(romIndex, bank)
}

// NotifyAddRom forwards a Rom Bank append notification to the chip.
func (d *Device) NotifyAddRom(romIndex chiptype.RomIndex, indexNo int) {
	d.chip.NotifyAddRom(romIndex, indexNo)
}

// AddDataStream creates (or replaces) the data stream identified by
// streamID, bound to the given chip write port/register.
func (d *Device) AddDataStream(streamID int, writePort, writeReg uint32) {
	d.dataStreams.Stream(streamID, writePort, writeReg)
}

// SetDataStreamFrequency recalculates a data stream's per-tick step for the
// device's own native rate.
func (d *Device) SetDataStreamFrequency(streamID int, frequency uint32) {
	if ds, ok := d.dataStreams.StreamByID(streamID); ok {
		ds.SetFrequency(d.nativeRate(), frequency)
	}
}

// AttachDataBlockToStream binds an existing stream to a data block id.
func (d *Device) AttachDataBlockToStream(streamID, blockID int) {
	if ds, ok := d.dataStreams.StreamByID(streamID); ok {
		ds.SetDataBlockID(blockID)
	}
}

// StartDataStream begins playback from an explicit offset within the
// attached block.
func (d *Device) StartDataStream(streamID, startOffset, length int) {
	if ds, ok := d.dataStreams.StreamByID(streamID); ok {
		ds.Start(&startOffset, length)
	}
}

// StartDataStreamFast attaches blockID and restarts playback from the
// stream's configured start offset, matching the log formats' "fast start"
// command.
func (d *Device) StartDataStreamFast(streamID, blockID, length int) {
	if ds, ok := d.dataStreams.StreamByID(streamID); ok {
		ds.SetDataBlockID(blockID)
		ds.Start(nil, length)
	}
}

// StopDataStream halts playback of the named stream.
func (d *Device) StopDataStream(streamID int) {
	if ds, ok := d.dataStreams.StreamByID(streamID); ok {
		ds.Stop()
	}
}

// IsStopDataStream reports whether the named data stream is inactive: never
// started, finished naturally, or explicitly stopped. A stream id that was
// never created also counts as stopped, matching the XGM driver's use of
// this to decide whether a PCM channel is free for a new sample.
func (d *Device) IsStopDataStream(streamID int) bool {
	ds, ok := d.dataStreams.StreamByID(streamID)
	if !ok {
		return true
	}
	return !ds.Active()
}

// nativeRate returns the chip's native sampling rate, needed when a data
// stream's frequency is reconfigured mid-playback.
func (d *Device) nativeRate() uint32 {
	return d.nativeHz
}
