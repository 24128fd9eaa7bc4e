// Package slot implements the Sound Slot: the top-level mixer and scheduler
// that owns every Sound Device, dispatches register writes and ROM loads to
// them by chip type, and renders interleaved stereo PCM at a caller-chosen
// output rate in fixed-size chunks regardless of how many ticks the driver
// advances between Stream calls.
package slot

import (
	"fmt"

	"vgmslot/internal/chip"
	"vgmslot/internal/chiptype"
	"vgmslot/internal/clock"
	"vgmslot/internal/datastream"
	"vgmslot/internal/device"
	"vgmslot/internal/logging"
	"vgmslot/internal/rom"
)

// deviceKey identifies one chip instance: its type plus which of possibly
// two instances of that type (VGM's dual-chip clock bit) it is.
type deviceKey struct {
	chipType chiptype.Type
	index    int
}

// Slot is the Sound Slot: it owns every Sound Device keyed by chip type and
// instance, the Rom Banks shared among them, the data blocks referenced by
// data streams, and the output ring buffer that Stream drains in
// caller-chosen chunk sizes.
type Slot struct {
	outputHz      uint32
	chunkSize     int
	pos           float64
	rate          clock.Rate
	bufferL       []float32
	bufferR       []float32
	chunkL        []float32
	chunkR        []float32
	chunkS16      []int16 // interleaved L/R, materialized lazily by OutputS16LE
	chunkS16Valid bool
	devices       map[deviceKey]*device.Device
	deviceOrder   []*device.Device      // insertion order, so mixing sums in a stable order
	deviceList    map[chiptype.Type]int // count of instances added, for index assignment
	roms          *rom.Set
	blocks        *datastream.Set
	log           *logging.Logger
}

// New creates a Slot. externalHz is the log driver's own tick rate (44100
// for VGM, 60 or 50 for XGM); outputHz must be >= externalHz.
func New(externalHz, outputHz uint32, chunkSize int, log *logging.Logger) (*Slot, error) {
	rate, err := clock.New(externalHz, outputHz)
	if err != nil {
		return nil, fmt.Errorf("slot: %w", err)
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Slot{
		outputHz:   outputHz,
		chunkSize:  chunkSize,
		rate:       rate,
		chunkL:     make([]float32, chunkSize),
		chunkR:     make([]float32, chunkSize),
		devices:    make(map[deviceKey]*device.Device),
		deviceList: make(map[chiptype.Type]int),
		roms:       rom.NewSet(),
		blocks:     datastream.NewSet(),
		log:        log,
	}, nil
}

// SetExternalHz recomputes the tick/output step ratio, used by the XGM
// driver when it switches between NTSC (60 Hz) and PAL (50 Hz) mid-stream.
func (s *Slot) SetExternalHz(externalHz uint32) {
	s.rate = s.rate.WithExternalHz(externalHz)
}

// AddSoundDevice instantiates count chips of the given type at clock Hz,
// each wired to its own resampling stream and data-stream set. Chip types
// that read ROM have their bank(s) wired immediately rather than waiting
// for the first AddRom call, so a chip added after its ROM already loaded
// and one added before behave identically.
func (s *Slot) AddSoundDevice(t chiptype.Type, count int, clock uint32) {
	for n := 0; n < count; n++ {
		idx := s.deviceList[t]
		s.deviceList[t] = idx + 1

		c, _ := chip.New(t)
		nativeHz := c.Init(clock)
		d := device.New(idx, c, nativeHz, s.outputHz)
		s.devices[deviceKey{t, idx}] = d
		s.deviceOrder = append(s.deviceOrder, d)
		for _, romIndex := range romIndicesFor(t) {
			d.SetRomBank(romIndex, s.roms.Bank(romIndex))
		}
		s.log.Debugf(logging.ComponentSlot, "added %s instance %d at clock %d Hz (native %d Hz)", t, idx, clock, nativeHz)
	}
}

// romIndicesFor returns the Rom Bank(s) a chip type auto-binds at
// construction, per spec.md §4.6.
func romIndicesFor(t chiptype.Type) []chiptype.RomIndex {
	switch t {
	case chiptype.SEGAPCM:
		return []chiptype.RomIndex{chiptype.SEGAPCM_ROM}
	case chiptype.YM2608:
		return []chiptype.RomIndex{chiptype.YM2608_DELTA_T}
	case chiptype.YM2610:
		return []chiptype.RomIndex{chiptype.YM2610_ADPCM, chiptype.YM2610_DELTA_T}
	case chiptype.YMF278B:
		return []chiptype.RomIndex{chiptype.YMF278B_ROM, chiptype.YMF278B_RAM}
	case chiptype.Y8950:
		return []chiptype.RomIndex{chiptype.Y8950_ROM}
	default:
		return nil
	}
}

// find returns the device for (t, index), or nil if none was added.
func (s *Slot) find(t chiptype.Type, index int) *device.Device {
	return s.devices[deviceKey{t, index}]
}

// Write delivers a register write to the named chip instance. Unknown
// (type, index) pairs are a no-op: a log referencing a chip the header
// never declared is a resource-limit condition the engine tolerates rather
// than fails on.
func (s *Slot) Write(t chiptype.Type, index int, port, data uint32) {
	d := s.find(t, index)
	if d == nil {
		return
	}
	d.Write(port, data)
}

// AddRom appends a ROM segment to the named bank and notifies every chip
// instance that might read it.
func (s *Slot) AddRom(romIndex chiptype.RomIndex, data []byte, start, endInclusive int) {
	s.roms.Add(romIndex, data, start, endInclusive)
	bank := s.roms.Bank(romIndex)
	for key, d := range s.devices {
		d.SetRomBank(romIndex, bank)
		d.NotifyAddRom(romIndex, key.index)
	}
}

// AddDataBlock stores data under blockID for later reference by AddDataStream
// → AttachDataBlockToStream.
func (s *Slot) AddDataBlock(blockID int, data []byte) {
	s.blocks.AddBlock(blockID, data)
}

// AddDataStream creates a data stream on the named chip instance, bound to
// the given write port/register.
func (s *Slot) AddDataStream(t chiptype.Type, index, streamID int, writePort, writeReg uint32) {
	if d := s.find(t, index); d != nil {
		d.AddDataStream(streamID, writePort, writeReg)
	}
}

// SetDataStreamFrequency reconfigures an existing data stream's playback
// rate.
func (s *Slot) SetDataStreamFrequency(t chiptype.Type, index, streamID int, frequency uint32) {
	if d := s.find(t, index); d != nil {
		d.SetDataStreamFrequency(streamID, frequency)
	}
}

// AttachDataBlockToStream binds a data stream to a previously loaded block.
func (s *Slot) AttachDataBlockToStream(t chiptype.Type, index, streamID, blockID int) {
	if d := s.find(t, index); d != nil {
		d.AttachDataBlockToStream(streamID, blockID)
	}
}

// StartDataStream begins playback of a data stream from an explicit offset.
func (s *Slot) StartDataStream(t chiptype.Type, index, streamID, startOffset, length int) {
	if d := s.find(t, index); d != nil {
		d.StartDataStream(streamID, startOffset, length)
	}
}

// StartDataStreamFast attaches a block and restarts playback from its
// beginning. A non-positive length plays the whole block, which is how the
// log formats' fast-start commands (VGM 0x95, XGM PCM play) address a
// sample: by block id alone, with the block's own size as the play window.
func (s *Slot) StartDataStreamFast(t chiptype.Type, index, streamID, blockID, length int) {
	d := s.find(t, index)
	if d == nil {
		return
	}
	if length <= 0 {
		b := s.blocks.Block(blockID)
		if b == nil {
			return
		}
		length = len(b.Data)
	}
	d.StartDataStreamFast(streamID, blockID, length)
}

// StopDataStream halts a data stream.
func (s *Slot) StopDataStream(t chiptype.Type, index, streamID int) {
	if d := s.find(t, index); d != nil {
		d.StopDataStream(streamID)
	}
}

// IsStopDataStream reports whether the named data stream on the given chip
// instance is inactive. A chip instance that was never added counts as
// stopped, so callers can query speculatively without a nil check.
func (s *Slot) IsStopDataStream(t chiptype.Type, index, streamID int) bool {
	d := s.find(t, index)
	if d == nil {
		return true
	}
	return d.IsStopDataStream(streamID)
}

// Update advances every device by tickCount external ticks, mixing each
// device's output into the slot's internal ring buffer as output samples
// become due. Since the output rate is at least the external rate, every
// external tick produces at least one output sample, outputHz/externalHz on
// average (735 at 44100 Hz for a 60 Hz tick), the exact count depending on
// where output_sampling_pos falls.
func (s *Slot) Update(tickCount int) {
	for i := 0; i < tickCount; i++ {
		for s.pos < 1 {
			var mixL, mixR float32
			for _, d := range s.deviceOrder {
				l, r := d.Generate(s.blocks)
				mixL += l
				mixR += r
			}
			s.bufferL = append(s.bufferL, mixL)
			s.bufferR = append(s.bufferR, mixR)
			s.pos += s.rate.Step()
		}
		s.pos -= 1
	}
}

// IsStreamFilled reports whether the ring buffer holds at least one full
// chunk, i.e. whether Stream can be called without zero-padding.
func (s *Slot) IsStreamFilled() bool {
	return len(s.bufferL) >= s.chunkSize
}

// Ready reports whether the ring buffer has room for another external
// tick's worth of output before overflowing the caller's consumption rate;
// mirrors the engine's own pacing check between Update and Stream calls.
func (s *Slot) Ready() bool {
	return s.chunkSize-len(s.bufferL) > 0
}

// Stream drains one chunk from the ring buffer into the slot's output
// buffers. When fewer than chunkSize samples are available (the final
// chunk of a render), the remainder is zero-padded rather than left from a
// previous call, so every Stream call produces a full, well-defined chunk.
func (s *Slot) Stream() {
	n := s.chunkSize
	if len(s.bufferL) < n {
		n = len(s.bufferL)
		for i := range s.chunkL {
			s.chunkL[i] = 0
			s.chunkR[i] = 0
		}
	}
	copy(s.chunkL, s.bufferL[:n])
	copy(s.chunkR, s.bufferR[:n])
	s.bufferL = s.bufferL[n:]
	s.bufferR = s.bufferR[n:]
	s.chunkS16Valid = false
}

// OutputL returns the left channel of the most recently streamed chunk.
func (s *Slot) OutputL() []float32 { return s.chunkL }

// OutputR returns the right channel of the most recently streamed chunk.
func (s *Slot) OutputR() []float32 { return s.chunkR }

// ChunkSize returns the configured output chunk size in frames.
func (s *Slot) ChunkSize() int { return s.chunkSize }

// OutputS16LE returns the most recently streamed chunk as interleaved
// signed 16-bit samples (L, R, L, R, ...), converting from the internal
// float32 chunk on first reference after each Stream call and caching the
// result for any further reference before the next Stream call.
func (s *Slot) OutputS16LE() []int16 {
	if s.chunkS16Valid {
		return s.chunkS16
	}
	if len(s.chunkS16) != s.chunkSize*2 {
		s.chunkS16 = make([]int16, s.chunkSize*2)
	}
	for i := range s.chunkL {
		s.chunkS16[i*2] = floatToS16(s.chunkL[i])
		s.chunkS16[i*2+1] = floatToS16(s.chunkR[i])
	}
	s.chunkS16Valid = true
	return s.chunkS16
}

// floatToS16 inverts stream.ConvertSampleI2F's asymmetric scale, clamped to
// the int16 range so an out-of-spec sample above 1.0 never wraps.
func floatToS16(f float32) int16 {
	var v float32
	if f < 0 {
		v = f * 32768
	} else {
		v = f * 32767
	}
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int16(v)
}
