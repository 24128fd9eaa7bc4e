// Package datastream implements the VGM/XGM "data stream" commands
// (0x90-0x95 and their XGM PCM-channel equivalents): a virtual tape head that
// reads sequential bytes out of a Data Block at a frequency independent of
// the host log's own tick rate, writing each byte to a fixed chip register
// as it crosses.
package datastream

// Block holds one data block's raw bytes, as loaded by a VGM 0x67 command
// or an XGM sample-data bloc entry.
type Block struct {
	Data []byte
}

// Stream is a single virtual PCM feeder bound to one data block and one
// chip write port/register. Each native tick it accumulates
// frequency/nativeRate worth of progress; whenever that accumulator
// crosses an integer boundary it emits the next byte as a chip write.
type Stream struct {
	blockID int
	active  bool

	frequency float64
	step      float64 // frequency / native output rate, recomputed by SetFrequency
	pos       float64 // fractional accumulator

	startOffset int
	length      int
	consumed    int

	writePort uint32
	writeReg  uint32
}

// New creates a Stream bound to the given write port/register. The data
// block, frequency and playback window are set by later commands, matching
// the log formats' own command ordering (bind stream to chip → attach
// block → set frequency → start).
func New(writePort, writeReg uint32) *Stream {
	return &Stream{writePort: writePort, writeReg: writeReg, blockID: -1}
}

// SetDataBlockID attaches the stream to a data block by id.
func (s *Stream) SetDataBlockID(id int) { s.blockID = id }

// SetFrequency recomputes the per-tick accumulator step for a stream
// frequency expressed in Hz, given the device's own native output rate.
func (s *Stream) SetFrequency(nativeRate uint32, frequency uint32) {
	s.frequency = float64(frequency)
	if nativeRate == 0 {
		s.step = 0
		return
	}
	s.step = s.frequency / float64(nativeRate)
}

// Start begins playback from the stream's start offset. A nil startOffset
// keeps the previously configured offset (the "fast" start variant used
// when the block was just attached); length is the number of bytes to play.
// Starting with no block attached, a zero frequency or a non-positive length
// is a no-op and the stream stays stopped.
func (s *Stream) Start(startOffset *int, length int) {
	if startOffset != nil {
		s.startOffset = *startOffset
	}
	if s.blockID < 0 || s.step == 0 || length <= 0 {
		return
	}
	s.length = length
	s.consumed = 0
	s.pos = 0
	s.active = true
}

// Stop halts playback without resetting position, matching the log
// formats' explicit stop command.
func (s *Stream) Stop() { s.active = false }

// Tick advances the stream by one native tick. ok is false when the
// stream is inactive or no byte boundary was crossed this tick; when ok is
// true, blockID/pos/port/reg describe the write the caller should issue.
func (s *Stream) Tick() (blockID, pos int, port, reg uint32, ok bool) {
	if !s.active {
		return 0, 0, 0, 0, false
	}
	s.pos += s.step
	if s.pos < 1 {
		return 0, 0, 0, 0, false
	}
	// A step above 1 (stream frequency above the chip's native rate) can
	// cross more than one byte boundary per tick; the cursor skips the
	// intermediate bytes and only the one landed on is written.
	n := int(s.pos)
	s.pos -= float64(n)

	if s.consumed >= s.length {
		s.active = false
		return 0, 0, 0, 0, false
	}

	offset := s.startOffset + s.consumed
	s.consumed += n
	return s.blockID, offset, s.writePort, s.writeReg, true
}

// Active reports whether the stream is currently playing.
func (s *Stream) Active() bool { return s.active }

// Set owns every Block and Stream a Sound Slot has created, keyed the way
// the log formats name them: data blocks by a flat integer id shared across
// chips, streams by (chip-relative) stream id scoped per call site.
type Set struct {
	blocks  map[int]*Block
	streams map[int]*Stream
	// order holds the streams in creation order. The per-tick sweep ranges
	// over this instead of the map: two streams bound to the same register
	// can collide on one native tick, and which byte lands last must not
	// depend on map iteration order or the render stops being
	// reproducible.
	order []*Stream
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{
		blocks:  make(map[int]*Block),
		streams: make(map[int]*Stream),
	}
}

// AddBlock stores data under blockID, as loaded by a VGM 0x67 command.
func (s *Set) AddBlock(blockID int, data []byte) {
	s.blocks[blockID] = &Block{Data: data}
}

// Block returns the block for blockID, or nil if none was loaded.
func (s *Set) Block(blockID int) *Block {
	return s.blocks[blockID]
}

// Stream returns the stream for streamID, creating it bound to
// (writePort, writeReg) on first reference.
func (s *Set) Stream(streamID int, writePort, writeReg uint32) *Stream {
	st, ok := s.streams[streamID]
	if !ok {
		st = New(writePort, writeReg)
		s.streams[streamID] = st
		s.order = append(s.order, st)
	}
	return st
}

// StreamByID returns the stream for streamID if it was already created, for
// commands (set frequency, start, stop) that reference an existing stream
// rather than creating one.
func (s *Set) StreamByID(streamID int) (*Stream, bool) {
	st, ok := s.streams[streamID]
	return st, ok
}

// All returns every stream in creation order, for a device's per-tick
// sweep.
func (s *Set) All() []*Stream { return s.order }

// Empty reports whether the device has no data streams at all (not whether
// any is currently active).
func (s *Set) Empty() bool { return len(s.streams) == 0 }
