// Package rom implements the Rom Bank abstraction: an append-only
// collection of byte segments addressed by a chip's own address space,
// shared by reference among the chips that read from it (e.g. a YM2610's
// ADPCM bank and its Delta-T bank are distinct banks; two voices of the
// same SEGAPCM chip read the same bank).
package rom

import "vgmslot/internal/chiptype"

// segment is one appended span of bytes, addressed [start, end] inclusive
// in the chip's own address space.
type segment struct {
	start int
	end   int
	data  []byte
}

// Bank is an ordered, append-only list of segments. Reads scan from the
// first-appended segment forward and return the first match; later inserts
// never shadow earlier ones, matching a real ROM image where the earliest
// loaded bank wins on overlapping mirrors.
type Bank struct {
	index    chiptype.RomIndex
	segments []segment
}

// New creates an empty bank tagged with the RomIndex it backs.
func New(index chiptype.RomIndex) *Bank {
	return &Bank{index: index}
}

// Index returns the RomIndex this bank was created for.
func (b *Bank) Index() chiptype.RomIndex { return b.index }

// Add appends a new segment covering [start, endInclusive] and backed by a
// copy of data. No overlap check is performed: VGM data blocks are trusted
// to describe non-conflicting spans, and if they don't, first-match-wins
// read order resolves it deterministically rather than rejecting the load.
func (b *Bank) Add(data []byte, start, endInclusive int) {
	cp := make([]byte, len(data))
	copy(cp, data)
	b.segments = append(b.segments, segment{start: start, end: endInclusive, data: cp})
}

// Read returns the byte at addr, or 0 if no segment covers it.
func (b *Bank) Read(addr int) byte {
	for _, s := range b.segments {
		if addr >= s.start && addr <= s.end {
			return s.data[addr-s.start]
		}
	}
	return 0
}

// Len reports how many segments have been appended, for diagnostics.
func (b *Bank) Len() int { return len(b.segments) }

// Set owns every Bank a Sound Slot has created, keyed by RomIndex. It
// creates one *Bank per index, and every chip bound to that index holds the
// same *Bank, so data appended before or after a chip is bound is visible
// to it.
type Set struct {
	banks map[chiptype.RomIndex]*Bank
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{banks: make(map[chiptype.RomIndex]*Bank)}
}

// Bank returns the bank for index, creating it empty on first reference.
func (s *Set) Bank(index chiptype.RomIndex) *Bank {
	b, ok := s.banks[index]
	if !ok {
		b = New(index)
		s.banks[index] = b
	}
	return b
}

// Add appends data to the bank for index, creating the bank if needed.
func (s *Set) Add(index chiptype.RomIndex, data []byte, start, endInclusive int) {
	s.Bank(index).Add(data, start, endInclusive)
}
