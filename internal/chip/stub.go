package chip

import (
	"vgmslot/internal/chiptype"
	"vgmslot/internal/rom"
	"vgmslot/internal/stream"
)

// Stub satisfies the SoundChip contract for a chip type this engine does
// not yet emulate: it accepts every write silently and ticks out silence.
// This lets a log stream that touches an unimplemented chip still play the
// chips it does implement, rather than failing the whole render.
type Stub struct {
	chipType chiptype.Type
	nativeHz uint32
}

// NewStub constructs a silent placeholder for t.
func NewStub(t chiptype.Type) *Stub {
	return &Stub{chipType: t}
}

// Init reports a nominal native rate derived from the input clock so the
// device's resampling stream still has a sane ratio to work with.
func (s *Stub) Init(clock uint32) uint32 {
	if clock == 0 {
		s.nativeHz = 44100
	} else {
		s.nativeHz = clock / 64
	}
	return s.nativeHz
}

func (s *Stub) Reset() {}

func (s *Stub) Write(index int, port, data uint32, st stream.SoundStream) {}

func (s *Stub) Tick(index int, st stream.SoundStream) {
	st.Push(0, 0)
}

func (s *Stub) SetRomBank(romIndex chiptype.RomIndex, bank *rom.Bank) {}

func (s *Stub) NotifyAddRom(romIndex chiptype.RomIndex, indexNo int) {}
