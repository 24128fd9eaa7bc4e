// Package chip defines the sound chip contract every emulated chip
// implements, and provides the chips driven by the VGM and XGM log
// formats.
//
// A chip is a black box: the engine never inspects its internal DSP state,
// only drives it through Init/Reset/Write/Tick. Accuracy of the emulated
// waveform is explicitly out of scope; what the engine guarantees is the
// scheduling contract (tick exactly once per native sample, call Stream.Push
// exactly once per Tick) that makes a chip composable with the rest of the
// slot regardless of which chip it is.
package chip

import (
	"vgmslot/internal/chiptype"
	"vgmslot/internal/rom"
	"vgmslot/internal/stream"
)

// SoundChip is the contract a chip implementation must satisfy to be driven
// by a SoundDevice. index identifies which of possibly two instances of the
// same chip type (VGM allows a dual-chip bit in several clock fields) a call
// targets; most single-instance chips ignore it.
type SoundChip interface {
	// Init configures the chip for the given input clock and returns its
	// native sampling rate in Hz.
	Init(clock uint32) uint32
	// Reset returns the chip to its power-on state.
	Reset()
	// Write delivers one register write. sound_stream is passed through so
	// a chip that produces a sample synchronously with certain writes
	// (rare, but some DAC-driven chips do) can push immediately.
	Write(index int, port, data uint32, s stream.SoundStream)
	// Tick advances the chip by exactly one native sample and must call
	// s.Push exactly once with that sample's left/right pair.
	Tick(index int, s stream.SoundStream)
	// SetRomBank attaches a Rom Bank for the given index. Chips that never
	// read ROM (e.g. SN76489) implement this as a no-op.
	SetRomBank(romIndex chiptype.RomIndex, bank *rom.Bank)
	// NotifyAddRom informs the chip that new data was appended to one of
	// its banks, in case it caches a derived end-address.
	NotifyAddRom(romIndex chiptype.RomIndex, indexNo int)
}

// New constructs the chip implementation for t. ok is always true: a chip
// type this engine does not emulate gets a contract-satisfying, silent Stub,
// so the log stream can be consumed without the playback failing outright.
func New(t chiptype.Type) (SoundChip, bool) {
	switch t {
	case chiptype.SN76489, chiptype.SEGAPSG:
		return NewPSG(t), true
	case chiptype.YM2612:
		return NewYM2612(), true
	case chiptype.SEGAPCM:
		return NewSegaPCM(), true
	default:
		return NewStub(t), true
	}
}
