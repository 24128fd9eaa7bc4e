// Package clock tracks the relationship between a log driver's external
// tick rate (44100 Hz for VGM, 50/60 Hz for XGM) and the slot's output
// sampling rate. It owns no goroutines: the engine advances strictly in
// response to the driver's own calls, one Step per external tick.
package clock

import "fmt"

// Rate holds the two sampling domains a Sound Slot bridges: the external
// tick domain the log driver schedules waits in, and the output domain
// samples are mixed and emitted in.
type Rate struct {
	externalHz uint32
	outputHz   uint32
	step       float64 // externalHz / outputHz, recomputed whenever either changes
}

// New builds a Rate and validates the invariant that output rate must never
// be lower than the external tick rate (a VGM tick at 44100 Hz can't be
// represented by fewer than one output sample).
func New(externalHz, outputHz uint32) (Rate, error) {
	if outputHz < externalHz {
		return Rate{}, fmt.Errorf("clock: output rate %d Hz is lower than external tick rate %d Hz", outputHz, externalHz)
	}
	return Rate{
		externalHz: externalHz,
		outputHz:   outputHz,
		step:       float64(externalHz) / float64(outputHz),
	}, nil
}

// ExternalHz returns the current external tick rate.
func (r Rate) ExternalHz() uint32 { return r.externalHz }

// OutputHz returns the configured output sampling rate.
func (r Rate) OutputHz() uint32 { return r.outputHz }

// Step returns externalHz/outputHz, the amount output_sampling_pos advances
// by for every output sample produced.
func (r Rate) Step() float64 { return r.step }

// WithExternalHz recomputes Step for a changed external tick rate, used by
// the XGM driver when it switches from NTSC (60 Hz) to PAL (50 Hz).
func (r Rate) WithExternalHz(externalHz uint32) Rate {
	r.externalHz = externalHz
	r.step = float64(externalHz) / float64(r.outputHz)
	return r
}
