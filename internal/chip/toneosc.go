package chip

// toneChannel is a 32-bit fixed-point phase accumulator used by the FM
// chips' simplified per-channel oscillators. Phase wraps at 2^32, matching
// a full waveform cycle; the increment per native tick is frequency
// scaled into that same fixed-point domain so the oscillator never needs
// floating point on its hot path.
type toneChannel struct {
	phase     uint32
	increment uint32
}

// step advances the phase accumulator by one native tick and returns the
// raw square-wave output before attenuation: +1 for the first half of the
// cycle, -1 for the second.
func (c *toneChannel) step() int32 {
	out := int32(1)
	if c.phase >= 0x80000000 {
		out = -1
	}
	c.phase += c.increment
	return out
}
