// Package stream adapts a sound chip's native sampling rate to a Sound
// Device's output rate. A SoundDevice drains its chip one native tick at a
// time and pushes each raw sample pair into a SoundStream; the stream
// decides, via IsTick, how many native ticks correspond to the next output
// sample and produces it through Drain.
package stream

// Tick reports how a SoundStream's IsTick call relates native chip ticks to
// output samples.
type Tick int

const (
	// TickOne means exactly one more native tick is needed before an
	// output sample is ready.
	TickOne Tick = iota
	// TickMore means more than one native tick is still needed.
	TickMore
	// TickNo means no further native tick is needed: an output sample is
	// ready to Drain immediately.
	TickNo
)

// SoundStream buffers a chip's raw output and resamples it to the device's
// output rate.
type SoundStream interface {
	// IsTick reports whether another native chip tick is required before
	// the next output sample can be drained.
	IsTick() Tick
	// Push delivers one native-rate sample pair from the chip.
	Push(l, r float32)
	// Drain returns the current output-rate sample pair.
	Drain() (l, r float32)
	// IsAdjust reports whether a register write arriving mid-tick should be
	// held back and replayed on the next native tick instead of applied
	// immediately. A native 1:1 stream has no such ambiguity; a resampled
	// stream does, since its next Drain may correspond to either the
	// sample just before or just after the write.
	IsAdjust() bool
}

// NativeStream passes samples through unchanged: chip rate equals output
// rate, so every native tick produces exactly one output sample.
type NativeStream struct {
	l, r float32
}

// NewNative creates a NativeStream.
func NewNative() *NativeStream { return &NativeStream{} }

func (s *NativeStream) IsTick() Tick { return TickOne }

func (s *NativeStream) Push(l, r float32) {
	s.l, s.r = l, r
}

func (s *NativeStream) Drain() (float32, float32) { return s.l, s.r }

func (s *NativeStream) IsAdjust() bool { return false }

// NearestDownSampleStream picks whichever of the previous or current native
// sample lies closest to the output position, for chips whose native rate
// exceeds the output rate.
type NearestDownSampleStream struct {
	nowL, nowR   float32
	prevL, prevR float32
	pos          float64
	step         float64
	outL, outR   float32
}

// NewNearestDownSample creates a down-sampling stream. inputRate must be >=
// outputRate; callers pick the stream variant before construction based on
// that comparison.
func NewNearestDownSample(inputRate, outputRate uint32) *NearestDownSampleStream {
	if inputRate < outputRate {
		panic("stream: NearestDownSampleStream requires inputRate >= outputRate")
	}
	return &NearestDownSampleStream{
		step: float64(outputRate) / float64(inputRate),
	}
}

func (s *NearestDownSampleStream) IsTick() Tick {
	if s.pos < 1 {
		return TickMore
	}
	prevPos := s.pos - s.step
	if 1-prevPos < s.pos-1 {
		s.outL, s.outR = s.prevL, s.prevR
	} else {
		s.outL, s.outR = s.nowL, s.nowR
	}
	s.pos -= 1
	return TickNo
}

func (s *NearestDownSampleStream) Push(l, r float32) {
	s.pos += s.step
	s.prevL, s.prevR = s.nowL, s.nowR
	s.nowL, s.nowR = l, r
}

func (s *NearestDownSampleStream) Drain() (float32, float32) { return s.outL, s.outR }

func (s *NearestDownSampleStream) IsAdjust() bool { return true }

// LinearUpSamplingStream linearly interpolates between the previous and
// current native sample, for chips whose native rate is below the output
// rate. The first pushed sample also stands in for the previous one, so the
// output starts at that sample rather than ramping up from zero.
type LinearUpSamplingStream struct {
	nowL, nowR   float32
	prevL, prevR float32
	pos          float64
	step         float64
	primed       bool
	outL, outR   float32
}

// NewLinearUpSampling creates an up-sampling stream. inputRate must be <=
// outputRate.
func NewLinearUpSampling(inputRate, outputRate uint32) *LinearUpSamplingStream {
	if inputRate > outputRate {
		panic("stream: LinearUpSamplingStream requires inputRate <= outputRate")
	}
	step := float64(inputRate) / float64(outputRate)
	return &LinearUpSamplingStream{
		step: step,
		pos:  1,
	}
}

func (s *LinearUpSamplingStream) IsTick() Tick {
	if s.pos < 1 {
		s.outL = float32(float64(s.prevL)*(1-s.pos) + s.pos*float64(s.nowL))
		s.outR = float32(float64(s.prevR)*(1-s.pos) + s.pos*float64(s.nowR))
		return TickNo
	}
	s.outL, s.outR = s.prevL, s.prevR
	s.pos -= 1
	return TickOne
}

func (s *LinearUpSamplingStream) Push(l, r float32) {
	if !s.primed {
		s.nowL, s.nowR = l, r
		s.outL, s.outR = l, r
		s.primed = true
	}
	s.prevL, s.prevR = s.nowL, s.nowR
	s.nowL, s.nowR = l, r
}

func (s *LinearUpSamplingStream) Drain() (float32, float32) {
	s.pos += s.step
	return s.outL, s.outR
}

func (s *LinearUpSamplingStream) IsAdjust() bool { return true }

// New picks the right SoundStream variant for the given native and output
// rates.
func New(nativeRate, outputRate uint32) SoundStream {
	switch {
	case nativeRate == outputRate:
		return NewNative()
	case nativeRate > outputRate:
		return NewNearestDownSample(nativeRate, outputRate)
	default:
		return NewLinearUpSampling(nativeRate, outputRate)
	}
}

// ConvertSampleI2F converts a signed 32-bit PCM sample to the engine's
// internal float32 range, clamped to [-1, 1] and using the asymmetric
// int16 full-scale divisors (32768 for negative, 32767 for positive) so a
// round-tripped int16 sample never clips.
func ConvertSampleI2F(sample int32) float32 {
	var f float32
	if sample < 0 {
		f = float32(sample) / 32768
	} else {
		f = float32(sample) / 32767
	}
	if f > 1 {
		f = 1
	}
	if f < -1 {
		f = -1
	}
	return f
}
