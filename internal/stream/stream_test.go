package stream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNativeStreamAlwaysTicksOne(t *testing.T) {
	s := NewNative()
	require.Equal(t, TickOne, s.IsTick())
	s.Push(0.5, -0.5)
	l, r := s.Drain()
	require.Equal(t, float32(0.5), l)
	require.Equal(t, float32(-0.5), r)
}

func TestNearestDownSampleConstantInputIsConstantOutput(t *testing.T) {
	s := NewNearestDownSample(88200, 44100)
	for i := 0; i < 50; i++ {
		s.Push(0.25, 0.25)
		for s.IsTick() == TickNo {
			l, r := s.Drain()
			require.InDelta(t, 0.25, l, 1e-6)
			require.InDelta(t, 0.25, r, 1e-6)
		}
	}
}

func TestLinearUpSamplingConstantInputIsConstantOutput(t *testing.T) {
	s := NewLinearUpSampling(22050, 44100)
	for i := 0; i < 50; i++ {
		s.Push(0.25, 0.25)
		for s.IsTick() == TickNo {
			l, r := s.Drain()
			require.InDelta(t, 0.25, l, 1e-6)
			require.InDelta(t, 0.25, r, 1e-6)
		}
	}
}

func TestNewPicksVariantByRateComparison(t *testing.T) {
	require.IsType(t, &NativeStream{}, New(44100, 44100))
	require.IsType(t, &NearestDownSampleStream{}, New(88200, 44100))
	require.IsType(t, &LinearUpSamplingStream{}, New(22050, 44100))
}

func TestConvertSampleI2FClamps(t *testing.T) {
	require.Equal(t, float32(-1), ConvertSampleI2F(-40000))
	require.InDelta(t, float32(1), ConvertSampleI2F(32767), 1e-6)
	require.InDelta(t, float32(-1), ConvertSampleI2F(-32768), 1e-6)
	require.Equal(t, float32(0), ConvertSampleI2F(0))
}
