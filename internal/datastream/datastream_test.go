package datastream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamEmitsOneWritePerByteBoundary(t *testing.T) {
	s := New(0, 0x2a)
	s.SetDataBlockID(1)
	s.SetFrequency(44100, 44100) // step == 1: one byte per tick
	offset := 0
	s.Start(&offset, 4)

	var emitted []int
	for i := 0; i < 6; i++ {
		if _, pos, _, _, ok := s.Tick(); ok {
			emitted = append(emitted, pos)
		}
	}
	require.Equal(t, []int{0, 1, 2, 3}, emitted)
}

func TestStreamStopsAfterLength(t *testing.T) {
	s := New(0, 0x2a)
	s.SetDataBlockID(1)
	s.SetFrequency(44100, 44100)
	offset := 0
	s.Start(&offset, 2)

	for i := 0; i < 2; i++ {
		_, _, _, _, ok := s.Tick()
		require.True(t, ok)
	}
	_, _, _, _, ok := s.Tick()
	require.False(t, ok)
	require.False(t, s.Active())
}

func TestStreamRestartReplaysFromStartOffset(t *testing.T) {
	s := New(0, 0x2a)
	s.SetDataBlockID(1)
	s.SetFrequency(44100, 44100)
	offset := 0
	s.Start(&offset, 2)
	for s.Active() {
		s.Tick()
	}

	// A fresh start (the fast-start path passes no offset) must replay the
	// same window, not resume past its end.
	s.Start(nil, 2)
	_, pos, _, _, ok := s.Tick()
	require.True(t, ok)
	require.Equal(t, 0, pos)
}

func TestStreamStartWithoutBlockOrLengthIsNoOp(t *testing.T) {
	s := New(0, 0x2a)
	s.SetFrequency(44100, 44100)
	offset := 0
	s.Start(&offset, 4) // no block attached
	require.False(t, s.Active())

	s.SetDataBlockID(1)
	s.Start(&offset, 0) // zero length
	require.False(t, s.Active())
	_, _, _, _, ok := s.Tick()
	require.False(t, ok)
}

func TestStreamInactiveEmitsNothing(t *testing.T) {
	s := New(0, 0x2a)
	_, _, _, _, ok := s.Tick()
	require.False(t, ok)
}

func TestStreamHalfFrequencyEmitsEveryOtherTick(t *testing.T) {
	s := New(0, 0x2a)
	s.SetDataBlockID(1)
	s.SetFrequency(44100, 22050) // step == 0.5
	offset := 0
	s.Start(&offset, 3)

	count := 0
	for i := 0; i < 6; i++ {
		if _, _, _, _, ok := s.Tick(); ok {
			count++
		}
	}
	require.Equal(t, 3, count)
}

func TestSetRoutesBlocksAndStreamsIndependently(t *testing.T) {
	set := NewSet()
	set.AddBlock(1, []byte{1, 2, 3})
	st := set.Stream(5, 0, 0x2a)
	require.Same(t, st, set.Stream(5, 0, 0x2a))

	got, ok := set.StreamByID(5)
	require.True(t, ok)
	require.Same(t, st, got)

	require.Equal(t, []byte{1, 2, 3}, set.Block(1).Data)
	require.Nil(t, set.Block(2))
}
