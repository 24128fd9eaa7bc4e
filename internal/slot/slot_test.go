package slot

import (
	"testing"

	"github.com/stretchr/testify/require"
	"vgmslot/internal/chiptype"
)

func TestSilentSlotProducesSilentChunks(t *testing.T) {
	s, err := New(44100, 44100, 512, nil)
	require.NoError(t, err)
	s.AddSoundDevice(chiptype.SN76489, 1, 3579545)

	s.Update(512)
	require.True(t, s.IsStreamFilled())
	s.Stream()

	for _, v := range s.OutputL() {
		require.Equal(t, float32(0), v)
	}
	for _, v := range s.OutputR() {
		require.Equal(t, float32(0), v)
	}
}

func TestStreamAlwaysProducesChunkSizeFrames(t *testing.T) {
	s, err := New(44100, 44100, 256, nil)
	require.NoError(t, err)
	s.AddSoundDevice(chiptype.SEGAPSG, 1, 3579545)

	s.Update(100) // fewer ticks than a full chunk
	s.Stream()
	require.Len(t, s.OutputL(), 256)
	require.Len(t, s.OutputR(), 256)
}

func TestFinalChunkIsZeroPaddedAfterPartialFill(t *testing.T) {
	s, err := New(44100, 44100, 256, nil)
	require.NoError(t, err)
	s.AddSoundDevice(chiptype.SEGAPSG, 1, 3579545)

	s.Update(10)
	s.Stream()
	require.Len(t, s.OutputL(), 256)
	// Only the first 10 frames can be non-trivially defined; the tail must
	// be exactly zero since fewer than chunkSize frames were generated.
	for i := 10; i < 256; i++ {
		require.Equal(t, float32(0), s.OutputL()[i])
	}
}

func TestDeterministicOutputForIdenticalInput(t *testing.T) {
	run := func() []float32 {
		s, err := New(44100, 44100, 64, nil)
		require.NoError(t, err)
		s.AddSoundDevice(chiptype.SEGAPSG, 1, 3579545)
		s.Write(chiptype.SEGAPSG, 0, 0, 0x80)
		s.Write(chiptype.SEGAPSG, 0, 0, 0x08)
		s.Write(chiptype.SEGAPSG, 0, 0, 0x90)
		s.Update(64)
		s.Stream()
		out := make([]float32, len(s.OutputL()))
		copy(out, s.OutputL())
		return out
	}

	a := run()
	b := run()
	require.Equal(t, a, b)
}

func TestWriteToUnknownDeviceIsNoOp(t *testing.T) {
	s, err := New(44100, 44100, 64, nil)
	require.NoError(t, err)
	require.NotPanics(t, func() {
		s.Write(chiptype.YM2612, 0, 0, 0xff)
	})
}

func TestStartDataStreamFastPlaysWholeBlock(t *testing.T) {
	s, err := New(44100, 44100, 64, nil)
	require.NoError(t, err)
	s.AddSoundDevice(chiptype.YM2612, 1, 7670453)
	s.AddDataBlock(1, []byte{0x80, 0x81, 0x82})
	s.AddDataStream(chiptype.YM2612, 0, 0, 0, 0x2a)
	s.SetDataStreamFrequency(chiptype.YM2612, 0, 0, 14000)

	// Length 0: the block's own size becomes the play window, so the
	// stream runs and eventually stops on its own instead of never
	// starting (or never ending).
	s.StartDataStreamFast(chiptype.YM2612, 0, 0, 1, 0)
	require.False(t, s.IsStopDataStream(chiptype.YM2612, 0, 0))

	s.Update(64)
	require.True(t, s.IsStopDataStream(chiptype.YM2612, 0, 0))
}

func TestStartDataStreamFastUnknownBlockIsNoOp(t *testing.T) {
	s, err := New(44100, 44100, 64, nil)
	require.NoError(t, err)
	s.AddSoundDevice(chiptype.YM2612, 1, 7670453)
	s.AddDataStream(chiptype.YM2612, 0, 0, 0, 0x2a)

	s.StartDataStreamFast(chiptype.YM2612, 0, 0, 9, 0)
	require.True(t, s.IsStopDataStream(chiptype.YM2612, 0, 0))
}

func TestRomBankReadThroughSlot(t *testing.T) {
	s, err := New(44100, 44100, 64, nil)
	require.NoError(t, err)
	s.AddSoundDevice(chiptype.SEGAPCM, 1, 16000000)
	s.AddRom(chiptype.SEGAPCM_ROM, []byte{1, 2, 3, 4}, 0, 3)

	bank := s.roms.Bank(chiptype.SEGAPCM_ROM)
	require.Equal(t, byte(3), bank.Read(2))
}
