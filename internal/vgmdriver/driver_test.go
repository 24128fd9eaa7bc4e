package vgmdriver

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"vgmslot/internal/slot"
)

// versionBytes encodes version (e.g. 151 for "1.51") into the VGM header's
// BCD-reversed four-byte version field, mirroring the metadata package's
// own test helper.
func versionBytes(version uint32) [4]byte {
	digits := fmt.Sprintf("%08d", version)
	var out [4]byte
	for i := 0; i < 4; i++ {
		v, _ := strconv.ParseUint(digits[i*2:i*2+2], 16, 8)
		out[3-i] = byte(v)
	}
	return out
}

// buildVGM assembles a minimal 1.51 VGM file with a single SN76489 chip
// declared and the given command bytes following the 0x40-byte header.
func buildVGM(clockSN76489 uint32, commands []byte) []byte {
	header := make([]byte, 0x40)
	copy(header[0:4], "Vgm ")
	vb := versionBytes(151)
	copy(header[0x08:0x0c], vb[:])
	binary.LittleEndian.PutUint32(header[0x0c:], clockSN76489)
	binary.LittleEndian.PutUint32(header[0x34:], 0x40-0x34) // VGM data offset, relative
	return append(header, commands...)
}

func TestNewParsesHeaderAndAddsDeclaredChip(t *testing.T) {
	data := buildVGM(3579545, []byte{0x66})
	d, err := New(data, 44100, 64, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(3579545), d.Header().ClockSN76489)
	require.NotNil(t, d.Slot())
}

func TestStepWritesToDeclaredChipAndReturnsNoWait(t *testing.T) {
	data := buildVGM(3579545, []byte{0x50, 0x9f, 0x66})
	d, err := New(data, 44100, 64, nil)
	require.NoError(t, err)
	require.NotPanics(t, func() {
		ticks := d.Step(false)
		require.Equal(t, 0, ticks)
	})
}

func TestStepWaitShortReturnsExactSampleCount(t *testing.T) {
	data := buildVGM(3579545, []byte{0x61, 0x00, 0x02, 0x66})
	d, err := New(data, 44100, 64, nil)
	require.NoError(t, err)
	require.Equal(t, 512, d.Step(false))
}

func TestStepWait735And882(t *testing.T) {
	data := buildVGM(3579545, []byte{0x62, 0x63, 0x66})
	d, err := New(data, 44100, 64, nil)
	require.NoError(t, err)
	require.Equal(t, 735, d.Step(false))
	require.Equal(t, 882, d.Step(false))
}

func TestStepEndOfStreamMarksEnded(t *testing.T) {
	data := buildVGM(3579545, []byte{0x66})
	d, err := New(data, 44100, 64, nil)
	require.NoError(t, err)
	d.Step(false)
	require.True(t, d.Ended())
	require.Equal(t, 0, d.Step(false))
}

func TestStepLoopsWhenRepeatRequested(t *testing.T) {
	header := buildVGM(3579545, nil)
	loopRel := len(header) - 0x1c
	binary.LittleEndian.PutUint32(header[0x1c:], uint32(loopRel))
	data := append(header, 0x50, 0x00, 0x66)
	d, err := New(data, 44100, 64, nil)
	require.NoError(t, err)

	d.Step(true) // consumes 0x50 write
	d.Step(true) // hits 0x66, loops back to the 0x50 write
	require.False(t, d.Ended())
	require.Equal(t, 1, d.LoopCount())
}

func TestStepGGStereoWriteIsConsumedWithNoWait(t *testing.T) {
	data := buildVGM(3579545, []byte{0x4f, 0x0f, 0x66})
	d, err := New(data, 44100, 64, nil)
	require.NoError(t, err)
	require.Equal(t, 0, d.Step(false))
	d.Step(false)
	require.True(t, d.Ended())
}

func TestStepYMZ280BWriteIsSkipped(t *testing.T) {
	data := buildVGM(3579545, []byte{0x5d, 0x00, 0x42, 0x66})
	d, err := New(data, 44100, 64, nil)
	require.NoError(t, err)
	require.Equal(t, 0, d.Step(false))
	d.Step(false)
	require.True(t, d.Ended())
}

func TestPlayLatchesChunksUntilEnded(t *testing.T) {
	// 200 ticks of waiting split across three full 64-frame chunks plus a
	// padded final one (200 = 3*64 + 8): every Play call must leave a full
	// chunk latched.
	data := buildVGM(3579545, []byte{0x61, 0xc8, 0x00, 0x66})
	d, err := New(data, 44100, 64, nil)
	require.NoError(t, err)

	chunks := 0
	for {
		_, ended := d.Play(false)
		chunks++
		require.Len(t, d.Slot().OutputL(), 64)
		if ended {
			break
		}
	}
	require.Equal(t, 4, chunks)
}

func TestUnknownCommandIsSkippedNotFatal(t *testing.T) {
	data := buildVGM(3579545, []byte{0x40, 0xff, 0x66})
	d, err := New(data, 44100, 64, nil)
	require.NoError(t, err)
	require.NotPanics(t, func() {
		for !d.Ended() {
			d.Step(false)
		}
	})
}

func TestNewRejectsBadMagic(t *testing.T) {
	data := make([]byte, 0x100)
	copy(data[0:4], "Xxxx")
	_, err := New(data, 44100, 64, nil)
	require.Error(t, err)
}

func TestDriverProducesPlayableSlot(t *testing.T) {
	data := buildVGM(3579545, []byte{0x50, 0x9f, 0x61, 0x00, 0x01, 0x66})
	d, err := New(data, 44100, 64, nil)
	require.NoError(t, err)

	var s *slot.Slot = d.Slot()
	for !s.IsStreamFilled() {
		ticks := d.Step(false)
		if ticks > 0 {
			s.Update(ticks)
		}
		if d.Ended() {
			break
		}
	}
	s.Update(64)
	s.Stream()
	require.Len(t, s.OutputL(), 64)
}
