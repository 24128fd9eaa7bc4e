package clock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsOutputBelowExternal(t *testing.T) {
	_, err := New(44100, 22050)
	require.Error(t, err)
}

func TestStepIsExternalOverOutput(t *testing.T) {
	r, err := New(44100, 88200)
	require.NoError(t, err)
	require.Equal(t, 0.5, r.Step())
	require.Equal(t, uint32(44100), r.ExternalHz())
	require.Equal(t, uint32(88200), r.OutputHz())
}

func TestWithExternalHzRecomputesStep(t *testing.T) {
	r, err := New(60, 44100)
	require.NoError(t, err)
	pal := r.WithExternalHz(50)
	require.Equal(t, uint32(50), pal.ExternalHz())
	require.Equal(t, 50.0/44100.0, pal.Step())
	// The original is unchanged: Rate is a value type.
	require.Equal(t, uint32(60), r.ExternalHz())
}
