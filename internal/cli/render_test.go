package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/soralvi/internal/engine"
	"github.com/roach88/soralvi/internal/playback"
)

func TestFrameRenderer_Render(t *testing.T) {
	var buf bytes.Buffer
	fr := NewFrameRenderer(&buf)

	err := fr.Render(playback.Frame{
		Index:      2,
		Total:      5,
		Values:     []int{1, 3, 2},
		Highlights: []engine.Highlight{{KeyIndex: 0, Key: "i", Position: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "frame 2/5  i=1\n▁█▄\n", buf.String())
}

func TestFrameRenderer_EqualValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFrameRenderer(&buf).Render(playback.Frame{Values: []int{4, 4}}))
	assert.Equal(t, "frame 0/0  \n██\n", buf.String())
}

func TestScale(t *testing.T) {
	tests := []struct {
		v, lo, hi int
		want      int
	}{
		{1, 1, 8, 0},
		{8, 1, 8, 7},
		{4, 1, 8, 3},
		{5, 5, 5, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scale(tt.v, tt.lo, tt.hi, 8), "scale(%d, %d, %d)", tt.v, tt.lo, tt.hi)
	}
}
