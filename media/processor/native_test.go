package processor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNativeCodecPNGIgnoresOptimize(t *testing.T) {
	codec := NewNativeCodec(nil)
	img := gradient(24, 16)

	var plain, optimized bytes.Buffer
	require.NoError(t, codec.Encode(&plain, img, ".png", EncodeParams{DPI: 300}))
	require.NoError(t, codec.Encode(&optimized, img, ".png", EncodeParams{DPI: 300, Optimize: true}))
	assert.Equal(t, plain.Bytes(), optimized.Bytes())

	// PNG targets never ask for it
	params := BuildEncodeParams(percentRequest(50, t.TempDir()), "out.png", nil)
	assert.False(t, params.Optimize)
	assert.Zero(t, params.Quality)
}

func TestNativeCodecRejectsUnknownExtension(t *testing.T) {
	var buf bytes.Buffer
	err := NewNativeCodec(nil).Encode(&buf, gradient(2, 2), ".xyz", EncodeParams{})
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}
