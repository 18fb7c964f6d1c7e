package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildEncodeParams(t *testing.T) {
	exif := []byte("II*\x00")

	tests := []struct {
		name        string
		req         ResizeRequest
		output      string
		exif        []byte
		wantQuality int
		wantOpt     bool
		wantEXIF    bool
	}{
		{
			name:        "explicit jpeg",
			req:         ResizeRequest{Format: FormatJPEG, Quality: 85, DPI: 300},
			output:      "out/a_10x10.jpg",
			wantQuality: 85,
			wantOpt:     true,
		},
		{
			name:        "original keeps lossy extension",
			req:         ResizeRequest{Format: FormatOriginal, Quality: 120, DPI: 300},
			output:      "out/a_10x10.JPEG",
			wantQuality: 100,
			wantOpt:     true,
		},
		{
			name:        "webp",
			req:         ResizeRequest{Format: FormatWEBP, Quality: 0, DPI: 72},
			output:      "out/a_10x10.webp",
			wantQuality: 1,
			wantOpt:     true,
		},
		{
			name:   "png has no quality",
			req:    ResizeRequest{Format: FormatPNG, Quality: 90, DPI: 96},
			output: "out/a_10x10.png",
		},
		{
			name:     "exif kept",
			req:      ResizeRequest{Format: FormatPNG, KeepEXIF: true, DPI: 96},
			output:   "out/a_10x10.png",
			exif:     exif,
			wantEXIF: true,
		},
		{
			name:   "exif dropped",
			req:    ResizeRequest{Format: FormatPNG, KeepEXIF: false, DPI: 96},
			output: "out/a_10x10.png",
			exif:   exif,
		},
		{
			name:   "exif requested but absent",
			req:    ResizeRequest{Format: FormatPNG, KeepEXIF: true, DPI: 96},
			output: "out/a_10x10.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := BuildEncodeParams(tt.req, tt.output, tt.exif)

			assert.Equal(t, tt.req.Format, params.Format)
			assert.Equal(t, tt.req.DPI, params.DPI)
			assert.Equal(t, tt.wantQuality, params.Quality)
			assert.Equal(t, tt.wantOpt, params.Optimize)
			if tt.wantEXIF {
				assert.Equal(t, tt.exif, params.EXIF)
			} else {
				assert.Nil(t, params.EXIF)
			}
		})
	}
}

func TestBuildEncodeParamsNoDPI(t *testing.T) {
	params := BuildEncodeParams(ResizeRequest{Format: FormatBMP}, "a.bmp", nil)
	assert.Zero(t, params.DPI)
	assert.Zero(t, params.Quality)
	assert.False(t, params.Optimize)
}
