package processor

import (
	"path/filepath"
	"strings"
)

// EncodeParams are the encoder settings for one output file.
type EncodeParams struct {
	// Format is the explicit container; FormatOriginal lets the codec infer it
	// from the output extension.
	Format OutputFormat

	// Quality applies to lossy targets only; 0 means not set.
	Quality int

	// Optimize asks the encoder to favour smaller output over speed. It is set
	// for lossy targets only and is advisory: neither the JPEG nor the lossless
	// WEBP encoder exposes such a switch.
	Optimize bool

	// DPI is written as both horizontal and vertical resolution; 0 means not set.
	DPI int

	// EXIF is a raw metadata blob to reattach unmodified; nil means none.
	EXIF []byte
}

var lossyExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".jpe":  {},
	".webp": {},
}

// BuildEncodeParams derives the encoder settings for an output written to outputPath.
// exif is the source's raw metadata blob, or nil when none was recovered.
func BuildEncodeParams(req ResizeRequest, outputPath string, exif []byte) EncodeParams {
	params := EncodeParams{Format: req.Format}

	if req.DPI > 0 {
		params.DPI = req.DPI
	}

	_, lossyExt := lossyExtensions[strings.ToLower(filepath.Ext(outputPath))]
	if req.Format == FormatJPEG || req.Format == FormatWEBP || lossyExt {
		params.Quality = clamp(req.Quality, MinQuality, MaxQuality)
		params.Optimize = true
	}

	if req.KeepEXIF && len(exif) > 0 {
		params.EXIF = exif
	}

	return params
}
