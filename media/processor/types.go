package processor

import (
	"fmt"
	"strings"

	"github.com/nfnt/resize"

	apperrors "github.com/leeforge/imgresize/errors"
)

// ResizeMode selects how target dimensions are derived.
type ResizeMode int

const (
	ModePercent ResizeMode = iota
	ModePixel
)

func (m ResizeMode) String() string {
	if m == ModePixel {
		return "pixel"
	}
	return "percent"
}

// ParseMode accepts "percent" or "pixel" (case-insensitive).
func ParseMode(name string) (ResizeMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "percent", "%":
		return ModePercent, nil
	case "pixel", "px":
		return ModePixel, nil
	default:
		return ModePercent, apperrors.NewInvalid("mode", name, "must be percent or pixel")
	}
}

// OutputFormat is the requested output container. FormatOriginal keeps the source extension.
type OutputFormat int

const (
	FormatOriginal OutputFormat = iota
	FormatJPEG
	FormatPNG
	FormatWEBP
	FormatTIFF
	FormatBMP
	FormatGIF
)

var formatNames = map[OutputFormat]string{
	FormatOriginal: "Original",
	FormatJPEG:     "JPEG",
	FormatPNG:      "PNG",
	FormatWEBP:     "WEBP",
	FormatTIFF:     "TIFF",
	FormatBMP:      "BMP",
	FormatGIF:      "GIF",
}

func (f OutputFormat) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("OutputFormat(%d)", int(f))
}

// ParseFormat accepts the format names case-insensitively; "jpg" is an alias of "jpeg".
func ParseFormat(name string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "original":
		return FormatOriginal, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWEBP, nil
	case "tiff", "tif":
		return FormatTIFF, nil
	case "bmp":
		return FormatBMP, nil
	case "gif":
		return FormatGIF, nil
	default:
		return FormatOriginal, apperrors.NewInvalid("format", name, "must be one of original jpeg png webp tiff bmp gif")
	}
}

// Filter is the resampling filter used when dimensions change.
type Filter int

const (
	NearestNeighbor Filter = iota
	Bilinear
	Bicubic
	Lanczos
)

var filterNames = map[Filter]string{
	NearestNeighbor: "nearest",
	Bilinear:        "bilinear",
	Bicubic:         "bicubic",
	Lanczos:         "lanczos",
}

var filterFuncs = map[Filter]resize.InterpolationFunction{
	NearestNeighbor: resize.NearestNeighbor,
	Bilinear:        resize.Bilinear,
	Bicubic:         resize.Bicubic,
	Lanczos:         resize.Lanczos3,
}

func (f Filter) String() string {
	if name, ok := filterNames[f]; ok {
		return name
	}
	return filterNames[Lanczos]
}

// Interpolation maps the filter onto nfnt/resize. Unknown values use Lanczos3.
func (f Filter) Interpolation() resize.InterpolationFunction {
	if fn, ok := filterFuncs[f]; ok {
		return fn
	}
	return resize.Lanczos3
}

// ParseFilter maps a filter name to a Filter. Unrecognized names fall back to Lanczos.
func ParseFilter(name string) Filter {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nearest", "nearestneighbor", "nearest_neighbor":
		return NearestNeighbor
	case "bilinear":
		return Bilinear
	case "bicubic":
		return Bicubic
	default:
		return Lanczos
	}
}

const (
	MinDPI     = 72
	MaxDPI     = 300
	MinQuality = 1
	MaxQuality = 100
)

// ResizeRequest is the per-batch resize, encode and metadata policy.
// Build one, call Normalized, and treat the result as read-only.
type ResizeRequest struct {
	Mode    ResizeMode
	Percent int

	// Width and Height are used in pixel mode; 0 means unspecified.
	Width  int
	Height int

	KeepAspect bool
	DPI        int
	Format     OutputFormat
	KeepEXIF   bool
	Quality    int
	Filter     Filter
	OutputDir  string
}

// Normalized returns a copy with percent, dpi and quality clamped to their valid ranges.
func (r ResizeRequest) Normalized() ResizeRequest {
	r.Percent = max(1, r.Percent)
	r.Width = max(0, r.Width)
	r.Height = max(0, r.Height)
	r.DPI = clamp(r.DPI, MinDPI, MaxDPI)
	r.Quality = clamp(r.Quality, MinQuality, MaxQuality)
	return r
}

func clamp(n, lo, hi int) int {
	return max(lo, min(hi, n))
}
