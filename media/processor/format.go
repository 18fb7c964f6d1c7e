package processor

import (
	"image"
	"image/color"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// SupportedExtensions is the set of source extensions accepted for a batch, lowercase with dot.
var SupportedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".jpe":  {},
	".png":  {},
	".webp": {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
	".gif":  {},
}

// IsSupported reports whether path has a supported image extension (case-insensitive).
func IsSupported(path string) bool {
	_, ok := SupportedExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

var formatExtensions = map[OutputFormat]string{
	FormatJPEG: ".jpg",
	FormatPNG:  ".png",
	FormatWEBP: ".webp",
	FormatTIFF: ".tiff",
	FormatBMP:  ".bmp",
	FormatGIF:  ".gif",
}

var extensionFormats = map[string]OutputFormat{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".jpe":  FormatJPEG,
	".png":  FormatPNG,
	".webp": FormatWEBP,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".bmp":  FormatBMP,
	".gif":  FormatGIF,
}

// ResolveExtension returns the output extension for f. FormatOriginal passes srcExt
// through, lowercased.
func ResolveExtension(f OutputFormat, srcExt string) string {
	if ext, ok := formatExtensions[f]; ok {
		return ext
	}
	return strings.ToLower(srcExt)
}

// FormatFromExtension infers the container from an extension such as ".JPG" or "tiff".
func FormatFromExtension(ext string) (OutputFormat, bool) {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	f, ok := extensionFormats[ext]
	return f, ok
}

// TargetFormat resolves the container actually written: the requested one, or the one
// implied by the output extension when the request keeps the original format.
func TargetFormat(requested OutputFormat, outputExt string) (OutputFormat, bool) {
	if requested != FormatOriginal {
		return requested, true
	}
	return FormatFromExtension(outputExt)
}

// ColorMode describes the channel layout of a decoded raster.
type ColorMode int

const (
	ColorRGB ColorMode = iota
	ColorRGBA
	ColorGray
	ColorGrayAlpha
	ColorPalette
	ColorPaletteAlpha
	ColorCMYK
	ColorYCbCr
)

var colorModeNames = map[ColorMode]string{
	ColorRGB:          "RGB",
	ColorRGBA:         "RGBA",
	ColorGray:         "L",
	ColorGrayAlpha:    "LA",
	ColorPalette:      "P",
	ColorPaletteAlpha: "P+transparency",
	ColorCMYK:         "CMYK",
	ColorYCbCr:        "YCbCr",
}

func (m ColorMode) String() string {
	return colorModeNames[m]
}

// HasAlpha reports whether the mode carries transparency.
func (m ColorMode) HasAlpha() bool {
	return m == ColorRGBA || m == ColorGrayAlpha || m == ColorPaletteAlpha
}

// rgbLike modes encode as-is into every target, JPEG included.
func (m ColorMode) rgbLike() bool {
	return m == ColorRGB || m == ColorYCbCr
}

// DescribeMode derives the ColorMode of img. Alpha-capable buffers whose pixels are
// all opaque report ColorRGB, since the png decoder uses RGBA buffers for RGB files.
func DescribeMode(img image.Image) ColorMode {
	switch m := img.(type) {
	case *image.YCbCr:
		return ColorYCbCr
	case *image.NYCbCrA:
		return ColorRGBA
	case *image.Gray, *image.Gray16:
		return ColorGray
	case *image.Alpha, *image.Alpha16:
		return ColorGrayAlpha
	case *image.CMYK:
		return ColorCMYK
	case *image.Paletted:
		if paletteHasAlpha(m.Palette) {
			return ColorPaletteAlpha
		}
		return ColorPalette
	}

	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return ColorRGB
	}
	return ColorRGBA
}

func paletteHasAlpha(p color.Palette) bool {
	for _, c := range p {
		if _, _, _, a := c.RGBA(); a != 0xffff {
			return true
		}
	}
	return false
}

// NeedsAlphaFlatten reports whether img must be composited over white before encoding
// as target. Only JPEG lacks an alpha channel among the supported targets.
func NeedsAlphaFlatten(target OutputFormat, mode ColorMode) bool {
	return target == FormatJPEG && mode.HasAlpha()
}

// needsRGBConversion reports modes an encoder for target cannot take directly.
func needsRGBConversion(target OutputFormat, mode ColorMode) bool {
	if target == FormatJPEG {
		return !mode.rgbLike() && !mode.HasAlpha()
	}
	return mode == ColorCMYK
}

// NormalizeMode returns img in a channel layout suitable for target: alpha is
// flattened onto white for JPEG, other non-RGB layouts are converted to RGB without
// compositing, and everything else is returned untouched.
func NormalizeMode(img image.Image, target OutputFormat) image.Image {
	mode := DescribeMode(img)
	switch {
	case NeedsAlphaFlatten(target, mode):
		return FlattenOnWhite(img)
	case needsRGBConversion(target, mode):
		return toRGB(img)
	default:
		return img
	}
}

// FlattenOnWhite composites img over an opaque white canvas of the same size.
func FlattenOnWhite(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

func toRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
