package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"github.com/leeforge/imgresize/logging"
	"github.com/leeforge/imgresize/media/metadata"

	// register the webp decoder with image.Decode
	_ "golang.org/x/image/webp"
)

// DefaultJPEGQuality is used when params carry no explicit quality.
const DefaultJPEGQuality = 75

// SourceImage is a decoded source owned by a single Process call.
type SourceImage struct {
	Image image.Image
	MIME  string
	Mode  ColorMode

	// Orientation is the EXIF orientation (1-8), 0 when the source has none.
	Orientation int
	// EXIF is the raw metadata blob, nil when none was recovered.
	EXIF []byte
}

func (s *SourceImage) Width() int  { return s.Image.Bounds().Dx() }
func (s *SourceImage) Height() int { return s.Image.Bounds().Dy() }

// Codec is the decode / resample / transpose / encode capability the pipeline drives.
type Codec interface {
	// Decode fully materializes an encoded image.
	Decode(data []byte) (*SourceImage, error)
	// Orient applies an EXIF orientation. It reports false when nothing was applied.
	Orient(img image.Image, orientation int) (image.Image, bool)
	// Resample scales img to exactly width x height.
	Resample(img image.Image, width, height int, filter Filter) image.Image
	// Encode writes img in the container chosen by params.Format, or by ext when
	// params.Format is FormatOriginal.
	Encode(w io.Writer, img image.Image, ext string, params EncodeParams) error
}

// NativeCodec implements Codec using pure Go libraries
// This avoids CGO dependency (libvips) for easier deployment
type NativeCodec struct {
	logger logging.Logger
}

func NewNativeCodec(logger logging.Logger) *NativeCodec {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &NativeCodec{logger: logger.Named("codec")}
}

func (c *NativeCodec) Decode(data []byte) (*SourceImage, error) {
	mime := mimetype.Detect(data)

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(false))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", mime.String(), err)
	}

	src := &SourceImage{
		Image: img,
		MIME:  mime.String(),
		Mode:  DescribeMode(img),
	}
	if meta, ok := metadata.ReadEXIF(data); ok {
		src.Orientation = meta.Orientation
		src.EXIF = meta.Raw
	} else {
		c.logger.Debug("no exif metadata", zap.String("mime", src.MIME))
	}
	return src, nil
}

func (c *NativeCodec) Orient(img image.Image, orientation int) (out image.Image, applied bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("orientation skipped", zap.Int("orientation", orientation), zap.Any("panic", r))
			out, applied = img, false
		}
	}()

	switch orientation {
	case 2:
		return imaging.FlipH(img), true
	case 3:
		return imaging.Rotate180(img), true
	case 4:
		return imaging.FlipV(img), true
	case 5:
		return imaging.Transpose(img), true
	case 6:
		return imaging.Rotate270(img), true
	case 7:
		return imaging.Transverse(img), true
	case 8:
		return imaging.Rotate90(img), true
	default:
		return img, false
	}
}

func (c *NativeCodec) Resample(img image.Image, width, height int, filter Filter) image.Image {
	return resize.Resize(uint(width), uint(height), img, filter.Interpolation())
}

func (c *NativeCodec) Encode(w io.Writer, img image.Image, ext string, params EncodeParams) error {
	target, ok := TargetFormat(params.Format, ext)
	if !ok {
		return fmt.Errorf("no encoder for extension %q", ext)
	}

	var buf bytes.Buffer
	if err := c.encode(&buf, img, target, params); err != nil {
		return err
	}

	data := c.stamp(buf.Bytes(), target, params)
	_, err := w.Write(data)
	return err
}

func (c *NativeCodec) encode(w io.Writer, img image.Image, target OutputFormat, params EncodeParams) error {
	switch target {
	case FormatJPEG:
		quality := params.Quality
		if quality == 0 {
			quality = DefaultJPEGQuality
		}
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case FormatPNG:
		return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.DefaultCompression))
	case FormatGIF:
		return imaging.Encode(w, img, imaging.GIF, imaging.GIFNumColors(256))
	case FormatTIFF:
		return imaging.Encode(w, img, imaging.TIFF)
	case FormatBMP:
		return imaging.Encode(w, img, imaging.BMP)
	case FormatWEBP:
		// nativewebp only writes lossless VP8L; quality has no effect
		return nativewebp.Encode(w, img, &nativewebp.Options{})
	default:
		return fmt.Errorf("unsupported output format: %s", target)
	}
}

// stamp writes resolution and EXIF into the encoded container where it has a
// place for them. Failures leave data untouched.
func (c *NativeCodec) stamp(data []byte, target OutputFormat, params EncodeParams) []byte {
	set := func(what string, out []byte, ok bool) {
		if !ok {
			c.logger.Debug("metadata skipped", zap.String("what", what), zap.Stringer("format", target))
			return
		}
		data = out
	}

	switch target {
	case FormatJPEG:
		if params.DPI > 0 {
			out, ok := metadata.SetJPEGDensity(data, params.DPI)
			set("dpi", out, ok)
		}
		if len(params.EXIF) > 0 {
			out, ok := metadata.AttachJPEGEXIF(data, params.EXIF)
			set("exif", out, ok)
		}
	case FormatPNG:
		if params.DPI > 0 {
			out, ok := metadata.SetPNGDensity(data, params.DPI)
			set("dpi", out, ok)
		}
		if len(params.EXIF) > 0 {
			out, ok := metadata.AttachPNGEXIF(data, params.EXIF)
			set("exif", out, ok)
		}
	case FormatBMP:
		if params.DPI > 0 {
			out, ok := metadata.SetBMPDensity(data, params.DPI)
			set("dpi", out, ok)
		}
	}
	return data
}

var _ Codec = (*NativeCodec)(nil)
