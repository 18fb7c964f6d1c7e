package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/leeforge/imgresize/errors"
	"github.com/leeforge/imgresize/logging"
	"github.com/leeforge/imgresize/media/metadata"
	"github.com/leeforge/imgresize/media/storage"
)

// Pipeline resizes one source file into the request's output directory.
// It holds no per-file state and may be reused across a batch.
type Pipeline struct {
	codec  Codec
	logger logging.Logger
}

// NewPipeline 创建处理管道
func NewPipeline(codec Codec, logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		codec:  codec,
		logger: logger.Named("pipeline"),
	}
}

// Process runs decode, orient, resize, normalize, encode, write and verify for
// sourcePath and returns the path of the written file.
//
// Orientation and metadata handling are best-effort; every other step fails the
// call with a typed error.
func (p *Pipeline) Process(ctx context.Context, sourcePath string, req ResizeRequest) (string, error) {
	log := logging.WithContext(p.logger, ctx).With(zap.String("source", sourcePath))

	// 1. decode
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", apperrors.NewDecode(sourcePath, err)
	}
	src, err := p.codec.Decode(data)
	if err != nil {
		return "", apperrors.NewDecode(sourcePath, err)
	}
	img := src.Image
	log.Debug("decoded",
		zap.String("mime", src.MIME),
		zap.Stringer("mode", src.Mode),
		zap.Int("width", src.Width()),
		zap.Int("height", src.Height()),
	)

	// 2. orient
	oriented := false
	if src.Orientation > 1 {
		if out, ok := p.codec.Orient(img, src.Orientation); ok && out != nil {
			img, oriented = out, true
		} else {
			log.Debug("orientation not applied", zap.Int("orientation", src.Orientation))
		}
	}

	// 3. resize
	bounds := img.Bounds()
	width, height := ComputeSize(bounds.Dx(), bounds.Dy(), req)
	if width != bounds.Dx() || height != bounds.Dy() {
		img = p.codec.Resample(img, width, height, req.Filter)
		log.Debug("resampled", zap.Int("width", width), zap.Int("height", height), zap.Stringer("filter", req.Filter))
	}

	// 4. normalize color mode
	ext := ResolveExtension(req.Format, filepath.Ext(sourcePath))
	if target, ok := TargetFormat(req.Format, ext); ok {
		img = NormalizeMode(img, target)
	}

	// 5. output path
	name := OutputName(sourcePath, width, height, ext)
	store := storage.OpenLocalProvider(req.OutputDir)
	outputPath := store.Path(name)

	// 6. encode and write
	exif := src.EXIF
	if oriented && req.KeepEXIF && len(exif) > 0 {
		if reset, ok := metadata.ResetOrientation(exif); ok {
			exif = reset
		} else {
			log.Debug("orientation tag left as is")
		}
	}
	params := BuildEncodeParams(req, outputPath, exif)

	var buf bytes.Buffer
	if err := p.codec.Encode(&buf, img, ext, params); err != nil {
		return "", apperrors.NewEncode(formatLabel(params.Format, ext), err).WithDetail("path", outputPath)
	}
	if _, err := store.Upload(ctx, &buf, name); err != nil {
		return "", apperrors.NewEncode(formatLabel(params.Format, ext), err).
			WithDetail("path", outputPath).
			WithDetail("stage", "write")
	}

	// 7. verify
	size, err := store.Size(ctx, name)
	if err != nil {
		return "", apperrors.NewWriteVerification(outputPath, "output file is missing")
	}
	if size == 0 {
		return "", apperrors.NewWriteVerification(outputPath, "output file is empty")
	}

	log.Debug("written", zap.String("output", outputPath), zap.Int64("bytes", size))
	return outputPath, nil
}

// OutputName derives "{stem}_{W}x{H}{ext}" from the source path.
func OutputName(sourcePath string, width, height int, ext string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s_%dx%d%s", stem, width, height, ext)
}

func formatLabel(f OutputFormat, ext string) string {
	if f != FormatOriginal {
		return f.String()
	}
	if ext == "" {
		return "(no extension)"
	}
	return ext
}

// ImageInfo is the header-level description of an image file.
type ImageInfo struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// GetImageInfo 获取图片信息
// Only the header is read; the pixel data is never decoded.
func GetImageInfo(path string) (ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImageInfo{}, apperrors.NewDecode(path, err)
	}
	defer f.Close()

	config, format, err := image.DecodeConfig(f)
	if err != nil {
		return ImageInfo{}, apperrors.NewDecode(path, err)
	}
	return ImageInfo{
		Width:  config.Width,
		Height: config.Height,
		Format: format,
	}, nil
}
