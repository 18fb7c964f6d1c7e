package processor

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/imgresize/errors"
	"github.com/leeforge/imgresize/logging"
	"github.com/leeforge/imgresize/media/metadata"
)

// fakeCodec delegates to NativeCodec while recording resample calls and
// injecting failures.
type fakeCodec struct {
	native      *NativeCodec
	resampled   int
	encodeErr   error
	silent      bool
	orientation int
}

func newFakeCodec() *fakeCodec {
	return &fakeCodec{native: NewNativeCodec(logging.NewNop())}
}

func (f *fakeCodec) Decode(data []byte) (*SourceImage, error) {
	src, err := f.native.Decode(data)
	if err == nil && f.orientation > 0 {
		src.Orientation = f.orientation
	}
	return src, err
}

func (f *fakeCodec) Orient(img image.Image, orientation int) (image.Image, bool) {
	return f.native.Orient(img, orientation)
}

func (f *fakeCodec) Resample(img image.Image, width, height int, filter Filter) image.Image {
	f.resampled++
	return f.native.Resample(img, width, height, filter)
}

func (f *fakeCodec) Encode(w io.Writer, img image.Image, ext string, params EncodeParams) error {
	if f.encodeErr != nil {
		return f.encodeErr
	}
	if f.silent {
		return nil
	}
	return f.native.Encode(w, img, ext, params)
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

func writeFixture(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func percentRequest(percent int, outDir string) ResizeRequest {
	return ResizeRequest{
		Mode:      ModePercent,
		Percent:   percent,
		DPI:       300,
		Quality:   90,
		Filter:    Lanczos,
		KeepEXIF:  true,
		Format:    FormatOriginal,
		OutputDir: outDir,
	}.Normalized()
}

func TestPipelineProcessResizes(t *testing.T) {
	src := writeFixture(t, t.TempDir(), "photo.png", gradient(40, 30))
	outDir := filepath.Join(t.TempDir(), "nested", "out")
	codec := newFakeCodec()

	out, err := NewPipeline(codec, nil).Process(context.Background(), src, percentRequest(50, outDir))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "photo_20x15.png"), out)
	assert.Equal(t, 1, codec.resampled)

	info, err := GetImageInfo(out)
	require.NoError(t, err)
	assert.Equal(t, ImageInfo{Width: 20, Height: 15, Format: "png"}, info)
}

func TestPipelineProcessSameSizeSkipsResample(t *testing.T) {
	src := writeFixture(t, t.TempDir(), "same.png", gradient(16, 8))
	codec := newFakeCodec()

	out, err := NewPipeline(codec, nil).Process(context.Background(), src, percentRequest(100, t.TempDir()))
	require.NoError(t, err)

	assert.Zero(t, codec.resampled)
	assert.Equal(t, "same_16x8.png", filepath.Base(out))
}

func TestPipelineProcessDecodeFailure(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.jpg")
	require.NoError(t, os.WriteFile(broken, []byte("not an image"), 0644))

	p := NewPipeline(newFakeCodec(), nil)

	_, err := p.Process(context.Background(), broken, percentRequest(50, dir))
	assert.True(t, apperrors.Is(err, apperrors.ErrDecode))
	assert.NotEmpty(t, apperrors.StackText(err))

	_, err = p.Process(context.Background(), filepath.Join(dir, "missing.png"), percentRequest(50, dir))
	assert.True(t, apperrors.Is(err, apperrors.ErrDecode))
}

func TestPipelineProcessEncodeFailure(t *testing.T) {
	src := writeFixture(t, t.TempDir(), "photo.png", gradient(10, 10))
	outDir := t.TempDir()
	codec := newFakeCodec()
	codec.encodeErr = errors.New("codec rejected parameters")

	_, err := NewPipeline(codec, nil).Process(context.Background(), src, percentRequest(50, outDir))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrEncode))
	assert.Contains(t, err.Error(), "codec rejected parameters")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPipelineProcessRejectsEmptyOutput(t *testing.T) {
	src := writeFixture(t, t.TempDir(), "p.png", gradient(8, 8))
	outDir := t.TempDir()
	codec := newFakeCodec()
	codec.silent = true

	_, err := NewPipeline(codec, nil).Process(context.Background(), src, percentRequest(50, outDir))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrWriteVerification))
	assert.Contains(t, err.Error(), filepath.Join(outDir, "p_4x4.png"))
	assert.Contains(t, err.Error(), "output file is empty")
}

func TestPipelineProcessFlattensAlphaForJPEG(t *testing.T) {
	// zero-valued NRGBA pixels are transparent black
	src := writeFixture(t, t.TempDir(), "clear.png", image.NewNRGBA(image.Rect(0, 0, 8, 8)))
	req := percentRequest(100, t.TempDir())
	req.Format = FormatJPEG

	out, err := NewPipeline(newFakeCodec(), nil).Process(context.Background(), src, req)
	require.NoError(t, err)
	assert.Equal(t, "clear_8x8.jpg", filepath.Base(out))

	img, err := imaging.Open(out)
	require.NoError(t, err)
	r, g, b, a := img.At(4, 4).RGBA()
	assert.GreaterOrEqual(t, r, uint32(0xf000))
	assert.GreaterOrEqual(t, g, uint32(0xf000))
	assert.GreaterOrEqual(t, b, uint32(0xf000))
	assert.Equal(t, uint32(0xffff), a)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Greater(t, len(data), 18)
	assert.Equal(t, []byte("JFIF\x00"), data[6:11])
	assert.Equal(t, uint16(300), binary.BigEndian.Uint16(data[14:16]))
}

func TestPipelineProcessAppliesOrientation(t *testing.T) {
	src := writeFixture(t, t.TempDir(), "portrait.png", gradient(40, 20))
	codec := newFakeCodec()
	codec.orientation = 6

	out, err := NewPipeline(codec, nil).Process(context.Background(), src, percentRequest(100, t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, "portrait_20x40.png", filepath.Base(out))
}

func TestPipelineProcessResetsEXIFOrientation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, gradient(40, 20), imaging.JPEG))
	withEXIF, ok := metadata.AttachJPEGEXIF(buf.Bytes(), orientationEXIF(6))
	require.True(t, ok)

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "camera.jpg")
	require.NoError(t, os.WriteFile(src, withEXIF, 0644))

	out, err := NewPipeline(NewNativeCodec(nil), nil).Process(context.Background(), src, percentRequest(50, t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, "camera_10x20.jpg", filepath.Base(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	meta, ok := metadata.ReadEXIF(data)
	require.True(t, ok)
	assert.Equal(t, 1, meta.Orientation)
}

func TestPipelineProcessWritesWebP(t *testing.T) {
	src := writeFixture(t, t.TempDir(), "photo.jpg", gradient(32, 32))
	req := percentRequest(50, t.TempDir())
	req.Format = FormatWEBP

	out, err := NewPipeline(NewNativeCodec(nil), nil).Process(context.Background(), src, req)
	require.NoError(t, err)

	info, err := GetImageInfo(out)
	require.NoError(t, err)
	assert.Equal(t, ImageInfo{Width: 16, Height: 16, Format: "webp"}, info)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "a.b_10x20.jpg", OutputName("/x/y/a.b.PNG", 10, 20, ".jpg"))
	assert.Equal(t, "noext_1x1", OutputName("noext", 1, 1, ""))
}

func TestGetImageInfoRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.png")
	require.NoError(t, os.WriteFile(path, []byte{0, 1, 2}, 0644))

	_, err := GetImageInfo(path)
	assert.True(t, apperrors.Is(err, apperrors.ErrDecode))
}

// orientationEXIF builds a little-endian TIFF blob holding only IFD0 Orientation.
func orientationEXIF(orientation uint16) []byte {
	b := []byte("II*\x00")
	b = binary.LittleEndian.AppendUint32(b, 8)
	b = binary.LittleEndian.AppendUint16(b, 1)
	b = binary.LittleEndian.AppendUint16(b, metadata.OrientationTag)
	b = binary.LittleEndian.AppendUint16(b, 3)
	b = binary.LittleEndian.AppendUint32(b, 1)
	b = binary.LittleEndian.AppendUint16(b, orientation)
	b = binary.LittleEndian.AppendUint16(b, 0)
	return binary.LittleEndian.AppendUint32(b, 0)
}
