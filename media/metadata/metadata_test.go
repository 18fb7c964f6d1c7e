package metadata

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, sample()))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, sample(), &jpeg.Options{Quality: 80}))
	return buf.Bytes()
}

type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// tiffOrientation builds a minimal TIFF-structured EXIF blob with IFD0 Orientation.
func tiffOrientation(order byteOrder, orientation uint16) []byte {
	var b []byte
	if order == binary.BigEndian {
		b = []byte("MM\x00*")
	} else {
		b = []byte("II*\x00")
	}
	b = order.AppendUint32(b, 8)
	b = order.AppendUint16(b, 1)
	b = order.AppendUint16(b, OrientationTag)
	b = order.AppendUint16(b, 3)
	b = order.AppendUint32(b, 1)
	b = order.AppendUint16(b, orientation)
	b = order.AppendUint16(b, 0)
	return order.AppendUint32(b, 0)
}

func TestSetPNGDensity(t *testing.T) {
	data := encodePNG(t)

	out, ok := SetPNGDensity(data, 300)
	require.True(t, ok)

	phys, ok := pngChunk(out, "pHYs")
	require.True(t, ok)
	require.Len(t, phys, 9)
	assert.Equal(t, uint32(11811), binary.BigEndian.Uint32(phys[0:4]))
	assert.Equal(t, uint32(11811), binary.BigEndian.Uint32(phys[4:8]))
	assert.Equal(t, byte(1), phys[8])

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())

	// a second stamp is refused rather than duplicating the chunk
	_, ok = SetPNGDensity(out, 72)
	assert.False(t, ok)
}

func TestSetPNGDensityRejectsOtherContainers(t *testing.T) {
	_, ok := SetPNGDensity(encodeJPEG(t), 300)
	assert.False(t, ok)
	_, ok = SetPNGDensity(encodePNG(t), 0)
	assert.False(t, ok)
}

func TestSetJPEGDensityInsertsJFIF(t *testing.T) {
	data := encodeJPEG(t)

	out, ok := SetJPEGDensity(data, 240)
	require.True(t, ok)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, out[:6])
	assert.Equal(t, jfifID, out[6:11])
	assert.Equal(t, byte(1), out[13])
	assert.Equal(t, uint16(240), binary.BigEndian.Uint16(out[14:16]))
	assert.Equal(t, uint16(240), binary.BigEndian.Uint16(out[16:18]))

	_, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	// stamping again patches in place
	again, ok := SetJPEGDensity(out, 96)
	require.True(t, ok)
	assert.Len(t, again, len(out))
	assert.Equal(t, uint16(96), binary.BigEndian.Uint16(again[14:16]))
}

func TestJPEGEXIFRoundTrip(t *testing.T) {
	blob := tiffOrientation(binary.LittleEndian, 6)

	withDensity, ok := SetJPEGDensity(encodeJPEG(t), 300)
	require.True(t, ok)
	out, ok := AttachJPEGEXIF(withDensity, blob)
	require.True(t, ok)

	// APP1 follows the JFIF segment
	assert.Equal(t, []byte{0xFF, 0xE1}, out[20:22])

	meta, ok := ReadEXIF(out)
	require.True(t, ok)
	assert.Equal(t, 6, meta.Orientation)
	assert.Equal(t, blob, meta.Raw)

	_, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
}

func TestAttachJPEGEXIFRejectsOversizedBlob(t *testing.T) {
	_, ok := AttachJPEGEXIF(encodeJPEG(t), make([]byte, 70000))
	assert.False(t, ok)
}

func TestPNGEXIFRoundTrip(t *testing.T) {
	blob := tiffOrientation(binary.BigEndian, 8)

	out, ok := AttachPNGEXIF(encodePNG(t), append([]byte("Exif\x00\x00"), blob...))
	require.True(t, ok)

	chunk, ok := pngChunk(out, "eXIf")
	require.True(t, ok)
	assert.Equal(t, blob, chunk)

	meta, ok := ReadEXIF(out)
	require.True(t, ok)
	assert.Equal(t, 8, meta.Orientation)
	assert.NotEmpty(t, meta.Raw)

	_, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
}

func TestReadEXIFWithoutMetadata(t *testing.T) {
	_, ok := ReadEXIF(encodePNG(t))
	assert.False(t, ok)
	_, ok = ReadEXIF(encodeJPEG(t))
	assert.False(t, ok)
	_, ok = ReadEXIF(nil)
	assert.False(t, ok)
	_, ok = ReadEXIF([]byte("garbage"))
	assert.False(t, ok)
}

func TestResetOrientation(t *testing.T) {
	for _, order := range []byteOrder{binary.LittleEndian, binary.BigEndian} {
		blob := tiffOrientation(order, 6)

		out, ok := ResetOrientation(blob)
		require.True(t, ok)
		assert.Equal(t, uint16(1), order.Uint16(out[18:20]))
		// the input is not modified
		assert.Equal(t, uint16(6), order.Uint16(blob[18:20]))
	}

	_, ok := ResetOrientation([]byte("short"))
	assert.False(t, ok)

	noTag := tiffOrientation(binary.LittleEndian, 6)
	binary.LittleEndian.PutUint16(noTag[10:12], 0x010F)
	_, ok = ResetOrientation(noTag)
	assert.False(t, ok)
}

func TestSetBMPDensity(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, sample(), imaging.BMP))

	out, ok := SetBMPDensity(buf.Bytes(), 300)
	require.True(t, ok)
	assert.Equal(t, uint32(11811), binary.LittleEndian.Uint32(out[38:42]))
	assert.Equal(t, uint32(11811), binary.LittleEndian.Uint32(out[42:46]))

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 6, img.Bounds().Dy())

	_, ok = SetBMPDensity(encodePNG(t), 300)
	assert.False(t, ok)
}
