// Package metadata reads and writes the small pieces of container metadata the
// resize pipeline carries across: EXIF blobs, the orientation tag and resolution.
//
// Every function is best-effort and reports success with a bool instead of an
// error; callers keep going with the unmodified input when it is false.
package metadata

import (
	"bytes"
	"encoding/binary"

	"github.com/rwcarlsen/goexif/exif"
)

// OrientationTag is the TIFF tag id of the EXIF Orientation field.
const OrientationTag = 0x0112

// EXIF is what the pipeline keeps from a source file's metadata.
type EXIF struct {
	// Raw is the TIFF-structured EXIF payload (starting at the byte order mark),
	// or nil when the container has no embeddable blob.
	Raw []byte
	// Orientation is the EXIF orientation (1-8), or 0 when absent.
	Orientation int
}

// ReadEXIF extracts the EXIF blob and orientation from an encoded image.
// JPEG, PNG (eXIf chunk) and WebP (EXIF chunk) yield a raw blob; TIFF yields only
// the orientation since its metadata is interleaved with the pixel data.
func ReadEXIF(data []byte) (meta EXIF, ok bool) {
	defer func() {
		if recover() != nil {
			meta, ok = EXIF{}, false
		}
	}()

	var payload []byte
	keepRaw := true
	switch {
	case isPNG(data):
		payload, ok = pngChunk(data, "eXIf")
	case isWebP(data):
		payload, ok = webpChunk(data, "EXIF")
	case isTIFF(data):
		payload, ok = data, true
		keepRaw = false
	default:
		payload, ok = data, len(data) > 0
	}
	if !ok {
		return EXIF{}, false
	}

	x, err := exif.Decode(bytes.NewReader(payload))
	if err != nil {
		return EXIF{}, false
	}

	if keepRaw && len(x.Raw) > 0 {
		meta.Raw = bytes.TrimPrefix(x.Raw, exifHeader)
	}
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil && v >= 1 && v <= 8 {
			meta.Orientation = v
		}
	}
	return meta, meta.Raw != nil || meta.Orientation != 0
}

// ResetOrientation returns a copy of raw with the IFD0 Orientation value set to 1.
// It reports false when raw is not a well-formed TIFF header or has no such tag.
func ResetOrientation(raw []byte) ([]byte, bool) {
	if len(raw) < 8 {
		return nil, false
	}

	var order binary.ByteOrder
	switch string(raw[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, false
	}

	ifd := int(order.Uint32(raw[4:8]))
	if ifd < 8 || ifd+2 > len(raw) {
		return nil, false
	}
	count := int(order.Uint16(raw[ifd : ifd+2]))

	for i := 0; i < count; i++ {
		entry := ifd + 2 + i*12
		if entry+12 > len(raw) {
			return nil, false
		}
		if order.Uint16(raw[entry:entry+2]) != OrientationTag {
			continue
		}
		// SHORT, count 1: the value sits left-justified in the offset field
		if order.Uint16(raw[entry+2:entry+4]) != 3 {
			return nil, false
		}
		out := bytes.Clone(raw)
		order.PutUint16(out[entry+8:entry+10], 1)
		return out, true
	}
	return nil, false
}

var exifHeader = []byte("Exif\x00\x00")

func isPNG(data []byte) bool {
	return bytes.HasPrefix(data, pngSignature)
}

func isWebP(data []byte) bool {
	return len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}

func isTIFF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*"))
}

// webpChunk returns the payload of the first RIFF chunk named fourCC.
func webpChunk(data []byte, fourCC string) ([]byte, bool) {
	for off := 12; off+8 <= len(data); {
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		start := off + 8
		if size < 0 || start+size > len(data) {
			return nil, false
		}
		if string(data[off:off+4]) == fourCC {
			return data[start : start+size], true
		}
		off = start + size + size&1
	}
	return nil, false
}
