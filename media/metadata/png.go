package metadata

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"math"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// ihdrEnd is the offset just past the IHDR chunk, which always comes first.
const ihdrEnd = 8 + 4 + 4 + 13 + 4

// SetPNGDensity inserts a pHYs chunk carrying dpi as pixels per metre.
func SetPNGDensity(data []byte, dpi int) ([]byte, bool) {
	if !hasIHDR(data) || dpi <= 0 {
		return nil, false
	}
	if _, exists := pngChunk(data, "pHYs"); exists {
		return nil, false
	}

	ppm := uint32(dotsPerMetre(dpi))
	body := make([]byte, 0, 9)
	body = binary.BigEndian.AppendUint32(body, ppm)
	body = binary.BigEndian.AppendUint32(body, ppm)
	body = append(body, 1) // unit: metre

	return insertAt(data, ihdrEnd, pngChunkBytes("pHYs", body)), true
}

// AttachPNGEXIF inserts raw as an eXIf chunk ahead of the image data.
func AttachPNGEXIF(data, raw []byte) ([]byte, bool) {
	if !hasIHDR(data) || len(raw) == 0 {
		return nil, false
	}
	raw = bytes.TrimPrefix(raw, exifHeader)
	return insertAt(data, ihdrEnd, pngChunkBytes("eXIf", raw)), true
}

func hasIHDR(data []byte) bool {
	return isPNG(data) && len(data) >= ihdrEnd && string(data[12:16]) == "IHDR"
}

// pngChunk returns the payload of the first chunk named typ.
func pngChunk(data []byte, typ string) ([]byte, bool) {
	if !isPNG(data) {
		return nil, false
	}
	for off := len(pngSignature); off+12 <= len(data); {
		size := int(binary.BigEndian.Uint32(data[off : off+4]))
		start := off + 8
		if size < 0 || start+size+4 > len(data) {
			return nil, false
		}
		name := string(data[off+4 : off+8])
		if name == typ {
			return data[start : start+size], true
		}
		if name == "IEND" {
			break
		}
		off = start + size + 4
	}
	return nil, false
}

func pngChunkBytes(typ string, body []byte) []byte {
	out := make([]byte, 0, len(body)+12)
	out = binary.BigEndian.AppendUint32(out, uint32(len(body)))
	out = append(out, typ...)
	out = append(out, body...)
	crc := crc32.NewIEEE()
	crc.Write(out[4:])
	return binary.BigEndian.AppendUint32(out, crc.Sum32())
}

func dotsPerMetre(dpi int) int {
	return int(math.Round(float64(dpi) / 0.0254))
}
