package metadata

import (
	"bytes"
	"encoding/binary"
)

const (
	markerSOI  = 0xD8
	markerAPP0 = 0xE0
	markerAPP1 = 0xE1

	maxSegmentPayload = 0xFFFF - 2
)

var jfifID = []byte("JFIF\x00")

func isJPEG(data []byte) bool {
	return len(data) >= 4 && data[0] == 0xFF && data[1] == markerSOI
}

// jfifEnd returns the offset just past a JFIF APP0 segment that directly follows SOI,
// or 2 when there is none.
func jfifEnd(data []byte) int {
	if len(data) < 11 || data[2] != 0xFF || data[3] != markerAPP0 || !bytes.Equal(data[6:11], jfifID) {
		return 2
	}
	end := 4 + int(binary.BigEndian.Uint16(data[4:6]))
	if end > len(data) {
		return 2
	}
	return end
}

// SetJPEGDensity records dpi in the JFIF APP0 segment, adding one after SOI if missing.
func SetJPEGDensity(data []byte, dpi int) ([]byte, bool) {
	if !isJPEG(data) || dpi <= 0 || dpi > 0xFFFF {
		return nil, false
	}

	if end := jfifEnd(data); end >= 18 {
		out := bytes.Clone(data)
		out[13] = 1 // units: dots per inch
		binary.BigEndian.PutUint16(out[14:16], uint16(dpi))
		binary.BigEndian.PutUint16(out[16:18], uint16(dpi))
		return out, true
	}

	seg := make([]byte, 0, 18)
	seg = append(seg, 0xFF, markerAPP0, 0x00, 0x10)
	seg = append(seg, jfifID...)
	seg = append(seg, 0x01, 0x01, 0x01)
	seg = binary.BigEndian.AppendUint16(seg, uint16(dpi))
	seg = binary.BigEndian.AppendUint16(seg, uint16(dpi))
	seg = append(seg, 0x00, 0x00)

	return insertAt(data, 2, seg), true
}

// AttachJPEGEXIF inserts raw as an APP1 Exif segment, after the JFIF segment if present.
func AttachJPEGEXIF(data, raw []byte) ([]byte, bool) {
	if !isJPEG(data) || len(raw) == 0 {
		return nil, false
	}

	payload := append(bytes.Clone(exifHeader), bytes.TrimPrefix(raw, exifHeader)...)
	if len(payload) > maxSegmentPayload {
		return nil, false
	}

	seg := make([]byte, 0, len(payload)+4)
	seg = append(seg, 0xFF, markerAPP1)
	seg = binary.BigEndian.AppendUint16(seg, uint16(len(payload)+2))
	seg = append(seg, payload...)

	return insertAt(data, jfifEnd(data), seg), true
}

func insertAt(data []byte, at int, chunk []byte) []byte {
	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:at]...)
	out = append(out, chunk...)
	return append(out, data[at:]...)
}
