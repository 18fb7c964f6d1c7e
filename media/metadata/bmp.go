package metadata

import (
	"bytes"
	"encoding/binary"
)

// SetBMPDensity writes dpi into the BITMAPINFOHEADER pixels-per-metre fields.
func SetBMPDensity(data []byte, dpi int) ([]byte, bool) {
	if len(data) < 46 || string(data[:2]) != "BM" || dpi <= 0 {
		return nil, false
	}
	if binary.LittleEndian.Uint32(data[14:18]) < 40 {
		return nil, false
	}

	ppm := uint32(dotsPerMetre(dpi))
	out := bytes.Clone(data)
	binary.LittleEndian.PutUint32(out[38:42], ppm)
	binary.LittleEndian.PutUint32(out[42:46], ppm)
	return out, true
}
