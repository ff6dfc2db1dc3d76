package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"geometree/internal/field"
)

// encodeColor packs a colour as three little-endian float32 values.
func encodeColor(c field.Color) []byte {
	b := make([]byte, 12)
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(float32(c.R)))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(float32(c.G)))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(float32(c.B)))
	return b
}

func decodeColor(b []byte) (field.Color, error) {
	if len(b) == 0 {
		return field.Color{}, nil
	}
	if len(b) != 12 {
		return field.Color{}, fmt.Errorf("store: invalid colour blob length %d", len(b))
	}
	return field.Color{
		R: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[0:]))),
		G: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))),
		B: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))),
	}, nil
}
