package search

import (
	"encoding/binary"
	"math"
)

// EncodeVector converts a vector to a little-endian float32 blob, 4 bytes
// per dimension. Canonical vectors produce fixed 12288-byte rows.
func EncodeVector(vector []float64) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(float32(v)))
	}
	return blob
}

// DecodeVector converts a blob back to a vector.
func DecodeVector(blob []byte) []float64 {
	vector := make([]float64, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = float64(math.Float32frombits(bits))
	}
	return vector
}
