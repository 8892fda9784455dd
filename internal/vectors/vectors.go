// Package vectors holds the small amount of vector arithmetic and encoding
// the index implementations share.
package vectors

import (
	"encoding/binary"
	"math"
)

// Normalize scales v to unit length in place and returns it. A zero vector
// is returned unchanged. With all stored vectors normalised, cosine
// similarity reduces to a dot product, which keeps ranking order exact and
// identical across index implementations.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// Dot returns the dot product of a and b. For unit vectors this is the
// cosine similarity.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// ToBytes encodes a float32 slice into a little-endian byte blob for
// storage.
func ToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// FromBytes decodes a blob produced by ToBytes.
func FromBytes(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
