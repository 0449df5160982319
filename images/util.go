package images

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"math"

	"gorgonia.org/tensor"
)

// Checksum generates a deterministic checksum of a float64 tensor's shape
// and values, used to check that repeated loads decode identically.
//
// Arguments:
// - t: The tensor to compute the checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string, or "empty" for a nil tensor.
//
// Example:
//
//	sum := Checksum(item.Image)
//	fmt.Printf("image checksum: %s\n", sum)
func Checksum(t *tensor.Dense) string {
	if t == nil {
		return "empty"
	}

	hash := md5.New()
	var buf [8]byte
	for _, dim := range t.Shape() {
		binary.LittleEndian.PutUint64(buf[:], uint64(dim))
		hash.Write(buf[:])
	}
	if values, ok := t.Data().([]float64); ok {
		for _, v := range values {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			hash.Write(buf[:])
		}
	}
	return fmt.Sprintf("%x", hash.Sum(nil))
}
