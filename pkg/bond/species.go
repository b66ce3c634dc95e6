package bond

import (
	"encoding/binary"
	"hash/fnv"
)

// SpeciesHash maps a species label to the integer stored in per-vertex
// attributes. Labels of up to eight bytes are packed little-endian, so
// SpeciesName can recover them; longer labels use FNV-1a.
func SpeciesHash(name string) int64 {
	if len(name) <= 8 {
		var buf [8]byte
		copy(buf[:], name)
		return int64(binary.LittleEndian.Uint64(buf[:]))
	}
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(h.Sum64())
}

// SpeciesName inverts SpeciesHash for packed labels. Trailing zero bytes
// are dropped.
func SpeciesName(hash int64) string {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(hash))
	n := len(buf)
	for n > 0 && buf[n-1] == 0 {
		n--
	}
	return string(buf[:n])
}
