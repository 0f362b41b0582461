package session

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/ironsheep/docscan-mcp/internal/detection"
)

// DefaultHashGranularity is the pixel quantum boundaries are rounded to
// before hashing, so sub-quantum jitter between frames keeps the same hash.
const DefaultHashGranularity = 10

// Hash identifies a boundary by its position and size rounded to multiples of
// granularity. Values below 1 are treated as 1.
func Hash(box detection.BoundingBox, granularity int) uint64 {
	if granularity < 1 {
		granularity = 1
	}
	var buf [32]byte
	for i, v := range [4]int{box.X, box.Y, box.Width, box.Height} {
		q := int64(math.Round(float64(v) / float64(granularity)))
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(q))
	}
	return xxhash.Sum64(buf[:])
}
