package index

// DistanceType names the metric an index is built against. The tuner always
// selects Cosine, matching the store's embedding column.
type DistanceType string

// Cosine is the only distance type the tuner currently selects.
const Cosine DistanceType = "cosine"

// Params is the pure output of Tune: whether to build an approximate index
// for the current table size, and if so, with what partition and
// sub-vector counts.
type Params struct {
	ShouldCreate  bool
	NumPartitions int
	NumSubVectors int
	NumBits       int
	DistanceType  DistanceType
}

// Tune is a pure function of (rowCount, vectorDim). Below 1000 rows a
// brute-force scan beats the index's own overhead, so ShouldCreate is
// false. At or above that threshold it picks a partition count near
// sqrt(rowCount) (clamped to [2,256]) and a sub-vector count near dim/8
// (clamped to [1,96]), matching the IVF-PQ parameterization an
// approximate index needs.
func Tune(rowCount, vectorDim int) Params {
	if rowCount < 1000 {
		return Params{ShouldCreate: false}
	}
	return Params{
		ShouldCreate:  true,
		NumPartitions: clamp(isqrt(rowCount), 2, 256),
		NumSubVectors: clamp(vectorDim/8, 1, 96),
		NumBits:       8,
		DistanceType:  Cosine,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// isqrt returns floor(sqrt(n)) for n >= 0 using integer-only Newton
// iteration, avoiding a float round-trip for the partition count.
func isqrt(n int) int {
	if n <= 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}
