package index

import "testing"

func TestTuneBelowThreshold(t *testing.T) {
	p := Tune(999, 768)
	if p.ShouldCreate {
		t.Fatalf("expected ShouldCreate=false below 1000 rows, got %+v", p)
	}
}

func TestTuneAtAndAboveThreshold(t *testing.T) {
	cases := []struct {
		rows, dim int
	}{
		{1000, 768},
		{100000, 1536},
		{2_000_000, 8},
	}
	for _, c := range cases {
		p := Tune(c.rows, c.dim)
		if !p.ShouldCreate {
			t.Fatalf("rows=%d: expected ShouldCreate=true", c.rows)
		}
		if p.NumPartitions < 2 || p.NumPartitions > 256 {
			t.Fatalf("rows=%d: partitions out of range: %d", c.rows, p.NumPartitions)
		}
		if p.NumSubVectors < 1 || p.NumSubVectors > 96 {
			t.Fatalf("dim=%d: sub-vectors out of range: %d", c.dim, p.NumSubVectors)
		}
		if p.NumBits != 8 {
			t.Fatalf("expected 8 bits, got %d", p.NumBits)
		}
		if p.DistanceType != Cosine {
			t.Fatalf("expected cosine distance, got %s", p.DistanceType)
		}
	}
}

func TestTunePartitionsNearSqrt(t *testing.T) {
	p := Tune(10000, 768)
	if p.NumPartitions != 100 {
		t.Fatalf("expected 100 partitions for 10000 rows, got %d", p.NumPartitions)
	}
}

func TestIsqrt(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 4: 2, 10: 3, 10000: 100, 9999: 99}
	for n, want := range cases {
		if got := isqrt(n); got != want {
			t.Errorf("isqrt(%d) = %d, want %d", n, got, want)
		}
	}
}
