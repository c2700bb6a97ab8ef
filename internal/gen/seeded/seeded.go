// Package seeded pins the deterministic hash+PRNG pairing that share
// snapshots, palettes, sigils and daily bundles are derived from. Treat it as
// a versioned format: any change to Hash or the Rand stream breaks
// reproducibility of previously shared content.
package seeded

// Hash is 32-bit FNV-1a.
func Hash(s string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// Rand is a Mulberry32 stream.
type Rand struct {
	state uint32
}

func New(seed uint32) *Rand {
	return &Rand{state: seed}
}

// FromKey seeds a stream from an arbitrary string key.
func FromKey(key string) *Rand {
	return New(Hash(key))
}

// Next returns the next value in [0, 1).
func (r *Rand) Next() float64 {
	r.state += 0x6D2B79F5
	z := r.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	return float64(z^(z>>14)) / 4294967296.0
}

// Intn returns a value in [0, n). n must be positive.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Next() * float64(n))
}

// Pick returns a pseudo-random element of items.
func Pick[T any](r *Rand, items []T) T {
	return items[r.Intn(len(items))]
}
