package seeded

import "testing"

// The hash/PRNG pairing is a pinned format; these golden values must never
// change.

func TestHash_KnownVectors(t *testing.T) {
	cases := []struct {
		in   string
		want uint32
	}{
		{"", 2166136261},
		{"a", 3826002220},
		{"foobar", 3214735720},
		{"2024-01-01|focus|paris|3", 1825024255},
	}
	for _, c := range cases {
		if got := Hash(c.in); got != c.want {
			t.Fatalf("Hash(%q)=%d want %d", c.in, got, c.want)
		}
	}
}

func TestRand_GoldenStream(t *testing.T) {
	r := New(1)
	want := []float64{
		0.6270739405881613,
		0.002735721180215478,
		0.5274470399599522,
		0.9810509674716741,
		0.9683778982143849,
	}
	for i, w := range want {
		if got := r.Next(); got != w {
			t.Fatalf("draw %d: got %v want %v", i, got, w)
		}
	}
}

func TestRand_SeededFromKeyGolden(t *testing.T) {
	r := FromKey("2024-01-01|focus|paris|3")
	want := []float64{
		0.26901412988081574,
		0.004282569279894233,
		0.4897800285834819,
		0.1681161681190133,
		0.9783312631770968,
	}
	for i, w := range want {
		if got := r.Next(); got != w {
			t.Fatalf("draw %d: got %v want %v", i, got, w)
		}
	}
}

func TestRand_IntnGolden(t *testing.T) {
	r := New(42)
	want := []int{5, 4, 7, 6, 1, 4}
	for i, w := range want {
		if got := r.Intn(9); got != w {
			t.Fatalf("draw %d: got %d want %d", i, got, w)
		}
	}
}

func TestRand_SameSeedSameStream(t *testing.T) {
	a, b := FromKey("k"), FromKey("k")
	for i := 0; i < 100; i++ {
		if a.Next() != b.Next() {
			t.Fatalf("streams diverged at draw %d", i)
		}
	}
}

func TestIntn_Bounds(t *testing.T) {
	r := New(7)
	for i := 0; i < 1000; i++ {
		if n := r.Intn(9); n < 0 || n > 8 {
			t.Fatalf("Intn(9) out of range: %d", n)
		}
	}
	if n := New(1).Intn(0); n != 0 {
		t.Fatalf("Intn(0)=%d want 0", n)
	}
}
