package polyroot

import (
	"math"
	"math/cmplx"
	"sort"
	"testing"
)

func TestDurandKernerQuadratic(t *testing.T) {
	t.Parallel()

	// z^2 - 3z + 2 = (z-1)(z-2)
	roots, err := DurandKerner([]complex128{1, -3, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(roots) != 2 {
		t.Fatalf("got %d roots, want 2", len(roots))
	}

	got := []float64{real(roots[0]), real(roots[1])}
	sort.Float64s(got)

	if math.Abs(got[0]-1) > 1e-9 || math.Abs(got[1]-2) > 1e-9 {
		t.Errorf("roots = %v, want [1 2]", got)
	}
}

func TestDurandKernerComplexPair(t *testing.T) {
	t.Parallel()

	// z^2 + 1 = (z-i)(z+i)
	roots, err := DurandKerner([]complex128{1, 0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, r := range roots {
		if res := cmplx.Abs(PolyEval([]complex128{1, 0, 1}, r)); res > 1e-9 {
			t.Errorf("residual %v at root %v", res, r)
		}
	}
}

func TestDurandKernerHighDegree(t *testing.T) {
	t.Parallel()

	// (z-1)(z-2)...(z-6) expanded.
	coeff := []complex128{1}
	for k := 1; k <= 6; k++ {
		next := make([]complex128, len(coeff)+1)
		for i, c := range coeff {
			next[i] += c
			next[i+1] -= c * complex(float64(k), 0)
		}

		coeff = next
	}

	roots, err := DurandKerner(coeff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, r := range roots {
		if res := cmplx.Abs(PolyEval(coeff, r)); res > 1e-5 {
			t.Errorf("residual %v at root %v", res, r)
		}
	}
}

func TestDurandKernerDegenerate(t *testing.T) {
	t.Parallel()

	if _, err := DurandKerner([]complex128{0, 1, 2}); err == nil {
		t.Fatal("expected error for zero leading coefficient")
	}

	if _, err := DurandKerner([]complex128{1}); err == nil {
		t.Fatal("expected error for constant polynomial")
	}
}
