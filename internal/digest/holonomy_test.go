package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openline-proto/openline/internal/frame"
)

// TestDelta_Identity tests that the gap between a digest and itself is
// zero.
func TestDelta_Identity(t *testing.T) {
	d := frame.Digest{B0: 2, CyclePlus: 1, XFrontier: 3, SOverC: 4.5, Depth: 2}
	assert.Equal(t, 0.0, Delta(d, d))
}

// TestDelta_Symmetric tests order independence.
func TestDelta_Symmetric(t *testing.T) {
	a := frame.Digest{B0: 1, CyclePlus: 0, XFrontier: 1, SOverC: 3.0, Depth: 0}
	b := frame.Digest{B0: 2, CyclePlus: 2, XFrontier: 0, SOverC: 1.5, Depth: 4}
	assert.Equal(t, Delta(a, b), Delta(b, a))
}

// TestDelta_L1 tests the field-by-field absolute-difference sum.
func TestDelta_L1(t *testing.T) {
	a := frame.Digest{B0: 1, CyclePlus: 0, XFrontier: 1, SOverC: 3.0, Depth: 0}
	b := frame.Digest{B0: 2, CyclePlus: 1, XFrontier: 0, SOverC: 2.5, Depth: 2}
	// |1| + |1| + |1| + |0.5| + |2|
	assert.InDelta(t, 5.5, Delta(a, b), 1e-12)
}

// TestDelta_TriangleInequality tests the metric property on a fixed
// triple.
func TestDelta_TriangleInequality(t *testing.T) {
	a := frame.Digest{B0: 1, SOverC: 1.0}
	b := frame.Digest{B0: 3, CyclePlus: 2, SOverC: 0.5}
	c := frame.Digest{B0: 2, XFrontier: 1, SOverC: 2.0, Depth: 1}
	assert.LessOrEqual(t, Delta(a, c), Delta(a, b)+Delta(b, c)+1e-12)
}
