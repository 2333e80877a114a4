package fixedpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestFromIntRoundTrip(t *testing.T) {
	v := FromInt(42)
	assert.Equal(t, uint32(42), v.IntPart())
	assert.Equal(t, 0.0, v.FracPart())
}

func TestFromRealRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		x := rapid.Float64Range(0, float64(1)<<31).Draw(rt, "x")
		v := FromReal(x)
		assert.InDelta(t, x, v.Real(), 1.0/float64(uint64(1)<<32)+1e-6)
	})
}

func TestAddSubRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := FromReal(rapid.Float64Range(0, 1000).Draw(rt, "a"))
		b := FromReal(rapid.Float64Range(0, 1000).Draw(rt, "b"))
		sum := a.Add(b)
		back := sum.Sub(b)
		assert.InDelta(t, a.Real(), back.Real(), 1e-6)
	})
}

func TestMonotonicAscent(t *testing.T) {
	delta := FromReal(1.5)
	phase := FromInt(0)
	prev := phase.Real()
	for i := 0; i < 100; i++ {
		phase = phase.Add(delta)
		assert.Greater(t, phase.Real(), prev)
		prev = phase.Real()
	}
}
