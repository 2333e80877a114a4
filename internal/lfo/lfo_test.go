package lfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestStaysAtZeroDuringDelay(t *testing.T) {
	l := New(1000, 1)
	l.SetDelay(1200) // ~2 seconds
	l.SetFrequency(0)
	for i := 0; i < 100; i++ {
		l.Update()
		assert.Equal(t, 0.0, l.Value())
	}
}

func TestStaysBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		l := New(1000, 1)
		l.SetDelay(0)
		l.SetFrequency(rapid.Float64Range(-1200, 6000).Draw(rt, "freq"))
		for i := 0; i < 5000; i++ {
			l.Update()
			assert.LessOrEqual(t, l.Value(), 1.0+1e-9)
			assert.GreaterOrEqual(t, l.Value(), -1.0-1e-9)
		}
	})
}

func TestOscillates(t *testing.T) {
	l := New(1000, 1)
	l.SetDelay(0)
	l.SetFrequency(6900) // about 440 Hz
	sawPositive, sawNegative := false, false
	for i := 0; i < 2000; i++ {
		l.Update()
		if l.Value() > 0.5 {
			sawPositive = true
		}
		if l.Value() < -0.5 {
			sawNegative = true
		}
	}
	assert.True(t, sawPositive)
	assert.True(t, sawNegative)
}
