package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func newTestEnvelope() *Envelope {
	e := New(1000, 1)
	e.SetParameter(Delay, 0)
	e.SetParameter(Attack, 0)
	e.SetParameter(Hold, 0)
	e.SetParameter(Decay, 0)
	e.SetParameter(Sustain, 300) // 30% of full attenuation
	e.SetParameter(Release, 0)
	return e
}

func TestStartsAtSilence(t *testing.T) {
	e := New(1000, 1)
	assert.Equal(t, 0.0, e.Value())
	assert.False(t, e.IsFinished())
}

func TestAttackClimbsToFullScale(t *testing.T) {
	e := New(1000, 1)
	e.SetParameter(Delay, 0)
	e.SetParameter(Attack, 1200) // 2 seconds at 1000 steps/sec... timecent 1200 = 2x a second
	e.SetParameter(Hold, 0)
	e.SetParameter(Decay, 0)
	e.SetParameter(Sustain, 0)
	e.SetParameter(Release, 0)

	prev := e.Value()
	for i := 0; i < 5000; i++ {
		e.Update()
		assert.GreaterOrEqual(t, e.Value(), prev-1e-9)
		prev = e.Value()
		if e.section == Sustain {
			break
		}
	}
}

func TestReleaseReachesFinished(t *testing.T) {
	e := newTestEnvelope()
	for i := 0; i < 10; i++ {
		e.Update()
	}
	e.Release()
	for i := 0; i < 100000 && !e.IsFinished(); i++ {
		e.Update()
	}
	assert.True(t, e.IsFinished())
	assert.Equal(t, 0.0, e.Value())
}

func TestReleaseIsIdempotentAfterFinished(t *testing.T) {
	e := newTestEnvelope()
	e.Release()
	for i := 0; i < 100000 && !e.IsFinished(); i++ {
		e.Update()
	}
	e.Release() // no-op, already past Release
	assert.True(t, e.IsFinished())
}

func TestSectionNeverRegresses(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := New(1000, 1)
		for s := Delay; s <= Release; s++ {
			e.SetParameter(s, rapid.Float64Range(0, 1200).Draw(rt, "param"))
		}
		last := e.section
		for i := 0; i < 2000; i++ {
			e.Update()
			assert.GreaterOrEqual(t, int(e.section), int(last))
			last = e.section
		}
	})
}
