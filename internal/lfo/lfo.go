// Package lfo implements the triangle-wave low-frequency oscillator SF2
// voices use for pitch, filter, and volume modulation.
package lfo

import "github.com/kestrelaudio/sfsynth/internal/conv"

// LFO is a delayed-start triangle oscillator in [-1, 1], stepped once per
// call to Update at a fixed effective rate (render rate divided by the
// subsampling interval between recomputations).
type LFO struct {
	outputRate float64
	interval   uint32
	steps      uint32
	delay      float64
	delta      float64
	value      float64
	ascending  bool
}

// New returns an LFO at rest (value 0), stepping at outputRate/interval
// steps per second once its delay has elapsed.
func New(outputRate float64, interval uint32) *LFO {
	return &LFO{outputRate: outputRate, interval: interval, ascending: true}
}

// SetDelay sets how long, in SF2 timecents, the oscillator stays at zero
// before its triangle wave begins.
func (l *LFO) SetDelay(delayTimecents float64) {
	l.delay = l.outputRate * conv.TimecentToSecond(delayTimecents) / float64(l.interval)
}

// SetFrequency sets the oscillator's frequency, given in SF2 absolute
// cents.
func (l *LFO) SetFrequency(freqAbsoluteCents float64) {
	l.delta = 4.0 * conv.AbsoluteCentToHz(freqAbsoluteCents) / (l.outputRate / float64(l.interval))
}

// Update advances the oscillator by one step.
func (l *LFO) Update() {
	l.steps++
	if float64(l.steps) < l.delay {
		return
	}
	if l.ascending {
		l.value += l.delta
		if l.value > 1.0 {
			l.value = 2.0 - l.value
			l.ascending = false
		}
	} else {
		l.value -= l.delta
		if l.value < -1.0 {
			l.value = -2.0 - l.value
			l.ascending = true
		}
	}
}

// Value is the oscillator's current output in [-1, 1].
func (l *LFO) Value() float64 { return l.value }
