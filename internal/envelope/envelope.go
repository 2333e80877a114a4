// Package envelope implements the DAHDSR (delay/attack/hold/decay/sustain/
// release) envelope generator SF2 voices use to shape amplitude (and,
// separately, modulation depth) over a note's lifetime.
package envelope

import (
	"fmt"

	"github.com/kestrelaudio/sfsynth/internal/conv"
)

// Section is one DAHDSR state.
type Section int

const (
	Delay Section = iota
	Attack
	Hold
	Decay
	Sustain
	Release
	Finished
)

// numTimedSections is the number of sections with a settable duration
// parameter: every section except Finished.
const numTimedSections = int(Release) + 1

// Envelope is a single DAHDSR state machine, stepped once per call to
// Update at a fixed effective rate (the render rate divided by however many
// frames separate recomputation, typically the voice's subsampling
// interval).
type Envelope struct {
	effectiveRate float64
	params        [numTimedSections]float64
	section       Section
	sectionSteps  uint32
	atten         float64
	value         float64
}

// New returns an Envelope that steps at outputRate/interval steps per
// second of audio, starting in the Delay section at silence.
func New(outputRate float64, interval uint32) *Envelope {
	return &Envelope{
		effectiveRate: outputRate / float64(interval),
		section:       Delay,
		atten:         1.0,
		value:         0.0,
	}
}

// Value is the envelope's current linear amplitude multiplier in [0, 1].
func (e *Envelope) Value() float64 { return e.value }

// IsFinished reports whether the envelope has completed its release and
// settled to silence; a voice whose amplitude envelope IsFinished is done
// and can be reclaimed.
func (e *Envelope) IsFinished() bool { return e.section == Finished }

// SetParameter sets section's generator-derived parameter. For every
// section but Sustain, param is an SF2 timecent duration, converted to a
// step count at the envelope's effective rate. Sustain's param is a
// per-mille attenuation level (tenths of a percent, per the SF2 spec),
// stored normalized to [0, 1].
func (e *Envelope) SetParameter(section Section, param float64) {
	switch {
	case section == Sustain:
		e.params[Sustain] = 0.001 * param
	case section < Finished:
		e.params[section] = e.effectiveRate * conv.TimecentToSecond(param)
	default:
		panic(fmt.Sprintf("envelope: unknown section %d", section))
	}
}

// Release begins the envelope's release phase, unless it has already
// started releasing (or finished) on its own.
func (e *Envelope) Release() {
	if e.section < Release {
		e.changeSection(Release)
	}
}

func (e *Envelope) changeSection(section Section) {
	e.section = section
	e.sectionSteps = 0
}

// Update advances the envelope by one step, recomputing Value.
func (e *Envelope) Update() {
	if e.section == Finished {
		return
	}

	e.sectionSteps++

	i := e.section
	for e.section < Finished && e.section != Sustain && float64(e.sectionSteps) >= e.params[i] {
		i++
		e.changeSection(i)
	}

	sustain := e.params[Sustain]
	switch e.section {
	case Delay, Finished:
		e.atten = 1.0
		e.value = 0.0
		return
	case Attack:
		e.atten = 1.0 - float64(e.sectionSteps)/e.params[i]
		e.value = 1.0 - e.atten
		return
	case Hold:
		e.atten = 0.0
		e.value = 1.0
		return
	case Decay:
		e.atten = float64(e.sectionSteps) / e.params[i]
		if e.atten >= sustain {
			e.atten = sustain
			e.changeSection(Sustain)
		}
	case Sustain:
		e.atten = sustain
	case Release:
		e.atten += 1.0 / e.params[i]
		if e.atten >= 1.0 {
			e.atten = 1.0
			e.value = 0.0
			e.changeSection(Finished)
			return
		}
	}

	e.value = conv.AttenToAmp(960.0 * e.atten)
}
