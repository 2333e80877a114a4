// Package voice implements a single playing note: sample playback,
// envelopes, LFOs, and the modulator-driven generator recomputation that
// ties them together.
package voice

import (
	"math"

	"github.com/kestrelaudio/sfsynth/internal/conv"
	"github.com/kestrelaudio/sfsynth/internal/envelope"
	"github.com/kestrelaudio/sfsynth/internal/fixedpoint"
	"github.com/kestrelaudio/sfsynth/internal/lfo"
	"github.com/kestrelaudio/sfsynth/internal/modulator"
	"github.com/kestrelaudio/sfsynth/internal/stereo"
	"github.com/kestrelaudio/sfsynth/soundfont"
)

// calcInterval is the number of render steps between recomputations of the
// modulation envelope, vibrato LFO, and the pitch they feed into — these
// move slowly enough that per-sample recalculation is wasted work.
const calcInterval = 32

// SampleMode selects how a voice loops (or doesn't loop) its sample,
// decoded from the SF2 sampleModes generator.
type SampleMode int16

const (
	SampleModeUnLooped            SampleMode = 0
	SampleModeLooped              SampleMode = 1
	SampleModeUnUsed              SampleMode = 2
	SampleModeLoopedWithRemainder SampleMode = 3
)

// State is a voice's lifecycle stage.
type State int

const (
	Playing State = iota
	Sustained
	Released
	Finished
)

type runtimeSample struct {
	mode                         SampleMode
	pitch                        float64
	start, end, startLoop, endLoop uint32
}

// Voice is one playing note, rendered one stereo frame at a time.
type Voice struct {
	noteID      uint64
	actualKey   uint8
	percussion  bool
	buffer      []int16
	generators  soundfont.GeneratorSet
	sample      runtimeSample
	keyScaling  float64
	modulators  []*modulator.Runtime
	modulated   [soundfont.NumGenerators]float64
	fineTuning  float64
	coarseTuning float64
	deltaPhaseFactor float64
	steps       uint32
	status      State
	voicePitch  float64
	phase       fixedpoint.Value
	deltaPhase  fixedpoint.Value
	volume      stereo.Value
	volEnv      *envelope.Envelope
	modEnv      *envelope.Envelope
	vibLFO      *lfo.LFO
	modLFO      *lfo.LFO
}

// initGenerators are the destinations whose runtime state must be primed
// once at construction, before any controller event arrives.
var initGenerators = []soundfont.Generator{
	soundfont.GenPan,
	soundfont.GenDelayModLFO,
	soundfont.GenFreqModLFO,
	soundfont.GenDelayVibLFO,
	soundfont.GenFreqVibLFO,
	soundfont.GenDelayModEnv,
	soundfont.GenAttackModEnv,
	soundfont.GenHoldModEnv,
	soundfont.GenDecayModEnv,
	soundfont.GenSustainModEnv,
	soundfont.GenReleaseModEnv,
	soundfont.GenDelayVolEnv,
	soundfont.GenAttackVolEnv,
	soundfont.GenHoldVolEnv,
	soundfont.GenDecayVolEnv,
	soundfont.GenSustainVolEnv,
	soundfont.GenReleaseVolEnv,
	soundfont.GenCoarseTune,
}

// New constructs a Voice for one note-on: sample, generators, and modulators
// are already fully resolved (merged across global/local zones, preset and
// instrument) by the caller.
func New(noteID uint64, outputRate float64, percussion bool, sample soundfont.Sample,
	generators soundfont.GeneratorSet, modParams soundfont.ModulatorParameterSet, key, velocity uint8) *Voice {

	v := &Voice{
		noteID:     noteID,
		actualKey:  key,
		percussion: percussion,
		buffer:     sample.Buffer,
		generators: generators,
		status:     Playing,
		phase:      fixedpoint.FromInt(sample.Start),
		volume:     stereo.Value{Left: 1.0, Right: 1.0},
		volEnv:     envelope.New(outputRate, 1),
		modEnv:     envelope.New(outputRate, calcInterval),
		vibLFO:     lfo.New(outputRate, calcInterval),
		modLFO:     lfo.New(outputRate, 1),
	}

	v.sample.mode = SampleMode(generators.GetOrDefault(soundfont.GenSampleModes))
	overriddenSampleKey := generators.GetOrDefault(soundfont.GenOverridingRootKey)
	pitch := float64(sample.OriginalKey)
	if overriddenSampleKey > 0 {
		pitch = float64(overriddenSampleKey)
	}
	pitch -= 0.01 * float64(sample.Correction)
	v.sample.pitch = pitch

	v.sample.start = offsetAddr(sample.Start, generators, soundfont.GenStartAddrsCoarseOffset, soundfont.GenStartAddrsOffset)
	v.sample.end = offsetAddr(sample.End, generators, soundfont.GenEndAddrsCoarseOffset, soundfont.GenEndAddrsOffset)
	v.sample.startLoop = offsetAddr(sample.StartLoop, generators, soundfont.GenStartloopAddrsCoarseOffset, soundfont.GenStartloopAddrsOffset)
	v.sample.endLoop = offsetAddr(sample.EndLoop, generators, soundfont.GenEndloopAddrsCoarseOffset, soundfont.GenEndloopAddrsOffset)

	v.deltaPhaseFactor = 1.0 / conv.KeyToHz(pitch) * float64(sample.SampleRate) / outputRate

	for _, m := range modParams.Mods() {
		v.modulators = append(v.modulators, modulator.New(m))
	}

	genVelocity := generators.GetOrDefault(soundfont.GenVelocity)
	effectiveVelocity := int16(velocity)
	if genVelocity > 0 {
		effectiveVelocity = genVelocity
	}
	v.UpdateSFController(soundfont.GeneralControllerNoteOnVelocity, effectiveVelocity)

	genKey := generators.GetOrDefault(soundfont.GenKeynum)
	overriddenKey := int16(key)
	if genKey > 0 {
		overriddenKey = genKey
	}
	v.keyScaling = 60 - float64(overriddenKey)
	v.UpdateSFController(soundfont.GeneralControllerNoteOnKeyNumber, overriddenKey)

	for i := 0; i < soundfont.NumGenerators; i++ {
		v.modulated[i] = float64(generators.GetOrDefault(soundfont.Generator(i)))
	}
	for _, gen := range initGenerators {
		v.updateModulatedParams(gen)
	}

	return v
}

// offsetAddr applies a zone's coarse+fine sample-address offset generators
// to a sample boundary, matching the SF2 rule that coarse offsets count in
// units of 32768 samples.
func offsetAddr(base uint32, g soundfont.GeneratorSet, coarseGen, fineGen soundfont.Generator) uint32 {
	return uint32(int64(base) + 32768*int64(g.GetOrDefault(coarseGen)) + int64(g.GetOrDefault(fineGen)))
}

// NoteID is the monotonically increasing id of the note-on event that
// created this voice, used to distinguish simultaneous voices of an
// exclusive class.
func (v *Voice) NoteID() uint64 { return v.noteID }

// ActualKey is the MIDI key this voice was triggered from.
func (v *Voice) ActualKey() uint8 { return v.actualKey }

// ExclusiveClass is the SF2 exclusive class this voice belongs to, or 0 if
// none.
func (v *Voice) ExclusiveClass() int16 { return v.generators.GetOrDefault(soundfont.GenExclusiveClass) }

// Status is the voice's current lifecycle state.
func (v *Voice) Status() State { return v.status }

// Render returns the voice's current output frame without advancing state;
// call Update once per frame beforehand.
func (v *Voice) Render() stereo.Value {
	i := v.phase.IntPart()
	r := v.phase.FracPart()
	interpolated := (1.0-r)*float64(v.buffer[i]) + r*float64(v.buffer[i+1])
	lfoAtten := conv.AttenToAmp(v.modulated[soundfont.GenModLfoToVolume] * v.modLFO.Value())
	gain := v.volEnv.Value() * lfoAtten * (interpolated / math.MaxInt16)
	return v.volume.Scale(gain)
}

// UpdateSFController feeds a general-palette controller's new value to
// every modulator sourced from it, recomputing any generator it drives.
func (v *Voice) UpdateSFController(controller int, value int16) {
	for _, mod := range v.modulators {
		if mod.IsSourceSFController(controller) {
			mod.UpdateSFController(controller, value)
			v.updateModulatedParams(mod.Destination())
		}
	}
}

// UpdateMIDIController feeds a MIDI CC's new value to every modulator
// sourced from it, recomputing any generator it drives.
func (v *Voice) UpdateMIDIController(controller int, value uint8) {
	for _, mod := range v.modulators {
		if mod.IsSourceMIDIController(controller) {
			mod.UpdateMIDIController(controller, value)
			v.updateModulatedParams(mod.Destination())
		}
	}
}

// UpdateFineTuning applies a channel's RPN 1 (fine tuning) value, in cents.
func (v *Voice) UpdateFineTuning(fineTuning float64) {
	v.fineTuning = fineTuning
	v.updateModulatedParams(soundfont.GenFineTune)
}

// UpdateCoarseTuning applies a channel's RPN 2 (coarse tuning) value, in
// semitones.
func (v *Voice) UpdateCoarseTuning(coarseTuning float64) {
	v.coarseTuning = coarseTuning
	v.updateModulatedParams(soundfont.GenCoarseTune)
}

// Release moves the voice toward silence: sustained holds the voice at its
// current envelope stage until a later Release(false) (e.g. a sustain
// pedal lift), while a direct release begins the amplitude and modulation
// envelopes' release phase. Percussion voices ignore note-off entirely,
// matching GM's guidance that most percussion should ring out naturally.
func (v *Voice) Release(sustained bool) {
	if v.percussion {
		return
	}
	if sustained {
		v.status = Sustained
	} else {
		v.status = Released
		v.volEnv.Release()
		v.modEnv.Release()
	}
}

// Update advances the voice by one rendered frame.
func (v *Voice) Update() {
	v.phase = v.phase.Add(v.deltaPhase)

	switch v.sample.mode {
	case SampleModeUnLooped, SampleModeUnUsed:
		if v.phase.IntPart() > v.sample.end-1 {
			v.status = Finished
			return
		}
	case SampleModeLooped:
		if v.phase.IntPart() > v.sample.endLoop-1 {
			v.phase = v.phase.Sub(fixedpoint.FromInt(v.sample.endLoop - v.sample.startLoop))
		}
	case SampleModeLoopedWithRemainder:
		if v.status == Released {
			if v.phase.IntPart() > v.sample.end-1 {
				v.status = Finished
				return
			}
		} else if v.phase.IntPart() > v.sample.endLoop-1 {
			v.phase = v.phase.Sub(fixedpoint.FromInt(v.sample.endLoop - v.sample.startLoop))
		}
	}

	v.modLFO.Update()
	v.volEnv.Update()

	if v.volEnv.IsFinished() {
		v.status = Finished
		return
	}

	stepsBefore := v.steps
	v.steps++
	if stepsBefore%calcInterval == 0 {
		v.vibLFO.Update()
		v.modEnv.Update()

		pitch := v.voicePitch +
			0.01*v.modulated[soundfont.GenModEnvToPitch]*v.modEnv.Value() +
			0.01*v.modulated[soundfont.GenVibLfoToPitch]*v.vibLFO.Value() +
			0.01*v.modulated[soundfont.GenModLfoToPitch]*v.modLFO.Value()
		v.deltaPhase = fixedpoint.FromReal(v.deltaPhaseFactor * conv.KeyToHz(pitch))
	}
}

// pannedVolume splits a -500..500 SF2 pan amount into independent left and
// right gains via a constant-power (sine) pan law.
func pannedVolume(pan float64) stereo.Value {
	switch {
	case pan <= -500.0:
		return stereo.Value{Left: 1.0, Right: 0.0}
	case pan >= 500.0:
		return stereo.Value{Left: 0.0, Right: 1.0}
	default:
		const factor = math.Pi / 2000.0
		return stereo.Value{
			Left:  math.Sin(factor * (-pan + 500.0)),
			Right: math.Sin(factor * (pan + 500.0)),
		}
	}
}

// updateModulatedParams recomputes destination's modulated amount (the
// zone's generator amount plus every modulator driving it) and pushes the
// result into whatever runtime component that generator feeds.
func (v *Voice) updateModulatedParams(destination soundfont.Generator) {
	base := float64(v.generators.GetOrDefault(destination))
	if destination == soundfont.GenInitialAttenuation {
		base *= 0.4
	}
	modulated := base
	for _, mod := range v.modulators {
		if mod.Destination() == destination {
			modulated += mod.Value()
		}
	}
	v.modulated[destination] = modulated

	switch destination {
	case soundfont.GenPan, soundfont.GenInitialAttenuation:
		atten := conv.AttenToAmp(v.modulated[soundfont.GenInitialAttenuation])
		v.volume = pannedVolume(v.modulated[soundfont.GenPan]).Scale(atten)
	case soundfont.GenDelayModLFO:
		v.modLFO.SetDelay(modulated)
	case soundfont.GenFreqModLFO:
		v.modLFO.SetFrequency(modulated)
	case soundfont.GenDelayVibLFO:
		v.vibLFO.SetDelay(modulated)
	case soundfont.GenFreqVibLFO:
		v.vibLFO.SetFrequency(modulated)
	case soundfont.GenDelayModEnv:
		v.modEnv.SetParameter(envelope.Delay, modulated)
	case soundfont.GenAttackModEnv:
		v.modEnv.SetParameter(envelope.Attack, modulated)
	case soundfont.GenHoldModEnv, soundfont.GenKeynumToModEnvHold:
		v.modEnv.SetParameter(envelope.Hold,
			v.modulated[soundfont.GenHoldModEnv]+v.modulated[soundfont.GenKeynumToModEnvHold]*v.keyScaling)
	case soundfont.GenDecayModEnv, soundfont.GenKeynumToModEnvDecay:
		v.modEnv.SetParameter(envelope.Decay,
			v.modulated[soundfont.GenDecayModEnv]+v.modulated[soundfont.GenKeynumToModEnvDecay]*v.keyScaling)
	case soundfont.GenSustainModEnv:
		v.modEnv.SetParameter(envelope.Sustain, modulated)
	case soundfont.GenReleaseModEnv:
		v.modEnv.SetParameter(envelope.Release, modulated)
	case soundfont.GenDelayVolEnv:
		v.volEnv.SetParameter(envelope.Delay, modulated)
	case soundfont.GenAttackVolEnv:
		v.volEnv.SetParameter(envelope.Attack, modulated)
	case soundfont.GenHoldVolEnv, soundfont.GenKeynumToVolEnvHold:
		v.volEnv.SetParameter(envelope.Hold,
			v.modulated[soundfont.GenHoldVolEnv]+v.modulated[soundfont.GenKeynumToVolEnvHold]*v.keyScaling)
	case soundfont.GenDecayVolEnv, soundfont.GenKeynumToVolEnvDecay:
		v.volEnv.SetParameter(envelope.Decay,
			v.modulated[soundfont.GenDecayVolEnv]+v.modulated[soundfont.GenKeynumToVolEnvDecay]*v.keyScaling)
	case soundfont.GenSustainVolEnv:
		v.volEnv.SetParameter(envelope.Sustain, modulated)
	case soundfont.GenReleaseVolEnv:
		v.volEnv.SetParameter(envelope.Release, modulated)
	case soundfont.GenCoarseTune, soundfont.GenFineTune, soundfont.GenScaleTuning, soundfont.GenPitch:
		v.voicePitch = v.sample.pitch +
			0.01*v.modulated[soundfont.GenPitch] +
			0.01*float64(v.generators.GetOrDefault(soundfont.GenScaleTuning))*(float64(v.actualKey)-v.sample.pitch) +
			v.coarseTuning + v.modulated[soundfont.GenCoarseTune] +
			0.01*(v.fineTuning+v.modulated[soundfont.GenFineTune])
	}
}
