package modulator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kestrelaudio/sfsynth/soundfont"
)

func velocityToAttenuation() soundfont.Modulator {
	return soundfont.Modulator{
		Src: soundfont.Source{
			Index:     soundfont.GeneralControllerNoteOnVelocity,
			Palette:   soundfont.PaletteGeneral,
			Direction: soundfont.DirectionDecreasing,
			Polarity:  soundfont.PolarityUnipolar,
			Type:      soundfont.CurveConcave,
		},
		Dest:   soundfont.GenInitialAttenuation,
		Amount: 960,
		AmtSrc: soundfont.Source{Index: soundfont.GeneralControllerNone, Palette: soundfont.PaletteGeneral},
	}
}

func TestVelocityZeroGivesMaxAttenuation(t *testing.T) {
	r := New(velocityToAttenuation())
	r.UpdateSFController(soundfont.GeneralControllerNoteOnVelocity, 0)
	assert.InDelta(t, 960.0, r.Value(), 1e-9)
}

func TestVelocityMaxGivesMinimalAttenuation(t *testing.T) {
	// 127/128 leaves the concave curve just above zero:
	// 960*2*(-20/96)*log10(127/128) ≈ 1.3625 cB.
	r := New(velocityToAttenuation())
	r.UpdateSFController(soundfont.GeneralControllerNoteOnVelocity, 127)
	assert.InDelta(t, 1.3625, r.Value(), 1e-3)
}

func TestVelocityMonotonicallyDecreasesAttenuation(t *testing.T) {
	r := New(velocityToAttenuation())
	r.UpdateSFController(soundfont.GeneralControllerNoteOnVelocity, 40)
	low := r.Value()
	r.UpdateSFController(soundfont.GeneralControllerNoteOnVelocity, 100)
	high := r.Value()
	assert.Less(t, high, low)
}

func TestUnrelatedControllerLeavesValueUnchanged(t *testing.T) {
	r := New(velocityToAttenuation())
	r.UpdateSFController(soundfont.GeneralControllerNoteOnVelocity, 64)
	before := r.Value()
	r.UpdateMIDIController(7, 100)
	assert.Equal(t, before, r.Value())
}

func pitchWheelModulator() soundfont.Modulator {
	return soundfont.Modulator{
		Src: soundfont.Source{
			Index:     soundfont.GeneralControllerPitchWheel,
			Palette:   soundfont.PaletteGeneral,
			Direction: soundfont.DirectionIncreasing,
			Polarity:  soundfont.PolarityBipolar,
			Type:      soundfont.CurveLinear,
		},
		Dest:   soundfont.GenPitch,
		Amount: 12700,
		AmtSrc: soundfont.Source{
			Index:     soundfont.GeneralControllerPitchWheelSensitivity,
			Palette:   soundfont.PaletteGeneral,
			Direction: soundfont.DirectionIncreasing,
			Polarity:  soundfont.PolarityUnipolar,
			Type:      soundfont.CurveLinear,
		},
	}
}

func TestPitchWheelCenterIsZero(t *testing.T) {
	r := New(pitchWheelModulator())
	r.UpdateSFController(soundfont.GeneralControllerPitchWheel, 1<<13)
	r.UpdateSFController(soundfont.GeneralControllerPitchWheelSensitivity, 2)
	assert.InDelta(t, 0.0, r.Value(), 1.0)
}

func TestSwitchCurveIsBinary(t *testing.T) {
	src := soundfont.Source{Index: 64, Palette: soundfont.PaletteMIDI, Direction: soundfont.DirectionIncreasing, Polarity: soundfont.PolarityUnipolar, Type: soundfont.CurveSwitch}
	assert.Equal(t, 0.0, mapValue(0, src))
	assert.Equal(t, 1.0, mapValue(127, src))
}

func TestIsAlwaysNonNegativeForAbsoluteTransform(t *testing.T) {
	m := pitchWheelModulator()
	m.Transform = soundfont.TransformAbsoluteValue
	r := New(m)
	assert.True(t, r.IsAlwaysNonNegative())
}

func TestIsAlwaysNonNegativeForZeroAmount(t *testing.T) {
	m := pitchWheelModulator()
	m.Amount = 0
	r := New(m)
	assert.True(t, r.IsAlwaysNonNegative())
}

func TestIsNotAlwaysNonNegativeForBipolarPositiveAmount(t *testing.T) {
	r := New(pitchWheelModulator())
	assert.False(t, r.IsAlwaysNonNegative())
}
