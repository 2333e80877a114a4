// Package modulator evaluates SF2 modulators at runtime: each Runtime wraps
// one soundfont.Modulator with the mutable state a controller update needs
// to recompute its shaped contribution to a generator.
package modulator

import (
	"math"

	"github.com/kestrelaudio/sfsynth/internal/conv"
	"github.com/kestrelaudio/sfsynth/soundfont"
)

// Runtime is one live modulator: its SF2 wiring plus the two controller
// values (source and amount-source) it was last evaluated against.
type Runtime struct {
	param        soundfont.Modulator
	source       float64
	amountSource float64
	value        float64
}

// New returns a Runtime for param with both controller inputs at rest
// (source 0, amount-source 1, matching the SF2 "no controller" default).
func New(param soundfont.Modulator) *Runtime {
	return &Runtime{param: param, amountSource: 1.0}
}

// Destination is the generator this modulator contributes to.
func (r *Runtime) Destination() soundfont.Generator { return r.param.Dest }

// Value is the modulator's last-computed contribution.
func (r *Runtime) Value() float64 { return r.value }

// IsAlwaysNonNegative reports whether this modulator can never drive its
// destination generator negative, regardless of any controller's value.
// The voice does not consult it when clamping generator values.
func (r *Runtime) IsAlwaysNonNegative() bool {
	p := r.param
	if p.Transform == soundfont.TransformAbsoluteValue || p.Amount == 0 {
		return true
	}
	if p.Amount > 0 {
		noSrc := p.Src.Palette == soundfont.PaletteGeneral && p.Src.Index == soundfont.GeneralControllerNone
		uniSrc := p.Src.Polarity == soundfont.PolarityUnipolar
		noAmt := p.AmtSrc.Palette == soundfont.PaletteGeneral && p.AmtSrc.Index == soundfont.GeneralControllerNone
		uniAmt := p.AmtSrc.Polarity == soundfont.PolarityUnipolar
		if (uniSrc && uniAmt) || (uniSrc && noAmt) || (noSrc && uniAmt) || (noSrc && noAmt) {
			return true
		}
	}
	return false
}

// IsSourceSFController reports whether controller feeds either of this
// modulator's two general-palette sources. A voice uses this to decide
// whether a generator-controller update needs to recompute the modulator's
// destination generator at all.
func (r *Runtime) IsSourceSFController(controller int) bool {
	p := r.param
	return (p.Src.Palette == soundfont.PaletteGeneral && controller == p.Src.Index) ||
		(p.AmtSrc.Palette == soundfont.PaletteGeneral && controller == p.AmtSrc.Index)
}

// IsSourceMIDIController reports whether controller feeds either of this
// modulator's two MIDI-palette sources.
func (r *Runtime) IsSourceMIDIController(controller int) bool {
	p := r.param
	return (p.Src.Palette == soundfont.PaletteMIDI && controller == p.Src.Index) ||
		(p.AmtSrc.Palette == soundfont.PaletteMIDI && controller == p.AmtSrc.Index)
}

// UpdateSFController recomputes the modulator's value if controller is one
// of its two general-palette sources.
func (r *Runtime) UpdateSFController(controller int, value int16) {
	p := r.param
	if p.Src.Palette == soundfont.PaletteGeneral && controller == p.Src.Index {
		r.source = mapValue(float64(value), p.Src)
	}
	if p.AmtSrc.Palette == soundfont.PaletteGeneral && controller == p.AmtSrc.Index {
		r.amountSource = mapValue(float64(value), p.AmtSrc)
	}
	r.recalculate()
}

// UpdateMIDIController recomputes the modulator's value if controller is
// one of its two MIDI-palette sources.
func (r *Runtime) UpdateMIDIController(controller int, value uint8) {
	p := r.param
	if p.Src.Palette == soundfont.PaletteMIDI && controller == p.Src.Index {
		r.source = mapValue(float64(value), p.Src)
	}
	if p.AmtSrc.Palette == soundfont.PaletteMIDI && controller == p.AmtSrc.Index {
		r.amountSource = mapValue(float64(value), p.AmtSrc)
	}
	r.recalculate()
}

func (r *Runtime) recalculate() {
	r.value = applyTransform(float64(r.param.Amount)*r.source*r.amountSource, r.param.Transform)
}

func applyTransform(value float64, t soundfont.TransformType) float64 {
	if t == soundfont.TransformAbsoluteValue {
		return math.Abs(value)
	}
	return value
}

// concave and convex are the SF2-mandated non-linear controller shaping
// curves, both normalized to [0, 1] over x in [0, 1].
func concave(x float64) float64 {
	switch {
	case x <= 0.0:
		return 0.0
	case x >= 1.0:
		return 1.0
	default:
		return 2.0 * conv.AmpToNormAtten(1.0-x)
	}
}

func convex(x float64) float64 {
	switch {
	case x <= 0.0:
		return 0.0
	case x >= 1.0:
		return 1.0
	default:
		return 1 - 2.0*conv.AmpToNormAtten(x)
	}
}

// mapValue shapes a raw controller value (7-bit, or 14-bit for pitch wheel)
// through src's polarity/direction/curve into the normalized range the
// curve type implies: [0, 1] for unipolar, [-1, 1] for bipolar, and a
// boolean 0/1 (or 0/-1) for the switch curve.
func mapValue(value float64, src soundfont.Source) float64 {
	if src.Palette == soundfont.PaletteGeneral && src.Index == soundfont.GeneralControllerPitchWheel {
		value /= 1 << 14
	} else {
		value /= 1 << 7
	}

	if src.Type == soundfont.CurveSwitch {
		off := 0.0
		if src.Polarity == soundfont.PolarityBipolar {
			off = -1.0
		}
		x := value
		if src.Direction == soundfont.DirectionDecreasing {
			x = 1.0 - value
		}
		if x >= 0.5 {
			return 1.0
		}
		return off
	}

	if src.Polarity == soundfont.PolarityUnipolar {
		x := value
		if src.Direction == soundfont.DirectionDecreasing {
			x = 1.0 - value
		}
		switch src.Type {
		case soundfont.CurveConcave:
			return concave(x)
		case soundfont.CurveConvex:
			return convex(x)
		default:
			return x
		}
	}

	dir := 1.0
	if src.Direction == soundfont.DirectionDecreasing {
		dir = -1.0
	}
	sign := 1.0
	if value <= 0.5 {
		sign = -1.0
	}
	x := 2.0*value - 1.0
	switch src.Type {
	case soundfont.CurveConcave:
		return sign * dir * concave(sign*x)
	case soundfont.CurveConvex:
		return sign * dir * convex(sign*x)
	default:
		return dir * x
	}
}
