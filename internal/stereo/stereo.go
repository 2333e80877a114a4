// Package stereo holds the two-channel sample value voices, channels, and
// the synthesizer accumulate into.
package stereo

// Value is one stereo sample frame.
type Value struct {
	Left, Right float64
}

// Add returns v + b.
func (v Value) Add(b Value) Value {
	return Value{Left: v.Left + b.Left, Right: v.Right + b.Right}
}

// Scale returns v scaled by a single gain applied to both channels.
func (v Value) Scale(gain float64) Value {
	return Value{Left: v.Left * gain, Right: v.Right * gain}
}

// Pan returns v with Left and Right independently scaled, as when applying
// a precomputed per-channel pan gain.
func (v Value) Pan(gains Value) Value {
	return Value{Left: v.Left * gains.Left, Right: v.Right * gains.Right}
}
