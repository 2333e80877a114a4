// Package rtbuffer supplies the render-side half of a realtime audio
// pipeline: a bounded single-producer/single-consumer ring buffer of
// stereo frames, and a Pump that drives a render callback into it at a
// throttled rate so an unbounded producer never runs far ahead of however
// fast a (possibly absent, in tests) consumer drains it.
package rtbuffer

import (
	"context"
	"sync/atomic"
	"time"
)

// StereoFrame is one interleaved left/right sample pair.
type StereoFrame struct {
	Left, Right float64
}

// Ring is a fixed-capacity SPSC ring buffer of StereoFrame. Exactly one
// goroutine may call Push; exactly one (possibly different) goroutine may
// call Pop. The zero value is not usable; construct with NewRing.
type Ring struct {
	buf      []StereoFrame
	writeCur atomic.Uint64
	readCur  atomic.Uint64
}

// NewRing returns a Ring able to hold capacity frames before Push starts
// reporting the buffer full.
func NewRing(capacity int) *Ring {
	return &Ring{buf: make([]StereoFrame, capacity)}
}

// Cap returns the ring's fixed capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Len returns the number of frames currently buffered.
func (r *Ring) Len() int {
	return int(r.writeCur.Load() - r.readCur.Load())
}

// Push appends frame to the ring, reporting false without blocking if the
// ring is full.
func (r *Ring) Push(frame StereoFrame) bool {
	w := r.writeCur.Load()
	if int(w-r.readCur.Load()) >= len(r.buf) {
		return false
	}
	r.buf[int(w)%len(r.buf)] = frame
	r.writeCur.Store(w + 1)
	return true
}

// Pop removes and returns the oldest buffered frame, reporting false
// without blocking if the ring is empty.
func (r *Ring) Pop() (StereoFrame, bool) {
	rd := r.readCur.Load()
	if rd == r.writeCur.Load() {
		return StereoFrame{}, false
	}
	frame := r.buf[int(rd)%len(r.buf)]
	r.readCur.Store(rd + 1)
	return frame, true
}

// Pump drives a render callback into a Ring in fixed-size blocks, sleeping
// to avoid running the producer more than maxAhead seconds in front of
// wall-clock time. It models the rendering thread of a realtime audio
// pipeline whose actual callback cadence is owned by an out-of-process
// audio backend: the self-throttle stands in for that backend's pull rate.
type Pump struct {
	Ring       *Ring
	SampleRate float64
	BlockSize  int
	MaxAhead   time.Duration
}

// NewPump returns a Pump rendering into ring at sampleRate, advancing
// blockSize frames per render call and never running more than maxAhead
// of wall-clock time ahead of real time. A zero maxAhead defaults to one
// second.
func NewPump(ring *Ring, sampleRate float64, blockSize int, maxAhead time.Duration) *Pump {
	if maxAhead <= 0 {
		maxAhead = time.Second
	}
	return &Pump{Ring: ring, SampleRate: sampleRate, BlockSize: blockSize, MaxAhead: maxAhead}
}

// Run calls render once per frame, BlockSize frames at a time, pushing
// each frame into the ring, until ctx is canceled. Credit accrues at
// blockSize/sampleRate seconds per block rendered and is spent (at twice
// wall-clock speed) by sleeping whenever accrued credit exceeds MaxAhead;
// this keeps an unthrottled producer from rendering arbitrarily far ahead
// of whatever is draining the ring.
func (p *Pump) Run(ctx context.Context, render func() (float64, float64)) error {
	blockDuration := time.Duration(float64(p.BlockSize) / p.SampleRate * float64(time.Second))
	var ahead time.Duration
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for i := 0; i < p.BlockSize; i++ {
			l, r := render()
			for !p.Ring.Push(StereoFrame{Left: l, Right: r}) {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				time.Sleep(time.Millisecond)
			}
		}

		now := time.Now()
		ahead += blockDuration - 2*now.Sub(last)
		last = now
		if ahead < 0 {
			ahead = 0
		}
		if ahead > p.MaxAhead {
			select {
			case <-time.After(blockDuration):
			case <-ctx.Done():
				return ctx.Err()
			}
			last = time.Now()
		}
	}
}
