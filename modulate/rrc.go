// Package modulate implements the DSR QPSK shaping modulator: a
// differential QPSK symbol mapper driving a root-raised-cosine
// pulse-shaping FIR, producing interpolated int16 IQ samples.
package modulate

import (
	"math"

	"github.com/mjibson/go-dsp/window"
	"github.com/pkg/errors"
)

// RolloffDefault is the root-raised-cosine roll-off factor used when a
// caller does not override it. DSR does not mandate a specific value in
// the specification; 0.35 is a conventional satellite-broadcast choice.
const RolloffDefault = 0.35

// designRRC returns the root-raised-cosine impulse response sampled at
// `interpolation` samples per symbol, spanning `ntaps` symbol periods
// (so len(h) == ntaps*interpolation), windowed with a Hamming taper to
// control truncation sidelobes.
//
// Grounded on ausocean-av's codec/pcm/filters.go windowed-sinc filter
// design (window.FlatTop + a continuous-time kernel formula sampled and
// normalised); the kernel formula itself is RRC rather than low/high-pass,
// and a Hamming window is used here instead of FlatTop since RRC design
// conventionally favours a narrower-mainlobe window.
func designRRC(ntaps, interpolation int, rolloff float64) ([]float64, error) {
	if ntaps <= 0 {
		return nil, errors.Errorf("modulate: ntaps must be > 0, got %d", ntaps)
	}
	if interpolation <= 0 {
		return nil, errors.Errorf("modulate: interpolation must be > 0, got %d", interpolation)
	}
	if rolloff <= 0 || rolloff > 1 {
		return nil, errors.Errorf("modulate: rolloff must be in (0,1], got %v", rolloff)
	}

	n := ntaps * interpolation
	h := make([]float64, n)
	center := float64(n-1) / 2
	beta := rolloff

	for i := 0; i < n; i++ {
		t := (float64(i) - center) / float64(interpolation) // in symbol periods
		switch {
		case t == 0:
			h[i] = 1 - beta + 4*beta/math.Pi
		case beta != 0 && math.Abs(math.Abs(4*beta*t)-1) < 1e-8:
			h[i] = (beta / math.Sqrt2) * ((1+2/math.Pi)*math.Sin(math.Pi/(4*beta)) + (1-2/math.Pi)*math.Cos(math.Pi/(4*beta)))
		default:
			num := math.Sin(math.Pi*t*(1-beta)) + 4*beta*t*math.Cos(math.Pi*t*(1+beta))
			den := math.Pi * t * (1 - math.Pow(4*beta*t, 2))
			h[i] = num / den
		}
	}

	win := window.Hamming(n)
	for i := range h {
		h[i] *= win[i]
	}

	normalizeEnergy(h)
	return h, nil
}

// normalizeEnergy scales h in place so its peak absolute value is 1, giving
// headroom for the caller's amplitude/level scaling at quantisation time.
func normalizeEnergy(h []float64) {
	peak := 0.0
	for _, v := range h {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	for i := range h {
		h[i] /= peak
	}
}

// quantizeInt16 scales each tap by level*32767 and rounds to int16,
// clamping to the int16 range.
func quantizeInt16(h []float64, level float64) []int16 {
	out := make([]int16, len(h))
	scale := level * 32767
	for i, v := range h {
		q := math.Round(v * scale)
		if q > 32767 {
			q = 32767
		}
		if q < -32768 {
			q = -32768
		}
		out[i] = int16(q)
	}
	return out
}
