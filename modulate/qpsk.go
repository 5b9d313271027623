package modulate

import (
	"gonum.org/v1/gonum/floats"

	"github.com/pkg/errors"
)

// phaseStep maps a Gray-coded dibit (MSB first: bit pair read from the
// scrambled frame stream) to a differential phase rotation, in units of
// quarter-turns: 00 -> +0, 01 -> +1 (90 deg), 11 -> +2 (180 deg),
// 10 -> +3 (270 deg).
var phaseStep = [4]int{0: 0, 1: 1, 3: 2, 2: 3}

// iqUnit holds the four QPSK constellation points (I, Q) at unit
// amplitude, indexed by absolute quarter-turn phase (0..3).
var iqUnit = [4][2]float64{
	{1, 0},
	{0, 1},
	{-1, 0},
	{0, -1},
}

// ModulatorConfig configures a QpskModulator.
type ModulatorConfig struct {
	// Interpolation is the number of IQ sample pairs generated per symbol
	// (per dibit). Must be > 0.
	Interpolation int
	// FilterSpan is the RRC filter length in symbol periods (taps =
	// FilterSpan*Interpolation). Must be > 0.
	FilterSpan int
	// Rolloff is the RRC roll-off factor in (0,1]. Zero selects
	// RolloffDefault.
	Rolloff float64
	// Level scales the quantised IQ samples' peak magnitude, in units of
	// full-scale int16 (0,1]. Zero selects 1.0.
	Level float64
}

// QpskModulator differentially encodes pairs of bits onto a QPSK
// constellation and pulse-shapes the result through a root-raised-cosine
// FIR, producing interleaved int16 IQ sample pairs.
//
// Grounded on ausocean-av's codec/pcm/filters.go FIR-filtering structure
// (precomputed real-valued tap table, direct convolution against a
// sliding input history) adapted from audio low/high-pass filtering to
// complex baseband pulse shaping; the differential-QPSK symbol mapping
// and IQ interleave have no teacher analogue and are written from the
// DSR modulation invariants directly.
type QpskModulator struct {
	cfg   ModulatorConfig
	level float64 // resolved peak amplitude, cfg.Level with the zero-value default applied
	tapsI []int16 // shared real-valued RRC kernel, reused for I and Q
	phase int     // absolute phase state, 0..3, differential accumulator
	histI []int16 // sliding convolution history, symbol-rate impulses
	histQ []int16
}

// NewQpskModulator builds a modulator from cfg, designing the RRC kernel
// once up front.
func NewQpskModulator(cfg ModulatorConfig) (*QpskModulator, error) {
	if cfg.Interpolation <= 0 {
		return nil, errors.Errorf("modulate: Interpolation must be > 0, got %d", cfg.Interpolation)
	}
	if cfg.FilterSpan <= 0 {
		return nil, errors.Errorf("modulate: FilterSpan must be > 0, got %d", cfg.FilterSpan)
	}
	rolloff := cfg.Rolloff
	if rolloff == 0 {
		rolloff = RolloffDefault
	}
	level := cfg.Level
	if level == 0 {
		level = 1.0
	}
	if level < 0 || level > 1 {
		return nil, errors.Errorf("modulate: Level must be in (0,1], got %v", level)
	}

	h, err := designRRC(cfg.FilterSpan, cfg.Interpolation, rolloff)
	if err != nil {
		return nil, errors.Wrap(err, "modulate: designing RRC filter")
	}
	taps := quantizeInt16(h, level)

	return &QpskModulator{
		cfg:   cfg,
		level: level,
		tapsI: taps,
		histI: make([]int16, cfg.FilterSpan),
		histQ: make([]int16, cfg.FilterSpan),
	}, nil
}

// Modulate consumes nbits bits from srcBits (MSB-first within each byte,
// nbits must be even) and appends (nbits/2)*Interpolation interleaved IQ
// sample pairs (I0,Q0,I1,Q1,...) to dst, returning the number of IQ
// sample pairs written and dst's new backing slice.
//
// Each dibit selects a differential phase step (see phaseStep); the
// running absolute phase drives a level-scaled impulse into the RRC FIR's
// symbol-spaced history, and Interpolation output samples are drawn per
// symbol by evaluating the FIR's convolution sum at each of the
// Interpolation sub-symbol offsets. This satisfies invariant 8: the
// sample count is exactly (nbits/2)*Interpolation, never a frame's raw
// byte count. The peak |I|,|Q| amplitude invariant (never exceeding
// level*32767) is enforced below.
func (m *QpskModulator) Modulate(dst []int16, srcBits []byte, nbits int) ([]int16, int, error) {
	if nbits%2 != 0 {
		return dst, 0, errors.Errorf("modulate: nbits must be even, got %d", nbits)
	}
	if nbits > len(srcBits)*8 {
		return dst, 0, errors.Errorf("modulate: nbits %d exceeds srcBits length", nbits)
	}

	nsym := nbits / 2
	interp := m.cfg.Interpolation
	produced := 0

	for s := 0; s < nsym; s++ {
		bit0 := readBit(srcBits, 2*s)
		bit1 := readBit(srcBits, 2*s+1)
		dibit := bit0<<1 | bit1
		m.phase = (m.phase + phaseStep[dibit]) & 3

		pt := iqUnit[m.phase]
		impulseI := int16(pt[0] * m.level * 32767)
		impulseQ := int16(pt[1] * m.level * 32767)

		pushHistory(m.histI, impulseI)
		pushHistory(m.histQ, impulseQ)

		for k := 0; k < interp; k++ {
			i := convolveAt(m.histI, m.tapsI, k, interp)
			q := convolveAt(m.histQ, m.tapsI, k, interp)
			dst = append(dst, i, q)
			produced++
		}
	}

	if produced > 0 {
		bound := m.level * 32767
		peak := peakAbs(dst[len(dst)-produced*2:])
		if peak > bound {
			return dst, 0, errors.Errorf("modulate: output clipped, peak %v exceeds level bound %v", peak, bound)
		}
	}

	return dst, produced, nil
}

func readBit(buf []byte, bitOffset int) int {
	byteIdx := bitOffset / 8
	bitIdx := 7 - uint(bitOffset%8)
	return int(buf[byteIdx]>>bitIdx) & 1
}

// pushHistory shifts the new symbol's impulse into the symbol-spaced
// convolution history at index 0, the oldest entry falling off the end.
// The history holds one entry per symbol; the zero samples between
// symbols are implicit in convolveAt's tap decimation.
func pushHistory(hist []int16, impulse int16) {
	copy(hist[1:], hist[:len(hist)-1])
	hist[0] = impulse
}

// convolveAt evaluates the FIR sum for sub-symbol offset k (0..interp-1)
// of the most recently pushed symbol, against taps decimated by
// interp starting at phase k. This approximates polyphase evaluation of
// a symbol-spaced impulse train through an interpolation-rate filter.
func convolveAt(hist []int16, taps []int16, k, interp int) int16 {
	var acc int64
	for i := k; i < len(taps); i += interp {
		symIdx := i / interp
		if symIdx >= len(hist) {
			break
		}
		acc += int64(hist[symIdx]) * int64(taps[i]) / 32767
	}
	if acc > 32767 {
		acc = 32767
	}
	if acc < -32768 {
		acc = -32768
	}
	return int16(acc)
}

// peakAbs returns the largest-magnitude sample in samples, using
// gonum/floats for the reduction rather than a hand-rolled loop.
func peakAbs(samples []int16) float64 {
	f := make([]float64, len(samples))
	for i, s := range samples {
		v := float64(s)
		if v < 0 {
			v = -v
		}
		f[i] = v
	}
	return floats.Max(f)
}
