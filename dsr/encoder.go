package dsr

import (
	"io"

	"github.com/pkg/errors"
)

// FramesPerBlock is the number of 40-byte frames one Encode call emits for
// a 32x64 audio block: 4 channel groups (8 channels each) times 32
// sample-pair indices (64 samples / 2 per frame). See DESIGN.md's
// "frame block count" decision.
const FramesPerBlock = 128

// ChannelsPerGroup is the number of channels one frame carries: 4 stereo
// pairs, 8 channels.
const ChannelsPerGroup = 8

// EncoderConfig configures an Encoder.
type EncoderConfig struct {
	// PSLabel is an optional 8-character Programme Service label; encoded
	// once at construction and available via Encoder.PSLabel for a caller
	// wiring it into an out-of-band service channel. The DSR frame format
	// itself carries no dedicated PS field (see SPEC_FULL.md §3); this
	// config exists so cmd/dsrenc has somewhere to validate/echo it.
	PSLabel string
	// SABit, if non-nil, is consulted once per frame to supply the SA
	// (special/service) bit. A nil SABit yields 0 for every frame, per
	// SPEC_FULL.md §9.
	SABit func() bool
}

// Encoder drives the DSR frame pipeline: BuildBlock -> AssembleFrame ->
// write, holding the running frame-index state that selects sync-word
// parity and the channel-group/sample-pair schedule.
type Encoder struct {
	w          io.Writer
	cfg        EncoderConfig
	frameIndex uint64
	psPacked   [6]byte
}

// NewEncoder returns a DSR encoder writing frames to w.
func NewEncoder(w io.Writer, cfg EncoderConfig) (*Encoder, error) {
	enc := &Encoder{w: w, cfg: cfg}
	if cfg.PSLabel != "" {
		packed, err := EncodePs(cfg.PSLabel)
		if err != nil {
			return nil, errors.Wrap(err, "dsr: invalid PS label")
		}
		enc.psPacked = packed
	}
	return enc, nil
}

// PSLabel returns the packed 6-byte Programme Service field, as configured
// at construction.
func (e *Encoder) PSLabel() [6]byte {
	return e.psPacked
}

// Encode consumes one 32-channel x 64-sample audio window and writes
// FramesPerBlock (128) DSR frames to the encoder's writer, returning the
// number of frames written.
//
// Frame k (0<=k<128) belongs to channel group g=k%4, covering channels
// [8g, 8g+7], and sample-pair index p=k/4, covering samples
// audioBlock[c][2p] and audioBlock[c][2p+1] for every channel c in the
// group. The 4 stereo pairs of the group become the frame's 4 blocks, split
// 2-and-2 into the A and B halves.
func (e *Encoder) Encode(audioBlock *[32][64]int16) (int, error) {
	var frameBuf Frame
	n := 0
	for k := 0; k < FramesPerBlock; k++ {
		group := k % 4
		pairIdx := k / 4

		var blocks [4]Block
		for b := 0; b < 4; b++ {
			lch := group*ChannelsPerGroup + 2*b
			rch := lch + 1
			l1 := audioBlock[lch][2*pairIdx]
			r1 := audioBlock[rch][2*pairIdx]
			l2 := audioBlock[lch][2*pairIdx+1]
			r2 := audioBlock[rch][2*pairIdx+1]
			blocks[b] = BuildBlock(l1, r1, l2, r2)
		}

		sa := false
		if e.cfg.SABit != nil {
			sa = e.cfg.SABit()
		}
		frameParity := e.frameIndex%2 != 0
		fr, err := AssembleFrame([2]Block{blocks[0], blocks[1]}, [2]Block{blocks[2], blocks[3]}, frameParity, sa)
		if err != nil {
			return n, errors.Wrapf(err, "dsr: assembling frame %d", e.frameIndex)
		}
		frameBuf = fr
		if _, err := e.w.Write(frameBuf[:]); err != nil {
			return n, errors.Wrap(err, "dsr: writing frame")
		}
		n++
		e.frameIndex++
	}
	return n, nil
}
