package dsr

import (
	"bytes"

	"github.com/icza/bitio"
	"github.com/mewkiz/pkg/errutil"
)

// psAlphabet is the fixed DSR Programme Service alphabet: index is the
// 6-bit code, value is the host character it represents. It defines 61 of
// the 64 codes; codes 61..63 decode as space. Index 0 (space) doubles as
// the replacement glyph for unmappable input.
const psAlphabet = " ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789.,:;!?-+/'\"()[]#&%*=<>@_"

// psReplacement is the code used for characters outside psAlphabet.
const psReplacement = 0

var psEncodeTable [256]byte
var psDecodeTable [64]byte

func init() {
	for i := range psEncodeTable {
		psEncodeTable[i] = psReplacement
	}
	for code, ch := range psAlphabet {
		psEncodeTable[byte(ch)] = byte(code)
		psDecodeTable[code] = byte(ch)
	}
	// Fill any unused codes (alphabet is shorter than 64 symbols) with
	// space, so Decode never emits a zero byte.
	for code := len(psAlphabet); code < 64; code++ {
		psDecodeTable[code] = ' '
	}
}

// EncodePs packs up to 8 characters of text into a 6-byte, 6-bit-per-char
// Programme Service field, MSB-first. Strings shorter than 8 characters are
// right-padded with the space code; characters outside the alphabet map to
// the replacement code.
func EncodePs(text string) ([6]byte, error) {
	var out [6]byte
	buf := &bytes.Buffer{}
	bw := bitio.NewWriter(buf)

	runes := []byte(text)
	for i := 0; i < 8; i++ {
		var code byte
		if i < len(runes) {
			code = psEncodeTable[runes[i]]
		} else {
			code = psEncodeTable[' ']
		}
		if err := bw.WriteBits(uint64(code), 6); err != nil {
			return out, errutil.Err(err)
		}
	}
	if err := bw.Close(); err != nil {
		return out, errutil.Err(err)
	}
	copy(out[:], buf.Bytes())
	return out, nil
}

// DecodePs unpacks a 6-byte Programme Service field into its 8-character
// label, inverse of EncodePs.
func DecodePs(src [6]byte) (string, error) {
	br := bitio.NewReader(bytes.NewReader(src[:]))
	out := make([]byte, 8)
	for i := range out {
		code, err := br.ReadBits(6)
		if err != nil {
			return "", errutil.Err(err)
		}
		out[i] = psDecodeTable[code]
	}
	return string(out), nil
}
