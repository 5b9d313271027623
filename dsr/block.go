package dsr

// BlockSize is the size in bytes of the interchange representation of a
// 77-bit block (bits 77..79 are zero padding).
const BlockSize = 10

// Block is the 77-bit protected unit: four sample fields, BCH parity, two
// zero indicators, and four LSB tails, laid out per the canonical bit
// table. Stored as 10 bytes; only the first 77 bits are meaningful.
type Block [BlockSize]byte

// BuildBlock assembles one 77-bit block from two stereo sample pairs
// (l1,r1) and (l2,r2), writing the MSB/LSB partition, the BCH(63,44)
// parity, and the (currently unsupplied) zero indicators into the
// canonical layout described in SPEC_FULL.md §3.
//
// Every field width and offset below is fixed at compile time and fits
// well within an 80-bit buffer, so Write/Read never hit a bounds error
// here; BuildBlock does not return one.
//
// zi1/zi2 are reserved for an external scale-factor authority; this
// repository has none wired in; see SPEC_FULL.md §3. Callers needing a
// custom zi1/zi2 can patch bits 63 and 64 directly via Write after
// BuildBlock returns.
func BuildBlock(l1, r1, l2, r2 int16) Block {
	var blk Block
	buf := blk[:]

	off, _ := Write(buf, 0, uint64(uint16(l1>>3))&0x7FF, 11)
	off, _ = Write(buf, off, uint64(uint16(r1>>3))&0x7FF, 11)
	off, _ = Write(buf, off, uint64(uint16(l2>>3))&0x7FF, 11)
	off, _ = Write(buf, off, uint64(uint16(r2>>3))&0x7FF, 11)

	// The 44-bit data field is wider than MaxFieldWidth, so it is read back
	// as two 22-bit halves.
	hi, _, _ := Read(buf, 0, 22)
	lo, _, _ := Read(buf, 22, 22)
	parity := BchParity(hi<<22 | lo)
	off, _ = Write(buf, off, uint64(parity), 19)

	// zi1, zi2: reserved, emitted as 0.
	off, _ = Write(buf, off, 0, 1)
	off, _ = Write(buf, off, 0, 1)

	off, _ = Write(buf, off, uint64(l1&7), 3)
	off, _ = Write(buf, off, uint64(r1&7), 3)
	off, _ = Write(buf, off, uint64(l2&7), 3)
	off, _ = Write(buf, off, uint64(r2&7), 3)

	return blk
}
