package tagging

// Decode splits an address into the tag, set index and block offset for a
// cache with 2^offsetBits byte blocks and 2^indexBits sets.
func Decode(addr uint32, offsetBits, indexBits int) (tag, index, offset uint32) {
	offset = addr & mask(offsetBits)
	index = (addr >> offsetBits) & mask(indexBits)
	tag = uint32(uint64(addr) >> (offsetBits + indexBits))

	return tag, index, offset
}

// BlockAddress rebuilds the block-aligned address of a block from its tag and
// set index. It is the inverse of Decode, except for the offset bits.
func BlockAddress(tag, index uint32, offsetBits, indexBits int) uint32 {
	return uint32(uint64(tag)<<(offsetBits+indexBits)) | index<<offsetBits
}

// Log2 returns the base-2 logarithm of n. The second return value is false if
// n is not a power of two.
func Log2(n int) (bits int, ok bool) {
	if n <= 0 || n&(n-1) != 0 {
		return 0, false
	}

	for n > 1 {
		n >>= 1
		bits++
	}

	return bits, true
}

func mask(bits int) uint32 {
	return uint32(uint64(1)<<bits - 1)
}
