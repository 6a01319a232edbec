package dex

import (
	"math/bits"

	"github.com/holiman/uint256"

	"poolsim/internal/v3math"
)

// wordPosition splits a compressed tick into its tickBitmap word and bit.
func wordPosition(compressed int32) (int16, uint8) {
	return int16(compressed >> 8), uint8(compressed & 0xff)
}

// nextInitializedInWord searches one bitmap word the way the pool contract does.
// word must be the word holding compressed (lte) or compressed+1 (!lte).
func nextInitializedInWord(word *uint256.Int, compressed int32, lte bool, tickSpacing int32) (int32, bool) {
	if lte {
		_, bitPos := wordPosition(compressed)
		// all bits at or below bitPos
		mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitPos)+1)
		mask.Sub(mask, uint256.NewInt(1))
		masked := mask.And(mask, word)
		if masked.IsZero() {
			return (compressed - int32(bitPos)) * tickSpacing, false
		}
		msb := int32(masked.BitLen() - 1)
		return (compressed - (int32(bitPos) - msb)) * tickSpacing, true
	}

	_, bitPos := wordPosition(compressed + 1)
	// all bits at or above bitPos
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitPos))
	mask.Sub(mask, uint256.NewInt(1))
	mask.Not(mask)
	masked := mask.And(mask, word)
	if masked.IsZero() {
		return (compressed + 1 + int32(255-bitPos)) * tickSpacing, false
	}
	lsb := int32(leastSignificantBit(masked))
	return (compressed + 1 + (lsb - int32(bitPos))) * tickSpacing, true
}

func leastSignificantBit(x *uint256.Int) int {
	for i := 0; i < 4; i++ {
		if x[i] != 0 {
			return i*64 + bits.TrailingZeros64(x[i])
		}
	}
	return -1
}

// ticksInWord lists the initialized ticks flagged in one bitmap word, ascending.
func ticksInWord(word *uint256.Int, wordPos int16, tickSpacing int32) []int32 {
	var out []int32
	for i := 0; i < 4; i++ {
		limb := word[i]
		for limb != 0 {
			bit := int32(i*64 + bits.TrailingZeros64(limb))
			out = append(out, (int32(wordPos)<<8+bit)*tickSpacing)
			limb &= limb - 1
		}
	}
	return out
}

// WordRange returns the first and last bitmap words that can hold a usable tick.
func WordRange(tickSpacing int32) (int16, int16) {
	first, _ := wordPosition(v3math.FloorDiv(v3math.MinTick, tickSpacing))
	last, _ := wordPosition(v3math.FloorDiv(v3math.MaxTick, tickSpacing))
	return first, last
}
