package main

import (
	"math"

	"lukechampine.com/frand"
)

// RandomSource is the randomness the AIs draw from. *math/rand.Rand
// satisfies it, which is how tests pin outcomes.
type RandomSource interface {
	Intn(n int) int
	Float64() float64
	Uint64() uint64
}

type frandSource struct{}

func NewRandomSource() RandomSource {
	return frandSource{}
}

func (frandSource) Intn(n int) int {
	return int(frand.Uint64n(uint64(n)))
}

func (frandSource) Float64() float64 {
	return float64(frand.Uint64n(1<<53)) / (1 << 53)
}

func (frandSource) Uint64() uint64 {
	return frand.Uint64n(math.MaxUint64)
}

func randomEmptyCell(board Board, rng RandomSource) (Move, bool) {
	empty := board.EmptyCells()
	if len(empty) == 0 {
		return Move{}, false
	}
	return empty[rng.Intn(len(empty))], true
}
