package main

type ZobristTable struct {
	size  int
	cells []uint64
}

// NewZobristTable draws two tokens per cell, one for each player, from a
// splitmix64 stream seeded with seed.
func NewZobristTable(size int, seed uint64) *ZobristTable {
	rng := splitmix64{state: seed ^ uint64(0x9e3779b97f4a7c15) ^ uint64(size)}
	table := &ZobristTable{size: size, cells: make([]uint64, size*size*2)}
	for i := range table.cells {
		table.cells[i] = rng.next()
	}
	return table
}

func (z *ZobristTable) stone(row, col int, cell Cell) uint64 {
	idx := (row*z.size + col) * 2
	if cell == CellO {
		idx++
	}
	return z.cells[idx]
}

func (z *ZobristTable) Hash(board Board) uint64 {
	var hash uint64
	size := board.Size()
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			cell := board.At(row, col)
			if cell == CellEmpty {
				continue
			}
			hash ^= z.stone(row, col, cell)
		}
	}
	return hash
}

type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
