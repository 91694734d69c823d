package main

type TTFlag uint8

const (
	TTExact TTFlag = iota
	TTLower
	TTUpper
)

type TTEntry struct {
	Key         uint64
	Depth       int
	Score       float64
	Flag        TTFlag
	BestMove    Move
	GenWritten  uint32
	GenLastUsed uint32
	Valid       bool
}

// TranspositionTable is a fixed-capacity set-associative memo table. It is
// owned by a single engine and is not safe for concurrent use.
type TranspositionTable struct {
	mask    uint64
	buckets int
	entries []TTEntry
	gen     uint32
}

func NewTranspositionTable(size uint64, buckets int) *TranspositionTable {
	if buckets <= 0 {
		buckets = 2
	}
	if size < 1 {
		size = 1
	}
	if (size & (size - 1)) != 0 {
		size = nextPowerOfTwo(size)
	}
	return &TranspositionTable{
		mask:    size - 1,
		buckets: buckets,
		entries: make([]TTEntry, int(size)*buckets),
		gen:     1,
	}
}

// NextGeneration is called once per decision so entries from earlier turns
// age out ahead of fresh ones.
func (tt *TranspositionTable) NextGeneration() {
	tt.gen++
	if tt.gen == 0 {
		tt.gen = 1
	}
}

func (tt *TranspositionTable) Generation() uint32 {
	return tt.gen
}

func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.gen = 1
}

func (tt *TranspositionTable) bucketIndex(key uint64) int {
	return int(key&tt.mask) * tt.buckets
}

func (tt *TranspositionTable) Probe(key uint64) (TTEntry, bool) {
	start := tt.bucketIndex(key)
	for i := 0; i < tt.buckets; i++ {
		idx := start + i
		entry := &tt.entries[idx]
		if !entry.Valid || entry.Key != key {
			continue
		}
		entry.GenLastUsed = tt.gen
		return *entry, true
	}
	return TTEntry{}, false
}

// Store writes an entry and reports whether it took a slot from another key.
// A same-key entry is only overwritten by a deeper or more exact result.
func (tt *TranspositionTable) Store(key uint64, depth int, value float64, flag TTFlag, best Move) (replaced bool) {
	start := tt.bucketIndex(key)
	fresh := TTEntry{
		Key:         key,
		Depth:       depth,
		Score:       value,
		Flag:        flag,
		BestMove:    best,
		GenWritten:  tt.gen,
		GenLastUsed: tt.gen,
		Valid:       true,
	}

	for i := 0; i < tt.buckets; i++ {
		idx := start + i
		entry := tt.entries[idx]
		if !entry.Valid || entry.Key != key {
			continue
		}
		if replacementClass(entry, depth, flag, tt.gen) != 0 {
			tt.entries[idx] = fresh
		}
		return false
	}

	for i := 0; i < tt.buckets; i++ {
		idx := start + i
		if tt.entries[idx].Valid {
			continue
		}
		tt.entries[idx] = fresh
		return false
	}

	victim := -1
	victimClass := 0
	victimAge := uint32(0)
	for i := 0; i < tt.buckets; i++ {
		idx := start + i
		entry := tt.entries[idx]
		class := replacementClass(entry, depth, flag, tt.gen)
		if class == 0 {
			continue
		}
		age := entryAge(tt.gen, entry)
		if victim == -1 || class < victimClass || (class == victimClass && age > victimAge) {
			victim = idx
			victimClass = class
			victimAge = age
		}
	}
	if victim == -1 {
		return false
	}
	tt.entries[victim] = fresh
	return true
}

func (tt *TranspositionTable) Count() int {
	count := 0
	for i := range tt.entries {
		if tt.entries[i].Valid {
			count++
		}
	}
	return count
}

func (tt *TranspositionTable) Capacity() int {
	if tt == nil {
		return 0
	}
	return len(tt.entries)
}

// replacementClass ranks how willingly entry gives way to a new result;
// 0 means keep it. Lower non-zero classes are evicted first.
func replacementClass(entry TTEntry, depth int, flag TTFlag, gen uint32) int {
	if entry.GenLastUsed != gen {
		return 1
	}
	if depth > entry.Depth {
		return 2
	}
	if depth == entry.Depth && flag == TTExact && entry.Flag != TTExact {
		return 3
	}
	return 0
}

func entryAge(gen uint32, entry TTEntry) uint32 {
	last := entry.GenLastUsed
	if last == 0 {
		last = entry.GenWritten
	}
	return gen - last
}

func nextPowerOfTwo(v uint64) uint64 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	v++
	return v
}
