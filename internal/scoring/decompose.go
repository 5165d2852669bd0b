package scoring

import "riichicore/internal/tiles"

// SetKind distinguishes a triplet from a run within a decomposition.
type SetKind int

const (
	SetTriplet SetKind = iota
	SetRun
)

// DecomposedSet is one of the (4-numMelds) sets found inside the
// concealed tiles, independent of the seat's already-called melds.
type DecomposedSet struct {
	Kind  SetKind
	Start int // triplet: the type34; run: its lowest type34
}

// Decomposition is one way to read the concealed tiles (plus winning
// tile) as sets-and-a-pair.
type Decomposition struct {
	Pair int
	Sets []DecomposedSet
}

// decompose enumerates every valid (sets, pair) reading of counts.
// The search space is tiny (13-14 tiles) so exhaustive backtracking is
// fine; duplicate decompositions are not de-duplicated since evaluating
// the same shape twice is harmless (the best-han pick absorbs it).
func decompose(counts [tiles.DistinctTypes]int, setsNeeded int) []Decomposition {
	var out []Decomposition
	for type34, c := range counts {
		if c < 2 {
			continue
		}
		working := counts
		working[type34] -= 2
		var sets []DecomposedSet
		findSets(working, setsNeeded, &sets, &out, type34)
	}
	return out
}

func findSets(counts [tiles.DistinctTypes]int, setsNeeded int, current *[]DecomposedSet, out *[]Decomposition, pair int) {
	if setsNeeded == 0 {
		for _, c := range counts {
			if c != 0 {
				return
			}
		}
		cp := append([]DecomposedSet(nil), (*current)...)
		*out = append(*out, Decomposition{Pair: pair, Sets: cp})
		return
	}

	first := -1
	for i, c := range counts {
		if c > 0 {
			first = i
			break
		}
	}
	if first == -1 {
		return
	}

	if counts[first] >= 3 {
		counts[first] -= 3
		*current = append(*current, DecomposedSet{Kind: SetTriplet, Start: first})
		findSets(counts, setsNeeded-1, current, out, pair)
		*current = (*current)[:len(*current)-1]
		counts[first] += 3
	}

	if first < tiles.HonorStart && first%9 <= 6 && counts[first] >= 1 && counts[first+1] >= 1 && counts[first+2] >= 1 {
		counts[first]--
		counts[first+1]--
		counts[first+2]--
		*current = append(*current, DecomposedSet{Kind: SetRun, Start: first})
		findSets(counts, setsNeeded-1, current, out, pair)
		*current = (*current)[:len(*current)-1]
		counts[first]++
		counts[first+1]++
		counts[first+2]++
	}
}
