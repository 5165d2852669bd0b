package hand

import "riichicore/internal/tiles"

// isNumberedSuitStart reports whether type34 can start a three-tile run.
func isNumberedSuitStart(type34 int) bool {
	if type34 >= tiles.HonorStart {
		return false
	}
	return type34%9 <= 6
}

// canDecomposeSets reports whether counts can be split into exactly
// setsNeeded melds (triplets or runs), consuming counts destructively.
// Standard recursive backtracking decomposition.
func canDecomposeSets(counts [tiles.DistinctTypes]int, setsNeeded int) bool {
	if setsNeeded == 0 {
		for _, c := range counts {
			if c != 0 {
				return false
			}
		}
		return true
	}

	first := -1
	for i, c := range counts {
		if c > 0 {
			first = i
			break
		}
	}
	if first == -1 {
		return false
	}

	// Try triplet.
	if counts[first] >= 3 {
		counts[first] -= 3
		if canDecomposeSets(counts, setsNeeded-1) {
			counts[first] += 3
			return true
		}
		counts[first] += 3
	}

	// Try run starting here.
	if isNumberedSuitStart(first) && counts[first] >= 1 && counts[first+1] >= 1 && counts[first+2] >= 1 {
		counts[first]--
		counts[first+1]--
		counts[first+2]--
		if canDecomposeSets(counts, setsNeeded-1) {
			counts[first]++
			counts[first+1]++
			counts[first+2]++
			return true
		}
		counts[first]++
		counts[first+1]++
		counts[first+2]++
	}

	return false
}

// IsStandardWinningShape reports whether counts (already including the
// winning tile) plus numMelds existing melds form a complete hand:
// numMelds + the-sets-inside-counts + one pair == 4 sets + 1 pair.
func IsStandardWinningShape(counts [tiles.DistinctTypes]int, numMelds int) bool {
	setsNeeded := 4 - numMelds
	if setsNeeded < 0 {
		return false
	}
	for type34, c := range counts {
		if c >= 2 {
			counts[type34] -= 2
			if canDecomposeSets(counts, setsNeeded) {
				counts[type34] += 2
				return true
			}
			counts[type34] += 2
		}
	}
	return false
}

// IsChiitoiShape reports seven distinct pairs — only possible with a
// fully closed hand (spec glossary "chiitoi").
func IsChiitoiShape(counts [tiles.DistinctTypes]int, numMelds int) bool {
	if numMelds != 0 {
		return false
	}
	pairs := 0
	for _, c := range counts {
		switch c {
		case 0:
		case 2:
			pairs++
		default:
			return false
		}
	}
	return pairs == 7
}

// kokushiTypes are the thirteen terminal/honor types kokushi needs.
func kokushiTypes() []int {
	return []int{0, 8, 9, 17, 18, 26, 27, 28, 29, 30, 31, 32, 33}
}

// IsKokushiShape reports thirteen-orphans: one of each terminal/honor
// type plus a duplicate of any one of them, closed hand only.
func IsKokushiShape(counts [tiles.DistinctTypes]int, numMelds int) bool {
	if numMelds != 0 {
		return false
	}
	hasPair := false
	for _, t := range kokushiTypes() {
		switch counts[t] {
		case 0:
			return false
		case 1:
		case 2:
			if hasPair {
				return false
			}
			hasPair = true
		default:
			return false
		}
	}
	return hasPair
}

// IsKokushiTenpai reports whether counts is one tile away from kokushi
// (twelve or thirteen of the thirteen types present, no duplicate yet
// needed only for the wait check) — used for chankan-robs-closed-kan
// eligibility (spec §4.1 "Closed-kan specifics").
func IsKokushiTenpai(counts [tiles.DistinctTypes]int, numMelds int) bool {
	if numMelds != 0 {
		return false
	}
	distinct := 0
	hasPair := false
	for _, t := range kokushiTypes() {
		if counts[t] > 0 {
			distinct++
		}
		if counts[t] >= 2 {
			hasPair = true
		}
	}
	if hasPair {
		return distinct >= 12
	}
	return distinct == 13
}

// IsWinningShape is the disjunction of the three win shapes spec
// recognizes: standard 4-sets-1-pair, chiitoi, kokushi.
func IsWinningShape(counts [tiles.DistinctTypes]int, numMelds int) bool {
	return IsStandardWinningShape(counts, numMelds) ||
		IsChiitoiShape(counts, numMelds) ||
		IsKokushiShape(counts, numMelds)
}

// WaitingTiles returns every type34 that would complete the hand if
// drawn/claimed, given the seat's current concealed counts (13-tile
// shape) and meld count.
func WaitingTiles(counts [tiles.DistinctTypes]int, numMelds int) []int {
	waits := make([]int, 0, 13)
	for t := 0; t < tiles.DistinctTypes; t++ {
		if counts[t] >= 4 {
			continue
		}
		counts[t]++
		if IsWinningShape(counts, numMelds) {
			waits = append(waits, t)
		}
		counts[t]--
	}
	return waits
}

// IsTenpai reports whether the seat is one tile away from a win.
func IsTenpai(s Seat) bool {
	return len(WaitingTiles(s.Counts34(), len(s.Melds))) > 0
}
