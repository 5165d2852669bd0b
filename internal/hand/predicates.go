package hand

import "riichicore/internal/tiles"

// ProbeContext is what a YakuProbe needs to answer "is there at least
// one yaku for this win" without hand importing internal/scoring.
type ProbeContext struct {
	Winner  Seat
	WinTile tiles.Tile
	IsTsumo bool
}

// YakuProbe decides whether a candidate win actually has a yaku. Ron
// without a yaku is not a legal win (spec §4.1 step 3 "cannot actually
// claim due to yaku or furiten"); callers wire internal/scoring.Evaluate
// into this seam.
type YakuProbe func(ctx ProbeContext) bool

// CanTsumo reports whether drawing tile completes the seat's hand with
// at least one yaku.
func CanTsumo(s Seat, drawn tiles.Tile, probe YakuProbe) bool {
	counts := s.Counts34()
	counts[drawn.Type34()]++
	if !IsWinningShape(counts, len(s.Melds)) {
		return false
	}
	return probe(ProbeContext{Winner: s, WinTile: drawn, IsTsumo: true})
}

// CanRon reports whether the seat may claim tile off another seat's
// discard: tenpai on it, not furiten in any of the three ways, and a
// yaku exists.
func CanRon(s Seat, tile tiles.Tile, probe YakuProbe) bool {
	if s.IsRiichiFuriten || s.IsTemporaryFuriten {
		return false
	}
	if IsFuritenByOwnDiscards(s, tile) {
		return false
	}
	counts := s.Counts34()
	counts[tile.Type34()]++
	if !IsWinningShape(counts, len(s.Melds)) {
		return false
	}
	return probe(ProbeContext{Winner: s, WinTile: tile, IsTsumo: false})
}

// IsFuritenByOwnDiscards reports the permanent discard-based furiten:
// the seat has ever discarded a tile that is one of its own current waits.
func IsFuritenByOwnDiscards(s Seat, candidateWin tiles.Tile) bool {
	waits := WaitingTiles(s.Counts34(), len(s.Melds))
	waitSet := make(map[int]bool, len(waits))
	for _, w := range waits {
		waitSet[w] = true
	}
	if !waitSet[candidateWin.Type34()] {
		return false
	}
	for _, d := range s.Discards {
		if waitSet[d.Tile.Type34()] {
			return true
		}
	}
	return false
}

// CanPon reports at least two matching concealed tiles.
func CanPon(s Seat, tile tiles.Tile) bool {
	return s.CountType34(tile.Type34()) >= 2
}

// CanOpenKan reports three matching concealed tiles, plus a rinshan
// tile and a kan-count budget available.
func CanOpenKan(s Seat, tile tiles.Tile, wallHasRinshan bool, totalKans, maxKans int) bool {
	if !wallHasRinshan || totalKans >= maxKans {
		return false
	}
	return s.CountType34(tile.Type34()) >= 3
}

// CanClosedKan reports four matching concealed tiles, drawn tile
// included; when the seat is in riichi the kan must not change its
// wait set (spec §4.1 "Closed-kan specifics").
func CanClosedKan(s Seat, type34 int, wallHasRinshan bool, totalKans, maxKans int) bool {
	if !wallHasRinshan || totalKans >= maxKans {
		return false
	}
	if s.CountType34(type34) != 4 {
		return false
	}
	if !s.IsRiichi {
		return true
	}
	before := WaitingTiles(s.Counts34(), len(s.Melds))
	after := s.Counts34()
	after[type34] -= 4
	afterWaits := WaitingTiles(after, len(s.Melds)+1)
	return sameWaitSet(before, afterWaits)
}

func sameWaitSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[int]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if !set[v] {
			return false
		}
	}
	return true
}

// CanAddedKan reports an existing pon of this type plus the matching
// fourth tile in hand.
func CanAddedKan(s Seat, type34 int, wallHasRinshan bool, totalKans, maxKans int) bool {
	if !wallHasRinshan || totalKans >= maxKans {
		return false
	}
	if s.CountType34(type34) < 1 {
		return false
	}
	for _, m := range s.Melds {
		if m.Type == MeldPon && len(m.Tiles) > 0 && m.Tiles[0].Type34() == type34 {
			return true
		}
	}
	return false
}

// ChiOption is one valid (a,b) pair of hand tiles that, with the
// discard, forms a run.
type ChiOption struct {
	A, B tiles.Tile
}

// ChiOptions enumerates every valid chi against tile, only legal from
// kamicha (spec glossary); callers must check seat adjacency separately.
func ChiOptions(s Seat, tile tiles.Tile) []ChiOption {
	t34 := tile.Type34()
	if t34 >= tiles.HonorStart {
		return nil
	}
	suitStart := (t34 / 9) * 9
	rank := t34 % 9

	var opts []ChiOption
	tryRun := func(lo, mid, hi int) {
		if lo < suitStart || hi > suitStart+8 {
			return
		}
		members := []int{lo, mid, hi}
		need := make([]int, 0, 2)
		for _, m := range members {
			if m != t34 {
				need = append(need, m)
			}
		}
		if len(need) != 2 {
			return
		}
		a, aok := findTileOfType(s, need[0])
		b, bok := findTileOfType(s, need[1])
		if aok && bok {
			opts = append(opts, ChiOption{A: a, B: b})
		}
	}
	tryRun(t34-2, t34-1, t34)
	tryRun(t34-1, t34, t34+1)
	tryRun(t34, t34+1, t34+2)
	_ = rank
	return opts
}

func findTileOfType(s Seat, type34 int) (tiles.Tile, bool) {
	for _, c := range s.Concealed {
		if c.Type34() == type34 {
			return c, true
		}
	}
	return 0, false
}

// CanCallKyuushu reports nine-terminals abortive-draw eligibility: the
// seat has never discarded and holds >=9 distinct terminal/honor types
// (spec §4.1 "AwaitingDraw").
func CanCallKyuushu(s Seat, drawn tiles.Tile) bool {
	if len(s.Discards) > 0 || len(s.Melds) > 0 {
		return false
	}
	counts := s.Counts34()
	counts[drawn.Type34()]++
	distinct := 0
	for t := 0; t < tiles.DistinctTypes; t++ {
		if counts[t] > 0 && tiles.Tile(t*4).IsTerminalOrHonor() {
			distinct++
		}
	}
	return distinct >= 9
}

// RiichiEligible reports closed tenpai hand with sufficient points and
// not already in riichi, per discard candidate that preserves tenpai.
func RiichiEligible(s Seat, minPoints int) bool {
	if s.IsRiichi || !s.IsMenzen() || s.Score < minPoints {
		return false
	}
	return IsTenpai(s)
}

// TenpaiPreservingDiscards returns every concealed tile whose discard
// keeps the hand tenpai, used to validate a DeclareRiichi(tile) request.
func TenpaiPreservingDiscards(s Seat) []tiles.Tile {
	seen := make(map[int]bool)
	var out []tiles.Tile
	for _, c := range s.Concealed {
		if seen[int(c)] {
			continue
		}
		seen[int(c)] = true
		counts := s.Counts34()
		counts[c.Type34()]--
		if len(WaitingTiles(counts, len(s.Melds))) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// ChankanEligible reports whether seat is tenpai waiting on the tile
// being added to a pon (normal chankan) or, for kokushi, the tile
// completing a closed kan being robbed (spec glossary "chankan",
// §4.1 "Closed-kan specifics").
func ChankanEligible(s Seat, addedTile tiles.Tile, isClosedKanRob bool, probe YakuProbe) bool {
	if isClosedKanRob {
		counts := s.Counts34()
		return IsKokushiTenpai(counts, len(s.Melds)) && canKokushiWinOn(counts, addedTile)
	}
	return CanRon(s, addedTile, probe)
}

func canKokushiWinOn(counts [tiles.DistinctTypes]int, tile tiles.Tile) bool {
	t34 := tile.Type34()
	isKokushiType := false
	for _, k := range kokushiTypes() {
		if k == t34 {
			isKokushiType = true
			break
		}
	}
	if !isKokushiType {
		return false
	}
	counts[t34]++
	defer func() { counts[t34]-- }()
	return IsKokushiShape(counts, 0)
}
