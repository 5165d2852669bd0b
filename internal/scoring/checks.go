package scoring

import (
	"riichicore/internal/hand"
	"riichicore/internal/tiles"
)

func isTerminalOrHonorType(type34 int) bool {
	return tiles.Tile(type34 * 4).IsTerminalOrHonor()
}

func isHonorType(type34 int) bool { return type34 >= tiles.HonorStart }

// meldSets converts the seat's already-called melds into the same
// DecomposedSet shape used for concealed decomposition, so whole-hand
// yaku (sanshoku, ittsu, honitsu, toitoi, chanta...) can scan all four
// sets uniformly. A kan is treated like a triplet of its type.
func meldSets(melds []hand.Meld) []DecomposedSet {
	out := make([]DecomposedSet, 0, len(melds))
	for _, m := range melds {
		switch m.Type {
		case hand.MeldChi:
			lo := m.Tiles[0].Type34()
			for _, t := range m.Tiles[1:] {
				if t.Type34() < lo {
					lo = t.Type34()
				}
			}
			out = append(out, DecomposedSet{Kind: SetRun, Start: lo})
		default: // Pon, OpenKan, ClosedKan, AddedKan
			out = append(out, DecomposedSet{Kind: SetTriplet, Start: m.Tiles[0].Type34()})
		}
	}
	return out
}

func evaluateDecomposition(ctx WinContext, d Decomposition) []YakuResult {
	allSets := append(meldSets(ctx.Winner.Melds), d.Sets...)
	menzen := ctx.Winner.IsMenzen()

	var results []YakuResult
	add := func(y Yaku, han int) { results = append(results, YakuResult{Yaku: y, Han: han}) }
	addYakuman := func(y Yaku, mult int) { results = append(results, YakuResult{Yaku: y, YakumanMultiplier: mult}) }

	allRuns := true
	allTriplets := true
	for _, s := range allSets {
		if s.Kind == SetRun {
			allTriplets = false
		} else {
			allRuns = false
		}
	}

	if ctx.IsRiichi {
		add(YakuRiichi, 1)
	}
	if ctx.IsIppatsu {
		add(YakuIppatsu, 1)
	}
	if ctx.IsTsumo && menzen {
		add(YakuMenzenTsumo, 1)
	}
	if ctx.IsHaitei && ctx.IsTsumo {
		add(YakuHaitei, 1)
	}
	if ctx.IsHoutei && !ctx.IsTsumo {
		add(YakuHoutei, 1)
	}
	if ctx.IsRinshan {
		add(YakuRinshan, 1)
	}
	if ctx.IsChankan {
		add(YakuChankan, 1)
	}

	if allRuns && menzen {
		if !isHonorType(d.Pair) && !isValueTile(d.Pair, ctx) {
			if pinfuWait(d, ctx.WinTile.Type34()) {
				add(YakuPinfu, 1)
			}
		}
	}

	if allTriplets {
		add(YakuToitoi, 2)
	}

	tanyao := true
	terminalOrHonorAll := true
	junchanAll := true
	for _, s := range allSets {
		lo, hi := setSpan(s)
		if touchesTerminalOrHonor(lo, hi) {
			tanyao = false
		}
		if !setHasTerminalOrHonor(s) {
			terminalOrHonorAll = false
		}
		if !setHasTerminalNumber(s) {
			junchanAll = false
		}
	}
	if isTerminalOrHonorType(d.Pair) {
		// pair also must qualify for chanta/junchan/honroto
	} else {
		terminalOrHonorAll = false
		junchanAll = false
	}
	if isHonorType(d.Pair) {
		tanyao = false
	} else if tiles.Tile(d.Pair*4).IsTerminal() {
		tanyao = false
	}

	if tanyao {
		add(YakuTanyao, 1)
	}
	if terminalOrHonorAll {
		if junchanAll {
			add(YakuJunchan, boolHan(menzen, 3, 2))
		} else {
			add(YakuChanta, boolHan(menzen, 2, 1))
		}
	}

	suits := usedSuits(allSets, d.Pair)
	if len(suits) == 1 {
		if suits[0] != -1 && allHonorOrOneSuit(allSets, d.Pair, suits[0], true) {
			add(YakuChinitsu, boolHan(menzen, 6, 5))
		} else {
			add(YakuHonitsu, boolHan(menzen, 3, 2))
		}
	}

	if terminalOrHonorAll && allTriplets {
		hasHonor := isHonorType(d.Pair)
		for _, s := range allSets {
			if isHonorType(s.Start) {
				hasHonor = true
			}
		}
		if hasHonor {
			add(YakuHonroto, 2)
		} else {
			addYakuman(YakuChinroto, 1)
		}
	}

	if yh := yakuhaiHan(allSets, d.Pair, ctx); yh > 0 {
		add(YakuYakuhai, yh)
	}

	if hasSanshoku(allSets) {
		add(YakuSanshoku, boolHan(menzen, 2, 1))
	}
	if hasIttsu(allSets) {
		add(YakuIttsu, boolHan(menzen, 2, 1))
	}
	if iipeikouCount(d.Sets) >= 1 && menzen {
		add(YakuIipeiko, 1)
	}

	concealedTriplets := concealedTripletCount(ctx, d)
	if concealedTriplets >= 4 {
		wait := pairIsTanki(d, ctx.WinTile.Type34())
		if wait {
			addYakuman(YakuSuuankou, 2)
		} else {
			addYakuman(YakuSuuankou, 1)
		}
	} else if concealedTriplets == 3 {
		add(YakuSananko, 2)
	}

	if totalHan(results) >= 13 {
		return []YakuResult{{Yaku: YakuKazoeYakuman, YakumanMultiplier: 1}}
	}

	// Dora never stands alone: it only ever adds onto an already-valid
	// yaku, so skip it when this decomposition has none.
	if len(results) > 0 {
		results = append(results, bonusResults(ctx)...)
	}
	return results
}

func boolHan(closed bool, closedHan, openHan int) int {
	if closed {
		return closedHan
	}
	return openHan
}

func isValueTile(type34 int, ctx WinContext) bool {
	if type34 >= 31 {
		return true // dragon
	}
	return type34 == ctx.SeatWind.Type34() || type34 == ctx.RoundWind.Type34()
}

func setSpan(s DecomposedSet) (int, int) {
	if s.Kind == SetTriplet {
		return s.Start, s.Start
	}
	return s.Start, s.Start + 2
}

func touchesTerminalOrHonor(lo, hi int) bool {
	if lo >= tiles.HonorStart || hi >= tiles.HonorStart {
		return true
	}
	if lo%9 == 0 || hi%9 == 8 {
		return true
	}
	return false
}

func setHasTerminalOrHonor(s DecomposedSet) bool {
	if s.Kind == SetTriplet {
		return isTerminalOrHonorType(s.Start)
	}
	return s.Start%9 == 0 || s.Start+2 == (s.Start/9)*9+8
}

func setHasTerminalNumber(s DecomposedSet) bool {
	if isHonorType(s.Start) {
		return false
	}
	if s.Kind == SetTriplet {
		return s.Start%9 == 0 || s.Start%9 == 8
	}
	return s.Start%9 == 0 || s.Start+2 == (s.Start/9)*9+8
}

func suitOf(type34 int) int {
	if type34 >= tiles.HonorStart {
		return -1
	}
	return type34 / 9
}

func usedSuits(sets []DecomposedSet, pair int) []int {
	suitSet := map[int]bool{}
	hasHonor := false
	for _, s := range sets {
		suit := suitOf(s.Start)
		if suit == -1 {
			hasHonor = true
			continue
		}
		suitSet[suit] = true
	}
	if suitOf(pair) == -1 {
		hasHonor = true
	} else {
		suitSet[suitOf(pair)] = true
	}
	out := make([]int, 0, len(suitSet))
	for s := range suitSet {
		out = append(out, s)
	}
	if hasHonor && len(out) == 1 {
		return out
	}
	if hasHonor && len(out) == 0 {
		return []int{-1}
	}
	return out
}

func allHonorOrOneSuit(sets []DecomposedSet, pair, suit int, chinitsu bool) bool {
	for _, s := range sets {
		if suitOf(s.Start) == -1 {
			return false
		}
	}
	return suitOf(pair) != -1
}

func yakuhaiHan(sets []DecomposedSet, pair int, ctx WinContext) int {
	han := 0
	for _, s := range sets {
		if s.Kind != SetTriplet {
			continue
		}
		if s.Start >= 31 {
			han++
		} else if s.Start == ctx.SeatWind.Type34() {
			han++
		} else if s.Start == ctx.RoundWind.Type34() {
			han++
		}
	}
	return han
}

func hasSanshoku(sets []DecomposedSet) bool {
	ranks := map[int]map[int]bool{}
	for _, s := range sets {
		if s.Kind != SetRun {
			continue
		}
		suit := s.Start / 9
		rank := s.Start % 9
		if ranks[rank] == nil {
			ranks[rank] = map[int]bool{}
		}
		ranks[rank][suit] = true
	}
	for _, suits := range ranks {
		if len(suits) == 3 {
			return true
		}
	}
	return false
}

func hasIttsu(sets []DecomposedSet) bool {
	have := map[int]bool{}
	for _, s := range sets {
		if s.Kind == SetRun {
			have[s.Start] = true
		}
	}
	for suit := 0; suit < 3; suit++ {
		base := suit * 9
		if have[base] && have[base+3] && have[base+6] {
			return true
		}
	}
	return false
}

func iipeikouCount(sets []DecomposedSet) int {
	seen := map[int]int{}
	for _, s := range sets {
		if s.Kind == SetRun {
			seen[s.Start]++
		}
	}
	pairs := 0
	for _, c := range seen {
		pairs += c / 2
	}
	return pairs
}

// concealedTripletCount approximates sanankou/suuankou: counts
// decomposed (always-concealed) triplets plus closed-kan melds. A ron
// win whose final tile completes the deciding triplet is conventionally
// open for this purpose; that one-tile distinction is not modeled here.
func concealedTripletCount(ctx WinContext, d Decomposition) int {
	n := 0
	for _, s := range d.Sets {
		if s.Kind == SetTriplet {
			n++
		}
	}
	for _, m := range ctx.Winner.Melds {
		if m.Type == hand.MeldClosedKan {
			n++
		}
	}
	return n
}

func pairIsTanki(d Decomposition, winType34 int) bool { return d.Pair == winType34 }

// pinfuWait reports a two-sided (ryanmen) wait on the run containing
// the winning tile.
func pinfuWait(d Decomposition, winType34 int) bool {
	for _, s := range d.Sets {
		if s.Kind != SetRun {
			continue
		}
		if winType34 < s.Start || winType34 > s.Start+2 {
			continue
		}
		pos := winType34 - s.Start
		if pos == 1 {
			return false // kanchan
		}
		if pos == 0 && s.Start%9 == 6 {
			return false // penchan waiting only on the 7 of a 789 run
		}
		if pos == 2 && s.Start%9 == 0 {
			return false // penchan waiting only on the 3 of a 123 run
		}
		return true
	}
	return false
}

// isKokushi13Wait reports the thirteen-sided wait: all thirteen
// terminal/honor types already held as singles, so winning tile was
// already in hand (as opposed to the single-wait case, which is
// missing exactly one type pre-win and must draw/ron that exact tile).
func isKokushi13Wait(s hand.Seat, winTile tiles.Tile) bool {
	counts := s.Counts34()
	return hand.IsKokushiTenpai(counts, len(s.Melds)) && counts[winTile.Type34()] >= 1
}

func chiitoiResults(ctx WinContext) []YakuResult {
	return []YakuResult{{Yaku: YakuChiitoi, Han: 2}}
}

// bonusResults adds dora/uradora/aka-dora as plain han, the way the
// teacher's yaku.go groups "基本役" separately from bonus indicators;
// these never count toward "has a yaku" on their own.
func bonusResults(ctx WinContext) []YakuResult {
	var out []YakuResult
	doraHan := countDora(ctx.Winner, ctx.WinTile, ctx.DoraIndicators)
	if doraHan > 0 {
		out = append(out, YakuResult{Yaku: YakuDora, Han: doraHan})
	}
	if ctx.IsRiichi {
		uraHan := countDora(ctx.Winner, ctx.WinTile, ctx.UraDoraIndicators)
		if uraHan > 0 {
			out = append(out, YakuResult{Yaku: YakuUraDora, Han: uraHan})
		}
	}
	if ctx.RedFiveCount > 0 {
		out = append(out, YakuResult{Yaku: YakuAkaDora, Han: ctx.RedFiveCount})
	}
	return out
}

// NextDoraTile maps an indicator to the tile type it points to: next
// in rank within the suit (wrapping 9->1), winds wrap 27-28-29-30,
// dragons wrap 31-32-33.
func NextDoraTile(indicator tiles.Tile) int {
	t34 := indicator.Type34()
	switch {
	case t34 < tiles.HonorStart:
		suitStart := (t34 / 9) * 9
		rank := t34 % 9
		return suitStart + (rank+1)%9
	case t34 <= 30:
		return 27 + (t34-27+1)%4
	default:
		return 31 + (t34-31+1)%3
	}
}

func countDora(winner hand.Seat, winTile tiles.Tile, indicators []tiles.Tile) int {
	if len(indicators) == 0 {
		return 0
	}
	wanted := map[int]int{}
	for _, ind := range indicators {
		wanted[NextDoraTile(ind)]++
	}
	n := 0
	all := append(append([]tiles.Tile(nil), winner.Concealed...), winTile)
	for _, m := range winner.Melds {
		all = append(all, m.Tiles...)
	}
	for _, t := range all {
		n += wanted[t.Type34()]
	}
	return n
}
