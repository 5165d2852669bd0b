package scoring

import "riichicore/internal/hand"

// Result is the full outcome of scoring one winning hand: the yaku
// list, total han, fu, and the base points used to derive payments.
// Grounded on runtime/game/engines/mahjong/score_calculator.go's
// callHuPoints, completed where that file stopped at TODO stubs
// (pinfu/pair/wait fu, menzen-ron bonus).
type Result struct {
	Yaku       []YakuResult
	Han        int
	Fu         int
	IsYakuman  bool
	YakumanMult int
	BasePoints int
}

// Score picks the highest-scoring decomposition of ctx's winning hand
// and returns its full han/fu/points breakdown.
func Score(ctx WinContext) Result {
	counts := ctx.Winner.Counts34()
	winCounts := counts
	winCounts[ctx.WinTile.Type34()]++

	if hand.IsKokushiShape(winCounts, len(ctx.Winner.Melds)) {
		mult := 1
		y := YakuKokushi
		if isKokushi13Wait(ctx.Winner, ctx.WinTile) {
			mult = 2
			y = YakuKokushi13
		}
		return Result{Yaku: []YakuResult{{Yaku: y, YakumanMultiplier: mult}}, IsYakuman: true, YakumanMult: mult}
	}

	if hand.IsChiitoiShape(winCounts, len(ctx.Winner.Melds)) {
		results := append(chiitoiResults(ctx), bonusResults(ctx)...)
		return Result{Yaku: results, Han: totalHan(results), Fu: 25, BasePoints: basePoints(totalHan(results), 25)}
	}

	decomps := decompose(winCounts, 4-len(ctx.Winner.Melds))
	best := Result{}
	bestScore := -1
	for _, d := range decomps {
		results := evaluateDecomposition(ctx, d)
		han := totalHan(results)
		yakuman := 0
		for _, r := range results {
			if r.YakumanMultiplier > yakuman {
				yakuman = r.YakumanMultiplier
			}
		}
		if yakuman > 0 {
			cand := Result{Yaku: results, IsYakuman: true, YakumanMult: yakuman}
			if yakuman*1_000_000 > bestScore {
				bestScore = yakuman * 1_000_000
				best = cand
			}
			continue
		}
		if han == 0 {
			continue
		}
		fu := computeFu(ctx, d)
		cand := Result{Yaku: results, Han: han, Fu: fu, BasePoints: basePoints(han, fu)}
		score := cand.BasePoints
		if score > bestScore {
			bestScore = score
			best = cand
		}
	}
	return best
}

func basePoints(han, fu int) int {
	if han >= 13 {
		return 8000 // per-yakuman-multiplier unit, applied by caller
	}
	switch {
	case han >= 11:
		return 6000
	case han >= 8:
		return 4000
	case han >= 6:
		return 3000
	case han == 5:
		return 2000
	}
	base := roundUpTo100(fu * (1 << (2 + han)))
	if base > 2000 {
		base = 2000 // capped at mangan equivalent
	}
	return base
}

func roundUpTo100(v int) int { return ((v + 99) / 100) * 100 }
func roundUpTo10(v int) int  { return ((v + 9) / 10) * 10 }

func computeFu(ctx WinContext, d Decomposition) int {
	menzen := ctx.Winner.IsMenzen()
	pinfu := isAllRuns(d) && !isValueTile(d.Pair, ctx) && pinfuWait(d, ctx.WinTile.Type34())
	if pinfu && menzen {
		if ctx.IsTsumo {
			return 20
		}
		return 30
	}

	fu := 20
	if ctx.IsTsumo {
		fu += 2
	} else if menzen {
		fu += 10 // menzen-ron bonus
	}

	if isValueTile(d.Pair, ctx) {
		fu += 2
	}

	for _, s := range d.Sets {
		if s.Kind != SetTriplet {
			continue
		}
		yaochu := isTerminalOrHonorType(s.Start)
		fu += concealedTripletFu(yaochu)
	}
	for _, m := range ctx.Winner.Melds {
		yaochu := isTerminalOrHonorType(m.Tiles[0].Type34())
		switch m.Type {
		case hand.MeldClosedKan:
			fu += concealedKanFu(yaochu)
		case hand.MeldOpenKan, hand.MeldAddedKan:
			fu += openKanFu(yaochu)
		case hand.MeldPon:
			fu += openTripletFu(yaochu)
		}
	}

	if waitFu(d, ctx.WinTile.Type34()) {
		fu += 2
	}

	return roundUpTo10(fu)
}

func isAllRuns(d Decomposition) bool {
	for _, s := range d.Sets {
		if s.Kind != SetRun {
			return false
		}
	}
	return true
}

func concealedTripletFu(yaochu bool) int {
	if yaochu {
		return 8
	}
	return 4
}
func openTripletFu(yaochu bool) int {
	if yaochu {
		return 4
	}
	return 2
}
func concealedKanFu(yaochu bool) int {
	if yaochu {
		return 32
	}
	return 16
}
func openKanFu(yaochu bool) int {
	if yaochu {
		return 16
	}
	return 8
}

// waitFu reports a closed wait (kanchan/penchan/tanki) worth +2 fu.
func waitFu(d Decomposition, winType34 int) bool {
	if d.Pair == winType34 {
		onlyInPair := true
		for _, s := range d.Sets {
			if s.Kind == SetRun && winType34 >= s.Start && winType34 <= s.Start+2 {
				onlyInPair = false
			}
		}
		if onlyInPair {
			return true // tanki
		}
	}
	for _, s := range d.Sets {
		if s.Kind != SetRun {
			continue
		}
		if winType34 < s.Start || winType34 > s.Start+2 {
			continue
		}
		return !pinfuWait(d, winType34)
	}
	return false
}
