// Package scoring implements spec §2's "Scoring" component: pure
// functions mapping (winning tiles, melds, context) to a han/fu/yaku
// list and score deltas for tsumo/ron/double-ron/nagashi-mangan, plus
// honba/riichi-stick distribution and pao attribution.
//
// Grounded on runtime/game/engines/mahjong/yaku.go (the Yaku enum and
// YakuChecker/yakuCheckerFunc registry pattern) and score_calculator.go
// (fixed-points table, base-points formula, round-up-to-100), completed
// rather than left at the teacher's partial registry.
package scoring

import (
	"riichicore/internal/hand"
	"riichicore/internal/tiles"
)

// Yaku is the closed enum of win conditions this engine recognizes.
type Yaku int

const (
	YakuRiichi Yaku = iota
	YakuIppatsu
	YakuMenzenTsumo
	YakuPinfu
	YakuIipeiko
	YakuYakuhai
	YakuTanyao
	YakuSanshoku
	YakuIttsu
	YakuChanta
	YakuJunchan
	YakuHonroto
	YakuChinroto
	YakuHonitsu
	YakuChinitsu
	YakuToitoi
	YakuSananko
	YakuChiitoi
	YakuKokushi
	YakuKokushi13
	YakuSuuankou
	YakuHaitei
	YakuHoutei
	YakuRinshan
	YakuChankan
	YakuKazoeYakuman
	YakuDora
	YakuUraDora
	YakuAkaDora
)

var yakuNames = map[Yaku]string{
	YakuRiichi: "Riichi", YakuIppatsu: "Ippatsu", YakuMenzenTsumo: "MenzenTsumo",
	YakuPinfu: "Pinfu", YakuIipeiko: "Iipeiko", YakuYakuhai: "Yakuhai",
	YakuTanyao: "Tanyao", YakuSanshoku: "Sanshoku", YakuIttsu: "Ittsu",
	YakuChanta: "Chanta", YakuJunchan: "Junchan", YakuHonroto: "Honroto",
	YakuChinroto: "Chinroto", YakuHonitsu: "Honitsu", YakuChinitsu: "Chinitsu",
	YakuToitoi: "Toitoi", YakuSananko: "Sanankou", YakuChiitoi: "Chiitoi",
	YakuKokushi: "Kokushi", YakuKokushi13: "KokushiJuusanmen",
	YakuSuuankou: "Suuankou", YakuHaitei: "Haitei", YakuHoutei: "Houtei",
	YakuRinshan: "Rinshan", YakuChankan: "Chankan", YakuKazoeYakuman: "Kazoe",
	YakuDora: "Dora", YakuUraDora: "UraDora", YakuAkaDora: "AkaDora",
}

func (y Yaku) String() string { return yakuNames[y] }

// YakuResult is one scored yaku: its han value (0 when it's a yakuman,
// in which case YakumanMultiplier is set instead).
type YakuResult struct {
	Yaku              Yaku
	Han               int
	YakumanMultiplier int
}

// WinContext is everything scoring needs beyond the bare hand shape.
type WinContext struct {
	Winner           hand.Seat
	WinTile          tiles.Tile
	IsTsumo          bool
	IsRiichi         bool
	IsIppatsu        bool
	IsHaitei         bool // won on the last live-wall tile
	IsHoutei         bool // won on the last discard
	IsRinshan        bool // won on a replacement tile after kan
	IsChankan        bool
	SeatWind         tiles.Tile // a representative tile of the seat wind (type34 27..30)
	RoundWind        tiles.Tile
	DoraIndicators   []tiles.Tile
	UraDoraIndicators []tiles.Tile
	RedFiveCount     int
}

// Evaluate returns the full yaku list (including yakuman, which
// contribute through YakumanMultiplier, not Han) for the decomposition
// of the winning hand with the most han, any yakuman ranking first.
func Evaluate(ctx WinContext) []YakuResult {
	counts := ctx.Winner.Counts34()
	winCounts := counts
	winCounts[ctx.WinTile.Type34()]++

	if hand.IsKokushiShape(winCounts, len(ctx.Winner.Melds)) {
		mult := 1
		if isKokushi13Wait(ctx.Winner, ctx.WinTile) {
			mult = 2
			return []YakuResult{{Yaku: YakuKokushi13, YakumanMultiplier: mult}}
		}
		return []YakuResult{{Yaku: YakuKokushi, YakumanMultiplier: mult}}
	}

	if hand.IsChiitoiShape(winCounts, len(ctx.Winner.Melds)) {
		return append(chiitoiResults(ctx), bonusResults(ctx)...)
	}

	decomps := decompose(winCounts, 4-len(ctx.Winner.Melds))
	best := []YakuResult{}
	bestHan := -1
	for _, d := range decomps {
		results := evaluateDecomposition(ctx, d)
		han := totalHan(results)
		for _, r := range results {
			if r.YakumanMultiplier > 0 {
				han += 100 // force yakuman decompositions to win selection
			}
		}
		if han > bestHan {
			bestHan = han
			best = results
		}
	}
	return best
}

func totalHan(results []YakuResult) int {
	n := 0
	for _, r := range results {
		n += r.Han
	}
	return n
}

// HasAnyYaku is the hand.YakuProbe implementation wired by callers
// into internal/hand's furiten/ron predicates.
func HasAnyYaku(ctx WinContext) bool {
	for _, r := range Evaluate(ctx) {
		if r.Han > 0 || r.YakumanMultiplier > 0 {
			return true
		}
	}
	return false
}
