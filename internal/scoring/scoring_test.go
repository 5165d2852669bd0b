package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"riichicore/internal/hand"
	"riichicore/internal/tiles"
)

func seatWithConcealed(types ...int) hand.Seat {
	s := hand.NewSeat(0, "p0", 25000)
	for _, t34 := range types {
		s.Concealed = append(s.Concealed, tiles.Tile(t34*4))
	}
	return s
}

func TestEvaluatePinfuRyanmenRon(t *testing.T) {
	// hand: 2m3m 5p6p7p 1s2s3s 7s8s9s 5m5m, waiting ryanmen on 1m/4m via 2m3m
	// 234m(ryanmen wait on 4m via 2m3m) 567p 123s 789s 55m
	s := seatWithConcealed(1, 2, 13, 14, 15, 18, 19, 20, 24, 25, 26, 4, 4)
	ctx := WinContext{
		Winner:    s,
		WinTile:   tiles.Tile(3 * 4), // 4m completes 234m via ryanmen(2m3m waiting 1m/4m)
		IsTsumo:   false,
		SeatWind:  tiles.Tile(27 * 4),
		RoundWind: tiles.Tile(27 * 4),
	}
	result := Score(ctx)
	require.Greater(t, result.Han, 0)
	found := false
	for _, y := range result.Yaku {
		if y.Yaku == YakuPinfu {
			found = true
		}
	}
	require.True(t, found, "expected pinfu among %v", result.Yaku)
	require.Equal(t, 30, result.Fu)
}

func TestEvaluateTanyao(t *testing.T) {
	// 234m 234p 234s 55m 56s(waiting 7s), all simples
	s := seatWithConcealed(1, 2, 3, 10, 11, 12, 19, 20, 21, 4, 4, 22, 23)
	ctx := WinContext{
		Winner:    s,
		WinTile:   tiles.Tile(24 * 4), // 7s completes 567s
		SeatWind:  tiles.Tile(27 * 4),
		RoundWind: tiles.Tile(27 * 4),
	}
	result := Score(ctx)
	hasTanyao := false
	for _, y := range result.Yaku {
		if y.Yaku == YakuTanyao {
			hasTanyao = true
		}
	}
	require.True(t, hasTanyao)
}

func TestEvaluateChiitoiHan(t *testing.T) {
	s := seatWithConcealed(0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6)
	ctx := WinContext{Winner: s, WinTile: tiles.Tile(6 * 4)}
	result := Score(ctx)
	require.Equal(t, 2, result.Han)
	require.Equal(t, 25, result.Fu)
}

func TestEvaluateKokushi(t *testing.T) {
	s := hand.NewSeat(0, "p0", 25000)
	terminalsHonors := []int{0, 8, 9, 17, 18, 26, 27, 28, 29, 30, 31, 32, 33}
	for _, t34 := range terminalsHonors {
		s.Concealed = append(s.Concealed, tiles.Tile(t34*4))
	}
	ctx := WinContext{Winner: s, WinTile: tiles.Tile(0)}
	result := Score(ctx)
	require.True(t, result.IsYakuman)
	require.Equal(t, 2, result.YakumanMult) // 13-sided wait
}

func TestSettleTsumoNonDealerSumsZero(t *testing.T) {
	result := Result{Han: 3, BasePoints: 1000}
	deltas := SettleTsumo(result, 1, 0, 0)
	sum := 0
	for _, d := range deltas {
		sum += d
	}
	require.Equal(t, 0, sum)
	require.Equal(t, 4000, deltas[1]) // dealer pays double + two non-dealers pay single = 2000+1000+1000
}

func TestSettleRonWithHonbaAndRiichiSticks(t *testing.T) {
	result := Result{Han: 4, BasePoints: 2000}
	deltas := SettleRon(result, 2, 0, 2, 1, 1)
	require.Equal(t, -(2000*6 + 300), deltas[0])
	require.Equal(t, 2000*6+300+1000, deltas[2])
}

func TestSettleExhaustiveDrawOneTenpai(t *testing.T) {
	deltas := SettleExhaustiveDraw([4]bool{true, false, false, false})
	require.Equal(t, 3000, deltas[0])
	require.Equal(t, -1000, deltas[1])
	sum := 0
	for _, d := range deltas {
		sum += d
	}
	require.Equal(t, 0, sum)
}

func TestApplyPaoRedirectsTsumoPayment(t *testing.T) {
	result := Result{IsYakuman: true, YakumanMult: 1}
	deltas := SettleTsumo(result, 1, 0, 0)
	out := ApplyPao(deltas, result, 1, 3, true)
	require.Equal(t, 0, out[0])
	require.Equal(t, 0, out[2])
	require.Equal(t, -out[1], out[3])
}
