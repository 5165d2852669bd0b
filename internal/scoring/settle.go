package scoring

// Settle turns a scored Result into the four seat-indexed point
// deltas for one round-ending event. Payments, honba included, are
// transfers between seats and sum to zero; the one exception is the
// table's riichi sticks, which SettleRon and SettleDoubleRon credit to
// a winner as 1000 each with no matching debit, because those points
// were already taken from the declarers when riichi was declared
// (spec glossary "Honba", "Pao").
//
// Grounded on score_calculator.go's ron/tsumo payment split (dealer
// pays/receives double), generalized to double-ron and draws which
// the teacher's callHuPoints did not cover at all.

func payoutUnit(result Result) int {
	if result.IsYakuman {
		return 8000 * result.YakumanMult
	}
	return result.BasePoints
}

// SettleTsumo distributes a self-draw win: non-dealers pay the base
// unit, the dealer (whether winning or paying) pays/receives double.
func SettleTsumo(result Result, winnerSeat, dealerSeat, honba int) [4]int {
	var deltas [4]int
	unit := payoutUnit(result)
	for seat := 0; seat < 4; seat++ {
		if seat == winnerSeat {
			continue
		}
		pay := unit
		if winnerSeat == dealerSeat {
			pay = unit * 2
		} else if seat == dealerSeat {
			pay = unit * 2
		}
		pay += 100 * honba
		deltas[seat] -= pay
		deltas[winnerSeat] += pay
	}
	return deltas
}

// SettleRon distributes a single ron: the discarder pays the full
// amount (x4 non-dealer win, x6 dealer win) plus the full honba bonus.
func SettleRon(result Result, winnerSeat, loserSeat, dealerSeat, honba, riichiSticksOnTable int) [4]int {
	var deltas [4]int
	unit := payoutUnit(result)
	mult := 4
	if winnerSeat == dealerSeat {
		mult = 6
	}
	pay := unit*mult + 300*honba
	deltas[loserSeat] -= pay
	deltas[winnerSeat] += pay + 1000*riichiSticksOnTable
	return deltas
}

// SettleDoubleRon distributes a double ron: each winner is paid in
// full by the shared discarder, but the honba bonus and riichi sticks
// go only to the winner seated closer to the discarder going
// counter-clockwise (spec §4.1 step 6 example "Double ron with
// riichi-stick tie-break").
func SettleDoubleRon(results [2]Result, winners [2]int, loserSeat, dealerSeat, honba, riichiSticksOnTable int) [4]int {
	var deltas [4]int
	closer := winners[0]
	if ccwDistance(loserSeat, winners[1]) < ccwDistance(loserSeat, winners[0]) {
		closer = winners[1]
	}
	for i, winner := range winners {
		unit := payoutUnit(results[i])
		mult := 4
		if winner == dealerSeat {
			mult = 6
		}
		pay := unit * mult
		if winner == closer {
			pay += 300*honba + 1000*riichiSticksOnTable
		}
		deltas[loserSeat] -= pay
		deltas[winner] += pay
	}
	return deltas
}

func ccwDistance(from, to int) int { return ((to - from) + 4) % 4 }

// SettleExhaustiveDraw pays tenpai seats from noten seats at the
// standard splits (1 tenpai: 1000/3000; 2: 1500/1500; 3: 3000/1000;
// 0 or 4: no transfer).
func SettleExhaustiveDraw(tenpaiSeats [4]bool) [4]int {
	var deltas [4]int
	n := 0
	for _, t := range tenpaiSeats {
		if t {
			n++
		}
	}
	if n == 0 || n == 4 {
		return deltas
	}
	totalPay := 3000
	perNoten := totalPay / (4 - n)
	perTenpai := totalPay / n
	for seat, t := range tenpaiSeats {
		if t {
			deltas[seat] += perTenpai
		} else {
			deltas[seat] -= perNoten
		}
	}
	return deltas
}

// SettleNagashiMangan pays a nagashi-mangan seat as if they'd tsumoed
// a mangan (spec glossary "Nagashi mangan"); honba does not increment
// from this outcome (decided Open Question, see DESIGN.md).
func SettleNagashiMangan(seat, dealerSeat int) [4]int {
	result := Result{Han: 5, BasePoints: 2000}
	return SettleTsumo(result, seat, dealerSeat, 0)
}

// ApplyPao redirects a yakuman's full payment onto the seat liable
// under responsibility rules (the seat whose discard or meld
// completed the yakuman shape), per spec glossary "Pao".
func ApplyPao(deltas [4]int, result Result, winnerSeat, paoSeat int, wasTsumo bool) [4]int {
	if !result.IsYakuman || paoSeat < 0 {
		return deltas
	}
	out := deltas
	gain := out[winnerSeat]
	if !wasTsumo {
		return out // ron pao: the discarder already paid the full amount directly
	}
	for seat := 0; seat < 4; seat++ {
		if seat == winnerSeat || out[seat] >= 0 {
			continue
		}
		out[seat] = 0
	}
	out[paoSeat] = -gain
	return out
}
