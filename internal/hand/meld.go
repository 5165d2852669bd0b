// Package hand implements the pure predicates spec §2 calls "Hand
// Rules": structural tile/meld mechanics, winning-hand decomposition,
// tenpai/waiting-tile computation, and the three furiten variants.
// It deliberately knows nothing about han/fu/yaku scoring (that is
// internal/scoring, one layer up) — callers that need "is there a
// yaku at all" (required to actually call ron, spec §4.1 step 3) pass
// a YakuProbe function, breaking what would otherwise be an import
// cycle between hand and scoring.
//
// Grounded on runtime/game/engines/mahjong/material.go (Tile, Meld
// shape) and checker.go (canHu/canGang/canPeng/canChi, here completed
// rather than left as the teacher's `// fixme` stubs).
package hand

import "riichicore/internal/tiles"

// MeldType is the closed sum type spec §9 calls for.
type MeldType int

const (
	MeldPon MeldType = iota
	MeldChi
	MeldOpenKan
	MeldClosedKan
	MeldAddedKan
)

func (m MeldType) String() string {
	switch m {
	case MeldPon:
		return "Pon"
	case MeldChi:
		return "Chi"
	case MeldOpenKan:
		return "OpenKan"
	case MeldClosedKan:
		return "ClosedKan"
	case MeldAddedKan:
		return "AddedKan"
	default:
		return "Unknown"
	}
}

// IsKan reports whether this meld type consumes a rinshan tile.
func (m MeldType) IsKan() bool {
	return m == MeldOpenKan || m == MeldClosedKan || m == MeldAddedKan
}

// IsOpen reports whether the meld is visible to all seats (spec §3:
// a meld's "opened flag").
func (m MeldType) IsOpen() bool { return m != MeldClosedKan }

// Meld is one called or declared set (spec §3).
type Meld struct {
	Type        MeldType
	Owner       int
	Tiles       []tiles.Tile
	CalledTile  tiles.Tile
	FromSeat    int
	HasCalled   bool // whether CalledTile/FromSeat are meaningful
}

// sameType34 reports whether every tile shares the same type34 — the
// invariant for Pon and Kan (spec §3 "Meld" invariant).
func sameType34(ts []tiles.Tile) bool {
	if len(ts) == 0 {
		return false
	}
	t0 := ts[0].Type34()
	for _, t := range ts[1:] {
		if t.Type34() != t0 {
			return false
		}
	}
	return true
}

// isConsecutiveRun reports whether three tiles form a consecutive run
// within one numbered suit — the invariant for Chi (spec §3).
func isConsecutiveRun(ts []tiles.Tile) bool {
	if len(ts) != 3 {
		return false
	}
	types := []int{ts[0].Type34(), ts[1].Type34(), ts[2].Type34()}
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if types[i] > types[j] {
				types[i], types[j] = types[j], types[i]
			}
		}
	}
	if types[0] >= tiles.HonorStart {
		return false
	}
	suitStart := (types[0] / 9) * 9
	suitEnd := suitStart + 8
	if types[2] > suitEnd {
		return false
	}
	return types[1] == types[0]+1 && types[2] == types[0]+2
}

// ValidMeld validates the invariant for the meld's declared type.
func ValidMeld(m Meld) bool {
	switch m.Type {
	case MeldPon:
		return len(m.Tiles) == 3 && sameType34(m.Tiles)
	case MeldChi:
		return isConsecutiveRun(m.Tiles)
	case MeldOpenKan, MeldClosedKan, MeldAddedKan:
		return len(m.Tiles) == 4 && sameType34(m.Tiles)
	default:
		return false
	}
}
