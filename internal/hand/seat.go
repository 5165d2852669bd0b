package hand

import "riichicore/internal/tiles"

// Discard is one discarded tile plus the flags spec §3 attaches to it.
type Discard struct {
	Tile               tiles.Tile
	IsTsumogiri        bool
	IsRiichiDeclaration bool
}

// Seat is one of the four per-game players (spec §3 "Seat/Player").
// Held by value inside RoundState and copied on every transition
// (spec §9 "Immutable state threading") — callers must treat a Seat
// returned from a transition as a fresh value, never alias the old one.
type Seat struct {
	Index    int
	Name     string
	Score    int // centi-points
	Concealed []tiles.Tile
	Melds    []Meld
	Discards []Discard

	IsRiichi            bool
	IsIppatsu           bool
	IsTemporaryFuriten  bool
	IsRiichiFuriten     bool
	IsRinshan           bool
	HasOpenedHand       bool
	PaoSeat             int // -1 when no pao liability
	ForbiddenDiscards    map[int]bool // type34 -> forbidden this turn (kuikae)
}

// NewSeat builds an empty seat ready for dealing.
func NewSeat(index int, name string, initialScore int) Seat {
	return Seat{
		Index:            index,
		Name:             name,
		Score:            initialScore,
		Concealed:        make([]tiles.Tile, 0, 14),
		Melds:            make([]Meld, 0, 4),
		Discards:         make([]Discard, 0, 24),
		PaoSeat:          -1,
		ForbiddenDiscards: make(map[int]bool),
	}
}

// Clone returns a deep-enough copy for copy-on-write transitions.
func (s Seat) Clone() Seat {
	cp := s
	cp.Concealed = append([]tiles.Tile(nil), s.Concealed...)
	cp.Melds = append([]Meld(nil), s.Melds...)
	cp.Discards = append([]Discard(nil), s.Discards...)
	cp.ForbiddenDiscards = make(map[int]bool, len(s.ForbiddenDiscards))
	for k, v := range s.ForbiddenDiscards {
		cp.ForbiddenDiscards[k] = v
	}
	return cp
}

// HasTile reports whether the tile is currently in hand.
func (s Seat) HasTile(t tiles.Tile) bool {
	for _, c := range s.Concealed {
		if c == t {
			return true
		}
	}
	return false
}

// CountType34 counts concealed copies of a tile type.
func (s Seat) CountType34(type34 int) int {
	n := 0
	for _, c := range s.Concealed {
		if c.Type34() == type34 {
			n++
		}
	}
	return n
}

// RemoveTile removes one physical tile from the concealed hand.
func (s *Seat) RemoveTile(t tiles.Tile) bool {
	for i, c := range s.Concealed {
		if c == t {
			s.Concealed = append(s.Concealed[:i], s.Concealed[i+1:]...)
			return true
		}
	}
	return false
}

// IsMenzen reports a fully closed hand (no open melds; a closed kan
// does not open the hand).
func (s Seat) IsMenzen() bool {
	for _, m := range s.Melds {
		if m.Type != MeldClosedKan {
			return false
		}
	}
	return true
}

// KanCount returns the number of kans (any kind) this seat holds.
func (s Seat) KanCount() int {
	n := 0
	for _, m := range s.Melds {
		if m.Type.IsKan() {
			n++
		}
	}
	return n
}

func (s Seat) Counts34() [tiles.DistinctTypes]int {
	var counts [tiles.DistinctTypes]int
	for _, c := range s.Concealed {
		counts[c.Type34()]++
	}
	return counts
}
