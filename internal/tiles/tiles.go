// Package tiles implements the deterministic tile wall: a seeded
// shuffle of the 136-tile set, a live wall drawn from the head, and a
// fourteen-tile dead wall holding rinshan tiles and dora indicators.
//
// Grounded on runtime/game/engines/mahjong/material.go (DeckManager,
// Wang) from the teacher, generalized to the spec's 0..135 tile
// numbering (tile/4 identifies the type) instead of the teacher's
// {Type, ID} pair, and to an explicit seed/version so round replay is
// reproducible (spec §4.3 "Determinism contract").
package tiles

import "math/rand"

// Tile is a single physical tile, numbered 0..135. Four consecutive
// IDs (t, t+1, t+2, t+3 grouped by t/4) share a Type34.
type Tile int

const (
	// TotalTiles is the fixed size of a riichi mahjong set.
	TotalTiles = 136
	// DistinctTypes is the count of distinct tile34 values.
	DistinctTypes = 34
	// DeadWallSize is the invariant size of the dead wall (spec §3).
	DeadWallSize = 14
)

// Type34 identifies the tile's type, independent of which physical
// copy (0..3) it is.
func (t Tile) Type34() int { return int(t) / 4 }

// Suit classifications over Type34 (0-indexed): man 0-8, pin 9-17,
// sou 18-26, honors 27-33 (winds 27-30, dragons 31-33).
const (
	ManStart   = 0
	PinStart   = 9
	SouStart   = 18
	HonorStart = 27
)

func (t Tile) IsHonor() bool { return t.Type34() >= HonorStart }

// IsTerminal reports a 1 or 9 numbered tile (not an honor).
func (t Tile) IsTerminal() bool {
	if t.IsHonor() {
		return false
	}
	rank := t.Type34() % 9
	return rank == 0 || rank == 8
}

func (t Tile) IsTerminalOrHonor() bool { return t.IsHonor() || t.IsTerminal() }

// IsRedFive reports whether this physical tile is the red-five variant
// (ID 0 within its type group, by the teacher's convention, restricted
// to the three type-5 groups: man5, pin5, sou5).
func (t Tile) IsRedFive(useRedFives bool) bool {
	if !useRedFives {
		return false
	}
	switch t.Type34() {
	case 4, 13, 22: // man5, pin5, sou5
		return int(t)%4 == 0
	default:
		return false
	}
}

// Wall is the ordered live wall plus the fourteen-tile dead wall, with
// a running count of revealed dora indicators and a count of reveals
// deferred until a pending discard survives the ron check (spec §4.1
// "Dora timing").
type Wall struct {
	live []Tile
	dead [DeadWallSize]Tile

	rinshanDrawn   int // 0..4, count of rinshan tiles consumed from dead[0:4]
	doraRevealed   int // 1..5, count of dora indicators revealed from dead[4:9]
	uraRevealed    int // 0..5, count of ura indicators revealed from dead[9:14]
	pendingDora    int // deferred reveals awaiting a surviving discard
	useRedFives    bool
	rng            *rand.Rand
	seed           int64
	rngVersion     int
}

// NewWall builds and shuffles a fresh 136-tile wall from seed, under
// the given RNG version (bumped only if the shuffle algorithm itself
// changes — part of the determinism contract, spec §4.3).
func NewWall(seed int64, rngVersion int, useRedFives bool) *Wall {
	w := &Wall{useRedFives: useRedFives, seed: seed, rngVersion: rngVersion}
	w.rng = rand.New(rand.NewSource(seed))
	deck := make([]Tile, TotalTiles)
	for i := range deck {
		deck[i] = Tile(i)
	}
	w.rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	deadStart := len(deck) - DeadWallSize
	w.live = append([]Tile(nil), deck[:deadStart]...)
	copy(w.dead[:], deck[deadStart:])
	w.doraRevealed = 1 // the first dora indicator is revealed at round start
	return w
}

func (w *Wall) Seed() int64      { return w.seed }
func (w *Wall) RNGVersion() int  { return w.rngVersion }

// Remaining is the number of tiles left to draw from the live wall.
func (w *Wall) Remaining() int { return len(w.live) }

// Draw removes and returns the head tile of the live wall.
func (w *Wall) Draw() (Tile, bool) {
	if len(w.live) == 0 {
		return 0, false
	}
	t := w.live[0]
	w.live = w.live[1:]
	return t, true
}

// ExhaustiveDrawThreshold is the live-wall count at or below which
// IsExhausted reports true; at 0 the round ends in an exhaustive draw
// when the next draw finds the live wall empty.
const ExhaustiveDrawThreshold = 0

// IsExhausted reports whether the live wall cannot support another draw.
func (w *Wall) IsExhausted() bool { return len(w.live) <= ExhaustiveDrawThreshold }

// DrawRinshan draws a replacement tile from the dead wall after any
// kan, and slides one live-wall tile into the dead wall to keep it at
// exactly fourteen (spec §3 "Wall" invariant).
func (w *Wall) DrawRinshan() (Tile, bool) {
	if w.rinshanDrawn >= 4 {
		return 0, false
	}
	t := w.dead[w.rinshanDrawn]
	w.rinshanDrawn++

	if len(w.live) > 0 {
		replacement := w.live[len(w.live)-1]
		w.live = w.live[:len(w.live)-1]
		w.dead[w.rinshanDrawn-1] = replacement
	}
	return t, true
}

// CanDrawRinshan reports whether a kan replacement tile remains.
func (w *Wall) CanDrawRinshan() bool { return w.rinshanDrawn < 4 }

// RevealDoraIndicator reveals the next dora indicator immediately (used
// for closed kan when the immediate-reveal switch is on).
func (w *Wall) RevealDoraIndicator() (Tile, bool) {
	if w.doraRevealed >= 5 {
		return 0, false
	}
	t := w.dead[4+w.doraRevealed]
	w.doraRevealed++
	return t, true
}

// DeferDoraReveal records that an open/added kan's indicator must wait
// until its replacement discard survives the ron check.
func (w *Wall) DeferDoraReveal() { w.pendingDora++ }

// ReleaseDeferredDora reveals every indicator queued by DeferDoraReveal
// and returns them, called once the triggering discard passes unclaimed.
func (w *Wall) ReleaseDeferredDora() []Tile {
	if w.pendingDora == 0 {
		return nil
	}
	released := make([]Tile, 0, w.pendingDora)
	for w.pendingDora > 0 && w.doraRevealed < 5 {
		t, ok := w.RevealDoraIndicator()
		if !ok {
			break
		}
		released = append(released, t)
		w.pendingDora--
	}
	w.pendingDora = 0
	return released
}

// DoraIndicators returns the currently-revealed dora indicators.
func (w *Wall) DoraIndicators() []Tile {
	return append([]Tile(nil), w.dead[4:4+w.doraRevealed]...)
}

// RevealUraDoraIndicators reveals all ura indicators matching the
// number of dora indicators revealed (called once, at a riichi win).
func (w *Wall) RevealUraDoraIndicators() []Tile {
	n := w.doraRevealed
	if n > 5 {
		n = 5
	}
	for w.uraRevealed < n {
		w.uraRevealed++
	}
	return append([]Tile(nil), w.dead[9:9+w.uraRevealed]...)
}

// PeekUraDoraIndicators returns what RevealUraDoraIndicators would
// reveal, without mutating uraRevealed — used by win probes that must
// not have a side effect on the shared wall just from being asked
// "would this be a win" (spec §4.1's available-actions computation
// calls CanTsumo/CanRon speculatively, not only on an actual win).
func (w *Wall) PeekUraDoraIndicators() []Tile {
	n := w.doraRevealed
	if n > 5 {
		n = 5
	}
	return append([]Tile(nil), w.dead[9:9+n]...)
}

// UseRedFives reports whether this wall deals red-five variants.
func (w *Wall) UseRedFives() bool { return w.useRedFives }

// Snapshot is an immutable view used by replay/reconnect, never
// mutated after construction.
type Snapshot struct {
	Remaining      int
	DoraIndicators []Tile
	DeadWallSize   int
}

func (w *Wall) Snapshot() Snapshot {
	return Snapshot{Remaining: w.Remaining(), DoraIndicators: w.DoraIndicators(), DeadWallSize: DeadWallSize}
}

// Clone deep-copies the wall so round transitions can thread it
// through copy-on-write the way every other RoundState field is
// (spec §9 "Immutable state threading"). The RNG itself is not
// re-seeded here; callers draw from the clone going forward and
// discard the original.
func (w *Wall) Clone() *Wall {
	cp := *w
	cp.live = append([]Tile(nil), w.live...)
	return &cp
}
