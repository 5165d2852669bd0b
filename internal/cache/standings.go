package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// Standings is a finished game's final seat ordering, cached for
// lobby/history queries so repeat reads don't hit Mongo.
type Standings struct {
	GameID      string
	SeatNames   [4]string
	FinalScores [4]int
}

// StandingsCache bounds how much finished-game data stays hot in
// memory, the way a read-mostly lobby cache would, backed by
// dgraph-io/ristretto.
type StandingsCache struct {
	cache *ristretto.Cache
}

// NewStandingsCache builds a cache sized for maxItems entries.
func NewStandingsCache(maxItems int64) (*StandingsCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &StandingsCache{cache: c}, nil
}

// Put stores s under its GameID with a one-hour TTL.
func (sc *StandingsCache) Put(s Standings) {
	sc.cache.SetWithTTL(s.GameID, s, 1, time.Hour)
}

// Get returns the cached standings for gameID, if present.
func (sc *StandingsCache) Get(gameID string) (Standings, bool) {
	v, ok := sc.cache.Get(gameID)
	if !ok {
		return Standings{}, false
	}
	return v.(Standings), true
}
