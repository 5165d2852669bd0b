// Package stats samples process load the way the teacher's
// framework/game.Monitor does (gopsutil CPU percent, runtime mem
// stats) and exposes it over HTTP, both as a small JSON endpoint and
// via an arl/statsviz live dashboard mount.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/arl/statsviz"
	"github.com/shirou/gopsutil/v3/cpu"

	"riichicore/internal/logging"
)

// LoadInfo is one sample of process load, grounded on the teacher's
// LoadInfo (gameCount/playerCount swapped for this module's own
// active-game/connection counters).
type LoadInfo struct {
	GameCount       int     `json:"gameCount"`
	ConnectionCount int     `json:"connectionCount"`
	CPUUsage        float64 `json:"cpuUsagePercent"`
	MemUsage        float64 `json:"memUsagePercent"`
}

// Source supplies the counts stats can't measure itself.
type Source interface {
	GameCount() int
	ConnectionCount() int
}

// Collector periodically samples LoadInfo, the way Monitor.Report
// ticks and calls reportLoad.
type Collector struct {
	source         Source
	updateInterval time.Duration
	totalMemory    uint64

	latest LoadInfo
}

// NewCollector builds a Collector sampling every updateInterval,
// treating totalMemoryBytes as the denominator for MemUsage (pass 0
// to fall back to the teacher's 8GB placeholder).
func NewCollector(source Source, updateInterval time.Duration, totalMemoryBytes uint64) *Collector {
	if totalMemoryBytes == 0 {
		totalMemoryBytes = 8 * 1024 * 1024 * 1024
	}
	return &Collector{source: source, updateInterval: updateInterval, totalMemory: totalMemoryBytes}
}

// Run samples once immediately, then every updateInterval until ctx
// is canceled, exactly mirroring Monitor.Report's loop shape.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.updateInterval)
	defer ticker.Stop()

	c.sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

func (c *Collector) sample() {
	c.latest = LoadInfo{
		GameCount:       c.source.GameCount(),
		ConnectionCount: c.source.ConnectionCount(),
		CPUUsage:        getCPUUsage(),
		MemUsage:        c.getMemoryUsage(),
	}
}

// Latest returns the most recent sample.
func (c *Collector) Latest() LoadInfo {
	return c.latest
}

func getCPUUsage() float64 {
	percentages, err := cpu.Percent(200*time.Millisecond, false)
	if err != nil || len(percentages) == 0 {
		logging.Warn("stats: cpu.Percent unavailable: %v", err)
		return 0.0
	}
	return clampPercent(percentages[0])
}

func (c *Collector) getMemoryUsage() float64 {
	var mStats runtime.MemStats
	runtime.ReadMemStats(&mStats)
	if c.totalMemory == 0 {
		return 0.0
	}
	return clampPercent(float64(mStats.Sys) / float64(c.totalMemory) * 100.0)
}

func clampPercent(v float64) float64 {
	if v > 100.0 {
		return 100.0
	}
	if v < 0.0 {
		return 0.0
	}
	return v
}

// RegisterHandlers mounts /stats (this collector's latest JSON sample)
// and /debug/statsviz (the arl/statsviz live dashboard) on mux.
func RegisterHandlers(mux *http.ServeMux, c *Collector) error {
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c.Latest())
	})
	srv, err := statsviz.NewServer()
	if err != nil {
		return fmt.Errorf("stats: statsviz server: %w", err)
	}
	mux.Handle("/debug/statsviz/", srv.Index())
	mux.HandleFunc("/debug/statsviz/ws", srv.Ws())
	return nil
}
