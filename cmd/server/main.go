// Command server runs the riichi game node: lobby HTTP, websocket
// transport, session management, and the statsviz/stats debug mounts,
// grounded on the teacher's user/main.go (cobra root command loading
// config, initializing the logger, serving statsviz in a goroutine,
// then running the app) generalized from gRPC-service startup to this
// module's HTTP+WS server startup.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"riichicore/internal/cache"
	"riichicore/internal/config"
	"riichicore/internal/heartbeat"
	"riichicore/internal/httpapi"
	"riichicore/internal/logging"
	"riichicore/internal/replay"
	"riichicore/internal/roundfsm"
	"riichicore/internal/session"
	"riichicore/internal/stats"
	"riichicore/internal/transport"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "riichicore game server",
	Long:  "riichicore game server: lobby HTTP, websocket transport, and the round engine",
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.Load(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
			os.Exit(1)
		}
		cfg := config.Get()
		logging.Init(cfg.ID, cfg.Log.Level)

		if err := run(cfg); err != nil {
			logging.Fatal("server exited: %v", err)
		}
	},
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "configFile", "", "path to the server's config file")
	rootCmd.MarkFlagRequired("configFile")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logging.Info("starting node %s, listening on %s", cfg.ID, cfg.ListenAddr)

	var store replay.GameHistoryStore
	if cfg.Database.Mongo.URI != "" {
		mongoMgr, err := replay.DialMongo(cfg.Database.Mongo.URI, cfg.Database.Mongo.Database,
			cfg.Database.Mongo.Username, cfg.Database.Mongo.Password,
			cfg.Database.Mongo.MinPoolSize, cfg.Database.Mongo.MaxPoolSize)
		if err != nil {
			return fmt.Errorf("mongo dial: %w", err)
		}
		defer mongoMgr.Close()
		store = replay.NewMongoStore(mongoMgr)
	}

	var redisMgr *cache.RedisManager
	if len(cfg.Database.Redis.Addrs) > 0 || len(cfg.Database.Redis.ClusterAddrs) > 0 {
		redisMgr = cache.NewRedisManager(cfg.Database.Redis.Addrs, cfg.Database.Redis.ClusterAddrs,
			cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	}

	standings, err := cache.NewStandingsCache(10_000)
	if err != nil {
		return fmt.Errorf("standings cache: %w", err)
	}

	transportMgr := transport.NewManager(cfg.Jwt.Secret, 10_000)
	transportMgr.Run()

	hbMonitor := heartbeat.NewMonitor(
		time.Duration(cfg.Heartbeat.IntervalSeconds)*time.Second,
		time.Duration(cfg.Heartbeat.IdleThresholdSeconds)*time.Second,
	)

	settings := session.Settings{
		TurnBank:            time.Duration(cfg.Timer.TurnBankSeconds) * time.Second,
		TurnIncrement:       time.Duration(cfg.Timer.TurnIncrementSeconds) * time.Second,
		MeldWindow:          time.Duration(cfg.Timer.MeldWindowSeconds) * time.Second,
		RoundAdvanceBonus:   time.Duration(cfg.Timer.RoundAdvanceBonusSeconds) * time.Second,
		JoinTimeout:         time.Duration(cfg.Session.JoinTimeoutSeconds) * time.Second,
		RoundAdvanceTimeout: time.Duration(cfg.Session.RoundAdvanceTimeoutSeconds) * time.Second,
		JwtSecret:           cfg.Jwt.Secret,
		JwtLifetime:         cfg.Jwt.TokenLifetime,
		RoundConfig: roundfsm.RoundConfig{
			MaxKans:                  cfg.Rules.MaxKans,
			TripleRonAbortThreshold:  cfg.Rules.TripleRonAbortThreshold,
			FourKansAbortMinPlayers:  cfg.Rules.FourKansAbortMinPlayers,
			MinRiichiPoints:          cfg.Rules.MinRiichiPoints,
			UseRedFives:              cfg.Rules.UseRedFives,
			KanDoraImmediateOnClosed: cfg.Rules.KanDoraImmediateOnClosed,
		},
		MaxGames: 0,
	}

	manager := session.NewManager(transportMgr, hbMonitor, store, redisMgr, standings, settings)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go manager.RunHeartbeat(ctx)

	statsCollector := stats.NewCollector(manager, 5*time.Second, 0)
	go statsCollector.Run(ctx)

	mux := http.NewServeMux()
	transportMgr.RegisterRoutes(mux)

	apiServer := httpapi.NewServer(manager)
	mux.Handle("/", apiServer.Handler())

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	go func() {
		logging.Info("statsviz/metrics available on :%d/debug/statsviz/", cfg.MetricPort)
		metricsMux := http.NewServeMux()
		if err := stats.RegisterHandlers(metricsMux, statsCollector); err != nil {
			logging.Warn("stats: metrics mount failed: %v", err)
		}
		if err := http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", cfg.MetricPort), metricsMux); err != nil && err != http.ErrServerClosed {
			logging.Error("metrics server failed: %v", err)
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		logging.Info("http server listening on %s", cfg.ListenAddr)
		serveErr <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case sig := <-sigCh:
		logging.Info("received signal %v, shutting down", sig)
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("http shutdown error: %v", err)
		}
	}
	return nil
}
