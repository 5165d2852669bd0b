// Package config loads the server's viper-backed configuration, the
// way the teacher's common/config package loads per-node-type config
// structs: a base of identity/log/database settings plus this game's
// own tunables (spec §4.3/§4.4/§4.5 timing constants).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// MongoConf is the Mongo connection block (spec §4.6 "Replay Collector").
type MongoConf struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MinPoolSize uint64 `mapstructure:"minPoolSize"`
	MaxPoolSize uint64 `mapstructure:"maxPoolSize"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
}

// RedisConf is the Redis connection block (spec §4.4 "Session Manager"
// cross-node route cache).
type RedisConf struct {
	Addrs        []string `mapstructure:"addrs"`
	ClusterAddrs []string `mapstructure:"clusterAddrs"`
	Password     string   `mapstructure:"password"`
	DB           int      `mapstructure:"db"`
}

// DatabaseConf groups the two storage backends under one config key.
type DatabaseConf struct {
	Mongo MongoConf `mapstructure:"mongo"`
	Redis RedisConf `mapstructure:"redis"`
}

// JwtConf is the HS256 signing secret and token lifetime (spec §4.4
// "Reconnection").
type JwtConf struct {
	Secret       string        `mapstructure:"secret"`
	TokenLifetime time.Duration `mapstructure:"tokenLifetime"`
}

// LogConf selects the logging verbosity (spec's ambient logging stack).
type LogConf struct {
	Level string `mapstructure:"level"`
}

// TimerConf holds the timer bank/increment/bonus constants spec §4.5
// names explicitly.
type TimerConf struct {
	TurnBankSeconds         int `mapstructure:"turnBankSeconds"`
	TurnIncrementSeconds    int `mapstructure:"turnIncrementSeconds"`
	MeldWindowSeconds       int `mapstructure:"meldWindowSeconds"`
	RoundAdvanceBonusSeconds int `mapstructure:"roundAdvanceBonusSeconds"`
}

// HeartbeatConf holds spec §4.7's ping cadence and idle threshold.
type HeartbeatConf struct {
	IntervalSeconds     int `mapstructure:"intervalSeconds"`
	IdleThresholdSeconds int `mapstructure:"idleThresholdSeconds"`
}

// SessionConf holds spec §4.4's join/round-advance timeouts.
type SessionConf struct {
	JoinTimeoutSeconds         int `mapstructure:"joinTimeoutSeconds"`
	RoundAdvanceTimeoutSeconds int `mapstructure:"roundAdvanceTimeoutSeconds"`
}

// RulesConf holds the round-rule constants internal/roundfsm consumes
// via RoundConfig (spec §9 Open Questions already decided in DESIGN.md).
type RulesConf struct {
	MaxKans                 int  `mapstructure:"maxKans"`
	TripleRonAbortThreshold  int  `mapstructure:"tripleRonAbortThreshold"`
	FourKansAbortMinPlayers  int  `mapstructure:"fourKansAbortMinPlayers"`
	MinRiichiPoints          int  `mapstructure:"minRiichiPoints"`
	UseRedFives              bool `mapstructure:"useRedFives"`
	KanDoraImmediateOnClosed bool `mapstructure:"kanDoraImmediateOnClosed"`
}

// Config is the whole process's configuration tree, the way the
// teacher's AConfig-embedding per-node-type structs are, flattened
// into one struct since this module runs a single node type.
type Config struct {
	ID         string       `mapstructure:"id"`
	MetricPort int          `mapstructure:"metricPort"`
	ListenAddr string       `mapstructure:"listenAddr"`
	Database   DatabaseConf `mapstructure:"database"`
	Jwt        JwtConf      `mapstructure:"jwt"`
	Log        LogConf      `mapstructure:"log"`
	Timer      TimerConf    `mapstructure:"timer"`
	Heartbeat  HeartbeatConf `mapstructure:"heartbeat"`
	Session    SessionConf  `mapstructure:"session"`
	Rules      RulesConf    `mapstructure:"rules"`
}

var current *Config

// Load reads configFile (and any NODE_ID-style environment overrides)
// into the package-level Config, the way common/config.Load does,
// minus the ServerType switch since this module has one node type.
func Load(configFile string) error {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %s: %w", configFile, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.ID == "" {
		if id := os.Getenv("NODE_ID"); id != "" {
			cfg.ID = id
		} else {
			return fmt.Errorf("config: NODE_ID is required when id is unset")
		}
	}
	current = cfg

	v.OnConfigChange(func(e fsnotify.Event) {
		reloaded := &Config{}
		if err := v.Unmarshal(reloaded); err == nil {
			reloaded.ID = cfg.ID
			current = reloaded
		}
	})
	v.WatchConfig()
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("metricPort", 9100)
	v.SetDefault("listenAddr", "0.0.0.0:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.tokenLifetime", 24*time.Hour)
	v.SetDefault("timer.turnBankSeconds", 60)
	v.SetDefault("timer.turnIncrementSeconds", 20)
	v.SetDefault("timer.meldWindowSeconds", 7)
	v.SetDefault("timer.roundAdvanceBonusSeconds", 10)
	v.SetDefault("heartbeat.intervalSeconds", 15)
	v.SetDefault("heartbeat.idleThresholdSeconds", 45)
	v.SetDefault("session.joinTimeoutSeconds", 30)
	v.SetDefault("session.roundAdvanceTimeoutSeconds", 20)
	v.SetDefault("rules.maxKans", 4)
	v.SetDefault("rules.tripleRonAbortThreshold", 3)
	v.SetDefault("rules.fourKansAbortMinPlayers", 2)
	v.SetDefault("rules.minRiichiPoints", 1000)
	v.SetDefault("rules.useRedFives", true)
	v.SetDefault("rules.kanDoraImmediateOnClosed", true)
}

// Get returns the currently loaded config. Panics if Load has not run,
// mirroring the teacher's package-level-var-before-first-use contract.
func Get() *Config {
	if current == nil {
		panic("config: Load has not been called")
	}
	return current
}
