package config

import (
	"flag"
	"os"
	"sync"
	"time"
)

const (
	defaultServerAddress   = ":8080"
	defaultDatabaseDSN     = ""
	defaultLogLevel        = "debug"
	defaultRefundOnRevert  = true
	defaultNotifyInterval  = 5 * time.Second
	defaultWatchInterval   = 2 * time.Second
	defaultAuthTokenKeyHex = "f53ac685bbceebd75043e6be2e06ee07"
)

type Config struct {
	ServerAddr      string
	DatabaseDSN     string
	LogLevel        string
	AuthTokenKeyHex string
	RefundOnRevert  bool
	NotifyInterval  time.Duration
	WatchInterval   time.Duration
}

var (
	once      sync.Once
	singleton *Config
)

// New returns new Config. It parses command line and environment variables only once.
func New() (*Config, error) {
	once.Do(func() {
		cfg := Config{}

		// initialize flags
		flag.StringVar(&cfg.ServerAddr, "a", defaultServerAddress, "back-office server address")
		flag.StringVar(&cfg.DatabaseDSN, "d", defaultDatabaseDSN, "back-office database DSN")
		flag.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")
		flag.StringVar(&cfg.AuthTokenKeyHex, "k", defaultAuthTokenKeyHex, "auth token signing key, hex")
		flag.BoolVar(&cfg.RefundOnRevert, "refund-on-revert", defaultRefundOnRevert, "credit the wallet back when a withdrawal is reverted")
		flag.DurationVar(&cfg.NotifyInterval, "notify-interval", defaultNotifyInterval, "notification dispatch interval")
		flag.DurationVar(&cfg.WatchInterval, "watch-interval", defaultWatchInterval, "live query poll interval")

		flag.Parse()

		// if environment variable is set, then using it
		if runAddrEnv := os.Getenv("RUN_ADDRESS"); runAddrEnv != "" {
			cfg.ServerAddr = runAddrEnv
		}
		if dataBaseURIEnv := os.Getenv("DATABASE_URI"); dataBaseURIEnv != "" {
			cfg.DatabaseDSN = dataBaseURIEnv
		}
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			cfg.LogLevel = logLevelEnv
		}
		if tokenKeyEnv := os.Getenv("AUTH_TOKEN_KEY"); tokenKeyEnv != "" {
			cfg.AuthTokenKeyHex = tokenKeyEnv
		}

		singleton = &cfg
	})

	return singleton, nil
}
