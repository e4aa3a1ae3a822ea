package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvBrokerage     = "LIVE_BROKERAGE"
	EnvServerClass   = "LIVE_SERVER_CLASS"
	EnvJobID         = "LIVE_JOB_ID"
	EnvStrategyHint  = "LIVE_STRATEGY_HINT"
	EnvWebsocketAuth = "LIVE_WS_TOKEN"
	EnvRunlogDSN     = "RUNLOG_POSTGRES_DSN"
)

// ApplyEnv loads a .env file when present and lets set variables override cfg.
func ApplyEnv(cfg *Config) {
	_ = godotenv.Load() // best-effort
	override(&cfg.Job.Brokerage, EnvBrokerage)
	override(&cfg.Job.ServerClass, EnvServerClass)
	override(&cfg.Job.ID, EnvJobID)
	override(&cfg.Strategy.Hint, EnvStrategyHint)
	override(&cfg.Brokerages.Websocket.Token, EnvWebsocketAuth)
	override(&cfg.Runlog.PostgresDSN, EnvRunlogDSN)
}

func override(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
