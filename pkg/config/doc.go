// Package config loads application configuration from environment variables
// into tagged structs, with optional .env file support.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11. Each
// configuration type is parsed once per process lifetime and cached, so any
// package can call Load for its own config struct without coordination.
// Config structs live next to the packages they configure (session.Config,
// kvstore.RedisConfig, and so on).
//
// ResetCache exists for tests that change the environment between cases.
package config
