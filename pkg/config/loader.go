package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu     sync.RWMutex
	loaded = make(map[string]any)

	defaultEnvLoaded sync.Once
)

// Load populates the configuration struct from environment variables,
// reading the default .env file first if one exists. Each configuration
// type is parsed once per process; later calls are served from cache.
//
// Example:
//
//	type SessionConfig struct {
//		Mode       string `env:"AUTH_MODE" envDefault:"local"`
//		APIBaseURL string `env:"API_BASE_URL"`
//	}
//
//	var cfg SessionConfig
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		// The .env file is optional.
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	name := typeName[T]()

	mu.RLock()
	cached, ok := loaded[name]
	mu.RUnlock()
	if ok {
		*v = cached.(T)
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	// Another goroutine may have parsed it while we waited for the lock.
	if cached, ok := loaded[name]; ok {
		*v = cached.(T)
		return nil
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	// Store a copy so callers cannot mutate the cached value.
	loaded[name] = *v
	return nil
}

// MustLoad works like Load but panics when loading fails. Intended for
// configuration the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// ResetCache clears all cached configurations. Intended for tests that
// mutate the process environment.
func ResetCache() {
	mu.Lock()
	loaded = make(map[string]any)
	mu.Unlock()
}

func typeName[T any]() string {
	var zero T
	if t := reflect.TypeOf(zero); t != nil {
		return t.String()
	}
	return fmt.Sprintf("%T", *new(T))
}
