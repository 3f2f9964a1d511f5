package config

import (
	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(func() (Config, error) {
		// Missing .env is fine; containers set the environment directly.
		_ = godotenv.Load()
		return Load()
	}),
)
