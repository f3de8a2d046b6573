package app

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/adanyl0v/daily-todo/internal/config"
)

// MustReadConfig reads the YAML file named by CONFIG_PATH when it is set
// and falls back to the environment otherwise.
func MustReadConfig() {
	var reader config.Reader = config.NewEnvReader()
	path := os.Getenv("CONFIG_PATH")
	if path != "" {
		reader = config.NewFileReader(path)
	}

	cfg, err := reader.Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("config_path", path).
			Msg("failed to read config")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Str("storage", cfg.Storage.Driver).
		Msg("read config")

	config.SetGlobal(cfg)
}
