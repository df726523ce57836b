package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig is the process level configuration read from the environment.
type AppConfig struct {
	ListenAddr string
	Port       string
	ConfigPath string
	GinMode    string
	LogLevel   string
	LogFormat  string
}

// Load reads the process configuration from the environment, after merging
// an optional .env file, and fills defaults for anything missing.
func Load() AppConfig {
	_ = godotenv.Load()

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	configPath := strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	if configPath == "" {
		configPath = "config.yml"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	logLevel := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if logFormat == "" {
		logFormat = "json"
	}

	return AppConfig{
		ListenAddr: listenAddr,
		Port:       port,
		ConfigPath: configPath,
		GinMode:    ginMode,
		LogLevel:   logLevel,
		LogFormat:  logFormat,
	}
}
