// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the server configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	DBPath string       `mapstructure:"db_path"`
	AI     AIConfig     `mapstructure:"ai"`
	Parser ParserConfig `mapstructure:"parser"`
	Worker WorkerConfig `mapstructure:"worker"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Port        int  `mapstructure:"port"`
	RequireAuth bool `mapstructure:"require_auth"`
}

// AIConfig holds the evaluation/report model settings. The API key itself
// comes from the environment (OPENAI_API_KEY or GEMINI_API_KEY), never from
// the config file.
type AIConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
}

// ParserConfig holds care register parsing settings. Glyphs and absence
// statuses override the parser defaults for facilities whose registers use
// different marks.
type ParserConfig struct {
	Year            int      `mapstructure:"year"`
	CheckedGlyphs   []string `mapstructure:"checked_glyphs"`
	AbsenceStatuses []string `mapstructure:"absence_statuses"`
}

// WorkerConfig holds background job settings
type WorkerConfig struct {
	Count int `mapstructure:"count"`
}

// Load loads configuration from file and environment. A .env file next to
// the binary is loaded first so OPENAI_API_KEY / REDIS_ADDR style settings
// work without exporting them.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Load: no .env file loaded: %v", err)
	}

	viper.SetConfigType("yaml")
	viper.SetConfigName("config")

	// Set default values
	viper.SetDefault("server.port", 8081)
	viper.SetDefault("server.require_auth", false)
	viper.SetDefault("db_path", "carelog.db")
	viper.SetDefault("ai.provider", "openai")
	viper.SetDefault("ai.model", "gpt-4o-mini")
	viper.SetDefault("parser.year", 0)
	viper.SetDefault("worker.count", 3)

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir := filepath.Join(home, ".carelog")
		configFile := filepath.Join(configDir, "config.yaml")

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			if err := generateDefaultConfig(configFile); err != nil {
				return nil, fmt.Errorf("failed to generate default config: %w", err)
			}
		}
		viper.SetConfigFile(configFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Load: no config file found, using defaults")
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Allow environment variables (CARELOG_SERVER_PORT and friends)
	viper.SetEnvPrefix("CARELOG")
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Server.Port <= 0 {
		config.Server.Port = 8081
		log.Printf("Load: server port was empty, defaulting to %d", config.Server.Port)
	}
	if config.AI.Model == "" {
		config.AI.Model = "gpt-4o-mini"
	}
	if config.Worker.Count <= 0 {
		config.Worker.Count = 3
	}

	return &config, nil
}

// generateDefaultConfig creates a default configuration file
func generateDefaultConfig(configFile string) error {
	defaultConfig := `# CareLog server configuration

server:
  port: 8081
  require_auth: false  # require API keys on /api/v1 (generate one via /api/v1/keys/generate)

db_path: "carelog.db"  # SQLite database file

ai:
  provider: "openai"   # openai or gemini (API key from environment)
  model: "gpt-4o-mini"

parser:
  year: 0              # year for MM/DD dates in registers; 0 = current year
  # checked_glyphs: ["■", "Π", "V", "O", "☑"]
  # absence_statuses: ["미이용", "결석", "일정없음"]

worker:
  count: 3             # background evaluation workers
`

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return err
	}
	return os.WriteFile(configFile, []byte(defaultConfig), 0644)
}
