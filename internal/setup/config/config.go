package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// CurrentVersion is the expected version of the config file.
const CurrentVersion = 1

// Config represents the entire application configuration.
type Config struct {
	// Version of the config file.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	Discord    Discord    `koanf:"discord"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Bot        Bot        `koanf:"bot"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
}

// Discord contains Discord connection configuration.
type Discord struct {
	// Bot token.
	Token string `koanf:"token"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"db_name"`
	// Maximum number of open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum number of idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle connection timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Bot contains the ticket and vouch system configuration.
type Bot struct {
	// Name of the channel category ticket channels are created under.
	TicketCategoryName string `koanf:"ticket_category_name"`
	// Name of the role marking recognized sellers.
	TrustRoleName string `koanf:"trust_role_name"`
	// Name of the channel action log lines are posted to (best-effort).
	AuditLogChannelName string `koanf:"audit_log_channel_name"`
	// Substring a vouch message must contain, matched case-insensitively.
	RequiredTrustMarker string `koanf:"required_trust_marker"`
}

// LoadConfig loads the config file and returns the config struct
// along with the path of the config directory that was used.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// List search paths
	configPaths := []string{
		".vouchguard",
		homeDir + "/.vouchguard/config",
		"/etc/vouchguard/config",
		"/app/config",
		"config",
		".",
	}

	// Load the first bot.toml found
	var usedConfigPath string

	for _, path := range configPaths {
		configPath := fmt.Sprintf("%s/bot.toml", path)
		if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
			usedConfigPath = path
			break
		}
	}

	if usedConfigPath == "" {
		return nil, "", fmt.Errorf("%w: bot.toml", ErrConfigFileNotFound)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Check the config file version
	if config.Version == 0 {
		return nil, "", fmt.Errorf("%w: bot.toml", ErrConfigVersionMissing)
	}

	if config.Version != CurrentVersion {
		return nil, "", fmt.Errorf(
			"%w: bot.toml (got: %d, expected: %d)",
			ErrConfigVersionMismatch, config.Version, CurrentVersion,
		)
	}

	return &config, usedConfigPath, nil
}
