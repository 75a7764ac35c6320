package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Network   NetworkConfig   `mapstructure:"network"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Polling   PollingConfig   `mapstructure:"polling"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Mailbox   MailboxConfig   `mapstructure:"mailbox"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// NetworkConfig holds explorer API and ledger configuration
type NetworkConfig struct {
	Name           string        `mapstructure:"name"`
	Endpoint       string        `mapstructure:"endpoint"`
	ChainID        string        `mapstructure:"chain_id"`
	ProgramID      string        `mapstructure:"program_id"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// WalletConfig holds wallet bridge configuration
type WalletConfig struct {
	BridgeURL         string        `mapstructure:"bridge_url"`
	InstallURL        string        `mapstructure:"install_url"`
	DecryptPermission string        `mapstructure:"decrypt_permission"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

// PollingConfig controls transaction confirmation polling
type PollingConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Interval    time.Duration `mapstructure:"interval"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`

	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SlowQuery       time.Duration `mapstructure:"slow_query"`
}

// MailboxConfig holds configuration for fetching income emails directly
type MailboxConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	UseIMAP      bool   `mapstructure:"use_imap"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	UserEmail    string `mapstructure:"user_email"`
	IMAPHost     string `mapstructure:"imap_host"`
	IMAPPort     int    `mapstructure:"imap_port"`
	IMAPUser     string `mapstructure:"imap_user"`
	IMAPPassword string `mapstructure:"imap_password"`
}

// SchedulerConfig holds chain refresh scheduler configuration
type SchedulerConfig struct {
	IntervalMinutes int `mapstructure:"interval_minutes"`
}

var explorerEndpoints = map[string]string{
	"mainnet": "https://api.explorer.provable.com/v1",
	"testnet": "https://api.explorer.provable.com/v1/testnet",
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")

	v.SetDefault("log.level", "info")

	v.SetDefault("network.name", "testnet")
	v.SetDefault("network.chain_id", "testnetbeta")
	v.SetDefault("network.program_id", "aurav2zkp.aleo")
	v.SetDefault("network.request_timeout", "15s")

	v.SetDefault("wallet.install_url", "https://www.leo.app/")
	v.SetDefault("wallet.decrypt_permission", "OnChainHistory")
	v.SetDefault("wallet.request_timeout", "120s")

	v.SetDefault("polling.max_attempts", 30)
	v.SetDefault("polling.interval", "2s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.slow_query", "500ms")

	v.SetDefault("mailbox.enabled", false)
	v.SetDefault("mailbox.use_imap", false)
	v.SetDefault("mailbox.imap_host", "imap.gmail.com")
	v.SetDefault("mailbox.imap_port", 993)

	v.SetDefault("scheduler.interval_minutes", 5)
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	v.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	v.BindEnv("log.level", "LOG_LEVEL")

	// Network
	v.BindEnv("network.name", "ALEO_NETWORK")
	v.BindEnv("network.endpoint", "ALEO_ENDPOINT")
	v.BindEnv("network.chain_id", "ALEO_CHAIN_ID")
	v.BindEnv("network.program_id", "AURA_PROGRAM_ID")
	v.BindEnv("network.request_timeout", "ALEO_REQUEST_TIMEOUT")

	// Wallet
	v.BindEnv("wallet.bridge_url", "WALLET_BRIDGE_URL")
	v.BindEnv("wallet.install_url", "WALLET_INSTALL_URL")
	v.BindEnv("wallet.decrypt_permission", "WALLET_DECRYPT_PERMISSION")
	v.BindEnv("wallet.request_timeout", "WALLET_REQUEST_TIMEOUT")

	// Polling
	v.BindEnv("polling.max_attempts", "POLL_MAX_ATTEMPTS")
	v.BindEnv("polling.interval", "POLL_INTERVAL")

	// Database
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")

	// Mailbox
	v.BindEnv("mailbox.enabled", "MAILBOX_ENABLED")
	v.BindEnv("mailbox.use_imap", "MAILBOX_USE_IMAP")
	v.BindEnv("mailbox.client_id", "GMAIL_CLIENT_ID")
	v.BindEnv("mailbox.client_secret", "GMAIL_CLIENT_SECRET")
	v.BindEnv("mailbox.refresh_token", "GMAIL_REFRESH_TOKEN")
	v.BindEnv("mailbox.user_email", "GMAIL_USER_EMAIL")
	v.BindEnv("mailbox.imap_host", "MAILBOX_IMAP_HOST")
	v.BindEnv("mailbox.imap_port", "MAILBOX_IMAP_PORT")
	v.BindEnv("mailbox.imap_user", "MAILBOX_IMAP_USER")
	v.BindEnv("mailbox.imap_password", "MAILBOX_IMAP_PASSWORD")

	// Scheduler
	v.BindEnv("scheduler.interval_minutes", "SCHEDULER_INTERVAL_MINUTES")
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// ExplorerEndpoint returns the REST base URL for the configured network.
// An explicit endpoint always wins; unknown names fall back to testnet.
func (c *NetworkConfig) ExplorerEndpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	if ep, ok := explorerEndpoints[c.Name]; ok {
		return ep
	}
	return explorerEndpoints["testnet"]
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Network.ProgramID == "" || c.Network.ChainID == "" {
		return fmt.Errorf("network program_id and chain_id are required")
	}

	if c.Polling.MaxAttempts <= 0 {
		return fmt.Errorf("polling max_attempts must be greater than 0")
	}
	if c.Polling.Interval <= 0 {
		return fmt.Errorf("polling interval must be greater than 0")
	}

	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return fmt.Errorf("database host, user, and dbname are required")
	}

	if c.Mailbox.Enabled {
		if !c.Mailbox.UseIMAP {
			if c.Mailbox.ClientID == "" || c.Mailbox.ClientSecret == "" || c.Mailbox.RefreshToken == "" {
				return fmt.Errorf("Gmail OAuth2 credentials are required when not using IMAP")
			}
		} else if c.Mailbox.IMAPUser == "" || c.Mailbox.IMAPPassword == "" {
			return fmt.Errorf("IMAP credentials are required when using IMAP")
		}
	}

	if c.Scheduler.IntervalMinutes <= 0 {
		return fmt.Errorf("scheduler interval must be greater than 0")
	}

	return nil
}
