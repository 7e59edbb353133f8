package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // business timezone on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds the application-wide configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"db"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Log          LogConfig          `mapstructure:"log"`
	Substitution SubstitutionConfig `mapstructure:"substitution"`
	Notify       NotifyConfig       `mapstructure:"notify"`
	Sweep        SweepConfig        `mapstructure:"sweep"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig cross-origin settings
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN builds the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig cache settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT verification settings. Tokens are issued by the main application.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"` // tokens minted by `plantao token`
}

// LogConfig logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SubstitutionConfig workflow policy knobs
type SubstitutionConfig struct {
	ExpiryImmediate    time.Duration `mapstructure:"expiry_immediate"`
	ExpirySpecificDate time.Duration `mapstructure:"expiry_specific_date"`
	ExpiryDateRange    time.Duration `mapstructure:"expiry_date_range"`
	ExpiryDefault      time.Duration `mapstructure:"expiry_default"`
	CodeTTL            time.Duration `mapstructure:"code_ttl"`
	CodeHashCost       int           `mapstructure:"code_hash_cost"`
	MaxCodeAttempts    int           `mapstructure:"max_code_attempts"` // wrong codes before the code is void
	DeepLinkBaseURL    string        `mapstructure:"deep_link_base_url"`
	Timezone           string        `mapstructure:"timezone"`
	DailyToggleLimit   int           `mapstructure:"daily_toggle_limit"`
	LockoutThreshold   int           `mapstructure:"lockout_threshold"`
	LockoutBase        time.Duration `mapstructure:"lockout_base"`
	LockoutMax         time.Duration `mapstructure:"lockout_max"`
	SupportContact     string        `mapstructure:"support_contact"`
	ConfirmRateLimit   int           `mapstructure:"confirm_rate_limit"`
	ConfirmRateWindow  time.Duration `mapstructure:"confirm_rate_window"`
}

// Location resolves the configured business timezone.
func (c *SubstitutionConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// NotifyConfig outbox dispatcher and WhatsApp sink settings
type NotifyConfig struct {
	Sink          string        `mapstructure:"sink"` // whatsapp | log
	WhatsAppURL   string        `mapstructure:"whatsapp_url"`
	WhatsAppToken string        `mapstructure:"whatsapp_token"`
	WebhookSecret string        `mapstructure:"webhook_secret"` // shared secret of the inbound reply webhook
	Timeout       time.Duration `mapstructure:"timeout"`
	Interval      time.Duration `mapstructure:"interval"`
	BatchSize     int           `mapstructure:"batch_size"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	PurgeSchedule string        `mapstructure:"purge_schedule"` // cron spec, empty disables
	Retention     time.Duration `mapstructure:"retention"`
}

// SweepConfig expiry sweep settings
type SweepConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Load reads configuration from file and environment.
// Precedence: environment > config file > defaults. A .env file is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// ── defaults ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "plantao")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "America/Sao_Paulo")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.issuer", "plantao")
	v.SetDefault("auth.token_ttl", "1h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("substitution.expiry_immediate", "48h")
	v.SetDefault("substitution.expiry_specific_date", "168h")
	v.SetDefault("substitution.expiry_date_range", "336h")
	v.SetDefault("substitution.expiry_default", "168h")
	v.SetDefault("substitution.code_ttl", "24h")
	v.SetDefault("substitution.code_hash_cost", 10)
	v.SetDefault("substitution.max_code_attempts", 5)
	v.SetDefault("substitution.deep_link_base_url", "https://app.plantao.com.br")
	v.SetDefault("substitution.timezone", "America/Sao_Paulo")
	v.SetDefault("substitution.daily_toggle_limit", 2)
	v.SetDefault("substitution.lockout_threshold", 3)
	v.SetDefault("substitution.lockout_base", "24h")
	v.SetDefault("substitution.lockout_max", "168h")
	v.SetDefault("substitution.support_contact", "suporte@plantao.com.br")
	v.SetDefault("substitution.confirm_rate_limit", 10)
	v.SetDefault("substitution.confirm_rate_window", "1m")

	v.SetDefault("notify.sink", "log")
	v.SetDefault("notify.timeout", "10s")
	v.SetDefault("notify.interval", "5s")
	v.SetDefault("notify.batch_size", 50)
	v.SetDefault("notify.max_attempts", 5)
	v.SetDefault("notify.purge_schedule", "30 3 * * *")
	v.SetDefault("notify.retention", "720h")

	v.SetDefault("sweep.interval", "5m")

	// ── config file ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── environment ──
	v.SetEnvPrefix("PLANTAO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("falha ao ler arquivo de configuração: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("falha ao interpretar configuração: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings the service cannot run without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("configuração inválida: auth.jwt_secret não pode ser vazio")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("configuração inválida: auth.jwt_secret deve ter ao menos 16 caracteres")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("configuração inválida: server.port deve estar entre 1 e 65535")
	}
	if c.Substitution.DailyToggleLimit <= 0 {
		return fmt.Errorf("configuração inválida: substitution.daily_toggle_limit deve ser positivo")
	}
	if c.Substitution.LockoutThreshold <= 0 {
		return fmt.Errorf("configuração inválida: substitution.lockout_threshold deve ser positivo")
	}
	if c.Substitution.MaxCodeAttempts <= 0 {
		return fmt.Errorf("configuração inválida: substitution.max_code_attempts deve ser positivo")
	}
	if _, err := c.Substitution.Location(); err != nil {
		return fmt.Errorf("configuração inválida: substitution.timezone: %w", err)
	}
	if c.Notify.Sink == "whatsapp" && c.Notify.WhatsAppURL == "" {
		return fmt.Errorf("configuração inválida: notify.whatsapp_url é obrigatório para o canal whatsapp")
	}
	if c.Notify.PurgeSchedule != "" {
		if _, err := cron.ParseStandard(c.Notify.PurgeSchedule); err != nil {
			return fmt.Errorf("configuração inválida: notify.purge_schedule: %w", err)
		}
	}
	return nil
}
