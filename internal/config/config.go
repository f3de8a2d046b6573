package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverFile     = "file"
	StorageDriverPostgres = "postgres"
	StorageDriverMySQL    = "mysql"
)

const (
	RetentionMerge = "merge"
	RetentionDay   = "day"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	LogLevel  string          `yaml:"log_level" env:"LOG_LEVEL"`
	HTTP      HTTPConfig      `yaml:"http"`
	Storage   StorageConfig   `yaml:"storage"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	Todo      TodoConfig      `yaml:"todo"`
	Assistant AssistantConfig `yaml:"assistant"`
	Reminders RemindersConfig `yaml:"reminders"`
	Auth      AuthConfig      `yaml:"auth"`
	JWT       JWTConfig       `yaml:"jwt"`
}

type HTTPConfig struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"127.0.0.1"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type StorageConfig struct {
	Driver   string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"file"`
	FilePath string `yaml:"file_path" env:"STORAGE_FILE_PATH" env-default:"data/storage.json"`
}

type PostgresConfig struct {
	Host           string        `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port           int           `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `yaml:"username" env:"POSTGRES_USERNAME"`
	Password       string        `yaml:"password" env:"POSTGRES_PASSWORD"`
	Database       string        `yaml:"database" env:"POSTGRES_DATABASE"`
	SSLMode        string        `yaml:"ssl_mode" env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `yaml:"ping_timeout" env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
}

type MySQLConfig struct {
	DSN         string        `yaml:"dsn" env:"MYSQL_DSN"`
	PingTimeout time.Duration `yaml:"ping_timeout" env:"MYSQL_PING_TIMEOUT" env-default:"10s"`
}

type TodoConfig struct {
	StorageKey      string `yaml:"storage_key" env:"TODO_STORAGE_KEY" env-default:"dailyTodos"`
	Retention       string `yaml:"retention" env:"TODO_RETENTION" env-default:"merge"`
	DateLayout      string `yaml:"date_layout" env:"TODO_DATE_LAYOUT" env-default:"Mon Jan 02 2006"`
	DefaultPriority string `yaml:"default_priority" env:"TODO_DEFAULT_PRIORITY" env-default:"Medium"`
}

type AssistantConfig struct {
	BaseURL        string        `yaml:"base_url" env:"ASSISTANT_BASE_URL" env-default:"http://127.0.0.1:11434"`
	Binary         string        `yaml:"binary" env:"ASSISTANT_BINARY" env-default:"ollama"`
	PreferredModel string        `yaml:"preferred_model" env:"ASSISTANT_PREFERRED_MODEL"`
	PollInterval   time.Duration `yaml:"poll_interval" env:"ASSISTANT_POLL_INTERVAL" env-default:"30s"`
	Timeout        time.Duration `yaml:"timeout" env:"ASSISTANT_TIMEOUT" env-default:"3s"`
}

type RemindersConfig struct {
	StorageKey    string        `yaml:"storage_key" env:"REMINDERS_STORAGE_KEY" env-default:"dailyReminders"`
	CheckInterval time.Duration `yaml:"check_interval" env:"REMINDERS_CHECK_INTERVAL" env-default:"30s"`
}

type AuthConfig struct {
	Enabled      bool   `yaml:"enabled" env:"AUTH_ENABLED" env-default:"false"`
	PasswordHash string `yaml:"password_hash" env:"AUTH_PASSWORD_HASH"`
}

type JWTConfig struct {
	Issuer         string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"daily-todo"`
	SigningKey     string        `yaml:"signing_key" env:"JWT_SIGNING_KEY"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"JWT_ACCESS_TOKEN_TTL" env-default:"24h"`
}
