package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"careerhub-backend/errors"
)

// Config is the full service configuration. Every key can be set from the
// environment (db.host -> DB_HOST) or from careerhub.yaml.
type Config struct {
	Port     string         `mapstructure:"port"`
	BaseURL  string         `mapstructure:"base_url"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Session  SessionConfig  `mapstructure:"session"`
	CORS     CORSConfig     `mapstructure:"cors"`
	AI       AIConfig       `mapstructure:"ai"`
	S3       S3Config       `mapstructure:"s3"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Notion   NotionConfig   `mapstructure:"notion"`
	Google   OAuthConfig    `mapstructure:"google"`
	LinkedIn OAuthConfig    `mapstructure:"linkedin"`
	Function FunctionConfig `mapstructure:"functions"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Security SecurityConfig `mapstructure:"security"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}

type DBConfig struct {
	Driver   string `mapstructure:"driver"` // postgres or sqlite
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
}

type SessionConfig struct {
	Secret string `mapstructure:"secret"`
	Secure bool   `mapstructure:"secure"`
}

type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
	Debug   bool     `mapstructure:"debug"`
}

type AIConfig struct {
	Provider string `mapstructure:"provider"` // gemini, chat, or empty
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Endpoint string `mapstructure:"endpoint"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type RabbitMQConfig struct {
	URL string `mapstructure:"url"`
}

type NotionConfig struct {
	Token      string `mapstructure:"token"`
	DatabaseID string `mapstructure:"database_id"`
}

type OAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// Enabled reports whether the provider has credentials.
func (o OAuthConfig) Enabled() bool {
	return o.ClientID != "" && o.ClientSecret != ""
}

type FunctionConfig struct {
	Rate    float64       `mapstructure:"rate"`
	Burst   int           `mapstructure:"burst"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type MonitorConfig struct {
	Targets []string      `mapstructure:"targets"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SecurityConfig controls the page self-check. Private and loopback targets
// are refused unless AllowPrivate is set.
type SecurityConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	AllowPrivate bool          `mapstructure:"allow_private"`
}

type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// SetDefaults registers the default value of every key. Keys need a default
// to be picked up by AutomaticEnv during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("base_url", "http://localhost:8080")

	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "info")

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "careerhub")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", 24*time.Hour)

	v.SetDefault("session.secret", "")
	v.SetDefault("session.secure", true)

	v.SetDefault("cors.origins", []string{"*"})
	v.SetDefault("cors.debug", false)

	v.SetDefault("ai.provider", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.endpoint", "")

	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "auto")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")

	v.SetDefault("rabbitmq.url", "")

	v.SetDefault("notion.token", "")
	v.SetDefault("notion.database_id", "")

	for _, p := range []string{"google", "linkedin"} {
		v.SetDefault(p+".client_id", "")
		v.SetDefault(p+".client_secret", "")
		v.SetDefault(p+".redirect_url", "")
	}

	v.SetDefault("functions.rate", 2.0)
	v.SetDefault("functions.burst", 5)
	v.SetDefault("functions.timeout", 60*time.Second)

	v.SetDefault("monitor.targets", []string{})
	v.SetDefault("monitor.timeout", 5*time.Second)

	v.SetDefault("security.timeout", 10*time.Second)
	v.SetDefault("security.allow_private", false)

	v.SetDefault("worker.concurrency", 3)
}

// NewViper returns a viper instance bound to the environment with defaults set.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads .env (if present), then careerhub.yaml from the working
// directory or configPath, then the environment.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := NewViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("careerhub")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	return FromViper(v)
}

// FromViper unmarshals and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return errors.Newf("unsupported db.driver %q (want postgres or sqlite)", c.DB.Driver)
	}
	switch c.AI.Provider {
	case "", "gemini", "chat":
	default:
		return errors.Newf("unsupported ai.provider %q (want gemini or chat)", c.AI.Provider)
	}
	if c.Worker.Concurrency < 1 {
		return errors.New("worker.concurrency must be at least 1")
	}
	if c.Function.Burst < 1 {
		return errors.New("functions.burst must be at least 1")
	}
	return nil
}

// Mask hides all but the edges of a secret for startup logs.
func Mask(s string) string {
	if len(s) <= 10 {
		return "****"
	}
	return s[:4] + "…" + s[len(s)-4:]
}
