package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Version information, overridden at build time.
var (
	version = "dev"
	commit  = "none"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("postify version %s, commit %s", version, commit)
}

type Config struct {
	App        AppConfig
	Google     ProviderConfig
	LinkedIn   LinkedInConfig
	Generation GenerationConfig
	Cache      CacheConfig
	Logging    LoggingConfig
}

type AppConfig struct {
	Host         string `env:"APP_HOST" envDefault:"localhost"`
	Port         string `env:"APP_PORT" envDefault:"5000" validate:"numeric"`
	Env          string `env:"APP_ENV" envDefault:"prod" validate:"oneof=dev prod test"`
	PublicDomain string `env:"PUBLIC_DOMAIN" validate:"omitempty,url"`
	SecretKey    string `env:"SECRET_KEY,notEmpty"`
}

// BaseURL is the externally visible origin used to build OAuth callback URLs.
func (a AppConfig) BaseURL() string {
	if base := strings.TrimRight(a.PublicDomain, "/"); base != "" {
		return base
	}
	return "http://" + a.Host + ":" + a.Port
}

func (a AppConfig) IsDev() bool {
	return a.Env == "dev"
}

// InsecureCookieOrigin reports whether session cookies are marked Secure
// while the base URL is plain http on a host other than loopback. Browsers
// drop such cookies, so every login would silently fail.
func (a AppConfig) InsecureCookieOrigin() bool {
	if a.IsDev() {
		return false
	}
	u, err := url.Parse(a.BaseURL())
	if err != nil || u.Scheme != "http" {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return false
	}
	return true
}

type ProviderConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID,notEmpty"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET,notEmpty"`
}

type LinkedInConfig struct {
	ClientID     string        `env:"LINKEDIN_CLIENT_ID,notEmpty"`
	ClientSecret string        `env:"LINKEDIN_CLIENT_SECRET,notEmpty"`
	AuthorizeURL string        `env:"LINKEDIN_AUTHORIZE_URL" envDefault:"https://www.linkedin.com/oauth/v2/authorization" validate:"url"`
	TokenURL     string        `env:"LINKEDIN_TOKEN_URL" envDefault:"https://www.linkedin.com/oauth/v2/accessToken" validate:"url"`
	UserInfoURL  string        `env:"LINKEDIN_USERINFO_URL" envDefault:"https://api.linkedin.com/v2/userinfo" validate:"url"`
	HTTPTimeout  time.Duration `env:"OAUTH_HTTP_TIMEOUT" envDefault:"15s" validate:"gt=0"`
}

type GenerationConfig struct {
	APIKey        string        `env:"GROQ_API_KEY,notEmpty"`
	BaseURL       string        `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1/" validate:"url"`
	Model         string        `env:"GROQ_MODEL" envDefault:"llama3-70b-8192" validate:"required"`
	Timeout       time.Duration `env:"GENERATION_TIMEOUT" envDefault:"60s" validate:"gt=0"`
	SearchEnabled bool          `env:"GENERATION_SEARCH_ENABLED" envDefault:"true"`
	SearchURL     string        `env:"SEARCH_URL" envDefault:"https://api.duckduckgo.com/" validate:"url"`
	SearchTimeout time.Duration `env:"SEARCH_TIMEOUT" envDefault:"10s" validate:"gt=0"`
}

type CacheConfig struct {
	Host     string `env:"CACHE_HOST"`
	Port     int    `env:"CACHE_PORT" envDefault:"6379" validate:"gt=0,lt=65536"`
	Password string `env:"CACHE_PASSWORD"`
}

// Enabled reports whether a Redis-compatible cache server is configured.
func (c CacheConfig) Enabled() bool {
	return c.Host != ""
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Format string `env:"LOG_FORMAT" envDefault:"console" validate:"oneof=console json"`
}

// Error reports configuration that is missing or invalid. It is fatal at
// startup.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return "configuration error: " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom reads the configuration from the given variables only.
func LoadFrom(vars map[string]string) (*Config, error) {
	return load(env.Options{Environment: vars})
}

func load(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, &Error{Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return &Error{Err: err}
	}
	return nil
}
