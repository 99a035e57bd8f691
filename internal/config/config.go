package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

type Config struct {
	Env             string   `env:"APP_ENV" envDefault:"development"`
	MongoURI        string   `env:"MONGO_URI" envDefault:"mongodb://localhost:27017/ladla"`
	MongoDB         string   `env:"MONGO_DB"`
	MongoWaitSec    int      `env:"MONGO_CONNECT_WAIT_SEC" envDefault:"30"`
	ServerAddr      string   `env:"SERVER_ADDR" envDefault:":8080"`
	FrontendOrigins []string `env:"FRONTEND_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	RateLimitReservations int `env:"RATE_LIMIT_RESERVATIONS" envDefault:"10"`
	RateLimitContact      int `env:"RATE_LIMIT_CONTACT" envDefault:"5"`
	RateLimitWindowSec    int `env:"RATE_LIMIT_WINDOW_SEC" envDefault:"60"`

	RedisURL        string `env:"REDIS_URL"`
	RedisAddr       string `env:"REDIS_ADDR"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	CacheTTLSeconds int    `env:"CACHE_TTL_SECONDS" envDefault:"60"`

	AdminAPIKey       string `env:"ADMIN_API_KEY"`
	AdminUser         string `env:"ADMIN_USER" envDefault:"admin"`
	AdminPassword     string `env:"ADMIN_PASSWORD"`
	JWTSecret         string `env:"JWT_SECRET"`
	AccessTTLMinutes  int    `env:"ACCESS_TTL_MINUTES" envDefault:"60"`
	RefreshTTLMinutes int    `env:"REFRESH_TTL_MINUTES" envDefault:"43200"`
	CookieSecure      bool   `env:"COOKIE_SECURE" envDefault:"false"`

	TimezoneName string `env:"TZ" envDefault:"Europe/Paris"`

	BrevoAPIKey      string `env:"BREVO_API_KEY"`
	BrevoSenderEmail string `env:"BREVO_SENDER_EMAIL"`
	BrevoSenderName  string `env:"BREVO_SENDER_NAME" envDefault:"LADLA Detailing"`
	BrevoSandbox     bool   `env:"BREVO_SANDBOX" envDefault:"false"`
	AdminNotifyEmail string `env:"ADMIN_NOTIFY_EMAIL"`

	PremiumWashFallbackPrice float64 `env:"PREMIUM_WASH_FALLBACK_PRICE" envDefault:"120"`
	OzoneDefaultPrice        float64 `env:"OZONE_DEFAULT_PRICE" envDefault:"30"`
	CalendarRefreshSeconds   int     `env:"CALENDAR_REFRESH_SECONDS" envDefault:"30"`

	location *time.Location
}

func Load() (*Config, error) {
	// .env is optional outside development.
	_ = godotenv.Load(".env")
	return parse()
}

func parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	loc, err := time.LoadLocation(cfg.TimezoneName)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.TimezoneName, err)
	}
	cfg.location = loc

	if cfg.MongoDB == "" {
		cfg.MongoDB = mongoDBFromURI(cfg.MongoURI)
	}
	if cfg.MongoDB == "" {
		cfg.MongoDB = "ladla"
	}

	origins := make([]string, 0, len(cfg.FrontendOrigins))
	for _, o := range cfg.FrontendOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.FrontendOrigins = origins

	if cfg.PremiumWashFallbackPrice < 0 {
		return nil, fmt.Errorf("invalid premium wash fallback price: %.2f", cfg.PremiumWashFallbackPrice)
	}
	if cfg.CalendarRefreshSeconds <= 0 {
		cfg.CalendarRefreshSeconds = 30
	}

	return cfg, nil
}

// Location is the business timezone used for reservation dates.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c *Config) MongoWait() time.Duration {
	return time.Duration(c.MongoWaitSec) * time.Second
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSec) * time.Second
}

func mongoDBFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	db := strings.Trim(u.Path, "/")
	if db == "" {
		return ""
	}
	// mongodb URIs sometimes include extra path segments; we only support the first one as db name.
	if idx := strings.Index(db, "/"); idx >= 0 {
		db = db[:idx]
	}
	return db
}
