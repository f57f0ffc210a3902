package global

import (
	"errors"
	"fmt"
	"time"
)

type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	Production  Environment = "production"
)

func ParseEnvironment(s string) Environment {
	switch Environment(s) {
	case Production:
		return Production
	case Test:
		return Test
	default:
		return Development
	}
}

// DefaultCacheTTL is how long promotions and categories stay fresh in each environment.
func (e Environment) DefaultCacheTTL() time.Duration {
	if e == Production {
		return 15 * time.Minute
	}
	return 5 * time.Minute
}

func (e Environment) DefaultAPIURL() string {
	if e == Production {
		return ""
	}
	return "http://localhost:5000/api"
}

// Config is assembled once at startup from the process environment (after .env is loaded).
type Config struct {
	Environment Environment
	Port        string

	APIURL       string
	CacheTTL     time.Duration
	TaxRate      float64
	QueryRetries int
	GatewayRPS   float64
	GatewayBurst int

	SessionStore   string
	SessionTTL     time.Duration
	SessionIdle    time.Duration
	CookieSecure   bool
	AllowedOrigins []string

	RedisAddress  string
	RedisPassword string
	MongoURI      string
	MongoDatabase string
}

func LoadConfig() (*Config, error) {
	env := ParseEnvironment(GetEnvOrDefault("ENV", string(Development)))

	cfg := &Config{
		Environment:  env,
		Port:         GetEnvOrDefault("PORT", "8000"),
		APIURL:       GetEnvOrDefault("API_URL", env.DefaultAPIURL()),
		CacheTTL:     GetEnvDuration("CACHE_TTL", env.DefaultCacheTTL()),
		TaxRate:      GetEnvFloat("TAX_RATE", 0.18),
		QueryRetries: GetEnvInt("QUERY_RETRIES", 3),
		GatewayRPS:   GetEnvFloat("GATEWAY_RPS", 0),
		GatewayBurst: GetEnvInt("GATEWAY_BURST", 10),

		SessionStore: GetEnvOrDefault("SESSION_STORE", "memory"),
		SessionTTL:   GetEnvDuration("SESSION_TTL", 30*24*time.Hour),
		SessionIdle:  GetEnvDuration("SESSION_IDLE", 30*time.Minute),
		CookieSecure: GetEnvBool("COOKIE_SECURE", env == Production),
		AllowedOrigins: GetEnvList("ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RedisAddress:  GetEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: GetEnvOrDefault("REDIS_PASSWORD", ""),
		MongoURI:      GetEnvOrDefault("MONGODB_URI", ""),
		MongoDatabase: GetEnvOrDefault("MONGODB_DATABASE", "storefront"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("API_URL is not set in environment variables")
	}
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		return fmt.Errorf("TAX_RATE must be in [0, 1), got %v", c.TaxRate)
	}
	if len(c.AllowedOrigins) == 0 {
		return errors.New("ALLOWED_ORIGINS must list at least one origin")
	}
	if c.QueryRetries < 1 {
		c.QueryRetries = 1
	}
	switch c.SessionStore {
	case "memory", "redis":
	case "mongo":
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI is not set in environment variables")
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == Production
}
