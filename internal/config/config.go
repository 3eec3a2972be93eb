package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BankIDTestURL       = "https://appapi2.test.bankid.com/rp/v6.0"
	BankIDProductionURL = "https://appapi2.bankid.com/rp/v6.0"

	BackendHTTP     = "http"
	BackendPostgres = "postgres"

	EnvProduction = "production"
)

type Tables struct {
	Schema string
	Signs  string
}

type Kafka struct {
	Brokers []string
	Topic   string
	Group   string
	Workers int
}

type Postgres struct {
	Host     string
	Port     string
	DB       string
	User     string
	Password string
	SSLMode  string
}

type BankID struct {
	URL             string
	Production      bool
	PFXPath         string
	Passphrase      string
	CertPath        string
	KeyPath         string
	CAPath          string
	Timeout         time.Duration
	UserVisibleData string
	RedirectURL     string
}

type Cookie struct {
	Name     string
	MaxAge   int
	HashKey  string
	BlockKey string
}

type Signs struct {
	Backend string
	APIURL  string
}

type Breaker struct {
	Threshold   uint32
	OpenTimeout time.Duration
	MaxHalfOpen uint32
}

type Retry struct {
	Attempts     int
	Base         time.Duration
	Max          time.Duration
	JitterFactor float64
}

type Config struct {
	HTTPAddr string
	LogLevel string
	Env      string
	CacheCap int

	BankID  BankID
	Cookie  Cookie
	Signs   Signs
	Pg      Postgres
	Tables  Tables
	Kafka   Kafka
	Breaker Breaker
	Retry   Retry
}

// Load fatals on error; main has nothing to recover with.
func Load() Config {
	cfg, err := load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	return cfg
}

func load() (Config, error) {
	_ = godotenv.Load("env/.env")

	cfg := Config{
		HTTPAddr: envDefault("HTTP_ADDR", ":8080"),
		LogLevel: envDefault("LOG_LEVEL", "info"),
		Env:      envDefault("APP_ENV", "development"),
		CacheCap: envInt("CACHE_CAP", 1000),

		BankID: BankID{
			URL:             strings.TrimSpace(os.Getenv("BANKID_URL")),
			Production:      envBool("BANKID_PRODUCTION", false),
			PFXPath:         strings.TrimSpace(os.Getenv("BANKID_PFX")),
			Passphrase:      os.Getenv("BANKID_PASSPHRASE"),
			CertPath:        strings.TrimSpace(os.Getenv("BANKID_CERT")),
			KeyPath:         strings.TrimSpace(os.Getenv("BANKID_KEY")),
			CAPath:          strings.TrimSpace(os.Getenv("BANKID_CA")),
			Timeout:         envDurationMS("BANKID_TIMEOUT", 10*time.Second),
			UserVisibleData: envDefault("BANKID_USER_VISIBLE_DATA", "Signature at bankid.nytrek.dev"),
			RedirectURL:     envDefault("BANKID_REDIRECT_URL", "https://bankid.nytrek.dev/"),
		},

		Cookie: Cookie{
			Name:     envDefault("COOKIE_NAME", "sign"),
			MaxAge:   envInt("COOKIE_MAX_AGE", 60*6*24),
			HashKey:  strings.TrimSpace(os.Getenv("COOKIE_HASH_KEY")),
			BlockKey: strings.TrimSpace(os.Getenv("COOKIE_BLOCK_KEY")),
		},

		Signs: Signs{
			Backend: strings.ToLower(envDefault("SIGNS_BACKEND", BackendHTTP)),
			APIURL:  envDefault("SIGNS_API_URL", "http://localhost:3001"),
		},

		Pg: Postgres{
			Host:     strings.TrimSpace(os.Getenv("PG_HOST")),
			Port:     strings.TrimSpace(envDefault("PG_PORT", "5432")),
			DB:       strings.TrimSpace(os.Getenv("PG_DB")),
			User:     strings.TrimSpace(os.Getenv("PG_USER")),
			Password: strings.TrimSpace(os.Getenv("PG_PASSWORD")),
			SSLMode:  strings.TrimSpace(envDefault("PG_SSLMODE", "disable")),
		},

		Tables: Tables{
			Schema: envDefault("DB_SCHEMA", "public"),
			Signs:  envDefault("TBL_SIGNS", "signs"),
		},

		Kafka: Kafka{
			Brokers: splitCSV(strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))),
			Topic:   envDefault("KAFKA_TOPIC", "signs"),
			Group:   envDefault("KAFKA_GROUP", "signs-projector"),
			Workers: envInt("KAFKA_WORKERS", 4),
		},

		Breaker: Breaker{
			Threshold:   envUint32("BREAKER_THRESHOLD", 5),
			OpenTimeout: envDurationMS("BREAKER_OPENTIMEOUT", 10*time.Second),
			MaxHalfOpen: envUint32("BREAKER_MAXHALFOPEN", 3),
		},

		Retry: Retry{
			Attempts:     envInt("RETRY_ATTEMPTS", 3),
			Base:         envDurationMS("RETRY_BASE", 100*time.Millisecond),
			Max:          envDurationMS("RETRY_MAX", 2*time.Second),
			JitterFactor: envFloat64("RETRY_JITTERFACTOR", 0.3),
		},
	}

	if cfg.BankID.URL == "" {
		cfg.BankID.URL = BankIDTestURL
		if cfg.BankID.Production {
			cfg.BankID.URL = BankIDProductionURL
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c Config) Production() bool { return c.Env == EnvProduction }

func (c Config) validate() error {
	var missing []string
	if c.Production() {
		req := map[string]string{
			"COOKIE_HASH_KEY":  c.Cookie.HashKey,
			"COOKIE_BLOCK_KEY": c.Cookie.BlockKey,
		}
		if c.BankID.CertPath == "" && c.BankID.KeyPath == "" {
			req["BANKID_PFX"] = c.BankID.PFXPath
		}
		for k, v := range req {
			if strings.TrimSpace(v) == "" {
				missing = append(missing, k)
			}
		}
	}

	switch c.Signs.Backend {
	case BackendHTTP:
		if c.Signs.APIURL == "" {
			missing = append(missing, "SIGNS_API_URL")
		}
	case BackendPostgres:
		missing = append(missing, c.missingPostgres()...)
	default:
		return fmt.Errorf("unknown SIGNS_BACKEND %q", c.Signs.Backend)
	}

	if (c.BankID.CertPath == "") != (c.BankID.KeyPath == "") {
		return errors.New("BANKID_CERT and BANKID_KEY must be set together")
	}

	if len(missing) > 0 {
		return &missingEnvError{Keys: missing}
	}
	return nil
}

// ValidateProjector checks the settings cmd/projector cannot run without.
func (c Config) ValidateProjector() error {
	missing := c.missingPostgres()
	if len(c.Kafka.Brokers) == 0 {
		missing = append(missing, "KAFKA_BROKERS")
	}
	if len(missing) > 0 {
		return &missingEnvError{Keys: missing}
	}
	return nil
}

func (c Config) missingPostgres() []string {
	var missing []string
	req := []struct{ k, v string }{
		{"PG_HOST", c.Pg.Host},
		{"PG_DB", c.Pg.DB},
		{"PG_USER", c.Pg.User},
		{"PG_PASSWORD", c.Pg.Password},
	}
	for _, r := range req {
		if r.v == "" {
			missing = append(missing, r.k)
		}
	}
	return missing
}

func (c *Config) normalize() {
	if c.CacheCap <= 0 {
		log.Printf("CACHE_CAP is %d, adjusting to 1", c.CacheCap)
		c.CacheCap = 1
	}
	if c.Retry.Attempts < 0 {
		log.Printf("RETRY_ATTEMPTS is %d, adjusting to 0", c.Retry.Attempts)
		c.Retry.Attempts = 0
	}
	if c.Retry.Base <= 0 {
		log.Printf("RETRY_BASE is %v, adjusting to 100ms", c.Retry.Base)
		c.Retry.Base = 100 * time.Millisecond
	}
	if c.Retry.Max < c.Retry.Base {
		log.Printf("RETRY_MAX (%v) < RETRY_BASE (%v), adjusting max to base", c.Retry.Max, c.Retry.Base)
		c.Retry.Max = c.Retry.Base
	}
	if c.Kafka.Workers < 1 {
		c.Kafka.Workers = 1
	}
}

type missingEnvError struct{ Keys []string }

func (e *missingEnvError) Error() string {
	return "missing required envs: " + strings.Join(e.Keys, ", ")
}

// DSN builds a proper Postgres URL, safely escaping user/pass and query.
func (c Config) DSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Pg.User, c.Pg.Password),
		Host:   net.JoinHostPort(c.Pg.Host, c.Pg.Port),
		Path:   "/" + c.Pg.DB,
	}
	q := url.Values{}
	if c.Pg.SSLMode != "" {
		q.Set("sslmode", c.Pg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func envDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d: %v", k, v, def, err)
		return def
	}
	return n
}

func envBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %t: %v", k, v, def, err)
		return def
	}
	return b
}

func envUint32(k string, def uint32) uint32 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	u, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d: %v", k, v, def, err)
		return def
	}
	return uint32(u)
}

func envFloat64(k string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using default %.3f: %v", k, v, def, err)
		return def
	}
	return f
}

// envDurationMS supports either plain integer milliseconds ("1500") or
// Go duration strings ("1.5s", "250ms", "2m").
func envDurationMS(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if strings.IndexFunc(v, func(r rune) bool { return r < '0' || r > '9' }) != -1 {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
			return def
		}
		return d
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
