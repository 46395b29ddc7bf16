package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

type Config struct {
	Port string

	StoreDriver string
	DatabaseURL string
	SQLitePath  string
	MongoURI    string
	MongoDB     string

	JWTSecret string
	JWTTTL    time.Duration

	AdminUsername string
	AdminPassword string
	AdminEmail    string

	KafkaBrokers []string
	KafkaTopic   string

	RateLimitRPS   float64
	RateLimitBurst int

	LowStockThreshold int
	LowStockSpec      string
	PendingBillsSpec  string
	PendingBillAge    time.Duration
}

// Load reads the process environment, after merging a local .env file if present.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can feed their own values.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	var errs []error
	duration := func(key, def string) time.Duration {
		d, err := time.ParseDuration(get(key, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}
	integer := func(key, def string) int {
		n, err := strconv.Atoi(get(key, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return n
	}

	cfg := Config{
		Port:        get("PORT", "8080"),
		StoreDriver: strings.ToLower(get("STORE_DRIVER", DriverPostgres)),
		DatabaseURL: get("DATABASE_URL", ""),
		SQLitePath:  get("SQLITE_PATH", "storefront.db"),
		MongoURI:    get("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     get("MONGO_DB", "storefront"),

		JWTSecret: get("JWT_SECRET", ""),
		JWTTTL:    duration("JWT_TTL", "3h"),

		AdminUsername: get("ADMIN_USERNAME", ""),
		AdminPassword: get("ADMIN_PASSWORD", ""),
		AdminEmail:    get("ADMIN_EMAIL", ""),

		KafkaBrokers: splitCSV(get("KAFKA_BROKERS", "")),
		KafkaTopic:   get("KAFKA_TOPIC", "storefront.bills"),

		RateLimitBurst: integer("RATE_LIMIT_BURST", "20"),

		LowStockThreshold: integer("LOW_STOCK_THRESHOLD", "5"),
		LowStockSpec:      get("JOBS_LOW_STOCK_SPEC", "@daily"),
		PendingBillsSpec:  get("JOBS_PENDING_SPEC", "@midnight"),
		PendingBillAge:    duration("PENDING_BILL_AGE", "24h"),
	}

	rps, err := strconv.ParseFloat(get("RATE_LIMIT_RPS", "10"), 64)
	if err != nil {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS: %w", err))
	}
	cfg.RateLimitRPS = rps

	if cfg.DatabaseURL == "" && cfg.StoreDriver == DriverPostgres {
		cfg.DatabaseURL = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			get("DB_HOST", "localhost"), get("DB_USER", "postgres"), getenv("DB_PASSWORD"),
			get("DB_NAME", "storefront"), get("DB_PORT", "5432"),
		)
	}

	switch cfg.StoreDriver {
	case DriverPostgres, DriverSQLite, DriverMongo:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER: unknown driver %q", cfg.StoreDriver))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	return cfg, errors.Join(errs...)
}

// SeedAdmin reports whether an initial admin account is configured.
func (c Config) SeedAdmin() bool {
	return c.AdminUsername != "" && c.AdminPassword != ""
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
