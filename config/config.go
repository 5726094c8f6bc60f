package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config 从环境变量读取
type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	RedisAddr   string
	RedisPwd    string
	WebOrigin   string
	RPID        string
	RPOrigins   []string
	SessionTTL  time.Duration
	AdminEmails []string

	// BootstrapEmail receives the first ADMIN invite when no admin exists.
	BootstrapEmail string

	Lending Lending

	// Warnings collects env values that were rejected and replaced by a default.
	Warnings []string
}

// Lending holds the circulation policy knobs.
type Lending struct {
	LoanDays       int
	HoldDays       int
	PageFee        decimal.Decimal
	DailyLateFee   decimal.Decimal
	DefaultLostFee decimal.Decimal
}

// LoadEnv reads .env into the process environment if the file exists.
func LoadEnv() {
	_ = godotenv.Load()
}

func (c Config) IsDev() bool { return c.Env == "dev" }

func Load() Config {
	var warnings []string
	get := func(k, def string) string {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
		return def
	}
	getInt := func(k string, def int) int {
		raw := get(k, "")
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s=%q invalid, using %d", k, raw, def))
			return def
		}
		return n
	}
	getMoney := func(k, def string) decimal.Decimal {
		fallback := decimal.RequireFromString(def)
		raw := get(k, "")
		if raw == "" {
			return fallback
		}
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			warnings = append(warnings, fmt.Sprintf("%s=%q invalid, using %s", k, raw, def))
			return fallback
		}
		return d
	}

	ttl := 10 * time.Minute
	if raw := get("SESSION_TTL_SECONDS", ""); raw != "" {
		if d, err := time.ParseDuration(raw + "s"); err == nil && d > 0 {
			ttl = d
		} else {
			warnings = append(warnings, fmt.Sprintf("SESSION_TTL_SECONDS=%q invalid, using %s", raw, ttl))
		}
	}

	admins := splitCSV(os.Getenv("ADMIN_EMAILS"))
	for i := range admins {
		admins[i] = strings.ToLower(admins[i])
	}

	cfg := Config{
		Env:            get("APP_ENV", "dev"),
		Port:           get("PORT", "3001"),
		DatabaseURL:    get("DATABASE_URL", postgresDSN(get)),
		RedisAddr:      get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:       os.Getenv("REDIS_PASSWORD"),
		WebOrigin:      get("WEB_ORIGIN", "http://localhost:5173"),
		RPID:           get("RP_ID", "localhost"),
		RPOrigins:      splitCSV(get("RP_ORIGINS", "http://localhost:5173")),
		SessionTTL:     ttl,
		AdminEmails:    admins,
		BootstrapEmail: strings.ToLower(os.Getenv("BOOTSTRAP_EMAIL")),
		Lending: Lending{
			LoanDays:       getInt("LOAN_DAYS", 14),
			HoldDays:       getInt("RESERVATION_HOLD_DAYS", 14),
			PageFee:        getMoney("PAGE_FEE", "2.00"),
			DailyLateFee:   getMoney("DAILY_LATE_FEE", "1.00"),
			DefaultLostFee: getMoney("DEFAULT_LOST_FEE", "50.00"),
		},
	}
	cfg.Warnings = warnings
	return cfg
}

func postgresDSN(get func(k, def string) string) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		get("DB_HOST", "127.0.0.1"),
		get("DB_USER", "postgres"),
		get("DB_PASSWORD", "postgres"),
		get("DB_NAME", "library"),
		get("DB_PORT", "5432"),
	)
}

func splitCSV(csv string) []string {
	var out []string
	for _, s := range strings.Split(csv, ",") {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
