package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"hotel_booking/internal/domain"
)

type Config struct {
	AppEnv            string
	LogLevel          string
	HTTPAddr          string
	MetricsAddr       string
	MySQLDSN          string // empty runs on the in-memory store
	RedisAddr         string // empty disables the cache
	RedisDB           int
	RedisPass         string
	CacheTTL          time.Duration
	ReferenceCurrency string
	CurrencyRates     string // "USD=0.92,GBP=1.17"
	RatesBase         string
	RatesKey          string
	RatesWorkers      int
	RatesRPS          int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric setting")
		}
		return def
	}
	c := Config{
		AppEnv:            env("APP_ENV", "prod"),
		LogLevel:          env("LOG_LEVEL", "info"),
		HTTPAddr:          env("HTTP_ADDR", ":8080"),
		MetricsAddr:       env("METRICS_ADDR", ""),
		MySQLDSN:          env("MYSQL_DSN", ""),
		RedisAddr:         env("REDIS_ADDR", ""),
		RedisPass:         env("REDIS_PASSWORD", ""),
		RedisDB:           atoi("REDIS_DB", 0),
		CacheTTL:          time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		ReferenceCurrency: env("REFERENCE_CURRENCY", string(domain.EUR)),
		CurrencyRates:     env("CURRENCY_RATES", ""),
		RatesBase:         env("RATES_BASE_URL", ""),
		RatesKey:          env("RATES_API_KEY", ""),
		RatesWorkers:      atoi("RATES_WORKERS", 4),
		RatesRPS:          atoi("RATES_RPS", 5),
	}
	if c.MySQLDSN == "" {
		log.Warn().Msg("MYSQL_DSN is empty; using the in-memory store")
	}
	return c
}

// Rates builds the conversion table. The built-in table only applies when
// the reference is EUR; any other reference needs CURRENCY_RATES.
func (c Config) Rates() (domain.Rates, error) {
	ref, err := domain.ParseCurrency(c.ReferenceCurrency)
	if err != nil {
		return domain.Rates{}, fmt.Errorf("REFERENCE_CURRENCY: %w", err)
	}
	table := map[domain.Currency]decimal.Decimal{}
	if ref == domain.EUR {
		table = domain.DefaultRateTable()
	}
	overrides, err := ParseRateList(c.CurrencyRates)
	if err != nil {
		return domain.Rates{}, fmt.Errorf("CURRENCY_RATES: %w", err)
	}
	for cur, r := range overrides {
		table[cur] = r
	}
	return domain.NewRates(ref, table)
}

// ParseRateList reads "USD=0.92, GBP=1.17". Blank input yields an empty map.
func ParseRateList(s string) (map[domain.Currency]decimal.Decimal, error) {
	out := map[domain.Currency]decimal.Decimal{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("malformed entry %q", part)
		}
		cur, err := domain.ParseCurrency(k)
		if err != nil {
			return nil, err
		}
		r, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("rate for %s: %w", cur, err)
		}
		out[cur] = r
	}
	return out, nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
