package main

import (
	"context"
	"database/sql"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/adapters/rates"
	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/shared"
	mysqlrepo "hotel_booking/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	if cfg.MySQLDSN == "" {
		log.Fatal().Msg("MYSQL_DSN is required to persist rates")
	}
	table, err := cfg.Rates()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid currency configuration")
	}

	log.Info().
		Str("base", cfg.RatesBase).
		Str("reference", string(table.Reference())).
		Int("workers", cfg.RatesWorkers).
		Msg("ratesync starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	client, err := rates.New(cfg.RatesBase, cfg.RatesKey, table.Reference(), cfg.RatesRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize rates client")
	}

	var todo []domain.Currency
	for _, c := range table.Currencies() {
		if c != table.Reference() {
			todo = append(todo, c)
		}
	}

	svc := app.NewRateSyncService(client, mysqlrepo.New(db), cfg.RatesWorkers)
	failed, err := svc.SyncAll(ctx, todo)
	if err != nil {
		log.Fatal().Err(err).Msg("rate sync aborted")
	}
	log.Info().Int("currencies", len(todo)).Int("failed", failed).Msg("rate sync completed")
	if failed > 0 {
		os.Exit(1)
	}
}
