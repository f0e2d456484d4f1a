package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "hotel_booking/internal/adapters/http_server"
	"hotel_booking/internal/adapters/observability"
	redisad "hotel_booking/internal/adapters/redis"
	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
	"hotel_booking/internal/shared"
	"hotel_booking/internal/storage/memory"
	mysqlrepo "hotel_booking/internal/storage/mysql"
)

type store interface {
	domain.Transactor
	domain.RateStore
	Reservations() domain.ReservationStore
	Wallets() domain.WalletStore
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	observability.Serve()

	rates, err := cfg.Rates()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid currency configuration")
	}

	var (
		st   store
		ping func(context.Context) error
	)
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		defer db.Close()
		log.Info().Msg("database connection ok")
		st, ping = mysqlrepo.New(db), db.PingContext
	} else {
		st = memory.New()
	}

	// persisted rates (from cmd/ratesync) win over configured ones
	if stored, err := st.LoadRates(ctx); err != nil {
		log.Warn().Err(err).Msg("loading stored rates failed; using configured table")
	} else if len(stored) > 0 {
		if merged, err := rates.With(stored); err != nil {
			log.Warn().Err(err).Msg("stored rates rejected; using configured table")
		} else {
			rates = merged
		}
	}
	log.Info().Str("reference", string(rates.Reference())).Int("currencies", len(rates.Currencies())).Msg("rates loaded")

	var cache domain.Cache = redisad.Noop{}
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; cache disabled")
		} else {
			cache = rc
			defer rc.Close()
		}
	}

	booking := app.NewBookingService(st, domain.NewPaymentService(rates), cache)
	q := app.NewQueryService(st.Reservations(), st.Wallets(), cache, cfg.CacheTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{B: booking, Q: q, Ping: ping})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	log.Info().Msg("API stopped")
}
