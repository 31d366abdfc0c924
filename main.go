package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/EmpoweredVote/jobmarket/internal/api"
	"github.com/EmpoweredVote/jobmarket/internal/config"
	"github.com/EmpoweredVote/jobmarket/internal/db"
	"github.com/EmpoweredVote/jobmarket/internal/gateway"
	"github.com/EmpoweredVote/jobmarket/internal/geocoding"
	"github.com/EmpoweredVote/jobmarket/internal/logger"
	"github.com/EmpoweredVote/jobmarket/internal/middleware"
	"github.com/EmpoweredVote/jobmarket/internal/session"
)

const purgeInterval = 15 * time.Minute

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Setup(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	client, err := api.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("api client")
	}

	geo, err := geocoding.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("geocoding client")
	}
	if !cfg.GeocodingEnabled() {
		log.Warn().Msg("MAPBOX_TOKEN not set, location search disabled")
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("session store")
	}

	h := gateway.NewHandler(gateway.Options{
		Client:     client,
		Geocoder:   geo,
		Store:      store,
		SessionTTL: cfg.SessionTTL,
		// deployed hosts set PORT; local runs use plain http
		SecureCookies: os.Getenv("PORT") != "",
	})

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	r.Get("/", RootHandler)
	r.Mount("/api", h.SetupRoutes())

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go purgeSessions(ctx, store)

	go func() {
		log.Info().Str("addr", srv.Addr).Str("app_id", client.AppID()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

// openStore uses Postgres when DATABASE_URL is set and memory otherwise.
func openStore(cfg config.Config) (session.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, sessions are kept in memory")
		return session.NewMemoryStore(), nil
	}

	gdb, err := db.Connect(cfg.DatabaseURL, cfg.LogLevel == "debug")
	if err != nil {
		return nil, err
	}
	if err := session.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate sessions: %w", err)
	}
	sealer, err := session.NewSealer(cfg.SessionSecret)
	if err != nil {
		return nil, err
	}
	return session.NewGormStore(gdb, sealer), nil
}

func purgeSessions(ctx context.Context, store session.Store) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.PurgeExpired(ctx, now)
			if err != nil {
				logger.LogError("sessions", "purge", err)
				continue
			}
			if n > 0 {
				log.Info().Int64("removed", n).Msg("purged expired sessions")
			}
		}
	}
}
