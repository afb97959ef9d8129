package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/aerocost/tripcost/internal/config"
	"github.com/aerocost/tripcost/internal/db"
	"github.com/aerocost/tripcost/internal/migrations"
	"github.com/aerocost/tripcost/internal/seed"
	"github.com/aerocost/tripcost/internal/store"
)

type server struct {
	store *store.Store
	cfg   config.Config
}

func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := config.Load()
	if cfg.IsDev() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database, "migrations"); err != nil {
			log.Fatal().Err(err).Msg("failed to run database migrations")
		}
		stats, err := seed.Run(database, seed.Config{DevUserEmail: cfg.DevUserEmail})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to run dev seed")
		}
		log.Debug().Int("inserts", stats.Inserts).Msg("dev seed complete")
	}

	srv := &server{store: store.New(database), cfg: cfg}

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("listening")
	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		// Read-share access is tokened, not identity-scoped.
		r.Get("/shared/{token}", s.handleGetShared)

		r.Group(func(r chi.Router) {
			r.Use(s.identityMiddleware)
			r.Post("/calc", s.handleCalc)
			r.Route("/estimates", func(r chi.Router) {
				r.Get("/", s.handleListEstimates)
				r.Post("/", s.handleCreateEstimate)
				r.Get("/{id}", s.handleGetEstimate)
				r.Put("/{id}", s.handleUpdateEstimate)
				r.Delete("/{id}", s.handleDeleteEstimate)
				r.Get("/{id}/summary", s.handleEstimateSummary)
				r.Post("/{id}/share", s.handleShareEstimate)
				r.Delete("/{id}/share", s.handleUnshareEstimate)
			})
		})
	})
	return r
}
