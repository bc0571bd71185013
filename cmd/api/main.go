package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"example.com/tagnotes/internal/auth"
	"example.com/tagnotes/internal/config"
	"example.com/tagnotes/internal/db"
	"example.com/tagnotes/internal/notes"
	"example.com/tagnotes/internal/users"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	ctx := context.Background()

	dbConn, err := db.Open(ctx, cfg.DatabaseURL, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime, cfg.ConnMaxIdleTime)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer dbConn.SQL.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("apply migrations")
	}

	accountSvc := users.New(users.NewRepository(dbConn.SQL))
	accountHandlers := users.NewHandlers(accountSvc, log)
	noteHandlers := notes.NewHandlers(notes.NewRepository(dbConn.SQL, cfg.PageSize), log)

	r := chi.NewRouter()
	r.Use(requestLogger(log))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Post("/signup", accountHandlers.Signup)
	r.Post("/login", accountHandlers.Login)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(accountSvc))
		r.Mount("/", noteHandlers.Routes())
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().Str("addr", cfg.HTTPAddr).Msg("notes service listening")
	log.Fatal().Err(srv.ListenAndServe()).Msg("server stopped")
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info().
				Str("request_id", uuid.NewString()).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sw.status).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
