package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"careflow/internal/agent"
	"careflow/internal/config"
	"careflow/internal/platform/email"
	"careflow/internal/platform/places"
	"careflow/internal/platform/pubmed"
	"careflow/internal/report"
	"careflow/internal/routing"
	"careflow/internal/session"
	"careflow/internal/severity"
	"careflow/internal/triage"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// 1. Infrastructure
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err == nil {
			err = db.Ping()
		}
		if err == nil {
			break
		}
		logger.Info("waiting for database", "attempt", i+1)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		logger.Error("could not connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	m, err := migrate.New("file://migrations", cfg.DatabaseURL)
	if err != nil {
		logger.Error("migration init failed", "error", err)
		os.Exit(1)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Error("migration up failed", "error", err)
		os.Exit(1)
	}
	logger.Info("migrations applied")

	// 2. Clients
	var llm *agent.Client
	if cfg.OpenAIAPIKey != "" {
		llm = agent.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		logger.Warn("OPENAI_API_KEY not set, classification and replies use fallbacks")
	}
	pubmedClient := pubmed.NewClient(cfg.PubMedAPIKey)
	placesClient := places.NewClient(cfg.MapsAPIKey)
	if cfg.MapsAPIKey == "" {
		logger.Warn("GOOGLE_MAPS_API_KEY not set, nearby lookups will fail")
	}
	sender := email.NewSender(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
	}, logger)

	// 3. Services
	repo := session.NewRepository(db)

	// A nil classifier keeps routing functional without an API key.
	var classifier routing.Classifier
	var replier triage.Replier
	var rater severity.Rater
	var assistant triage.Assistant
	if llm != nil {
		classifier = llm
		replier = llm
		rater = llm
		assistant = llm
	}
	engine := routing.NewEngine(classifier, cfg.ClassifierTimeout, logger)
	scorer := severity.NewClassifierScorer(rater, logger)
	pipeline := agent.NewPipeline(llm, pubmedClient, logger)

	triageSvc := triage.NewService(engine, scorer, replier, pipeline, repo, triage.Limits{
		Session: session.Limits{
			MaxSessionsPerDay: cfg.MaxSessionsPerDay,
			IdleTimeout:       cfg.SessionTimeout,
		},
		MaxMessagesAnonymous: cfg.MaxMessagesAnonymous,
		MaxMessagesLoggedIn:  cfg.MaxMessagesLoggedIn,
		MaxOTCAttempts:       cfg.MaxOTCAttempts,
	}, logger)
	triageHandler := triage.NewHandler(triageSvc, placesClient, assistant)

	reportSvc := report.NewService(repo, sender, logger)
	reportHandler := report.NewHandler(reportSvc)

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS for frontend
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
			if r.Method == "OPTIONS" {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		triage.RegisterRoutes(r, triageHandler)
		report.RegisterRoutes(r, reportHandler)
	})

	logger.Info("server starting", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
