package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/teambrain/internal/api/handlers"
	mw "github.com/Harshitk-cp/teambrain/internal/api/middleware"
	"github.com/Harshitk-cp/teambrain/internal/buildconfig"
	"github.com/Harshitk-cp/teambrain/internal/config"
	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/Harshitk-cp/teambrain/internal/llm"
	"github.com/Harshitk-cp/teambrain/internal/service"
	"github.com/Harshitk-cp/teambrain/internal/store"
	"github.com/Harshitk-cp/teambrain/internal/store/memstore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router       *chi.Mux
	Expirer      *service.SuggestionExpirer
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// Deps is everything the router needs from the outside. Tests pass in-memory
// stores; the server passes the PostgreSQL ones from NewStores.
type Deps struct {
	Tx            domain.Transactor
	Clients       domain.APIClientStore
	Teams         domain.TeamStore
	Hypotheses    domain.HypothesisStore
	Verifications domain.VerificationStore
	QualityScores domain.QualityScoreStore
	Suggestions   domain.SuggestionStore
	LLM           domain.LLMClient
	// Ping backs /health. Nil reports healthy.
	Ping func(r *http.Request) error
}

// NewStores builds the PostgreSQL-backed dependencies.
func NewStores(db *pgxpool.Pool) Deps {
	return Deps{
		Tx:            store.NewTransactor(db),
		Clients:       store.NewAPIClientStore(db),
		Teams:         store.NewTeamStore(db),
		Hypotheses:    store.NewHypothesisStore(db),
		Verifications: store.NewVerificationStore(db),
		QualityScores: store.NewQualityScoreStore(db),
		Suggestions:   store.NewSuggestionStore(db),
		Ping:          func(r *http.Request) error { return db.Ping(r.Context()) },
	}
}

// NewMemoryStores builds dependencies backed by process memory.
func NewMemoryStores(db *memstore.DB) Deps {
	return Deps{
		Tx:            db.Tx,
		Clients:       db.Clients,
		Teams:         db.Teams,
		Hypotheses:    db.Hypotheses,
		Verifications: db.Verifications,
		QualityScores: db.QualityScores,
		Suggestions:   db.Suggestions,
	}
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	return NewAppWithLLM(NewStores(db), logger)
}

// NewAppWithLLM attaches the configured LLM provider to deps, falling back
// to the mock provider when it cannot be initialised.
func NewAppWithLLM(deps Deps, logger *zap.Logger) *App {
	llmProvider := config.LLMProvider()
	llmClient, err := llm.NewClient(llmProvider, config.LLMAPIKey())
	if err != nil {
		logger.Warn("LLM client initialization failed, falling back to mock", zap.String("provider", llmProvider), zap.Error(err))
		llmClient = llm.NewMockClient()
	} else {
		logger.Info("LLM client initialized", zap.String("provider", llmProvider))
	}
	deps.LLM = llmClient

	return NewAppWithDeps(deps, logger)
}

func NewAppWithDeps(deps Deps, logger *zap.Logger) *App {
	if deps.LLM == nil {
		deps.LLM = llm.NewMockClient()
	}

	// Services
	hasher := service.NewOriginHasher(config.OriginHashSecret())
	teamSvc := service.NewTeamService(deps.Tx, deps.Teams, logger)
	hypothesisSvc := service.NewHypothesisService(deps.Hypotheses, deps.Teams, hasher, logger)
	verificationSvc := service.NewVerificationService(deps.Tx, deps.Hypotheses, deps.Verifications, deps.Teams, logger)
	qualitySvc := service.NewQualityService(deps.Tx, deps.Hypotheses, deps.QualityScores, deps.Teams, logger)
	suggestionSvc := service.NewSuggestionService(deps.Tx, deps.Suggestions, hypothesisSvc, logger)
	dashboardSvc := service.NewDashboardService(deps.Hypotheses, deps.Suggestions, deps.Teams, logger)

	expirer := service.NewSuggestionExpirer(deps.Suggestions, logger)
	expirer.SetTTL(config.SuggestionTTL())
	expirer.SetInterval(config.SuggestionExpirerInterval())

	// Handlers
	clientHandler := handlers.NewClientHandler(deps.Clients)
	teamHandler := handlers.NewTeamHandler(teamSvc)
	hypothesisHandler := handlers.NewHypothesisHandler(hypothesisSvc)
	verificationHandler := handlers.NewVerificationHandler(verificationSvc)
	qualityHandler := handlers.NewQualityHandler(qualitySvc, hypothesisSvc, deps.LLM, logger)
	suggestionHandler := handlers.NewSuggestionHandler(suggestionSvc, hypothesisSvc, deps.LLM, logger)
	dashboardHandler := handlers.NewDashboardHandler(dashboardSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Expirer:   expirer,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)                                                 // Generate/extract request ID first
	r.Use(middleware.RealIP)                                            // Extract real IP
	r.Use(metricsCollector.Middleware)                                  // Collect metrics
	r.Use(mw.Logging(logger))                                           // Log all requests
	r.Use(middleware.Recoverer)                                         // Recover from panics
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst())) // Rate limiting

	// Operational endpoints (no auth)
	r.Get("/health", healthHandler(deps.Ping))
	r.Get("/stats", app.statsHandler())
	r.Get("/version", versionHandler)
	r.Handle("/metrics", promhttp.Handler())

	// Client creation (no auth, bootstrap endpoint)
	r.Post("/v1/clients", clientHandler.Create)

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(deps.Clients))

		r.Get("/dashboard", dashboardHandler.Get)

		// Teams
		r.Route("/teams", func(r chi.Router) {
			r.Post("/", teamHandler.Create)
			r.Get("/", teamHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", teamHandler.Get)
				r.Get("/members", teamHandler.ListMembers)
				r.Post("/members", teamHandler.AddMember)
				r.Put("/members/{userID}", teamHandler.ChangeRole)
				r.Delete("/members/{userID}", teamHandler.RemoveMember)
				r.Get("/hypotheses", hypothesisHandler.ListTeam)
			})
		})

		// Hypotheses
		r.Route("/hypotheses", func(r chi.Router) {
			r.Post("/", hypothesisHandler.Create)
			r.Get("/", hypothesisHandler.List)
			r.Get("/high-potential", qualityHandler.HighPotential)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", hypothesisHandler.Get)
				r.Patch("/", hypothesisHandler.Update)
				r.Post("/propose", hypothesisHandler.Propose)
				r.Post("/share", hypothesisHandler.Share)
				r.Post("/reject", hypothesisHandler.Reject)
				r.Get("/derivations", hypothesisHandler.Derivations)
				r.Get("/verifications", verificationHandler.List)
				r.Post("/verifications", verificationHandler.Submit)
				r.Get("/quality-scores", qualityHandler.History)
				r.Post("/quality-scores", qualityHandler.Record)
				r.Post("/quality-scores/assess", qualityHandler.Assess)
				r.Post("/suggestions", suggestionHandler.Propose)
				r.Post("/suggestions/generate", suggestionHandler.Generate)
			})
		})

		// Sharing suggestions
		r.Route("/suggestions", func(r chi.Router) {
			r.Get("/", suggestionHandler.ListPending)
			r.Get("/{id}", suggestionHandler.Get)
			r.Post("/{id}/respond", suggestionHandler.Respond)
		})
	})

	return app
}

func healthHandler(ping func(r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ping != nil {
			if err := ping(r); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(buildconfig.VersionInfo())
}

func (app *App) statsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
			"version":    buildconfig.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.Transactor        = (*store.Transactor)(nil)
	_ domain.APIClientStore    = (*store.APIClientStore)(nil)
	_ domain.TeamStore         = (*store.TeamStore)(nil)
	_ domain.HypothesisStore   = (*store.HypothesisStore)(nil)
	_ domain.VerificationStore = (*store.VerificationStore)(nil)
	_ domain.QualityScoreStore = (*store.QualityScoreStore)(nil)
	_ domain.SuggestionStore   = (*store.SuggestionStore)(nil)
	_ domain.Transactor        = (*memstore.Transactor)(nil)
	_ domain.APIClientStore    = (*memstore.APIClientStore)(nil)
	_ domain.TeamStore         = (*memstore.TeamStore)(nil)
	_ domain.HypothesisStore   = (*memstore.HypothesisStore)(nil)
	_ domain.VerificationStore = (*memstore.VerificationStore)(nil)
	_ domain.QualityScoreStore = (*memstore.QualityScoreStore)(nil)
	_ domain.SuggestionStore   = (*memstore.SuggestionStore)(nil)
	_ domain.LLMClient         = (*llm.OpenAIClient)(nil)
	_ domain.LLMClient         = (*llm.AnthropicClient)(nil)
	_ domain.LLMClient         = (*llm.MockClient)(nil)
)
