package httpserver

import (
	"net/http"

	"fxsim/internal/analysis"
	"fxsim/internal/health"
	"fxsim/internal/ledger"
	"fxsim/internal/rates"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type RouterDeps struct {
	RatesHandler    *rates.Handler
	AnalysisHandler *analysis.Handler
	LedgerHandler   *ledger.Handler
	HealthHandler   *health.Handler
	StreamWS        http.Handler
	Logger          *zap.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS middleware for browser clients
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Internal-Token")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Use(SecurityHeaders)
	r.Use(RateLimitMiddleware)
	if d.Logger != nil {
		r.Use(RequestLogger(d.Logger))
	}

	r.Get("/health", d.HealthHandler.Get)
	r.Get("/health/full", d.HealthHandler.Full)
	r.Get("/health/metrics", d.HealthHandler.Metrics)

	r.Get("/rates", d.RatesHandler.List)
	r.Get("/rates/ws", d.StreamWS.ServeHTTP)
	r.Get("/rates/{base}/{quote}", d.RatesHandler.Get)

	r.Post("/analyze", d.AnalysisHandler.Analyze)

	r.Post("/trade", d.LedgerHandler.Trade)
	r.Get("/positions", d.LedgerHandler.Positions)
	r.Post("/positions/{id}/close", d.LedgerHandler.Close)
	r.Get("/account", d.LedgerHandler.Account)

	return r
}
