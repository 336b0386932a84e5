package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	applog "finanzas/internal/log"
	"finanzas/internal/services"
)

// Server is the JSON API for the ledger. Every /api route except the
// health checks requires a bearer token; the token's subject is the owner
// whose data the request touches.
type Server struct {
	http.Server

	jwtSecret    []byte
	transactions *services.TransactionService
	categories   *services.CategoryService
	scheduler    *services.Materializer
	dashboard    *services.DashboardService
	portfolio    *services.PortfolioService
	prices       services.PriceFetcher
	admin        AdminStore

	rateLimiter *rateLimiter
}

// Deps bundles everything the server routes to.
type Deps struct {
	JWTSecret    string
	Transactions *services.TransactionService
	Categories   *services.CategoryService
	Scheduler    *services.Materializer
	Dashboard    *services.DashboardService
	Portfolio    *services.PortfolioService
	Prices       services.PriceFetcher
	Admin        AdminStore
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		jwtSecret:    []byte(deps.JWTSecret),
		transactions: deps.Transactions,
		categories:   deps.Categories,
		scheduler:    deps.Scheduler,
		dashboard:    deps.Dashboard,
		portfolio:    deps.Portfolio,
		prices:       deps.Prices,
		admin:        deps.Admin,
		rateLimiter:  newRateLimiter(),
	}

	// Every request gets a context logger tagged with component and a
	// fresh request ID; handlers retrieve it with applog.FromContext.
	base := applog.New(applog.DefaultConfig())
	s.Server.Handler = applog.Middleware(base)(
		applog.ComponentMiddleware(applog.ComponentHTTP)(
			applog.RequestIDMiddleware(func(*http.Request) string {
				return generateRequestID()
			})(mux)))

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/dashboard", s.protected(s.handleDashboard))

	mux.HandleFunc("GET /api/transactions", s.protected(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.protected(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.protected(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.protected(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/categories", s.protected(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.protected(s.handleCreateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.protected(s.handleDeleteCategory))
	mux.HandleFunc("PUT /api/categories/{id}/limit", s.protected(s.handleSetCategoryLimit))

	mux.HandleFunc("GET /api/scheduled-payments", s.protected(s.handleListScheduledPayments))
	mux.HandleFunc("POST /api/scheduled-payments", s.protected(s.handleCreateScheduledPayment))
	mux.HandleFunc("DELETE /api/scheduled-payments/{id}", s.protected(s.handleDeleteScheduledPayment))
	mux.HandleFunc("POST /api/scheduled-payments/run", s.protected(s.handleRunMaterializer))

	mux.HandleFunc("GET /api/holdings", s.protected(s.handleListHoldings))
	mux.HandleFunc("POST /api/holdings", s.protected(s.handleCreateHolding))
	mux.HandleFunc("DELETE /api/holdings/{id}", s.protected(s.handleDeleteHolding))
	mux.HandleFunc("POST /api/holdings/refresh", s.protected(s.handleRefreshHoldings))

	mux.HandleFunc("GET /api/market/price", s.protected(s.handleMarketPrice))

	mux.HandleFunc("GET /api/alert", s.protected(s.handleGetAlert))
	mux.HandleFunc("PUT /api/alert", s.protected(s.requireAdmin(s.handleSetAlert)))

	return s
}

// protected chains request logging, rate limiting, and bearer auth.
func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return s.withRequestLog(s.withAuth(next))
}

func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		logger := applog.FromContext(ctx)

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		logger.InfoContext(ctx, "Request started",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logger.InfoContext(ctx, "Request completed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

// Shutdown stops the rate limiter's cleanup goroutine, then drains
// in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.stop()
	return s.Server.Shutdown(ctx)
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}
