package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"tesoreria/internal/cache"
	"tesoreria/internal/middleware/ratelimit"
	"tesoreria/internal/middleware/trace"
	"tesoreria/internal/services"
)

// Server serves the treasury API. Dashboard aggregates are cached with a
// generation counter: any mutation bumps the generation, so stale entries
// are never served and age out through the LRU.
type Server struct {
	http.Server

	transactions *services.TransactionService
	remittances  *services.RemittanceService
	requests     *services.RequestService

	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	dashboardCache *cache.LRUCache[dashboardView]
	cacheManager   *cache.Manager
	generation     atomic.Uint64

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, tx *services.TransactionService, rem *services.RemittanceService, reqs *services.RequestService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		transactions:   tx,
		remittances:    rem,
		requests:       reqs,
		limiter:        ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		tracer:         trace.NewMiddleware(clientIP),
		dashboardCache: cache.NewLRUCache[dashboardView](100, 5*time.Minute),
		cacheManager:   cache.NewManager(),
	}

	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions/income", s.handleCreateIncome)
	mux.HandleFunc("POST /api/transactions/expense", s.handleCreateExpense)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("POST /api/remittances", s.handleCreateRemittance)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	mux.HandleFunc("GET /api/requests", s.handleListRequests)
	mux.HandleFunc("POST /api/requests", s.handleCreateRequest)
	mux.HandleFunc("PUT /api/requests/{id}/status", s.handleUpdateRequestStatus)
	mux.HandleFunc("DELETE /api/requests/{id}", s.handleDeleteRequest)

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.tracer.Middleware(s.limitMutations(mux)),
	}

	return s
}

// limitMutations applies the rate limiter to writing methods only; reads
// stay unthrottled.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && !s.limiter.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			NewJSONResponse().
				Status(http.StatusTooManyRequests).
				Failure().
				Message("Demasiadas peticiones, espera un momento").
				Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client address, honouring proxy headers.
func clientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); ip != "" {
		if i := strings.IndexByte(ip, ','); i >= 0 {
			ip = strings.TrimSpace(ip[:i])
		}
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady verifies that the record store answers before reporting ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.transactions.List(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// invalidateDashboard makes every cached dashboard entry unreachable.
func (s *Server) invalidateDashboard() {
	s.generation.Add(1)
}

func (s *Server) dashboardKey(year, month int) string {
	return fmt.Sprintf("g%d:%d-%02d", s.generation.Load(), year, month)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
