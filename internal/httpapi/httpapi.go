package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"tablepos/backend/internal/domain"
	"tablepos/backend/internal/notify"
	"tablepos/backend/internal/service"
	"tablepos/backend/internal/store"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	hub           *notify.Hub
	allowedOrigin string
	loginLimiter  *attemptLimiter
	logger        *zap.Logger
	heartbeat     time.Duration
}

func New(svc *service.Service, auth *AuthManager, hub *notify.Hub, allowedOrigin string, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hub == nil {
		hub = notify.NewHub(logger)
	}
	return &API{
		service:       svc,
		auth:          auth,
		hub:           hub,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
		logger:        logger,
		heartbeat:     25 * time.Second,
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(a.securityHeaders)
	r.Use(a.requestLogger)

	r.Get("/healthz", a.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", a.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth)

			r.Get("/categories", a.handleListCategories)
			r.Get("/products", a.handleListProducts)
			r.Get("/products/{id}", a.handleGetProduct)
			r.Get("/tables", a.handleListTables)
			r.Get("/tables/{id}/order", a.handleGetTableOrder)
			r.Get("/tables/{id}/events", a.handleTableEvents)

			r.Post("/orders", a.handleUpsertOrder)
			r.Post("/orders/{id}/finalize", a.handleFinalizeOrder)
			r.Put("/orders/{id}/finalize", a.handleFinalizeOrder)
			r.Post("/sales", a.handleDirectSale)

			r.Get("/shifts/active", a.handleActiveShift)
			r.Post("/shifts/open", a.handleOpenShift)
			r.Post("/shifts/close", a.handleCloseShift)
			r.Get("/banks", a.handleListBanks)

			r.Post("/timeclock/in", a.handleClockIn)
			r.Post("/timeclock/out", a.handleClockOut)

			r.Group(func(r chi.Router) {
				r.Use(requireRole(domain.RoleAdmin))

				r.Post("/categories", a.handleCreateCategory)
				r.Delete("/categories/{id}", a.handleDeleteCategory)
				r.Post("/products", a.handleCreateProduct)
				r.Put("/products/{id}", a.handleUpdateProduct)
				r.Delete("/products/{id}", a.handleDeleteProduct)
				r.Post("/tables", a.handleCreateTable)
				r.Put("/tables/{id}/layout", a.handleUpdateTableLayout)

				r.Get("/shifts", a.handleListShifts)
				r.Post("/banks", a.handleCreateBank)
				r.Put("/banks/{id}", a.handleUpdateBank)
				r.Post("/expenses", a.handleRegisterExpense)
				r.Get("/transactions", a.handleListTransactions)

				r.Get("/employees", a.handleListEmployees)
				r.Post("/employees", a.handleCreateEmployee)
				r.Delete("/employees/{id}", a.handleDeleteEmployee)

				r.Get("/dashboard/stats", a.handleDashboardStats)
				r.Get("/dashboard/sales-over-time", a.handleSalesOverTime)
				r.Get("/dashboard/top-products", a.handleTopProducts)
				r.Get("/audit-logs", a.handleAuditLogs)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}

func (a *API) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		startedAt := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(startedAt)),
		)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many login attempts")
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		a.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// fail maps a service error onto the HTTP error taxonomy.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, status, code, "internal server error")
		return
	}
	writeError(w, status, code, err.Error())
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, store.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, store.ErrShiftAlreadyOpen):
		return http.StatusConflict, "shift_already_open"
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, store.ErrInsufficientStock):
		return http.StatusUnprocessableEntity, "insufficient_stock"
	case errors.Is(err, store.ErrNoOpenShift):
		return http.StatusUnprocessableEntity, "no_open_shift"
	case errors.Is(err, store.ErrNoCashRegister):
		return http.StatusUnprocessableEntity, "no_cash_register"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

// decodeBody decodes a JSON request, answering 400 itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := decodeJSON(r, dest); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	return true
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
