package httpx

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/splax/accountsvc/internal/domain"
	"github.com/splax/accountsvc/internal/repository"
)

const (
	serviceName    = "Account REST API Service"
	serviceVersion = "1.0"
)

// Options tunes router behavior that varies by environment.
type Options struct {
	// ForceHTTPS redirects plain HTTP callers to the TLS endpoint.
	ForceHTTPS bool
	// RateLimit caps requests per client per window; zero disables limiting.
	RateLimit int
	// RateWindow is the fixed limiter window.
	RateWindow time.Duration
}

// Router wires HTTP endpoints to the account store.
type Router struct {
	mux     *chi.Mux
	logger  *slog.Logger
	store   repository.Store
	limiter RateLimiter
	opts    Options

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

// NewRouter assembles routes and middleware around the store. A nil limiter
// falls back to the in-memory implementation when limiting is enabled.
func NewRouter(logger *slog.Logger, store repository.Store, limiter RateLimiter, opts Options) *Router {
	r := &Router{
		mux:     chi.NewRouter(),
		logger:  logger,
		store:   store,
		limiter: limiter,
		opts:    opts,
	}
	if r.limiter == nil && opts.RateLimit > 0 {
		r.limiter = NewMemoryRateLimiter()
	}
	r.register()
	return r
}

// ServeHTTP delegates to the underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.initMetrics()

	r.mux.Use(r.requestID)
	r.mux.Use(r.audit)
	r.mux.Use(r.instrument)
	r.mux.Use(r.securityHeaders)
	r.mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if r.opts.ForceHTTPS {
		r.mux.Use(r.httpsRedirect)
	}
	if r.opts.RateLimit > 0 {
		r.mux.Use(r.withRateLimit)
	}
	r.mux.Use(r.recoverPanics)

	r.mux.NotFound(r.notFound)
	r.mux.MethodNotAllowed(r.methodNotAllowed)

	r.mux.Get("/", r.handleIndex)
	r.mux.Get("/health", r.handleHealth)
	r.mux.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.mux.Post("/accounts", r.handleCreate)
	r.mux.Get("/accounts", r.handleList)
	r.mux.Get("/accounts/{id}", r.handleGet)
	r.mux.Put("/accounts/{id}", r.handleUpdate)
	r.mux.Delete("/accounts/{id}", r.handleDelete)
}

func (r *Router) handleIndex(w http.ResponseWriter, req *http.Request) {
	r.writeJSON(w, http.StatusOK, map[string]string{
		"name":    serviceName,
		"version": serviceVersion,
	})
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	r.writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (r *Router) handleCreate(w http.ResponseWriter, req *http.Request) {
	if !isJSONRequest(req) {
		r.writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	account, err := domain.ParseAccount(req.Body)
	if err != nil {
		r.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	account.ApplyDefaults(time.Now())
	if err := r.store.Create(req.Context(), &account); err != nil {
		r.respondStoreError(w, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/accounts/%d", account.ID))
	r.writeJSON(w, http.StatusCreated, account)
}

func (r *Router) handleList(w http.ResponseWriter, req *http.Request) {
	accounts, err := r.store.List(req.Context())
	if err != nil {
		r.respondStoreError(w, err)
		return
	}
	r.writeJSON(w, http.StatusOK, accounts)
}

func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) {
	id, ok := r.accountID(w, req)
	if !ok {
		return
	}
	account, err := r.store.Get(req.Context(), id)
	if err != nil {
		r.respondStoreError(w, err)
		return
	}
	r.writeJSON(w, http.StatusOK, account)
}

func (r *Router) handleUpdate(w http.ResponseWriter, req *http.Request) {
	id, ok := r.accountID(w, req)
	if !ok {
		return
	}
	account, err := domain.ParseAccount(req.Body)
	if err != nil {
		r.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	account.ID = id
	account.ApplyDefaults(time.Now())
	if err := r.store.Update(req.Context(), &account); err != nil {
		r.respondStoreError(w, err)
		return
	}
	r.writeJSON(w, http.StatusOK, account)
}

func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) {
	id, ok := r.accountID(w, req)
	if !ok {
		return
	}
	if err := r.store.Delete(req.Context(), id); err != nil {
		r.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// accountID extracts the {id} path parameter. Ids that do not parse as
// positive integers name no resource, so the reply is 404 rather than 400.
func (r *Router) accountID(w http.ResponseWriter, req *http.Request) (int64, bool) {
	raw := chi.URLParam(req, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		r.notFound(w, req)
		return 0, false
	}
	return id, true
}

func (r *Router) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		r.writeError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, domain.ErrValidation):
		r.writeError(w, http.StatusBadRequest, err.Error())
	default:
		r.logger.Error("store operation failed", "error", err)
		r.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (r *Router) notFound(w http.ResponseWriter, _ *http.Request) {
	r.writeError(w, http.StatusNotFound, "not found")
}

func (r *Router) methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	r.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func isJSONRequest(req *http.Request) bool {
	ct := req.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}

type contextKey string

const requestIDKey contextKey = "request_id"

// requestID tags each request with an identifier, echoing one supplied by
// the caller when present.
func (r *Router) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := strings.TrimSpace(req.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, req.WithContext(context.WithValue(req.Context(), requestIDKey, id)))
	})
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (r *Router) audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := requestIDFromContext(req.Context()); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	})
}

func (r *Router) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				r.logger.Error("panic recovered", "path", req.URL.Path, "panic", rec)
				r.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, req)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}
