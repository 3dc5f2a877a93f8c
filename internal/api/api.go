// internal/api/api.go
//
// HTTP surface of the uuid daemon.
//
// Routes
// ------
//   GET /uuid/{id}  – resolved envelope as JSON.  id must be a positive
//                     integer; anything else is 404 without a query.
//   GET /healthz    – pings the pool; 200 "ok" or 503.
//   GET /metrics    – Prometheus exposition.
//
// Context
// -------
// Every resolution failure answers 404 with an empty body.  The cause is
// logged (store errors at error level) and counted, never returned, so
// callers cannot tell a missing id from a broken database.
//
// Middleware order: request info → security headers → access counter.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/contentdb/internal/metrics"
	"github.com/yanizio/contentdb/internal/middleware"
	"github.com/yanizio/contentdb/internal/requestinfo"
	"github.com/yanizio/contentdb/internal/uuid"
)

// Resolver is the part of *uuid.Engine the handlers need.
type Resolver interface {
	Resolve(ctx context.Context, id int) (*uuid.Uuid, error)
}

// Pinger reports store health.  *sqlx.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

// NewRouter wires the routes.  enricher may be nil, in which case every
// caller is classed "other".
func NewRouter(res Resolver, db Pinger, enricher *requestinfo.Enricher) http.Handler {
	r := chi.NewRouter()

	if enricher != nil {
		r.Use(enricher.Middleware)
	}
	r.Use(middleware.Security)
	r.Use(countRequests)
	r.Use(chimw.Recoverer)

	r.Get("/uuid/{id:[1-9][0-9]*}", uuidHandler(res))
	r.Get("/healthz", healthHandler(db))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	return r
}

/*──────────────────────────── handlers ─────────────────────────────────────*/

func uuidHandler(res Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The route pattern guarantees digits; Atoi can still overflow.
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		u, err := res.Resolve(r.Context(), id)
		if err != nil {
			logFailure(r, id, err)
			w.WriteHeader(http.StatusNotFound)
			return
		}

		body, err := json.Marshal(u)
		if err != nil {
			zap.L().Error("uuid encode failed", zap.Int("id", id), zap.Error(err))
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

func logFailure(r *http.Request, id int, err error) {
	fields := []zap.Field{
		zap.Int("id", id),
		zap.String("outcome", uuid.Outcome(err)),
		zap.String("client", requestinfo.FromContext(r.Context()).Client()),
		zap.Error(err),
	}

	var se *uuid.StoreError
	switch {
	case errors.As(err, &se):
		zap.L().Error("uuid store error", fields...)
	case errors.Is(err, uuid.ErrInvalidDiscriminator):
		zap.L().Warn("uuid has invalid discriminator", fields...)
	default:
		zap.L().Debug("uuid not resolved", fields...)
	}
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := db.PingContext(ctx); err != nil {
			zap.L().Warn("health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unavailable"))
			return
		}
		_, _ = w.Write([]byte("ok"))
	}
}

/*──────────────────────────── access counter ───────────────────────────────*/

// countRequests increments metrics.HTTPRequestsTotal by route pattern,
// status, and client class.  Unmatched paths share the "unmatched" route
// so scanners cannot blow up label cardinality.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.HTTPRequestsTotal.WithLabelValues(
			route,
			strconv.Itoa(status),
			requestinfo.FromContext(r.Context()).Client(),
		).Inc()
	})
}
