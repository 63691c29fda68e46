package middleware

import (
	"net/http"
	"time"

	"github.com/akolanti/docqa/internal/metrics"
	"github.com/akolanti/docqa/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

type Middleware struct {
	authToken string
	limiter   *IPRateLimiter
	logger    *logger_i.Logger
}

// New with an empty authToken disables authentication; a nil limiter
// disables rate limiting.
func New(authToken string, limiter *IPRateLimiter) *Middleware {
	m := &Middleware{
		authToken: authToken,
		limiter:   limiter,
		logger:    logger_i.NewLogger("middleware"),
	}
	if authToken == "" {
		m.logger.Warn("AUTH_TOKEN is empty, requests are not authenticated")
	}
	return m
}

// Wrap runs trace injection, authentication and rate limiting before next,
// then records the response status against the route pattern.
func (m *Middleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		re := m.processRequest(requestResponseStruct{req: r, writer: rec})
		if !handleBadRequest(re) {
			metrics.CaptureHttpRequest(routePattern(re.req), rec.Status, time.Since(start))
			return
		}

		next(rec, re.req)

		metrics.CaptureHttpRequest(routePattern(re.req), rec.Status, time.Since(start))
		re.logger.Debug("request served", "status", rec.Status, "took", time.Since(start))
	}
}

// Public skips authentication, for health and docs.
func (m *Middleware) Public(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		re := injectTrace(requestResponseStruct{req: r, writer: w, logger: m.logger})
		if !handleBadRequest(re) {
			return
		}
		next(w, re.req)
	}
}

func (m *Middleware) processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = m.logger
	re = injectTrace(re)
	if re.badRequest.isBadRequest {
		return re
	}
	re.logger.Debug("New request received", "method", re.req.Method, "path", re.req.URL.Path)

	re = m.authenticate(re)
	if re.badRequest.isBadRequest {
		return re
	}
	return m.rateLimiter(re)
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
