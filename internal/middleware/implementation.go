package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/akolanti/docqa/internal/adapter/utils"
	"github.com/akolanti/docqa/internal/handlers"
	"github.com/akolanti/docqa/pkg/logger_i"
)

const traceHeader = "X-Trace-Id"

func injectTrace(re requestResponseStruct) requestResponseStruct {
	req := re.req
	if req == nil {
		re.badRequest = failureStruct{isBadRequest: true, httpCode: http.StatusBadRequest, errorMessage: "request is empty"}
		return re
	}
	trace := req.Header.Get(traceHeader)
	if trace == "" {
		trace = utils.GetNewUUID()
	}
	re.logger = re.logger.With("traceId", trace)
	re.writer.Header().Set(traceHeader, trace)
	re.req = req.WithContext(logger_i.WithTraceID(req.Context(), trace))
	return re
}

func (m *Middleware) authenticate(re requestResponseStruct) requestResponseStruct {
	if m.authToken == "" {
		return re
	}
	if !IsValidBearerToken(re.req.Header.Get("Authorization"), m.authToken, re.logger) {
		re.badRequest = failureStruct{isBadRequest: true, httpCode: http.StatusUnauthorized, errorMessage: "Unauthorized"}
		return re
	}
	re.logger.Debug("Authorized")
	return re
}

func IsValidBearerToken(authHeader string, token string, log *logger_i.Logger) bool {
	if authHeader == "" {
		log.Warn("Empty authorization header")
		return false
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		log.Warn("No Bearer header")
		return false
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimPrefix(authHeader, "Bearer ")), []byte(token)) != 1 {
		log.Warn("Invalid authorization header")
		return false
	}
	return true
}

func (m *Middleware) rateLimiter(re requestResponseStruct) requestResponseStruct {
	if m.limiter == nil {
		return re
	}
	ip, _, err := net.SplitHostPort(re.req.RemoteAddr)
	if err != nil {
		ip = re.req.RemoteAddr
	}

	if !m.limiter.GetLimiter(ip).Allow() {
		re.logger.Warn("Rate limit exceeded", "ip", ip)
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusTooManyRequests,
			errorMessage: "Rate limit exceeded",
		}
	}
	return re
}

// handleBadRequest writes the failure and reports whether the request may
// continue.
func handleBadRequest(re requestResponseStruct) bool {
	if re.badRequest.isBadRequest {
		re.logger.Warn("Bad request", "httpCode", re.badRequest.httpCode, "errorMessage", re.badRequest.errorMessage, "IP", re.req.RemoteAddr)
		handlers.WriteErrorResponse(re.writer, re.badRequest.httpCode, "", re.badRequest.errorMessage)
		return false
	}
	return true
}
