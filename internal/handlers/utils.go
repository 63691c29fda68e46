package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/akolanti/docqa/internal/adapter"
	"github.com/akolanti/docqa/internal/data/blobStore"
	"github.com/akolanti/docqa/internal/domain/jobModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
	"github.com/akolanti/docqa/pkg/logger_i"
)

var utilLogger = logger_i.NewLogger("Handlers")

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are gone, nothing left but logging
		utilLogger.Error("Error encoding response", "error", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, message string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, message, httpCode))
}

func writeError(w http.ResponseWriter, r *http.Request, id string, err error) {
	code := statusFor(err)
	log := utilLogger.WithContext(r.Context()).With("path", r.URL.Path, "status", code)
	if code >= 500 {
		log.Error("request failed", "error", err)
	} else {
		log.Debug("request rejected", "error", err)
	}
	writeJsonResponse(w, code, adapter.FromError(id, err, code))
}

func statusFor(err error) int {
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, blobStore.ErrTooLarge), errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, jobModel.ErrQueueFull):
		return http.StatusServiceUnavailable
	}
	switch ragErrors.KindOf(err) {
	case ragErrors.NotFound:
		return http.StatusNotFound
	case ragErrors.InvalidInput:
		return http.StatusBadRequest
	case ragErrors.UnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case ragErrors.VectorStoreUnavailable, ragErrors.EmbeddingUnavailable, ragErrors.GenerationUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return ragErrors.New(ragErrors.InvalidInput, "decode request", err)
	}
	return nil
}

func validateContext(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		utilLogger.WithContext(ctx).Warn("context error", "error", err)
		return false
	}
	return true
}
