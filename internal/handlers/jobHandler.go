package handlers

import (
	"net/http"

	"github.com/akolanti/docqa/internal/adapter"
	"github.com/akolanti/docqa/internal/adapter/utils"
	"github.com/akolanti/docqa/internal/api"
)

// Health godoc
// @Summary      Liveness probe
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /health [get]
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{Status: "ok", Version: h.version})
}

// GetJobStatus godoc
// @Summary      Get background job status
// @Description  Ingestion and deletion run as jobs; poll here until COMPLETE or Error.
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /jobs/{id} [get]
func (h *Handlers) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	id := utils.GetChiURLParam(r, "id")
	result, isFound := h.jobs.GetJob(r.Context(), id)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, id, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// IndexStats godoc
// @Summary      Vector index statistics
// @Tags         Index
// @Produce      json
// @Success      200  {object}  api.IndexStatsResponse
// @Failure      503  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /index/stats [get]
func (h *Handlers) IndexStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.rag.IndexStats(r.Context())
	if err != nil {
		writeError(w, r, "", err)
		return
	}
	res := api.IndexStatsResponse{Index: stats}
	if h.usage != nil {
		res.Embeddings = h.usage()
	}
	writeJsonResponse(w, http.StatusOK, res)
}
