package handlers

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akolanti/docqa/internal/adapter"
	"github.com/akolanti/docqa/internal/adapter/utils"
	"github.com/akolanti/docqa/internal/api"
	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
)

// CreateCollection godoc
// @Summary      Create a collection
// @Tags         Collections
// @Accept       json
// @Produce      json
// @Param        request  body      api.CollectionRequest  true  "Name and optional description"
// @Success      201      {object}  docModel.Collection
// @Failure      400      {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /collections [post]
func (h *Handlers) CreateCollection(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var req api.CollectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "", err)
		return
	}
	name, err := validCollectionName(req.Name)
	if err != nil {
		writeError(w, r, "", err)
		return
	}

	now := time.Now().UTC()
	col := docModel.Collection{
		Id:          utils.GetNewUUID(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.collections.CreateCollection(r.Context(), col); err != nil {
		writeError(w, r, "", err)
		return
	}
	h.logger.WithContext(r.Context()).Info("collection created", "collectionId", col.Id)
	writeJsonResponse(w, http.StatusCreated, col)
}

// ListCollections godoc
// @Summary      List collections with their document counts
// @Tags         Collections
// @Produce      json
// @Success      200  {array}  docModel.Collection
// @Security     BearerAuth
// @Router       /collections [get]
func (h *Handlers) ListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := h.collections.ListCollections(r.Context())
	if err != nil {
		writeError(w, r, "", err)
		return
	}
	if cols == nil {
		cols = []docModel.Collection{}
	}
	writeJsonResponse(w, http.StatusOK, cols)
}

// GetCollection godoc
// @Summary      Get a collection
// @Tags         Collections
// @Produce      json
// @Param        id   path      string  true  "Collection ID"
// @Success      200  {object}  docModel.Collection
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /collections/{id} [get]
func (h *Handlers) GetCollection(w http.ResponseWriter, r *http.Request) {
	id := utils.GetChiURLParam(r, "id")
	col, err := h.collections.GetCollection(r.Context(), id)
	if err != nil {
		writeError(w, r, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, col)
}

// UpdateCollection godoc
// @Summary      Rename or redescribe a collection
// @Tags         Collections
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Collection ID"
// @Param        request  body      api.CollectionRequest  true  "New name and description"
// @Success      200      {object}  docModel.Collection
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /collections/{id} [put]
func (h *Handlers) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	id := utils.GetChiURLParam(r, "id")
	var req api.CollectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, id, err)
		return
	}
	name, err := validCollectionName(req.Name)
	if err != nil {
		writeError(w, r, id, err)
		return
	}

	col, err := h.collections.GetCollection(r.Context(), id)
	if err != nil {
		writeError(w, r, id, err)
		return
	}
	col.Name = name
	col.Description = strings.TrimSpace(req.Description)
	col.UpdatedAt = time.Now().UTC()
	if err := h.collections.UpdateCollection(r.Context(), col); err != nil {
		writeError(w, r, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, col)
}

// DeleteCollection godoc
// @Summary      Delete a collection and everything in it
// @Description  Queues a background job removing vectors, documents, uploads and conversations.
// @Tags         Collections
// @Produce      json
// @Param        id   path      string  true  "Collection ID"
// @Success      202  {object}  api.InitJobResponse
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /collections/{id} [delete]
func (h *Handlers) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	id := utils.GetChiURLParam(r, "id")
	if _, err := h.collections.GetCollection(r.Context(), id); err != nil {
		writeError(w, r, id, err)
		return
	}
	j, err := h.jobs.SubmitDeleteCollection(r.Context(), id)
	if err != nil {
		writeError(w, r, id, err)
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(j.Id))
}

func validCollectionName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ragErrors.Newf(ragErrors.InvalidInput, "collection", "name is required")
	}
	if utf8.RuneCountInString(name) > config.CollectionNameMaxLength {
		return "", ragErrors.Newf(ragErrors.InvalidInput, "collection", "name is longer than %d characters", config.CollectionNameMaxLength)
	}
	return name, nil
}
