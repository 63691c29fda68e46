package handlers

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/akolanti/docqa/internal/adapter"
	"github.com/akolanti/docqa/internal/adapter/utils"
	"github.com/akolanti/docqa/internal/api"
	"github.com/akolanti/docqa/internal/config"
	"github.com/akolanti/docqa/internal/domain/docModel"
	"github.com/akolanti/docqa/internal/domain/ragErrors"
)

// multipart framing on top of the file itself
const multipartOverhead = 1 << 20

// UploadDocument godoc
// @Summary      Upload a document into a collection
// @Description  Stores the file, records the document as uploading and queues its ingestion. Poll the document or the job for progress.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      string  true  "Collection ID"
// @Param        file  formData  file    true  "pdf, docx, doc, xlsx, xls, txt and whatever else is allowed"
// @Success      202   {object}  api.UploadResponse
// @Failure      400   {object}  api.ErrorResponse  "Missing file or extension not allowed"
// @Failure      404   {object}  api.ErrorResponse
// @Failure      413   {object}  api.ErrorResponse  "File too large"
// @Failure      503   {object}  api.ErrorResponse  "Ingestion queue is full"
// @Security     BearerAuth
// @Router       /collections/{id}/documents [post]
func (h *Handlers) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	collectionId := utils.GetChiURLParam(r, "id")
	log := h.logger.WithContext(r.Context()).With("collectionId", collectionId)

	if h.uploads.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.uploads.MaxBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(config.MaxMultipartMemory); err != nil {
		if statusFor(err) == http.StatusRequestEntityTooLarge {
			writeError(w, r, "", fmt.Errorf("file exceeds %d bytes: %w", h.uploads.MaxBytes, err))
			return
		}
		WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	fileReader, header, err := r.FormFile("file")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	filename := filepath.Base(header.Filename)
	if err := h.checkExtension(filename); err != nil {
		writeError(w, r, "", err)
		return
	}

	doc, err := h.rag.AddDocument(r.Context(), collectionId, filename, fileReader)
	if err != nil {
		writeError(w, r, "", err)
		return
	}
	j, err := h.jobs.SubmitIngest(r.Context(), doc)
	if err != nil {
		// not queued, so nothing would ever ingest it
		if delErr := h.rag.DeleteDocumentArtifacts(context.WithoutCancel(r.Context()), doc.Id); delErr != nil {
			log.Error("could not remove unqueued document", "documentId", doc.Id, "error", delErr)
		}
		writeError(w, r, "", err)
		return
	}
	log.Info("document queued for ingestion", "documentId", doc.Id, "jobId", j.Id)

	writeJsonResponse(w, http.StatusAccepted, api.UploadResponse{
		Document: doc,
		Job:      adapter.ToInitJobResponse(j.Id),
	})
}

func (h *Handlers) checkExtension(filename string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	allowed := false
	for _, a := range h.uploads.AllowedExtensions {
		if a == ext {
			allowed = true
			break
		}
	}
	if !allowed || (h.formats != nil && !h.formats.Supports(ext)) {
		return ragErrors.Newf(ragErrors.InvalidInput, "upload",
			"file type %q not allowed, allowed types: %s", ext, strings.Join(h.uploads.AllowedExtensions, ", "))
	}
	return nil
}

// ListDocuments godoc
// @Summary      List the documents of a collection
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Collection ID"
// @Success      200  {array}   docModel.Document
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /collections/{id}/documents [get]
func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	collectionId := utils.GetChiURLParam(r, "id")
	if _, err := h.collections.GetCollection(r.Context(), collectionId); err != nil {
		writeError(w, r, collectionId, err)
		return
	}
	docs, err := h.documents.ListDocuments(r.Context(), collectionId)
	if err != nil {
		writeError(w, r, collectionId, err)
		return
	}
	if docs == nil {
		docs = []docModel.Document{}
	}
	writeJsonResponse(w, http.StatusOK, docs)
}

// GetDocument godoc
// @Summary      Get a document and its ingestion status
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  docModel.Document
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id} [get]
func (h *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := utils.GetChiURLParam(r, "id")
	doc, err := h.documents.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, r, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, doc)
}

// DeleteDocument godoc
// @Summary      Delete a document with its vectors, chunks and upload
// @Description  Synchronous by default; async=true queues a job instead.
// @Tags         Documents
// @Produce      json
// @Param        id     path      string  true   "Document ID"
// @Param        async  query     bool    false  "Queue the deletion"
// @Success      200    {object}  api.DeleteResponse
// @Success      202    {object}  api.InitJobResponse
// @Failure      404    {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id} [delete]
func (h *Handlers) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := utils.GetChiURLParam(r, "id")
	doc, err := h.documents.GetDocument(r.Context(), id)
	if err != nil {
		writeError(w, r, id, err)
		return
	}

	if r.URL.Query().Get("async") == "true" {
		j, err := h.jobs.SubmitDeleteDocument(r.Context(), doc)
		if err != nil {
			writeError(w, r, id, err)
			return
		}
		writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(j.Id))
		return
	}
	if err := h.rag.DeleteDocumentArtifacts(r.Context(), id); err != nil {
		writeError(w, r, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.DeleteResponse{Id: id, Deleted: true})
}

// ListChunks godoc
// @Summary      List the persisted chunks of a document
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {array}   docModel.Chunk
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id}/chunks [get]
func (h *Handlers) ListChunks(w http.ResponseWriter, r *http.Request) {
	id := utils.GetChiURLParam(r, "id")
	if _, err := h.documents.GetDocument(r.Context(), id); err != nil {
		writeError(w, r, id, err)
		return
	}
	chunks, err := h.chunks.ListChunks(r.Context(), id)
	if err != nil {
		writeError(w, r, id, err)
		return
	}
	if chunks == nil {
		chunks = []docModel.Chunk{}
	}
	writeJsonResponse(w, http.StatusOK, chunks)
}
