package handlers

import (
	"net/http"

	"github.com/akolanti/docqa/internal/adapter"
	"github.com/akolanti/docqa/internal/adapter/utils"
	"github.com/akolanti/docqa/internal/api"
	"github.com/akolanti/docqa/internal/domain/docModel"
)

// Query godoc
// @Summary      Ask a question against a collection
// @Description  Answers synchronously. Upstream failures still return 200 with success=false and an apology; the error field names the cause.
// @Tags         Query
// @Accept       json
// @Produce      json
// @Param        id       path      string            true  "Collection ID"
// @Param        request  body      api.QueryRequest  true  "Question, optional conversation id and top_k"
// @Success      200      {object}  rag.AnswerResult
// @Failure      400      {object}  api.ErrorResponse  "Empty question"
// @Failure      404      {object}  api.ErrorResponse  "Unknown collection or conversation"
// @Security     BearerAuth
// @Router       /collections/{id}/query [post]
func (h *Handlers) Query(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	collectionId := utils.GetChiURLParam(r, "id")
	var req api.QueryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, collectionId, err)
		return
	}

	res, err := h.rag.Query(r.Context(), adapter.ToQueryRequest(collectionId, req))
	if err != nil {
		writeError(w, r, collectionId, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, res)
}

// ListConversations godoc
// @Summary      List the conversations of a collection, newest first
// @Tags         Conversations
// @Produce      json
// @Param        id   path      string  true  "Collection ID"
// @Success      200  {array}   docModel.Conversation
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /collections/{id}/conversations [get]
func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	collectionId := utils.GetChiURLParam(r, "id")
	if _, err := h.collections.GetCollection(r.Context(), collectionId); err != nil {
		writeError(w, r, collectionId, err)
		return
	}
	convs, err := h.conversations.ListConversations(r.Context(), collectionId)
	if err != nil {
		writeError(w, r, collectionId, err)
		return
	}
	if convs == nil {
		convs = []docModel.Conversation{}
	}
	writeJsonResponse(w, http.StatusOK, convs)
}

// GetConversation godoc
// @Summary      Get a conversation with its stored messages
// @Tags         Conversations
// @Produce      json
// @Param        id   path      string  true  "Conversation ID"
// @Success      200  {object}  api.ConversationResponse
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /conversations/{id} [get]
func (h *Handlers) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := utils.GetChiURLParam(r, "id")
	conv, err := h.conversations.GetConversation(r.Context(), id)
	if err != nil {
		writeError(w, r, id, err)
		return
	}
	msgs, err := h.conversations.History(r.Context(), id, 0)
	if err != nil {
		writeError(w, r, id, err)
		return
	}
	if msgs == nil {
		msgs = []docModel.Message{}
	}
	writeJsonResponse(w, http.StatusOK, api.ConversationResponse{Conversation: conv, Messages: msgs})
}

// DeleteConversation godoc
// @Summary      Clear a conversation
// @Tags         Conversations
// @Produce      json
// @Param        id   path      string  true  "Conversation ID"
// @Success      200  {object}  api.DeleteResponse
// @Failure      404  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /conversations/{id} [delete]
func (h *Handlers) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := utils.GetChiURLParam(r, "id")
	if err := h.conversations.DeleteConversation(r.Context(), id); err != nil {
		writeError(w, r, id, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.DeleteResponse{Id: id, Deleted: true})
}
