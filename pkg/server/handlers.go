package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/pleader/pkg/client"
	"github.com/go-go-golems/pleader/pkg/conversation"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": s.now(),
	})
}

func (s *Server) send(w http.ResponseWriter, r *http.Request) {
	var req client.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeDetail(w, http.StatusBadRequest, "message is required")
		return
	}

	chatID := ""
	if req.ChatID != nil {
		chatID = *req.ChatID
	}
	// the user message is stamped before the assistant is asked
	userMessage := conversation.NewUserMessage(req.Message, s.now())

	res, err := s.messenger.SendMessage(r.Context(), req.Message, chatID)
	if err != nil {
		if conversation.Classify(err) == conversation.ErrorKindNotFound {
			writeDetail(w, http.StatusNotFound, "Chat not found")
			return
		}
		log.Error().Err(err).Msg("chat error")
		writeDetail(w, http.StatusInternalServerError, "Error generating response: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, client.SendResponse{
		ChatID:      res.ConversationID,
		UserMessage: client.MessageToWire(userMessage),
		AIMessage:   client.MessageToWire(res.AssistantMessage),
	})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	items, err := s.messenger.ListConversations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ret := make([]client.WireChat, 0, len(items))
	for _, item := range items {
		ret = append(ret, client.WireChat{
			ID:        item.ID,
			Title:     item.Title,
			UpdatedAt: item.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	chat, err := s.messenger.FetchConversation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client.ConversationToWire(chat))
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	if err := s.messenger.DeleteConversation(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat deleted successfully"})
}

func writeError(w http.ResponseWriter, err error) {
	switch conversation.Classify(err) {
	case conversation.ErrorKindNotFound:
		writeDetail(w, http.StatusNotFound, "Chat not found")
	case conversation.ErrorKindTransient:
		writeDetail(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, client.ErrorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("could not write response")
	}
}
