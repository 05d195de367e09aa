package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"courseboard/content"
)

// editorHeader distinguishes several editors open by one participation.
const editorHeader = "X-Editor-ID"

// ------------------- REST Handlers (JSON) -------------------

// previewHandler renders unsaved content for the bearer viewer. Requests
// from the same editor supersede each other.
func previewHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := requireViewer(w, r, mux.Vars(r)["course"])
	if !ok {
		return
	}

	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rc := content.Context{Course: v.Course, Participation: v.Participation}
	if conv := strings.TrimSpace(req.Conversation); conv != "" {
		conversation, ok := visibleConversation(w, r, v, conv)
		if !ok {
			return
		}
		rc.Conversation = conversation
	}

	channel := previews.channel(previewKey(v, r.Header.Get(editorHeader)))
	res, err := channel.Submit(r.Context(), req.Content, rc)
	if err != nil {
		respondRenderError(w, err)
		return
	}
	respondJSON(w, newRenderResponse(res))
}

// messageHandler renders a stored message for the bearer viewer.
func messageHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	v, ok := requireViewer(w, r, vars["course"])
	if !ok {
		return
	}
	conversation, ok := visibleConversation(w, r, v, vars["conversation"])
	if !ok {
		return
	}

	message, err := store.Message(r.Context(), conversation.ID, vars["message"])
	if err != nil && !errors.Is(err, content.ErrNotFound) {
		log.WithError(err).Error("Failed to load message")
		http.Error(w, "Failed to load message", http.StatusInternalServerError)
		return
	}
	if message == nil || !content.MessageVisibleTo(message, v.Participation) {
		http.Error(w, "Message not found", http.StatusNotFound)
		return
	}

	res, err := cache.Render(r.Context(), message.Content, content.Context{
		Course:        v.Course,
		Participation: v.Participation,
		Conversation:  conversation,
		Message:       message,
	})
	if err != nil {
		respondRenderError(w, err)
		return
	}
	respondJSON(w, newRenderResponse(res))
}

// visibleConversation loads a conversation of the viewer's course, hiding
// the ones the viewer may not see behind a 404.
func visibleConversation(w http.ResponseWriter, r *http.Request, v *viewer, publicID string) (*content.Conversation, bool) {
	conversation, err := store.Conversation(r.Context(), v.Course.ID, publicID)
	if err != nil && !errors.Is(err, content.ErrNotFound) {
		log.WithError(err).Error("Failed to load conversation")
		http.Error(w, "Failed to load conversation", http.StatusInternalServerError)
		return nil, false
	}
	if conversation == nil || !content.ConversationVisibleTo(conversation, v.Participation) {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return nil, false
	}
	return conversation, true
}

// highlightCSSHandler serves the stylesheet for highlighted code blocks.
func highlightCSSHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(highlightCSS))
}
