package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/promoter-admin-go/internal/models"
	"github.com/promoter-admin-go/internal/storage"
	"github.com/sirupsen/logrus"
)

// MessagesHandler is the bot's write path into the conversation log.
type MessagesHandler struct {
	convs  *storage.ConversationStore
	logger *logrus.Logger
}

func NewMessagesHandler(convs *storage.ConversationStore, logger *logrus.Logger) *MessagesHandler {
	return &MessagesHandler{convs: convs, logger: logger}
}

type createMessageRequest struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// Create appends one conversation entry.
func (h *MessagesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "content is required")
		return
	}
	if req.UserID == "" {
		req.UserID = "unknown"
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if req.Role != models.RoleUser && req.Role != models.RoleAssistant {
		respondError(w, http.StatusBadRequest, "role must be user or assistant")
		return
	}

	conv := &models.Conversation{
		UserID:  req.UserID,
		Role:    req.Role,
		Content: req.Content,
	}
	if req.CreatedAt != "" {
		if t, err := parseTimestamp(req.CreatedAt); err == nil {
			conv.CreatedAt = t
		}
	}

	if err := h.convs.Insert(r.Context(), conv); err != nil {
		h.logger.WithError(err).Error("Failed to insert conversation entry")
		respondError(w, http.StatusInternalServerError, "failed to store message")
		return
	}
	respondJSON(w, http.StatusCreated, conv)
}
