package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/insuregenie/internal/pkg/errcode"
	"github.com/xxxsen/insuregenie/internal/pkg/response"
	"github.com/xxxsen/insuregenie/internal/service"
)

// ChatAPI is implemented by service.ChatService.
type ChatAPI interface {
	Message(ctx context.Context, req service.ChatRequest) (*service.ChatReply, error)
}

type ChatHandler struct {
	chat ChatAPI
}

func NewChatHandler(chat ChatAPI) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Message   string `json:"message"`
	AssetID   string `json:"asset_id"`
	SessionID string `json:"session_id"`
}

func (h *ChatHandler) Message(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	reply, err := h.chat.Message(c.Request.Context(), service.ChatRequest{
		UserID:    getUserID(c),
		AssetID:   req.AssetID,
		Message:   req.Message,
		SessionID: req.SessionID,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, reply)
}
