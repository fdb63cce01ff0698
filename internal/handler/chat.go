package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/codehub/internal/assistant"
)

// ChatHandler relays chat messages to the configured assistant
type ChatHandler struct {
	client *assistant.Client
}

// NewChatHandler creates a new chat handler
func NewChatHandler(client *assistant.Client) *ChatHandler {
	return &ChatHandler{client: client}
}

// ChatRequest is one turn of a conversation
type ChatRequest struct {
	Messages []assistant.Message `json:"messages" binding:"required"`
	Stream   bool                `json:"stream"`
}

// Status reports whether chat is available
func (h *ChatHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"configured": h.client.IsConfigured(),
		"model":      h.client.Model(),
	})
}

// Chat sends the conversation and returns the reply. With stream set the
// reply is sent as server-sent events, one per fragment, ending with a
// "done" event.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages are required"})
		return
	}
	if !h.client.IsConfigured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": assistant.ErrNotConfigured.Error()})
		return
	}

	if !req.Stream {
		reply, err := h.client.Send(c.Request.Context(), req.Messages)
		if err != nil {
			c.JSON(chatStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"reply": reply})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	err := h.client.Stream(c.Request.Context(), req.Messages, func(fragment string) error {
		c.SSEvent("message", fragment)
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		c.SSEvent("error", err.Error())
		return
	}
	c.SSEvent("done", "")
}

func chatStatus(err error) int {
	var se *assistant.StatusError
	switch {
	case errors.As(err, &se):
		return http.StatusBadGateway
	case errors.Is(err, assistant.ErrNoResponse):
		return http.StatusBadGateway
	case errors.Is(err, assistant.ErrNotConfigured):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
