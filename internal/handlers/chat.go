package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-task-tracker/internal/chat"
	"github.com/yukikurage/team-task-tracker/internal/constants"
	"github.com/yukikurage/team-task-tracker/internal/dto"
	apierrors "github.com/yukikurage/team-task-tracker/internal/errors"
	"github.com/yukikurage/team-task-tracker/internal/middleware"
	"github.com/yukikurage/team-task-tracker/internal/models"
	"github.com/yukikurage/team-task-tracker/internal/services"
	"github.com/yukikurage/team-task-tracker/internal/utils"
)

const streamKeepAlive = 25 * time.Second

// ChatHandler exposes the messaging channel. Each mutating call answers with
// the resulting message as its acknowledgement.
type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Stream pushes chat events to the caller as server-sent events until the
// client disconnects.
func (h *ChatHandler) Stream(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	events, cancel := h.chatService.Subscribe(userID)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	// headers go out once the subscription exists
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, open := <-events:
			if !open {
				return false
			}
			c.SSEvent(ev.Type, eventPayload(ev))
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"time": time.Now().UTC()})
			return true
		}
	})
}

// LoadMessages returns the conversation with the user in the path
func (h *ChatHandler) LoadMessages(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}
	peerID, ok := middleware.GetIDParam(c, constants.ContextKeyTargetID)
	if !ok {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	params := utils.GetPaginationParams(c)
	messages, err := h.chatService.LoadMessages(c.Request.Context(), userID, peerID, params)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": dto.ToMessageDTOs(messages),
		"page":     params.Page,
		"limit":    params.Limit,
	})
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	type SendMessageRequest struct {
		ReceiverID flexID `json:"receiverId" binding:"required"`
		Content    string `json:"content" binding:"required"`
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "receiverId and content are required")
		return
	}

	msg, err := h.chatService.SendMessage(c.Request.Context(), userID, uint64(req.ReceiverID), req.Content)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToMessageDTO(*msg))
}

func (h *ChatHandler) EditMessage(c *gin.Context) {
	type EditMessageRequest struct {
		Content string `json:"content" binding:"required"`
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "content is required")
		return
	}

	msg, err := h.chatService.EditMessage(c.Request.Context(), userID, c.Param("id"), req.Content)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMessageDTO(*msg))
}

func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	messageID := c.Param("id")
	if err := h.chatService.DeleteMessage(c.Request.Context(), userID, messageID); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": messageID})
}

func (h *ChatHandler) MarkAsRead(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	msg, err := h.chatService.MarkAsRead(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMessageDTO(*msg))
}

func (h *ChatHandler) Typing(c *gin.Context) {
	type TypingRequest struct {
		ReceiverID flexID `json:"receiverId" binding:"required"`
		IsTyping   bool   `json:"isTyping"`
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req TypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "receiverId is required")
		return
	}

	if err := h.chatService.SetTyping(c.Request.Context(), userID, uint64(req.ReceiverID), req.IsTyping); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// eventPayload converts stored messages to their wire form
func eventPayload(ev chat.Event) interface{} {
	if msg, ok := ev.Payload.(*models.Message); ok {
		return dto.ToMessageDTO(*msg)
	}
	return ev.Payload
}
