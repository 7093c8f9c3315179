package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/anonchat/internal/app/orch"
	"github.com/dkeye/anonchat/internal/app/stats"
	"github.com/dkeye/anonchat/internal/domain"
)

type passwordBody struct {
	Password string `json:"password"`
}

// suppliedPassword picks the admin password from the header, the JSON body or
// the query string, in that order.
func suppliedPassword(c *gin.Context) string {
	if p := c.GetHeader("X-Admin-Password"); p != "" {
		return p
	}
	if c.Request.ContentLength != 0 && c.ContentType() == binding.MIMEJSON {
		var body passwordBody
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err == nil && body.Password != "" {
			return body.Password
		}
	}
	return c.Query("password")
}

// AdminAuth guards the global admin surface with a shared password.
// An unset password is a server fault, not a credential mismatch.
func AdminAuth(password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if password == "" {
			log.Error().Str("module", "adapters.http").Str("path", c.FullPath()).Msg("admin password not configured")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Admin access is not configured."})
			return
		}
		got := suppliedPassword(c)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(password)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid admin password."})
			return
		}
		c.Next()
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrLocked), errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": domain.PublicMessage(err)})
}

type handlers struct {
	orch    *orch.Orchestrator
	started time.Time
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "uptime": time.Since(h.started).Seconds()})
}

type publicRoom struct {
	ID           domain.RoomID `json:"id"`
	UserCount    int           `json:"userCount"`
	Users        []string      `json:"users"`
	Locked       bool          `json:"locked"`
	AIEnabled    bool          `json:"enableAI"`
	MessageCount int           `json:"messageCount"`
	CreatedAt    int64         `json:"createdAt"`
}

func (h *handlers) roomInfo(c *gin.Context) {
	snap, err := h.orch.RoomInfo(c.Param("roomId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, publicRoom{
		ID:           snap.ID,
		UserCount:    snap.UserCount,
		Users:        snap.Users,
		Locked:       snap.Locked,
		AIEnabled:    snap.AIEnabled,
		MessageCount: snap.MessageCount,
		CreatedAt:    snap.CreatedAt,
	})
}

func (h *handlers) listRooms(c *gin.Context) {
	rooms := h.orch.RoomList()
	c.JSON(http.StatusOK, gin.H{"rooms": rooms, "total": len(rooms)})
}

func (h *handlers) deleteRoom(c *gin.Context) {
	id := c.Param("roomId")
	if err := h.orch.EvictRoom(id); err != nil {
		fail(c, err)
		return
	}
	log.Info().Str("module", "adapters.http").Str("room", id).Msg("room deleted by global admin")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Room " + id + " deleted."})
}

func (h *handlers) stats(c *gin.Context) {
	c.JSON(http.StatusOK, stats.Aggregate(h.orch.RoomList(), h.started))
}

type broadcastRequest struct {
	Message string `json:"message"`
}

func (h *handlers) broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required."})
		return
	}
	sent, err := h.orch.BroadcastAll(req.Message)
	if errors.Is(err, domain.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required."})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Broadcast sent.", "sentTo": sent})
}

func (h *handlers) messages(c *gin.Context) {
	limit := orch.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit."})
			return
		}
		limit = n
	}
	msgs, total, err := h.orch.History(c.Param("roomId"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs, "total": total})
}

func (h *handlers) deleteMessage(c *gin.Context) {
	if err := h.orch.PurgeMessage(c.Param("roomId"), c.Param("messageId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *handlers) clearMessages(c *gin.Context) {
	if err := h.orch.PurgeChat(c.Param("roomId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Chat cleared."})
}
