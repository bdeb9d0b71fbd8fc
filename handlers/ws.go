package handlers

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
)

// WSHandler pushes refresh signals to clients watching a group, so open
// views re-fetch after another member mutates a gift.
type WSHandler struct {
	M *melody.Melody
}

func NewWSHandler() *WSHandler {
	m := melody.New()

	m.Config.MaxMessageSize = 1024 * 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleDisconnect(func(s *melody.Session) {
		groupID, _ := s.Get("group_id")
		slog.Debug("websocket client disconnected", "group_id", groupID)
	})

	m.HandleError(func(s *melody.Session, err error) {
		slog.Warn("websocket error", "error", err)
	})

	return &WSHandler{M: m}
}

func (h *WSHandler) HandleWS(c *gin.Context) {
	keys := map[string]interface{}{"group_id": c.Param("id")}

	if err := h.M.HandleRequestWithKeys(c.Writer, c.Request, keys); err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
	}
}

// BroadcastUpdate signals every session watching groupID.
func (h *WSHandler) BroadcastUpdate(groupID, updateType, userID string) {
	msg, err := json.Marshal(gin.H{"type": updateType, "user": userID})
	if err != nil {
		return
	}

	err = h.M.BroadcastFilter(msg, func(q *melody.Session) bool {
		id, exists := q.Get("group_id")
		return exists && id == groupID
	})
	if err != nil {
		slog.Warn("websocket broadcast failed", "group_id", groupID, "error", err)
	}
}
