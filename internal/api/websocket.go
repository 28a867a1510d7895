package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/wuwenbin0122/sqlassist/internal/chat"
	"github.com/wuwenbin0122/sqlassist/internal/sqlgen"
)

const maxClientMessageBytes = 16 * 1024

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 32 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsClientMessage struct {
	Type     string `json:"type"`
	Question string `json:"question"`
}

// handleChatWebsocket answers questions over a websocket, pushing a status
// event for each stage before the final reply.
func (h *Handler) handleChatWebsocket(c *gin.Context) {
	sessionID := c.GetString(sessionKey)

	// the upgrade response is written directly, so the session cookie has to
	// be passed along explicitly
	var header http.Header
	if cookies := c.Writer.Header().Values("Set-Cookie"); len(cookies) > 0 {
		header = http.Header{"Set-Cookie": cookies}
	}

	conn, err := chatUpgrader.Upgrade(c.Writer, c.Request, header)
	if err != nil {
		h.logger.Warnf("chat websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxClientMessageBytes)
	ctx := c.Request.Context()

	sendError := func(message string, detail error) {
		payload := gin.H{"type": "error", "error": message}
		if detail != nil {
			payload["details"] = detail.Error()
		}
		_ = conn.WriteJSON(payload)
	}

	for {
		var msg wsClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debugf("chat websocket closed: %v", err)
			}
			return
		}

		switch strings.ToLower(strings.TrimSpace(msg.Type)) {
		case "ask":
			reply, err := h.assistant.Ask(ctx, sessionID, msg.Question, func(stage chat.Stage, sql string) {
				_ = conn.WriteJSON(gin.H{"type": "status", "stage": stage, "sql": sql})
			})
			if err != nil {
				if errors.Is(err, sqlgen.ErrEmptyQuestion) {
					sendError(err.Error(), nil)
					continue
				}
				sendError("failed to answer question", err)
				continue
			}
			if err := conn.WriteJSON(gin.H{"type": "reply", "reply": reply}); err != nil {
				h.logger.Warnf("chat websocket write failed: %v", err)
				return
			}
		case "clear":
			h.assistant.Store().Clear(sessionID)
			_ = conn.WriteJSON(gin.H{"type": "cleared"})
		case "ping":
			_ = conn.WriteJSON(gin.H{"type": "pong"})
		default:
			sendError("unsupported message type", errors.New(msg.Type))
		}
	}
}
