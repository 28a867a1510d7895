package api

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/sqlassist/internal/chat"
	"github.com/wuwenbin0122/sqlassist/internal/session"
	"github.com/wuwenbin0122/sqlassist/internal/sqlgen"
)

const (
	sessionCookie = "sqlassist_session"
	sessionKey    = "sessionID"
)

//go:embed templates/*.html
var templateFS embed.FS

// Database is what the handlers need from the query database.
type Database interface {
	TableInfo(ctx context.Context) (string, error)
	Dialect() string
	Ping(ctx context.Context) error
}

type Handler struct {
	assistant *chat.Assistant
	signer    *session.Signer
	database  Database
	title     string
	logger    *zap.SugaredLogger
}

func NewHandler(assistant *chat.Assistant, signer *session.Signer, database Database, title string, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{assistant: assistant, signer: signer, database: database, title: title, logger: logger}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	router.GET("/health", h.handleHealth)
	router.GET("/", h.withSession, h.handleIndex)

	apiGroup := router.Group("/api", h.withSession)
	apiGroup.GET("/messages", h.handleListMessages)
	apiGroup.DELETE("/messages", h.handleClearMessages)
	apiGroup.POST("/chat", h.handleChat)
	apiGroup.GET("/chat/ws", h.handleChatWebsocket)
	apiGroup.GET("/schema", h.handleSchema)
}

type chatRequest struct {
	Question string `json:"question"`
}

func (h *Handler) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":       h.title,
		"Description": "This system translates Persian or English into secure T-SQL queries.",
		"Placeholder": "Ask about employees or salaries...",
	})
}

func (h *Handler) handleHealth(c *gin.Context) {
	status := http.StatusOK
	dbStatus := "ok"
	if h.database != nil {
		if err := h.database.Ping(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = err.Error()
		}
	}

	c.JSON(status, gin.H{
		"status":    http.StatusText(status),
		"database":  dbStatus,
		"sessions":  h.assistant.Store().Sessions(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleListMessages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"messages": h.assistant.Store().Messages(c.GetString(sessionKey)),
	})
}

func (h *Handler) handleClearMessages(c *gin.Context) {
	h.assistant.Store().Clear(c.GetString(sessionKey))
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid payload", err)
		return
	}

	reply, err := h.assistant.Ask(c.Request.Context(), c.GetString(sessionKey), req.Question, nil)
	if err != nil {
		switch {
		case errors.Is(err, sqlgen.ErrEmptyQuestion):
			writeError(c, http.StatusBadRequest, err.Error(), err)
		default:
			writeError(c, http.StatusInternalServerError, "failed to answer question", err)
		}
		return
	}

	c.JSON(http.StatusOK, reply)
}

func (h *Handler) handleSchema(c *gin.Context) {
	if h.database == nil {
		writeError(c, http.StatusServiceUnavailable, "database not configured", errors.New("no database"))
		return
	}

	schema, err := h.database.TableInfo(c.Request.Context())
	if err != nil {
		h.logger.Warnf("load schema failed: %v", err)
		writeError(c, http.StatusBadGateway, "failed to load schema", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"dialect": h.database.Dialect(),
		"schema":  schema,
	})
}

// withSession resolves the session cookie, issuing a new one when it is
// missing or no longer valid and re-signing it past half of its lifetime.
func (h *Handler) withSession(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil && token != "" {
		if id, renewed, err := h.signer.Refresh(token); err == nil {
			if renewed != "" {
				h.setSessionCookie(c, renewed)
			}
			c.Set(sessionKey, id)
			c.Next()
			return
		}
	}

	id, token, err := h.signer.Issue()
	if err != nil {
		writeError(c, http.StatusInternalServerError, "failed to start session", err)
		c.Abort()
		return
	}

	h.setSessionCookie(c, token)
	c.Set(sessionKey, id)
	c.Next()
}

func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(h.signer.TTL().Seconds()), "/", "", c.Request.TLS != nil, true)
}

func writeError(c *gin.Context, status int, message string, err error) {
	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
