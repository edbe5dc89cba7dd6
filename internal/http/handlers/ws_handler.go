package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/beatmarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/beatmarket-backend/internal/logger"
	"github.com/ignatzorin/beatmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/beatmarket-backend/internal/service"
	"github.com/ignatzorin/beatmarket-backend/internal/ws"
)

// WSHandler отвечает за установку WebSocket соединений для уведомлений.
type WSHandler struct {
	hub      *ws.Hub
	tokens   *service.TokenManager
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

// NewWSHandler создаёт хэндлер. Пустой allowedOrigins разрешает любой origin (dev).
func NewWSHandler(hub *ws.Hub, tokens *service.TokenManager, allowedOrigins []string, log logrus.FieldLogger) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &WSHandler{
		hub:    hub,
		tokens: tokens,
		log:    logger.OrDefault(log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Handle обслуживает GET /api/ws?token=...
// Браузерный WebSocket не умеет слать заголовки, поэтому токен в query.
func (h *WSHandler) Handle(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		common.RespondAppError(c, apperror.New(apperror.ErrCodeUnauthorized, "access токен обязателен"))
		return
	}

	accountID, _, err := h.tokens.ParseAccess(rawToken)
	if err != nil || accountID == uuid.Nil {
		common.RespondAppError(c, apperror.New(apperror.ErrCodeUnauthorized, "невалидный access токен"))
		return
	}

	// Upgrade сам пишет ответ с ошибкой
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithField("account_id", accountID).WithError(err).Debug("websocket upgrade не удался")
		return
	}

	client := ws.NewClient(conn, h.hub, accountID)
	h.hub.Register(client)

	client.Run(c.Request.Context())
}
