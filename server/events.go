package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Access is checked by the auth and workspace middlewares
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleEvents streams the workspace's change events over a websocket
func (s *Server) handleEvents(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", logger.F("error", err.Error()))
		return nil
	}

	ws := workspace(c)
	sessionID, _ := c.Get(ctxSessionID).(string)
	logger.Debug("Subscriber connected", logger.F("workspace", ws.ID), logger.F("user", userID(c)))
	realtime.NewClient(s.hub, conn, ws.ID, userID(c), sessionID).Serve()
	return nil
}
