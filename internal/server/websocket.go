package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"stackmon/internal/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// CLI clients send no origin
		if origin == "" {
			return true
		}

		allowedOrigins := []string{
			"http://localhost",
			"https://localhost",
			"http://127.0.0.1",
			"https://127.0.0.1",
			"http://[::1]",
			"https://[::1]",
		}
		for _, allowed := range allowedOrigins {
			if origin == allowed || strings.HasPrefix(origin, allowed+":") {
				return true
			}
		}

		logger.WithFields(logger.Fields{
			"origin": origin,
			"remote": r.RemoteAddr,
		}).Warn("WebSocket connection rejected - invalid origin")
		return false
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleHealthStream godoc
// @Summary Health stream
// @Description WebSocket pushing the current snapshot, then every snapshot the monitor produces
// @Tags health
// @Success 101 {string} string "Switching Protocols"
// @Router /api/health/stream [get]
func (s *Server) handleHealthStream(c echo.Context) error {
	log := logger.GetLogger(c)

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already answered the request
		log.WithError(err).Warn("Failed to upgrade WebSocket connection")
		return nil
	}
	defer ws.Close()

	updates, unsubscribe := s.monitor.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// the client only ever closes; reading surfaces that
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(msg StreamMessage) bool {
		_ = ws.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := ws.WriteJSON(msg); err != nil {
			log.WithError(err).Debug("Health stream write failed")
			return false
		}
		return true
	}

	if status, err := s.monitor.Health(ctx); err != nil {
		if !send(StreamMessage{Type: "error", Error: err.Error()}) {
			return nil
		}
	} else if !send(StreamMessage{Type: "snapshot", Health: status}) {
		return nil
	}

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return nil
		case status, ok := <-updates:
			if !ok {
				return nil
			}
			if !send(StreamMessage{Type: "snapshot", Health: status}) {
				return nil
			}
		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return nil
			}
		}
	}
}
