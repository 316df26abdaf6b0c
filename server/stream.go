package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const streamWriteTimeout = time.Second * 10

// messageLogStreamRoute streams new events to the client over a WebSocket,
// with each event encoded as a JSON text message.
func (s *Server) messageLogStreamRoute(c *gin.Context) {
	wsConn, err := s.websocketUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade replies to the client so nothing else to do.
		s.logger.Warn("failed to upgrade websocket", zap.Error(err))
		return
	}
	defer wsConn.Close()

	events, unsubscribe := s.node.Events().Subscribe()
	defer unsubscribe()

	s.logger.Debug(
		"stream connected",
		zap.String("client-ip", c.ClientIP()),
	)
	defer s.logger.Debug(
		"stream disconnected",
		zap.String("client-ip", c.ClientIP()),
	)

	// The client doesn't send any messages, though we must read to process
	// control messages and detect when the client closes.
	closedCh := make(chan struct{})
	go func() {
		defer close(closedCh)
		for {
			if _, _, err := wsConn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			_ = wsConn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := wsConn.WriteJSON(e); err != nil {
				s.logger.Debug("stream write", zap.Error(err))
				return
			}
		case <-closedCh:
			return
		case <-s.shutdownCtx.Done():
			_ = wsConn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"),
				time.Now().Add(streamWriteTimeout),
			)
			return
		}
	}
}
