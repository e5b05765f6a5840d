package proxy

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chat-client/internal/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleCable relays a websocket connection between the browser and the
// backend's cable endpoint, copying frames in both directions until either
// side closes.
func (s *Server) handleCable(c *gin.Context) {
	requestID := RequestIDFromGin(c)

	upstreamURL := *s.upstream
	switch upstreamURL.Scheme {
	case "https":
		upstreamURL.Scheme = "wss"
	default:
		upstreamURL.Scheme = "ws"
	}
	upstreamURL.Path = "/cable"
	upstreamURL.RawQuery = c.Request.URL.RawQuery

	backend, _, err := websocket.DefaultDialer.Dial(upstreamURL.String(), nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cable upstream dial failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "realtime upstream unreachable"})
		return
	}

	client, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		backend.Close()
		return
	}

	observability.IncWSRelay()
	s.emitter.Emit(c.Request.Context(), "INFO", "cable relay opened", requestID, nil)
	started := time.Now()

	done := make(chan struct{}, 2)
	go relayFrames(client, backend, done)
	go relayFrames(backend, client, done)

	<-done
	client.Close()
	backend.Close()
	<-done

	observability.DecWSRelay()
	s.emitter.Emit(c.Request.Context(), "INFO", "cable relay closed", requestID, nil)
	s.logger.Debug().Dur("duration", time.Since(started)).Msg("cable relay ended")
}

// relayFrames pumps frames from src to dst until src fails.
func relayFrames(src, dst *websocket.Conn, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()
	for {
		msgType, payload, err := src.ReadMessage()
		if err != nil {
			return
		}
		if err := dst.WriteMessage(msgType, payload); err != nil {
			return
		}
	}
}
