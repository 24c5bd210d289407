package hub

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// StreamConfig tunes the websocket transport for observers.
type StreamConfig struct {
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
}

func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		PingInterval:   30 * time.Second,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		MaxMessageSize: 4096,
	}
}

// StreamServer binds websocket observers to hub subscriptions.
type StreamServer struct {
	hub      *Hub
	cfg      StreamConfig
	upgrader websocket.Upgrader
}

func NewStreamServer(h *Hub, cfg StreamConfig) *StreamServer {
	return &StreamServer{
		hub: h,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and streams tenantID's events until either side
// goes away. Inbound frames are only used as keep-alives.
func (s *StreamServer) Serve(w http.ResponseWriter, r *http.Request, tenantID string) error {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("tenant_id", tenantID).Msg("Failed to upgrade websocket")
		return err
	}
	ws.SetReadLimit(s.cfg.MaxMessageSize)

	conn := s.hub.Subscribe(tenantID)
	go s.writePump(ws, conn)
	go s.readPump(ws, conn)
	return nil
}

func (s *StreamServer) readPump(ws *websocket.Conn, conn *Connection) {
	defer func() {
		s.hub.Unsubscribe(conn)
		ws.Close()
	}()

	ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Info().Err(err).Str("connection_id", conn.ID).Msg("Observer connection lost")
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}
}

func (s *StreamServer) writePump(ws *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		s.hub.Unsubscribe(conn)
		ws.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Messages():
			ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Info().Err(err).Str("connection_id", conn.ID).Msg("Failed to write to observer")
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
