package gateway

import (
	"context"
	"crypto/rand"
	"math/big"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"game-admin-server/internal/models"
	"game-admin-server/internal/service"
	"game-admin-server/internal/util"
)

// Server upgrades HTTP requests to websocket connections and runs one
// read loop per connection. Handlers run inline on the read loop, so
// events from a single connection are processed in receipt order while
// separate connections proceed independently.
type Server struct {
	registry *ConnectionRegistry
	guard    *ConnectionGuard
	router   *EventRouter
	audit    *service.AuditService
	upgrader websocket.Upgrader
}

func NewServer(registry *ConnectionRegistry, guard *ConnectionGuard, router *EventRouter, audit *service.AuditService) *Server {
	return &Server{
		registry: registry,
		guard:    guard,
		router:   router,
		audit:    audit,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Mobile clients connect from app contexts, not browsers.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS is the websocket entry point mounted on the HTTP router.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		util.Error("websocket upgrade failed", util.ErrorField(err))
		return
	}

	conn := newConn(uuid.NewString(), ws)
	s.registry.Add(conn)
	conn.transition(StateConnected)

	util.Info("client connected",
		util.String("connection_id", conn.ID),
		util.String("remote_addr", r.RemoteAddr),
		util.Int("active_connections", s.registry.Count()))

	defer func() {
		conn.Close()
		s.registry.Remove(conn.ID)
		util.Info("client disconnected",
			util.String("connection_id", conn.ID),
			util.Int("active_connections", s.registry.Count()))
	}()

	s.sendConnectResponse(r.Context(), conn)
	s.readLoop(r.Context(), conn)
}

// sendConnectResponse greets a fresh connection with a random token so
// the client can confirm bidirectional delivery before logging in.
func (s *Server) sendConnectResponse(ctx context.Context, conn *Conn) {
	token := randomGreetingToken()
	payload := map[string]interface{}{
		"status":        "connected",
		"connection_id": conn.ID,
		"token":         token,
		"message":       "connection established",
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	}
	if err := conn.Emit("connect_response", payload); err != nil {
		s.guard.Report(Fault{ConnectionID: conn.ID, Cause: err})
		return
	}
	s.audit.RecordConnect(ctx, &models.ConnectEvent{
		ConnectionID: conn.ID,
		Token:        token,
		Message:      "connection established",
		Status:       "connected",
	})
}

func (s *Server) readLoop(ctx context.Context, conn *Conn) {
	for {
		var msg inboundEvent
		if err := conn.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.guard.Report(Fault{ConnectionID: conn.ID, Cause: err})
			}
			return
		}
		if msg.Event == "" {
			continue
		}
		s.router.Dispatch(ctx, conn, msg)

		switch conn.State() {
		case StateProblematic, StateDisconnected:
			return
		}
	}
}

// randomGreetingToken returns a 6-digit number in [100000, 999999].
func randomGreetingToken() int {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return 100000
	}
	return int(n.Int64()) + 100000
}
