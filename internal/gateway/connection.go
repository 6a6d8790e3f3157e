package gateway

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"game-admin-server/internal/util"
)

// ConnState tracks where a connection is in its lifecycle.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateConnected
	StateAuthenticating
	StateAuthenticated
	StateProblematic
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateProblematic:
		return "problematic"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

var ErrConnClosed = errors.New("connection is closed")

// outboundEvent is the wire frame for server-to-client named events.
type outboundEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// inboundEvent is the wire frame for client-to-server named events.
type inboundEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Conn wraps a websocket connection with lifecycle state and a
// serialized write path. All writes go through Emit.
type Conn struct {
	ID          string
	ConnectedAt time.Time

	ws     *websocket.Conn
	state  atomic.Int32
	closed atomic.Bool

	writeMu sync.Mutex

	mu           sync.Mutex
	mobileNo     string
	userID       string
	sessionToken string
}

func newConn(id string, ws *websocket.Conn) *Conn {
	c := &Conn{
		ID:          id,
		ConnectedAt: time.Now().UTC(),
		ws:          ws,
	}
	c.state.Store(int32(StateConnecting))
	return c
}

func (c *Conn) State() ConnState {
	return ConnState(c.state.Load())
}

// transition moves the connection forward through its lifecycle.
// Problematic and Disconnected are terminal for routing purposes: once
// entered, no other state can replace them except Disconnected itself.
func (c *Conn) transition(to ConnState) bool {
	for {
		cur := c.state.Load()
		switch ConnState(cur) {
		case StateDisconnected:
			return false
		case StateProblematic:
			if to != StateDisconnected {
				return false
			}
		}
		if c.state.CompareAndSwap(cur, int32(to)) {
			return true
		}
	}
}

// BindSession records the login session a connection is verifying.
func (c *Conn) BindSession(mobileNo, sessionToken string) {
	c.mu.Lock()
	c.mobileNo = mobileNo
	c.sessionToken = sessionToken
	c.mu.Unlock()
}

// BindUser records the authenticated identity after OTP verification.
func (c *Conn) BindUser(userID, mobileNo string) {
	c.mu.Lock()
	c.userID = userID
	c.mobileNo = mobileNo
	c.mu.Unlock()
}

func (c *Conn) Session() (mobileNo, sessionToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mobileNo, c.sessionToken
}

func (c *Conn) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Conn) Authenticated() bool {
	return c.State() == StateAuthenticated
}

// Emit writes a named event to the client. Routable states only; a
// problematic or disconnected connection rejects further emission.
func (c *Conn) Emit(event string, data interface{}) error {
	if c.closed.Load() {
		return ErrConnClosed
	}
	switch c.State() {
	case StateProblematic, StateDisconnected:
		return ErrConnClosed
	}
	return c.write(event, data)
}

// write bypasses the state check so the guard can deliver a final
// error event to a connection already marked problematic.
func (c *Conn) write(event string, data interface{}) error {
	if c.closed.Load() {
		return ErrConnClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.ws.WriteJSON(outboundEvent{Event: event, Data: data})
}

// Close terminates the underlying socket exactly once.
func (c *Conn) Close() {
	if c.closed.CompareAndSwap(false, true) {
		c.transition(StateDisconnected)
		if err := c.ws.Close(); err != nil {
			util.Get().Debug("websocket close",
				util.String("connection_id", c.ID),
				util.ErrorField(err))
		}
	}
}

// ConnectionRegistry tracks every live connection by id.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{conns: make(map[string]*Conn)}
}

func (r *ConnectionRegistry) Add(c *Conn) {
	r.mu.Lock()
	r.conns[c.ID] = c
	r.mu.Unlock()
}

func (r *ConnectionRegistry) Remove(id string) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
}

func (r *ConnectionRegistry) Get(id string) (*Conn, bool) {
	r.mu.RLock()
	c, ok := r.conns[id]
	r.mu.RUnlock()
	return c, ok
}

func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CloseAll tears down every live connection, used on shutdown.
func (r *ConnectionRegistry) CloseAll() {
	r.mu.Lock()
	conns := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.conns = make(map[string]*Conn)
	r.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
