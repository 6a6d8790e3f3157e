package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"

	"game-admin-server/internal/util"
)

// Fault is a transport-level failure signal. ConnectionID identifies
// the connection it belongs to; a fault with no connection id cannot
// be isolated and is escalated as fatal.
type Fault struct {
	ConnectionID string
	Cause        error
}

// ConnectionGuard consumes fault signals and tears down exactly the
// faulting connection, leaving every other connection untouched.
type ConnectionGuard struct {
	registry *ConnectionRegistry
	faults   chan Fault

	// fatalFn defaults to zap's Fatal; replaced in tests.
	fatalFn func(msg string, fields ...zap.Field)

	// onClosed is invoked after a connection is fully torn down.
	onClosed func(connID string, cause error)
}

func NewConnectionGuard(registry *ConnectionRegistry) *ConnectionGuard {
	return &ConnectionGuard{
		registry: registry,
		faults:   make(chan Fault, 64),
		fatalFn: func(msg string, fields ...zap.Field) {
			util.Get().Fatal(msg, fields...)
		},
	}
}

// Report queues a fault for handling. Never blocks the caller: if the
// guard is backlogged the fault is handled inline.
func (g *ConnectionGuard) Report(f Fault) {
	select {
	case g.faults <- f:
	default:
		g.handle(f)
	}
}

// Run processes faults until the context is cancelled.
func (g *ConnectionGuard) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-g.faults:
			g.handle(f)
		}
	}
}

func (g *ConnectionGuard) handle(f Fault) {
	if f.ConnectionID == "" {
		g.fatalFn("unattributed transport fault",
			util.ErrorField(f.Cause))
		return
	}

	conn, ok := g.registry.Get(f.ConnectionID)
	if !ok {
		// Already torn down; faults can race with normal disconnect.
		return
	}

	conn.transition(StateProblematic)
	util.Info("connection marked problematic",
		util.String("connection_id", f.ConnectionID),
		util.ErrorField(f.Cause))

	// Best-effort final error event before the socket goes away.
	msg := "connection terminated due to a transport fault"
	if f.Cause != nil {
		msg = f.Cause.Error()
	}
	if err := conn.write("connection_error", map[string]interface{}{
		"status":        "error",
		"error_code":    "TRANSPORT_FAULT",
		"error_type":    "TRANSPORT_FAULT",
		"message":       msg,
		"details":       map[string]interface{}{},
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"connection_id": f.ConnectionID,
		"event":         "disconnect",
	}); err != nil {
		util.Get().Debug("final error event not delivered",
			util.String("connection_id", f.ConnectionID),
			util.ErrorField(err))
	}

	conn.Close()
	g.registry.Remove(f.ConnectionID)

	if g.onClosed != nil {
		g.onClosed(f.ConnectionID, f.Cause)
	}
}
