package gateway

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConnStateTransitions(t *testing.T) {
	c := &Conn{}
	assert.Equal(t, StateConnecting, c.State())

	assert.True(t, c.transition(StateConnected))
	assert.True(t, c.transition(StateAuthenticating))
	assert.True(t, c.transition(StateAuthenticated))

	// Problematic can be entered from any routable state.
	assert.True(t, c.transition(StateProblematic))

	// A problematic connection only ever moves to Disconnected.
	assert.False(t, c.transition(StateConnected))
	assert.False(t, c.transition(StateAuthenticated))
	assert.Equal(t, StateProblematic, c.State())

	assert.True(t, c.transition(StateDisconnected))

	// Disconnected is terminal.
	assert.False(t, c.transition(StateConnected))
	assert.False(t, c.transition(StateProblematic))
	assert.Equal(t, StateDisconnected, c.State())
}

func TestRegistryAddRemove(t *testing.T) {
	r := NewConnectionRegistry()
	assert.Equal(t, 0, r.Count())

	a := &Conn{ID: "conn-a"}
	b := &Conn{ID: "conn-b"}
	r.Add(a)
	r.Add(b)
	assert.Equal(t, 2, r.Count())

	got, ok := r.Get("conn-a")
	require.True(t, ok)
	assert.Same(t, a, got)

	r.Remove("conn-a")
	_, ok = r.Get("conn-a")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Count())
}

func TestGuardIsolatesFaultingConnection(t *testing.T) {
	tg := newTestGateway(t)

	faulty, faultyID := tg.connect(t)
	healthy, healthyID := tg.connect(t)
	require.Equal(t, 2, tg.registry.Count())

	tg.guard.Report(Fault{ConnectionID: faultyID, Cause: errors.New("write: broken pipe")})

	// The faulting client receives one final error event before teardown.
	final := readFrame(t, faulty)
	assert.Equal(t, "connection_error", final.Event)
	assert.Equal(t, "TRANSPORT_FAULT", final.Data["error_code"])
	assert.Equal(t, faultyID, final.Data["connection_id"])

	// Then the socket closes.
	faulty.SetReadDeadline(time.Now().Add(2 * time.Second))
	var discard frame
	err := faulty.ReadJSON(&discard)
	assert.Error(t, err)

	require.Eventually(t, func() bool {
		_, ok := tg.registry.Get(faultyID)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	// The healthy connection is untouched and still serves events.
	_, ok := tg.registry.Get(healthyID)
	assert.True(t, ok)
	sendEvent(t, healthy, "login", loginBody())
	assert.Equal(t, "login:success", readFrame(t, healthy).Event)
}

func TestGuardedConnectionReceivesNoFurtherEvents(t *testing.T) {
	tg := newTestGateway(t)
	_, connID := tg.connect(t)

	conn, ok := tg.registry.Get(connID)
	require.True(t, ok)

	tg.guard.Report(Fault{ConnectionID: connID, Cause: errors.New("read timeout")})

	require.Eventually(t, func() bool {
		return conn.State() == StateDisconnected
	}, 2*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, conn.Emit("login:success", nil), ErrConnClosed)
}

func TestGuardUnattributedFaultIsFatal(t *testing.T) {
	registry := NewConnectionRegistry()
	guard := NewConnectionGuard(registry)

	var fatal atomic.Bool
	guard.fatalFn = func(msg string, fields ...zap.Field) {
		fatal.Store(true)
	}

	guard.handle(Fault{Cause: errors.New("listener accept failed")})
	assert.True(t, fatal.Load())
}

func TestGuardFaultForUnknownConnectionIsIgnored(t *testing.T) {
	registry := NewConnectionRegistry()
	guard := NewConnectionGuard(registry)

	// Must not panic or escalate; teardown can race a normal disconnect.
	guard.handle(Fault{ConnectionID: "already-gone", Cause: errors.New("late fault")})
	assert.Equal(t, 0, registry.Count())
}

func TestRegistryCloseAll(t *testing.T) {
	tg := newTestGateway(t)

	a, _ := tg.connect(t)
	b, _ := tg.connect(t)
	require.Equal(t, 2, tg.registry.Count())

	tg.registry.CloseAll()
	assert.Equal(t, 0, tg.registry.Count())

	for _, ws := range []*websocket.Conn{a, b} {
		ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		var discard frame
		assert.Error(t, ws.ReadJSON(&discard))
	}
}
