// Package connection implements the connection core described in
// spec.md §4.1: the state machine, the heartbeat/activity timers, the
// cached socket id, and the bound connection listeners. Grounded on the
// teacher's internal/upstream/wsclient.go (dial/read-loop/reconnect shape)
// and internal/subscription/registry.go (lock-scoped state mutation,
// collect-then-invoke listener dispatch).
package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/JokBal/pusher-go-client/internal/binding"
	"github.com/JokBal/pusher-go-client/internal/clock"
	"github.com/JokBal/pusher-go-client/internal/executor"
	"github.com/JokBal/pusher-go-client/internal/transport"
	"github.com/JokBal/pusher-go-client/internal/wire"
)

const (
	DefaultActivityTimeout = 120 * time.Second
	DefaultPongTimeout     = 30 * time.Second
)

// Core owns the state machine, the socket id, the heartbeat timers, the
// socket adapter and the set of bound connection listeners. Every mutation
// of this state happens inside a function submitted to exec, per spec.md
// §5 — public methods only ever enqueue work.
type Core struct {
	url     string
	factory transport.Factory
	exec    executor.Executor
	clk     clock.Clock
	logger  zerolog.Logger

	activityTimeout time.Duration
	pongTimeout     time.Duration

	// mu guards only the fields read from outside the executor goroutine
	// (State/SocketID accessors); every write happens on the executor.
	mu       sync.RWMutex
	state    State
	socketID string

	socket transport.Socket
	router FrameRouter

	listeners *binding.Table[State, StateListener]

	activityTimer clock.Timer
	pongTimer     clock.Timer
	pongArmed     bool
}

// New constructs a Core bound to url. It does not dial until Connect is
// called.
func New(url string, factory transport.Factory, exec executor.Executor, clk clock.Clock, logger zerolog.Logger) *Core {
	return &Core{
		url:             url,
		factory:         factory,
		exec:            exec,
		clk:             clk,
		logger:          logger.With().Str("component", "connection").Logger(),
		activityTimeout: DefaultActivityTimeout,
		pongTimeout:     DefaultPongTimeout,
		state:           Disconnected,
		listeners:       binding.NewTable[State, StateListener](),
	}
}

// SetRouter wires the channel registry in, mirroring the original facade's
// channelManager.setConnection(connection) call at construction time.
func (c *Core) SetRouter(r FrameRouter) {
	c.router = r
}

// State returns the current connection state.
func (c *Core) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SocketID returns the cached socket id, or "" if none has been assigned
// since the most recent transition to Disconnected.
func (c *Core) SocketID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.socketID
}

// Bind registers listener under filter (a specific State or All).
func (c *Core) Bind(filter State, listener StateListener) {
	c.exec.Submit(func() {
		ref := c.listeners.Add(filter, listener)
		c.logger.Debug().Str("filter", filter.String()).Str("ref", ref).Msg("listener bound")
	})
}

// Unbind removes listener from filter and reports whether anything was
// removed, blocking until the executor has processed the removal.
func (c *Core) Unbind(filter State, listener StateListener) bool {
	result := make(chan bool, 1)
	c.exec.Submit(func() {
		result <- c.listeners.Remove(filter, listener)
	})
	return <-result
}

// Connect transitions DISCONNECTED -> CONNECTING and opens the socket.
// A no-op from any other state.
func (c *Core) Connect() {
	c.exec.Submit(func() {
		c.mu.RLock()
		cur := c.state
		c.mu.RUnlock()
		if cur != Disconnected {
			return
		}

		socket := c.factory.NewSocket(c.url)
		c.wireSocket(socket)
		c.socket = socket

		c.transition(Connecting)

		if err := socket.Open(context.Background()); err != nil {
			c.logger.Warn().Err(err).Msg("socket open failed")
		}
	})
}

// Disconnect transitions CONNECTED -> DISCONNECTING and closes the socket.
// A no-op from any other state.
func (c *Core) Disconnect() {
	c.exec.Submit(func() {
		c.mu.RLock()
		cur := c.state
		c.mu.RUnlock()
		if cur != Connected {
			return
		}
		c.transition(Disconnecting)
		if c.socket != nil {
			if err := c.socket.Close(); err != nil {
				c.logger.Debug().Err(err).Msg("socket close error")
			}
		}
	})
}

// Send forwards text to the socket if CONNECTED; otherwise it notifies
// error listeners and changes nothing, per spec.md §4.1.
func (c *Core) Send(text string) {
	c.exec.Submit(func() {
		c.mu.RLock()
		cur := c.state
		c.mu.RUnlock()
		if cur != Connected {
			c.notifyError(fmt.Sprintf("Cannot send a message while in %s state", cur), nil, nil)
			return
		}
		if err := c.socket.Send(text); err != nil {
			c.notifyError(fmt.Sprintf("An exception occurred while sending message [%s]", text), nil, err)
			return
		}
	})
}

// SendFrame marshals and sends a wire frame, used by the channel registry
// to emit subscribe/unsubscribe frames.
func (c *Core) SendFrame(f *wire.Frame) {
	b, err := f.Marshal()
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to marshal outgoing frame")
		return
	}
	c.Send(string(b))
}

// Executor exposes the core's executor so collaborators (the channel
// registry) schedule their own work on the same serial queue rather than
// maintaining a second one.
func (c *Core) Executor() executor.Executor { return c.exec }

func (c *Core) wireSocket(socket transport.Socket) {
	socket.OnOpen(func() {
		c.exec.Submit(func() {
			c.logger.Debug().Msg("socket open")
		})
	})
	socket.OnMessage(func(text string) {
		c.exec.Submit(func() {
			c.handleMessage(text)
		})
	})
	socket.OnClose(func(code int, reason string, remote bool) {
		c.exec.Submit(func() {
			c.handleClose(code, reason, remote)
		})
	})
	socket.OnError(func(cause error) {
		c.exec.Submit(func() {
			c.handleSocketError(cause)
		})
	})
}

func (c *Core) handleSocketError(cause error) {
	c.notifyError("An exception was thrown by the websocket", nil, cause)
	c.mu.RLock()
	cur := c.state
	c.mu.RUnlock()
	if cur == Connecting {
		c.transition(Disconnected)
	}
}

func (c *Core) handleClose(code int, reason string, remote bool) {
	c.mu.RLock()
	cur := c.state
	c.mu.RUnlock()
	if cur == Disconnected {
		return
	}
	c.transition(Disconnected)
}

func (c *Core) handleMessage(text string) {
	c.resetActivityDeadline()

	frame, err := wire.ParseFrame([]byte(text))
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to parse inbound frame")
		return
	}

	switch frame.Event {
	case wire.EventConnectionEstablished:
		c.handleConnectionEstablished(frame)
	case wire.EventError:
		c.handleServerError(frame)
	case wire.EventPong:
		c.clearPongDeadline()
	case wire.EventSubscriptionSucceeded, wire.EventMemberAdded, wire.EventMemberRemoved:
		if c.router != nil {
			c.router.RouteFrame(frame)
		}
	default:
		if frame.Channel != "" && c.router != nil {
			c.router.RouteFrame(frame)
		}
	}
}

func (c *Core) handleConnectionEstablished(frame *wire.Frame) {
	var raw string
	if err := json.Unmarshal(frame.Data, &raw); err != nil {
		c.logger.Warn().Err(err).Msg("failed to parse connection_established envelope")
		return
	}
	var data wire.ConnectionEstablishedData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		c.logger.Warn().Err(err).Msg("failed to parse connection_established payload")
		return
	}

	c.mu.Lock()
	cur := c.state
	if cur == Connecting {
		c.socketID = data.SocketID
	}
	c.mu.Unlock()

	if cur != Connecting {
		c.notifyError("Received pusher:connection_established while not connecting", nil, nil)
		return
	}

	if data.ActivityTimeout > 0 {
		c.activityTimeout = time.Duration(data.ActivityTimeout) * time.Second
	}

	c.transition(Connected)
	c.resetActivityDeadline()
}

func (c *Core) handleServerError(frame *wire.Frame) {
	var data wire.ErrorData
	if err := json.Unmarshal(frame.Data, &data); err != nil {
		c.logger.Warn().Err(err).Msg("failed to parse pusher:error payload")
		return
	}
	var code *string
	if data.Code != nil {
		s := fmt.Sprintf("%d", *data.Code)
		code = &s
	}
	c.notifyError(data.Message, code, nil)
}

// transition performs prev -> next, updates cached state, clears the
// socket id on the way to Disconnected, and dispatches exactly one
// OnConnectionStateChange per real transition (no-op transitions aren't
// possible here since every caller already checked the precondition).
func (c *Core) transition(next State) {
	c.mu.Lock()
	prev := c.state
	if prev == next {
		c.mu.Unlock()
		return
	}
	c.state = next
	if next == Disconnected {
		c.socketID = ""
		c.stopTimers()
	}
	c.mu.Unlock()

	change := StateChange{Previous: prev, Current: next}
	c.logger.Info().Str("previous", prev.String()).Str("current", next.String()).Msg("connection state changed")

	for _, l := range c.listeners.Snapshot(All) {
		l.OnConnectionStateChange(change)
	}
	for _, l := range c.listeners.Snapshot(next) {
		l.OnConnectionStateChange(change)
	}

	if c.router != nil {
		c.router.HandleStateChange(change)
	}
}

func (c *Core) notifyError(message string, code *string, cause error) {
	c.logger.Warn().Str("message", message).Err(cause).Msg("connection error")
	for _, l := range c.listeners.Snapshot(All) {
		if el, ok := l.(ErrorListener); ok {
			el.OnError(message, code, cause)
		}
	}
}

func (c *Core) resetActivityDeadline() {
	c.clearPongDeadline()
	if c.activityTimer != nil {
		c.activityTimer.Stop()
	}
	c.activityTimer = c.clk.AfterFunc(c.activityTimeout, func() {
		c.exec.Submit(c.handleActivityTimeout)
	})
}

func (c *Core) clearPongDeadline() {
	if c.pongArmed && c.pongTimer != nil {
		c.pongTimer.Stop()
	}
	c.pongArmed = false
}

func (c *Core) handleActivityTimeout() {
	c.mu.RLock()
	cur := c.state
	c.mu.RUnlock()
	if cur != Connected {
		return
	}
	c.SendFrame(&wire.Frame{Event: wire.EventPing})
	c.pongTimer = c.clk.AfterFunc(c.pongTimeout, func() {
		c.exec.Submit(c.handlePongTimeout)
	})
	c.pongArmed = true
}

func (c *Core) handlePongTimeout() {
	c.pongArmed = false
	c.mu.RLock()
	cur := c.state
	c.mu.RUnlock()
	if cur == Disconnected {
		return
	}
	if c.socket != nil {
		_ = c.socket.Close()
	}
	c.transition(Disconnected)
}

func (c *Core) stopTimers() {
	if c.activityTimer != nil {
		c.activityTimer.Stop()
	}
	if c.pongTimer != nil {
		c.pongTimer.Stop()
	}
	c.pongArmed = false
}
