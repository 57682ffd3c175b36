// Package pusher is the facade for a client of a hosted publish/subscribe
// realtime messaging service: connect/disconnect the transport, subscribe
// to public/private/presence channels, bind listeners. It wires together
// the connection core and the channel registry and validates arguments; it
// contains no protocol logic of its own.
package pusher

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/JokBal/pusher-go-client/internal/channel"
	"github.com/JokBal/pusher-go-client/internal/clock"
	"github.com/JokBal/pusher-go-client/internal/connection"
	"github.com/JokBal/pusher-go-client/internal/executor"
	"github.com/JokBal/pusher-go-client/internal/pusherr"
	"github.com/JokBal/pusher-go-client/internal/transport"
)

// Client is the single entry point. It owns the connection core and the
// channel registry exclusively; nothing else may construct either.
type Client struct {
	options Options
	core    *connection.Core
	reg     *channel.Registry
	logger  zerolog.Logger
}

// New constructs a Client for apiKey. It does not connect until Connect is
// called.
func New(apiKey string, options Options) (*Client, error) {
	if apiKey == "" {
		return nil, pusherr.NewArgumentError("apiKey must not be empty")
	}

	logger := options.logger().With().Str("component", "pusher").Logger()

	exec := executor.NewSerial(1024, logger)
	factory := transport.DefaultFactory{Logger: logger}
	core := connection.New(options.wsURL(apiKey), factory, exec, clock.Real{}, logger)
	reg := channel.NewRegistry(core, logger)
	core.SetRouter(reg)

	return &Client{
		options: options,
		core:    core,
		reg:     reg,
		logger:  logger,
	}, nil
}

// Connect binds listener (if non-nil) under the given states, or under
// connection.All if none are given, then opens the socket. Per spec: a nil
// listener with non-empty states is an argument error.
func (c *Client) Connect(listener connection.StateListener, states ...connection.State) error {
	if listener == nil && len(states) > 0 {
		return pusherr.NewArgumentError("states were specified without a listener")
	}
	if listener != nil {
		if len(states) == 0 {
			c.core.Bind(connection.All, listener)
		} else {
			for _, s := range states {
				c.core.Bind(s, listener)
			}
		}
	}
	c.core.Connect()
	return nil
}

// Disconnect closes the socket; a no-op unless currently CONNECTED.
func (c *Client) Disconnect() {
	c.core.Disconnect()
}

// State returns the current connection state.
func (c *Client) State() connection.State {
	return c.core.State()
}

// SocketID returns the socket id assigned by the server, or "" if not
// currently connected.
func (c *Client) SocketID() string {
	return c.core.SocketID()
}

// Bind registers a connection-state listener under filter without
// connecting, for callers that want to observe transitions from an
// already-connected client.
func (c *Client) Bind(filter connection.State, listener connection.StateListener) {
	c.core.Bind(filter, listener)
}

// Unbind removes a previously bound connection-state listener.
func (c *Client) Unbind(filter connection.State, listener connection.StateListener) bool {
	return c.core.Unbind(filter, listener)
}

// Subscribe subscribes to a public channel. name must not begin with
// "private-" or "presence-".
func (c *Client) Subscribe(name string, listener channel.EventListener, eventNames ...string) (*channel.Channel, error) {
	if err := validatePublicName(name); err != nil {
		return nil, err
	}
	ch := channel.NewPublic(name)
	if err := c.reg.SubscribeTo(ch, listener, eventNames); err != nil {
		return nil, err
	}
	return ch, nil
}

// SubscribePrivate subscribes to a private channel. name must begin with
// "private-"; an Authorizer must be configured.
func (c *Client) SubscribePrivate(name string, listener channel.EventListener, eventNames ...string) (*channel.Channel, error) {
	if err := validatePrefixedName(name, "private-"); err != nil {
		return nil, err
	}
	if c.options.Authorizer == nil {
		return nil, pusherr.NewStateError("no authorizer configured for private channel %s", name)
	}
	ch := channel.NewPrivate(name, c.options.Authorizer)
	if err := c.reg.SubscribeTo(ch, listener, eventNames); err != nil {
		return nil, err
	}
	return ch, nil
}

// SubscribePresence subscribes to a presence channel. name must begin with
// "presence-"; an Authorizer must be configured.
func (c *Client) SubscribePresence(name string, listener channel.EventListener, eventNames ...string) (*channel.Channel, error) {
	if err := validatePrefixedName(name, "presence-"); err != nil {
		return nil, err
	}
	if c.options.Authorizer == nil {
		return nil, pusherr.NewStateError("no authorizer configured for presence channel %s", name)
	}
	ch := channel.NewPresence(name, c.options.Authorizer)
	if err := c.reg.SubscribeTo(ch, listener, eventNames); err != nil {
		return nil, err
	}
	return ch, nil
}

// SubscribePermanent is an alias for SubscribePresence. The original
// facade carries both names with identical bodies; no distinct semantics
// for the "permanent" variant are evidenced anywhere in the source this
// library is grounded on, so this is a thin forwarding call rather than an
// invented behavior.
func (c *Client) SubscribePermanent(name string, listener channel.EventListener, eventNames ...string) (*channel.Channel, error) {
	return c.SubscribePresence(name, listener, eventNames...)
}

// Unsubscribe removes name from the registry and emits the unsubscribe
// frame. Requires the connection to be CONNECTED.
func (c *Client) Unsubscribe(name string) error {
	if c.core.State() != connection.Connected {
		return pusherr.NewStateError("cannot unsubscribe while connection is %s", c.core.State())
	}
	c.reg.UnsubscribeFrom(name)
	return nil
}

// Channel returns the named channel if currently registered, or nil.
func (c *Client) Channel(name string) *channel.Channel {
	return c.reg.Channel(name)
}

func validatePublicName(name string) error {
	if name == "" {
		return pusherr.NewArgumentError("channel name must not be empty")
	}
	if strings.HasPrefix(name, "private-") || strings.HasPrefix(name, "presence-") {
		return pusherr.NewArgumentError("subscribe cannot be used for channel %s, use subscribe_private or subscribe_presence", name)
	}
	return nil
}

func validatePrefixedName(name, prefix string) error {
	if name == "" {
		return pusherr.NewArgumentError("channel name must not be empty")
	}
	if !strings.HasPrefix(name, prefix) {
		return pusherr.NewArgumentError("channel name %s must begin with %q", name, prefix)
	}
	return nil
}
