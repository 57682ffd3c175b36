package channel

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/JokBal/pusher-go-client/internal/connection"
	"github.com/JokBal/pusher-go-client/internal/pusherr"
	"github.com/JokBal/pusher-go-client/internal/wire"
)

// Registry is the sole owner of Channel instances, indexed by name. It
// implements connection.FrameRouter so the connection core can hand it
// inbound frames and state transitions without knowing anything about
// channels. Grounded on the teacher's internal/subscription/registry.go
// Registry: a name-keyed map mutated under one lock, with the actual
// subscribe/unsubscribe wire calls made outside the lock.
type Registry struct {
	mu       sync.Mutex
	channels map[string]*Channel
	order    []string

	core   *connection.Core
	logger zerolog.Logger
}

// NewRegistry constructs a Registry bound to the given connection core
// (mirrors the original facade's channelManager.setConnection(connection)).
func NewRegistry(core *connection.Core, logger zerolog.Logger) *Registry {
	return &Registry{
		channels: make(map[string]*Channel),
		core:     core,
		logger:   logger.With().Str("component", "channel-registry").Logger(),
	}
}

// SubscribeTo inserts ch into the registry, binds listener per spec.md
// §4.2, and either dispatches the subscribe frame now (if CONNECTED) or
// leaves it to be replayed on the next CONNECTED transition.
func (r *Registry) SubscribeTo(ch *Channel, listener EventListener, eventNames []string) error {
	r.mu.Lock()
	if _, exists := r.channels[ch.Name()]; exists {
		r.mu.Unlock()
		return pusherr.NewArgumentError("already subscribed to channel %s", ch.Name())
	}

	if listener == nil {
		if len(eventNames) > 0 {
			r.mu.Unlock()
			return pusherr.NewArgumentError("cannot bind to events with a nil listener")
		}
	} else {
		ch.SetPrimaryListener(listener)
		for _, name := range eventNames {
			if err := ch.Bind(name, listener); err != nil {
				r.mu.Unlock()
				return pusherr.NewArgumentError(err.Error())
			}
		}
	}

	r.channels[ch.Name()] = ch
	r.order = append(r.order, ch.Name())
	connected := r.core.State() == connection.Connected
	r.mu.Unlock()

	r.logger.Info().Str("channel", ch.Name()).Msg("channel registered")

	if connected {
		r.dispatchSubscribe(ch)
	}
	return nil
}

// UnsubscribeFrom removes the named channel and emits the unsubscribe
// frame. The caller (the facade) is responsible for the CONNECTED
// precondition, per spec.md §4.2; a name not currently subscribed is a
// silent no-op. The map removal happens synchronously so a concurrent
// SubscribeTo/Channel lookup sees the channel gone immediately, but the
// state change and the wire frame itself are submitted to the connection's
// executor — the same queue dispatchSubscribe uses — so an unsubscribe
// submitted right after a pending subscribe for the same channel can never
// reach the wire ahead of it (spec.md §5's per-channel ordering guarantee).
func (r *Registry) UnsubscribeFrom(name string) {
	r.mu.Lock()
	ch, exists := r.channels[name]
	if !exists {
		r.mu.Unlock()
		return
	}
	delete(r.channels, name)
	r.removeFromOrder(name)
	r.mu.Unlock()

	r.core.Executor().Submit(func() {
		ch.setState(Unsubscribed)
		body, err := json.Marshal(wire.UnsubscribeData{Channel: name})
		if err != nil {
			r.logger.Error().Err(err).Str("channel", name).Msg("failed to encode unsubscribe frame")
			return
		}
		r.core.SendFrame(&wire.Frame{Event: wire.EventUnsubscribe, Data: body})
		r.logger.Info().Str("channel", name).Msg("channel unsubscribed")
	})
}

func (r *Registry) removeFromOrder(name string) {
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// HandleStateChange implements connection.FrameRouter. On CONNECTED it
// replays every registered channel's subscribe frame in insertion order
// (spec.md §4.2); on leaving CONNECTED it demotes any SUBSCRIBED/
// SUBSCRIBE_SENT channel back to UNSUBSCRIBED so invariant 3 — a channel
// is never SUBSCRIBED while the connection isn't CONNECTED — always holds.
// Channels stay registered across the transition so they're automatically
// resubscribed on the next CONNECTED, the same policy the teacher's
// UpstreamWSClient.reconnect() applies to eth_subscribe subscriptions.
func (r *Registry) HandleStateChange(change connection.StateChange) {
	if change.Current == connection.Connected {
		r.mu.Lock()
		names := append([]string(nil), r.order...)
		r.mu.Unlock()
		for _, name := range names {
			r.mu.Lock()
			ch, ok := r.channels[name]
			r.mu.Unlock()
			if ok {
				r.dispatchSubscribe(ch)
			}
		}
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.channels {
		if ch.State() == Subscribed || ch.State() == SubscribeSent {
			ch.setState(Unsubscribed)
		}
	}
}

// RouteFrame implements connection.FrameRouter, dispatching a frame to the
// channel it names. A frame naming an unknown channel is dropped silently
// (spec.md §4.2).
func (r *Registry) RouteFrame(frame *wire.Frame) {
	r.mu.Lock()
	ch, ok := r.channels[frame.Channel]
	r.mu.Unlock()
	if !ok {
		return
	}

	switch frame.Event {
	case wire.EventSubscriptionSucceeded:
		ch.HandleSubscriptionSucceeded(frame.Data)
	case wire.EventMemberAdded:
		ch.HandleMemberAdded(frame.Data)
	case wire.EventMemberRemoved:
		ch.HandleMemberRemoved(frame.Data)
	default:
		ch.HandleUserEvent(frame.Event, frame.Data)
	}
}

// dispatchSubscribe builds and sends ch's subscribe frame. Per spec.md
// §4.2 ("the authorizer is called synchronously on the executor
// immediately before the frame is emitted"), both the Authorize call and
// the frame emission are submitted as a single unit of work on the
// connection's executor rather than run on a detached goroutine — spec.md
// §5 puts the burden of not blocking the executor indefinitely on the
// Authorizer implementation, not on the core, so a well-behaved Authorizer
// (e.g. HTTPAuthorizer, which carries its own request timeout) is expected
// to return promptly. Running here, rather than off on its own goroutine,
// is also what gives UnsubscribeFrom its ordering guarantee: both dispatch
// the same channel's wire traffic as executor tasks, so whichever was
// submitted first reaches the wire first, regardless of how long the
// authorizer call takes.
func (r *Registry) dispatchSubscribe(ch *Channel) {
	socketID := r.core.SocketID()
	r.core.Executor().Submit(func() {
		frame, err := ch.BuildSubscribeFrame(socketID)
		if err != nil {
			r.logger.Warn().Err(err).Str("channel", ch.Name()).Msg("channel authorization failed")
			return
		}
		ch.setState(SubscribeSent)
		r.core.SendFrame(frame)
	})
}

// Channel returns the registered channel by name, or nil.
func (r *Registry) Channel(name string) *Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channels[name]
}
