package channel

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/JokBal/pusher-go-client/internal/binding"
	"github.com/JokBal/pusher-go-client/internal/wire"
)

// Variant is the tagged-union discriminant replacing the original
// inheritance hierarchy (spec.md §9): a single Channel struct carries a
// Variant field and switches on it at the two sites that actually differ
// — building the subscribe frame, and routing member events — instead of
// three separate types behind an interface.
type Variant int

const (
	Public Variant = iota
	Private
	Presence
)

// NamePrefix returns the reserved channel-name prefix this variant
// requires ("" for Public).
func (v Variant) NamePrefix() string {
	switch v {
	case Private:
		return "private-"
	case Presence:
		return "presence-"
	default:
		return ""
	}
}

// Channel is a subscription to a named channel: public, private, or
// presence. It owns its event-name binding table and, for presence, its
// member roster.
type Channel struct {
	mu sync.Mutex

	name       string
	variant    Variant
	state      Status
	authorizer Authorizer

	primaryListener interface{}
	bindings        *binding.Table[string, EventListener]
	recent          *recentEventCache

	roster   *Roster
	myUserID string
}

func newChannel(name string, variant Variant, authorizer Authorizer) *Channel {
	c := &Channel{
		name:       name,
		variant:    variant,
		state:      Initial,
		authorizer: authorizer,
		bindings:   binding.NewTable[string, EventListener](),
		recent:     newRecentEventCache(defaultRecentEventCacheSize),
	}
	if variant == Presence {
		c.roster = newRoster()
	}
	return c
}

// NewPublic constructs a public channel.
func NewPublic(name string) *Channel { return newChannel(name, Public, nil) }

// NewPrivate constructs a private channel, authorized at subscribe time.
// The authorizer is wrapped with Deduped, so overlapping Authorize calls for
// the same channel and socket id share one round trip; calls run one after
// another on the connection's executor each reach the authorizer.
func NewPrivate(name string, authorizer Authorizer) *Channel {
	return newChannel(name, Private, Deduped(authorizer))
}

// NewPresence constructs a presence channel, authorized at subscribe time,
// with a member roster populated from server events. See NewPrivate for why
// the authorizer is deduped.
func NewPresence(name string, authorizer Authorizer) *Channel {
	return newChannel(name, Presence, Deduped(authorizer))
}

func (c *Channel) Name() string     { return c.name }
func (c *Channel) Variant() Variant { return c.variant }

func (c *Channel) State() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) setState(s Status) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// SetPrimaryListener installs the listener passed to a subscribe_* call.
// It is invoked for subscription-succeeded/auth-failure/presence callbacks
// regardless of whether it's also bound to any specific event name.
func (c *Channel) SetPrimaryListener(listener interface{}) {
	c.mu.Lock()
	c.primaryListener = listener
	c.mu.Unlock()
}

// Bind registers listener for eventName. Event names beginning with
// "pusher:" or "pusher_internal:" are reserved (spec.md §4.3).
func (c *Channel) Bind(eventName string, listener EventListener) error {
	_, err := c.BindRef(eventName, listener)
	return err
}

// BindRef is Bind plus the opaque registration ref (backed by google/uuid
// via internal/binding), letting a caller target exactly this registration
// later with UnbindRef instead of relying on listener value-equality.
func (c *Channel) BindRef(eventName string, listener EventListener) (string, error) {
	if isReservedEventName(eventName) {
		return "", fmt.Errorf("cannot bind to reserved event name %q", eventName)
	}
	return c.bindings.Add(eventName, listener), nil
}

// Unbind removes listener from eventName and reports whether anything was
// removed.
func (c *Channel) Unbind(eventName string, listener EventListener) bool {
	return c.bindings.Remove(eventName, listener)
}

// UnbindRef removes the registration identified by ref (returned earlier
// by BindRef) from eventName.
func (c *Channel) UnbindRef(eventName, ref string) bool {
	return c.bindings.RemoveRef(eventName, ref)
}

func isReservedEventName(name string) bool {
	return strings.HasPrefix(name, wire.PrefixPusherEvent) || strings.HasPrefix(name, wire.PrefixPusherInternalEvent)
}

// BuildSubscribeFrame produces the pusher:subscribe frame for this channel.
// Private/presence channels call the authorizer synchronously first; a
// failure transitions the channel to Failed and is reported to the
// listener's AuthFailureListener capability, if present.
func (c *Channel) BuildSubscribeFrame(socketID string) (*wire.Frame, error) {
	data := wire.SubscribeData{Channel: c.name}

	if c.variant == Private || c.variant == Presence {
		raw, err := c.authorizer.Authorize(c.name, socketID)
		if err != nil {
			c.setState(Failed)
			c.notifyAuthFailure(err.Error(), err)
			return nil, err
		}
		var resp wire.AuthResponse
		if err := json.Unmarshal([]byte(raw), &resp); err != nil {
			c.setState(Failed)
			c.notifyAuthFailure("failed to parse authorizer response", err)
			return nil, err
		}
		data.Auth = resp.Auth
		if c.variant == Presence {
			data.ChannelData = resp.ChannelData
			if resp.ChannelData != "" {
				var payload wire.ChannelDataPayload
				if err := json.Unmarshal([]byte(resp.ChannelData), &payload); err == nil {
					c.myUserID = payload.UserID
				}
			}
		}
	}

	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &wire.Frame{Event: wire.EventSubscribe, Data: body}, nil
}

func (c *Channel) notifyAuthFailure(message string, cause error) {
	c.mu.Lock()
	listener := c.primaryListener
	c.mu.Unlock()
	if al, ok := listener.(AuthFailureListener); ok {
		al.OnAuthenticationFailure(message, cause)
	}
}

// HandleSubscriptionSucceeded processes
// pusher_internal:subscription_succeeded: transitions to Subscribed, fires
// the primary listener's OnSubscriptionSucceeded, and for presence
// channels replaces the roster and fires OnUsersInformationReceived.
func (c *Channel) HandleSubscriptionSucceeded(data json.RawMessage) {
	c.setState(Subscribed)

	if c.variant == Presence {
		var payload wire.SubscriptionSucceededData
		if err := json.Unmarshal(data, &payload); err == nil && payload.Presence != nil {
			c.mu.Lock()
			c.roster.Replace(payload.Presence.Hash, c.myUserID)
			snapshot := c.roster.Members()
			c.mu.Unlock()

			c.mu.Lock()
			listener := c.primaryListener
			c.mu.Unlock()
			if ul, ok := listener.(UsersInformationListener); ok {
				ul.OnUsersInformationReceived(c.name, snapshot)
			}
		}
	}

	c.mu.Lock()
	listener := c.primaryListener
	c.mu.Unlock()
	if sl, ok := listener.(SubscriptionListener); ok {
		sl.OnSubscriptionSucceeded(c.name)
	}
}

// HandleMemberAdded processes pusher_internal:member_added for a presence
// channel; a no-op for public/private channels.
func (c *Channel) HandleMemberAdded(data json.RawMessage) {
	if c.variant != Presence {
		return
	}
	var payload wire.MemberAddedData
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	c.mu.Lock()
	c.roster.Add(payload.UserID, payload.UserInfo)
	listener := c.primaryListener
	c.mu.Unlock()

	if ml, ok := listener.(MemberListener); ok {
		ml.OnUserAdded(c.name, payload.UserID)
	}
}

// HandleMemberRemoved processes pusher_internal:member_removed for a
// presence channel; a no-op for public/private channels. Removing an
// absent id leaves the roster unchanged and raises no error;
// OnUserRemoved still fires for it.
func (c *Channel) HandleMemberRemoved(data json.RawMessage) {
	if c.variant != Presence {
		return
	}
	var payload wire.MemberRemovedData
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	c.mu.Lock()
	c.roster.Remove(payload.UserID)
	listener := c.primaryListener
	c.mu.Unlock()

	if ml, ok := listener.(MemberListener); ok {
		ml.OnUserRemoved(c.name, payload.UserID)
	}
}

// HandleUserEvent dispatches a non-protocol event to every listener bound
// to eventName (spec.md §4.3), and records it in the channel's bounded
// recent-event cache so a listener bound after the fact (e.g. right after
// a reconnect replay) can be backfilled via RecentEvents.
func (c *Channel) HandleUserEvent(eventName string, data json.RawMessage) {
	c.recent.record(eventName, data)

	for _, l := range c.bindings.Snapshot(eventName) {
		l.OnEvent(c.name, eventName, string(data))
	}
}

// RecentEvents returns the most recent non-protocol events this channel
// received, oldest first, bounded to the cache's configured size.
func (c *Channel) RecentEvents() []RecentEvent {
	return c.recent.snapshot()
}

// Members returns a snapshot of the presence roster, or nil for
// public/private channels.
func (c *Channel) Members() map[string]json.RawMessage {
	if c.variant != Presence {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roster.Members()
}

// MyID returns the local user's presence id, or "" if unknown or this
// isn't a presence channel.
func (c *Channel) MyID() string {
	if c.variant != Presence {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roster.MyID()
}
