// Package wire defines the JSON frame shapes exchanged with the server,
// grounded on the same "thin envelope, raw payload" style the teacher uses
// for JSON-RPC frames (internal/jsonrpc.Request/Response in the teacher
// repo): a fixed envelope of known fields plus a json.RawMessage payload the
// caller decodes only when it knows the shape to expect.
package wire

import "encoding/json"

// Reserved event-name prefixes. User code may never bind to an event name
// beginning with either.
const (
	PrefixPusherEvent         = "pusher:"
	PrefixPusherInternalEvent = "pusher_internal:"
)

// Egress/ingress event names the core understands natively.
const (
	EventConnectionEstablished = "pusher:connection_established"
	EventError                 = "pusher:error"
	EventPing                  = "pusher:ping"
	EventPong                  = "pusher:pong"
	EventSubscribe             = "pusher:subscribe"
	EventUnsubscribe           = "pusher:unsubscribe"

	EventSubscriptionSucceeded = "pusher_internal:subscription_succeeded"
	EventMemberAdded           = "pusher_internal:member_added"
	EventMemberRemoved         = "pusher_internal:member_removed"
)

// Frame is the envelope every inbound and outbound message shares.
type Frame struct {
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data,omitempty"`
	Channel string          `json:"channel,omitempty"`
}

// Marshal encodes the frame as the text that goes over the socket.
func (f *Frame) Marshal() ([]byte, error) {
	return json.Marshal(f)
}

// ParseFrame decodes a raw text message into a Frame. The caller decodes
// Data further once Event/Channel tell it what shape to expect.
func ParseFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ConnectionEstablishedData is the JSON-encoded-string payload of
// pusher:connection_established.
type ConnectionEstablishedData struct {
	SocketID        string `json:"socket_id"`
	ActivityTimeout int    `json:"activity_timeout,omitempty"`
}

// ErrorData is the payload of pusher:error.
type ErrorData struct {
	Code    *int   `json:"code,omitempty"`
	Message string `json:"message"`
}

// SubscribeData is the payload of pusher:subscribe.
type SubscribeData struct {
	Channel     string `json:"channel"`
	Auth        string `json:"auth,omitempty"`
	ChannelData string `json:"channel_data,omitempty"`
}

// UnsubscribeData is the payload of pusher:unsubscribe.
type UnsubscribeData struct {
	Channel string `json:"channel"`
}

// SubscriptionSucceededData is the payload of
// pusher_internal:subscription_succeeded. Presence is only set for
// presence channels.
type SubscriptionSucceededData struct {
	Presence *PresenceData `json:"presence,omitempty"`
}

// PresenceData is the data.presence object on a presence channel's
// subscription-succeeded frame.
type PresenceData struct {
	IDs   []string                   `json:"ids"`
	Hash  map[string]json.RawMessage `json:"hash"`
	Count int                        `json:"count"`
}

// MemberAddedData is the payload of pusher_internal:member_added.
type MemberAddedData struct {
	UserID   string          `json:"user_id"`
	UserInfo json.RawMessage `json:"user_info,omitempty"`
}

// MemberRemovedData is the payload of pusher_internal:member_removed.
type MemberRemovedData struct {
	UserID string `json:"user_id"`
}

// ChannelDataPayload is what an authorizer's channel_data field decodes to
// for a presence channel: the local user's id and info, echoed back by the
// server inside the presence hash.
type ChannelDataPayload struct {
	UserID   string          `json:"user_id"`
	UserInfo json.RawMessage `json:"user_info,omitempty"`
}

// AuthResponse is what an Authorizer is expected to return as JSON.
type AuthResponse struct {
	Auth        string `json:"auth"`
	ChannelData string `json:"channel_data,omitempty"`
}
