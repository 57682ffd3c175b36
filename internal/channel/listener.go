// Package channel implements the channel registry and the three channel
// variants described in spec.md §4.2/§4.3: public, private (authorized)
// and presence (authorized + member roster). Grounded on the teacher's
// internal/subscription/registry.go (subscriber map per subscription key,
// collect-under-lock-then-invoke dispatch) and internal/subscription/
// dedup.go (replace-the-whole-cache-on-certain-events roster maintenance).
package channel

import "encoding/json"

// EventListener receives events bound to a specific event name via
// Channel.Bind, per spec.md §4.3 ("the channel invokes every listener
// bound to that event name with (event_name, data_json_string)").
type EventListener interface {
	OnEvent(channelName, eventName, data string)
}

// SubscriptionListener is the base capability every subscribe-time
// listener carries: notice of the subscription-succeeded handshake.
type SubscriptionListener interface {
	OnSubscriptionSucceeded(channelName string)
}

// AuthFailureListener is the private/presence-only capability for
// authorization failures (spec.md §4.2/§7 AuthorizationError). Checked via
// type assertion, not a distinct listener subtype — the capability-record
// design note in spec.md §9.
type AuthFailureListener interface {
	OnAuthenticationFailure(message string, cause error)
}

// UsersInformationListener is the presence-only capability fired once per
// subscription with the full roster (spec.md §4.3).
type UsersInformationListener interface {
	OnUsersInformationReceived(channelName string, users map[string]json.RawMessage)
}

// MemberListener is the presence-only capability for roster deltas.
type MemberListener interface {
	OnUserAdded(channelName, userID string)
	OnUserRemoved(channelName, userID string)
}
