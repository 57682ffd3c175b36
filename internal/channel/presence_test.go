package channel

import (
	"testing"
)

type stubAuthorizer struct {
	response string
	err      error
	calls    int
}

func (a *stubAuthorizer) Authorize(channelName, socketID string) (string, error) {
	a.calls++
	if a.err != nil {
		return "", a.err
	}
	return a.response, nil
}

func TestPresenceRosterRoundTrip(t *testing.T) {
	auth := &stubAuthorizer{response: `{"auth":"key:sig","channel_data":"{\"user_id\":\"me\"}"}`}
	ch := NewPresence("presence-room", auth)
	listener := &fakeEventListener{}
	ch.SetPrimaryListener(listener)

	if _, err := ch.BuildSubscribeFrame("21112.816204"); err != nil {
		t.Fatalf("BuildSubscribeFrame: %v", err)
	}

	ch.HandleSubscriptionSucceeded([]byte(`{"presence":{"ids":["a","b"],"hash":{"a":{},"b":{}},"count":2}}`))
	ch.HandleMemberAdded([]byte(`{"user_id":"c"}`))
	ch.HandleMemberRemoved([]byte(`{"user_id":"a"}`))

	members := ch.Members()
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d: %v", len(members), members)
	}
	if _, ok := members["b"]; !ok {
		t.Fatalf("expected member b to remain, got %v", members)
	}
	if _, ok := members["c"]; !ok {
		t.Fatalf("expected member c to have been added, got %v", members)
	}
	if _, ok := members["a"]; ok {
		t.Fatalf("expected member a to have been removed, got %v", members)
	}

	if listener.usersInfo != 1 {
		t.Fatalf("expected exactly one OnUsersInformationReceived, got %d", listener.usersInfo)
	}
	if len(listener.added) != 1 || listener.added[0] != "c" {
		t.Fatalf("expected exactly one OnUserAdded(c), got %v", listener.added)
	}
	if len(listener.removed) != 1 || listener.removed[0] != "a" {
		t.Fatalf("expected exactly one OnUserRemoved(a), got %v", listener.removed)
	}
}

func TestRemovingAbsentMemberIsSilentlyIgnored(t *testing.T) {
	ch := NewPresence("presence-room", &stubAuthorizer{response: `{"auth":"key:sig"}`})
	listener := &fakeEventListener{}
	ch.SetPrimaryListener(listener)
	ch.HandleSubscriptionSucceeded([]byte(`{"presence":{"ids":[],"hash":{},"count":0}}`))

	ch.HandleMemberRemoved([]byte(`{"user_id":"never-here"}`))

	if len(listener.removed) != 1 {
		t.Fatalf("OnUserRemoved still fires for an absent id per spec, got %v", listener.removed)
	}
	if len(ch.Members()) != 0 {
		t.Fatalf("expected roster to remain empty, got %v", ch.Members())
	}
}

// TestSubscriptionSucceededWithoutHashDoesNotPanicOnLaterAdd covers a
// subscription_succeeded frame whose data.presence is present but omits
// hash entirely (json.Unmarshal leaves PresenceData.Hash nil in that case).
// A subsequent member_added must insert into a roster, not panic on a nil
// map.
func TestSubscriptionSucceededWithoutHashDoesNotPanicOnLaterAdd(t *testing.T) {
	ch := NewPresence("presence-room", &stubAuthorizer{response: `{"auth":"key:sig"}`})
	listener := &fakeEventListener{}
	ch.SetPrimaryListener(listener)

	ch.HandleSubscriptionSucceeded([]byte(`{"presence":{"ids":[],"count":0}}`))

	ch.HandleMemberAdded([]byte(`{"user_id":"c"}`))

	members := ch.Members()
	if len(members) != 1 {
		t.Fatalf("expected 1 member, got %d: %v", len(members), members)
	}
	if _, ok := members["c"]; !ok {
		t.Fatalf("expected member c to have been added, got %v", members)
	}
}

func TestAuthorizationFailureTransitionsChannelToFailed(t *testing.T) {
	authErr := &stubAuthorizer{err: errAuthFailed}
	ch := NewPrivate("private-room", authErr)
	listener := &fakeEventListener{}
	ch.SetPrimaryListener(listener)

	if _, err := ch.BuildSubscribeFrame("21112.816204"); err == nil {
		t.Fatalf("expected an authorization error")
	}

	if ch.State() != Failed {
		t.Fatalf("expected channel state FAILED, got %s", ch.State())
	}
	if len(listener.authFailures) != 1 {
		t.Fatalf("expected exactly one OnAuthenticationFailure, got %v", listener.authFailures)
	}
}

var errAuthFailed = authError("authorization denied")

type authError string

func (e authError) Error() string { return string(e) }
