package channel

import (
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Authorizer proves, to the server, that a given socket is allowed to
// subscribe to a given private/presence channel (spec.md §6). BuildSubscribeFrame
// calls it synchronously, inside the registry's executor task that emits the
// subscribe frame, so a slow authorizer holds up that executor until it
// returns; an error is treated as an authorization failure.
type Authorizer interface {
	Authorize(channelName, socketID string) (string, error)
}

// AuthorizerFunc adapts a plain function to the Authorizer interface.
type AuthorizerFunc func(channelName, socketID string) (string, error)

func (f AuthorizerFunc) Authorize(channelName, socketID string) (string, error) {
	return f(channelName, socketID)
}

// Deduped wraps an Authorizer so that concurrent Authorize calls for the
// same channel name and socket id collapse into a single in-flight round
// trip, the same auth response fanned out to every caller. Calls that do not
// overlap in time (such as those made one after another on a serial
// executor) each reach the wrapped authorizer. Grounded on SPEC_FULL.md's
// domain-stack wiring of
// golang.org/x/sync/singleflight.
func Deduped(authorizer Authorizer) Authorizer {
	return &dedupedAuthorizer{inner: authorizer}
}

type dedupedAuthorizer struct {
	group singleflight.Group
	inner Authorizer
}

func (d *dedupedAuthorizer) Authorize(channelName, socketID string) (string, error) {
	key := fmt.Sprintf("%s|%s", channelName, socketID)
	v, err, _ := d.group.Do(key, func() (interface{}, error) {
		return d.inner.Authorize(channelName, socketID)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
