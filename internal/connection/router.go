package connection

import "github.com/JokBal/pusher-go-client/internal/wire"

// FrameRouter is the seam between the connection core and the channel
// registry, mirroring the original facade's `channelManager.setConnection
// (connection)` wiring: the core knows nothing about channels, it just
// hands off frames and transition notifications to whatever is registered.
type FrameRouter interface {
	// RouteFrame delivers a subscription_succeeded/member_added/
	// member_removed frame, or any other frame carrying a channel field,
	// to the channel it names.
	RouteFrame(frame *wire.Frame)
	// HandleStateChange lets the registry replay pending subscribes on
	// CONNECTED and mark channels UNSUBSCRIBED on a clean disconnect.
	HandleStateChange(change StateChange)
}
