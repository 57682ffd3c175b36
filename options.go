package pusher

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/JokBal/pusher-go-client/internal/config"
)

// Options configures a Client. Mirrors the original facade's PusherOptions:
// a handful of struct fields, no builder chain, a single wsURL method that
// assembles the cluster host and port.
type Options struct {
	// Authorizer proves subscription requests for private/presence
	// channels. Required if the application ever subscribes to either.
	Authorizer Authorizer

	// Cluster selects the default host, e.g. "eu", "ap1". Ignored if Host
	// is set directly. Defaults to "mt1" (us-east-1).
	Cluster string

	// Host overrides the cluster-derived host entirely.
	Host string

	// WSPort/WSSPort override the default 80/443 ports.
	WSPort  int
	WSSPort int

	// Encrypted selects wss:// over ws://. DefaultOptions and LoadOptions
	// set it to true; the zero value selects ws://.
	Encrypted bool

	// Logger receives the library's structured log output. A caller that
	// leaves this unset gets a plain stderr zerolog.Logger, the same
	// fallback the teacher uses for startup errors before its own
	// setupLogger has run.
	Logger *zerolog.Logger
}

func (o Options) logger() zerolog.Logger {
	if o.Logger != nil {
		return *o.Logger
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// DefaultOptions returns Options with the library defaults: the mt1
// cluster, encrypted transport, default ports.
func DefaultOptions() Options {
	return Options{
		Cluster:   "mt1",
		Encrypted: true,
	}
}

// LoadOptions reads a JSON config file and returns the apiKey plus the
// Options decoded from it, applying the same host/cluster/port defaults as
// DefaultOptions. Authorizer and Logger are never part of the file; set
// them on the returned Options in code after loading. Grounded on the
// teacher's config.LoadWithDefaults, adapted from an RPC-proxy config
// shape to this library's Options.
func LoadOptions(path string) (apiKey string, options Options, err error) {
	f, err := config.Load(path)
	if err != nil {
		return "", Options{}, err
	}
	opts := Options{
		Cluster:   f.Cluster,
		Host:      f.Host,
		WSPort:    f.WSPort,
		WSSPort:   f.WSSPort,
		Encrypted: f.Encrypted != nil && *f.Encrypted,
	}
	return f.APIKey, opts, nil
}

func (o Options) host() string {
	if o.Host != "" {
		return o.Host
	}
	cluster := o.Cluster
	if cluster == "" {
		cluster = "mt1"
	}
	return fmt.Sprintf("ws-%s.pusher.com", cluster)
}

func (o Options) port() int {
	if o.Encrypted {
		if o.WSSPort != 0 {
			return o.WSSPort
		}
		return 443
	}
	if o.WSPort != 0 {
		return o.WSPort
	}
	return 80
}

func (o Options) scheme() string {
	if o.Encrypted {
		return "wss"
	}
	return "ws"
}

// wsURL builds the websocket URL for apiKey under these options. Pusher's
// wire protocol version is pinned at 7, matching the original client.
func (o Options) wsURL(apiKey string) string {
	return fmt.Sprintf("%s://%s:%d/app/%s?protocol=7&client=pusher-go-client&version=1.0.0",
		o.scheme(), o.host(), o.port(), apiKey)
}
