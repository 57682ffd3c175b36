// Package transport defines the abstract bidirectional text-frame channel
// the connection core consumes (spec.md §2.2/§6) and a production
// implementation backed by github.com/gorilla/websocket, the same transport
// library the teacher dials in internal/upstream/wsclient.go.
package transport

import "context"

// Socket is the thin bidirectional channel the connection core drives. The
// core is the Socket's sole owner: only it ever calls Send/Close, and the
// callbacks it registers run on whatever transport goroutine delivers them
// — the core is responsible for marshalling onto its executor before
// touching any shared state (spec.md §5).
type Socket interface {
	// Open dials the transport. Open must not block past the handshake;
	// OnOpen/OnError report the outcome.
	Open(ctx context.Context) error
	// Send writes one text frame. Safe to call from the core's executor
	// goroutine only.
	Send(text string) error
	// Close closes the transport. Idempotent.
	Close() error

	OnOpen(fn func())
	OnMessage(fn func(text string))
	OnClose(fn func(code int, reason string, remote bool))
	OnError(fn func(cause error))
}

// Factory produces a fresh Socket for a given URL. A factory, not a bare
// constructor, is the seam spec.md §9 calls for ("Factory seam for
// testing") — grounded on the teacher's NewUpstreamWSClient(...) being
// itself wrapped by Upstream.StartWS, which is the thing tests substitute.
type Factory interface {
	NewSocket(url string) Socket
}
