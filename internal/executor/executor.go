// Package executor implements the host-supplied dispatch sink described in
// spec.md §2.1/§5: every listener callback and every state-machine
// transition runs serially on whatever thread the executor chooses. Grounded
// on the teacher's dispatchWorker/eventChan pair in
// internal/upstream/wsclient.go: a single goroutine drains a buffered
// channel of work items, in order, forever.
package executor

import "github.com/rs/zerolog"

// Executor accepts work to be run serially. Submit must never block the
// caller; it enqueues and returns.
type Executor interface {
	Submit(fn func())
	// Close stops accepting new work once queued work has drained.
	Close()
}

// Serial is the production Executor: one goroutine, one buffered channel.
// Submitting after Close, or when the queue is full, drops the work and
// logs it — the same non-blocking-submit-with-a-warning shape as
// UpstreamWSClient.readLoop's "event queue full, dropping subscription
// message" branch.
type Serial struct {
	work    chan func()
	done    chan struct{}
	logger  zerolog.Logger
	dropped uint64
}

// NewSerial creates a Serial executor with the given queue depth and starts
// its worker goroutine.
func NewSerial(queueDepth int, logger zerolog.Logger) *Serial {
	if queueDepth <= 0 {
		queueDepth = 256
	}
	s := &Serial{
		work:   make(chan func(), queueDepth),
		done:   make(chan struct{}),
		logger: logger.With().Str("component", "executor").Logger(),
	}
	go s.run()
	return s
}

func (s *Serial) run() {
	for fn := range s.work {
		fn()
	}
	close(s.done)
}

// Submit enqueues fn to run on the worker goroutine. Never blocks: if the
// queue is full the work is dropped and a warning is logged, matching the
// teacher's overflow policy rather than silently blocking the caller.
func (s *Serial) Submit(fn func()) {
	defer func() {
		// Sending on the work channel after Close panics; that work is
		// dropped and logged like an overflow.
		if recover() != nil {
			s.dropped++
			s.logger.Warn().Uint64("dropped", s.dropped).Msg("executor closed, dropping work item")
		}
	}()
	select {
	case s.work <- fn:
	default:
		s.dropped++
		s.logger.Warn().Uint64("dropped", s.dropped).Msg("executor queue full, dropping work item")
	}
}

// Close stops the worker after draining what's already queued.
func (s *Serial) Close() {
	close(s.work)
	<-s.done
}

// Inline runs every submitted function synchronously on the caller's
// goroutine. This is the test seam spec.md §5 calls for ("an inline
// executor that runs submitted work synchronously"), grounded on the
// teacher's registry_test.go style of substituting an in-memory
// collaborator (mockSubscriptionTarget) for the real one.
type Inline struct{}

func (Inline) Submit(fn func()) { fn() }
func (Inline) Close()           {}
