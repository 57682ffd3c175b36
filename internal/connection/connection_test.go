package connection

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/JokBal/pusher-go-client/internal/clock"
	"github.com/JokBal/pusher-go-client/internal/executor"
	"github.com/JokBal/pusher-go-client/internal/transport"
	"github.com/JokBal/pusher-go-client/internal/wire"
)

// recordingListener captures every callback it receives, guarded by a
// mutex since the production executor runs on its own goroutine.
type recordingListener struct {
	mu      sync.Mutex
	changes []StateChange
	errors  []capturedError
}

type capturedError struct {
	message string
	code    *string
	cause   error
}

func (l *recordingListener) OnConnectionStateChange(change StateChange) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.changes = append(l.changes, change)
}

func (l *recordingListener) OnError(message string, code *string, cause error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, capturedError{message: message, code: code, cause: cause})
}

func (l *recordingListener) snapshot() ([]StateChange, []capturedError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]StateChange(nil), l.changes...), append([]capturedError(nil), l.errors...)
}

// fakeRouter records RouteFrame/HandleStateChange calls instead of
// delegating to a real channel registry.
type fakeRouter struct {
	mu      sync.Mutex
	frames  []*wire.Frame
	changes []StateChange
}

func (r *fakeRouter) RouteFrame(frame *wire.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
}

func (r *fakeRouter) HandleStateChange(change StateChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, change)
}

func newTestCore(t *testing.T) (*Core, *transport.Fake) {
	t.Helper()
	factory := transport.NewFakeFactory()
	logger := zerolog.Nop()
	core := New("wss://example.test/app/key", factory, executor.Inline{}, clock.Real{}, logger)
	return core, factory.Socket
}

func TestFreshConnect(t *testing.T) {
	core, sock := newTestCore(t)
	listener := &recordingListener{}
	core.Bind(All, listener)

	core.Connect()

	changes, _ := listener.snapshot()
	if len(changes) != 1 || changes[0] != (StateChange{Previous: Disconnected, Current: Connecting}) {
		t.Fatalf("expected one DISCONNECTED->CONNECTING change, got %v", changes)
	}
	if sock.OpenCalls != 1 {
		t.Fatalf("expected exactly one socket.Open call, got %d", sock.OpenCalls)
	}

	sock.DeliverMessage(`{"event":"pusher:connection_established","data":"{\"socket_id\":\"21112.816204\"}"}`)

	changes, _ = listener.snapshot()
	if len(changes) != 2 || changes[1] != (StateChange{Previous: Connecting, Current: Connected}) {
		t.Fatalf("expected CONNECTING->CONNECTED change, got %v", changes)
	}
	if core.SocketID() != "21112.816204" {
		t.Fatalf("expected socket id 21112.816204, got %q", core.SocketID())
	}
}

func TestServerErrorFrame(t *testing.T) {
	core, sock := newTestCore(t)
	listener := &recordingListener{}
	core.Bind(All, listener)
	core.Connect()
	sock.DeliverMessage(`{"event":"pusher:connection_established","data":"{\"socket_id\":\"21112.816204\"}"}`)

	sock.DeliverMessage(`{"event":"pusher:error","data":{"code":4001,"message":"Could not find app by key 12345"}}`)

	changes, errs := listener.snapshot()
	if len(changes) != 2 {
		t.Fatalf("expected no further state changes, got %v", changes)
	}
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error notification, got %v", errs)
	}
	got := errs[0]
	if got.message != "Could not find app by key 12345" || got.code == nil || *got.code != "4001" || got.cause != nil {
		t.Fatalf("unexpected error notification: %+v", got)
	}
}

func TestSendWhileDisconnected(t *testing.T) {
	core, sock := newTestCore(t)
	listener := &recordingListener{}
	core.Bind(All, listener)

	core.Send("message")

	_, errs := listener.snapshot()
	if len(errs) != 1 || errs[0].message != "Cannot send a message while in DISCONNECTED state" {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(sock.Sent) != 0 {
		t.Fatalf("expected zero socket sends, got %v", sock.Sent)
	}
}

func TestIncomingChannelEventRoutedToRegistry(t *testing.T) {
	core, sock := newTestCore(t)
	router := &fakeRouter{}
	core.SetRouter(router)
	core.Connect()
	sock.DeliverMessage(`{"event":"pusher:connection_established","data":"{\"socket_id\":\"21112.816204\"}"}`)

	sock.DeliverMessage(`{"event":"my-event","channel":"my-channel","data":{"fish":"chips"}}`)

	router.mu.Lock()
	defer router.mu.Unlock()
	if len(router.frames) != 1 || router.frames[0].Event != "my-event" || router.frames[0].Channel != "my-channel" {
		t.Fatalf("expected the frame to be routed, got %v", router.frames)
	}
}

func TestDisconnectStateMachine(t *testing.T) {
	t.Run("from connected", func(t *testing.T) {
		core, sock := newTestCore(t)
		listener := &recordingListener{}
		core.Bind(All, listener)
		core.Connect()
		sock.DeliverMessage(`{"event":"pusher:connection_established","data":"{\"socket_id\":\"1.1\"}"}`)

		core.Disconnect()

		changes, _ := listener.snapshot()
		last := changes[len(changes)-1]
		if last != (StateChange{Previous: Connected, Current: Disconnecting}) {
			t.Fatalf("expected CONNECTED->DISCONNECTING, got %v", last)
		}
		if sock.CloseCalls != 1 {
			t.Fatalf("expected exactly one socket.Close call, got %d", sock.CloseCalls)
		}
	})

	t.Run("from disconnected is a no-op", func(t *testing.T) {
		core, sock := newTestCore(t)
		listener := &recordingListener{}
		core.Bind(All, listener)

		core.Disconnect()

		changes, _ := listener.snapshot()
		if len(changes) != 0 || sock.CloseCalls != 0 {
			t.Fatalf("expected no callbacks and no closes, got changes=%v closes=%d", changes, sock.CloseCalls)
		}
	})

	t.Run("from connecting is a no-op for the close call", func(t *testing.T) {
		core, sock := newTestCore(t)
		core.Connect()

		core.Disconnect()

		if sock.CloseCalls != 0 {
			t.Fatalf("expected zero closes while CONNECTING, got %d", sock.CloseCalls)
		}
	})

	t.Run("from disconnecting is a no-op", func(t *testing.T) {
		core, sock := newTestCore(t)
		core.Connect()
		sock.DeliverMessage(`{"event":"pusher:connection_established","data":"{\"socket_id\":\"1.1\"}"}`)
		core.Disconnect()
		closesAfterFirst := sock.CloseCalls

		core.Disconnect()

		if sock.CloseCalls != closesAfterFirst {
			t.Fatalf("expected no additional close calls, got %d want %d", sock.CloseCalls, closesAfterFirst)
		}
	})
}

func TestIdempotentConnect(t *testing.T) {
	core, sock := newTestCore(t)
	listener := &recordingListener{}
	core.Bind(All, listener)

	core.Connect()
	core.Connect()

	if sock.OpenCalls != 1 {
		t.Fatalf("expected exactly one socket.Open call, got %d", sock.OpenCalls)
	}
	changes, _ := listener.snapshot()
	if len(changes) != 1 {
		t.Fatalf("expected exactly one state change, got %v", changes)
	}
}

func TestBindFilterSelectivity(t *testing.T) {
	core, sock := newTestCore(t)
	all := &recordingListener{}
	onlyConnected := &recordingListener{}
	core.Bind(All, all)
	core.Bind(Connected, onlyConnected)

	core.Connect()
	sock.DeliverMessage(`{"event":"pusher:connection_established","data":"{\"socket_id\":\"1.1\"}"}`)

	allChanges, _ := all.snapshot()
	if len(allChanges) != 2 {
		t.Fatalf("ALL listener should see every transition, got %v", allChanges)
	}
	connectedChanges, _ := onlyConnected.snapshot()
	if len(connectedChanges) != 1 || connectedChanges[0].Current != Connected {
		t.Fatalf("CONNECTED listener should see only the CONNECTED transition, got %v", connectedChanges)
	}
}

func TestUnbindReportsWhetherSomethingWasRemoved(t *testing.T) {
	core, _ := newTestCore(t)
	listener := &recordingListener{}
	core.Bind(All, listener)

	if !core.Unbind(All, listener) {
		t.Fatalf("expected Unbind to report true for a listener that was bound")
	}
	if core.Unbind(All, listener) {
		t.Fatalf("expected Unbind to report false the second time")
	}
}
