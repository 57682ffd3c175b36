package transport

import "context"

// Fake is an in-memory Socket for tests, the transport-layer equivalent of
// the teacher's mockSubscriptionTarget in internal/subscription/
// registry_test.go: a hand-rolled stand-in that records calls and lets the
// test drive callbacks directly instead of going over a real connection.
type Fake struct {
	OpenCalls  int
	Sent       []string
	CloseCalls int
	OpenErr    error
	SendErr    error

	onOpen    func()
	onMessage func(string)
	onClose   func(code int, reason string, remote bool)
	onError   func(cause error)
}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) OnOpen(fn func())                                     { f.onOpen = fn }
func (f *Fake) OnMessage(fn func(string))                            { f.onMessage = fn }
func (f *Fake) OnClose(fn func(code int, reason string, remote bool)) { f.onClose = fn }
func (f *Fake) OnError(fn func(cause error))                          { f.onError = fn }

func (f *Fake) Open(ctx context.Context) error {
	f.OpenCalls++
	if f.OpenErr != nil {
		return f.OpenErr
	}
	return nil
}

func (f *Fake) Send(text string) error {
	if f.SendErr != nil {
		return f.SendErr
	}
	f.Sent = append(f.Sent, text)
	return nil
}

func (f *Fake) Close() error {
	f.CloseCalls++
	return nil
}

// DeliverOpen simulates the transport finishing its handshake.
func (f *Fake) DeliverOpen() {
	if f.onOpen != nil {
		f.onOpen()
	}
}

// DeliverMessage simulates an inbound text frame.
func (f *Fake) DeliverMessage(text string) {
	if f.onMessage != nil {
		f.onMessage(text)
	}
}

// DeliverClose simulates the transport closing, locally or remotely.
func (f *Fake) DeliverClose(code int, reason string, remote bool) {
	if f.onClose != nil {
		f.onClose(code, reason, remote)
	}
}

// DeliverError simulates a transport-level error.
func (f *Fake) DeliverError(cause error) {
	if f.onError != nil {
		f.onError(cause)
	}
}

// FakeFactory always returns the same pre-built Fake, so a test can hold a
// reference to it before the connection core dials.
type FakeFactory struct {
	Socket *Fake
}

func NewFakeFactory() *FakeFactory {
	return &FakeFactory{Socket: NewFake()}
}

func (f *FakeFactory) NewSocket(url string) Socket {
	return f.Socket
}
