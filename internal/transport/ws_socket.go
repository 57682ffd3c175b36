package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WSSocket is the production Socket, dialed with gorilla/websocket. Grounded
// on UpstreamWSClient's Connect/readLoop/Close trio in the teacher's
// internal/upstream/wsclient.go, trimmed to the Socket contract: the
// request/response multiplexing and resubscribe-on-reconnect logic that
// lived in the teacher's client belong to this repo's connection/channel
// layers instead, not to the transport.
type WSSocket struct {
	url    string
	logger zerolog.Logger

	connMu sync.RWMutex
	conn   *websocket.Conn

	writeMu sync.Mutex

	onOpen    func()
	onMessage func(text string)
	onClose   func(code int, reason string, remote bool)
	onError   func(cause error)

	closeOnce sync.Once
	closed    chan struct{}
}

// NewWSSocket constructs a WSSocket for url. The socket does not dial until
// Open is called.
func NewWSSocket(url string, logger zerolog.Logger) *WSSocket {
	return &WSSocket{
		url:    url,
		logger: logger.With().Str("component", "transport").Logger(),
		closed: make(chan struct{}),
	}
}

func (s *WSSocket) OnOpen(fn func())                                      { s.onOpen = fn }
func (s *WSSocket) OnMessage(fn func(text string))                        { s.onMessage = fn }
func (s *WSSocket) OnClose(fn func(code int, reason string, remote bool)) { s.onClose = fn }
func (s *WSSocket) OnError(fn func(cause error))                          { s.onError = fn }

// Open dials the socket and starts the read loop on its own goroutine. The
// connection core marshals every callback this produces onto its executor.
func (s *WSSocket) Open(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		if s.onError != nil {
			s.onError(fmt.Errorf("failed to connect websocket: %w", err))
		}
		return err
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	if s.onOpen != nil {
		s.onOpen()
	}

	go s.readLoop(conn)
	return nil
}

func (s *WSSocket) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			code := websocket.CloseAbnormalClosure
			reason := err.Error()
			if ce, ok := err.(*websocket.CloseError); ok {
				code = ce.Code
				reason = ce.Text
			}
			s.connMu.Lock()
			s.conn = nil
			s.connMu.Unlock()
			if s.onClose != nil {
				s.onClose(code, reason, true)
			}
			return
		}
		if s.onMessage != nil {
			s.onMessage(string(data))
		}
	}
}

// Send writes one text frame. Returns an error if the socket isn't open or
// the underlying write fails; the caller (connection core) is responsible
// for turning that into a SendError notification rather than changing
// state, per spec.md §4.1.
func (s *WSSocket) Send(text string) error {
	s.connMu.RLock()
	conn := s.conn
	s.connMu.RUnlock()
	if conn == nil {
		return fmt.Errorf("websocket not connected")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// Close closes the underlying connection. Idempotent.
func (s *WSSocket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		s.connMu.Lock()
		conn := s.conn
		s.conn = nil
		s.connMu.Unlock()
		if conn != nil {
			err = conn.Close()
		}
	})
	return err
}

// DefaultFactory produces WSSockets.
type DefaultFactory struct {
	Logger zerolog.Logger
}

func (f DefaultFactory) NewSocket(url string) Socket {
	return NewWSSocket(url, f.Logger)
}
