// Package events receives progress lines pushed by the task server
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/caiinstall/caictl/internal/models"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ProgressEventName is the event name used by the server for log lines
const ProgressEventName = "task_progress"

// Engine.IO packet types
const (
	eioOpen    = '0'
	eioClose   = '1'
	eioPing    = '2'
	eioPong    = '3'
	eioMessage = '4'
	eioNoop    = '6'
)

// Socket.IO packet types, carried inside Engine.IO messages
const (
	sioConnect      = '0'
	sioDisconnect   = '1'
	sioEvent        = '2'
	sioConnectError = '4'
)

// Handler receives events in arrival order
type Handler func(ev models.ProgressEvent)

// envelope is the named-event framing some servers use around the payload
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// openPacket is the payload of the Engine.IO open packet
type openPacket struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"`
	PingTimeout  int    `json:"pingTimeout"`
}

// feedConn is the state of one feed connection
type feedConn struct {
	conn *websocket.Conn
	// readTimeout is set from the open packet, zero until then
	readTimeout time.Duration
}

// Sink keeps one websocket connection to the event feed and fans events out to handlers.
//
// The feed may speak Socket.IO over the Engine.IO websocket transport, which is what the task
// server does, or send bare JSON frames. Both are read from the same loop.
// Delivery is independent of status polling. There is no reconnect and no replay.
type Sink struct {
	url       string
	dialer    *websocket.Dialer
	header    http.Header
	logger    *zap.Logger
	mu        sync.RWMutex
	handlers  []Handler
	connected atomic.Bool
}

// NewSink creates a sink for the feed at url (ws:// or wss://)
func NewSink(url string, logger *zap.Logger) *Sink {
	return &Sink{
		url: url,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		header: http.Header{},
		logger: logger,
	}
}

// OnEvent registers a handler. Handlers run on the read goroutine and must not block.
func (s *Sink) OnEvent(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

// Connected reports whether the read loop currently holds a connection
func (s *Sink) Connected() bool {
	return s.connected.Load()
}

// Run dials the feed and delivers events until ctx is done or the connection drops.
// A dropped connection ends delivery without an error; only a failed dial is reported.
func (s *Sink) Run(ctx context.Context) error {
	conn, resp, err := s.dialer.DialContext(ctx, s.url, s.header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to connect to event feed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("failed to connect to event feed: %w", err)
	}
	defer conn.Close()

	s.connected.Store(true)
	defer s.connected.Store(false)
	s.logger.Info("event feed connected", zap.String("url", s.url))

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	fc := &feedConn{conn: conn}
	for {
		if fc.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(fc.readTimeout))
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("event feed dropped, progress delivery stopped", zap.Error(err))
			return nil
		}
		if len(data) == 0 {
			continue
		}

		if !isEnginePacket(data) {
			s.deliver(decodeEvent(data))
			continue
		}
		stop, err := s.handlePacket(fc, data)
		if err != nil {
			s.logger.Warn("event feed refused, progress delivery stopped", zap.Error(err))
			return nil
		}
		if stop {
			s.logger.Warn("event feed closed by server, progress delivery stopped")
			return nil
		}
	}
}

// handlePacket answers the Engine.IO handshake and keepalive and unwraps Socket.IO events.
// It reports stop when the server ends the session.
func (s *Sink) handlePacket(fc *feedConn, data []byte) (bool, error) {
	switch data[0] {
	case eioOpen:
		var open openPacket
		if err := json.Unmarshal(data[1:], &open); err != nil {
			return false, fmt.Errorf("invalid open packet: %w", err)
		}
		if open.PingInterval > 0 {
			fc.readTimeout = time.Duration(open.PingInterval+open.PingTimeout) * time.Millisecond
		}
		s.logger.Debug("event feed handshake", zap.String("sid", open.SID), zap.Duration("read_timeout", fc.readTimeout))
		// join the default namespace
		return false, fc.conn.WriteMessage(websocket.TextMessage, []byte{eioMessage, sioConnect})
	case eioPing:
		// the pong echoes the ping payload
		pong := append([]byte{eioPong}, data[1:]...)
		return false, fc.conn.WriteMessage(websocket.TextMessage, pong)
	case eioClose:
		return true, nil
	case eioMessage:
		return s.handleSocketPacket(data[1:])
	}
	// pong, upgrade and noop need no answer
	return false, nil
}

func (s *Sink) handleSocketPacket(data []byte) (bool, error) {
	if len(data) == 0 {
		return false, nil
	}
	switch data[0] {
	case sioConnect:
		s.logger.Debug("event feed namespace joined")
	case sioDisconnect:
		return true, nil
	case sioConnectError:
		return false, fmt.Errorf("namespace connect refused: %s", data[1:])
	case sioEvent:
		s.deliver(decodeSocketEvent(data[1:]))
	}
	return false, nil
}

func (s *Sink) deliver(ev models.ProgressEvent, ok bool) {
	if !ok {
		s.logger.Debug("ignoring unrecognised event frame")
		return
	}
	ev.ReceivedAt = time.Now()
	s.dispatch(ev)
}

func (s *Sink) dispatch(ev models.ProgressEvent) {
	s.mu.RLock()
	handlers := make([]Handler, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// isEnginePacket reports whether a frame starts with an Engine.IO packet type
func isEnginePacket(data []byte) bool {
	return data[0] >= eioOpen && data[0] <= eioNoop
}

// decodeSocketEvent reads the body of a Socket.IO event packet: an optional "/namespace,",
// an optional ack id, then the ["name", payload] array
func decodeSocketEvent(data []byte) (models.ProgressEvent, bool) {
	if len(data) > 0 && data[0] == '/' {
		i := bytes.IndexByte(data, ',')
		if i < 0 {
			return models.ProgressEvent{}, false
		}
		data = data[i+1:]
	}
	data = bytes.TrimLeft(data, "0123456789")

	var args []json.RawMessage
	if err := json.Unmarshal(data, &args); err != nil || len(args) < 2 {
		return models.ProgressEvent{}, false
	}
	var name string
	if err := json.Unmarshal(args[0], &name); err != nil || name != ProgressEventName {
		return models.ProgressEvent{}, false
	}
	return decodePayload(args[1])
}

// decodeEvent accepts a bare {type, message} frame or an {event, data} envelope
func decodeEvent(data []byte) (models.ProgressEvent, bool) {
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Event != "" {
		if env.Event != ProgressEventName || len(env.Data) == 0 {
			return models.ProgressEvent{}, false
		}
		data = env.Data
	}
	return decodePayload(data)
}

func decodePayload(data []byte) (models.ProgressEvent, bool) {
	var ev models.ProgressEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return models.ProgressEvent{}, false
	}
	if ev.Message == "" {
		return models.ProgressEvent{}, false
	}
	if ev.Type == "" {
		ev.Type = "info"
	}
	return ev, true
}
