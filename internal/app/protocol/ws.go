package protocol

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"roombot/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed to wait for a Pong message from the bridge.
	pongWait = 60 * time.Second

	// frequency at which a Ping message is sent.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound frame.
	maxMessageSize = 64 * 1024

	sendQueueSize  = 256
	eventQueueSize = 512
)

// WSConfig describes how to reach and log into the bridge.
type WSConfig struct {
	URL   string
	Login LoginPayload
}

// wsConn is one websocket connection with its own send queue.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *wsConn) close() {
	c.once.Do(func() { close(c.done) })
}

// WSTransport implements Transport over a websocket to the room protocol bridge.
type WSTransport struct {
	cfg    WSConfig
	dialer *websocket.Dialer

	events chan Event
	done   chan struct{}

	// mu guards current and closed.
	mu      sync.Mutex
	current *wsConn
	closed  bool

	logger zerolog.Logger
}

// NewWSTransport creates a transport. Call Connect to open the connection.
func NewWSTransport(cfg WSConfig) *WSTransport {
	return &WSTransport{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: 15 * time.Second, Proxy: http.ProxyFromEnvironment},
		events: make(chan Event, eventQueueSize),
		done:   make(chan struct{}),
		logger: logx.Room("transport", cfg.Login.Room),
	}
}

// Connect dials the bridge, logs in and starts the read and write pumps.
func (t *WSTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrDisconnected
	}
	t.mu.Unlock()

	conn, _, err := t.dialer.DialContext(ctx, t.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dialing room bridge: %w", err)
	}

	c := &wsConn{
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}

	login, err := encodeFrame(FrameLogin, t.cfg.Login)
	if err != nil {
		conn.Close()
		return err
	}
	c.send <- login

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		conn.Close()
		return ErrDisconnected
	}
	t.current = c
	t.mu.Unlock()

	go t.writePump(c)
	go t.readPump(c)

	t.logger.Info().Str("url", t.cfg.URL).Msg("Connected to room bridge.")
	return nil
}

func (t *WSTransport) Events() <-chan Event {
	return t.events
}

func (t *WSTransport) Done() <-chan struct{} {
	return t.done
}

// Disconnect closes the connection for good. Later sends return ErrDisconnected.
func (t *WSTransport) Disconnect() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	c := t.current
	t.current = nil
	t.mu.Unlock()

	close(t.done)
	if c != nil {
		t.closeConn(c)
	}
	t.logger.Info().Msg("Disconnected from room bridge.")
	return nil
}

// Reconnect drops the current connection and dials again.
func (t *WSTransport) Reconnect(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrDisconnected
	}
	c := t.current
	t.current = nil
	t.mu.Unlock()

	if c != nil {
		t.closeConn(c)
	}
	return t.Connect(ctx)
}

func (t *WSTransport) closeConn(c *wsConn) {
	c.close()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		t.logger.Debug().Err(err).Msg("Failed to send close frame.")
	}
	if err := c.conn.Close(); err != nil {
		t.logger.Debug().Err(err).Msg("Connection close error.")
	}
}

// readPump decodes inbound frames into events until the connection fails.
func (t *WSTransport) readPump(c *wsConn) {
	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		t.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	// The bridge may ping us as well.
	c.conn.SetPingHandler(func(data string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return c.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			t.onReadError(c, err)
			return
		}

		ev, err := decodeFrame(data)
		if err != nil {
			t.logger.Warn().Err(err).Bytes("frame", data).Msg("Bridge sent invalid frame")
			continue
		}
		if ev == nil {
			continue
		}
		t.emit(ev)
	}
}

func (t *WSTransport) onReadError(c *wsConn, err error) {
	select {
	case <-c.done:
		// closed by us
		return
	default:
	}
	c.close()

	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		t.logger.Warn().Err(err).Msg("Room bridge connection lost")
	} else {
		t.logger.Info().Err(err).Msg("Room bridge closed the connection")
	}

	t.mu.Lock()
	stale := t.current != c
	if !stale {
		t.current = nil
	}
	t.mu.Unlock()
	if !stale {
		t.emit(DisconnectedEvent{Err: err})
	}
}

// emit delivers ev unless the transport is shut down first.
func (t *WSTransport) emit(ev Event) {
	select {
	case t.events <- ev:
	case <-t.done:
	}
}

// writePump writes queued frames and keeps the connection alive with pings.
func (t *WSTransport) writePump(c *wsConn) {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// a write failure unblocks readPump, which reports the disconnect
		select {
		case <-c.done:
		default:
			if err := c.conn.Close(); err != nil {
				t.logger.Debug().Err(err).Msg("Connection close error in writePump")
			}
		}
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				t.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				t.logger.Error().Err(err).Msg("Error writing frame")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				t.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				t.logger.Error().Err(err).Msg("Error writing ping")
				return
			}

		case <-c.done:
			return
		}
	}
}

// enqueue queues an outbound frame on the current connection.
func (t *WSTransport) enqueue(ft FrameType, payload any) error {
	t.mu.Lock()
	c, closed := t.current, t.closed
	t.mu.Unlock()
	if closed || c == nil {
		return ErrDisconnected
	}

	frame, err := encodeFrame(ft, payload)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrDisconnected
	case c.send <- frame:
		return nil
	default:
		t.logger.Warn().Int("queue_len", len(c.send)).Str("frame", string(ft)).Msg("Send queue full, dropping frame")
		return ErrSendQueueFull
	}
}

func (t *WSTransport) SendChat(text string) error {
	return t.enqueue(FrameSendChat, textPayload{Text: text})
}

func (t *WSTransport) SendPrivate(nick, text string) error {
	return t.enqueue(FrameSendPrivate, privatePayload{To: nick, Text: text})
}

func (t *WSTransport) SendModeratorMessage(text string) error {
	return t.enqueue(FrameModMessage, textPayload{Text: text})
}

func (t *WSTransport) SendTopic(topic string) error {
	return t.enqueue(FrameTopic, textPayload{Text: topic})
}

func (t *WSTransport) SendNick(nick string) error {
	return t.enqueue(FrameSetNick, targetPayload{Nick: nick})
}

func (t *WSTransport) SendBan(nick string, id int) error {
	return t.enqueue(FrameBan, targetPayload{Nick: nick, ID: id})
}

func (t *WSTransport) SendForgive(id int) error {
	return t.enqueue(FrameForgive, targetPayload{ID: id})
}

func (t *WSTransport) SendCloseBroadcast(nick string) error {
	return t.enqueue(FrameCloseBroadcast, targetPayload{Nick: nick})
}

func (t *WSTransport) SendCamApprove(nick string, id int) error {
	return t.enqueue(FrameCamApprove, targetPayload{Nick: nick, ID: id})
}

func (t *WSTransport) RequestBanList() error {
	return t.enqueue(FrameBanList, nil)
}

func (t *WSTransport) StartBroadcast() error {
	return t.enqueue(FrameStreamStart, nil)
}

func (t *WSTransport) StopBroadcast() error {
	return t.enqueue(FrameStreamStop, nil)
}
