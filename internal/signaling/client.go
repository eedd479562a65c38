package signaling

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/duet-rtc/duet/internal/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	defaultPongWait       = 60 * time.Second
	defaultMaxMessageSize = 64 * 1024 // enough for SDP blobs
	defaultSendBuffer     = 256
)

// ClientOptions tunes a connection. Zero values fall back to defaults.
type ClientOptions struct {
	SendBuffer     int
	MaxMessageSize int64
	PongWait       time.Duration
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.SendBuffer <= 0 {
		o.SendBuffer = defaultSendBuffer
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = defaultMaxMessageSize
	}
	if o.PongWait <= 0 {
		o.PongWait = defaultPongWait
	}
	return o
}

// Client is a wrapper for a single websocket connection (a peer).
type Client struct {
	// ID is assigned at upgrade time and never changes.
	ID ConnID

	hub  *Hub
	conn *websocket.Conn
	opts ClientOptions

	// send is a buffered channel for all outbound messages. The hub writes
	// to it and closes it; WritePump drains it to the socket.
	send chan *Message

	// closed is owned by the hub goroutine.
	closed bool
}

// NewClient wraps conn with a fresh connection id.
func NewClient(hub *Hub, conn *websocket.Conn, opts ClientOptions) *Client {
	opts = opts.withDefaults()
	return &Client{
		ID:   NewConnID(),
		hub:  hub,
		conn: conn,
		opts: opts,
		send: make(chan *Message, opts.SendBuffer),
	}
}

func (c *Client) remoteAddr() string {
	if c.conn == nil {
		return ""
	}
	return c.conn.RemoteAddr().String()
}

// ReadPump pumps messages from the websocket connection to the hub.
//
// The application runs ReadPump in a per-connection goroutine. The application
// ensures that there is at most one reader on a connection by executing all
// reads from this goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithConn(string(c.ID)).Warnf("read error: %v", err)
			}
			return
		}

		msg := &Message{}
		if err := json.Unmarshal(data, msg); err != nil {
			// An empty type is answered with a malformed-message error.
			msg = &Message{}
		}
		msg.client = c

		c.hub.dispatch(msg)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
//
// A goroutine running WritePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker((c.opts.PongWait * 9) / 10)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				log.WithConn(string(c.ID)).Warnf("write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
