package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// client is the coordinator's handle on one live connection. The transport
// owns the conn's lifecycle; the hub only writes to it through the buffered
// send channel so a slow socket never blocks a broadcast.
type client struct {
	id        string
	createdAt time.Time
	conn      *websocket.Conn
	send      chan []byte
	writeWait time.Duration
}

func newClient(conn *websocket.Conn, buffer int, writeWait time.Duration) *client {
	c := &client{
		id:        uuid.NewString(),
		createdAt: time.Now(),
		conn:      conn,
		send:      make(chan []byte, buffer),
		writeWait: writeWait,
	}
	go c.writePump()
	return c
}

// writePump drains the send channel onto the socket. A write error or missed
// deadline closes the connection; the read loop then drives the normal
// disconnect cleanup.
func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if c.writeWait > 0 {
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// enqueue hands msg to the write pump without blocking. Reports false when
// the client's buffer is full, in which case the message is dropped for this
// client only.
func (c *client) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}
