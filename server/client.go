package server

import (
	"encoding/json"
	"time"

	"github.com/arjwright/gridstrike/protocol"
	"github.com/gorilla/websocket"
)

// Keepalive timings, grounded on the teacher's websocket.go Client pump
// constants.
const (
	readDeadline  = 60 * time.Second
	pingInterval  = 54 * time.Second
	writeDeadline = 10 * time.Second
	sendBuffer    = 256
)

// Client pairs one transport with the server it feeds. ClientID is the
// registry's handle for this connection; it's assigned once, at accept
// time, and never changes.
type Client struct {
	ClientID string
	conn     Conn
	send     chan protocol.Envelope
	server   *Server
}

func newClient(clientID string, conn Conn, srv *Server) *Client {
	return &Client{
		ClientID: clientID,
		conn:     conn,
		send:     make(chan protocol.Envelope, sendBuffer),
		server:   srv,
	}
}

// readPump pumps inbound envelopes from the transport to the server's
// dispatch method. It owns the read deadline and pong handling; when the
// transport errs or closes, it unregisters the client and returns.
func (c *Client) readPump() {
	defer func() {
		c.server.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.logger.Warnw("client closed unexpectedly", "client_id", c.ClientID, "error", err)
			}
			return
		}

		env, err := protocol.Parse(raw)
		if err != nil {
			c.server.logger.Warnw("dropping malformed message", "client_id", c.ClientID, "error", err)
			continue
		}

		c.server.dispatch(c, env)
	}
}

// writePump pumps outbound envelopes from send to the transport, and sends
// periodic pings so the peer's pongs keep resetting readPump's read
// deadline on this side.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := json.Marshal(env)
			if err != nil {
				c.server.logger.Errorw("marshal envelope failed", "client_id", c.ClientID, "error", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
