package session

import (
	"net"

	"github.com/auradb/aura/internal/aerr"
)

// Client holds an established, encrypted connection to an AuraDB server.
type Client struct {
	conn net.Conn
	ch   *Channel
}

// Connect dials addr, performs the client side of the PQC handshake, and
// returns a Client ready to send queries.
func Connect(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, aerr.Wrap("dial server", err)
	}

	sessionKey, err := ClientHandshake(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Client{conn: conn, ch: NewChannel(conn, sessionKey)}, nil
}

// SendQuery sends sql as one request frame and returns the server's
// response text.
func (c *Client) SendQuery(sql string) (string, error) {
	if err := c.ch.Send([]byte(sql)); err != nil {
		return "", err
	}
	res, err := c.ch.Receive()
	if err != nil {
		return "", err
	}
	return string(res), nil
}

// Close ends the underlying connection.
func (c *Client) Close() error {
	return aerr.Wrap("close connection", c.conn.Close())
}
