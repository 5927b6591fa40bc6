package ws

import (
	"crypto/rand"
	"encoding/hex"
)

// sendBuffer bounds the frames queued for a slow reader. Frames beyond it are
// dropped; the next state message carries the full snapshot anyway.
const sendBuffer = 64

// Client is one websocket connection. send is drained by the writer goroutine
// and never closed; done closes when the connection ends.
type Client struct {
	id   string
	send chan []byte
	done chan struct{}
}

func newClient() *Client {
	return &Client{id: randID(), send: make(chan []byte, sendBuffer), done: make(chan struct{})}
}

// deliver queues b without blocking.
func (c *Client) deliver(b []byte) {
	select {
	case <-c.done:
	case c.send <- b:
	default:
	}
}

func randID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
