package transport

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Faultbox/pivot/internal/protocol"
)

// PacketHandler handles incoming packets.
type PacketHandler func(protocol.Packet) error

// Client subscribes to a daemon observer endpoint.
type Client struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	handlers map[uint16]PacketHandler

	connected bool
}

// NewClient creates a new observer client.
func NewClient() *Client {
	return &Client{
		handlers: make(map[uint16]PacketHandler),
	}
}

// Connect dials the observer endpoint, e.g. ws://127.0.0.1:7680/observe.
func (c *Client) Connect(url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return fmt.Errorf("already connected")
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", url, err)
	}

	c.conn = conn
	c.connected = true
	return nil
}

// Disconnect closes the connection.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.connected = false
}

// IsConnected returns connection status.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// RegisterHandler registers a packet handler.
func (c *Client) RegisterHandler(packetID uint16, handler PacketHandler) {
	c.handlers[packetID] = handler
}

// Process reads one packet and dispatches it. Blocks until a packet
// arrives or the connection drops.
func (c *Client) Process() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}

	_, msg, err := conn.ReadMessage()
	if err != nil {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		return err
	}

	id, err := protocol.PeekID(msg)
	if err != nil {
		return err
	}
	pkt, err := protocol.Decode(msg)
	if err != nil {
		return err
	}

	if handler := c.handlers[id]; handler != nil {
		return handler(pkt)
	}
	return nil
}
