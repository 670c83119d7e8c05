package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/eyalzus12/FourInARowBattle-sub000/pkg/wire"
)

// ClientConn is the dialing side of the transport: the same lifecycle states
// as the listener side, minus peer-id assignment. Decoded inbound messages
// arrive on Messages; the channel closes when the connection does.
type ClientConn struct {
	ws     *websocket.Conn
	state  atomic.Int32
	outbox chan []byte
	inbox  chan wire.Message
	log    *zap.Logger

	closeOnce sync.Once
	closed    chan struct{}

	errMu   sync.Mutex
	lastErr error
}

func (c *ClientConn) setState(s State) { c.state.Store(int32(s)) }

// Dial connects to a server URL (ws:// or wss://; a wss scheme routes the
// connection through the TLS sub-handshake inside the HTTP stack).
func Dial(ctx context.Context, url string, log *zap.Logger) (*ClientConn, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &ClientConn{
		outbox: make(chan []byte, outboxSize),
		inbox:  make(chan wire.Message, outboxSize),
		log:    log,
		closed: make(chan struct{}),
	}
	c.setState(StateConnecting)

	// Dial runs TCP connect, optional TLS, and the WebSocket upgrade in one
	// call; the intermediate states are visible only briefly.
	c.setState(StateWsHandshaking)
	ws, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		c.setState(StateClosed)
		return nil, err
	}
	c.ws = ws
	c.setState(StateOpen)

	go c.writePump()
	go c.readPump()
	return c, nil
}

// Messages is the stream of decoded inbound messages. It closes on
// disconnect; check Err afterwards to distinguish a clean close from a
// protocol failure.
func (c *ClientConn) Messages() <-chan wire.Message { return c.inbox }

// State returns the connection lifecycle state.
func (c *ClientConn) State() State { return State(c.state.Load()) }

// Err returns the fatal error that ended the connection, if any.
func (c *ClientConn) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.lastErr
}

// Send enqueues one message; it fails once the connection is no longer open.
func (c *ClientConn) Send(m wire.Message) error {
	if c.State() != StateOpen {
		return errNotOpen
	}
	select {
	case c.outbox <- wire.Encode(m):
		return nil
	default:
		return errNotOpen
	}
}

// Close sends a courtesy Disconnecting notice with the given reason, then
// closes the socket. The notice is written synchronously: handing it to the
// write pump would race the close and lose the frame nearly every time.
func (c *ClientConn) Close(reason wire.DisconnectReason) {
	if c.State() == StateOpen {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = c.ws.Write(ctx, websocket.MessageBinary, wire.Encode(wire.Disconnecting{Reason: reason}))
		cancel()
	}
	code := websocket.StatusNormalClosure
	if reason == wire.ReasonDesync {
		code = websocket.StatusProtocolError
	}
	c.shut(code, reason.String(), nil)
}

// Closed reports full closure.
func (c *ClientConn) Closed() <-chan struct{} { return c.closed }

func (c *ClientConn) shut(code websocket.StatusCode, why string, err error) {
	c.closeOnce.Do(func() {
		c.setState(StateClosing)
		if err != nil {
			c.errMu.Lock()
			c.lastErr = err
			c.errMu.Unlock()
		}
		_ = c.ws.Close(code, why)
		c.setState(StateClosed)
		close(c.closed)
	})
}

func (c *ClientConn) writePump() {
	for {
		select {
		case <-c.closed:
			return
		case payload := <-c.outbox:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := c.ws.Write(ctx, websocket.MessageBinary, payload)
			cancel()
			if err != nil {
				c.shut(websocket.StatusAbnormalClosure, "write failed", err)
				return
			}
		}
	}
}

// readPump is the sole closer of the inbox channel, so no other goroutine can
// close it out from under a blocked send.
func (c *ClientConn) readPump() {
	defer close(c.inbox)
	var asm wire.Assembler
	for {
		typ, data, err := c.ws.Read(context.Background())
		if err != nil {
			c.shut(websocket.StatusNormalClosure, "", nil)
			return
		}
		if typ != websocket.MessageBinary {
			continue
		}
		asm.Push(data)
		for {
			m, err := asm.Next()
			if err != nil {
				c.log.Warn("malformed frame from server", zap.Error(err))
				c.shut(websocket.StatusProtocolError, "desync", err)
				return
			}
			if m == nil {
				break
			}
			select {
			case c.inbox <- m:
			case <-c.closed:
				return
			}
		}
	}
}
