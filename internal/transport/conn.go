// Package transport promotes raw accepted streams into open application
// channels and shuttles wire bytes in both directions. The WebSocket (and
// optional TLS) handshakes themselves belong to the HTTP stack; this package
// owns the per-connection state machine, the handshake time box, peer id
// assignment, and backpressure.
package transport

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/eyalzus12/FourInARowBattle-sub000/internal/server"
	"github.com/eyalzus12/FourInARowBattle-sub000/pkg/wire"
)

// State is one step of the connection lifecycle.
type State int32

const (
	StateConnecting State = iota
	StateTlsHandshaking
	StateWsHandshaking
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateTlsHandshaking:
		return "tls-handshaking"
	case StateWsHandshaking:
		return "ws-handshaking"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

var errNotOpen = errors.New("transport: connection not open")

const outboxSize = 64

// Conn is one peer-facing connection. The id is assigned when the connection
// reaches Open and is released for reuse only after it fully closes. The
// trace id is for log correlation and never reused.
type Conn struct {
	id    server.PeerID
	trace string

	ws      *websocket.Conn
	state   atomic.Int32
	outbox  chan []byte
	limiter *rate.Limiter
	log     *zap.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

func newConn(ws *websocket.Conn, log *zap.Logger, limit rate.Limit, burst int) *Conn {
	c := &Conn{
		trace:  uuid.NewString(),
		ws:     ws,
		outbox: make(chan []byte, outboxSize),
		log:    log,
		closed: make(chan struct{}),
	}
	if limit > 0 {
		c.limiter = rate.NewLimiter(limit, burst)
	}
	return c
}

// ID returns the peer id; valid only while the connection is open.
func (c *Conn) ID() server.PeerID { return c.id }

// State returns the current lifecycle state.
func (c *Conn) State() State { return State(c.state.Load()) }

func (c *Conn) setState(s State) { c.state.Store(int32(s)) }

// Send enqueues one encoded message. It fails when the connection is not
// open or its outbox is full (a stalled peer is bounded by this buffer, not
// by any core logic).
func (c *Conn) Send(m wire.Message) error {
	if c.State() != StateOpen {
		return errNotOpen
	}
	select {
	case c.outbox <- wire.Encode(m):
		return nil
	default:
		return errors.New("transport: send buffer full")
	}
}

// writePump drains the outbox onto the socket. One per connection.
func (c *Conn) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		case payload := <-c.outbox:
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.ws.Write(wctx, websocket.MessageBinary, payload)
			cancel()
			if err != nil {
				c.close(websocket.StatusAbnormalClosure, "write failed")
				return
			}
		}
	}
}

// close performs the Closing -> Closed transition exactly once.
func (c *Conn) close(code websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		c.setState(StateClosing)
		_ = c.ws.Close(code, reason)
		c.setState(StateClosed)
		close(c.closed)
	})
}

// Closed reports whether the connection has fully closed.
func (c *Conn) Closed() <-chan struct{} { return c.closed }
