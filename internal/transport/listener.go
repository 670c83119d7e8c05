package transport

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/eyalzus12/FourInARowBattle-sub000/internal/server"
	"github.com/eyalzus12/FourInARowBattle-sub000/pkg/wire"
)

// Config tunes the listener. Zero values get defaults.
type Config struct {
	// HandshakeTimeout bounds how long a connection may sit short of Open
	// before being force-closed and discarded.
	HandshakeTimeout time.Duration
	// MaxPeers bounds the peer-id range.
	MaxPeers int
	// MessagesPerSecond / Burst configure per-peer inbound rate limiting;
	// zero disables it.
	MessagesPerSecond rate.Limit
	Burst             int
}

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultMaxPeers         = 1024
)

// Listener accepts connections, walks each through the handshake state
// machine, and bridges open peers to the authority mailbox. It implements
// server.Sender for the outbound direction.
type Listener struct {
	cfg   Config
	inbox chan<- server.Msg
	log   *zap.Logger

	ids      *idAllocator
	refusing atomic.Bool

	mu    sync.Mutex
	conns map[server.PeerID]*Conn
}

func NewListener(cfg Config, log *zap.Logger) *Listener {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.MaxPeers <= 0 {
		cfg.MaxPeers = defaultMaxPeers
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Listener{
		cfg:   cfg,
		log:   log,
		ids:   newIDAllocator(cfg.MaxPeers),
		conns: make(map[server.PeerID]*Conn),
	}
}

// Bind points the listener at the authority mailbox. Must be called before
// the HTTP server starts accepting.
func (l *Listener) Bind(inbox chan<- server.Msg) { l.inbox = inbox }

// SetRefusing toggles refuse-new-connections mode. While set, new accepts
// are turned away with a clean close and nothing else.
func (l *Listener) SetRefusing(on bool) { l.refusing.Store(on) }

// Handler is mounted on the websocket route. It runs the full
// Connecting -> [TlsHandshaking] -> WsHandshaking -> Open promotion; the TLS
// sub-handshake, when configured, has already happened on the http.Server's
// TLS listener by the time we see the request.
func (l *Listener) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricAccepted.Inc()
		if l.refusing.Load() {
			metricRefused.Inc()
			// Clean close, no application error surfaced to the remote.
			ws, err := websocket.Accept(w, r, nil)
			if err == nil {
				_ = ws.Close(websocket.StatusGoingAway, "")
			}
			return
		}

		hctx, hcancel := context.WithTimeout(r.Context(), l.cfg.HandshakeTimeout)
		ws, err := websocket.Accept(w, r.WithContext(hctx), nil)
		if err != nil {
			hcancel()
			l.log.Debug("websocket accept failed", zap.Error(err))
			return
		}

		c := newConn(ws, l.log, l.cfg.MessagesPerSecond, l.cfg.Burst)
		if r.TLS != nil {
			c.setState(StateTlsHandshaking)
		}
		c.setState(StateWsHandshaking)

		id, ok := l.promote(c, hctx)
		hcancel()
		if !ok {
			return
		}
		defer l.drop(c)

		l.log.Info("peer open",
			zap.Uint32("peer", uint32(id)),
			zap.String("trace", c.trace),
			zap.String("remote", r.RemoteAddr))

		go c.writePump(r.Context())
		l.readPump(r.Context(), c)
	}
}

// promote assigns a peer id and flips the connection to Open. An exhausted id
// range, an expired handshake window, or refusing mode flipping on mid-
// handshake all discard the connection without it ever becoming a peer.
func (l *Listener) promote(c *Conn, hctx context.Context) (server.PeerID, bool) {
	select {
	case <-hctx.Done():
		metricHandshakeTimeouts.Inc()
		c.close(websocket.StatusTryAgainLater, "handshake timeout")
		return 0, false
	default:
	}
	if l.refusing.Load() {
		metricRefused.Inc()
		c.close(websocket.StatusGoingAway, "")
		return 0, false
	}
	id, ok := l.ids.get()
	if !ok {
		c.close(websocket.StatusTryAgainLater, "server full")
		return 0, false
	}
	c.id = id
	c.setState(StateOpen)
	metricOpenPeers.Inc()

	l.mu.Lock()
	l.conns[id] = c
	l.mu.Unlock()
	return id, true
}

// drop tears the connection down, tells the authority, and releases the id
// for reuse. It runs exactly once per promoted connection, so the teardown is
// unconditional: the peer may already be Closed by the time we get here (rate
// limit, desync, authority-requested close, write failure), and the authority
// must hear about the departure either way.
func (l *Listener) drop(c *Conn) {
	c.close(websocket.StatusNormalClosure, "")

	l.mu.Lock()
	delete(l.conns, c.id)
	l.mu.Unlock()

	metricOpenPeers.Dec()
	l.inbox <- server.PeerClosed{Peer: c.id, Reason: wire.ReasonConnection}
	l.ids.put(c.id)
}

// readPump moves socket reads through the frame assembler and hands decoded
// messages to the authority. Chunks may carry zero, one, or many messages.
func (l *Listener) readPump(ctx context.Context, c *Conn) {
	var asm wire.Assembler
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageBinary {
			continue
		}
		if c.limiter != nil && !c.limiter.Allow() {
			l.log.Warn("peer over rate limit",
				zap.Uint32("peer", uint32(c.id)),
				zap.String("trace", c.trace))
			c.close(websocket.StatusPolicyViolation, "rate limit exceeded")
			return
		}

		asm.Push(data)
		for {
			m, err := asm.Next()
			if err != nil {
				// Malformed frame: fatal to the connection, reported as a
				// desync rather than retried.
				l.log.Warn("malformed frame",
					zap.Uint32("peer", uint32(c.id)),
					zap.String("trace", c.trace),
					zap.Error(err))
				l.closeDesynced(c)
				return
			}
			if m == nil {
				break
			}
			metricMessagesIn.Inc()
			l.inbox <- server.FromPeer{Peer: c.id, Msg: m}
		}
	}
}

func (l *Listener) closeDesynced(c *Conn) {
	_ = c.Send(wire.Disconnecting{Reason: wire.ReasonDesync})
	c.close(websocket.StatusProtocolError, "desync")
}

// Send implements server.Sender.
func (l *Listener) Send(peer server.PeerID, m wire.Message) {
	l.mu.Lock()
	c := l.conns[peer]
	l.mu.Unlock()
	if c == nil {
		return
	}
	metricMessagesOut.Inc()
	if err := c.Send(m); err != nil {
		l.log.Debug("send dropped",
			zap.Uint32("peer", uint32(peer)),
			zap.String("kind", m.Kind().String()),
			zap.Error(err))
	}
}

// Close implements server.Sender.
func (l *Listener) Close(peer server.PeerID) {
	l.mu.Lock()
	c := l.conns[peer]
	l.mu.Unlock()
	if c != nil {
		c.close(websocket.StatusNormalClosure, "")
	}
}

// CloseAll force-closes every connection; used on shutdown after the
// authority has broadcast its closing notice.
func (l *Listener) CloseAll() {
	l.mu.Lock()
	conns := make([]*Conn, 0, len(l.conns))
	for _, c := range l.conns {
		conns = append(conns, c)
	}
	l.mu.Unlock()
	for _, c := range conns {
		c.close(websocket.StatusGoingAway, "server closing")
	}
}
