package transport

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eyalzus12/FourInARowBattle-sub000/internal/server"
	"github.com/eyalzus12/FourInARowBattle-sub000/pkg/wire"
)

func newTestListener(t *testing.T, cfg Config) (*Listener, chan server.Msg, string) {
	t.Helper()
	l := NewListener(cfg, zap.NewNop())
	inbox := make(chan server.Msg, 64)
	l.Bind(inbox)
	srv := httptest.NewServer(l.Handler())
	t.Cleanup(srv.Close)
	return l, inbox, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func awaitPeerClosed(t *testing.T, inbox chan server.Msg) server.PeerClosed {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-inbox:
			if pc, ok := m.(server.PeerClosed); ok {
				return pc
			}
		case <-deadline:
			t.Fatal("authority never heard the peer leave")
			return server.PeerClosed{}
		}
	}
}

func awaitFromPeer(t *testing.T, inbox chan server.Msg) server.FromPeer {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-inbox:
			if fp, ok := m.(server.FromPeer); ok {
				return fp
			}
		case <-deadline:
			t.Fatal("authority never received the message")
			return server.FromPeer{}
		}
	}
}

func TestListener_ClientCloseDeliversPeerClosed(t *testing.T) {
	_, inbox, url := newTestListener(t, Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ws, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)

	require.NoError(t, ws.Write(ctx, websocket.MessageBinary, wire.Encode(wire.Refill{})))
	assert.Equal(t, wire.Refill{}, awaitFromPeer(t, inbox).Msg)

	_ = ws.Close(websocket.StatusNormalClosure, "")
	closed := awaitPeerClosed(t, inbox)
	assert.Equal(t, wire.ReasonConnection, closed.Reason)
}

func TestListener_RateLimitCloseDeliversPeerClosed(t *testing.T) {
	_, inbox, url := newTestListener(t, Config{MessagesPerSecond: 1, Burst: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ws, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer ws.Close(websocket.StatusNormalClosure, "")

	payload := wire.Encode(wire.Refill{})
	require.NoError(t, ws.Write(ctx, websocket.MessageBinary, payload))
	// The second message trips the limiter; the listener closes the socket
	// itself. The authority must still hear the departure.
	_ = ws.Write(ctx, websocket.MessageBinary, payload)

	awaitFromPeer(t, inbox)
	closed := awaitPeerClosed(t, inbox)
	assert.Equal(t, wire.ReasonConnection, closed.Reason)
}

func TestListener_MalformedFrameCloseDeliversPeerClosed(t *testing.T) {
	_, inbox, url := newTestListener(t, Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ws, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer ws.Close(websocket.StatusNormalClosure, "")

	// A place-token frame declaring an absurd path length is fatal.
	bad := []byte{byte(wire.KindPlaceToken), 0, 0xFF, 0xFF, 0xFF, 0xFF}
	_ = ws.Write(ctx, websocket.MessageBinary, bad)

	closed := awaitPeerClosed(t, inbox)
	assert.Equal(t, wire.ReasonConnection, closed.Reason)
}

func TestListener_IDReleasedAfterClose(t *testing.T) {
	_, inbox, url := newTestListener(t, Config{MaxPeers: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	first, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	_ = first.Close(websocket.StatusNormalClosure, "")
	awaitPeerClosed(t, inbox)

	// The sole id went back on the free list, so a second connection can
	// become a peer.
	second, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer second.Close(websocket.StatusNormalClosure, "")
	require.NoError(t, second.Write(ctx, websocket.MessageBinary, wire.Encode(wire.Refill{})))
	awaitFromPeer(t, inbox)
}

func TestListener_RefusingTurnsAwayConnections(t *testing.T) {
	l, inbox, url := newTestListener(t, Config{})
	l.SetRefusing(true)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ws, _, err := websocket.Dial(ctx, url, nil)
	if err == nil {
		// The upgrade may complete; the clean close follows immediately and
		// the connection never becomes a peer.
		rctx, rcancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, _, err = ws.Read(rctx)
		rcancel()
		require.Error(t, err)
		_ = ws.Close(websocket.StatusNormalClosure, "")
	}

	select {
	case m := <-inbox:
		t.Fatalf("refused connection reached the authority: %T", m)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestListener_HandshakeTimeoutDiscardsConnection(t *testing.T) {
	_, inbox, url := newTestListener(t, Config{HandshakeTimeout: time.Nanosecond})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ws, _, err := websocket.Dial(ctx, url, nil)
	if err == nil {
		// Accept may have finished before the window expired its check; the
		// promotion step still discards the connection.
		rctx, rcancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, _, err = ws.Read(rctx)
		rcancel()
		require.Error(t, err)
		_ = ws.Close(websocket.StatusNormalClosure, "")
	}

	select {
	case m := <-inbox:
		t.Fatalf("timed-out connection reached the authority: %T", m)
	case <-time.After(200 * time.Millisecond):
	}
}
