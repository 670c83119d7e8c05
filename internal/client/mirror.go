// Package client keeps a best-effort local copy of the server's lobby and
// match state. The server is authoritative; the mirror's only job is to stay
// consistent with it and drive the local board. Any inbound message that
// violates a precondition the mirror believed held is a desync: the mirror
// surfaces it and disconnects rather than guessing at recovery.
package client

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eyalzus12/FourInARowBattle-sub000/internal/game"
	"github.com/eyalzus12/FourInARowBattle-sub000/pkg/wire"
)

// Conn is the transport the mirror talks through. transport.ClientConn
// satisfies it; tests use channel-backed fakes.
type Conn interface {
	Messages() <-chan wire.Message
	Send(m wire.Message) error
	Close(reason wire.DisconnectReason)
}

// Config carries the mirror's collaborators.
type Config struct {
	Conn     Conn
	NewMatch game.Factory
	Log      *zap.Logger
}

// Mirror is the client-side session state machine. One goroutine owns all of
// its state; both inbound messages and local actions go through the mailbox,
// so no two are ever dispatched concurrently.
type Mirror struct {
	conn     Conn
	newMatch game.Factory
	log      *zap.Logger

	actions chan action
	events  chan Event

	inLobby bool
	lobbyID uint32
	myIndex int
	names   []string
	busy    []bool
	sentTo  map[int]bool
	gotFrom map[int]bool

	board  game.Match
	myTurn wire.Turn

	pending []pendingOp

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(parent context.Context, cfg Config) *Mirror {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.NewMatch == nil {
		cfg.NewMatch = func() game.Match { return game.NewBasicMatch() }
	}
	ctx, cancel := context.WithCancel(parent)
	m := &Mirror{
		conn:     cfg.Conn,
		newMatch: cfg.NewMatch,
		log:      cfg.Log,
		actions:  make(chan action, 16),
		events:   make(chan Event, 64),
		sentTo:   make(map[int]bool),
		gotFrom:  make(map[int]bool),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go m.loop()
	return m
}

// Events surfaces state changes to the embedding game. The channel closes
// when the mirror stops.
func (m *Mirror) Events() <-chan Event { return m.events }

// Done closes once the mirror has stopped.
func (m *Mirror) Done() <-chan struct{} { return m.done }

func (m *Mirror) loop() {
	defer close(m.done)
	defer close(m.events)
	for {
		select {
		case <-m.ctx.Done():
			return
		case act := <-m.actions:
			m.handleAction(act)
		case msg, ok := <-m.conn.Messages():
			if !ok {
				m.emit(Disconnected{})
				m.cancel()
				return
			}
			m.handleServer(msg)
		}
	}
}

func (m *Mirror) emit(e Event) {
	select {
	case m.events <- e:
	case <-m.ctx.Done():
	}
}

// desync logs the violated condition, surfaces it, and actively disconnects.
// No recovery is attempted.
func (m *Mirror) desync(format string, args ...any) {
	detail := fmt.Sprintf(format, args...)
	m.log.Error("desync detected", zap.String("detail", detail))
	m.emit(Desynced{Detail: detail})
	m.conn.Close(wire.ReasonDesync)
	m.cancel()
}

// retire removes and returns the oldest in-flight record of the given kind.
// Replies arrive in send order, so FIFO matching is exact.
func (m *Mirror) retire(kind opKind) (pendingOp, bool) {
	for i, op := range m.pending {
		if op.kind == kind {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return op, true
		}
	}
	return pendingOp{}, false
}

// mustRetire is retire plus the desync trigger for unmatched replies.
func (m *Mirror) mustRetire(kind opKind, reply wire.Message) (pendingOp, bool) {
	op, ok := m.retire(kind)
	if !ok {
		m.desync("reply %s with no in-flight request", reply.Kind())
	}
	return op, ok
}
