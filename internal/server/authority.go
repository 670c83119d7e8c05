// Package server holds the authoritative lobby/match state machine. One
// goroutine owns every player, lobby, pending challenge, and live match;
// everything reaches it through a typed mailbox, so no two peers' messages
// ever mutate shared state concurrently.
package server

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/eyalzus12/FourInARowBattle-sub000/internal/game"
	"github.com/eyalzus12/FourInARowBattle-sub000/pkg/wire"
)

// PeerID identifies one live connection. Ids are valid only for the
// connection's lifetime and may be reused after it fully closes.
type PeerID uint32

// Sender is the authority's outbound half, implemented by the transport.
type Sender interface {
	// Send enqueues one message to a peer. Sends to closed peers are dropped.
	Send(peer PeerID, m wire.Message)
	// Close asks the transport to close a peer's connection.
	Close(peer PeerID)
}

// Recorder receives terminal match results. Implementations must not block;
// the history store satisfies this by writing on its own goroutine.
type Recorder interface {
	RecordResult(player1, player2 string, report game.Report)
}

type Msg interface{ isAuthorityMsg() }

// FromPeer carries one decoded inbound message.
type FromPeer struct {
	Peer PeerID
	Msg  wire.Message
}

func (FromPeer) isAuthorityMsg() {}

// PeerClosed reports that a peer's connection is gone.
type PeerClosed struct {
	Peer   PeerID
	Reason wire.DisconnectReason
}

func (PeerClosed) isAuthorityMsg() {}

type Shutdown struct{}

func (Shutdown) isAuthorityMsg() {}

// GetView reflects internal state without data races; used by tests.
type GetView struct {
	Reply chan View
}

func (GetView) isAuthorityMsg() {}

// View is a race-free copy of the authority's tables.
type View struct {
	Players int
	Lobbies map[uint32][]PlayerView
	Matches int
}

type PlayerView struct {
	Peer    PeerID
	Name    string
	Index   int
	InMatch bool
	SentTo  []PeerID
	GotFrom []PeerID
}

// Config carries the authority's collaborators. Log and Rand default when nil;
// NewMatch defaults to game.NewBasicMatch.
type Config struct {
	Send     Sender
	NewMatch game.Factory
	History  Recorder
	Log      *zap.Logger
	Rand     *rand.Rand
}

// Authority owns the server-side state machine.
type Authority struct {
	inbox    chan Msg
	send     Sender
	newMatch game.Factory
	history  Recorder
	log      *zap.Logger
	rng      *rand.Rand

	players map[PeerID]*player
	lobbies map[uint32]*lobby

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(parent context.Context, cfg Config) *Authority {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.NewMatch == nil {
		cfg.NewMatch = func() game.Match { return game.NewBasicMatch() }
	}
	ctx, cancel := context.WithCancel(parent)
	a := &Authority{
		inbox:    make(chan Msg, 256),
		send:     cfg.Send,
		newMatch: cfg.NewMatch,
		history:  cfg.History,
		log:      cfg.Log,
		rng:      cfg.Rand,
		players:  make(map[PeerID]*player),
		lobbies:  make(map[uint32]*lobby),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go a.loop()
	return a
}

// Inbox is where the transport (and tests) deliver messages.
func (a *Authority) Inbox() chan<- Msg { return a.inbox }

// Done closes after the authority has fully shut down.
func (a *Authority) Done() <-chan struct{} { return a.done }

func (a *Authority) loop() {
	defer close(a.done)
	for {
		select {
		case <-a.ctx.Done():
			a.shutdown()
			return

		case m := <-a.inbox:
			switch msg := m.(type) {
			case FromPeer:
				a.handleMessage(msg.Peer, msg.Msg)

			case PeerClosed:
				// May arrive after a courtesy Disconnecting already removed
				// the player; removePlayer is a no-op then.
				a.removePlayer(msg.Peer, msg.Reason)

			case GetView:
				msg.Reply <- a.view()

			case Shutdown:
				a.shutdown()
				return
			}
		}
	}
}

// shutdown broadcasts a closing notice to every known peer, releases all
// matches, and stops.
func (a *Authority) shutdown() {
	for id, pl := range a.players {
		a.send.Send(id, wire.ServerClosing{})
		if pl.match != nil {
			pl.match = nil
		}
	}
	for id := range a.players {
		a.send.Close(id)
	}
	clear(a.players)
	clear(a.lobbies)
	a.cancel()
}

func (a *Authority) view() View {
	v := View{
		Players: len(a.players),
		Lobbies: make(map[uint32][]PlayerView, len(a.lobbies)),
	}
	seen := map[*match]struct{}{}
	for _, pl := range a.players {
		if pl.match != nil {
			seen[pl.match] = struct{}{}
		}
	}
	v.Matches = len(seen)
	for id, lb := range a.lobbies {
		members := make([]PlayerView, 0, len(lb.players))
		for _, pl := range lb.players {
			pv := PlayerView{
				Peer:    pl.peer,
				Name:    pl.name,
				Index:   pl.index,
				InMatch: pl.match != nil,
			}
			for other := range pl.sentTo {
				pv.SentTo = append(pv.SentTo, other)
			}
			for other := range pl.gotFrom {
				pv.GotFrom = append(pv.GotFrom, other)
			}
			members = append(members, pv)
		}
		v.Lobbies[id] = members
	}
	return v
}

// ensurePlayer creates the server-side player record on first contact.
func (a *Authority) ensurePlayer(peer PeerID) *player {
	if pl, ok := a.players[peer]; ok {
		return pl
	}
	pl := &player{
		peer:    peer,
		name:    defaultName,
		sentTo:  make(map[PeerID]struct{}),
		gotFrom: make(map[PeerID]struct{}),
	}
	a.players[peer] = pl
	return pl
}

// newLobbyID draws a random id not currently in use.
func (a *Authority) newLobbyID() uint32 {
	for {
		id := a.rng.Uint32()
		if _, taken := a.lobbies[id]; !taken && id != 0 {
			return id
		}
	}
}
