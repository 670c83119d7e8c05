package server

import (
	"github.com/eyalzus12/FourInARowBattle-sub000/internal/game"
	"github.com/eyalzus12/FourInARowBattle-sub000/pkg/wire"
)

const defaultName = "Guest"

// maxLobbyPlayers caps lobby membership; joining past it fails with
// wire.ErrLobbyFull.
const maxLobbyPlayers = 8

// player is the server-side record for one peer. Challenge relations are
// stored as peer-id sets on both endpoints; the pair of sets is kept
// symmetric (a.sentTo has b iff b.gotFrom has a).
type player struct {
	peer  PeerID
	name  string
	lobby *lobby
	index int

	sentTo  map[PeerID]struct{}
	gotFrom map[PeerID]struct{}

	match *match
	turn  wire.Turn
}

func (p *player) setName(name string) {
	if name == "" {
		p.name = defaultName
		return
	}
	p.name = name
}

// lobby is an ordered member list; order defines each member's wire index and
// the first member is the leader.
type lobby struct {
	id      uint32
	players []*player
}

// add appends pl and assigns its index.
func (l *lobby) add(pl *player) {
	pl.lobby = l
	pl.index = len(l.players)
	l.players = append(l.players, pl)
}

// remove drops pl and renumbers the remaining members immediately, keeping
// player.index equal to its position.
func (l *lobby) remove(pl *player) {
	for i, member := range l.players {
		if member == pl {
			l.players = append(l.players[:i], l.players[i+1:]...)
			break
		}
	}
	for i, member := range l.players {
		member.index = i
	}
	pl.lobby = nil
	pl.index = 0
}

// at returns the member at a wire index, or nil if out of range.
func (l *lobby) at(index uint32) *player {
	if int(index) >= len(l.players) {
		return nil
	}
	return l.players[index]
}

func (l *lobby) names() []string {
	out := make([]string, len(l.players))
	for i, pl := range l.players {
		out[i] = pl.name
	}
	return out
}

func (l *lobby) busyFlags() []bool {
	out := make([]bool, len(l.players))
	for i, pl := range l.players {
		out[i] = pl.match != nil
	}
	return out
}

// match pairs two lobby members with a board. player1 holds wire.TurnPlayer1.
type match struct {
	board   game.Match
	player1 *player
	player2 *player
}

// opponent returns the other participant.
func (m *match) opponent(pl *player) *player {
	if m.player1 == pl {
		return m.player2
	}
	return m.player1
}
