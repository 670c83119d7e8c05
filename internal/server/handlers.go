package server

import (
	"go.uber.org/zap"

	"github.com/eyalzus12/FourInARowBattle-sub000/internal/game"
	"github.com/eyalzus12/FourInARowBattle-sub000/pkg/wire"
)

// handleMessage dispatches one inbound message. Every handler checks all of
// its guards before mutating anything, so a rejected message leaves no
// partial state and replaying an identical message is harmless. Failures
// reply to the offending peer alone; broadcasts happen only on success.
func (a *Authority) handleMessage(peer PeerID, m wire.Message) {
	switch msg := m.(type) {
	case wire.Invalid:
		a.log.Warn("unrecognized kind byte",
			zap.Uint32("peer", uint32(peer)),
			zap.Uint8("offending", msg.Offending))
		a.send.Send(peer, wire.InvalidPacket{Offending: msg.Offending})

	case wire.CreateLobbyRequest:
		a.handleCreateLobby(peer, msg)
	case wire.JoinLobbyRequest:
		a.handleJoinLobby(peer, msg)
	case wire.ChallengeRequest:
		a.handleChallengeRequest(peer, msg)
	case wire.ChallengeAccept:
		a.handleChallengeAccept(peer, msg)
	case wire.ChallengeReject:
		a.handleChallengeReject(peer, msg)
	case wire.ChallengeCancel:
		a.handleChallengeCancel(peer, msg)
	case wire.PlaceToken:
		a.handlePlaceToken(peer, msg)
	case wire.Refill:
		a.handleRefill(peer)
	case wire.GameQuit:
		a.handleGameQuit(peer)
	case wire.Disconnecting:
		a.removePlayer(peer, msg.Reason)
		a.send.Close(peer)

	default:
		// A known kind the server never legitimately receives (server-to-
		// client notices bounced back, etc). Same treatment as an unknown
		// byte: echo it, let the sender notice.
		a.log.Warn("unexpected message kind",
			zap.Uint32("peer", uint32(peer)),
			zap.String("kind", m.Kind().String()))
		a.send.Send(peer, wire.InvalidPacket{Offending: byte(m.Kind())})
	}
}

func (a *Authority) handleCreateLobby(peer PeerID, msg wire.CreateLobbyRequest) {
	pl := a.ensurePlayer(peer)
	if pl.lobby != nil {
		a.send.Send(peer, wire.CreateLobbyFail{Code: wire.ErrAlreadyInLobby})
		return
	}
	pl.setName(msg.Name)

	lb := &lobby{id: a.newLobbyID()}
	lb.add(pl)
	a.lobbies[lb.id] = lb

	a.log.Info("lobby created",
		zap.Uint32("lobby", lb.id),
		zap.Uint32("peer", uint32(peer)),
		zap.String("name", pl.name))
	a.send.Send(peer, wire.CreateLobbyOk{LobbyID: lb.id})
}

func (a *Authority) handleJoinLobby(peer PeerID, msg wire.JoinLobbyRequest) {
	pl := a.ensurePlayer(peer)
	if pl.lobby != nil {
		a.send.Send(peer, wire.JoinLobbyFail{Code: wire.ErrAlreadyInLobby})
		return
	}
	lb, ok := a.lobbies[msg.LobbyID]
	if !ok {
		a.send.Send(peer, wire.JoinLobbyFail{Code: wire.ErrLobbyNonexistent})
		return
	}
	if len(lb.players) >= maxLobbyPlayers {
		a.send.Send(peer, wire.JoinLobbyFail{Code: wire.ErrLobbyFull})
		return
	}
	pl.setName(msg.Name)

	// Existing members learn about the joiner; the joiner gets the full
	// roster including itself.
	lb.add(pl)
	for _, member := range lb.players {
		if member == pl {
			continue
		}
		a.send.Send(member.peer, wire.LobbyNewPlayer{
			Index: uint32(pl.index),
			Name:  pl.name,
		})
	}
	a.send.Send(peer, wire.JoinLobbyOk{
		YourIndex: uint32(pl.index),
		Names:     lb.names(),
		Busy:      lb.busyFlags(),
	})
	a.log.Info("player joined lobby",
		zap.Uint32("lobby", lb.id),
		zap.Uint32("peer", uint32(peer)),
		zap.Int("index", pl.index))
}

func (a *Authority) handleChallengeRequest(peer PeerID, msg wire.ChallengeRequest) {
	pl := a.ensurePlayer(peer)
	fail := func(code wire.ErrorCode) {
		a.send.Send(peer, wire.ChallengeRequestFail{Code: code, TargetIndex: msg.TargetIndex})
	}
	if pl.lobby == nil {
		fail(wire.ErrChallengeTargetInvalid)
		return
	}
	target := pl.lobby.at(msg.TargetIndex)
	if target == nil {
		fail(wire.ErrChallengeTargetInvalid)
		return
	}
	if target == pl {
		fail(wire.ErrChallengeTargetSelf)
		return
	}
	if _, sent := pl.sentTo[target.peer]; sent {
		fail(wire.ErrChallengeAlreadyExists)
		return
	}
	if _, got := pl.gotFrom[target.peer]; got {
		fail(wire.ErrChallengeAlreadyExists)
		return
	}
	if pl.match != nil {
		fail(wire.ErrAlreadyInMatch)
		return
	}
	if target.match != nil {
		fail(wire.ErrTargetInMatch)
		return
	}

	pl.sentTo[target.peer] = struct{}{}
	target.gotFrom[pl.peer] = struct{}{}
	a.broadcast(pl.lobby, wire.ChallengeRequested{
		SourceIndex: uint32(pl.index),
		TargetIndex: uint32(target.index),
	})
}

func (a *Authority) handleChallengeAccept(peer PeerID, msg wire.ChallengeAccept) {
	pl := a.ensurePlayer(peer)
	fail := func(code wire.ErrorCode) {
		a.send.Send(peer, wire.ChallengeAcceptFail{Code: code, SourceIndex: msg.SourceIndex})
	}
	source, ok := a.pendingFrom(pl, msg.SourceIndex)
	if !ok {
		fail(wire.ErrChallengeDoesNotExist)
		return
	}

	delete(pl.gotFrom, source.peer)
	delete(source.sentTo, pl.peer)
	a.broadcast(pl.lobby, wire.ChallengeAccepted{
		SourceIndex: uint32(source.index),
		TargetIndex: uint32(pl.index),
	})
	a.startMatch(source, pl)
}

func (a *Authority) handleChallengeReject(peer PeerID, msg wire.ChallengeReject) {
	pl := a.ensurePlayer(peer)
	source, ok := a.pendingFrom(pl, msg.SourceIndex)
	if !ok {
		a.send.Send(peer, wire.ChallengeRejectFail{
			Code:        wire.ErrChallengeDoesNotExist,
			SourceIndex: msg.SourceIndex,
		})
		return
	}
	delete(pl.gotFrom, source.peer)
	delete(source.sentTo, pl.peer)
	a.broadcast(pl.lobby, wire.ChallengeRejected{
		SourceIndex: uint32(source.index),
		TargetIndex: uint32(pl.index),
	})
}

func (a *Authority) handleChallengeCancel(peer PeerID, msg wire.ChallengeCancel) {
	pl := a.ensurePlayer(peer)
	fail := func() {
		a.send.Send(peer, wire.ChallengeCancelFail{
			Code:        wire.ErrChallengeDoesNotExist,
			TargetIndex: msg.TargetIndex,
		})
	}
	if pl.lobby == nil {
		fail()
		return
	}
	target := pl.lobby.at(msg.TargetIndex)
	if target == nil {
		fail()
		return
	}
	if _, sent := pl.sentTo[target.peer]; !sent {
		fail()
		return
	}
	delete(pl.sentTo, target.peer)
	delete(target.gotFrom, pl.peer)
	a.broadcast(pl.lobby, wire.ChallengeCanceled{
		SourceIndex: uint32(pl.index),
		TargetIndex: uint32(target.index),
	})
}

// pendingFrom resolves sourceIndex in pl's lobby and checks a pending
// relation exists in the expected direction (source requested pl).
func (a *Authority) pendingFrom(pl *player, sourceIndex uint32) (*player, bool) {
	if pl.lobby == nil {
		return nil, false
	}
	source := pl.lobby.at(sourceIndex)
	if source == nil {
		return nil, false
	}
	if _, got := pl.gotFrom[source.peer]; !got {
		return nil, false
	}
	return source, true
}

// startMatch instantiates the board for an accepted challenge. The first
// turn goes to either player by an unbiased coin flip; any third-party
// challenges to or from either participant lapse silently.
func (a *Authority) startMatch(source, target *player) {
	p1, p2 := source, target
	if a.rng.Intn(2) == 1 {
		p1, p2 = target, source
	}

	a.clearRelations(source)
	a.clearRelations(target)

	m := &match{board: a.newMatch(), player1: p1, player2: p2}
	p1.match, p1.turn = m, wire.TurnPlayer1
	p2.match, p2.turn = m, wire.TurnPlayer2

	a.send.Send(p1.peer, wire.GameStarting{YourTurn: wire.TurnPlayer1, OpponentIndex: uint32(p2.index)})
	a.send.Send(p2.peer, wire.GameStarting{YourTurn: wire.TurnPlayer2, OpponentIndex: uint32(p1.index)})
	a.broadcast(p1.lobby, wire.PlayerBusy{Index: uint32(p1.index)})
	a.broadcast(p1.lobby, wire.PlayerBusy{Index: uint32(p2.index)})

	a.log.Info("match started",
		zap.Uint32("lobby", p1.lobby.id),
		zap.Uint32("player1", uint32(p1.peer)),
		zap.Uint32("player2", uint32(p2.peer)))
}

// clearRelations silently drops every outstanding challenge to or from pl.
func (a *Authority) clearRelations(pl *player) {
	for other := range pl.sentTo {
		if otherPl, ok := a.players[other]; ok {
			delete(otherPl.gotFrom, pl.peer)
		}
		delete(pl.sentTo, other)
	}
	for other := range pl.gotFrom {
		if otherPl, ok := a.players[other]; ok {
			delete(otherPl.sentTo, pl.peer)
		}
		delete(pl.gotFrom, other)
	}
}

func (a *Authority) handlePlaceToken(peer PeerID, msg wire.PlaceToken) {
	pl := a.ensurePlayer(peer)
	fail := func(code wire.ErrorCode) {
		a.send.Send(peer, wire.PlaceTokenFail{Code: code})
	}
	m := pl.match
	if m == nil {
		fail(wire.ErrNotInMatch)
		return
	}
	if m.board.CurrentTurn() != pl.turn {
		fail(wire.ErrNotYourTurn)
		return
	}
	if !m.board.ValidColumn(int(msg.Column)) {
		fail(wire.ErrColumnInvalid)
		return
	}
	kind, ok := game.ResolveToken(msg.TokenPath)
	if !ok {
		fail(wire.ErrTokenKindUnknown)
		return
	}

	// The board is the sole authority on token-count legality past this point.
	if err := m.board.PlaceToken(int(msg.Column), kind); err != nil {
		fail(wire.CodeOf(err))
		return
	}
	a.send.Send(peer, wire.PlaceTokenOk{})
	a.send.Send(m.opponent(pl).peer, wire.PlaceTokenOther{
		Column:    msg.Column,
		TokenPath: msg.TokenPath,
	})
	a.checkFinished(m)
}

func (a *Authority) handleRefill(peer PeerID) {
	pl := a.ensurePlayer(peer)
	fail := func(code wire.ErrorCode) {
		a.send.Send(peer, wire.RefillFail{Code: code})
	}
	m := pl.match
	if m == nil {
		fail(wire.ErrNotInMatch)
		return
	}
	if m.board.CurrentTurn() != pl.turn {
		fail(wire.ErrNotYourTurn)
		return
	}
	if err := m.board.Refill(); err != nil {
		fail(wire.CodeOf(err))
		return
	}
	a.send.Send(peer, wire.RefillOk{})
	a.send.Send(m.opponent(pl).peer, wire.RefillOther{})
}

func (a *Authority) handleGameQuit(peer PeerID) {
	pl := a.ensurePlayer(peer)
	m := pl.match
	if m == nil {
		a.send.Send(peer, wire.GameQuitFail{Code: wire.ErrNotInMatch})
		return
	}
	a.send.Send(pl.peer, wire.GameQuitOk{})
	a.send.Send(m.opponent(pl).peer, wire.GameQuitOther{})
	a.releaseMatch(m)
}

// checkFinished closes out the match once the board reports completion.
func (a *Authority) checkFinished(m *match) {
	report, done := m.board.Finished()
	if !done {
		return
	}
	finished := wire.GameFinished{
		Result:       report.Result,
		Player1Score: report.Player1Score,
		Player2Score: report.Player2Score,
	}
	a.send.Send(m.player1.peer, finished)
	a.send.Send(m.player2.peer, finished)
	if a.history != nil {
		a.history.RecordResult(m.player1.name, m.player2.name, report)
	}
	a.releaseMatch(m)
}

// releaseMatch detaches both participants and tells the lobby they are
// available again.
func (a *Authority) releaseMatch(m *match) {
	lb := m.player1.lobby
	for _, pl := range []*player{m.player1, m.player2} {
		pl.match = nil
		pl.turn = wire.TurnNone
		if lb != nil {
			a.broadcast(lb, wire.PlayerAvailable{Index: uint32(pl.index)})
		}
	}
}

// removePlayer fully detaches a peer: match released (opponent notified),
// pending relations cleared, lobby membership dropped with renumbering, and
// a PlayerLeft notice carrying the pre-removal index broadcast to whoever
// remains. Safe to call for peers that were never players or already left.
func (a *Authority) removePlayer(peer PeerID, reason wire.DisconnectReason) {
	pl, ok := a.players[peer]
	if !ok {
		return
	}
	if m := pl.match; m != nil {
		opponent := m.opponent(pl)
		a.releaseMatch(m)
		a.send.Send(opponent.peer, wire.GameQuitOther{})
	}
	a.clearRelations(pl)
	if lb := pl.lobby; lb != nil {
		index := uint32(pl.index)
		lb.remove(pl)
		if len(lb.players) == 0 {
			delete(a.lobbies, lb.id)
		} else {
			a.broadcast(lb, wire.PlayerLeft{Reason: reason, Index: index})
		}
	}
	delete(a.players, peer)
	a.log.Info("player removed",
		zap.Uint32("peer", uint32(peer)),
		zap.String("reason", reason.String()))
}

func (a *Authority) broadcast(lb *lobby, m wire.Message) {
	for _, pl := range lb.players {
		a.send.Send(pl.peer, m)
	}
}
