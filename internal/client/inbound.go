package client

import (
	"github.com/eyalzus12/FourInARowBattle-sub000/internal/game"
	"github.com/eyalzus12/FourInARowBattle-sub000/pkg/wire"
)

// handleServer applies one authoritative message to the mirror. Each case
// first checks the precondition the mirror believes holds; a violation is a
// desync, never a repair.
func (m *Mirror) handleServer(msg wire.Message) {
	switch msg := msg.(type) {
	case wire.CreateLobbyOk:
		op, ok := m.mustRetire(opCreateLobby, msg)
		if !ok {
			return
		}
		if m.inLobby {
			m.desync("lobby created while already in lobby %d", m.lobbyID)
			return
		}
		name := op.name
		if name == "" {
			name = "Guest"
		}
		m.inLobby = true
		m.lobbyID = msg.LobbyID
		m.myIndex = 0
		m.names = []string{name}
		m.busy = []bool{false}
		m.emit(LobbyCreated{LobbyID: msg.LobbyID})

	case wire.CreateLobbyFail:
		if _, ok := m.mustRetire(opCreateLobby, msg); ok {
			m.emit(OperationFailed{Kind: msg.Kind(), Code: msg.Code})
		}

	case wire.JoinLobbyOk:
		if _, ok := m.mustRetire(opJoinLobby, msg); !ok {
			return
		}
		if m.inLobby {
			m.desync("lobby joined while already in lobby %d", m.lobbyID)
			return
		}
		if int(msg.YourIndex) >= len(msg.Names) || len(msg.Names) != len(msg.Busy) {
			m.desync("inconsistent join roster: index %d of %d names, %d busy bits",
				msg.YourIndex, len(msg.Names), len(msg.Busy))
			return
		}
		m.inLobby = true
		m.myIndex = int(msg.YourIndex)
		m.names = append([]string(nil), msg.Names...)
		m.busy = append([]bool(nil), msg.Busy...)
		m.emit(LobbyJoined{YourIndex: m.myIndex, Names: m.names, Busy: m.busy})

	case wire.JoinLobbyFail:
		if _, ok := m.mustRetire(opJoinLobby, msg); ok {
			m.emit(OperationFailed{Kind: msg.Kind(), Code: msg.Code})
		}

	case wire.LobbyNewPlayer:
		if !m.inLobby || int(msg.Index) != len(m.names) {
			m.desync("new player at index %d, roster has %d", msg.Index, len(m.names))
			return
		}
		m.names = append(m.names, msg.Name)
		m.busy = append(m.busy, false)
		m.emit(PlayerJoined{Index: int(msg.Index), Name: msg.Name})

	case wire.ChallengeRequested:
		m.onChallengeRequested(msg)
	case wire.ChallengeRequestFail:
		if _, ok := m.mustRetire(opChallenge, msg); ok {
			m.emit(OperationFailed{Kind: msg.Kind(), Code: msg.Code})
		}
	case wire.ChallengeAccepted:
		m.onChallengeAccepted(msg)
	case wire.ChallengeAcceptFail:
		if _, ok := m.mustRetire(opAccept, msg); ok {
			m.emit(OperationFailed{Kind: msg.Kind(), Code: msg.Code})
		}
	case wire.ChallengeRejected:
		m.onChallengeRejected(msg)
	case wire.ChallengeRejectFail:
		if _, ok := m.mustRetire(opReject, msg); ok {
			m.emit(OperationFailed{Kind: msg.Kind(), Code: msg.Code})
		}
	case wire.ChallengeCanceled:
		m.onChallengeCanceled(msg)
	case wire.ChallengeCancelFail:
		if _, ok := m.mustRetire(opCancel, msg); ok {
			m.emit(OperationFailed{Kind: msg.Kind(), Code: msg.Code})
		}

	case wire.PlayerBusy:
		if !m.validIndex(int(msg.Index)) {
			m.desync("busy notice for invalid index %d", msg.Index)
			return
		}
		m.busy[msg.Index] = true
		// Any relation with a now-busy player has lapsed server-side.
		delete(m.sentTo, int(msg.Index))
		delete(m.gotFrom, int(msg.Index))
		m.emit(BusyChanged{Index: int(msg.Index), Busy: true})

	case wire.PlayerAvailable:
		if !m.validIndex(int(msg.Index)) {
			m.desync("available notice for invalid index %d", msg.Index)
			return
		}
		m.busy[msg.Index] = false
		m.emit(BusyChanged{Index: int(msg.Index), Busy: false})

	case wire.PlayerLeft:
		m.onPlayerLeft(msg)

	case wire.GameStarting:
		if m.board != nil {
			m.desync("game starting while already in a match")
			return
		}
		if !m.validIndex(int(msg.OpponentIndex)) || msg.YourTurn == wire.TurnNone {
			m.desync("game starting with opponent %d, turn %s", msg.OpponentIndex, msg.YourTurn)
			return
		}
		// Entering a match lapses every outstanding relation we had.
		clear(m.sentTo)
		clear(m.gotFrom)
		m.board = m.newMatch()
		m.myTurn = msg.YourTurn
		m.emit(MatchStarted{YourTurn: msg.YourTurn, OpponentIndex: int(msg.OpponentIndex)})

	case wire.PlaceTokenOk:
		op, ok := m.mustRetire(opPlace, msg)
		if !ok {
			return
		}
		m.applyPlacement(int(op.place.Column), op.place.TokenPath, true)
		m.emit(SelfActed{Place: &op.place})
	case wire.PlaceTokenFail:
		if _, ok := m.mustRetire(opPlace, msg); ok {
			m.emit(OperationFailed{Kind: msg.Kind(), Code: msg.Code})
		}
	case wire.PlaceTokenOther:
		m.applyPlacement(int(msg.Column), msg.TokenPath, false)
		m.emit(OpponentActed{Place: &msg})

	case wire.RefillOk:
		if _, ok := m.mustRetire(opRefill, msg); !ok {
			return
		}
		m.applyRefill(true)
		m.emit(SelfActed{Refill: true})
	case wire.RefillFail:
		if _, ok := m.mustRetire(opRefill, msg); ok {
			m.emit(OperationFailed{Kind: msg.Kind(), Code: msg.Code})
		}
	case wire.RefillOther:
		m.applyRefill(false)
		m.emit(OpponentActed{Refill: true})

	case wire.GameFinished:
		if m.board == nil {
			m.desync("game finished without a match")
			return
		}
		m.board = nil
		m.myTurn = wire.TurnNone
		m.emit(MatchFinished{
			Result:       msg.Result,
			Player1Score: msg.Player1Score,
			Player2Score: msg.Player2Score,
		})

	case wire.GameQuitOk:
		if _, ok := m.mustRetire(opQuit, msg); !ok {
			return
		}
		if m.board == nil {
			m.desync("quit confirmed without a match")
			return
		}
		m.board = nil
		m.myTurn = wire.TurnNone
		m.emit(SelfActed{Quit: true})
	case wire.GameQuitFail:
		if _, ok := m.mustRetire(opQuit, msg); ok {
			m.emit(OperationFailed{Kind: msg.Kind(), Code: msg.Code})
		}
	case wire.GameQuitOther:
		if m.board == nil {
			m.desync("opponent quit without a match")
			return
		}
		m.board = nil
		m.myTurn = wire.TurnNone
		m.emit(OpponentActed{Quit: true})

	case wire.ServerClosing:
		m.emit(ServerShutdown{})

	case wire.Disconnecting:
		m.log.Info("server announced disconnect")

	case wire.InvalidPacket:
		m.desync("server rejected a packet we sent (kind byte 0x%02x)", msg.Offending)

	case wire.Invalid:
		m.desync("unrecognized kind byte 0x%02x from server", msg.Offending)

	default:
		m.desync("unexpected message kind %s from server", msg.Kind())
	}
}

func (m *Mirror) validIndex(i int) bool {
	return m.inLobby && i >= 0 && i < len(m.names)
}

func (m *Mirror) onChallengeRequested(msg wire.ChallengeRequested) {
	src, tgt := int(msg.SourceIndex), int(msg.TargetIndex)
	if !m.validIndex(src) || !m.validIndex(tgt) {
		m.desync("challenge requested between invalid indices %d -> %d", src, tgt)
		return
	}
	switch m.myIndex {
	case src:
		op, ok := m.mustRetire(opChallenge, msg)
		if !ok {
			return
		}
		if op.target != tgt {
			m.desync("requested notice targets %d, we asked for %d", tgt, op.target)
			return
		}
		if m.sentTo[tgt] || m.gotFrom[tgt] {
			m.desync("duplicate challenge relation with index %d", tgt)
			return
		}
		m.sentTo[tgt] = true
	case tgt:
		if m.sentTo[src] || m.gotFrom[src] {
			m.desync("duplicate challenge relation with index %d", src)
			return
		}
		m.gotFrom[src] = true
	}
	m.emit(ChallengeUpdated{Verb: VerbRequested, Source: src, Target: tgt})
}

func (m *Mirror) onChallengeAccepted(msg wire.ChallengeAccepted) {
	src, tgt := int(msg.SourceIndex), int(msg.TargetIndex)
	if !m.validIndex(src) || !m.validIndex(tgt) {
		m.desync("challenge accepted between invalid indices %d -> %d", src, tgt)
		return
	}
	switch m.myIndex {
	case src:
		if !m.sentTo[tgt] {
			m.desync("accepted notice for a request we have no record of sending")
			return
		}
		delete(m.sentTo, tgt)
	case tgt:
		if !m.gotFrom[src] {
			m.desync("accepted our answer to a request we never received")
			return
		}
		if _, ok := m.mustRetire(opAccept, msg); !ok {
			return
		}
		delete(m.gotFrom, src)
	}
	m.emit(ChallengeUpdated{Verb: VerbAccepted, Source: src, Target: tgt})
}

func (m *Mirror) onChallengeRejected(msg wire.ChallengeRejected) {
	src, tgt := int(msg.SourceIndex), int(msg.TargetIndex)
	if !m.validIndex(src) || !m.validIndex(tgt) {
		m.desync("challenge rejected between invalid indices %d -> %d", src, tgt)
		return
	}
	switch m.myIndex {
	case src:
		if !m.sentTo[tgt] {
			m.desync("rejection of a request we have no record of sending")
			return
		}
		delete(m.sentTo, tgt)
	case tgt:
		if !m.gotFrom[src] {
			m.desync("rejected a request we never received")
			return
		}
		if _, ok := m.mustRetire(opReject, msg); !ok {
			return
		}
		delete(m.gotFrom, src)
	}
	m.emit(ChallengeUpdated{Verb: VerbRejected, Source: src, Target: tgt})
}

func (m *Mirror) onChallengeCanceled(msg wire.ChallengeCanceled) {
	src, tgt := int(msg.SourceIndex), int(msg.TargetIndex)
	if !m.validIndex(src) || !m.validIndex(tgt) {
		m.desync("challenge canceled between invalid indices %d -> %d", src, tgt)
		return
	}
	switch m.myIndex {
	case src:
		if !m.sentTo[tgt] {
			m.desync("cancellation of a request we have no record of sending")
			return
		}
		if _, ok := m.mustRetire(opCancel, msg); !ok {
			return
		}
		delete(m.sentTo, tgt)
	case tgt:
		if !m.gotFrom[src] {
			m.desync("canceled a request we never received")
			return
		}
		delete(m.gotFrom, src)
	}
	m.emit(ChallengeUpdated{Verb: VerbCanceled, Source: src, Target: tgt})
}

func (m *Mirror) onPlayerLeft(msg wire.PlayerLeft) {
	idx := int(msg.Index)
	if !m.validIndex(idx) || idx == m.myIndex {
		m.desync("player-left notice for index %d (we are %d)", idx, m.myIndex)
		return
	}
	m.names = append(m.names[:idx], m.names[idx+1:]...)
	m.busy = append(m.busy[:idx], m.busy[idx+1:]...)
	m.sentTo = shiftIndexSet(m.sentTo, idx)
	m.gotFrom = shiftIndexSet(m.gotFrom, idx)
	if idx < m.myIndex {
		m.myIndex--
	}
	m.emit(PlayerGone{Index: idx, Reason: msg.Reason})
}

// shiftIndexSet drops removed and renumbers everything above it, matching
// the server's immediate renumber-after-removal rule.
func shiftIndexSet(set map[int]bool, removed int) map[int]bool {
	out := make(map[int]bool, len(set))
	for i := range set {
		switch {
		case i == removed:
		case i > removed:
			out[i-1] = true
		default:
			out[i] = true
		}
	}
	return out
}

// applyPlacement drives the local board with a server-validated placement.
// self says whose action it was; a local rejection of something the server
// accepted is by definition a desync.
func (m *Mirror) applyPlacement(column int, tokenPath string, self bool) {
	if m.board == nil {
		m.desync("placement without a match")
		return
	}
	expect := m.myTurn
	if !self {
		expect = m.myTurn.Other()
	}
	if m.board.CurrentTurn() != expect {
		m.desync("placement out of turn: board says %s", m.board.CurrentTurn())
		return
	}
	kind, ok := game.ResolveToken(tokenPath)
	if !ok {
		m.desync("server confirmed unknown token kind %q", tokenPath)
		return
	}
	if err := m.board.PlaceToken(column, kind); err != nil {
		m.desync("local board rejected confirmed placement: %v", err)
	}
}

func (m *Mirror) applyRefill(self bool) {
	if m.board == nil {
		m.desync("refill without a match")
		return
	}
	expect := m.myTurn
	if !self {
		expect = m.myTurn.Other()
	}
	if m.board.CurrentTurn() != expect {
		m.desync("refill out of turn: board says %s", m.board.CurrentTurn())
		return
	}
	if err := m.board.Refill(); err != nil {
		m.desync("local board rejected confirmed refill: %v", err)
	}
}
