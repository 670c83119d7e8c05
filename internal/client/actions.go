package client

import (
	"github.com/eyalzus12/FourInARowBattle-sub000/pkg/wire"
)

// opKind names one in-flight request category; the matching *_OK/*_FAIL (or
// the broadcast standing in for it) retires the oldest record of its kind.
type opKind uint8

const (
	opCreateLobby opKind = iota
	opJoinLobby
	opChallenge
	opAccept
	opReject
	opCancel
	opPlace
	opRefill
	opQuit
)

type pendingOp struct {
	kind   opKind
	target int             // challenge verbs: the other index named in our request
	name   string          // opCreateLobby: the display name we asked for
	place  wire.PlaceToken // opPlace: what we asked for, applied locally on Ok
}

type action struct {
	op   pendingOp
	msg  wire.Message
	bare bool // no reply expected, nothing goes in flight
}

func (m *Mirror) dispatch(a action) {
	select {
	case m.actions <- a:
	case <-m.ctx.Done():
	}
}

func (m *Mirror) handleAction(a action) {
	if err := m.conn.Send(a.msg); err != nil {
		m.log.Warn("send failed; connection no longer open")
		return
	}
	if !a.bare {
		m.pending = append(m.pending, a.op)
	}
}

// CreateLobby asks the server for a fresh lobby under the given display name.
func (m *Mirror) CreateLobby(name string) {
	m.dispatch(action{
		op:  pendingOp{kind: opCreateLobby, name: name},
		msg: wire.CreateLobbyRequest{Name: name},
	})
}

// JoinLobby asks to join an existing lobby id.
func (m *Mirror) JoinLobby(id uint32, name string) {
	m.dispatch(action{
		op:  pendingOp{kind: opJoinLobby},
		msg: wire.JoinLobbyRequest{LobbyID: id, Name: name},
	})
}

// RequestChallenge challenges the lobby member at target.
func (m *Mirror) RequestChallenge(target int) {
	m.dispatch(action{
		op:  pendingOp{kind: opChallenge, target: target},
		msg: wire.ChallengeRequest{TargetIndex: uint32(target)},
	})
}

// AcceptChallenge accepts the pending challenge from source.
func (m *Mirror) AcceptChallenge(source int) {
	m.dispatch(action{
		op:  pendingOp{kind: opAccept, target: source},
		msg: wire.ChallengeAccept{SourceIndex: uint32(source)},
	})
}

// RejectChallenge declines the pending challenge from source.
func (m *Mirror) RejectChallenge(source int) {
	m.dispatch(action{
		op:  pendingOp{kind: opReject, target: source},
		msg: wire.ChallengeReject{SourceIndex: uint32(source)},
	})
}

// CancelChallenge withdraws our own pending challenge to target.
func (m *Mirror) CancelChallenge(target int) {
	m.dispatch(action{
		op:  pendingOp{kind: opCancel, target: target},
		msg: wire.ChallengeCancel{TargetIndex: uint32(target)},
	})
}

// PlaceToken asks to drop a token; applied locally only once the server
// confirms.
func (m *Mirror) PlaceToken(column int, tokenPath string) {
	msg := wire.PlaceToken{Column: uint8(column), TokenPath: tokenPath}
	m.dispatch(action{
		op:  pendingOp{kind: opPlace, place: msg},
		msg: msg,
	})
}

// Refill asks to restock our token pool.
func (m *Mirror) Refill() {
	m.dispatch(action{op: pendingOp{kind: opRefill}, msg: wire.Refill{}})
}

// QuitGame resigns the current match without dropping the connection.
func (m *Mirror) QuitGame() {
	m.dispatch(action{op: pendingOp{kind: opQuit}, msg: wire.GameQuit{}})
}

// Disconnect announces the given reason and closes the connection.
func (m *Mirror) Disconnect(reason wire.DisconnectReason) {
	m.conn.Close(reason)
	m.cancel()
}
