package client

import "github.com/eyalzus12/FourInARowBattle-sub000/pkg/wire"

// Event is one state change surfaced to the embedding game.
type Event interface{ isEvent() }

// LobbyCreated confirms a CreateLobby action.
type LobbyCreated struct {
	LobbyID uint32
}

// LobbyJoined confirms a JoinLobby action with the full roster.
type LobbyJoined struct {
	YourIndex int
	Names     []string
	Busy      []bool
}

// PlayerJoined announces a new lobby member.
type PlayerJoined struct {
	Index int
	Name  string
}

// PlayerGone announces a member leaving; Index is pre-renumbering.
type PlayerGone struct {
	Index  int
	Reason wire.DisconnectReason
}

// ChallengeUpdated reports a challenge notice (requested, accepted, rejected
// or canceled) between two lobby indices.
type ChallengeUpdated struct {
	Verb   ChallengeVerb
	Source int
	Target int
}

type ChallengeVerb uint8

const (
	VerbRequested ChallengeVerb = iota
	VerbAccepted
	VerbRejected
	VerbCanceled
)

// MatchStarted hands the embedding game its turn assignment.
type MatchStarted struct {
	YourTurn      wire.Turn
	OpponentIndex int
}

// SelfActed confirms the local player's own validated in-match action.
type SelfActed struct {
	Place  *wire.PlaceToken // nil for a refill or quit
	Refill bool
	Quit   bool
}

// OpponentActed reports the opponent's validated in-match action.
type OpponentActed struct {
	Place  *wire.PlaceTokenOther
	Refill bool
	Quit   bool
}

// MatchFinished reports the terminal outcome.
type MatchFinished struct {
	Result       wire.GameResult
	Player1Score uint32
	Player2Score uint32
}

// BusyChanged reports a member entering or leaving a match.
type BusyChanged struct {
	Index int
	Busy  bool
}

// OperationFailed reports a *_FAIL reply to one of our own requests.
type OperationFailed struct {
	Kind wire.MessageKind
	Code wire.ErrorCode
}

// Desynced reports that the mirror caught a protocol/state inconsistency and
// is disconnecting.
type Desynced struct {
	Detail string
}

// ServerShutdown reports a server-closing notice.
type ServerShutdown struct{}

// Disconnected reports that the transport closed.
type Disconnected struct{}

func (LobbyCreated) isEvent()     {}
func (LobbyJoined) isEvent()      {}
func (PlayerJoined) isEvent()     {}
func (PlayerGone) isEvent()       {}
func (ChallengeUpdated) isEvent() {}
func (MatchStarted) isEvent()     {}
func (SelfActed) isEvent()        {}
func (OpponentActed) isEvent()    {}
func (MatchFinished) isEvent()    {}
func (BusyChanged) isEvent()      {}
func (OperationFailed) isEvent()  {}
func (Desynced) isEvent()         {}
func (ServerShutdown) isEvent()   {}
func (Disconnected) isEvent()     {}
