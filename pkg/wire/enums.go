package wire

import "fmt"

// ErrorCode says why a single requested operation was rejected. It travels in
// *_FAIL replies to the requester alone and is never broadcast.
type ErrorCode uint8

const (
	ErrGeneric ErrorCode = iota
	ErrLobbyNonexistent
	ErrLobbyFull
	ErrAlreadyInLobby
	ErrChallengeTargetSelf
	ErrChallengeTargetInvalid
	ErrChallengeAlreadyExists
	ErrChallengeDoesNotExist
	ErrAlreadyInMatch
	ErrTargetInMatch
	ErrNotInMatch
	ErrNotYourTurn
	ErrColumnInvalid
	ErrColumnFull
	ErrTokenKindUnknown
	ErrOutOfTokens
	ErrRefillLocked
)

func (c ErrorCode) String() string {
	switch c {
	case ErrGeneric:
		return "generic"
	case ErrLobbyNonexistent:
		return "lobby does not exist"
	case ErrLobbyFull:
		return "lobby is full"
	case ErrAlreadyInLobby:
		return "already in a lobby"
	case ErrChallengeTargetSelf:
		return "challenge targets self"
	case ErrChallengeTargetInvalid:
		return "challenge target invalid"
	case ErrChallengeAlreadyExists:
		return "challenge already exists"
	case ErrChallengeDoesNotExist:
		return "challenge does not exist"
	case ErrAlreadyInMatch:
		return "already in a match"
	case ErrTargetInMatch:
		return "target is in a match"
	case ErrNotInMatch:
		return "not in a match"
	case ErrNotYourTurn:
		return "not your turn"
	case ErrColumnInvalid:
		return "column out of range"
	case ErrColumnFull:
		return "column is full"
	case ErrTokenKindUnknown:
		return "unknown token kind"
	case ErrOutOfTokens:
		return "out of tokens"
	case ErrRefillLocked:
		return "refill locked"
	default:
		return "generic"
	}
}

// Error wraps an ErrorCode as a Go error so collaborators can hand codes back
// through ordinary error returns.
type Error struct {
	Code ErrorCode
}

func (e *Error) Error() string {
	return fmt.Sprintf("wire: %s", e.Code)
}

// NewError returns an error carrying the given on-wire code.
func NewError(code ErrorCode) error {
	return &Error{Code: code}
}

// CodeOf extracts the on-wire code from err, falling back to ErrGeneric for
// errors that do not carry one. A nil err has no code; callers check first.
func CodeOf(err error) ErrorCode {
	if we, ok := err.(*Error); ok {
		return we.Code
	}
	return ErrGeneric
}

// DisconnectReason says why a peer left. Unlike ErrorCode it is broadcast to
// the rest of the departed peer's lobby.
type DisconnectReason uint8

const (
	ReasonUnknown DisconnectReason = iota
	ReasonDesire
	ReasonDesync
	ReasonConnection
	ReasonGeneric
)

func (r DisconnectReason) String() string {
	switch r {
	case ReasonDesire:
		return "desire"
	case ReasonDesync:
		return "desync"
	case ReasonConnection:
		return "connection"
	case ReasonGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// Turn identifies which match participant acts. The two values are
// complementary: a match always holds exactly one of each.
type Turn uint8

const (
	TurnNone Turn = iota
	TurnPlayer1
	TurnPlayer2
)

// Other returns the complementary turn, or TurnNone for TurnNone.
func (t Turn) Other() Turn {
	switch t {
	case TurnPlayer1:
		return TurnPlayer2
	case TurnPlayer2:
		return TurnPlayer1
	default:
		return TurnNone
	}
}

func (t Turn) String() string {
	switch t {
	case TurnPlayer1:
		return "player1"
	case TurnPlayer2:
		return "player2"
	default:
		return "none"
	}
}

// GameResult is the terminal outcome carried by a GameFinished notice.
type GameResult uint8

const (
	ResultNone GameResult = iota
	ResultPlayer1Win
	ResultPlayer2Win
	ResultDraw
)

func (g GameResult) String() string {
	switch g {
	case ResultPlayer1Win:
		return "player1 win"
	case ResultPlayer2Win:
		return "player2 win"
	case ResultDraw:
		return "draw"
	default:
		return "none"
	}
}
