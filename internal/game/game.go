// Package game holds the seam between the online backbone and the board
// simulation. The authority treats a Match as opaque: it validates turn order
// and message shape, then defers token-count and refill-lock legality here.
package game

import (
	"github.com/eyalzus12/FourInARowBattle-sub000/pkg/wire"
)

// TokenKind is one placeable token variety, resolved from its on-wire
// resource path.
type TokenKind uint8

const (
	TokenBase TokenKind = iota
	TokenCapped
	TokenHollow
	TokenJoker
)

var tokenPaths = map[string]TokenKind{
	"res://Tokens/TokenBase.tscn":   TokenBase,
	"res://Tokens/TokenCapped.tscn": TokenCapped,
	"res://Tokens/TokenHollow.tscn": TokenHollow,
	"res://Tokens/TokenJoker.tscn":  TokenJoker,
}

// ResolveToken maps a wire token path to its kind. Unknown paths are the
// sender's problem; the caller replies with ErrTokenKindUnknown.
func ResolveToken(path string) (TokenKind, bool) {
	k, ok := tokenPaths[path]
	return k, ok
}

// Path returns the wire resource path for k.
func (k TokenKind) Path() string {
	for p, kind := range tokenPaths {
		if kind == k {
			return p
		}
	}
	return ""
}

// Report is a terminal outcome announced by a match.
type Report struct {
	Result       wire.GameResult
	Player1Score uint32
	Player2Score uint32
}

// Match is the authority's view of one live board. Methods returning error
// yield nil on success or a *wire.Error carrying the code to put in the
// *_FAIL reply.
type Match interface {
	// ValidColumn reports whether col is on the board and not full.
	ValidColumn(col int) bool
	// CurrentTurn says which participant may act.
	CurrentTurn() wire.Turn
	// PlaceToken drops one token of the given kind into col for the player
	// whose turn it is.
	PlaceToken(col int, kind TokenKind) error
	// Refill restocks the acting player's token pool.
	Refill() error
	// Finished reports the terminal outcome once the board reaches one.
	Finished() (Report, bool)
}

// Factory creates the board for a freshly accepted challenge. The first
// return of CurrentTurn on the new match must be wire.TurnPlayer1.
type Factory func() Match
