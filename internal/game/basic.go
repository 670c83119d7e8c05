package game

import "github.com/eyalzus12/FourInARowBattle-sub000/pkg/wire"

const (
	defaultColumns     = 7
	defaultRows        = 6
	defaultStartTokens = 5
)

// BasicMatch is a minimal Match implementation: column capacities, per-player
// token pools with refill locking, and strict turn alternation. It carries no
// gravity or win detection; the board only finishes by filling up (a draw).
// The full simulation lives outside this module and plugs in via Factory.
type BasicMatch struct {
	columns int
	rows    int
	fill    []int
	turn    wire.Turn
	pools   map[wire.Turn]map[TokenKind]int
	placed  map[wire.Turn]uint32
	start   int
}

// NewBasicMatch returns a board with default dimensions.
func NewBasicMatch() *BasicMatch {
	m := &BasicMatch{
		columns: defaultColumns,
		rows:    defaultRows,
		fill:    make([]int, defaultColumns),
		turn:    wire.TurnPlayer1,
		start:   defaultStartTokens,
		placed:  map[wire.Turn]uint32{},
	}
	m.pools = map[wire.Turn]map[TokenKind]int{
		wire.TurnPlayer1: newPool(m.start),
		wire.TurnPlayer2: newPool(m.start),
	}
	return m
}

func newPool(n int) map[TokenKind]int {
	return map[TokenKind]int{
		TokenBase:   n,
		TokenCapped: n,
		TokenHollow: n,
		TokenJoker:  n,
	}
}

func (m *BasicMatch) ValidColumn(col int) bool {
	return col >= 0 && col < m.columns && m.fill[col] < m.rows
}

func (m *BasicMatch) CurrentTurn() wire.Turn { return m.turn }

func (m *BasicMatch) PlaceToken(col int, kind TokenKind) error {
	if col < 0 || col >= m.columns {
		return wire.NewError(wire.ErrColumnInvalid)
	}
	if m.fill[col] >= m.rows {
		return wire.NewError(wire.ErrColumnFull)
	}
	pool := m.pools[m.turn]
	if pool[kind] <= 0 {
		return wire.NewError(wire.ErrOutOfTokens)
	}
	pool[kind]--
	m.fill[col]++
	m.placed[m.turn]++
	m.turn = m.turn.Other()
	return nil
}

func (m *BasicMatch) Refill() error {
	pool := m.pools[m.turn]
	full := true
	for _, n := range pool {
		if n < m.start {
			full = false
			break
		}
	}
	if full {
		return wire.NewError(wire.ErrRefillLocked)
	}
	for k := range pool {
		pool[k] = m.start
	}
	m.turn = m.turn.Other()
	return nil
}

func (m *BasicMatch) Finished() (Report, bool) {
	for _, f := range m.fill {
		if f < m.rows {
			return Report{}, false
		}
	}
	return Report{
		Result:       wire.ResultDraw,
		Player1Score: m.placed[wire.TurnPlayer1],
		Player2Score: m.placed[wire.TurnPlayer2],
	}, true
}
