package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyalzus12/FourInARowBattle-sub000/internal/game"
	"github.com/eyalzus12/FourInARowBattle-sub000/pkg/wire"
)

// fakeConn is a channel-backed stand-in for the websocket transport.
type fakeConn struct {
	in chan wire.Message

	mu     sync.Mutex
	sent   []wire.Message
	closes []wire.DisconnectReason
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan wire.Message, 16)}
}

func (c *fakeConn) Messages() <-chan wire.Message { return c.in }

func (c *fakeConn) Send(m wire.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, m)
	return nil
}

func (c *fakeConn) Close(reason wire.DisconnectReason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes = append(c.closes, reason)
}

func (c *fakeConn) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func (c *fakeConn) lastSent(t *testing.T) wire.Message {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.sent)
	return c.sent[len(c.sent)-1]
}

func (c *fakeConn) closeReasons() []wire.DisconnectReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]wire.DisconnectReason(nil), c.closes...)
}

type mirrorFixture struct {
	m    *Mirror
	conn *fakeConn
}

func newMirrorFixture(t *testing.T) *mirrorFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	conn := newFakeConn()
	m := New(ctx, Config{Conn: conn})
	return &mirrorFixture{m: m, conn: conn}
}

func (f *mirrorFixture) nextEvent(t *testing.T) Event {
	t.Helper()
	select {
	case e, ok := <-f.m.Events():
		require.True(t, ok, "event channel closed")
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

// waitSent blocks until the mirror has pushed n messages to the connection,
// so the matching in-flight records are known to exist before a reply lands.
func (f *mirrorFixture) waitSent(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return f.conn.sentCount() >= n },
		time.Second, time.Millisecond)
}

// joinAs drives the fixture into a lobby at the given index.
func (f *mirrorFixture) joinAs(t *testing.T, index int, names []string, busy []bool) {
	t.Helper()
	f.m.JoinLobby(42, names[index])
	f.waitSent(t, 1)
	f.conn.in <- wire.JoinLobbyOk{
		YourIndex: uint32(index),
		Names:     names,
		Busy:      busy,
	}
	e := f.nextEvent(t)
	require.IsType(t, LobbyJoined{}, e)
}

func TestCreateLobby(t *testing.T) {
	f := newMirrorFixture(t)

	f.m.CreateLobby("Ann")
	f.waitSent(t, 1)
	assert.Equal(t, wire.CreateLobbyRequest{Name: "Ann"}, f.conn.lastSent(t))

	f.conn.in <- wire.CreateLobbyOk{LobbyID: 7}
	assert.Equal(t, LobbyCreated{LobbyID: 7}, f.nextEvent(t))
}

func TestCreateLobby_FailSurfaced(t *testing.T) {
	f := newMirrorFixture(t)

	f.m.CreateLobby("Ann")
	f.waitSent(t, 1)
	f.conn.in <- wire.CreateLobbyFail{Code: wire.ErrAlreadyInLobby}
	assert.Equal(t, OperationFailed{
		Kind: wire.KindCreateLobbyFail,
		Code: wire.ErrAlreadyInLobby,
	}, f.nextEvent(t))
	assert.Empty(t, f.conn.closeReasons(), "a failed request is not a desync")
}

func TestJoinAndRosterChanges(t *testing.T) {
	f := newMirrorFixture(t)
	f.joinAs(t, 1, []string{"Ann", "Bob"}, []bool{false, false})

	f.conn.in <- wire.LobbyNewPlayer{Index: 2, Name: "Cleo"}
	assert.Equal(t, PlayerJoined{Index: 2, Name: "Cleo"}, f.nextEvent(t))

	f.conn.in <- wire.PlayerLeft{Reason: wire.ReasonDesire, Index: 0}
	assert.Equal(t, PlayerGone{Index: 0, Reason: wire.ReasonDesire}, f.nextEvent(t))
}

func TestLobbyNewPlayer_GapInIndexIsDesync(t *testing.T) {
	f := newMirrorFixture(t)
	f.joinAs(t, 0, []string{"Ann"}, []bool{false})

	f.conn.in <- wire.LobbyNewPlayer{Index: 5, Name: "Cleo"}
	e := f.nextEvent(t)
	require.IsType(t, Desynced{}, e)
	assert.Equal(t, []wire.DisconnectReason{wire.ReasonDesync}, f.conn.closeReasons())
}

func TestChallengeRoundTripIntoMatch(t *testing.T) {
	f := newMirrorFixture(t)
	f.joinAs(t, 1, []string{"Ann", "Bob"}, []bool{false, false})

	f.m.RequestChallenge(0)
	f.waitSent(t, 2)
	assert.Equal(t, wire.ChallengeRequest{TargetIndex: 0}, f.conn.lastSent(t))

	f.conn.in <- wire.ChallengeRequested{SourceIndex: 1, TargetIndex: 0}
	assert.Equal(t, ChallengeUpdated{Verb: VerbRequested, Source: 1, Target: 0}, f.nextEvent(t))

	f.conn.in <- wire.ChallengeAccepted{SourceIndex: 1, TargetIndex: 0}
	assert.Equal(t, ChallengeUpdated{Verb: VerbAccepted, Source: 1, Target: 0}, f.nextEvent(t))

	f.conn.in <- wire.GameStarting{YourTurn: wire.TurnPlayer1, OpponentIndex: 0}
	assert.Equal(t, MatchStarted{YourTurn: wire.TurnPlayer1, OpponentIndex: 0}, f.nextEvent(t))
}

func TestChallengeAccepted_WithoutRecordIsDesync(t *testing.T) {
	f := newMirrorFixture(t)
	f.joinAs(t, 0, []string{"Ann", "Bob"}, []bool{false, false})

	// The server claims we sent a challenge that we have no record of.
	f.conn.in <- wire.ChallengeAccepted{SourceIndex: 0, TargetIndex: 1}
	e := f.nextEvent(t)
	require.IsType(t, Desynced{}, e)
	assert.Equal(t, []wire.DisconnectReason{wire.ReasonDesync}, f.conn.closeReasons())
}

func TestUnmatchedReplyIsDesync(t *testing.T) {
	f := newMirrorFixture(t)
	f.joinAs(t, 0, []string{"Ann"}, []bool{false})

	f.conn.in <- wire.PlaceTokenOk{}
	e := f.nextEvent(t)
	require.IsType(t, Desynced{}, e)
	assert.Equal(t, []wire.DisconnectReason{wire.ReasonDesync}, f.conn.closeReasons())
}

func TestIncomingChallengeRejected(t *testing.T) {
	f := newMirrorFixture(t)
	f.joinAs(t, 1, []string{"Ann", "Bob"}, []bool{false, false})

	f.conn.in <- wire.ChallengeRequested{SourceIndex: 0, TargetIndex: 1}
	assert.Equal(t, ChallengeUpdated{Verb: VerbRequested, Source: 0, Target: 1}, f.nextEvent(t))

	f.m.RejectChallenge(0)
	f.waitSent(t, 2)
	f.conn.in <- wire.ChallengeRejected{SourceIndex: 0, TargetIndex: 1}
	assert.Equal(t, ChallengeUpdated{Verb: VerbRejected, Source: 0, Target: 1}, f.nextEvent(t))
}

func TestBusyNoticeLapsesRelation(t *testing.T) {
	f := newMirrorFixture(t)
	f.joinAs(t, 0, []string{"Ann", "Bob", "Cleo"}, []bool{false, false, false})

	f.m.RequestChallenge(1)
	f.waitSent(t, 2)
	f.conn.in <- wire.ChallengeRequested{SourceIndex: 0, TargetIndex: 1}
	f.nextEvent(t)

	// Bob goes busy in a match with Cleo; our pending challenge to Bob lapses.
	f.conn.in <- wire.PlayerBusy{Index: 1}
	assert.Equal(t, BusyChanged{Index: 1, Busy: true}, f.nextEvent(t))
	f.conn.in <- wire.PlayerBusy{Index: 2}
	assert.Equal(t, BusyChanged{Index: 2, Busy: true}, f.nextEvent(t))

	// If the relation were still recorded, this acceptance would pass the
	// record check; it must desync instead.
	f.conn.in <- wire.ChallengeAccepted{SourceIndex: 0, TargetIndex: 1}
	require.IsType(t, Desynced{}, f.nextEvent(t))
}

func matchFixtureClient(t *testing.T) *mirrorFixture {
	t.Helper()
	f := newMirrorFixture(t)
	f.joinAs(t, 1, []string{"Ann", "Bob"}, []bool{false, false})
	f.conn.in <- wire.GameStarting{YourTurn: wire.TurnPlayer1, OpponentIndex: 0}
	require.IsType(t, MatchStarted{}, f.nextEvent(t))
	return f
}

func TestPlaceFlowDrivesLocalBoard(t *testing.T) {
	f := matchFixtureClient(t)

	f.m.PlaceToken(3, game.TokenBase.Path())
	f.waitSent(t, 2)
	f.conn.in <- wire.PlaceTokenOk{}
	e := f.nextEvent(t)
	self, ok := e.(SelfActed)
	require.True(t, ok, "got %T", e)
	require.NotNil(t, self.Place)
	assert.Equal(t, uint8(3), self.Place.Column)

	f.conn.in <- wire.PlaceTokenOther{Column: 4, TokenPath: game.TokenBase.Path()}
	e = f.nextEvent(t)
	other, ok := e.(OpponentActed)
	require.True(t, ok, "got %T", e)
	require.NotNil(t, other.Place)
	assert.Equal(t, uint8(4), other.Place.Column)

	f.conn.in <- wire.GameFinished{Result: wire.ResultDraw}
	assert.Equal(t, MatchFinished{Result: wire.ResultDraw}, f.nextEvent(t))
	assert.Empty(t, f.conn.closeReasons())
}

func TestConfirmedPlacementBoardRejectsIsDesync(t *testing.T) {
	f := matchFixtureClient(t)

	// Opponent placement out of turn: our board says it is our move.
	f.conn.in <- wire.PlaceTokenOther{Column: 0, TokenPath: game.TokenBase.Path()}
	require.IsType(t, Desynced{}, f.nextEvent(t))
	assert.Equal(t, []wire.DisconnectReason{wire.ReasonDesync}, f.conn.closeReasons())
}

func TestRefillFlow(t *testing.T) {
	f := matchFixtureClient(t)

	f.m.Refill()
	f.waitSent(t, 2)
	f.conn.in <- wire.RefillFail{Code: wire.ErrRefillLocked}
	assert.Equal(t, OperationFailed{
		Kind: wire.KindRefillFail,
		Code: wire.ErrRefillLocked,
	}, f.nextEvent(t))
}

func TestQuitFlow(t *testing.T) {
	f := matchFixtureClient(t)

	f.m.QuitGame()
	f.waitSent(t, 2)
	f.conn.in <- wire.GameQuitOk{}
	assert.Equal(t, SelfActed{Quit: true}, f.nextEvent(t))

	// The match is over; a second start is legal again.
	f.conn.in <- wire.GameStarting{YourTurn: wire.TurnPlayer2, OpponentIndex: 0}
	assert.Equal(t, MatchStarted{YourTurn: wire.TurnPlayer2, OpponentIndex: 0}, f.nextEvent(t))
}

func TestOpponentQuit(t *testing.T) {
	f := matchFixtureClient(t)

	f.conn.in <- wire.GameQuitOther{}
	assert.Equal(t, OpponentActed{Quit: true}, f.nextEvent(t))
}

func TestServerClosingSurfaced(t *testing.T) {
	f := newMirrorFixture(t)
	f.conn.in <- wire.ServerClosing{}
	assert.Equal(t, ServerShutdown{}, f.nextEvent(t))
}

func TestInvalidPacketEchoIsDesync(t *testing.T) {
	f := newMirrorFixture(t)
	f.conn.in <- wire.InvalidPacket{Offending: 0x7F}
	require.IsType(t, Desynced{}, f.nextEvent(t))
	assert.Equal(t, []wire.DisconnectReason{wire.ReasonDesync}, f.conn.closeReasons())
}

func TestTransportCloseStopsMirror(t *testing.T) {
	f := newMirrorFixture(t)
	close(f.conn.in)

	assert.Equal(t, Disconnected{}, f.nextEvent(t))
	select {
	case <-f.m.Done():
	case <-time.After(time.Second):
		t.Fatal("mirror did not stop")
	}
	_, open := <-f.m.Events()
	assert.False(t, open, "event channel closes on stop")
}
