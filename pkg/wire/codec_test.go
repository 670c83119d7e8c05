package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// one valid sample per kind; the round-trip and partial-frame laws run over
// all of them.
var sampleMessages = []Message{
	InvalidPacket{Offending: 0xEE},
	ServerClosing{},
	CreateLobbyRequest{Name: "Ann"},
	CreateLobbyOk{LobbyID: 0xDEADBEEF},
	CreateLobbyFail{Code: ErrAlreadyInLobby},
	JoinLobbyRequest{LobbyID: 42, Name: "Bob"},
	JoinLobbyOk{YourIndex: 1, Names: []string{"Ann", "Bob"}, Busy: []bool{true, false}},
	JoinLobbyFail{Code: ErrLobbyNonexistent},
	LobbyNewPlayer{Index: 2, Name: "Cleo"},
	ChallengeRequest{TargetIndex: 1},
	ChallengeRequestFail{Code: ErrChallengeTargetSelf, TargetIndex: 0},
	ChallengeRequested{SourceIndex: 0, TargetIndex: 1},
	ChallengeAccept{SourceIndex: 0},
	ChallengeAcceptFail{Code: ErrChallengeDoesNotExist, SourceIndex: 3},
	ChallengeAccepted{SourceIndex: 0, TargetIndex: 1},
	ChallengeReject{SourceIndex: 0},
	ChallengeRejectFail{Code: ErrChallengeDoesNotExist, SourceIndex: 0},
	ChallengeRejected{SourceIndex: 0, TargetIndex: 1},
	ChallengeCancel{TargetIndex: 1},
	ChallengeCancelFail{Code: ErrChallengeDoesNotExist, TargetIndex: 1},
	ChallengeCanceled{SourceIndex: 0, TargetIndex: 1},
	PlayerBusy{Index: 0},
	PlayerAvailable{Index: 1},
	Disconnecting{Reason: ReasonDesire},
	PlayerLeft{Reason: ReasonConnection, Index: 2},
	GameStarting{YourTurn: TurnPlayer2, OpponentIndex: 0},
	PlaceToken{Column: 3, TokenPath: "res://Tokens/TokenBase.tscn"},
	PlaceTokenOk{},
	PlaceTokenFail{Code: ErrNotYourTurn},
	PlaceTokenOther{Column: 6, TokenPath: "res://Tokens/TokenJoker.tscn"},
	Refill{},
	RefillOk{},
	RefillFail{Code: ErrRefillLocked},
	RefillOther{},
	GameFinished{Result: ResultPlayer2Win, Player1Score: 12, Player2Score: 19},
	GameQuit{},
	GameQuitOk{},
	GameQuitFail{Code: ErrNotInMatch},
	GameQuitOther{},
}

func TestRoundTrip(t *testing.T) {
	for _, want := range sampleMessages {
		t.Run(want.Kind().String(), func(t *testing.T) {
			encoded := Encode(want)
			got, n, err := TryDecode(encoded)
			require.NoError(t, err)
			assert.Equal(t, len(encoded), n, "must consume the whole encoding")
			assert.Equal(t, want, got)
		})
	}
}

func TestRoundTrip_EmptyCollections(t *testing.T) {
	// A join reply about a single-member lobby still round-trips.
	m := JoinLobbyOk{YourIndex: 0, Names: []string{"Guest"}, Busy: []bool{false}}
	got, _, err := TryDecode(Encode(m))
	require.NoError(t, err)
	assert.Equal(t, m, got)

	// A zero-member roster keeps nil collections through the round trip.
	empty := JoinLobbyOk{}
	got, _, err = TryDecode(Encode(empty))
	require.NoError(t, err)
	assert.Equal(t, empty, got)
}

func TestPartialFrame(t *testing.T) {
	for _, m := range sampleMessages {
		encoded := Encode(m)
		if len(encoded) < 2 {
			continue // kind-only messages have no strict prefix beyond empty
		}
		t.Run(m.Kind().String(), func(t *testing.T) {
			for cut := 1; cut < len(encoded); cut++ {
				prefix := make([]byte, cut)
				copy(prefix, encoded[:cut])
				snapshot := append([]byte(nil), prefix...)

				got, n, err := TryDecode(prefix)
				require.ErrorIs(t, err, ErrNeedMoreData, "prefix of %d/%d bytes", cut, len(encoded))
				assert.Nil(t, got)
				assert.Zero(t, n)
				assert.Equal(t, snapshot, prefix, "buffer must be untouched")
			}
		})
	}
}

func TestDecodeEmptyBuffer(t *testing.T) {
	_, _, err := TryDecode(nil)
	assert.ErrorIs(t, err, ErrNeedMoreData)
}

func TestUnknownKindConsumesOneByte(t *testing.T) {
	buf := []byte{0xFF, 0x10, 0x03}
	got, n, err := TryDecode(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "stream resynchronizes one byte at a time")
	assert.Equal(t, Invalid{Offending: 0xFF}, got)
}

func TestLongNameTruncatesSilently(t *testing.T) {
	long := strings.Repeat("x", 200)

	// Encode side clamps to the limit.
	encoded := Encode(CreateLobbyRequest{Name: long})
	assert.Equal(t, byte(MaxNameLen), encoded[1])

	// Decode side clamps too, even for a peer that ignored the limit.
	w := writer{}
	w.u8(uint8(KindCreateLobbyRequest))
	w.u8(200)
	w.buf = append(w.buf, []byte(long)...)
	got, n, err := TryDecode(w.buf)
	require.NoError(t, err)
	assert.Equal(t, len(w.buf), n, "oversized bytes are consumed, not rejected")
	assert.Equal(t, CreateLobbyRequest{Name: long[:MaxNameLen]}, got)
}

func TestEmptyNameOnWire(t *testing.T) {
	got, _, err := TryDecode(Encode(CreateLobbyRequest{Name: ""}))
	require.NoError(t, err)
	assert.Equal(t, CreateLobbyRequest{Name: ""}, got)
}

func TestMalformedLengthIsFatal(t *testing.T) {
	w := writer{}
	w.u8(uint8(KindPlaceToken))
	w.u8(3)
	w.u32(100 * 1024 * 1024) // absurd path length
	_, _, err := TryDecode(w.buf)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestMalformedPlayerCountIsFatal(t *testing.T) {
	w := writer{}
	w.u8(uint8(KindJoinLobbyOk))
	w.u32(0)
	w.u32(1 << 30) // absurd player count
	_, _, err := TryDecode(w.buf)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestBusyBitsPacking(t *testing.T) {
	// Nine members force a second bit byte.
	names := make([]string, 9)
	busy := make([]bool, 9)
	for i := range names {
		names[i] = "p"
	}
	busy[0], busy[7], busy[8] = true, true, true

	m := JoinLobbyOk{YourIndex: 8, Names: names, Busy: busy}
	encoded := Encode(m)
	// Last two bytes are the packed flags: 1000_0001, 0000_0001.
	assert.Equal(t, byte(0x81), encoded[len(encoded)-2])
	assert.Equal(t, byte(0x01), encoded[len(encoded)-1])

	got, _, err := TryDecode(encoded)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}
