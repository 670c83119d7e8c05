package wire

import "errors"

// ErrMalformed reports a length field no well-behaved peer would ever send
// (e.g. a multi-megabyte token path). The connection is not recoverable past
// it; callers treat it as fatal.
var ErrMalformed = errors.New("wire: malformed message")

const (
	// maxTokenPathLen bounds the 4-byte-length resource path fields.
	maxTokenPathLen = 4096
	// maxPlayerCount bounds the player-list length in JoinLobbyOk.
	maxPlayerCount = 256
)

// decoders maps each kind to its payload decoder. Defined from the documented
// per-kind payload shapes; every entry must be the exact inverse of the
// matching encodePayload.
var decoders = map[MessageKind]func(r *reader) Message{
	KindInvalidPacket: func(r *reader) Message { return InvalidPacket{Offending: r.u8()} },
	KindServerClosing: func(r *reader) Message { return ServerClosing{} },

	KindCreateLobbyRequest: func(r *reader) Message { return CreateLobbyRequest{Name: r.name()} },
	KindCreateLobbyOk:      func(r *reader) Message { return CreateLobbyOk{LobbyID: r.u32()} },
	KindCreateLobbyFail:    func(r *reader) Message { return CreateLobbyFail{Code: ErrorCode(r.u8())} },
	KindJoinLobbyRequest: func(r *reader) Message {
		return JoinLobbyRequest{LobbyID: r.u32(), Name: r.name()}
	},
	KindJoinLobbyOk: func(r *reader) Message {
		m := JoinLobbyOk{YourIndex: r.u32()}
		count := int(r.u32())
		if count > maxPlayerCount {
			r.bad = true
			return nil
		}
		if r.short || count == 0 {
			return m
		}
		m.Names = make([]string, count)
		for i := 0; i < count; i++ {
			m.Names[i] = r.name()
		}
		m.Busy = r.bits(count)
		return m
	},
	KindJoinLobbyFail: func(r *reader) Message { return JoinLobbyFail{Code: ErrorCode(r.u8())} },
	KindLobbyNewPlayer: func(r *reader) Message {
		return LobbyNewPlayer{Index: r.u32(), Name: r.name()}
	},

	KindChallengeRequest: func(r *reader) Message { return ChallengeRequest{TargetIndex: r.u32()} },
	KindChallengeRequestFail: func(r *reader) Message {
		return ChallengeRequestFail{Code: ErrorCode(r.u8()), TargetIndex: r.u32()}
	},
	KindChallengeRequested: func(r *reader) Message {
		return ChallengeRequested{SourceIndex: r.u32(), TargetIndex: r.u32()}
	},
	KindChallengeAccept: func(r *reader) Message { return ChallengeAccept{SourceIndex: r.u32()} },
	KindChallengeAcceptFail: func(r *reader) Message {
		return ChallengeAcceptFail{Code: ErrorCode(r.u8()), SourceIndex: r.u32()}
	},
	KindChallengeAccepted: func(r *reader) Message {
		return ChallengeAccepted{SourceIndex: r.u32(), TargetIndex: r.u32()}
	},
	KindChallengeReject: func(r *reader) Message { return ChallengeReject{SourceIndex: r.u32()} },
	KindChallengeRejectFail: func(r *reader) Message {
		return ChallengeRejectFail{Code: ErrorCode(r.u8()), SourceIndex: r.u32()}
	},
	KindChallengeRejected: func(r *reader) Message {
		return ChallengeRejected{SourceIndex: r.u32(), TargetIndex: r.u32()}
	},
	KindChallengeCancel: func(r *reader) Message { return ChallengeCancel{TargetIndex: r.u32()} },
	KindChallengeCancelFail: func(r *reader) Message {
		return ChallengeCancelFail{Code: ErrorCode(r.u8()), TargetIndex: r.u32()}
	},
	KindChallengeCanceled: func(r *reader) Message {
		return ChallengeCanceled{SourceIndex: r.u32(), TargetIndex: r.u32()}
	},
	KindPlayerBusy:      func(r *reader) Message { return PlayerBusy{Index: r.u32()} },
	KindPlayerAvailable: func(r *reader) Message { return PlayerAvailable{Index: r.u32()} },

	KindDisconnecting: func(r *reader) Message {
		return Disconnecting{Reason: DisconnectReason(r.u8())}
	},
	KindPlayerLeft: func(r *reader) Message {
		return PlayerLeft{Reason: DisconnectReason(r.u8()), Index: r.u32()}
	},

	KindGameStarting: func(r *reader) Message {
		return GameStarting{YourTurn: Turn(r.u8()), OpponentIndex: r.u32()}
	},
	KindPlaceToken: func(r *reader) Message {
		return PlaceToken{Column: r.u8(), TokenPath: string(r.blob(maxTokenPathLen))}
	},
	KindPlaceTokenOk:   func(r *reader) Message { return PlaceTokenOk{} },
	KindPlaceTokenFail: func(r *reader) Message { return PlaceTokenFail{Code: ErrorCode(r.u8())} },
	KindPlaceTokenOther: func(r *reader) Message {
		return PlaceTokenOther{Column: r.u8(), TokenPath: string(r.blob(maxTokenPathLen))}
	},
	KindRefill:      func(r *reader) Message { return Refill{} },
	KindRefillOk:    func(r *reader) Message { return RefillOk{} },
	KindRefillFail:  func(r *reader) Message { return RefillFail{Code: ErrorCode(r.u8())} },
	KindRefillOther: func(r *reader) Message { return RefillOther{} },
	KindGameFinished: func(r *reader) Message {
		return GameFinished{Result: GameResult(r.u8()), Player1Score: r.u32(), Player2Score: r.u32()}
	},
	KindGameQuit:      func(r *reader) Message { return GameQuit{} },
	KindGameQuitOk:    func(r *reader) Message { return GameQuitOk{} },
	KindGameQuitFail:  func(r *reader) Message { return GameQuitFail{Code: ErrorCode(r.u8())} },
	KindGameQuitOther: func(r *reader) Message { return GameQuitOther{} },
}

// TryDecode attempts to decode one message from the front of buf.
//
// On success it returns the message and the number of bytes it occupies; the
// caller removes exactly that many. A buffer holding only part of a message
// yields ErrNeedMoreData and consumes nothing, so the caller can retry once
// more bytes arrive. An unknown leading kind byte yields the Invalid sentinel
// carrying that byte and consumes exactly one byte, letting the stream
// resynchronize one byte at a time. ErrMalformed is fatal to the stream.
func TryDecode(buf []byte) (Message, int, error) {
	if len(buf) == 0 {
		return nil, 0, ErrNeedMoreData
	}
	kind := MessageKind(buf[0])
	dec, ok := decoders[kind]
	if !ok {
		return Invalid{Offending: buf[0]}, 1, nil
	}
	r := reader{buf: buf, pos: 1}
	m := dec(&r)
	if r.bad {
		return nil, 0, ErrMalformed
	}
	if r.short {
		return nil, 0, ErrNeedMoreData
	}
	return m, r.pos, nil
}
