package wire

// MessageKind is the one-byte tag leading every message on the wire.
//
// Kinds are grouped into numeric bands purely for readability when staring at
// hex dumps: 0x0_ control/meta, 0x1_-0x2_ lobby management, 0x3_ connection
// lifecycle, 0x4_ in-match. Bands carry no runtime meaning.
type MessageKind uint8

const (
	// Control / meta.
	KindInvalid       MessageKind = 0x00 // decode sentinel, never sent deliberately
	KindInvalidPacket MessageKind = 0x01
	KindServerClosing MessageKind = 0x02

	// Lobby management.
	KindCreateLobbyRequest   MessageKind = 0x10
	KindCreateLobbyOk        MessageKind = 0x11
	KindCreateLobbyFail      MessageKind = 0x12
	KindJoinLobbyRequest     MessageKind = 0x13
	KindJoinLobbyOk          MessageKind = 0x14
	KindJoinLobbyFail        MessageKind = 0x15
	KindLobbyNewPlayer       MessageKind = 0x16
	KindChallengeRequest     MessageKind = 0x17
	KindChallengeRequestFail MessageKind = 0x18
	KindChallengeRequested   MessageKind = 0x19
	KindChallengeAccept      MessageKind = 0x1A
	KindChallengeAcceptFail  MessageKind = 0x1B
	KindChallengeAccepted    MessageKind = 0x1C
	KindChallengeReject      MessageKind = 0x1D
	KindChallengeRejectFail  MessageKind = 0x1E
	KindChallengeRejected    MessageKind = 0x1F
	KindChallengeCancel      MessageKind = 0x20
	KindChallengeCancelFail  MessageKind = 0x21
	KindChallengeCanceled    MessageKind = 0x22
	KindPlayerBusy           MessageKind = 0x23
	KindPlayerAvailable      MessageKind = 0x24

	// Connection lifecycle.
	KindDisconnecting MessageKind = 0x30
	KindPlayerLeft    MessageKind = 0x31

	// In-match.
	KindGameStarting    MessageKind = 0x40
	KindPlaceToken      MessageKind = 0x41
	KindPlaceTokenOk    MessageKind = 0x42
	KindPlaceTokenFail  MessageKind = 0x43
	KindPlaceTokenOther MessageKind = 0x44
	KindRefill          MessageKind = 0x45
	KindRefillOk        MessageKind = 0x46
	KindRefillFail      MessageKind = 0x47
	KindRefillOther     MessageKind = 0x48
	KindGameFinished    MessageKind = 0x49
	KindGameQuit        MessageKind = 0x4A
	KindGameQuitOk      MessageKind = 0x4B
	KindGameQuitFail    MessageKind = 0x4C
	KindGameQuitOther   MessageKind = 0x4D
)

func (k MessageKind) String() string {
	switch k {
	case KindInvalid:
		return "Invalid"
	case KindInvalidPacket:
		return "InvalidPacket"
	case KindServerClosing:
		return "ServerClosing"
	case KindCreateLobbyRequest:
		return "CreateLobbyRequest"
	case KindCreateLobbyOk:
		return "CreateLobbyOk"
	case KindCreateLobbyFail:
		return "CreateLobbyFail"
	case KindJoinLobbyRequest:
		return "JoinLobbyRequest"
	case KindJoinLobbyOk:
		return "JoinLobbyOk"
	case KindJoinLobbyFail:
		return "JoinLobbyFail"
	case KindLobbyNewPlayer:
		return "LobbyNewPlayer"
	case KindChallengeRequest:
		return "ChallengeRequest"
	case KindChallengeRequestFail:
		return "ChallengeRequestFail"
	case KindChallengeRequested:
		return "ChallengeRequested"
	case KindChallengeAccept:
		return "ChallengeAccept"
	case KindChallengeAcceptFail:
		return "ChallengeAcceptFail"
	case KindChallengeAccepted:
		return "ChallengeAccepted"
	case KindChallengeReject:
		return "ChallengeReject"
	case KindChallengeRejectFail:
		return "ChallengeRejectFail"
	case KindChallengeRejected:
		return "ChallengeRejected"
	case KindChallengeCancel:
		return "ChallengeCancel"
	case KindChallengeCancelFail:
		return "ChallengeCancelFail"
	case KindChallengeCanceled:
		return "ChallengeCanceled"
	case KindPlayerBusy:
		return "PlayerBusy"
	case KindPlayerAvailable:
		return "PlayerAvailable"
	case KindDisconnecting:
		return "Disconnecting"
	case KindPlayerLeft:
		return "PlayerLeft"
	case KindGameStarting:
		return "GameStarting"
	case KindPlaceToken:
		return "PlaceToken"
	case KindPlaceTokenOk:
		return "PlaceTokenOk"
	case KindPlaceTokenFail:
		return "PlaceTokenFail"
	case KindPlaceTokenOther:
		return "PlaceTokenOther"
	case KindRefill:
		return "Refill"
	case KindRefillOk:
		return "RefillOk"
	case KindRefillFail:
		return "RefillFail"
	case KindRefillOther:
		return "RefillOther"
	case KindGameFinished:
		return "GameFinished"
	case KindGameQuit:
		return "GameQuit"
	case KindGameQuitOk:
		return "GameQuitOk"
	case KindGameQuitFail:
		return "GameQuitFail"
	case KindGameQuitOther:
		return "GameQuitOther"
	default:
		return "Unknown"
	}
}
