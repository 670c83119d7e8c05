package wire

// Message is one decoded protocol message. Values are immutable once
// constructed: handlers read fields, they never write them.
type Message interface {
	Kind() MessageKind
	encodePayload(w *writer)
}

// Encode serializes m as [1B kind][payload]. It is the exact inverse of
// TryDecode for every kind.
func Encode(m Message) []byte {
	w := writer{buf: make([]byte, 0, 16)}
	w.u8(uint8(m.Kind()))
	m.encodePayload(&w)
	return w.buf
}

// Invalid is the decode sentinel for an unrecognized leading kind byte. It is
// produced by TryDecode (consuming exactly one byte so the stream can
// resynchronize) and is never legitimately encoded.
type Invalid struct {
	Offending byte
}

func (Invalid) Kind() MessageKind       { return KindInvalid }
func (Invalid) encodePayload(w *writer) {}

// InvalidPacket echoes an unrecognized kind byte back to its sender.
type InvalidPacket struct {
	Offending byte
}

func (InvalidPacket) Kind() MessageKind { return KindInvalidPacket }
func (m InvalidPacket) encodePayload(w *writer) {
	w.u8(m.Offending)
}

// ServerClosing tells every open peer the server is shutting down.
type ServerClosing struct{}

func (ServerClosing) Kind() MessageKind       { return KindServerClosing }
func (ServerClosing) encodePayload(w *writer) {}

type CreateLobbyRequest struct {
	Name string
}

func (CreateLobbyRequest) Kind() MessageKind { return KindCreateLobbyRequest }
func (m CreateLobbyRequest) encodePayload(w *writer) {
	w.name(m.Name)
}

type CreateLobbyOk struct {
	LobbyID uint32
}

func (CreateLobbyOk) Kind() MessageKind { return KindCreateLobbyOk }
func (m CreateLobbyOk) encodePayload(w *writer) {
	w.u32(m.LobbyID)
}

type CreateLobbyFail struct {
	Code ErrorCode
}

func (CreateLobbyFail) Kind() MessageKind { return KindCreateLobbyFail }
func (m CreateLobbyFail) encodePayload(w *writer) {
	w.u8(uint8(m.Code))
}

type JoinLobbyRequest struct {
	LobbyID uint32
	Name    string
}

func (JoinLobbyRequest) Kind() MessageKind { return KindJoinLobbyRequest }
func (m JoinLobbyRequest) encodePayload(w *writer) {
	w.u32(m.LobbyID)
	w.name(m.Name)
}

// JoinLobbyOk answers a successful join with the joiner's own index, the full
// ordered member name list, and one busy bit per member (in a match or not).
// len(Names) == len(Busy) always.
type JoinLobbyOk struct {
	YourIndex uint32
	Names     []string
	Busy      []bool
}

func (JoinLobbyOk) Kind() MessageKind { return KindJoinLobbyOk }
func (m JoinLobbyOk) encodePayload(w *writer) {
	w.u32(m.YourIndex)
	w.u32(uint32(len(m.Names)))
	for _, n := range m.Names {
		w.name(n)
	}
	w.bits(m.Busy)
}

type JoinLobbyFail struct {
	Code ErrorCode
}

func (JoinLobbyFail) Kind() MessageKind { return KindJoinLobbyFail }
func (m JoinLobbyFail) encodePayload(w *writer) {
	w.u8(uint8(m.Code))
}

type LobbyNewPlayer struct {
	Index uint32
	Name  string
}

func (LobbyNewPlayer) Kind() MessageKind { return KindLobbyNewPlayer }
func (m LobbyNewPlayer) encodePayload(w *writer) {
	w.u32(m.Index)
	w.name(m.Name)
}

type ChallengeRequest struct {
	TargetIndex uint32
}

func (ChallengeRequest) Kind() MessageKind { return KindChallengeRequest }
func (m ChallengeRequest) encodePayload(w *writer) {
	w.u32(m.TargetIndex)
}

type ChallengeRequestFail struct {
	Code        ErrorCode
	TargetIndex uint32
}

func (ChallengeRequestFail) Kind() MessageKind { return KindChallengeRequestFail }
func (m ChallengeRequestFail) encodePayload(w *writer) {
	w.u8(uint8(m.Code))
	w.u32(m.TargetIndex)
}

type ChallengeRequested struct {
	SourceIndex uint32
	TargetIndex uint32
}

func (ChallengeRequested) Kind() MessageKind { return KindChallengeRequested }
func (m ChallengeRequested) encodePayload(w *writer) {
	w.u32(m.SourceIndex)
	w.u32(m.TargetIndex)
}

type ChallengeAccept struct {
	SourceIndex uint32
}

func (ChallengeAccept) Kind() MessageKind { return KindChallengeAccept }
func (m ChallengeAccept) encodePayload(w *writer) {
	w.u32(m.SourceIndex)
}

type ChallengeAcceptFail struct {
	Code        ErrorCode
	SourceIndex uint32
}

func (ChallengeAcceptFail) Kind() MessageKind { return KindChallengeAcceptFail }
func (m ChallengeAcceptFail) encodePayload(w *writer) {
	w.u8(uint8(m.Code))
	w.u32(m.SourceIndex)
}

type ChallengeAccepted struct {
	SourceIndex uint32
	TargetIndex uint32
}

func (ChallengeAccepted) Kind() MessageKind { return KindChallengeAccepted }
func (m ChallengeAccepted) encodePayload(w *writer) {
	w.u32(m.SourceIndex)
	w.u32(m.TargetIndex)
}

type ChallengeReject struct {
	SourceIndex uint32
}

func (ChallengeReject) Kind() MessageKind { return KindChallengeReject }
func (m ChallengeReject) encodePayload(w *writer) {
	w.u32(m.SourceIndex)
}

type ChallengeRejectFail struct {
	Code        ErrorCode
	SourceIndex uint32
}

func (ChallengeRejectFail) Kind() MessageKind { return KindChallengeRejectFail }
func (m ChallengeRejectFail) encodePayload(w *writer) {
	w.u8(uint8(m.Code))
	w.u32(m.SourceIndex)
}

type ChallengeRejected struct {
	SourceIndex uint32
	TargetIndex uint32
}

func (ChallengeRejected) Kind() MessageKind { return KindChallengeRejected }
func (m ChallengeRejected) encodePayload(w *writer) {
	w.u32(m.SourceIndex)
	w.u32(m.TargetIndex)
}

type ChallengeCancel struct {
	TargetIndex uint32
}

func (ChallengeCancel) Kind() MessageKind { return KindChallengeCancel }
func (m ChallengeCancel) encodePayload(w *writer) {
	w.u32(m.TargetIndex)
}

type ChallengeCancelFail struct {
	Code        ErrorCode
	TargetIndex uint32
}

func (ChallengeCancelFail) Kind() MessageKind { return KindChallengeCancelFail }
func (m ChallengeCancelFail) encodePayload(w *writer) {
	w.u8(uint8(m.Code))
	w.u32(m.TargetIndex)
}

type ChallengeCanceled struct {
	SourceIndex uint32
	TargetIndex uint32
}

func (ChallengeCanceled) Kind() MessageKind { return KindChallengeCanceled }
func (m ChallengeCanceled) encodePayload(w *writer) {
	w.u32(m.SourceIndex)
	w.u32(m.TargetIndex)
}

type PlayerBusy struct {
	Index uint32
}

func (PlayerBusy) Kind() MessageKind { return KindPlayerBusy }
func (m PlayerBusy) encodePayload(w *writer) {
	w.u32(m.Index)
}

type PlayerAvailable struct {
	Index uint32
}

func (PlayerAvailable) Kind() MessageKind { return KindPlayerAvailable }
func (m PlayerAvailable) encodePayload(w *writer) {
	w.u32(m.Index)
}

// Disconnecting is a courtesy notice sent before closing so the other side
// can report a precise reason instead of a bare connection drop.
type Disconnecting struct {
	Reason DisconnectReason
}

func (Disconnecting) Kind() MessageKind { return KindDisconnecting }
func (m Disconnecting) encodePayload(w *writer) {
	w.u8(uint8(m.Reason))
}

// PlayerLeft tells remaining lobby members a peer is gone. Index is the
// departed player's index before renumbering.
type PlayerLeft struct {
	Reason DisconnectReason
	Index  uint32
}

func (PlayerLeft) Kind() MessageKind { return KindPlayerLeft }
func (m PlayerLeft) encodePayload(w *writer) {
	w.u8(uint8(m.Reason))
	w.u32(m.Index)
}

// GameStarting is sent to each match participant with its own turn
// assignment and its opponent's lobby index.
type GameStarting struct {
	YourTurn      Turn
	OpponentIndex uint32
}

func (GameStarting) Kind() MessageKind { return KindGameStarting }
func (m GameStarting) encodePayload(w *writer) {
	w.u8(uint8(m.YourTurn))
	w.u32(m.OpponentIndex)
}

// PlaceToken asks to drop a token of the given kind into a column. TokenPath
// identifies the token kind by its resource path; the server resolves it and
// rejects paths it does not recognize.
type PlaceToken struct {
	Column    uint8
	TokenPath string
}

func (PlaceToken) Kind() MessageKind { return KindPlaceToken }
func (m PlaceToken) encodePayload(w *writer) {
	w.u8(m.Column)
	w.blob([]byte(m.TokenPath))
}

type PlaceTokenOk struct{}

func (PlaceTokenOk) Kind() MessageKind       { return KindPlaceTokenOk }
func (PlaceTokenOk) encodePayload(w *writer) {}

type PlaceTokenFail struct {
	Code ErrorCode
}

func (PlaceTokenFail) Kind() MessageKind { return KindPlaceTokenFail }
func (m PlaceTokenFail) encodePayload(w *writer) {
	w.u8(uint8(m.Code))
}

// PlaceTokenOther mirrors a validated placement to the opponent.
type PlaceTokenOther struct {
	Column    uint8
	TokenPath string
}

func (PlaceTokenOther) Kind() MessageKind { return KindPlaceTokenOther }
func (m PlaceTokenOther) encodePayload(w *writer) {
	w.u8(m.Column)
	w.blob([]byte(m.TokenPath))
}

type Refill struct{}

func (Refill) Kind() MessageKind       { return KindRefill }
func (Refill) encodePayload(w *writer) {}

type RefillOk struct{}

func (RefillOk) Kind() MessageKind       { return KindRefillOk }
func (RefillOk) encodePayload(w *writer) {}

type RefillFail struct {
	Code ErrorCode
}

func (RefillFail) Kind() MessageKind { return KindRefillFail }
func (m RefillFail) encodePayload(w *writer) {
	w.u8(uint8(m.Code))
}

type RefillOther struct{}

func (RefillOther) Kind() MessageKind       { return KindRefillOther }
func (RefillOther) encodePayload(w *writer) {}

type GameFinished struct {
	Result       GameResult
	Player1Score uint32
	Player2Score uint32
}

func (GameFinished) Kind() MessageKind { return KindGameFinished }
func (m GameFinished) encodePayload(w *writer) {
	w.u8(uint8(m.Result))
	w.u32(m.Player1Score)
	w.u32(m.Player2Score)
}

type GameQuit struct{}

func (GameQuit) Kind() MessageKind       { return KindGameQuit }
func (GameQuit) encodePayload(w *writer) {}

type GameQuitOk struct{}

func (GameQuitOk) Kind() MessageKind       { return KindGameQuitOk }
func (GameQuitOk) encodePayload(w *writer) {}

type GameQuitFail struct {
	Code ErrorCode
}

func (GameQuitFail) Kind() MessageKind { return KindGameQuitFail }
func (m GameQuitFail) encodePayload(w *writer) {
	w.u8(uint8(m.Code))
}

type GameQuitOther struct{}

func (GameQuitOther) Kind() MessageKind       { return KindGameQuitOther }
func (GameQuitOther) encodePayload(w *writer) {}
