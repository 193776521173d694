package types

import "refleks/internal/engine"

// Client -> server command names.
const (
	MsgCreateRoom    = "createRoom"
	MsgJoinRoom      = "joinRoom"
	MsgSetUsername   = "setUsername"
	MsgStartGame     = "startGame"
	MsgPlayCard      = "playCard"
	MsgPlayerReacted = "playerReacted"
)

// Server -> client message names.
const (
	MsgRoomCreated     = "roomCreated"
	MsgJoinResult      = "joinResult"
	MsgUpdateRoom      = "updateRoom"
	MsgGameStarted     = "gameStarted"
	MsgUpdateGameState = "updateGameState"
	MsgMatchOccurred   = "matchOccurred"
	MsgMatchResult     = "matchResult"
	MsgError           = "error"
)

// ClientMessage is the single envelope for every client command.
type ClientMessage struct {
	Type      string `json:"type"`
	RoomID    string `json:"roomId,omitempty"`
	Username  string `json:"username,omitempty"`
	CardIndex int    `json:"cardIndex,omitempty"`
	Guess     string `json:"guessedKind,omitempty"`
}

// ServerMessage is the envelope for everything the server sends.
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// PlayerSummary is the public view of a player: counts only, never hand
// contents. Connected reflects transport liveness, not roster membership.
type PlayerSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	CardCount int    `json:"cardCount"`
	Connected bool   `json:"connected"`
}

type PlayerRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type RoomSnapshot struct {
	RoomID      string          `json:"roomId"`
	Players     []PlayerSummary `json:"players"`
	GameStarted bool            `json:"gameStarted"`
}

type RoomCreatedPayload struct {
	RoomID string `json:"roomId"`
}

type JoinResultPayload struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// GameStartedPayload is personalized: MyCardCount is the recipient's own
// hand size.
type GameStartedPayload struct {
	RoomID      string          `json:"roomId"`
	Turn        string          `json:"turn"`
	Players     []PlayerSummary `json:"players"`
	MyCardCount int             `json:"myCardCount"`
}

type LastPlayed struct {
	PlayerID string      `json:"playerId"`
	Username string      `json:"username"`
	Guess    engine.Kind `json:"guessedKind"`
	Card     engine.Kind `json:"card"`
}

type GameStatePayload struct {
	Turn        string          `json:"turn"`
	PlayedCards []engine.Kind   `json:"playedCards"`
	LastPlayed  LastPlayed      `json:"lastPlayed"`
	Players     []PlayerSummary `json:"players"`
	IsMatch     bool            `json:"isMatch"`
}

type MatchResultPayload struct {
	Loser           PlayerRef       `json:"loser"`
	Fastest         *PlayerRef      `json:"fastest"`
	CardsTakenCount int             `json:"cardsTakenCount"`
	Turn            string          `json:"turn"`
	PlayedCards     []engine.Kind   `json:"playedCards"`
	Players         []PlayerSummary `json:"players"`
	GameWinner      *PlayerRef      `json:"gameWinner"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
