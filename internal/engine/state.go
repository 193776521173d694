package engine

const (
	MaxPlayers     = 4
	CardsPerPlayer = 8
	MinUsernameLen = 2
	MaxUsernameLen = 15
)

// Player is one seat in a room. ID is the transport connection id; it is
// the only identity a player has.
type Player struct {
	ID       string
	Username string
	Hand     []Kind
}

// MatchState exists only while a reaction race is in progress. Responded
// records player ids in arrival order.
type MatchState struct {
	Active    bool
	Responded []string
}

// State is the full mutable state of one room. Players are in join order;
// index 0 is the owner. Turn holds the id of the player whose move is next.
type State struct {
	RoomID      string
	Players     []Player
	GameStarted bool
	Turn        string
	PlayedCards []Kind
	Match       MatchState
}

func NewState(roomID string) State {
	return State{RoomID: roomID}
}

// Player returns the roster entry for id.
func (s State) Player(id string) (Player, bool) {
	if i := playerIndex(s, id); i >= 0 {
		return s.Players[i], true
	}
	return Player{}, false
}

func playerIndex(s State, id string) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}
