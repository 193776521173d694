package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"strings"
)

var ErrRoomFull = errors.New("room is full")
var ErrUnknownPlayer = errors.New("player not in room")
var ErrUsernameTooShort = errors.New("username too short")
var ErrNotOwner = errors.New("only the owner can start the game")
var ErrNotStarted = errors.New("game has not started")
var ErrWrongTurn = errors.New("invalid turn")
var ErrBadCardIndex = errors.New("card index out of range")
var ErrMatchPending = errors.New("match race in progress")
var ErrMatchNotActive = errors.New("no active match")
var ErrAlreadyReacted = errors.New("player already reacted")
var ErrUnsupportedCommand = errors.New("unsupported command")

type CommandType string

const (
	CmdJoin         CommandType = "Join"
	CmdSetUsername  CommandType = "SetUsername"
	CmdStartGame    CommandType = "StartGame"
	CmdPlayCard     CommandType = "PlayCard"
	CmdReact        CommandType = "React"
	CmdResolveMatch CommandType = "ResolveMatch"
)

// Command is one player action. PlayerID is stamped by the room from the
// sender's connection id, never trusted from the wire.
type Command struct {
	Type      CommandType
	PlayerID  string
	Username  string
	CardIndex int
	Guess     Kind
}

type EventType string

const (
	EvtRoomUpdated   EventType = "RoomUpdated"
	EvtGameStarted   EventType = "GameStarted"
	EvtTurnPlayed    EventType = "TurnPlayed"
	EvtMatchOccurred EventType = "MatchOccurred"
	EvtMatchResolved EventType = "MatchResolved"
)

// PlayRecord describes a single card play for broadcast.
type PlayRecord struct {
	PlayerID string
	Username string
	Guess    Kind
	Card     Kind
	IsMatch  bool
}

// MatchResult is the outcome of a reaction race. FastestID and WinnerID are
// empty when nobody reacted / nobody has emptied their hand.
type MatchResult struct {
	LoserID    string
	FastestID  string
	CardsTaken int
	WinnerID   string
}

type Event struct {
	Type   EventType
	Play   *PlayRecord
	Result *MatchResult
}

// Apply runs one command against the state and returns the events to
// broadcast plus the new state. On error the returned state is the input,
// untouched. rng feeds deck shuffling and default username generation.
func Apply(s State, cmd Command, rng *rand.Rand) ([]Event, State, error) {
	newState := s

	switch cmd.Type {
	case CmdJoin:
		if len(s.Players) >= MaxPlayers {
			return nil, s, ErrRoomFull
		}
		newState.Players = append(slices.Clone(s.Players), Player{
			ID:       cmd.PlayerID,
			Username: fmt.Sprintf("oyuncu-%d", rng.Intn(1000)),
		})
		return []Event{{Type: EvtRoomUpdated}}, newState, nil

	case CmdSetUsername:
		i := playerIndex(s, cmd.PlayerID)
		if i < 0 {
			return nil, s, ErrUnknownPlayer
		}
		name := sanitizeUsername(cmd.Username)
		if len([]rune(name)) < MinUsernameLen {
			return nil, s, ErrUsernameTooShort
		}
		newState.Players = slices.Clone(s.Players)
		newState.Players[i].Username = name
		return []Event{{Type: EvtRoomUpdated}}, newState, nil

	case CmdStartGame:
		if len(s.Players) == 0 || s.Players[0].ID != cmd.PlayerID {
			return nil, s, ErrNotOwner
		}
		// Deal consecutive blocks off a fresh deck, join order. The
		// remainder is discarded; there is no draw pile.
		deck := BuildDeck(rng)
		newState.Players = slices.Clone(s.Players)
		for i := range newState.Players {
			hand := make([]Kind, CardsPerPlayer)
			copy(hand, deck[i*CardsPerPlayer:(i+1)*CardsPerPlayer])
			newState.Players[i].Hand = hand
		}
		newState.GameStarted = true
		newState.Turn = newState.Players[0].ID
		newState.PlayedCards = nil
		newState.Match = MatchState{}
		return []Event{{Type: EvtGameStarted}}, newState, nil

	case CmdPlayCard:
		if !s.GameStarted {
			return nil, s, ErrNotStarted
		}
		if s.Match.Active {
			return nil, s, ErrMatchPending
		}
		if cmd.PlayerID != s.Turn {
			return nil, s, ErrWrongTurn
		}
		i := playerIndex(s, cmd.PlayerID)
		if i < 0 {
			return nil, s, ErrUnknownPlayer
		}
		p := s.Players[i]
		if cmd.CardIndex < 0 || cmd.CardIndex >= len(p.Hand) {
			return nil, s, ErrBadCardIndex
		}

		card := p.Hand[cmd.CardIndex]
		newState.Players = slices.Clone(s.Players)
		newState.Players[i].Hand = slices.Delete(slices.Clone(p.Hand), cmd.CardIndex, cmd.CardIndex+1)
		newState.PlayedCards = append(slices.Clone(s.PlayedCards), card)
		newState.Turn = s.Players[(i+1)%len(s.Players)].ID

		play := &PlayRecord{
			PlayerID: p.ID,
			Username: p.Username,
			Guess:    cmd.Guess,
			Card:     card,
			IsMatch:  card == cmd.Guess,
		}
		events := []Event{{Type: EvtTurnPlayed, Play: play}}
		if play.IsMatch {
			newState.Match = MatchState{Active: true, Responded: []string{}}
			events = append(events, Event{Type: EvtMatchOccurred})
		}
		return events, newState, nil

	case CmdReact:
		if !s.Match.Active {
			return nil, s, ErrMatchNotActive
		}
		if playerIndex(s, cmd.PlayerID) < 0 {
			return nil, s, ErrUnknownPlayer
		}
		if slices.Contains(s.Match.Responded, cmd.PlayerID) {
			return nil, s, ErrAlreadyReacted
		}
		newState.Match.Responded = append(slices.Clone(s.Match.Responded), cmd.PlayerID)
		if len(newState.Match.Responded) == len(newState.Players) {
			// Everyone reacted: resolve now instead of waiting for
			// the timer.
			return resolveMatch(newState)
		}
		return nil, newState, nil

	case CmdResolveMatch:
		// Timer-driven. The Active check makes resolution idempotent: a
		// late timer fire after an early full-response resolution is a
		// no-op.
		if !s.Match.Active {
			return nil, s, ErrMatchNotActive
		}
		return resolveMatch(newState)

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// resolveMatch picks the loser and the fastest reactor, hands the played pile
// to the loser and clears the race. Loser policy: first player in room order
// who never reacted, otherwise the slowest reactor.
func resolveMatch(s State) ([]Event, State, error) {
	responded := s.Match.Responded

	loserID := ""
	for _, p := range s.Players {
		if !slices.Contains(responded, p.ID) {
			loserID = p.ID
			break
		}
	}
	if loserID == "" && len(responded) > 0 {
		loserID = responded[len(responded)-1]
	}

	fastestID := ""
	if len(responded) > 0 {
		fastestID = responded[0]
	}

	taken := len(s.PlayedCards)
	s.Players = slices.Clone(s.Players)
	if li := playerIndex(s, loserID); li >= 0 {
		s.Players[li].Hand = append(slices.Clone(s.Players[li].Hand), s.PlayedCards...)
		s.PlayedCards = nil
		s.Turn = loserID
	}
	s.Match = MatchState{}

	winnerID := ""
	for _, p := range s.Players {
		if len(p.Hand) == 0 {
			winnerID = p.ID
			break
		}
	}

	res := &MatchResult{
		LoserID:    loserID,
		FastestID:  fastestID,
		CardsTaken: taken,
		WinnerID:   winnerID,
	}
	return []Event{{Type: EvtMatchResolved, Result: res}}, s, nil
}

func sanitizeUsername(name string) string {
	r := []rune(strings.TrimSpace(name))
	if len(r) > MaxUsernameLen {
		r = r[:MaxUsernameLen]
	}
	return string(r)
}
