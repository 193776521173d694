package engine

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testRng() *rand.Rand { return rand.New(rand.NewSource(7)) }

func mustApply(t *testing.T, s State, cmd Command, rng *rand.Rand) ([]Event, State) {
	t.Helper()
	events, next, err := Apply(s, cmd, rng)
	require.NoError(t, err)
	return events, next
}

func joinedRoom(t *testing.T, rng *rand.Rand, ids ...string) State {
	t.Helper()
	s := NewState("r1")
	for _, id := range ids {
		_, s = mustApply(t, s, Command{Type: CmdJoin, PlayerID: id}, rng)
	}
	return s
}

// gameState builds an in-play state with hand-picked hands, so tests can
// force or avoid matches deterministically.
func gameState(players ...Player) State {
	return State{
		RoomID:      "r1",
		Players:     players,
		GameStarted: true,
		Turn:        players[0].ID,
	}
}

func TestJoin_AppendsInOrderWithDefaultUsername(t *testing.T) {
	rng := testRng()
	s := joinedRoom(t, rng, "p1", "p2")

	require.Len(t, s.Players, 2)
	require.Equal(t, "p1", s.Players[0].ID)
	require.Equal(t, "p2", s.Players[1].ID)
	require.NotEmpty(t, s.Players[0].Username)
	require.NotEmpty(t, s.Players[1].Username)
}

func TestJoin_FifthPlayerRejected(t *testing.T) {
	rng := testRng()
	s := joinedRoom(t, rng, "p1", "p2", "p3", "p4")

	_, next, err := Apply(s, Command{Type: CmdJoin, PlayerID: "p5"}, rng)
	require.ErrorIs(t, err, ErrRoomFull)
	require.Equal(t, s, next)
}

func TestSetUsername_TrimsAndBroadcasts(t *testing.T) {
	rng := testRng()
	s := joinedRoom(t, rng, "p1")

	events, next := mustApply(t, s, Command{Type: CmdSetUsername, PlayerID: "p1", Username: "  Al "}, rng)
	require.Equal(t, "Al", next.Players[0].Username)
	require.Len(t, events, 1)
	require.Equal(t, EvtRoomUpdated, events[0].Type)
}

func TestSetUsername_RejectsTooShort(t *testing.T) {
	rng := testRng()
	s := joinedRoom(t, rng, "p1")

	_, next, err := Apply(s, Command{Type: CmdSetUsername, PlayerID: "p1", Username: " A "}, rng)
	require.ErrorIs(t, err, ErrUsernameTooShort)
	require.Equal(t, s, next)
}

func TestSetUsername_TruncatesToFifteen(t *testing.T) {
	rng := testRng()
	s := joinedRoom(t, rng, "p1")

	long := strings.Repeat("x", 20)
	_, next := mustApply(t, s, Command{Type: CmdSetUsername, PlayerID: "p1", Username: long}, rng)
	require.Equal(t, strings.Repeat("x", 15), next.Players[0].Username)
}

func TestStartGame_NonOwnerIgnored(t *testing.T) {
	rng := testRng()
	s := joinedRoom(t, rng, "p1", "p2")

	_, next, err := Apply(s, Command{Type: CmdStartGame, PlayerID: "p2"}, rng)
	require.ErrorIs(t, err, ErrNotOwner)
	require.Equal(t, s, next)
}

func TestStartGame_DealsEightEachTurnToOwner(t *testing.T) {
	rng := testRng()
	s := joinedRoom(t, rng, "p1", "p2")

	events, next := mustApply(t, s, Command{Type: CmdStartGame, PlayerID: "p1"}, rng)
	require.Len(t, events, 1)
	require.Equal(t, EvtGameStarted, events[0].Type)

	require.True(t, next.GameStarted)
	require.Equal(t, "p1", next.Turn)
	require.Empty(t, next.PlayedCards)
	require.False(t, next.Match.Active)
	for _, p := range next.Players {
		require.Len(t, p.Hand, CardsPerPlayer)
	}
}

func TestPlayCard_AdvancesTurnRoundRobin(t *testing.T) {
	s := gameState(
		Player{ID: "p1", Username: "a", Hand: []Kind{KindPide, KindKebap}},
		Player{ID: "p2", Username: "b", Hand: []Kind{KindInek}},
		Player{ID: "p3", Username: "c", Hand: []Kind{KindEsek}},
	)

	events, next := mustApply(t, s, Command{Type: CmdPlayCard, PlayerID: "p1", CardIndex: 0, Guess: KindDoner}, testRng())
	require.Equal(t, "p2", next.Turn)
	require.Equal(t, []Kind{KindPide}, next.PlayedCards)
	require.Equal(t, []Kind{KindKebap}, next.Players[0].Hand)

	require.Len(t, events, 1)
	play := events[0].Play
	require.Equal(t, EvtTurnPlayed, events[0].Type)
	require.Equal(t, KindPide, play.Card)
	require.Equal(t, KindDoner, play.Guess)
	require.False(t, play.IsMatch)
	require.False(t, next.Match.Active)
}

func TestPlayCard_WrapsAroundFromLastSeat(t *testing.T) {
	s := gameState(
		Player{ID: "p1", Username: "a", Hand: []Kind{KindPide}},
		Player{ID: "p2", Username: "b", Hand: []Kind{KindInek}},
		Player{ID: "p3", Username: "c", Hand: []Kind{KindEsek, KindDoner}},
	)
	s.Turn = "p3"

	_, next := mustApply(t, s, Command{Type: CmdPlayCard, PlayerID: "p3", CardIndex: 1, Guess: KindPide}, testRng())
	require.Equal(t, "p1", next.Turn)
	require.Equal(t, []Kind{KindDoner}, next.PlayedCards)
}

func TestPlayCard_WrongTurnNeverMutates(t *testing.T) {
	s := gameState(
		Player{ID: "p1", Username: "a", Hand: []Kind{KindPide}},
		Player{ID: "p2", Username: "b", Hand: []Kind{KindInek}},
	)

	_, next, err := Apply(s, Command{Type: CmdPlayCard, PlayerID: "p2", CardIndex: 0, Guess: KindInek}, testRng())
	require.ErrorIs(t, err, ErrWrongTurn)
	require.Equal(t, s, next)
}

func TestPlayCard_BadIndexIgnored(t *testing.T) {
	s := gameState(Player{ID: "p1", Username: "a", Hand: []Kind{KindPide}})

	for _, idx := range []int{-1, 1, 5} {
		_, next, err := Apply(s, Command{Type: CmdPlayCard, PlayerID: "p1", CardIndex: idx, Guess: KindPide}, testRng())
		require.ErrorIs(t, err, ErrBadCardIndex)
		require.Equal(t, s, next)
	}
}

func TestPlayCard_BeforeStartIgnored(t *testing.T) {
	rng := testRng()
	s := joinedRoom(t, rng, "p1", "p2")

	_, next, err := Apply(s, Command{Type: CmdPlayCard, PlayerID: "p1", CardIndex: 0, Guess: KindPide}, rng)
	require.ErrorIs(t, err, ErrNotStarted)
	require.Equal(t, s, next)
}

func TestPlayCard_MatchOpensRace(t *testing.T) {
	s := gameState(
		Player{ID: "p1", Username: "a", Hand: []Kind{KindPide, KindKebap}},
		Player{ID: "p2", Username: "b", Hand: []Kind{KindInek}},
	)

	events, next := mustApply(t, s, Command{Type: CmdPlayCard, PlayerID: "p1", CardIndex: 0, Guess: KindPide}, testRng())
	require.Len(t, events, 2)
	require.Equal(t, EvtTurnPlayed, events[0].Type)
	require.True(t, events[0].Play.IsMatch)
	require.Equal(t, EvtMatchOccurred, events[1].Type)

	require.True(t, next.Match.Active)
	require.Empty(t, next.Match.Responded)

	// Ordinary plays are frozen while the race is open.
	_, frozen, err := Apply(next, Command{Type: CmdPlayCard, PlayerID: "p2", CardIndex: 0, Guess: KindInek}, testRng())
	require.ErrorIs(t, err, ErrMatchPending)
	require.Equal(t, next, frozen)
}

func raceState() State {
	s := gameState(
		Player{ID: "p1", Username: "a", Hand: []Kind{KindKebap}},
		Player{ID: "p2", Username: "b", Hand: []Kind{KindInek}},
		Player{ID: "p3", Username: "c", Hand: []Kind{KindEsek}},
	)
	s.Turn = "p2"
	s.PlayedCards = []Kind{KindPide}
	s.Match = MatchState{Active: true, Responded: []string{}}
	return s
}

func TestReact_RecordsArrivalOrderOnce(t *testing.T) {
	rng := testRng()
	s := raceState()

	_, s = mustApply(t, s, Command{Type: CmdReact, PlayerID: "p2"}, rng)
	require.Equal(t, []string{"p2"}, s.Match.Responded)

	_, next, err := Apply(s, Command{Type: CmdReact, PlayerID: "p2"}, rng)
	require.ErrorIs(t, err, ErrAlreadyReacted)
	require.Equal(t, s, next)
}

func TestReact_StrangerIgnored(t *testing.T) {
	s := raceState()
	_, next, err := Apply(s, Command{Type: CmdReact, PlayerID: "ghost"}, testRng())
	require.ErrorIs(t, err, ErrUnknownPlayer)
	require.Equal(t, s, next)
}

func TestResolve_FirstNonResponderLoses(t *testing.T) {
	rng := testRng()
	s := raceState()
	_, s = mustApply(t, s, Command{Type: CmdReact, PlayerID: "p2"}, rng)
	_, s = mustApply(t, s, Command{Type: CmdReact, PlayerID: "p1"}, rng)

	// p3 never reacted; the timer fires.
	events, next := mustApply(t, s, Command{Type: CmdResolveMatch}, rng)
	require.Len(t, events, 1)
	res := events[0].Result
	require.Equal(t, EvtMatchResolved, events[0].Type)
	require.Equal(t, "p3", res.LoserID)
	require.Equal(t, "p2", res.FastestID)
	require.Equal(t, 1, res.CardsTaken)
	require.Empty(t, res.WinnerID)

	require.Equal(t, []Kind{KindEsek, KindPide}, next.Players[2].Hand)
	require.Empty(t, next.PlayedCards)
	require.Equal(t, "p3", next.Turn)
	require.False(t, next.Match.Active)
}

func TestResolve_AllRespondedSlowestLoses(t *testing.T) {
	rng := testRng()
	s := raceState()
	_, s = mustApply(t, s, Command{Type: CmdReact, PlayerID: "p2"}, rng)
	_, s = mustApply(t, s, Command{Type: CmdReact, PlayerID: "p1"}, rng)

	// The last reaction completes the race without any timer.
	events, next := mustApply(t, s, Command{Type: CmdReact, PlayerID: "p3"}, rng)
	require.Len(t, events, 1)
	res := events[0].Result
	require.Equal(t, "p3", res.LoserID)
	require.Equal(t, "p2", res.FastestID)
	require.Equal(t, "p3", next.Turn)
	require.False(t, next.Match.Active)
}

func TestResolve_SecondResolutionIsNoOp(t *testing.T) {
	rng := testRng()
	s := raceState()
	_, s = mustApply(t, s, Command{Type: CmdResolveMatch}, rng)

	_, next, err := Apply(s, Command{Type: CmdResolveMatch}, rng)
	require.ErrorIs(t, err, ErrMatchNotActive)
	require.Equal(t, s, next)
}

func TestResolve_EmptyHandBecomesGameWinner(t *testing.T) {
	s := gameState(
		Player{ID: "p1", Username: "a", Hand: []Kind{}},
		Player{ID: "p2", Username: "b", Hand: []Kind{KindInek}},
	)
	s.PlayedCards = []Kind{KindPide, KindPide}
	s.Match = MatchState{Active: true, Responded: []string{"p1"}}

	events, next := mustApply(t, s, Command{Type: CmdResolveMatch}, testRng())
	res := events[0].Result
	require.Equal(t, "p2", res.LoserID)
	require.Equal(t, "p1", res.FastestID)
	require.Equal(t, "p1", res.WinnerID)
	require.Len(t, next.Players[1].Hand, 3)
}

func TestCardConservationAcrossPlayAndResolve(t *testing.T) {
	rng := testRng()
	s := joinedRoom(t, rng, "p1", "p2")
	_, s = mustApply(t, s, Command{Type: CmdStartGame, PlayerID: "p1"}, rng)

	total := func(s State) int {
		n := len(s.PlayedCards)
		for _, p := range s.Players {
			n += len(p.Hand)
		}
		return n
	}
	dealt := total(s)
	require.Equal(t, 2*CardsPerPlayer, dealt)

	// Force a match by guessing the card we know p1 holds.
	guess := s.Players[0].Hand[0]
	_, s = mustApply(t, s, Command{Type: CmdPlayCard, PlayerID: "p1", CardIndex: 0, Guess: guess}, rng)
	require.True(t, s.Match.Active)
	require.Equal(t, dealt, total(s))

	_, s = mustApply(t, s, Command{Type: CmdResolveMatch}, rng)
	require.Equal(t, dealt, total(s))
	require.Equal(t, "p1", s.Turn, "first non-responder in room order starts the next round")
}
