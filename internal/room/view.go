package room

import (
	"refleks/internal/engine"
	"refleks/pkg/types"
)

// Payload builders. Everything that leaves the room goes through these so
// hand contents never reach the wire: other players only ever see counts.

func (r *Room) playerSummaries() []types.PlayerSummary {
	out := make([]types.PlayerSummary, 0, len(r.state.Players))
	for _, p := range r.state.Players {
		_, connected := r.clients[p.ID]
		out = append(out, types.PlayerSummary{
			ID:        p.ID,
			Username:  p.Username,
			CardCount: len(p.Hand),
			Connected: connected,
		})
	}
	return out
}

func (r *Room) playedCards() []engine.Kind {
	out := make([]engine.Kind, len(r.state.PlayedCards))
	copy(out, r.state.PlayedCards)
	return out
}

func (r *Room) playerRef(id string) *types.PlayerRef {
	p, ok := r.state.Player(id)
	if !ok {
		return nil
	}
	return &types.PlayerRef{ID: p.ID, Username: p.Username}
}

func (r *Room) roomSnapshot() types.RoomSnapshot {
	return types.RoomSnapshot{
		RoomID:      r.state.RoomID,
		Players:     r.playerSummaries(),
		GameStarted: r.state.GameStarted,
	}
}

func (r *Room) gameStartedFor(recipientID string) types.GameStartedPayload {
	my := 0
	if p, ok := r.state.Player(recipientID); ok {
		my = len(p.Hand)
	}
	return types.GameStartedPayload{
		RoomID:      r.state.RoomID,
		Turn:        r.state.Turn,
		Players:     r.playerSummaries(),
		MyCardCount: my,
	}
}

func (r *Room) gameStatePayload(play *engine.PlayRecord) types.GameStatePayload {
	return types.GameStatePayload{
		Turn:        r.state.Turn,
		PlayedCards: r.playedCards(),
		LastPlayed: types.LastPlayed{
			PlayerID: play.PlayerID,
			Username: play.Username,
			Guess:    play.Guess,
			Card:     play.Card,
		},
		Players: r.playerSummaries(),
		IsMatch: play.IsMatch,
	}
}

func (r *Room) matchResultPayload(res *engine.MatchResult) types.MatchResultPayload {
	loser := types.PlayerRef{ID: res.LoserID}
	if ref := r.playerRef(res.LoserID); ref != nil {
		loser = *ref
	}
	payload := types.MatchResultPayload{
		Loser:           loser,
		CardsTakenCount: res.CardsTaken,
		Turn:            r.state.Turn,
		PlayedCards:     r.playedCards(),
		Players:         r.playerSummaries(),
	}
	if res.FastestID != "" {
		payload.Fastest = r.playerRef(res.FastestID)
	}
	if res.WinnerID != "" {
		payload.GameWinner = r.playerRef(res.WinnerID)
	}
	return payload
}
