package room

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"refleks/internal/engine"
	"refleks/pkg/types"
)

type Msg interface{ isRoomMsg() }

// Join registers a connection and seats it in the roster. Reply carries
// engine.ErrRoomFull when the room already has four players.
type Join struct {
	ClientID string
	Outbox   chan types.ServerMessage
	Reply    chan error
}

func (Join) isRoomMsg() {}

// Leave drops a connection. The roster entry stays; only presence changes.
type Leave struct{ ClientID string }

func (Leave) isRoomMsg() {}

type FromClient struct {
	ClientID string
	Cmd      engine.Command
}

func (FromClient) isRoomMsg() {}

type GetState struct{ Reply chan View }

func (GetState) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

// matchTimeout is posted by the match timer. gen guards against fires from
// a race that has already been resolved or superseded.
type matchTimeout struct{ gen uint64 }

func (matchTimeout) isRoomMsg() {}

// View reflects internal state for tests without data races.
type View struct {
	State      engine.State
	NumClients int
}

type Config struct {
	Code      string
	MatchWait time.Duration
	Rng       *rand.Rand
	Logger    *zap.Logger
	OnEmpty   func(code string)
}

// Room is a per-session actor. All state is owned by the loop goroutine;
// the only way in is the inbox.
type Room struct {
	inbox      chan Msg
	state      engine.State
	clients    map[string]chan types.ServerMessage
	rng        *rand.Rand
	matchWait  time.Duration
	timer      *time.Timer
	timerGen   uint64
	everJoined bool
	log        *zap.Logger
	onEmpty    func(code string)
	ctx        context.Context
	cancel     context.CancelFunc
}

func New(parent context.Context, cfg Config) *Room {
	ctx, cancel := context.WithCancel(parent)
	rng := cfg.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	r := &Room{
		inbox:     make(chan Msg, 64),
		state:     engine.NewState(cfg.Code),
		clients:   make(map[string]chan types.ServerMessage),
		rng:       rng,
		matchWait: cfg.MatchWait,
		log:       log.With(zap.String("room", cfg.Code)),
		onEmpty:   cfg.OnEmpty,
		ctx:       ctx,
		cancel:    cancel,
	}
	if r.matchWait <= 0 {
		r.matchWait = 5 * time.Second
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)

			case Leave:
				r.handleLeave(msg.ClientID)

			case FromClient:
				cmd := msg.Cmd
				cmd.PlayerID = msg.ClientID
				r.apply(cmd)

			case matchTimeout:
				if msg.gen != r.timerGen {
					break // stale fire from a superseded race
				}
				r.apply(engine.Command{Type: engine.CmdResolveMatch})

			case GetState:
				msg.Reply <- View{State: r.state, NumClients: len(r.clients)}

			case Shutdown:
				r.shutdown()
				return
			}

			// Once everyone is gone the room reclaims itself, whether the
			// last client left cleanly or was dropped as slow.
			if r.everJoined && len(r.clients) == 0 {
				r.log.Info("room empty, removing")
				if r.onEmpty != nil {
					r.onEmpty(r.state.RoomID)
				}
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(msg Join) {
	cmd := engine.Command{Type: engine.CmdJoin, PlayerID: msg.ClientID}
	events, newState, err := engine.Apply(r.state, cmd, r.rng)
	if err != nil {
		msg.Reply <- err
		return
	}
	r.state = newState
	r.clients[msg.ClientID] = msg.Outbox
	r.everJoined = true
	msg.Reply <- nil
	r.emit(events)
}

func (r *Room) handleLeave(clientID string) {
	if _, ok := r.clients[clientID]; !ok {
		return
	}
	delete(r.clients, clientID)
	// Roster is untouched on disconnect; broadcast so remaining players
	// see the connected flag flip.
	r.broadcast(types.ServerMessage{Type: types.MsgUpdateRoom, Payload: r.roomSnapshot()})
}

// apply runs a fire-and-forget command. Illegal commands fail silently:
// no error event, no state change.
func (r *Room) apply(cmd engine.Command) {
	events, newState, err := engine.Apply(r.state, cmd, r.rng)
	if err != nil {
		return
	}
	r.state = newState
	r.emit(events)
}

func (r *Room) emit(events []engine.Event) {
	for _, ev := range events {
		switch ev.Type {
		case engine.EvtRoomUpdated:
			r.broadcast(types.ServerMessage{Type: types.MsgUpdateRoom, Payload: r.roomSnapshot()})

		case engine.EvtGameStarted:
			// A restart wipes any pending race with the old deal.
			r.stopMatchTimer()
			for id, ch := range r.clients {
				r.send(id, ch, types.ServerMessage{Type: types.MsgGameStarted, Payload: r.gameStartedFor(id)})
			}

		case engine.EvtTurnPlayed:
			r.broadcast(types.ServerMessage{Type: types.MsgUpdateGameState, Payload: r.gameStatePayload(ev.Play)})

		case engine.EvtMatchOccurred:
			r.broadcast(types.ServerMessage{Type: types.MsgMatchOccurred})
			r.armMatchTimer()

		case engine.EvtMatchResolved:
			r.stopMatchTimer()
			r.log.Info("match resolved",
				zap.String("loser", ev.Result.LoserID),
				zap.String("fastest", ev.Result.FastestID),
				zap.Int("cardsTaken", ev.Result.CardsTaken))
			r.broadcast(types.ServerMessage{Type: types.MsgMatchResult, Payload: r.matchResultPayload(ev.Result)})
		}
	}
}

func (r *Room) armMatchTimer() {
	r.stopMatchTimer()
	r.timerGen++
	gen := r.timerGen
	r.timer = time.AfterFunc(r.matchWait, func() {
		select {
		case r.inbox <- matchTimeout{gen: gen}:
		case <-r.ctx.Done():
		}
	})
}

func (r *Room) stopMatchTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.timerGen++
}

func (r *Room) broadcast(msg types.ServerMessage) {
	for id, ch := range r.clients {
		r.send(id, ch, msg)
	}
}

func (r *Room) send(id string, ch chan types.ServerMessage, msg types.ServerMessage) {
	select {
	case ch <- msg:
	default:
		// Slow or dead client: drop it rather than stall the room.
		// The ws layer owns the channel and will clean up on disconnect.
		delete(r.clients, id)
	}
}

func (r *Room) shutdown() {
	r.stopMatchTimer()
	clear(r.clients)
	r.cancel()
}
