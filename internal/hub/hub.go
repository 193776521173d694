package hub

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"go.uber.org/zap"

	"refleks/internal/room"
)

type HubMsg interface{ isHubMsg() }

type Created struct {
	Code string
	Room *room.Room
}

type CreateRoom struct {
	Reply chan Created
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

type RemoveRoom struct {
	Code string
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

// Hub is the process-wide room registry. Rooms are created with a code that
// is checked for uniqueness against the registry before commit, and they
// remove themselves when their last connection leaves.
type Hub struct {
	inbox     chan HubMsg
	rooms     map[string]*room.Room
	matchWait time.Duration
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewHub(parent context.Context, matchWait time.Duration, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		inbox:     make(chan HubMsg, 64),
		rooms:     make(map[string]*room.Room),
		matchWait: matchWait,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				code := h.newCode()
				rm := room.New(h.ctx, room.Config{
					Code:      code,
					MatchWait: h.matchWait,
					Logger:    h.log,
					OnEmpty:   h.removeLater,
				})
				h.rooms[code] = rm
				h.log.Info("room created", zap.String("room", code))
				msg.Reply <- Created{Code: code, Room: rm}

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // may be nil

			case RemoveRoom:
				if _, ok := h.rooms[msg.Code]; ok {
					delete(h.rooms, msg.Code)
					h.log.Info("room removed", zap.String("room", msg.Code))
				}

			case ShutdownHub:
				for _, rm := range h.rooms {
					rm.Inbox() <- room.Shutdown{}
				}
				clear(h.rooms)
				h.cancel()
			}
		}
	}
}

// removeLater is handed to rooms; they call it from their own goroutine when
// the last connection leaves.
func (h *Hub) removeLater(code string) {
	select {
	case h.inbox <- RemoveRoom{Code: code}:
	case <-h.ctx.Done():
	}
}

const codeCharset = "0123456789abcdefghijklmnopqrstuvwxyz"
const codeLength = 5

// newCode generates a short room token, retrying until it is unused in the
// registry. Runs inside the hub loop, so the check-then-commit is atomic.
func (h *Hub) newCode() string {
	for {
		code := make([]byte, codeLength)
		for i := range code {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
			if err != nil {
				panic(err)
			}
			code[i] = codeCharset[n.Int64()]
		}
		if _, taken := h.rooms[string(code)]; !taken {
			return string(code)
		}
	}
}
