package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"refleks/internal/engine"
	"refleks/internal/hub"
	"refleks/internal/room"
	"refleks/pkg/types"
)

const joinReplyWait = 5 * time.Second

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		clog := log.With(zap.String("client", clientID))
		clog.Info("client connected")
		defer clog.Info("client disconnected")

		// The outbox is owned here: rooms write to it but never close it,
		// so one connection can sit in several rooms safely.
		outbox := make(chan types.ServerMessage, 16)
		joined := make(map[string]*room.Room)
		defer func() {
			for _, rm := range joined {
				rm.Inbox() <- room.Leave{ClientID: clientID}
			}
			close(outbox)
		}()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for msg := range outbox {
				payload, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				// Clean close or not, leave handling runs in the defer.
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				send(outbox, types.ServerMessage{Type: types.MsgError, Payload: types.ErrorPayload{Error: "bad json"}})
				continue
			}

			switch cm.Type {
			case types.MsgCreateRoom:
				reply := make(chan hub.Created, 1)
				h.Inbox() <- hub.CreateRoom{Reply: reply}
				created := <-reply
				if err := join(created.Room, clientID, outbox); err != nil {
					continue // fresh room, cannot happen
				}
				joined[created.Code] = created.Room
				send(outbox, types.ServerMessage{Type: types.MsgRoomCreated, Payload: types.RoomCreatedPayload{RoomID: created.Code}})

			case types.MsgJoinRoom:
				reply := make(chan *room.Room, 1)
				h.Inbox() <- hub.GetRoom{Code: cm.RoomID, Reply: reply}
				rm := <-reply
				if rm == nil {
					send(outbox, types.ServerMessage{Type: types.MsgJoinResult, Payload: types.JoinResultPayload{Error: "room_not_found"}})
					continue
				}
				if err := join(rm, clientID, outbox); err != nil {
					code := "room_full"
					if !errors.Is(err, engine.ErrRoomFull) {
						code = "room_not_found"
					}
					send(outbox, types.ServerMessage{Type: types.MsgJoinResult, Payload: types.JoinResultPayload{Error: code}})
					continue
				}
				joined[cm.RoomID] = rm
				send(outbox, types.ServerMessage{Type: types.MsgJoinResult, Payload: types.JoinResultPayload{OK: true}})

			case types.MsgSetUsername, types.MsgStartGame, types.MsgPlayCard, types.MsgPlayerReacted:
				// Commands for rooms this connection never joined are
				// dropped silently.
				rm := joined[cm.RoomID]
				if rm == nil {
					continue
				}
				cmd, ok := toCommand(cm)
				if !ok {
					continue
				}
				rm.Inbox() <- room.FromClient{ClientID: clientID, Cmd: cmd}

			default:
				send(outbox, types.ServerMessage{Type: types.MsgError, Payload: types.ErrorPayload{Error: "unknown type"}})
			}
		}
	}
}

// join seats the connection in a room and waits for the verdict. The wait is
// bounded: a room that shut down between lookup and join never answers.
func join(rm *room.Room, clientID string, outbox chan types.ServerMessage) error {
	reply := make(chan error, 1)
	rm.Inbox() <- room.Join{ClientID: clientID, Outbox: outbox, Reply: reply}
	select {
	case err := <-reply:
		return err
	case <-time.After(joinReplyWait):
		return engine.ErrUnknownPlayer
	}
}

func toCommand(m types.ClientMessage) (engine.Command, bool) {
	switch m.Type {
	case types.MsgSetUsername:
		return engine.Command{Type: engine.CmdSetUsername, Username: m.Username}, true
	case types.MsgStartGame:
		return engine.Command{Type: engine.CmdStartGame}, true
	case types.MsgPlayCard:
		return engine.Command{Type: engine.CmdPlayCard, CardIndex: m.CardIndex, Guess: engine.Kind(m.Guess)}, true
	case types.MsgPlayerReacted:
		return engine.Command{Type: engine.CmdReact}, true
	default:
		return engine.Command{}, false
	}
}

// send never blocks the reader loop; a full outbox just drops the message.
func send(outbox chan types.ServerMessage, msg types.ServerMessage) {
	select {
	case outbox <- msg:
	default:
	}
}
