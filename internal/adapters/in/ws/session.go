package ws

import (
	"encoding/json"
	"sync"
	"time"

	"turbodelivery/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 8 << 10
	sendBuffer     = 64
)

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// session is one websocket connection. Reads happen on the goroutine serving the upgrade
// request; writes on a dedicated goroutine fed by the send queue.
type session struct {
	id    string
	actor kernel.Actor
	conn  *websocket.Conn
	send  chan []byte
	done  chan struct{}
	once  sync.Once

	// rooms is guarded by Hub.mu.
	rooms map[string]struct{}
}

func newSession(actor kernel.Actor, conn *websocket.Conn) *session {
	return &session{
		id:    uuid.NewString(),
		actor: actor,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
		rooms: make(map[string]struct{}),
	}
}

// enqueue reports false if the session is closed or could not keep up, in which case it
// is closed.
func (s *session) enqueue(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.send <- frame:
		return true
	default:
		s.close()
		return false
	}
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case frame := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump calls handle for every frame until the connection fails or is closed.
func (s *session) readPump(handle func(inboundFrame)) {
	defer s.close()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))

		var frame inboundFrame
		if err := json.Unmarshal(message, &frame); err != nil || frame.Event == "" {
			s.reply(eventError, errorPayload{Message: "frames must be {\"event\": ..., \"data\": ...}", Code: "bad_frame"})
			continue
		}
		handle(frame)
	}
}

// reply sends a frame to this session only.
func (s *session) reply(event string, payload any) {
	frame, err := json.Marshal(outboundFrame{Event: event, Data: payload})
	if err != nil {
		return
	}
	s.enqueue(frame)
}
