// Package ws is the realtime edge: couriers, customers and admins hold one websocket each
// (or several) and exchange {event, data} frames with the dispatch core.
//
// The Hub is the local ports.Notifier. Every session joins its user's personal room on
// connect; admins join the admin room on request. With several instances the core talks to
// the rabbitmq bus instead, which fans frames out to the Hub of every instance.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/ports"
)

var _ ports.Notifier = (*Hub)(nil)

type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type Hub struct {
	logger *slog.Logger

	mu     sync.RWMutex
	rooms  map[string]map[*session]struct{}
	closed bool
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "ws_hub"),
		rooms:  make(map[string]map[*session]struct{}),
	}
}

func (h *Hub) EmitToUser(ctx context.Context, userID kernel.UUID, event string, payload any) error {
	return h.EmitToRoom(ctx, ports.UserRoom(userID), event, payload)
}

// EmitToRoom queues the frame on every session in the room. Sessions whose queue is full
// are dropped.
func (h *Hub) EmitToRoom(ctx context.Context, room string, event string, payload any) error {
	frame, err := json.Marshal(outboundFrame{Event: event, Data: payload})
	if err != nil {
		return err
	}

	h.mu.RLock()
	targets := make([]*session, 0, len(h.rooms[room]))
	for s := range h.rooms[room] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if !s.enqueue(frame) {
			h.logger.WarnContext(ctx, "dropping slow session", "userId", s.actor.ID().String(), "event", event)
		}
	}
	return nil
}

// RoomSize counts the sessions in the room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Close ends every session.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*session
	for _, members := range h.rooms {
		for s := range members {
			all = append(all, s)
		}
	}
	clear(h.rooms)
	h.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}

func (h *Hub) join(room string, s *session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*session]struct{})
	}
	h.rooms[room][s] = struct{}{}
	s.rooms[room] = struct{}{}
	return true
}

// leave removes the session from all of its rooms and returns how many sessions its user
// still has.
func (h *Hub) leave(s *session) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range s.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, s)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	clear(s.rooms)
	return len(h.rooms[ports.UserRoom(s.actor.ID())])
}
