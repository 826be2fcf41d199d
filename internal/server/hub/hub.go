// Package hub relays room-scoped realtime frames between websocket
// connections. Rooms map one-to-one to notes; membership doubles as
// presence. The hub never touches storage: clients publish only
// changes the server already accepted over REST, so every frame is a
// notification, not a write path.
package hub

import (
	"context"
	"log/slog"
	"time"

	"github.com/scriba-app/scriba/pkg/api"
)

// DefaultHeartbeatTimeout is how long a member may stay silent before
// the sweep evicts it. Clients publish presence every 20 seconds, so a
// healthy member never comes near it.
const DefaultHeartbeatTimeout = 60 * time.Second

// member is one connection's presence inside a room.
type member struct {
	lastHeartbeat time.Time
	status        string
	conn          *conn
}

// room groups the live members of one note.
type room struct {
	members map[string]*member // conn ID -> member
}

// inboundFrame pairs a decoded frame with the connection it came from.
type inboundFrame struct {
	conn *conn
	msg  *api.Message
}

// Hub owns all room and membership state from a single goroutine.
// Connections talk to it exclusively over channels, so membership
// changes are serialized and every user-left broadcast happens exactly
// once, no matter whether the member left, disconnected or timed out.
type Hub struct {
	logger *slog.Logger

	rooms map[string]*room // note ID -> room
	conns map[string]*conn // conn ID -> connection

	registerC   chan *conn
	unregisterC chan *conn
	framesC     chan inboundFrame

	heartbeatTimeout time.Duration
	done             chan struct{}
}

// New creates a hub that evicts members silent for heartbeatTimeout.
func New(logger *slog.Logger, heartbeatTimeout time.Duration) *Hub {
	if heartbeatTimeout <= 0 {
		heartbeatTimeout = DefaultHeartbeatTimeout
	}
	return &Hub{
		logger:           logger,
		rooms:            make(map[string]*room),
		conns:            make(map[string]*conn),
		registerC:        make(chan *conn),
		unregisterC:      make(chan *conn),
		framesC:          make(chan inboundFrame),
		heartbeatTimeout: heartbeatTimeout,
		done:             make(chan struct{}),
	}
}

// Run processes hub events until ctx ends. Exactly one Run per hub;
// all state below is touched only from this goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	sweep := time.NewTicker(h.heartbeatTimeout / 4)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.registerC:
			h.conns[c.id] = c
			h.logger.Debug("realtime connection registered",
				"conn_id", c.id,
				"user_id", c.userID,
			)
		case c := <-h.unregisterC:
			h.dropConn(c, "connection closed")
		case f := <-h.framesC:
			h.handleFrame(f.conn, f.msg)
		case <-sweep.C:
			h.evictSilent()
		}
	}
}

func (h *Hub) handleFrame(c *conn, msg *api.Message) {
	h.refreshHeartbeats(c)

	switch msg.Type {
	case api.MessageJoinRoom:
		h.joinRoom(c, msg.Room)
	case api.MessageLeaveRoom:
		h.leaveRoom(c, msg.Room)
	case api.MessageEntityUpdate:
		h.relayUpdate(c, msg)
	case api.MessagePresence:
		h.relayPresence(c, msg)
	default:
		h.logger.Debug("ignoring realtime frame",
			"type", string(msg.Type),
			"conn_id", c.id,
		)
	}
}

// refreshHeartbeats marks the connection alive in every room it
// joined. Liveness is a property of the connection, so any inbound
// frame counts, not just presence.
func (h *Hub) refreshHeartbeats(c *conn) {
	now := time.Now()
	for roomID := range c.rooms {
		rm, ok := h.rooms[roomID]
		if !ok {
			continue
		}
		if m, ok := rm.members[c.id]; ok {
			m.lastHeartbeat = now
		}
	}
}

func (h *Hub) joinRoom(c *conn, roomID string) {
	if roomID == "" {
		return
	}

	rm, ok := h.rooms[roomID]
	if !ok {
		rm = &room{members: make(map[string]*member)}
		h.rooms[roomID] = rm
	}

	if m, ok := rm.members[c.id]; ok {
		// Repeated join, typically a client retry after reconnect
		// raced the old membership: refresh and re-send the room state
		// without announcing the member a second time.
		m.lastHeartbeat = time.Now()
		h.send(c, h.presenceState(roomID, rm))
		return
	}

	rm.members[c.id] = &member{
		lastHeartbeat: time.Now(),
		status:        api.PresenceActive,
		conn:          c,
	}
	c.rooms[roomID] = struct{}{}

	h.broadcast(rm, c.id, &api.Message{
		Type:     api.MessageUserJoined,
		Room:     roomID,
		UserID:   c.userID,
		Username: c.username,
		ConnID:   c.id,
	})
	h.send(c, h.presenceState(roomID, rm))

	h.logger.Debug("user joined room",
		"room", roomID,
		"user_id", c.userID,
		"conn_id", c.id,
		"members", len(rm.members),
	)
}

// presenceState builds the full member list of a room, sent to a
// joiner so it starts with the same picture everyone else has.
func (h *Hub) presenceState(roomID string, rm *room) *api.Message {
	members := make([]api.PresenceMember, 0, len(rm.members))
	for id, m := range rm.members {
		members = append(members, api.PresenceMember{
			ConnID:   id,
			UserID:   m.conn.userID,
			Username: m.conn.username,
			Status:   m.status,
		})
	}
	return &api.Message{
		Type:    api.MessagePresenceState,
		Room:    roomID,
		Members: members,
	}
}

func (h *Hub) leaveRoom(c *conn, roomID string) {
	rm, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := rm.members[c.id]; !ok {
		return
	}
	h.removeMember(rm, roomID, c)
}

// removeMember deletes the membership and announces the departure.
// Every removal path funnels through here on the Run goroutine, which
// is what makes the user-left broadcast exactly-once.
func (h *Hub) removeMember(rm *room, roomID string, c *conn) {
	delete(rm.members, c.id)
	delete(c.rooms, roomID)

	if len(rm.members) == 0 {
		delete(h.rooms, roomID)
		return
	}

	h.broadcast(rm, "", &api.Message{
		Type:     api.MessageUserLeft,
		Room:     roomID,
		UserID:   c.userID,
		Username: c.username,
		ConnID:   c.id,
	})
}

// relayUpdate fans a confirmed note change out to the other members.
func (h *Hub) relayUpdate(c *conn, msg *api.Message) {
	rm, ok := h.rooms[msg.Room]
	if !ok {
		return
	}
	if _, ok := rm.members[c.id]; !ok {
		h.logger.Debug("update from non-member dropped",
			"room", msg.Room,
			"conn_id", c.id,
		)
		return
	}
	if msg.Changes == nil {
		h.logger.Debug("entity-update without changes dropped",
			"room", msg.Room,
			"conn_id", c.id,
		)
		return
	}

	h.broadcast(rm, c.id, &api.Message{
		Type:     api.MessageEntityUpdated,
		Room:     msg.Room,
		Changes:  msg.Changes,
		Version:  msg.Version,
		UserID:   c.userID,
		Username: c.username,
		ConnID:   c.id,
	})
}

// relayPresence records the member's status and fans it out when it
// changed. An unchanged status is just the heartbeat; rebroadcasting
// it every interval would be noise, the join-time presence-state
// already told everyone.
func (h *Hub) relayPresence(c *conn, msg *api.Message) {
	rm, ok := h.rooms[msg.Room]
	if !ok {
		return
	}
	m, ok := rm.members[c.id]
	if !ok {
		return
	}

	status := msg.Status
	if status == "" {
		status = api.PresenceActive
	}
	if m.status == status {
		return
	}
	m.status = status

	h.broadcast(rm, c.id, &api.Message{
		Type:     api.MessagePresenceUpdate,
		Room:     msg.Room,
		UserID:   c.userID,
		Username: c.username,
		ConnID:   c.id,
		Status:   status,
	})
}

// evictSilent removes members whose connection went quiet past the
// timeout.
func (h *Hub) evictSilent() {
	cutoff := time.Now().Add(-h.heartbeatTimeout)
	for roomID, rm := range h.rooms {
		for _, m := range rm.members {
			if m.lastHeartbeat.Before(cutoff) {
				h.logger.Info("evicting silent room member",
					"room", roomID,
					"user_id", m.conn.userID,
					"conn_id", m.conn.id,
				)
				h.removeMember(rm, roomID, m.conn)
			}
		}
	}
}

// dropConn removes the connection from every room and stops its write
// pump. Safe to call twice: the second call finds nothing to remove.
func (h *Hub) dropConn(c *conn, reason string) {
	if _, ok := h.conns[c.id]; !ok {
		return
	}
	delete(h.conns, c.id)

	for roomID := range c.rooms {
		if rm, ok := h.rooms[roomID]; ok {
			h.removeMember(rm, roomID, c)
		}
	}

	close(c.send)
	h.logger.Debug("realtime connection dropped",
		"conn_id", c.id,
		"user_id", c.userID,
		"reason", reason,
	)
}

// broadcast encodes once and queues the frame to every member except
// skipConnID. A member whose send buffer is full is dropped rather
// than allowed to stall the hub.
func (h *Hub) broadcast(rm *room, skipConnID string, msg *api.Message) {
	msg.Timestamp = time.Now().UnixNano()

	data, err := api.EncodeMessage(msg)
	if err != nil {
		h.logger.Error("failed to encode realtime frame",
			"type", string(msg.Type),
			"error", err,
		)
		return
	}

	for id, m := range rm.members {
		if id == skipConnID {
			continue
		}
		select {
		case m.conn.send <- data:
		default:
			h.logger.Warn("dropping slow realtime consumer",
				"conn_id", id,
				"user_id", m.conn.userID,
			)
			h.dropConn(m.conn, "send buffer full")
		}
	}
}

// send queues a frame to a single connection.
func (h *Hub) send(c *conn, msg *api.Message) {
	msg.Timestamp = time.Now().UnixNano()

	data, err := api.EncodeMessage(msg)
	if err != nil {
		h.logger.Error("failed to encode realtime frame",
			"type", string(msg.Type),
			"error", err,
		)
		return
	}

	select {
	case c.send <- data:
	default:
		h.logger.Warn("dropping slow realtime consumer",
			"conn_id", c.id,
			"user_id", c.userID,
		)
		h.dropConn(c, "send buffer full")
	}
}

// shutdown closes every connection. Presence is not persisted; clients
// reconnect and re-join once an instance is back up.
func (h *Hub) shutdown() {
	for _, c := range h.conns {
		close(c.send)
	}
	h.rooms = make(map[string]*room)
	h.conns = make(map[string]*conn)
}
