package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"

	"github.com/scriba-app/scriba/internal/models"
	"github.com/scriba-app/scriba/pkg/api"
)

//go:generate moq -out channel_mock.go . Channel

const (
	realtimePath = "/api/v1/ws"

	// handshakeTimeout bounds the websocket dial.
	handshakeTimeout = 10 * time.Second

	// writeWait bounds a single frame write; a peer that cannot accept a
	// frame within it counts as gone.
	writeWait = 10 * time.Second

	// heartbeatInterval paces the presence frames that keep room
	// membership alive on the server. It must stay well under the
	// server's liveness timeout.
	heartbeatInterval = 20 * time.Second

	reconnectBaseDelay = 1 * time.Second
	reconnectCapDelay  = 30 * time.Second

	// eventBufferSize bounds each subscriber channel. A slow consumer
	// loses events rather than stalling the read loop; EventReconnected
	// tells consumers to re-fetch anyway.
	eventBufferSize = 64
)

// defaultDialer mirrors the gorilla default with compression on and the
// cbor subprotocol announced.
var defaultDialer = &websocket.Dialer{
	Proxy:             websocket.DefaultDialer.Proxy,
	HandshakeTimeout:  handshakeTimeout,
	EnableCompression: true,
	Subprotocols:      []string{"cbor"},
}

// EventKind discriminates events delivered to subscribers.
type EventKind string

const (
	// EventRemoteUpdate is a confirmed note change made by another
	// session in a joined room.
	EventRemoteUpdate EventKind = "remote-update"

	EventUserJoined     EventKind = "user-joined"
	EventUserLeft       EventKind = "user-left"
	EventPresenceUpdate EventKind = "presence-update"

	// EventPresenceState is the full member list of a room, sent by the
	// server right after a join.
	EventPresenceState EventKind = "presence-state"

	// EventReconnected fires after a lost connection is re-established
	// and every room re-joined. Broadcasts missed while offline are never
	// replayed; consumers must re-fetch the rooms it lists.
	EventReconnected EventKind = "reconnected"

	EventDisconnected EventKind = "disconnected"
)

// Event is one occurrence on the channel. Fields are populated per Kind.
type Event struct {
	Members  []api.PresenceMember
	Rooms    []string
	At       time.Time
	Kind     EventKind
	Room     string
	UserID   string
	Username string
	ConnID   string
	Status   string
	Changes  *models.NoteChanges
	Version  int64
}

// TokenSource supplies a currently valid access token for the websocket
// handshake.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Channel is the client's realtime side: one websocket connection
// multiplexing room membership, live note updates and presence. A lost
// connection reconnects with capped backoff for as long as the Connect
// context lives, re-joining every room on success.
type Channel interface {
	// Connect dials the server and starts the read and heartbeat loops.
	// ctx governs the whole channel lifetime, including reconnects.
	Connect(ctx context.Context) error

	// Close tears the connection down for good.
	Close() error

	// Connected reports whether a connection is up right now.
	Connected() bool

	// JoinRoom subscribes to a note's room. Membership survives
	// reconnects; joining while disconnected takes effect on reconnect.
	JoinRoom(noteID string) error

	// LeaveRoom drops the room membership.
	LeaveRoom(noteID string) error

	// Rooms lists the currently joined rooms, sorted.
	Rooms() []string

	// PublishUpdate announces a server-confirmed change to the note's
	// room. A no-op when the room is not joined.
	PublishUpdate(noteID string, changes models.NoteChanges, version int64) error

	// PublishPresence sends a presence status for a joined room. The
	// status is repeated by the heartbeat until changed.
	PublishPresence(noteID, status string) error

	// RetargetRoom moves a room membership to a new note ID, after the
	// server assigned a created note its canonical identity.
	RetargetRoom(oldID, newID string)

	// Subscribe registers an event consumer. The returned stop function
	// is idempotent; cancelling ctx also unsubscribes.
	Subscribe(ctx context.Context) (<-chan Event, func())
}

// subscriber is one registered event consumer. done unblocks the context
// watcher goroutine when the subscription ends.
type subscriber struct {
	ch   chan Event
	done chan struct{}
}

type channel struct {
	url    string
	tokens TokenSource
	logger *slog.Logger
	dialer *websocket.Dialer

	// connMu guards conn swaps and frame writes. It is never held across
	// a dial, so Publish fails fast while a reconnect is in progress.
	connMu sync.Mutex
	conn   *websocket.Conn

	// mu guards rooms, started and closed.
	mu      sync.Mutex
	rooms   map[string]string // note ID -> last presence status
	started bool
	closed  bool

	subsMu sync.RWMutex
	subs   map[string]*subscriber

	heartbeatEvery time.Duration
	reconnectBase  time.Duration
	reconnectCap   time.Duration
}

// NewChannel creates a realtime channel against the server's base URL
// (http/https; the websocket endpoint is derived from it).
func NewChannel(serverURL string, tokens TokenSource, logger *slog.Logger) Channel {
	return &channel{
		url:            wsURL(serverURL),
		tokens:         tokens,
		logger:         logger,
		dialer:         defaultDialer,
		rooms:          make(map[string]string),
		subs:           make(map[string]*subscriber),
		heartbeatEvery: heartbeatInterval,
		reconnectBase:  reconnectBaseDelay,
		reconnectCap:   reconnectCapDelay,
	}
}

// wsURL converts the server base URL to the websocket endpoint.
func wsURL(baseURL string) string {
	u := strings.TrimSuffix(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + realtimePath
}

func (c *channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("realtime channel already connected")
	}
	c.started = true
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		// The caller decides whether to retry the initial dial;
		// automatic reconnection only covers lost connections.
		c.mu.Lock()
		c.started = false
		c.mu.Unlock()
		return err
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	go c.readLoop(ctx, conn)
	go c.heartbeatLoop(ctx)

	c.logger.Info("realtime channel connected", "url", c.url)
	return nil
}

func (c *channel) dial(ctx context.Context) (*websocket.Conn, error) {
	accessToken, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+accessToken)

	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("failed to dial %s: %w", c.url, err)
	}
	resp.Body.Close()
	return conn, nil
}

func (c *channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	c.connMu.Unlock()

	c.closeSubscribers()

	if conn == nil {
		return nil
	}

	deadline := time.Now().Add(writeWait)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		c.logger.Debug("close frame not delivered", "error", err)
	}
	return conn.Close()
}

func (c *channel) Connected() bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn != nil
}

func (c *channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *channel) JoinRoom(noteID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	if _, ok := c.rooms[noteID]; ok {
		c.mu.Unlock()
		return nil
	}
	c.rooms[noteID] = api.PresenceActive
	c.mu.Unlock()

	err := c.writeMessage(&api.Message{Type: api.MessageJoinRoom, Room: noteID})
	if err != nil {
		// Membership is recorded; the reconnect pass sends the join.
		c.logger.Debug("join deferred until reconnect", "room", noteID, "error", err)
	}
	return nil
}

func (c *channel) LeaveRoom(noteID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	_, ok := c.rooms[noteID]
	delete(c.rooms, noteID)
	c.mu.Unlock()
	if !ok {
		return nil
	}

	// While disconnected there is nothing to tell: the server dropped
	// the membership with the old connection.
	err := c.writeMessage(&api.Message{Type: api.MessageLeaveRoom, Room: noteID})
	if err != nil {
		c.logger.Debug("leave frame skipped", "room", noteID, "error", err)
	}
	return nil
}

func (c *channel) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Sorted(maps.Keys(c.rooms))
}

func (c *channel) roomSnapshot() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.rooms)
}

func (c *channel) inRoom(noteID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[noteID]
	return ok
}

func (c *channel) PublishUpdate(noteID string, changes models.NoteChanges, version int64) error {
	if !c.inRoom(noteID) {
		return nil
	}
	return c.writeMessage(&api.Message{
		Type:    api.MessageEntityUpdate,
		Room:    noteID,
		Changes: wireChanges(changes),
		Version: version,
	})
}

func (c *channel) PublishPresence(noteID, status string) error {
	c.mu.Lock()
	if _, ok := c.rooms[noteID]; !ok {
		c.mu.Unlock()
		return nil
	}
	c.rooms[noteID] = status
	c.mu.Unlock()

	return c.writeMessage(&api.Message{Type: api.MessagePresence, Room: noteID, Status: status})
}

func (c *channel) RetargetRoom(oldID, newID string) {
	c.mu.Lock()
	status, ok := c.rooms[oldID]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.rooms, oldID)
	c.rooms[newID] = status
	c.mu.Unlock()

	// Move the live membership; a failed write self-heals on reconnect.
	if err := c.writeMessage(&api.Message{Type: api.MessageLeaveRoom, Room: oldID}); err != nil {
		return
	}
	if err := c.writeMessage(&api.Message{Type: api.MessageJoinRoom, Room: newID}); err != nil {
		c.logger.Debug("retarget join deferred until reconnect", "room", newID, "error", err)
	}
}

// writeMessage encodes and writes one frame under the write lock.
func (c *channel) writeMessage(msg *api.Message) error {
	data, err := api.EncodeMessage(msg)
	if err != nil {
		return err
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return ErrChannelDisconnected
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("failed to write realtime frame: %w", err)
	}
	return nil
}

// readLoop consumes frames until the connection dies, then hands off to
// the reconnect loop. Exactly one readLoop runs per live connection.
func (c *channel) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.isClosed() || ctx.Err() != nil {
				return
			}
			c.logger.Warn("realtime connection lost", "error", err)
			c.dropConn(conn)
			c.publish(Event{Kind: EventDisconnected, At: time.Now()})
			c.reconnectLoop(ctx)
			return
		}

		msg, err := api.DecodeMessage(data)
		if err != nil {
			c.logger.Warn("dropping malformed realtime frame", "error", err)
			continue
		}
		c.dispatch(msg)
	}
}

// dropConn detaches and closes the dead connection, so writers fail with
// ErrChannelDisconnected instead of writing into a broken pipe.
func (c *channel) dropConn(conn *websocket.Conn) {
	c.connMu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.connMu.Unlock()
	_ = conn.Close()
}

// reconnectLoop re-dials with capped backoff until the channel closes or
// ctx ends, then re-joins every room and announces the new connection.
func (c *channel) reconnectLoop(ctx context.Context) {
	var conn *websocket.Conn
	backoff := retry.WithCappedDuration(c.reconnectCap, retry.NewExponential(c.reconnectBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if c.isClosed() {
			return ErrChannelClosed
		}
		dialed, err := c.dial(ctx)
		if err != nil {
			c.logger.Debug("reconnect attempt failed", "error", err)
			return retry.RetryableError(err)
		}
		conn = dialed
		return nil
	})
	if err != nil {
		if !c.isClosed() && ctx.Err() == nil {
			c.logger.Warn("reconnect abandoned", "error", err)
		}
		return
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	rooms := c.rejoinRooms()
	go c.readLoop(ctx, conn)

	c.logger.Info("realtime channel reconnected", "rooms", len(rooms))
	c.publish(Event{Kind: EventReconnected, Rooms: rooms, At: time.Now()})
}

// rejoinRooms replays the join for every room kept across the outage and
// returns their IDs.
func (c *channel) rejoinRooms() []string {
	snapshot := c.roomSnapshot()
	rooms := make([]string, 0, len(snapshot))
	for room := range snapshot {
		if err := c.writeMessage(&api.Message{Type: api.MessageJoinRoom, Room: room}); err != nil {
			// The fresh connection is already gone; the next readLoop
			// exit starts another reconnect cycle.
			c.logger.Warn("failed to re-join room", "room", room, "error", err)
		}
		rooms = append(rooms, room)
	}
	slices.Sort(rooms)
	return rooms
}

// heartbeatLoop repeats each room's presence status. Any frame refreshes
// the sender's liveness on the server, and presence doubles as that
// frame. One loop runs for the channel lifetime; writes simply fail
// while disconnected.
func (c *channel) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(c.heartbeatEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if c.isClosed() {
			return
		}

		for room, status := range c.roomSnapshot() {
			msg := &api.Message{Type: api.MessagePresence, Room: room, Status: status}
			if err := c.writeMessage(msg); err != nil {
				c.logger.Debug("heartbeat skipped", "room", room, "error", err)
				break
			}
		}
	}
}

func (c *channel) dispatch(msg *api.Message) {
	at := time.Now()
	if msg.Timestamp > 0 {
		at = time.Unix(0, msg.Timestamp)
	}

	switch msg.Type {
	case api.MessageEntityUpdated:
		if msg.Changes == nil {
			c.logger.Warn("entity-updated frame without changes", "room", msg.Room)
			return
		}
		c.publish(Event{
			Kind:     EventRemoteUpdate,
			Room:     msg.Room,
			Changes:  localChanges(msg.Changes),
			Version:  msg.Version,
			UserID:   msg.UserID,
			Username: msg.Username,
			At:       at,
		})

	case api.MessageUserJoined:
		c.publish(Event{
			Kind:     EventUserJoined,
			Room:     msg.Room,
			UserID:   msg.UserID,
			Username: msg.Username,
			ConnID:   msg.ConnID,
			At:       at,
		})

	case api.MessageUserLeft:
		c.publish(Event{
			Kind:     EventUserLeft,
			Room:     msg.Room,
			UserID:   msg.UserID,
			Username: msg.Username,
			ConnID:   msg.ConnID,
			At:       at,
		})

	case api.MessagePresenceUpdate:
		c.publish(Event{
			Kind:     EventPresenceUpdate,
			Room:     msg.Room,
			UserID:   msg.UserID,
			Username: msg.Username,
			ConnID:   msg.ConnID,
			Status:   msg.Status,
			At:       at,
		})

	case api.MessagePresenceState:
		c.publish(Event{
			Kind:    EventPresenceState,
			Room:    msg.Room,
			Members: msg.Members,
			At:      at,
		})

	default:
		c.logger.Debug("ignoring realtime frame", "type", string(msg.Type))
	}
}

// Subscribe registers an event consumer, mirroring the storage change
// feed: buffered channel per subscriber, events dropped when full.
func (c *channel) Subscribe(ctx context.Context) (<-chan Event, func()) {
	id := uuid.NewString()
	sub := &subscriber{
		ch:   make(chan Event, eventBufferSize),
		done: make(chan struct{}),
	}

	c.subsMu.Lock()
	c.subs[id] = sub
	c.subsMu.Unlock()

	stop := func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		if cur, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(cur.ch)
			close(cur.done)
		}
	}

	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-sub.done:
		}
	}()

	return sub.ch, stop
}

// publish fans an event out without blocking. Sends happen under the
// read lock, so a channel is never written after stop closed it.
func (c *channel) publish(event Event) {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()

	for id, sub := range c.subs {
		select {
		case sub.ch <- event:
		default:
			c.logger.Warn("realtime event dropped, subscriber too slow",
				"subscriber", id,
				"kind", string(event.Kind),
			)
		}
	}
}

// closeSubscribers drops and closes every subscriber channel.
func (c *channel) closeSubscribers() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	for id, sub := range c.subs {
		delete(c.subs, id)
		close(sub.ch)
		close(sub.done)
	}
}

func wireChanges(c models.NoteChanges) *api.NoteChanges {
	return &api.NoteChanges{
		Title:    c.Title,
		Body:     c.Body,
		Trashed:  c.Trashed,
		Archived: c.Archived,
		Deleted:  c.Deleted,
	}
}

func localChanges(c *api.NoteChanges) *models.NoteChanges {
	if c == nil {
		return nil
	}
	return &models.NoteChanges{
		Title:    c.Title,
		Body:     c.Body,
		Trashed:  c.Trashed,
		Archived: c.Archived,
		Deleted:  c.Deleted,
	}
}
