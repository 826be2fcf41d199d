package hub

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/scriba-app/scriba/internal/server/handlers"
	"github.com/scriba-app/scriba/pkg/api"
)

const (
	// writeWait bounds a single frame write to a peer.
	writeWait = 10 * time.Second

	// maxFrameSize caps inbound frames. Note bodies up to 1 MiB ride
	// entity-update frames, plus envelope overhead.
	maxFrameSize = 1<<20 + 4096

	// sendBufferSize is the per-connection outbound queue. A consumer
	// that falls this far behind is disconnected instead of stalling
	// the hub.
	sendBufferSize = 32
)

// upgrader accepts any origin: the endpoint is authenticated by bearer
// token, and native clients send no Origin header at all.
var upgrader = websocket.Upgrader{
	ReadBufferSize:    1024,
	WriteBufferSize:   1024,
	EnableCompression: true,
	Subprotocols:      []string{"cbor"},
	CheckOrigin:       func(*http.Request) bool { return true },
}

// conn is one live websocket connection. The rooms set is owned by the
// hub goroutine; the pumps only touch the socket and the send channel.
type conn struct {
	ws   *websocket.Conn
	send chan []byte

	rooms map[string]struct{}

	id       string
	userID   string
	username string
}

// ServeHTTP upgrades the request and attaches the connection to the
// hub. Identity comes from the auth middleware, which accepts the
// token from the query string here because browser websocket clients
// cannot set headers.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := handlers.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	username, _ := handlers.GetUsername(r.Context())

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			"error", err,
			"user_id", userID,
		)
		return
	}

	c := &conn{
		ws:       ws,
		send:     make(chan []byte, sendBufferSize),
		rooms:    make(map[string]struct{}),
		id:       uuid.NewString(),
		userID:   userID,
		username: username,
	}

	select {
	case h.registerC <- c:
	case <-h.done:
		_ = ws.Close()
		return
	}

	go c.writePump(h)
	c.readPump(h)
}

// readPump decodes inbound frames and forwards them to the hub until
// the connection dies, then unregisters it. Runs on the handler
// goroutine; exactly one reader per connection.
func (c *conn) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregisterC <- c:
		case <-h.done:
		}
		_ = c.ws.Close()
	}()

	readWait := h.heartbeatTimeout + writeWait
	c.ws.SetReadLimit(maxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(readWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("realtime read failed",
					"conn_id", c.id,
					"error", err,
				)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(readWait))

		msg, err := api.DecodeMessage(data)
		if err != nil {
			h.logger.Warn("dropping malformed realtime frame",
				"conn_id", c.id,
				"error", err,
			)
			continue
		}

		select {
		case h.framesC <- inboundFrame{conn: c, msg: msg}:
		case <-h.done:
			return
		}
	}
}

// writePump drains the send channel to the socket and keeps the
// transport alive with pings. Exactly one writer per connection; a
// closed send channel means the hub dropped us.
func (c *conn) writePump(h *Hub) {
	ticker := time.NewTicker(h.heartbeatTimeout / 2)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
