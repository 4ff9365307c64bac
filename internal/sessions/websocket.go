package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pairup-backend/internal/matchmaking"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	sendBufferSize = 32
	maxMessageSize = 4096
	maxChatLength  = 2000
)

// Client message types.
const (
	TypePing       = "ping"
	TypePong       = "pong"
	TypeChat       = "message"
	TypeJoinVoice  = "join_voice"
	TypeLeaveVoice = "leave_voice"
	TypeError      = "error"

	// WebRTC signaling, relayed as-is between voice partners.
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice_candidate"
)

var (
	ErrNotInSession  = errors.New("not in a session")
	ErrWrongMode     = errors.New("session mode does not allow this")
	ErrEmptyMessage  = errors.New("message is empty")
	ErrMessageLength = errors.New("message is too long")
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Relay resolves the session a participant is in.
type Relay interface {
	SessionOf(id matchmaking.ParticipantID) (matchmaking.Session, bool)
}

// Presence tracks who is inside a voice room.
type Presence interface {
	Join(handle matchmaking.SpaceHandle, id matchmaking.ParticipantID) error
	Part(handle matchmaking.SpaceHandle, id matchmaking.ParticipantID)
}

type WSMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type chatData struct {
	Text string `json:"text"`
}

type signalData struct {
	SessionID string          `json:"session_id"`
	Payload   json.RawMessage `json:"payload"`
}

type ConnectionMetrics struct {
	UserID       string    `json:"user_id"`
	ConnectionID string    `json:"connection_id"`
	ConnectedAt  time.Time `json:"connected_at"`
	MessagesSent int64     `json:"messages_sent"`
	MessagesRecv int64     `json:"messages_recv"`
	Dropped      int64     `json:"dropped"`
	ClientIP     string    `json:"client_ip"`
}

type client struct {
	id          matchmaking.ParticipantID
	connID      string
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	closeOnce   sync.Once
	connectedAt time.Time
	clientIP    string
	sent        atomic.Int64
	recv        atomic.Int64
	dropped     atomic.Int64
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// WSManager owns the participants' websocket connections. It delivers
// notifications, relays text chat between session partners and reports
// voice presence.
type WSManager struct {
	relay    Relay
	presence Presence
	clients  map[matchmaking.ParticipantID]*client
	mu       sync.RWMutex
	log      *slog.Logger
}

func NewWSManager(relay Relay, presence Presence, log *slog.Logger) *WSManager {
	return &WSManager{
		relay:    relay,
		presence: presence,
		clients:  make(map[matchmaking.ParticipantID]*client),
		log:      log,
	}
}

// HandleWebSocket upgrades the request and serves the participant named in
// the URL until the connection drops.
func (wm *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		wm.log.Warn("WebSocket upgrade failed", "participant", userID, "error", err)
		return
	}

	c := &client{
		id:          matchmaking.ParticipantID(userID),
		connID:      "ws_" + uuid.NewString()[:8],
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
		clientIP:    clientIP(r),
	}
	total := wm.register(c)
	wm.log.Info("WebSocket connected", "participant", userID, "connection", c.connID, "ip", c.clientIP, "total", total)

	go wm.writePump(c)
	wm.readPump(c)

	total = wm.unregister(c)
	wm.log.Info("WebSocket disconnected", "participant", userID, "connection", c.connID,
		"duration", time.Since(c.connectedAt), "sent", c.sent.Load(), "recv", c.recv.Load(), "total", total)
}

func (wm *WSManager) register(c *client) int {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if prev, ok := wm.clients[c.id]; ok {
		wm.log.Info("Replacing existing connection", "participant", c.id, "connection", prev.connID)
		prev.close()
	}
	wm.clients[c.id] = c
	return len(wm.clients)
}

func (wm *WSManager) unregister(c *client) int {
	c.close()

	wm.mu.Lock()
	defer wm.mu.Unlock()
	if wm.clients[c.id] == c {
		delete(wm.clients, c.id)
	}
	return len(wm.clients)
}

func (wm *WSManager) readPump(c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wm.log.Warn("Unexpected WebSocket error", "participant", c.id, "error", err)
			}
			return
		}
		c.recv.Add(1)
		wm.handleClientMessage(c, msg)
	}
}

func (wm *WSManager) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				wm.log.Debug("WebSocket write failed", "participant", c.id, "error", err)
				c.close()
				return
			}
			c.sent.Add(1)
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (wm *WSManager) handleClientMessage(c *client, msg WSMessage) {
	switch msg.Type {
	case TypePing:
		wm.reply(c, TypePong, map[string]string{"user_id": string(c.id)})

	case TypeChat:
		var data chatData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			wm.replyError(c, err)
			return
		}
		if err := wm.relayChat(c.id, data.Text); err != nil {
			wm.replyError(c, err)
		}

	case TypeJoinVoice, TypeLeaveVoice:
		if err := wm.voicePresence(c.id, msg.Type == TypeJoinVoice); err != nil {
			wm.replyError(c, err)
		}

	case TypeOffer, TypeAnswer, TypeICECandidate:
		if err := wm.relaySignal(c.id, msg.Type, msg.Data); err != nil {
			wm.replyError(c, err)
		}

	default:
		wm.log.Debug("Unknown message type", "participant", c.id, "type", msg.Type)
	}
}

// relayChat forwards a text message to the sender's partner.
func (wm *WSManager) relayChat(from matchmaking.ParticipantID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if len(text) > maxChatLength {
		return ErrMessageLength
	}

	sess, ok := wm.relay.SessionOf(from)
	if !ok {
		return ErrNotInSession
	}
	if sess.Mode != matchmaking.ModeText {
		return ErrWrongMode
	}

	return wm.Notify(context.Background(), sess.PartnerOf(from), matchmaking.Notification{
		Type:      matchmaking.NotifyMessage,
		Message:   text,
		SessionID: sess.ID,
		Mode:      sess.Mode,
	})
}

// relaySignal forwards an SDP offer or answer or an ICE candidate to the
// sender's partner in a voice session.
func (wm *WSManager) relaySignal(from matchmaking.ParticipantID, typ string, payload json.RawMessage) error {
	if len(payload) == 0 {
		return ErrEmptyMessage
	}
	sess, ok := wm.relay.SessionOf(from)
	if !ok {
		return ErrNotInSession
	}
	if sess.Mode != matchmaking.ModeVoice {
		return ErrWrongMode
	}

	out, err := encode(typ, signalData{SessionID: sess.ID, Payload: payload})
	if err != nil {
		return err
	}

	wm.mu.RLock()
	c, ok := wm.clients[sess.PartnerOf(from)]
	wm.mu.RUnlock()
	if !ok {
		wm.log.Debug("Partner not connected, signal dropped", "session", sess.ID, "type", typ)
		return nil
	}
	wm.enqueue(c, out)
	return nil
}

func (wm *WSManager) voicePresence(id matchmaking.ParticipantID, join bool) error {
	sess, ok := wm.relay.SessionOf(id)
	if !ok {
		return ErrNotInSession
	}
	if sess.Mode != matchmaking.ModeVoice {
		return ErrWrongMode
	}
	if !join {
		wm.presence.Part(sess.Space, id)
		return nil
	}
	return wm.presence.Join(sess.Space, id)
}

func (wm *WSManager) reply(c *client, typ string, data any) {
	payload, err := encode(typ, data)
	if err != nil {
		wm.log.Error("Failed to encode reply", "type", typ, "error", err)
		return
	}
	wm.enqueue(c, payload)
}

func (wm *WSManager) replyError(c *client, err error) {
	wm.reply(c, TypeError, map[string]string{"message": err.Error()})
}

// Notify delivers n to the participant's connection. A participant without
// a connection is skipped silently. It satisfies matchmaking.Notifier.
func (wm *WSManager) Notify(_ context.Context, id matchmaking.ParticipantID, n matchmaking.Notification) error {
	payload, err := EncodeNotification(n)
	if err != nil {
		return err
	}

	wm.mu.RLock()
	c, ok := wm.clients[id]
	wm.mu.RUnlock()
	if !ok {
		wm.log.Debug("Participant not connected, notification skipped", "participant", id, "type", n.Type)
		return nil
	}
	wm.enqueue(c, payload)
	return nil
}

// Broadcast delivers n to every connected participant.
func (wm *WSManager) Broadcast(_ context.Context, n matchmaking.Notification) {
	payload, err := EncodeNotification(n)
	if err != nil {
		wm.log.Error("Failed to encode broadcast", "type", n.Type, "error", err)
		return
	}

	wm.mu.RLock()
	defer wm.mu.RUnlock()
	for _, c := range wm.clients {
		wm.enqueue(c, payload)
	}
}

// enqueue never blocks; a client that does not keep up loses messages.
func (wm *WSManager) enqueue(c *client, payload []byte) {
	select {
	case <-c.done:
	case c.send <- payload:
	default:
		c.dropped.Add(1)
		wm.log.Warn("Send buffer full, dropping message", "participant", c.id)
	}
}

// ConnectedUsers returns the participants with a live connection.
func (wm *WSManager) ConnectedUsers() []matchmaking.ParticipantID {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	users := make([]matchmaking.ParticipantID, 0, len(wm.clients))
	for id := range wm.clients {
		users = append(users, id)
	}
	return users
}

func (wm *WSManager) ConnectionMetrics() map[string]ConnectionMetrics {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	metrics := make(map[string]ConnectionMetrics, len(wm.clients))
	for id, c := range wm.clients {
		metrics[string(id)] = ConnectionMetrics{
			UserID:       string(id),
			ConnectionID: c.connID,
			ConnectedAt:  c.connectedAt,
			MessagesSent: c.sent.Load(),
			MessagesRecv: c.recv.Load(),
			Dropped:      c.dropped.Load(),
			ClientIP:     c.clientIP,
		}
	}
	return metrics
}

// EncodeNotification renders n as the websocket envelope sent to clients.
func EncodeNotification(n matchmaking.Notification) ([]byte, error) {
	return encode(n.Type, n)
}

func encode(typ string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: typ, Data: raw, Timestamp: time.Now().UTC()})
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ips := strings.Split(xff, ","); len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
