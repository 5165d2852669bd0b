// Package transport adapts gorilla/websocket connections into the
// Connection capability internal/session and internal/heartbeat
// consume, grounded on the teacher's framework/conn.Manager: a
// sharded connection registry, a worker-pool-backed inbound dispatch
// path, and an upgrade handler doing auth and capacity checks before
// the handshake.
package transport

import (
	"encoding/json"
	"errors"
	"hash/fnv"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"riichicore/internal/jwt"
	"riichicore/internal/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	ReadBufferSize:    4096,
	WriteBufferSize:   4096,
	EnableCompression: true,
}

const (
	readDeadline  = 120 * time.Second
	writeDeadline = 10 * time.Second
	bucketCount   = 32
)

// InboundMessage is one decoded client frame, handed to the
// Manager's registered MessageHandler.
type InboundMessage struct {
	ConnID string
	UserID string
	Body   []byte
}

// MessageHandler processes one inbound frame.
type MessageHandler func(msg InboundMessage)

// Connection is the capability a websocket client exposes to the
// rest of the module: send a JSON-encodable payload, close with a
// reason, and report identity/liveness for internal/heartbeat.
type Connection interface {
	ConnectionID() string
	UserID() string
	Send(v any) error
	Close(reason string) error
	LastSeen() time.Time
	Touch()
}

type wsConnection struct {
	id     string
	userID string
	conn   *websocket.Conn
	mu     sync.Mutex

	lastSeen atomic.Value // time.Time
}

func (c *wsConnection) ConnectionID() string { return c.id }
func (c *wsConnection) UserID() string       { return c.userID }

func (c *wsConnection) Send(v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return c.conn.WriteMessage(websocket.TextMessage, buf)
}

func (c *wsConnection) Close(reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *wsConnection) LastSeen() time.Time {
	if v := c.lastSeen.Load(); v != nil {
		return v.(time.Time)
	}
	return time.Time{}
}

func (c *wsConnection) Touch() { c.lastSeen.Store(time.Now()) }

type bucket struct {
	sync.RWMutex
	clients map[string]Connection
}

// Manager owns every live websocket connection, sharded across 32
// buckets, and fans inbound frames out to a worker pool keyed by
// connection ID (same shape as the teacher's clientBuckets/
// clientWorkers split, without the NATS cross-node relay — this
// module runs as a single process, so there is no second node to
// relay through).
type Manager struct {
	buckets     []*bucket
	workers     []chan InboundMessage
	workerCount int
	handler     MessageHandler
	onConnect   func(c Connection)
	onDisconnect func(c Connection)

	authSecret string

	connected int32
	maxConns  int32
}

// NewManager builds a Manager that authenticates joins against
// authSecret (an HS256 JWT, spec §4.4's reconnect token) and caps
// concurrent connections at maxConns.
func NewManager(authSecret string, maxConns int32) *Manager {
	workerCount := runtime.NumCPU() * 2
	m := &Manager{
		buckets:     make([]*bucket, bucketCount),
		workers:     make([]chan InboundMessage, workerCount),
		workerCount: workerCount,
		authSecret:  authSecret,
		maxConns:    maxConns,
	}
	for i := range m.buckets {
		m.buckets[i] = &bucket{clients: make(map[string]Connection)}
	}
	for i := range m.workers {
		m.workers[i] = make(chan InboundMessage, 256)
	}
	return m
}

// OnMessage registers the handler inbound frames are dispatched to.
func (m *Manager) OnMessage(h MessageHandler) { m.handler = h }

// OnConnect registers a hook fired once a connection finishes its
// handshake and is registered, letting internal/session seat it into
// a pending game, a room, or a reconnecting game.
func (m *Manager) OnConnect(h func(c Connection)) { m.onConnect = h }

// OnDisconnect registers a hook fired once readLoop exits, letting
// internal/session mark the seat disconnected and start a
// reconnect-grace timer before substituting AI.
func (m *Manager) OnDisconnect(h func(c Connection)) { m.onDisconnect = h }

// Run starts the worker pool. Call RegisterRoutes separately to mount
// the upgrade endpoint on an *http.ServeMux.
func (m *Manager) Run() {
	for i := 0; i < m.workerCount; i++ {
		go m.workerLoop(i)
	}
}

func (m *Manager) workerLoop(id int) {
	for msg := range m.workers[id] {
		if m.handler != nil {
			m.handler(msg)
		}
	}
}

// RegisterRoutes mounts the /ws upgrade endpoint.
func (m *Manager) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", m.upgradeFunc)
}

func (m *Manager) upgradeFunc(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	claims, err := jwt.ParseToken(token, m.authSecret)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		logging.Warn("transport: connection rejected remote=%s err=%v", r.RemoteAddr, err)
		return
	}

	if atomic.LoadInt32(&m.connected) >= m.maxConns {
		http.Error(w, "server is at capacity", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("transport: upgrade failed: %v", err)
		return
	}
	conn.SetReadDeadline(time.Now().Add(readDeadline))

	wsConn := &wsConnection{id: connID(claims.UserID, claims.GameID), userID: claims.UserID, conn: conn}
	wsConn.Touch()
	m.addConn(wsConn)
	if m.onConnect != nil {
		m.onConnect(wsConn)
	}

	go m.readLoop(wsConn)
}

func connID(userID, gameID string) string { return gameID + ":" + userID }

// ParseConnID recovers the gameID/userID pair a Connection's ID
// encodes, so internal/session can route an inbound frame or a
// disconnect without carrying a parallel lookup table.
func ParseConnID(id string) (gameID, userID string) {
	for i := 0; i < len(id); i++ {
		if id[i] == ':' {
			return id[:i], id[i+1:]
		}
	}
	return "", id
}

func (m *Manager) getBucket(id string) *bucket {
	h := fnv.New32a()
	h.Write([]byte(id))
	return m.buckets[h.Sum32()%bucketCount]
}

func (m *Manager) addConn(c Connection) {
	b := m.getBucket(c.ConnectionID())
	b.Lock()
	b.clients[c.ConnectionID()] = c
	b.Unlock()
	atomic.AddInt32(&m.connected, 1)
}

// Remove drops a connection from the registry, e.g. on clean close.
func (m *Manager) Remove(connID string) {
	b := m.getBucket(connID)
	b.Lock()
	_, existed := b.clients[connID]
	delete(b.clients, connID)
	b.Unlock()
	if existed {
		atomic.AddInt32(&m.connected, -1)
	}
}

// Lookup returns the live connection for connID, if any.
func (m *Manager) Lookup(connID string) (Connection, bool) {
	b := m.getBucket(connID)
	b.RLock()
	defer b.RUnlock()
	c, ok := b.clients[connID]
	return c, ok
}

// ConnectionCount reports the number of live connections, for
// internal/stats' load sample.
func (m *Manager) ConnectionCount() int { return int(atomic.LoadInt32(&m.connected)) }

func (m *Manager) readLoop(c *wsConnection) {
	defer func() {
		m.Remove(c.id)
		if m.onDisconnect != nil {
			m.onDisconnect(c)
		}
		c.conn.Close()
	}()
	c.conn.SetPongHandler(func(string) error {
		c.Touch()
		c.conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.Touch()
		c.conn.SetReadDeadline(time.Now().Add(readDeadline))
		m.dispatch(InboundMessage{ConnID: c.id, UserID: c.userID, Body: data})
	}
}

func (m *Manager) dispatch(msg InboundMessage) {
	hash := fnv.New32a()
	hash.Write([]byte(msg.ConnID))
	workerID := hash.Sum32() % uint32(m.workerCount)
	select {
	case m.workers[workerID] <- msg:
	default:
		logging.Warn("transport: worker pool full, handling inline connID=%s", msg.ConnID)
		if m.handler != nil {
			m.handler(msg)
		}
	}
}

// ErrNotConnected is returned by callers that address a connection ID
// with no live websocket.
var ErrNotConnected = errors.New("transport: connection not found")
