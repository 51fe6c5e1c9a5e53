// Package notify keeps track of open server-push connections and fans
// messages out to them.
package notify

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/omiam/omiam-backend/pkg/logger"
)

// Message is one server-push event
type Message struct {
	ID        string    `json:"id"`
	Event     string    `json:"event"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage stamps a message with a fresh id and the current time
func NewMessage(event string, data any) Message {
	return Message{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Conn is a registered subscriber. Read from Messages until it is closed.
type Conn struct {
	UserID string
	ch     chan Message
	once   sync.Once
}

// Messages returns the delivery channel. It is closed on Unregister.
func (c *Conn) Messages() <-chan Message {
	return c.ch
}

func (c *Conn) close() {
	c.once.Do(func() { close(c.ch) })
}

// Registry tracks live connections by user. Sends never block: a subscriber
// whose buffer is full misses the message and the drop is counted.
type Registry struct {
	mu      sync.RWMutex
	byUser  map[string]map[*Conn]struct{}
	buffer  int
	dropped atomic.Int64
	logger  *logger.Logger
}

// NewRegistry creates a registry whose connections buffer up to buffer messages
func NewRegistry(buffer int, log *logger.Logger) *Registry {
	if buffer < 1 {
		buffer = 1
	}
	return &Registry{
		byUser: make(map[string]map[*Conn]struct{}),
		buffer: buffer,
		logger: log,
	}
}

// Register opens a connection for userID. A user may hold several.
func (r *Registry) Register(userID string) *Conn {
	conn := &Conn{UserID: userID, ch: make(chan Message, r.buffer)}

	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.byUser[userID]
	if !ok {
		conns = make(map[*Conn]struct{})
		r.byUser[userID] = conns
	}
	conns[conn] = struct{}{}

	r.logger.Debug().Str("user_id", userID).Int("connections", len(conns)).Msg("notification stream registered")
	return conn
}

// Unregister removes the connection and closes its channel. Safe to call twice.
func (r *Registry) Unregister(conn *Conn) {
	r.mu.Lock()
	if conns, ok := r.byUser[conn.UserID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(r.byUser, conn.UserID)
		}
	}
	r.mu.Unlock()

	conn.close()
}

// Broadcast delivers msg to every connection and returns how many accepted it
func (r *Registry) Broadcast(msg Message) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for _, conns := range r.byUser {
		delivered += r.deliver(conns, msg)
	}
	return delivered
}

// SendTo delivers msg to the connections of one user
func (r *Registry) SendTo(userID string, msg Message) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.deliver(r.byUser[userID], msg)
}

// deliver requires r.mu held for reading
func (r *Registry) deliver(conns map[*Conn]struct{}, msg Message) int {
	delivered := 0
	for conn := range conns {
		select {
		case conn.ch <- msg:
			delivered++
		default:
			r.dropped.Add(1)
			r.logger.Warn().Str("user_id", conn.UserID).Str("event", msg.Event).Msg("notification dropped for slow consumer")
		}
	}
	return delivered
}

// Count returns the number of open connections
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, conns := range r.byUser {
		n += len(conns)
	}
	return n
}

// Dropped returns how many messages were skipped because a buffer was full
func (r *Registry) Dropped() int64 {
	return r.dropped.Load()
}

// Close unregisters every connection, for shutdown
func (r *Registry) Close() {
	r.mu.Lock()
	byUser := r.byUser
	r.byUser = make(map[string]map[*Conn]struct{})
	r.mu.Unlock()

	for _, conns := range byUser {
		for conn := range conns {
			conn.close()
		}
	}
}
