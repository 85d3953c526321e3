package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/anjiri1684/tutor_connect/models"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventSessionBooked   = "session_booked"
	EventReviewSubmitted = "review_submitted"

	authTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second
)

// Authenticator resolves the token sent in the first frame.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type authFrame struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type ReviewEvent struct {
	Review       models.ReviewView `json:"review"`
	Rating       float64           `json:"rating"`
	TotalReviews int               `json:"totalReviews"`
}

type conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type client struct {
	userID uuid.UUID
	conn   conn
	mu     sync.Mutex
}

func (c *client) write(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(ev)
}

// Hub tracks live connections per user and pushes domain events to them.
type Hub struct {
	auth Authenticator
	log  *zap.Logger

	mu      sync.RWMutex
	clients map[uuid.UUID]map[*client]struct{}
}

func NewHub(auth Authenticator, log *zap.Logger) *Hub {
	return &Hub{auth: auth, log: log, clients: make(map[uuid.UUID]map[*client]struct{})}
}

func (h *Hub) register(userID uuid.UUID, cn conn) *client {
	cl := &client{userID: userID, conn: cn}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[userID] = set
	}
	set[cl] = struct{}{}
	return cl
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[cl.userID]
	if !ok {
		return
	}
	delete(set, cl)
	if len(set) == 0 {
		delete(h.clients, cl.userID)
	}
}

// Connections reports how many sockets are open for userID.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Send delivers ev to every connection of userID. A connection that fails to take the write
// is closed and dropped.
func (h *Hub) Send(userID uuid.UUID, ev Event) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[userID]))
	for cl := range h.clients[userID] {
		targets = append(targets, cl)
	}
	h.mu.RUnlock()

	for _, cl := range targets {
		if err := cl.write(ev); err != nil {
			h.log.Debug("dropping websocket connection", zap.String("user_id", userID.String()), zap.Error(err))
			h.unregister(cl)
			_ = cl.conn.Close()
		}
	}
}

func (h *Hub) SessionBooked(session models.Session) {
	go h.Send(session.TutorID, Event{Type: EventSessionBooked, Data: session.View()})
}

func (h *Hub) ReviewSubmitted(review models.Review, tutor models.User) {
	go h.Send(review.TutorID, Event{Type: EventReviewSubmitted, Data: ReviewEvent{
		Review:       review.View(),
		Rating:       tutor.Rating,
		TotalReviews: tutor.TotalReviews,
	}})
}

// Upgrade rejects plain HTTP requests on the websocket route.
func Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler serves GET /ws. The first frame must be {"type":"auth","token":...}; anything else
// closes the connection.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		defer c.Close()

		_ = c.SetReadDeadline(time.Now().Add(authTimeout))
		var frame authFrame
		if err := c.ReadJSON(&frame); err != nil || frame.Type != "auth" || frame.Token == "" {
			_ = c.WriteJSON(Event{Type: "error", Data: "please authenticate"})
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		user, err := h.auth.Authenticate(ctx, frame.Token)
		cancel()
		if err != nil {
			_ = c.WriteJSON(Event{Type: "error", Data: "please authenticate"})
			return
		}
		_ = c.SetReadDeadline(time.Time{})

		cl := h.register(user.ID, c)
		defer h.unregister(cl)
		h.log.Debug("websocket connected", zap.String("user_id", user.ID.String()))
		if err := cl.write(Event{Type: "ready"}); err != nil {
			return
		}

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				h.log.Debug("websocket closed", zap.String("user_id", user.ID.String()), zap.Error(err))
				return
			}
		}
	})
}
