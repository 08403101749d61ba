package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/SachinRathod0101/Time-left-backend/internal/logging"
	"github.com/SachinRathod0101/Time-left-backend/internal/middleware"
	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"github.com/SachinRathod0101/Time-left-backend/internal/services"
	"github.com/gorilla/websocket"
)

const (
	feedReadLimit    = 4 * 1024
	feedPongWait     = 90 * time.Second
	feedPingInterval = 30 * time.Second
	feedWriteWait    = 10 * time.Second
)

// RosterSubscriber registers WebSocket connections for an event's roster changes.
type RosterSubscriber interface {
	Subscribe(eventID string, conn services.FeedConn) func()
}

type EventFeedHandler struct {
	auth     middleware.Authenticator
	events   EventService
	feed     RosterSubscriber
	upgrader websocket.Upgrader
}

// NewEventFeedHandler builds the live roster endpoint. Browser clients may only
// connect from allowedOrigins; an empty list allows any origin.
func NewEventFeedHandler(auth middleware.Authenticator, events EventService, feed RosterSubscriber, allowedOrigins []string) *EventFeedHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &EventFeedHandler{
		auth:   auth,
		events: events,
		feed:   feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(origins) == 0 || origins[origin]
			},
		},
	}
}

// rosterSnapshot is the first frame a client receives after connecting.
func rosterSnapshot(event *models.Event) services.RosterEvent {
	return services.RosterEvent{
		Type:            "snapshot",
		EventID:         event.ID.Hex(),
		Participants:    len(event.Participants),
		MaxParticipants: event.MaxParticipants,
		Status:          string(event.Status),
		Timestamp:       time.Now().UTC(),
	}
}

// ServeFeed streams join/leave and status changes for one event.
// Browsers cannot set headers on a WebSocket handshake, so the bearer token
// may also be passed as ?token=.
func (h *EventFeedHandler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		writeMessage(w, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	if _, _, err := h.auth.Authenticate(r.Context(), token); err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			writeMessage(w, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}
		writeError(w, r, err)
		return
	}

	id, err := pathID(r, "id", "Event")
	if err != nil {
		writeError(w, r, err)
		return
	}
	event, err := h.events.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return
	}
	defer conn.Close()
	logger := logging.FromContext(r.Context()).With("event_id", id.Hex())

	_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
	if err := conn.WriteJSON(rosterSnapshot(event)); err != nil {
		return
	}
	_ = conn.SetWriteDeadline(time.Time{})

	unsubscribe := h.feed.Subscribe(id.Hex(), conn)
	defer unsubscribe()
	logger.Debug("roster feed connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go keepAlive(ctx, conn)

	conn.SetReadLimit(feedReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	// The feed is server to client only; reading just drives control frames
	// and notices the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			logger.Debug("roster feed closed", "error", err)
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
	}
}

func keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(feedPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(feedWriteWait)); err != nil {
				return
			}
		}
	}
}
