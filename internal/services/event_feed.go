package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const feedChannelPrefix = "events:roster:"

// Roster change types broadcast on the live feed.
const (
	FeedJoined   = "joined"
	FeedLeft     = "left"
	FeedApproved = "approved"
	FeedRejected = "rejected"
	FeedUpdated  = "updated"
	FeedDeleted  = "deleted"
)

// RosterEvent is the payload broadcast over Redis and WebSocket.
type RosterEvent struct {
	Type            string    `json:"type"`
	EventID         string    `json:"event_id"`
	UserID          string    `json:"user_id,omitempty"`
	Participants    int       `json:"participants"`
	MaxParticipants int       `json:"max_participants"`
	Status          string    `json:"status,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// FeedConn is the minimal interface our WebSocket implementation must satisfy.
type FeedConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// RosterPublisher announces roster and status changes.
type RosterPublisher interface {
	Publish(ctx context.Context, ev RosterEvent) error
}

type feedSubscriber struct {
	conn FeedConn
	mu   sync.Mutex // one writer at a time per connection
}

// EventFeed fans roster changes out to the WebSocket clients watching an
// event. With Redis every instance receives every change; without it the
// feed is local to this process.
type EventFeed struct {
	client *redis.Client

	mu          sync.RWMutex
	subscribers map[string]map[*feedSubscriber]struct{}
	started     sync.Once
}

func NewEventFeed(client *redis.Client) *EventFeed {
	return &EventFeed{
		client:      client,
		subscribers: make(map[string]map[*feedSubscriber]struct{}),
	}
}

// Subscribe registers conn for changes to eventID and returns the function
// that removes it.
func (f *EventFeed) Subscribe(eventID string, conn FeedConn) func() {
	sub := &feedSubscriber{conn: conn}

	f.mu.Lock()
	if f.subscribers[eventID] == nil {
		f.subscribers[eventID] = make(map[*feedSubscriber]struct{})
	}
	f.subscribers[eventID][sub] = struct{}{}
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subscribers[eventID], sub)
		if len(f.subscribers[eventID]) == 0 {
			delete(f.subscribers, eventID)
		}
		f.mu.Unlock()
	}
}

// Publish sends ev to every instance through Redis, or straight to local
// subscribers when Redis is not configured.
func (f *EventFeed) Publish(ctx context.Context, ev RosterEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if f.client == nil {
		f.fanOut(ev)
		return nil
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, feedChannelPrefix+ev.EventID, data).Err()
}

func (f *EventFeed) fanOut(ev RosterEvent) {
	f.mu.RLock()
	subs := make([]*feedSubscriber, 0, len(f.subscribers[ev.EventID]))
	for sub := range f.subscribers[ev.EventID] {
		subs = append(subs, sub)
	}
	f.mu.RUnlock()

	for _, sub := range subs {
		go func(s *feedSubscriber) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if err := s.conn.WriteJSON(ev); err != nil {
				log.Printf("error writing roster event to websocket: %v", err)
			}
		}(sub)
	}
}

// Start runs the shared Redis listener for this instance until ctx is done.
func (f *EventFeed) Start(ctx context.Context) {
	if f.client == nil {
		return
	}
	f.started.Do(func() {
		go f.run(ctx)
	})
}

func (f *EventFeed) run(ctx context.Context) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := f.client.PSubscribe(ctx, feedChannelPrefix+"*")
			defer pubsub.Close()

			log.Printf("✅ Roster feed subscriber started (pattern: %s*)", feedChannelPrefix)

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var ev RosterEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("failed to unmarshal roster event: %v", err)
					continue
				}
				if ev.EventID == "" {
					ev.EventID = strings.TrimPrefix(msg.Channel, feedChannelPrefix)
				}
				f.fanOut(ev)
			}
		}()
	}
}
