package services

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"rockflint-backend/internal/models"
)

// VendorEvent is a live dashboard notification for a vendor: a review or
// favorite landed on one of their listings, or a promotion changed.
type VendorEvent struct {
	Type         string      `json:"type"`
	ListingID    string      `json:"listingId"`
	ListingTitle string      `json:"listingTitle,omitempty"`
	Data         interface{} `json:"data,omitempty"`
	At           time.Time   `json:"at"`
}

// Event types pushed to vendor dashboards
const (
	EventReviewAdded      = "review_added"
	EventFavoriteToggled  = "favorite_toggled"
	EventPromotionChanged = "promotion_changed"
)

type eventClient struct {
	vendorID string
	conn     *websocket.Conn
	send     chan VendorEvent
}

// EventService pushes vendor events to connected dashboard sockets. Each
// vendor may hold multiple connections; events for other vendors are never
// delivered to them.
type EventService struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*eventClient]bool // vendorID -> connections
}

// NewEventService creates a new event service
func NewEventService() *EventService {
	return &EventService{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[string]map[*eventClient]bool),
	}
}

// HandleVendorSocket upgrades an authenticated vendor's connection and
// streams their events until the peer disconnects
func (s *EventService) HandleVendorSocket(c *gin.Context, identity *models.Identity) {
	if !identity.HasVendor() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "Vendor account required",
		})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket connection: %v", err)
		return
	}

	client := &eventClient{
		vendorID: identity.VendorID,
		conn:     conn,
		send:     make(chan VendorEvent, 16),
	}
	s.register(client)

	go s.writePump(client)
	go s.readPump(client)
}

// Publish delivers an event to every open connection of the vendor. Delivery
// is best effort: a slow consumer's backlog is dropped, not waited on.
func (s *EventService) Publish(vendorID string, event VendorEvent) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients[vendorID] {
		select {
		case client.send <- event:
		default:
		}
	}
}

// ConnectionCount reports how many sockets a vendor currently holds
func (s *EventService) ConnectionCount(vendorID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients[vendorID])
}

func (s *EventService) register(client *eventClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[client.vendorID] == nil {
		s.clients[client.vendorID] = make(map[*eventClient]bool)
	}
	s.clients[client.vendorID][client] = true
}

func (s *EventService) unregister(client *eventClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conns, ok := s.clients[client.vendorID]; ok {
		if conns[client] {
			delete(conns, client)
			close(client.send)
			if len(conns) == 0 {
				delete(s.clients, client.vendorID)
			}
		}
	}
}

func (s *EventService) writePump(client *eventClient) {
	defer client.conn.Close()
	for event := range client.send {
		if err := client.conn.WriteJSON(event); err != nil {
			return
		}
	}
}

// readPump drains the connection so pings are answered and disconnects are
// noticed
func (s *EventService) readPump(client *eventClient) {
	defer func() {
		s.unregister(client)
		client.conn.Close()
	}()
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
