// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/carelog/internal/logger"
)

const (
	wsWriteDeadline = 10 * time.Second
	wsReadDeadline  = 60 * time.Second
	wsPingInterval  = 30 * time.Second

	// mailboxTTL bounds how long undelivered notifications wait in Redis for
	// a dashboard that never reconnects.
	mailboxTTL = 7 * 24 * time.Hour

	// offlineMailbox is the Redis mailbox that collects broadcasts while no
	// client is connected. A client connecting with this client_id drains it.
	offlineMailbox = "dashboard"
)

var upgrader = websocket.Upgrader{
	// The server binds to localhost for a single facility; origin checks
	// would only block the local dashboard.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NotificationMessage is the JSON envelope pushed to notification clients.
type NotificationMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Level   string `json:"level"`
}

// wsClient serializes writes to one connection. gorilla/websocket allows a
// single concurrent writer, and both the keepalive loop and Broadcast write.
type wsClient struct {
	conn *websocket.Conn

	writeMu sync.Mutex
}

func (c *wsClient) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
	return c.conn.WriteMessage(messageType, data)
}

// WebSocketManager tracks notification clients and pushes job results to
// them. With Redis available, broadcasts that find no client connected are
// parked in a mailbox and replayed on the next connect.
type WebSocketManager struct {
	mu      sync.RWMutex
	clients map[string]*wsClient

	redisClient *redis.Client
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewWebSocketManager starts the keepalive loop. redisClient may be nil;
// offline delivery is then disabled.
func NewWebSocketManager(redisClient *redis.Client) *WebSocketManager {
	ctx, cancel := context.WithCancel(context.Background())
	wm := &WebSocketManager{
		clients:     make(map[string]*wsClient),
		redisClient: redisClient,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	go wm.keepalive(ctx)
	return wm
}

// keepalive pings every client on an interval and drops the ones that
// cannot be written to.
func (wm *WebSocketManager) keepalive(ctx context.Context) {
	defer close(wm.done)

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for clientID, client := range wm.snapshot() {
			if err := client.write(websocket.PingMessage, nil); err != nil {
				log.Printf("keepalive: dropping client %s: %v", clientID, err)
				wm.remove(clientID)
				client.conn.Close()
			}
		}
	}
}

func (wm *WebSocketManager) snapshot() map[string]*wsClient {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	out := make(map[string]*wsClient, len(wm.clients))
	for id, client := range wm.clients {
		out[id] = client
	}
	return out
}

func (wm *WebSocketManager) remove(clientID string) {
	wm.mu.Lock()
	delete(wm.clients, clientID)
	wm.mu.Unlock()
}

// HandleWebSocket upgrades a notification client. The client identifies
// itself with ?client_id=; reconnecting under the same id replays whatever
// its Redis mailbox collected while it was away.
func (wm *WebSocketManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		http.Error(w, "client_id query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("HandleWebSocket: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	client := &wsClient{conn: conn}
	wm.mu.Lock()
	wm.clients[clientID] = client
	wm.mu.Unlock()
	defer func() {
		wm.remove(clientID)
		log.Printf("HandleWebSocket: client %s disconnected", clientID)
	}()
	log.Printf("HandleWebSocket: client %s connected", clientID)

	if err := wm.replayMailbox(clientID, client); err != nil {
		log.Printf("HandleWebSocket: mailbox replay for %s: %v", clientID, err)
	}

	conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	// Clients only listen; the read loop exists to process control frames
	// and notice the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("HandleWebSocket: client %s read error: %v", clientID, err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	}
}

// HandleLogSocket streams broadcast log lines to the client over WebSocket.
// Unlike the SSE stream this survives proxies that buffer plain HTTP.
func (wm *WebSocketManager) HandleLogSocket(w http.ResponseWriter, r *http.Request) {
	lg := logger.GetDefault()
	lines, unsubscribe := lg.Subscribe()
	if lines == nil {
		http.Error(w, "log stream unavailable", http.StatusInternalServerError)
		return
	}
	defer lg.Unsubscribe(unsubscribe)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("HandleLogSocket: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Drain client messages so close frames and pongs are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		}
	}
}

// Broadcast pushes a notification to every connected client. When nobody is
// connected and Redis is available, the message is parked in the offline
// mailbox instead of being lost.
func (wm *WebSocketManager) Broadcast(notificationType, message, level string) error {
	payload, err := json.Marshal(NotificationMessage{
		Type:    notificationType,
		Message: message,
		Level:   level,
	})
	if err != nil {
		return err
	}

	delivered := 0
	for clientID, client := range wm.snapshot() {
		if err := client.write(websocket.TextMessage, payload); err != nil {
			log.Printf("Broadcast: dropping client %s: %v", clientID, err)
			wm.remove(clientID)
			client.conn.Close()
			continue
		}
		delivered++
	}
	if delivered > 0 || wm.redisClient == nil {
		return nil
	}

	ctx := context.Background()
	key := mailboxKey(offlineMailbox)
	if err := wm.redisClient.LPush(ctx, key, payload).Err(); err != nil {
		return err
	}
	wm.redisClient.Expire(ctx, key, mailboxTTL)
	log.Printf("Broadcast: no clients connected, parked %s notification", notificationType)
	return nil
}

// replayMailbox pops parked notifications for clientID and writes them to
// the fresh connection, oldest first.
func (wm *WebSocketManager) replayMailbox(clientID string, client *wsClient) error {
	if wm.redisClient == nil {
		return nil
	}

	ctx := context.Background()
	key := mailboxKey(clientID)
	for {
		raw, err := wm.redisClient.RPop(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := client.write(websocket.TextMessage, []byte(raw)); err != nil {
			// Requeue so the next connect still sees it.
			wm.redisClient.LPush(ctx, key, raw)
			return err
		}
	}
}

func mailboxKey(clientID string) string {
	return "carelog:mailbox:" + clientID
}

// Stop ends the keepalive loop and closes every connection.
func (wm *WebSocketManager) Stop() {
	wm.cancel()
	<-wm.done

	wm.mu.Lock()
	for clientID, client := range wm.clients {
		client.conn.Close()
		delete(wm.clients, clientID)
	}
	wm.mu.Unlock()
}
