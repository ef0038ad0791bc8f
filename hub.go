/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	writeWait          = 10 * time.Second
	rateLimitedMessage = "Rate limit exceeded"
)

// eventSink receives what clients send. The engine is the only implementation.
type eventSink interface {
	Submit(ctx context.Context, connID, event string, data json.RawMessage) error
	Disconnect(ctx context.Context, connID string) error
}

type Client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	limiter   *rate.Limiter
	closeOnce sync.Once
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// Hub tracks every open websocket and the rooms (groups) each one joined.
// It implements Transport.
type Hub struct {
	cfg      *Config
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*Client
	groups  map[string]map[string]*Client
}

func newHub(cfg *Config) *Hub {
	h := &Hub{
		cfg:     cfg,
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]*Client),
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.cfg.allowedOrigins) == 0 {
		return true
	}

	return slices.Contains(h.cfg.allowedOrigins, r.Header.Get("Origin"))
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.id] = c
}

// unregister forgets c everywhere and closes its send queue. It is safe to
// call more than once.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	if cur, ok := h.clients[c.id]; ok && cur == c {
		delete(h.clients, c.id)
	}

	for group, members := range h.groups {
		if _, ok := members[c.id]; ok {
			delete(members, c.id)
			if len(members) == 0 {
				delete(h.groups, group)
			}
		}
	}

	c.close()
}

func (h *Hub) Join(connID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return
	}

	if h.groups[group] == nil {
		h.groups[group] = make(map[string]*Client)
	}
	h.groups[group][connID] = c
}

func (h *Hub) Leave(connID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.groups[group]
	if !ok {
		return
	}

	delete(members, connID)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

func (h *Hub) GroupMembers(group string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.groups[group]))
	for id := range h.groups[group] {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}

func (h *Hub) EmitToSocket(connID, event string, payload any) {
	msg, ok := encode(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	c, found := h.clients[connID]
	h.mu.RUnlock()

	if found {
		h.deliver([]*Client{c}, msg)
	}
}

func (h *Hub) EmitToGroup(group, event string, payload any) {
	h.EmitToGroupExcept(group, "", event, payload)
}

func (h *Hub) EmitToGroupExcept(group, exceptConnID, event string, payload any) {
	msg, ok := encode(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.groups[group]))
	for id, c := range h.groups[group] {
		if id != exceptConnID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	h.deliver(targets, msg)
}

func (h *Hub) EmitToAll(event string, payload any) {
	msg, ok := encode(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	h.deliver(targets, msg)
}

// deliver queues msg without blocking. A client whose queue is full is
// dropped so one slow reader cannot stall a room.
func (h *Hub) deliver(targets []*Client, msg []byte) {
	var slow []*Client

	h.mu.RLock()
	for _, c := range targets {
		if cur, ok := h.clients[c.id]; !ok || cur != c {
			continue
		}
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}

	h.mu.Lock()
	for _, c := range slow {
		log.Warn().Str("conn", c.id).Msg("SOCKETS: Send queue full, dropping connection")
		h.removeLocked(c)
	}
	h.mu.Unlock()
}

func (h *Hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.clients {
		h.removeLocked(c)
	}
}

func encode(event string, payload any) ([]byte, bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Str("event", event).Err(err).Msg("SOCKETS: Unable to encode payload")
		return nil, false
	}

	msg, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		log.Error().Str("event", event).Err(err).Msg("SOCKETS: Unable to encode envelope")
		return nil, false
	}

	return msg, true
}

func serveWS(ctx context.Context, cfg *Config, h *Hub, sink eventSink) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Str("ip", realIP(r)).Err(err).Msg("SOCKETS: Upgrade failed")
			return
		}
		conn.SetReadLimit(cfg.maxMessageSize)

		client := &Client{
			id:   uuid.NewString(),
			conn: conn,
			send: make(chan []byte, cfg.sendBuffer),
		}
		if cfg.rateLimit > 0 {
			client.limiter = rate.NewLimiter(rate.Limit(cfg.rateLimit), cfg.rateBurst)
		}

		h.register(client)

		log.Info().Str("conn", client.id).Str("ip", realIP(r)).Msg("SOCKETS: Connected")

		go client.writePump(cfg)
		client.readPump(ctx, cfg, h, sink)
	}
}

func (c *Client) readPump(ctx context.Context, cfg *Config, h *Hub, sink eventSink) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()

		if err := sink.Disconnect(ctx, c.id); err != nil {
			log.Debug().Str("conn", c.id).Err(err).Msg("SOCKETS: Disconnect not delivered")
		}
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.pongWait()))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Str("conn", c.id).Err(err).Msg("SOCKETS: Read failed")
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			log.Warn().Str("conn", c.id).Err(ErrMalformedPayload).Msg("SOCKETS: Dropped frame")
			continue
		}

		// Disconnects only ever come from the transport itself.
		if env.Event == EventDisconnect {
			continue
		}

		if !c.admit(ctx, env.Event) {
			log.Warn().Str("conn", c.id).Str("event", env.Event).Err(ErrRateLimited).Msg("SOCKETS: Dropped frame")
			h.EmitToSocket(c.id, EventError, errorMessage{Message: rateLimitedMessage})
			continue
		}

		if err := sink.Submit(ctx, c.id, env.Event, env.Data); err != nil {
			return
		}
	}
}

// admit applies the connection's rate limit to one event. Events that
// replace room state wait up to writeWait for a token; anything else is
// dropped as soon as the limit is hit.
func (c *Client) admit(ctx context.Context, event string) bool {
	if c.limiter == nil {
		return true
	}
	if !replacesState(event) {
		return c.limiter.Allow()
	}

	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()

	return c.limiter.Wait(ctx) == nil
}

func (c *Client) writePump(cfg *Config) {
	ticker := time.NewTicker(cfg.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
