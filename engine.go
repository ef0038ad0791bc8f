/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
)

// Transport is the group-messaging capability the engine needs from the
// connection layer. Payloads are encoded once per call, so every recipient
// of a group emit gets the same bytes.
type Transport interface {
	Join(connID, group string)
	Leave(connID, group string)
	EmitToSocket(connID, event string, payload any)
	EmitToGroup(group, event string, payload any)
	EmitToGroupExcept(group, exceptConnID, event string, payload any)
	EmitToAll(event string, payload any)
	GroupMembers(group string) []string
}

type inbound struct {
	connID string
	event  string
	data   json.RawMessage
}

type Stats struct {
	Rooms        int       `json:"rooms"`
	Participants int       `json:"participants"`
	Events       uint64    `json:"events"`
	StartedAt    time.Time `json:"started_at"`
}

// Engine owns every room. All events from every connection pass through its
// single mailbox and run one at a time, so handlers never need locks.
type Engine struct {
	cfg       *Config
	transport Transport
	registry  *Registry
	routes    map[string]route

	inbox   chan inbound
	queries chan chan Stats

	processed uint64
	startedAt time.Time
}

func newEngine(cfg *Config, transport Transport) *Engine {
	e := &Engine{
		cfg:       cfg,
		transport: transport,
		registry:  newRegistry(),
		inbox:     make(chan inbound, 1024),
		queries:   make(chan chan Stats),
		startedAt: time.Now(),
	}
	e.routes = e.newRoutes()

	return e
}

func (e *Engine) Run(ctx context.Context) {
	var reap <-chan time.Time
	if e.cfg.roomIdleTimeout > 0 {
		ticker := time.NewTicker(max(e.cfg.roomIdleTimeout/2, minRoomIdleTimeout/2))
		defer ticker.Stop()
		reap = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case in := <-e.inbox:
			e.dispatch(in)
		case reply := <-e.queries:
			reply <- e.stats()
		case now := <-reap:
			e.reap(now)
		}
	}
}

// reap removes rooms that nobody is attached to and that have seen no
// activity for longer than the idle timeout. Such rooms are only ever
// created by board, clue or turn events for a room nobody joined.
func (e *Engine) reap(now time.Time) int {
	cutoff := now.Add(-e.cfg.roomIdleTimeout)

	reaped := 0
	for id, room := range e.registry.rooms {
		if !room.empty() || !room.lastActive.Before(cutoff) {
			continue
		}

		e.registry.remove(id)
		reaped++

		log.Info().Str("room", id).Dur("age", now.Sub(room.createdAt)).Msg("ROOMS: Reaped idle room")
	}

	return reaped
}

// Submit queues an event from connID. Events from one connection are handled
// in the order they are submitted.
func (e *Engine) Submit(ctx context.Context, connID, event string, data json.RawMessage) error {
	select {
	case e.inbox <- inbound{connID: connID, event: event, data: data}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect queues the departure of connID behind its pending events.
func (e *Engine) Disconnect(ctx context.Context, connID string) error {
	return e.Submit(ctx, connID, EventDisconnect, nil)
}

func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)

	select {
	case e.queries <- reply:
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}

	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

func (e *Engine) stats() Stats {
	return Stats{
		Rooms:        len(e.registry.rooms),
		Participants: e.registry.participants(),
		Events:       e.processed,
		StartedAt:    e.startedAt,
	}
}

// dispatch runs one event to completion. A failing or panicking handler is
// logged and dropped; the connection stays usable.
func (e *Engine) dispatch(in inbound) {
	e.processed++

	r, ok := e.routes[in.event]
	if !ok {
		log.Debug().Str("conn", in.connID).Str("event", in.event).Err(ErrUnknownEvent).Msg("EVENT: ignored")
		return
	}

	defer func() {
		if v := recover(); v != nil {
			log.Error().
				Str("conn", in.connID).
				Str("event", in.event).
				Str("stack", string(debug.Stack())).
				Msgf("EVENT: handler panicked: %v", v)
			e.fail(in, r)
		}
	}()

	if err := r.handle(in.connID, in.data); err != nil {
		log.Warn().Str("conn", in.connID).Str("event", in.event).Err(err).Msg("EVENT: rejected")
		e.fail(in, r)
	}
}

func (e *Engine) fail(in inbound, r route) {
	if r.failure == "" {
		return
	}
	e.transport.EmitToSocket(in.connID, EventError, errorMessage{Message: r.failure})
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty", ErrMalformedPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}
