/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

// Registry maps room ids to rooms and connections to the room they are
// attached to. It is owned by the engine goroutine and has no locking of
// its own.
type Registry struct {
	rooms    map[string]*Room
	memberOf map[string]string
}

func newRegistry() *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		memberOf: make(map[string]string),
	}
}

// ensure returns the room, creating it on first reference.
func (g *Registry) ensure(roomID string) (*Room, bool) {
	if room, ok := g.rooms[roomID]; ok {
		return room, false
	}

	room := newRoom(roomID)
	g.rooms[roomID] = room

	return room, true
}

func (g *Registry) lookup(roomID string) (*Room, bool) {
	room, ok := g.rooms[roomID]
	return room, ok
}

// remove deletes the room together with its board, clue and turn.
func (g *Registry) remove(roomID string) {
	room, ok := g.rooms[roomID]
	if !ok {
		return
	}

	for _, p := range room.participants {
		delete(g.memberOf, p.ConnID)
	}
	delete(g.rooms, roomID)
}

func (g *Registry) attach(connID, roomID string) {
	g.memberOf[connID] = roomID
}

func (g *Registry) detach(connID string) {
	delete(g.memberOf, connID)
}

// roomOf finds the single room connID is attached to.
func (g *Registry) roomOf(connID string) (*Room, bool) {
	roomID, ok := g.memberOf[connID]
	if !ok {
		return nil, false
	}
	return g.lookup(roomID)
}

func (g *Registry) participants() int {
	return len(g.memberOf)
}
