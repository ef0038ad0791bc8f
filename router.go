/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

type handler func(connID string, data json.RawMessage) error

// route pairs a handler with the message sent back to the caller when it
// fails. Most events fail silently.
type route struct {
	handle  handler
	failure string
}

func (e *Engine) newRoutes() map[string]route {
	return map[string]route{
		EventJoinSocketRoom:     {handle: e.handleJoinSocketRoom},
		EventInitializeWordList: {handle: e.handleInitializeWordList},
		EventUpdateWordState:    {handle: e.handleUpdateWordState},
		EventInitializeClue:     {handle: e.handleInitializeClue},
		EventGetClue:            {handle: e.handleGetClue},
		EventUpdateTeamTurn:     {handle: e.handleUpdateTeamTurn},
		EventJoinRoom:           {handle: e.handleJoinRoom, failure: "Failed to join room"},
		EventLeaveRoom:          {handle: e.handleLeaveRoom},
		EventRoomInfo:           {handle: e.handleRoomInfo},
		EventAdd:                {handle: e.relayToAll(EventAdd)},
		EventMinus:              {handle: e.relayToAll(EventMinus)},
		EventMessage:            {handle: e.handleMessage},
		EventDisconnect:         {handle: e.handleDisconnect},
	}
}

func (e *Engine) handleJoinSocketRoom(connID string, data json.RawMessage) error {
	var req joinSocketRoomRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.RoomID == "" {
		return fmt.Errorf("%w: roomId", ErrMissingField)
	}

	// A connection belongs to one room at a time.
	if prev, ok := e.registry.roomOf(connID); ok && prev.ID != req.RoomID {
		e.depart(connID, prev)
	}

	room, created := e.registry.ensure(req.RoomID)
	if created {
		log.Info().Str("room", room.ID).Msg("ROOMS: Created")
	}

	e.transport.Join(connID, room.ID)
	room.connect(connID, req.NickName)
	room.touch()
	e.registry.attach(connID, room.ID)

	log.Info().Str("room", room.ID).Str("conn", connID).Str("nick", req.NickName).Msg("ROOMS: Participant attached")

	e.transport.EmitToSocket(connID, EventInitialState, room.snapshot())

	return nil
}

func (e *Engine) handleInitializeWordList(connID string, data json.RawMessage) error {
	var req wordListRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.RoomID == "" {
		return fmt.Errorf("%w: roomId", ErrMissingField)
	}

	room, _ := e.registry.ensure(req.RoomID)
	board := room.setBoard(req.WordList)
	logBoard(room.ID, connID, board)

	e.transport.EmitToGroup(room.ID, EventInitialWordList, wordListMessage{WordList: board})

	return nil
}

func (e *Engine) handleUpdateWordState(connID string, data json.RawMessage) error {
	var req wordStateRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.RoomID == "" {
		return fmt.Errorf("%w: roomId", ErrMissingField)
	}

	room, _ := e.registry.ensure(req.RoomID)
	board := room.setBoard(req.UpdatedWords)

	log.Debug().Str("room", room.ID).Str("nick", req.NickName).Interface("card", req.CardID).Msg("BOARD: Card changed")
	logBoard(room.ID, connID, board)

	e.transport.EmitToGroup(room.ID, EventUpdateWordList, wordListMessage{WordList: board})

	return nil
}

func logBoard(roomID, connID string, b Board) {
	cards, err := b.Cards()
	if err != nil {
		log.Debug().Str("room", roomID).Str("conn", connID).Err(err).Msgf("BOARD: Stored %s of undecodable board", humanReadableSize(int64(len(b))))
		return
	}
	log.Debug().Str("room", roomID).Str("conn", connID).Int("cards", len(cards)).Msgf("BOARD: Stored %s", humanReadableSize(int64(len(b))))
}

func (e *Engine) handleInitializeClue(connID string, data json.RawMessage) error {
	var req clueRequest
	if err := decode(data, &req); err != nil {
		return err
	}

	switch {
	case req.RoomID == "":
		return fmt.Errorf("%w: roomId", ErrMissingField)
	case req.ClueText == nil || *req.ClueText == "":
		return fmt.Errorf("%w: clueText", ErrMissingField)
	}

	option, err := req.option()
	if err != nil {
		return err
	}

	room, _ := e.registry.ensure(req.RoomID)
	clue := room.setClue(req.ClueText, option)

	log.Info().Str("room", room.ID).Str("conn", connID).Str("clue", *clue.Text).Interface("option", clue.Option).Msg("CLUES: Set")

	e.transport.EmitToGroup(room.ID, EventInitialClue, clue)

	return nil
}

// handleGetClue re-broadcasts the active clue. It only reads; the stored clue
// is never cleared by it.
func (e *Engine) handleGetClue(connID string, data json.RawMessage) error {
	var req roomRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.RoomID == "" {
		return fmt.Errorf("%w: roomId", ErrMissingField)
	}

	room, ok := e.registry.lookup(req.RoomID)
	if !ok {
		return nil
	}

	clue, _ := room.getClue()
	e.transport.EmitToGroup(room.ID, EventInitialClue, clue)

	return nil
}

func (e *Engine) handleUpdateTeamTurn(connID string, data json.RawMessage) error {
	var req turnRequest
	if err := decode(data, &req); err != nil {
		return err
	}

	switch {
	case req.RoomID == "":
		return fmt.Errorf("%w: roomId", ErrMissingField)
	case req.Team == "":
		return fmt.Errorf("%w: team", ErrMissingField)
	}

	claimed := Team(req.Team)
	if !e.cfg.trustTurn {
		var ok bool
		if claimed, ok = parseTeam(req.Team); !ok {
			return fmt.Errorf("%w: team %q", ErrInvalidField, req.Team)
		}
	}

	room, _ := e.registry.ensure(req.RoomID)

	next, err := room.flipTurn(claimed, e.cfg.trustTurn)
	if errors.Is(err, ErrTurnMismatch) {
		// Resync the caller only; the room already has the right value.
		e.transport.EmitToSocket(connID, EventUpdatedTeamTurn, turnMessage{Team: next})
		return fmt.Errorf("%w: claimed %s, holding %s", err, claimed, next)
	}

	log.Info().Str("room", room.ID).Str("conn", connID).Str("team", string(next)).Msg("TURNS: Flipped")

	e.transport.EmitToGroup(room.ID, EventUpdatedTeamTurn, turnMessage{Team: next})

	return nil
}

func (e *Engine) handleJoinRoom(connID string, data json.RawMessage) error {
	var req membershipRequest
	if err := decode(data, &req); err != nil {
		return err
	}

	switch {
	case req.RoomID == "":
		return fmt.Errorf("%w: roomId", ErrMissingField)
	case req.NickName == "":
		return fmt.Errorf("%w: nickName", ErrMissingField)
	}

	room, _ := e.registry.ensure(req.RoomID)

	if !room.Roster.assign(Team(req.Team), Role(req.Type), req.NickName) {
		log.Debug().Str("room", room.ID).Str("type", req.Type).Msg("ROLES: Unrecognized role, left unassigned")
	}
	room.rename(connID, req.NickName)
	room.touch()

	log.Info().Str("room", room.ID).Str("conn", connID).Str("nick", req.NickName).Str("team", req.Team).Str("type", req.Type).Msg("ROLES: Assigned")

	e.transport.EmitToGroupExcept(room.ID, connID, EventNewUser, newUserMessage{
		UserID:   connID,
		Team:     req.Team,
		Type:     req.Type,
		NickName: req.NickName,
	})

	e.transport.EmitToGroup(room.ID, EventRoomInfo, roomInfoMessage{
		RoomID:  room.ID,
		Clients: e.transport.GroupMembers(room.ID),
		Roster:  room.Roster.snapshot(),
	})

	e.transport.EmitToSocket(connID, EventJoinConfirmed, joinConfirmedMessage{RoomID: room.ID})

	return nil
}

func (e *Engine) handleLeaveRoom(connID string, data json.RawMessage) error {
	var req membershipRequest
	if err := decode(data, &req); err != nil {
		return err
	}

	room, ok := e.registry.lookup(req.RoomID)
	if !ok {
		return nil
	}

	if room.Roster.unassign(Team(req.Team), Role(req.Type), req.NickName) {
		log.Info().Str("room", room.ID).Str("conn", connID).Str("nick", req.NickName).Msg("ROLES: Released")
	}
	room.touch()

	e.transport.EmitToGroup(room.ID, EventRoomState, roomStateMessage{
		RoomID:       room.ID,
		RoomSnapshot: room.snapshot(),
	})

	return nil
}

func (e *Engine) handleRoomInfo(connID string, data json.RawMessage) error {
	log.Info().Str("conn", connID).RawJSON("data", nonEmpty(data)).Msg("ROOMS: Client room info")
	return nil
}

func (e *Engine) handleMessage(connID string, _ json.RawMessage) error {
	for id := range e.registry.rooms {
		members := e.transport.GroupMembers(id)
		log.Debug().Str("room", id).Int("clients", len(members)).Strs("members", members).Msg("ROOMS: Membership")
	}
	return nil
}

// relayToAll echoes the payload verbatim to every connection in every room,
// the sender included.
func (e *Engine) relayToAll(event string) handler {
	return func(connID string, data json.RawMessage) error {
		e.transport.EmitToAll(event, json.RawMessage(nonEmpty(data)))
		return nil
	}
}

func (e *Engine) handleDisconnect(connID string, _ json.RawMessage) error {
	log.Info().Str("conn", connID).Msg("SOCKETS: Disconnected")

	room, ok := e.registry.roomOf(connID)
	if !ok {
		return nil
	}
	e.depart(connID, room)

	return nil
}

// depart detaches connID from room, releases the name it played under and
// deletes the room once nobody is left attached.
func (e *Engine) depart(connID string, room *Room) {
	name, _ := room.disconnect(connID)
	e.registry.detach(connID)
	e.transport.Leave(connID, room.ID)

	room.Roster.remove(name)
	room.touch()

	e.transport.EmitToGroup(room.ID, EventUserDisconnected, userDisconnectedMessage{
		UserID:   connID,
		NickName: name,
		RoomID:   room.ID,
		Roster:   room.Roster.snapshot(),
	})

	if room.empty() {
		e.registry.remove(room.ID)
		log.Info().Str("room", room.ID).Msg("ROOMS: Deleted empty room")
	}
}

func nonEmpty(data json.RawMessage) json.RawMessage {
	if len(data) == 0 {
		return json.RawMessage("null")
	}
	return data
}
