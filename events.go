/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"fmt"
)

// Client to server.
const (
	EventJoinSocketRoom     = "join-socket-room"
	EventInitializeWordList = "initialize-word-list"
	EventUpdateWordState    = "update-word-state"
	EventInitializeClue     = "initialize-clue-name"
	EventGetClue            = "get-clue-word"
	EventUpdateTeamTurn     = "update-team-turn"
	EventJoinRoom           = "join-room"
	EventLeaveRoom          = "leave-room"
	EventRoomInfo           = "room-info"
	EventAdd                = "add"
	EventMinus              = "minus"
	EventMessage            = "message"
	EventDisconnect         = "disconnect"
)

// Server to client.
const (
	EventInitialState     = "initial-state"
	EventInitialWordList  = "initial-word-list"
	EventUpdateWordList   = "update-word-list"
	EventInitialClue      = "initial-clue-word"
	EventUpdatedTeamTurn  = "updated-team-turn"
	EventNewUser          = "new-user"
	EventJoinConfirmed    = "join-confirmed"
	EventUserDisconnected = "user-disconnected"
	EventRoomState        = "room-state"
	EventError            = "error"
)

// replacesState reports whether event overwrites shared room state, so
// losing it would leave the sender out of step with the room.
func replacesState(event string) bool {
	switch event {
	case EventJoinSocketRoom, EventInitializeWordList, EventUpdateWordState,
		EventInitializeClue, EventUpdateTeamTurn, EventJoinRoom, EventLeaveRoom:
		return true
	}
	return false
}

// Envelope is one websocket text frame in either direction.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type joinSocketRoomRequest struct {
	RoomID   string `json:"roomId"`
	NickName string `json:"nickName"`
}

type wordListRequest struct {
	RoomID   string `json:"roomId"`
	WordList Board  `json:"wordList"`
}

type wordStateRequest struct {
	RoomID       string `json:"roomId"`
	CardID       any    `json:"cardId"`
	NickName     string `json:"nickName"`
	UpdatedWords Board  `json:"updatedWords"`
}

// clueRequest keeps clueOption raw so an explicit null can be told apart
// from a missing field.
type clueRequest struct {
	RoomID     string          `json:"roomId"`
	ClueText   *string         `json:"clueText"`
	ClueOption json.RawMessage `json:"clueOption"`
}

// option returns the clue option, nil when the field was left out.
func (r clueRequest) option() (*int, error) {
	if r.ClueOption == nil {
		return nil, nil
	}
	if string(r.ClueOption) == "null" {
		return nil, fmt.Errorf("%w: clueOption", ErrMissingField)
	}

	var n int
	if err := json.Unmarshal(r.ClueOption, &n); err != nil {
		return nil, fmt.Errorf("%w: clueOption: %v", ErrInvalidField, err)
	}
	return &n, nil
}

type roomRequest struct {
	RoomID string `json:"roomId"`
}

type turnRequest struct {
	RoomID string `json:"roomId"`
	Team   string `json:"team"`
}

type membershipRequest struct {
	RoomID   string `json:"roomId"`
	Team     string `json:"team"`
	Type     string `json:"type"`
	NickName string `json:"nickName"`
}

type newUserMessage struct {
	UserID   string `json:"userId"`
	Team     string `json:"team"`
	Type     string `json:"type"`
	NickName string `json:"nickName"`
}

type roomInfoMessage struct {
	RoomID  string   `json:"roomId"`
	Clients []string `json:"clients"`
	Roster
}

type roomStateMessage struct {
	RoomID string `json:"roomId"`
	RoomSnapshot
}

type joinConfirmedMessage struct {
	RoomID string `json:"roomId"`
}

type userDisconnectedMessage struct {
	UserID   string `json:"userId"`
	NickName string `json:"nickName"`
	RoomID   string `json:"roomId"`
	Roster
}

type errorMessage struct {
	Message string `json:"message"`
}
