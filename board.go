/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
)

// Board is the word list exactly as the client sent it. It is relayed
// byte-for-byte, so the server never re-encodes it.
type Board json.RawMessage

func (b Board) MarshalJSON() ([]byte, error) {
	if len(b) == 0 {
		return []byte("null"), nil
	}
	return b, nil
}

func (b *Board) UnmarshalJSON(data []byte) error {
	*b = append((*b)[:0], data...)
	return nil
}

// Card is one entry of a board as the client draws it. It is only decoded
// for diagnostics; boards that do not fit it are still stored.
type Card struct {
	ID        any      `json:"id"`
	Word      string   `json:"word"`
	Selectors []string `json:"selectors,omitempty"`
}

// Cards decodes the board into cards.
func (b Board) Cards() ([]Card, error) {
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}

	var cards []Card
	if err := json.Unmarshal(b, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// setBoard replaces the current board. Clients always send the complete
// recomputed board; empty and null boards are stored as they are.
func (r *Room) setBoard(b Board) Board {
	r.board = b
	r.hasBoard = true
	r.touch()

	return r.board
}

func (r *Room) currentBoard() (Board, bool) {
	return r.board, r.hasBoard
}

type wordListMessage struct {
	WordList Board `json:"wordList"`
}
