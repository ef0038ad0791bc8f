/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

// Clue is the single active hint of a room. Either field may be null on
// the wire.
type Clue struct {
	Text   *string `json:"clueText"`
	Option *int    `json:"clueOption"`
}

// setClue replaces the active clue. There is no history.
func (r *Room) setClue(text *string, option *int) Clue {
	c := Clue{Text: text, Option: option}
	r.clue = &c
	r.touch()

	return c
}

// getClue reads the active clue without changing it.
func (r *Room) getClue() (Clue, bool) {
	if r.clue == nil {
		return Clue{}, false
	}
	return *r.clue, true
}
