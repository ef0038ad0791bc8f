/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

// flipTurn hands the turn to the team opposite claimed.
//
// With trust set, the claim is taken at face value. Otherwise the stored turn
// is authoritative: a claim that does not match it is refused and the stored
// value is returned with ErrTurnMismatch. The first flip of a room seeds
// from the claim.
func (r *Room) flipTurn(claimed Team, trust bool) (Team, error) {
	if !trust && r.turn != "" && r.turn != claimed {
		return r.turn, ErrTurnMismatch
	}

	r.turn = claimed.opposite()
	r.touch()

	return r.turn, nil
}

func (r *Room) currentTurn() (Team, bool) {
	return r.turn, r.turn != ""
}

type turnMessage struct {
	Team Team `json:"team"`
}
