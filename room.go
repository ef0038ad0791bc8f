/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"slices"
	"time"
)

type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

func parseTeam(s string) (Team, bool) {
	switch Team(s) {
	case TeamRed, TeamBlue:
		return Team(s), true
	}
	return "", false
}

// opposite treats anything that is not blue as red, so it flips to blue.
func (t Team) opposite() Team {
	if t == TeamBlue {
		return TeamRed
	}
	return TeamBlue
}

type Role string

const (
	RoleOperative Role = "operative"
	RoleSpymaster Role = "spymaster"
)

// Roster holds the four role sequences of a room. The JSON names are the
// ones the browser client already reads.
type Roster struct {
	RedOperatives  []string `json:"redTeam"`
	RedSpymasters  []string `json:"redSpyMaster"`
	BlueOperatives []string `json:"blueTeam"`
	BlueSpymasters []string `json:"blueSpyMaster"`
}

func newRoster() Roster {
	return Roster{
		RedOperatives:  []string{},
		RedSpymasters:  []string{},
		BlueOperatives: []string{},
		BlueSpymasters: []string{},
	}
}

// slot picks the sequence for team and role. Any team other than red is
// blue; only an unknown role has no sequence.
func (r *Roster) slot(team Team, role Role) *[]string {
	red := team == TeamRed

	switch {
	case red && role == RoleOperative:
		return &r.RedOperatives
	case red && role == RoleSpymaster:
		return &r.RedSpymasters
	case role == RoleOperative:
		return &r.BlueOperatives
	case role == RoleSpymaster:
		return &r.BlueSpymasters
	}
	return nil
}

// remove drops name from all four sequences.
func (r *Roster) remove(name string) {
	for _, s := range []*[]string{&r.RedOperatives, &r.RedSpymasters, &r.BlueOperatives, &r.BlueSpymasters} {
		*s = slices.DeleteFunc(*s, func(n string) bool { return n == name })
	}
}

// assign makes name hold exactly the given team and role. The name is always
// removed from every sequence first; an unknown role leaves it unassigned
// and reports false.
func (r *Roster) assign(team Team, role Role, name string) bool {
	r.remove(name)

	s := r.slot(team, role)
	if s == nil {
		return false
	}
	*s = append(*s, name)

	return true
}

func (r *Roster) unassign(team Team, role Role, name string) bool {
	s := r.slot(team, role)
	if s == nil || !slices.Contains(*s, name) {
		return false
	}
	*s = slices.DeleteFunc(*s, func(n string) bool { return n == name })

	return true
}

// snapshot copies the sequences so a payload cannot alias live state.
func (r *Roster) snapshot() Roster {
	return Roster{
		RedOperatives:  slices.Clone(r.RedOperatives),
		RedSpymasters:  slices.Clone(r.RedSpymasters),
		BlueOperatives: slices.Clone(r.BlueOperatives),
		BlueSpymasters: slices.Clone(r.BlueSpymasters),
	}
}

func (r *Roster) holds(name string) int {
	n := 0
	for _, s := range [][]string{r.RedOperatives, r.RedSpymasters, r.BlueOperatives, r.BlueSpymasters} {
		for _, v := range s {
			if v == name {
				n++
			}
		}
	}
	return n
}

type Participant struct {
	ConnID string
	Name   string
}

// Room is the whole per-room record: membership, board, clue and turn share
// one lifecycle, so deleting a room drops all of them together.
type Room struct {
	ID           string
	Roster       Roster
	participants []Participant

	board    Board
	hasBoard bool
	clue     *Clue
	turn     Team

	createdAt  time.Time
	lastActive time.Time
}

func newRoom(id string) *Room {
	now := time.Now()
	return &Room{
		ID:         id,
		Roster:     newRoster(),
		createdAt:  now,
		lastActive: now,
	}
}

func (r *Room) touch() {
	r.lastActive = time.Now()
}

// connect records connID as attached to the room, or renames it if it is
// already attached.
func (r *Room) connect(connID, name string) {
	for i := range r.participants {
		if r.participants[i].ConnID == connID {
			r.participants[i].Name = name
			return
		}
	}
	r.participants = append(r.participants, Participant{ConnID: connID, Name: name})
}

// disconnect detaches connID and returns the display name it was using.
func (r *Room) disconnect(connID string) (string, bool) {
	for i, p := range r.participants {
		if p.ConnID == connID {
			r.participants = slices.Delete(r.participants, i, i+1)
			return p.Name, true
		}
	}
	return "", false
}

func (r *Room) rename(connID, name string) {
	for i := range r.participants {
		if r.participants[i].ConnID == connID {
			r.participants[i].Name = name
			return
		}
	}
}

func (r *Room) connected(connID string) bool {
	return slices.ContainsFunc(r.participants, func(p Participant) bool { return p.ConnID == connID })
}

func (r *Room) empty() bool {
	return len(r.participants) == 0
}

func (r *Room) connectedNames() []string {
	names := make([]string, 0, len(r.participants))
	for _, p := range r.participants {
		names = append(names, p.Name)
	}
	return names
}

// RoomSnapshot is the membership view sent to a participant when it attaches.
type RoomSnapshot struct {
	Roster
	ConnectedUsers []string `json:"connectedUsers"`
}

func (r *Room) snapshot() RoomSnapshot {
	return RoomSnapshot{
		Roster:         r.Roster.snapshot(),
		ConnectedUsers: r.connectedNames(),
	}
}
