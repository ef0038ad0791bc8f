/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoster_AssignIsExclusive(t *testing.T) {
	moves := []struct {
		team Team
		role Role
	}{
		{TeamRed, RoleOperative},
		{TeamBlue, RoleSpymaster},
		{TeamRed, RoleSpymaster},
		{TeamBlue, RoleOperative},
		{TeamRed, RoleOperative},
		{TeamRed, RoleOperative},
	}

	r := newRoster()
	r.assign(TeamBlue, RoleOperative, "Bob")

	for _, mv := range moves {
		require.True(t, r.assign(mv.team, mv.role, "Alice"))
		assert.Equal(t, 1, r.holds("Alice"), "after %s/%s", mv.team, mv.role)
		assert.Contains(t, *r.slot(mv.team, mv.role), "Alice")
	}

	assert.Equal(t, 1, r.holds("Bob"))
}

func TestRoster_AssignUnknownRole(t *testing.T) {
	tests := []struct {
		name string
		team Team
		role Role
	}{
		{name: "unknown role", team: TeamRed, role: "captain"},
		{name: "empty role", team: TeamBlue, role: ""},
		{name: "unknown team and role", team: "green", role: "captain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRoster()
			r.assign(TeamRed, RoleOperative, "Alice")

			assert.False(t, r.assign(tt.team, tt.role, "Alice"))
			assert.Equal(t, 0, r.holds("Alice"))
		})
	}
}

func TestRoster_NonRedTeamsAreBlue(t *testing.T) {
	tests := []struct {
		name string
		team Team
		role Role
		want func(r Roster) []string
	}{
		{name: "capitalised blue", team: "Blue", role: RoleOperative, want: func(r Roster) []string { return r.BlueOperatives }},
		{name: "upper case", team: "BLUE", role: RoleSpymaster, want: func(r Roster) []string { return r.BlueSpymasters }},
		{name: "capitalised red", team: "Red", role: RoleOperative, want: func(r Roster) []string { return r.BlueOperatives }},
		{name: "empty", team: "", role: RoleOperative, want: func(r Roster) []string { return r.BlueOperatives }},
		{name: "red", team: TeamRed, role: RoleSpymaster, want: func(r Roster) []string { return r.RedSpymasters }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRoster()

			require.True(t, r.assign(tt.team, tt.role, "Alice"))
			assert.Equal(t, []string{"Alice"}, tt.want(r))
			assert.Equal(t, 1, r.holds("Alice"))

			require.True(t, r.unassign(tt.team, tt.role, "Alice"))
			assert.Equal(t, 0, r.holds("Alice"))
		})
	}
}

func TestRoster_Unassign(t *testing.T) {
	r := newRoster()
	r.assign(TeamRed, RoleSpymaster, "Alice")
	r.assign(TeamRed, RoleSpymaster, "Carol")

	assert.False(t, r.unassign(TeamRed, RoleOperative, "Alice"))
	assert.Equal(t, []string{"Alice", "Carol"}, r.RedSpymasters)

	assert.True(t, r.unassign(TeamRed, RoleSpymaster, "Alice"))
	assert.Equal(t, []string{"Carol"}, r.RedSpymasters)

	assert.False(t, r.unassign(TeamRed, RoleSpymaster, "Alice"))
}

func TestRoster_EncodesEmptySequences(t *testing.T) {
	r := newRoster()
	r.assign(TeamRed, RoleOperative, "Alice")
	r.remove("Alice")

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"redTeam":[],"redSpyMaster":[],"blueTeam":[],"blueSpyMaster":[]}`, string(data))
}

func TestRoster_SnapshotDoesNotAlias(t *testing.T) {
	r := newRoster()
	r.assign(TeamBlue, RoleOperative, "Bob")

	snap := r.snapshot()
	r.assign(TeamBlue, RoleOperative, "Dave")
	r.remove("Bob")

	assert.Equal(t, []string{"Bob"}, snap.BlueOperatives)
}

func TestRoom_Participants(t *testing.T) {
	room := newRoom("R1")
	assert.True(t, room.empty())

	room.connect("c1", "Alice")
	room.connect("c2", "Bob")
	room.connect("c1", "Alicia")

	assert.Equal(t, []string{"Alicia", "Bob"}, room.connectedNames())
	assert.True(t, room.connected("c2"))

	name, ok := room.disconnect("c1")
	require.True(t, ok)
	assert.Equal(t, "Alicia", name)

	_, ok = room.disconnect("c1")
	assert.False(t, ok)
	assert.False(t, room.empty())

	room.rename("c2", "Robert")
	assert.Equal(t, []string{"Robert"}, room.connectedNames())
}

func TestRoom_FlipTurnCycles(t *testing.T) {
	for _, trust := range []bool{false, true} {
		room := newRoom("R1")

		team := TeamBlue
		want := []Team{TeamRed, TeamBlue, TeamRed, TeamBlue, TeamRed}
		for i, w := range want {
			next, err := room.flipTurn(team, trust)
			require.NoError(t, err, "trust=%v step %d", trust, i)
			assert.Equal(t, w, next, "trust=%v step %d", trust, i)
			team = next
		}
	}
}

func TestRoom_FlipTurnAuthoritative(t *testing.T) {
	room := newRoom("R1")

	next, err := room.flipTurn(TeamBlue, false)
	require.NoError(t, err)
	assert.Equal(t, TeamRed, next)

	// A stale client still believes blue holds the turn.
	next, err = room.flipTurn(TeamBlue, false)
	assert.ErrorIs(t, err, ErrTurnMismatch)
	assert.Equal(t, TeamRed, next)

	cur, ok := room.currentTurn()
	require.True(t, ok)
	assert.Equal(t, TeamRed, cur)
}

func TestRoom_FlipTurnTrusted(t *testing.T) {
	room := newRoom("R1")

	_, err := room.flipTurn(TeamBlue, true)
	require.NoError(t, err)

	next, err := room.flipTurn(TeamBlue, true)
	require.NoError(t, err)
	assert.Equal(t, TeamRed, next)

	next, err = room.flipTurn("green", true)
	require.NoError(t, err)
	assert.Equal(t, TeamBlue, next)
}

func TestRoom_Clue(t *testing.T) {
	room := newRoom("R1")

	_, ok := room.getClue()
	assert.False(t, ok)

	text, option := "animal", 3
	room.setClue(&text, &option)

	clue, ok := room.getClue()
	require.True(t, ok)
	assert.Equal(t, "animal", *clue.Text)
	assert.Equal(t, 3, *clue.Option)

	text2, option2 := "river", 2
	room.setClue(&text2, &option2)

	clue, _ = room.getClue()
	assert.Equal(t, "river", *clue.Text)
	assert.Equal(t, 2, *clue.Option)

	data, err := json.Marshal(Clue{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"clueText":null,"clueOption":null}`, string(data))
}

func TestBoard_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		cards int
	}{
		{
			name:  "cards",
			input: `{"roomId":"R1","wordList":[{"id":1,"word":"apple","selectors":["Alice"],"color":"red"},{"id":2,"word":"pear"}]}`,
			want:  `[{"id":1,"word":"apple","selectors":["Alice"],"color":"red"},{"id":2,"word":"pear"}]`,
			cards: 2,
		},
		{
			name:  "empty",
			input: `{"roomId":"R1","wordList":[]}`,
			want:  `[]`,
		},
		{
			name:  "null",
			input: `{"roomId":"R1","wordList":null}`,
			want:  `null`,
		},
		{
			name:  "absent",
			input: `{"roomId":"R1"}`,
			want:  `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req wordListRequest
			require.NoError(t, json.Unmarshal([]byte(tt.input), &req))

			room := newRoom("R1")
			room.setBoard(req.WordList)

			b, ok := room.currentBoard()
			require.True(t, ok)

			data, err := json.Marshal(wordListMessage{WordList: b})
			require.NoError(t, err)
			assert.JSONEq(t, `{"wordList":`+tt.want+`}`, string(data))

			cards, err := b.Cards()
			require.NoError(t, err)
			assert.Len(t, cards, tt.cards)
		})
	}
}

func TestBoard_CardsOfForeignShape(t *testing.T) {
	b := Board(`{"not":"a list"}`)

	_, err := b.Cards()
	assert.Error(t, err)
}

func TestParseTeam(t *testing.T) {
	team, ok := parseTeam("red")
	assert.True(t, ok)
	assert.Equal(t, TeamRed, team)

	_, ok = parseTeam("Red")
	assert.False(t, ok)

	assert.Equal(t, TeamRed, TeamBlue.opposite())
	assert.Equal(t, TeamBlue, TeamRed.opposite())
}

func TestHumanReadableSize(t *testing.T) {
	assert.Equal(t, "999 B", humanReadableSize(999))
	assert.Equal(t, "1.5 kB", humanReadableSize(1500))
	assert.Equal(t, "2.5 MB", humanReadableSize(2_500_000))
	assert.Equal(t, "999.9 kB", humanReadableSize(999_949))
	assert.Equal(t, "1.0 MB", humanReadableSize(999_999))
}
