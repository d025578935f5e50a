/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrGetFirstWriterWins(t *testing.T) {
	reg := NewRegistry(BanByConnection, BanPerCode)

	r, created, err := reg.CreateOrGet(conn("1"), "ABC123", Public, 2)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := reg.CreateOrGet(conn("2"), "ABC123", Private, 5)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, r, again)
	assert.Equal(t, "1", again.Creator().String())
	assert.True(t, again.Public())
	assert.Equal(t, 2, again.TeamSize())
}

func TestCreateOrGetRejects(t *testing.T) {
	reg := NewRegistry(BanByConnection, BanPerCode)

	_, _, err := reg.CreateOrGet(conn("1"), "AB", Public, 2)
	assert.ErrorIs(t, err, ErrInvalidRoomCode)

	_, _, err = reg.CreateOrGet(conn("1"), "ABCDEFG", Public, 2)
	assert.ErrorIs(t, err, ErrInvalidRoomCode)

	_, _, err = reg.CreateOrGet(conn("1"), "AB C", Public, 2)
	assert.ErrorIs(t, err, ErrInvalidRoomCode)

	_, _, err = reg.CreateOrGet(conn("1"), "ABC", Public, 0)
	assert.ErrorIs(t, err, ErrInvalidTeamSize)

	assert.Zero(t, reg.Len())
}

func TestCreatorIsFirstMember(t *testing.T) {
	reg := NewRegistry(BanByConnection, BanPerCode)

	r, _, err := reg.CreateOrGet(conn("1"), "ABC", Private, 2)
	require.NoError(t, err)

	st := r.State()
	require.Len(t, st.Members, 1)
	assert.Equal(t, "1", st.Members[0].ID)
	assert.Equal(t, UnnamedName, st.Members[0].Name)
}

func TestMemberOperations(t *testing.T) {
	reg := NewRegistry(BanByConnection, BanPerCode)

	r, _, err := reg.CreateOrGet(conn("1"), "ABC", Private, 2)
	require.NoError(t, err)

	r.mu.Lock()
	defer r.mu.Unlock()

	assert.True(t, r.addMemberLocked(&Member{Identity: Live("2"), Name: UnnamedName}))
	assert.False(t, r.addMemberLocked(&Member{Identity: Live("2"), Name: "ignored"}))

	assert.True(t, r.setMemberNameLocked(Live("2"), "Bob", true))
	assert.False(t, r.setMemberNameLocked(Live("9"), "Nobody", false))

	id, err := r.addManualMemberLocked("Cara")
	require.NoError(t, err)
	assert.True(t, id.IsManual())

	_, err = r.addManualMemberLocked("bob")
	assert.ErrorIs(t, err, ErrDuplicateName)

	assert.Equal(t, []string{UnnamedName, "Bob", "Cara"}, r.namesLocked())
	assert.Equal(t, []string{"1", "2"}, r.liveIDsLocked())
	assert.Equal(t, 2, r.eligibleVotersLocked())

	assert.True(t, r.removeMemberLocked(id))
	assert.False(t, r.removeMemberLocked(id))
	assert.Equal(t, []string{UnnamedName, "Bob"}, r.namesLocked())

	count := r.countLocked()
	assert.Equal(t, 2, count.Total)
	assert.Equal(t, 1, count.Named)
	assert.Equal(t, 1, count.Unnamed)
}

func TestListPublic(t *testing.T) {
	reg := NewRegistry(BanByConnection, BanPerCode)

	for _, tc := range []struct {
		code       string
		visibility Visibility
		size       int
	}{
		{"ZZZ", Public, 3},
		{"MMM", Private, 2},
		{"AAA", Public, 4},
	} {
		_, _, err := reg.CreateOrGet(conn(tc.code), tc.code, tc.visibility, tc.size)
		require.NoError(t, err)
	}

	assert.Equal(t, []RoomSummary{
		{Code: "AAA", TeamSize: 4},
		{Code: "ZZZ", TeamSize: 3},
	}, reg.ListPublic())
}

func TestDestroyIsIdempotent(t *testing.T) {
	reg := NewRegistry(BanByConnection, BanPerCode)

	r, _, err := reg.CreateOrGet(conn("1"), "ABC", Public, 2)
	require.NoError(t, err)

	r.mu.Lock()
	assert.True(t, reg.Destroy(r))
	assert.False(t, reg.Destroy(r))
	r.mu.Unlock()

	_, err = reg.Lookup("ABC")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Empty(t, reg.ListPublic())

	fresh, created, err := reg.CreateOrGet(conn("2"), "ABC", Private, 3)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotSame(t, r, fresh)
}

func TestBanKeys(t *testing.T) {
	for _, tc := range []struct {
		name     string
		key      BanKey
		scope    BanScope
		rejoin   Conn
		recreate bool
		banned   bool
	}{
		{"connection same id", BanByConnection, BanPerCode, Conn{ID: "2", Addr: "a"}, false, true},
		{"connection new id", BanByConnection, BanPerCode, Conn{ID: "3", Addr: "a"}, false, false},
		{"address new id", BanByAddress, BanPerCode, Conn{ID: "3", Addr: "a"}, false, true},
		{"address other addr", BanByAddress, BanPerCode, Conn{ID: "3", Addr: "b"}, false, false},
		{"per code survives recreation", BanByConnection, BanPerCode, Conn{ID: "2", Addr: "a"}, true, true},
		{"per room cleared by recreation", BanByConnection, BanPerRoom, Conn{ID: "2", Addr: "a"}, true, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			reg := NewRegistry(tc.key, tc.scope)

			r, _, err := reg.CreateOrGet(Conn{ID: "1", Addr: "c"}, "ABC", Public, 2)
			require.NoError(t, err)

			r.mu.Lock()
			r.addMemberLocked(&Member{Identity: Live("2"), Name: UnnamedName, Addr: "a"})
			require.NoError(t, reg.BanAndRemove(r, Live("2")))
			_, still := r.memberLocked(Live("2"))
			assert.False(t, still)
			if tc.recreate {
				reg.Destroy(r)
			}
			r.mu.Unlock()

			if tc.recreate {
				r, _, err = reg.CreateOrGet(Conn{ID: "9", Addr: "z"}, "ABC", Public, 2)
				require.NoError(t, err)
			}

			assert.Equal(t, tc.banned, reg.IsBanned(r, tc.rejoin))
		})
	}
}

func TestParseBanOptions(t *testing.T) {
	key, err := ParseBanKey("Address")
	require.NoError(t, err)
	assert.Equal(t, BanByAddress, key)

	scope, err := ParseBanScope("room")
	require.NoError(t, err)
	assert.Equal(t, BanPerRoom, scope)

	_, err = ParseBanKey("cookie")
	assert.Error(t, err)

	_, err = ParseBanScope("forever")
	assert.Error(t, err)
}

func TestParseIdentity(t *testing.T) {
	assert.Equal(t, Live("abc"), ParseIdentity("abc"))

	id := newManualIdentity()
	assert.Equal(t, id, ParseIdentity(id.String()))
	assert.True(t, ParseIdentity(id.String()).IsManual())
}
