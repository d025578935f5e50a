/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentOperations(t *testing.T) {
	c, _ := newTestCoordinator(t, Options{})

	require.NoError(t, c.Join(conn("host"), "ABC", true, 3))
	require.NoError(t, c.SubmitName(conn("host"), "ABC", "Host", false))

	const players = 24
	const others = 8

	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := range players {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			p := conn(fmt.Sprintf("p%d", i))
			assert.NoError(t, c.Join(p, "ABC", false, 1))
			assert.NoError(t, c.SubmitName(p, "ABC", fmt.Sprintf("Player %d", i), i%3 == 0))

			// Teams may not exist yet, so a closed vote is expected.
			if err := c.VoteReroll(p, "ABC"); err != nil {
				assert.ErrorIs(t, err, ErrVoteClosed)
			}
			_ = c.RoomChat(p, "ABC", "hi")

			if i%2 == 0 {
				c.Disconnect(p)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start

		for range 10 {
			assert.NoError(t, c.GenerateTeams(conn("host"), "ABC"))
		}
	}()

	for i := range others {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			code := fmt.Sprintf("R%02d", i)
			assert.NoError(t, c.Join(conn(fmt.Sprintf("o%d", i)), code, true, 2))
			_ = c.Registry().ListPublic()
			_ = c.PublicRooms()
		}()
	}

	close(start)
	wg.Wait()

	st := state(t, c, "ABC")
	require.Len(t, st.Members, 1+players/2)
	assert.Equal(t, "host", st.Members[0].ID)

	seen := make(map[string]bool)
	for _, m := range st.Members[1:] {
		assert.False(t, seen[m.ID], m.ID)
		seen[m.ID] = true

		var i int
		_, err := fmt.Sscanf(m.ID, "p%d", &i)
		require.NoError(t, err)
		assert.Equal(t, 1, i%2, "disconnected player %s still present", m.ID)
		assert.Equal(t, fmt.Sprintf("Player %d", i), m.Name)
		assert.Equal(t, i%3 == 0, m.AFK)
	}

	for _, team := range st.Teams {
		assert.LessOrEqual(t, len(team), 3)
	}

	r, err := c.Registry().Lookup("ABC")
	require.NoError(t, err)

	r.mu.Lock()
	assert.Len(t, r.order, len(r.members))
	for _, key := range r.order {
		assert.Contains(t, r.members, key)
	}
	r.mu.Unlock()

	assert.Equal(t, 1+others, c.Registry().Len())
	assert.Len(t, c.Registry().ListPublic(), 1+others)
}

func TestCreatorLeaveRacesDisconnect(t *testing.T) {
	for range 50 {
		c, rec := newTestCoordinator(t, Options{})

		fillRoom(t, c, "ABC", 2, map[string]string{"X": "Host", "A": "Ann"}, "X", "A")
		rec.reset()

		var wg sync.WaitGroup
		start := make(chan struct{})

		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start

			if err := c.Leave(conn("X"), "ABC"); err != nil {
				assert.ErrorIs(t, err, ErrRoomNotFound)
			}
		}()
		go func() {
			defer wg.Done()
			<-start

			c.Disconnect(conn("X"))
		}()

		close(start)
		wg.Wait()

		assert.Equal(t, 1, rec.count("room_closed"))
		assert.Len(t, rec.to("A", "room_closed"), 1)
		assert.Equal(t, 1, rec.count("active_rooms"))
		assert.Zero(t, c.Registry().Len())
	}
}
