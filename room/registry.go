/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// BanKey selects what a ban is recorded against.
type BanKey int

const (
	// BanByConnection bans the live connection ID; reconnecting clears it.
	BanByConnection BanKey = iota
	// BanByAddress bans the client-visible address of the connection.
	BanByAddress
)

// BanScope selects how long a ban lives.
type BanScope int

const (
	// BanPerCode keeps bans for a room code after the room is destroyed,
	// so they still apply when the code is reused.
	BanPerCode BanScope = iota
	// BanPerRoom drops bans together with the room instance.
	BanPerRoom
)

func ParseBanKey(s string) (BanKey, error) {
	switch strings.ToLower(s) {
	case "connection":
		return BanByConnection, nil
	case "address":
		return BanByAddress, nil
	}

	return 0, fmt.Errorf("invalid ban key %q (must be connection or address)", s)
}

func ParseBanScope(s string) (BanScope, error) {
	switch strings.ToLower(s) {
	case "code":
		return BanPerCode, nil
	case "room":
		return BanPerRoom, nil
	}

	return 0, fmt.Errorf("invalid ban scope %q (must be code or room)", s)
}

// Registry owns every room, keyed by room code.
//
// Lock order is room.mu, then Registry.mu, then Registry.banMu. The
// registry lock is never held while acquiring a room lock.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	banMu    sync.Mutex
	codeBans map[string]map[string]struct{}
	roomBans map[*Room]map[string]struct{}

	key   BanKey
	scope BanScope
	now   func() time.Time
}

func NewRegistry(key BanKey, scope BanScope) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		codeBans: make(map[string]map[string]struct{}),
		roomBans: make(map[*Room]map[string]struct{}),
		key:      key,
		scope:    scope,
		now:      time.Now,
	}
}

// CreateOrGet returns the room for code, creating it with conn as creator if
// it does not exist. Visibility and teamSize only apply on creation.
func (g *Registry) CreateOrGet(conn Conn, code string, visibility Visibility, teamSize int) (*Room, bool, error) {
	if !ValidCode(code) {
		return nil, false, ErrInvalidRoomCode
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if r, ok := g.rooms[code]; ok && !r.closed.Load() {
		return r, false, nil
	}

	if teamSize < 1 {
		return nil, false, ErrInvalidTeamSize
	}

	if g.bannedFromCode(code, g.keyFor(conn)) {
		return nil, false, ErrBanned
	}

	r := newRoom(code, conn, visibility, teamSize, g.now())
	g.rooms[code] = r

	return r, true, nil
}

// Lookup returns the open room for code.
func (g *Registry) Lookup(code string) (*Room, error) {
	g.mu.RLock()
	r, ok := g.rooms[code]
	g.mu.RUnlock()

	if !ok || r.closed.Load() {
		return nil, ErrRoomNotFound
	}

	return r, nil
}

// Destroy closes r and frees its code. The caller must hold r.mu. It
// reports false if the room was already closed.
func (g *Registry) Destroy(r *Room) bool {
	if r.closed.Swap(true) {
		return false
	}

	r.vote.stop()

	g.mu.Lock()
	if g.rooms[r.code] == r {
		delete(g.rooms, r.code)
	}
	g.mu.Unlock()

	g.banMu.Lock()
	delete(g.roomBans, r)
	g.banMu.Unlock()

	return true
}

// BanAndRemove records a ban for the member with identity id and removes
// them. The caller must hold r.mu.
func (g *Registry) BanAndRemove(r *Room, id Identity) error {
	m, ok := r.memberLocked(id)
	if !ok {
		return ErrMemberNotFound
	}

	key := g.keyFor(Conn{ID: m.Identity.String(), Addr: m.Addr})

	g.banMu.Lock()
	switch g.scope {
	case BanPerCode:
		addBan(g.codeBans, r.code, key)
	case BanPerRoom:
		addBan(g.roomBans, r, key)
	}
	g.banMu.Unlock()

	r.removeMemberLocked(id)

	return nil
}

// IsBanned reports whether conn may not join r.
func (g *Registry) IsBanned(r *Room, conn Conn) bool {
	key := g.keyFor(conn)

	g.banMu.Lock()
	defer g.banMu.Unlock()

	if g.scope == BanPerRoom {
		_, banned := g.roomBans[r][key]
		return banned
	}

	_, banned := g.codeBans[r.code][key]

	return banned
}

// bannedFromCode is checked before a room is created; the caller holds g.mu.
func (g *Registry) bannedFromCode(code, key string) bool {
	if g.scope != BanPerCode {
		return false
	}

	g.banMu.Lock()
	defer g.banMu.Unlock()

	_, banned := g.codeBans[code][key]

	return banned
}

func (g *Registry) keyFor(conn Conn) string {
	if g.key == BanByAddress && conn.Addr != "" {
		return "addr:" + conn.Addr
	}

	return "conn:" + conn.ID
}

// ListPublic returns every open public room, sorted by code.
func (g *Registry) ListPublic() []RoomSummary {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rooms := make([]RoomSummary, 0, len(g.rooms))
	for code, r := range g.rooms {
		if r.closed.Load() || !r.Public() {
			continue
		}
		rooms = append(rooms, RoomSummary{Code: code, TeamSize: r.teamSize})
	}

	slices.SortFunc(rooms, func(a, b RoomSummary) int {
		return strings.Compare(a.Code, b.Code)
	})

	return rooms
}

// Rooms returns a snapshot of all open rooms.
func (g *Registry) Rooms() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		if !r.closed.Load() {
			rooms = append(rooms, r)
		}
	}

	return rooms
}

func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.rooms)
}

func addBan[K comparable](bans map[K]map[string]struct{}, bucket K, key string) {
	set, ok := bans[bucket]
	if !ok {
		set = make(map[string]struct{})
		bans[bucket] = set
	}
	set[key] = struct{}{}
}

// lookupLocked finds the room for code and locks it. On success the caller
// must unlock r.mu.
func (g *Registry) lookupLocked(code string) (*Room, error) {
	r, err := g.Lookup(code)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.closed.Load() {
		r.mu.Unlock()
		return nil, ErrRoomNotFound
	}

	return r, nil
}
