/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	// UnnamedName is shown for members who have not submitted a name yet.
	UnnamedName = "Unnamed"

	MinCodeLength    = 3
	MaxCodeLength    = 6
	MaxNameLength    = 32
	MaxMessageLength = 500
)

type Visibility int

const (
	Private Visibility = iota
	Public
)

// Conn describes the connection a request arrived on.
type Conn struct {
	ID   string
	Addr string
}

// Member is one participant of a room.
type Member struct {
	Identity Identity
	Name     string
	AFK      bool
	Addr     string
}

// Room holds the state of a single session. Everything below mu is guarded
// by it; code, creator, visibility and teamSize never change after creation.
type Room struct {
	code       string
	creator    Identity
	visibility Visibility
	teamSize   int
	createdAt  time.Time

	closed atomic.Bool

	mu sync.Mutex

	members map[string]*Member
	order   []string

	teams       [][]string
	assignments map[string]int

	vote vote

	lastActive time.Time
}

func newRoom(code string, creator Conn, visibility Visibility, teamSize int, now time.Time) *Room {
	r := &Room{
		code:        code,
		creator:     Live(creator.ID),
		visibility:  visibility,
		teamSize:    teamSize,
		createdAt:   now,
		members:     make(map[string]*Member),
		teams:       [][]string{},
		assignments: make(map[string]int),
		lastActive:  now,
	}

	r.addMemberLocked(&Member{
		Identity: r.creator,
		Name:     UnnamedName,
		Addr:     creator.Addr,
	})

	return r
}

func (r *Room) Code() string { return r.code }

func (r *Room) Creator() Identity { return r.creator }

func (r *Room) Public() bool { return r.visibility == Public }

func (r *Room) TeamSize() int { return r.teamSize }

func (r *Room) isCreator(id Identity) bool { return id == r.creator }

// addMemberLocked inserts m unless its identity is already present.
func (r *Room) addMemberLocked(m *Member) bool {
	key := m.Identity.String()
	if _, ok := r.members[key]; ok {
		return false
	}

	r.members[key] = m
	r.order = append(r.order, key)

	return true
}

func (r *Room) memberLocked(id Identity) (*Member, bool) {
	m, ok := r.members[id.String()]
	if !ok || m.Identity != id {
		return nil, false
	}

	return m, true
}

func (r *Room) setMemberNameLocked(id Identity, name string, afk bool) bool {
	m, ok := r.memberLocked(id)
	if !ok {
		return false
	}

	m.Name = name
	m.AFK = afk

	return true
}

func (r *Room) addManualMemberLocked(name string) (Identity, error) {
	if r.hasNameLocked(name, Identity{}) {
		return Identity{}, ErrDuplicateName
	}

	id := newManualIdentity()
	r.addMemberLocked(&Member{Identity: id, Name: name})

	return id, nil
}

func (r *Room) removeMemberLocked(id Identity) bool {
	key := id.String()
	if _, ok := r.memberLocked(id); !ok {
		return false
	}

	delete(r.members, key)
	r.order = slices.DeleteFunc(r.order, func(k string) bool { return k == key })

	return true
}

// hasNameLocked compares case-insensitively and skips the member except.
func (r *Room) hasNameLocked(name string, except Identity) bool {
	for _, key := range r.order {
		m := r.members[key]
		if m.Identity == except {
			continue
		}
		if strings.EqualFold(m.Name, name) {
			return true
		}
	}

	return false
}

func (r *Room) namesLocked() []string {
	names := make([]string, 0, len(r.order))
	for _, key := range r.order {
		names = append(names, r.members[key].Name)
	}

	return names
}

// liveIDsLocked returns the connection IDs of live members, minus except.
func (r *Room) liveIDsLocked(except ...Identity) []string {
	ids := make([]string, 0, len(r.order))
	for _, key := range r.order {
		m := r.members[key]
		if m.Identity.IsManual() || slices.Contains(except, m.Identity) {
			continue
		}
		ids = append(ids, key)
	}

	return ids
}

func (r *Room) membersViewLocked() []MemberView {
	users := make([]MemberView, 0, len(r.order))
	for _, key := range r.order {
		m := r.members[key]
		users = append(users, MemberView{
			ID:     key,
			Name:   m.Name,
			AFK:    m.AFK,
			Manual: m.Identity.IsManual(),
		})
	}

	return users
}

func (r *Room) countLocked() MemberCountMessage {
	named := 0
	for _, m := range r.members {
		if m.Name != UnnamedName {
			named++
		}
	}

	return MemberCountMessage{
		Type:    "member_count",
		Total:   len(r.members),
		Named:   named,
		Unnamed: len(r.members) - named,
	}
}

// eligibleVotersLocked counts every member except the creator.
func (r *Room) eligibleVotersLocked() int {
	n := len(r.members)
	if _, ok := r.memberLocked(r.creator); ok {
		n--
	}

	return n
}

func (r *Room) teamsCopyLocked() [][]string {
	teams := make([][]string, 0, len(r.teams))
	for _, t := range r.teams {
		teams = append(teams, slices.Clone(t))
	}

	return teams
}

// State is a point-in-time copy of a room.
type State struct {
	Code        string
	Creator     string
	Public      bool
	TeamSize    int
	Members     []MemberView
	Teams       [][]string
	Assignments map[string]int
	Vote        VoteState
	Voters      []string
	LastActive  time.Time
}

func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	assignments := make(map[string]int, len(r.assignments))
	for k, v := range r.assignments {
		assignments[k] = v
	}

	return State{
		Code:        r.code,
		Creator:     r.creator.String(),
		Public:      r.Public(),
		TeamSize:    r.teamSize,
		Members:     r.membersViewLocked(),
		Teams:       r.teamsCopyLocked(),
		Assignments: assignments,
		Vote:        r.vote.state,
		Voters:      slices.Clone(r.vote.voters),
		LastActive:  r.lastActive,
	}
}

// ValidCode reports whether code can name a room.
func ValidCode(code string) bool {
	n := utf8.RuneCountInString(code)
	if n < MinCodeLength || n > MaxCodeLength {
		return false
	}

	return !strings.ContainsFunc(code, unicode.IsSpace)
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n == 0 || n > MaxNameLength {
		return "", ErrInvalidName
	}

	return name, nil
}

func cleanMessage(text string) (string, error) {
	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n == 0 || n > MaxMessageLength {
		return "", ErrInvalidMessage
	}

	return text, nil
}
