/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"errors"
	"math/rand/v2"
	"slices"
	"time"
)

// Options tunes a Coordinator. Zero values fall back to the defaults.
type Options struct {
	VoteTimeout   time.Duration
	VoteThreshold float64

	// UniqueNames rejects a submitted name that matches another member's
	// name case-insensitively. Manually added names are always unique.
	UniqueNames bool

	Logf func(format string, args ...any)

	// IntN returns a uniform int in [0, n). Used for shuffling.
	IntN func(n int) int
}

// Coordinator validates requests against the registry, applies them, and
// hands the resulting notifications to a Sink. Every operation on a room
// runs under that room's lock; rooms proceed independently.
type Coordinator struct {
	reg  *Registry
	sink Sink
	opts Options
}

func NewCoordinator(reg *Registry, sink Sink, opts Options) *Coordinator {
	if opts.VoteTimeout <= 0 {
		opts.VoteTimeout = DefaultVoteTimeout
	}
	if opts.VoteThreshold <= 0 {
		opts.VoteThreshold = DefaultVoteThreshold
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...any) {}
	}
	if opts.IntN == nil {
		opts.IntN = rand.IntN
	}

	return &Coordinator{
		reg:  reg,
		sink: sink,
		opts: opts,
	}
}

func (c *Coordinator) Registry() *Registry { return c.reg }

// PublicRooms lists the rooms shown in the discovery list.
func (c *Coordinator) PublicRooms() ActiveRoomsMessage {
	return ActiveRoomsMessage{
		Type:  "active_rooms",
		Rooms: c.reg.ListPublic(),
	}
}

// Join adds conn to the room with code, creating the room if needed.
func (c *Coordinator) Join(conn Conn, code string, public bool, teamSize int) error {
	visibility := Private
	if public {
		visibility = Public
	}

	for {
		r, created, err := c.reg.CreateOrGet(conn, code, visibility, teamSize)
		if err != nil {
			if errors.Is(err, ErrBanned) {
				c.opts.Logf("ROOMS: Connection %s denied access to %s", conn.ID, code)
			}
			return err
		}

		r.mu.Lock()
		if r.closed.Load() {
			// Destroyed between lookup and lock; the code is free again.
			r.mu.Unlock()
			continue
		}

		err = c.joinLocked(r, conn, created)
		r.mu.Unlock()

		return err
	}
}

func (c *Coordinator) joinLocked(r *Room, conn Conn, created bool) error {
	id := Live(conn.ID)

	if !created && c.reg.IsBanned(r, conn) {
		c.opts.Logf("ROOMS: Connection %s denied access to %s", conn.ID, r.code)
		return ErrBanned
	}

	r.addMemberLocked(&Member{
		Identity: id,
		Name:     UnnamedName,
		Addr:     conn.Addr,
	})
	c.touchLocked(r)

	c.toConn(conn.ID, CreatorStatusMessage{
		Type:      "creator_status",
		Room:      r.code,
		IsCreator: r.isCreator(id),
		TeamSize:  r.teamSize,
		Public:    r.Public(),
	})
	c.sendMembersLocked(r)

	if created {
		c.opts.Logf("ROOMS: Room %s created by %s (team size %d)", r.code, conn.ID, r.teamSize)
		c.sendRoomList()
	}

	c.opts.Logf("ROOMS: Connection %s joined %s", conn.ID, r.code)

	return nil
}

// SubmitName sets the caller's display name and AFK flag.
func (c *Coordinator) SubmitName(conn Conn, code, name string, afk bool) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}

	r, err := c.reg.lookupLocked(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	id := Live(conn.ID)
	if _, ok := r.memberLocked(id); !ok {
		return ErrNotMember
	}

	if c.opts.UniqueNames && r.hasNameLocked(name, id) {
		return ErrDuplicateName
	}

	r.setMemberNameLocked(id, name, afk)
	c.touchLocked(r)

	c.sendMembersLocked(r)

	c.opts.Logf("ROOMS: Connection %s submitted name %q in %s", conn.ID, name, code)

	return nil
}

// AddManualName adds a connection-less member on behalf of the creator.
func (c *Coordinator) AddManualName(conn Conn, code, name string) (Identity, error) {
	r, err := c.reg.lookupLocked(code)
	if err != nil {
		return Identity{}, err
	}
	defer r.mu.Unlock()

	if !r.isCreator(Live(conn.ID)) {
		return Identity{}, ErrUnauthorized
	}

	name, err = cleanName(name)
	if err != nil {
		return Identity{}, err
	}

	id, err := r.addManualMemberLocked(name)
	if err != nil {
		c.opts.Logf("ROOMS: Duplicate name %q not added to %s", name, code)
		return Identity{}, err
	}
	c.touchLocked(r)

	c.sendMembersLocked(r)

	c.opts.Logf("ROOMS: Creator added name %q to %s", name, code)

	return id, nil
}

// Kick removes target from the room. Live members are also banned.
func (c *Coordinator) Kick(conn Conn, code, target string) error {
	r, err := c.reg.lookupLocked(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	if !r.isCreator(Live(conn.ID)) {
		return ErrUnauthorized
	}

	id := ParseIdentity(target)
	if r.isCreator(id) {
		return ErrKickCreator
	}

	m, ok := r.memberLocked(id)
	if !ok {
		return ErrMemberNotFound
	}

	if id.IsManual() {
		r.removeMemberLocked(id)
		c.opts.Logf("ROOMS: Manual member %q removed from %s", m.Name, code)
	} else {
		if err := c.reg.BanAndRemove(r, id); err != nil {
			return err
		}
		c.toConn(id.String(), SimpleMessage{
			Type:    "kicked",
			Message: "You have been kicked from the room.",
		})
		c.opts.Logf("ROOMS: Connection %s kicked and banned from %s", id, code)
	}
	c.touchLocked(r)

	c.sendMembersLocked(r)

	return nil
}

// Leave removes the caller from the room. If the caller created the room,
// the room is closed for everyone.
func (c *Coordinator) Leave(conn Conn, code string) error {
	r, err := c.reg.lookupLocked(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	return c.leaveLocked(r, Live(conn.ID), "left")
}

// Disconnect applies Leave to every room conn is part of. Repeated calls are
// harmless.
func (c *Coordinator) Disconnect(conn Conn) {
	id := Live(conn.ID)

	for _, r := range c.reg.Rooms() {
		r.mu.Lock()
		if !r.closed.Load() {
			_ = c.leaveLocked(r, id, "disconnected")
		}
		r.mu.Unlock()
	}
}

func (c *Coordinator) leaveLocked(r *Room, id Identity, how string) error {
	if r.isCreator(id) {
		c.closeLocked(r, "creator "+how, r.creator)
		return nil
	}

	if !r.removeMemberLocked(id) {
		return ErrNotMember
	}
	c.touchLocked(r)

	c.sendMembersLocked(r)

	c.opts.Logf("ROOMS: Connection %s %s %s", id, how, r.code)

	return nil
}

// closeLocked destroys r and tells every live member except the given
// identities. It does nothing if r is already closed.
func (c *Coordinator) closeLocked(r *Room, reason string, except ...Identity) {
	if !c.reg.Destroy(r) {
		return
	}

	c.toConns(r.liveIDsLocked(except...), SimpleMessage{
		Type:    "room_closed",
		Message: "The room has been closed.",
	})

	if r.Public() {
		c.sendRoomList()
	}

	c.opts.Logf("ROOMS: Room %s closed (%s)", r.code, reason)
}

// GenerateTeams shuffles every member's name into teams and opens a
// reroll vote.
func (c *Coordinator) GenerateTeams(conn Conn, code string) error {
	r, err := c.reg.lookupLocked(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	if !r.isCreator(Live(conn.ID)) {
		return ErrUnauthorized
	}

	c.regenerateLocked(r, false)

	return nil
}

// VoteReroll records the caller's vote against the current teams. The
// creator is told once per vote when the threshold is reached.
func (c *Coordinator) VoteReroll(conn Conn, code string) error {
	r, err := c.reg.lookupLocked(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	id := Live(conn.ID)
	m, ok := r.memberLocked(id)
	if !ok {
		return ErrNotMember
	}

	// The creator does not vote; they confirm.
	if r.isCreator(id) {
		return nil
	}

	if r.vote.state == NoVote {
		return ErrVoteClosed
	}

	if !r.vote.add(m.Name) {
		return nil
	}
	c.touchLocked(r)

	eligible := r.eligibleVotersLocked()
	c.toRoomLocked(r, r.vote.message(eligible))

	c.opts.Logf("ROOMS: %q voted to reroll in %s (%d/%d)", m.Name, code, len(r.vote.voters), eligible)

	if r.vote.state == VotingOpen && r.vote.reached(eligible, c.opts.VoteThreshold) {
		r.vote.stop()
		r.vote.state = AwaitingConfirmation
		c.toConn(r.creator.String(), SimpleMessage{Type: "enable_confirm_reroll"})
		c.opts.Logf("ROOMS: Reroll threshold reached in %s", code)
	}

	return nil
}

// ConfirmReroll regenerates teams once the vote threshold has been reached.
func (c *Coordinator) ConfirmReroll(conn Conn, code string) error {
	r, err := c.reg.lookupLocked(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	if !r.isCreator(Live(conn.ID)) {
		return ErrUnauthorized
	}

	if r.vote.state != AwaitingConfirmation {
		return ErrVoteClosed
	}

	c.regenerateLocked(r, true)

	return nil
}

func (c *Coordinator) regenerateLocked(r *Room, rerolled bool) {
	r.teams = partition(r.namesLocked(), r.teamSize, c.opts.IntN)
	r.assignments = assignments(r.teams)

	r.vote.open(c.opts.VoteTimeout, func(gen uint64) {
		c.expireVote(r, gen)
	})
	c.touchLocked(r)

	c.toRoomLocked(r, DisplayTeamsMessage{
		Type:     "display_teams",
		Teams:    r.teamsCopyLocked(),
		Rerolled: rerolled,
	})
	c.toRoomLocked(r, r.vote.message(r.eligibleVotersLocked()))

	if rerolled {
		c.opts.Logf("ROOMS: Teams rerolled in %s: %v", r.code, r.teams)
	} else {
		c.opts.Logf("ROOMS: Teams generated in %s: %v", r.code, r.teams)
	}
}

// expireVote runs when a vote deadline passes. Deadlines from an earlier
// generation are ignored, and a vote that reached its threshold waits for
// the creator to confirm.
func (c *Coordinator) expireVote(r *Room, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() || r.vote.generation != gen || r.vote.state != VotingOpen {
		return
	}

	r.vote.clear()

	c.toRoomLocked(r, r.vote.message(r.eligibleVotersLocked()))

	c.opts.Logf("ROOMS: Vote to reroll expired in %s", r.code)
}

// RevealName shows the name of one member to the whole room.
func (c *Coordinator) RevealName(conn Conn, code, member string) error {
	r, err := c.reg.lookupLocked(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	if !r.isCreator(Live(conn.ID)) {
		return ErrUnauthorized
	}

	m, ok := r.memberLocked(ParseIdentity(member))
	if !ok {
		return ErrMemberNotFound
	}

	c.toRoomLocked(r, RevealNameMessage{
		Type:       "reveal_name",
		MemberID:   m.Identity.String(),
		MemberName: m.Name,
	})

	c.opts.Logf("ROOMS: Name revealed: %q in %s", m.Name, code)

	return nil
}

// RevealAll shows every team member's name to the whole room.
func (c *Coordinator) RevealAll(conn Conn, code string) error {
	r, err := c.reg.lookupLocked(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	if !r.isCreator(Live(conn.ID)) {
		return ErrUnauthorized
	}

	c.toRoomLocked(r, RevealAllMessage{
		Type:  "reveal_all_names",
		Teams: r.teamsCopyLocked(),
	})

	c.opts.Logf("ROOMS: All names revealed in %s", code)

	return nil
}

// RoomChat relays text to every member of the room.
func (c *Coordinator) RoomChat(conn Conn, code, text string) error {
	text, err := cleanMessage(text)
	if err != nil {
		return err
	}

	r, err := c.reg.lookupLocked(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	m, ok := r.memberLocked(Live(conn.ID))
	if !ok {
		return ErrNotMember
	}
	c.touchLocked(r)

	c.toRoomLocked(r, ChatMessage{
		Type:    "room_chat_message",
		Sender:  m.Name,
		Message: text,
	})

	return nil
}

// TeamChat relays text to the members of the sender's team. Senders without
// a team are ignored.
func (c *Coordinator) TeamChat(conn Conn, code, text string) error {
	text, err := cleanMessage(text)
	if err != nil {
		return err
	}

	r, err := c.reg.lookupLocked(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	sender, ok := r.memberLocked(Live(conn.ID))
	if !ok {
		return ErrNotMember
	}

	idx, ok := r.assignments[sender.Name]
	if !ok || idx >= len(r.teams) {
		return nil
	}
	team := r.teams[idx]
	c.touchLocked(r)

	var to []string
	for _, key := range r.order {
		m := r.members[key]
		if !m.Identity.IsManual() && slices.Contains(team, m.Name) {
			to = append(to, key)
		}
	}

	c.toConns(to, ChatMessage{
		Type:    "team_chat_message",
		Sender:  sender.Name,
		Message: text,
	})

	return nil
}

func (c *Coordinator) touchLocked(r *Room) {
	r.lastActive = c.reg.now()
}

func (c *Coordinator) sendMembersLocked(r *Room) {
	c.toRoomLocked(r, UpdateNamesMessage{
		Type:      "update_names",
		Users:     r.membersViewLocked(),
		CreatorID: r.creator.String(),
	})
	c.toRoomLocked(r, r.countLocked())
}

func (c *Coordinator) sendRoomList() {
	c.sink.Deliver(Notification{All: true, Event: c.PublicRooms()})
}

func (c *Coordinator) toRoomLocked(r *Room, event any) {
	c.toConns(r.liveIDsLocked(), event)
}

func (c *Coordinator) toConn(id string, event any) {
	c.toConns([]string{id}, event)
}

func (c *Coordinator) toConns(ids []string, event any) {
	if len(ids) == 0 {
		return
	}

	c.sink.Deliver(Notification{To: ids, Event: event})
}
