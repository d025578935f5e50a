/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

// Notification is one outbound message and who should receive it.
// Either All is set, or To lists the live connection IDs to deliver to.
type Notification struct {
	To    []string
	All   bool
	Event any
}

// Sink carries notifications to clients. Deliver must not block.
type Sink interface {
	Deliver(n Notification)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Notification)

func (f SinkFunc) Deliver(n Notification) { f(n) }

type RoomSummary struct {
	Code     string `json:"room_id"`
	TeamSize int    `json:"team_size"`
}

// ActiveRoomsMessage lists every public room; sent to everyone.
type ActiveRoomsMessage struct {
	Type  string        `json:"type"` // "active_rooms"
	Rooms []RoomSummary `json:"rooms"`
}

// CreatorStatusMessage tells a joiner whether they own the room.
type CreatorStatusMessage struct {
	Type      string `json:"type"` // "creator_status"
	Room      string `json:"room_id"`
	IsCreator bool   `json:"is_creator"`
	TeamSize  int    `json:"team_size"`
	Public    bool   `json:"public"`
}

type MemberView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	AFK    bool   `json:"afk"`
	Manual bool   `json:"manual,omitempty"`
}

type UpdateNamesMessage struct {
	Type      string       `json:"type"` // "update_names"
	Users     []MemberView `json:"users"`
	CreatorID string       `json:"creator_id"`
}

type MemberCountMessage struct {
	Type    string `json:"type"` // "member_count"
	Total   int    `json:"total"`
	Named   int    `json:"named"`
	Unnamed int    `json:"unnamed"`
}

// DisplayTeamsMessage carries a fresh partition. Rerolled is set when the
// partition came from a confirmed reroll vote.
type DisplayTeamsMessage struct {
	Type     string     `json:"type"` // "display_teams"
	Teams    [][]string `json:"teams"`
	Rerolled bool       `json:"rerolled,omitempty"`
}

type VoteUpdateMessage struct {
	Type           string   `json:"type"` // "vote_update"
	State          string   `json:"state"`
	VotedUsernames []string `json:"voted_usernames"`
	Eligible       int      `json:"eligible"`
}

// SimpleMessage is for bare notifications ("kicked", "room_closed",
// "enable_confirm_reroll", "error", "join_denied").
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

type RevealNameMessage struct {
	Type       string `json:"type"` // "reveal_name"
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name"`
}

type RevealAllMessage struct {
	Type  string     `json:"type"` // "reveal_all_names"
	Teams [][]string `json:"teams"`
}

type ChatMessage struct {
	Type    string `json:"type"` // "room_chat_message" or "team_chat_message"
	Sender  string `json:"sender"`
	Message string `json:"message"`
}
