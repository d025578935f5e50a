/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import "errors"

var (
	ErrBanned          = errors.New("you have been banned from this room")
	ErrUnauthorized    = errors.New("only the room creator can do that")
	ErrDuplicateName   = errors.New("this name already exists in the room")
	ErrRoomNotFound    = errors.New("room not found")
	ErrInvalidTeamSize = errors.New("team size must be at least 1")
	ErrInvalidRoomCode = errors.New("room code must be 3-6 characters with no spaces")
	ErrInvalidName     = errors.New("name must be 1-32 characters")
	ErrNotMember       = errors.New("not a member of this room")
	ErrMemberNotFound  = errors.New("member not found")
	ErrKickCreator     = errors.New("the room creator cannot be kicked")
	ErrInvalidMessage  = errors.New("message must be 1-500 characters")
	ErrVoteClosed      = errors.New("no reroll vote is open")
)

// Silent reports whether err is a recoverable no-op that the requester
// should not be told about. Rooms and members can disappear between a
// client rendering them and acting on them.
func Silent(err error) bool {
	return errors.Is(err, ErrRoomNotFound) ||
		errors.Is(err, ErrNotMember) ||
		errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrVoteClosed)
}
