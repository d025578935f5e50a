/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"slices"
	"time"
)

type VoteState int

const (
	NoVote VoteState = iota
	VotingOpen
	AwaitingConfirmation
)

func (s VoteState) String() string {
	switch s {
	case VotingOpen:
		return "voting_open"
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	default:
		return "no_vote"
	}
}

const (
	DefaultVoteTimeout   = 60 * time.Second
	DefaultVoteThreshold = 0.8
)

// vote is the reroll vote of one room, guarded by the room's mutex.
type vote struct {
	state  VoteState
	voters []string

	// generation increments whenever a new deadline is scheduled, so a timer
	// that fires after a reset can tell it is stale.
	generation uint64
	timer      *time.Timer
}

// open resets the tally and schedules expire after d.
func (v *vote) open(d time.Duration, expire func(gen uint64)) {
	v.stop()

	v.generation++
	gen := v.generation

	v.state = VotingOpen
	v.voters = nil
	v.timer = time.AfterFunc(d, func() { expire(gen) })
}

func (v *vote) clear() {
	v.stop()
	v.state = NoVote
	v.voters = nil
}

func (v *vote) stop() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}

// add records name once. It reports whether the tally changed.
func (v *vote) add(name string) bool {
	if slices.Contains(v.voters, name) {
		return false
	}

	v.voters = append(v.voters, name)

	return true
}

// reached reports whether the tally meets threshold. With no eligible
// voters the threshold can never be met.
func (v *vote) reached(eligible int, threshold float64) bool {
	if eligible <= 0 {
		return false
	}

	return float64(len(v.voters))/float64(eligible) >= threshold
}

func (v *vote) message(eligible int) VoteUpdateMessage {
	voters := slices.Clone(v.voters)
	if voters == nil {
		voters = []string{}
	}

	return VoteUpdateMessage{
		Type:           "vote_update",
		State:          v.state.String(),
		VotedUsernames: voters,
		Eligible:       eligible,
	}
}
