/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"strings"

	"github.com/google/uuid"
)

const manualPrefix = "manual-"

// Identity names a room participant. A live identity is backed by an open
// connection; a manual identity is a name the creator typed in by hand.
type Identity struct {
	id     string
	manual bool
}

// Live returns the identity of a connected client.
func Live(connID string) Identity {
	return Identity{id: connID}
}

// Manual returns a synthetic identity for a connection-less entry.
func Manual(syntheticID string) Identity {
	return Identity{id: syntheticID, manual: true}
}

func newManualIdentity() Identity {
	return Manual(manualPrefix + uuid.NewString())
}

// ParseIdentity maps the wire form of an identity back to its tag.
func ParseIdentity(s string) Identity {
	if strings.HasPrefix(s, manualPrefix) {
		return Manual(s)
	}
	return Live(s)
}

func (i Identity) String() string { return i.id }

func (i Identity) IsManual() bool { return i.manual }

func (i Identity) IsZero() bool { return i.id == "" }
