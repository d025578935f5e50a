/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"encoding/json"
	"slices"
	"sync"
	"testing"
)

type recorder struct {
	mu  sync.Mutex
	got []Notification
}

func (r *recorder) Deliver(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.got = append(r.got, n)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.got = nil
}

// to returns every event of type typ delivered to connID, including
// broadcasts to all clients.
func (r *recorder) to(connID, typ string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []any
	for _, n := range r.got {
		if eventType(n.Event) != typ {
			continue
		}
		if n.All || slices.Contains(n.To, connID) {
			out = append(out, n.Event)
		}
	}

	return out
}

func (r *recorder) count(typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, note := range r.got {
		if eventType(note.Event) == typ {
			n++
		}
	}

	return n
}

func eventType(event any) string {
	data, err := json.Marshal(event)
	if err != nil {
		return ""
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return ""
	}

	return head.Type
}

func conn(id string) Conn {
	return Conn{ID: id, Addr: "10.0.0." + id}
}

func newTestCoordinator(t *testing.T, opts Options) (*Coordinator, *recorder) {
	t.Helper()

	rec := &recorder{}
	reg := NewRegistry(BanByConnection, BanPerCode)

	return NewCoordinator(reg, rec, opts), rec
}
