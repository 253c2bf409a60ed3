package store

import "sync"

type Table string

const (
	TableRooms      Table = "rooms"
	TablePlayers    Table = "players"
	TableGameStates Table = "game_states"
	TableResponses  Table = "responses"
)

const (
	ChangeInsert = "INSERT"
	ChangeUpdate = "UPDATE"
)

// Change is one row-level modification, delivered to subscribers of the
// row's table filtered by room. New carries a copy of the row after the
// write; consumers are expected to re-fetch rather than trust it alone.
type Change struct {
	Table  Table
	RoomID string
	Type   string
	New    any
}

type Subscription struct {
	feed   *Feed
	table  Table
	roomID string
	ch     chan Change
	once   sync.Once
}

func (s *Subscription) Events() <-chan Change {
	return s.ch
}

// Unsubscribe releases the subscription and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.feed.remove(s)
		close(s.ch)
	})
}

type subKey struct {
	table  Table
	roomID string
}

// Feed fans out committed changes to per-table, per-room subscribers.
// Delivery order follows publish order; a store that publishes while
// holding its write lock gets commit-order delivery per table. No
// ordering holds across tables, and a subscriber that falls behind
// loses events instead of blocking writers, so consumers re-fetch rows
// rather than replaying payloads.
type Feed struct {
	mu   sync.Mutex
	subs map[subKey]map[*Subscription]struct{}
}

func NewFeed() *Feed {
	return &Feed{
		subs: make(map[subKey]map[*Subscription]struct{}),
	}
}

func (f *Feed) Subscribe(table Table, roomID string) *Subscription {
	sub := &Subscription{
		feed:   f,
		table:  table,
		roomID: roomID,
		ch:     make(chan Change, 16),
	}
	key := subKey{table: table, roomID: roomID}
	f.mu.Lock()
	group := f.subs[key]
	if group == nil {
		group = make(map[*Subscription]struct{})
		f.subs[key] = group
	}
	group[sub] = struct{}{}
	f.mu.Unlock()
	return sub
}

// Delivery happens under the feed lock; sends never block, so holding
// it keeps Publish safe against a concurrent Unsubscribe closing the
// channel.
func (f *Feed) Publish(change Change) {
	key := subKey{table: change.Table, roomID: change.RoomID}
	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs[key] {
		select {
		case sub.ch <- change:
		default:
		}
	}
}

func (f *Feed) remove(sub *Subscription) {
	key := subKey{table: sub.table, roomID: sub.roomID}
	f.mu.Lock()
	defer f.mu.Unlock()
	group := f.subs[key]
	if group == nil {
		return
	}
	delete(group, sub)
	if len(group) == 0 {
		delete(f.subs, key)
	}
}
