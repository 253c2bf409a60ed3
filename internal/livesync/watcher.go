package livesync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"truthordare/internal/db"
	"truthordare/internal/game"
	"truthordare/internal/store"
)

// Snapshot is the full derived view of one room, rebuilt from
// authoritative rows. TurnEpoch changes whenever a new turn begins so
// clients know to reset their local flags (choice shown, draft,
// already-responded).
type Snapshot struct {
	Room      db.Room              `json:"room"`
	Players   []db.Player          `json:"players"`
	GameState *db.GameState        `json:"game_state,omitempty"`
	Phase     string               `json:"phase,omitempty"`
	TurnEpoch int                  `json:"turn_epoch"`
	Responses []store.ResponseView `json:"responses"`
}

// Watcher keeps one room's derived snapshot in step with the store. It
// holds a change subscription per tracked table and re-fetches that
// table's rows on every event rather than trusting the payload, so
// missed or out-of-order events only delay convergence. A periodic full
// re-fetch backstops dropped subscriptions.
type Watcher struct {
	st       store.Store
	roomID   string
	interval time.Duration
	notify   func(Snapshot)

	cancel context.CancelFunc
	done   chan struct{}

	room      *db.Room
	players   []db.Player
	state     *db.GameState
	responses []store.ResponseView
	lastKey   string
}

func NewWatcher(st store.Store, roomID string, interval time.Duration, notify func(Snapshot)) *Watcher {
	return &Watcher{
		st:       st,
		roomID:   roomID,
		interval: interval,
		notify:   notify,
		done:     make(chan struct{}),
	}
}

func (w *Watcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	go w.run(ctx)
}

// Close unsubscribes everything and waits for the loop to exit.
func (w *Watcher) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	<-w.done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	rooms := w.st.Subscribe(store.TableRooms, w.roomID)
	players := w.st.Subscribe(store.TablePlayers, w.roomID)
	states := w.st.Subscribe(store.TableGameStates, w.roomID)
	responses := w.st.Subscribe(store.TableResponses, w.roomID)
	defer rooms.Unsubscribe()
	defer players.Unsubscribe()
	defer states.Unsubscribe()
	defer responses.Unsubscribe()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refetchAll(ctx)
	w.publish()

	for {
		select {
		case <-ctx.Done():
			return
		case <-rooms.Events():
			w.refetchRoom(ctx)
		case <-players.Events():
			w.refetchPlayers(ctx)
		case <-states.Events():
			w.refetchState(ctx)
		case <-responses.Events():
			w.refetchResponses(ctx)
		case <-ticker.C:
			w.refetchAll(ctx)
		}
		w.publish()
	}
}

// Re-fetch failures during reconciliation are logged and skipped; the
// next event or tick retries.
func (w *Watcher) refetchRoom(ctx context.Context) {
	room, err := w.st.RoomByID(ctx, w.roomID)
	if err != nil {
		log.Printf("sync refetch failed table=rooms room_id=%s error=%v", w.roomID, err)
		return
	}
	w.room = room
}

func (w *Watcher) refetchPlayers(ctx context.Context) {
	players, err := w.st.PlayersByRoom(ctx, w.roomID)
	if err != nil {
		log.Printf("sync refetch failed table=players room_id=%s error=%v", w.roomID, err)
		return
	}
	w.players = players
}

func (w *Watcher) refetchState(ctx context.Context) {
	state, err := w.st.GameStateByRoom(ctx, w.roomID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("sync refetch failed table=game_states room_id=%s error=%v", w.roomID, err)
		}
		return
	}
	w.state = state
}

func (w *Watcher) refetchResponses(ctx context.Context) {
	views, err := w.st.ResponsesByRoom(ctx, w.roomID)
	if err != nil {
		log.Printf("sync refetch failed table=responses room_id=%s error=%v", w.roomID, err)
		return
	}
	w.responses = views
}

func (w *Watcher) refetchAll(ctx context.Context) {
	w.refetchRoom(ctx)
	w.refetchPlayers(ctx)
	w.refetchState(ctx)
	w.refetchResponses(ctx)
}

func (w *Watcher) publish() {
	snap := w.snapshot()
	key := snapshotKey(snap)
	if key == w.lastKey {
		return
	}
	w.lastKey = key
	if w.notify != nil {
		w.notify(snap)
	}
}

func (w *Watcher) snapshot() Snapshot {
	snap := Snapshot{
		Players:   w.players,
		Responses: w.responses,
	}
	if w.room != nil {
		snap.Room = *w.room
	}
	if w.state != nil {
		state := *w.state
		snap.GameState = &state
		snap.Phase = game.Phase(&state, respondedThisTurn(w.responses, state.Turn))
		snap.TurnEpoch = state.Turn
	}
	return snap
}

func respondedThisTurn(responses []store.ResponseView, turn int) bool {
	for _, response := range responses {
		if response.Turn == turn {
			return true
		}
	}
	return false
}

// snapshotKey de-duplicates notifications by row identity and update
// time, so reconciliation re-fetches that change nothing stay silent.
func snapshotKey(snap Snapshot) string {
	stateKey := ""
	if snap.GameState != nil {
		promptID := ""
		if snap.GameState.CurrentPromptID != nil {
			promptID = *snap.GameState.CurrentPromptID
		}
		stateKey = fmt.Sprintf("%s|%d|%d|%s|%d",
			snap.GameState.CurrentPlayerID,
			snap.GameState.Turn,
			snap.GameState.PromptTurn,
			promptID,
			snap.GameState.UpdatedAt.UnixNano(),
		)
	}
	return fmt.Sprintf("%s|%s|%d|%s|%d|%s",
		snap.Room.Status,
		snap.Room.UpdatedAt.UTC().Format(time.RFC3339Nano),
		len(snap.Players),
		stateKey,
		len(snap.Responses),
		snap.Phase,
	)
}
