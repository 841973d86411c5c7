package game

import (
	"errors"
	"fmt"
	"strings"

	"blackjack/internal/protocol"
	"blackjack/pkg/cards"
	"blackjack/pkg/realtime"
)

// ErrStaleSnapshot is returned when a snapshot arrives after a stream event
// has already advanced the state in the current sync.
var ErrStaleSnapshot = errors.New("snapshot is older than applied stream events")

type table struct {
	state   State
	conn    Connection
	syncing bool
	touched bool
}

// Store holds the table state and notifies subscribers after every change.
// Only the connection manager writes to it; views read snapshots.
type Store struct {
	r *realtime.Record[table, Change]
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{r: realtime.NewRecord[table, Change](table{state: newState()})}
}

// Snapshot returns a copy of the current state that later mutations do not affect.
func (s *Store) Snapshot() Snapshot {
	var snap Snapshot
	s.r.Read(func(t *table) {
		snap = Snapshot{State: t.state.clone(), Connection: t.conn}
	})
	return snap
}

// Subscribe returns a channel receiving the kind of every committed change.
func (s *Store) Subscribe() chan Change {
	return s.r.Broadcaster().Subscribe()
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (s *Store) Unsubscribe(ch chan Change) {
	s.r.Broadcaster().Unsubscribe(ch)
}

// ApplyNewRound starts a new round and discards every player's hand.
func (s *Store) ApplyNewRound(ev protocol.NewRound) error {
	dealer, err := cards.DecodeAll(ev.DealerCards)
	if err != nil {
		return fmt.Errorf("new round dealer cards: %w", err)
	}
	return s.r.Update(ChangeRound, func(t *table) error {
		t.touched = true
		t.state.DealerHand = cards.Reverse(dealer)
		t.state.DealerScore = ev.DealerTotal
		t.state.CountdownTo = ev.RoundEndTime
		t.state.Status = StatusPlaying
		t.state.Round++
		t.state.clearPlayers()
		return nil
	})
}

// ApplyPlayerCards replaces one player's hand and updates the shoe counters.
func (s *Store) ApplyPlayerCards(ev protocol.PlayerCards) error {
	hand, err := cards.DecodeAll(ev.Cards)
	if err != nil {
		return fmt.Errorf("player %s cards: %w", ev.UserID, err)
	}
	return s.r.Update(ChangePlayers, func(t *table) error {
		t.touched = true
		t.state.upsert(ev.UserID, PlayerHand{
			Cards:   cards.Reverse(hand),
			Score:   ev.Total,
			Outcome: OutcomePlaying,
		})
		t.state.RemainingCards = ev.RemainingCards
		t.state.TotalStartingCards = ev.TotalStartingCards
		return nil
	})
}

// ApplyRoundResults ends the round. The countdown now points at the next
// round start, and a win for localPlayer increments Wins.
func (s *Store) ApplyRoundResults(ev protocol.RoundResults, localPlayer string) error {
	dealer, err := cards.DecodeAll(ev.DealerCards)
	if err != nil {
		return fmt.Errorf("round results dealer cards: %w", err)
	}
	seats := make([]Seat, 0, len(ev.Results))
	for _, res := range ev.Results {
		hand, err := cards.DecodeAll(res.Cards)
		if err != nil {
			return fmt.Errorf("round results for %s: %w", res.UserID, err)
		}
		seats = append(seats, Seat{UserID: res.UserID, Hand: PlayerHand{
			Cards:   cards.Reverse(hand),
			Score:   res.Total,
			Outcome: normalizeOutcome(res.Outcome),
		}})
	}
	return s.r.Update(ChangeResults, func(t *table) error {
		t.touched = true
		t.state.DealerHand = cards.Reverse(dealer)
		t.state.DealerScore = ev.DealerTotal
		t.state.Status = StatusGameEnded
		t.state.CountdownTo = ev.RoundStartTime
		for _, seat := range seats {
			if seat.UserID == localPlayer && seat.Hand.Outcome == OutcomeWin {
				t.state.Wins++
			}
			t.state.upsert(seat.UserID, seat.Hand)
		}
		return nil
	})
}

// BeginSync marks the start of a connection lifecycle. Until the next
// SeedFromSnapshot, any applied stream event makes the pending snapshot stale.
func (s *Store) BeginSync() {
	_ = s.r.Update(ChangeConnection, func(t *table) error {
		t.syncing = true
		t.touched = false
		return nil
	})
}

// SeedFromSnapshot initializes the table from a one-time snapshot. It returns
// ErrStaleSnapshot without changing anything if a stream event was applied
// since BeginSync.
func (s *Store) SeedFromSnapshot(snap protocol.Snapshot) error {
	seed, err := buildSeed(snap)
	if err != nil {
		return err
	}
	return s.r.Update(ChangeSnapshot, func(t *table) error {
		if t.syncing && t.touched {
			return ErrStaleSnapshot
		}
		t.syncing = false
		st := &t.state
		st.DealerHand = seed.dealer
		st.DealerScore = seed.dealerScore
		st.Status = seed.status
		st.CountdownTo = seed.countdown
		st.RemainingCards = seed.remaining
		st.TotalStartingCards = seed.total
		if seed.wins > st.Wins {
			st.Wins = seed.wins
		}
		st.clearPlayers()
		for _, seat := range seed.seats {
			st.upsert(seat.UserID, seat.Hand)
		}
		return nil
	})
}

// SetConnectionStatus records the stream status. Opening clears the last
// error; a non-nil err is recorded; closing without an error keeps the
// previous one so views can still show why the connection was lost.
func (s *Store) SetConnectionStatus(connected bool, err error) {
	_ = s.r.Update(ChangeConnection, func(t *table) error {
		t.conn.Connected = connected
		switch {
		case connected:
			t.conn.LastError = nil
		case err != nil:
			t.conn.LastError = err
		}
		return nil
	})
}

type seed struct {
	dealer      []cards.Card
	dealerScore int
	status      Status
	countdown   int64
	remaining   int
	total       int
	wins        int
	seats       []Seat
}

func buildSeed(snap protocol.Snapshot) (seed, error) {
	var sd seed
	var seat protocol.Seat
	var listed []protocol.PlayerSummary
	switch v := snap.(type) {
	case protocol.RoundSnapshot:
		seat = v.Seat
		listed = v.Connected
		if v.FirstDealerCard != "" {
			first, err := cards.Decode(v.FirstDealerCard)
			if err != nil {
				return sd, fmt.Errorf("snapshot dealer card: %w", err)
			}
			sd.dealer = []cards.Card{first}
		}
		sd.dealerScore = v.DealerTotal
		sd.status = StatusPlaying
		sd.countdown = v.RoundEndTime
	case protocol.ResultsSnapshot:
		seat = v.Seat
		listed = append(append(listed, v.Connected...), v.Results...)
		dealer, err := cards.DecodeAll(v.AllDealerCards)
		if err != nil {
			return sd, fmt.Errorf("snapshot dealer cards: %w", err)
		}
		sd.dealer = cards.Reverse(dealer)
		sd.dealerScore = v.DealerTotal
		sd.status = StatusGameEnded
		sd.countdown = v.RoundStartTime
	default:
		return sd, fmt.Errorf("unsupported snapshot %T", snap)
	}
	sd.remaining = seat.RemainingCards
	sd.total = seat.TotalStartingCards
	sd.wins = seat.Wins

	index := make(map[string]int, len(listed))
	for _, p := range listed {
		hand, err := cards.DecodeAll(p.Cards)
		if err != nil {
			return sd, fmt.Errorf("snapshot hand of %s: %w", p.UserID, err)
		}
		s := Seat{UserID: p.UserID, Hand: PlayerHand{
			Cards:   cards.Reverse(hand),
			Score:   p.Total,
			Outcome: normalizeOutcome(p.Outcome),
		}}
		if i, ok := index[p.UserID]; ok {
			sd.seats[i] = s
			continue
		}
		index[p.UserID] = len(sd.seats)
		sd.seats = append(sd.seats, s)
	}
	if _, ok := index[seat.UserID]; !ok && len(seat.Cards) > 0 {
		hand, err := cards.DecodeAll(seat.Cards)
		if err != nil {
			return sd, fmt.Errorf("snapshot own hand: %w", err)
		}
		sd.seats = append(sd.seats, Seat{UserID: seat.UserID, Hand: PlayerHand{
			Cards:   cards.Reverse(hand),
			Score:   seat.Total,
			Outcome: OutcomePlaying,
		}})
	}
	return sd, nil
}

func normalizeOutcome(raw string) Outcome {
	o := strings.ToLower(strings.TrimSpace(raw))
	if o == "" {
		return OutcomePlaying
	}
	return Outcome(o)
}
