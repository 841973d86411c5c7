package game

import (
	"blackjack/pkg/cards"
	"blackjack/pkg/realtime"
)

// Status is the table phase as reported by the server.
type Status string

const (
	StatusPlaying   Status = "playing"
	StatusGameEnded Status = "game_ended"
)

// Outcome is a hand's result. The server is authoritative; values outside the
// known set are kept as received (lower-cased).
type Outcome string

const (
	OutcomePlaying  Outcome = "playing"
	OutcomeWin      Outcome = "win"
	OutcomeLoss     Outcome = "loss"
	OutcomePush     Outcome = "push"
	OutcomeStanding Outcome = "standing"
)

// Resolved reports whether the outcome ends the hand for this round.
func (o Outcome) Resolved() bool {
	switch o {
	case OutcomeWin, OutcomeLoss, OutcomePush:
		return true
	}
	return false
}

// Change names what a committed mutation touched.
type Change string

const (
	ChangeRound      Change = "round"
	ChangePlayers    Change = "players"
	ChangeResults    Change = "results"
	ChangeSnapshot   Change = "snapshot"
	ChangeConnection Change = "connection"
)

// PlayerHand is one player's hand, newest card first.
type PlayerHand struct {
	Cards   []cards.Card
	Score   int
	Outcome Outcome
}

// Seat pairs a player with their hand for ordered iteration.
type Seat struct {
	UserID string
	Hand   PlayerHand
}

// State is the client's view of the table.
type State struct {
	DealerHand         []cards.Card
	DealerScore        int
	Players            []string
	Hands              map[string]PlayerHand
	Status             Status
	CountdownTo        int64
	RemainingCards     int
	TotalStartingCards int
	Wins               int
	Round              int
}

// Connection is the stream status visible to views.
type Connection struct {
	Connected bool
	LastError error
}

// Snapshot is an isolated copy of the store's contents.
type Snapshot struct {
	State
	Connection Connection
}

// Seats returns players in the order they were first observed.
func (s Snapshot) Seats() []Seat {
	out := make([]Seat, 0, len(s.Players))
	for _, id := range s.Players {
		out = append(out, Seat{UserID: id, Hand: s.Hands[id]})
	}
	return out
}

// Hand returns a player's hand if the player has been observed this round.
func (s Snapshot) Hand(userID string) (PlayerHand, bool) {
	h, ok := s.Hands[userID]
	return h, ok
}

// Countdown returns the current phase boundary.
func (s Snapshot) Countdown() realtime.Countdown {
	return realtime.Countdown{To: s.CountdownTo}
}

func newState() State {
	return State{
		Hands:  make(map[string]PlayerHand),
		Status: StatusGameEnded,
	}
}

func (s *State) clearPlayers() {
	s.Players = nil
	s.Hands = make(map[string]PlayerHand)
}

// upsert replaces a player's hand wholesale, keeping first-seen order.
func (s *State) upsert(userID string, hand PlayerHand) {
	if _, ok := s.Hands[userID]; !ok {
		s.Players = append(s.Players, userID)
	}
	s.Hands[userID] = hand
}

func (s State) clone() State {
	out := s
	out.DealerHand = append([]cards.Card(nil), s.DealerHand...)
	out.Players = append([]string(nil), s.Players...)
	out.Hands = make(map[string]PlayerHand, len(s.Hands))
	for id, h := range s.Hands {
		h.Cards = append([]cards.Card(nil), h.Cards...)
		out.Hands[id] = h
	}
	return out
}
