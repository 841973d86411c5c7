package viewmodel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"blackjack/internal/game"
	"blackjack/pkg/cards"
)

// Status labels shown next to a hand.
const (
	LabelBlackjack = "BLACKJACK!"
	LabelBust      = "BUST!"
	LabelWin       = "WIN!"
	LabelLoss      = "LOSS!"
	LabelPush      = "PUSH!"
	LabelStand     = "STAND"
)

// Card is a single rendered card.
type Card struct {
	Code   string
	Rank   string
	Symbol string
	Red    bool
}

// Hand is a rendered hand with its status label.
type Hand struct {
	UserID string
	Cards  []Card
	Score  int
	Soft   bool
	Label  string
	Tone   string
	Local  bool
}

// Local carries the client-only flags that are not part of the shared state.
type Local struct {
	Player   string
	Standing bool
	InFlight bool
}

// Table holds everything a front-end needs to draw the table.
type Table struct {
	Player     string
	Dealer     Hand
	Self       Hand
	HasSelf    bool
	Others     []Hand
	Status     game.Status
	StatusText string
	Countdown  string
	Remaining  int64
	Shoe       string
	Wins       int
	Round      int
	Connected  bool
	Banner     string
	InFlight   bool
	Standing   bool
	CanHit     bool
	CanStand   bool
}

// Page holds data for the table page.
type Page struct {
	Title string
	Table Table
}

// Build projects a store snapshot for the local player at time now.
func Build(snap game.Snapshot, local Local, now time.Time) Table {
	t := Table{
		Player:     local.Player,
		Status:     snap.Status,
		StatusText: strings.ReplaceAll(string(snap.Status), "_", " "),
		Wins:       snap.Wins,
		Round:      snap.Round,
		Connected:  snap.Connection.Connected,
		InFlight:   local.InFlight,
		Standing:   local.Standing,
	}

	t.Dealer = Hand{UserID: "Dealer", Cards: toCards(snap.DealerHand), Score: snap.DealerScore}
	t.Dealer.Label, t.Dealer.Tone = dealerLabel(snap.DealerScore, snap.Status)

	for _, seat := range snap.Seats() {
		h := toHand(seat, seat.UserID == local.Player, local.Standing)
		if h.Local {
			t.Self = h
			t.HasSelf = true
			continue
		}
		t.Others = append(t.Others, h)
	}

	cd := snap.Countdown()
	if cd.Active() {
		t.Remaining = cd.Remaining(now)
		switch snap.Status {
		case game.StatusPlaying:
			t.Countdown = fmt.Sprintf("Round ends in: %ds", t.Remaining)
		case game.StatusGameEnded:
			t.Countdown = fmt.Sprintf("Next round in: %ds", t.Remaining)
		}
	}
	if snap.TotalStartingCards > 0 {
		t.Shoe = fmt.Sprintf("Cards left: %d/%d", snap.RemainingCards, snap.TotalStartingCards)
	}

	switch {
	case snap.Connection.Connected:
	case snap.Connection.LastError != nil:
		t.Banner = "Disconnected: " + snap.Connection.LastError.Error()
	default:
		t.Banner = "Disconnected"
	}

	open := t.Connected && snap.Status == game.StatusPlaying && !local.InFlight && !local.Standing
	if open && t.HasSelf {
		own, _ := snap.Hand(local.Player)
		open = !own.Outcome.Resolved() && own.Outcome != game.OutcomeStanding && t.Self.Score <= 21
	}
	t.CanHit = open
	t.CanStand = open
	return t
}

// Key identifies what a rendered table shows, so callers can skip redraws.
func (t Table) Key() string {
	var b strings.Builder
	b.WriteString(string(t.Status))
	b.WriteString("|" + strconv.Itoa(t.Round))
	b.WriteString("|" + t.Countdown)
	b.WriteString("|" + t.Banner)
	b.WriteString("|" + t.Shoe)
	b.WriteString("|" + strconv.Itoa(t.Wins))
	b.WriteString("|" + t.Player)
	for _, flag := range []bool{t.Connected, t.InFlight, t.Standing, t.CanHit, t.CanStand} {
		b.WriteString("|" + strconv.FormatBool(flag))
	}
	for _, h := range append([]Hand{t.Dealer, t.Self}, t.Others...) {
		b.WriteString("|" + h.UserID + ":" + strconv.Itoa(h.Score) + ":" + strconv.FormatBool(h.Soft) + ":" + h.Label)
		for _, c := range h.Cards {
			b.WriteString("," + c.Code)
		}
	}
	return b.String()
}

func toHand(seat game.Seat, local, standing bool) Hand {
	h := Hand{
		UserID: seat.UserID,
		Cards:  toCards(seat.Hand.Cards),
		Score:  seat.Hand.Score,
		Local:  local,
	}
	if h.Score == 0 && len(seat.Hand.Cards) > 0 {
		h.Score, h.Soft = cards.Score(seat.Hand.Cards)
	} else if total, soft := cards.Score(seat.Hand.Cards); total == h.Score {
		h.Soft = soft
	}
	outcome := seat.Hand.Outcome
	if local && standing && outcome == game.OutcomePlaying {
		outcome = game.OutcomeStanding
	}
	h.Label, h.Tone = handLabel(h.Score, outcome)
	return h
}

// handLabel trusts a resolved server outcome and falls back to the score.
func handLabel(score int, outcome game.Outcome) (string, string) {
	switch outcome {
	case game.OutcomeWin:
		return LabelWin, "win"
	case game.OutcomeLoss:
		return LabelLoss, "loss"
	case game.OutcomePush:
		return LabelPush, "push"
	}
	switch {
	case score == 21:
		return LabelBlackjack, "blackjack"
	case score > 21:
		return LabelBust, "bust"
	case outcome == game.OutcomeStanding:
		return LabelStand, "stand"
	}
	return "", ""
}

func dealerLabel(score int, status game.Status) (string, string) {
	switch {
	case score == 21:
		return LabelBlackjack, "blackjack"
	case score > 21:
		return LabelBust, "bust"
	case status == game.StatusGameEnded:
		return LabelStand, "stand"
	}
	return "", ""
}

func toCards(hand []cards.Card) []Card {
	out := make([]Card, 0, len(hand))
	for _, c := range hand {
		out = append(out, Card{
			Code:   c.Code(),
			Rank:   string(c.Rank),
			Symbol: suitSymbol(c.Suit),
			Red:    c.Suit == cards.Hearts || c.Suit == cards.Diamonds,
		})
	}
	return out
}

func suitSymbol(s cards.Suit) string {
	switch s {
	case cards.Hearts:
		return "♥"
	case cards.Diamonds:
		return "♦"
	case cards.Clubs:
		return "♣"
	case cards.Spades:
		return "♠"
	}
	return "?"
}
