package game

import (
	"errors"
	"testing"

	"blackjack/internal/protocol"
	"blackjack/pkg/cards"
)

func codes(hand []cards.Card) []string {
	out := make([]string, 0, len(hand))
	for _, c := range hand {
		out = append(out, c.Code())
	}
	return out
}

func equalCodes(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewStore(t *testing.T) {
	s := NewStore()
	snap := s.Snapshot()
	if snap.Status != StatusGameEnded {
		t.Errorf("Status %q, want %q", snap.Status, StatusGameEnded)
	}
	if len(snap.Hands) != 0 || snap.Connection.Connected {
		t.Errorf("new store should be empty and disconnected: %+v", snap)
	}
}

func TestStore_NewRoundClearsPlayers(t *testing.T) {
	s := NewStore()
	if err := s.ApplyPlayerCards(protocol.PlayerCards{UserID: "alice", Cards: []string{"2H"}, Total: 2}); err != nil {
		t.Fatalf("ApplyPlayerCards: %v", err)
	}
	if _, ok := s.Snapshot().Hand("alice"); !ok {
		t.Fatal("alice should be present")
	}

	err := s.ApplyNewRound(protocol.NewRound{RoundEndTime: 1000, DealerCards: []string{"2H", "AS"}, DealerTotal: 13})
	if err != nil {
		t.Fatalf("ApplyNewRound: %v", err)
	}
	snap := s.Snapshot()
	if len(snap.Hands) != 0 || len(snap.Players) != 0 {
		t.Errorf("players %v hands %v, want none", snap.Players, snap.Hands)
	}
	if snap.Status != StatusPlaying {
		t.Errorf("Status %q, want playing", snap.Status)
	}
	if snap.CountdownTo != 1000 || snap.DealerScore != 13 {
		t.Errorf("countdown %d score %d, want 1000 13", snap.CountdownTo, snap.DealerScore)
	}
	if got := codes(snap.DealerHand); !equalCodes(got, []string{"AS", "2H"}) {
		t.Errorf("DealerHand %v, want [AS 2H]", got)
	}
	if snap.Round != 1 {
		t.Errorf("Round %d, want 1", snap.Round)
	}
}

func TestStore_PlayerCardsUpsert(t *testing.T) {
	s := NewStore()
	_ = s.ApplyPlayerCards(protocol.PlayerCards{UserID: "alice", Cards: []string{"2H"}, Total: 2, RemainingCards: 50, TotalStartingCards: 52})
	_ = s.ApplyPlayerCards(protocol.PlayerCards{UserID: "bob", Cards: []string{"5C"}, Total: 5, RemainingCards: 49, TotalStartingCards: 52})
	_ = s.ApplyPlayerCards(protocol.PlayerCards{UserID: "alice", Cards: []string{"2H", "AS"}, Total: 13, RemainingCards: 48, TotalStartingCards: 52})

	snap := s.Snapshot()
	if !equalCodes(snap.Players, []string{"alice", "bob"}) {
		t.Errorf("Players %v, want insertion order [alice bob]", snap.Players)
	}
	alice, _ := snap.Hand("alice")
	if got := codes(alice.Cards); !equalCodes(got, []string{"AS", "2H"}) {
		t.Errorf("alice cards %v, want [AS 2H]", got)
	}
	if alice.Score != 13 || alice.Outcome != OutcomePlaying {
		t.Errorf("alice %+v, want score 13 playing", alice)
	}
	if snap.RemainingCards != 48 || snap.TotalStartingCards != 52 {
		t.Errorf("shoe %d/%d, want 48/52", snap.RemainingCards, snap.TotalStartingCards)
	}
}

func TestStore_InvalidCardsLeaveStateUntouched(t *testing.T) {
	s := NewStore()
	_ = s.ApplyPlayerCards(protocol.PlayerCards{UserID: "alice", Cards: []string{"2H"}, Total: 2, RemainingCards: 50})
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	err := s.ApplyPlayerCards(protocol.PlayerCards{UserID: "alice", Cards: []string{"2H", "5X"}, Total: 7, RemainingCards: 10})
	if !errors.Is(err, cards.ErrInvalidCardCode) {
		t.Fatalf("err %v, want ErrInvalidCardCode", err)
	}
	snap := s.Snapshot()
	if alice, _ := snap.Hand("alice"); alice.Score != 2 || snap.RemainingCards != 50 {
		t.Errorf("state changed after failed update: %+v", snap)
	}
	if len(ch) != 0 {
		t.Error("failed update should not notify")
	}
}

func TestStore_RoundResultsWinCounting(t *testing.T) {
	s := NewStore()
	win := protocol.RoundResults{
		DealerCards: []string{"KH", "7S"}, DealerTotal: 17, RoundStartTime: 3000,
		Results: []protocol.Result{
			{UserID: "bob", Cards: []string{"10H", "QS"}, Total: 20, Outcome: "Win"},
			{UserID: "carol", Cards: []string{"10D", "9S"}, Total: 19, Outcome: "win"},
		},
	}
	if err := s.ApplyRoundResults(win, "bob"); err != nil {
		t.Fatalf("ApplyRoundResults: %v", err)
	}
	snap := s.Snapshot()
	if snap.Wins != 1 {
		t.Errorf("Wins %d, want 1", snap.Wins)
	}
	if snap.Status != StatusGameEnded || snap.CountdownTo != 3000 {
		t.Errorf("status %q countdown %d, want game_ended 3000", snap.Status, snap.CountdownTo)
	}
	bob, _ := snap.Hand("bob")
	if bob.Outcome != OutcomeWin {
		t.Errorf("bob outcome %q, want win", bob.Outcome)
	}

	loss := win
	loss.Results = []protocol.Result{{UserID: "bob", Cards: []string{"10H", "5S"}, Total: 15, Outcome: "loss"}}
	if err := s.ApplyRoundResults(loss, "bob"); err != nil {
		t.Fatalf("ApplyRoundResults: %v", err)
	}
	if got := s.Snapshot().Wins; got != 1 {
		t.Errorf("Wins %d after loss, want 1", got)
	}
}

func TestStore_SeedRoundSnapshot(t *testing.T) {
	s := NewStore()
	s.BeginSync()
	err := s.SeedFromSnapshot(protocol.RoundSnapshot{
		Seat: protocol.Seat{
			UserID: "bob", Cards: []string{"9H", "2C"}, Total: 11,
			RemainingCards: 40, TotalStartingCards: 52, Wins: 4,
			Connected: []protocol.PlayerSummary{{UserID: "alice", Cards: []string{"2H", "AS"}, Total: 13}},
		},
		FirstDealerCard: "KS", RoundEndTime: 1700, DealerTotal: 10,
	})
	if err != nil {
		t.Fatalf("SeedFromSnapshot: %v", err)
	}
	snap := s.Snapshot()
	if snap.Status != StatusPlaying || snap.CountdownTo != 1700 || snap.DealerScore != 10 {
		t.Errorf("seeded state %+v", snap.State)
	}
	if got := codes(snap.DealerHand); !equalCodes(got, []string{"KS"}) {
		t.Errorf("DealerHand %v, want [KS]", got)
	}
	if !equalCodes(snap.Players, []string{"alice", "bob"}) {
		t.Errorf("Players %v, want [alice bob]", snap.Players)
	}
	alice, _ := snap.Hand("alice")
	if got := codes(alice.Cards); !equalCodes(got, []string{"AS", "2H"}) || alice.Outcome != OutcomePlaying {
		t.Errorf("alice %+v", alice)
	}
	if snap.Wins != 4 || snap.RemainingCards != 40 {
		t.Errorf("wins %d remaining %d, want 4 40", snap.Wins, snap.RemainingCards)
	}
}

func TestStore_SeedResultsSnapshot(t *testing.T) {
	s := NewStore()
	err := s.SeedFromSnapshot(protocol.ResultsSnapshot{
		Seat:           protocol.Seat{UserID: "bob", RemainingCards: 30, TotalStartingCards: 52},
		AllDealerCards: []string{"7H", "10S"}, DealerTotal: 17, RoundStartTime: 1800,
		Results: []protocol.PlayerSummary{{UserID: "bob", Cards: []string{"AS", "KD"}, Total: 21, Outcome: "win"}},
	})
	if err != nil {
		t.Fatalf("SeedFromSnapshot: %v", err)
	}
	snap := s.Snapshot()
	if snap.Status != StatusGameEnded || snap.CountdownTo != 1800 {
		t.Errorf("status %q countdown %d", snap.Status, snap.CountdownTo)
	}
	if got := codes(snap.DealerHand); !equalCodes(got, []string{"10S", "7H"}) {
		t.Errorf("DealerHand %v, want [10S 7H]", got)
	}
	bob, _ := snap.Hand("bob")
	if bob.Outcome != OutcomeWin {
		t.Errorf("bob outcome %q, want win", bob.Outcome)
	}
	if snap.Wins != 0 {
		t.Errorf("seeding a past win must not count it again, Wins %d", snap.Wins)
	}
}

func TestStore_SeedNeverLowersWins(t *testing.T) {
	s := NewStore()
	_ = s.ApplyRoundResults(protocol.RoundResults{
		Results: []protocol.Result{{UserID: "bob", Outcome: "win"}},
	}, "bob")
	_ = s.SeedFromSnapshot(protocol.RoundSnapshot{Seat: protocol.Seat{UserID: "bob", Wins: 0}})
	if got := s.Snapshot().Wins; got != 1 {
		t.Errorf("Wins %d, want 1", got)
	}
}

func TestStore_StaleSnapshotGuard(t *testing.T) {
	s := NewStore()
	s.BeginSync()
	_ = s.ApplyNewRound(protocol.NewRound{RoundEndTime: 5000, DealerCards: []string{"AS"}, DealerTotal: 11})

	err := s.SeedFromSnapshot(protocol.ResultsSnapshot{AllDealerCards: []string{"2C"}, RoundStartTime: 1})
	if !errors.Is(err, ErrStaleSnapshot) {
		t.Fatalf("err %v, want ErrStaleSnapshot", err)
	}
	snap := s.Snapshot()
	if snap.Status != StatusPlaying || snap.CountdownTo != 5000 {
		t.Errorf("stale snapshot clobbered state: %+v", snap.State)
	}

	s.BeginSync()
	if err := s.SeedFromSnapshot(protocol.ResultsSnapshot{AllDealerCards: []string{"2C"}, RoundStartTime: 1}); err != nil {
		t.Errorf("fresh sync should accept the snapshot: %v", err)
	}
}

func TestStore_ConnectionStatus(t *testing.T) {
	s := NewStore()
	boom := errors.New("boom")

	s.SetConnectionStatus(false, boom)
	if c := s.Snapshot().Connection; c.Connected || !errors.Is(c.LastError, boom) {
		t.Errorf("connection %+v, want disconnected with boom", c)
	}
	s.SetConnectionStatus(false, nil)
	if c := s.Snapshot().Connection; !errors.Is(c.LastError, boom) {
		t.Errorf("plain close should keep the last error, got %+v", c)
	}
	s.SetConnectionStatus(true, nil)
	if c := s.Snapshot().Connection; !c.Connected || c.LastError != nil {
		t.Errorf("connection %+v, want connected without error", c)
	}
}

func TestStore_SubscribeNotifiesEveryMutation(t *testing.T) {
	s := NewStore()
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	_ = s.ApplyNewRound(protocol.NewRound{DealerCards: []string{}})
	_ = s.ApplyPlayerCards(protocol.PlayerCards{UserID: "a", Cards: []string{}})
	_ = s.ApplyRoundResults(protocol.RoundResults{DealerCards: []string{}}, "a")
	s.SetConnectionStatus(true, nil)

	want := []Change{ChangeRound, ChangePlayers, ChangeResults, ChangeConnection}
	for _, w := range want {
		if got := <-ch; got != w {
			t.Errorf("change %q, want %q", got, w)
		}
	}
}

func TestStore_SnapshotIsIsolated(t *testing.T) {
	s := NewStore()
	_ = s.ApplyPlayerCards(protocol.PlayerCards{UserID: "alice", Cards: []string{"2H"}, Total: 2})
	snap := s.Snapshot()
	snap.Hands["alice"].Cards[0] = cards.Card{Rank: cards.King, Suit: cards.Spades}
	delete(snap.Hands, "alice")

	again := s.Snapshot()
	alice, ok := again.Hand("alice")
	if !ok || alice.Cards[0].Code() != "2H" {
		t.Errorf("store state leaked through snapshot: %+v", again.Hands)
	}
}

func TestOutcome_Resolved(t *testing.T) {
	for o, want := range map[Outcome]bool{
		OutcomeWin: true, OutcomeLoss: true, OutcomePush: true,
		OutcomePlaying: false, OutcomeStanding: false, "surrender": false,
	} {
		if got := o.Resolved(); got != want {
			t.Errorf("%q.Resolved() = %v, want %v", o, got, want)
		}
	}
}
