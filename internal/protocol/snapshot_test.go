package protocol

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecodeSnapshot_LoadRound(t *testing.T) {
	body := `{"Case":"LoadRound","Fields":[{
		"userId":"bob","cards":null,"total":0,"remainingCards":48,"totalStartingCards":52,
		"currentlyConnectedPlayers":[{"userId":"alice","cards":["2H","9C"],"total":11,"result":null}],
		"finished":false,"firstDealerCard":"KS","roundEndTime":1700,"dealerTotal":10,"wins":3}]}`
	snap, err := DecodeSnapshot([]byte(body))
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	round, ok := snap.(RoundSnapshot)
	if !ok {
		t.Fatalf("got %T, want RoundSnapshot", snap)
	}
	if round.Case() != CaseLoadRound {
		t.Errorf("Case %q, want %q", round.Case(), CaseLoadRound)
	}
	if round.UserID != "bob" || round.Cards != nil {
		t.Errorf("seat %+v, want bob without cards", round.Seat)
	}
	if round.FirstDealerCard != "KS" || round.RoundEndTime != 1700 || round.DealerTotal != 10 {
		t.Errorf("round fields %+v", round)
	}
	if round.Wins != 3 || round.RemainingCards != 48 || round.TotalStartingCards != 52 {
		t.Errorf("counters %+v", round.Seat)
	}
	want := []PlayerSummary{{UserID: "alice", Cards: []string{"2H", "9C"}, Total: 11}}
	if !reflect.DeepEqual(round.Connected, want) {
		t.Errorf("Connected %+v, want %+v", round.Connected, want)
	}
}

func TestDecodeSnapshot_LoadResults(t *testing.T) {
	body := `{"Case":"LoadResults","Fields":[{
		"userId":"bob","cards":["AS","KD"],"total":21,"remainingCards":30,"totalStartingCards":52,
		"currentlyConnectedPlayers":[],"finished":true,
		"allDealerCards":["7H","10S"],"dealerTotal":17,
		"playerResults":[{"userId":"bob","cards":["AS","KD"],"total":21,"result":{"Case":"Some","Fields":["Win"]}}],
		"roundStartTime":1800}]}`
	snap, err := DecodeSnapshot([]byte(body))
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	res, ok := snap.(ResultsSnapshot)
	if !ok {
		t.Fatalf("got %T, want ResultsSnapshot", snap)
	}
	if !reflect.DeepEqual(res.AllDealerCards, []string{"7H", "10S"}) {
		t.Errorf("AllDealerCards %v", res.AllDealerCards)
	}
	if res.RoundStartTime != 1800 || res.DealerTotal != 17 || !res.Finished {
		t.Errorf("results fields %+v", res)
	}
	if len(res.Results) != 1 || res.Results[0].Outcome != "win" {
		t.Errorf("Results %+v, want bob win", res.Results)
	}
}

func TestDecodeSnapshot_Errors(t *testing.T) {
	cases := map[string]string{
		"not json":      `nope`,
		"unknown case":  `{"Case":"Other","Fields":[{}]}`,
		"no payload":    `{"Case":"LoadRound","Fields":[]}`,
		"missing field": `{"Case":"LoadRound","Fields":[{"userId":"a","remainingCards":1,"totalStartingCards":1,"dealerTotal":1}]}`,
		"bad card":      `{"Case":"LoadRound","Fields":[{"userId":"a","remainingCards":1,"totalStartingCards":1,"dealerTotal":1,"roundEndTime":1,"firstDealerCard":"XX"}]}`,
		"no outcome":    `{"Case":"LoadResults","Fields":[{"userId":"a","remainingCards":1,"totalStartingCards":1,"allDealerCards":[],"dealerTotal":1,"roundStartTime":1,"playerResults":[{"userId":"a","cards":[]}]}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeSnapshot([]byte(body)); err == nil {
				t.Error("DecodeSnapshot should fail")
			}
		})
	}

	_, err := DecodeSnapshot([]byte(`{"Case":"Other","Fields":[{}]}`))
	if !errors.Is(err, ErrUnknownSnapshot) {
		t.Errorf("err %v, want ErrUnknownSnapshot", err)
	}
}
