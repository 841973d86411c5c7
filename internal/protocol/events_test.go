package protocol

import (
	"reflect"
	"strings"
	"testing"
)

func TestInterpret_NewRound(t *testing.T) {
	ev := Interpret([]byte(`{"Type":"new_round","RoundEndTime":1000,"DealerCards":["AS"],"DealerTotal":11}`))
	got, ok := ev.(NewRound)
	if !ok {
		t.Fatalf("got %T (%+v), want NewRound", ev, ev)
	}
	if got.RoundEndTime != 1000 {
		t.Errorf("RoundEndTime %d, want 1000", got.RoundEndTime)
	}
	if !reflect.DeepEqual(got.DealerCards, []string{"AS"}) {
		t.Errorf("DealerCards %v, want [AS]", got.DealerCards)
	}
	if got.DealerTotal != 11 {
		t.Errorf("DealerTotal %d, want 11", got.DealerTotal)
	}
}

func TestInterpret_NewRoundTimestampAlias(t *testing.T) {
	ev := Interpret([]byte(`{"Type":"new_round","RoundEndTimestamp":77,"DealerCards":[],"DealerTotal":0}`))
	got, ok := ev.(NewRound)
	if !ok {
		t.Fatalf("got %T, want NewRound", ev)
	}
	if got.RoundEndTime != 77 {
		t.Errorf("RoundEndTime %d, want 77", got.RoundEndTime)
	}
}

func TestInterpret_NewRoundOptionTimestamp(t *testing.T) {
	ev := Interpret([]byte(`{"Type":"new_round","RoundEndTime":{"Case":"Some","Fields":[42]},"DealerCards":["KD"],"DealerTotal":10}`))
	got, ok := ev.(NewRound)
	if !ok {
		t.Fatalf("got %T, want NewRound", ev)
	}
	if got.RoundEndTime != 42 {
		t.Errorf("RoundEndTime %d, want 42", got.RoundEndTime)
	}
}

func TestInterpret_PlayerCards(t *testing.T) {
	ev := Interpret([]byte(`{"Type":"player_cards","UserId":"alice","Cards":["2H","AS"],"Total":13,"RemainingCards":40,"TotalStartingCards":52}`))
	got, ok := ev.(PlayerCards)
	if !ok {
		t.Fatalf("got %T (%+v), want PlayerCards", ev, ev)
	}
	want := PlayerCards{UserID: "alice", Cards: []string{"2H", "AS"}, Total: 13, RemainingCards: 40, TotalStartingCards: 52}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestInterpret_RoundResults(t *testing.T) {
	ev := Interpret([]byte(`{"Type":"round_results","DealerCards":["KH","7S"],"DealerTotal":17,"RoundStartTime":2000,
		"Results":[
			{"UserId":"bob","Cards":["10H","QS"],"Total":20,"Result":"Win"},
			{"UserId":"carol","Cards":["9H","8S"],"Total":17,"Result":{"Case":"Some","Fields":["PUSH"]}},
			{"UserId":"dave","Cards":["5H","4S"],"Total":9,"Won":false}
		]}`))
	got, ok := ev.(RoundResults)
	if !ok {
		t.Fatalf("got %T (%+v), want RoundResults", ev, ev)
	}
	if got.RoundStartTime != 2000 || got.DealerTotal != 17 {
		t.Errorf("got start %d total %d, want 2000 17", got.RoundStartTime, got.DealerTotal)
	}
	wantOutcomes := []string{"win", "push", "loss"}
	if len(got.Results) != len(wantOutcomes) {
		t.Fatalf("len(Results) %d, want %d", len(got.Results), len(wantOutcomes))
	}
	for i, want := range wantOutcomes {
		if got.Results[i].Outcome != want {
			t.Errorf("Results[%d].Outcome %q, want %q", i, got.Results[i].Outcome, want)
		}
	}
}

func TestInterpret_Unrecognized(t *testing.T) {
	cases := map[string]string{
		"malformed":         `{"Type":"new_round",`,
		"not object":        `[1,2]`,
		"null":              `null`,
		"bogus type":        `{"Type":"bogus"}`,
		"missing type":      `{"DealerTotal":3}`,
		"type not string":   `{"Type":5}`,
		"missing field":     `{"Type":"new_round","DealerCards":["AS"],"DealerTotal":11}`,
		"wrong field type":  `{"Type":"player_cards","UserId":"a","Cards":"AS","Total":1,"RemainingCards":1,"TotalStartingCards":1}`,
		"invalid card":      `{"Type":"new_round","RoundEndTime":1,"DealerCards":["ZZS"],"DealerTotal":11}`,
		"invalid result":    `{"Type":"round_results","DealerCards":[],"DealerTotal":1,"RoundStartTime":1,"Results":[{"UserId":"a","Cards":["5X"],"Total":1,"Result":"win"}]}`,
		"result no outcome": `{"Type":"round_results","DealerCards":[],"DealerTotal":1,"RoundStartTime":1,"Results":[{"UserId":"a","Cards":[],"Total":1}]}`,
		"empty":             ``,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			ev := Interpret([]byte(payload))
			got, ok := ev.(Unrecognized)
			if !ok {
				t.Fatalf("got %T (%+v), want Unrecognized", ev, ev)
			}
			if got.Payload != payload {
				t.Errorf("Payload %q, want original %q", got.Payload, payload)
			}
			if got.Reason == "" {
				t.Error("Reason should be set")
			}
		})
	}
}

func TestInterpret_UnknownTypeReason(t *testing.T) {
	got := Interpret([]byte(`{"Type":"bogus"}`)).(Unrecognized)
	if !strings.Contains(got.Reason, "bogus") {
		t.Errorf("Reason %q should name the type", got.Reason)
	}
}
