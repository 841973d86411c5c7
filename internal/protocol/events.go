package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"blackjack/pkg/cards"
)

// Frame discriminators sent by the game server.
const (
	TypeNewRound     = "new_round"
	TypePlayerCards  = "player_cards"
	TypeRoundResults = "round_results"
)

// Event is one interpreted stream frame. The set of implementations is closed:
// NewRound, PlayerCards, RoundResults and Unrecognized.
type Event interface {
	Kind() string
	isEvent()
}

// NewRound starts a round; the dealer's visible cards are listed oldest first.
type NewRound struct {
	RoundEndTime int64
	DealerCards  []string
	DealerTotal  int
}

// PlayerCards reports one player's complete hand after a deal or hit.
type PlayerCards struct {
	UserID             string
	Cards              []string
	Total              int
	RemainingCards     int
	TotalStartingCards int
}

// Result is one player's entry in RoundResults.
type Result struct {
	UserID  string
	Cards   []string
	Total   int
	Outcome string
}

// RoundResults closes a round; RoundStartTime is when the next round begins.
type RoundResults struct {
	DealerCards    []string
	DealerTotal    int
	Results        []Result
	RoundStartTime int64
}

// Unrecognized carries a frame that could not be interpreted.
type Unrecognized struct {
	Payload string
	Reason  string
}

func (NewRound) Kind() string     { return TypeNewRound }
func (PlayerCards) Kind() string  { return TypePlayerCards }
func (RoundResults) Kind() string { return TypeRoundResults }
func (Unrecognized) Kind() string { return "unrecognized" }

func (NewRound) isEvent()     {}
func (PlayerCards) isEvent()  {}
func (RoundResults) isEvent() {}
func (Unrecognized) isEvent() {}

// Interpret decodes one raw stream payload. It never panics and never fails:
// anything that is not a well-formed known frame comes back as Unrecognized.
func Interpret(payload []byte) (ev Event) {
	defer func() {
		if r := recover(); r != nil {
			ev = unrecognized(payload, fmt.Sprintf("panic: %v", r))
		}
	}()

	var f fields
	if err := json.Unmarshal(payload, &f); err != nil {
		return unrecognized(payload, "malformed frame: "+err.Error())
	}
	if f == nil {
		return unrecognized(payload, "frame is not an object")
	}
	var typ string
	if err := f.require("Type", &typ); err != nil {
		return unrecognized(payload, err.Error())
	}

	var err error
	switch typ {
	case TypeNewRound:
		ev, err = decodeNewRound(f)
	case TypePlayerCards:
		ev, err = decodePlayerCards(f)
	case TypeRoundResults:
		ev, err = decodeRoundResults(f)
	default:
		return unrecognized(payload, "unknown message type "+typ)
	}
	if err != nil {
		return unrecognized(payload, typ+": "+err.Error())
	}
	return ev
}

func decodeNewRound(f fields) (NewRound, error) {
	var ev NewRound
	endKey := "RoundEndTime"
	if !f.has(endKey) {
		endKey = "RoundEndTimestamp"
	}
	if err := f.require(endKey, &ev.RoundEndTime); err != nil {
		return ev, err
	}
	if err := f.require("DealerCards", &ev.DealerCards); err != nil {
		return ev, err
	}
	if err := f.require("DealerTotal", &ev.DealerTotal); err != nil {
		return ev, err
	}
	return ev, validateCodes(ev.DealerCards)
}

func decodePlayerCards(f fields) (PlayerCards, error) {
	var ev PlayerCards
	if err := f.require("UserId", &ev.UserID); err != nil {
		return ev, err
	}
	if err := f.require("Cards", &ev.Cards); err != nil {
		return ev, err
	}
	if err := f.require("Total", &ev.Total); err != nil {
		return ev, err
	}
	if err := f.require("RemainingCards", &ev.RemainingCards); err != nil {
		return ev, err
	}
	if err := f.require("TotalStartingCards", &ev.TotalStartingCards); err != nil {
		return ev, err
	}
	return ev, validateCodes(ev.Cards)
}

func decodeRoundResults(f fields) (RoundResults, error) {
	var ev RoundResults
	if err := f.require("DealerCards", &ev.DealerCards); err != nil {
		return ev, err
	}
	if err := f.require("DealerTotal", &ev.DealerTotal); err != nil {
		return ev, err
	}
	if err := f.require("RoundStartTime", &ev.RoundStartTime); err != nil {
		return ev, err
	}
	var entries []fields
	if err := f.require("Results", &entries); err != nil {
		return ev, err
	}
	if err := validateCodes(ev.DealerCards); err != nil {
		return ev, err
	}
	ev.Results = make([]Result, 0, len(entries))
	for i, entry := range entries {
		res, err := decodeResult(entry)
		if err != nil {
			return ev, fmt.Errorf("result %d: %w", i, err)
		}
		ev.Results = append(ev.Results, res)
	}
	return ev, nil
}

func decodeResult(f fields) (Result, error) {
	var res Result
	if f == nil {
		return res, fmt.Errorf("empty entry")
	}
	if err := f.require("UserId", &res.UserID); err != nil {
		return res, err
	}
	if err := f.require("Cards", &res.Cards); err != nil {
		return res, err
	}
	if err := f.require("Total", &res.Total); err != nil {
		return res, err
	}
	outcome, err := readOutcome(f, "Result", "Won")
	if err != nil {
		return res, err
	}
	res.Outcome = outcome
	return res, validateCodes(res.Cards)
}

// readOutcome reads a result string, falling back to a boolean won flag.
func readOutcome(f fields, resultKey, wonKey string) (string, error) {
	if f.has(resultKey) {
		var s string
		if err := f.require(resultKey, &s); err != nil {
			return "", err
		}
		return strings.ToLower(strings.TrimSpace(s)), nil
	}
	if f.has(wonKey) {
		var won bool
		if err := f.require(wonKey, &won); err != nil {
			return "", err
		}
		if won {
			return "win", nil
		}
		return "loss", nil
	}
	return "", fmt.Errorf("missing field %s", resultKey)
}

func validateCodes(codes []string) error {
	_, err := cards.DecodeAll(codes)
	return err
}

func unrecognized(payload []byte, reason string) Unrecognized {
	return Unrecognized{Payload: string(payload), Reason: reason}
}
