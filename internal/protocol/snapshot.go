package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Case tags of the snapshot envelope.
const (
	CaseLoadRound   = "LoadRound"
	CaseLoadResults = "LoadResults"
)

// ErrUnknownSnapshot is returned for an envelope with an unexpected case tag.
var ErrUnknownSnapshot = errors.New("unknown snapshot case")

// Snapshot is the one-time table state returned by the snapshot endpoint.
// Implementations are RoundSnapshot and ResultsSnapshot.
type Snapshot interface {
	Case() string
	isSnapshot()
}

// PlayerSummary is a connected player's hand as listed in a snapshot.
// Outcome is empty while the round is still running.
type PlayerSummary struct {
	UserID  string
	Cards   []string
	Total   int
	Outcome string
}

// Seat holds the fields both snapshot cases share.
type Seat struct {
	UserID             string
	Cards              []string
	Total              int
	RemainingCards     int
	TotalStartingCards int
	Connected          []PlayerSummary
	Finished           bool
	Wins               int
}

// RoundSnapshot describes a round in progress.
type RoundSnapshot struct {
	Seat
	FirstDealerCard string
	RoundEndTime    int64
	DealerTotal     int
}

// ResultsSnapshot describes the intermission after a round.
type ResultsSnapshot struct {
	Seat
	AllDealerCards []string
	DealerTotal    int
	Results        []PlayerSummary
	RoundStartTime int64
}

func (RoundSnapshot) Case() string   { return CaseLoadRound }
func (ResultsSnapshot) Case() string { return CaseLoadResults }

func (RoundSnapshot) isSnapshot()   {}
func (ResultsSnapshot) isSnapshot() {}

// DecodeSnapshot reads a {"Case": ..., "Fields": [payload]} envelope.
func DecodeSnapshot(body []byte) (Snapshot, error) {
	var env caseEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode snapshot envelope: %w", err)
	}
	if len(env.Fields) != 1 {
		return nil, fmt.Errorf("snapshot %s: expected one payload, got %d", env.Case, len(env.Fields))
	}
	var f fields
	if err := json.Unmarshal(env.Fields[0], &f); err != nil || f == nil {
		return nil, fmt.Errorf("snapshot %s: payload is not an object", env.Case)
	}

	switch env.Case {
	case CaseLoadRound:
		snap, err := decodeRoundSnapshot(f)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", env.Case, err)
		}
		return snap, nil
	case CaseLoadResults:
		snap, err := decodeResultsSnapshot(f)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", env.Case, err)
		}
		return snap, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownSnapshot, env.Case)
	}
}

func decodeSeat(f fields) (Seat, error) {
	var s Seat
	if err := f.require("userId", &s.UserID); err != nil {
		return s, err
	}
	if err := f.optional("cards", &s.Cards); err != nil {
		return s, err
	}
	if err := f.optional("total", &s.Total); err != nil {
		return s, err
	}
	if err := f.require("remainingCards", &s.RemainingCards); err != nil {
		return s, err
	}
	if err := f.require("totalStartingCards", &s.TotalStartingCards); err != nil {
		return s, err
	}
	if err := f.optional("finished", &s.Finished); err != nil {
		return s, err
	}
	if err := f.optional("wins", &s.Wins); err != nil {
		return s, err
	}
	connected, err := decodeSummaries(f, "currentlyConnectedPlayers", false)
	if err != nil {
		return s, err
	}
	s.Connected = connected
	if err := validateCodes(s.Cards); err != nil {
		return s, err
	}
	return s, nil
}

func decodeRoundSnapshot(f fields) (RoundSnapshot, error) {
	var snap RoundSnapshot
	seat, err := decodeSeat(f)
	if err != nil {
		return snap, err
	}
	snap.Seat = seat
	if err := f.optional("firstDealerCard", &snap.FirstDealerCard); err != nil {
		return snap, err
	}
	if err := f.require("roundEndTime", &snap.RoundEndTime); err != nil {
		return snap, err
	}
	if err := f.require("dealerTotal", &snap.DealerTotal); err != nil {
		return snap, err
	}
	if snap.FirstDealerCard != "" {
		if err := validateCodes([]string{snap.FirstDealerCard}); err != nil {
			return snap, err
		}
	}
	return snap, nil
}

func decodeResultsSnapshot(f fields) (ResultsSnapshot, error) {
	var snap ResultsSnapshot
	seat, err := decodeSeat(f)
	if err != nil {
		return snap, err
	}
	snap.Seat = seat
	if err := f.require("allDealerCards", &snap.AllDealerCards); err != nil {
		return snap, err
	}
	if err := f.require("dealerTotal", &snap.DealerTotal); err != nil {
		return snap, err
	}
	if err := f.require("roundStartTime", &snap.RoundStartTime); err != nil {
		return snap, err
	}
	results, err := decodeSummaries(f, "playerResults", true)
	if err != nil {
		return snap, err
	}
	snap.Results = results
	return snap, validateCodes(snap.AllDealerCards)
}

func decodeSummaries(f fields, key string, needOutcome bool) ([]PlayerSummary, error) {
	var entries []fields
	if err := f.optional(key, &entries); err != nil {
		return nil, err
	}
	out := make([]PlayerSummary, 0, len(entries))
	for i, entry := range entries {
		if entry == nil {
			return nil, fmt.Errorf("%s[%d]: empty entry", key, i)
		}
		var p PlayerSummary
		if err := entry.require("userId", &p.UserID); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		if err := entry.optional("cards", &p.Cards); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		if err := entry.optional("total", &p.Total); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		if needOutcome || entry.has("result") || entry.has("won") {
			outcome, err := readOutcome(entry, "result", "won")
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
			}
			p.Outcome = outcome
		}
		if err := validateCodes(p.Cards); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		out = append(out, p)
	}
	return out, nil
}
