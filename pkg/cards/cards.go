package cards

import (
	"errors"
	"fmt"
	"strings"
)

// Suit is the full suit name used for rendering.
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Rank is one of the 13 ranks in compact notation.
type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

// Ranks lists every valid rank in ascending order.
var Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

var suitLetters = map[byte]Suit{
	'S': Spades,
	'H': Hearts,
	'D': Diamonds,
	'C': Clubs,
}

// ErrInvalidCardCode matches every *InvalidCardCodeError.
var ErrInvalidCardCode = errors.New("invalid card code")

// InvalidCardCodeError reports a card code that cannot be decoded.
type InvalidCardCodeError struct {
	Code   string
	Reason string
}

func (e *InvalidCardCodeError) Error() string {
	return fmt.Sprintf("invalid card code %q: %s", e.Code, e.Reason)
}

func (e *InvalidCardCodeError) Is(target error) bool {
	return target == ErrInvalidCardCode
}

// Card is an immutable playing card.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// Code re-encodes the card in compact notation, e.g. "10H".
func (c Card) Code() string {
	if c.Suit == "" {
		return string(c.Rank)
	}
	return string(c.Rank) + strings.ToUpper(string(c.Suit)[:1])
}

func (c Card) String() string {
	return c.Code()
}

// Decode parses a compact card code: rank characters followed by one suit letter.
func Decode(code string) (Card, error) {
	if len(code) < 2 {
		return Card{}, &InvalidCardCodeError{Code: code, Reason: "too short"}
	}
	upper := strings.ToUpper(code)
	suit, ok := suitLetters[upper[len(upper)-1]]
	if !ok {
		return Card{}, &InvalidCardCodeError{Code: code, Reason: "unknown suit " + upper[len(upper)-1:]}
	}
	rank := Rank(upper[:len(upper)-1])
	if !validRank(rank) {
		return Card{}, &InvalidCardCodeError{Code: code, Reason: "unknown rank " + string(rank)}
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// DecodeAll decodes codes in order and stops at the first invalid one.
func DecodeAll(codes []string) ([]Card, error) {
	out := make([]Card, 0, len(codes))
	for _, code := range codes {
		c, err := Decode(code)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Reverse returns a copy of hand with the most recently dealt card first.
func Reverse(hand []Card) []Card {
	out := make([]Card, len(hand))
	for i, c := range hand {
		out[len(hand)-1-i] = c
	}
	return out
}

func validRank(r Rank) bool {
	for _, v := range Ranks {
		if v == r {
			return true
		}
	}
	return false
}
