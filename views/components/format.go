// Package components holds the HTML components of the web client.
package components

import (
	"fmt"
	"strconv"

	"blackjack/internal/viewmodel"
)

//go:generate templ generate

func scoreText(h viewmodel.Hand) string {
	if h.Soft {
		return "soft " + strconv.Itoa(h.Score)
	}
	return strconv.Itoa(h.Score)
}

func cardColor(c viewmodel.Card) string {
	if c.Red {
		return "red"
	}
	return "black"
}

// statusLine joins the status, win count and shoe into one line.
func statusLine(t viewmodel.Table) string {
	s := fmt.Sprintf("Game Status: %s · Wins: %d", t.StatusText, t.Wins)
	if t.Shoe != "" {
		s += " · " + t.Shoe
	}
	return s
}
