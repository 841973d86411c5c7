package cards

// Value returns the hard value of a card; aces count 1.
func (c Card) Value() int {
	switch c.Rank {
	case Ace:
		return 1
	case Ten, Jack, Queen, King:
		return 10
	default:
		return int(c.Rank[0] - '0')
	}
}

// Score sums a hand counting one ace as 11 when that does not bust.
// soft reports whether an ace is currently counted as 11.
func Score(hand []Card) (total int, soft bool) {
	aces := 0
	for _, c := range hand {
		total += c.Value()
		if c.Rank == Ace {
			aces++
		}
	}
	if aces > 0 && total+10 <= 21 {
		return total + 10, true
	}
	return total, false
}
