package model

import "fmt"

// Position is the side of the screen an item is shown on. It maps a user
// decision to an item; it says nothing about ranking.
type Position int

// Matchup positions.
const (
	First  Position = 1
	Second Position = 2
)

// Valid reports whether p names one of the two sides.
func (p Position) Valid() bool { return p == First || p == Second }

// Wire returns the backend encoding of the winner ("1" or "2").
func (p Position) Wire() string {
	switch p {
	case First:
		return "1"
	case Second:
		return "2"
	default:
		return ""
	}
}

func (p Position) String() string {
	switch p {
	case First:
		return "first"
	case Second:
		return "second"
	default:
		return fmt.Sprintf("position(%d)", int(p))
	}
}

// ParsePosition accepts "1"/"2" and "first"/"second".
func ParsePosition(s string) (Position, error) {
	switch s {
	case "1", "first":
		return First, nil
	case "2", "second":
		return Second, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
}

// Matchup is an ordered pair of distinct items. The zero value means no pair.
type Matchup struct {
	ID     string // names the decision slot; assigned when the pair is fetched
	First  Item
	Second Item
}

// NewMatchup builds a pair, rejecting identical items.
func NewMatchup(id string, first, second Item) (Matchup, error) {
	if first.ID == second.ID {
		return Matchup{}, fmt.Errorf("%w: both sides are album %d", ErrDuplicateItem, first.ID)
	}
	return Matchup{ID: id, First: first, Second: second}, nil
}

// IsZero reports whether no pair is populated.
func (m Matchup) IsZero() bool { return m.ID == "" }

// Contains reports whether itemID is displayed on either side.
func (m Matchup) Contains(itemID int64) bool {
	return !m.IsZero() && (m.First.ID == itemID || m.Second.ID == itemID)
}

// Item returns the item at position p.
func (m Matchup) Item(p Position) Item {
	if p == Second {
		return m.Second
	}
	return m.First
}

// Items returns both items in display order.
func (m Matchup) Items() [2]Item { return [2]Item{m.First, m.Second} }

// Decide builds the single decision for this pair.
func (m Matchup) Decide(winner Position) (VoteDecision, error) {
	if m.IsZero() {
		return VoteDecision{}, ErrEmptyMatchup
	}
	if !winner.Valid() {
		return VoteDecision{}, fmt.Errorf("%w: %d", ErrInvalidPosition, int(winner))
	}
	return VoteDecision{
		MatchupID: m.ID,
		FirstID:   m.First.ID,
		SecondID:  m.Second.ID,
		Winner:    winner,
	}, nil
}

// WithScores returns a copy with the backend's updated scores overlaid.
func (m Matchup) WithScores(s Scores) Matchup {
	m.First.StrengthScore = s.First
	m.Second.StrengthScore = s.Second
	return m
}

// VoteDecision is one atomic "A beat B" fact. It is submitted once per
// matchup and never retried automatically.
type VoteDecision struct {
	MatchupID     string
	FirstID       int64
	SecondID      int64
	Winner        Position
	LoserExcluded bool // always false; exclusion travels separately
}

// Scores are the authoritative ratings returned for a decision, by position.
type Scores struct {
	First  float64
	Second float64
}

// ShareCard is the non-interactive presentation of a pair used for export.
type ShareCard struct {
	MatchupID string
	First     Item
	Second    Item
}

// Card returns the share presentation of the pair as currently displayed.
func (m Matchup) Card() ShareCard {
	return ShareCard{MatchupID: m.ID, First: m.First, Second: m.Second}
}

// Image is an encoded snapshot of a share card.
type Image struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Empty reports whether the image holds no data.
func (i Image) Empty() bool { return len(i.Data) == 0 }
