package deck

import (
	"math/rand"
	"sync"
)

// Deck deals cards in a shuffled order. With Infinite set, a drained deck
// reshuffles instead of running out.
type Deck struct {
	mu       sync.Mutex
	cards    []Card
	order    []int
	rng      *rand.Rand
	Infinite bool
}

// New creates a deck over cards and shuffles it with rng.
func New(cards []Card, rng *rand.Rand) *Deck {
	d := &Deck{cards: append([]Card(nil), cards...), rng: rng}
	d.shuffle()
	return d
}

// shuffle refills the draw order with every card index, Fisher-Yates.
func (d *Deck) shuffle() {
	d.order = d.order[:0]
	for i := range d.cards {
		d.order = append(d.order, i)
	}
	d.rng.Shuffle(len(d.order), func(i, j int) {
		d.order[i], d.order[j] = d.order[j], d.order[i]
	})
}

// Shuffle puts every card back and reshuffles.
func (d *Deck) Shuffle() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shuffle()
}

// Draw takes the next card. It returns false once a finite deck is empty.
func (d *Deck) Draw() (Card, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.order) == 0 {
		if !d.Infinite || len(d.cards) == 0 {
			return nil, false
		}
		d.shuffle()
	}
	last := len(d.order) - 1
	c := d.cards[d.order[last]]
	d.order = d.order[:last]
	return c, true
}

// Remaining returns how many cards are left before a reshuffle.
func (d *Deck) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.order)
}

// Len returns the number of distinct cards.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Card returns the card at index i of the deck definition.
func (d *Deck) Card(i int) (Card, bool) {
	if i < 0 || i >= len(d.cards) {
		return nil, false
	}
	return d.cards[i], true
}
