// Package elo provides the rating math and pairing generation used by the
// pairwise-tournament strategies and the council's rating phase. Pure
// functions plus a small in-call ratings table; nothing is persisted
// between calls.
package elo

import (
	"math"
	"sort"
)

const (
	// InitialRating is the rating every candidate starts each call with.
	InitialRating = 1200.0
	// DefaultK is the K-factor applied to every rating update.
	DefaultK = 32.0
)

// Pair is one unordered pairing, by candidate index.
type Pair struct {
	A, B int
}

// AllPairs generates the round-robin schedule for n candidates:
// n*(n-1)/2 unordered pairs in deterministic order.
func AllPairs(n int) []Pair {
	if n < 2 {
		return nil
	}
	pairs := make([]Pair, 0, n*(n-1)/2)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, Pair{A: i, B: j})
		}
	}
	return pairs
}

// Expected returns the logistic expected score of a rated player a
// against b.
func Expected(ra, rb float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (rb-ra)/400.0))
}

// Update applies one rating update given the actual scores sa and sb and
// returns the new ratings. Decisive outcomes (1/0) are zero-sum; the tie
// semantics (0/0, 0.5/0.5, or no update at all) are chosen by the caller.
func Update(ra, rb, sa, sb, k float64) (float64, float64) {
	ea := Expected(ra, rb)
	eb := 1.0 - ea
	return ra + k*(sa-ea), rb + k*(sb-eb)
}

// Table tracks ratings keyed by candidate ID for the duration of one
// call. Insertion order is remembered and used as the tie-break, so equal
// ratings rank in original input order.
type Table struct {
	order   []string
	ratings map[string]float64
	k       float64
}

// NewTable seeds a ratings table with every ID at the initial rating.
func NewTable(ids []string, initial, k float64) *Table {
	t := &Table{
		order:   make([]string, 0, len(ids)),
		ratings: make(map[string]float64, len(ids)),
		k:       k,
	}
	for _, id := range ids {
		t.order = append(t.order, id)
		t.ratings[id] = initial
	}
	return t
}

// Rating returns the current rating for an ID.
func (t *Table) Rating(id string) float64 {
	return t.ratings[id]
}

// Apply runs one rating update between two IDs with the given actual
// scores.
func (t *Table) Apply(idA, idB string, sa, sb float64) {
	ra, rb := t.ratings[idA], t.ratings[idB]
	t.ratings[idA], t.ratings[idB] = Update(ra, rb, sa, sb, t.k)
}

// Standing is one row of the final ordering.
type Standing struct {
	ID     string
	Rating float64
	Rank   int
}

// Standings sorts descending by rating, stable by insertion order, and
// assigns dense 1-based ranks.
func (t *Table) Standings() []Standing {
	standings := make([]Standing, 0, len(t.order))
	for _, id := range t.order {
		standings = append(standings, Standing{ID: id, Rating: t.ratings[id]})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Rating > standings[j].Rating
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}
