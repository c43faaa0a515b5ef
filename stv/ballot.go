// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stv

import (
	"errors"
	"math/big"
)

// Candidate identifies a candidate by name. Candidates compare by their
// natural string ordering, which FirstInOrder relies on.
type Candidate string

// ErrSpoiledBallot marks a raw ballot that failed validation: empty
// after blank removal, or ranking the same candidate twice.
var ErrSpoiledBallot = errors.New("spoiled ballot")

// Ballot is a validated ranked preference list with its current
// fractional weight. A ballot belongs to exactly one allocation bucket
// at a time; surplus transfers scale its weight down, and its choice
// list shrinks from the front as candidates leave the count.
type Ballot struct {
	choices []Candidate
	weight  *big.Rat
}

// NewBallot validates a raw preference list. Blank entries (as left by
// tabular parsers for unranked columns) are dropped first; the result
// must be non-empty and free of duplicates, otherwise ErrSpoiledBallot
// is returned. The initial weight is 1.
func NewBallot(choices []Candidate) (*Ballot, error) {
	cleaned := make([]Candidate, 0, len(choices))
	seen := make(map[Candidate]bool, len(choices))
	for _, c := range choices {
		if c == "" {
			continue
		}
		if seen[c] {
			return nil, ErrSpoiledBallot
		}
		seen[c] = true
		cleaned = append(cleaned, c)
	}

	if len(cleaned) == 0 {
		return nil, ErrSpoiledBallot
	}

	return &Ballot{
		choices: cleaned,
		weight:  big.NewRat(1, 1),
	}, nil
}

// Weight returns a copy of the ballot's current weight.
func (b *Ballot) Weight() *big.Rat {
	return new(big.Rat).Set(b.weight)
}

// Choices returns a copy of the remaining preference list.
func (b *Ballot) Choices() []Candidate {
	out := make([]Candidate, len(b.choices))
	copy(out, b.choices)
	return out
}

// sumWeights adds up ballot weights exactly.
func sumWeights(ballots []*Ballot) *big.Rat {
	total := new(big.Rat)
	for _, b := range ballots {
		total.Add(total, b.weight)
	}
	return total
}
