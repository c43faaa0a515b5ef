// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stv

import (
	"math/big"
	"sort"
)

// Allocation maps each remaining candidate to the ballots currently
// credited to them. Every unexhausted ballot sits in exactly one
// bucket: its most-preferred remaining candidate. Candidates leave the
// key set permanently when elected or eliminated.
type Allocation struct {
	buckets map[Candidate][]*Ballot
}

// NewAllocation creates an allocation with an empty bucket per
// candidate.
func NewAllocation(candidates []Candidate) *Allocation {
	buckets := make(map[Candidate][]*Ballot, len(candidates))
	for _, c := range candidates {
		buckets[c] = []*Ballot{}
	}
	return &Allocation{buckets: buckets}
}

// Add credits a ballot to its most-preferred remaining candidate,
// discarding leading preferences for candidates not in the allocation.
// Returns false if the ballot exhausted instead.
func (a *Allocation) Add(b *Ballot) bool {
	return a.transfer(b)
}

// transfer advances the ballot past departed candidates and pushes it
// onto the bucket of the first remaining preference. An exhausted
// ballot is dropped and contributes to no further score.
func (a *Allocation) transfer(b *Ballot) bool {
	for len(b.choices) > 0 {
		next := b.choices[0]
		if _, ok := a.buckets[next]; ok {
			a.buckets[next] = append(a.buckets[next], b)
			return true
		}
		b.choices = b.choices[1:]
	}
	return false
}

// Scores sums the ballot weights credited to every remaining
// candidate. The result is computed fresh on every call; weights and
// bucket membership change between rounds, so scores are never cached.
func (a *Allocation) Scores() map[Candidate]*big.Rat {
	scores := make(map[Candidate]*big.Rat, len(a.buckets))
	for c, ballots := range a.buckets {
		scores[c] = sumWeights(ballots)
	}
	return scores
}

// Remaining returns the remaining candidates in their natural order.
func (a *Allocation) Remaining() []Candidate {
	out := make([]Candidate, 0, len(a.buckets))
	for c := range a.buckets {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len reports how many candidates remain.
func (a *Allocation) Len() int {
	return len(a.buckets)
}

// CreditedWeight is the exact total weight still credited across all
// buckets. Exposed for conservation checks.
func (a *Allocation) CreditedWeight() *big.Rat {
	total := new(big.Rat)
	for _, ballots := range a.buckets {
		total.Add(total, sumWeights(ballots))
	}
	return total
}

// Elect removes a candidate whose score has reached quota and
// redistributes their surplus. Each of the candidate's ballots keeps
// the fraction surplus/quota of its value (the fractional transfer
// rule) and moves to its next remaining preference. A candidate at
// exactly quota has no surplus; their ballots are fully consumed.
func (a *Allocation) Elect(c Candidate, score, quota *big.Rat) {
	ballots := a.buckets[c]
	delete(a.buckets, c)

	surplus := new(big.Rat).Sub(score, quota)
	if surplus.Sign() == 0 {
		return
	}

	multiplier := new(big.Rat).Quo(surplus, quota)
	for _, b := range ballots {
		b.weight.Mul(b.weight, multiplier)
		b.choices = b.choices[1:]
		a.transfer(b)
	}
}

// Eliminate removes a candidate and redistributes their ballots at
// current weight.
func (a *Allocation) Eliminate(c Candidate) {
	ballots := a.buckets[c]
	delete(a.buckets, c)

	for _, b := range ballots {
		b.choices = b.choices[1:]
		a.transfer(b)
	}
}

// clear empties the allocation. Used when the remaining candidates win
// by default in a single round.
func (a *Allocation) clear() {
	a.buckets = map[Candidate][]*Ballot{}
}
