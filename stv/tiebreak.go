// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stv

import (
	"fmt"
	"math/rand/v2"
)

// TiePolicy decides between tied candidates when a round cannot. The
// electing flag distinguishes a tie at the quota boundary from a tie at
// the minimum score. A policy may refuse by returning ok=false, in
// which case the round fails with a *TieError.
type TiePolicy interface {
	BreakTie(tied []Candidate, electing bool) (choice Candidate, ok bool)
}

// Policy names accepted by PolicyByName.
const (
	PolicyNone         = "none"
	PolicyFirstInOrder = "first_in_order"
	PolicyRandom       = "random"
)

// NoResolution refuses to break any tie.
var NoResolution TiePolicy = noResolution{}

// FirstInOrder picks the least candidate by natural ordering. Fully
// reproducible; the policy used in deterministic tests.
var FirstInOrder TiePolicy = firstInOrder{}

// Random draws one of the tied candidates uniformly. Fine for
// interactive use, unsuitable for reproducible counts.
var Random TiePolicy = randomPolicy{}

// PolicyByName maps a configured policy name to its implementation.
func PolicyByName(name string) (TiePolicy, error) {
	switch name {
	case PolicyNone:
		return NoResolution, nil
	case PolicyFirstInOrder:
		return FirstInOrder, nil
	case PolicyRandom:
		return Random, nil
	}
	return nil, fmt.Errorf("unknown tie policy %q", name)
}

type noResolution struct{}

func (noResolution) BreakTie([]Candidate, bool) (Candidate, bool) {
	return "", false
}

type firstInOrder struct{}

func (firstInOrder) BreakTie(tied []Candidate, _ bool) (Candidate, bool) {
	if len(tied) == 0 {
		return "", false
	}
	least := tied[0]
	for _, c := range tied[1:] {
		if c < least {
			least = c
		}
	}
	return least, true
}

type randomPolicy struct{}

func (randomPolicy) BreakTie(tied []Candidate, _ bool) (Candidate, bool) {
	if len(tied) == 0 {
		return "", false
	}
	return tied[rand.IntN(len(tied))], true
}
