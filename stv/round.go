// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stv

import "math/big"

// Action is what a round did.
type Action string

const (
	Elected          Action = "elected"
	ElectedByDefault Action = "elected_by_default"
	Eliminated       Action = "eliminated"
)

// Round is the immutable record of one counting round: the score
// snapshot taken before the decision, the action, and the candidates
// it affected. Rounds are numbered from 1 and appended to the election
// history in order.
type Round struct {
	Number   int
	Scores   map[Candidate]*big.Rat
	Action   Action
	Affected []Candidate
}

// CandidateScore pairs a candidate with an exact score.
type CandidateScore struct {
	Candidate Candidate
	Score     *big.Rat
}

// snapshotScores deep-copies a score map so later weight mutations
// cannot reach into recorded history.
func snapshotScores(scores map[Candidate]*big.Rat) map[Candidate]*big.Rat {
	out := make(map[Candidate]*big.Rat, len(scores))
	for c, s := range scores {
		out[c] = new(big.Rat).Set(s)
	}
	return out
}
