// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stv

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
)

// Config carries the settings an Election recognizes. TiePolicy is
// required; there is no sane default for tie handling.
type Config struct {
	Seats        int
	AllowDefault bool // permit electing all remaining candidates when none can reach quota
	TiePolicy    TiePolicy
}

// Election runs an STV count: it owns the quota, the live allocation,
// and the round history. Not safe for concurrent use; each advance
// mutates the allocation irreversibly.
type Election struct {
	cfg      Config
	quota    int
	quotaRat *big.Rat
	alloc    *Allocation

	valid   int
	spoiled int
	elected []CandidateScore
	rounds  []Round

	done    bool
	failure error
	result  *Result
}

// Result summarizes a completed count.
type Result struct {
	Seats          int
	Quota          int
	ValidBallots   int
	SpoiledBallots int
	Elected        []CandidateScore // in election order
	Rounds         []Round
}

// UnfilledSeats is how many seats the count left open. Zero for any
// count that ran to completion.
func (r *Result) UnfilledSeats() int {
	return r.Seats - len(r.Elected)
}

// NewElection validates the configuration, ingests the raw ballots
// (counting invalid ones as spoiled), computes the Droop quota from the
// valid ballot count, and seeds the allocation with every valid ballot
// credited to its first remaining preference.
func NewElection(cfg Config, candidates []Candidate, ballots [][]Candidate) (*Election, error) {
	if cfg.Seats < 1 {
		return nil, errors.New("must have at least 1 seat")
	}
	if cfg.TiePolicy == nil {
		return nil, errors.New("tie policy is required")
	}
	if len(candidates) == 0 {
		return nil, errors.New("candidate list is empty")
	}
	seen := make(map[Candidate]bool, len(candidates))
	for _, c := range candidates {
		if c == "" {
			return nil, errors.New("candidate name is empty")
		}
		if seen[c] {
			return nil, fmt.Errorf("duplicate candidate %q", c)
		}
		seen[c] = true
	}

	e := &Election{
		cfg:   cfg,
		alloc: NewAllocation(candidates),
	}

	for _, raw := range ballots {
		b, err := NewBallot(raw)
		if err != nil {
			e.spoiled++
			continue
		}
		e.valid++
		e.alloc.Add(b)
	}

	e.quota = e.valid/(cfg.Seats+1) + 1
	e.quotaRat = big.NewRat(int64(e.quota), 1)

	return e, nil
}

// Quota returns the Droop quota.
func (e *Election) Quota() int { return e.quota }

// ValidBallots returns the count of ballots that passed validation.
func (e *Election) ValidBallots() int { return e.valid }

// SpoiledBallots returns the count of ballots rejected at ingestion.
func (e *Election) SpoiledBallots() int { return e.spoiled }

// Done reports whether counting finished successfully.
func (e *Election) Done() bool { return e.done }

// Elected returns the candidates elected so far, in election order,
// each with the score they held when elected.
func (e *Election) Elected() []CandidateScore {
	out := make([]CandidateScore, len(e.elected))
	copy(out, e.elected)
	return out
}

// Rounds returns the recorded round history.
func (e *Election) Rounds() []Round {
	out := make([]Round, len(e.rounds))
	copy(out, e.rounds)
	return out
}

// NextRound executes one counting round. It returns the recorded Round,
// or (nil, nil) once every seat is filled. A tie or structural
// shortfall returns a terminal error; subsequent calls replay it.
func (e *Election) NextRound() (*Round, error) {
	if e.failure != nil {
		return nil, e.failure
	}
	if e.done {
		return nil, nil
	}

	open := e.cfg.Seats - len(e.elected)
	if e.alloc.Len() == 0 {
		return nil, e.fail(&UnfilledSeatsError{
			Elected:  e.electedNames(),
			Unfilled: open,
			Reason:   "not enough candidates to fill all seats",
		})
	}

	scores := e.alloc.Scores()
	snapshot := snapshotScores(scores)

	var action Action
	var affected []Candidate

	reached := e.reachedQuota(scores)
	switch {
	case len(reached) > 0:
		if len(reached) > open {
			trimmed, err := e.trimToOpen(reached, scores, open)
			if err != nil {
				return nil, e.fail(err)
			}
			reached = trimmed
		}
		for _, c := range reached {
			e.alloc.Elect(c, scores[c], e.quotaRat)
			e.elected = append(e.elected, CandidateScore{c, snapshot[c]})
		}
		action, affected = Elected, reached

	case e.alloc.Len() <= open:
		if !e.cfg.AllowDefault {
			return nil, e.fail(&UnfilledSeatsError{
				Elected:  e.electedNames(),
				Unfilled: open,
				Reason:   "not enough candidates could reach quota to fill all seats",
			})
		}
		winners := sortByScore(e.alloc.Remaining(), scores)
		for _, c := range winners {
			e.elected = append(e.elected, CandidateScore{c, snapshot[c]})
		}
		e.alloc.clear()
		action, affected = ElectedByDefault, winners

	default:
		lowest := minScoreSet(scores)
		loser := lowest[0]
		if len(lowest) > 1 {
			pick, ok := e.cfg.TiePolicy.BreakTie(lowest, false)
			if !ok {
				return nil, e.fail(&TieError{
					Elected:  e.electedNames(),
					Tied:     lowest,
					Electing: false,
				})
			}
			loser = pick
		}
		e.alloc.Eliminate(loser)
		action, affected = Eliminated, []Candidate{loser}
	}

	round := Round{
		Number:   len(e.rounds) + 1,
		Scores:   snapshot,
		Action:   action,
		Affected: affected,
	}
	e.rounds = append(e.rounds, round)

	if len(e.elected) >= e.cfg.Seats {
		e.done = true
		e.result = &Result{
			Seats:          e.cfg.Seats,
			Quota:          e.quota,
			ValidBallots:   e.valid,
			SpoiledBallots: e.spoiled,
			Elected:        e.Elected(),
			Rounds:         e.Rounds(),
		}
	}

	return &round, nil
}

// Run advances rounds until the count terminates. Calling Run again on
// a completed election returns the identical Result; on a failed one it
// replays the terminal error. Partial progress survives in Elected and
// Rounds either way.
func (e *Election) Run() (*Result, error) {
	for {
		if e.failure != nil {
			return nil, e.failure
		}
		if e.done {
			return e.result, nil
		}
		if _, err := e.NextRound(); err != nil {
			return nil, err
		}
	}
}

func (e *Election) fail(err error) error {
	e.failure = err
	return err
}

func (e *Election) electedNames() []Candidate {
	out := make([]Candidate, len(e.elected))
	for i, cs := range e.elected {
		out[i] = cs.Candidate
	}
	return out
}

// reachedQuota returns the candidates at or above quota, best score
// first. Equal scores order by candidate so processing is stable.
func (e *Election) reachedQuota(scores map[Candidate]*big.Rat) []Candidate {
	var reached []Candidate
	for c, s := range scores {
		if s.Cmp(e.quotaRat) >= 0 {
			reached = append(reached, c)
		}
	}
	return sortByScore(reached, scores)
}

// trimToOpen cuts an over-full reached-quota set down to exactly open
// winners. Candidates strictly above the boundary score keep their
// seats; the tie policy chooses among the boundary-tied until the set
// is full.
func (e *Election) trimToOpen(reached []Candidate, scores map[Candidate]*big.Rat, open int) ([]Candidate, error) {
	boundary := scores[reached[open-1]]

	var winners, tied []Candidate
	for _, c := range reached {
		switch scores[c].Cmp(boundary) {
		case 1:
			winners = append(winners, c)
		case 0:
			tied = append(tied, c)
		}
	}

	if len(winners)+len(tied) == open {
		return append(winners, tied...), nil
	}

	for len(winners) < open {
		pick, ok := e.cfg.TiePolicy.BreakTie(tied, true)
		if ok {
			ok = false
			for i, c := range tied {
				if c == pick {
					tied = append(tied[:i:i], tied[i+1:]...)
					ok = true
					break
				}
			}
		}
		if !ok {
			return nil, &TieError{
				Elected:  e.electedNames(),
				Tied:     tied,
				Electing: true,
			}
		}
		winners = append(winners, pick)
	}

	return winners, nil
}

// sortByScore orders candidates by descending score, then by candidate
// for determinism.
func sortByScore(candidates []Candidate, scores map[Candidate]*big.Rat) []Candidate {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	sort.Slice(out, func(i, j int) bool {
		if cmp := scores[out[i]].Cmp(scores[out[j]]); cmp != 0 {
			return cmp > 0
		}
		return out[i] < out[j]
	})
	return out
}

// minScoreSet returns every candidate at the minimum score, in natural
// order.
func minScoreSet(scores map[Candidate]*big.Rat) []Candidate {
	var min *big.Rat
	for _, s := range scores {
		if min == nil || s.Cmp(min) < 0 {
			min = s
		}
	}

	var lowest []Candidate
	for c, s := range scores {
		if s.Cmp(min) == 0 {
			lowest = append(lowest, c)
		}
	}
	sort.Slice(lowest, func(i, j int) bool { return lowest[i] < lowest[j] })
	return lowest
}
