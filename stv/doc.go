// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package stv counts multi-seat elections with the Single Transferable
Vote method using exact fractional vote weights.

# Counting Model

An Election is seeded with a candidate list and raw ranked ballots.
Invalid ballots (empty, or repeating a candidate) are counted as spoiled
and excluded. The Droop quota is computed once from the valid ballot
count:

	quota = valid/(seats+1) + 1

Counting proceeds in rounds. Each round either elects every candidate
at or above quota (transferring their surplus fractionally to later
preferences), elects all remaining candidates by default when no more
candidates remain than open seats, or eliminates the lowest-scoring
candidate and redistributes their ballots at full weight.

All weights and scores are math/big rationals; no floating point enters
the count, so repeated surplus transfers lose no precision.

# Usage

	e, err := stv.NewElection(stv.Config{
		Seats:        3,
		AllowDefault: true,
		TiePolicy:    stv.FirstInOrder,
	}, candidates, ballots)
	if err != nil {
		// bad configuration or candidate list
	}

	result, err := e.Run()

Run loops NextRound until every seat is filled or counting fails with a
*TieError or *UnfilledSeatsError. Both carry the candidates elected
before the failure. NextRound can be called directly for stepwise
consumers; it returns (nil, nil) once counting is complete.

# Tie Policies

Ties are genuinely ambiguous in STV, so a TiePolicy is required
configuration rather than a default: NoResolution refuses every tie,
FirstInOrder picks the least candidate for reproducible counts, and
Random draws uniformly for interactive use.
*/
package stv
