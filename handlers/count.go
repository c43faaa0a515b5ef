// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"stvcount/models"
	"stvcount/stv"
)

// ComputeSTVResult loads an election's candidates and ballots, runs the
// STV count, and renders the outcome as a snapshot payload. A count that
// ends in an unresolved tie or unfilled seats is not an error here: the
// failure is recorded in the payload along with the partial results.
func ComputeSTVResult(db *sql.DB, electionID string) (models.STVResult, error) {
	seats, allowDefault, tiePolicy, err := getElectionSettings(db, electionID)
	if err != nil {
		return models.STVResult{}, fmt.Errorf("failed to get election settings: %w", err)
	}

	policy, err := stv.PolicyByName(tiePolicy)
	if err != nil {
		return models.STVResult{}, err
	}

	candidates, names, err := getCandidates(db, electionID)
	if err != nil {
		return models.STVResult{}, fmt.Errorf("failed to get candidates: %w", err)
	}

	ballots, err := getBallotRankings(db, electionID, names)
	if err != nil {
		return models.STVResult{}, fmt.Errorf("failed to get ballots: %w", err)
	}

	election, err := stv.NewElection(stv.Config{
		Seats:        seats,
		AllowDefault: allowDefault,
		TiePolicy:    policy,
	}, candidates, ballots)
	if err != nil {
		return models.STVResult{}, err
	}

	_, runErr := election.Run()

	result := models.STVResult{
		Outcome:        models.OutcomeComplete,
		Quota:          election.Quota(),
		Seats:          seats,
		ValidBallots:   election.ValidBallots(),
		SpoiledBallots: election.SpoiledBallots(),
		Elected:        electedCandidates(election.Elected()),
		Rounds:         roundRecords(election.Rounds()),
	}

	if runErr != nil {
		var tieErr *stv.TieError
		var seatsErr *stv.UnfilledSeatsError
		switch {
		case errors.As(runErr, &tieErr):
			if tieErr.Electing {
				result.Outcome = models.OutcomeElectingTie
			} else {
				result.Outcome = models.OutcomeEliminatingTie
			}
			result.TiedCandidates = candidateNames(tieErr.Tied)
			result.UnfilledSeats = seats - len(result.Elected)
			result.FailureReason = runErr.Error()
		case errors.As(runErr, &seatsErr):
			result.Outcome = models.OutcomeUnfilledSeats
			result.UnfilledSeats = seatsErr.Unfilled
			result.FailureReason = runErr.Error()
		default:
			return models.STVResult{}, runErr
		}
	}

	return result, nil
}

// getElectionSettings retrieves the STV configuration for an election
func getElectionSettings(db *sql.DB, electionID string) (seats int, allowDefault bool, tiePolicy string, err error) {
	var allow int
	err = db.QueryRow(`
		SELECT seats, allow_default, tie_policy FROM election WHERE id = $1
	`, electionID).Scan(&seats, &allow, &tiePolicy)
	return seats, allow != 0, tiePolicy, err
}

// getCandidates retrieves candidates in ballot-paper order, plus the
// id-to-name mapping used to translate stored rankings.
func getCandidates(db *sql.DB, electionID string) ([]stv.Candidate, map[string]stv.Candidate, error) {
	rows, err := db.Query(`
		SELECT id, name FROM candidate WHERE election_id = $1 ORDER BY position
	`, electionID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var candidates []stv.Candidate
	names := make(map[string]stv.Candidate)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, nil, err
		}
		candidates = append(candidates, stv.Candidate(name))
		names[id] = stv.Candidate(name)
	}

	return candidates, names, rows.Err()
}

// getBallotRankings retrieves every ballot's ranked preferences, most
// preferred first. A ballot with no rankings comes back empty and is
// counted as spoiled by the engine.
func getBallotRankings(db *sql.DB, electionID string, names map[string]stv.Candidate) ([][]stv.Candidate, error) {
	rows, err := db.Query(`
		SELECT b.id, r.candidate_id
		FROM ballot b
		LEFT JOIN ranking r ON r.ballot_id = b.id
		WHERE b.election_id = $1
		ORDER BY b.id, r.position
	`, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ballots [][]stv.Candidate
	var currentID string
	var current []stv.Candidate
	for rows.Next() {
		var ballotID string
		var candidateID sql.NullString
		if err := rows.Scan(&ballotID, &candidateID); err != nil {
			return nil, err
		}

		if ballotID != currentID {
			if currentID != "" {
				ballots = append(ballots, current)
			}
			currentID = ballotID
			current = nil
		}
		if candidateID.Valid {
			current = append(current, names[candidateID.String])
		}
	}
	if currentID != "" {
		ballots = append(ballots, current)
	}

	return ballots, rows.Err()
}

// exactScore renders a rational score both exactly and as a display
// approximation.
func exactScore(r *big.Rat) models.ExactScore {
	approx, _ := r.Float64()
	return models.ExactScore{
		Exact:  r.RatString(),
		Approx: approx,
	}
}

func electedCandidates(elected []stv.CandidateScore) []models.ElectedCandidate {
	out := make([]models.ElectedCandidate, len(elected))
	for i, cs := range elected {
		out[i] = models.ElectedCandidate{
			Name:  string(cs.Candidate),
			Score: exactScore(cs.Score),
		}
	}
	return out
}

func candidateNames(candidates []stv.Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = string(c)
	}
	return out
}

func roundRecords(rounds []stv.Round) []models.RoundRecord {
	out := make([]models.RoundRecord, len(rounds))
	for i, round := range rounds {
		scores := make(map[string]models.ExactScore, len(round.Scores))
		for c, s := range round.Scores {
			scores[string(c)] = exactScore(s)
		}
		out[i] = models.RoundRecord{
			Number:   round.Number,
			Scores:   scores,
			Action:   string(round.Action),
			Affected: candidateNames(round.Affected),
		}
	}
	return out
}
