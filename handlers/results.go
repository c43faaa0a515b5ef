// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"stvcount/cliparse"
	"stvcount/middleware"
	"stvcount/models"
)

type ResultsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg}
}

// GetElection handles GET /elections/:slug
// Returns election details and candidates, but NOT results (results are
// sealed until closed)
func (h *ResultsHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	response, err := getElectionWithCandidates(h.db, "share_slug", shareSlug)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, response)
}

// GetResults handles GET /elections/:slug/results
// Returns 403 if election is open (results are sealed)
// Returns final snapshot if election is closed
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	// Get election status and snapshot ID
	var status string
	var snapshotID sql.NullString
	err := h.db.QueryRow(`
		SELECT status, final_snapshot_id
		FROM election
		WHERE share_slug = $1
	`, shareSlug).Scan(&status, &snapshotID)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// CRITICAL: Results are sealed while election is open
	if status != models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are hidden until election is closed")
		return
	}

	// Election is closed, return final snapshot
	if !snapshotID.Valid {
		slog.Error("closed election has no snapshot", "slug", shareSlug)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Results not available")
		return
	}

	snapshot, err := getSnapshot(h.db, snapshotID.String)
	if err != nil {
		slog.Error("failed to load snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Get election information for the response
	election, err := getElectionWithCandidates(h.db, "share_slug", shareSlug)
	if err != nil {
		slog.Error("failed to query election for results", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Get ballot count
	var ballotCount int
	err = h.db.QueryRow(`
		SELECT COUNT(*) FROM ballot WHERE election_id = $1
	`, election.Election.ID).Scan(&ballotCount)

	if err != nil {
		slog.Error("failed to count ballots for results", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Return results in the format expected by frontend
	response := map[string]interface{}{
		"election":     election.Election,
		"result":       snapshot.Result,
		"ballot_count": ballotCount,
	}

	middleware.JSONResponse(w, http.StatusOK, response)
}

// GetBallotCount handles GET /elections/:slug/ballot-count
// Returns the number of ballots submitted (visible even while open)
func (h *ResultsHandler) GetBallotCount(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	// Get election ID
	var electionID string
	err := h.db.QueryRow(`
		SELECT id FROM election WHERE share_slug = $1
	`, shareSlug).Scan(&electionID)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Count ballots
	var count int
	err = h.db.QueryRow(`
		SELECT COUNT(*) FROM ballot WHERE election_id = $1
	`, electionID).Scan(&count)

	if err != nil {
		slog.Error("failed to count ballots", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.BallotCountResponse{
		BallotCount: count,
	})
}

// GetReport handles GET /elections/:slug/report
// Renders the sealed results as a plain-text count report, round by
// round. Same sealing rule as GetResults: 403 until the election closes.
func (h *ResultsHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	var electionID, title, status string
	var snapshotID sql.NullString
	err := h.db.QueryRow(`
		SELECT id, title, status, final_snapshot_id
		FROM election
		WHERE share_slug = $1
	`, shareSlug).Scan(&electionID, &title, &status, &snapshotID)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are hidden until election is closed")
		return
	}
	if !snapshotID.Valid {
		slog.Error("closed election has no snapshot", "slug", shareSlug)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Results not available")
		return
	}

	snapshot, err := getSnapshot(h.db, snapshotID.String)
	if err != nil {
		slog.Error("failed to load snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, formatReport(title, snapshot))
}

// getSnapshot loads a result snapshot and decodes its payload.
func getSnapshot(db *sql.DB, snapshotID string) (models.ResultSnapshot, error) {
	var snapshot models.ResultSnapshot
	var payload []byte
	err := db.QueryRow(`
		SELECT id, election_id, method, computed_at, payload
		FROM result_snapshot
		WHERE id = $1
	`, snapshotID).Scan(
		&snapshot.ID, &snapshot.ElectionID, &snapshot.Method,
		&snapshot.ComputedAt, &payload,
	)
	if err != nil {
		return snapshot, err
	}

	if err := json.Unmarshal(payload, &snapshot.Result); err != nil {
		return snapshot, fmt.Errorf("failed to parse snapshot payload: %w", err)
	}

	return snapshot, nil
}

// formatReport renders a count snapshot as human-readable text.
func formatReport(title string, snapshot models.ResultSnapshot) string {
	result := snapshot.Result
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", title)
	fmt.Fprintf(&b, "STV count, computed %s\n\n", humanize.Time(snapshot.ComputedAt))

	fmt.Fprintf(&b, "Seats: %d\n", result.Seats)
	fmt.Fprintf(&b, "Quota: %s votes\n", humanize.Comma(int64(result.Quota)))
	fmt.Fprintf(&b, "Valid ballots: %s\n", humanize.Comma(int64(result.ValidBallots)))
	fmt.Fprintf(&b, "Spoiled ballots: %s\n\n", humanize.Comma(int64(result.SpoiledBallots)))

	for _, round := range result.Rounds {
		fmt.Fprintf(&b, "Round %d: %s %s\n",
			round.Number, roundVerb(round.Action), strings.Join(round.Affected, ", "))
		for _, name := range sortedScoreNames(round.Scores) {
			score := round.Scores[name]
			fmt.Fprintf(&b, "  %-24s %s (%.3f)\n", name, score.Exact, score.Approx)
		}
	}

	b.WriteString("\n")
	switch result.Outcome {
	case models.OutcomeComplete:
		b.WriteString("Elected:\n")
		for i, elected := range result.Elected {
			fmt.Fprintf(&b, "  %s: %s with %s votes\n",
				humanize.Ordinal(i+1), elected.Name, elected.Score.Exact)
		}
	case models.OutcomeElectingTie, models.OutcomeEliminatingTie:
		fmt.Fprintf(&b, "Count failed: unresolved tie between %s\n", strings.Join(result.TiedCandidates, ", "))
		fmt.Fprintf(&b, "Seats left unfilled: %d\n", result.UnfilledSeats)
	case models.OutcomeUnfilledSeats:
		fmt.Fprintf(&b, "Count failed: %s\n", result.FailureReason)
		fmt.Fprintf(&b, "Seats left unfilled: %d\n", result.UnfilledSeats)
	}

	return b.String()
}

func roundVerb(action string) string {
	switch action {
	case "elected":
		return "elected"
	case "elected_by_default":
		return "elected by default"
	case "eliminated":
		return "eliminated"
	}
	return action
}

func sortedScoreNames(scores map[string]models.ExactScore) []string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	// Highest score first, then by name
	sort.Slice(names, func(i, j int) bool {
		if scores[names[i]].Approx != scores[names[j]].Approx {
			return scores[names[i]].Approx > scores[names[j]].Approx
		}
		return names[i] < names[j]
	})
	return names
}
