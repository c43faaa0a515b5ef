// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"stvcount/auth"
	"stvcount/cliparse"
	"stvcount/middleware"
	"stvcount/models"
)

type VotingHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{db: db, cfg: cfg}
}

// ClaimUsername handles POST /elections/:slug/claim-username
func (h *VotingHandler) ClaimUsername(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	// Parse request
	var req models.ClaimUsernameRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Username == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username is required")
		return
	}

	// Validate username (basic validation)
	if len(req.Username) < 2 || len(req.Username) > 50 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username must be 2-50 characters")
		return
	}

	// Find election by share slug
	var electionID string
	var status string
	err := h.db.QueryRow(`
		SELECT id, status FROM election WHERE share_slug = $1
	`, shareSlug).Scan(&electionID, &status)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Can only claim username for open elections
	if status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open for voting")
		return
	}

	// Generate voter token
	voterToken, err := auth.GenerateVoterToken()
	if err != nil {
		slog.Error("failed to generate voter token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to claim username")
		return
	}

	// Insert username claim (UNIQUE constraint will prevent duplicates)
	_, err = h.db.Exec(`
		INSERT INTO username_claim (election_id, username, voter_token, created_at)
		VALUES ($1, $2, $3, $4)
	`, electionID, req.Username, voterToken, time.Now())

	if err != nil {
		// Check if it's a uniqueness violation
		if isUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "Username already taken")
			return
		}
		slog.Error("failed to insert username claim", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to claim username")
		return
	}

	// Link device to election as voter (if X-Device-UUID header present)
	deviceID, err := GetOrCreateDevice(h.db, r)
	if err != nil {
		slog.Warn("failed to get/create device", "error", err)
		// Non-fatal: username was claimed, just no device linking
	} else if deviceID != "" {
		if err := LinkDeviceToElection(h.db, deviceID, electionID, models.RoleVoter, &voterToken); err != nil {
			slog.Warn("failed to link device to election", "error", err)
		}
	}

	slog.Info("username claimed", "election_id", electionID, "username", req.Username)

	middleware.JSONResponse(w, http.StatusCreated, models.ClaimUsernameResponse{
		VoterToken: voterToken,
	})
}

// SubmitBallot handles POST /elections/:slug/ballots
// The ballot is a ranking of candidate IDs, most preferred first. A
// voter resubmitting replaces their previous ballot.
func (h *VotingHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	// Get voter token from header
	voterToken := r.Header.Get("X-Voter-Token")
	if voterToken == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Voter-Token header required")
		return
	}

	// Parse request
	var req models.SubmitBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Rankings) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "rankings cannot be empty")
		return
	}

	// A candidate may appear at most once
	seen := make(map[string]bool, len(req.Rankings))
	for _, candidateID := range req.Rankings {
		if seen[candidateID] {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Duplicate candidate in rankings: "+candidateID)
			return
		}
		seen[candidateID] = true
	}

	// Find election by share slug
	var electionID string
	var status string
	err := h.db.QueryRow(`
		SELECT id, status FROM election WHERE share_slug = $1
	`, shareSlug).Scan(&electionID, &status)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Can only vote on open elections
	if status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open for voting")
		return
	}

	// Verify voter token is valid for this election
	var exists bool
	err = h.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM username_claim
			WHERE election_id = $1 AND voter_token = $2
		)
	`, electionID, voterToken).Scan(&exists)

	if err != nil {
		slog.Error("failed to verify voter token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !exists {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid voter token for this election")
		return
	}

	// Get all valid candidate IDs for this election
	rows, err := h.db.Query(`
		SELECT id FROM candidate WHERE election_id = $1
	`, electionID)
	if err != nil {
		slog.Error("failed to query candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	validCandidates := make(map[string]bool)
	for rows.Next() {
		var candidateID string
		if err := rows.Scan(&candidateID); err != nil {
			slog.Error("failed to scan candidate", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		validCandidates[candidateID] = true
	}

	// Verify all ranked candidates exist
	for _, candidateID := range req.Rankings {
		if !validCandidates[candidateID] {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid candidate_id: "+candidateID)
			return
		}
	}

	// Get IP hash for tracking
	clientIP := middleware.GetClientIP(r)
	ipHash := auth.HashIP(clientIP, h.cfg.AdminKeySalt) // Reuse admin salt for IP hashing
	userAgent := r.UserAgent()

	// Begin transaction for UPSERT
	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	// Check if ballot already exists
	var existingBallotID string
	err = tx.QueryRow(`
		SELECT id FROM ballot WHERE election_id = $1 AND voter_token = $2
	`, electionID, voterToken).Scan(&existingBallotID)

	isUpdate := err != sql.ErrNoRows
	var ballotID string

	if isUpdate {
		// Update existing ballot
		ballotID = existingBallotID
		_, err = tx.Exec(`
			UPDATE ballot
			SET submitted_at = $1, ip_hash = $2, user_agent = $3
			WHERE id = $4
		`, time.Now(), ipHash, userAgent, ballotID)

		if err != nil {
			slog.Error("failed to update ballot", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update ballot")
			return
		}

		// Delete old rankings
		_, err = tx.Exec(`DELETE FROM ranking WHERE ballot_id = $1`, ballotID)
		if err != nil {
			slog.Error("failed to delete old rankings", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update ballot")
			return
		}
	} else {
		// Create new ballot
		ballotID = uuid.NewString()
		_, err = tx.Exec(`
			INSERT INTO ballot (id, election_id, voter_token, submitted_at, ip_hash, user_agent)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, ballotID, electionID, voterToken, time.Now(), ipHash, userAgent)

		if err != nil {
			slog.Error("failed to insert ballot", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit ballot")
			return
		}
	}

	// Insert rankings
	for pos, candidateID := range req.Rankings {
		_, err = tx.Exec(`
			INSERT INTO ranking (ballot_id, position, candidate_id)
			VALUES ($1, $2, $3)
		`, ballotID, pos, candidateID)

		if err != nil {
			slog.Error("failed to insert ranking", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save rankings")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit ballot")
		return
	}

	message := "Ballot submitted successfully"
	if isUpdate {
		message = "Ballot updated successfully"
	}

	slog.Info("ballot submitted", "election_id", electionID, "ballot_id", ballotID, "is_update", isUpdate)

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitBallotResponse{
		BallotID: ballotID,
		Message:  message,
	})
}

// GetMyBallot handles GET /elections/:slug/my-ballot
// Returns the caller's current ballot so a voter can review or revise it.
func (h *VotingHandler) GetMyBallot(w http.ResponseWriter, r *http.Request) {
	shareSlug := r.PathValue("slug")
	if shareSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	voterToken := r.Header.Get("X-Voter-Token")
	if voterToken == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Voter-Token header required")
		return
	}

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

	var ballot models.Ballot
	err = h.db.QueryRow(`
		SELECT id, election_id, submitted_at
		FROM ballot
		WHERE election_id = $1 AND voter_token = $2
	`, electionID, voterToken).Scan(&ballot.ID, &ballot.ElectionID, &ballot.SubmittedAt)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "No ballot submitted")
		return
	}
	if err != nil {
		slog.Error("failed to query ballot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT candidate_id FROM ranking WHERE ballot_id = $1 ORDER BY position
	`, ballot.ID)
	if err != nil {
		slog.Error("failed to query rankings", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	ballot.Rankings = []string{}
	for rows.Next() {
		var candidateID string
		if err := rows.Scan(&candidateID); err != nil {
			slog.Error("failed to scan ranking", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		ballot.Rankings = append(ballot.Rankings, candidateID)
	}

	middleware.JSONResponse(w, http.StatusOK, ballot)
}

// isUniqueViolation matches the unique-constraint errors both drivers
// produce. Neither exposes a stable error type for this through
// database/sql, so string matching it is.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
