// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"stvcount/auth"
	"stvcount/cliparse"
	"stvcount/middleware"
	"stvcount/models"
	"stvcount/stv"
)

type ElectionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewElectionHandler(db *sql.DB, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{db: db, cfg: cfg}
}

// CreateElection handles POST /elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.CreatorName == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "creator_name is required")
		return
	}
	if req.Seats < 1 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "seats must be at least 1")
		return
	}
	if req.TiePolicy == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "tie_policy is required")
		return
	}
	if _, err := stv.PolicyByName(req.TiePolicy); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "tie_policy must be none, first_in_order, or random")
		return
	}

	// Generate election ID
	electionID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate election ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	// Generate admin key
	adminKey := auth.GenerateAdminKey(electionID, h.cfg.AdminKeySalt)

	allowDefault := 0
	if req.AllowDefaultElection {
		allowDefault = 1
	}

	// Insert election into database
	_, err = h.db.Exec(`
		INSERT INTO election (id, title, description, creator_name, method, seats, allow_default, tie_policy, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, electionID, req.Title, req.Description, req.CreatorName, models.MethodSTV,
		req.Seats, allowDefault, req.TiePolicy, models.StatusDraft, time.Now())

	if err != nil {
		slog.Error("failed to insert election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	slog.Info("election created", "election_id", electionID, "creator", req.CreatorName, "seats", req.Seats)

	// Return response
	middleware.JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{
		ElectionID: electionID,
		AdminKey:   adminKey,
	})
}

// AddCandidate handles POST /elections/:id/candidates
func (h *ElectionHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	// Validate admin key
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(electionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	// Parse request
	var req models.AddCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	// Check election exists and is in draft status
	var status string
	err := h.db.QueryRow("SELECT status FROM election WHERE id = $1", electionID).Scan(&status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot add candidates to non-draft election")
		return
	}

	// Candidate names must be unique within an election
	var existing int
	err = h.db.QueryRow(`
		SELECT COUNT(*) FROM candidate WHERE election_id = $1 AND name = $2
	`, electionID, req.Name).Scan(&existing)
	if err != nil {
		slog.Error("failed to query candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if existing > 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Candidate name already exists")
		return
	}

	// Generate candidate ID
	candidateID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate candidate ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create candidate")
		return
	}

	// Insert candidate at the next ballot-paper position
	_, err = h.db.Exec(`
		INSERT INTO candidate (id, election_id, name, position)
		SELECT $1, $2, $3, COALESCE(MAX(position), -1) + 1
		FROM candidate WHERE election_id = $4
	`, candidateID, electionID, req.Name, electionID)

	if err != nil {
		slog.Error("failed to insert candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create candidate")
		return
	}

	slog.Info("candidate added", "election_id", electionID, "candidate_id", candidateID)

	middleware.JSONResponse(w, http.StatusCreated, models.AddCandidateResponse{
		CandidateID: candidateID,
	})
}

// PublishElection handles POST /elections/:id/publish
func (h *ElectionHandler) PublishElection(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	// Validate admin key
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(electionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	// Check election exists and is in draft status
	var status string
	var candidateCount int
	err := h.db.QueryRow(`
		SELECT e.status, COUNT(c.id)
		FROM election e
		LEFT JOIN candidate c ON e.id = c.election_id
		WHERE e.id = $1
		GROUP BY e.status
	`, electionID).Scan(&status, &candidateCount)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not in draft status")
		return
	}

	if candidateCount < 2 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Election must have at least 2 candidates")
		return
	}

	// Generate share slug
	shareSlug := auth.GenerateShareSlug(electionID, h.cfg.ElectionSlugSalt)

	// Update election to open status
	_, err = h.db.Exec(`
		UPDATE election
		SET status = $1, share_slug = $2
		WHERE id = $3
	`, models.StatusOpen, shareSlug, electionID)

	if err != nil {
		slog.Error("failed to publish election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to publish election")
		return
	}

	slog.Info("election published", "election_id", electionID, "share_slug", shareSlug)

	// Build share URL (could be configurable)
	baseURL := "https://stvcount.app" // TODO: Make this configurable
	shareURL := baseURL + "/elections/" + shareSlug

	middleware.JSONResponse(w, http.StatusOK, models.PublishElectionResponse{
		ShareSlug: shareSlug,
		ShareURL:  shareURL,
	})
}

// GetElectionAdmin handles GET /elections/:id/admin
// Returns election details for admin access using election ID and admin key
func (h *ElectionHandler) GetElectionAdmin(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	// Validate admin key
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(electionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	response, err := getElectionWithCandidates(h.db, "id", electionID)
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

// CloseElection handles POST /elections/:id/close
// Closing an open election runs the STV count and seals the result as an
// immutable snapshot. A count that fails on a tie or unfilled seats
// still closes the election; the snapshot records the failure and the
// partial results.
func (h *ElectionHandler) CloseElection(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election_id is required")
		return
	}

	// Validate admin key
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(electionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	// Check election exists and is open
	var status string
	err := h.db.QueryRow("SELECT status FROM election WHERE id = $1", electionID).Scan(&status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open")
		return
	}

	// Run the STV count
	result, err := ComputeSTVResult(h.db, electionID)
	if err != nil {
		slog.Error("failed to compute results", "election_id", electionID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute results")
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		slog.Error("failed to marshal results", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}

	snapshotID := uuid.NewString()
	closedAt := time.Now()

	// Begin transaction
	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	// Update election to closed
	_, err = tx.Exec(`
		UPDATE election
		SET status = $1, closed_at = $2, final_snapshot_id = $3
		WHERE id = $4
	`, models.StatusClosed, closedAt, snapshotID, electionID)

	if err != nil {
		slog.Error("failed to close election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close election")
		return
	}

	// Insert result snapshot
	_, err = tx.Exec(`
		INSERT INTO result_snapshot (id, election_id, method, computed_at, payload)
		VALUES ($1, $2, $3, $4, $5)
	`, snapshotID, electionID, models.MethodSTV, closedAt, string(payload))

	if err != nil {
		slog.Error("failed to insert snapshot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save results")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to close election")
		return
	}

	slog.Info("election closed", "election_id", electionID, "snapshot_id", snapshotID, "outcome", result.Outcome)

	middleware.JSONResponse(w, http.StatusOK, models.CloseElectionResponse{
		ClosedAt: closedAt,
		Snapshot: models.ResultSnapshot{
			ID:         snapshotID,
			ElectionID: electionID,
			Method:     models.MethodSTV,
			ComputedAt: closedAt,
			Result:     result,
		},
	})
}

// getElectionWithCandidates loads an election by the given column ("id"
// or "share_slug") along with its candidates in ballot-paper order.
func getElectionWithCandidates(db *sql.DB, column, value string) (models.ElectionWithCandidates, error) {
	var response models.ElectionWithCandidates
	var election models.Election
	var allowDefault int

	query := `
		SELECT id, title, description, creator_name, method, seats, allow_default, tie_policy,
		       status, share_slug, closed_at, final_snapshot_id, created_at
		FROM election
		WHERE ` + column + ` = $1`
	err := db.QueryRow(query, value).Scan(
		&election.ID, &election.Title, &election.Description, &election.CreatorName,
		&election.Method, &election.Seats, &allowDefault, &election.TiePolicy,
		&election.Status, &election.ShareSlug, &election.ClosedAt,
		&election.FinalSnapshotID, &election.CreatedAt,
	)
	if err != nil {
		return response, err
	}
	election.AllowDefaultElection = allowDefault != 0

	rows, err := db.Query(`
		SELECT id, election_id, name, position
		FROM candidate
		WHERE election_id = $1
		ORDER BY position
	`, election.ID)
	if err != nil {
		return response, err
	}
	defer rows.Close()

	candidates := []models.CandidateRow{}
	for rows.Next() {
		var c models.CandidateRow
		if err := rows.Scan(&c.ID, &c.ElectionID, &c.Name, &c.Position); err != nil {
			return response, err
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return response, err
	}

	response.Election = election
	response.Candidates = candidates
	return response, nil
}
