// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"stvcount/auth"
	"stvcount/ballotcsv"
	"stvcount/cliparse"
	"stvcount/middleware"
	"stvcount/models"
)

type ImportHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewImportHandler(db *sql.DB, cfg cliparse.Config) *ImportHandler {
	return &ImportHandler{db: db, cfg: cfg}
}

// ImportBallots handles POST /elections/:id/import
// Bulk-loads ballots from a rank-matrix CSV body: the header row lists
// candidate names, every following row is one ballot with rank numbers.
// Admin only, election must be open. Each imported ballot gets its own
// synthetic voter token; a row with a duplicate or malformed rank is
// stored with no rankings and counted as spoiled at close time.
func (h *ImportHandler) ImportBallots(w http.ResponseWriter, r *http.Request) {
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

	// Parse the CSV body
	defer r.Body.Close()
	csvCandidates, csvBallots, err := ballotcsv.Parse(r.Body)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid CSV: "+err.Error())
		return
	}

	// Map candidate names to IDs; every CSV column must name a known
	// candidate
	rows, err := h.db.Query(`
		SELECT id, name FROM candidate WHERE election_id = $1
	`, electionID)
	if err != nil {
		slog.Error("failed to query candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	candidateIDs := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			slog.Error("failed to scan candidate", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		candidateIDs[name] = id
	}

	for _, name := range csvCandidates {
		if _, ok := candidateIDs[name]; !ok {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown candidate in CSV: "+name)
			return
		}
	}

	// Insert all ballots in one transaction
	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	now := time.Now()
	for _, rankings := range csvBallots {
		voterToken, err := auth.GenerateVoterToken()
		if err != nil {
			slog.Error("failed to generate voter token", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to import ballots")
			return
		}

		ballotID := uuid.NewString()
		_, err = tx.Exec(`
			INSERT INTO ballot (id, election_id, voter_token, submitted_at)
			VALUES ($1, $2, $3, $4)
		`, ballotID, electionID, voterToken, now)
		if err != nil {
			slog.Error("failed to insert imported ballot", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to import ballots")
			return
		}

		for pos, name := range rankings {
			_, err = tx.Exec(`
				INSERT INTO ranking (ballot_id, position, candidate_id)
				VALUES ($1, $2, $3)
			`, ballotID, pos, candidateIDs[name])
			if err != nil {
				slog.Error("failed to insert imported ranking", "error", err)
				middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to import ballots")
				return
			}
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit import", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to import ballots")
		return
	}

	slog.Info("ballots imported", "election_id", electionID, "count", len(csvBallots))

	middleware.JSONResponse(w, http.StatusCreated, models.ImportBallotsResponse{
		Imported: len(csvBallots),
		Message:  fmt.Sprintf("Imported %d ballots", len(csvBallots)),
	})
}
